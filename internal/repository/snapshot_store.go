package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ValueCheck/internal/domain/models"
	"ValueCheck/internal/domain/repository"
	pkgch "ValueCheck/pkg/clickhouse"
	xlogger "ValueCheck/pkg/logger"
)

const snapshotTable = "valuation_snapshots"

// SnapshotSchema returns the DDL for the archive in database db.
func SnapshotSchema(db string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", db),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
    ticker         LowCardinality(String),
    period         LowCardinality(String),
    captured_at    DateTime64(3, 'UTC'),
    price          Nullable(Float64),
    dcf_base       Nullable(Float64),
    graham         Nullable(Float64),
    lynch          Nullable(Float64),
    implied_growth Nullable(Float64),
    altman_z       Nullable(Float64)
)
ENGINE = MergeTree
ORDER BY (ticker, period, captured_at)`, db, snapshotTable),
	}
}

// ClickHouseSnapshotStore implements SnapshotStore backed by ClickHouse.
type ClickHouseSnapshotStore struct {
	client *pkgch.Client
	db     *sql.DB
	table  string
	l      *xlogger.Logger
}

// NewClickHouseSnapshotStore creates the archive table when missing.
func NewClickHouseSnapshotStore(ctx context.Context, client *pkgch.Client, l *xlogger.Logger) (repository.SnapshotStore, error) {
	if err := client.InitSchema(ctx, SnapshotSchema(client.Database())...); err != nil {
		return nil, err
	}
	return &ClickHouseSnapshotStore{
		client: client,
		db:     client.DB(),
		table:  client.Database() + "." + snapshotTable,
		l:      l,
	}, nil
}

func (s *ClickHouseSnapshotStore) SaveSnapshot(ctx context.Context, snap models.ValuationSnapshot) error {
	q := fmt.Sprintf("INSERT INTO %s (ticker, period, captured_at, price, dcf_base, graham, lynch, implied_growth, altman_z) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)", s.table)
	_, err := s.db.ExecContext(ctx, q,
		snap.Ticker,
		string(snap.Period),
		snap.CapturedAt,
		snap.Price,
		snap.DCFBase,
		snap.Graham,
		snap.Lynch,
		snap.ImpliedGrowth,
		snap.AltmanZ,
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// History returns up to limit snapshots, newest first.
func (s *ClickHouseSnapshotStore) History(ctx context.Context, ticker string, period models.Period, limit int) ([]models.ValuationSnapshot, error) {
	start := time.Now()
	q := fmt.Sprintf(`
        SELECT ticker, period, captured_at, price, dcf_base, graham, lynch, implied_growth, altman_z
        FROM %s
        WHERE ticker = ? AND period = ?
        ORDER BY captured_at DESC
        LIMIT ?
    `, s.table)
	rows, err := s.db.QueryContext(ctx, q, ticker, string(period), limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	out := make([]models.ValuationSnapshot, 0, limit)
	for rows.Next() {
		var (
			snap   models.ValuationSnapshot
			period string
		)
		if err := rows.Scan(&snap.Ticker, &period, &snap.CapturedAt, &snap.Price, &snap.DCFBase,
			&snap.Graham, &snap.Lynch, &snap.ImpliedGrowth, &snap.AltmanZ); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snap.Period = models.Period(period)
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	s.l.Debug("clickhouse history ok",
		xlogger.String("ticker", ticker),
		xlogger.Int("rows", len(out)),
		xlogger.Duration("duration_ms", time.Since(start)),
	)
	return out, nil
}

func (s *ClickHouseSnapshotStore) Close() error { return s.client.Close() }

// NoopSnapshotStore archives nothing. Wired when ClickHouse is disabled.
type NoopSnapshotStore struct{}

func (NoopSnapshotStore) SaveSnapshot(context.Context, models.ValuationSnapshot) error { return nil }

func (NoopSnapshotStore) History(context.Context, string, models.Period, int) ([]models.ValuationSnapshot, error) {
	return []models.ValuationSnapshot{}, nil
}

func (NoopSnapshotStore) Close() error { return nil }
