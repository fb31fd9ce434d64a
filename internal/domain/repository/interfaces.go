package repository

import (
	"context"

	"ValueCheck/internal/domain/models"
)

// TickerRegistry resolves a ticker symbol to a company identifier.
type TickerRegistry interface {
	Lookup(ctx context.Context, ticker string) (models.Company, error)
}

// FactsProvider returns the raw financial facts of a company.
type FactsProvider interface {
	CompanyFacts(ctx context.Context, company models.Company, period models.Period) (*models.FactSet, error)
}

// QuoteProvider returns market data for a symbol.
type QuoteProvider interface {
	Quote(ctx context.Context, symbol string) (*models.Quote, error)
}

// RateProvider returns the multiplier converting one unit of currency into USD.
type RateProvider interface {
	RateToUSD(ctx context.Context, currency string) (float64, error)
}

// RecordPublisher emits computed records to downstream consumers.
type RecordPublisher interface {
	PublishRecord(ctx context.Context, rec *models.CompanyRecord) error
	Close() error
}

// SnapshotStore archives valuation snapshots.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snap models.ValuationSnapshot) error
	History(ctx context.Context, ticker string, period models.Period, limit int) ([]models.ValuationSnapshot, error)
	Close() error
}

// Metrics records service-level counters and latencies.
type Metrics interface {
	RecordCacheLookup(result string)
	RecordQuotaDecision(outcome string)
	RecordUpstreamError(provider string)
	RecordFXFallback(currency string)
	RecordLatency(op string, seconds float64)
}
