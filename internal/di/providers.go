package di

import (
	"context"
	"fmt"
	"time"

	"ValueCheck/internal/domain/repository"
	"ValueCheck/internal/handler/api"
	internalrepo "ValueCheck/internal/repository"
	tcache "ValueCheck/internal/service/cache"
	"ValueCheck/internal/service/fmp"
	"ValueCheck/internal/service/quota"
	"ValueCheck/internal/service/quotes"
	"ValueCheck/internal/service/sec"
	"ValueCheck/internal/service/yahoo"
	"ValueCheck/internal/services/fx"
	"ValueCheck/internal/usecase"
	"ValueCheck/pkg/cache"
	pkgch "ValueCheck/pkg/clickhouse"
	"ValueCheck/pkg/config"
	xhttp "ValueCheck/pkg/http"
	pkgkafka "ValueCheck/pkg/kafka"
	applogger "ValueCheck/pkg/logger"
	"ValueCheck/pkg/metrics"
	"ValueCheck/pkg/server"
)

const connectTimeout = 10 * time.Second

// StoreSet is the selected key/value backend. Pruner is set only when the
// backend keeps expired rows around (postgres).
type StoreSet struct {
	Store  cache.Store
	Pruner server.Pruner
}

// Caches groups the tiered views over the store.
type Caches struct {
	Records *tcache.Tiered // stock records, ticker index, trending
	FX      *tcache.Tiered
}

// FactsSource pairs a ticker registry with the provider that understands its
// company identifiers.
type FactsSource struct {
	Registry repository.TickerRegistry
	Provider repository.FactsProvider
}

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	l = l.With(applogger.String("service", "valuecheck"))

	agg := cfg.Log.Aggregate
	if !agg.Enabled {
		return l, nil
	}
	if !cfg.Kafka.Enabled {
		l.Warn("log aggregation needs kafka, keeping plain logs")
		return l, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithTopic(agg.Topic),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithTimeouts(cfg.Kafka.WriteTimeout, cfg.Kafka.WriteTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("log aggregation producer: %w", err)
	}
	collector := applogger.NewLogCollector(&applogger.CollectionConfig{
		TimeInterval:   agg.Interval,
		CountThreshold: agg.Threshold,
		Topic:          agg.Topic,
		Publisher:      producer,
	})
	l.Info("log aggregation enabled", applogger.String("topic", agg.Topic))
	return l.WithCollector(collector), nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideStore opens the configured backend, optionally behind a memory L1.
func ProvideStore(cfg *config.Config, l *applogger.Logger) (*StoreSet, error) {
	set := &StoreSet{}
	switch cfg.Store.Type {
	case "redis":
		rs, err := cache.NewRedisStore(
			cache.WithRedisHost(cfg.Store.Redis.Host),
			cache.WithRedisPort(cfg.Store.Redis.Port),
			cache.WithRedisPassword(cfg.Store.Redis.Password),
			cache.WithRedisDB(cfg.Store.Redis.DB),
			cache.WithRedisPool(cfg.Store.Redis.PoolSize, 2, 30*time.Second),
			cache.WithRedisPrefix(cfg.Store.Redis.Prefix),
		)
		if err != nil {
			return nil, fmt.Errorf("redis store: %w", err)
		}
		set.Store = rs
	case "postgres":
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		ps, err := cache.NewPostgresStore(ctx,
			cache.WithPostgresDSN(cfg.Store.Postgres.DSN),
			cache.WithPostgresTable(cfg.Store.Postgres.Table),
		)
		if err != nil {
			return nil, fmt.Errorf("postgres store: %w", err)
		}
		set.Store, set.Pruner = ps, ps
	default:
		set.Store = cache.NewMemoryStore(
			cache.WithMemoryMaxSize(cfg.Store.Memory.MaxSize),
			cache.WithMemoryCleanup(cfg.Store.Memory.CleanupInterval),
		)
		l.Info("using in-process store", applogger.Int("max_size", cfg.Store.Memory.MaxSize))
		return set, nil
	}

	if cfg.Store.Layered {
		set.Store = cache.NewLayeredStore(set.Store,
			cache.WithLayeredMemorySize(cfg.Store.Memory.MaxSize),
		)
	}
	l.Info("store connected", applogger.String("type", cfg.Store.Type), applogger.Bool("layered", cfg.Store.Layered))
	return set, nil
}

func ProvideCaches(cfg *config.Config, set *StoreSet) *Caches {
	return &Caches{
		Records: tcache.NewTiered(set.Store, cfg.Cache.FreshTTL, cfg.Cache.StaleTTL),
		FX:      tcache.NewTiered(set.Store, cfg.Cache.FXFreshTTL, cfg.Cache.StaleTTL),
	}
}

func ProvideQuotaGate(cfg *config.Config, set *StoreSet) *quota.Gate {
	return quota.NewGate(set.Store, cfg.Quota.DailyNewTickerCap, time.Now)
}

func ProvideSECClient(cfg *config.Config) *sec.Client {
	return sec.New(cfg.SEC.UserAgent,
		sec.WithTickersURL(cfg.SEC.TickersURL),
		sec.WithBaseURL(cfg.SEC.BaseURL),
		sec.WithRateLimit(cfg.SEC.RateLimit),
		sec.WithTimeout(cfg.SEC.Timeout),
	)
}

func ProvideFMPClient(cfg *config.Config) *fmp.Client {
	return fmp.New(cfg.FMP.APIKey, cfg.FMP.Timeout,
		fmp.WithBaseURL(cfg.FMP.BaseURL),
		fmp.WithLimit(cfg.FMP.Limit),
	)
}

func ProvideYahooClient(cfg *config.Config) *yahoo.Client {
	return yahoo.New(cfg.Yahoo.BaseURL, cfg.Yahoo.Timeout)
}

// ProvideTickerIndex builds the SEC ticker list used for search and, with the
// sec provider, ticker resolution.
func ProvideTickerIndex(cfg *config.Config, client *sec.Client, caches *Caches, m repository.Metrics, l *applogger.Logger) *usecase.TickerIndex {
	return usecase.NewTickerIndex(client, caches.Records, cfg.Cache.FreshTTL, m, l)
}

// ProvideFactsSource selects the facts backend from facts.provider.
func ProvideFactsSource(cfg *config.Config, index *usecase.TickerIndex, secClient *sec.Client, fmpClient *fmp.Client, l *applogger.Logger) *FactsSource {
	if cfg.Facts.Provider == "fmp" {
		return &FactsSource{
			Registry: fmp.NewRegistry(fmpClient),
			Provider: fmp.NewFactsProvider(fmpClient),
		}
	}
	return &FactsSource{
		Registry: index,
		Provider: sec.NewFactsProvider(secClient, l.With(applogger.String("component", "sec")), cfg.SEC.FetchSubmission),
	}
}

// ProvideQuotes chains FMP (when keyed) in front of Yahoo (when enabled).
func ProvideQuotes(cfg *config.Config, fmpClient *fmp.Client, yahooClient *yahoo.Client, m repository.Metrics, l *applogger.Logger) repository.QuoteProvider {
	var sources []quotes.Source
	if fmpClient.Enabled() {
		sources = append(sources, quotes.Source{Name: "fmp", Provider: fmpClient})
	}
	if cfg.Yahoo.Enabled {
		sources = append(sources, quotes.Source{Name: "yahoo", Provider: yahooClient})
	}
	if len(sources) == 0 {
		l.Warn("no quote source configured, records will have no price")
	}
	return quotes.NewChain(m, l.With(applogger.String("component", "quotes")), sources...)
}

func ProvideNormalizer(yahooClient *yahoo.Client, caches *Caches, m repository.Metrics, l *applogger.Logger) *fx.Normalizer {
	return fx.NewNormalizer(yahooClient, caches.FX, m, l)
}

func ProvideRecordBuilder(n *fx.Normalizer) *usecase.RecordBuilder {
	return usecase.NewRecordBuilder(n)
}

// ProvideRecordPublisher creates the Kafka publisher, or a no-op one when
// kafka is disabled.
func ProvideRecordPublisher(cfg *config.Config, l *applogger.Logger) (repository.RecordPublisher, error) {
	if !cfg.Kafka.Enabled {
		return internalrepo.NoopPublisher{}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithTopic(cfg.Kafka.Topic),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithTimeouts(cfg.Kafka.WriteTimeout, cfg.Kafka.WriteTimeout),
		pkgkafka.WithAsync(cfg.Kafka.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	l.Info("kafka publisher ready", applogger.Strings("brokers", cfg.Kafka.Brokers), applogger.String("topic", cfg.Kafka.Topic))
	return internalrepo.NewKafkaRecordPublisher(producer), nil
}

// ProvideSnapshotStore connects ClickHouse and ensures the schema, or returns
// a no-op store when clickhouse is disabled.
func ProvideSnapshotStore(cfg *config.Config, l *applogger.Logger) (repository.SnapshotStore, error) {
	if !cfg.ClickHouse.Enabled {
		return internalrepo.NoopSnapshotStore{}, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	client, err := pkgch.NewClient(ctx,
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithAsyncInsert(true),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	store, err := internalrepo.NewClickHouseSnapshotStore(ctx, client, l)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	l.Info("clickhouse: connected and schema ready", applogger.String("db", cfg.ClickHouse.Database))
	return store, nil
}

func ProvideStockAssembler(
	caches *Caches,
	gate *quota.Gate,
	src *FactsSource,
	quoteProvider repository.QuoteProvider,
	builder *usecase.RecordBuilder,
	publisher repository.RecordPublisher,
	snapshots repository.SnapshotStore,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.StockAssembler {
	return usecase.NewStockAssembler(caches.Records, gate, src.Registry, src.Provider, quoteProvider, builder, publisher, snapshots, m, l)
}

func ProvideTrending(cfg *config.Config, caches *Caches, l *applogger.Logger) *usecase.Trending {
	return usecase.NewTrending(caches.Records, cfg.Trending.Tickers, l)
}

func ProvideSearch(index *usecase.TickerIndex) *usecase.Search {
	return usecase.NewSearch(index)
}

func ProvideStockHandler(cfg *config.Config, l *applogger.Logger, stocks *usecase.StockAssembler, trending *usecase.Trending, search *usecase.Search) *api.StockEchoHandler {
	return api.NewStockEchoHandler(l, stocks, trending, search, cfg.Server.CacheMaxAge, cfg.Server.SearchRPS)
}

func ProvideHTTPServer(cfg *config.Config, l *applogger.Logger, h *api.StockEchoHandler) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer(h, l,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithMetricsPath(metricsPath),
	)
}

// ProvideApp creates the application server. Resources are closed in reverse
// order: snapshots, publisher, the store, then the log collector.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	srv *xhttp.Server,
	trending *usecase.Trending,
	set *StoreSet,
	publisher repository.RecordPublisher,
	snapshots repository.SnapshotStore,
) *server.App {
	opts := []server.Option{
		server.WithCloser("log collector", l),
		server.WithCloser("store", set.Store),
		server.WithCloser("kafka publisher", publisher),
		server.WithCloser("snapshot store", snapshots),
	}
	if set.Pruner != nil {
		opts = append(opts, server.WithPruner(set.Pruner))
	}
	return server.New(cfg, l, srv, trending, opts...)
}
