package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultTrendingTickers is used when trending.tickers is empty.
var DefaultTrendingTickers = []string{
	"AAPL", "MSFT", "GOOGL", "AMZN", "NVDA", "BRK.B", "META", "TSLA", "UNH", "JPM",
	"V", "XOM", "AVGO", "MA", "LLY", "WMT", "COST", "HD", "KO", "PEP",
}

const DefaultSECUserAgent = "ValueCheck/1.0 (contact: support@valuecheck.local)"

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"required"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080" validate:"gt=0,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		CacheMaxAge     time.Duration `yaml:"cache_max_age" default:"300s"`
		SearchRPS       float64       `yaml:"search_rps" default:"20"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
		Format string `yaml:"format" default:"console" validate:"oneof=console json"`
		Output string `yaml:"output" default:"stdout"`
		// Aggregate publishes counted warn and error events to Kafka.
		// It needs kafka.enabled.
		Aggregate struct {
			Enabled   bool          `yaml:"enabled"`
			Topic     string        `yaml:"topic" default:"valuecheck.logs"`
			Interval  time.Duration `yaml:"interval" default:"30s"`
			Threshold int           `yaml:"threshold" default:"100" validate:"min=1"`
		} `yaml:"aggregate"`
	} `yaml:"log"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Store struct {
		Type    string `yaml:"type" default:"memory" validate:"oneof=memory redis postgres"`
		Layered bool   `yaml:"layered"`
		Memory  struct {
			MaxSize         int           `yaml:"max_size" default:"5000" validate:"gt=0"`
			CleanupInterval time.Duration `yaml:"cleanup_interval" default:"5m"`
		} `yaml:"memory"`
		Redis struct {
			Host     string `yaml:"host" default:"localhost"`
			Port     int    `yaml:"port" default:"6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			PoolSize int    `yaml:"pool_size" default:"10"`
			Prefix   string `yaml:"prefix" default:"valuecheck"`
		} `yaml:"redis"`
		Postgres struct {
			DSN   string `yaml:"dsn"`
			Table string `yaml:"table" default:"kv_store"`
		} `yaml:"postgres"`
	} `yaml:"store"`
	Cache struct {
		FreshTTL   time.Duration `yaml:"fresh_ttl" default:"24h"`
		StaleTTL   time.Duration `yaml:"stale_ttl" default:"168h"`
		FXFreshTTL time.Duration `yaml:"fx_fresh_ttl" default:"1h"`
	} `yaml:"cache"`
	Quota struct {
		DailyNewTickerCap int `yaml:"daily_new_ticker_cap" default:"25"`
	} `yaml:"quota"`
	Facts struct {
		Provider string `yaml:"provider" default:"sec" validate:"oneof=sec fmp"`
	} `yaml:"facts"`
	SEC struct {
		UserAgent       string        `yaml:"user_agent"`
		TickersURL      string        `yaml:"tickers_url" default:"https://www.sec.gov/files/company_tickers.json"`
		BaseURL         string        `yaml:"base_url" default:"https://data.sec.gov"`
		RateLimit       float64       `yaml:"rate_limit" default:"10"`
		Timeout         time.Duration `yaml:"timeout" default:"20s"`
		FetchSubmission bool          `yaml:"fetch_submissions" default:"true"`
	} `yaml:"sec"`
	FMP struct {
		APIKey  string        `yaml:"api_key"`
		BaseURL string        `yaml:"base_url" default:"https://financialmodelingprep.com"`
		Timeout time.Duration `yaml:"timeout" default:"10s"`
		Limit   int           `yaml:"limit" default:"10"`
	} `yaml:"fmp"`
	Yahoo struct {
		Enabled bool          `yaml:"enabled" default:"true"`
		BaseURL string        `yaml:"base_url" default:"https://query1.finance.yahoo.com"`
		Timeout time.Duration `yaml:"timeout" default:"10s"`
	} `yaml:"yahoo"`
	Trending struct {
		Tickers     []string `yaml:"tickers"`
		RefreshCron string   `yaml:"refresh_cron" default:"0 0 6 * * *"`
		Timezone    string   `yaml:"timezone" default:"America/New_York"`
	} `yaml:"trending"`
	Kafka struct {
		Enabled      bool          `yaml:"enabled"`
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic" default:"valuecheck.stock.computed"`
		RequiredAcks int           `yaml:"required_acks" default:"-1"`
		Compression  string        `yaml:"compression" default:"gzip" validate:"oneof=gzip snappy lz4 zstd none"`
		MaxAttempts  int           `yaml:"max_attempts" default:"3"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
		Async        bool          `yaml:"async" default:"true"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Enabled     bool          `yaml:"enabled"`
		Host        string        `yaml:"host" default:"localhost"`
		Port        int           `yaml:"port" default:"9000"`
		Database    string        `yaml:"database" default:"valuecheck"`
		User        string        `yaml:"user" default:"default"`
		Password    string        `yaml:"password"`
		UseHTTP     bool          `yaml:"use_http"`
		DialTimeout time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout time.Duration `yaml:"read_timeout" default:"10s"`
	} `yaml:"clickhouse"`
}

var validate = validator.New()

// Default returns a configuration populated from struct defaults only.
func Default() (*Config, error) {
	c, err := withDefaults()
	if err != nil {
		return nil, err
	}
	c.fillDerived()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML on top of the struct defaults and validates.
func Parse(b []byte) (*Config, error) {
	c, err := withDefaults()
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.fillDerived()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
// A missing file falls back to defaults so the service can run from env alone.
// Variables from a .env file in the working directory are loaded first and
// never override the real environment.
func LoadWithEnv(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	c, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		c, err = Default()
	}
	if err != nil {
		return nil, err
	}
	if err := c.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func withDefaults() (*Config, error) {
	c := &Config{}
	if err := defaults.Set(c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	return c, nil
}

func (c *Config) fillDerived() {
	if len(c.Trending.Tickers) == 0 {
		c.Trending.Tickers = append([]string(nil), DefaultTrendingTickers...)
	}
	if c.SEC.UserAgent == "" {
		c.SEC.UserAgent = DefaultSECUserAgent
	}
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	if v := getenv("STORE_TYPE"); v != "" {
		c.Store.Type = v
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		host, port, err := splitHostPort(v)
		if err != nil {
			return fmt.Errorf("REDIS_ADDR: %w", err)
		}
		c.Store.Redis.Host, c.Store.Redis.Port = host, port
	}
	if v := getenv("REDIS_PASSWORD"); v != "" {
		c.Store.Redis.Password = v
	}
	if v := getenv("POSTGRES_DSN"); v != "" {
		c.Store.Postgres.DSN = v
	}
	if v := getenv("SEC_USER_AGENT"); v != "" {
		c.SEC.UserAgent = v
	}
	if v := getenv("FMP_API_KEY"); v != "" {
		c.FMP.APIKey = v
	}
	if v := getenv("FACTS_PROVIDER"); v != "" {
		c.Facts.Provider = v
	}
	if v := getenv("DAILY_NEW_TICKER_CAP"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("DAILY_NEW_TICKER_CAP: %w", err)
		}
		c.Quota.DailyNewTickerCap = n
	}
	if v := getenv("TRENDING_TICKERS"); v != "" {
		c.Trending.Tickers = splitList(v)
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitList(v)
		c.Kafka.Enabled = true
	}
	if v := getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
		c.ClickHouse.Enabled = true
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Cache.FreshTTL <= 0 || c.Cache.StaleTTL < c.Cache.FreshTTL {
		return fmt.Errorf("cache.stale_ttl must be >= cache.fresh_ttl > 0")
	}
	if c.Store.Type == "postgres" && c.Store.Postgres.DSN == "" {
		return fmt.Errorf("store.postgres.dsn is required for postgres store")
	}
	if c.Facts.Provider == "fmp" && c.FMP.APIKey == "" {
		return fmt.Errorf("fmp.api_key is required when facts.provider is fmp")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if _, err := time.LoadLocation(c.Trending.Timezone); err != nil {
		return fmt.Errorf("trending.timezone: %w", err)
	}
	return nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func splitHostPort(addr string) (string, int, error) {
	i := strings.LastIndex(addr, ":")
	if i < 0 {
		return addr, 6379, nil
	}
	port, err := strconv.Atoi(addr[i+1:])
	if err != nil {
		return "", 0, err
	}
	return addr[:i], port, nil
}
