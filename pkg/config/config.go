// Package config loads and validates configuration from YAML files with
// environment-variable overrides. It provides typed structs for the
// indexer, the searcher and the optional service dependencies (Redis, Kafka,
// SQL ingestion source, metrics).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Line-count policies for parallel-file ingestion.
const (
	PolicyStopAtShortest = "stopAtShortest"
	PolicyRequireEqual   = "requireEqual"
)

// Config is the top-level application configuration.
type Config struct {
	Indexer  IndexerConfig  `yaml:"indexer"`
	Search   SearchConfig   `yaml:"search"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Database DatabaseConfig `yaml:"database"`
	Worker   WorkerConfig   `yaml:"worker"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// IndexerConfig controls store building.
type IndexerConfig struct {
	// Parallelism bounds how many stores are built at once; 0 means one per CPU.
	Parallelism     int    `yaml:"parallelism"`
	LineCountPolicy string `yaml:"lineCountPolicy"`
}

// SearchConfig holds the default query options and scoring parameters.
type SearchConfig struct {
	TopK              int     `yaml:"topK"`
	MinScore          float64 `yaml:"minScore"`
	FuzzyRescore      bool    `yaml:"fuzzyRescore"`
	ExcludeExactMatch bool    `yaml:"excludeExactMatch"`
	NormalizeScores   bool    `yaml:"normalizeScores"`
	BM25K1            float64 `yaml:"bm25K1"`
	BM25B             float64 `yaml:"bm25B"`
}

// RedisConfig holds Redis connection and caching parameters for the query
// worker's result cache.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	Queries string `yaml:"queries"`
	Results string `yaml:"results"`
}

// DatabaseConfig describes an optional SQL ingestion source.
type DatabaseConfig struct {
	Driver          string        `yaml:"driver"`
	DSN             string        `yaml:"dsn"`
	Query           string        `yaml:"query"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// WorkerConfig controls the Kafka query worker.
type WorkerConfig struct {
	Stores          []string      `yaml:"stores"`
	QueryTimeout    time.Duration `yaml:"queryTimeout"`
	PublishAttempts int           `yaml:"publishAttempts"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided), applies environment-variable
// overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, apperrors.Newf(apperrors.ErrFileAccess, "reading config file %s: %v", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, apperrors.Newf(apperrors.ErrConfiguration, "parsing config file %s: %v", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a Config populated with the defaults used when no file is
// given.
func Default() *Config {
	return &Config{
		Indexer: IndexerConfig{
			Parallelism:     0,
			LineCountPolicy: PolicyStopAtShortest,
		},
		Search: SearchConfig{
			TopK:     1,
			MinScore: 0.0,
			BM25K1:   1.2,
			BM25B:    0,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
			CacheTTL: 10 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "tm-query-workers",
			Topics: KafkaTopics{
				Queries: "tm.queries",
				Results: "tm.results",
			},
		},
		Database: DatabaseConfig{
			MaxOpenConns:    4,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Worker: WorkerConfig{
			QueryTimeout:    5 * time.Second,
			PublishAttempts: 3,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
		},
	}
}

// Validate reports the first invalid setting as a configuration error.
func (c *Config) Validate() error {
	if c.Search.TopK < 1 {
		return apperrors.Newf(apperrors.ErrConfiguration, "search.topK must be >= 1, got %d", c.Search.TopK)
	}
	if c.Search.BM25K1 < 0 {
		return apperrors.Newf(apperrors.ErrConfiguration, "search.bm25K1 must be >= 0, got %g", c.Search.BM25K1)
	}
	if c.Search.BM25B < 0 || c.Search.BM25B > 1 {
		return apperrors.Newf(apperrors.ErrConfiguration, "search.bm25B must be in [0,1], got %g", c.Search.BM25B)
	}
	if c.Indexer.Parallelism < 0 {
		return apperrors.Newf(apperrors.ErrConfiguration, "indexer.parallelism must be >= 0, got %d", c.Indexer.Parallelism)
	}
	switch c.Indexer.LineCountPolicy {
	case PolicyStopAtShortest, PolicyRequireEqual:
	default:
		return apperrors.Newf(apperrors.ErrConfiguration, "unknown indexer.lineCountPolicy %q", c.Indexer.LineCountPolicy)
	}
	if c.Worker.QueryTimeout <= 0 {
		return apperrors.Newf(apperrors.ErrConfiguration, "worker.queryTimeout must be > 0, got %v", c.Worker.QueryTimeout)
	}
	if c.Worker.PublishAttempts < 1 {
		return apperrors.Newf(apperrors.ErrConfiguration, "worker.publishAttempts must be >= 1, got %d", c.Worker.PublishAttempts)
	}
	switch c.Database.Driver {
	case "", "postgres", "sqlite3":
	default:
		return apperrors.Newf(apperrors.ErrConfiguration, "unsupported database.driver %q", c.Database.Driver)
	}
	return nil
}

// applyEnvOverrides reads TM_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TM_INDEXER_PARALLELISM"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Indexer.Parallelism = n
		}
	}
	if v := os.Getenv("TM_INDEXER_LINE_COUNT_POLICY"); v != "" {
		cfg.Indexer.LineCountPolicy = v
	}
	if v := os.Getenv("TM_SEARCH_TOPK"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Search.TopK = n
		}
	}
	if v := os.Getenv("TM_SEARCH_MIN_SCORE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Search.MinScore = f
		}
	}
	if v := os.Getenv("TM_SEARCH_FUZZY_RESCORE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Search.FuzzyRescore = b
		}
	}
	if v := os.Getenv("TM_REDIS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Redis.Enabled = b
		}
	}
	if v := os.Getenv("TM_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("TM_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("TM_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("TM_WORKER_STORES"); v != "" {
		cfg.Worker.Stores = strings.Split(v, ",")
	}
	if v := os.Getenv("TM_WORKER_QUERY_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Worker.QueryTimeout = d
		}
	}
	if v := os.Getenv("TM_DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("TM_DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("TM_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("TM_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("TM_METRICS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Metrics.Port = port
			cfg.Metrics.Enabled = true
		}
	}
}

// Describe renders the effective configuration for debug logging, with
// secrets masked.
func (c *Config) Describe() string {
	masked := *c
	if masked.Redis.Password != "" {
		masked.Redis.Password = "****"
	}
	if masked.Database.DSN != "" {
		masked.Database.DSN = "****"
	}
	out, err := yaml.Marshal(&masked)
	if err != nil {
		return fmt.Sprintf("unprintable config: %v", err)
	}
	return string(out)
}
