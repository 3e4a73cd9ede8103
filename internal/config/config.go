package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/covid-data-etl/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	DataDir            string
	ContinentFile      string
	CountryAliasesFile string
	HeaderAliases      []domain.HeaderAlias
	FileDateFormat     string
	ActiveMode         domain.ActiveMode
	ProgressInterval   int

	// Memoization of loaded ranges.
	CacheSize             int
	ProcessedDir          string
	ProcessedCacheEnabled bool

	// Range served when a request does not name one. Zero when unset.
	DefaultStart time.Time
	DefaultEnd   time.Time

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Optional exporters.
	KafkaExportEnabled bool
	KafkaBrokers       []string
	KafkaExportTopic   string
	SQLiteExportPath   string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	headerAliases := domain.DefaultHeaderAliases()
	if s := os.Getenv("HEADER_ALIASES"); s != "" {
		extra, err := domain.ParseHeaderAliases(s)
		if err != nil {
			return nil, fmt.Errorf("invalid HEADER_ALIASES: %w", err)
		}
		headerAliases = append(headerAliases, extra...)
	}

	activeMode, err := domain.ParseActiveMode(sharedcfg.EnvOrDefault("ACTIVE_CASES_MODE", string(domain.ActiveRaw)))
	if err != nil {
		return nil, fmt.Errorf("invalid ACTIVE_CASES_MODE: %w", err)
	}

	progress, err := positiveInt("PROGRESS_INTERVAL", 50)
	if err != nil {
		return nil, err
	}
	cacheSize, err := positiveInt("CACHE_SIZE", 8)
	if err != nil {
		return nil, err
	}

	defaultStart, err := optionalDate("DEFAULT_START")
	if err != nil {
		return nil, err
	}
	defaultEnd, err := optionalDate("DEFAULT_END")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DataDir:            sharedcfg.EnvOrDefault("DATA_DIR", "data/raw"),
		ContinentFile:      sharedcfg.EnvOrDefault("CONTINENT_FILE", "data/reference/continents.csv"),
		CountryAliasesFile: os.Getenv("COUNTRY_ALIASES_FILE"),
		HeaderAliases:      headerAliases,
		FileDateFormat:     sharedcfg.EnvOrDefault("FILE_DATE_FORMAT", "01-02-2006"),
		ActiveMode:         activeMode,
		ProgressInterval:   progress,

		CacheSize:             cacheSize,
		ProcessedDir:          sharedcfg.EnvOrDefault("PROCESSED_DIR", "data/processed"),
		ProcessedCacheEnabled: os.Getenv("PROCESSED_CACHE_ENABLED") == "true",

		DefaultStart: defaultStart,
		DefaultEnd:   defaultEnd,

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		KafkaExportEnabled: os.Getenv("KAFKA_EXPORT_ENABLED") == "true",
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaExportTopic:   sharedcfg.EnvOrDefault("KAFKA_EXPORT_TOPIC", "covid-observations"),
		SQLiteExportPath:   os.Getenv("SQLITE_EXPORT_PATH"),
	}

	if cfg.DataDir == "" {
		return nil, errors.New("DATA_DIR is required")
	}
	if cfg.DefaultStart.IsZero() != cfg.DefaultEnd.IsZero() {
		return nil, errors.New("DEFAULT_START and DEFAULT_END must be set together")
	}
	if err := domain.ValidateRange(cfg.DefaultStart, cfg.DefaultEnd); err != nil {
		return nil, fmt.Errorf("invalid default range: %w", err)
	}
	if cfg.KafkaExportEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when KAFKA_EXPORT_ENABLED is true")
		}
		if cfg.KafkaExportTopic == "" {
			return nil, errors.New("KAFKA_EXPORT_TOPIC is required when KAFKA_EXPORT_ENABLED is true")
		}
	}

	return cfg, nil
}

// HasDefaultRange reports whether DEFAULT_START and DEFAULT_END were set.
func (c *Config) HasDefaultRange() bool {
	return !c.DefaultStart.IsZero()
}

func positiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive integer", key)
	}
	return n, nil
}

func optionalDate(key string) (time.Time, error) {
	s := os.Getenv(key)
	if s == "" {
		return time.Time{}, nil
	}
	d, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
