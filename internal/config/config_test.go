package config

import (
	"testing"
	"time"

	"github.com/couchcryptid/covid-data-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const defaultBroker = "localhost:9092"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data/raw", cfg.DataDir)
	assert.Equal(t, "data/reference/continents.csv", cfg.ContinentFile)
	assert.Empty(t, cfg.CountryAliasesFile)
	assert.Equal(t, domain.DefaultHeaderAliases(), cfg.HeaderAliases)
	assert.Equal(t, "01-02-2006", cfg.FileDateFormat)
	assert.Equal(t, domain.ActiveRaw, cfg.ActiveMode)
	assert.Equal(t, 50, cfg.ProgressInterval)
	assert.Equal(t, 8, cfg.CacheSize)
	assert.Equal(t, "data/processed", cfg.ProcessedDir)
	assert.False(t, cfg.ProcessedCacheEnabled)
	assert.False(t, cfg.HasDefaultRange())
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.False(t, cfg.KafkaExportEnabled)
	assert.Equal(t, []string{defaultBroker}, cfg.KafkaBrokers)
	assert.Equal(t, "covid-observations", cfg.KafkaExportTopic)
	assert.Empty(t, cfg.SQLiteExportPath)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("DATA_DIR", "/srv/jhu/daily")
	t.Setenv("CONTINENT_FILE", "/srv/ref/continents.csv")
	t.Setenv("COUNTRY_ALIASES_FILE", "/srv/ref/aliases.csv")
	t.Setenv("HEADER_ALIASES", "Nation=Country_Region")
	t.Setenv("FILE_DATE_FORMAT", "2006-01-02")
	t.Setenv("ACTIVE_CASES_MODE", "clamped")
	t.Setenv("PROGRESS_INTERVAL", "10")
	t.Setenv("CACHE_SIZE", "2")
	t.Setenv("PROCESSED_DIR", "/tmp/processed")
	t.Setenv("PROCESSED_CACHE_ENABLED", "true")
	t.Setenv("DEFAULT_START", "2020-03-01")
	t.Setenv("DEFAULT_END", "2020-03-31")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("KAFKA_EXPORT_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_EXPORT_TOPIC", "custom-sink")
	t.Setenv("SQLITE_EXPORT_PATH", "/tmp/covid.db")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/srv/jhu/daily", cfg.DataDir)
	assert.Equal(t, "/srv/ref/continents.csv", cfg.ContinentFile)
	assert.Equal(t, "/srv/ref/aliases.csv", cfg.CountryAliasesFile)
	assert.Contains(t, cfg.HeaderAliases, domain.HeaderAlias{From: "Nation", To: "Country_Region"})
	assert.Len(t, cfg.HeaderAliases, len(domain.DefaultHeaderAliases())+1)
	assert.Equal(t, "2006-01-02", cfg.FileDateFormat)
	assert.Equal(t, domain.ActiveClamped, cfg.ActiveMode)
	assert.Equal(t, 10, cfg.ProgressInterval)
	assert.Equal(t, 2, cfg.CacheSize)
	assert.Equal(t, "/tmp/processed", cfg.ProcessedDir)
	assert.True(t, cfg.ProcessedCacheEnabled)
	assert.True(t, cfg.HasDefaultRange())
	assert.Equal(t, time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC), cfg.DefaultStart)
	assert.Equal(t, time.Date(2020, 3, 31, 0, 0, 0, 0, time.UTC), cfg.DefaultEnd)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.True(t, cfg.KafkaExportEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-sink", cfg.KafkaExportTopic)
	assert.Equal(t, "/tmp/covid.db", cfg.SQLiteExportPath)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_NegativeShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "-1s")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key, value, wantErr string
	}{
		{"ACTIVE_CASES_MODE", "sometimes", "ACTIVE_CASES_MODE"},
		{"HEADER_ALIASES", "NoEquals", "HEADER_ALIASES"},
		{"PROGRESS_INTERVAL", "0", "PROGRESS_INTERVAL"},
		{"CACHE_SIZE", "-3", "CACHE_SIZE"},
		{"CACHE_SIZE", "many", "CACHE_SIZE"},
		{"DEFAULT_START", "03/01/2020", "DEFAULT_START"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_DefaultRangeMustBePaired(t *testing.T) {
	t.Setenv("DEFAULT_START", "2020-03-01")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DEFAULT_END")
}

func TestLoad_DefaultRangeReversed(t *testing.T) {
	t.Setenv("DEFAULT_START", "2020-03-31")
	t.Setenv("DEFAULT_END", "2020-03-01")
	_, err := Load()
	require.ErrorIs(t, err, domain.ErrInvalidRange)
}
