package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "Date", cfg.Ingest.Columns.Date)
	assert.Equal(t, "Views Today", cfg.Ingest.Columns.ViewsDaily)
	assert.Equal(t, int64(10<<20), cfg.Ingest.MaxUploadBytes)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("POSTPULSE_SERVER_PORT", "9090")
	t.Setenv("POSTPULSE_INGEST_COLUMNS_DATE", "Published At")
	t.Setenv("POSTPULSE_INGEST_CSV_DELIMITER", ";")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "Published At", cfg.Ingest.Columns.Date)
	assert.Equal(t, ';', cfg.Ingest.Delimiter())
}

func TestLoad_InvalidPort(t *testing.T) {
	t.Setenv("POSTPULSE_SERVER_PORT", "-1")

	_, err := Load()

	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "defaults are valid",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "zero read timeout rejected",
			mutate:  func(c *Config) { c.Server.ReadTimeout = 0 },
			wantErr: true,
		},
		{
			name:    "empty date column rejected",
			mutate:  func(c *Config) { c.Ingest.Columns.Date = "" },
			wantErr: true,
		},
		{
			name:    "non-positive upload limit rejected",
			mutate:  func(c *Config) { c.Ingest.MaxUploadBytes = 0 },
			wantErr: true,
		},
		{
			name:    "CORS without origins rejected",
			mutate:  func(c *Config) { c.Security.AllowedOrigins = nil },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.validate()

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestIngestConfig_Delimiter(t *testing.T) {
	assert.Equal(t, ',', IngestConfig{}.Delimiter(), "empty delimiter falls back to comma")
	assert.Equal(t, '\t', IngestConfig{CSVDelimiter: "\t"}.Delimiter())
}
