package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config is the complete application configuration. Values come from
// environment variables (POSTPULSE_ prefix) layered over an optional YAML
// file.
type Config struct {
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Security SecurityConfig `yaml:"security" envconfig:"SECURITY"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Ingest   IngestConfig   `yaml:"ingest" envconfig:"INGEST"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
}

// SecurityConfig contains CORS and rate-limit settings.
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration.
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// IngestConfig describes how uploaded files are decoded. Column names are an
// exact, case-sensitive contract with the spreadsheet author.
type IngestConfig struct {
	Sheet          string  `yaml:"sheet" envconfig:"SHEET"`
	CSVDelimiter   string  `yaml:"csv_delimiter" envconfig:"CSV_DELIMITER"`
	MaxUploadBytes int64   `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES"`
	Columns        Columns `yaml:"columns" envconfig:"COLUMNS"`
}

// Columns names the recognized spreadsheet headers.
type Columns struct {
	Date           string `yaml:"date" envconfig:"DATE"`
	Time           string `yaml:"time" envconfig:"TIME"`
	ViewsDaily     string `yaml:"views_daily" envconfig:"VIEWS_DAILY"`
	ViewsTotal     string `yaml:"views_total" envconfig:"VIEWS_TOTAL"`
	Reactions      string `yaml:"reactions" envconfig:"REACTIONS"`
	PostType       string `yaml:"post_type" envconfig:"POST_TYPE"`
	EngagementRate string `yaml:"engagement_rate" envconfig:"ENGAGEMENT_RATE"`
}

// Load builds the configuration in three layers: built-in defaults, then the
// optional YAML file, then environment variables, followed by validation.
func Load() (*Config, error) {
	cfg := *Default()

	if path := findConfigFile(); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := envconfig.Process("POSTPULSE", &cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Delimiter returns the configured CSV field separator as a rune.
func (c IngestConfig) Delimiter() rune {
	for _, r := range c.CSVDelimiter {
		return r
	}
	return ','
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}
	if c.Ingest.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload bytes must be positive")
	}
	if c.Ingest.Columns.Date == "" {
		return fmt.Errorf("date column name must not be empty")
	}
	if c.Security.EnableCORS && len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified when CORS is enabled")
	}
	return nil
}

func findConfigFile() string {
	for _, location := range []string{"config.yaml", "configs/config.yaml"} {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}

// Default returns the built-in defaults without consulting the environment.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     50,
				Burst:   25,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "stdout",
			FilePath: "logs/app.log",
		},
		Ingest: IngestConfig{
			CSVDelimiter:   ",",
			MaxUploadBytes: 10 << 20,
			Columns: Columns{
				Date:           "Date",
				Time:           "Time",
				ViewsDaily:     "Views Today",
				ViewsTotal:     "Total Views",
				Reactions:      "Reactions",
				PostType:       "Post Type",
				EngagementRate: "ER %",
			},
		},
	}
}
