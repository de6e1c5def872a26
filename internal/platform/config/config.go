// Package config loads application configuration from environment variables.
// All variables use the PSR_ prefix.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Cache     CacheConfig
	Content   ContentConfig
	Audit     AuditConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

// ServerConfig holds HTTP server settings for the read-only query surface.
type ServerConfig struct {
	Port int
	Host string
}

// DatabaseConfig holds PostgreSQL connection settings.
// An empty URL means the question bank is read from file partitions only.
type DatabaseConfig struct {
	URL            string
	MaxConns       int
	MinConns       int
	QuestionsTable string
}

// CacheConfig holds Redis connection settings. An empty URL selects the
// in-process TTL cache.
type CacheConfig struct {
	URL        string
	TTLSeconds int
}

// TTL returns the cache TTL as a duration.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// ContentConfig holds paths to the static content the tools operate on.
type ContentConfig struct {
	StandardsPath  string
	QuestionsDir   string
	TopicsDir      string
	PartitionsPath string
}

// AuditConfig holds audit report settings.
type AuditConfig struct {
	ReportPath string
	XLSXPath   string // optional workbook export
	DisplayCap int
	Strict     bool // same effect as --strict
}

// RateLimitConfig holds per-client request limits for the query API.
type RateLimitConfig struct {
	PerMinute int
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables with PSR_ prefix.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("PSR_SERVER_PORT", 8080),
			Host: envStr("PSR_SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			URL:            envStr("PSR_DATABASE_URL", ""),
			MaxConns:       envInt("PSR_DATABASE_MAX_CONNS", 10),
			MinConns:       envInt("PSR_DATABASE_MIN_CONNS", 1),
			QuestionsTable: envStr("PSR_DATABASE_QUESTIONS_TABLE", "questions"),
		},
		Cache: CacheConfig{
			URL:        envStr("PSR_CACHE_URL", ""),
			TTLSeconds: envInt("PSR_CACHE_TTL_SECONDS", 300),
		},
		Content: ContentConfig{
			StandardsPath:  envStr("PSR_CONTENT_STANDARDS_PATH", "content/standards.json"),
			QuestionsDir:   envStr("PSR_CONTENT_QUESTIONS_DIR", "content/questions"),
			TopicsDir:      envStr("PSR_CONTENT_TOPICS_DIR", "content/topics"),
			PartitionsPath: envStr("PSR_CONTENT_PARTITIONS_PATH", "content/partitions.yaml"),
		},
		Audit: AuditConfig{
			ReportPath: envStr("PSR_AUDIT_REPORT_PATH", "reports/coverage-audit.json"),
			XLSXPath:   envStr("PSR_AUDIT_XLSX_PATH", ""),
			DisplayCap: envInt("PSR_AUDIT_DISPLAY_CAP", 25),
			Strict:     envBool("PSR_AUDIT_STRICT", false),
		},
		RateLimit: RateLimitConfig{
			PerMinute: envInt("PSR_RATE_LIMIT_PER_MINUTE", 120),
		},
		Log: LogConfig{
			Level:  envStr("PSR_LOG_LEVEL", "info"),
			Format: envStr("PSR_LOG_FORMAT", "json"),
		},
	}

	return cfg, nil
}

// LoadEnvFile loads KEY=value pairs from path into the process environment.
// Variables already set win. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading env file %s: %w", path, err)
	}
	return nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.Content.StandardsPath == "" {
		return fmt.Errorf("PSR_CONTENT_STANDARDS_PATH is required")
	}

	if c.Content.QuestionsDir == "" && c.Database.URL == "" {
		return fmt.Errorf("at least one question source must be configured (PSR_CONTENT_QUESTIONS_DIR or PSR_DATABASE_URL)")
	}

	if c.Audit.DisplayCap < 1 {
		return fmt.Errorf("PSR_AUDIT_DISPLAY_CAP must be positive, got %d", c.Audit.DisplayCap)
	}

	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("PSR_LOG_FORMAT must be 'json' or 'text', got %q", c.Log.Format)
	}

	return nil
}

// HasDatabase returns true if a relational question source is configured.
func (c *Config) HasDatabase() bool {
	return c.Database.URL != ""
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		return strings.EqualFold(v, "true") || v == "1"
	}
	return fallback
}
