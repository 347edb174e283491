// Package config loads freightdesk settings from FREIGHTDESK_* environment
// variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alfredjeanlab/freightdesk/internal/model"
	"github.com/alfredjeanlab/freightdesk/internal/query"
)

type Config struct {
	APIURL         string               // FREIGHTDESK_API_URL (default "http://localhost:8080")
	Token          string               // FREIGHTDESK_TOKEN (optional bearer token)
	PageSize       int                  // FREIGHTDESK_PAGE_SIZE (default 15)
	CacheTTL       time.Duration        // FREIGHTDESK_CACHE_TTL (default 5m)
	HTTPTimeout    time.Duration        // FREIGHTDESK_HTTP_TIMEOUT (default 10s)
	CompanyParam   string               // FREIGHTDESK_COMPANY_PARAM (default "companyId")
	EmployeeSearch query.EmployeePolicy // FREIGHTDESK_EMPLOYEE_SEARCH (strict|fallback, default strict)

	// Event bus
	NATSURL     string // FREIGHTDESK_NATS_URL (optional, empty = no events)
	NATSSubject string // FREIGHTDESK_NATS_SUBJECT (default "freight.>")

	// Export settings
	ExportS3Bucket   string        // FREIGHTDESK_EXPORT_S3_BUCKET (enables S3 when set)
	ExportS3Endpoint string        // FREIGHTDESK_EXPORT_S3_ENDPOINT (custom endpoint for MinIO)
	ExportS3Region   string        // FREIGHTDESK_EXPORT_S3_REGION (default "us-east-1")
	ExportPrefix     string        // FREIGHTDESK_EXPORT_PREFIX (default "reports/")
	ExportInterval   time.Duration // FREIGHTDESK_EXPORT_INTERVAL (default 0 = one-shot)

	LogLevel  slog.Level // FREIGHTDESK_LOG_LEVEL (debug|info|warn|error, default info)
	LogFormat string     // FREIGHTDESK_LOG_FORMAT (text|json, default text)
}

func Load() (*Config, error) {
	c := &Config{
		APIURL:           envOrDefault("FREIGHTDESK_API_URL", "http://localhost:8080"),
		Token:            os.Getenv("FREIGHTDESK_TOKEN"),
		CompanyParam:     envOrDefault("FREIGHTDESK_COMPANY_PARAM", model.DefaultSecondaryParam),
		NATSURL:          os.Getenv("FREIGHTDESK_NATS_URL"),
		NATSSubject:      envOrDefault("FREIGHTDESK_NATS_SUBJECT", "freight.>"),
		ExportS3Bucket:   os.Getenv("FREIGHTDESK_EXPORT_S3_BUCKET"),
		ExportS3Endpoint: os.Getenv("FREIGHTDESK_EXPORT_S3_ENDPOINT"),
		ExportS3Region:   envOrDefault("FREIGHTDESK_EXPORT_S3_REGION", "us-east-1"),
		ExportPrefix:     envOrDefault("FREIGHTDESK_EXPORT_PREFIX", "reports/"),
		LogFormat:        strings.ToLower(envOrDefault("FREIGHTDESK_LOG_FORMAT", "text")),
	}

	var err error
	if c.PageSize, err = envInt("FREIGHTDESK_PAGE_SIZE", query.DefaultLimit); err != nil {
		return nil, err
	}
	if c.PageSize < 1 {
		return nil, fmt.Errorf("FREIGHTDESK_PAGE_SIZE: must be >= 1, got %d", c.PageSize)
	}
	if c.CacheTTL, err = envDuration("FREIGHTDESK_CACHE_TTL", "5m"); err != nil {
		return nil, err
	}
	if c.HTTPTimeout, err = envDuration("FREIGHTDESK_HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if c.ExportInterval, err = envDuration("FREIGHTDESK_EXPORT_INTERVAL", "0"); err != nil {
		return nil, err
	}
	if c.EmployeeSearch, err = query.ParseEmployeePolicy(os.Getenv("FREIGHTDESK_EMPLOYEE_SEARCH")); err != nil {
		return nil, fmt.Errorf("FREIGHTDESK_EMPLOYEE_SEARCH: %w", err)
	}
	if err := c.LogLevel.UnmarshalText([]byte(envOrDefault("FREIGHTDESK_LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("FREIGHTDESK_LOG_LEVEL: %w", err)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return nil, fmt.Errorf("FREIGHTDESK_LOG_FORMAT: want text or json, got %q", c.LogFormat)
	}

	return c, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func envDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: must not be negative", key)
	}
	return d, nil
}
