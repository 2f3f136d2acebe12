package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	DatabaseURL string // DYNREC_DATABASE_URL (required)
	HTTPAddr    string // DYNREC_HTTP_ADDR (default ":8080")
	NATSURL     string // DYNREC_NATS_URL (optional, empty = no events)
	AuthToken   string // DYNREC_AUTH_TOKEN (optional, empty = auth disabled)

	// Query guardrails
	MaxPageSize    int // DYNREC_MAX_PAGE_SIZE (default 100)
	MaxFilterDepth int // DYNREC_MAX_FILTER_DEPTH (default 3)
	MaxRuleCount   int // DYNREC_MAX_RULE_COUNT (default 20)

	// Export settings
	ExportS3Bucket    string // DYNREC_EXPORT_S3_BUCKET (enables S3 export when set)
	ExportS3Endpoint  string // DYNREC_EXPORT_S3_ENDPOINT (custom endpoint for MinIO)
	ExportS3Region    string // DYNREC_EXPORT_S3_REGION (default "us-east-1")
	ExportS3KeyPrefix string // DYNREC_EXPORT_S3_KEY_PREFIX (default "dynrec/export")
}

func Load() (*Config, error) {
	c := &Config{
		DatabaseURL:       os.Getenv("DYNREC_DATABASE_URL"),
		HTTPAddr:          envOrDefault("DYNREC_HTTP_ADDR", ":8080"),
		NATSURL:           os.Getenv("DYNREC_NATS_URL"),
		AuthToken:         os.Getenv("DYNREC_AUTH_TOKEN"),
		ExportS3Bucket:    os.Getenv("DYNREC_EXPORT_S3_BUCKET"),
		ExportS3Endpoint:  os.Getenv("DYNREC_EXPORT_S3_ENDPOINT"),
		ExportS3Region:    envOrDefault("DYNREC_EXPORT_S3_REGION", "us-east-1"),
		ExportS3KeyPrefix: envOrDefault("DYNREC_EXPORT_S3_KEY_PREFIX", "dynrec/export"),
	}
	if c.DatabaseURL == "" {
		return nil, fmt.Errorf("DYNREC_DATABASE_URL is required")
	}

	var err error
	if c.MaxPageSize, err = envOrDefaultInt("DYNREC_MAX_PAGE_SIZE", 100); err != nil {
		return nil, err
	}
	if c.MaxFilterDepth, err = envOrDefaultInt("DYNREC_MAX_FILTER_DEPTH", 3); err != nil {
		return nil, err
	}
	if c.MaxRuleCount, err = envOrDefaultInt("DYNREC_MAX_RULE_COUNT", 20); err != nil {
		return nil, err
	}

	return c, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if n < 1 {
		return 0, fmt.Errorf("%s must be >= 1", key)
	}
	return n, nil
}
