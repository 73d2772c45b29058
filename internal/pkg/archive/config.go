package archive

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ManuelReschke/OnlyOne/internal/pkg/env"
)

// Config holds the S3 settings for the webhook event archive
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	BucketName      string
	EndpointURL     string // Optional for S3-compatible services
	Prefix          string
	Enabled         bool
}

// LoadConfig loads the archive configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AccessKeyID:     env.GetEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
		Region:          env.GetEnv("S3_REGION", "us-east-1"),
		BucketName:      env.GetEnv("S3_BUCKET_NAME", ""),
		EndpointURL:     env.GetEnv("S3_ENDPOINT_URL", ""),
		Prefix:          strings.Trim(env.GetEnv("ARCHIVE_PREFIX", "webhook-events"), "/"),
		Enabled:         env.GetBool("ARCHIVE_ENABLED", false),
	}

	if cfg.Enabled {
		if cfg.AccessKeyID == "" {
			return nil, errors.New("S3_ACCESS_KEY_ID is required when the event archive is enabled")
		}
		if cfg.SecretAccessKey == "" {
			return nil, errors.New("S3_SECRET_ACCESS_KEY is required when the event archive is enabled")
		}
		if cfg.BucketName == "" {
			return nil, errors.New("S3_BUCKET_NAME is required when the event archive is enabled")
		}
	}
	return cfg, nil
}

func (c *Config) IsEnabled() bool {
	return c != nil && c.Enabled
}

// ObjectKey builds the key for one archived batch:
// <prefix>/YYYY/MM/DD/<firstID>-<lastID>-<unixnano>.jsonl
func (c *Config) ObjectKey(now time.Time, firstID, lastID uint) string {
	now = now.UTC()
	key := fmt.Sprintf("%04d/%02d/%02d/%d-%d-%d.jsonl", now.Year(), now.Month(), now.Day(), firstID, lastID, now.UnixNano())
	if c.Prefix == "" {
		return key
	}
	return c.Prefix + "/" + key
}
