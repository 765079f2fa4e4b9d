package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultJWTAccessTTL     = "24h"
	defaultShareTokenTTL    = "1h"
	defaultUploadURLTTL     = "15m"
	defaultDownloadURLTTL   = "10m"
	defaultPendingUploadTTL = "24h"
	defaultRebuildBatchSize = "200"
	defaultBlobTimeout      = "10s"
	defaultShareDefaultDays = "7"
	defaultJWTSecret        = "change-me-jwt-secret"
	defaultShareTokenSecret = "change-me-share-token-secret"
	defaultListenAddr       = ":8080"
	defaultS3Region         = "us-east-1"
)

// Config holds all runtime configuration, loaded from the environment.
type Config struct {
	AppEnv      string
	ListenAddr  string
	DatabaseURL string

	JWTSecret        string
	JWTAccessTTL     time.Duration
	ShareTokenSecret string
	ShareTokenTTL    time.Duration

	S3Endpoint     string
	S3Region       string
	S3Bucket       string
	S3AccessKeyID  string
	S3SecretKey    string
	S3UsePathStyle bool

	UploadURLTTL     time.Duration
	DownloadURLTTL   time.Duration
	PendingUploadTTL time.Duration
	BlobTimeout      time.Duration

	RebuildBatchSize int
	ShareDefaultDays int
}

// Load reads configuration from the environment, applying defaults for
// everything except DATABASE_URL and the S3 bucket, which are required.
func Load() (*Config, error) {
	cfg := &Config{}

	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	cfg.ListenAddr = envOr("LISTEN_ADDR", defaultListenAddr)

	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	cfg.JWTSecret = envOr("JWT_SECRET", defaultJWTSecret)
	cfg.ShareTokenSecret = envOr("SHARE_TOKEN_SECRET", defaultShareTokenSecret)
	if cfg.AppEnv == "prod" {
		if cfg.JWTSecret == defaultJWTSecret {
			return nil, fmt.Errorf("JWT_SECRET must be set in prod")
		}
		if cfg.ShareTokenSecret == defaultShareTokenSecret {
			return nil, fmt.Errorf("SHARE_TOKEN_SECRET must be set in prod")
		}
	}

	var err error
	if cfg.JWTAccessTTL, err = envDuration("JWT_ACCESS_TTL", defaultJWTAccessTTL); err != nil {
		return nil, err
	}
	if cfg.ShareTokenTTL, err = envDuration("SHARE_TOKEN_TTL", defaultShareTokenTTL); err != nil {
		return nil, err
	}
	if cfg.UploadURLTTL, err = envDuration("UPLOAD_URL_TTL", defaultUploadURLTTL); err != nil {
		return nil, err
	}
	if cfg.DownloadURLTTL, err = envDuration("DOWNLOAD_URL_TTL", defaultDownloadURLTTL); err != nil {
		return nil, err
	}
	if cfg.PendingUploadTTL, err = envDuration("PENDING_UPLOAD_TTL", defaultPendingUploadTTL); err != nil {
		return nil, err
	}
	if cfg.BlobTimeout, err = envDuration("BLOB_TIMEOUT", defaultBlobTimeout); err != nil {
		return nil, err
	}

	if cfg.RebuildBatchSize, err = envInt("REBUILD_BATCH_SIZE", defaultRebuildBatchSize); err != nil {
		return nil, err
	}
	if cfg.ShareDefaultDays, err = envInt("SHARE_DEFAULT_EXPIRATION_DAYS", defaultShareDefaultDays); err != nil {
		return nil, err
	}

	cfg.S3Endpoint = strings.TrimSpace(os.Getenv("S3_ENDPOINT"))
	cfg.S3Region = envOr("S3_REGION", defaultS3Region)
	cfg.S3Bucket = strings.TrimSpace(os.Getenv("S3_BUCKET"))
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("S3_BUCKET is required")
	}
	cfg.S3AccessKeyID = strings.TrimSpace(os.Getenv("S3_ACCESS_KEY_ID"))
	cfg.S3SecretKey = strings.TrimSpace(os.Getenv("S3_SECRET_ACCESS_KEY"))
	cfg.S3UsePathStyle = strings.EqualFold(envOr("S3_USE_PATH_STYLE", "false"), "true")

	return cfg, nil
}

func envOr(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envDuration(key, fallback string) (time.Duration, error) {
	raw := envOr(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, d)
	}
	return d, nil
}

func envInt(key, fallback string) (int, error) {
	raw := envOr(key, fallback)
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q: %w", key, raw, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %d", key, n)
	}
	return n, nil
}
