package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	AccessKeySecret string
	Bucket          string
	CDNBaseURL      string
}

// Enabled reports whether enough is set to talk to the bucket.
func (c R2Config) Enabled() bool {
	return c.AccountID != "" && c.AccessKeyID != "" && c.AccessKeySecret != "" && c.Bucket != ""
}

type Config struct {
	Port           string
	LogMode        string
	LogLevel       string // empty keeps the mode's default
	DatabaseURL    string
	ServiceToken   string // shared secret the gateway presents
	AllowedOrigins []string

	R2 R2Config

	// Remote collaborators. Empty URLs disable the matching worker.
	RemoteProgressURL  string
	ProfileServiceURL  string
	IdentityServiceURL string

	CatalogRefreshInterval time.Duration
	RewardSyncInterval     time.Duration
	ProfileSyncInterval    time.Duration
}

// Load reads .env (when present) and then the process environment.
func Load() (*Config, error) {
	// A missing .env is fine: containers pass real environment variables.
	_ = godotenv.Load()

	cfg := &Config{
		Port:               getEnv("PORT", "5200"),
		LogMode:            getEnv("LOG_MODE", "development"),
		LogLevel:           os.Getenv("LOG_LEVEL"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		ServiceToken:       os.Getenv("PROGRESS_SERVICE_TOKEN"),
		AllowedOrigins:     splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		RemoteProgressURL:  strings.TrimRight(os.Getenv("REMOTE_PROGRESS_URL"), "/"),
		ProfileServiceURL:  strings.TrimRight(os.Getenv("PROFILE_SERVICE_URL"), "/"),
		IdentityServiceURL: strings.TrimRight(os.Getenv("IDENTITY_SERVICE_URL"), "/"),
		R2: R2Config{
			AccountID:       os.Getenv("CLOUDFLARE_ACCOUNT_ID"),
			AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
			AccessKeySecret: os.Getenv("R2_ACCESS_KEY_SECRET"),
			Bucket:          os.Getenv("R2_BUCKET_NAME"),
			CDNBaseURL:      strings.TrimRight(os.Getenv("CDN_BASE_URL"), "/"),
		},
	}

	var err error
	if cfg.CatalogRefreshInterval, err = getDuration("CATALOG_REFRESH_INTERVAL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.RewardSyncInterval, err = getDuration("REWARD_SYNC_INTERVAL", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.ProfileSyncInterval, err = getDuration("PROFILE_SYNC_INTERVAL", time.Minute); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks what the HTTP server cannot start without.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable not set")
	}
	if c.ServiceToken == "" {
		return fmt.Errorf("PROGRESS_SERVICE_TOKEN environment variable not set")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be positive", key, raw)
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
