package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"study-tracker/gamification"
)

type Config struct {
	Port           string
	AppEnv         string
	LogMode        string
	DatabaseURL    string
	GatewayToken   string
	AllowedOrigins string

	DefaultDailyGoalHours float64
	NightlyJobAt          string // HH:MM, UTC

	// Optional integrations, disabled when empty.
	SyncServiceURL string
	AuthServiceURL string
	AuthToken      string
	GeminiAPIKey   string
	GeminiModel    string
	RedisURL       string

	R2AccountID       string
	R2AccessKeyID     string
	R2AccessKeySecret string
	R2Bucket          string
	CDNBaseURL        string
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	// A missing .env is fine: production injects real env vars.
	_ = godotenv.Load()

	cfg := &Config{
		Port:           getEnv("PORT", "5200"),
		AppEnv:         getEnv("APP_ENV", "development"),
		LogMode:        getEnv("LOG_MODE", "development"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		GatewayToken:   os.Getenv("GATEWAY_SERVICE_TOKEN"),
		AllowedOrigins: normalizeOrigins(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),

		DefaultDailyGoalHours: getFloat("DEFAULT_DAILY_GOAL_HOURS", 2),
		NightlyJobAt:          getEnv("NIGHTLY_JOB_AT", "00:05"),

		SyncServiceURL: os.Getenv("SYNC_SERVICE_URL"),
		AuthServiceURL: os.Getenv("AUTH_SERVICE_URL"),
		AuthToken:      os.Getenv("AUTH_SERVICE_TOKEN"),
		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		GeminiModel:    getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		RedisURL:       os.Getenv("REDIS_URL"),

		R2AccountID:       os.Getenv("CLOUDFLARE_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2AccessKeySecret: os.Getenv("R2_ACCESS_KEY_SECRET"),
		R2Bucket:          os.Getenv("R2_BUCKET_NAME"),
		CDNBaseURL:        os.Getenv("CDN_BASE_URL"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}
	if cfg.GatewayToken == "" {
		return nil, fmt.Errorf("GATEWAY_SERVICE_TOKEN environment variable not set")
	}
	if err := gamification.CheckGoalBounds(cfg.DefaultDailyGoalHours); err != nil {
		return nil, fmt.Errorf("DEFAULT_DAILY_GOAL_HOURS: %w", err)
	}
	if _, _, err := cfg.NightlyJobTime(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NightlyJobTime parses NightlyJobAt into hour and minute.
func (c *Config) NightlyJobTime() (hour, minute uint, err error) {
	parts := strings.Split(c.NightlyJobAt, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("NIGHTLY_JOB_AT must be HH:MM, got %q", c.NightlyJobAt)
	}
	h, errH := strconv.ParseUint(parts[0], 10, 8)
	m, errM := strconv.ParseUint(parts[1], 10, 8)
	if errH != nil || errM != nil || h > 23 || m > 59 {
		return 0, 0, fmt.Errorf("NIGHTLY_JOB_AT must be HH:MM, got %q", c.NightlyJobAt)
	}
	return uint(h), uint(m), nil
}

func (c *Config) R2Enabled() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2AccessKeySecret != "" && c.R2Bucket != ""
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getFloat(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

// normalizeOrigins trims the spaces around each comma-separated origin.
func normalizeOrigins(raw string) string {
	list := strings.Split(raw, ",")
	for i, origin := range list {
		list[i] = strings.TrimSpace(origin)
	}
	return strings.Join(list, ",")
}
