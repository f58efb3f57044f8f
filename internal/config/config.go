package config

import (
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"strings"
	"time"
)

const (
	defaultHTTPAddr       = ":8080"
	defaultDatabaseURL    = "releasedesk.db"
	defaultSessionTTL     = "720h"
	defaultCookieSecure   = "false"
	defaultCookieSameSite = "Lax"
	defaultCookiePath     = "/api/v1"
	defaultSheetName      = "Releases"
	defaultGoogleTokenURL = "https://oauth2.googleapis.com/token"
	defaultJWTSecret      = "change-me-jwt-secret"
	// hex of "change-me-session-key-32-bytes!!"; rejected in prod
	defaultSessionKey = "6368616e67652d6d652d73657373696f6e2d6b65792d33322d62797465732121"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	DatabaseURL string

	JWTSecret      string
	SessionTTL     time.Duration
	SessionKey     []byte
	CookieSecure   bool
	CookieSameSite string
	CookiePath     string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleTokenURL     string
	GoogleAPIEndpoint  string
	ServiceAccessToken string

	// Release backend. Empty ids are reported per request as missing
	// configuration, not at startup.
	SpreadsheetID string
	SheetName     string
	DriveFolderID string
}

func Load() (*Config, error) {
	cfg := &Config{}
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = strings.TrimSpace(os.Getenv("ENV"))
	}
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	cfg.HTTPAddr = strings.TrimSpace(getEnv("HTTP_ADDR", defaultHTTPAddr))
	cfg.DatabaseURL = strings.TrimSpace(getEnv("DATABASE_URL", defaultDatabaseURL))
	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", defaultJWTSecret))

	var err error
	cfg.SessionTTL, err = parseDurationEnv("SESSION_TTL", defaultSessionTTL)
	if err != nil {
		return nil, err
	}

	rawKey := strings.TrimSpace(getEnv("SESSION_ENCRYPTION_KEY", defaultSessionKey))
	cfg.SessionKey, err = hex.DecodeString(rawKey)
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_ENCRYPTION_KEY: %w", err)
	}

	cfg.CookieSecure = parseBoolEnv("COOKIE_SECURE", defaultCookieSecure)
	cfg.CookieSameSite = strings.TrimSpace(getEnv("COOKIE_SAMESITE", defaultCookieSameSite))
	cfg.CookiePath = strings.TrimSpace(getEnv("COOKIE_PATH", defaultCookiePath))

	cfg.GoogleClientID = strings.TrimSpace(os.Getenv("GOOGLE_CLIENT_ID"))
	cfg.GoogleClientSecret = strings.TrimSpace(os.Getenv("GOOGLE_CLIENT_SECRET"))
	cfg.GoogleTokenURL = strings.TrimSpace(getEnv("GOOGLE_TOKEN_URL", defaultGoogleTokenURL))
	cfg.GoogleAPIEndpoint = strings.TrimSpace(os.Getenv("GOOGLE_API_ENDPOINT"))
	cfg.ServiceAccessToken = strings.TrimSpace(os.Getenv("SERVICE_ACCESS_TOKEN"))

	cfg.SpreadsheetID = strings.TrimSpace(os.Getenv("RELEASES_SPREADSHEET_ID"))
	cfg.SheetName = strings.TrimSpace(getEnv("RELEASES_SHEET_NAME", defaultSheetName))
	cfg.DriveFolderID = strings.TrimSpace(os.Getenv("RELEASES_DRIVE_FOLDER_ID"))

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	if cfg.SpreadsheetID == "" {
		log.Printf("config_warning key=RELEASES_SPREADSHEET_ID reason=unset release requests will fail")
	}
	if cfg.DriveFolderID == "" {
		log.Printf("config_warning key=RELEASES_DRIVE_FOLDER_ID reason=unset uploads will fail")
	}
	log.Printf("session cookie config: secure=%t, sameSite=%s, path=%s", cfg.CookieSecure, cfg.CookieSameSite, cfg.CookiePath)

	return cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be > 0")
	}
	if len(cfg.SessionKey) != 32 {
		return fmt.Errorf("SESSION_ENCRYPTION_KEY must be 32 bytes (64 hex chars)")
	}
	if cfg.CookiePath == "" {
		return fmt.Errorf("COOKIE_PATH must not be empty")
	}
	sameSite := strings.ToLower(strings.TrimSpace(cfg.CookieSameSite))
	if sameSite != "lax" && sameSite != "none" && sameSite != "strict" {
		return fmt.Errorf("COOKIE_SAMESITE must be one of: Lax, None, Strict")
	}
	if sameSite == "none" && !cfg.CookieSecure {
		return fmt.Errorf("COOKIE_SECURE must be true when COOKIE_SAMESITE=None")
	}
	if cfg.SheetName == "" {
		return fmt.Errorf("RELEASES_SHEET_NAME must not be empty")
	}

	if isProdLike(cfg.AppEnv) {
		if isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
		if hex.EncodeToString(cfg.SessionKey) == defaultSessionKey {
			return fmt.Errorf("in prod/release SESSION_ENCRYPTION_KEY must be set and not default")
		}
		if !cfg.CookieSecure {
			return fmt.Errorf("in prod/release COOKIE_SECURE must be true")
		}
	}

	return nil
}

func (c *Config) IsProdLike() bool {
	return isProdLike(c.AppEnv)
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func parseBoolEnv(name, fallback string) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(name, fallback)))
	return value == "1" || value == "true" || value == "yes" || value == "on"
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
