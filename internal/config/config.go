package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAppEnv          = "dev"
	defaultHTTPAddr        = ":8080"
	defaultDatabaseURL     = "leadflow.db"
	defaultJWTSecret       = "change-me-jwt-secret"
	defaultJWTTTL          = "24h"
	defaultAPIBaseURL      = "http://localhost:8080/api/v1"
	defaultRequestTimeout  = "15s"
	defaultModalCloseDelay = "300ms"
	defaultPageSize        = "20"
	defaultScrollThreshold = "400"
	defaultMinCommentWords = "3"
	defaultExemptLabels    = "RNR"
)

// ServerConfig configures the CRM API service.
type ServerConfig struct {
	AppEnv         string
	HTTPAddr       string
	DatabaseURL    string
	JWTSecret      string
	JWTTTL         time.Duration
	AllowedOrigins []string
	AutoMigrate    bool
}

// ClientConfig configures the lead workflow client.
type ClientConfig struct {
	APIBaseURL      string
	Token           string
	RequestTimeout  time.Duration
	ModalCloseDelay time.Duration
	PageSize        int
	ScrollThreshold float64
	MinCommentWords int
	ExemptLabels    []string
}

// LoadDotEnv loads variables from the given files (".env" when none are
// given). Missing files are skipped; variables already set win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
		log.Printf("config: loaded env file path=%s", p)
	}
	return nil
}

func LoadServerConfig() (*ServerConfig, error) {
	cfg := &ServerConfig{
		AppEnv:         strings.ToLower(strings.TrimSpace(getEnv("APP_ENV", defaultAppEnv))),
		HTTPAddr:       strings.TrimSpace(getEnv("HTTP_ADDR", defaultHTTPAddr)),
		DatabaseURL:    strings.TrimSpace(getEnv("DATABASE_URL", defaultDatabaseURL)),
		JWTSecret:      strings.TrimSpace(getEnv("JWT_SECRET", defaultJWTSecret)),
		AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "")),
		AutoMigrate:    parseBoolEnv("AUTO_MIGRATE", "true"),
	}

	var err error
	cfg.JWTTTL, err = parseDurationEnv("JWT_TTL", defaultJWTTTL)
	if err != nil {
		return nil, err
	}

	if err := validateServerConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validateServerConfig(cfg *ServerConfig) error {
	if cfg.HTTPAddr == "" {
		return fmt.Errorf("HTTP_ADDR must not be empty")
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}
	if cfg.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be > 0")
	}
	if isProdLike(cfg.AppEnv) && isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
		return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
	}
	return nil
}

func LoadClientConfig() (*ClientConfig, error) {
	cfg := &ClientConfig{
		APIBaseURL:   strings.TrimSpace(getEnv("LEADFLOW_API_URL", defaultAPIBaseURL)),
		Token:        strings.TrimSpace(os.Getenv("LEADFLOW_TOKEN")),
		ExemptLabels: splitList(getEnv("LEADFLOW_EXEMPT_STATUSES", defaultExemptLabels)),
	}

	var err error
	if cfg.RequestTimeout, err = parseDurationEnv("LEADFLOW_REQUEST_TIMEOUT", defaultRequestTimeout); err != nil {
		return nil, err
	}
	if cfg.ModalCloseDelay, err = parseDurationEnv("LEADFLOW_MODAL_CLOSE_DELAY", defaultModalCloseDelay); err != nil {
		return nil, err
	}
	if cfg.PageSize, err = parseIntEnv("LEADFLOW_PAGE_SIZE", defaultPageSize); err != nil {
		return nil, err
	}
	if cfg.MinCommentWords, err = parseIntEnv("LEADFLOW_MIN_COMMENT_WORDS", defaultMinCommentWords); err != nil {
		return nil, err
	}
	threshold := strings.TrimSpace(getEnv("LEADFLOW_SCROLL_THRESHOLD", defaultScrollThreshold))
	if cfg.ScrollThreshold, err = strconv.ParseFloat(threshold, 64); err != nil {
		return nil, fmt.Errorf("invalid LEADFLOW_SCROLL_THRESHOLD value %q: %w", threshold, err)
	}

	if err := validateClientConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validateClientConfig(cfg *ClientConfig) error {
	if cfg.APIBaseURL == "" {
		return fmt.Errorf("LEADFLOW_API_URL must not be empty")
	}
	if cfg.RequestTimeout <= 0 {
		return fmt.Errorf("LEADFLOW_REQUEST_TIMEOUT must be > 0")
	}
	if cfg.ModalCloseDelay < 0 {
		return fmt.Errorf("LEADFLOW_MODAL_CLOSE_DELAY must be >= 0")
	}
	if cfg.PageSize <= 0 || cfg.PageSize > 100 {
		return fmt.Errorf("LEADFLOW_PAGE_SIZE must be between 1 and 100")
	}
	if cfg.ScrollThreshold < 0 {
		return fmt.Errorf("LEADFLOW_SCROLL_THRESHOLD must be >= 0")
	}
	if cfg.MinCommentWords <= 0 {
		return fmt.Errorf("LEADFLOW_MIN_COMMENT_WORDS must be > 0")
	}
	return nil
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

func parseIntEnv(name, fallback string) (int, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return n, nil
}

func parseBoolEnv(name, fallback string) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(name, fallback)))
	return value == "1" || value == "true" || value == "yes" || value == "on"
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

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
