package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"golang.org/x/text/language"
)

// Config はアプリケーション全体の設定を保持する。
// 起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Catalog
	CatalogPath     string
	SortLocale      language.Tag
	PopularTagLimit int

	// Session
	SessionMaxAge          int
	SessionCleanupInterval time.Duration

	// Rate Limit
	RateLimitGeneral int

	// Logging
	LogLevel slog.Level

	// Server
	ServerPort string
	BaseURL    string

	// Cookie
	CookieSecure bool
	CookieDomain string

	// CORS
	CORSAllowedOrigin string
}

// fileConfig は KBASE_CONFIG で指定されたTOMLファイルの構造。
// 未指定の項目は既定値が使われる。数値は 0 と未指定を区別するためポインタで受ける。
type fileConfig struct {
	Server struct {
		Port              string `toml:"port"`
		BaseURL           string `toml:"base_url"`
		CORSAllowedOrigin string `toml:"cors_allowed_origin"`
		CookieDomain      string `toml:"cookie_domain"`
	} `toml:"server"`
	Catalog struct {
		Path            string `toml:"path"`
		SortLocale      string `toml:"sort_locale"`
		PopularTagLimit *int   `toml:"popular_tag_limit"`
	} `toml:"catalog"`
	Session struct {
		MaxAge          *int   `toml:"max_age"`
		CleanupInterval string `toml:"cleanup_interval"`
	} `toml:"session"`
	RateLimit struct {
		General *int `toml:"general"`
	} `toml:"rate_limit"`
	Log struct {
		Level string `toml:"level"`
	} `toml:"log"`
}

// Load は設定ファイル（任意）と環境変数からConfigを読み込む。
// 環境変数はファイルの値より優先される。
func Load() (*Config, error) {
	var fc fileConfig
	if path := os.Getenv("KBASE_CONFIG"); path != "" {
		md, err := toml.DecodeFile(path, &fc)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("unknown keys in config file %s: %v", path, undecoded)
		}
	}

	cfg := &Config{}

	cfg.ServerPort = getEnvString("SERVER_PORT", orString(fc.Server.Port, "8080"))
	cfg.BaseURL = getEnvString("BASE_URL", orString(fc.Server.BaseURL, "http://localhost:8080"))
	cfg.CatalogPath = getEnvString("CATALOG_PATH", fc.Catalog.Path)
	cfg.PopularTagLimit = getEnvInt("POPULAR_TAG_LIMIT", orInt(fc.Catalog.PopularTagLimit, 15))
	cfg.SessionMaxAge = getEnvInt("SESSION_MAX_AGE", orInt(fc.Session.MaxAge, 86400))
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", orInt(fc.RateLimit.General, 600))
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", fc.Server.CookieDomain)
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", orString(fc.Server.CORSAllowedOrigin, "http://localhost:3000"))

	cleanupDefault := 5 * time.Minute
	if fc.Session.CleanupInterval != "" {
		d, err := time.ParseDuration(fc.Session.CleanupInterval)
		if err != nil {
			return nil, fmt.Errorf("invalid session.cleanup_interval %q: %w", fc.Session.CleanupInterval, err)
		}
		cleanupDefault = d
	}
	cfg.SessionCleanupInterval = getEnvDuration("SESSION_CLEANUP_INTERVAL", cleanupDefault)

	localeStr := getEnvString("SORT_LOCALE", orString(fc.Catalog.SortLocale, "zh"))
	tag, err := language.Parse(localeStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SORT_LOCALE %q: %w", localeStr, err)
	}
	cfg.SortLocale = tag

	levelStr := getEnvString("LOG_LEVEL", orString(fc.Log.Level, "info"))
	if err := cfg.LogLevel.UnmarshalText([]byte(levelStr)); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", levelStr, err)
	}

	var invalid []string
	if cfg.PopularTagLimit < 0 {
		invalid = append(invalid, "POPULAR_TAG_LIMIT (catalog.popular_tag_limit) must not be negative")
	}
	if cfg.SessionMaxAge <= 0 {
		invalid = append(invalid, "SESSION_MAX_AGE (session.max_age) must be positive")
	}
	if cfg.SessionCleanupInterval <= 0 {
		invalid = append(invalid, "SESSION_CLEANUP_INTERVAL (session.cleanup_interval) must be positive")
	}
	if cfg.RateLimitGeneral <= 0 {
		invalid = append(invalid, "RATE_LIMIT_GENERAL (rate_limit.general) must be positive")
	}
	if len(invalid) > 0 {
		return nil, fmt.Errorf("invalid settings in environment or config file: %s", strings.Join(invalid, "; "))
	}

	return cfg, nil
}

func orString(v, defaultVal string) string {
	if v != "" {
		return v
	}
	return defaultVal
}

func orInt(v *int, defaultVal int) int {
	if v != nil {
		return *v
	}
	return defaultVal
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
