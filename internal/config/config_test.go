package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// clearEnvVars はテスト実行環境の値が混入しないよう、関連する環境変数を空にする。
func clearEnvVars(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"KBASE_CONFIG", "SERVER_PORT", "BASE_URL", "CATALOG_PATH", "SORT_LOCALE",
		"POPULAR_TAG_LIMIT", "SESSION_MAX_AGE", "SESSION_CLEANUP_INTERVAL",
		"RATE_LIMIT_GENERAL", "CORS_ALLOWED_ORIGIN", "COOKIE_DOMAIN", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kbase.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoad_DefaultValues(t *testing.T) {
	clearEnvVars(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q, want %q", cfg.ServerPort, "8080")
	}
	if cfg.BaseURL != "http://localhost:8080" {
		t.Errorf("BaseURL = %q, want %q", cfg.BaseURL, "http://localhost:8080")
	}
	if cfg.CatalogPath != "" {
		t.Errorf("CatalogPath = %q, want empty", cfg.CatalogPath)
	}
	if cfg.SortLocale.String() != "zh" {
		t.Errorf("SortLocale = %v, want %q", cfg.SortLocale, "zh")
	}
	if cfg.PopularTagLimit != 15 {
		t.Errorf("PopularTagLimit = %d, want %d", cfg.PopularTagLimit, 15)
	}

	// Session defaults
	if cfg.SessionMaxAge != 86400 {
		t.Errorf("SessionMaxAge = %d, want %d", cfg.SessionMaxAge, 86400)
	}
	if cfg.SessionCleanupInterval != 5*time.Minute {
		t.Errorf("SessionCleanupInterval = %v, want %v", cfg.SessionCleanupInterval, 5*time.Minute)
	}

	// Rate limit defaults
	if cfg.RateLimitGeneral != 600 {
		t.Errorf("RateLimitGeneral = %d, want %d", cfg.RateLimitGeneral, 600)
	}

	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want %v", cfg.LogLevel, slog.LevelInfo)
	}
	if cfg.CookieSecure {
		t.Error("CookieSecure should be false for http BASE_URL")
	}
	if cfg.CORSAllowedOrigin != "http://localhost:3000" {
		t.Errorf("CORSAllowedOrigin = %q, want %q", cfg.CORSAllowedOrigin, "http://localhost:3000")
	}
}

func TestLoad_CustomValues(t *testing.T) {
	clearEnvVars(t)

	t.Setenv("SERVER_PORT", "3000")
	t.Setenv("BASE_URL", "https://kb.example.com")
	t.Setenv("CATALOG_PATH", "/data/catalog.yaml")
	t.Setenv("SORT_LOCALE", "ja")
	t.Setenv("POPULAR_TAG_LIMIT", "8")
	t.Setenv("SESSION_MAX_AGE", "3600")
	t.Setenv("SESSION_CLEANUP_INTERVAL", "30s")
	t.Setenv("RATE_LIMIT_GENERAL", "60")
	t.Setenv("COOKIE_DOMAIN", "example.com")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.ServerPort != "3000" {
		t.Errorf("ServerPort = %q, want %q", cfg.ServerPort, "3000")
	}
	if !cfg.CookieSecure {
		t.Error("CookieSecure should be true for https BASE_URL")
	}
	if cfg.CatalogPath != "/data/catalog.yaml" {
		t.Errorf("CatalogPath = %q", cfg.CatalogPath)
	}
	if cfg.SortLocale.String() != "ja" {
		t.Errorf("SortLocale = %v, want %q", cfg.SortLocale, "ja")
	}
	if cfg.PopularTagLimit != 8 {
		t.Errorf("PopularTagLimit = %d, want %d", cfg.PopularTagLimit, 8)
	}
	if cfg.SessionMaxAge != 3600 {
		t.Errorf("SessionMaxAge = %d, want %d", cfg.SessionMaxAge, 3600)
	}
	if cfg.SessionCleanupInterval != 30*time.Second {
		t.Errorf("SessionCleanupInterval = %v, want %v", cfg.SessionCleanupInterval, 30*time.Second)
	}
	if cfg.RateLimitGeneral != 60 {
		t.Errorf("RateLimitGeneral = %d, want %d", cfg.RateLimitGeneral, 60)
	}
	if cfg.CookieDomain != "example.com" {
		t.Errorf("CookieDomain = %q", cfg.CookieDomain)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, want %v", cfg.LogLevel, slog.LevelDebug)
	}
}

func TestLoad_UnparsableNumber_FallsBackToDefault(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("POPULAR_TAG_LIMIT", "many")
	t.Setenv("SESSION_CLEANUP_INTERVAL", "soon")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.PopularTagLimit != 15 {
		t.Errorf("PopularTagLimit = %d, want default 15", cfg.PopularTagLimit)
	}
	if cfg.SessionCleanupInterval != 5*time.Minute {
		t.Errorf("SessionCleanupInterval = %v, want default", cfg.SessionCleanupInterval)
	}
}

func TestLoad_InvalidValues_ReturnsError(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"SORT_LOCALE", "not a locale!"},
		{"LOG_LEVEL", "verbose"},
		{"POPULAR_TAG_LIMIT", "-1"},
		{"SESSION_MAX_AGE", "0"},
		{"RATE_LIMIT_GENERAL", "-5"},
		{"SESSION_CLEANUP_INTERVAL", "-1m"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			clearEnvVars(t)
			t.Setenv(tt.key, tt.value)

			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%q, got nil", tt.key, tt.value)
			}
		})
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	clearEnvVars(t)
	path := writeConfigFile(t, `
[server]
port = "9090"
cors_allowed_origin = "https://ui.example.com"

[catalog]
path = "/srv/catalog.yaml"
sort_locale = "en"
popular_tag_limit = 5

[session]
cleanup_interval = "1m"

[log]
level = "warn"
`)
	t.Setenv("KBASE_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.ServerPort != "9090" {
		t.Errorf("ServerPort = %q, want %q", cfg.ServerPort, "9090")
	}
	if cfg.CORSAllowedOrigin != "https://ui.example.com" {
		t.Errorf("CORSAllowedOrigin = %q", cfg.CORSAllowedOrigin)
	}
	if cfg.CatalogPath != "/srv/catalog.yaml" {
		t.Errorf("CatalogPath = %q", cfg.CatalogPath)
	}
	if cfg.SortLocale.String() != "en" {
		t.Errorf("SortLocale = %v, want %q", cfg.SortLocale, "en")
	}
	if cfg.PopularTagLimit != 5 {
		t.Errorf("PopularTagLimit = %d, want %d", cfg.PopularTagLimit, 5)
	}
	if cfg.SessionCleanupInterval != time.Minute {
		t.Errorf("SessionCleanupInterval = %v, want %v", cfg.SessionCleanupInterval, time.Minute)
	}
	if cfg.LogLevel != slog.LevelWarn {
		t.Errorf("LogLevel = %v, want %v", cfg.LogLevel, slog.LevelWarn)
	}
	// ファイルに記載のない項目は既定値
	if cfg.SessionMaxAge != 86400 {
		t.Errorf("SessionMaxAge = %d, want %d", cfg.SessionMaxAge, 86400)
	}
}

func TestLoad_EnvOverridesConfigFile(t *testing.T) {
	clearEnvVars(t)
	path := writeConfigFile(t, `
[server]
port = "9090"

[catalog]
popular_tag_limit = 5
`)
	t.Setenv("KBASE_CONFIG", path)
	t.Setenv("SERVER_PORT", "7070")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.ServerPort != "7070" {
		t.Errorf("ServerPort = %q, want env value %q", cfg.ServerPort, "7070")
	}
	if cfg.PopularTagLimit != 5 {
		t.Errorf("PopularTagLimit = %d, want file value %d", cfg.PopularTagLimit, 5)
	}
}

func TestLoad_ConfigFileErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed", "[server\nport = 1"},
		{"unknown key", "[server]\nhost = \"0.0.0.0\""},
		{"bad duration", "[session]\ncleanup_interval = \"often\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnvVars(t)
			t.Setenv("KBASE_CONFIG", writeConfigFile(t, tt.content))

			if _, err := Load(); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestLoad_MissingConfigFile_ReturnsError(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("KBASE_CONFIG", filepath.Join(t.TempDir(), "missing.toml"))

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing config file, got nil")
	}
}

func TestLoad_ConfigFileZeroIsNotDefault(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("KBASE_CONFIG", writeConfigFile(t, `
[catalog]
popular_tag_limit = 0
`))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.PopularTagLimit != 0 {
		t.Errorf("PopularTagLimit = %d, want explicit 0 from config file", cfg.PopularTagLimit)
	}
}

func TestLoad_ConfigFileInvalidValues_NameFileKey(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantKey string
	}{
		{"zero max_age", "[session]\nmax_age = 0", "session.max_age"},
		{"negative tag limit", "[catalog]\npopular_tag_limit = -3", "catalog.popular_tag_limit"},
		{"zero rate limit", "[rate_limit]\ngeneral = 0", "rate_limit.general"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnvVars(t)
			t.Setenv("KBASE_CONFIG", writeConfigFile(t, tt.content))

			_, err := Load()
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantKey) {
				t.Errorf("error %q should name %q", err, tt.wantKey)
			}
		})
	}
}
