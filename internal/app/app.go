package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/kbase/internal/browse"
	"github.com/hitoshi/kbase/internal/catalog"
	"github.com/hitoshi/kbase/internal/config"
	"github.com/hitoshi/kbase/internal/handler"
	"github.com/hitoshi/kbase/internal/logger"
	"github.com/hitoshi/kbase/internal/metrics"
	"github.com/hitoshi/kbase/internal/middleware"
	"github.com/hitoshi/kbase/internal/query"
	"github.com/hitoshi/kbase/internal/security"
	"github.com/hitoshi/kbase/internal/session"
)

// shutdownTimeout はグレースフルシャットダウンの待ち時間。
const shutdownTimeout = 30 * time.Second

// Init はアプリケーションの初期化を行う。
// 設定ファイルと環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, slog.LevelInfo)

	// 2. 設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. 設定されたログレベルで再設定する
	logger.SetupDefault(w, cfg.LogLevel)

	return cfg, nil
}

// LoadCatalog は設定に従ってカタログを読み込む。
// パスが未指定の場合は埋め込みの既定カタログを使う。
// 整合性の警告はWARNでログに記録し、読み込みは継続する。
func LoadCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	var (
		cat *catalog.Catalog
		err error
	)
	source := cfg.CatalogPath
	if source == "" {
		source = "embedded"
		cat, err = catalog.LoadDefault()
	} else {
		cat, err = catalog.LoadFile(cfg.CatalogPath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog (%s): %w", source, err)
	}

	for _, warning := range cat.Lint() {
		slog.Warn("catalog warning", slog.String("detail", warning))
	}

	slog.Info("catalog loaded",
		slog.String("source", source),
		slog.Int("items", cat.Len()),
		slog.Int("categories", len(cat.Categories())),
		slog.Int("tags", len(cat.Tags())),
	)
	return cat, nil
}

// App はサーバーモードで使う依存関係一式を保持する。
type App struct {
	Config      *config.Config
	Catalog     *catalog.Catalog
	Service     *browse.Service
	Sessions    *session.Store
	RateLimiter *middleware.RateLimiter
	Registry    *prometheus.Registry
	Handler     http.Handler
}

// New はカタログと設定から全依存関係をワイヤリングしたAppを生成する。
// 呼び出し側は終了時に Close を呼ぶ。
func New(cfg *config.Config, cat *catalog.Catalog) *App {
	// 1. メトリクス
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)

	// 2. セッションストア
	maxAge := time.Duration(cfg.SessionMaxAge) * time.Second
	sessions := session.NewStore(session.Config{
		MaxAge:          maxAge,
		CleanupInterval: cfg.SessionCleanupInterval,
	})
	metrics.RegisterSessionGauge(registry, sessions.Count)

	// 3. ドメインサービス
	engine := query.NewEngine(cfg.SortLocale)
	slog.Info("query engine configured", slog.String("sort_locale", engine.Locale().String()))
	svc := browse.NewService(
		cat,
		engine,
		sessions,
		security.NewContentSanitizer(),
		collector,
		cfg.PopularTagLimit,
	)

	// 4. ルーター
	rateLimiter := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig(cfg.RateLimitGeneral))
	deps := &handler.RouterDeps{
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		SessionConfig: middleware.SessionConfig{
			CookieSecure: cfg.CookieSecure,
			CookieDomain: cfg.CookieDomain,
			MaxAge:       cfg.SessionMaxAge,
		},
		CSRFConfig: middleware.CSRFConfig{
			CookieSecure: cfg.CookieSecure,
			CookieDomain: cfg.CookieDomain,
			MaxAge:       cfg.SessionMaxAge,
		},
		RateLimiter:     rateLimiter,
		Logger:          slog.Default(),
		MetricsRecorder: collector,
		MetricsGatherer: registry,
		CatalogService:  svc,
		ViewService:     svc,
	}

	return &App{
		Config:      cfg,
		Catalog:     cat,
		Service:     svc,
		Sessions:    sessions,
		RateLimiter: rateLimiter,
		Registry:    registry,
		Handler:     handler.NewRouter(deps),
	}
}

// Close はバックグラウンドのクリーンアップを停止する。
func (a *App) Close() {
	a.Sessions.Stop()
	a.RateLimiter.Stop()
}

// Serve はHTTPサーバーを起動し、ctx がキャンセルされるとグレースフルシャットダウンを行う。
func (a *App) Serve(ctx context.Context) error {
	server := &http.Server{
		Addr:         ":" + a.Config.ServerPort,
		Handler:      a.Handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
			slog.String("base_url", a.Config.BaseURL),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server listen error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down API server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runServe はAPIサーバーモードで起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	cat, err := LoadCatalog(cfg)
	if err != nil {
		return err
	}

	a := New(cfg, cat)
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return a.Serve(ctx)
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// healthcheckPort はヘルスチェック対象のポートを環境変数から決める。
func healthcheckPort() string {
	if port := os.Getenv("SERVER_PORT"); port != "" {
		return port
	}
	return "8080"
}
