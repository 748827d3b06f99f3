// Package handler はHTTPハンドラーとルーティングを提供する。
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/kbase/internal/metrics"
	"github.com/hitoshi/kbase/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	CORSAllowedOrigin string
	SessionConfig     middleware.SessionConfig
	CSRFConfig        middleware.CSRFConfig
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger

	// メトリクス（nilの場合は記録も公開もしない）
	MetricsRecorder middleware.StatusRecorder
	MetricsGatherer prometheus.Gatherer

	// カタログ参照
	CatalogService CatalogServiceInterface

	// セッション閲覧
	ViewService ViewServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Session → Logging → Metrics → RateLimit → CSRF
//
// /health と /metrics はセッション以降のミドルウェアを通さない。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	catalogHandler := NewCatalogHandler(deps.CatalogService)
	viewHandler := NewViewHandler(deps.ViewService)

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// --- 運用向けのルート ---
	r.Get("/health", HealthCheck)
	if deps.MetricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.MetricsGatherer))
	}

	// --- APIルート ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionConfig))
		r.Use(middleware.NewLoggingMiddleware(logger))
		if deps.MetricsRecorder != nil {
			r.Use(middleware.NewMetricsMiddleware(deps.MetricsRecorder))
		}
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.Middleware())
		}
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))

		r.Route("/api", func(r chi.Router) {
			r.Method(http.MethodGet, "/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig))

			// カタログ参照（ステートレス）
			r.Get("/categories", catalogHandler.ListCategories)
			r.Get("/tags", catalogHandler.ListTags)
			r.Get("/suggestions", catalogHandler.ListSuggestions)
			r.Route("/items", func(r chi.Router) {
				r.Get("/", catalogHandler.ListItems)
				r.Get("/{id}", catalogHandler.GetItem)
			})

			// セッションの閲覧状態
			r.Route("/view", func(r chi.Router) {
				r.Get("/", viewHandler.GetView)
				r.Post("/actions", viewHandler.ApplyAction)
			})
		})
	})

	return r
}

// HealthCheck は死活監視用のエンドポイント。
// GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
