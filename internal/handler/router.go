package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/wikicontest/internal/middleware"
	"github.com/hitoshi/wikicontest/internal/security"
	"github.com/hitoshi/wikicontest/internal/session"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionStore   session.Store
	SessionCookie  middleware.SessionCookieConfig
	AllowedOrigins []string
	HSTS           bool
	RateLimiter    *middleware.RateLimiter // nilの場合はレート制限なし
	Logger         *slog.Logger
	StatusRecorder middleware.HTTPStatusRecorder

	// 運用
	HealthChecker  HealthChecker
	MetricsHandler http.Handler

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig
	Resolver    IdentityResolver

	// コンテスト
	ContestService ContestServiceInterface
	ScoreService   ScoreServiceInterface
	Scrubber       security.ErrorTextScrubber
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → HTTPSRedirect → CORS → Session → Logging → OriginCheck
//
// 運用エンドポイント（/health, /metrics）はセッションを読み込まない。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware(deps.HSTS))
	r.Use(middleware.NewHTTPSRedirectMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.AllowedOrigins))

	// --- 運用エンドポイント ---
	r.Get("/health", NewHealthHandler(deps.HealthChecker))
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	contestHandler := NewContestHandler(deps.ContestService, deps.ScoreService, deps.Resolver, deps.Scrubber)

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// --- セッションを使うルート ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionStore, deps.SessionCookie))
		r.Use(middleware.NewLoggingMiddleware(logger, deps.StatusRecorder))
		r.Use(middleware.NewOriginCheckMiddleware(deps.AllowedOrigins))

		// OAuthハンドシェイク
		r.Get("/login", authHandler.Login)
		r.Get("/logout", authHandler.Logout)
		r.Get("/oauth-k", authHandler.Callback)

		// コンテスト
		r.Get("/contests", contestHandler.List)
		r.Get("/contest/{id}", contestHandler.Get)
		r.Get("/graph-data", contestHandler.GraphData)

		create := r.With()
		if deps.RateLimiter != nil {
			create = r.With(deps.RateLimiter.Middleware())
		}
		create.Post("/contest/create", contestHandler.Create)
	})

	return r
}
