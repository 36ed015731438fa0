package middleware

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/hitoshi/wikicontest/internal/model"
)

// NewOriginCheckMiddleware は状態変更メソッドのリクエストについて、
// Originヘッダーが許可オリジンのいずれかと一致するかを検証するミドルウェアを返す。
// Originヘッダーを送らないクライアント（同一オリジンのフォーム、CLI等）は通過させる。
// セッションCookieのSameSite=Laxと合わせてクロスサイトの書き込みを防ぐ。
func NewOriginCheckMiddleware(allowedOrigins []string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isSafeMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			origin := r.Header.Get("Origin")
			if origin != "" && !slices.Contains(allowedOrigins, origin) {
				slog.Warn("origin check failed",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("origin", origin),
				)
				WriteErrorResponse(w, http.StatusForbidden, model.NewOriginNotAllowedError())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// isSafeMethod はHTTPメソッドが安全（読み取り専用）かどうかを判定する。
func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}
