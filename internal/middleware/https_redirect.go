package middleware

import "net/http"

// NewHTTPSRedirectMiddleware はリバースプロキシがHTTPで受けたリクエストを
// HTTPSへ301リダイレクトするミドルウェアを返す。
// パスはプロキシが渡すX-Original-URIを優先し、無ければリクエストURIを使う。
func NewHTTPSRedirectMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("X-Forwarded-Proto") != "http" {
				next.ServeHTTP(w, r)
				return
			}

			path := r.Header.Get("X-Original-URI")
			if path == "" {
				path = r.URL.RequestURI()
			}
			http.Redirect(w, r, "https://"+r.Host+path, http.StatusMovedPermanently)
		})
	}
}
