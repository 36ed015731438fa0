package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPSRedirectMiddleware(t *testing.T) {
	tests := []struct {
		name         string
		proto        string
		originalURI  string
		wantStatus   int
		wantLocation string
	}{
		{"HTTPSはそのまま", "https", "", http.StatusOK, ""},
		{"ヘッダーなしはそのまま", "", "", http.StatusOK, ""},
		{"HTTPはX-Original-URIへ", "http", "/api/contests?x=1", http.StatusMovedPermanently, "https://contest.example.org/api/contests?x=1"},
		{"X-Original-URIなし", "http", "", http.StatusMovedPermanently, "https://contest.example.org/contests?page=2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHTTPSRedirectMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "http://contest.example.org/contests?page=2", nil)
			if tt.proto != "" {
				req.Header.Set("X-Forwarded-Proto", tt.proto)
			}
			if tt.originalURI != "" {
				req.Header.Set("X-Original-URI", tt.originalURI)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if got := w.Header().Get("Location"); got != tt.wantLocation {
				t.Errorf("Location = %q, want %q", got, tt.wantLocation)
			}
		})
	}
}
