// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/hitoshi/wikicontest/internal/auth"
	"github.com/hitoshi/wikicontest/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Initiate(ctx context.Context, next string) (string, error)
	Complete(ctx context.Context, callbackToken, callbackQuery string) (*model.Identity, error)
	Logout(ctx context.Context) error
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	FrontendURL string // ハンドシェイク完了後のリダイレクト先
}

// AuthHandler はOAuthハンドシェイク関連のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	config  AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service: service,
		config:  config,
	}
}

// Login はハンドシェイクを開始し、ウィキの認可画面にリダイレクトする。
// GET /login?next=xxx
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	redirectURL, err := h.service.Initiate(r.Context(), r.URL.Query().Get("next"))
	if err != nil {
		slog.Error("failed to initiate oauth handshake", slog.String("error", err.Error()))
		writeAPIErrorResponse(w, http.StatusBadGateway, model.NewIdentityProviderError())
		return
	}
	http.Redirect(w, r, redirectURL, http.StatusFound)
}

// Callback はウィキからのコールバックを受けてハンドシェイクを完了する。
// GET /oauth-k?oauth_token=xxx&oauth_verifier=yyy
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("oauth_token")

	if _, err := h.service.Complete(r.Context(), token, r.URL.RawQuery); err != nil {
		if errors.Is(err, auth.ErrMissingRequestToken) {
			slog.Warn("oauth callback without pending handshake")
			writeJSON(w, http.StatusOK, err.Error())
			return
		}
		slog.Error("oauth callback failed", slog.String("error", err.Error()))
		writeAPIErrorResponse(w, http.StatusBadGateway, model.NewIdentityProviderError())
		return
	}

	http.Redirect(w, r, h.config.FrontendURL, http.StatusFound)
}

// Logout はセッションを破棄する。nextが安全な遷移先であればリダイレクトする。
// GET /logout?next=xxx
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r.Context()); err != nil {
		slog.Error("failed to logout", slog.String("error", err.Error()))
		writeAPIErrorResponse(w, http.StatusInternalServerError, model.NewInternalError())
		return
	}

	if next := r.URL.Query().Get("next"); next != "" {
		if isSafeRedirect(next, h.config.FrontendURL) {
			http.Redirect(w, r, next, http.StatusFound)
			return
		}
		slog.Warn("ignored unsafe logout redirect", slog.String("next", next))
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// isSafeRedirect はnextが同一サイト内のパスか、フロントエンドと同じオリジンのURLかを判定する。
func isSafeRedirect(next, frontendURL string) bool {
	if strings.HasPrefix(next, "/") {
		return !strings.HasPrefix(next, "//") && !strings.HasPrefix(next, `/\`)
	}
	u, err := url.Parse(next)
	if err != nil || u.Host == "" {
		return false
	}
	f, err := url.Parse(frontendURL)
	if err != nil {
		return false
	}
	return u.Scheme == f.Scheme && u.Host == f.Host
}
