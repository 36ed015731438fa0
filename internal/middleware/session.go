// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/hitoshi/wikicontest/internal/model"
	"github.com/hitoshi/wikicontest/internal/session"
)

const sessionCookieName = "session_id"

// SessionCookieConfig はセッションCookieの属性。
type SessionCookieConfig struct {
	MaxAge int // 秒
	Domain string
	Secure bool
}

// NewSessionMiddleware はCookieのセッションIDでストアからセッションを読み込み、
// リクエストコンテキストに格納するミドルウェアを返す。
// セッションが無い・期限切れの場合は新しいIDで空のセッションを用意する。
// 変更されたセッションはレスポンスヘッダー送出の直前に保存される。
func NewSessionMiddleware(store session.Store, cfg SessionCookieConfig) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var sess *model.Session
			if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
				loaded, err := store.Load(r.Context(), cookie.Value)
				if err != nil {
					slog.Error("failed to load session",
						slog.String("error", err.Error()),
					)
					WriteErrorResponse(w, http.StatusServiceUnavailable, model.NewSessionUnavailableError())
					return
				}
				sess = loaded
			}
			if sess == nil {
				// クライアント提示のIDは再利用しない
				sess = model.NewSession(uuid.NewString())
			}

			sw := &sessionWriter{ResponseWriter: w, request: r, session: sess, store: store, cfg: cfg}
			next.ServeHTTP(sw, r.WithContext(session.NewContext(r.Context(), sess)))
			sw.commit()
		})
	}
}

// sessionWriter はヘッダー送出前にセッションを永続化し、Cookieを設定する。
type sessionWriter struct {
	http.ResponseWriter
	request   *http.Request
	session   *model.Session
	store     session.Store
	cfg       SessionCookieConfig
	committed bool
}

func (sw *sessionWriter) WriteHeader(code int) {
	sw.commit()
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *sessionWriter) Write(b []byte) (int, error) {
	sw.commit()
	return sw.ResponseWriter.Write(b)
}

// Unwrap はhttp.ResponseControllerが元のResponseWriterに到達できるようにする。
func (sw *sessionWriter) Unwrap() http.ResponseWriter {
	return sw.ResponseWriter
}

func (sw *sessionWriter) commit() {
	if sw.committed {
		return
	}
	sw.committed = true

	s := sw.session
	ctx := sw.request.Context()

	switch {
	case s.Modified():
		if err := sw.store.Save(ctx, s); err != nil {
			slog.Error("failed to save session", slog.String("error", err.Error()))
			return
		}
		http.SetCookie(sw.ResponseWriter, sw.cookie(s.ID, sw.cfg.MaxAge))
	case s.Cleared():
		if err := sw.store.Delete(ctx, s.ID); err != nil {
			slog.Error("failed to delete session", slog.String("error", err.Error()))
			return
		}
		http.SetCookie(sw.ResponseWriter, sw.cookie("", -1))
	default:
		return
	}
	s.MarkPersisted()
}

func (sw *sessionWriter) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     sessionCookieName,
		Value:    value,
		Path:     "/",
		Domain:   sw.cfg.Domain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   sw.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// UsernameFromRequest はセッションにキャッシュされたユーザー名を返す。匿名の場合は空文字列。
func UsernameFromRequest(r *http.Request) string {
	s, err := session.FromContext(r.Context())
	if err != nil {
		return ""
	}
	return s.Username()
}
