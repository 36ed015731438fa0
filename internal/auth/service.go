// Package auth はMediaWiki OAuthの三者間ハンドシェイクとセッション上の本人確認を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hitoshi/wikicontest/internal/model"
	"github.com/hitoshi/wikicontest/internal/session"
)

// DefaultNext はloginでnextが指定されなかった場合の戻り先。
const DefaultNext = "index"

var (
	// ErrMissingRequestToken はコールバックのトークンに対応するハンドシェイクがセッションに無いことを示す。
	// Cookieが無効か、トークンが期限切れ・再送された場合に発生する。
	ErrMissingRequestToken = errors.New("OAuth callback failed. Can't find keyed token. Are cookies disabled?")

	// ErrNoAccessToken はセッションにAccessTokenが無いことを示す。呼び出し側は匿名として扱う。
	ErrNoAccessToken = errors.New("no access token in session")
)

// IdentityProvider は外部認証局とのハンドシェイクを抽象化する。
type IdentityProvider interface {
	// Initiate はRequestTokenを取得し、ユーザーを送るリダイレクト先URLを返す。
	Initiate(ctx context.Context) (string, model.RequestToken, error)
	// Complete はRequestTokenとコールバックの生クエリ文字列をAccessTokenに交換する。
	Complete(ctx context.Context, rt model.RequestToken, callbackQuery string) (model.AccessToken, error)
	// Identify はAccessTokenの持ち主を問い合わせる。
	Identify(ctx context.Context, at model.AccessToken) (*model.Identity, error)
}

// HandshakeRecorder はハンドシェイクの結果を記録する。
type HandshakeRecorder interface {
	RecordHandshakeStarted()
	RecordHandshakeCompleted()
	RecordHandshakeFailed(reason string)
}

type noopRecorder struct{}

func (noopRecorder) RecordHandshakeStarted()      {}
func (noopRecorder) RecordHandshakeCompleted()    {}
func (noopRecorder) RecordHandshakeFailed(string) {}

// Service はコンテキスト上のセッションに対してハンドシェイクの状態遷移を行う。
// セッションの永続化はミドルウェアが担うため、Serviceはストアに触れない。
type Service struct {
	provider IdentityProvider
	recorder HandshakeRecorder
}

// NewService はServiceを生成する。recorderがnilの場合は記録しない。
func NewService(provider IdentityProvider, recorder HandshakeRecorder) *Service {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &Service{provider: provider, recorder: recorder}
}

// Initiate はハンドシェイクを開始し、認証局のリダイレクト先URLを返す。
// RequestTokenと戻り先はトークンのKeyで登録するため、複数タブの同時ログインが衝突しない。
func (s *Service) Initiate(ctx context.Context, next string) (string, error) {
	sess, err := session.FromContext(ctx)
	if err != nil {
		return "", err
	}
	if next == "" {
		next = DefaultNext
	}

	redirectURL, rt, err := s.provider.Initiate(ctx)
	if err != nil {
		s.recorder.RecordHandshakeFailed("initiate")
		return "", fmt.Errorf("failed to initiate handshake: %w", err)
	}

	sess.PutHandshake(model.Handshake{RequestToken: rt, Next: next})
	s.recorder.RecordHandshakeStarted()
	return redirectURL, nil
}

// Complete はコールバックを処理してAccessTokenを保存し、そのまま本人確認まで行う。
// 対応するハンドシェイクが無い場合はセッションを変更せずErrMissingRequestTokenを返す。
func (s *Service) Complete(ctx context.Context, callbackToken, callbackQuery string) (*model.Identity, error) {
	sess, err := session.FromContext(ctx)
	if err != nil {
		return nil, err
	}

	hs, ok := sess.Handshake(callbackToken)
	if !ok {
		s.recorder.RecordHandshakeFailed("missing_token")
		return nil, ErrMissingRequestToken
	}

	at, err := s.provider.Complete(ctx, hs.RequestToken, callbackQuery)
	if err != nil {
		s.recorder.RecordHandshakeFailed("exchange")
		return nil, fmt.Errorf("failed to complete handshake: %w", err)
	}

	sess.SetAccessToken(at)
	sess.DeleteHandshake(callbackToken)

	if _, err := s.Resolve(ctx, true); err != nil {
		s.recorder.RecordHandshakeFailed("identify")
		return nil, err
	}

	s.recorder.RecordHandshakeCompleted()
	slog.Info("user logged in",
		slog.String("username", sess.Username()),
		slog.String("next", hs.Next),
	)
	return sess.Identity, nil
}

// Resolve は呼び出し元のユーザー名を返す。
// forceRefreshがfalseでキャッシュがあれば認証局に問い合わせない。
func (s *Service) Resolve(ctx context.Context, forceRefresh bool) (string, error) {
	sess, err := session.FromContext(ctx)
	if err != nil {
		return "", err
	}

	if !forceRefresh {
		if name := sess.Username(); name != "" {
			return name, nil
		}
	}
	if sess.AccessToken == nil {
		return "", ErrNoAccessToken
	}

	identity, err := s.provider.Identify(ctx, *sess.AccessToken)
	if err != nil {
		return "", fmt.Errorf("failed to identify user: %w", err)
	}
	sess.SetIdentity(*identity)
	return identity.Username, nil
}

// Logout はセッションの全データを破棄する。匿名セッションに対しても成功する。
func (s *Service) Logout(ctx context.Context) error {
	sess, err := session.FromContext(ctx)
	if errors.Is(err, session.ErrNoSession) {
		return nil
	}
	if err != nil {
		return err
	}
	if name := sess.Username(); name != "" {
		slog.Info("user logged out", slog.String("username", name))
	}
	sess.Clear()
	return nil
}
