// Package session はブラウザ単位のセッションストアを提供する。
// セッション本体はプロセス外（Redis）に置き、Cookieには不透明なIDのみを載せる。
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hitoshi/wikicontest/internal/model"
)

// ErrNoSession はコンテキストにセッションが存在しないことを示す。
var ErrNoSession = errors.New("session not found in context")

// Store はセッションの永続化インターフェース。
type Store interface {
	// Load は指定IDのセッションを取得する。存在しない・期限切れの場合はnilを返す。
	Load(ctx context.Context, id string) (*model.Session, error)
	// Save はセッションを保存し、有効期限を延長する。
	Save(ctx context.Context, s *model.Session) error
	// Delete は指定IDのセッションを削除する。存在しなくてもエラーにしない。
	Delete(ctx context.Context, id string) error
}

// record はストアに書き込むセッションの固定形式。
type record struct {
	Handshakes  map[string]model.Handshake `json:"handshakes,omitempty"`
	AccessToken *model.AccessToken         `json:"access_token,omitempty"`
	Identity    *model.Identity            `json:"identity,omitempty"`
}

func encode(s *model.Session) ([]byte, error) {
	b, err := json.Marshal(record{
		Handshakes:  s.Handshakes,
		AccessToken: s.AccessToken,
		Identity:    s.Identity,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode session: %w", err)
	}
	return b, nil
}

func decode(id string, b []byte) (*model.Session, error) {
	var rec record
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	s := model.NewSession(id)
	s.Handshakes = rec.Handshakes
	s.AccessToken = rec.AccessToken
	s.Identity = rec.Identity
	return s, nil
}

type contextKey struct{}

// NewContext はセッションをコンテキストに格納する。
func NewContext(ctx context.Context, s *model.Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext はコンテキストからセッションを取り出す。
func FromContext(ctx context.Context) (*model.Session, error) {
	s, ok := ctx.Value(contextKey{}).(*model.Session)
	if !ok || s == nil {
		return nil, ErrNoSession
	}
	return s, nil
}
