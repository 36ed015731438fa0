package session

import (
	"context"
	"sync"
	"time"

	"github.com/hitoshi/wikicontest/internal/model"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStore はプロセス内のセッションストア。
// Redis未設定の開発環境とテストで使用する。再起動でセッションは失われる。
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore はMemoryStoreを生成する。
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Load は指定IDのセッションを取得する。期限切れのエントリは削除してnilを返す。
func (m *MemoryStore) Load(_ context.Context, id string) (*model.Session, error) {
	m.mu.Lock()
	e, ok := m.entries[id]
	if ok && !m.now().Before(e.expiresAt) {
		delete(m.entries, id)
		ok = false
	}
	m.mu.Unlock()

	if !ok {
		return nil, nil
	}
	return decode(id, e.data)
}

// Save はセッションを保存する。RedisStoreと同じ形式でシリアライズする。
func (m *MemoryStore) Save(_ context.Context, s *model.Session) error {
	b, err := encode(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.entries[s.ID] = memoryEntry{data: b, expiresAt: m.now().Add(m.ttl)}
	m.mu.Unlock()
	return nil
}

// Delete は指定IDのセッションを削除する。
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.entries, id)
	m.mu.Unlock()
	return nil
}

// Len は保持しているエントリ数を返す。テスト用。
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// compile-time interface check
var _ Store = (*MemoryStore)(nil)
