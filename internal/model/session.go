package model

// RequestToken はハンドシェイク開始時にIdPから発行される短命のトークン。
type RequestToken struct {
	Key    string `json:"key"`
	Secret string `json:"secret"`
}

// AccessToken はハンドシェイク完了時にIdPから発行される長命のトークン。
// ブラウザセッション専有で、セッション間で共有しない。
type AccessToken struct {
	Key    string `json:"key"`
	Secret string `json:"secret"`
}

// Identity はAccessTokenから解決したユーザー情報。
// クライアント入力からは決して構築しない。
type Identity struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Handshake は進行中のハンドシェイク1件分の一時データ。
// RequestTokenのKeyをセッション内のキーとして保持するため、
// 複数タブで同時にハンドシェイクしても衝突しない。
type Handshake struct {
	RequestToken RequestToken `json:"request_token"`
	Next         string       `json:"next"`
}

// Session はブラウザ単位のサーバー側セッション。
// 1ブラウザが1セッションを操作する前提のため、排他制御は行わない。
type Session struct {
	ID          string               `json:"-"`
	Handshakes  map[string]Handshake `json:"handshakes,omitempty"`
	AccessToken *AccessToken         `json:"access_token,omitempty"`
	Identity    *Identity            `json:"identity,omitempty"`

	modified bool
	cleared  bool
}

// NewSession は空のセッションを生成する。
func NewSession(id string) *Session {
	return &Session{ID: id}
}

// PutHandshake はRequestTokenのKeyでハンドシェイクを登録する。
func (s *Session) PutHandshake(h Handshake) {
	if s.Handshakes == nil {
		s.Handshakes = make(map[string]Handshake)
	}
	s.Handshakes[h.RequestToken.Key] = h
	s.modified = true
}

// Handshake は指定キーのハンドシェイクを返す。
func (s *Session) Handshake(key string) (Handshake, bool) {
	h, ok := s.Handshakes[key]
	return h, ok
}

// DeleteHandshake は消費済みのハンドシェイクを削除する。
func (s *Session) DeleteHandshake(key string) {
	if _, ok := s.Handshakes[key]; !ok {
		return
	}
	delete(s.Handshakes, key)
	s.modified = true
}

// SetAccessToken はAccessTokenを保存する。
func (s *Session) SetAccessToken(t AccessToken) {
	s.AccessToken = &t
	s.modified = true
}

// SetIdentity は解決済みのIdentityをキャッシュする。
func (s *Session) SetIdentity(id Identity) {
	s.Identity = &id
	s.modified = true
}

// Username はキャッシュ済みのユーザー名を返す。未解決の場合は空文字列。
func (s *Session) Username() string {
	if s == nil || s.Identity == nil {
		return ""
	}
	return s.Identity.Username
}

// Clear はセッションの全データを破棄する。何度呼んでもよい。
func (s *Session) Clear() {
	s.Handshakes = nil
	s.AccessToken = nil
	s.Identity = nil
	s.cleared = true
	s.modified = false
}

// Modified は永続化が必要な変更があるかを返す。
func (s *Session) Modified() bool { return s.modified }

// Cleared はClearが呼ばれたかを返す。
func (s *Session) Cleared() bool { return s.cleared }

// MarkPersisted は保存完了後に変更フラグを落とす。
func (s *Session) MarkPersisted() {
	s.modified = false
	s.cleared = false
}
