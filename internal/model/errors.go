package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, contest, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeOriginNotAllowed   = "ORIGIN_NOT_ALLOWED"
	ErrCodeRateLimited        = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternal           = "INTERNAL_ERROR"
	ErrCodeSessionUnavailable = "SESSION_UNAVAILABLE"
	ErrCodeIdentityProvider   = "IDENTITY_PROVIDER_ERROR"
)

// NewOriginNotAllowedError は許可されていないOriginからの書き込みを拒否するエラーを生成する。
func NewOriginNotAllowedError() *APIError {
	return &APIError{
		Code:     ErrCodeOriginNotAllowed,
		Message:  "Requests from this origin are not allowed.",
		Category: "auth",
		Action:   "Use the contest front end to submit changes.",
	}
}

// NewRateLimitedError はレート制限超過エラーを生成する。
func NewRateLimitedError() *APIError {
	return &APIError{
		Code:     ErrCodeRateLimited,
		Message:  "Too many requests. Please try again later.",
		Category: "system",
		Action:   "Please wait and retry after the specified time.",
	}
}

// NewInternalError は内部エラーを生成する。詳細はログにのみ残す。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "An internal error occurred.",
		Category: "system",
		Action:   "Please wait and retry.",
	}
}

// NewSessionUnavailableError はセッションストアに到達できない場合のエラーを生成する。
func NewSessionUnavailableError() *APIError {
	return &APIError{
		Code:     ErrCodeSessionUnavailable,
		Message:  "Session storage is temporarily unavailable.",
		Category: "system",
		Action:   "Please wait and retry.",
	}
}

// NewIdentityProviderError はウィキのOAuthエンドポイントとの通信に失敗した場合のエラーを生成する。
func NewIdentityProviderError() *APIError {
	return &APIError{
		Code:     ErrCodeIdentityProvider,
		Message:  "Could not complete the login with the wiki.",
		Category: "auth",
		Action:   "Please start the login again.",
	}
}
