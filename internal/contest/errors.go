package contest

import "errors"

var (
	// ErrAuthRequired は未ログインの呼び出し元が作成しようとしたことを示す。
	ErrAuthRequired = errors.New("Please login!")

	// ErrContestNotFound は指定IDのコンテストが存在しないことを示す。
	ErrContestNotFound = errors.New("Contest with this id does not exist!")
)

// CreateErrorKind はコンテスト作成失敗の原因区分。
type CreateErrorKind int

const (
	InvalidPayload CreateErrorKind = iota + 1
	InvalidDate
	InvalidWeight
	InvalidBookLine
	PersistenceFailure
)

// String はメトリクスやログに使う区分名を返す。
func (k CreateErrorKind) String() string {
	switch k {
	case InvalidPayload:
		return "invalid_payload"
	case InvalidDate:
		return "invalid_date"
	case InvalidWeight:
		return "invalid_weight"
	case InvalidBookLine:
		return "invalid_book_line"
	case PersistenceFailure:
		return "persistence_failure"
	default:
		return "unknown"
	}
}

// CreateError はコンテスト作成の失敗を表す。
// 外部には1つのメッセージとして返すが、内部ではKindで原因を区別できる。
type CreateError struct {
	Kind CreateErrorKind
	Err  error
}

func (e *CreateError) Error() string {
	return e.Err.Error()
}

func (e *CreateError) Unwrap() error {
	return e.Err
}

func newCreateError(kind CreateErrorKind, err error) *CreateError {
	return &CreateError{Kind: kind, Err: err}
}

// IsCreateError はerrがCreateErrorであればその区分を返す。
func IsCreateError(err error) (CreateErrorKind, bool) {
	var ce *CreateError
	if errors.As(err, &ce) {
		return ce.Kind, true
	}
	return 0, false
}
