// Package model はドメインモデルを定義する。
package model

import "time"

// DateLayout はコンテスト日付（時刻なし）の入力フォーマット（ISO-8601）。
const DateLayout = "2006-01-02"

// DisplayDateLayout はコンテスト一覧で返す日付フォーマット（DD-MM-YYYY）。
const DisplayDateLayout = "02-01-2006"

// ContestStatus はコンテストの開催状態を表す。
type ContestStatus bool

const (
	// ContestStatusActive は開催中のコンテスト。
	ContestStatusActive ContestStatus = true
	// ContestStatusInactive は終了済みのコンテスト。
	ContestStatusInactive ContestStatus = false
)

// Contest は校正コンテストを表す。
// CreatedByは作成時の認証済みユーザー名で、作成後は変更しない。
type Contest struct {
	ID                int64
	Name              string
	CreatedBy         string
	StartDate         time.Time // 日付のみ（UTC 00:00）
	EndDate           time.Time // 日付のみ（UTC 00:00）
	Status            ContestStatus
	PointPerProofread int
	PointPerValidate  int
	Language          string
	CreatedAt         time.Time
}

// Book はコンテスト対象の書籍を表す。コンテストに従属し、コンテスト削除時に削除される。
type Book struct {
	ID        int64
	Name      string
	ContestID int64
}

// ContestAdmin はコンテスト管理者を表す。
// UserNameで一意に識別され、複数のコンテストと多対多で関連付く。
type ContestAdmin struct {
	ID         int64
	UserName   string
	ContestIDs []int64
}

// Participant はコンテスト単位の参加者レコードを表す。
// 同じwikiユーザーでもコンテストが異なれば別レコードになる。
type Participant struct {
	ID             int64
	UserName       string
	ContestID      int64
	ProofreadCount int
	ValidatedCount int
}

// IndexPage はページ単位の作業記録を表す。
// ページ追跡側で作成され、このサービスからは読み取りのみ行う。
type IndexPage struct {
	ID                  int64
	Name                string
	ProofreaderUsername string
	ValidatorUsername   string
}
