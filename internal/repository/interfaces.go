// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/wikicontest/internal/model"
)

// ContestDraft はコンテスト作成時に1トランザクションで書き込む行の集合。
type ContestDraft struct {
	Contest    model.Contest
	BookNames  []string
	AdminNames []string
}

// ContestRepository はコンテスト・書籍・管理者の永続化インターフェース。
type ContestRepository interface {
	// Create はコンテスト、書籍、管理者の関連を同一トランザクションで作成し、採番されたIDを返す。
	// 既存の管理者（user_name一致）には新しいコンテストを関連付けに追加する。
	// いずれかの書き込みに失敗した場合は全体をロールバックする。
	Create(ctx context.Context, draft *ContestDraft) (int64, error)

	// List は全コンテストをID順で返す。フィルタ・ページネーションは行わない。
	List(ctx context.Context) ([]*model.Contest, error)

	// FindByID は指定IDのコンテストを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Contest, error)

	// ListBookNames はコンテストに属する書籍名を返す。
	ListBookNames(ctx context.Context, contestID int64) ([]string, error)

	// ListAdminNames はコンテストの管理者名を返す。
	ListAdminNames(ctx context.Context, contestID int64) ([]string, error)
}

// ParticipantRepository はコンテスト参加者の読み取りインターフェース。
// 参加者レコードはページ追跡側で作成されるため、書き込み操作は持たない。
type ParticipantRepository interface {
	// ListByContestID はコンテストの参加者を校正数・検証数付きで返す。
	ListByContestID(ctx context.Context, contestID int64) ([]*model.Participant, error)
}

// IndexPageRepository はページ作業記録の読み取りインターフェース。
type IndexPageRepository interface {
	// ListByUsernames は校正者または検証者が指定ユーザーのいずれかであるページを一括で返す。
	ListByUsernames(ctx context.Context, usernames []string) ([]*model.IndexPage, error)
}
