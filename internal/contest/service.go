// Package contest はコンテスト・書籍・管理者の登録と参照を提供する。
package contest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/wikicontest/internal/model"
	"github.com/hitoshi/wikicontest/internal/repository"
)

// Recorder はコンテスト作成結果を記録する。
type Recorder interface {
	RecordContestCreated()
	RecordContestCreateFailed(kind string)
}

type noopRecorder struct{}

func (noopRecorder) RecordContestCreated()            {}
func (noopRecorder) RecordContestCreateFailed(string) {}

// Summary は一覧表示用のコンテスト。日付はDD-MM-YYYY形式。
type Summary struct {
	Name      string `json:"name"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Status    bool   `json:"status"`
}

// Detail はコンテスト本体と書籍名・管理者名の一覧。
type Detail struct {
	Contest *model.Contest
	Books   []string
	Admins  []string
}

// Service はコンテストの登録と参照を行う。
type Service struct {
	repo     repository.ContestRepository
	recorder Recorder
}

// NewService はServiceを生成する。recorderがnilの場合は記録しない。
func NewService(repo repository.ContestRepository, recorder Recorder) *Service {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &Service{repo: repo, recorder: recorder}
}

// Create はcreatorを作成者としてコンテストを登録し、採番されたIDを返す。
// 書籍と管理者の関連を含めて1トランザクションで書き込み、失敗時は何も残さない。
func (s *Service) Create(ctx context.Context, creator string, in *CreateInput) (int64, error) {
	if creator == "" {
		return 0, ErrAuthRequired
	}

	id, err := s.create(ctx, creator, in)
	if err != nil {
		kind, _ := IsCreateError(err)
		s.recorder.RecordContestCreateFailed(kind.String())
		slog.Warn("contest creation failed",
			slog.String("created_by", creator),
			slog.String("kind", kind.String()),
			slog.String("error", err.Error()),
		)
		return 0, err
	}

	s.recorder.RecordContestCreated()
	slog.Info("contest created",
		slog.Int64("contest_id", id),
		slog.String("created_by", creator),
	)
	return id, nil
}

func (s *Service) create(ctx context.Context, creator string, in *CreateInput) (int64, error) {
	if in == nil {
		return 0, newCreateError(InvalidPayload, fmt.Errorf("request body is required"))
	}
	p, err := in.parse()
	if err != nil {
		return 0, err
	}

	if p.startDate.After(p.endDate) {
		slog.Warn("contest start date is after end date",
			slog.String("name", p.name),
			slog.String("start_date", p.startDate.Format(model.DateLayout)),
			slog.String("end_date", p.endDate.Format(model.DateLayout)),
		)
	}

	draft := &repository.ContestDraft{
		Contest: model.Contest{
			Name:              p.name,
			CreatedBy:         creator,
			StartDate:         p.startDate,
			EndDate:           p.endDate,
			Status:            model.ContestStatusActive,
			PointPerProofread: p.pointPerProofread,
			PointPerValidate:  p.pointPerValidate,
			Language:          p.language,
		},
		BookNames:  p.bookNames,
		AdminNames: p.adminNames,
	}

	id, err := s.repo.Create(ctx, draft)
	if err != nil {
		return 0, newCreateError(PersistenceFailure, err)
	}
	return id, nil
}

// List は全コンテストを一覧用に返す。フィルタ・ページネーションは行わない。
func (s *Service) List(ctx context.Context) ([]Summary, error) {
	contests, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list contests: %w", err)
	}

	summaries := make([]Summary, 0, len(contests))
	for _, c := range contests {
		summaries = append(summaries, Summary{
			Name:      c.Name,
			StartDate: c.StartDate.Format(model.DisplayDateLayout),
			EndDate:   c.EndDate.Format(model.DisplayDateLayout),
			Status:    bool(c.Status),
		})
	}
	return summaries, nil
}

// Get は指定IDのコンテストを書籍名・管理者名と共に返す。
// 存在しない場合はErrContestNotFoundを返す。
func (s *Service) Get(ctx context.Context, id int64) (*Detail, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get contest: %w", err)
	}
	if c == nil {
		return nil, ErrContestNotFound
	}

	books, err := s.repo.ListBookNames(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get contest books: %w", err)
	}
	admins, err := s.repo.ListAdminNames(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get contest admins: %w", err)
	}

	return &Detail{Contest: c, Books: books, Admins: admins}, nil
}
