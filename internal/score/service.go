// Package score はページ単位の作業記録から参加者ごとの得点を集計する。
package score

import (
	"context"
	"fmt"

	"github.com/hitoshi/wikicontest/internal/model"
	"github.com/hitoshi/wikicontest/internal/repository"
)

// UserScore は1参加者の集計結果。
type UserScore struct {
	Username       string
	ProofreadCount int
	ValidatedCount int
	Points         int
	Pages          []*model.IndexPage
}

// Points は校正数・検証数と配点から得点を計算する。丸めやクランプは行わない。
func Points(proofreadCount, validatedCount, pointPerProofread, pointPerValidate int) int {
	return proofreadCount*pointPerProofread + validatedCount*pointPerValidate
}

// Service はコンテストの参加者得点を集計する。
type Service struct {
	participants repository.ParticipantRepository
	pages        repository.IndexPageRepository
}

// NewService はServiceを生成する。
func NewService(participants repository.ParticipantRepository, pages repository.IndexPageRepository) *Service {
	return &Service{participants: participants, pages: pages}
}

// ComputeDetail はコンテストの全参加者について得点と関連ページを返す。
// ページは全参加者分を1回で取得し、校正者・検証者のユーザー名でまとめる。
func (s *Service) ComputeDetail(ctx context.Context, c *model.Contest) ([]UserScore, error) {
	participants, err := s.participants.ListByContestID(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}

	usernames := make([]string, 0, len(participants))
	for _, p := range participants {
		usernames = append(usernames, p.UserName)
	}

	pages, err := s.pages.ListByUsernames(ctx, usernames)
	if err != nil {
		return nil, fmt.Errorf("failed to list index pages: %w", err)
	}
	byUser := groupPages(pages)

	scores := make([]UserScore, 0, len(participants))
	for _, p := range participants {
		userPages := byUser[p.UserName]
		if userPages == nil {
			userPages = []*model.IndexPage{}
		}
		scores = append(scores, UserScore{
			Username:       p.UserName,
			ProofreadCount: p.ProofreadCount,
			ValidatedCount: p.ValidatedCount,
			Points:         Points(p.ProofreadCount, p.ValidatedCount, c.PointPerProofread, c.PointPerValidate),
			Pages:          userPages,
		})
	}
	return scores, nil
}

// groupPages はページを校正者・検証者それぞれのユーザー名に割り当てる。
// 同じユーザーが両方を務めたページは1回だけ含める。
func groupPages(pages []*model.IndexPage) map[string][]*model.IndexPage {
	byUser := make(map[string][]*model.IndexPage)
	for _, pg := range pages {
		if pg.ProofreaderUsername != "" {
			byUser[pg.ProofreaderUsername] = append(byUser[pg.ProofreaderUsername], pg)
		}
		if pg.ValidatorUsername != "" && pg.ValidatorUsername != pg.ProofreaderUsername {
			byUser[pg.ValidatorUsername] = append(byUser[pg.ValidatorUsername], pg)
		}
	}
	return byUser
}
