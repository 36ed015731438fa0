package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/wikicontest/internal/model"
)

// PostgresParticipantRepo はPostgreSQLを使用したコンテスト参加者リポジトリ。
type PostgresParticipantRepo struct {
	db *sql.DB
}

// NewPostgresParticipantRepo はPostgresParticipantRepoを生成する。
func NewPostgresParticipantRepo(db *sql.DB) *PostgresParticipantRepo {
	return &PostgresParticipantRepo{db: db}
}

// ListByContestID はコンテストの参加者を返す。
// 校正数・検証数は参加者IDに紐づくindex_pagesの件数。
func (r *PostgresParticipantRepo) ListByContestID(ctx context.Context, contestID int64) ([]*model.Participant, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT
			u.id, u.user_name, u.cid,
			(SELECT COUNT(*) FROM index_pages p WHERE p.proofreader_id = u.id),
			(SELECT COUNT(*) FROM index_pages p WHERE p.validator_id = u.id)
		 FROM contest_users u
		 WHERE u.cid = $1
		 ORDER BY u.id ASC`,
		contestID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	var participants []*model.Participant
	for rows.Next() {
		p := &model.Participant{}
		if err := rows.Scan(&p.ID, &p.UserName, &p.ContestID, &p.ProofreadCount, &p.ValidatedCount); err != nil {
			return nil, fmt.Errorf("failed to scan participant row: %w", err)
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participants: %w", err)
	}
	return participants, nil
}

// compile-time interface check
var _ ParticipantRepository = (*PostgresParticipantRepo)(nil)
