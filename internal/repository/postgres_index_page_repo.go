package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/wikicontest/internal/model"
)

// PostgresIndexPageRepo はPostgreSQLを使用したページ作業記録リポジトリ。
type PostgresIndexPageRepo struct {
	db *sql.DB
}

// NewPostgresIndexPageRepo はPostgresIndexPageRepoを生成する。
func NewPostgresIndexPageRepo(db *sql.DB) *PostgresIndexPageRepo {
	return &PostgresIndexPageRepo{db: db}
}

// ListByUsernames は校正者または検証者が指定ユーザーのいずれかであるページを1クエリで返す。
// usernamesが空の場合はクエリを発行しない。
func (r *PostgresIndexPageRepo) ListByUsernames(ctx context.Context, usernames []string) ([]*model.IndexPage, error) {
	if len(usernames) == 0 {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, COALESCE(proofreader_username, ''), COALESCE(validator_username, '')
		 FROM index_pages
		 WHERE proofreader_username = ANY($1) OR validator_username = ANY($1)
		 ORDER BY id ASC`,
		pq.Array(usernames),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list index pages: %w", err)
	}
	defer rows.Close()

	var pages []*model.IndexPage
	for rows.Next() {
		p := &model.IndexPage{}
		if err := rows.Scan(&p.ID, &p.Name, &p.ProofreaderUsername, &p.ValidatorUsername); err != nil {
			return nil, fmt.Errorf("failed to scan index page row: %w", err)
		}
		pages = append(pages, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate index pages: %w", err)
	}
	return pages, nil
}

// compile-time interface check
var _ IndexPageRepository = (*PostgresIndexPageRepo)(nil)
