package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/wikicontest/internal/model"
)

// PostgresContestRepo はPostgreSQLを使用したコンテストリポジトリ。
type PostgresContestRepo struct {
	db *sql.DB
}

// NewPostgresContestRepo はPostgresContestRepoを生成する。
func NewPostgresContestRepo(db *sql.DB) *PostgresContestRepo {
	return &PostgresContestRepo{db: db}
}

// Create はコンテスト、書籍、管理者の関連を同一トランザクションで作成する。
func (r *PostgresContestRepo) Create(ctx context.Context, draft *ContestDraft) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	c := draft.Contest

	var contestID int64
	err = tx.QueryRowContext(ctx,
		`INSERT INTO contests
		   (name, created_by, start_date, end_date, status, point_per_proofread, point_per_validate, lang)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		c.Name, c.CreatedBy,
		// DATE列はサーバーのタイムゾーンに依存しないよう文字列で渡す
		c.StartDate.Format(model.DateLayout), c.EndDate.Format(model.DateLayout),
		bool(c.Status),
		c.PointPerProofread, c.PointPerValidate, c.Language,
	).Scan(&contestID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert contest: %w", err)
	}

	for _, name := range draft.BookNames {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO books (name, contest_id) VALUES ($1, $2)`,
			name, contestID,
		); err != nil {
			return 0, fmt.Errorf("failed to insert book %q: %w", name, err)
		}
	}

	for _, userName := range draft.AdminNames {
		// 既存管理者があればそのIDを、なければ新規作成したIDを返す
		var adminID int64
		err := tx.QueryRowContext(ctx,
			`INSERT INTO contest_admins (user_name) VALUES ($1)
			 ON CONFLICT (user_name) DO UPDATE SET user_name = EXCLUDED.user_name
			 RETURNING id`,
			userName,
		).Scan(&adminID)
		if err != nil {
			return 0, fmt.Errorf("failed to upsert contest admin %q: %w", userName, err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO contest_admin_contests (admin_id, contest_id) VALUES ($1, $2)
			 ON CONFLICT DO NOTHING`,
			adminID, contestID,
		); err != nil {
			return 0, fmt.Errorf("failed to link contest admin %q: %w", userName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return contestID, nil
}

const contestColumns = `id, name, created_by, start_date, end_date, status,
	point_per_proofread, point_per_validate, lang, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContest(row rowScanner) (*model.Contest, error) {
	c := &model.Contest{}
	var status bool
	if err := row.Scan(
		&c.ID, &c.Name, &c.CreatedBy, &c.StartDate, &c.EndDate, &status,
		&c.PointPerProofread, &c.PointPerValidate, &c.Language, &c.CreatedAt,
	); err != nil {
		return nil, err
	}
	c.Status = model.ContestStatus(status)
	return c, nil
}

// List は全コンテストをID順で返す。
func (r *PostgresContestRepo) List(ctx context.Context) ([]*model.Contest, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+contestColumns+` FROM contests ORDER BY id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list contests: %w", err)
	}
	defer rows.Close()

	var contests []*model.Contest
	for rows.Next() {
		c, err := scanContest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contest row: %w", err)
		}
		contests = append(contests, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate contests: %w", err)
	}
	return contests, nil
}

// FindByID は指定IDのコンテストを取得する。見つからない場合はnilを返す。
func (r *PostgresContestRepo) FindByID(ctx context.Context, id int64) (*model.Contest, error) {
	c, err := scanContest(r.db.QueryRowContext(ctx,
		`SELECT `+contestColumns+` FROM contests WHERE id = $1`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find contest by ID: %w", err)
	}
	return c, nil
}

// ListBookNames はコンテストに属する書籍名を登録順で返す。
func (r *PostgresContestRepo) ListBookNames(ctx context.Context, contestID int64) ([]string, error) {
	return r.listNames(ctx,
		`SELECT name FROM books WHERE contest_id = $1 ORDER BY id ASC`,
		contestID, "books",
	)
}

// ListAdminNames はコンテストの管理者名を返す。
func (r *PostgresContestRepo) ListAdminNames(ctx context.Context, contestID int64) ([]string, error) {
	return r.listNames(ctx,
		`SELECT a.user_name
		 FROM contest_admins a
		 JOIN contest_admin_contests ac ON ac.admin_id = a.id
		 WHERE ac.contest_id = $1
		 ORDER BY a.id ASC`,
		contestID, "contest admins",
	)
}

func (r *PostgresContestRepo) listNames(ctx context.Context, query string, contestID int64, what string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query, contestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", what, err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", what, err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s: %w", what, err)
	}
	return names, nil
}

// compile-time interface check
var _ ContestRepository = (*PostgresContestRepo)(nil)
