// Package status はコンテストの開催状態を同期するジョブを提供する。
// 終了日を過ぎたアクティブなコンテストを定期的に非アクティブにする。
package status

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/wikicontest/internal/model"
)

// Executor はSQLのExecContextを抽象化するインターフェース。
// *sql.DB や *sql.Tx を受け付けることができる。
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Recorder は非アクティブ化したコンテスト数を記録する。
type Recorder interface {
	RecordContestsDeactivated(count int)
}

// ContestStatusJob は終了日を過ぎたコンテストを非アクティブにするジョブ。
// 同じ日に何度実行しても結果は変わらない。
type ContestStatusJob struct {
	db       Executor
	logger   *slog.Logger
	recorder Recorder
	Now      func() time.Time
}

// NewContestStatusJob は新しいContestStatusJobを生成する。recorderはnilでもよい。
func NewContestStatusJob(db Executor, logger *slog.Logger, recorder Recorder) *ContestStatusJob {
	return &ContestStatusJob{
		db:       db,
		logger:   logger,
		recorder: recorder,
		Now:      time.Now,
	}
}

// Run はend_dateが今日より前のアクティブなコンテストをstatus=falseに更新する。
// 今日が終了日のコンテストは開催中のまま残す。
func (j *ContestStatusJob) Run(ctx context.Context) error {
	start := time.Now()
	today := j.Now().UTC().Format(model.DateLayout)

	query := `UPDATE contests SET status = false WHERE status AND end_date < $1::date`
	result, err := j.db.ExecContext(ctx, query, today)
	if err != nil {
		j.logger.Error("コンテスト状態の同期に失敗しました",
			slog.String("error", err.Error()),
			slog.String("today", today),
		)
		return fmt.Errorf("コンテスト状態の同期に失敗: %w", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		j.logger.Error("更新件数の取得に失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("更新件数の取得に失敗: %w", err)
	}

	if j.recorder != nil && count > 0 {
		j.recorder.RecordContestsDeactivated(int(count))
	}

	j.logger.Info("コンテスト状態の同期が完了しました",
		slog.Int64("deactivated_count", count),
		slog.String("today", today),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
	return nil
}

// Loop はintervalごとにRunを実行する。起動直後に1回実行し、ctxがキャンセルされると戻る。
// 個々の実行エラーはログに記録して次の周期に持ち越す。
func (j *ContestStatusJob) Loop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		_ = j.Run(ctx)

		select {
		case <-ctx.Done():
			j.logger.Info("コンテスト状態同期ワーカーを停止しました")
			return
		case <-ticker.C:
		}
	}
}
