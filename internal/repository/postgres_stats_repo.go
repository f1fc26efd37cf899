package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresStatsRepo はPostgreSQLを使用したダッシュボード集計リポジトリ。
type PostgresStatsRepo struct {
	db *sql.DB
}

// NewPostgresStatsRepo はPostgresStatsRepoを生成する。
func NewPostgresStatsRepo(db *sql.DB) *PostgresStatsRepo {
	return &PostgresStatsRepo{db: db}
}

// Counts は各エンティティの件数を返す。集計はキャッシュしない。
func (r *PostgresStatsRepo) Counts(ctx context.Context) (*DashboardCounts, error) {
	counts := &DashboardCounts{}
	err := r.db.QueryRowContext(ctx,
		`SELECT
			(SELECT COUNT(*) FROM campaigns),
			(SELECT COUNT(*) FROM campaigns WHERE status = 'active'),
			(SELECT COUNT(*) FROM entries),
			(SELECT COUNT(*) FROM reviews)`,
	).Scan(&counts.CampaignCount, &counts.ActiveCampaignCount, &counts.EntryCount, &counts.ReviewCount)
	if err != nil {
		return nil, fmt.Errorf("ダッシュボード集計の取得に失敗しました: %w", err)
	}
	return counts, nil
}

// compile-time interface check
var _ StatsRepository = (*PostgresStatsRepo)(nil)
