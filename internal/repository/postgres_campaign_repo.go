package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/htsuda/otameshi/internal/model"
)

// campaignWithStatsColumns は集計値付きキャンペーン取得のSELECT句。
// 応募数・当選数・平均評価は保存せず、取得のたびにサブクエリで計算する。
const campaignWithStatsColumns = `
	c.id, c.company_id, c.title, c.description, c.image_url,
	c.start_at, c.end_at, c.status, c.created_at, c.updated_at,
	co.name, co.url, co.email,
	(SELECT COUNT(*) FROM entries e WHERE e.campaign_id = c.id),
	(SELECT COUNT(*) FROM entries e WHERE e.campaign_id = c.id AND e.status = 'winner'),
	(SELECT COALESCE(ROUND(AVG(r.rating)::numeric, 1), 0)::float8 FROM reviews r WHERE r.campaign_id = c.id)`

// PostgresCampaignRepo はPostgreSQLを使用したキャンペーンリポジトリ。
type PostgresCampaignRepo struct {
	db *sql.DB
}

// NewPostgresCampaignRepo はPostgresCampaignRepoを生成する。
func NewPostgresCampaignRepo(db *sql.DB) *PostgresCampaignRepo {
	return &PostgresCampaignRepo{db: db}
}

func scanCampaignWithStats(row interface {
	Scan(dest ...any) error
}) (*model.CampaignWithStats, error) {
	cw := &model.CampaignWithStats{}
	var status string
	err := row.Scan(
		&cw.ID, &cw.CompanyID, &cw.Title, &cw.Description, &cw.ImageURL,
		&cw.StartAt, &cw.EndAt, &status, &cw.CreatedAt, &cw.UpdatedAt,
		&cw.CompanyName, &cw.CompanyURL, &cw.CompanyEmail,
		&cw.EntryCount, &cw.WinnerCount, &cw.AverageRating,
	)
	if err != nil {
		return nil, err
	}
	cw.Status = model.CampaignStatus(status)
	return cw, nil
}

// FindByID は指定IDのキャンペーンを集計値付きで取得する。見つからない場合はnilを返す。
func (r *PostgresCampaignRepo) FindByID(ctx context.Context, id string) (*model.CampaignWithStats, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+campaignWithStatsColumns+`
		 FROM campaigns c JOIN companies co ON co.id = c.company_id
		 WHERE c.id = $1`,
		id,
	)
	cw, err := scanCampaignWithStats(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("キャンペーンの取得に失敗しました: %w", err)
	}
	return cw, nil
}

// ListActive は応募期間内のキャンペーン一覧を集計値付きで返す。
func (r *PostgresCampaignRepo) ListActive(ctx context.Context, now time.Time, opts CampaignListOptions) ([]model.CampaignWithStats, int, error) {
	where := `c.status = 'active' AND c.start_at <= $1 AND c.end_at >= $1`

	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM campaigns c WHERE `+where, now,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("キャンペーン件数の取得に失敗しました: %w", err)
	}

	order := `c.id`
	if opts.OrderNew {
		order = `c.created_at DESC`
	}

	query := `SELECT ` + campaignWithStatsColumns + `
		 FROM campaigns c JOIN companies co ON co.id = c.company_id
		 WHERE ` + where + ` ORDER BY ` + order

	var rows *sql.Rows
	if opts.Limit > 0 {
		rows, err = r.db.QueryContext(ctx, query+` LIMIT $2`, now, opts.Limit)
	} else {
		rows, err = r.db.QueryContext(ctx, query+` LIMIT $2 OFFSET $3`,
			now, opts.Pagination.PerPage, opts.Pagination.Offset())
	}
	if err != nil {
		return nil, 0, fmt.Errorf("キャンペーン一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	results, err := collectCampaigns(rows)
	if err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

// ListAll は全キャンペーン一覧を作成日時降順・集計値付きで返す（管理画面用）。
func (r *PostgresCampaignRepo) ListAll(ctx context.Context, p Pagination) ([]model.CampaignWithStats, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM campaigns`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("キャンペーン件数の取得に失敗しました: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+campaignWithStatsColumns+`
		 FROM campaigns c JOIN companies co ON co.id = c.company_id
		 ORDER BY c.created_at DESC LIMIT $1 OFFSET $2`,
		p.PerPage, p.Offset(),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("キャンペーン一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	results, err := collectCampaigns(rows)
	if err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

func collectCampaigns(rows *sql.Rows) ([]model.CampaignWithStats, error) {
	var results []model.CampaignWithStats
	for rows.Next() {
		cw, err := scanCampaignWithStats(rows)
		if err != nil {
			return nil, fmt.Errorf("キャンペーン行の読み取りに失敗しました: %w", err)
		}
		results = append(results, *cw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("キャンペーン一覧の走査に失敗しました: %w", err)
	}
	return results, nil
}

// Create はキャンペーンを作成する。
func (r *PostgresCampaignRepo) Create(ctx context.Context, campaign *model.Campaign) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO campaigns (id, company_id, title, description, image_url, start_at, end_at, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		campaign.ID, campaign.CompanyID, campaign.Title, campaign.Description, campaign.ImageURL,
		campaign.StartAt, campaign.EndAt, string(campaign.Status), campaign.CreatedAt, campaign.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("キャンペーンの作成に失敗しました: %w", err)
	}
	return nil
}

// Update はキャンペーン情報を更新する。
func (r *PostgresCampaignRepo) Update(ctx context.Context, campaign *model.Campaign) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE campaigns
		 SET company_id = $2, title = $3, description = $4, image_url = $5,
		     start_at = $6, end_at = $7, status = $8, updated_at = NOW()
		 WHERE id = $1`,
		campaign.ID, campaign.CompanyID, campaign.Title, campaign.Description, campaign.ImageURL,
		campaign.StartAt, campaign.EndAt, string(campaign.Status),
	)
	if err != nil {
		return fmt.Errorf("キャンペーンの更新に失敗しました: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の取得に失敗しました: %w", err)
	}
	if n == 0 {
		return model.NewCampaignNotFoundError(campaign.ID)
	}
	return nil
}

// Delete はキャンペーンを削除する。応募（とその配送）・レビューはCASCADE削除される。
func (r *PostgresCampaignRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM campaigns WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("キャンペーンの削除に失敗しました: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除結果の取得に失敗しました: %w", err)
	}
	if n == 0 {
		return model.NewCampaignNotFoundError(id)
	}
	return nil
}

// compile-time interface check
var _ CampaignRepository = (*PostgresCampaignRepo)(nil)
