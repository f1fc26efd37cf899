package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/htsuda/otameshi/internal/model"
)

// reviewWithRefsColumns は関連情報付きレビュー取得のSELECT句。
const reviewWithRefsColumns = `
	r.id, r.user_id, r.campaign_id, r.rating, r.comment, r.created_at, r.updated_at,
	u.email, u.name, c.title, c.image_url, co.name`

// PostgresReviewRepo はPostgreSQLを使用したレビューリポジトリ。
type PostgresReviewRepo struct {
	db *sql.DB
}

// NewPostgresReviewRepo はPostgresReviewRepoを生成する。
func NewPostgresReviewRepo(db *sql.DB) *PostgresReviewRepo {
	return &PostgresReviewRepo{db: db}
}

func scanReviewWithRefs(row interface{ Scan(dest ...any) error }) (*model.ReviewWithRefs, error) {
	rw := &model.ReviewWithRefs{}
	err := row.Scan(
		&rw.ID, &rw.UserID, &rw.CampaignID, &rw.Rating, &rw.Comment, &rw.CreatedAt, &rw.UpdatedAt,
		&rw.UserEmail, &rw.UserName, &rw.CampaignTitle, &rw.CampaignImageURL, &rw.CompanyName,
	)
	if err != nil {
		return nil, err
	}
	return rw, nil
}

// FindByID は指定IDのレビューを関連情報付きで取得する。見つからない場合はnilを返す。
func (r *PostgresReviewRepo) FindByID(ctx context.Context, id string) (*model.ReviewWithRefs, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+reviewWithRefsColumns+`
		 FROM reviews r
		 JOIN users u ON u.id = r.user_id
		 JOIN campaigns c ON c.id = r.campaign_id
		 JOIN companies co ON co.id = c.company_id
		 WHERE r.id = $1`,
		id,
	)
	rw, err := scanReviewWithRefs(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("レビューの取得に失敗しました: %w", err)
	}
	return rw, nil
}

// FindByUserAndCampaign はユーザーIDとキャンペーンIDでレビューを検索する。見つからない場合はnilを返す。
func (r *PostgresReviewRepo) FindByUserAndCampaign(ctx context.Context, userID, campaignID string) (*model.Review, error) {
	review := &model.Review{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, campaign_id, rating, comment, created_at, updated_at
		 FROM reviews WHERE user_id = $1 AND campaign_id = $2`,
		userID, campaignID,
	).Scan(&review.ID, &review.UserID, &review.CampaignID, &review.Rating,
		&review.Comment, &review.CreatedAt, &review.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ユーザーとキャンペーンによるレビューの検索に失敗しました: %w", err)
	}
	return review, nil
}

// Create はレビューを作成する。
// reviews_user_campaign_key制約の違反はAlreadyReviewedに変換される。
func (r *PostgresReviewRepo) Create(ctx context.Context, review *model.Review) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO reviews (id, user_id, campaign_id, rating, comment, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		review.ID, review.UserID, review.CampaignID, review.Rating, review.Comment,
		review.CreatedAt, review.UpdatedAt,
	)
	if err != nil {
		if appErr := translateUniqueViolation(err); appErr != nil {
			return appErr
		}
		return fmt.Errorf("レビューの作成に失敗しました: %w", err)
	}
	return nil
}

// ListByCampaign はキャンペーンのレビュー一覧を作成日時降順で返す。
func (r *PostgresReviewRepo) ListByCampaign(ctx context.Context, campaignID string, p Pagination) ([]model.ReviewWithRefs, int, error) {
	return r.list(ctx, ` WHERE r.campaign_id = $1`, []any{campaignID}, p)
}

// ListByUser はユーザーのレビュー一覧を作成日時降順で返す。
func (r *PostgresReviewRepo) ListByUser(ctx context.Context, userID string, p Pagination) ([]model.ReviewWithRefs, int, error) {
	return r.list(ctx, ` WHERE r.user_id = $1`, []any{userID}, p)
}

// ListAll は全レビュー一覧を作成日時降順で返す。ratingFilterが正の場合は絞り込む。
func (r *PostgresReviewRepo) ListAll(ctx context.Context, ratingFilter int, p Pagination) ([]model.ReviewWithRefs, int, error) {
	if ratingFilter > 0 {
		return r.list(ctx, ` WHERE r.rating = $1`, []any{ratingFilter}, p)
	}
	return r.list(ctx, ``, nil, p)
}

func (r *PostgresReviewRepo) list(ctx context.Context, where string, args []any, p Pagination) ([]model.ReviewWithRefs, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reviews r`+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("レビュー件数の取得に失敗しました: %w", err)
	}

	limitPos := len(args) + 1
	args = append(args, p.PerPage, p.Offset())

	rows, err := r.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT `+reviewWithRefsColumns+`
		 FROM reviews r
		 JOIN users u ON u.id = r.user_id
		 JOIN campaigns c ON c.id = r.campaign_id
		 JOIN companies co ON co.id = c.company_id
		 %s ORDER BY r.created_at DESC LIMIT $%d OFFSET $%d`, where, limitPos, limitPos+1),
		args...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("レビュー一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	results, err := collectReviews(rows)
	if err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

// ListRecent は直近のレビューをlimit件返す（ダッシュボード用）。
func (r *PostgresReviewRepo) ListRecent(ctx context.Context, limit int) ([]model.ReviewWithRefs, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+reviewWithRefsColumns+`
		 FROM reviews r
		 JOIN users u ON u.id = r.user_id
		 JOIN campaigns c ON c.id = r.campaign_id
		 JOIN companies co ON co.id = c.company_id
		 ORDER BY r.created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("直近のレビューの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return collectReviews(rows)
}

func collectReviews(rows *sql.Rows) ([]model.ReviewWithRefs, error) {
	var results []model.ReviewWithRefs
	for rows.Next() {
		rw, err := scanReviewWithRefs(rows)
		if err != nil {
			return nil, fmt.Errorf("レビュー行の読み取りに失敗しました: %w", err)
		}
		results = append(results, *rw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("レビュー一覧の走査に失敗しました: %w", err)
	}
	return results, nil
}

// AverageRating はキャンペーンの平均評価を小数第1位で返す。レビューが無い場合は0。
func (r *PostgresReviewRepo) AverageRating(ctx context.Context, campaignID string) (float64, error) {
	var avg float64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(ROUND(AVG(rating)::numeric, 1), 0)::float8 FROM reviews WHERE campaign_id = $1`,
		campaignID,
	).Scan(&avg)
	if err != nil {
		return 0, fmt.Errorf("平均評価の取得に失敗しました: %w", err)
	}
	return avg, nil
}

// Delete はレビューを削除する（管理者用）。
func (r *PostgresReviewRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("レビューの削除に失敗しました: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除結果の取得に失敗しました: %w", err)
	}
	if n == 0 {
		return model.NewReviewNotFoundError(id)
	}
	return nil
}

// compile-time interface check
var _ ReviewRepository = (*PostgresReviewRepo)(nil)
