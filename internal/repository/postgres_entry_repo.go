package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/htsuda/otameshi/internal/model"
)

// entryWithRefsColumns は関連情報付き応募取得のSELECT句。
const entryWithRefsColumns = `
	e.id, e.user_id, e.campaign_id, e.status, e.created_at, e.updated_at,
	u.email, u.name, c.title, c.image_url`

// PostgresEntryRepo はPostgreSQLを使用した応募リポジトリ。
type PostgresEntryRepo struct {
	db *sql.DB
}

// NewPostgresEntryRepo はPostgresEntryRepoを生成する。
func NewPostgresEntryRepo(db *sql.DB) *PostgresEntryRepo {
	return &PostgresEntryRepo{db: db}
}

func scanEntry(row interface{ Scan(dest ...any) error }) (*model.Entry, error) {
	entry := &model.Entry{}
	var status string
	err := row.Scan(&entry.ID, &entry.UserID, &entry.CampaignID, &status, &entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		return nil, err
	}
	entry.Status = model.EntryStatus(status)
	return entry, nil
}

// FindByID は指定IDの応募を取得する。見つからない場合はnilを返す。
func (r *PostgresEntryRepo) FindByID(ctx context.Context, id string) (*model.Entry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, campaign_id, status, created_at, updated_at FROM entries WHERE id = $1`,
		id,
	)
	entry, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("応募の取得に失敗しました: %w", err)
	}
	return entry, nil
}

// FindByIDWithRefs は指定IDの応募を関連情報付きで取得する。見つからない場合はnilを返す。
func (r *PostgresEntryRepo) FindByIDWithRefs(ctx context.Context, id string) (*model.EntryWithRefs, error) {
	ew := &model.EntryWithRefs{}
	var status string
	err := r.db.QueryRowContext(ctx,
		`SELECT `+entryWithRefsColumns+`
		 FROM entries e
		 JOIN users u ON u.id = e.user_id
		 JOIN campaigns c ON c.id = e.campaign_id
		 WHERE e.id = $1`,
		id,
	).Scan(&ew.ID, &ew.UserID, &ew.CampaignID, &status, &ew.CreatedAt, &ew.UpdatedAt,
		&ew.UserEmail, &ew.UserName, &ew.CampaignTitle, &ew.CampaignImageURL)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("応募の取得に失敗しました: %w", err)
	}
	ew.Status = model.EntryStatus(status)
	return ew, nil
}

// FindByUserAndCampaign はユーザーIDとキャンペーンIDで応募を検索する。見つからない場合はnilを返す。
func (r *PostgresEntryRepo) FindByUserAndCampaign(ctx context.Context, userID, campaignID string) (*model.Entry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, campaign_id, status, created_at, updated_at
		 FROM entries WHERE user_id = $1 AND campaign_id = $2`,
		userID, campaignID,
	)
	entry, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ユーザーとキャンペーンによる応募の検索に失敗しました: %w", err)
	}
	return entry, nil
}

// Create は応募を作成する。
// entries_user_campaign_key制約の違反はAlreadyAppliedに変換される。
func (r *PostgresEntryRepo) Create(ctx context.Context, entry *model.Entry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO entries (id, user_id, campaign_id, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID, entry.UserID, entry.CampaignID, string(entry.Status), entry.CreatedAt, entry.UpdatedAt,
	)
	if err != nil {
		if appErr := translateUniqueViolation(err); appErr != nil {
			return appErr
		}
		return fmt.Errorf("応募の作成に失敗しました: %w", err)
	}
	return nil
}

// UpdateStatus は応募ステータスを無条件に上書きする（管理者用）。
// 遷移グラフの検証は行わない。値の妥当性は呼び出し側の境界で検証済みであること。
func (r *PostgresEntryRepo) UpdateStatus(ctx context.Context, id string, status model.EntryStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE entries SET status = $2, updated_at = NOW() WHERE id = $1`,
		id, string(status),
	)
	if err != nil {
		return fmt.Errorf("応募ステータスの更新に失敗しました: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の取得に失敗しました: %w", err)
	}
	if n == 0 {
		return model.NewEntryNotFoundError(id)
	}
	return nil
}

// ListByUser はユーザーの応募一覧を作成日時降順で返す。
func (r *PostgresEntryRepo) ListByUser(ctx context.Context, userID string, p Pagination) ([]model.EntryWithRefs, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM entries WHERE user_id = $1`, userID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("応募件数の取得に失敗しました: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+entryWithRefsColumns+`
		 FROM entries e
		 JOIN users u ON u.id = e.user_id
		 JOIN campaigns c ON c.id = e.campaign_id
		 WHERE e.user_id = $1
		 ORDER BY e.created_at DESC LIMIT $2 OFFSET $3`,
		userID, p.PerPage, p.Offset(),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("応募一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	results, err := collectEntries(rows)
	if err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

// ListByCampaign はキャンペーンの応募一覧を作成日時降順で返す。
func (r *PostgresEntryRepo) ListByCampaign(ctx context.Context, campaignID string, p Pagination) ([]model.EntryWithRefs, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM entries WHERE campaign_id = $1`, campaignID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("応募件数の取得に失敗しました: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+entryWithRefsColumns+`
		 FROM entries e
		 JOIN users u ON u.id = e.user_id
		 JOIN campaigns c ON c.id = e.campaign_id
		 WHERE e.campaign_id = $1
		 ORDER BY e.created_at DESC LIMIT $2 OFFSET $3`,
		campaignID, p.PerPage, p.Offset(),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("応募一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	results, err := collectEntries(rows)
	if err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

// ListAll は全応募一覧を作成日時降順で返す。statusFilterが空でない場合は絞り込む。
func (r *PostgresEntryRepo) ListAll(ctx context.Context, statusFilter model.EntryStatus, p Pagination) ([]model.EntryWithRefs, int, error) {
	where := ``
	args := []any{}
	if statusFilter != "" {
		where = ` WHERE e.status = $1`
		args = append(args, string(statusFilter))
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM entries e`+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("応募件数の取得に失敗しました: %w", err)
	}

	limitPos := len(args) + 1
	args = append(args, p.PerPage, p.Offset())

	rows, err := r.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT `+entryWithRefsColumns+`
		 FROM entries e
		 JOIN users u ON u.id = e.user_id
		 JOIN campaigns c ON c.id = e.campaign_id
		 %s ORDER BY e.created_at DESC LIMIT $%d OFFSET $%d`, where, limitPos, limitPos+1),
		args...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("応募一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	results, err := collectEntries(rows)
	if err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

// ListRecent は直近の応募をlimit件返す（ダッシュボード用）。
func (r *PostgresEntryRepo) ListRecent(ctx context.Context, limit int) ([]model.EntryWithRefs, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+entryWithRefsColumns+`
		 FROM entries e
		 JOIN users u ON u.id = e.user_id
		 JOIN campaigns c ON c.id = e.campaign_id
		 ORDER BY e.created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("直近の応募の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return collectEntries(rows)
}

func collectEntries(rows *sql.Rows) ([]model.EntryWithRefs, error) {
	var results []model.EntryWithRefs
	for rows.Next() {
		var ew model.EntryWithRefs
		var status string
		if err := rows.Scan(&ew.ID, &ew.UserID, &ew.CampaignID, &status, &ew.CreatedAt, &ew.UpdatedAt,
			&ew.UserEmail, &ew.UserName, &ew.CampaignTitle, &ew.CampaignImageURL); err != nil {
			return nil, fmt.Errorf("応募行の読み取りに失敗しました: %w", err)
		}
		ew.Status = model.EntryStatus(status)
		results = append(results, ew)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("応募一覧の走査に失敗しました: %w", err)
	}
	return results, nil
}

// compile-time interface check
var _ EntryRepository = (*PostgresEntryRepo)(nil)
