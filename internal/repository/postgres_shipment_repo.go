package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/htsuda/otameshi/internal/model"
)

// shipmentWithRefsColumns は関連情報付き配送取得のSELECT句。
const shipmentWithRefsColumns = `
	s.id, s.entry_id, s.address_id, s.status, s.shipped_at, s.created_at, s.updated_at,
	e.status, e.created_at,
	u.email, c.title,
	a.id, a.user_id, a.postal_code, a.prefecture, a.city, a.address1, a.address2,
	a.phone, a.is_default, a.created_at, a.updated_at`

// PostgresShipmentRepo はPostgreSQLを使用した配送リポジトリ。
type PostgresShipmentRepo struct {
	db *sql.DB
}

// NewPostgresShipmentRepo はPostgresShipmentRepoを生成する。
func NewPostgresShipmentRepo(db *sql.DB) *PostgresShipmentRepo {
	return &PostgresShipmentRepo{db: db}
}

func scanShipmentWithRefs(row interface{ Scan(dest ...any) error }) (*model.ShipmentWithRefs, error) {
	sw := &model.ShipmentWithRefs{}
	var status, entryStatus string
	err := row.Scan(
		&sw.ID, &sw.EntryID, &sw.AddressID, &status, &sw.ShippedAt, &sw.CreatedAt, &sw.UpdatedAt,
		&entryStatus, &sw.EntryCreatedAt,
		&sw.UserEmail, &sw.CampaignTitle,
		&sw.Address.ID, &sw.Address.UserID, &sw.Address.PostalCode, &sw.Address.Prefecture,
		&sw.Address.City, &sw.Address.Address1, &sw.Address.Address2,
		&sw.Address.Phone, &sw.Address.IsDefault, &sw.Address.CreatedAt, &sw.Address.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	sw.Status = model.ShipmentStatus(status)
	sw.EntryStatus = model.EntryStatus(entryStatus)
	return sw, nil
}

// FindByID は指定IDの配送を関連情報付きで取得する。見つからない場合はnilを返す。
func (r *PostgresShipmentRepo) FindByID(ctx context.Context, id string) (*model.ShipmentWithRefs, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+shipmentWithRefsColumns+`
		 FROM shipments s
		 JOIN entries e ON e.id = s.entry_id
		 JOIN users u ON u.id = e.user_id
		 JOIN campaigns c ON c.id = e.campaign_id
		 JOIN addresses a ON a.id = s.address_id
		 WHERE s.id = $1`,
		id,
	)
	sw, err := scanShipmentWithRefs(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("配送の取得に失敗しました: %w", err)
	}
	return sw, nil
}

// FindByEntryID は応募IDで配送を検索する。見つからない場合はnilを返す。
func (r *PostgresShipmentRepo) FindByEntryID(ctx context.Context, entryID string) (*model.Shipment, error) {
	shipment := &model.Shipment{}
	var status string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, entry_id, address_id, status, shipped_at, created_at, updated_at
		 FROM shipments WHERE entry_id = $1`,
		entryID,
	).Scan(&shipment.ID, &shipment.EntryID, &shipment.AddressID, &status,
		&shipment.ShippedAt, &shipment.CreatedAt, &shipment.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("応募IDによる配送の検索に失敗しました: %w", err)
	}
	shipment.Status = model.ShipmentStatus(status)
	return shipment, nil
}

// Create は配送を作成する。
// shipments_entry_key制約の違反はDuplicateShipmentに変換される。
func (r *PostgresShipmentRepo) Create(ctx context.Context, shipment *model.Shipment) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO shipments (id, entry_id, address_id, status, shipped_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		shipment.ID, shipment.EntryID, shipment.AddressID, string(shipment.Status),
		shipment.ShippedAt, shipment.CreatedAt, shipment.UpdatedAt,
	)
	if err != nil {
		if appErr := translateUniqueViolation(err); appErr != nil {
			return appErr
		}
		return fmt.Errorf("配送の作成に失敗しました: %w", err)
	}
	return nil
}

// UpdateStatus は配送ステータスとshipped_atを上書きする（管理者用）。
func (r *PostgresShipmentRepo) UpdateStatus(ctx context.Context, id string, status model.ShipmentStatus, shippedAt *time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE shipments SET status = $2, shipped_at = $3, updated_at = NOW() WHERE id = $1`,
		id, string(status), shippedAt,
	)
	if err != nil {
		return fmt.Errorf("配送ステータスの更新に失敗しました: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の取得に失敗しました: %w", err)
	}
	if n == 0 {
		return model.NewShipmentNotFoundError(id)
	}
	return nil
}

// ListAll は全配送一覧を作成日時降順で返す。statusFilterが空でない場合は絞り込む。
func (r *PostgresShipmentRepo) ListAll(ctx context.Context, statusFilter model.ShipmentStatus, p Pagination) ([]model.ShipmentWithRefs, int, error) {
	where := ``
	args := []any{}
	if statusFilter != "" {
		where = ` WHERE s.status = $1`
		args = append(args, string(statusFilter))
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM shipments s`+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("配送件数の取得に失敗しました: %w", err)
	}

	limitPos := len(args) + 1
	args = append(args, p.PerPage, p.Offset())

	rows, err := r.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT `+shipmentWithRefsColumns+`
		 FROM shipments s
		 JOIN entries e ON e.id = s.entry_id
		 JOIN users u ON u.id = e.user_id
		 JOIN campaigns c ON c.id = e.campaign_id
		 JOIN addresses a ON a.id = s.address_id
		 %s ORDER BY s.created_at DESC LIMIT $%d OFFSET $%d`, where, limitPos, limitPos+1),
		args...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("配送一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var results []model.ShipmentWithRefs
	for rows.Next() {
		sw, err := scanShipmentWithRefs(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("配送行の読み取りに失敗しました: %w", err)
		}
		results = append(results, *sw)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("配送一覧の走査に失敗しました: %w", err)
	}
	return results, total, nil
}

// compile-time interface check
var _ ShipmentRepository = (*PostgresShipmentRepo)(nil)
