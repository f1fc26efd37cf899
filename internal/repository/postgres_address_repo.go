package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/htsuda/otameshi/internal/model"
)

const addressColumns = `id, user_id, postal_code, prefecture, city, address1, address2, phone, is_default, created_at, updated_at`

// PostgresAddressRepo はPostgreSQLを使用した住所リポジトリ。
type PostgresAddressRepo struct {
	db *sql.DB
}

// NewPostgresAddressRepo はPostgresAddressRepoを生成する。
func NewPostgresAddressRepo(db *sql.DB) *PostgresAddressRepo {
	return &PostgresAddressRepo{db: db}
}

func scanAddress(row interface{ Scan(dest ...any) error }) (*model.Address, error) {
	a := &model.Address{}
	err := row.Scan(&a.ID, &a.UserID, &a.PostalCode, &a.Prefecture, &a.City,
		&a.Address1, &a.Address2, &a.Phone, &a.IsDefault, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// FindByID は指定IDの住所を取得する。見つからない場合はnilを返す。
func (r *PostgresAddressRepo) FindByID(ctx context.Context, id string) (*model.Address, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE id = $1`, id,
	)
	a, err := scanAddress(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("住所の取得に失敗しました: %w", err)
	}
	return a, nil
}

// ListByUser はユーザーの住所一覧を作成日時昇順で返す。
func (r *PostgresAddressRepo) ListByUser(ctx context.Context, userID string) ([]*model.Address, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE user_id = $1 ORDER BY created_at`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("住所一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var results []*model.Address
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, fmt.Errorf("住所行の読み取りに失敗しました: %w", err)
		}
		results = append(results, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("住所一覧の走査に失敗しました: %w", err)
	}
	return results, nil
}

// DefaultForUser はユーザーのデフォルト住所を返す。
// is_default=trueの住所が無い場合は最初の住所、それも無い場合はnilを返す。
func (r *PostgresAddressRepo) DefaultForUser(ctx context.Context, userID string) (*model.Address, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+addressColumns+` FROM addresses
		 WHERE user_id = $1 ORDER BY is_default DESC, created_at LIMIT 1`,
		userID,
	)
	a, err := scanAddress(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("デフォルト住所の取得に失敗しました: %w", err)
	}
	return a, nil
}

// Create は住所を作成する。
// is_default=trueの場合、同一ユーザーの他の住所のフラグ解除と挿入を
// 1トランザクションで行い、デフォルト住所が高々1件であることを保つ。
func (r *PostgresAddressRepo) Create(ctx context.Context, address *model.Address) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	if address.IsDefault {
		if err := clearDefaultFlag(ctx, tx, address.UserID, address.ID); err != nil {
			return err
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO addresses (id, user_id, postal_code, prefecture, city, address1, address2, phone, is_default, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		address.ID, address.UserID, address.PostalCode, address.Prefecture, address.City,
		address.Address1, address.Address2, address.Phone, address.IsDefault,
		address.CreatedAt, address.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("住所の作成に失敗しました: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}
	return nil
}

// Update は住所を更新する。is_default=trueの場合はCreateと同様の掛け替えを行う。
func (r *PostgresAddressRepo) Update(ctx context.Context, address *model.Address) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	if address.IsDefault {
		if err := clearDefaultFlag(ctx, tx, address.UserID, address.ID); err != nil {
			return err
		}
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE addresses
		 SET postal_code = $2, prefecture = $3, city = $4, address1 = $5, address2 = $6,
		     phone = $7, is_default = $8, updated_at = NOW()
		 WHERE id = $1`,
		address.ID, address.PostalCode, address.Prefecture, address.City,
		address.Address1, address.Address2, address.Phone, address.IsDefault,
	)
	if err != nil {
		return fmt.Errorf("住所の更新に失敗しました: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の取得に失敗しました: %w", err)
	}
	if n == 0 {
		return model.NewAddressNotFoundError(address.ID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}
	return nil
}

// clearDefaultFlag は同一ユーザーの対象以外の住所からデフォルトフラグを外す。
func clearDefaultFlag(ctx context.Context, tx *sql.Tx, userID, exceptID string) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE addresses SET is_default = FALSE, updated_at = NOW()
		 WHERE user_id = $1 AND id <> $2 AND is_default`,
		userID, exceptID,
	)
	if err != nil {
		return fmt.Errorf("デフォルトフラグの解除に失敗しました: %w", err)
	}
	return nil
}

// Delete は住所を削除する。
func (r *PostgresAddressRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM addresses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("住所の削除に失敗しました: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除結果の取得に失敗しました: %w", err)
	}
	if n == 0 {
		return model.NewAddressNotFoundError(id)
	}
	return nil
}

// compile-time interface check
var _ AddressRepository = (*PostgresAddressRepo)(nil)
