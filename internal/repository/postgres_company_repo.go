package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/htsuda/otameshi/internal/model"
)

const companyColumns = `id, name, email, contact_name, contact_phone, postal_code, prefecture, city, address1, address2, url, created_at, updated_at`

// PostgresCompanyRepo はPostgreSQLを使用した企業リポジトリ。
type PostgresCompanyRepo struct {
	db *sql.DB
}

// NewPostgresCompanyRepo はPostgresCompanyRepoを生成する。
func NewPostgresCompanyRepo(db *sql.DB) *PostgresCompanyRepo {
	return &PostgresCompanyRepo{db: db}
}

func scanCompany(row interface{ Scan(dest ...any) error }) (*model.Company, error) {
	c := &model.Company{}
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.ContactName, &c.ContactPhone,
		&c.PostalCode, &c.Prefecture, &c.City, &c.Address1, &c.Address2, &c.URL,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// FindByID は指定IDの企業を取得する。見つからない場合はnilを返す。
func (r *PostgresCompanyRepo) FindByID(ctx context.Context, id string) (*model.Company, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE id = $1`, id,
	)
	c, err := scanCompany(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("企業の取得に失敗しました: %w", err)
	}
	return c, nil
}

// List は企業一覧を作成日時降順・ページネーション付きで返す。
func (r *PostgresCompanyRepo) List(ctx context.Context, p Pagination) ([]*model.Company, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM companies`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("企業件数の取得に失敗しました: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+companyColumns+` FROM companies ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		p.PerPage, p.Offset(),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("企業一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var results []*model.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("企業行の読み取りに失敗しました: %w", err)
		}
		results = append(results, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("企業一覧の走査に失敗しました: %w", err)
	}
	return results, total, nil
}

// Create は企業を作成する。
// メールアドレス重複はcompanies_email_key制約で検出され、ドメインエラーに変換される。
func (r *PostgresCompanyRepo) Create(ctx context.Context, company *model.Company) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO companies (id, name, email, contact_name, contact_phone, postal_code, prefecture, city, address1, address2, url, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		company.ID, company.Name, company.Email, company.ContactName, company.ContactPhone,
		company.PostalCode, company.Prefecture, company.City, company.Address1, company.Address2,
		company.URL, company.CreatedAt, company.UpdatedAt,
	)
	if err != nil {
		if appErr := translateUniqueViolation(err); appErr != nil {
			return appErr
		}
		return fmt.Errorf("企業の作成に失敗しました: %w", err)
	}
	return nil
}

// Update は企業情報を更新する。
func (r *PostgresCompanyRepo) Update(ctx context.Context, company *model.Company) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE companies
		 SET name = $2, email = $3, contact_name = $4, contact_phone = $5,
		     postal_code = $6, prefecture = $7, city = $8, address1 = $9, address2 = $10,
		     url = $11, updated_at = NOW()
		 WHERE id = $1`,
		company.ID, company.Name, company.Email, company.ContactName, company.ContactPhone,
		company.PostalCode, company.Prefecture, company.City, company.Address1, company.Address2,
		company.URL,
	)
	if err != nil {
		if appErr := translateUniqueViolation(err); appErr != nil {
			return appErr
		}
		return fmt.Errorf("企業の更新に失敗しました: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の取得に失敗しました: %w", err)
	}
	if n == 0 {
		return model.NewCompanyNotFoundError(company.ID)
	}
	return nil
}

// Delete は企業を削除する。キャンペーン以下はCASCADE削除される。
func (r *PostgresCompanyRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM companies WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("企業の削除に失敗しました: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除結果の取得に失敗しました: %w", err)
	}
	if n == 0 {
		return model.NewCompanyNotFoundError(id)
	}
	return nil
}

// ListSns は企業のSNSリンク一覧を返す。
func (r *PostgresCompanyRepo) ListSns(ctx context.Context, companyID string) ([]*model.CompanySns, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, company_id, sns_type, sns_url, created_at, updated_at
		 FROM company_sns WHERE company_id = $1 ORDER BY created_at`,
		companyID,
	)
	if err != nil {
		return nil, fmt.Errorf("SNSリンク一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var results []*model.CompanySns
	for rows.Next() {
		sns := &model.CompanySns{}
		var snsType string
		if err := rows.Scan(&sns.ID, &sns.CompanyID, &snsType, &sns.SnsURL, &sns.CreatedAt, &sns.UpdatedAt); err != nil {
			return nil, fmt.Errorf("SNSリンク行の読み取りに失敗しました: %w", err)
		}
		sns.SnsType = model.SnsType(snsType)
		results = append(results, sns)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("SNSリンク一覧の走査に失敗しました: %w", err)
	}
	return results, nil
}

// CreateSns は企業のSNSリンクを追加する。
func (r *PostgresCompanyRepo) CreateSns(ctx context.Context, sns *model.CompanySns) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO company_sns (id, company_id, sns_type, sns_url, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		sns.ID, sns.CompanyID, string(sns.SnsType), sns.SnsURL, sns.CreatedAt, sns.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("SNSリンクの作成に失敗しました: %w", err)
	}
	return nil
}

// DeleteSns は企業のSNSリンクを削除する。
func (r *PostgresCompanyRepo) DeleteSns(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM company_sns WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("SNSリンクの削除に失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ CompanyRepository = (*PostgresCompanyRepo)(nil)
