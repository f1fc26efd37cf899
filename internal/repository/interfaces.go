// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/htsuda/otameshi/internal/model"
)

// Pagination はページベースのページネーション指定を表す。
// Pageは1始まり。正規化（デフォルト値・上限）はハンドラー層で行う。
type Pagination struct {
	Page    int
	PerPage int
}

// Offset はSQLのOFFSET値を返す。
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。
	// メールアドレス重複はユニーク制約で検出され、ドメインエラーに変換して返す。
	Create(ctx context.Context, user *model.User) error
}

// AdminRepository は管理者データの永続化インターフェース。
// ユーザーとは独立した認証ドメインのため別テーブル・別リポジトリとする。
type AdminRepository interface {
	// FindByID は指定IDの管理者を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Admin, error)

	// FindByEmail はメールアドレスで管理者を検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.Admin, error)

	// Create は管理者を作成する。
	Create(ctx context.Context, admin *model.Admin) error
}

// SessionRepository はセッションデータの永続化インターフェース。
// ユーザーセッションと管理者セッションを principal_kind で区別して保持する。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteExpired は期限切れセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// CompanyRepository は企業データの永続化インターフェース。
type CompanyRepository interface {
	// FindByID は指定IDの企業を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Company, error)

	// List は企業一覧を作成日時降順・ページネーション付きで返す。
	List(ctx context.Context, p Pagination) ([]*model.Company, int, error)

	// Create は企業を作成する。メールアドレス重複はドメインエラーに変換する。
	Create(ctx context.Context, company *model.Company) error

	// Update は企業情報を更新する。
	Update(ctx context.Context, company *model.Company) error

	// Delete は企業を削除する。キャンペーン以下はCASCADE削除される。
	Delete(ctx context.Context, id string) error

	// ListSns は企業のSNSリンク一覧を返す。
	ListSns(ctx context.Context, companyID string) ([]*model.CompanySns, error)

	// CreateSns は企業のSNSリンクを追加する。
	CreateSns(ctx context.Context, sns *model.CompanySns) error

	// DeleteSns は企業のSNSリンクを削除する。
	DeleteSns(ctx context.Context, id string) error
}

// CampaignListOptions はキャンペーン一覧取得のオプション。
type CampaignListOptions struct {
	// OrderNew がtrueの場合はcreated_at降順で並べる。
	OrderNew bool
	// Limit が正の場合はページネーションの代わりに先頭N件のみ返す（おすすめ枠）。
	Limit int
	// Pagination はLimit未指定時に適用される。
	Pagination Pagination
}

// CampaignRepository はキャンペーンデータの永続化インターフェース。
// 集計値（応募数・当選数・平均評価）は保存せず取得のたびに計算する。
type CampaignRepository interface {
	// FindByID は指定IDのキャンペーンを集計値付きで取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.CampaignWithStats, error)

	// ListActive は応募期間内（status=active かつ start_at<=now<=end_at）の
	// キャンペーン一覧を集計値付きで返す。2番目の戻り値は総件数。
	ListActive(ctx context.Context, now time.Time, opts CampaignListOptions) ([]model.CampaignWithStats, int, error)

	// ListAll は全キャンペーン一覧を作成日時降順・集計値付きで返す（管理画面用）。
	ListAll(ctx context.Context, p Pagination) ([]model.CampaignWithStats, int, error)

	// Create はキャンペーンを作成する。
	Create(ctx context.Context, campaign *model.Campaign) error

	// Update はキャンペーン情報を更新する。
	Update(ctx context.Context, campaign *model.Campaign) error

	// Delete はキャンペーンを削除する。応募（とその配送）・レビューはCASCADE削除される。
	Delete(ctx context.Context, id string) error
}

// EntryRepository は応募データの永続化インターフェース。
type EntryRepository interface {
	// FindByID は指定IDの応募を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Entry, error)

	// FindByIDWithRefs は指定IDの応募を関連情報付きで取得する。見つからない場合はnilを返す。
	FindByIDWithRefs(ctx context.Context, id string) (*model.EntryWithRefs, error)

	// FindByUserAndCampaign はユーザーIDとキャンペーンIDで応募を検索する。見つからない場合はnilを返す。
	FindByUserAndCampaign(ctx context.Context, userID, campaignID string) (*model.Entry, error)

	// Create は応募を作成する。
	// (user_id, campaign_id) の重複はユニーク制約で検出され、
	// AlreadyAppliedのドメインエラーに変換して返す。同時実行の二重応募も
	// この制約が最終的な安全網となる。
	Create(ctx context.Context, entry *model.Entry) error

	// UpdateStatus は応募ステータスを無条件に上書きする（管理者用）。
	UpdateStatus(ctx context.Context, id string, status model.EntryStatus) error

	// ListByUser はユーザーの応募一覧を作成日時降順で返す。
	ListByUser(ctx context.Context, userID string, p Pagination) ([]model.EntryWithRefs, int, error)

	// ListByCampaign はキャンペーンの応募一覧を作成日時降順で返す。
	ListByCampaign(ctx context.Context, campaignID string, p Pagination) ([]model.EntryWithRefs, int, error)

	// ListAll は全応募一覧を作成日時降順で返す。statusFilterが空でない場合は絞り込む。
	ListAll(ctx context.Context, statusFilter model.EntryStatus, p Pagination) ([]model.EntryWithRefs, int, error)

	// ListRecent は直近の応募をlimit件返す（ダッシュボード用）。
	ListRecent(ctx context.Context, limit int) ([]model.EntryWithRefs, error)
}

// ShipmentRepository は配送データの永続化インターフェース。
type ShipmentRepository interface {
	// FindByID は指定IDの配送を関連情報付きで取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.ShipmentWithRefs, error)

	// FindByEntryID は応募IDで配送を検索する。見つからない場合はnilを返す。
	FindByEntryID(ctx context.Context, entryID string) (*model.Shipment, error)

	// Create は配送を作成する。
	// entry_idの重複はユニーク制約で検出され、DuplicateShipmentの
	// ドメインエラーに変換して返す。
	Create(ctx context.Context, shipment *model.Shipment) error

	// UpdateStatus は配送ステータスとshipped_atを上書きする（管理者用）。
	UpdateStatus(ctx context.Context, id string, status model.ShipmentStatus, shippedAt *time.Time) error

	// ListAll は全配送一覧を作成日時降順で返す。statusFilterが空でない場合は絞り込む。
	ListAll(ctx context.Context, statusFilter model.ShipmentStatus, p Pagination) ([]model.ShipmentWithRefs, int, error)
}

// ReviewRepository はレビューデータの永続化インターフェース。
type ReviewRepository interface {
	// FindByID は指定IDのレビューを関連情報付きで取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.ReviewWithRefs, error)

	// FindByUserAndCampaign はユーザーIDとキャンペーンIDでレビューを検索する。見つからない場合はnilを返す。
	FindByUserAndCampaign(ctx context.Context, userID, campaignID string) (*model.Review, error)

	// Create はレビューを作成する。
	// (user_id, campaign_id) の重複はユニーク制約で検出され、
	// AlreadyReviewedのドメインエラーに変換して返す。
	Create(ctx context.Context, review *model.Review) error

	// ListByCampaign はキャンペーンのレビュー一覧を作成日時降順で返す。
	ListByCampaign(ctx context.Context, campaignID string, p Pagination) ([]model.ReviewWithRefs, int, error)

	// ListByUser はユーザーのレビュー一覧を作成日時降順で返す。
	ListByUser(ctx context.Context, userID string, p Pagination) ([]model.ReviewWithRefs, int, error)

	// ListAll は全レビュー一覧を作成日時降順で返す。ratingFilterが正の場合は絞り込む。
	ListAll(ctx context.Context, ratingFilter int, p Pagination) ([]model.ReviewWithRefs, int, error)

	// ListRecent は直近のレビューをlimit件返す（ダッシュボード用）。
	ListRecent(ctx context.Context, limit int) ([]model.ReviewWithRefs, error)

	// AverageRating はキャンペーンの平均評価を小数第1位で返す。レビューが無い場合は0。
	AverageRating(ctx context.Context, campaignID string) (float64, error)

	// Delete はレビューを削除する（管理者用）。
	Delete(ctx context.Context, id string) error
}

// AddressRepository は住所データの永続化インターフェース。
type AddressRepository interface {
	// FindByID は指定IDの住所を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Address, error)

	// ListByUser はユーザーの住所一覧を作成日時昇順で返す。
	ListByUser(ctx context.Context, userID string) ([]*model.Address, error)

	// DefaultForUser はユーザーのデフォルト住所を返す。
	// is_default=trueの住所が無い場合は最初の住所、それも無い場合はnilを返す。
	DefaultForUser(ctx context.Context, userID string) (*model.Address, error)

	// Create は住所を作成する。is_default=trueの場合、同一ユーザーの他の住所の
	// デフォルトフラグ解除と挿入を1トランザクションで行う。
	Create(ctx context.Context, address *model.Address) error

	// Update は住所を更新する。is_default=trueの場合はCreateと同様の掛け替えを行う。
	Update(ctx context.Context, address *model.Address) error

	// Delete は住所を削除する。
	Delete(ctx context.Context, id string) error
}

// DashboardCounts は管理ダッシュボードの集計値。
type DashboardCounts struct {
	CampaignCount       int
	ActiveCampaignCount int
	EntryCount          int
	ReviewCount         int
}

// StatsRepository は管理ダッシュボード向け集計のインターフェース。
// 集計はキャッシュせず呼び出しのたびに計算する。
type StatsRepository interface {
	// Counts は各エンティティの件数を返す。activeはstatus=activeの件数。
	Counts(ctx context.Context) (*DashboardCounts, error)
}

// TxBeginner はトランザクション開始用のインターフェース。
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}
