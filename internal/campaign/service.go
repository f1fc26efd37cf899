// Package campaign はキャンペーン管理のドメインロジックを提供する。
package campaign

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/htsuda/otameshi/internal/model"
	"github.com/htsuda/otameshi/internal/repository"
)

// RecommendLimit はおすすめ枠で返すキャンペーンの件数。
const RecommendLimit = 3

// Service はキャンペーン管理のサービス層。
// 公開中キャンペーンの一覧・詳細取得と、管理者によるCRUDを提供する。
type Service struct {
	campaignRepo repository.CampaignRepository
	companyRepo  repository.CompanyRepository
	entryRepo    repository.EntryRepository
	now          func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	campaignRepo repository.CampaignRepository,
	companyRepo repository.CompanyRepository,
	entryRepo repository.EntryRepository,
) *Service {
	return &Service{
		campaignRepo: campaignRepo,
		companyRepo:  companyRepo,
		entryRepo:    entryRepo,
		now:          time.Now,
	}
}

// ListActive は応募期間内のキャンペーン一覧を集計値付きで返す。
// sortNew=trueで作成日時降順、recommend=trueでページネーションの代わりに先頭3件を返す。
func (s *Service) ListActive(ctx context.Context, sortNew, recommend bool, p repository.Pagination) ([]model.CampaignWithStats, int, error) {
	opts := repository.CampaignListOptions{
		OrderNew:   sortNew,
		Pagination: p,
	}
	if recommend {
		opts.Limit = RecommendLimit
	}
	return s.campaignRepo.ListActive(ctx, s.now(), opts)
}

// Get は指定IDのキャンペーンを集計値付きで返す。
func (s *Service) Get(ctx context.Context, id string) (*model.CampaignWithStats, error) {
	cw, err := s.campaignRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("キャンペーンの取得に失敗しました: %w", err)
	}
	if cw == nil {
		return nil, model.NewCampaignNotFoundError(id)
	}
	return cw, nil
}

// CanApply はユーザーがキャンペーンに応募可能かどうかを返す（画面表示用）。
// 応募期間内かつ未応募のときのみtrue。匿名ユーザーにはuserIDに空文字を渡す。
func (s *Service) CanApply(ctx context.Context, userID string, campaign *model.Campaign) (bool, error) {
	if !campaign.InWindow(s.now()) {
		return false, nil
	}
	if userID == "" {
		return true, nil
	}
	entry, err := s.entryRepo.FindByUserAndCampaign(ctx, userID, campaign.ID)
	if err != nil {
		return false, fmt.Errorf("応募の検索に失敗しました: %w", err)
	}
	return entry == nil, nil
}

// ListAll は全キャンペーン一覧を集計値付きで返す（管理画面用）。
func (s *Service) ListAll(ctx context.Context, p repository.Pagination) ([]model.CampaignWithStats, int, error) {
	return s.campaignRepo.ListAll(ctx, p)
}

// Input はキャンペーン作成・更新の入力値。
type Input struct {
	CompanyID   string
	Title       string
	Description string
	ImageURL    string
	StartAt     time.Time
	EndAt       time.Time
	Status      string
}

// validate は必須項目とステータス値を検証する。
// 期間の逆転（end_at < start_at）は元仕様どおり拒否しない。
func (in Input) validate() (model.CampaignStatus, error) {
	var msgs []string
	if strings.TrimSpace(in.Title) == "" {
		msgs = append(msgs, "タイトルを入力してください")
	}
	if strings.TrimSpace(in.Description) == "" {
		msgs = append(msgs, "説明を入力してください")
	}
	if in.StartAt.IsZero() {
		msgs = append(msgs, "開始日時を入力してください")
	}
	if in.EndAt.IsZero() {
		msgs = append(msgs, "終了日時を入力してください")
	}
	status, err := model.ParseCampaignStatus(in.Status)
	if err != nil {
		msgs = append(msgs, fmt.Sprintf("無効なキャンペーンステータスです: %s", in.Status))
	}
	if len(msgs) > 0 {
		return "", model.NewValidationError(strings.Join(msgs, "、"))
	}
	return status, nil
}

// Create はキャンペーンを作成する（管理者用）。
func (s *Service) Create(ctx context.Context, in Input) (*model.CampaignWithStats, error) {
	status, err := in.validate()
	if err != nil {
		return nil, err
	}

	company, err := s.companyRepo.FindByID(ctx, in.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("企業の取得に失敗しました: %w", err)
	}
	if company == nil {
		return nil, model.NewCompanyNotFoundError(in.CompanyID)
	}

	now := s.now()
	campaign := &model.Campaign{
		ID:          uuid.NewString(),
		CompanyID:   in.CompanyID,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		ImageURL:    strings.TrimSpace(in.ImageURL),
		StartAt:     in.StartAt,
		EndAt:       in.EndAt,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.campaignRepo.Create(ctx, campaign); err != nil {
		return nil, err
	}
	return s.Get(ctx, campaign.ID)
}

// Update はキャンペーンを更新する（管理者用）。
func (s *Service) Update(ctx context.Context, id string, in Input) (*model.CampaignWithStats, error) {
	status, err := in.validate()
	if err != nil {
		return nil, err
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	company, err := s.companyRepo.FindByID(ctx, in.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("企業の取得に失敗しました: %w", err)
	}
	if company == nil {
		return nil, model.NewCompanyNotFoundError(in.CompanyID)
	}

	campaign := &model.Campaign{
		ID:          id,
		CompanyID:   in.CompanyID,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		ImageURL:    strings.TrimSpace(in.ImageURL),
		StartAt:     in.StartAt,
		EndAt:       in.EndAt,
		Status:      status,
		CreatedAt:   current.CreatedAt,
	}
	if err := s.campaignRepo.Update(ctx, campaign); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete はキャンペーンを削除する（管理者用）。
// 応募（とその配送）・レビューはストレージ層のCASCADEで一括削除される。
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.campaignRepo.Delete(ctx, id)
}
