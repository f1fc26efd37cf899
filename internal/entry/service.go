// Package entry はキャンペーン応募のドメインロジックを提供する。
package entry

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/htsuda/otameshi/internal/model"
	"github.com/htsuda/otameshi/internal/repository"
)

// Service は応募のサービス層。
// 応募受付（期間・重複チェック）と管理者によるステータス更新を提供する。
type Service struct {
	entryRepo    repository.EntryRepository
	campaignRepo repository.CampaignRepository
	now          func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	entryRepo repository.EntryRepository,
	campaignRepo repository.CampaignRepository,
) *Service {
	return &Service{
		entryRepo:    entryRepo,
		campaignRepo: campaignRepo,
		now:          time.Now,
	}
}

// Apply はユーザーのキャンペーン応募を受け付ける。
// 応募期間外はOutOfWindow、応募済みはAlreadyAppliedを返す。
// 事前チェックをすり抜けた同時実行の二重応募は、ストレージ層の
// ユニーク制約違反がAlreadyAppliedに変換されて返る。
func (s *Service) Apply(ctx context.Context, userID, campaignID string) (*model.Entry, error) {
	campaign, err := s.campaignRepo.FindByID(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("キャンペーンの取得に失敗しました: %w", err)
	}
	if campaign == nil {
		return nil, model.NewCampaignNotFoundError(campaignID)
	}

	if !campaign.InWindow(s.now()) {
		return nil, model.NewOutOfWindowError()
	}

	existing, err := s.entryRepo.FindByUserAndCampaign(ctx, userID, campaignID)
	if err != nil {
		return nil, fmt.Errorf("応募の検索に失敗しました: %w", err)
	}
	if existing != nil {
		return nil, model.NewAlreadyAppliedError()
	}

	now := s.now()
	entry := &model.Entry{
		ID:         uuid.NewString(),
		UserID:     userID,
		CampaignID: campaignID,
		Status:     model.EntryStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.entryRepo.Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Get は指定IDの応募を関連情報付きで返す。
func (s *Service) Get(ctx context.Context, id string) (*model.EntryWithRefs, error) {
	ew, err := s.entryRepo.FindByIDWithRefs(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("応募の取得に失敗しました: %w", err)
	}
	if ew == nil {
		return nil, model.NewEntryNotFoundError(id)
	}
	return ew, nil
}

// AdminSetStatus は応募ステータスを無条件に上書きする（管理者用）。
// 列挙外の値はバリデーションエラーを返すが、遷移グラフの制約は設けない。
func (s *Service) AdminSetStatus(ctx context.Context, id, status string) (*model.EntryWithRefs, error) {
	parsed, err := model.ParseEntryStatus(status)
	if err != nil {
		return nil, err
	}
	if err := s.entryRepo.UpdateStatus(ctx, id, parsed); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// ListForUser はユーザーの応募一覧を返す。
func (s *Service) ListForUser(ctx context.Context, userID string, p repository.Pagination) ([]model.EntryWithRefs, int, error) {
	return s.entryRepo.ListByUser(ctx, userID, p)
}

// ListForCampaign はキャンペーンの応募一覧を返す（管理画面用）。
func (s *Service) ListForCampaign(ctx context.Context, campaignID string, p repository.Pagination) ([]model.EntryWithRefs, int, error) {
	return s.entryRepo.ListByCampaign(ctx, campaignID, p)
}

// ListAll は全応募一覧を返す（管理画面用）。statusFilterが空でない場合は絞り込む。
func (s *Service) ListAll(ctx context.Context, statusFilter string, p repository.Pagination) ([]model.EntryWithRefs, int, error) {
	var status model.EntryStatus
	if statusFilter != "" {
		parsed, err := model.ParseEntryStatus(statusFilter)
		if err != nil {
			return nil, 0, err
		}
		status = parsed
	}
	return s.entryRepo.ListAll(ctx, status, p)
}
