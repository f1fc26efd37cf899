// Package shipment は当選商品の配送管理のドメインロジックを提供する。
package shipment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/htsuda/otameshi/internal/model"
	"github.com/htsuda/otameshi/internal/repository"
)

// Service は配送のサービス層。配送の登録とステータス更新を提供する。
// 全操作が管理者専用であり、認可はハンドラー層で済んでいることを前提とする。
type Service struct {
	shipmentRepo repository.ShipmentRepository
	entryRepo    repository.EntryRepository
	addressRepo  repository.AddressRepository
	now          func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	shipmentRepo repository.ShipmentRepository,
	entryRepo repository.EntryRepository,
	addressRepo repository.AddressRepository,
) *Service {
	return &Service{
		shipmentRepo: shipmentRepo,
		entryRepo:    entryRepo,
		addressRepo:  addressRepo,
		now:          time.Now,
	}
}

// Create は応募に対する配送を登録する。配送は常にpreparing状態で作成される。
// 応募と配送は1:1であり、二重登録は事前チェックとストレージ層の
// ユニーク制約の両方でDuplicateShipmentとして拒否される。
// 配送先住所は応募者本人のものでなければならない。
func (s *Service) Create(ctx context.Context, entryID, addressID string) (*model.ShipmentWithRefs, error) {
	entry, err := s.entryRepo.FindByID(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("応募の取得に失敗しました: %w", err)
	}
	if entry == nil {
		return nil, model.NewEntryNotFoundError(entryID)
	}

	existing, err := s.shipmentRepo.FindByEntryID(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("配送の検索に失敗しました: %w", err)
	}
	if existing != nil {
		return nil, model.NewDuplicateShipmentError()
	}

	address, err := s.addressRepo.FindByID(ctx, addressID)
	if err != nil {
		return nil, fmt.Errorf("住所の取得に失敗しました: %w", err)
	}
	if address == nil {
		return nil, model.NewAddressNotFoundError(addressID)
	}
	if address.UserID != entry.UserID {
		return nil, model.NewValidationError("配送先住所が応募者のものではありません")
	}

	now := s.now()
	shipment := &model.Shipment{
		ID:        uuid.NewString(),
		EntryID:   entryID,
		AddressID: addressID,
		Status:    model.ShipmentStatusPreparing,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.shipmentRepo.Create(ctx, shipment); err != nil {
		return nil, err
	}
	return s.Get(ctx, shipment.ID)
}

// Get は指定IDの配送を関連情報付きで返す。
func (s *Service) Get(ctx context.Context, id string) (*model.ShipmentWithRefs, error) {
	sw, err := s.shipmentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("配送の取得に失敗しました: %w", err)
	}
	if sw == nil {
		return nil, model.NewShipmentNotFoundError(id)
	}
	return sw, nil
}

// UpdateStatus は配送ステータスを上書きする（管理者用）。
// shippedAtは呼び出し側が指定する。shipped移行時の自動スタンプは行わない。
// 遷移グラフの制約は設けない。
func (s *Service) UpdateStatus(ctx context.Context, id, status string, shippedAt *time.Time) (*model.ShipmentWithRefs, error) {
	parsed, err := model.ParseShipmentStatus(status)
	if err != nil {
		return nil, err
	}
	if err := s.shipmentRepo.UpdateStatus(ctx, id, parsed, shippedAt); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// ListAll は全配送一覧を返す（管理画面用）。statusFilterが空でない場合は絞り込む。
func (s *Service) ListAll(ctx context.Context, statusFilter string, p repository.Pagination) ([]model.ShipmentWithRefs, int, error) {
	var status model.ShipmentStatus
	if statusFilter != "" {
		parsed, err := model.ParseShipmentStatus(statusFilter)
		if err != nil {
			return nil, 0, err
		}
		status = parsed
	}
	return s.shipmentRepo.ListAll(ctx, status, p)
}
