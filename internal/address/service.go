// Package address はユーザーの配送先住所管理のドメインロジックを提供する。
package address

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/htsuda/otameshi/internal/model"
	"github.com/htsuda/otameshi/internal/repository"
)

// Service は住所のサービス層。
// 本人の住所に対するCRUDと、デフォルト住所の解決を提供する。
// 他人の住所への操作はIDの存在を漏らさないようNotFoundとして扱う。
type Service struct {
	addressRepo repository.AddressRepository
	now         func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(addressRepo repository.AddressRepository) *Service {
	return &Service{
		addressRepo: addressRepo,
		now:         time.Now,
	}
}

// List はユーザーの住所一覧を返す。
func (s *Service) List(ctx context.Context, userID string) ([]*model.Address, error) {
	return s.addressRepo.ListByUser(ctx, userID)
}

// Default はユーザーのデフォルト住所を返す。
// is_default=trueの住所が無い場合は最初の住所、住所が1件も無い場合はnilを返す。
func (s *Service) Default(ctx context.Context, userID string) (*model.Address, error) {
	return s.addressRepo.DefaultForUser(ctx, userID)
}

// Input は住所作成・更新の入力値。
type Input struct {
	PostalCode string
	Prefecture string
	City       string
	Address1   string
	Address2   string
	Phone      string
	IsDefault  bool
}

func (in Input) validate() error {
	var msgs []string
	if strings.TrimSpace(in.PostalCode) == "" {
		msgs = append(msgs, "郵便番号を入力してください")
	}
	if strings.TrimSpace(in.Prefecture) == "" {
		msgs = append(msgs, "都道府県を入力してください")
	}
	if strings.TrimSpace(in.City) == "" {
		msgs = append(msgs, "市区町村を入力してください")
	}
	if strings.TrimSpace(in.Address1) == "" {
		msgs = append(msgs, "住所を入力してください")
	}
	if strings.TrimSpace(in.Phone) == "" {
		msgs = append(msgs, "電話番号を入力してください")
	}
	if len(msgs) > 0 {
		return model.NewValidationError(strings.Join(msgs, "、"))
	}
	return nil
}

// Create は住所を作成する。
// is_default=trueの場合、同一ユーザーの他の住所のデフォルトフラグは
// ストレージ層の1トランザクションで解除される。
func (s *Service) Create(ctx context.Context, userID string, in Input) (*model.Address, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	now := s.now()
	address := &model.Address{
		ID:         uuid.NewString(),
		UserID:     userID,
		PostalCode: strings.TrimSpace(in.PostalCode),
		Prefecture: strings.TrimSpace(in.Prefecture),
		City:       strings.TrimSpace(in.City),
		Address1:   strings.TrimSpace(in.Address1),
		Address2:   strings.TrimSpace(in.Address2),
		Phone:      strings.TrimSpace(in.Phone),
		IsDefault:  in.IsDefault,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.addressRepo.Create(ctx, address); err != nil {
		return nil, err
	}
	return address, nil
}

// Update は本人の住所を更新する。
func (s *Service) Update(ctx context.Context, userID, addressID string, in Input) (*model.Address, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	address, err := s.findOwned(ctx, userID, addressID)
	if err != nil {
		return nil, err
	}

	address.PostalCode = strings.TrimSpace(in.PostalCode)
	address.Prefecture = strings.TrimSpace(in.Prefecture)
	address.City = strings.TrimSpace(in.City)
	address.Address1 = strings.TrimSpace(in.Address1)
	address.Address2 = strings.TrimSpace(in.Address2)
	address.Phone = strings.TrimSpace(in.Phone)
	address.IsDefault = in.IsDefault

	if err := s.addressRepo.Update(ctx, address); err != nil {
		return nil, err
	}
	return address, nil
}

// Delete は本人の住所を削除する。
func (s *Service) Delete(ctx context.Context, userID, addressID string) error {
	if _, err := s.findOwned(ctx, userID, addressID); err != nil {
		return err
	}
	return s.addressRepo.Delete(ctx, addressID)
}

func (s *Service) findOwned(ctx context.Context, userID, addressID string) (*model.Address, error) {
	address, err := s.addressRepo.FindByID(ctx, addressID)
	if err != nil {
		return nil, fmt.Errorf("住所の取得に失敗しました: %w", err)
	}
	if address == nil || address.UserID != userID {
		return nil, model.NewAddressNotFoundError(addressID)
	}
	return address, nil
}
