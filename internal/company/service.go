// Package company はキャンペーン実施企業の管理ロジックを提供する。
package company

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/htsuda/otameshi/internal/model"
	"github.com/htsuda/otameshi/internal/repository"
)

// Service は企業のサービス層。全操作が管理者専用。
type Service struct {
	companyRepo repository.CompanyRepository
	now         func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(companyRepo repository.CompanyRepository) *Service {
	return &Service{
		companyRepo: companyRepo,
		now:         time.Now,
	}
}

// Get は指定IDの企業をSNSリンク付きで返す。
func (s *Service) Get(ctx context.Context, id string) (*model.Company, []*model.CompanySns, error) {
	company, err := s.companyRepo.FindByID(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("企業の取得に失敗しました: %w", err)
	}
	if company == nil {
		return nil, nil, model.NewCompanyNotFoundError(id)
	}

	sns, err := s.companyRepo.ListSns(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("SNSリンク一覧の取得に失敗しました: %w", err)
	}
	return company, sns, nil
}

// List は企業一覧を返す。
func (s *Service) List(ctx context.Context, p repository.Pagination) ([]*model.Company, int, error) {
	return s.companyRepo.List(ctx, p)
}

// Input は企業作成・更新の入力値。
type Input struct {
	Name         string
	Email        string
	ContactName  string
	ContactPhone string
	PostalCode   string
	Prefecture   string
	City         string
	Address1     string
	Address2     string
	URL          string
}

func (in Input) validate() error {
	var msgs []string
	if strings.TrimSpace(in.Name) == "" {
		msgs = append(msgs, "企業名を入力してください")
	}
	if strings.TrimSpace(in.Email) == "" {
		msgs = append(msgs, "メールアドレスを入力してください")
	} else if !strings.Contains(in.Email, "@") {
		msgs = append(msgs, "メールアドレスの形式が正しくありません")
	}
	if len(msgs) > 0 {
		return model.NewValidationError(strings.Join(msgs, "、"))
	}
	return nil
}

func (in Input) apply(c *model.Company) {
	c.Name = strings.TrimSpace(in.Name)
	c.Email = strings.TrimSpace(in.Email)
	c.ContactName = strings.TrimSpace(in.ContactName)
	c.ContactPhone = strings.TrimSpace(in.ContactPhone)
	c.PostalCode = strings.TrimSpace(in.PostalCode)
	c.Prefecture = strings.TrimSpace(in.Prefecture)
	c.City = strings.TrimSpace(in.City)
	c.Address1 = strings.TrimSpace(in.Address1)
	c.Address2 = strings.TrimSpace(in.Address2)
	c.URL = strings.TrimSpace(in.URL)
}

// Create は企業を作成する。メールアドレス重複はユニーク制約で検出される。
func (s *Service) Create(ctx context.Context, in Input) (*model.Company, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	now := s.now()
	company := &model.Company{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	in.apply(company)

	if err := s.companyRepo.Create(ctx, company); err != nil {
		return nil, err
	}
	return company, nil
}

// Update は企業情報を更新する。
func (s *Service) Update(ctx context.Context, id string, in Input) (*model.Company, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	company, err := s.companyRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("企業の取得に失敗しました: %w", err)
	}
	if company == nil {
		return nil, model.NewCompanyNotFoundError(id)
	}
	in.apply(company)

	if err := s.companyRepo.Update(ctx, company); err != nil {
		return nil, err
	}
	return company, nil
}

// Delete は企業を削除する。配下のキャンペーン・応募・レビューはCASCADE削除される。
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.companyRepo.Delete(ctx, id)
}

// AddSns は企業のSNSリンクを追加する。
func (s *Service) AddSns(ctx context.Context, companyID, snsType, snsURL string) (*model.CompanySns, error) {
	parsed, err := model.ParseSnsType(snsType)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(snsURL) == "" {
		return nil, model.NewValidationError("SNSのURLを入力してください")
	}

	company, err := s.companyRepo.FindByID(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("企業の取得に失敗しました: %w", err)
	}
	if company == nil {
		return nil, model.NewCompanyNotFoundError(companyID)
	}

	now := s.now()
	sns := &model.CompanySns{
		ID:        uuid.NewString(),
		CompanyID: companyID,
		SnsType:   parsed,
		SnsURL:    strings.TrimSpace(snsURL),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.companyRepo.CreateSns(ctx, sns); err != nil {
		return nil, err
	}
	return sns, nil
}

// RemoveSns は企業のSNSリンクを削除する。
func (s *Service) RemoveSns(ctx context.Context, snsID string) error {
	return s.companyRepo.DeleteSns(ctx, snsID)
}
