// Package review はレビューの資格判定と投稿のドメインロジックを提供する。
package review

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/htsuda/otameshi/internal/model"
	"github.com/htsuda/otameshi/internal/repository"
)

// コメントの文字数制限（文字数はルーン単位で数える）。
const (
	commentMinLength = 10
	commentMaxLength = 1000
)

// Service はレビューのサービス層。
// 資格判定・バリデーション・投稿と、管理者による一覧・削除を提供する。
type Service struct {
	reviewRepo   repository.ReviewRepository
	entryRepo    repository.EntryRepository
	campaignRepo repository.CampaignRepository
	sanitizer    *bluemonday.Policy
	now          func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
// コメントはStrictPolicyでHTMLタグを全て除去してから検証・保存する。
func NewService(
	reviewRepo repository.ReviewRepository,
	entryRepo repository.EntryRepository,
	campaignRepo repository.CampaignRepository,
) *Service {
	return &Service{
		reviewRepo:   reviewRepo,
		entryRepo:    entryRepo,
		campaignRepo: campaignRepo,
		sanitizer:    bluemonday.StrictPolicy(),
		now:          time.Now,
	}
}

// CanReview はユーザーがキャンペーンにレビュー投稿可能かどうかを返す。
//
// 判定は次の3条件の積:
//  1. このキャンペーンへの応募があること
//  2. このキャンペーンへのレビューが未投稿であること
//  3. 応募が当選(winner)であること、またはキャンペーンのend_atが過ぎていること
//
// 条件3はORであり、落選者や選考中のユーザーもキャンペーン終了後は
// レビューできる。当選必須に「修正」してはならない。
func (s *Service) CanReview(ctx context.Context, userID, campaignID string) (bool, error) {
	campaign, err := s.campaignRepo.FindByID(ctx, campaignID)
	if err != nil {
		return false, fmt.Errorf("キャンペーンの取得に失敗しました: %w", err)
	}
	if campaign == nil {
		return false, nil
	}

	entry, err := s.entryRepo.FindByUserAndCampaign(ctx, userID, campaignID)
	if err != nil {
		return false, fmt.Errorf("応募の検索に失敗しました: %w", err)
	}
	if entry == nil {
		return false, nil
	}

	existing, err := s.reviewRepo.FindByUserAndCampaign(ctx, userID, campaignID)
	if err != nil {
		return false, fmt.Errorf("レビューの検索に失敗しました: %w", err)
	}
	if existing != nil {
		return false, nil
	}

	if entry.Status == model.EntryStatusWinner {
		return true, nil
	}
	return campaign.EndAt.Before(s.now()), nil
}

// Submit はレビューを投稿する。
// 資格がない場合はNotEligible、入力値が不正な場合はValidationErrorを返す。
// 事前チェックをすり抜けた同時実行の二重投稿は、ストレージ層の
// ユニーク制約違反がAlreadyReviewedに変換されて返る。
func (s *Service) Submit(ctx context.Context, userID, campaignID string, rating int, comment string) (*model.Review, error) {
	campaign, err := s.campaignRepo.FindByID(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("キャンペーンの取得に失敗しました: %w", err)
	}
	if campaign == nil {
		return nil, model.NewCampaignNotFoundError(campaignID)
	}

	comment = strings.TrimSpace(s.sanitizer.Sanitize(comment))

	var msgs []string
	if rating < 1 || rating > 5 {
		msgs = append(msgs, "評価は1〜5で入力してください")
	}
	if n := utf8.RuneCountInString(comment); n < commentMinLength || n > commentMaxLength {
		msgs = append(msgs, fmt.Sprintf("コメントは%d文字以上%d文字以内で入力してください", commentMinLength, commentMaxLength))
	}
	if len(msgs) > 0 {
		return nil, model.NewValidationError(strings.Join(msgs, "、"))
	}

	ok, err := s.CanReview(ctx, userID, campaignID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, model.NewNotEligibleError()
	}

	now := s.now()
	review := &model.Review{
		ID:         uuid.NewString(),
		UserID:     userID,
		CampaignID: campaignID,
		Rating:     rating,
		Comment:    comment,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

// ListForCampaign はキャンペーンのレビュー一覧を返す。
func (s *Service) ListForCampaign(ctx context.Context, campaignID string, p repository.Pagination) ([]model.ReviewWithRefs, int, error) {
	return s.reviewRepo.ListByCampaign(ctx, campaignID, p)
}

// ListForUser はユーザーのレビュー一覧を返す。
func (s *Service) ListForUser(ctx context.Context, userID string, p repository.Pagination) ([]model.ReviewWithRefs, int, error) {
	return s.reviewRepo.ListByUser(ctx, userID, p)
}

// ListAll は全レビュー一覧を返す（管理画面用）。ratingFilterが正の場合は絞り込む。
func (s *Service) ListAll(ctx context.Context, ratingFilter int, p repository.Pagination) ([]model.ReviewWithRefs, int, error) {
	if ratingFilter != 0 && (ratingFilter < 1 || ratingFilter > 5) {
		return nil, 0, model.NewValidationError("評価は1〜5で指定してください")
	}
	return s.reviewRepo.ListAll(ctx, ratingFilter, p)
}

// Get は指定IDのレビューを関連情報付きで返す。
func (s *Service) Get(ctx context.Context, id string) (*model.ReviewWithRefs, error) {
	rw, err := s.reviewRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("レビューの取得に失敗しました: %w", err)
	}
	if rw == nil {
		return nil, model.NewReviewNotFoundError(id)
	}
	return rw, nil
}

// AverageRating はキャンペーンの平均評価を小数第1位で返す。レビューが無い場合は0。
func (s *Service) AverageRating(ctx context.Context, campaignID string) (float64, error) {
	return s.reviewRepo.AverageRating(ctx, campaignID)
}

// AdminDelete はレビューを削除する（管理者用）。ユーザーによる削除は提供しない。
func (s *Service) AdminDelete(ctx context.Context, id string) error {
	return s.reviewRepo.Delete(ctx, id)
}
