// Package dashboard は管理ダッシュボード向けの集計を提供する。
package dashboard

import (
	"context"
	"fmt"

	"github.com/htsuda/otameshi/internal/model"
	"github.com/htsuda/otameshi/internal/repository"
)

// recentLimit はダッシュボードに表示する直近レコードの件数。
const recentLimit = 5

// Summary は管理ダッシュボードの表示内容。
type Summary struct {
	CampaignCount       int
	ActiveCampaignCount int
	EntryCount          int
	ReviewCount         int
	RecentEntries       []model.EntryWithRefs
	RecentReviews       []model.ReviewWithRefs
}

// Service はダッシュボードのサービス層。
// 集計はキャッシュせず、呼び出しのたびに計算する。
type Service struct {
	statsRepo  repository.StatsRepository
	entryRepo  repository.EntryRepository
	reviewRepo repository.ReviewRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	statsRepo repository.StatsRepository,
	entryRepo repository.EntryRepository,
	reviewRepo repository.ReviewRepository,
) *Service {
	return &Service{
		statsRepo:  statsRepo,
		entryRepo:  entryRepo,
		reviewRepo: reviewRepo,
	}
}

// GetSummary は件数集計と直近5件の応募・レビューを返す。
func (s *Service) GetSummary(ctx context.Context) (*Summary, error) {
	counts, err := s.statsRepo.Counts(ctx)
	if err != nil {
		return nil, fmt.Errorf("件数集計の取得に失敗しました: %w", err)
	}

	entries, err := s.entryRepo.ListRecent(ctx, recentLimit)
	if err != nil {
		return nil, fmt.Errorf("直近の応募の取得に失敗しました: %w", err)
	}

	reviews, err := s.reviewRepo.ListRecent(ctx, recentLimit)
	if err != nil {
		return nil, fmt.Errorf("直近のレビューの取得に失敗しました: %w", err)
	}

	return &Summary{
		CampaignCount:       counts.CampaignCount,
		ActiveCampaignCount: counts.ActiveCampaignCount,
		EntryCount:          counts.EntryCount,
		ReviewCount:         counts.ReviewCount,
		RecentEntries:       entries,
		RecentReviews:       reviews,
	}, nil
}
