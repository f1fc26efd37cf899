package review

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/htsuda/otameshi/internal/model"
	"github.com/htsuda/otameshi/internal/repository"
)

// --- モック ---

type mockReviewRepo struct {
	findByUserAndCampaignFn func(ctx context.Context, userID, campaignID string) (*model.Review, error)
	createFn                func(ctx context.Context, review *model.Review) error
	averageRatingFn         func(ctx context.Context, campaignID string) (float64, error)
}

func (m *mockReviewRepo) FindByID(ctx context.Context, id string) (*model.ReviewWithRefs, error) {
	return nil, nil
}
func (m *mockReviewRepo) FindByUserAndCampaign(ctx context.Context, userID, campaignID string) (*model.Review, error) {
	if m.findByUserAndCampaignFn != nil {
		return m.findByUserAndCampaignFn(ctx, userID, campaignID)
	}
	return nil, nil
}
func (m *mockReviewRepo) Create(ctx context.Context, review *model.Review) error {
	if m.createFn != nil {
		return m.createFn(ctx, review)
	}
	return nil
}
func (m *mockReviewRepo) ListByCampaign(ctx context.Context, campaignID string, p repository.Pagination) ([]model.ReviewWithRefs, int, error) {
	return nil, 0, nil
}
func (m *mockReviewRepo) ListByUser(ctx context.Context, userID string, p repository.Pagination) ([]model.ReviewWithRefs, int, error) {
	return nil, 0, nil
}
func (m *mockReviewRepo) ListAll(ctx context.Context, ratingFilter int, p repository.Pagination) ([]model.ReviewWithRefs, int, error) {
	return nil, 0, nil
}
func (m *mockReviewRepo) ListRecent(ctx context.Context, limit int) ([]model.ReviewWithRefs, error) {
	return nil, nil
}
func (m *mockReviewRepo) AverageRating(ctx context.Context, campaignID string) (float64, error) {
	if m.averageRatingFn != nil {
		return m.averageRatingFn(ctx, campaignID)
	}
	return 0, nil
}
func (m *mockReviewRepo) Delete(ctx context.Context, id string) error { return nil }

type mockEntryRepo struct {
	findByUserAndCampaignFn func(ctx context.Context, userID, campaignID string) (*model.Entry, error)
}

func (m *mockEntryRepo) FindByID(ctx context.Context, id string) (*model.Entry, error) {
	return nil, nil
}
func (m *mockEntryRepo) FindByIDWithRefs(ctx context.Context, id string) (*model.EntryWithRefs, error) {
	return nil, nil
}
func (m *mockEntryRepo) FindByUserAndCampaign(ctx context.Context, userID, campaignID string) (*model.Entry, error) {
	if m.findByUserAndCampaignFn != nil {
		return m.findByUserAndCampaignFn(ctx, userID, campaignID)
	}
	return nil, nil
}
func (m *mockEntryRepo) Create(ctx context.Context, entry *model.Entry) error { return nil }
func (m *mockEntryRepo) UpdateStatus(ctx context.Context, id string, status model.EntryStatus) error {
	return nil
}
func (m *mockEntryRepo) ListByUser(ctx context.Context, userID string, p repository.Pagination) ([]model.EntryWithRefs, int, error) {
	return nil, 0, nil
}
func (m *mockEntryRepo) ListByCampaign(ctx context.Context, campaignID string, p repository.Pagination) ([]model.EntryWithRefs, int, error) {
	return nil, 0, nil
}
func (m *mockEntryRepo) ListAll(ctx context.Context, statusFilter model.EntryStatus, p repository.Pagination) ([]model.EntryWithRefs, int, error) {
	return nil, 0, nil
}
func (m *mockEntryRepo) ListRecent(ctx context.Context, limit int) ([]model.EntryWithRefs, error) {
	return nil, nil
}

type mockCampaignRepo struct {
	findByIDFn func(ctx context.Context, id string) (*model.CampaignWithStats, error)
}

func (m *mockCampaignRepo) FindByID(ctx context.Context, id string) (*model.CampaignWithStats, error) {
	return m.findByIDFn(ctx, id)
}
func (m *mockCampaignRepo) ListActive(ctx context.Context, now time.Time, opts repository.CampaignListOptions) ([]model.CampaignWithStats, int, error) {
	return nil, 0, nil
}
func (m *mockCampaignRepo) ListAll(ctx context.Context, p repository.Pagination) ([]model.CampaignWithStats, int, error) {
	return nil, 0, nil
}
func (m *mockCampaignRepo) Create(ctx context.Context, campaign *model.Campaign) error { return nil }
func (m *mockCampaignRepo) Update(ctx context.Context, campaign *model.Campaign) error { return nil }
func (m *mockCampaignRepo) Delete(ctx context.Context, id string) error                { return nil }

// --- ヘルパー ---

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestService(reviewRepo *mockReviewRepo, entryRepo *mockEntryRepo, campaignRepo *mockCampaignRepo) *Service {
	svc := NewService(reviewRepo, entryRepo, campaignRepo)
	svc.now = func() time.Time { return testNow }
	return svc
}

func campaignEndingAt(endAt time.Time) *model.CampaignWithStats {
	return &model.CampaignWithStats{
		Campaign: model.Campaign{
			ID:      "camp-1",
			Title:   "お試しキャンペーン",
			StartAt: endAt.Add(-30 * 24 * time.Hour),
			EndAt:   endAt,
			Status:  model.CampaignStatusActive,
		},
	}
}

const validComment = "とても良い商品でした。また使いたいです。"

// --- テスト ---

// 資格判定は (応募あり) AND (レビューなし) AND (当選 OR 終了済み) の全組み合わせで
// 期待どおりに振る舞うこと。8通りを総当たりする。
func TestCanReview_Enumeration(t *testing.T) {
	tests := []struct {
		name       string
		hasEntry   bool
		hasReview  bool
		winnerOrEnded bool // 応募がwinner、またはend_atが過去
		want       bool
	}{
		{"応募あり・レビューなし・当選or終了済み", true, false, true, true},
		{"応募あり・レビューなし・選考中かつ開催中", true, false, false, false},
		{"応募あり・レビュー済み・当選or終了済み", true, true, true, false},
		{"応募あり・レビュー済み・選考中かつ開催中", true, true, false, false},
		{"応募なし・レビューなし・当選or終了済み", false, false, true, false},
		{"応募なし・レビューなし・選考中かつ開催中", false, false, false, false},
		{"応募なし・レビュー済み・当選or終了済み", false, true, true, false},
		{"応募なし・レビュー済み・選考中かつ開催中", false, true, false, false},
	}

	// 3条件目は「当選」と「終了済み」の2経路があるため両方で回す
	for _, viaWinner := range []bool{true, false} {
		for _, tt := range tests {
			name := tt.name
			if viaWinner {
				name += "（当選経路）"
			} else {
				name += "（終了経路）"
			}
			t.Run(name, func(t *testing.T) {
				entryStatus := model.EntryStatusPending
				endAt := testNow.Add(24 * time.Hour)
				if tt.winnerOrEnded {
					if viaWinner {
						entryStatus = model.EntryStatusWinner
					} else {
						endAt = testNow.Add(-24 * time.Hour)
					}
				}

				entryRepo := &mockEntryRepo{
					findByUserAndCampaignFn: func(ctx context.Context, userID, campaignID string) (*model.Entry, error) {
						if !tt.hasEntry {
							return nil, nil
						}
						return &model.Entry{ID: "entry-1", UserID: userID, CampaignID: campaignID, Status: entryStatus}, nil
					},
				}
				reviewRepo := &mockReviewRepo{
					findByUserAndCampaignFn: func(ctx context.Context, userID, campaignID string) (*model.Review, error) {
						if !tt.hasReview {
							return nil, nil
						}
						return &model.Review{ID: "review-1"}, nil
					},
				}
				campaignRepo := &mockCampaignRepo{
					findByIDFn: func(ctx context.Context, id string) (*model.CampaignWithStats, error) {
						return campaignEndingAt(endAt), nil
					},
				}

				svc := newTestService(reviewRepo, entryRepo, campaignRepo)
				got, err := svc.CanReview(context.Background(), "user-1", "camp-1")
				if err != nil {
					t.Fatalf("予期しないエラー: %v", err)
				}
				if got != tt.want {
					t.Errorf("CanReview = %v, want %v", got, tt.want)
				}
			})
		}
	}
}

// 落選者でもキャンペーン終了後はレビューできる（ORの片側）。
// 当選必須のANDに「修正」すると壊れるべきテスト。
func TestCanReview_LoserAfterCampaignEnd(t *testing.T) {
	entryRepo := &mockEntryRepo{
		findByUserAndCampaignFn: func(ctx context.Context, userID, campaignID string) (*model.Entry, error) {
			return &model.Entry{ID: "entry-1", Status: model.EntryStatusLoser}, nil
		},
	}
	campaignRepo := &mockCampaignRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.CampaignWithStats, error) {
			return campaignEndingAt(testNow.Add(-time.Hour)), nil
		},
	}

	svc := newTestService(&mockReviewRepo{}, entryRepo, campaignRepo)
	got, err := svc.CanReview(context.Background(), "user-1", "camp-1")
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if !got {
		t.Error("落選者でもキャンペーン終了後はレビュー可能であるべきです")
	}
}

func TestSubmit_Validation(t *testing.T) {
	tests := []struct {
		name    string
		rating  int
		comment string
		wantOK  bool
	}{
		{"評価0は不正", 0, validComment, false},
		{"評価6は不正", 6, validComment, false},
		{"評価1は有効", 1, validComment, true},
		{"評価5は有効", 5, validComment, true},
		{"コメント9文字は不正", 3, strings.Repeat("あ", 9), false},
		{"コメント10文字は有効", 3, strings.Repeat("あ", 10), true},
		{"コメント1000文字は有効", 3, strings.Repeat("あ", 1000), true},
		{"コメント1001文字は不正", 3, strings.Repeat("あ", 1001), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entryRepo := &mockEntryRepo{
				findByUserAndCampaignFn: func(ctx context.Context, userID, campaignID string) (*model.Entry, error) {
					return &model.Entry{ID: "entry-1", Status: model.EntryStatusWinner}, nil
				},
			}
			campaignRepo := &mockCampaignRepo{
				findByIDFn: func(ctx context.Context, id string) (*model.CampaignWithStats, error) {
					return campaignEndingAt(testNow.Add(24 * time.Hour)), nil
				},
			}

			svc := newTestService(&mockReviewRepo{}, entryRepo, campaignRepo)
			_, err := svc.Submit(context.Background(), "user-1", "camp-1", tt.rating, tt.comment)

			if tt.wantOK {
				if err != nil {
					t.Fatalf("予期しないエラー: %v", err)
				}
				return
			}

			var appErr *model.AppError
			if !errors.As(err, &appErr) || appErr.Kind != model.ErrorKindValidation {
				t.Fatalf("ValidationErrorを期待しましたが %v が返されました", err)
			}
		})
	}
}

func TestSubmit_NotEligible(t *testing.T) {
	// 応募なし
	campaignRepo := &mockCampaignRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.CampaignWithStats, error) {
			return campaignEndingAt(testNow.Add(24 * time.Hour)), nil
		},
	}

	svc := newTestService(&mockReviewRepo{}, &mockEntryRepo{}, campaignRepo)
	_, err := svc.Submit(context.Background(), "user-1", "camp-1", 5, validComment)

	var appErr *model.AppError
	if !errors.As(err, &appErr) || appErr.Code != model.ErrCodeNotEligible {
		t.Fatalf("NotEligibleを期待しましたが %v が返されました", err)
	}
}

func TestSubmit_SanitizesComment(t *testing.T) {
	var created *model.Review
	reviewRepo := &mockReviewRepo{
		createFn: func(ctx context.Context, review *model.Review) error {
			created = review
			return nil
		},
	}
	entryRepo := &mockEntryRepo{
		findByUserAndCampaignFn: func(ctx context.Context, userID, campaignID string) (*model.Entry, error) {
			return &model.Entry{ID: "entry-1", Status: model.EntryStatusWinner}, nil
		},
	}
	campaignRepo := &mockCampaignRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.CampaignWithStats, error) {
			return campaignEndingAt(testNow.Add(24 * time.Hour)), nil
		},
	}

	svc := newTestService(reviewRepo, entryRepo, campaignRepo)
	_, err := svc.Submit(context.Background(), "user-1", "camp-1", 4,
		"<script>alert(1)</script>とても良い商品でした。また使いたいです。")
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}

	if created == nil {
		t.Fatal("リポジトリのCreateが呼ばれていません")
	}
	if strings.Contains(created.Comment, "<script>") {
		t.Errorf("HTMLタグが除去されていません: %s", created.Comment)
	}
	if !strings.Contains(created.Comment, "とても良い商品でした") {
		t.Errorf("本文まで削られています: %s", created.Comment)
	}
}

// 文字数の検証はサニタイズ後の文字列に対して行われる。
// タグを除去した結果10文字未満になるコメントは拒否される。
func TestSubmit_ValidatesAfterSanitize(t *testing.T) {
	entryRepo := &mockEntryRepo{
		findByUserAndCampaignFn: func(ctx context.Context, userID, campaignID string) (*model.Entry, error) {
			return &model.Entry{ID: "entry-1", Status: model.EntryStatusWinner}, nil
		},
	}
	campaignRepo := &mockCampaignRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.CampaignWithStats, error) {
			return campaignEndingAt(testNow.Add(24 * time.Hour)), nil
		},
	}

	svc := newTestService(&mockReviewRepo{}, entryRepo, campaignRepo)
	_, err := svc.Submit(context.Background(), "user-1", "camp-1", 4,
		"<div><span></span></div>短い")

	var appErr *model.AppError
	if !errors.As(err, &appErr) || appErr.Kind != model.ErrorKindValidation {
		t.Fatalf("ValidationErrorを期待しましたが %v が返されました", err)
	}
}

func TestSubmit_RaceGuardedByConstraint(t *testing.T) {
	reviewRepo := &mockReviewRepo{
		createFn: func(ctx context.Context, review *model.Review) error {
			return model.NewAlreadyReviewedError()
		},
	}
	entryRepo := &mockEntryRepo{
		findByUserAndCampaignFn: func(ctx context.Context, userID, campaignID string) (*model.Entry, error) {
			return &model.Entry{ID: "entry-1", Status: model.EntryStatusWinner}, nil
		},
	}
	campaignRepo := &mockCampaignRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.CampaignWithStats, error) {
			return campaignEndingAt(testNow.Add(24 * time.Hour)), nil
		},
	}

	svc := newTestService(reviewRepo, entryRepo, campaignRepo)
	_, err := svc.Submit(context.Background(), "user-1", "camp-1", 5, validComment)

	var appErr *model.AppError
	if !errors.As(err, &appErr) || appErr.Code != model.ErrCodeAlreadyReviewed {
		t.Fatalf("AlreadyReviewedを期待しましたが %v が返されました", err)
	}
}
