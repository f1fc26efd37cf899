package review

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/htsuda/otameshi/internal/entry"
	"github.com/htsuda/otameshi/internal/model"
	"github.com/htsuda/otameshi/internal/repository"
	"github.com/htsuda/otameshi/internal/shipment"
)

// 応募から配送・レビューまでのライフサイクルをサービス横断で検証する。
// リポジトリはユニーク制約の挙動まで模したインメモリ実装を使う。

// --- インメモリ実装 ---

type fakeStore struct {
	mu        sync.Mutex
	campaigns map[string]*model.CampaignWithStats
	entries   map[string]*model.Entry
	reviews   map[string]*model.Review
	shipments map[string]*model.Shipment
	addresses map[string]*model.Address
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		campaigns: map[string]*model.CampaignWithStats{},
		entries:   map[string]*model.Entry{},
		reviews:   map[string]*model.Review{},
		shipments: map[string]*model.Shipment{},
		addresses: map[string]*model.Address{},
	}
}

type fakeCampaignRepo struct{ store *fakeStore }

func (f *fakeCampaignRepo) FindByID(ctx context.Context, id string) (*model.CampaignWithStats, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	if cw, ok := f.store.campaigns[id]; ok {
		copied := *cw
		return &copied, nil
	}
	return nil, nil
}
func (f *fakeCampaignRepo) ListActive(ctx context.Context, now time.Time, opts repository.CampaignListOptions) ([]model.CampaignWithStats, int, error) {
	return nil, 0, nil
}
func (f *fakeCampaignRepo) ListAll(ctx context.Context, p repository.Pagination) ([]model.CampaignWithStats, int, error) {
	return nil, 0, nil
}
func (f *fakeCampaignRepo) Create(ctx context.Context, campaign *model.Campaign) error { return nil }
func (f *fakeCampaignRepo) Update(ctx context.Context, campaign *model.Campaign) error { return nil }
func (f *fakeCampaignRepo) Delete(ctx context.Context, id string) error                { return nil }

type fakeEntryRepo struct{ store *fakeStore }

func (f *fakeEntryRepo) FindByID(ctx context.Context, id string) (*model.Entry, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	if e, ok := f.store.entries[id]; ok {
		copied := *e
		return &copied, nil
	}
	return nil, nil
}
func (f *fakeEntryRepo) FindByIDWithRefs(ctx context.Context, id string) (*model.EntryWithRefs, error) {
	e, err := f.FindByID(ctx, id)
	if err != nil || e == nil {
		return nil, err
	}
	return &model.EntryWithRefs{Entry: *e}, nil
}
func (f *fakeEntryRepo) FindByUserAndCampaign(ctx context.Context, userID, campaignID string) (*model.Entry, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	for _, e := range f.store.entries {
		if e.UserID == userID && e.CampaignID == campaignID {
			copied := *e
			return &copied, nil
		}
	}
	return nil, nil
}
func (f *fakeEntryRepo) Create(ctx context.Context, e *model.Entry) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	// (user_id, campaign_id) のユニーク制約を模す
	for _, existing := range f.store.entries {
		if existing.UserID == e.UserID && existing.CampaignID == e.CampaignID {
			return model.NewAlreadyAppliedError()
		}
	}
	copied := *e
	f.store.entries[e.ID] = &copied
	return nil
}
func (f *fakeEntryRepo) UpdateStatus(ctx context.Context, id string, status model.EntryStatus) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	e, ok := f.store.entries[id]
	if !ok {
		return model.NewEntryNotFoundError(id)
	}
	e.Status = status
	return nil
}
func (f *fakeEntryRepo) ListByUser(ctx context.Context, userID string, p repository.Pagination) ([]model.EntryWithRefs, int, error) {
	return nil, 0, nil
}
func (f *fakeEntryRepo) ListByCampaign(ctx context.Context, campaignID string, p repository.Pagination) ([]model.EntryWithRefs, int, error) {
	return nil, 0, nil
}
func (f *fakeEntryRepo) ListAll(ctx context.Context, statusFilter model.EntryStatus, p repository.Pagination) ([]model.EntryWithRefs, int, error) {
	return nil, 0, nil
}
func (f *fakeEntryRepo) ListRecent(ctx context.Context, limit int) ([]model.EntryWithRefs, error) {
	return nil, nil
}

type fakeReviewRepo struct{ store *fakeStore }

func (f *fakeReviewRepo) FindByID(ctx context.Context, id string) (*model.ReviewWithRefs, error) {
	return nil, nil
}
func (f *fakeReviewRepo) FindByUserAndCampaign(ctx context.Context, userID, campaignID string) (*model.Review, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	for _, r := range f.store.reviews {
		if r.UserID == userID && r.CampaignID == campaignID {
			copied := *r
			return &copied, nil
		}
	}
	return nil, nil
}
func (f *fakeReviewRepo) Create(ctx context.Context, r *model.Review) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	for _, existing := range f.store.reviews {
		if existing.UserID == r.UserID && existing.CampaignID == r.CampaignID {
			return model.NewAlreadyReviewedError()
		}
	}
	copied := *r
	f.store.reviews[r.ID] = &copied
	return nil
}
func (f *fakeReviewRepo) ListByCampaign(ctx context.Context, campaignID string, p repository.Pagination) ([]model.ReviewWithRefs, int, error) {
	return nil, 0, nil
}
func (f *fakeReviewRepo) ListByUser(ctx context.Context, userID string, p repository.Pagination) ([]model.ReviewWithRefs, int, error) {
	return nil, 0, nil
}
func (f *fakeReviewRepo) ListAll(ctx context.Context, ratingFilter int, p repository.Pagination) ([]model.ReviewWithRefs, int, error) {
	return nil, 0, nil
}
func (f *fakeReviewRepo) ListRecent(ctx context.Context, limit int) ([]model.ReviewWithRefs, error) {
	return nil, nil
}
func (f *fakeReviewRepo) AverageRating(ctx context.Context, campaignID string) (float64, error) {
	return 0, nil
}
func (f *fakeReviewRepo) Delete(ctx context.Context, id string) error { return nil }

type fakeShipmentRepo struct{ store *fakeStore }

func (f *fakeShipmentRepo) FindByID(ctx context.Context, id string) (*model.ShipmentWithRefs, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	if s, ok := f.store.shipments[id]; ok {
		copied := *s
		return &model.ShipmentWithRefs{Shipment: copied}, nil
	}
	return nil, nil
}
func (f *fakeShipmentRepo) FindByEntryID(ctx context.Context, entryID string) (*model.Shipment, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	for _, s := range f.store.shipments {
		if s.EntryID == entryID {
			copied := *s
			return &copied, nil
		}
	}
	return nil, nil
}
func (f *fakeShipmentRepo) Create(ctx context.Context, s *model.Shipment) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	for _, existing := range f.store.shipments {
		if existing.EntryID == s.EntryID {
			return model.NewDuplicateShipmentError()
		}
	}
	copied := *s
	f.store.shipments[s.ID] = &copied
	return nil
}
func (f *fakeShipmentRepo) UpdateStatus(ctx context.Context, id string, status model.ShipmentStatus, shippedAt *time.Time) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	s, ok := f.store.shipments[id]
	if !ok {
		return model.NewShipmentNotFoundError(id)
	}
	s.Status = status
	s.ShippedAt = shippedAt
	return nil
}
func (f *fakeShipmentRepo) ListAll(ctx context.Context, statusFilter model.ShipmentStatus, p repository.Pagination) ([]model.ShipmentWithRefs, int, error) {
	return nil, 0, nil
}

type fakeAddressRepo struct{ store *fakeStore }

func (f *fakeAddressRepo) FindByID(ctx context.Context, id string) (*model.Address, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	if a, ok := f.store.addresses[id]; ok {
		copied := *a
		return &copied, nil
	}
	return nil, nil
}
func (f *fakeAddressRepo) ListByUser(ctx context.Context, userID string) ([]*model.Address, error) {
	return nil, nil
}
func (f *fakeAddressRepo) DefaultForUser(ctx context.Context, userID string) (*model.Address, error) {
	return nil, nil
}
func (f *fakeAddressRepo) Create(ctx context.Context, a *model.Address) error { return nil }
func (f *fakeAddressRepo) Update(ctx context.Context, a *model.Address) error { return nil }
func (f *fakeAddressRepo) Delete(ctx context.Context, id string) error        { return nil }

// --- シナリオ ---

type scenarioServices struct {
	store    *fakeStore
	entries  *entry.Service
	ships    *shipment.Service
	reviews  *Service
}

func newScenario(t *testing.T) *scenarioServices {
	t.Helper()
	store := newFakeStore()
	campaignRepo := &fakeCampaignRepo{store: store}
	entryRepo := &fakeEntryRepo{store: store}
	reviewRepo := &fakeReviewRepo{store: store}
	shipmentRepo := &fakeShipmentRepo{store: store}
	addressRepo := &fakeAddressRepo{store: store}

	return &scenarioServices{
		store:   store,
		entries: entry.NewService(entryRepo, campaignRepo),
		ships:   shipment.NewService(shipmentRepo, entryRepo, addressRepo),
		reviews: NewService(reviewRepo, entryRepo, campaignRepo),
	}
}

func (s *scenarioServices) addCampaign(id string, startAt, endAt time.Time, status model.CampaignStatus) {
	s.store.campaigns[id] = &model.CampaignWithStats{
		Campaign: model.Campaign{
			ID:      id,
			Title:   "お試しキャンペーン",
			StartAt: startAt,
			EndAt:   endAt,
			Status:  status,
		},
	}
}

func (s *scenarioServices) addAddress(id, userID string) {
	s.store.addresses[id] = &model.Address{
		ID:         id,
		UserID:     userID,
		PostalCode: "100-0001",
		Prefecture: "東京都",
		City:       "千代田区",
		Address1:   "1-1-1",
		Phone:      "03-0000-0000",
		IsDefault:  true,
	}
}

// 応募 → 当選 → 配送登録 → 発送 → レビュー投稿の正常系と、
// 二重応募・二重レビューの拒否を通しで確認する。
func TestScenario_FullLifecycle(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	s := newScenario(t)
	s.addCampaign("camp-x", now.Add(-24*time.Hour), now.Add(24*time.Hour), model.CampaignStatusActive)
	s.addAddress("addr-1", "user-u")

	// 応募はpendingで作成される
	applied, err := s.entries.Apply(ctx, "user-u", "camp-x")
	if err != nil {
		t.Fatalf("応募に失敗しました: %v", err)
	}
	if applied.Status != model.EntryStatusPending {
		t.Fatalf("応募ステータス = %s, want pending", applied.Status)
	}

	// 管理者が当選に更新
	if _, err := s.entries.AdminSetStatus(ctx, applied.ID, "winner"); err != nil {
		t.Fatalf("当選への更新に失敗しました: %v", err)
	}

	// 配送を登録（preparing）して発送済みに更新
	created, err := s.ships.Create(ctx, applied.ID, "addr-1")
	if err != nil {
		t.Fatalf("配送の登録に失敗しました: %v", err)
	}
	if created.Status != model.ShipmentStatusPreparing {
		t.Fatalf("配送ステータス = %s, want preparing", created.Status)
	}

	shippedAt := now
	updated, err := s.ships.UpdateStatus(ctx, created.ID, "shipped", &shippedAt)
	if err != nil {
		t.Fatalf("発送への更新に失敗しました: %v", err)
	}
	if updated.ShippedAt == nil || !updated.ShippedAt.Equal(shippedAt) {
		t.Fatalf("shipped_atが記録されていません: %v", updated.ShippedAt)
	}

	// 当選者はレビューを投稿できる
	if _, err := s.reviews.Submit(ctx, "user-u", "camp-x", 5, "素晴らしい商品でした。とても満足しています。"); err != nil {
		t.Fatalf("レビュー投稿に失敗しました: %v", err)
	}

	// 二重応募はAlreadyApplied
	_, err = s.entries.Apply(ctx, "user-u", "camp-x")
	var appErr *model.AppError
	if !errors.As(err, &appErr) || appErr.Code != model.ErrCodeAlreadyApplied {
		t.Fatalf("AlreadyAppliedを期待しましたが %v が返されました", err)
	}

	// 二重レビューはNotEligible（投稿済みのため資格判定で弾かれる）
	_, err = s.reviews.Submit(ctx, "user-u", "camp-x", 4, "二度目のレビューは投稿できないはずです。")
	if !errors.As(err, &appErr) || appErr.Code != model.ErrCodeNotEligible {
		t.Fatalf("NotEligibleを期待しましたが %v が返されました", err)
	}
}

// 終了済みキャンペーンでは、当選していない応募者（pendingのまま）でも
// レビューを投稿できる。OR条件の終了経路の通し確認。
func TestScenario_PendingEntrantReviewsAfterCampaignEnd(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	s := newScenario(t)

	// 昨日終了したキャンペーンに応募済みのユーザーを直接用意する
	s.addCampaign("camp-y", now.Add(-30*24*time.Hour), now.Add(-24*time.Hour), model.CampaignStatusActive)
	s.store.entries["entry-v"] = &model.Entry{
		ID:         "entry-v",
		UserID:     "user-v",
		CampaignID: "camp-y",
		Status:     model.EntryStatusPending,
	}

	ok, err := s.reviews.CanReview(ctx, "user-v", "camp-y")
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if !ok {
		t.Fatal("終了済みキャンペーンではpendingの応募者もレビュー可能であるべきです")
	}

	if _, err := s.reviews.Submit(ctx, "user-v", "camp-y", 3, "当選はしませんでしたが良い商品だと思います。"); err != nil {
		t.Fatalf("レビュー投稿に失敗しました: %v", err)
	}

	// 終了済みキャンペーンへの新規応募は期間外
	_, err = s.entries.Apply(ctx, "user-w", "camp-y")
	var appErr *model.AppError
	if !errors.As(err, &appErr) || appErr.Code != model.ErrCodeOutOfWindow {
		t.Fatalf("OutOfWindowを期待しましたが %v が返されました", err)
	}
}

// 1つの応募に2つ目の配送は登録できない。
func TestScenario_DuplicateShipmentRejected(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	s := newScenario(t)
	s.addCampaign("camp-x", now.Add(-24*time.Hour), now.Add(24*time.Hour), model.CampaignStatusActive)
	s.addAddress("addr-1", "user-u")

	applied, err := s.entries.Apply(ctx, "user-u", "camp-x")
	if err != nil {
		t.Fatalf("応募に失敗しました: %v", err)
	}
	if _, err := s.ships.Create(ctx, applied.ID, "addr-1"); err != nil {
		t.Fatalf("配送の登録に失敗しました: %v", err)
	}

	_, err = s.ships.Create(ctx, applied.ID, "addr-1")
	var appErr *model.AppError
	if !errors.As(err, &appErr) || appErr.Code != model.ErrCodeDuplicateShipment {
		t.Fatalf("DuplicateShipmentを期待しましたが %v が返されました", err)
	}
}

// 応募者本人のものではない住所への配送登録は拒否される。
func TestScenario_ShipmentAddressOwnership(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	s := newScenario(t)
	s.addCampaign("camp-x", now.Add(-24*time.Hour), now.Add(24*time.Hour), model.CampaignStatusActive)
	s.addAddress("addr-other", "someone-else")

	applied, err := s.entries.Apply(ctx, "user-u", "camp-x")
	if err != nil {
		t.Fatalf("応募に失敗しました: %v", err)
	}

	_, err = s.ships.Create(ctx, applied.ID, "addr-other")
	var appErr *model.AppError
	if !errors.As(err, &appErr) || appErr.Kind != model.ErrorKindValidation {
		t.Fatalf("ValidationErrorを期待しましたが %v が返されました", err)
	}
}
