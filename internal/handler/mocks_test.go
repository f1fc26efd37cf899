package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/htsuda/otameshi/internal/address"
	"github.com/htsuda/otameshi/internal/campaign"
	"github.com/htsuda/otameshi/internal/company"
	"github.com/htsuda/otameshi/internal/dashboard"
	"github.com/htsuda/otameshi/internal/middleware"
	"github.com/htsuda/otameshi/internal/model"
	"github.com/htsuda/otameshi/internal/repository"
)

// --- リクエストヘルパー ---

// withPrincipal はリクエストコンテキストにPrincipalを注入するヘルパー。
func withPrincipal(r *http.Request, p model.Principal) *http.Request {
	return r.WithContext(middleware.ContextWithPrincipal(r.Context(), p))
}

func withUser(r *http.Request, userID string) *http.Request {
	return withPrincipal(r, model.Principal{Kind: model.PrincipalUser, ID: userID})
}

func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	return r.WithContext(ctx)
}

// decodeBody はレスポンスボディをJSONとしてパースするヘルパー。
func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var result map[string]any
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return result
}

// --- モック定義 ---

// mockAuthService はAuthServiceInterfaceのモック実装。
type mockAuthService struct {
	registerFn         func(ctx context.Context, email, name, password string) (*model.User, *model.Session, error)
	loginFn            func(ctx context.Context, email, password string) (*model.User, *model.Session, error)
	adminLoginFn       func(ctx context.Context, email, password string) (*model.Admin, *model.Session, error)
	logoutFn           func(ctx context.Context, sessionID string) error
	currentPrincipalFn func(ctx context.Context, sessionID string) (model.Principal, error)
	currentUserFn      func(ctx context.Context, principal model.Principal) (*model.User, error)
}

func (m *mockAuthService) Register(ctx context.Context, email, name, password string) (*model.User, *model.Session, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, email, name, password)
	}
	return nil, nil, nil
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*model.User, *model.Session, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, email, password)
	}
	return nil, nil, nil
}

func (m *mockAuthService) AdminLogin(ctx context.Context, email, password string) (*model.Admin, *model.Session, error) {
	if m.adminLoginFn != nil {
		return m.adminLoginFn(ctx, email, password)
	}
	return nil, nil, nil
}

func (m *mockAuthService) Logout(ctx context.Context, sessionID string) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, sessionID)
	}
	return nil
}

func (m *mockAuthService) CurrentPrincipal(ctx context.Context, sessionID string) (model.Principal, error) {
	if m.currentPrincipalFn != nil {
		return m.currentPrincipalFn(ctx, sessionID)
	}
	return model.Anonymous(), nil
}

func (m *mockAuthService) CurrentUser(ctx context.Context, principal model.Principal) (*model.User, error) {
	if m.currentUserFn != nil {
		return m.currentUserFn(ctx, principal)
	}
	return nil, model.NewUnauthorizedError()
}

// mockCampaignService はCampaignServiceInterfaceのモック実装。
type mockCampaignService struct {
	listActiveFn func(ctx context.Context, sortNew, recommend bool, p repository.Pagination) ([]model.CampaignWithStats, int, error)
	getFn        func(ctx context.Context, id string) (*model.CampaignWithStats, error)
	canApplyFn   func(ctx context.Context, userID string, c *model.Campaign) (bool, error)
}

func (m *mockCampaignService) ListActive(ctx context.Context, sortNew, recommend bool, p repository.Pagination) ([]model.CampaignWithStats, int, error) {
	if m.listActiveFn != nil {
		return m.listActiveFn(ctx, sortNew, recommend, p)
	}
	return nil, 0, nil
}

func (m *mockCampaignService) Get(ctx context.Context, id string) (*model.CampaignWithStats, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, model.NewCampaignNotFoundError(id)
}

func (m *mockCampaignService) CanApply(ctx context.Context, userID string, c *model.Campaign) (bool, error) {
	if m.canApplyFn != nil {
		return m.canApplyFn(ctx, userID, c)
	}
	return false, nil
}

// mockEntryApplier はEntryApplierのモック実装。
type mockEntryApplier struct {
	applyFn func(ctx context.Context, userID, campaignID string) (*model.Entry, error)
}

func (m *mockEntryApplier) Apply(ctx context.Context, userID, campaignID string) (*model.Entry, error) {
	if m.applyFn != nil {
		return m.applyFn(ctx, userID, campaignID)
	}
	return nil, nil
}

// mockReviewService はReviewServiceInterfaceのモック実装。
type mockReviewService struct {
	listForCampaignFn func(ctx context.Context, campaignID string, p repository.Pagination) ([]model.ReviewWithRefs, int, error)
	submitFn          func(ctx context.Context, userID, campaignID string, rating int, comment string) (*model.Review, error)
}

func (m *mockReviewService) ListForCampaign(ctx context.Context, campaignID string, p repository.Pagination) ([]model.ReviewWithRefs, int, error) {
	if m.listForCampaignFn != nil {
		return m.listForCampaignFn(ctx, campaignID, p)
	}
	return nil, 0, nil
}

func (m *mockReviewService) Submit(ctx context.Context, userID, campaignID string, rating int, comment string) (*model.Review, error) {
	if m.submitFn != nil {
		return m.submitFn(ctx, userID, campaignID, rating, comment)
	}
	return nil, nil
}

// mockDomainMetrics はDomainMetricsRecorderのモック実装。
type mockDomainMetrics struct {
	entriesCreated int
	reviewsCreated int
}

func (m *mockDomainMetrics) RecordEntryCreated()  { m.entriesCreated++ }
func (m *mockDomainMetrics) RecordReviewCreated() { m.reviewsCreated++ }

// mockEntryLister はUserEntryListerのモック実装。
type mockEntryLister struct {
	listForUserFn func(ctx context.Context, userID string, p repository.Pagination) ([]model.EntryWithRefs, int, error)
}

func (m *mockEntryLister) ListForUser(ctx context.Context, userID string, p repository.Pagination) ([]model.EntryWithRefs, int, error) {
	if m.listForUserFn != nil {
		return m.listForUserFn(ctx, userID, p)
	}
	return nil, 0, nil
}

// mockReviewLister はUserReviewListerのモック実装。
type mockReviewLister struct {
	listForUserFn func(ctx context.Context, userID string, p repository.Pagination) ([]model.ReviewWithRefs, int, error)
}

func (m *mockReviewLister) ListForUser(ctx context.Context, userID string, p repository.Pagination) ([]model.ReviewWithRefs, int, error) {
	if m.listForUserFn != nil {
		return m.listForUserFn(ctx, userID, p)
	}
	return nil, 0, nil
}

// mockAddressService はAddressServiceInterfaceのモック実装。
type mockAddressService struct {
	listFn   func(ctx context.Context, userID string) ([]*model.Address, error)
	createFn func(ctx context.Context, userID string, in address.Input) (*model.Address, error)
	updateFn func(ctx context.Context, userID, addressID string, in address.Input) (*model.Address, error)
	deleteFn func(ctx context.Context, userID, addressID string) error
}

func (m *mockAddressService) List(ctx context.Context, userID string) ([]*model.Address, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockAddressService) Create(ctx context.Context, userID string, in address.Input) (*model.Address, error) {
	if m.createFn != nil {
		return m.createFn(ctx, userID, in)
	}
	return nil, nil
}

func (m *mockAddressService) Update(ctx context.Context, userID, addressID string, in address.Input) (*model.Address, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, userID, addressID, in)
	}
	return nil, nil
}

func (m *mockAddressService) Delete(ctx context.Context, userID, addressID string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, addressID)
	}
	return nil
}

// mockDashboardService はDashboardServiceInterfaceのモック実装。
type mockDashboardService struct {
	getSummaryFn func(ctx context.Context) (*dashboard.Summary, error)
}

func (m *mockDashboardService) GetSummary(ctx context.Context) (*dashboard.Summary, error) {
	if m.getSummaryFn != nil {
		return m.getSummaryFn(ctx)
	}
	return &dashboard.Summary{}, nil
}

// mockAdminCampaignService はAdminCampaignServiceInterfaceのモック実装。
type mockAdminCampaignService struct {
	listAllFn func(ctx context.Context, p repository.Pagination) ([]model.CampaignWithStats, int, error)
	getFn     func(ctx context.Context, id string) (*model.CampaignWithStats, error)
	createFn  func(ctx context.Context, in campaign.Input) (*model.CampaignWithStats, error)
	updateFn  func(ctx context.Context, id string, in campaign.Input) (*model.CampaignWithStats, error)
	deleteFn  func(ctx context.Context, id string) error
}

func (m *mockAdminCampaignService) ListAll(ctx context.Context, p repository.Pagination) ([]model.CampaignWithStats, int, error) {
	if m.listAllFn != nil {
		return m.listAllFn(ctx, p)
	}
	return nil, 0, nil
}

func (m *mockAdminCampaignService) Get(ctx context.Context, id string) (*model.CampaignWithStats, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, model.NewCampaignNotFoundError(id)
}

func (m *mockAdminCampaignService) Create(ctx context.Context, in campaign.Input) (*model.CampaignWithStats, error) {
	if m.createFn != nil {
		return m.createFn(ctx, in)
	}
	return nil, nil
}

func (m *mockAdminCampaignService) Update(ctx context.Context, id string, in campaign.Input) (*model.CampaignWithStats, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, in)
	}
	return nil, nil
}

func (m *mockAdminCampaignService) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

// mockAdminEntryService はAdminEntryServiceInterfaceのモック実装。
type mockAdminEntryService struct {
	listAllFn         func(ctx context.Context, statusFilter string, p repository.Pagination) ([]model.EntryWithRefs, int, error)
	listForCampaignFn func(ctx context.Context, campaignID string, p repository.Pagination) ([]model.EntryWithRefs, int, error)
	getFn             func(ctx context.Context, id string) (*model.EntryWithRefs, error)
	adminSetStatusFn  func(ctx context.Context, id, status string) (*model.EntryWithRefs, error)
}

func (m *mockAdminEntryService) ListAll(ctx context.Context, statusFilter string, p repository.Pagination) ([]model.EntryWithRefs, int, error) {
	if m.listAllFn != nil {
		return m.listAllFn(ctx, statusFilter, p)
	}
	return nil, 0, nil
}

func (m *mockAdminEntryService) ListForCampaign(ctx context.Context, campaignID string, p repository.Pagination) ([]model.EntryWithRefs, int, error) {
	if m.listForCampaignFn != nil {
		return m.listForCampaignFn(ctx, campaignID, p)
	}
	return nil, 0, nil
}

func (m *mockAdminEntryService) Get(ctx context.Context, id string) (*model.EntryWithRefs, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, model.NewEntryNotFoundError(id)
}

func (m *mockAdminEntryService) AdminSetStatus(ctx context.Context, id, status string) (*model.EntryWithRefs, error) {
	if m.adminSetStatusFn != nil {
		return m.adminSetStatusFn(ctx, id, status)
	}
	return nil, nil
}

// mockShipmentService はShipmentServiceInterfaceのモック実装。
type mockShipmentService struct {
	createFn       func(ctx context.Context, entryID, addressID string) (*model.ShipmentWithRefs, error)
	getFn          func(ctx context.Context, id string) (*model.ShipmentWithRefs, error)
	updateStatusFn func(ctx context.Context, id, status string, shippedAt *time.Time) (*model.ShipmentWithRefs, error)
	listAllFn      func(ctx context.Context, statusFilter string, p repository.Pagination) ([]model.ShipmentWithRefs, int, error)
}

func (m *mockShipmentService) Create(ctx context.Context, entryID, addressID string) (*model.ShipmentWithRefs, error) {
	if m.createFn != nil {
		return m.createFn(ctx, entryID, addressID)
	}
	return nil, nil
}

func (m *mockShipmentService) Get(ctx context.Context, id string) (*model.ShipmentWithRefs, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, model.NewShipmentNotFoundError(id)
}

func (m *mockShipmentService) UpdateStatus(ctx context.Context, id, status string, shippedAt *time.Time) (*model.ShipmentWithRefs, error) {
	if m.updateStatusFn != nil {
		return m.updateStatusFn(ctx, id, status, shippedAt)
	}
	return nil, nil
}

func (m *mockShipmentService) ListAll(ctx context.Context, statusFilter string, p repository.Pagination) ([]model.ShipmentWithRefs, int, error) {
	if m.listAllFn != nil {
		return m.listAllFn(ctx, statusFilter, p)
	}
	return nil, 0, nil
}

// mockAdminReviewService はAdminReviewServiceInterfaceのモック実装。
type mockAdminReviewService struct {
	listAllFn     func(ctx context.Context, ratingFilter int, p repository.Pagination) ([]model.ReviewWithRefs, int, error)
	getFn         func(ctx context.Context, id string) (*model.ReviewWithRefs, error)
	adminDeleteFn func(ctx context.Context, id string) error
}

func (m *mockAdminReviewService) ListAll(ctx context.Context, ratingFilter int, p repository.Pagination) ([]model.ReviewWithRefs, int, error) {
	if m.listAllFn != nil {
		return m.listAllFn(ctx, ratingFilter, p)
	}
	return nil, 0, nil
}

func (m *mockAdminReviewService) Get(ctx context.Context, id string) (*model.ReviewWithRefs, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, model.NewReviewNotFoundError(id)
}

func (m *mockAdminReviewService) AdminDelete(ctx context.Context, id string) error {
	if m.adminDeleteFn != nil {
		return m.adminDeleteFn(ctx, id)
	}
	return nil
}

// mockCompanyService はCompanyServiceInterfaceのモック実装。
type mockCompanyService struct {
	listFn      func(ctx context.Context, p repository.Pagination) ([]*model.Company, int, error)
	getFn       func(ctx context.Context, id string) (*model.Company, []*model.CompanySns, error)
	createFn    func(ctx context.Context, in company.Input) (*model.Company, error)
	updateFn    func(ctx context.Context, id string, in company.Input) (*model.Company, error)
	deleteFn    func(ctx context.Context, id string) error
	addSnsFn    func(ctx context.Context, companyID, snsType, snsURL string) (*model.CompanySns, error)
	removeSnsFn func(ctx context.Context, snsID string) error
}

func (m *mockCompanyService) List(ctx context.Context, p repository.Pagination) ([]*model.Company, int, error) {
	if m.listFn != nil {
		return m.listFn(ctx, p)
	}
	return nil, 0, nil
}

func (m *mockCompanyService) Get(ctx context.Context, id string) (*model.Company, []*model.CompanySns, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, nil, model.NewCompanyNotFoundError(id)
}

func (m *mockCompanyService) Create(ctx context.Context, in company.Input) (*model.Company, error) {
	if m.createFn != nil {
		return m.createFn(ctx, in)
	}
	return nil, nil
}

func (m *mockCompanyService) Update(ctx context.Context, id string, in company.Input) (*model.Company, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, in)
	}
	return nil, nil
}

func (m *mockCompanyService) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockCompanyService) AddSns(ctx context.Context, companyID, snsType, snsURL string) (*model.CompanySns, error) {
	if m.addSnsFn != nil {
		return m.addSnsFn(ctx, companyID, snsType, snsURL)
	}
	return nil, nil
}

func (m *mockCompanyService) RemoveSns(ctx context.Context, snsID string) error {
	if m.removeSnsFn != nil {
		return m.removeSnsFn(ctx, snsID)
	}
	return nil
}
