package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/htsuda/otameshi/internal/campaign"
	"github.com/htsuda/otameshi/internal/company"
	"github.com/htsuda/otameshi/internal/dashboard"
	"github.com/htsuda/otameshi/internal/model"
	"github.com/htsuda/otameshi/internal/repository"
)

// DashboardServiceInterface は管理ダッシュボードのインターフェース。
type DashboardServiceInterface interface {
	GetSummary(ctx context.Context) (*dashboard.Summary, error)
}

// AdminCampaignServiceInterface は管理者向けキャンペーン操作のインターフェース。
type AdminCampaignServiceInterface interface {
	ListAll(ctx context.Context, p repository.Pagination) ([]model.CampaignWithStats, int, error)
	Get(ctx context.Context, id string) (*model.CampaignWithStats, error)
	Create(ctx context.Context, in campaign.Input) (*model.CampaignWithStats, error)
	Update(ctx context.Context, id string, in campaign.Input) (*model.CampaignWithStats, error)
	Delete(ctx context.Context, id string) error
}

// AdminEntryServiceInterface は管理者向け応募操作のインターフェース。
type AdminEntryServiceInterface interface {
	ListAll(ctx context.Context, statusFilter string, p repository.Pagination) ([]model.EntryWithRefs, int, error)
	ListForCampaign(ctx context.Context, campaignID string, p repository.Pagination) ([]model.EntryWithRefs, int, error)
	Get(ctx context.Context, id string) (*model.EntryWithRefs, error)
	AdminSetStatus(ctx context.Context, id, status string) (*model.EntryWithRefs, error)
}

// ShipmentServiceInterface は管理者向け配送操作のインターフェース。
type ShipmentServiceInterface interface {
	Create(ctx context.Context, entryID, addressID string) (*model.ShipmentWithRefs, error)
	Get(ctx context.Context, id string) (*model.ShipmentWithRefs, error)
	UpdateStatus(ctx context.Context, id, status string, shippedAt *time.Time) (*model.ShipmentWithRefs, error)
	ListAll(ctx context.Context, statusFilter string, p repository.Pagination) ([]model.ShipmentWithRefs, int, error)
}

// AdminReviewServiceInterface は管理者向けレビュー操作のインターフェース。
type AdminReviewServiceInterface interface {
	ListAll(ctx context.Context, ratingFilter int, p repository.Pagination) ([]model.ReviewWithRefs, int, error)
	Get(ctx context.Context, id string) (*model.ReviewWithRefs, error)
	AdminDelete(ctx context.Context, id string) error
}

// CompanyServiceInterface は管理者向け企業操作のインターフェース。
type CompanyServiceInterface interface {
	List(ctx context.Context, p repository.Pagination) ([]*model.Company, int, error)
	Get(ctx context.Context, id string) (*model.Company, []*model.CompanySns, error)
	Create(ctx context.Context, in company.Input) (*model.Company, error)
	Update(ctx context.Context, id string, in company.Input) (*model.Company, error)
	Delete(ctx context.Context, id string) error
	AddSns(ctx context.Context, companyID, snsType, snsURL string) (*model.CompanySns, error)
	RemoveSns(ctx context.Context, snsID string) error
}

// AdminHandler は管理バックオフィスのHTTPハンドラー。
type AdminHandler struct {
	dashboard DashboardServiceInterface
	campaigns AdminCampaignServiceInterface
	entries   AdminEntryServiceInterface
	shipments ShipmentServiceInterface
	reviews   AdminReviewServiceInterface
	companies CompanyServiceInterface
}

// NewAdminHandler はAdminHandlerを生成する。
func NewAdminHandler(
	dashboard DashboardServiceInterface,
	campaigns AdminCampaignServiceInterface,
	entries AdminEntryServiceInterface,
	shipments ShipmentServiceInterface,
	reviews AdminReviewServiceInterface,
	companies CompanyServiceInterface,
) *AdminHandler {
	return &AdminHandler{
		dashboard: dashboard,
		campaigns: campaigns,
		entries:   entries,
		shipments: shipments,
		reviews:   reviews,
		companies: companies,
	}
}

// Dashboard は件数集計と直近の応募・レビューを取得する。
// GET /api/admin/dashboard
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := h.dashboard.GetSummary(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"campaigns_count":        summary.CampaignCount,
		"active_campaigns_count": summary.ActiveCampaignCount,
		"entries_count":          summary.EntryCount,
		"reviews_count":          summary.ReviewCount,
		"recent_entries":         newEntryResponses(summary.RecentEntries),
		"recent_reviews":         newReviewResponses(summary.RecentReviews),
	})
}

// --- キャンペーン管理 ---

// campaignRequest はキャンペーン作成・更新リクエストのボディ。
type campaignRequest struct {
	CompanyID   string    `json:"company_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url"`
	StartAt     time.Time `json:"start_at"`
	EndAt       time.Time `json:"end_at"`
	Status      string    `json:"status"`
}

func (req campaignRequest) toInput() campaign.Input {
	return campaign.Input{
		CompanyID:   req.CompanyID,
		Title:       req.Title,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		StartAt:     req.StartAt,
		EndAt:       req.EndAt,
		Status:      req.Status,
	}
}

// ListCampaigns は全キャンペーンの一覧を取得する。
// GET /api/admin/campaigns
func (h *AdminHandler) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	p := parsePagination(r, defaultPerPage)

	campaigns, total, err := h.campaigns.ListAll(r.Context(), p)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"campaigns": newCampaignResponses(campaigns),
		"total":     total,
		"page":      p.Page,
		"per_page":  p.PerPage,
	})
}

// GetCampaign はキャンペーン詳細を取得する。
// GET /api/admin/campaigns/{id}
func (h *AdminHandler) GetCampaign(w http.ResponseWriter, r *http.Request) {
	c, err := h.campaigns.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"campaign": newCampaignResponse(c),
	})
}

// CreateCampaign はキャンペーンを作成する。
// POST /api/admin/campaigns
func (h *AdminHandler) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var req campaignRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w)
		return
	}

	created, err := h.campaigns.Create(r.Context(), req.toInput())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"campaign": newCampaignResponse(created),
		"message":  "キャンペーンを作成しました",
	})
}

// UpdateCampaign はキャンペーンを更新する。
// PATCH /api/admin/campaigns/{id}
func (h *AdminHandler) UpdateCampaign(w http.ResponseWriter, r *http.Request) {
	var req campaignRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w)
		return
	}

	updated, err := h.campaigns.Update(r.Context(), chi.URLParam(r, "id"), req.toInput())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"campaign": newCampaignResponse(updated),
		"message":  "キャンペーンを更新しました",
	})
}

// DeleteCampaign はキャンペーンを削除する。
// 関連する応募・配送・レビューはスキーマのカスケードで削除される。
// DELETE /api/admin/campaigns/{id}
func (h *AdminHandler) DeleteCampaign(w http.ResponseWriter, r *http.Request) {
	if err := h.campaigns.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "キャンペーンを削除しました",
	})
}

// ListCampaignEntries はキャンペーンごとの応募一覧を取得する。
// GET /api/admin/campaigns/{id}/entries
func (h *AdminHandler) ListCampaignEntries(w http.ResponseWriter, r *http.Request) {
	p := parsePagination(r, defaultPerPage)

	entries, total, err := h.entries.ListForCampaign(r.Context(), chi.URLParam(r, "id"), p)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"entries":  newEntryResponses(entries),
		"total":    total,
		"page":     p.Page,
		"per_page": p.PerPage,
	})
}

// --- 応募管理 ---

// ListEntries は全応募の一覧を取得する。statusクエリで絞り込める。
// GET /api/admin/entries
func (h *AdminHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	p := parsePagination(r, defaultPerPage)
	statusFilter := r.URL.Query().Get("status")

	entries, total, err := h.entries.ListAll(r.Context(), statusFilter, p)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"entries":  newEntryResponses(entries),
		"total":    total,
		"page":     p.Page,
		"per_page": p.PerPage,
	})
}

// GetEntry は応募詳細を取得する。
// GET /api/admin/entries/{id}
func (h *AdminHandler) GetEntry(w http.ResponseWriter, r *http.Request) {
	e, err := h.entries.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"entry": newEntryWithRefsResponse(e),
	})
}

// entryStatusRequest は応募ステータス更新リクエストのボディ。
type entryStatusRequest struct {
	Status string `json:"status"`
}

// UpdateEntryStatus は応募の選考ステータスを更新する。
// 遷移規則は設けず、有効なステータス値であれば任意に上書きできる。
// PATCH /api/admin/entries/{id}
func (h *AdminHandler) UpdateEntryStatus(w http.ResponseWriter, r *http.Request) {
	var req entryStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w)
		return
	}

	updated, err := h.entries.AdminSetStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"entry":   newEntryWithRefsResponse(updated),
		"message": "応募ステータスを更新しました",
	})
}

// --- 配送管理 ---

// shipmentCreateRequest は配送作成リクエストのボディ。
type shipmentCreateRequest struct {
	EntryID   string `json:"entry_id"`
	AddressID string `json:"address_id"`
}

// shipmentStatusRequest は配送ステータス更新リクエストのボディ。
// shipped_at は自動設定されず、呼び出し側が明示的に指定する。
type shipmentStatusRequest struct {
	Status    string     `json:"status"`
	ShippedAt *time.Time `json:"shipped_at"`
}

// ListShipments は全配送の一覧を取得する。statusクエリで絞り込める。
// GET /api/admin/shipments
func (h *AdminHandler) ListShipments(w http.ResponseWriter, r *http.Request) {
	p := parsePagination(r, defaultPerPage)
	statusFilter := r.URL.Query().Get("status")

	shipments, total, err := h.shipments.ListAll(r.Context(), statusFilter, p)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"shipments": newShipmentResponses(shipments),
		"total":     total,
		"page":      p.Page,
		"per_page":  p.PerPage,
	})
}

// GetShipment は配送詳細を取得する。
// GET /api/admin/shipments/{id}
func (h *AdminHandler) GetShipment(w http.ResponseWriter, r *http.Request) {
	s, err := h.shipments.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"shipment": newShipmentResponse(s),
	})
}

// CreateShipment は当選応募に対する配送を作成する。
// POST /api/admin/shipments
func (h *AdminHandler) CreateShipment(w http.ResponseWriter, r *http.Request) {
	var req shipmentCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w)
		return
	}

	created, err := h.shipments.Create(r.Context(), req.EntryID, req.AddressID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"shipment": newShipmentResponse(created),
		"message":  "配送を登録しました",
	})
}

// UpdateShipmentStatus は配送ステータスと発送日時を更新する。
// PATCH /api/admin/shipments/{id}
func (h *AdminHandler) UpdateShipmentStatus(w http.ResponseWriter, r *http.Request) {
	var req shipmentStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w)
		return
	}

	updated, err := h.shipments.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status, req.ShippedAt)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"shipment": newShipmentResponse(updated),
		"message":  "配送ステータスを更新しました",
	})
}

// --- レビュー管理 ---

// ListReviews は全レビューの一覧を取得する。ratingクエリで絞り込める。
// GET /api/admin/reviews
func (h *AdminHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	p := parsePagination(r, defaultPerPage)

	ratingFilter := 0
	if v := r.URL.Query().Get("rating"); v != "" {
		rating, err := strconv.Atoi(v)
		if err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "評価は1〜5の数値で指定してください"})
			return
		}
		ratingFilter = rating
	}

	reviews, total, err := h.reviews.ListAll(r.Context(), ratingFilter, p)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"reviews":  newReviewResponses(reviews),
		"total":    total,
		"page":     p.Page,
		"per_page": p.PerPage,
	})
}

// GetReview はレビュー詳細を取得する。
// GET /api/admin/reviews/{id}
func (h *AdminHandler) GetReview(w http.ResponseWriter, r *http.Request) {
	rv, err := h.reviews.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"review": newReviewWithRefsResponse(rv),
	})
}

// DeleteReview はレビューを削除する。ユーザー自身による削除は提供しない。
// DELETE /api/admin/reviews/{id}
func (h *AdminHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	if err := h.reviews.AdminDelete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "レビューを削除しました",
	})
}

// --- 企業管理 ---

// companyRequest は企業作成・更新リクエストのボディ。
type companyRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	ContactName  string `json:"contact_name"`
	ContactPhone string `json:"contact_phone"`
	PostalCode   string `json:"postal_code"`
	Prefecture   string `json:"prefecture"`
	City         string `json:"city"`
	Address1     string `json:"address1"`
	Address2     string `json:"address2"`
	URL          string `json:"url"`
}

func (req companyRequest) toInput() company.Input {
	return company.Input{
		Name:         req.Name,
		Email:        req.Email,
		ContactName:  req.ContactName,
		ContactPhone: req.ContactPhone,
		PostalCode:   req.PostalCode,
		Prefecture:   req.Prefecture,
		City:         req.City,
		Address1:     req.Address1,
		Address2:     req.Address2,
		URL:          req.URL,
	}
}

// ListCompanies は全企業の一覧を取得する。
// GET /api/admin/companies
func (h *AdminHandler) ListCompanies(w http.ResponseWriter, r *http.Request) {
	p := parsePagination(r, defaultPerPage)

	companies, total, err := h.companies.List(r.Context(), p)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"companies": newCompanyResponses(companies),
		"total":     total,
		"page":      p.Page,
		"per_page":  p.PerPage,
	})
}

// GetCompany は企業詳細をSNSリンク付きで取得する。
// GET /api/admin/companies/{id}
func (h *AdminHandler) GetCompany(w http.ResponseWriter, r *http.Request) {
	c, snsLinks, err := h.companies.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"company": newCompanyResponse(c, snsLinks),
	})
}

// CreateCompany は企業を作成する。
// POST /api/admin/companies
func (h *AdminHandler) CreateCompany(w http.ResponseWriter, r *http.Request) {
	var req companyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w)
		return
	}

	created, err := h.companies.Create(r.Context(), req.toInput())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"company": newCompanyResponse(created, nil),
		"message": "企業を作成しました",
	})
}

// UpdateCompany は企業を更新する。
// PATCH /api/admin/companies/{id}
func (h *AdminHandler) UpdateCompany(w http.ResponseWriter, r *http.Request) {
	var req companyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w)
		return
	}

	updated, err := h.companies.Update(r.Context(), chi.URLParam(r, "id"), req.toInput())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"company": newCompanyResponse(updated, nil),
		"message": "企業を更新しました",
	})
}

// DeleteCompany は企業を削除する。
// 関連するキャンペーン以下はスキーマのカスケードで削除される。
// DELETE /api/admin/companies/{id}
func (h *AdminHandler) DeleteCompany(w http.ResponseWriter, r *http.Request) {
	if err := h.companies.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "企業を削除しました",
	})
}

// companySnsRequest は企業SNSリンク追加リクエストのボディ。
type companySnsRequest struct {
	SnsType string `json:"sns_type"`
	SnsURL  string `json:"sns_url"`
}

// AddCompanySns は企業にSNSリンクを追加する。
// POST /api/admin/companies/{id}/sns
func (h *AdminHandler) AddCompanySns(w http.ResponseWriter, r *http.Request) {
	var req companySnsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w)
		return
	}

	sns, err := h.companies.AddSns(r.Context(), chi.URLParam(r, "id"), req.SnsType, req.SnsURL)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"sns_link": companySnsResponse{
			ID:      sns.ID,
			SnsType: string(sns.SnsType),
			SnsURL:  sns.SnsURL,
		},
		"message": "SNSリンクを追加しました",
	})
}

// RemoveCompanySns は企業のSNSリンクを削除する。
// DELETE /api/admin/companies/{id}/sns/{snsID}
func (h *AdminHandler) RemoveCompanySns(w http.ResponseWriter, r *http.Request) {
	if err := h.companies.RemoveSns(r.Context(), chi.URLParam(r, "snsID")); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "SNSリンクを削除しました",
	})
}
