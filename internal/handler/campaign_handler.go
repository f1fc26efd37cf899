package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/htsuda/otameshi/internal/middleware"
	"github.com/htsuda/otameshi/internal/model"
	"github.com/htsuda/otameshi/internal/repository"
)

// CampaignServiceInterface はキャンペーンハンドラーが必要とするサービスインターフェース。
type CampaignServiceInterface interface {
	// ListActive は公開中キャンペーンの一覧を返す。
	ListActive(ctx context.Context, sortNew, recommend bool, p repository.Pagination) ([]model.CampaignWithStats, int, error)
	// Get はキャンペーンを集計値付きで取得する。
	Get(ctx context.Context, id string) (*model.CampaignWithStats, error)
	// CanApply はユーザーがキャンペーンに応募可能かどうかを返す。
	CanApply(ctx context.Context, userID string, campaign *model.Campaign) (bool, error)
}

// EntryApplier は応募受付のインターフェース。
type EntryApplier interface {
	// Apply はキャンペーンへの応募を受け付ける。
	Apply(ctx context.Context, userID, campaignID string) (*model.Entry, error)
}

// ReviewServiceInterface はレビュー閲覧・投稿のインターフェース。
type ReviewServiceInterface interface {
	// ListForCampaign はキャンペーンのレビュー一覧を返す。
	ListForCampaign(ctx context.Context, campaignID string, p repository.Pagination) ([]model.ReviewWithRefs, int, error)
	// Submit はレビューを投稿する。
	Submit(ctx context.Context, userID, campaignID string, rating int, comment string) (*model.Review, error)
}

// DomainMetricsRecorder はドメインイベントのメトリクス記録インターフェース。
type DomainMetricsRecorder interface {
	RecordEntryCreated()
	RecordReviewCreated()
}

// CampaignHandler はキャンペーン閲覧・応募・レビューのHTTPハンドラー。
type CampaignHandler struct {
	campaigns CampaignServiceInterface
	entries   EntryApplier
	reviews   ReviewServiceInterface
	metrics   DomainMetricsRecorder
}

// NewCampaignHandler はCampaignHandlerを生成する。
func NewCampaignHandler(
	campaigns CampaignServiceInterface,
	entries EntryApplier,
	reviews ReviewServiceInterface,
	metrics DomainMetricsRecorder,
) *CampaignHandler {
	return &CampaignHandler{
		campaigns: campaigns,
		entries:   entries,
		reviews:   reviews,
		metrics:   metrics,
	}
}

// List は公開中キャンペーンの一覧を取得する。
// sort=new で新着順、recommend=true で新着3件のみ返す。
// GET /api/campaigns
func (h *CampaignHandler) List(w http.ResponseWriter, r *http.Request) {
	sortNew := r.URL.Query().Get("sort") == "new"
	recommend := r.URL.Query().Get("recommend") == "true"
	p := parsePagination(r, defaultPerPage)

	campaigns, total, err := h.campaigns.ListActive(r.Context(), sortNew, recommend, p)
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

// Get はキャンペーン詳細を取得する。
// セッションがあれば閲覧者の応募可否（can_apply）も判定する。
// GET /api/campaigns/{id}
func (h *CampaignHandler) Get(w http.ResponseWriter, r *http.Request) {
	campaignID := chi.URLParam(r, "id")

	campaign, err := h.campaigns.Get(r.Context(), campaignID)
	if err != nil {
		writeError(w, err)
		return
	}

	userID := ""
	if p := middleware.PrincipalFromContext(r.Context()); p.IsUser() {
		userID = p.ID
	}

	canApply, err := h.campaigns.CanApply(r.Context(), userID, &campaign.Campaign)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"campaign": campaignDetailResponse{
			campaignResponse: newCampaignResponse(campaign),
			CanApply:         canApply,
		},
	})
}

// ListReviews はキャンペーンのレビュー一覧を取得する。
// GET /api/campaigns/{id}/reviews
func (h *CampaignHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	campaignID := chi.URLParam(r, "id")
	p := parsePagination(r, defaultReviewPerPage)

	reviews, total, err := h.reviews.ListForCampaign(r.Context(), campaignID, p)
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

// Apply はキャンペーンへの応募を受け付ける。
// POST /api/campaigns/{id}/entry
func (h *CampaignHandler) Apply(w http.ResponseWriter, r *http.Request) {
	principal := middleware.PrincipalFromContext(r.Context())
	campaignID := chi.URLParam(r, "id")

	entry, err := h.entries.Apply(r.Context(), principal.ID, campaignID)
	if err != nil {
		writeError(w, err)
		return
	}

	h.metrics.RecordEntryCreated()
	writeJSON(w, http.StatusCreated, map[string]any{
		"entry":   newEntryResponse(entry),
		"message": "応募が完了しました",
	})
}

// reviewSubmitRequest はレビュー投稿リクエストのボディ。
type reviewSubmitRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// SubmitReview はキャンペーンへのレビューを投稿する。
// POST /api/campaigns/{id}/reviews
func (h *CampaignHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	principal := middleware.PrincipalFromContext(r.Context())
	campaignID := chi.URLParam(r, "id")

	var req reviewSubmitRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w)
		return
	}

	review, err := h.reviews.Submit(r.Context(), principal.ID, campaignID, req.Rating, req.Comment)
	if err != nil {
		writeError(w, err)
		return
	}

	h.metrics.RecordReviewCreated()
	writeJSON(w, http.StatusCreated, map[string]any{
		"review":  newReviewResponse(review),
		"message": "レビューを投稿しました",
	})
}
