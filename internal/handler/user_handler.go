package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/htsuda/otameshi/internal/address"
	"github.com/htsuda/otameshi/internal/middleware"
	"github.com/htsuda/otameshi/internal/model"
	"github.com/htsuda/otameshi/internal/repository"
)

// UserEntryLister はユーザー本人の応募一覧取得インターフェース。
type UserEntryLister interface {
	ListForUser(ctx context.Context, userID string, p repository.Pagination) ([]model.EntryWithRefs, int, error)
}

// UserReviewLister はユーザー本人のレビュー一覧取得インターフェース。
type UserReviewLister interface {
	ListForUser(ctx context.Context, userID string, p repository.Pagination) ([]model.ReviewWithRefs, int, error)
}

// AddressServiceInterface は住所管理のインターフェース。
type AddressServiceInterface interface {
	List(ctx context.Context, userID string) ([]*model.Address, error)
	Create(ctx context.Context, userID string, in address.Input) (*model.Address, error)
	Update(ctx context.Context, userID, addressID string, in address.Input) (*model.Address, error)
	Delete(ctx context.Context, userID, addressID string) error
}

// UserHandler はログイン中ユーザーの自己情報関連のHTTPハンドラー。
type UserHandler struct {
	auth      AuthServiceInterface
	entries   UserEntryLister
	reviews   UserReviewLister
	addresses AddressServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(
	auth AuthServiceInterface,
	entries UserEntryLister,
	reviews UserReviewLister,
	addresses AddressServiceInterface,
) *UserHandler {
	return &UserHandler{
		auth:      auth,
		entries:   entries,
		reviews:   reviews,
		addresses: addresses,
	}
}

// Me はログイン中ユーザーの情報を取得する。
// GET /api/users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	principal := middleware.PrincipalFromContext(r.Context())

	user, err := h.auth.CurrentUser(r.Context(), principal)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user": newUserResponse(user),
	})
}

// MyEntries はログイン中ユーザーの応募一覧を取得する。
// GET /api/users/me/entries
func (h *UserHandler) MyEntries(w http.ResponseWriter, r *http.Request) {
	principal := middleware.PrincipalFromContext(r.Context())
	p := parsePagination(r, defaultReviewPerPage)

	entries, total, err := h.entries.ListForUser(r.Context(), principal.ID, p)
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

// MyReviews はログイン中ユーザーのレビュー一覧を取得する。
// GET /api/users/me/reviews
func (h *UserHandler) MyReviews(w http.ResponseWriter, r *http.Request) {
	principal := middleware.PrincipalFromContext(r.Context())
	p := parsePagination(r, defaultReviewPerPage)

	reviews, total, err := h.reviews.ListForUser(r.Context(), principal.ID, p)
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

// addressRequest は住所作成・更新リクエストのボディ。
type addressRequest struct {
	PostalCode string `json:"postal_code"`
	Prefecture string `json:"prefecture"`
	City       string `json:"city"`
	Address1   string `json:"address1"`
	Address2   string `json:"address2"`
	Phone      string `json:"phone"`
	IsDefault  bool   `json:"is_default"`
}

func (req addressRequest) toInput() address.Input {
	return address.Input{
		PostalCode: req.PostalCode,
		Prefecture: req.Prefecture,
		City:       req.City,
		Address1:   req.Address1,
		Address2:   req.Address2,
		Phone:      req.Phone,
		IsDefault:  req.IsDefault,
	}
}

// ListAddresses はログイン中ユーザーの住所一覧を取得する。
// GET /api/users/me/addresses
func (h *UserHandler) ListAddresses(w http.ResponseWriter, r *http.Request) {
	principal := middleware.PrincipalFromContext(r.Context())

	addresses, err := h.addresses.List(r.Context(), principal.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"addresses": newAddressResponses(addresses),
	})
}

// CreateAddress はログイン中ユーザーの住所を作成する。
// POST /api/users/me/addresses
func (h *UserHandler) CreateAddress(w http.ResponseWriter, r *http.Request) {
	principal := middleware.PrincipalFromContext(r.Context())

	var req addressRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w)
		return
	}

	created, err := h.addresses.Create(r.Context(), principal.ID, req.toInput())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"address": newAddressResponse(created),
		"message": "住所を登録しました",
	})
}

// UpdateAddress はログイン中ユーザーの住所を更新する。
// 他人の住所への操作は404を返す。
// PATCH /api/users/me/addresses/{id}
func (h *UserHandler) UpdateAddress(w http.ResponseWriter, r *http.Request) {
	principal := middleware.PrincipalFromContext(r.Context())
	addressID := chi.URLParam(r, "id")

	var req addressRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w)
		return
	}

	updated, err := h.addresses.Update(r.Context(), principal.ID, addressID, req.toInput())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"address": newAddressResponse(updated),
		"message": "住所を更新しました",
	})
}

// DeleteAddress はログイン中ユーザーの住所を削除する。
// DELETE /api/users/me/addresses/{id}
func (h *UserHandler) DeleteAddress(w http.ResponseWriter, r *http.Request) {
	principal := middleware.PrincipalFromContext(r.Context())
	addressID := chi.URLParam(r, "id")

	if err := h.addresses.Delete(r.Context(), principal.ID, addressID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "住所を削除しました",
	})
}
