// Package handler はHTTP APIハンドラーを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/htsuda/otameshi/internal/model"
	"github.com/htsuda/otameshi/internal/repository"
)

// ページネーションのデフォルト値と上限。
const (
	defaultPerPage       = 20
	defaultReviewPerPage = 10
	maxPerPage           = 100
)

// writeJSON はレスポンスボディをJSONで書き込む。
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// errorResponse は統一エラーレスポンスのボディ。
type errorResponse struct {
	Error string `json:"error"`
}

// writeError はサービス層のエラーをHTTPレスポンスに変換する。
// AppErrorのKindに応じてステータスコードを決定し、
// それ以外のエラーは詳細を隠して500を返す。
func writeError(w http.ResponseWriter, err error) {
	var appErr *model.AppError
	if errors.As(err, &appErr) {
		writeJSON(w, statusForKind(appErr.Kind), errorResponse{Error: appErr.Message})
		return
	}

	slog.Error("unexpected error", slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "内部エラーが発生しました"})
}

// statusForKind はエラー分類をHTTPステータスコードにマッピングする。
// バリデーションエラーとドメイン競合はいずれも422を返す。
func statusForKind(kind model.ErrorKind) int {
	switch kind {
	case model.ErrorKindValidation, model.ErrorKindConflict:
		return http.StatusUnprocessableEntity
	case model.ErrorKindNotFound:
		return http.StatusNotFound
	case model.ErrorKindUnauthorized:
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

// writeBadRequest はリクエストボディの解析失敗時のレスポンスを書き込む。
func writeBadRequest(w http.ResponseWriter) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: "リクエストの形式が正しくありません"})
}

// decodeJSON はリクエストボディをJSONとしてデコードする。
func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// parsePagination はクエリパラメータからページネーション指定を組み立てる。
// page は1始まり、per_page は上限100。不正な値はデフォルトに丸める。
func parsePagination(r *http.Request, perPageDefault int) repository.Pagination {
	p := repository.Pagination{Page: 1, PerPage: perPageDefault}

	if v := r.URL.Query().Get("page"); v != "" {
		if page, err := strconv.Atoi(v); err == nil && page >= 1 {
			p.Page = page
		}
	}
	if v := r.URL.Query().Get("per_page"); v != "" {
		if perPage, err := strconv.Atoi(v); err == nil && perPage >= 1 {
			if perPage > maxPerPage {
				perPage = maxPerPage
			}
			p.PerPage = perPage
		}
	}

	return p
}

// listMeta はページネーション付き一覧レスポンスの共通フィールド。
type listMeta struct {
	Total   int `json:"total"`
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

func newListMeta(total int, p repository.Pagination) listMeta {
	return listMeta{Total: total, Page: p.Page, PerPage: p.PerPage}
}
