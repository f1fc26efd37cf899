// Package model はドメインモデルを定義する。
package model

import "fmt"

// ErrorKind はエラーの分類を表す。
// ハンドラー層でHTTPステータスコードへのマッピングに使用する。
type ErrorKind string

const (
	// ErrorKindValidation は入力値の制約違反を表す。
	ErrorKindValidation ErrorKind = "validation"
	// ErrorKindNotFound は参照先が存在しないことを表す。
	ErrorKindNotFound ErrorKind = "not_found"
	// ErrorKindUnauthorized は認証・認可の失敗を表す。
	ErrorKindUnauthorized ErrorKind = "unauthorized"
	// ErrorKindConflict はドメインルール上の競合（重複応募等）を表す。
	ErrorKindConflict ErrorKind = "conflict"
)

// AppError は統一エラーフォーマットを表す。
// ユーザーに表示する日本語メッセージと分類を含む。
type AppError struct {
	Code    string    // エラーコード
	Message string    // エラーメッセージ
	Kind    ErrorKind // エラー分類
}

// Error はerrorインターフェースを実装する。
func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeCampaignNotFound   = "CAMPAIGN_NOT_FOUND"
	ErrCodeEntryNotFound      = "ENTRY_NOT_FOUND"
	ErrCodeShipmentNotFound   = "SHIPMENT_NOT_FOUND"
	ErrCodeReviewNotFound     = "REVIEW_NOT_FOUND"
	ErrCodeCompanyNotFound    = "COMPANY_NOT_FOUND"
	ErrCodeAddressNotFound    = "ADDRESS_NOT_FOUND"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeAdminRequired      = "ADMIN_REQUIRED"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeEmailTaken         = "EMAIL_TAKEN"
	ErrCodeAlreadyApplied     = "ALREADY_APPLIED"
	ErrCodeOutOfWindow        = "OUT_OF_WINDOW"
	ErrCodeAlreadyReviewed    = "ALREADY_REVIEWED"
	ErrCodeDuplicateShipment  = "DUPLICATE_SHIPMENT"
	ErrCodeNotEligible        = "NOT_ELIGIBLE"
)

// NewValidationError は入力値の制約違反エラーを生成する。
// messageには結合済みの日本語メッセージを渡す。
func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: message,
		Kind:    ErrorKindValidation,
	}
}

// NewCampaignNotFoundError はキャンペーン未検出エラーを生成する。
func NewCampaignNotFoundError(campaignID string) *AppError {
	return &AppError{
		Code:    ErrCodeCampaignNotFound,
		Message: fmt.Sprintf("指定されたキャンペーンが見つかりません: %s", campaignID),
		Kind:    ErrorKindNotFound,
	}
}

// NewEntryNotFoundError は応募未検出エラーを生成する。
func NewEntryNotFoundError(entryID string) *AppError {
	return &AppError{
		Code:    ErrCodeEntryNotFound,
		Message: fmt.Sprintf("指定された応募が見つかりません: %s", entryID),
		Kind:    ErrorKindNotFound,
	}
}

// NewShipmentNotFoundError は配送未検出エラーを生成する。
func NewShipmentNotFoundError(shipmentID string) *AppError {
	return &AppError{
		Code:    ErrCodeShipmentNotFound,
		Message: fmt.Sprintf("指定された配送が見つかりません: %s", shipmentID),
		Kind:    ErrorKindNotFound,
	}
}

// NewReviewNotFoundError はレビュー未検出エラーを生成する。
func NewReviewNotFoundError(reviewID string) *AppError {
	return &AppError{
		Code:    ErrCodeReviewNotFound,
		Message: fmt.Sprintf("指定されたレビューが見つかりません: %s", reviewID),
		Kind:    ErrorKindNotFound,
	}
}

// NewCompanyNotFoundError は企業未検出エラーを生成する。
func NewCompanyNotFoundError(companyID string) *AppError {
	return &AppError{
		Code:    ErrCodeCompanyNotFound,
		Message: fmt.Sprintf("指定された企業が見つかりません: %s", companyID),
		Kind:    ErrorKindNotFound,
	}
}

// NewAddressNotFoundError は住所未検出エラーを生成する。
func NewAddressNotFoundError(addressID string) *AppError {
	return &AppError{
		Code:    ErrCodeAddressNotFound,
		Message: fmt.Sprintf("指定された住所が見つかりません: %s", addressID),
		Kind:    ErrorKindNotFound,
	}
}

// NewUserNotFoundError はユーザー未検出エラーを生成する。
func NewUserNotFoundError() *AppError {
	return &AppError{
		Code:    ErrCodeUserNotFound,
		Message: "ユーザーが見つかりません",
		Kind:    ErrorKindNotFound,
	}
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *AppError {
	return &AppError{
		Code:    ErrCodeUnauthorized,
		Message: "ログインが必要です",
		Kind:    ErrorKindUnauthorized,
	}
}

// NewAdminRequiredError は管理者権限エラーを生成する。
func NewAdminRequiredError() *AppError {
	return &AppError{
		Code:    ErrCodeAdminRequired,
		Message: "管理者権限が必要です",
		Kind:    ErrorKindUnauthorized,
	}
}

// NewInvalidCredentialsError は認証情報不一致エラーを生成する。
func NewInvalidCredentialsError() *AppError {
	return &AppError{
		Code:    ErrCodeInvalidCredentials,
		Message: "メールアドレスまたはパスワードが間違っています",
		Kind:    ErrorKindUnauthorized,
	}
}

// NewEmailTakenError はメールアドレス重複エラーを生成する。
func NewEmailTakenError() *AppError {
	return &AppError{
		Code:    ErrCodeEmailTaken,
		Message: "このメールアドレスは既に登録されています",
		Kind:    ErrorKindConflict,
	}
}

// NewAlreadyAppliedError は重複応募エラーを生成する。
func NewAlreadyAppliedError() *AppError {
	return &AppError{
		Code:    ErrCodeAlreadyApplied,
		Message: "既に応募済みです",
		Kind:    ErrorKindConflict,
	}
}

// NewOutOfWindowError は応募期間外エラーを生成する。
func NewOutOfWindowError() *AppError {
	return &AppError{
		Code:    ErrCodeOutOfWindow,
		Message: "応募期間外です",
		Kind:    ErrorKindConflict,
	}
}

// NewAlreadyReviewedError は重複レビューエラーを生成する。
func NewAlreadyReviewedError() *AppError {
	return &AppError{
		Code:    ErrCodeAlreadyReviewed,
		Message: "このキャンペーンには既にレビューを投稿しています",
		Kind:    ErrorKindConflict,
	}
}

// NewDuplicateShipmentError は配送重複エラーを生成する。
func NewDuplicateShipmentError() *AppError {
	return &AppError{
		Code:    ErrCodeDuplicateShipment,
		Message: "この応募には既に配送が登録されています",
		Kind:    ErrorKindConflict,
	}
}

// NewNotEligibleError はレビュー資格なしエラーを生成する。
func NewNotEligibleError() *AppError {
	return &AppError{
		Code:    ErrCodeNotEligible,
		Message: "このキャンペーンにレビューできません",
		Kind:    ErrorKindConflict,
	}
}
