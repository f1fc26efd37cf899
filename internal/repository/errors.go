package repository

import (
	"errors"

	"github.com/lib/pq"

	"github.com/htsuda/otameshi/internal/model"
)

// uniqueViolation はPostgreSQLのunique_violationエラーコード。
const uniqueViolation = pq.ErrorCode("23505")

// translateUniqueViolation はストレージ層のユニーク制約違反を
// 対応するドメインエラーに変換する。該当しないエラーの場合はnilを返す。
//
// 事前チェック（応募済み判定など）は同時実行の二重書き込みを防げないため、
// 制約違反の変換が競合時の最終的な安全網となる。生のストレージエラーを
// 呼び出し元へ漏らしてはならない。
func translateUniqueViolation(err error) *model.AppError {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != uniqueViolation {
		return nil
	}

	switch pqErr.Constraint {
	case "entries_user_campaign_key":
		return model.NewAlreadyAppliedError()
	case "reviews_user_campaign_key":
		return model.NewAlreadyReviewedError()
	case "shipments_entry_key":
		return model.NewDuplicateShipmentError()
	case "users_email_key", "admins_email_key", "companies_email_key":
		return model.NewEmailTakenError()
	}
	return nil
}
