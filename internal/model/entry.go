// Package model はドメインモデルを定義する。
package model

import (
	"fmt"
	"time"
)

// Entry はユーザーのキャンペーン応募を表す。
// (user_id, campaign_id) の組はDBのユニーク制約で一意に保たれる。
type Entry struct {
	ID         string
	UserID     string
	CampaignID string
	Status     EntryStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// EntryStatus は応募の選考・発送状態を表す。
type EntryStatus string

const (
	// EntryStatusPending は選考待ち状態。応募は常にこの状態で作成される。
	EntryStatusPending EntryStatus = "pending"
	// EntryStatusWinner は当選状態。
	EntryStatusWinner EntryStatus = "winner"
	// EntryStatusLoser は落選状態。
	EntryStatusLoser EntryStatus = "loser"
	// EntryStatusShipped は商品発送済み状態。
	EntryStatusShipped EntryStatus = "shipped"
	// EntryStatusCompleted は完了状態。
	EntryStatusCompleted EntryStatus = "completed"
)

// ParseEntryStatus は文字列をEntryStatusに変換する。
// 未知の値はバリデーションエラーを返す。
func ParseEntryStatus(s string) (EntryStatus, error) {
	switch EntryStatus(s) {
	case EntryStatusPending, EntryStatusWinner, EntryStatusLoser, EntryStatusShipped, EntryStatusCompleted:
		return EntryStatus(s), nil
	}
	return "", NewValidationError(fmt.Sprintf("無効な応募ステータスです: %s", s))
}

// CanReview は応募ステータスがレビュー投稿可能な段階かどうかを返す。
// 画面表示用のヘルパーであり、レビュー投稿の資格判定そのものは
// review.Service.CanReview が行う（キャンペーン終了による資格も考慮するため）。
func (e *Entry) CanReview() bool {
	return e.Status == EntryStatusShipped || e.Status == EntryStatusCompleted
}

// EntryWithRefs は応募に関連エンティティの表示用情報を結合したモデル。
type EntryWithRefs struct {
	Entry
	UserEmail        string
	UserName         string
	CampaignTitle    string
	CampaignImageURL string
}
