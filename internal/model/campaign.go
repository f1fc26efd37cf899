// Package model はドメインモデルを定義する。
package model

import (
	"fmt"
	"time"
)

// Campaign は企業が実施する商品お試しキャンペーンを表す。
type Campaign struct {
	ID          string
	CompanyID   string
	Title       string
	Description string
	ImageURL    string
	StartAt     time.Time
	EndAt       time.Time
	Status      CampaignStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CampaignStatus はキャンペーンの公開状態を表す。
type CampaignStatus string

const (
	// CampaignStatusDraft は下書き状態。
	CampaignStatusDraft CampaignStatus = "draft"
	// CampaignStatusActive は公開中（応募受付の前提条件）。
	CampaignStatusActive CampaignStatus = "active"
	// CampaignStatusClosed は応募受付終了状態。
	CampaignStatusClosed CampaignStatus = "closed"
	// CampaignStatusCompleted はキャンペーン完了状態。
	CampaignStatusCompleted CampaignStatus = "completed"
)

// ParseCampaignStatus は文字列をCampaignStatusに変換する。
// 未知の値はバリデーションエラーを返す。
func ParseCampaignStatus(s string) (CampaignStatus, error) {
	switch CampaignStatus(s) {
	case CampaignStatusDraft, CampaignStatusActive, CampaignStatusClosed, CampaignStatusCompleted:
		return CampaignStatus(s), nil
	}
	return "", NewValidationError(fmt.Sprintf("無効なキャンペーンステータスです: %s", s))
}

// InWindow はキャンペーンが応募期間内かどうかを返す。
// status=active かつ start_at <= now <= end_at のときのみtrue。
// end_at < start_at の場合は常にfalseとなる（期間の逆転は保存時に拒否しない）。
func (c *Campaign) InWindow(now time.Time) bool {
	return c.Status == CampaignStatusActive &&
		!now.Before(c.StartAt) && !now.After(c.EndAt)
}

// CampaignWithStats はキャンペーンと集計値（応募数・当選数・平均評価）を
// 結合したモデル。集計値は保存せず、取得のたびに計算される。
type CampaignWithStats struct {
	Campaign
	EntryCount    int
	WinnerCount   int
	AverageRating float64
	CompanyName   string
	CompanyURL    string
	CompanyEmail  string
}
