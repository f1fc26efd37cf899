// Package model はドメインモデルを定義する。
package model

import "time"

// Review はキャンペーンに対するユーザーのレビューを表す。
// (user_id, campaign_id) の組はDBのユニーク制約で一意に保たれる。
// ユーザーによる更新・削除はなく、管理者のみ削除できる。
type Review struct {
	ID         string
	UserID     string
	CampaignID string
	Rating     int    // 1〜5
	Comment    string // 10〜1000文字
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// RatingText は評価値の日本語ラベルを返す。
func (r *Review) RatingText() string {
	switch r.Rating {
	case 5:
		return "非常に良い"
	case 4:
		return "良い"
	case 3:
		return "普通"
	case 2:
		return "悪い"
	case 1:
		return "非常に悪い"
	}
	return ""
}

// ReviewWithRefs はレビューに関連エンティティの表示用情報を結合したモデル。
type ReviewWithRefs struct {
	Review
	UserEmail        string
	UserName         string
	CampaignTitle    string
	CampaignImageURL string
	CompanyName      string
}
