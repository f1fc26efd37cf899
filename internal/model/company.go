// Package model はドメインモデルを定義する。
package model

import (
	"fmt"
	"time"
)

// Company はキャンペーンを実施する企業を表す。
// 管理者のみが作成・編集できる。
type Company struct {
	ID           string
	Name         string
	Email        string
	ContactName  string
	ContactPhone string
	PostalCode   string
	Prefecture   string
	City         string
	Address1     string
	Address2     string
	URL          string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FullAddress は郵便番号と住所を結合した表示用文字列を返す。
func (c *Company) FullAddress() string {
	return fmt.Sprintf("%s %s%s%s%s", c.PostalCode, c.Prefecture, c.City, c.Address1, c.Address2)
}

// CompanySns は企業のSNSアカウントリンクを表す。
// (company_id, sns_type) の組はユニーク。
type CompanySns struct {
	ID        string
	CompanyID string
	SnsType   SnsType
	SnsURL    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SnsType はSNSプラットフォーム種別を表す。
type SnsType string

const (
	SnsTypeTwitter   SnsType = "twitter"
	SnsTypeFacebook  SnsType = "facebook"
	SnsTypeInstagram SnsType = "instagram"
	SnsTypeTiktok    SnsType = "tiktok"
	SnsTypeYoutube   SnsType = "youtube"
	SnsTypeLine      SnsType = "line"
)

// ParseSnsType は文字列をSnsTypeに変換する。
// 未知の値はバリデーションエラーを返す。
func ParseSnsType(s string) (SnsType, error) {
	switch SnsType(s) {
	case SnsTypeTwitter, SnsTypeFacebook, SnsTypeInstagram, SnsTypeTiktok, SnsTypeYoutube, SnsTypeLine:
		return SnsType(s), nil
	}
	return "", NewValidationError(fmt.Sprintf("無効なSNS種別です: %s", s))
}
