// Package model はドメインモデルを定義する。
package model

import (
	"fmt"
	"time"
)

// Address はユーザーの配送先住所を表す。
// is_default=true の住所はユーザーごとに高々1件であり、
// リポジトリ層が1トランザクション内の旗の掛け替えで保証する。
type Address struct {
	ID         string
	UserID     string
	PostalCode string
	Prefecture string
	City       string
	Address1   string
	Address2   string
	Phone      string
	IsDefault  bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// FullAddress は郵便番号と住所を結合した表示用文字列を返す。
func (a *Address) FullAddress() string {
	return fmt.Sprintf("%s %s%s%s%s", a.PostalCode, a.Prefecture, a.City, a.Address1, a.Address2)
}
