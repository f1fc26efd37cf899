// Package model はドメインモデルを定義する。
package model

import (
	"fmt"
	"time"
)

// Shipment は当選した応募に対する商品発送記録を表す。
// 応募(Entry)と1:1で対応し、entry_idのユニーク制約で保証される。
// address_id は発送時点のユーザー住所への参照。
type Shipment struct {
	ID        string
	EntryID   string
	AddressID string
	Status    ShipmentStatus
	ShippedAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ShipmentStatus は配送状態を表す。
type ShipmentStatus string

const (
	// ShipmentStatusPreparing は発送準備中。配送は常にこの状態で作成される。
	ShipmentStatusPreparing ShipmentStatus = "preparing"
	// ShipmentStatusShipped は発送済み。shipped_atは呼び出し側が指定する。
	ShipmentStatusShipped ShipmentStatus = "shipped"
	// ShipmentStatusDelivered は配達完了。
	ShipmentStatusDelivered ShipmentStatus = "delivered"
	// ShipmentStatusFailed は配送失敗。
	ShipmentStatusFailed ShipmentStatus = "failed"
)

// ParseShipmentStatus は文字列をShipmentStatusに変換する。
// 未知の値はバリデーションエラーを返す。
func ParseShipmentStatus(s string) (ShipmentStatus, error) {
	switch ShipmentStatus(s) {
	case ShipmentStatusPreparing, ShipmentStatusShipped, ShipmentStatusDelivered, ShipmentStatusFailed:
		return ShipmentStatus(s), nil
	}
	return "", NewValidationError(fmt.Sprintf("無効な配送ステータスです: %s", s))
}

// TrackingInfo は発送日から組み立てた表示用の追跡情報を返す。
// shipped_atが未設定の場合は空文字を返す。
func (s *Shipment) TrackingInfo() string {
	if s.ShippedAt == nil {
		return ""
	}
	return fmt.Sprintf("発送日: %s", s.ShippedAt.Format("2006年01月02日"))
}

// ShipmentWithRefs は配送に関連エンティティの表示用情報を結合したモデル。
type ShipmentWithRefs struct {
	Shipment
	EntryStatus    EntryStatus
	EntryCreatedAt time.Time
	UserEmail      string
	CampaignTitle  string
	Address        Address
}
