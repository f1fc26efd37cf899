// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
type User struct {
	ID             string
	Email          string
	Name           string
	PasswordDigest string // bcryptハッシュ
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Admin は管理者を表す。ユーザーとは独立した認証ドメインを持つ。
type Admin struct {
	ID             string
	Email          string
	Name           string
	PasswordDigest string // bcryptハッシュ
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// PrincipalKind はリクエスト主体の種別を表す。
type PrincipalKind string

const (
	// PrincipalUser は一般ユーザーセッション。
	PrincipalUser PrincipalKind = "user"
	// PrincipalAdmin は管理者セッション。
	PrincipalAdmin PrincipalKind = "admin"
	// PrincipalAnonymous は未認証リクエスト。
	PrincipalAnonymous PrincipalKind = "anonymous"
)

// Principal はリクエストスコープの認証主体を表す。
// グローバルなcurrent_userの代わりにコンテキスト経由で各操作へ渡される。
type Principal struct {
	Kind PrincipalKind
	ID   string // Kind=anonymous のとき空
}

// IsUser は一般ユーザーとして認証済みかどうかを返す。
func (p Principal) IsUser() bool { return p.Kind == PrincipalUser }

// IsAdmin は管理者として認証済みかどうかを返す。
func (p Principal) IsAdmin() bool { return p.Kind == PrincipalAdmin }

// IsAnonymous は未認証かどうかを返す。
func (p Principal) IsAnonymous() bool { return p.Kind == PrincipalAnonymous }

// Anonymous は未認証のPrincipalを返す。
func Anonymous() Principal { return Principal{Kind: PrincipalAnonymous} }

// Session はユーザーまたは管理者のログインセッションを表す。
type Session struct {
	ID            string
	PrincipalKind PrincipalKind // user または admin
	PrincipalID   string
	ExpiresAt     time.Time
	CreatedAt     time.Time
}
