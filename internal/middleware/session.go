// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/htsuda/otameshi/internal/model"
)

// SessionCookieName はセッションIDを保持するHTTP Only Cookieの名前。
const SessionCookieName = "session_id"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// principalContextKey はリクエストコンテキストにPrincipalを格納するためのキー。
var principalContextKey = contextKey("principal")

// PrincipalResolver はセッションIDからリクエスト主体を解決するインターフェース。
// auth.Serviceの部分集合として定義する。
type PrincipalResolver interface {
	CurrentPrincipal(ctx context.Context, sessionID string) (model.Principal, error)
}

// NewSessionMiddleware はHTTP Only CookieからセッションIDを読み取り、
// 解決したPrincipalをリクエストコンテキストに注入するミドルウェアを返す。
// 未認証リクエストは拒否せず、匿名Principalとして通す。
// 認可の判定はRequireUser/RequireAdminが行う。
func NewSessionMiddleware(resolver PrincipalResolver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := ""
			if cookie, err := r.Cookie(SessionCookieName); err == nil {
				sessionID = cookie.Value
			}

			principal, err := resolver.CurrentPrincipal(r.Context(), sessionID)
			if err != nil {
				slog.Error("failed to resolve principal",
					slog.String("error", err.Error()),
				)
				principal = model.Anonymous()
			}

			ctx := context.WithValue(r.Context(), principalContextKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PrincipalFromContext はリクエストコンテキストからPrincipalを取得する。
// セッションミドルウェアを通過していないコンテキストでは匿名を返す。
func PrincipalFromContext(ctx context.Context) model.Principal {
	if p, ok := ctx.Value(principalContextKey).(model.Principal); ok {
		return p
	}
	return model.Anonymous()
}

// ContextWithPrincipal はコンテキストにPrincipalを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithPrincipal(ctx context.Context, principal model.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

// RequireUser は一般ユーザーとして認証済みのリクエストのみ通すミドルウェアを返す。
// 未認証は401、管理者セッションも401を返す（ユーザー向けAPIに管理者は入れない）。
func RequireUser() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !PrincipalFromContext(r.Context()).IsUser() {
				writeErrorJSON(w, http.StatusUnauthorized, "ログインが必要です")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin は管理者として認証済みのリクエストのみ通すミドルウェアを返す。
func RequireAdmin() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !PrincipalFromContext(r.Context()).IsAdmin() {
				writeErrorJSON(w, http.StatusUnauthorized, "管理者権限が必要です")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
