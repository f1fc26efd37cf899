package handler

import (
	"context"
	"net/http"

	"github.com/htsuda/otameshi/internal/middleware"
	"github.com/htsuda/otameshi/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// Register は新規ユーザーを登録し、セッションを発行する。
	Register(ctx context.Context, email, name, password string) (*model.User, *model.Session, error)
	// Login はユーザーの認証情報を検証し、セッションを発行する。
	Login(ctx context.Context, email, password string) (*model.User, *model.Session, error)
	// AdminLogin は管理者の認証情報を検証し、セッションを発行する。
	AdminLogin(ctx context.Context, email, password string) (*model.Admin, *model.Session, error)
	// Logout はセッションを破棄する。
	Logout(ctx context.Context, sessionID string) error
	// CurrentPrincipal はセッションIDからリクエスト主体を解決する。
	CurrentPrincipal(ctx context.Context, sessionID string) (model.Principal, error)
	// CurrentUser はユーザーPrincipalに対応するユーザーを返す。
	CurrentUser(ctx context.Context, principal model.Principal) (*model.User, error)
}

// AuthHandlerConfig は認証ハンドラーのCookie設定。
type AuthHandlerConfig struct {
	CookieSecure bool
	CookieDomain string
	CookieMaxAge int // 秒
}

// AuthHandler は認証関連のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	config  AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service: service,
		config:  config,
	}
}

// registerRequest はユーザー登録リクエストのボディ。
type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// loginRequest はログインリクエストのボディ。
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register は新規ユーザーを登録し、セッションCookieを発行する。
// POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w)
		return
	}

	user, session, err := h.service.Register(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setSessionCookie(w, session.ID)
	writeJSON(w, http.StatusCreated, map[string]any{
		"user":    newUserResponse(user),
		"message": "登録が完了しました",
	})
}

// Login はユーザーを認証し、セッションCookieを発行する。
// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w)
		return
	}

	user, session, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setSessionCookie(w, session.ID)
	writeJSON(w, http.StatusOK, map[string]any{
		"user":    newUserResponse(user),
		"message": "ログインしました",
	})
}

// AdminLogin は管理者を認証し、セッションCookieを発行する。
// POST /api/auth/admin/login
func (h *AuthHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w)
		return
	}

	admin, session, err := h.service.AdminLogin(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setSessionCookie(w, session.ID)
	writeJSON(w, http.StatusOK, map[string]any{
		"admin": map[string]any{
			"id":    admin.ID,
			"email": admin.Email,
			"name":  admin.Name,
		},
		"message": "ログインしました",
	})
}

// Logout はセッションを破棄し、Cookieを削除する。
// セッションが存在しなくても成功として扱う。
// POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sessionID := ""
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil {
		sessionID = cookie.Value
	}

	if err := h.service.Logout(r.Context(), sessionID); err != nil {
		writeError(w, err)
		return
	}

	h.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "ログアウトしました",
	})
}

// setSessionCookie はHTTP OnlyのセッションCookieを設定する。
func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    sessionID,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   h.config.CookieMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookie はセッションCookieを無効化する。
func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
