// Package auth は認証・セッション管理のドメインロジックを提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/htsuda/otameshi/internal/model"
	"github.com/htsuda/otameshi/internal/repository"
)

// Service は認証のサービス層。
// ユーザー登録、ログイン・ログアウト、セッション解決のビジネスロジックを提供する。
// ユーザーと管理者は別テーブルで管理し、セッションはprincipal_kindで区別する。
type Service struct {
	userRepo    repository.UserRepository
	adminRepo   repository.AdminRepository
	sessionRepo repository.SessionRepository
	bcryptCost  int
	sessionTTL  time.Duration
	now         func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	userRepo repository.UserRepository,
	adminRepo repository.AdminRepository,
	sessionRepo repository.SessionRepository,
	bcryptCost int,
	sessionTTL time.Duration,
) *Service {
	return &Service{
		userRepo:    userRepo,
		adminRepo:   adminRepo,
		sessionRepo: sessionRepo,
		bcryptCost:  bcryptCost,
		sessionTTL:  sessionTTL,
		now:         time.Now,
	}
}

// Register はユーザーを登録し、ログイン済みセッションを発行する。
// メールアドレス重複はリポジトリ層のユニーク制約でも検出される。
func (s *Service) Register(ctx context.Context, email, name, password string) (*model.User, *model.Session, error) {
	email = strings.TrimSpace(email)
	name = strings.TrimSpace(name)

	var msgs []string
	if email == "" {
		msgs = append(msgs, "メールアドレスを入力してください")
	} else if !strings.Contains(email, "@") {
		msgs = append(msgs, "メールアドレスの形式が正しくありません")
	}
	if name == "" {
		msgs = append(msgs, "名前を入力してください")
	}
	if len(password) < 6 {
		msgs = append(msgs, "パスワードは6文字以上で入力してください")
	}
	if len(msgs) > 0 {
		return nil, nil, model.NewValidationError(strings.Join(msgs, "、"))
	}

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, nil, fmt.Errorf("ユーザーの検索に失敗しました: %w", err)
	}
	if existing != nil {
		return nil, nil, model.NewEmailTakenError()
	}

	digest, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, nil, fmt.Errorf("パスワードのハッシュ化に失敗しました: %w", err)
	}

	now := s.now()
	user := &model.User{
		ID:             uuid.NewString(),
		Email:          email,
		Name:           name,
		PasswordDigest: string(digest),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, nil, err
	}

	session, err := s.createSession(ctx, model.PrincipalUser, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

// Login はユーザーのメールアドレスとパスワードを検証し、セッションを発行する。
// ユーザーが存在しない場合も認証情報不一致と同じエラーを返し、
// メールアドレスの登録有無を外部から判別できないようにする。
func (s *Service) Login(ctx context.Context, email, password string) (*model.User, *model.Session, error) {
	user, err := s.userRepo.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, nil, fmt.Errorf("ユーザーの検索に失敗しました: %w", err)
	}
	if user == nil {
		return nil, nil, model.NewInvalidCredentialsError()
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordDigest), []byte(password)); err != nil {
		return nil, nil, model.NewInvalidCredentialsError()
	}

	session, err := s.createSession(ctx, model.PrincipalUser, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

// AdminLogin は管理者のメールアドレスとパスワードを検証し、セッションを発行する。
func (s *Service) AdminLogin(ctx context.Context, email, password string) (*model.Admin, *model.Session, error) {
	admin, err := s.adminRepo.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, nil, fmt.Errorf("管理者の検索に失敗しました: %w", err)
	}
	if admin == nil {
		return nil, nil, model.NewInvalidCredentialsError()
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordDigest), []byte(password)); err != nil {
		return nil, nil, model.NewInvalidCredentialsError()
	}

	session, err := s.createSession(ctx, model.PrincipalAdmin, admin.ID)
	if err != nil {
		return nil, nil, err
	}
	return admin, session, nil
}

// Logout はセッションを破棄する。存在しないセッションIDでもエラーにしない。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("セッションの破棄に失敗しました: %w", err)
	}
	return nil
}

// CurrentPrincipal はセッションIDからリクエスト主体を解決する。
// セッションが無効・期限切れの場合は匿名Principalを返す（エラーにはしない）。
func (s *Service) CurrentPrincipal(ctx context.Context, sessionID string) (model.Principal, error) {
	if sessionID == "" {
		return model.Anonymous(), nil
	}
	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return model.Anonymous(), fmt.Errorf("セッションの取得に失敗しました: %w", err)
	}
	if session == nil {
		return model.Anonymous(), nil
	}
	return model.Principal{Kind: session.PrincipalKind, ID: session.PrincipalID}, nil
}

// CurrentUser はユーザーPrincipalに対応するユーザーを返す。
// 対応するユーザーが削除済みの場合はNotFoundを返す。
func (s *Service) CurrentUser(ctx context.Context, principal model.Principal) (*model.User, error) {
	if !principal.IsUser() {
		return nil, model.NewUnauthorizedError()
	}
	user, err := s.userRepo.FindByID(ctx, principal.ID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

// CleanupExpiredSessions は期限切れセッションを削除し、削除件数を返す。
// バックグラウンドワーカーから定期的に呼び出される。
func (s *Service) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	return s.sessionRepo.DeleteExpired(ctx, s.now())
}

func (s *Service) createSession(ctx context.Context, kind model.PrincipalKind, principalID string) (*model.Session, error) {
	id, err := newSessionID()
	if err != nil {
		return nil, err
	}
	now := s.now()
	session := &model.Session{
		ID:            id,
		PrincipalKind: kind,
		PrincipalID:   principalID,
		ExpiresAt:     now.Add(s.sessionTTL),
		CreatedAt:     now,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("セッションの作成に失敗しました: %w", err)
	}
	return session, nil
}

// newSessionID は暗号論的乱数から256ビットのセッションIDを生成する。
func newSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("セッションIDの生成に失敗しました: %w", err)
	}
	return hex.EncodeToString(b), nil
}
