package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/htsuda/otameshi/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	HTTPMetrics       middleware.HTTPMetricsRecorder
	MetricsHandler    http.Handler

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// 公開API・ユーザーAPI
	CampaignService CampaignServiceInterface
	EntryApplier    EntryApplier
	ReviewService   ReviewServiceInterface
	DomainMetrics   DomainMetricsRecorder
	EntryLister     UserEntryLister
	ReviewLister    UserReviewLister
	AddressService  AddressServiceInterface

	// 管理API
	DashboardService     DashboardServiceInterface
	AdminCampaignService AdminCampaignServiceInterface
	AdminEntryService    AdminEntryServiceInterface
	ShipmentService      ShipmentServiceInterface
	AdminReviewService   AdminReviewServiceInterface
	CompanyService       CompanyServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → CORS → Metrics → Session → Logging → RateLimit(General)
//
// /health と /metrics はレート制限・セッション解決の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewMetricsMiddleware(deps.HTTPMetrics))

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	campaignHandler := NewCampaignHandler(deps.CampaignService, deps.EntryApplier, deps.ReviewService, deps.DomainMetrics)
	userHandler := NewUserHandler(deps.AuthService, deps.EntryLister, deps.ReviewLister, deps.AddressService)
	adminHandler := NewAdminHandler(
		deps.DashboardService,
		deps.AdminCampaignService,
		deps.AdminEntryService,
		deps.ShipmentService,
		deps.AdminReviewService,
		deps.CompanyService,
	)

	// --- 運用エンドポイント ---

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)

	// --- APIルート ---
	// セッション解決は全ルートで行い、認可はルートグループごとに判定する。
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.AuthService))
		r.Use(middleware.NewLoggingMiddleware(deps.Logger))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// 認証
		r.Route("/api/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)
			r.Post("/admin/login", authHandler.AdminLogin)
		})

		// キャンペーン閲覧（認証不要）と応募・レビュー投稿（要ユーザー認証）
		r.Route("/api/campaigns", func(r chi.Router) {
			r.Get("/", campaignHandler.List)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", campaignHandler.Get)
				r.Get("/reviews", campaignHandler.ListReviews)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireUser())

					// 応募送信は専用のレート制限を追加
					r.With(deps.RateLimiter.EntrySubmissionMiddleware()).Post("/entry", campaignHandler.Apply)
					r.Post("/reviews", campaignHandler.SubmitReview)
				})
			})
		})

		// ログイン中ユーザーの自己情報
		r.Route("/api/users/me", func(r chi.Router) {
			r.Use(middleware.RequireUser())

			r.Get("/", userHandler.Me)
			r.Get("/entries", userHandler.MyEntries)
			r.Get("/reviews", userHandler.MyReviews)

			r.Route("/addresses", func(r chi.Router) {
				r.Get("/", userHandler.ListAddresses)
				r.Post("/", userHandler.CreateAddress)
				r.Patch("/{id}", userHandler.UpdateAddress)
				r.Delete("/{id}", userHandler.DeleteAddress)
			})
		})

		// 管理バックオフィス
		r.Route("/api/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin())

			r.Get("/dashboard", adminHandler.Dashboard)

			r.Route("/campaigns", func(r chi.Router) {
				r.Get("/", adminHandler.ListCampaigns)
				r.Post("/", adminHandler.CreateCampaign)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", adminHandler.GetCampaign)
					r.Patch("/", adminHandler.UpdateCampaign)
					r.Delete("/", adminHandler.DeleteCampaign)
					r.Get("/entries", adminHandler.ListCampaignEntries)
				})
			})

			r.Route("/entries", func(r chi.Router) {
				r.Get("/", adminHandler.ListEntries)
				r.Get("/{id}", adminHandler.GetEntry)
				r.Patch("/{id}", adminHandler.UpdateEntryStatus)
			})

			r.Route("/shipments", func(r chi.Router) {
				r.Get("/", adminHandler.ListShipments)
				r.Post("/", adminHandler.CreateShipment)
				r.Get("/{id}", adminHandler.GetShipment)
				r.Patch("/{id}", adminHandler.UpdateShipmentStatus)
			})

			r.Route("/reviews", func(r chi.Router) {
				r.Get("/", adminHandler.ListReviews)
				r.Get("/{id}", adminHandler.GetReview)
				r.Delete("/{id}", adminHandler.DeleteReview)
			})

			r.Route("/companies", func(r chi.Router) {
				r.Get("/", adminHandler.ListCompanies)
				r.Post("/", adminHandler.CreateCompany)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", adminHandler.GetCompany)
					r.Patch("/", adminHandler.UpdateCompany)
					r.Delete("/", adminHandler.DeleteCompany)

					r.Post("/sns", adminHandler.AddCompanySns)
					r.Delete("/sns/{snsID}", adminHandler.RemoveCompanySns)
				})
			})
		})
	})

	return r
}
