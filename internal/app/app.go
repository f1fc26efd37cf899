// Package app はアプリケーションの起動と依存関係のワイヤリングを行う。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/htsuda/otameshi/internal/address"
	"github.com/htsuda/otameshi/internal/auth"
	"github.com/htsuda/otameshi/internal/campaign"
	"github.com/htsuda/otameshi/internal/company"
	"github.com/htsuda/otameshi/internal/config"
	"github.com/htsuda/otameshi/internal/dashboard"
	"github.com/htsuda/otameshi/internal/database"
	"github.com/htsuda/otameshi/internal/entry"
	"github.com/htsuda/otameshi/internal/handler"
	"github.com/htsuda/otameshi/internal/logger"
	"github.com/htsuda/otameshi/internal/metrics"
	"github.com/htsuda/otameshi/internal/middleware"
	"github.com/htsuda/otameshi/internal/repository"
	"github.com/htsuda/otameshi/internal/review"
	"github.com/htsuda/otameshi/internal/shipment"
)

// sessionCleanupInterval は期限切れセッション削除の実行間隔。
const sessionCleanupInterval = 1 * time.Hour

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	adminRepo := repository.NewPostgresAdminRepo(db)
	sessionRepo := repository.NewPostgresSessionRepo(db)
	companyRepo := repository.NewPostgresCompanyRepo(db)
	campaignRepo := repository.NewPostgresCampaignRepo(db)
	entryRepo := repository.NewPostgresEntryRepo(db)
	shipmentRepo := repository.NewPostgresShipmentRepo(db)
	reviewRepo := repository.NewPostgresReviewRepo(db)
	addressRepo := repository.NewPostgresAddressRepo(db)
	statsRepo := repository.NewPostgresStatsRepo(db)

	// 3. ドメインサービスの初期化
	authService := auth.NewService(
		userRepo, adminRepo, sessionRepo,
		cfg.BcryptCost, time.Duration(cfg.SessionMaxAge)*time.Second,
	)
	campaignService := campaign.NewService(campaignRepo, companyRepo, entryRepo)
	entryService := entry.NewService(entryRepo, campaignRepo)
	shipmentService := shipment.NewService(shipmentRepo, entryRepo, addressRepo)
	reviewService := review.NewService(reviewRepo, entryRepo, campaignRepo)
	addressService := address.NewService(addressRepo)
	companyService := company.NewService(companyRepo)
	dashboardService := dashboard.NewService(statsRepo, entryRepo, reviewRepo)

	// 4. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 5. レートリミッターの初期化
	rateLimiter := middleware.NewRateLimiter(
		middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitEntry),
	)
	defer rateLimiter.Stop()

	// 6. ルーターの構築
	deps := &handler.RouterDeps{
		Logger:            slog.Default(),
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		HTTPMetrics:       collector,
		MetricsHandler:    metrics.Handler(registry),

		AuthService: authService,
		AuthConfig: handler.AuthHandlerConfig{
			CookieSecure: cfg.CookieSecure,
			CookieDomain: cfg.CookieDomain,
			CookieMaxAge: cfg.SessionMaxAge,
		},

		CampaignService: campaignService,
		EntryApplier:    entryService,
		ReviewService:   reviewService,
		DomainMetrics:   collector,
		EntryLister:     entryService,
		ReviewLister:    reviewService,
		AddressService:  addressService,

		DashboardService:     dashboardService,
		AdminCampaignService: campaignService,
		AdminEntryService:    entryService,
		ShipmentService:      shipmentService,
		AdminReviewService:   reviewService,
		CompanyService:       companyService,
	}

	router := handler.NewRouter(deps)

	// 7. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// 期限切れセッションの定期削除をバックグラウンドで実行
	go runSessionCleanup(ctx, authService, collector)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// sessionCleaner は期限切れセッション削除のインターフェース。
type sessionCleaner interface {
	CleanupExpiredSessions(ctx context.Context) (int64, error)
}

// runSessionCleanup は期限切れセッションを定期的に削除する。
// 起動直後に1回実行し、以降は一定間隔で繰り返す。
func runSessionCleanup(ctx context.Context, cleaner sessionCleaner, collector *metrics.Collector) {
	cleanup := func() {
		count, err := cleaner.CleanupExpiredSessions(ctx)
		if err != nil {
			slog.Error("session cleanup failed", slog.String("error", err.Error()))
			return
		}
		if count > 0 {
			collector.RecordSessionsCleaned(count)
			slog.Info("expired sessions cleaned", slog.Int64("count", count))
		}
	}

	cleanup()

	ticker := time.NewTicker(sessionCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cleanup()
		}
	}
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
