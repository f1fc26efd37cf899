package middleware

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiterConfig はレート制限の設定を保持する。
type RateLimiterConfig struct {
	GeneralRate     rate.Limit    // API全般のレート（req/sec）
	GeneralBurst    int           // API全般のバーストサイズ
	EntryRate       rate.Limit    // 応募送信のレート（req/sec）
	EntryBurst      int           // 応募送信のバーストサイズ
	CleanupInterval time.Duration // 期限切れエントリのクリーンアップ間隔
}

// NewRateLimiterConfig はreq/min単位の設定からRateLimiterConfigを組み立てる。
func NewRateLimiterConfig(generalPerMin, entryPerMin int) RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:     rate.Limit(float64(generalPerMin) / 60.0),
		GeneralBurst:    generalPerMin,
		EntryRate:       rate.Limit(float64(entryPerMin) / 60.0),
		EntryBurst:      entryPerMin,
		CleanupInterval: 5 * time.Minute,
	}
}

// principalLimiter は主体ごとのレートリミッターとアクセス時刻を保持する。
type principalLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter はリクエスト主体ごとのレート制限を管理する。
// API全般のレート制限と応募送信のレート制限の2種類を提供する。
// 匿名リクエストは接続元IPアドレスをキーとする。
type RateLimiter struct {
	config RateLimiterConfig

	generalMu       sync.RWMutex
	generalLimiters map[string]*principalLimiter

	entryMu       sync.RWMutex
	entryLimiters map[string]*principalLimiter

	stopCh chan struct{}
}

// NewRateLimiter は新しいRateLimiterを生成する。
// バックグラウンドで期限切れエントリのクリーンアップを開始する。
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	rl := &RateLimiter{
		config:          config,
		generalLimiters: make(map[string]*principalLimiter),
		entryLimiters:   make(map[string]*principalLimiter),
		stopCh:          make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Stop はクリーンアップのバックグラウンドゴルーチンを停止する。
func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
}

// limiterKey はレート制限のキーを返す。
// 認証済みならPrincipalのID、匿名なら接続元IPアドレス。
func limiterKey(r *http.Request) string {
	p := PrincipalFromContext(r.Context())
	if !p.IsAnonymous() && p.ID != "" {
		return string(p.Kind) + ":" + p.ID
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return "ip:" + r.RemoteAddr
	}
	return "ip:" + host
}

// GeneralMiddleware はAPI全般のレート制限ミドルウェアを返す。
// SessionMiddlewareの後に配置する。
func (rl *RateLimiter) GeneralMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := limiterKey(r)
			limiter := rl.getOrCreate(&rl.generalMu, rl.generalLimiters, key, rl.config.GeneralRate, rl.config.GeneralBurst)

			if !limiter.Allow() {
				writeRateLimitResponse(w, rl.config.GeneralRate)
				slog.Warn("rate limit exceeded",
					slog.String("key", key),
					slog.String("limit_type", "general"),
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// EntrySubmissionMiddleware は応募送信専用のレート制限ミドルウェアを返す。
// API全般のレート制限とは独立に動作する。
func (rl *RateLimiter) EntrySubmissionMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := limiterKey(r)
			limiter := rl.getOrCreate(&rl.entryMu, rl.entryLimiters, key, rl.config.EntryRate, rl.config.EntryBurst)

			if !limiter.Allow() {
				writeRateLimitResponse(w, rl.config.EntryRate)
				slog.Warn("rate limit exceeded",
					slog.String("key", key),
					slog.String("limit_type", "entry_submission"),
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GeneralLimiterCount は現在管理されているAPI全般リミッターのエントリ数を返す。
// テストおよびメトリクス用。
func (rl *RateLimiter) GeneralLimiterCount() int {
	rl.generalMu.RLock()
	defer rl.generalMu.RUnlock()
	return len(rl.generalLimiters)
}

// EntryLimiterCount は現在管理されている応募送信リミッターのエントリ数を返す。
// テストおよびメトリクス用。
func (rl *RateLimiter) EntryLimiterCount() int {
	rl.entryMu.RLock()
	defer rl.entryMu.RUnlock()
	return len(rl.entryLimiters)
}

// getOrCreate は主体のリミッターを取得または作成する。
func (rl *RateLimiter) getOrCreate(mu *sync.RWMutex, limiters map[string]*principalLimiter, key string, r rate.Limit, burst int) *rate.Limiter {
	mu.RLock()
	pl, exists := limiters[key]
	mu.RUnlock()

	if exists {
		mu.Lock()
		pl.lastAccess = time.Now()
		mu.Unlock()
		return pl.limiter
	}

	mu.Lock()
	defer mu.Unlock()

	// ダブルチェック
	if pl, exists := limiters[key]; exists {
		pl.lastAccess = time.Now()
		return pl.limiter
	}

	limiter := rate.NewLimiter(r, burst)
	limiters[key] = &principalLimiter{
		limiter:    limiter,
		lastAccess: time.Now(),
	}

	return limiter
}

// cleanupLoop はバックグラウンドで期限切れエントリを定期的にクリーンアップする。
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCh:
			return
		}
	}
}

// cleanup は最終アクセス時刻がCleanupIntervalの2倍を超えたエントリを削除する。
func (rl *RateLimiter) cleanup() {
	ttl := rl.config.CleanupInterval * 2

	now := time.Now()

	rl.generalMu.Lock()
	for key, pl := range rl.generalLimiters {
		if now.Sub(pl.lastAccess) > ttl {
			delete(rl.generalLimiters, key)
		}
	}
	rl.generalMu.Unlock()

	rl.entryMu.Lock()
	for key, pl := range rl.entryLimiters {
		if now.Sub(pl.lastAccess) > ttl {
			delete(rl.entryLimiters, key)
		}
	}
	rl.entryMu.Unlock()
}

// writeRateLimitResponse は429 Too Many Requestsレスポンスを書き込む。
// Retry-Afterヘッダーにはトークンが補充されるまでの推定秒数を設定する。
func writeRateLimitResponse(w http.ResponseWriter, r rate.Limit) {
	retryAfterSec := int(math.Ceil(1.0 / float64(r)))
	if retryAfterSec < 1 {
		retryAfterSec = 1
	}

	w.Header().Set("Retry-After", strconv.Itoa(retryAfterSec))
	writeErrorJSON(w, http.StatusTooManyRequests, "リクエストが多すぎます。しばらくしてから再度お試しください")
}
