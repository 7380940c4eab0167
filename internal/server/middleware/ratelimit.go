package middleware

import (
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/time/rate"

	"github.com/iudanet/docsync/pkg/api"
)

// RateLimiter держит token bucket из golang.org/x/time/rate на каждый ключ клиента.
type RateLimiter struct {
	buckets  map[string]*bucket
	cleanupC chan struct{}
	now      func() time.Time
	rps      rate.Limit
	burst    int
	idle     time.Duration
	mu       sync.Mutex
	stopOnce sync.Once
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter создает лимитер со средней частотой rps и пачкой burst.
// Фоновая очистка неактивных ключей работает до вызова Stop.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	rl := &RateLimiter{
		buckets:  make(map[string]*bucket),
		rps:      rate.Limit(rps),
		burst:    max(1, burst),
		idle:     idleTimeout(rps, max(1, burst)),
		now:      time.Now,
		cleanupC: make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

// idleTimeout время, за которое пустой bucket гарантированно наполняется
func idleTimeout(rps float64, burst int) time.Duration {
	if rps <= 0 {
		return time.Minute
	}
	return max(time.Minute, time.Duration(float64(burst)/rps*float64(time.Second)))
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.idle)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.evictIdle()
		case <-rl.cleanupC:
			return
		}
	}
}

// evictIdle удаляет ключи, не появлявшиеся дольше idle.
// Их buckets уже полны, так что лимит от удаления не меняется.
func (rl *RateLimiter) evictIdle() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for key, b := range rl.buckets {
		if now.Sub(b.lastSeen) > rl.idle {
			delete(rl.buckets, key)
		}
	}
}

// Stop останавливает фоновую очистку. Повторный вызов безопасен.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.cleanupC) })
}

// Allow расходует токен ключа. При отказе возвращает, через сколько
// запрос будет принят.
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	now := rl.now()

	rl.mu.Lock()
	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.buckets[key] = b
	}
	b.lastSeen = now
	rl.mu.Unlock()

	res := b.limiter.ReserveN(now, 1)
	if !res.OK() {
		return false, time.Second
	}
	delay := res.DelayFrom(now)
	if delay == 0 {
		return true, 0
	}
	res.CancelAt(now)
	return false, delay
}

// PathRateLimit отдельный лимит для конкретного пути
type PathRateLimit struct {
	Path  string
	RPS   float64
	Burst int
}

// RateLimitByPathMiddleware ограничивает запросы по ключу ClientKey.
// Пути из limits получают собственные лимитеры, остальные делят общий.
// Возвращает функцию остановки всех созданных лимитеров.
func RateLimitByPathMiddleware(limits []PathRateLimit, defaultRPS float64, defaultBurst int, logger *slog.Logger) (func(http.Handler) http.Handler, func()) {
	byPath := make(map[string]*RateLimiter, len(limits))
	for _, l := range limits {
		byPath[l.Path] = NewRateLimiter(l.RPS, l.Burst)
	}
	fallback := NewRateLimiter(defaultRPS, defaultBurst)

	stop := func() {
		for _, l := range byPath {
			l.Stop()
		}
		fallback.Stop()
	}

	mw := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limiter, ok := byPath[r.URL.Path]
			if !ok {
				limiter = fallback
			}

			key := ClientKey(r)
			if allowed, wait := limiter.Allow(key); !allowed {
				logger.Warn("Rate limit exceeded",
					"client", key,
					"ip", clientIP(r),
					"method", r.Method,
					"path", r.URL.Path,
					"retry_after", wait,
				)
				writeTooManyRequests(w, wait)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
	return mw, stop
}

func writeTooManyRequests(w http.ResponseWriter, wait time.Duration) {
	seconds := max(1, int(math.Ceil(wait.Seconds())))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", strconv.Itoa(seconds))
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(api.ErrorResponse{
		Error:   http.StatusText(http.StatusTooManyRequests),
		Message: "rate limit exceeded, please try again later",
	})
}

// ClientKey ключ лимита. Запрос с токеном сессии считается на устройство,
// чтобы устройства за одним NAT не делили bucket; остальные считаются по IP.
// Токен в памяти не хранится, только префикс его blake2b хэша.
func ClientKey(r *http.Request) string {
	token, _ := bearerToken(r.Header.Get("Authorization"))
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		return "ip:" + clientIP(r)
	}
	sum := blake2b.Sum256([]byte(token))
	return "session:" + hex.EncodeToString(sum[:8])
}

// clientIP учитывает X-Forwarded-For и X-Real-IP от обратного прокси
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
