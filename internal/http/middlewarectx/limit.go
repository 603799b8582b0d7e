package middlewarectx

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/render"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/learnify-backend/internal/config"
	"github.com/magabrotheeeer/learnify-backend/internal/http/response"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter ограничивает число запросов с одного IP: не более Max за Window.
type RateLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	lastSweep time.Time
	every     rate.Limit
	burst     int
	window    time.Duration
	now       func() time.Time
	log       *slog.Logger
}

// NewRateLimiter создаёт ограничитель по настройкам cfg.
func NewRateLimiter(cfg config.RateLimit, log *slog.Logger) *RateLimiter {
	window, limit := cfg.Window, cfg.Max
	if window <= 0 {
		window = 15 * time.Minute
	}
	if limit <= 0 {
		limit = 100
	}
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		every:    rate.Every(window / time.Duration(limit)),
		burst:    limit,
		window:   window,
		now:      time.Now,
		log:      log,
	}
}

func (l *RateLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.every, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now

	l.sweep(now)
	return v.limiter.AllowN(now, 1)
}

// sweep удаляет адреса, неактивные дольше окна. Проход по всем адресам
// выполняется не чаще одного раза за окно.
func (l *RateLimiter) sweep(now time.Time) {
	if l.lastSweep.IsZero() {
		l.lastSweep = now
		return
	}
	if now.Sub(l.lastSweep) < l.window {
		return
	}
	l.lastSweep = now
	for k, v := range l.visitors {
		if now.Sub(v.lastSeen) > l.window {
			delete(l.visitors, k)
		}
	}
}

// Middleware отвечает 429, если лимит для адреса клиента исчерпан.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !l.allow(ip) {
			l.log.Warn("too many requests", slog.String("ip", ip))
			w.Header().Set("Retry-After", strconv.Itoa(int(l.window.Seconds())))
			render.Status(r, http.StatusTooManyRequests)
			render.JSON(w, r, response.Error("too many requests from this IP, please try again later"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
