package ratelimiter

import (
	"math"
	"sync"
	"time"

	"github.com/SeakMengs/AutoCertLMS/internal/config"
	"go.uber.org/zap"
)

type window struct {
	start time.Time
	count int
}

// FixedWindowRateLimiter allows RequestsPerTimeFrame requests per key in each TimeFrame.
type FixedWindowRateLimiter struct {
	sync.Mutex
	clients map[string]*window
	limit   int
	frame   time.Duration
	enabled bool
	logger  *zap.SugaredLogger
	now     func() time.Time
}

func NewFixedWindowLimiter(cfg config.RateLimiterConfig, logger *zap.SugaredLogger) *FixedWindowRateLimiter {
	return &FixedWindowRateLimiter{
		clients: make(map[string]*window),
		limit:   cfg.RequestsPerTimeFrame,
		frame:   cfg.TimeFrame,
		enabled: cfg.Enabled && cfg.RequestsPerTimeFrame > 0 && cfg.TimeFrame > 0,
		logger:  logger,
		now:     time.Now,
	}
}

func (rl *FixedWindowRateLimiter) Enabled() bool {
	return rl.enabled
}

// Allow records a request for key. When refused it also returns the seconds until the window resets.
func (rl *FixedWindowRateLimiter) Allow(key string) (bool, int) {
	if !rl.enabled {
		return true, 0
	}

	rl.Lock()
	defer rl.Unlock()

	now := rl.now()
	w, ok := rl.clients[key]
	if !ok || now.Sub(w.start) >= rl.frame {
		rl.clients[key] = &window{start: now, count: 1}
		rl.sweep(now)
		return true, 0
	}

	if w.count < rl.limit {
		w.count++
		return true, 0
	}

	retryAfter := int(math.Ceil(w.start.Add(rl.frame).Sub(now).Seconds()))
	rl.logger.Debugf("Rate limit exceeded for %s, retry after %ds", key, retryAfter)
	return false, retryAfter
}

// sweep drops expired windows; must be called with the lock held.
func (rl *FixedWindowRateLimiter) sweep(now time.Time) {
	for k, w := range rl.clients {
		if now.Sub(w.start) >= rl.frame {
			delete(rl.clients, k)
		}
	}
}
