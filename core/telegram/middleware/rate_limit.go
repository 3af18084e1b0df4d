package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/kinobot/core/logger"
	tghelpers "github.com/m3rciful/kinobot/core/telegram/helpers"

	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v4"
)

// RateLimitOptions configures RateLimitMiddleware.
type RateLimitOptions struct {
	// Interval is the minimum gap between two updates of one user.
	Interval time.Duration
	// Exclude lists update kinds (see UpdateKind) that are never limited.
	Exclude map[string]struct{}
	// OnLimited runs for every dropped update, e.g. to tell the user.
	OnLimited tele.HandlerFunc
}

// UpdateKind names the update type the way rate limit exclusions spell it.
func UpdateKind(upd tele.Update) string {
	switch {
	case upd.Callback != nil:
		return "callback"
	case upd.Query != nil:
		return "inline_query"
	case upd.Message != nil:
		return "message"
	}
	return "other"
}

// userBuckets hands out one single-token bucket per user. Buckets idle for
// more than a minute past their refill are swept on the next lookup after
// a sweep interval.
type userBuckets struct {
	mu        sync.Mutex
	every     rate.Limit
	buckets   map[int64]*bucket
	lastSweep time.Time
}

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

func (u *userBuckets) allow(id int64, now time.Time) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	if now.Sub(u.lastSweep) > time.Minute {
		for k, b := range u.buckets {
			if now.Sub(b.seen) > time.Minute {
				delete(u.buckets, k)
			}
		}
		u.lastSweep = now
	}
	b, ok := u.buckets[id]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(u.every, 1)}
		u.buckets[id] = b
	}
	b.seen = now
	return b.lim.AllowN(now, 1)
}

// RateLimitMiddleware drops updates that arrive closer than Interval to the
// previous one from the same user.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	buckets := &userBuckets{every: rate.Every(opts.Interval), buckets: make(map[int64]*bucket)}
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || opts.Interval <= 0 {
				return next(c)
			}
			if _, skip := opts.Exclude[UpdateKind(c.Update())]; skip {
				return next(c)
			}
			if buckets.allow(user.ID, time.Now()) {
				return next(c)
			}
			logger.LogEvent(tghelpers.BuildContext(c), logger.TG, slog.LevelWarn, "tg.rate_limit",
				slog.String("kind", UpdateKind(c.Update())),
			)
			if opts.OnLimited != nil {
				_ = opts.OnLimited(c)
			}
			return nil
		}
	}
}
