// Package ratelimit — ограничение частоты запросов на клиента (IP, чат) по token bucket.
package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

const (
	cleanupEvery = 5 * time.Minute
	staleAfter   = 10 * time.Minute
)

// Limiter держит по ведру на ключ. Нулевой rpm отключает ограничение.
type Limiter struct {
	buckets sync.Map // key -> *bucket
	r       rate.Limit
	burst   int
	now     func() time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64 // unix nano
}

// New — rpm запросов в минуту, burst — допустимый всплеск.
func New(rpm, burst int) *Limiter {
	if burst <= 0 {
		burst = 5
	}
	r := rate.Limit(0)
	if rpm > 0 {
		r = rate.Limit(float64(rpm) / 60.0)
	}
	return &Limiter{r: r, burst: burst, now: time.Now}
}

func (l *Limiter) Enabled() bool { return l != nil && l.r > 0 }

// Allow списывает токен для key; false — лимит исчерпан.
func (l *Limiter) Allow(key string) bool {
	if !l.Enabled() {
		return true
	}
	now := l.now()
	b := l.get(key, now)
	b.lastSeen.Store(now.UnixNano())
	if !b.limiter.AllowN(now, 1) {
		slog.Warn("rate limited", "key", key)
		return false
	}
	return true
}

// RetryAfter — через сколько у key появится следующий токен.
func (l *Limiter) RetryAfter(key string) time.Duration {
	if !l.Enabled() {
		return 0
	}
	now := l.now()
	b := l.get(key, now)
	tokens := b.limiter.TokensAt(now)
	if tokens >= 1 {
		return 0
	}
	return time.Duration((1 - tokens) / float64(l.r) * float64(time.Second))
}

func (l *Limiter) get(key string, now time.Time) *bucket {
	if v, ok := l.buckets.Load(key); ok {
		return v.(*bucket)
	}
	b := &bucket{limiter: rate.NewLimiter(l.r, l.burst)}
	b.lastSeen.Store(now.UnixNano())
	actual, _ := l.buckets.LoadOrStore(key, b)
	return actual.(*bucket)
}

// Run периодически выбрасывает давно неактивные ключи, пока жив ctx.
func (l *Limiter) Run(ctx context.Context) {
	if !l.Enabled() {
		return
	}
	t := time.NewTicker(cleanupEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			l.cleanup()
		}
	}
}

func (l *Limiter) cleanup() int {
	cutoff := l.now().Add(-staleAfter).UnixNano()
	n := 0
	l.buckets.Range(func(key, value any) bool {
		if value.(*bucket).lastSeen.Load() < cutoff {
			l.buckets.Delete(key)
			n++
		}
		return true
	})
	if n > 0 {
		slog.Debug("rate limiter cleanup", "removed", n)
	}
	return n
}
