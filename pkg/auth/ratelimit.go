package auth

import (
	"context"
	"sync"
	"time"
)

// RateLimiter decides whether an authenticated request may proceed.
// Implementations fail open: a broken limiter must not take the service
// down with it.
type RateLimiter interface {
	Allow(ctx context.Context, identity *Identity) error
}

// TierConfig carries the request budget for one service tier.
type TierConfig struct {
	RequestsPerMinute int
}

// sweepEvery bounds how often the limiter scans for expired windows.
const sweepEvery = 5 * time.Minute

// InProcessLimiter enforces fixed one-minute windows per subject and tier,
// entirely in memory. Counts reset on restart; for a single-process
// deployment that is the accepted trade.
type InProcessLimiter struct {
	tiers      map[string]TierConfig
	defaultRPM int

	mu      sync.Mutex
	windows map[string]*window
	sweepAt time.Time
}

type window struct {
	startedAt time.Time
	used      int
}

// NewInProcessLimiter builds a limiter from per-tier budgets. Tiers missing
// from the map fall back to defaultRPM; a budget <= 0 disables limiting for
// that tier.
func NewInProcessLimiter(tiers map[string]TierConfig, defaultRPM int) *InProcessLimiter {
	return &InProcessLimiter{
		tiers:      tiers,
		defaultRPM: defaultRPM,
		windows:    make(map[string]*window),
		sweepAt:    time.Now().Add(sweepEvery),
	}
}

// Allow counts the request against the subject's current window and rejects
// with ErrTooManyRequests once the tier budget is spent.
func (l *InProcessLimiter) Allow(_ context.Context, identity *Identity) error {
	tier := identity.ServiceTier
	if tier == "" {
		tier = "default"
	}
	budget := l.defaultRPM
	if tc, ok := l.tiers[tier]; ok {
		budget = tc.RequestsPerMinute
	}
	if budget <= 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	l.maybeSweep(now)

	key := identity.Subject + ":" + tier
	w := l.windows[key]
	if w == nil || now.Sub(w.startedAt) >= time.Minute {
		l.windows[key] = &window{startedAt: now, used: 1}
		return nil
	}
	w.used++
	if w.used > budget {
		return ErrTooManyRequests
	}
	return nil
}

// maybeSweep drops windows that ended over a minute ago so the map does not
// keep one entry per user forever. Caller holds mu.
func (l *InProcessLimiter) maybeSweep(now time.Time) {
	if now.Before(l.sweepAt) {
		return
	}
	for key, w := range l.windows {
		if now.Sub(w.startedAt) >= 2*time.Minute {
			delete(l.windows, key)
		}
	}
	l.sweepAt = now.Add(sweepEvery)
}
