// Package ratelimit paces outbound portal requests so a refresh never
// hammers the source site.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter enforces sliding-window request budgets per minute and per hour.
// A zero limit disables that window.
type Limiter struct {
	perMinute int
	perHour   int
	enabled   bool
	now       func() time.Time

	mu           sync.Mutex
	minuteWindow []time.Time
	hourWindow   []time.Time
}

func New(perMinute, perHour int, enabled bool) *Limiter {
	return &Limiter{
		perMinute: perMinute,
		perHour:   perHour,
		enabled:   enabled,
		now:       time.Now,
	}
}

// NewWithClock injects a clock for tests.
func NewWithClock(perMinute, perHour int, enabled bool, now func() time.Time) *Limiter {
	l := New(perMinute, perHour, enabled)
	l.now = now
	return l
}

// Allow records one request if the budgets permit it.
func (l *Limiter) Allow() bool {
	if !l.enabled {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.prune(now)

	if l.perMinute > 0 && len(l.minuteWindow) >= l.perMinute {
		return false
	}
	if l.perHour > 0 && len(l.hourWindow) >= l.perHour {
		return false
	}

	l.minuteWindow = append(l.minuteWindow, now)
	l.hourWindow = append(l.hourWindow, now)
	return true
}

// Wait blocks until a request slot opens or the context is cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	for {
		if l.Allow() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
		}
	}
}

func (l *Limiter) prune(now time.Time) {
	l.minuteWindow = dropBefore(l.minuteWindow, now.Add(-time.Minute))
	l.hourWindow = dropBefore(l.hourWindow, now.Add(-time.Hour))
}

// dropBefore keeps only times after the cutoff. Windows are append-only and
// chronological, so the first survivor marks the tail to keep.
func dropBefore(times []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(times) && !times[i].After(cutoff) {
		i++
	}
	return times[i:]
}

// Stats is a point-in-time view of the limiter for the dashboard.
type Stats struct {
	Enabled            bool `json:"enabled"`
	RequestsLastMinute int  `json:"requests_last_minute"`
	RequestsLastHour   int  `json:"requests_last_hour"`
	LimitPerMinute     int  `json:"limit_per_minute"`
	LimitPerHour       int  `json:"limit_per_hour"`
	RemainingMinute    int  `json:"remaining_minute"`
	RemainingHour      int  `json:"remaining_hour"`
}

func (l *Limiter) GetStats() Stats {
	if !l.enabled {
		return Stats{Enabled: false}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.prune(l.now())

	remaining := func(limit, used int) int {
		if limit <= 0 {
			return 0
		}
		if used > limit {
			return 0
		}
		return limit - used
	}

	return Stats{
		Enabled:            true,
		RequestsLastMinute: len(l.minuteWindow),
		RequestsLastHour:   len(l.hourWindow),
		LimitPerMinute:     l.perMinute,
		LimitPerHour:       l.perHour,
		RemainingMinute:    remaining(l.perMinute, len(l.minuteWindow)),
		RemainingHour:      remaining(l.perHour, len(l.hourWindow)),
	}
}

// Reset clears all tracked requests.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.minuteWindow = nil
	l.hourWindow = nil
}
