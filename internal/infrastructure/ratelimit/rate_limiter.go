package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	ActionSendMessage = "send_message"
	ActionSearch      = "search"
	ActionCreateMatch = "create_match"
	ActionQueueWrite  = "queue_write"
)

// Policy allows one event every Every with bursts of up to Burst.
type Policy struct {
	Every time.Duration
	Burst int
}

var defaultPolicies = map[string]Policy{
	// 10 messages per minute
	ActionSendMessage: {Every: 6 * time.Second, Burst: 10},
	ActionSearch:      {Every: 2 * time.Second, Burst: 5},
	ActionCreateMatch: {Every: 3 * time.Second, Burst: 5},
	ActionQueueWrite:  {Every: 5 * time.Second, Burst: 1},
}

var fallbackPolicy = Policy{Every: 3 * time.Second, Burst: 20}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per user and action.
type RateLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	policies map[string]Policy
	now      func() time.Time
}

type Option func(*RateLimiter)

func WithClock(now func() time.Time) Option {
	return func(rl *RateLimiter) {
		rl.now = now
	}
}

// WithPolicy overrides the policy of action. A zero Every disables limiting.
func WithPolicy(action string, p Policy) Option {
	return func(rl *RateLimiter) {
		rl.policies[action] = p
	}
}

func NewRateLimiter(opts ...Option) *RateLimiter {
	rl := &RateLimiter{
		buckets:  make(map[string]*bucket),
		policies: make(map[string]Policy, len(defaultPolicies)),
		now:      time.Now,
	}
	for action, p := range defaultPolicies {
		rl.policies[action] = p
	}
	for _, opt := range opts {
		opt(rl)
	}
	return rl
}

// Allow consumes a token for the user's action. When none is available it
// reports how long until the next one.
func (rl *RateLimiter) Allow(userID, action string) (bool, time.Duration) {
	now := rl.now()
	lim := rl.limiter(userID, action, now)

	r := lim.ReserveN(now, 1)
	if !r.OK() {
		return false, 0
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

func (rl *RateLimiter) limiter(userID, action string, now time.Time) *rate.Limiter {
	key := userID + ":" + action

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[key]
	if !ok {
		p, ok := rl.policies[action]
		if !ok {
			p = fallbackPolicy
		}
		limit := rate.Inf
		if p.Every > 0 {
			limit = rate.Every(p.Every)
		}
		burst := p.Burst
		if burst < 1 {
			burst = 1
		}
		b = &bucket{limiter: rate.NewLimiter(limit, burst)}
		rl.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter
}

// Cleanup drops buckets unused for longer than idle and returns how many
// were removed.
func (rl *RateLimiter) Cleanup(idle time.Duration) int {
	cutoff := rl.now().Add(-idle)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	removed := 0
	for key, b := range rl.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(rl.buckets, key)
			removed++
		}
	}
	return removed
}
