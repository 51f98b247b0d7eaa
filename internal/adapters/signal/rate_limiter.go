package signal

import (
	"sync"
	"time"

	"github.com/Sumansah07/Full-stack-Video-Calling-App/internal/domain"
)

// CallRateLimiter is a sliding-window limit on call attempts per user.
type CallRateLimiter struct {
	mu        sync.Mutex
	history   map[domain.UserID][]time.Time
	limit     int
	interval  time.Duration
	lastSweep time.Time

	now func() time.Time
}

func NewCallRateLimiter(limit int, interval time.Duration) *CallRateLimiter {
	if interval <= 0 {
		interval = time.Minute
	}
	return &CallRateLimiter{
		history:  make(map[domain.UserID][]time.Time),
		limit:    limit,
		interval: interval,
		now:      time.Now,
	}
}

func (rl *CallRateLimiter) Allow(uid domain.UserID) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	windowStart := now.Add(-rl.interval)
	rl.sweepLocked(now, windowStart)

	attempts := rl.history[uid]
	fresh := make([]time.Time, 0, len(attempts)+1)
	for _, t := range attempts {
		if t.After(windowStart) {
			fresh = append(fresh, t)
		}
	}

	if len(fresh) >= rl.limit {
		if len(fresh) == 0 {
			delete(rl.history, uid)
		} else {
			rl.history[uid] = fresh
		}
		return false
	}

	rl.history[uid] = append(fresh, now)
	return true
}

// sweepLocked drops users with no attempt inside the window, at most once per interval.
func (rl *CallRateLimiter) sweepLocked(now, windowStart time.Time) {
	if now.Sub(rl.lastSweep) < rl.interval {
		return
	}
	rl.lastSweep = now
	for uid, attempts := range rl.history {
		if len(attempts) == 0 || !attempts[len(attempts)-1].After(windowStart) {
			delete(rl.history, uid)
		}
	}
}
