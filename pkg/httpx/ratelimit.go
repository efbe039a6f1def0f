// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package httpx

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// maxQuotaBurst bounds the burst derived from a server quota so a large
// remaining budget is never spent in one spike.
const maxQuotaBurst = 5

// RateLimiter is a token bucket whose limits can be retuned while requests
// are in flight.
type RateLimiter struct {
	limiter     *rate.Limiter
	mu          sync.RWMutex
	pausedUntil time.Time
}

// NewRateLimiter creates a RateLimiter allowing rps requests per second with
// the given burst.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Wait blocks until a request may proceed or ctx is done. Limits may be
// updated while callers are waiting.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if d := rl.pauseRemaining(); d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return rl.limiter.Wait(ctx)
}

func (rl *RateLimiter) pauseRemaining() time.Duration {
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	if rl.pausedUntil.IsZero() {
		return 0
	}
	return time.Until(rl.pausedUntil)
}

// UpdateLimits replaces the rate and burst.
func (rl *RateLimiter) UpdateLimits(rps float64, burst int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.limiter.SetLimit(rate.Limit(rps))
	rl.limiter.SetBurst(burst)
}

// Burst returns the current bucket size.
func (rl *RateLimiter) Burst() int {
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	return rl.limiter.Burst()
}

// Limit returns the current rate in requests per second.
func (rl *RateLimiter) Limit() float64 {
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	return float64(rl.limiter.Limit())
}

// UpdateFromQuota spreads the remaining quota evenly until reset, keeping a
// 10% margin. An exhausted quota pauses Wait until reset. Incomplete quota
// information leaves the limits unchanged.
func (rl *RateLimiter) UpdateFromQuota(remaining, limit int, reset time.Time) {
	if limit <= 0 || reset.IsZero() {
		return
	}
	window := time.Until(reset)
	if window <= 0 {
		return
	}
	if remaining <= 0 {
		rl.mu.Lock()
		rl.pausedUntil = reset
		rl.mu.Unlock()
		return
	}

	rps := float64(remaining) / window.Seconds()
	burst := min(max(remaining/10, 1), maxQuotaBurst)

	rl.mu.Lock()
	rl.pausedUntil = time.Time{}
	rl.mu.Unlock()
	rl.UpdateLimits(rps*0.9, burst)
}
