package service

import (
	"context"
	"strconv"
	"time"

	"github.com/arenaforge/gameapi/cache"
	"go.uber.org/zap"
)

const loginFailPrefix = "login_fail:"

// LoginLimiter counts failed logins per email in a fixed window. It counts
// unknown emails too, so a lockout says nothing about whether an account exists.
type LoginLimiter struct {
	cache  cache.Cache
	max    int
	window time.Duration
	logger *zap.Logger
}

// NewLoginLimiter returns a limiter allowing max failures per window.
// max <= 0 disables it.
func NewLoginLimiter(c cache.Cache, max int, window time.Duration, logger *zap.Logger) *LoginLimiter {
	return &LoginLimiter{cache: c, max: max, window: window, logger: logger}
}

func (l *LoginLimiter) enabled() bool {
	return l != nil && l.max > 0 && l.cache != nil
}

// Locked reports whether email has exhausted its failures for the window.
// Cache errors fail open.
func (l *LoginLimiter) Locked(ctx context.Context, email string) bool {
	if !l.enabled() {
		return false
	}
	v, err := l.cache.Get(ctx, loginFailPrefix+email)
	if err != nil {
		if !cache.IsNotFound(err) {
			l.logger.Warn("login limiter read failed", zap.Error(err))
		}
		return false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return false
	}
	return n >= l.max
}

// RecordFailure counts one failed attempt.
func (l *LoginLimiter) RecordFailure(ctx context.Context, email string) {
	if !l.enabled() {
		return
	}
	if _, err := l.cache.Incr(ctx, loginFailPrefix+email, l.window); err != nil {
		l.logger.Warn("login limiter write failed", zap.Error(err))
	}
}

// Reset clears the counter after a successful login.
func (l *LoginLimiter) Reset(ctx context.Context, email string) {
	if !l.enabled() {
		return
	}
	if err := l.cache.Del(ctx, loginFailPrefix+email); err != nil {
		l.logger.Warn("login limiter reset failed", zap.Error(err))
	}
}
