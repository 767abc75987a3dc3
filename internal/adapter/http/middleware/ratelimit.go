package middleware

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"campus-ledger/internal/core/ports"
	"campus-ledger/pkg/apperror"
	"campus-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// RateLimitRule defines a rate limit for an endpoint group.
type RateLimitRule struct {
	Limit  int64
	Window time.Duration
}

// DefaultRateLimitRules returns the rate limits per endpoint group.
func DefaultRateLimitRules() map[string]RateLimitRule {
	return map[string]RateLimitRule{
		"auth_register": {Limit: 5, Window: time.Hour},
		"auth_login":    {Limit: 10, Window: time.Minute},
		"claim":         {Limit: 20, Window: time.Minute},
		"purchase":      {Limit: 30, Window: time.Minute},
		"admin":         {Limit: 60, Window: time.Minute},
		"read":          {Limit: 120, Window: time.Minute},
	}
}

// localLimiters is the per-instance fallback used while the shared store errors.
type localLimiters struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rule     RateLimitRule
}

const maxLocalKeys = 10000

func newLocalLimiters(rule RateLimitRule) *localLimiters {
	return &localLimiters{limiters: make(map[string]*rate.Limiter), rule: rule}
}

func (l *localLimiters) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.limiters[key]
	if !ok {
		if len(l.limiters) >= maxLocalKeys {
			l.limiters = make(map[string]*rate.Limiter)
		}
		every := l.rule.Window / time.Duration(max(l.rule.Limit, 1))
		lim = rate.NewLimiter(rate.Every(every), int(l.rule.Limit))
		l.limiters[key] = lim
	}
	return lim.Allow()
}

// RateLimiter creates a rate-limiting middleware for a given endpoint group.
func RateLimiter(store ports.RateLimitStore, group string, rule RateLimitRule, log zerolog.Logger) gin.HandlerFunc {
	fallback := newLocalLimiters(rule)

	return func(c *gin.Context) {
		key := fmt.Sprintf("%s:%s", extractIdentifier(c), group)

		result, err := store.Allow(c.Request.Context(), key, rule.Limit, rule.Window)
		if err != nil {
			log.Warn().Err(err).Str("group", group).Msg("rate limit store unavailable, using local limiter")
			if !fallback.allow(key) {
				c.Header("Retry-After", strconv.FormatInt(int64(rule.Window.Seconds())/max(rule.Limit, 1)+1, 10))
				response.Error(c, apperror.ErrRateLimitExceeded())
				c.Abort()
				return
			}
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(result.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt, 10))

		if !result.Allowed {
			retryAfter := result.ResetAt - time.Now().Unix()
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.FormatInt(retryAfter, 10))
			response.Error(c, apperror.ErrRateLimitExceeded())
			c.Abort()
			return
		}

		c.Next()
	}
}

// extractIdentifier keys authenticated callers by user and everyone else by IP.
func extractIdentifier(c *gin.Context) string {
	if id, ok := UserID(c); ok {
		return "user:" + id.String()
	}
	return "ip:" + c.ClientIP()
}
