// Package middleware holds the gin middleware shared by the public
// API: per-client rate limiting and the admin token gate.
package middleware

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiterConfig tunes per-client request limiting.
type RateLimiterConfig struct {
	RequestsPerSecond float64
	BurstSize         int
	CleanupInterval   time.Duration
}

// DefaultRateLimiterConfig suits the registration and status endpoints:
// generous enough for dashboards polling, tight enough to keep a
// misbehaving agent script from hammering the API.
var DefaultRateLimiterConfig = RateLimiterConfig{
	RequestsPerSecond: 10.0,
	BurstSize:         20,
	CleanupInterval:   5 * time.Minute,
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter tracks one token bucket per client address.
type RateLimiter struct {
	mu          sync.Mutex
	limiters    map[string]*clientLimiter
	config      RateLimiterConfig
	stopCleanup chan struct{}
}

// NewRateLimiter starts a limiter with background cleanup of idle
// client buckets.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	rl := &RateLimiter{
		limiters:    make(map[string]*clientLimiter),
		config:      config,
		stopCleanup: make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Allow reports whether a request from clientID may proceed.
func (rl *RateLimiter) Allow(clientID string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, exists := rl.limiters[clientID]
	if !exists {
		limiter = &clientLimiter{
			limiter: rate.NewLimiter(rate.Limit(rl.config.RequestsPerSecond), rl.config.BurstSize),
		}
		rl.limiters[clientID] = limiter
	}
	limiter.lastSeen = time.Now()
	return limiter.limiter.Allow()
}

// LimiterCount returns the number of tracked clients.
func (rl *RateLimiter) LimiterCount() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCleanup:
			return
		}
	}
}

func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-rl.config.CleanupInterval)
	removed := 0
	for clientID, limiter := range rl.limiters {
		if limiter.lastSeen.Before(cutoff) {
			delete(rl.limiters, clientID)
			removed++
		}
	}
	if removed > 0 {
		log.Printf("[RATELIMIT] cleaned up %d inactive client limiters", removed)
	}
}

// Stop ends the cleanup goroutine.
func (rl *RateLimiter) Stop() {
	close(rl.stopCleanup)
}

// Handler enforces the limit per client IP.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := c.ClientIP()
		if !rl.Allow(clientID) {
			log.Printf("[RATELIMIT] rate limit exceeded for %s", clientID)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

// BattleActionLimiter throttles moves on battle sockets, tighter than
// the HTTP limit so a client cannot spam the board.
type BattleActionLimiter struct {
	*RateLimiter
}

func NewBattleActionLimiter() *BattleActionLimiter {
	return &BattleActionLimiter{RateLimiter: NewRateLimiter(RateLimiterConfig{
		RequestsPerSecond: 5.0,
		BurstSize:         10,
		CleanupInterval:   5 * time.Minute,
	})}
}

// AllowAction reports whether a socket identified by clientID may play.
func (bl *BattleActionLimiter) AllowAction(clientID string) bool {
	allowed := bl.Allow(clientID)
	if !allowed {
		log.Printf("[RATELIMIT] battle action limit exceeded for %s", clientID)
	}
	return allowed
}
