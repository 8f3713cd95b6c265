package middleware

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/ChrisThompsonK/team2-job-app-backend/internal/api"
)

// AttemptStore tracks request attempts per key over a sliding window.
// The login limiter depends on this interface so tests can substitute
// a deterministic store, and a shared-state implementation can replace
// the in-memory one without touching the middleware.
type AttemptStore interface {
	// Allow records an attempt for key and reports whether it is
	// within the limit.
	Allow(key string) bool
	// Remaining returns the number of attempts left for key.
	Remaining(key string) int
	// ResetAt returns when the oldest counted attempt falls out of
	// the window.
	ResetAt(key string) time.Time
}

// MemoryAttemptStore implements a simple in-memory sliding-window
// attempt store.
type MemoryAttemptStore struct {
	mu       sync.RWMutex
	attempts map[string][]time.Time
	limit    int
	window   time.Duration
}

// NewMemoryAttemptStore creates a new attempt store and starts its
// cleanup goroutine
func NewMemoryAttemptStore(limit int, window time.Duration) *MemoryAttemptStore {
	s := &MemoryAttemptStore{
		attempts: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
	}

	go s.cleanup()

	return s
}

// Allow checks if an attempt is allowed for the given key
func (s *MemoryAttemptStore) Allow(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	windowStart := now.Add(-s.window)

	var valid []time.Time
	for _, t := range s.attempts[key] {
		if t.After(windowStart) {
			valid = append(valid, t)
		}
	}

	if len(valid) >= s.limit {
		s.attempts[key] = valid
		return false
	}

	valid = append(valid, now)
	s.attempts[key] = valid

	return true
}

// Remaining returns the number of remaining attempts for a key
func (s *MemoryAttemptStore) Remaining(key string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	windowStart := time.Now().Add(-s.window)

	count := 0
	for _, t := range s.attempts[key] {
		if t.After(windowStart) {
			count++
		}
	}

	remaining := s.limit - count
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ResetAt returns the time when the oldest attempt leaves the window
func (s *MemoryAttemptStore) ResetAt(key string) time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	attempts := s.attempts[key]
	if len(attempts) == 0 {
		return time.Now()
	}

	oldest := attempts[0]
	for _, t := range attempts {
		if t.Before(oldest) {
			oldest = t
		}
	}

	return oldest.Add(s.window)
}

// cleanup periodically removes old entries
func (s *MemoryAttemptStore) cleanup() {
	ticker := time.NewTicker(s.window)
	defer ticker.Stop()

	for range ticker.C {
		s.mu.Lock()
		windowStart := time.Now().Add(-s.window)

		for key, attempts := range s.attempts {
			var valid []time.Time
			for _, t := range attempts {
				if t.After(windowStart) {
					valid = append(valid, t)
				}
			}
			if len(valid) == 0 {
				delete(s.attempts, key)
			} else {
				s.attempts[key] = valid
			}
		}
		s.mu.Unlock()
	}
}

// LoginRateLimiter throttles login attempts per client IP
type LoginRateLimiter struct {
	store AttemptStore
	limit int
}

// NewLoginRateLimiter creates middleware state around an attempt store
func NewLoginRateLimiter(store AttemptStore, limit int) *LoginRateLimiter {
	return &LoginRateLimiter{
		store: store,
		limit: limit,
	}
}

// Limit rejects requests over the attempt budget with 429 before the
// credentials are ever examined.
func (rl *LoginRateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := api.ClientIP(r)

		if !rl.store.Allow(key) {
			writeRateLimitError(w, rl.store.ResetAt(key))
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(rl.store.Remaining(key)))

		next.ServeHTTP(w, r)
	})
}

// writeRateLimitError writes a 429 Too Many Requests response
func writeRateLimitError(w http.ResponseWriter, resetTime time.Time) {
	retryAfter := resetTime.Unix() - time.Now().Unix()
	if retryAfter < 0 {
		retryAfter = 0
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", strconv.FormatInt(retryAfter, 10))
	w.WriteHeader(http.StatusTooManyRequests)

	response := map[string]interface{}{
		"success": false,
		"error": map[string]interface{}{
			"code":    "TOO_MANY_ATTEMPTS",
			"message": "Too many login attempts. Please try again later.",
			"details": map[string]interface{}{
				"retry_after": retryAfter,
			},
		},
		"timestamp": time.Now().UTC(),
	}

	json.NewEncoder(w).Encode(response)
}
