package middleware

import (
	"encoding/json"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// visitorTTL is how long an idle client keeps its token bucket.
const visitorTTL = 10 * time.Minute

// LimiterStore hands out one token bucket per client key. Buckets of
// clients idle for longer than visitorTTL are swept on a timer.
type LimiterStore struct {
	mu       sync.Mutex
	every    rate.Limit
	burst    int
	visitors map[string]*visitor

	stop     chan struct{}
	stopOnce sync.Once
}

type visitor struct {
	bucket *rate.Limiter
	seen   time.Time
}

// NewLimiterStore allows perMinute requests a minute per key with bursts
// of up to burst. sweepEvery sets how often idle keys are forgotten.
func NewLimiterStore(perMinute, burst int, sweepEvery time.Duration) *LimiterStore {
	if perMinute <= 0 {
		perMinute = 60
	}
	if burst <= 0 {
		burst = 1
	}
	s := &LimiterStore{
		every:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    burst,
		visitors: make(map[string]*visitor),
		stop:     make(chan struct{}),
	}
	go s.sweep(sweepEvery)
	return s
}

func (s *LimiterStore) sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			s.evictIdle(now.Add(-visitorTTL))
		}
	}
}

func (s *LimiterStore) evictIdle(cutoff time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, v := range s.visitors {
		if v.seen.Before(cutoff) {
			delete(s.visitors, key)
		}
	}
}

// Stop ends the sweeper. Calling it twice is safe.
func (s *LimiterStore) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *LimiterStore) bucket(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.visitors[key]
	if !ok {
		v = &visitor{bucket: rate.NewLimiter(s.every, s.burst)}
		s.visitors[key] = v
	}
	v.seen = time.Now()
	return v.bucket
}

// Allow takes a token for key. When none is left it reports how long the
// caller should wait and leaves the bucket untouched.
func (s *LimiterStore) Allow(key string) (bool, time.Duration) {
	r := s.bucket(key).Reserve()
	if wait := r.Delay(); wait > 0 {
		r.Cancel()
		return false, wait
	}
	return true, 0
}

// RateLimit rejects requests with 429 once the client IP has spent its
// budget. A nil store lets everything through.
func RateLimit(store *LimiterStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			ok, wait := store.Allow(ip)
			if !ok {
				log.Warn().Str("client_ip", ip).Str("path", r.URL.Path).Dur("retry_after", wait).Msg("Rate limit exceeded")
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]string{"error": "Too many requests"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP strips the port from RemoteAddr. chi's RealIP middleware runs
// first, so proxies are already accounted for.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
