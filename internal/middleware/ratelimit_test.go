package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiterStoreAllowAndEvict(t *testing.T) {
	s := NewLimiterStore(5, 5, time.Hour)
	defer s.Stop()

	key := "203.0.113.7"
	for i := 0; i < 5; i++ {
		ok, _ := s.Allow(key)
		require.True(t, ok, "request %d", i)
	}
	ok, wait := s.Allow(key)
	assert.False(t, ok)
	assert.Greater(t, wait, time.Duration(0))

	// A rejected request does not push the next token further out.
	_, again := s.Allow(key)
	assert.LessOrEqual(t, again, wait)

	ok, _ = s.Allow("198.51.100.1")
	assert.True(t, ok, "other keys have their own budget")

	s.evictIdle(time.Now().Add(time.Minute))
	s.mu.Lock()
	assert.Empty(t, s.visitors)
	s.mu.Unlock()

	s.Stop()
}

func TestRateLimitMiddleware(t *testing.T) {
	s := NewLimiterStore(1, 2, time.Hour)
	defer s.Stop()

	h := RateLimit(s)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	var last *httptest.ResponseRecorder
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/messages", nil)
		req.RemoteAddr = "192.0.2.1:5555"
		last = httptest.NewRecorder()
		h.ServeHTTP(last, req)
		codes = append(codes, last.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	retry, err := strconv.Atoi(last.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.True(t, retry > 0 && retry <= 60, "Retry-After %d", retry)
}

func TestRateLimitDisabled(t *testing.T) {
	called := false
	h := RateLimit(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, called)
}

func TestRequestLoggerPassesThrough(t *testing.T) {
	h := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
