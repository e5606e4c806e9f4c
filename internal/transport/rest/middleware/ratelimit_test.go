package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeLimits struct {
	counts map[string]int64
	err    error
}

func (f *fakeLimits) Hit(_ context.Context, clientID string) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	if f.counts == nil {
		f.counts = map[string]int64{}
	}
	f.counts[clientID]++
	return f.counts[clientID], nil
}

func (f *fakeLimits) Reset(_ context.Context, clientID string) error {
	delete(f.counts, clientID)
	return nil
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitAllowsWithinBudget(t *testing.T) {
	mw := NewRateLimitMiddleware(&fakeLimits{}, 3, 60)
	h := mw.Limit(okHandler())

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRateLimitIsPerClient(t *testing.T) {
	mw := NewRateLimitMiddleware(&fakeLimits{}, 1, 60)
	h := mw.Limit(okHandler())

	for _, addr := range []string{"10.0.0.1:1", "10.0.0.2:1"} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = addr
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, addr)
	}
}

func TestRateLimitFallsBackWhenRedisDown(t *testing.T) {
	mw := NewRateLimitMiddleware(&fakeLimits{err: errors.New("redis down")}, 2, 60)
	h := mw.Limit(okHandler())

	codes := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.9:1"
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	// The burst budget still applies in-process.
	assert.Equal(t, http.StatusOK, codes[0])
	assert.Equal(t, http.StatusOK, codes[1])
	assert.Equal(t, http.StatusTooManyRequests, codes[2])
}
