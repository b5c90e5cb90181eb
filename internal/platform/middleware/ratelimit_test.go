package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func postFrom(e *echo.Echo, ip string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, "/timeline", nil)
	req.RemoteAddr = ip + ":12345"
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestRateLimit_RequestsWithinLimit(t *testing.T) {
	cfg := RateLimitConfig{
		RequestsPerSecond: 10,
		BurstSize:         5,
	}

	e := echo.New()
	handler := RateLimit(cfg)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	// Send 5 requests (within burst size), all should pass
	for i := 0; i < 5; i++ {
		c, rec := postFrom(e, "10.0.0.1")
		if err := handler(c); err != nil {
			t.Fatalf("request %d: expected no error, got %v", i+1, err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rec.Code)
		}
		if got := rec.Header().Get("X-RateLimit-Limit"); got != "10" {
			t.Errorf("request %d: expected X-RateLimit-Limit '10', got %q", i+1, got)
		}
	}
}

func TestRateLimit_ExceedsLimit(t *testing.T) {
	cfg := RateLimitConfig{
		RequestsPerSecond: 1,
		BurstSize:         2,
	}

	e := echo.New()
	handler := RateLimit(cfg)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	// First 2 requests should pass (burst size = 2)
	for i := 0; i < 2; i++ {
		c, _ := postFrom(e, "10.0.0.1")
		if err := handler(c); err != nil {
			t.Fatalf("request %d: expected no error, got %v", i+1, err)
		}
	}

	c, rec := postFrom(e, "10.0.0.1")
	err := handler(c)
	if err == nil {
		t.Fatal("expected error for rate-limited request")
	}
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", httpErr.Code)
	}

	retry, convErr := strconv.Atoi(rec.Header().Get("Retry-After"))
	if convErr != nil || retry < 1 {
		t.Errorf("expected Retry-After >= 1, got %q", rec.Header().Get("Retry-After"))
	}
	if rec.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Errorf("expected X-RateLimit-Remaining '0', got %q", rec.Header().Get("X-RateLimit-Remaining"))
	}
}

func TestRateLimit_PerIPIsolation(t *testing.T) {
	cfg := RateLimitConfig{
		RequestsPerSecond: 1,
		BurstSize:         1,
	}

	e := echo.New()
	handler := RateLimit(cfg)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	c1, _ := postFrom(e, "10.0.0.1")
	if err := handler(c1); err != nil {
		t.Fatalf("first client: expected no error, got %v", err)
	}
	c2, _ := postFrom(e, "10.0.0.1")
	if err := handler(c2); err == nil {
		t.Fatal("first client second request: expected rate limit error")
	}
	c3, _ := postFrom(e, "10.0.0.2")
	if err := handler(c3); err != nil {
		t.Fatalf("second client: expected no error, got %v", err)
	}
}

func TestRateLimit_SkipsSafeMethods(t *testing.T) {
	cfg := DefaultRateLimitConfig()
	cfg.BurstSize = 1

	e := echo.New()
	handler := RateLimit(cfg)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	for i := 0; i < 5; i++ {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		if err := handler(c); err != nil {
			t.Fatalf("GET %d: expected no error, got %v", i+1, err)
		}
	}
}

func TestRateLimit_DefaultConfig(t *testing.T) {
	cfg := DefaultRateLimitConfig()
	if cfg.RequestsPerSecond != 5 {
		t.Errorf("expected RequestsPerSecond 5, got %f", cfg.RequestsPerSecond)
	}
	if cfg.BurstSize != 10 {
		t.Errorf("expected BurstSize 10, got %d", cfg.BurstSize)
	}
	if cfg.Skipper == nil {
		t.Error("expected default skipper")
	}
}

func TestRateLimiterStore_SameKeySameLimiter(t *testing.T) {
	store := newRateLimiterStore(RateLimitConfig{RequestsPerSecond: 10, BurstSize: 5})

	l1 := store.getLimiter("key1")
	if l1 == nil {
		t.Fatal("expected non-nil limiter")
	}
	if l1 != store.getLimiter("key1") {
		t.Error("expected same limiter instance for same key")
	}
	if l1 == store.getLimiter("key2") {
		t.Error("expected different limiter for different key")
	}
}

func TestRateLimiterStore_EvictsIdleVisitors(t *testing.T) {
	store := newRateLimiterStore(RateLimitConfig{RequestsPerSecond: 10, BurstSize: 5})
	store.getLimiter("stale")
	store.visitors["stale"].lastSeen = time.Now().Add(-2 * visitorTTL)
	store.lastSweep = time.Now().Add(-2 * visitorTTL)

	store.getLimiter("fresh")
	if _, ok := store.visitors["stale"]; ok {
		t.Error("expected idle visitor to be evicted")
	}
	if _, ok := store.visitors["fresh"]; !ok {
		t.Error("expected fresh visitor to be kept")
	}
}

func TestRetryAfter(t *testing.T) {
	if got := retryAfter(1500*time.Millisecond, true); got != 2 {
		t.Errorf("expected 2, got %d", got)
	}
	if got := retryAfter(10*time.Millisecond, true); got != 1 {
		t.Errorf("expected 1, got %d", got)
	}
	if got := retryAfter(0, false); got != 1 {
		t.Errorf("expected 1 when the reservation failed, got %d", got)
	}
}
