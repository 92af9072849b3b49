package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"
	"time"

	"github.com/m1z23r/drift/pkg/drift"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_AllowsBurstThenBlocks(t *testing.T) {
	l := NewRateLimiter(60, 3)
	now := time.Now()
	l.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("10.0.0.1"), "attempt %d", i+1)
	}
	assert.False(t, l.Allow("10.0.0.1"))

	// other clients have their own bucket
	assert.True(t, l.Allow("10.0.0.2"))

	// one token per second at 60/min
	now = now.Add(time.Second)
	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))
}

func TestRateLimiter_Sweep(t *testing.T) {
	l := NewRateLimiter(10, 1)
	now := time.Now()
	l.now = func() time.Time { return now }

	l.Allow("10.0.0.1")
	now = now.Add(5 * time.Minute)
	l.Allow("10.0.0.2")

	now = now.Add(6 * time.Minute)
	l.Sweep()

	assert.Len(t, l.buckets, 1)
	assert.Contains(t, l.buckets, "10.0.0.2")
}

func TestRateLimiter_Middleware(t *testing.T) {
	l := NewRateLimiter(1, 1)
	rejected := 0
	l.OnReject = func() { rejected++ }
	app := drift.New()
	app.Use(l.Middleware())
	app.Post("/token", func(c *drift.Context) {
		_ = c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	send := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/token", nil)
		req.RemoteAddr = ip + ":51000"
		rec := httptest.NewRecorder()
		app.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send("192.0.2.1").Code)

	rec := send("192.0.2.1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "slow_down")
	assert.Equal(t, 1, rejected)

	assert.Equal(t, http.StatusOK, send("192.0.2.2").Code)
	assert.Equal(t, 1, rejected)
}

func TestRateLimiter_Middleware_IgnoresForwardedForFromUntrustedPeer(t *testing.T) {
	l := NewRateLimiter(1, 1)
	app := drift.New()
	app.Use(l.Middleware())
	app.Post("/token", func(c *drift.Context) {
		_ = c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	allowed := 0
	for i := 0; i < 20; i++ {
		req := httptest.NewRequest(http.MethodPost, "/token", nil)
		req.RemoteAddr = "203.0.113.9:51000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i+1))
		rec := httptest.NewRecorder()
		app.ServeHTTP(rec, req)
		if rec.Code == http.StatusOK {
			allowed++
		}
	}

	assert.Equal(t, 1, allowed)
}

func TestRateLimiter_Middleware_TrustedProxy(t *testing.T) {
	l := NewRateLimiter(1, 1)
	trusted, err := ParseTrustedProxies([]string{"10.0.0.0/8"})
	require.NoError(t, err)
	l.TrustProxies(trusted)

	app := drift.New()
	app.Use(l.Middleware())
	app.Post("/token", func(c *drift.Context) {
		_ = c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	send := func(client string) int {
		req := httptest.NewRequest(http.MethodPost, "/token", nil)
		req.RemoteAddr = "10.0.0.1:51000"
		req.Header.Set("X-Forwarded-For", client)
		rec := httptest.NewRecorder()
		app.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send("198.51.100.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("198.51.100.1"))
	assert.Equal(t, http.StatusOK, send("198.51.100.2"))
}

func TestParseTrustedProxies(t *testing.T) {
	prefixes, err := ParseTrustedProxies([]string{"10.0.0.0/8", " 192.0.2.7 ", "::1", "10.1.2.3/8"})
	require.NoError(t, err)
	require.Len(t, prefixes, 4)
	assert.Equal(t, "10.0.0.0/8", prefixes[0].String())
	assert.Equal(t, "192.0.2.7/32", prefixes[1].String())
	assert.Equal(t, "::1/128", prefixes[2].String())
	assert.Equal(t, "10.0.0.0/8", prefixes[3].String())

	_, err = ParseTrustedProxies([]string{"proxy.internal"})
	assert.Error(t, err)

	prefixes, err = ParseTrustedProxies(nil)
	require.NoError(t, err)
	assert.Empty(t, prefixes)
}

func TestClientIP(t *testing.T) {
	trusted, err := ParseTrustedProxies([]string{"10.0.0.0/8"})
	require.NoError(t, err)

	testCases := []struct {
		name       string
		remoteAddr string
		xff        string
		trusted    []netip.Prefix
		expected   string
	}{
		{"peer address", "192.0.2.1:1234", "", trusted, "192.0.2.1"},
		{"untrusted peer ignores forwarded", "192.0.2.1:1234", "203.0.113.5", trusted, "192.0.2.1"},
		{"no trusted proxies", "10.0.0.1:1234", "203.0.113.5", nil, "10.0.0.1"},
		{"trusted proxy", "10.0.0.1:1234", "203.0.113.5", trusted, "203.0.113.5"},
		{"spoofed left hops skipped", "10.0.0.1:1234", "1.2.3.4, 203.0.113.5, 10.0.0.2", trusted, "203.0.113.5"},
		{"all hops trusted", "10.0.0.1:1234", "10.0.0.3, 10.0.0.2", trusted, "10.0.0.3"},
		{"trusted proxy blank forwarded", "10.0.0.1:1234", " ", trusted, "10.0.0.1"},
		{"no port", "192.0.2.9", "", trusted, "192.0.2.9"},
		{"missing", "", "", trusted, "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remoteAddr
			if tc.xff != "" {
				req.Header.Set("X-Forwarded-For", tc.xff)
			}

			assert.Equal(t, tc.expected, ClientIP(req, tc.trusted))
		})
	}
}
