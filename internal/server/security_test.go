package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_AllowsWithinLimit(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(3, time.Minute)
	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("1.2.3.4"))
	}
}

func TestRateLimiter_BansOverLimit(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(2, time.Minute)
	assert.True(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("1.2.3.4"))
	assert.False(t, rl.Allow("1.2.3.4"))

	// banned even after the counting window would have reset
	assert.False(t, rl.Allow("1.2.3.4"))

	// other IPs are unaffected
	assert.True(t, rl.Allow("5.6.7.8"))
}

func TestMessageRateLimiter(t *testing.T) {
	t.Parallel()

	ml := NewMessageRateLimiter(2)
	assert.True(t, ml.AllowMessage("c1"))
	assert.True(t, ml.AllowMessage("c1"))
	assert.False(t, ml.AllowMessage("c1"))
	assert.Equal(t, 1, ml.StrikeCount("c1"))

	ml.RemoveClient("c1")
	assert.Equal(t, 0, ml.StrikeCount("c1"))
	assert.True(t, ml.AllowMessage("c1"))
}

func TestGetClientIP(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:12345"
	assert.Equal(t, "10.0.0.1", GetClientIP(r))

	r.Header.Set("X-Real-IP", "10.0.0.2")
	assert.Equal(t, "10.0.0.2", GetClientIP(r))

	r.Header.Set("X-Forwarded-For", "10.0.0.3, 10.0.0.4")
	assert.Equal(t, "10.0.0.3", GetClientIP(r))
}
