package gateway

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoutes_PrefixMatchesOnSegmentBoundary(t *testing.T) {
	r := NewRoutes(testRoutesConfig())

	assert.True(t, r.IsAuthPath("/api/auth"))
	assert.True(t, r.IsAuthPath("/api/auth/login"))
	assert.False(t, r.IsAuthPath("/api/authority"))
}

func TestRoutes_FeatureKey(t *testing.T) {
	r := NewRoutes(testRoutesConfig())

	key, ok := r.FeatureKey("/api/messages/send")
	assert.True(t, ok)
	assert.Equal(t, "messaging", key)

	_, ok = r.FeatureKey("/api/staff")
	assert.False(t, ok)
}

func TestRoutes_FeatureKeyLongestPrefixWins(t *testing.T) {
	cfg := testRoutesConfig()
	cfg.FeatureMap = map[string]string{
		"/dashboard":           "core",
		"/dashboard/messaging": "messaging",
	}
	r := NewRoutes(cfg)

	// Resolution must be stable no matter how the map iterates.
	for i := 0; i < 20; i++ {
		key, ok := r.FeatureKey("/dashboard/messaging/threads")
		assert.True(t, ok)
		assert.Equal(t, "messaging", key)

		key, ok = r.FeatureKey("/dashboard/reports")
		assert.True(t, ok)
		assert.Equal(t, "core", key)
	}
}

func TestIsAPIShaped(t *testing.T) {
	assert.True(t, IsAPIShaped("/api/staff"))
	assert.False(t, IsAPIShaped("/dashboard"))
	assert.False(t, IsAPIShaped("/apiary"))
}

func TestIsWriteMethod(t *testing.T) {
	for _, m := range []string{http.MethodGet, http.MethodHead, http.MethodOptions} {
		assert.False(t, IsWriteMethod(m), m)
	}
	for _, m := range []string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete} {
		assert.True(t, IsWriteMethod(m), m)
	}
}

func TestBlocksForReadOnly(t *testing.T) {
	r := NewRoutes(testRoutesConfig())

	assert.True(t, r.BlocksForReadOnly("/api/notifications", http.MethodPost, true))
	assert.False(t, r.BlocksForReadOnly("/api/notifications", http.MethodGet, true))
	assert.False(t, r.BlocksForReadOnly("/api/payments/checkout", http.MethodPost, true))
	assert.False(t, r.BlocksForReadOnly("/api/notifications", http.MethodPost, false))
}
