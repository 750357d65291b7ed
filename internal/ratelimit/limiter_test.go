package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type recordingStore struct {
	lastKey string
	dec     Decision
	err     error
}

func (f *recordingStore) Take(_ context.Context, key string, _ int, _ time.Duration) (Decision, error) {
	f.lastKey = key
	return f.dec, f.err
}

func TestLimiter_KeyIsPrefixedIdentifier(t *testing.T) {
	store := &recordingStore{dec: Decision{Allowed: true}}
	l := NewLimiter(store, zap.NewNop())

	rule := Rule{KeyPrefix: "ip-sensitive", Max: 10, Window: time.Minute}
	d := l.Check(context.Background(), rule, "203.0.113.7")

	assert.True(t, d.Allowed)
	assert.Equal(t, "ip-sensitive:203.0.113.7", store.lastKey)
}

func TestLimiter_StoreFailureAdmits(t *testing.T) {
	store := &recordingStore{err: errors.New("connection refused")}
	l := NewLimiter(store, zap.NewNop())

	d := l.Check(context.Background(), Rule{KeyPrefix: "ip", Max: 1, Window: time.Second}, "x")

	assert.True(t, d.Allowed, "store faults must degrade to admit, not deny")
	assert.Zero(t, d.RetryAfter)
}

func TestLimiter_DenialPassesThrough(t *testing.T) {
	store := &recordingStore{dec: Decision{Allowed: false, RetryAfter: 250 * time.Millisecond}}
	l := NewLimiter(store, zap.NewNop())

	d := l.Check(context.Background(), Rule{KeyPrefix: "ip", Max: 1, Window: time.Second}, "x")

	assert.False(t, d.Allowed)
	assert.Equal(t, 250*time.Millisecond, d.RetryAfter)
}
