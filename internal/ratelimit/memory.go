package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps a sliding log of admission timestamps per key behind a
// mutex. Suitable for single-instance deployments; horizontally scaled
// deployments should use RedisStore so all instances share one log.
type MemoryStore struct {
	mu   sync.Mutex
	logs map[string][]time.Time
	now  func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		logs: make(map[string][]time.Time),
		now:  time.Now,
	}
}

// Take prunes entries older than the window, then admits the request only if
// the remaining count is below max.
func (s *MemoryStore) Take(_ context.Context, key string, max int, window time.Duration) (Decision, error) {
	now := s.now()
	cutoff := now.Add(-window)

	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.logs[key]
	i := 0
	for i < len(log) && !log[i].After(cutoff) {
		i++
	}
	log = log[i:]

	if len(log) < max {
		s.logs[key] = append(log, now)
		return Decision{Allowed: true}, nil
	}

	s.logs[key] = log
	return Decision{
		Allowed:    false,
		RetryAfter: window - now.Sub(log[0]),
	}, nil
}

// StartJanitor sweeps fully expired keys in the background so idle client
// entries do not accumulate for the life of the process. maxWindow should be
// at least the largest configured rule window.
func (s *MemoryStore) StartJanitor(ctx context.Context, interval, maxWindow time.Duration) {
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.sweep(maxWindow)
			}
		}
	}()
}

func (s *MemoryStore) sweep(maxWindow time.Duration) {
	cutoff := s.now().Add(-maxWindow)
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, log := range s.logs {
		if len(log) == 0 || !log[len(log)-1].After(cutoff) {
			delete(s.logs, key)
		}
	}
}
