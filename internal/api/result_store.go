package api

import (
	"sync"
	"time"

	"salesrecon/internal/service/recon"
)

type storedResult struct {
	result    *recon.Result
	expiresAt time.Time
}

// resultStore 会话结果的内存缓存，到期即失效
type resultStore struct {
	mu    sync.Mutex
	items map[string]storedResult
}

func newResultStore() *resultStore {
	return &resultStore{
		items: make(map[string]storedResult),
	}
}

func (s *resultStore) put(runID string, result *recon.Result, ttl time.Duration) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.purgeExpiredLocked(now)

	expiresAt := now.Add(ttl)
	s.items[runID] = storedResult{
		result:    result,
		expiresAt: expiresAt,
	}
	return expiresAt
}

func (s *resultStore) get(runID string) (*recon.Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.items[runID]
	if !ok {
		return nil, false
	}
	if time.Now().After(v.expiresAt) {
		delete(s.items, runID)
		return nil, false
	}
	return v.result, true
}

func (s *resultStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.purgeExpiredLocked(time.Now())
	return len(s.items)
}

func (s *resultStore) purgeExpiredLocked(now time.Time) {
	for k, v := range s.items {
		if now.After(v.expiresAt) {
			delete(s.items, k)
		}
	}
}
