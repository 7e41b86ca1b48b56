package auth

import (
	"context"
	"sync"
	"time"
)

// LocalDenyList keeps revoked token ids in process memory. It is used when no
// shared deny-list is configured, so revocations only hold on this instance.
type LocalDenyList struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

func NewLocalDenyList() *LocalDenyList {
	return &LocalDenyList{entries: make(map[string]time.Time), now: time.Now}
}

func (l *LocalDenyList) DenyToken(_ context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for id, until := range l.entries {
		if !now.Before(until) {
			delete(l.entries, id)
		}
	}
	l.entries[jti] = now.Add(ttl)
	return nil
}

func (l *LocalDenyList) IsTokenDenied(_ context.Context, jti string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	until, ok := l.entries[jti]
	return ok && l.now().Before(until), nil
}

var _ DenyList = (*LocalDenyList)(nil)
