package apiclient

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/singleflight"
)

var errNoSecurityToken = errors.New("backend did not issue a security token")

// securityToken caches the anti-forgery token of one backend session.
// Concurrent callers that find it missing share a single preflight.
type securityToken struct {
	mu    sync.RWMutex
	value string
	group singleflight.Group
	fetch func(ctx context.Context) (string, error)
}

func (t *securityToken) cached() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.value
}

// Get returns the cached token, fetching it first when absent.
func (t *securityToken) Get(ctx context.Context) (string, error) {
	if v := t.cached(); v != "" {
		return v, nil
	}
	return t.load(ctx)
}

// Refresh drops stale, if it is still the cached value, and fetches a new one.
// A token already replaced by another caller is reused as is.
func (t *securityToken) Refresh(ctx context.Context, stale string) (string, error) {
	t.mu.Lock()
	if t.value == stale {
		t.value = ""
	}
	t.mu.Unlock()
	return t.Get(ctx)
}

func (t *securityToken) Clear() {
	t.mu.Lock()
	t.value = ""
	t.mu.Unlock()
}

func (t *securityToken) load(ctx context.Context) (string, error) {
	// The preflight is shared, so one caller's cancellation must not fail the others.
	ch := t.group.DoChan("token", func() (any, error) {
		v, err := t.fetch(context.WithoutCancel(ctx))
		if err != nil {
			return "", err
		}
		if v == "" {
			return "", errNoSecurityToken
		}
		t.mu.Lock()
		t.value = v
		t.mu.Unlock()
		return v, nil
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}
