package user

import (
	"context"
	"errors"
	"time"

	"github.com/wichananm65/pet-shop-storefront/internal/cache"
)

// Sessions remembers which user each visitor is logged in as.
type Sessions struct {
	store cache.Cache
	ttl   time.Duration
}

func NewSessions(store cache.Cache, ttl time.Duration) *Sessions {
	return &Sessions{store: store, ttl: ttl}
}

func userKey(visitorID string) string {
	return cache.VisitorKey(visitorID, "user")
}

func (s *Sessions) Remember(ctx context.Context, visitorID string, u User) error {
	return cache.SetJSON(ctx, s.store, userKey(visitorID), u, s.ttl)
}

func (s *Sessions) Forget(ctx context.Context, visitorID string) error {
	return s.store.Delete(ctx, userKey(visitorID))
}

// Current returns the remembered user and restarts its idle timeout. ok is
// false when nobody is logged in.
func (s *Sessions) Current(ctx context.Context, visitorID string) (u User, ok bool, err error) {
	key := userKey(visitorID)
	err = cache.GetJSON(ctx, s.store, key, &u)
	if errors.Is(err, cache.ErrCacheMiss) {
		return User{}, false, nil
	}
	if err != nil {
		return User{}, false, err
	}
	if err := s.store.Touch(ctx, key, s.ttl); errors.Is(err, cache.ErrCacheMiss) {
		return User{}, false, nil
	}
	return u, true, nil
}

// HasUser has the signature of web.SessionChecker.
func (s *Sessions) HasUser(ctx context.Context, visitorID string) bool {
	_, ok, err := s.Current(ctx, visitorID)
	return err == nil && ok
}
