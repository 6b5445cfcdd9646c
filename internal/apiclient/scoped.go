package apiclient

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/wichananm65/pet-shop-storefront/internal/cache"
)

// Scope names a client-generated identifier the backend uses to key
// anonymous state.
type Scope string

const (
	ScopeCart       Scope = "cart"
	ScopeGuest      Scope = "guest"
	ScopeComparison Scope = "comparison"
)

// Header is the request header carrying the scope's token.
func (s Scope) Header() string {
	switch s {
	case ScopeCart:
		return "X-Cart-Token"
	case ScopeGuest:
		return "X-Guest-Token"
	case ScopeComparison:
		return "X-Comparison-Token"
	default:
		return "X-" + string(s) + "-Token"
	}
}

func scopedKey(visitorID string, scope Scope) string {
	return cache.VisitorKey(visitorID, "token:"+string(scope))
}

// ScopedToken returns the visitor's token for scope, minting and persisting
// one when none exists. Repeated calls return the same value, also across
// instances sharing the store.
func (c *Client) ScopedToken(ctx context.Context, visitorID string, scope Scope) (string, error) {
	key := scopedKey(visitorID, scope)

	for attempt := 0; attempt < 3; attempt++ {
		tok, err := c.store.Get(ctx, key)
		if err == nil && tok != "" {
			return tok, nil
		}
		if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
			return "", fmt.Errorf("read %s token: %w", scope, err)
		}

		tok = uuid.NewString()
		wrote, err := c.store.SetIfAbsent(ctx, key, tok, c.cfg.ScopedTokenTTL)
		if err != nil {
			return "", fmt.Errorf("persist %s token: %w", scope, err)
		}
		if wrote {
			c.log.WithFields(logrus.Fields{"visitor": visitorID, "scope": string(scope)}).Debug("minted scoped token")
			return tok, nil
		}
		// lost the race; the winner's token is read on the next pass
	}
	return "", fmt.Errorf("persist %s token: %w", scope, errScopedTokenContended)
}

var errScopedTokenContended = errors.New("token kept changing while minting")

// ForgetScopedToken removes the visitor's token for scope; the next call mints a fresh one.
func (c *Client) ForgetScopedToken(ctx context.Context, visitorID string, scope Scope) error {
	return c.store.Delete(ctx, scopedKey(visitorID, scope))
}
