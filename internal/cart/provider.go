package cart

import (
	"context"
	"sync"

	"github.com/wichananm65/pet-shop-storefront/internal/apiclient"
)

// ScopedTokens is implemented by *apiclient.Client.
type ScopedTokens interface {
	ScopedToken(ctx context.Context, visitorID string, scope apiclient.Scope) (string, error)
	ForgetScopedToken(ctx context.Context, visitorID string, scope apiclient.Scope) error
}

// Provider owns the visitor's cart token and tells subscribers when the
// cart's contents change.
type Provider struct {
	tokens ScopedTokens

	mu        sync.RWMutex
	listeners []func(ctx context.Context, visitorID string)
}

func NewProvider(tokens ScopedTokens) *Provider {
	return &Provider{tokens: tokens}
}

// CartToken returns the visitor's cart token, creating it on first use.
// Subsequent calls return the same value until ClearCartToken.
func (p *Provider) CartToken(ctx context.Context, visitorID string) (string, error) {
	return p.tokens.ScopedToken(ctx, visitorID, apiclient.ScopeCart)
}

// ClearCartToken detaches the visitor from the current cart.
func (p *Provider) ClearCartToken(ctx context.Context, visitorID string) error {
	if err := p.tokens.ForgetScopedToken(ctx, visitorID, apiclient.ScopeCart); err != nil {
		return err
	}
	p.NotifyChanged(ctx, visitorID)
	return nil
}

func (p *Provider) OnCartChanged(fn func(ctx context.Context, visitorID string)) {
	p.mu.Lock()
	p.listeners = append(p.listeners, fn)
	p.mu.Unlock()
}

func (p *Provider) NotifyChanged(ctx context.Context, visitorID string) {
	p.mu.RLock()
	listeners := append([]func(context.Context, string){}, p.listeners...)
	p.mu.RUnlock()
	for _, fn := range listeners {
		fn(ctx, visitorID)
	}
}
