package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/wichananm65/pet-shop-storefront/internal/address"
	"github.com/wichananm65/pet-shop-storefront/internal/apiclient"
)

// CartTokens is implemented by *cart.Provider.
type CartTokens interface {
	CartToken(ctx context.Context, visitorID string) (string, error)
}

// Controller drives each visitor's checkout through its steps against the
// backend session and keeps the local mirror of that session.
type Controller struct {
	client apiclient.Doer
	carts  CartTokens
	store  Store
	log    logrus.FieldLogger

	mu    sync.Mutex
	flows map[string]*flow
	now   func() time.Time
}

// flow is one visitor's checkout. busy is held for the whole of a
// state-changing step; mu guards the fields below it. refs and lastUsed
// belong to Controller.mu.
type flow struct {
	refs     int
	lastUsed time.Time

	busy sync.Mutex

	mu     sync.Mutex
	loaded bool
	state  State
	// gen changes whenever the state is replaced from outside a step.
	gen uint64
}

func NewController(client apiclient.Doer, carts CartTokens, store Store, log logrus.FieldLogger) *Controller {
	if store == nil {
		store = NewMemoryStore()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Controller{
		client: client,
		carts:  carts,
		store:  store,
		log:    log,
		flows:  make(map[string]*flow),
		now:    time.Now,
	}
}

var cartScope = []apiclient.Scope{apiclient.ScopeCart}

// Start opens a new backend session from the visitor's cart. It is allowed
// from any state; a previous session is abandoned.
func (c *Controller) Start(ctx context.Context, visitorID string) (Started, error) {
	next, err := c.step(ctx, visitorID, "start", func(ctx context.Context, cur State) (State, error) {
		token, err := c.carts.CartToken(ctx, visitorID)
		if err != nil {
			return cur, fmt.Errorf("cart token: %w", err)
		}

		var p sessionPayload
		err = c.client.Do(ctx, visitorID, apiclient.Request{
			Method:   http.MethodPost,
			Endpoint: "/checkout/start",
			Body:     map[string]string{"cart_token": token},
			Scopes:   cartScope,
		}, &p)
		if err != nil {
			return afterFailure(cur, err), err
		}
		if p.ID == "" {
			return cur, &apiclient.APIError{Kind: apiclient.KindUnknown, Message: "backend returned no checkout session id"}
		}
		return Started{SessionID: p.ID, Items: p.Items, Pricing: p.Pricing}, nil
	})
	if err != nil {
		return Started{}, err
	}
	st, _ := next.(Started)
	return st, nil
}

// SetAddress validates in locally, then stores it on the session. Any
// shipping or payment selection made earlier is discarded.
func (c *Controller) SetAddress(ctx context.Context, visitorID string, in Addresses) (AddressSet, error) {
	next, err := c.step(ctx, visitorID, "set address", func(ctx context.Context, cur State) (State, error) {
		sess, ok := activeSession(cur)
		if !ok {
			return cur, stepOrder("set address", cur)
		}
		if in.BillingSameAsShipping {
			in.Billing = nil
		}
		if errs := validateAddresses(in); len(errs) > 0 {
			return cur, apiclient.NewValidationError("invalid address", errs)
		}

		var p sessionPayload
		err := c.client.Do(ctx, visitorID, apiclient.Request{
			Method:   http.MethodPut,
			Endpoint: sessionEndpoint(sess.SessionID, "address"),
			Body:     in,
			Scopes:   cartScope,
		}, &p)
		if err != nil {
			return afterFailure(cur, err), err
		}
		return AddressSet{Started: sess.withPricing(p.Pricing), Addresses: in}, nil
	})
	if err != nil {
		return AddressSet{}, err
	}
	as, _ := next.(AddressSet)
	return as, nil
}

// ShippingOptions lists the methods available for the session's shipping address.
func (c *Controller) ShippingOptions(ctx context.Context, visitorID string) ([]ShippingMethod, error) {
	cur, err := c.Current(ctx, visitorID)
	if err != nil {
		return nil, err
	}
	as, ok := addressStep(cur)
	if !ok {
		return nil, stepOrder("list shipping methods", cur)
	}
	return c.loadShippingMethods(ctx, visitorID, as.Addresses.Shipping)
}

// SelectShipping picks a shipping method. When the backend rejects it the
// method list is reloaded once and the session falls back to AddressSet.
func (c *Controller) SelectShipping(ctx context.Context, visitorID string, methodID int64) (ShippingSet, error) {
	next, err := c.step(ctx, visitorID, "select shipping", func(ctx context.Context, cur State) (State, error) {
		base, ok := addressStep(cur)
		if !ok {
			return cur, stepOrder("select shipping", cur)
		}

		var p sessionPayload
		err := c.client.Do(ctx, visitorID, apiclient.Request{
			Method:   http.MethodPut,
			Endpoint: sessionEndpoint(base.SessionID, "shipping-method"),
			Body:     map[string]int64{"method_id": methodID},
			Scopes:   cartScope,
		}, &p)
		if errors.Is(err, apiclient.ErrInvalidShipping) {
			methods, rerr := c.loadShippingMethods(ctx, visitorID, base.Addresses.Shipping)
			if rerr != nil {
				c.log.WithError(rerr).WithField("visitor", visitorID).Warn("reloading shipping methods failed")
			}
			return base, &InvalidSelectionError{Err: err, ShippingMethods: methods}
		}
		if err != nil {
			return afterFailure(cur, err), err
		}

		method := ShippingMethod{ID: methodID}
		if p.SelectedShippingMethod != nil {
			method = *p.SelectedShippingMethod
		}
		base.Started = base.Started.withPricing(p.Pricing)
		return ShippingSet{AddressSet: base, ShippingMethod: method}, nil
	})
	if err != nil {
		return ShippingSet{}, err
	}
	ss, _ := next.(ShippingSet)
	return ss, nil
}

// PaymentProviders lists the providers offered for the session.
func (c *Controller) PaymentProviders(ctx context.Context, visitorID string) ([]PaymentProvider, error) {
	cur, err := c.Current(ctx, visitorID)
	if err != nil {
		return nil, err
	}
	ss, ok := shippingStep(cur)
	if !ok {
		return nil, stepOrder("list payment providers", cur)
	}
	providers, err := c.loadPaymentProviders(ctx, visitorID, ss.SessionID)
	if err != nil {
		c.invalidateOnFailure(ctx, visitorID, ss.SessionID, err)
	}
	return providers, err
}

// SelectPayment picks a payment provider. When the backend rejects it the
// provider list is reloaded once and the session falls back to ShippingSet.
func (c *Controller) SelectPayment(ctx context.Context, visitorID, code string) (PaymentSet, error) {
	next, err := c.step(ctx, visitorID, "select payment", func(ctx context.Context, cur State) (State, error) {
		base, ok := shippingStep(cur)
		if !ok {
			return cur, stepOrder("select payment", cur)
		}

		var p sessionPayload
		err := c.client.Do(ctx, visitorID, apiclient.Request{
			Method:   http.MethodPut,
			Endpoint: sessionEndpoint(base.SessionID, "payment-provider"),
			Body:     map[string]string{"provider_code": code},
			Scopes:   cartScope,
		}, &p)
		if errors.Is(err, apiclient.ErrInvalidPayment) {
			providers, rerr := c.loadPaymentProviders(ctx, visitorID, base.SessionID)
			if rerr != nil {
				c.log.WithError(rerr).WithField("visitor", visitorID).Warn("reloading payment providers failed")
			}
			return base, &InvalidSelectionError{Err: err, PaymentProviders: providers}
		}
		if err != nil {
			return afterFailure(cur, err), err
		}

		provider := PaymentProvider{Code: code}
		if p.SelectedPaymentProvider != nil {
			provider = *p.SelectedPaymentProvider
		}
		base.Started = base.Started.withPricing(p.Pricing)
		return PaymentSet{ShippingSet: base, PaymentProvider: provider}, nil
	})
	if err != nil {
		return PaymentSet{}, err
	}
	ps, _ := next.(PaymentSet)
	return ps, nil
}

// Confirm places the order. On failure the session stays in PaymentSet
// unless the cart changed underneath it.
func (c *Controller) Confirm(ctx context.Context, visitorID string) (OrderRef, error) {
	next, err := c.step(ctx, visitorID, "confirm", func(ctx context.Context, cur State) (State, error) {
		ps, ok := cur.(PaymentSet)
		if !ok {
			return cur, stepOrder("confirm", cur)
		}

		var order OrderRef
		err := c.client.Do(ctx, visitorID, apiclient.Request{
			Method:   http.MethodPost,
			Endpoint: sessionEndpoint(ps.SessionID, "confirm"),
			Scopes:   cartScope,
		}, &order)
		if err != nil {
			return afterFailure(cur, err), err
		}
		return Confirmed{SessionID: ps.SessionID, Order: order, Pricing: ps.Pricing}, nil
	})
	if err != nil {
		return OrderRef{}, err
	}
	confirmed, _ := next.(Confirmed)
	return confirmed.Order, nil
}

// Resume re-reads the backend session and rebuilds the local mirror from it.
// States without a session are returned unchanged.
func (c *Controller) Resume(ctx context.Context, visitorID string) (State, error) {
	return c.step(ctx, visitorID, "resume", func(ctx context.Context, cur State) (State, error) {
		sess, ok := activeSession(cur)
		if !ok {
			return cur, nil
		}
		var p sessionPayload
		err := c.client.Do(ctx, visitorID, apiclient.Request{
			Endpoint: "/checkout/" + url.PathEscape(sess.SessionID),
			Scopes:   cartScope,
		}, &p)
		if errors.Is(err, apiclient.ErrNotFound) {
			return Invalidated{PreviousSessionID: sess.SessionID, Reason: apiclient.KindSessionExpired.String()}, err
		}
		if err != nil {
			return afterFailure(cur, err), err
		}
		if p.ID == "" {
			p.ID = sess.SessionID
		}
		return stateFromPayload(p), nil
	})
}

// Invalidate discards the visitor's session, if it has one. A step running
// concurrently keeps its backend result out of the mirror.
func (c *Controller) Invalidate(ctx context.Context, visitorID, reason string) {
	f := c.existing(visitorID)
	if f == nil {
		active, err := c.storedSessionActive(ctx, visitorID)
		if err != nil {
			c.log.WithError(err).WithField("visitor", visitorID).Error("invalidate: loading checkout failed")
			return
		}
		if !active {
			return
		}
		f = c.acquire(visitorID)
	}
	defer c.release(f)

	f.mu.Lock()
	if err := c.ensureLoaded(ctx, visitorID, f); err != nil {
		f.mu.Unlock()
		c.log.WithError(err).WithField("visitor", visitorID).Error("invalidate: loading checkout failed")
		return
	}
	sess, ok := activeSession(f.state)
	if !ok {
		f.mu.Unlock()
		return
	}
	prev := f.state
	f.state = Invalidated{PreviousSessionID: sess.SessionID, Reason: reason}
	f.gen++
	next := f.state
	f.mu.Unlock()

	c.transitioned(ctx, visitorID, prev, next)
}

// OnCartChanged is the cart provider's change callback.
func (c *Controller) OnCartChanged(ctx context.Context, visitorID string) {
	c.Invalidate(ctx, visitorID, apiclient.KindCartChanged.String())
}

// Current returns the visitor's state without contacting the backend.
func (c *Controller) Current(ctx context.Context, visitorID string) (State, error) {
	f := c.acquire(visitorID)
	defer c.release(f)
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := c.ensureLoaded(ctx, visitorID, f); err != nil {
		return nil, err
	}
	return f.state, nil
}

// step runs one state-changing operation. fn returns the state to move to,
// which may be the current one when the step failed.
func (c *Controller) step(ctx context.Context, visitorID, op string, fn func(ctx context.Context, cur State) (State, error)) (State, error) {
	f := c.acquire(visitorID)
	defer c.release(f)
	if !f.busy.TryLock() {
		return nil, ErrStepInProgress
	}
	defer f.busy.Unlock()

	f.mu.Lock()
	if err := c.ensureLoaded(ctx, visitorID, f); err != nil {
		f.mu.Unlock()
		return nil, err
	}
	cur, gen := f.state, f.gen
	f.mu.Unlock()

	next, stepErr := fn(ctx, cur)
	if next == nil {
		next = cur
	}

	f.mu.Lock()
	if f.gen != gen {
		latest := f.state
		f.mu.Unlock()
		c.log.WithFields(logrus.Fields{"visitor": visitorID, "op": op}).Info("checkout invalidated during step, result discarded")
		if stepErr == nil {
			stepErr = ErrSessionInvalidated
		}
		return latest, stepErr
	}
	f.state = next
	f.mu.Unlock()

	if stepErr == nil || next.Name() != cur.Name() {
		c.transitioned(ctx, visitorID, cur, next)
	}
	if stepErr != nil {
		c.log.WithError(stepErr).WithFields(logrus.Fields{"visitor": visitorID, "op": op, "state": next.Name()}).Debug("checkout step failed")
	}
	return next, stepErr
}

func (c *Controller) ensureLoaded(ctx context.Context, visitorID string, f *flow) error {
	if f.loaded {
		return nil
	}
	snap, ok, err := c.store.Load(ctx, visitorID)
	if err != nil {
		return err
	}
	if ok {
		f.state = snap.Restore()
	} else {
		f.state = NotStarted{}
	}
	f.loaded = true
	return nil
}

func (c *Controller) transitioned(ctx context.Context, visitorID string, from, to State) {
	if from.Name() != to.Name() {
		c.log.WithFields(logrus.Fields{"visitor": visitorID, "from": from.Name(), "to": to.Name()}).Info("checkout transition")
	}
	snap := SnapshotOf(to)
	if err := c.store.Save(context.WithoutCancel(ctx), visitorID, snap); err != nil {
		c.log.WithError(err).WithField("visitor", visitorID).Error("persisting checkout state failed")
	}
}

// acquire returns the visitor's flow, creating it when needed. Every
// acquire is paired with a release.
func (c *Controller) acquire(visitorID string) *flow {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.flows[visitorID]
	if !ok {
		f = &flow{}
		c.flows[visitorID] = f
	}
	f.refs++
	f.lastUsed = c.now()
	return f
}

// existing acquires the visitor's flow only if it is already in memory.
func (c *Controller) existing(visitorID string) *flow {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.flows[visitorID]
	if !ok {
		return nil
	}
	f.refs++
	f.lastUsed = c.now()
	return f
}

func (c *Controller) release(f *flow) {
	c.mu.Lock()
	f.refs--
	f.lastUsed = c.now()
	c.mu.Unlock()
}

func (c *Controller) storedSessionActive(ctx context.Context, visitorID string) (bool, error) {
	snap, ok, err := c.store.Load(ctx, visitorID)
	if err != nil || !ok {
		return false, err
	}
	_, active := activeSession(snap.Restore())
	return active, nil
}

// Prune drops in-memory flows nobody is using whose checkout is finished,
// never started, or untouched for maxIdle. Their state stays in the store
// and is loaded again on the next access. It reports how many were dropped.
func (c *Controller) Prune(maxIdle time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	cutoff := c.now().Add(-maxIdle)
	n := 0
	for id, f := range c.flows {
		if f.refs > 0 {
			continue
		}
		f.mu.Lock()
		settled := !f.loaded || f.state.Name() == StateNotStarted || f.state.Name().IsTerminal()
		f.mu.Unlock()
		if settled || f.lastUsed.Before(cutoff) {
			delete(c.flows, id)
			n++
		}
	}
	return n
}

func (c *Controller) loadShippingMethods(ctx context.Context, visitorID string, to address.Address) ([]ShippingMethod, error) {
	q := url.Values{}
	q.Set("country", to.Country)
	q.Set("region", to.Region)
	q.Set("city", to.City)
	q.Set("postal", to.PostalCode)

	var methods []ShippingMethod
	err := c.client.Do(ctx, visitorID, apiclient.Request{Endpoint: "/shipping/methods", Query: q}, &methods)
	return methods, err
}

func (c *Controller) loadPaymentProviders(ctx context.Context, visitorID, sessionID string) ([]PaymentProvider, error) {
	var providers []PaymentProvider
	err := c.client.Do(ctx, visitorID, apiclient.Request{
		Endpoint: sessionEndpoint(sessionID, "payment-providers"),
		Scopes:   cartScope,
	}, &providers)
	return providers, err
}

// invalidateOnFailure applies the cart-changed rule to reads that are not
// running inside a step.
func (c *Controller) invalidateOnFailure(ctx context.Context, visitorID, sessionID string, err error) {
	kind := apiclient.KindOf(err)
	if kind != apiclient.KindCartChanged && kind != apiclient.KindSessionExpired {
		return
	}
	cur, cerr := c.Current(ctx, visitorID)
	if cerr != nil {
		return
	}
	if sess, ok := activeSession(cur); ok && sess.SessionID == sessionID {
		c.Invalidate(ctx, visitorID, kind.String())
	}
}

// afterFailure is the state a failed backend call leaves behind: a changed
// cart or an expired session ends the session, anything else keeps cur.
func afterFailure(cur State, err error) State {
	kind := apiclient.KindOf(err)
	if kind != apiclient.KindCartChanged && kind != apiclient.KindSessionExpired {
		return cur
	}
	if sess, ok := activeSession(cur); ok {
		return Invalidated{PreviousSessionID: sess.SessionID, Reason: kind.String()}
	}
	return cur
}

func sessionEndpoint(sessionID, action string) string {
	return "/checkout/" + url.PathEscape(sessionID) + "/" + action
}

func validateAddresses(in Addresses) map[string]string {
	errs := address.ValidateAs("shipping_address", in.Shipping)
	if in.BillingSameAsShipping {
		return errs
	}
	if in.Billing == nil {
		errs["billing_address"] = "is required"
		return errs
	}
	for k, v := range address.ValidateAs("billing_address", *in.Billing) {
		errs[k] = v
	}
	return errs
}
