package checkout

type StateName string

const (
	StateNotStarted  StateName = "not_started"
	StateStarted     StateName = "started"
	StateAddressSet  StateName = "address_set"
	StateShippingSet StateName = "shipping_set"
	StatePaymentSet  StateName = "payment_set"
	StateConfirmed   StateName = "confirmed"
	StateInvalidated StateName = "invalidated"
)

// IsTerminal reports whether no further step can follow without a restart.
func (s StateName) IsTerminal() bool {
	return s == StateConfirmed || s == StateInvalidated
}

// State is the local mirror of a checkout session. Each step's type embeds
// the previous one, so a value only carries what is valid at that step.
type State interface {
	Name() StateName
	isState()
}

// NotStarted is a visitor with no checkout session.
type NotStarted struct{}

// Started holds a backend session created from the cart.
type Started struct {
	SessionID string
	Items     []LineItem
	Pricing   Pricing
}

// AddressSet adds the shipping and billing addresses.
type AddressSet struct {
	Started
	Addresses Addresses
}

// ShippingSet adds the chosen shipping method.
type ShippingSet struct {
	AddressSet
	ShippingMethod ShippingMethod
}

// PaymentSet adds the chosen payment provider; the session can be confirmed.
type PaymentSet struct {
	ShippingSet
	PaymentProvider PaymentProvider
}

// Confirmed records the placed order.
type Confirmed struct {
	SessionID string
	Order     OrderRef
	Pricing   Pricing
}

// Invalidated records that the session was discarded; only a new Start continues.
type Invalidated struct {
	PreviousSessionID string
	Reason            string
}

func (NotStarted) Name() StateName  { return StateNotStarted }
func (Started) Name() StateName     { return StateStarted }
func (AddressSet) Name() StateName  { return StateAddressSet }
func (ShippingSet) Name() StateName { return StateShippingSet }
func (PaymentSet) Name() StateName  { return StatePaymentSet }
func (Confirmed) Name() StateName   { return StateConfirmed }
func (Invalidated) Name() StateName { return StateInvalidated }

func (NotStarted) isState()  {}
func (Started) isState()     {}
func (Confirmed) isState()   {}
func (Invalidated) isState() {}

// activeSession returns the session of any state that still has one.
func activeSession(s State) (Started, bool) {
	switch v := s.(type) {
	case Started:
		return v, true
	case AddressSet:
		return v.Started, true
	case ShippingSet:
		return v.Started, true
	case PaymentSet:
		return v.Started, true
	}
	return Started{}, false
}

func addressStep(s State) (AddressSet, bool) {
	switch v := s.(type) {
	case AddressSet:
		return v, true
	case ShippingSet:
		return v.AddressSet, true
	case PaymentSet:
		return v.AddressSet, true
	}
	return AddressSet{}, false
}

func shippingStep(s State) (ShippingSet, bool) {
	switch v := s.(type) {
	case ShippingSet:
		return v, true
	case PaymentSet:
		return v.ShippingSet, true
	}
	return ShippingSet{}, false
}

func (s Started) withPricing(p Pricing) Started {
	s.Pricing = p
	return s
}

// stateFromPayload rebuilds the deepest state the backend session supports.
func stateFromPayload(p sessionPayload) State {
	st := Started{SessionID: p.ID, Items: p.Items, Pricing: p.Pricing}
	if p.Addresses == nil {
		return st
	}
	as := AddressSet{Started: st, Addresses: *p.Addresses}
	if p.SelectedShippingMethod == nil {
		return as
	}
	ss := ShippingSet{AddressSet: as, ShippingMethod: *p.SelectedShippingMethod}
	if p.SelectedPaymentProvider == nil {
		return ss
	}
	return PaymentSet{ShippingSet: ss, PaymentProvider: *p.SelectedPaymentProvider}
}
