package checkout

import "time"

// Snapshot is the flat, serialisable form of a State. It is what the store
// persists and what the HTTP layer returns.
type Snapshot struct {
	State           StateName        `json:"state"`
	SessionID       string           `json:"session_id,omitempty"`
	Items           []LineItem       `json:"items,omitempty"`
	Pricing         *Pricing         `json:"pricing,omitempty"`
	Addresses       *Addresses       `json:"addresses,omitempty"`
	ShippingMethod  *ShippingMethod  `json:"shipping_method,omitempty"`
	PaymentProvider *PaymentProvider `json:"payment_provider,omitempty"`
	Order           *OrderRef        `json:"order,omitempty"`
	Reason          string           `json:"reason,omitempty"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

func SnapshotOf(s State) Snapshot {
	snap := Snapshot{State: s.Name()}
	if st, ok := activeSession(s); ok {
		pricing := st.Pricing
		snap.SessionID = st.SessionID
		snap.Items = st.Items
		snap.Pricing = &pricing
	}
	if as, ok := addressStep(s); ok {
		addrs := as.Addresses
		snap.Addresses = &addrs
	}
	if ss, ok := shippingStep(s); ok {
		m := ss.ShippingMethod
		snap.ShippingMethod = &m
	}
	switch v := s.(type) {
	case PaymentSet:
		p := v.PaymentProvider
		snap.PaymentProvider = &p
	case Confirmed:
		order, pricing := v.Order, v.Pricing
		snap.SessionID = v.SessionID
		snap.Order = &order
		snap.Pricing = &pricing
	case Invalidated:
		snap.SessionID = v.PreviousSessionID
		snap.Reason = v.Reason
	}
	return snap
}

// Restore rebuilds the State a snapshot was taken from. Unknown states
// restore as NotStarted.
func (s Snapshot) Restore() State {
	var pricing Pricing
	if s.Pricing != nil {
		pricing = *s.Pricing
	}
	started := Started{SessionID: s.SessionID, Items: s.Items, Pricing: pricing}

	switch s.State {
	case StateStarted:
		return started
	case StateAddressSet, StateShippingSet, StatePaymentSet:
		if s.Addresses == nil {
			return started
		}
		as := AddressSet{Started: started, Addresses: *s.Addresses}
		if s.State == StateAddressSet || s.ShippingMethod == nil {
			return as
		}
		ss := ShippingSet{AddressSet: as, ShippingMethod: *s.ShippingMethod}
		if s.State == StateShippingSet || s.PaymentProvider == nil {
			return ss
		}
		return PaymentSet{ShippingSet: ss, PaymentProvider: *s.PaymentProvider}
	case StateConfirmed:
		c := Confirmed{SessionID: s.SessionID, Pricing: pricing}
		if s.Order != nil {
			c.Order = *s.Order
		}
		return c
	case StateInvalidated:
		return Invalidated{PreviousSessionID: s.SessionID, Reason: s.Reason}
	}
	return NotStarted{}
}
