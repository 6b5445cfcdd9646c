package checkout

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSnapshot_RestoresEveryState(t *testing.T) {
	started := Started{SessionID: "c_7f2", Items: kibble, Pricing: Pricing{Items: 9000, Total: 9000}}
	as := AddressSet{Started: started, Addresses: sameAsShipping()}
	ss := ShippingSet{AddressSet: as, ShippingMethod: ShippingMethod{ID: 3, Name: "Kerry Express"}}
	ps := PaymentSet{ShippingSet: ss, PaymentProvider: PaymentProvider{Code: "cod", Type: ProviderOffline}}

	for _, st := range []State{
		NotStarted{},
		started,
		as,
		ss,
		ps,
		Confirmed{SessionID: "c_7f2", Order: OrderRef{ID: 9831}, Pricing: Pricing{Total: 9530}},
		Invalidated{PreviousSessionID: "c_7f2", Reason: "cart_changed"},
	} {
		t.Run(string(st.Name()), func(t *testing.T) {
			assert.Equal(t, st, SnapshotOf(st).Restore())
		})
	}
}

func TestSnapshot_IncompleteRestoresShallower(t *testing.T) {
	snap := Snapshot{State: StatePaymentSet, SessionID: "c_7f2", Addresses: &Addresses{Shipping: shipTo, BillingSameAsShipping: true}}
	assert.Equal(t, StateAddressSet, snap.Restore().Name())

	assert.Equal(t, StateNotStarted, Snapshot{State: "bogus"}.Restore().Name())
}
