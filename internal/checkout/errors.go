package checkout

import (
	"errors"
	"fmt"
)

var (
	// ErrStepOrder is returned when a step's prerequisite has not been met.
	ErrStepOrder = errors.New("checkout step out of order")
	// ErrStepInProgress rejects a step while another one for the same visitor is running.
	ErrStepInProgress = errors.New("another checkout step is in progress")
	// ErrSessionInvalidated is returned when the cart changed while a step was running.
	ErrSessionInvalidated = errors.New("checkout session was invalidated")
)

func stepOrder(op string, cur State) error {
	return fmt.Errorf("%w: cannot %s in state %s", ErrStepOrder, op, cur.Name())
}

// InvalidSelectionError reports a rejected shipping method or payment
// provider together with the freshly reloaded options.
type InvalidSelectionError struct {
	Err              error
	ShippingMethods  []ShippingMethod
	PaymentProviders []PaymentProvider
}

func (e *InvalidSelectionError) Error() string {
	return e.Err.Error()
}

func (e *InvalidSelectionError) Unwrap() error { return e.Err }
