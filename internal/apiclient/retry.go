package apiclient

import (
	"context"
	"errors"
)

// retryPolicy runs an attempt up to maxAttempts times. before runs between
// attempts and aborts the loop when it fails.
type retryPolicy struct {
	maxAttempts int
	shouldRetry func(error) bool
	before      func(ctx context.Context) error
}

func (p retryPolicy) Do(ctx context.Context, fn func() error) error {
	attempts := p.maxAttempts
	if attempts < 1 {
		attempts = 1
	}
	shouldRetry := p.shouldRetry
	if shouldRetry == nil {
		shouldRetry = func(error) bool { return false }
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if err != nil {
				return errors.Join(err, ctxErr)
			}
			return ctxErr
		}
		err = fn()
		if err == nil {
			return nil
		}
		if attempt == attempts || !shouldRetry(err) {
			return err
		}
		if p.before != nil {
			if berr := p.before(ctx); berr != nil {
				return berr
			}
		}
	}
	return err
}
