package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies a failed backend call.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindSecurityTokenMismatch
	KindUnauthenticated
	KindCartChanged
	KindInvalidShipping
	KindInvalidPayment
	KindSessionExpired
	KindNotFound
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindSecurityTokenMismatch:
		return "security_token_mismatch"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindCartChanged:
		return "cart_changed"
	case KindInvalidShipping:
		return "invalid_shipping"
	case KindInvalidPayment:
		return "invalid_payment"
	case KindSessionExpired:
		return "session_expired"
	case KindNotFound:
		return "not_found"
	case KindTransport:
		return "transport"
	default:
		return "unknown"
	}
}

// Sentinels usable with errors.Is against any *APIError of the same kind.
var (
	ErrValidation            = errors.New("validation failed")
	ErrSecurityTokenMismatch = errors.New("security token mismatch")
	ErrUnauthenticated       = errors.New("unauthenticated")
	ErrCartChanged           = errors.New("cart changed")
	ErrInvalidShipping       = errors.New("invalid shipping method")
	ErrInvalidPayment        = errors.New("invalid payment provider")
	ErrSessionExpired        = errors.New("checkout session expired")
	ErrNotFound              = errors.New("not found")
	ErrTransport             = errors.New("transport failure")
)

var kindSentinels = map[Kind]error{
	KindValidation:            ErrValidation,
	KindSecurityTokenMismatch: ErrSecurityTokenMismatch,
	KindUnauthenticated:       ErrUnauthenticated,
	KindCartChanged:           ErrCartChanged,
	KindInvalidShipping:       ErrInvalidShipping,
	KindInvalidPayment:        ErrInvalidPayment,
	KindSessionExpired:        ErrSessionExpired,
	KindNotFound:              ErrNotFound,
	KindTransport:             ErrTransport,
}

// Backend error codes carried in the response body.
const (
	CodeCartChanged     = "CART_CHANGED"
	CodeInvalidShipping = "INVALID_SHIPPING"
	CodeInvalidPayment  = "INVALID_PAYMENT"
	CodeSessionExpired  = "SESSION_EXPIRED"
)

// StatusTokenMismatch is the non-standard status the backend uses for a stale security token.
const StatusTokenMismatch = 419

// APIError is returned for every failed call.
type APIError struct {
	Kind    Kind
	Status  int
	Code    string
	Message string
	// Fields holds per-field messages for validation failures.
	Fields map[string][]string
	Err    error
}

func (e *APIError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Status != 0 {
		fmt.Fprintf(&b, " (status %d)", e.Status)
	}
	if e.Code != "" {
		fmt.Fprintf(&b, " [%s]", e.Code)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *APIError) Unwrap() error { return e.Err }

func (e *APIError) Is(target error) bool {
	s, ok := kindSentinels[e.Kind]
	return ok && s == target
}

// KindOf reports the kind of err, or KindUnknown when err is not an *APIError.
func KindOf(err error) Kind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUnknown
}

// FieldErrors returns the validation messages carried by err, if any.
func FieldErrors(err error) map[string][]string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Fields
	}
	return nil
}

// NewValidationError builds a validation failure from field messages.
func NewValidationError(message string, fields map[string]string) *APIError {
	out := make(map[string][]string, len(fields))
	for k, v := range fields {
		out[k] = []string{v}
	}
	return &APIError{Kind: KindValidation, Status: http.StatusUnprocessableEntity, Message: message, Fields: out}
}

func transportError(status int, err error) *APIError {
	return &APIError{Kind: KindTransport, Status: status, Err: err}
}

type errorBody struct {
	Message string              `json:"message"`
	Code    string              `json:"code"`
	Errors  map[string][]string `json:"errors"`
}

func parseErrorResponse(status int, body []byte) *APIError {
	var eb errorBody
	_ = json.Unmarshal(body, &eb)

	e := &APIError{Status: status, Code: eb.Code, Message: eb.Message}

	switch eb.Code {
	case CodeCartChanged:
		e.Kind = KindCartChanged
		return e
	case CodeInvalidShipping:
		e.Kind = KindInvalidShipping
		return e
	case CodeInvalidPayment:
		e.Kind = KindInvalidPayment
		return e
	case CodeSessionExpired:
		e.Kind = KindSessionExpired
		return e
	}

	switch {
	case status == StatusTokenMismatch:
		e.Kind = KindSecurityTokenMismatch
	case status == http.StatusUnauthorized:
		e.Kind = KindUnauthenticated
	case status == http.StatusUnprocessableEntity:
		e.Kind = KindValidation
		e.Fields = eb.Errors
	case status == http.StatusNotFound:
		e.Kind = KindNotFound
	case status == http.StatusGone:
		e.Kind = KindSessionExpired
	case status >= 500:
		e.Kind = KindTransport
	default:
		e.Kind = KindUnknown
	}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	return e
}
