// Package apiclienttest provides a scripted apiclient.Doer for tests.
package apiclienttest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/wichananm65/pet-shop-storefront/internal/apiclient"
)

// Call is one recorded request.
type Call struct {
	VisitorID string
	Request   apiclient.Request
}

// Response is a scripted reply: Body is JSON round-tripped into the caller's
// out value, Err is returned as is.
type Response struct {
	Body any
	Err  error
}

func Reply(body any) Response { return Response{Body: body} }

func Fail(err error) Response { return Response{Err: err} }

// FailCode fails with a backend error carrying status and domain code.
func FailCode(kind apiclient.Kind, status int, code string) Response {
	return Response{Err: &apiclient.APIError{Kind: kind, Status: status, Code: code, Message: strings.ToLower(code)}}
}

// Fake answers requests from per-route queues. The last queued response of a
// route is repeated once the queue drains.
type Fake struct {
	mu     sync.Mutex
	calls  []Call
	routes map[string][]Response

	// Hook, when set, runs before the response is produced.
	Hook func(ctx context.Context, call Call)
}

func New() *Fake {
	return &Fake{routes: map[string][]Response{}}
}

// On queues responses for method and endpoint.
func (f *Fake) On(method, endpoint string, responses ...Response) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := key(method, endpoint)
	f.routes[k] = append(f.routes[k], responses...)
	return f
}

func (f *Fake) Do(ctx context.Context, visitorID string, req apiclient.Request, out any) error {
	call := Call{VisitorID: visitorID, Request: req}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	k := key(req.Method, req.Endpoint)
	queue := f.routes[k]
	var resp Response
	found := len(queue) > 0
	if found {
		resp = queue[0]
		if len(queue) > 1 {
			f.routes[k] = queue[1:]
		}
	}
	hook := f.Hook
	f.mu.Unlock()

	if hook != nil {
		hook(ctx, call)
	}
	if err := ctx.Err(); err != nil {
		return &apiclient.APIError{Kind: apiclient.KindTransport, Err: err}
	}
	if !found {
		return &apiclient.APIError{Kind: apiclient.KindNotFound, Status: http.StatusNotFound, Message: "no route " + k}
	}
	if resp.Err != nil {
		return resp.Err
	}
	if out != nil && resp.Body != nil {
		b, err := json.Marshal(resp.Body)
		if err != nil {
			return fmt.Errorf("fake marshal: %w", err)
		}
		if err := json.Unmarshal(b, out); err != nil {
			return fmt.Errorf("fake unmarshal: %w", err)
		}
	}
	return nil
}

// Count reports how many calls hit method and endpoint.
func (f *Fake) Count(method, endpoint string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := key(method, endpoint)
	n := 0
	for _, c := range f.calls {
		if key(c.Request.Method, c.Request.Endpoint) == k {
			n++
		}
	}
	return n
}

// Calls returns a copy of every recorded call.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// Last returns the most recent call to method and endpoint.
func (f *Fake) Last(method, endpoint string) (Call, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := key(method, endpoint)
	for i := len(f.calls) - 1; i >= 0; i-- {
		if key(f.calls[i].Request.Method, f.calls[i].Request.Endpoint) == k {
			return f.calls[i], true
		}
	}
	return Call{}, false
}

func key(method, endpoint string) string {
	if method == "" {
		method = http.MethodGet
	}
	return strings.ToUpper(method) + " " + endpoint
}
