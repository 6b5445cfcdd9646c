package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/wichananm65/pet-shop-storefront/internal/cache"
)

// maxTokenAttempts bounds a state-changing call to one retry after a token mismatch.
const maxTokenAttempts = 2

const maxBodyBytes = 4 << 20

// Config configures the gateway adapter.
type Config struct {
	BaseURL             string
	SecurityTokenPath   string
	SecurityTokenCookie string
	SecurityTokenHeader string
	Locale              string
	Currency            string
	Timeout             time.Duration
	ScopedTokenTTL      time.Duration
	// Transport defaults to http.DefaultTransport.
	Transport http.RoundTripper
}

// Request describes one backend call. Endpoint is relative to the base URL.
type Request struct {
	Method   string
	Endpoint string
	Query    url.Values
	Body     any
	Scopes   []Scope
	Locale   string
	Currency string
}

func (r Request) method() string {
	if r.Method == "" {
		return http.MethodGet
	}
	return strings.ToUpper(r.Method)
}

// Doer is the part of the adapter the domain services depend on.
type Doer interface {
	Do(ctx context.Context, visitorID string, req Request, out any) error
}

// Client is the single gateway between the storefront and the commerce backend.
// It keeps one backend session per visitor: a cookie jar for credential
// forwarding and that session's security token.
type Client struct {
	cfg       Config
	base      *url.URL
	store     cache.Cache
	log       logrus.FieldLogger
	transport http.RoundTripper

	mu       sync.Mutex
	sessions map[string]*backendSession

	hooksMu sync.RWMutex
	hooks   []func(ctx context.Context, visitorID string)

	now func() time.Time
}

type backendSession struct {
	http     *http.Client
	jar      http.CookieJar
	token    *securityToken
	lastUsed atomic.Int64
}

func New(cfg Config, store cache.Cache, log logrus.FieldLogger) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if !base.IsAbs() {
		return nil, fmt.Errorf("base url %q is not absolute", cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		return nil, errors.New("timeout must be positive")
	}
	if cfg.SecurityTokenPath == "" {
		cfg.SecurityTokenPath = "/sanctum/csrf-cookie"
	}
	if cfg.SecurityTokenCookie == "" {
		cfg.SecurityTokenCookie = "XSRF-TOKEN"
	}
	if cfg.SecurityTokenHeader == "" {
		cfg.SecurityTokenHeader = "X-XSRF-TOKEN"
	}
	if cfg.ScopedTokenTTL <= 0 {
		cfg.ScopedTokenTTL = 30 * 24 * time.Hour
	}
	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &Client{
		cfg:       cfg,
		base:      base,
		store:     store,
		log:       log,
		transport: transport,
		sessions:  make(map[string]*backendSession),
		now:       time.Now,
	}, nil
}

// OnUnauthenticated registers fn to run when the backend rejects a visitor's
// credentials outside the authentication endpoints.
func (c *Client) OnUnauthenticated(fn func(ctx context.Context, visitorID string)) {
	c.hooksMu.Lock()
	c.hooks = append(c.hooks, fn)
	c.hooksMu.Unlock()
}

// Do performs req for the visitor and decodes a successful JSON response into out.
// Failures are *APIError values.
func (c *Client) Do(ctx context.Context, visitorID string, req Request, out any) error {
	sess := c.session(visitorID)
	method := req.method()

	var used string
	policy := retryPolicy{maxAttempts: 1}
	if isStateChanging(method) {
		policy = retryPolicy{
			maxAttempts: maxTokenAttempts,
			shouldRetry: func(err error) bool { return errors.Is(err, ErrSecurityTokenMismatch) },
			before: func(ctx context.Context) error {
				c.log.WithFields(logrus.Fields{"visitor": visitorID, "endpoint": req.Endpoint}).
					Info("security token mismatch, refreshing token and retrying")
				if _, err := sess.token.Refresh(ctx, used); err != nil {
					return asAPIError(err)
				}
				return nil
			},
		}
	}

	err := policy.Do(ctx, func() error {
		var err error
		used, err = c.attempt(ctx, visitorID, sess, req, out)
		return err
	})
	if err == nil {
		return nil
	}

	apiErr := asAPIError(err)
	if apiErr.Kind == KindUnauthenticated && !isAuthEndpoint(req.Endpoint) {
		c.forceLogout(ctx, visitorID)
	}
	return apiErr
}

func (c *Client) attempt(ctx context.Context, visitorID string, sess *backendSession, req Request, out any) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var token string
	if isStateChanging(req.method()) {
		t, err := sess.token.Get(ctx)
		if err != nil {
			return "", asAPIError(err)
		}
		token = t
	}

	httpReq, err := c.newRequest(ctx, visitorID, req, token)
	if err != nil {
		return token, err
	}

	resp, err := sess.http.Do(httpReq)
	if err != nil {
		return token, transportError(0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return token, transportError(resp.StatusCode, err)
	}
	if resp.StatusCode >= 400 {
		return token, parseErrorResponse(resp.StatusCode, body)
	}
	if out != nil && len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return token, &APIError{Kind: KindUnknown, Status: resp.StatusCode, Message: "decode response", Err: err}
		}
	}
	return token, nil
}

func (c *Client) newRequest(ctx context.Context, visitorID string, req Request, token string) (*http.Request, error) {
	u := c.base.JoinPath(req.Endpoint)
	if len(req.Query) > 0 {
		u.RawQuery = req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return nil, &APIError{Kind: KindUnknown, Message: "encode request", Err: err}
		}
		body = bytes.NewReader(b)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method(), u.String(), body)
	if err != nil {
		return nil, &APIError{Kind: KindUnknown, Message: "build request", Err: err}
	}
	c.setHeaders(httpReq, req.Locale, req.Currency)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		httpReq.Header.Set(c.cfg.SecurityTokenHeader, token)
	}
	for _, scope := range req.Scopes {
		tok, err := c.ScopedToken(ctx, visitorID, scope)
		if err != nil {
			return nil, transportError(0, err)
		}
		httpReq.Header.Set(scope.Header(), tok)
	}
	return httpReq, nil
}

func (c *Client) setHeaders(req *http.Request, locale, currency string) {
	if locale == "" {
		locale = c.cfg.Locale
	}
	if currency == "" {
		currency = c.cfg.Currency
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	if locale != "" {
		req.Header.Set("Accept-Language", locale)
		req.Header.Set("X-Locale", locale)
	}
	if currency != "" {
		req.Header.Set("X-Currency", currency)
	}
}

// fetchSecurityToken runs the preflight that makes the backend issue a token cookie.
func (c *Client) fetchSecurityToken(ctx context.Context, sess *backendSession) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	u := c.base.JoinPath(c.cfg.SecurityTokenPath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", &APIError{Kind: KindUnknown, Message: "build preflight", Err: err}
	}
	c.setHeaders(req, "", "")

	resp, err := sess.http.Do(req)
	if err != nil {
		return "", transportError(0, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if resp.StatusCode >= 400 {
		return "", parseErrorResponse(resp.StatusCode, body)
	}

	for _, ck := range sess.jar.Cookies(u) {
		if ck.Name != c.cfg.SecurityTokenCookie {
			continue
		}
		v, err := url.QueryUnescape(ck.Value)
		if err != nil {
			v = ck.Value
		}
		c.log.Debug("fetched security token from cookie")
		return v, nil
	}

	var tb struct {
		Token string `json:"token"`
	}
	if json.Unmarshal(body, &tb) == nil && tb.Token != "" {
		c.log.Debug("fetched security token from body")
		return tb.Token, nil
	}
	return "", transportError(resp.StatusCode, errNoSecurityToken)
}

func (c *Client) session(visitorID string) *backendSession {
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, ok := c.sessions[visitorID]
	if !ok {
		jar, _ := cookiejar.New(nil)
		sess = &backendSession{
			jar:  jar,
			http: &http.Client{Transport: c.transport, Jar: jar},
		}
		s := sess
		sess.token = &securityToken{fetch: func(ctx context.Context) (string, error) {
			return c.fetchSecurityToken(ctx, s)
		}}
		c.sessions[visitorID] = sess
	}
	sess.lastUsed.Store(c.now().UnixNano())
	return sess
}

// ClearSession forgets the visitor's security token and backend cookies.
func (c *Client) ClearSession(visitorID string) {
	c.mu.Lock()
	sess, ok := c.sessions[visitorID]
	delete(c.sessions, visitorID)
	c.mu.Unlock()
	if ok {
		sess.token.Clear()
	}
}

// PruneIdle drops backend sessions unused for longer than maxIdle and
// reports how many were removed.
func (c *Client) PruneIdle(maxIdle time.Duration) int {
	cutoff := c.now().Add(-maxIdle).UnixNano()
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for id, sess := range c.sessions {
		if sess.lastUsed.Load() < cutoff {
			delete(c.sessions, id)
			n++
		}
	}
	return n
}

func (c *Client) forceLogout(ctx context.Context, visitorID string) {
	c.ClearSession(visitorID)
	c.log.WithField("visitor", visitorID).Warn("backend rejected credentials, logging visitor out")

	c.hooksMu.RLock()
	hooks := append([]func(context.Context, string){}, c.hooks...)
	c.hooksMu.RUnlock()
	for _, h := range hooks {
		h(ctx, visitorID)
	}
}

var authEndpoints = map[string]bool{
	"/auth/login":           true,
	"/auth/register":        true,
	"/auth/logout":          true,
	"/auth/forgot-password": true,
	"/auth/reset-password":  true,
}

func isAuthEndpoint(endpoint string) bool {
	if i := strings.IndexByte(endpoint, '?'); i >= 0 {
		endpoint = endpoint[:i]
	}
	return authEndpoints["/"+strings.Trim(endpoint, "/")]
}

func isStateChanging(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func asAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return transportError(0, err)
}
