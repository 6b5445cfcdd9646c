package user

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/wichananm65/pet-shop-storefront/internal/apiclient"
	"github.com/wichananm65/pet-shop-storefront/internal/apiclient/apiclienttest"
	"github.com/wichananm65/pet-shop-storefront/internal/cache"
	"github.com/wichananm65/pet-shop-storefront/internal/web"
)

type recordingClearer struct{ cleared []string }

func (r *recordingClearer) ClearSession(visitorID string) { r.cleared = append(r.cleared, visitorID) }

type fixture struct {
	app     *fiber.App
	fake    *apiclienttest.Fake
	service *Service
	clearer *recordingClearer
}

// newFixture wires the handler the way main does: public routes first, then
// the RequireUser gate, then the protected routes.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	log, _ := test.NewNullLogger()
	fake := apiclienttest.New()
	clearer := &recordingClearer{}
	sessions := NewSessions(cache.NewMemoryCache(), time.Hour)
	service := NewService(fake, clearer, sessions, log)
	visitors := web.NewVisitors("test-secret", false)
	handler := NewHandler(service, visitors)

	app := fiber.New()
	app.Use(visitors.Middleware())
	handler.RegisterPublicRoutes(app)
	app.Use(visitors.RequireUser(sessions.HasUser))
	handler.RegisterProtectedRoutes(app)
	return &fixture{app: app, fake: fake, service: service, clearer: clearer}
}

func (f *fixture) do(t *testing.T, method, path, body string, ck *http.Cookie) (*http.Response, string) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if ck != nil {
		req.AddCookie(ck)
	}
	res, err := f.app.Test(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	b, _ := io.ReadAll(res.Body)
	return res, string(b)
}

func sessionCookie(res *http.Response) *http.Cookie {
	for _, ck := range res.Cookies() {
		if ck.Name == web.VisitorCookie {
			return ck
		}
	}
	return nil
}

func (f *fixture) login(t *testing.T) *http.Cookie {
	t.Helper()
	f.fake.On("POST", "/auth/login", apiclienttest.Reply(nil))
	f.fake.On("GET", "/auth/user", apiclienttest.Reply(User{ID: 7, Email: "j@example.com", FirstName: "Jenny", LastName: "Test"}))

	res, body := f.do(t, "POST", "/api/v1/auth/login", `{"email":"j@example.com","password":"secret-pass"}`, nil)
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected login to succeed, got %d: %s", res.StatusCode, body)
	}
	ck := sessionCookie(res)
	if ck == nil {
		t.Fatalf("login must issue the visitor cookie")
	}
	return ck
}

func TestProfileRoute_RequiresLogin(t *testing.T) {
	f := newFixture(t)

	routes := map[string]bool{}
	for _, grp := range f.app.Stack() {
		for _, r := range grp {
			routes[r.Path] = true
		}
	}
	if !routes["/api/v1/profile"] || !routes["/api/v1/auth/login"] {
		t.Fatalf("expected profile and login routes to be registered")
	}

	res, body := f.do(t, "GET", "/api/v1/profile", "", nil)
	if res.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected unauthorized status, got %d", res.StatusCode)
	}
	if !strings.Contains(body, web.LoginPath) {
		t.Fatalf("expected a redirect to the login page, got %s", body)
	}
}

func TestLogin_ThenProfileFromCache(t *testing.T) {
	f := newFixture(t)
	ck := f.login(t)

	res, body := f.do(t, "GET", "/api/v1/profile", "", ck)
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 OK for logged-in profile, got %d", res.StatusCode)
	}
	var u User
	if err := json.Unmarshal([]byte(body), &u); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if u.Email != "j@example.com" {
		t.Fatalf("unexpected user %+v", u)
	}
	if n := f.fake.Count("GET", "/auth/user"); n != 1 {
		t.Fatalf("profile must be served from the remembered user, backend hit %d times", n)
	}
}

func TestLogin_InvalidInputNeverReachesBackend(t *testing.T) {
	f := newFixture(t)

	res, body := f.do(t, "POST", "/api/v1/auth/login", `{"email":"not-an-email"}`, nil)
	if res.StatusCode != fiber.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", res.StatusCode)
	}
	if !strings.Contains(body, `"email"`) || !strings.Contains(body, `"password"`) {
		t.Fatalf("expected field errors for email and password, got %s", body)
	}
	if len(f.fake.Calls()) != 0 {
		t.Fatalf("backend must not be called")
	}
}

func TestLogin_WrongPasswordSurfacesBackendValidation(t *testing.T) {
	f := newFixture(t)
	f.fake.On("POST", "/auth/login", apiclienttest.Fail(&apiclient.APIError{
		Kind:    apiclient.KindValidation,
		Status:  422,
		Message: "These credentials do not match our records.",
		Fields:  map[string][]string{"email": {"These credentials do not match our records."}},
	}))

	res, body := f.do(t, "POST", "/api/v1/auth/login", `{"email":"j@example.com","password":"nope"}`, nil)
	if res.StatusCode != fiber.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", res.StatusCode)
	}
	if !strings.Contains(body, "do not match") {
		t.Fatalf("expected backend message, got %s", body)
	}
}

func TestRegister_PasswordConfirmation(t *testing.T) {
	f := newFixture(t)

	res, body := f.do(t, "POST", "/api/v1/auth/register",
		`{"email":"new@example.com","password":"longenough","password_confirmation":"different","first_name":"N","last_name":"U","phone":"0812345678"}`, nil)
	if res.StatusCode != fiber.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", res.StatusCode)
	}
	if !strings.Contains(body, "password_confirmation") {
		t.Fatalf("expected password_confirmation error, got %s", body)
	}
}

func TestLogout_ClearsBackendSessionAndUser(t *testing.T) {
	f := newFixture(t)
	ck := f.login(t)
	f.fake.On("POST", "/auth/logout", apiclienttest.Reply(nil))

	res, _ := f.do(t, "POST", "/api/v1/auth/logout", "", ck)
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected logout to succeed, got %d", res.StatusCode)
	}
	if len(f.clearer.cleared) != 1 {
		t.Fatalf("expected the backend session to be cleared once, got %v", f.clearer.cleared)
	}

	// the old cookie still names the user, but the server no longer does
	res, _ = f.do(t, "GET", "/api/v1/profile", "", ck)
	if res.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", res.StatusCode)
	}
}

func TestForceLogout_EndsSession(t *testing.T) {
	f := newFixture(t)
	ck := f.login(t)

	visitorID := f.fake.Calls()[0].VisitorID
	f.service.ForceLogout(context.Background(), visitorID)

	res, _ := f.do(t, "GET", "/api/v1/profile", "", ck)
	if res.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 after forced logout, got %d", res.StatusCode)
	}
}

func TestForgotPassword(t *testing.T) {
	f := newFixture(t)
	f.fake.On("POST", "/auth/forgot-password", apiclienttest.Reply(nil))

	res, _ := f.do(t, "POST", "/api/v1/auth/forgot-password", `{"email":"j@example.com"}`, nil)
	if res.StatusCode != fiber.StatusAccepted {
		t.Fatalf("expected 202, got %d", res.StatusCode)
	}
	res, _ = f.do(t, "POST", "/api/v1/auth/forgot-password", `{"email":""}`, nil)
	if res.StatusCode != fiber.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for a missing email, got %d", res.StatusCode)
	}
}
