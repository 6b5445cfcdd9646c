package order

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/pet-shop-storefront/internal/apiclient"
	"github.com/wichananm65/pet-shop-storefront/internal/apiclient/apiclienttest"
	"github.com/wichananm65/pet-shop-storefront/internal/web"
)

func makeApp(fake *apiclienttest.Fake) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		web.SetVisitor(c, web.Visitor{ID: "v1", UserID: 5})
		return c.Next()
	})
	h := NewHandler(NewService(fake))
	h.RegisterPublicRoutes(app)
	h.RegisterProtectedRoutes(app)
	return app
}

func TestGetOrders(t *testing.T) {
	fake := apiclienttest.New().On("GET", "/orders", apiclienttest.Reply([]Order{{ID: 9831, Number: "PS-9831", Status: "pending", GrandTotal: 9530}}))
	app := makeApp(fake)

	res, err := app.Test(httptest.NewRequest("GET", "/api/v1/orders", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	var got []Order
	if err := json.NewDecoder(res.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].ID != 9831 {
		t.Fatalf("unexpected orders %+v", got)
	}
}

func TestGetOrder_UsesGuestToken(t *testing.T) {
	fake := apiclienttest.New().On("GET", "/orders/9831", apiclienttest.Reply(Order{ID: 9831, Status: "pending"}))
	app := makeApp(fake)

	res, err := app.Test(httptest.NewRequest("GET", "/api/v1/orders/9831", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	call, ok := fake.Last("GET", "/orders/9831")
	if !ok {
		t.Fatalf("backend was not called")
	}
	if len(call.Request.Scopes) != 1 || call.Request.Scopes[0] != apiclient.ScopeGuest {
		t.Fatalf("expected guest scope, got %v", call.Request.Scopes)
	}
}

func TestGetOrders_SessionEnded(t *testing.T) {
	fake := apiclienttest.New().On("GET", "/orders", apiclienttest.FailCode(apiclient.KindUnauthenticated, 401, ""))
	app := makeApp(fake)

	res, err := app.Test(httptest.NewRequest("GET", "/api/v1/orders", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.StatusCode)
	}
}
