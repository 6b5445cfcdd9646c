package product

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/pet-shop-storefront/internal/apiclient/apiclienttest"
	"github.com/wichananm65/pet-shop-storefront/internal/cache"
	"github.com/wichananm65/pet-shop-storefront/internal/web"
)

func makeAppWithProductHandler(h *Handler) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		web.SetVisitor(c, web.Visitor{ID: "v1"})
		return c.Next()
	})
	h.RegisterPublicRoutes(app)
	return app
}

func ptrString(s string) *string { return &s }

func TestProductRoutes_ListIsCachedPerQuery(t *testing.T) {
	page := Page{Data: []Product{{ID: 12, Slug: "cat-sweater", Name: "Cat Sweater", Price: 26000, Category: ptrString("Clothes and accessories"), InStock: true}}, CurrentPage: 1, LastPage: 1, Total: 1}
	fake := apiclienttest.New().On("GET", "/products", apiclienttest.Reply(page))
	app := makeAppWithProductHandler(NewHandler(NewService(fake, cache.NewMemoryCache(), time.Minute)))

	for i := 0; i < 2; i++ {
		res, err := app.Test(httptest.NewRequest("GET", "/api/v1/products?category=cats&sort=price_asc", nil))
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if res.StatusCode != fiber.StatusOK {
			t.Fatalf("expected 200, got %d", res.StatusCode)
		}
		var got Page
		if err := json.NewDecoder(res.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(got.Data) != 1 || got.Data[0].Slug != "cat-sweater" {
			t.Fatalf("unexpected page %+v", got)
		}
	}
	if n := fake.Count("GET", "/products"); n != 1 {
		t.Fatalf("expected a single backend call, got %d", n)
	}
	call, _ := fake.Last("GET", "/products")
	if call.Request.Query.Get("category") != "cats" || call.Request.Query.Get("sort") != "price_asc" {
		t.Fatalf("unexpected query %v", call.Request.Query)
	}

	if _, err := app.Test(httptest.NewRequest("GET", "/api/v1/products?category=dogs", nil)); err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if n := fake.Count("GET", "/products"); n != 2 {
		t.Fatalf("a different query must miss the cache, got %d calls", n)
	}
}

func TestProductRoutes_RejectsUnknownSort(t *testing.T) {
	fake := apiclienttest.New()
	app := makeAppWithProductHandler(NewHandler(NewService(fake, nil, 0)))

	res, err := app.Test(httptest.NewRequest("GET", "/api/v1/products?sort=random", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.StatusCode)
	}
	if len(fake.Calls()) != 0 {
		t.Fatalf("backend must not be called")
	}
}

func TestProductRoutes_DetailBySlug(t *testing.T) {
	fake := apiclienttest.New().
		On("GET", "/products/cat-sweater", apiclienttest.Reply(Product{ID: 12, Slug: "cat-sweater", Name: "Cat Sweater"}))
	app := makeAppWithProductHandler(NewHandler(NewService(fake, nil, 0)))

	res, err := app.Test(httptest.NewRequest("GET", "/api/v1/product/cat-sweater", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}

	// unknown slugs surface the backend's 404
	res, err = app.Test(httptest.NewRequest("GET", "/api/v1/product/nope", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.StatusCode)
	}
}

func TestProductRoutes_Recommended(t *testing.T) {
	fake := apiclienttest.New().On("GET", "/products/recommended", apiclienttest.Reply([]Product{{ID: 1, Slug: "kibble"}}))
	app := makeAppWithProductHandler(NewHandler(NewService(fake, nil, 0)))

	res, err := app.Test(httptest.NewRequest("GET", "/api/v1/products/recommended?limit=4&offset=8", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	call, _ := fake.Last("GET", "/products/recommended")
	if call.Request.Query.Get("limit") != "4" || call.Request.Query.Get("offset") != "8" {
		t.Fatalf("unexpected query %v", call.Request.Query)
	}
}

// Ensure product handler does NOT register the favorites path.
func TestProductHandler_DoesNotRegisterFavoriteRoute(t *testing.T) {
	app := makeAppWithProductHandler(NewHandler(NewService(apiclienttest.New(), nil, 0)))

	routes := map[string]bool{}
	for _, grp := range app.Stack() {
		for _, r := range grp {
			routes[r.Path] = true
		}
	}

	if !routes["/api/v1/product/:slug"] {
		t.Fatalf("expected route '/api/v1/product/:slug' to be registered")
	}
	if routes["/api/v1/favorites"] {
		t.Fatalf("product handler must not register '/api/v1/favorites' route")
	}
}
