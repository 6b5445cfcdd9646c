package category

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wichananm65/pet-shop-storefront/internal/apiclient"
	"github.com/wichananm65/pet-shop-storefront/internal/apiclient/apiclienttest"
	"github.com/wichananm65/pet-shop-storefront/internal/cache"
	"github.com/wichananm65/pet-shop-storefront/internal/web"
)

func makeApp(s *Service) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		web.SetVisitor(c, web.Visitor{ID: "v1"})
		return c.Next()
	})
	NewHandler(s).RegisterPublicRoutes(app)
	return app
}

func TestCategories_CachedAndLimited(t *testing.T) {
	fake := apiclienttest.New().On("GET", "/categories", apiclienttest.Reply([]Category{
		{ID: 1, Slug: "animal-food", Name: "Animal Food"},
		{ID: 2, Slug: "pet-supplies", Name: "Pet Supplies"},
		{ID: 3, Slug: "cat-snacks", Name: "Cat snacks"},
	}))
	app := makeApp(NewService(fake, cache.NewMemoryCache(), time.Minute))

	res, err := app.Test(httptest.NewRequest("GET", "/api/v1/categories?limit=2", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, res.StatusCode)
	var got []Category
	require.NoError(t, json.NewDecoder(res.Body).Decode(&got))
	assert.Len(t, got, 2)

	res, err = app.Test(httptest.NewRequest("GET", "/api/v1/categories", nil))
	require.NoError(t, err)
	got = nil
	require.NoError(t, json.NewDecoder(res.Body).Decode(&got))
	assert.Len(t, got, 3, "the cached list is not truncated by an earlier limit")
	assert.Equal(t, 1, fake.Count("GET", "/categories"))
}

func TestCategories_BackendDown(t *testing.T) {
	fake := apiclienttest.New().On("GET", "/categories", apiclienttest.Fail(&apiclient.APIError{Kind: apiclient.KindTransport, Status: 503}))
	app := makeApp(NewService(fake, nil, 0))

	res, err := app.Test(httptest.NewRequest("GET", "/api/v1/categories", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadGateway, res.StatusCode)
}
