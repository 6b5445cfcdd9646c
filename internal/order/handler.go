package order

import (
	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/pet-shop-storefront/internal/web"
)

// Handler exposes order history and the order confirmation page.
type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Get("/api/v1/orders/:id<int>", h.getOrder)
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Get("/api/v1/orders", h.getOrders)
}

func (h *Handler) getOrders(c *fiber.Ctx) error {
	orders, err := h.service.List(c.UserContext(), web.VisitorFromCtx(c).ID)
	if err != nil {
		return web.Error(c, err)
	}
	if orders == nil {
		orders = []Order{}
	}
	return c.JSON(orders)
}

func (h *Handler) getOrder(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid order id"})
	}
	o, err := h.service.Get(c.UserContext(), web.VisitorFromCtx(c).ID, int64(id))
	if err != nil {
		return web.Error(c, err)
	}
	return c.JSON(o)
}
