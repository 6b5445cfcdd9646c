package category

import (
	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/pet-shop-storefront/internal/web"
)

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Get("/api/v1/categories", h.getCategories)
}

func (h *Handler) getCategories(c *fiber.Ctx) error {
	items, err := h.service.List(c.UserContext(), web.VisitorFromCtx(c).ID, c.QueryInt("limit", 0))
	if err != nil {
		return web.Error(c, err)
	}
	if items == nil {
		items = []Category{}
	}
	return c.JSON(items)
}
