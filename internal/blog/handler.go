package blog

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
	app.Get("/api/v1/blog/posts", h.list)
	app.Get("/api/v1/blog/posts/:slug", h.get)
}

func (h *Handler) list(c *fiber.Ctx) error {
	page, err := h.service.List(c.UserContext(), web.VisitorFromCtx(c).ID, c.QueryInt("page", 1))
	if err != nil {
		return web.Error(c, err)
	}
	// an empty page is fine; the frontend renders its own placeholder
	if page.Data == nil {
		page.Data = []Post{}
	}
	return c.JSON(page)
}

func (h *Handler) get(c *fiber.Ctx) error {
	post, err := h.service.Get(c.UserContext(), web.VisitorFromCtx(c).ID, c.Params("slug"))
	if err != nil {
		return web.Error(c, err)
	}
	return c.JSON(post)
}
