package product

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/pet-shop-storefront/internal/web"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Get("/api/v1/products", h.getProducts)
	app.Get("/api/v1/products/recommended", h.getRecommended)
	app.Get("/api/v1/product/:slug", h.getProduct)
}

func (h *Handler) getProducts(c *fiber.Ctx) error {
	q := Query{
		Category: c.Query("category"),
		Search:   c.Query("q"),
		Sort:     c.Query("sort"),
		Page:     c.QueryInt("page", 1),
	}
	page, err := h.service.List(c.UserContext(), web.VisitorFromCtx(c).ID, q)
	if errors.Is(err, ErrInvalidSort) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error(), "allowed": AllowedSorts})
	}
	if err != nil {
		return web.Error(c, err)
	}
	return c.JSON(page)
}

func (h *Handler) getProduct(c *fiber.Ctx) error {
	p, err := h.service.GetBySlug(c.UserContext(), web.VisitorFromCtx(c).ID, c.Params("slug"))
	if err != nil {
		return web.Error(c, err)
	}
	return c.JSON(p)
}

func (h *Handler) getRecommended(c *fiber.Ctx) error {
	// support pagination: ?limit=12&offset=0
	items, err := h.service.Recommended(c.UserContext(), web.VisitorFromCtx(c).ID, c.QueryInt("limit", 12), c.QueryInt("offset", 0))
	if err != nil {
		return web.Error(c, err)
	}
	if items == nil {
		items = []Product{}
	}
	return c.JSON(items)
}
