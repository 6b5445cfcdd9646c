package comparison

import (
	"errors"

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
	app.Get("/api/v1/comparison", h.get)
	app.Post("/api/v1/comparison/items", h.add)
	app.Delete("/api/v1/comparison/items/:id<int>", h.remove)
	app.Delete("/api/v1/comparison", h.clear)
}

type addRequest struct {
	ProductID int `json:"product_id"`
}

func (h *Handler) get(c *fiber.Ctx) error {
	list, err := h.service.Get(c.UserContext(), web.VisitorFromCtx(c).ID)
	if err != nil {
		return web.Error(c, err)
	}
	return c.JSON(list)
}

func (h *Handler) add(c *fiber.Ctx) error {
	payload := new(addRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	list, err := h.service.Add(c.UserContext(), web.VisitorFromCtx(c).ID, payload.ProductID)
	switch {
	case errors.Is(err, ErrInvalidProduct):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	case errors.Is(err, ErrFull), errors.Is(err, ErrAlreadyListed):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": err.Error(), "max_items": MaxItems})
	case err != nil:
		return web.Error(c, err)
	}
	return c.JSON(list)
}

func (h *Handler) remove(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	list, err := h.service.Remove(c.UserContext(), web.VisitorFromCtx(c).ID, id)
	if err != nil {
		return web.Error(c, err)
	}
	return c.JSON(list)
}

func (h *Handler) clear(c *fiber.Ctx) error {
	if err := h.service.Clear(c.UserContext(), web.VisitorFromCtx(c).ID); err != nil {
		return web.Error(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
