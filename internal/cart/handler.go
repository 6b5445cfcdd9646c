package cart

import (
	"strconv"

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
	app.Get("/api/v1/cart", h.getCart)
	app.Post("/api/v1/cart/items", h.addItem)
	app.Patch("/api/v1/cart/items/:id<int>", h.updateItem)
	app.Delete("/api/v1/cart/items/:id<int>", h.removeItem)
	app.Delete("/api/v1/cart", h.clearCart)
}

type cartRequest struct {
	ProductID int `json:"product_id"`
	Quantity  int `json:"quantity"`
}

func (h *Handler) getCart(c *fiber.Ctx) error {
	cart, err := h.service.Get(c.UserContext(), web.VisitorFromCtx(c).ID)
	if err != nil {
		return web.Error(c, err)
	}
	return c.JSON(cart)
}

func (h *Handler) addItem(c *fiber.Ctx) error {
	payload := new(cartRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if payload.ProductID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid product_id"})
	}
	if payload.Quantity == 0 {
		payload.Quantity = 1
	}

	cart, err := h.service.AddItem(c.UserContext(), web.VisitorFromCtx(c).ID, payload.ProductID, payload.Quantity)
	return h.respond(c, cart, err)
}

func (h *Handler) updateItem(c *fiber.Ctx) error {
	id, _ := strconv.Atoi(c.Params("id"))
	payload := new(cartRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	cart, err := h.service.UpdateItem(c.UserContext(), web.VisitorFromCtx(c).ID, id, payload.Quantity)
	return h.respond(c, cart, err)
}

func (h *Handler) removeItem(c *fiber.Ctx) error {
	id, _ := strconv.Atoi(c.Params("id"))
	cart, err := h.service.RemoveItem(c.UserContext(), web.VisitorFromCtx(c).ID, id)
	return h.respond(c, cart, err)
}

func (h *Handler) clearCart(c *fiber.Ctx) error {
	if err := h.service.Clear(c.UserContext(), web.VisitorFromCtx(c).ID); err != nil {
		return web.Error(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) respond(c *fiber.Ctx, cart Cart, err error) error {
	if err != nil {
		if err == ErrInvalidQuantity {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
		}
		return web.Error(c, err)
	}
	return c.JSON(cart)
}
