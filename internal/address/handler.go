package address

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

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Get("/api/v1/address", h.getAddresses)
	app.Post("/api/v1/address", h.addAddress)
	app.Delete("/api/v1/address/:id<int>", h.deleteAddress)
}

type addressCreateRequest struct {
	Label     string  `json:"label"`
	IsDefault bool    `json:"is_default"`
	Address   Address `json:"address"`
}

func (h *Handler) getAddresses(c *fiber.Ctx) error {
	addrs, err := h.service.List(c.UserContext(), web.VisitorFromCtx(c).ID)
	if err != nil {
		return web.Error(c, err)
	}
	return c.JSON(addrs)
}

func (h *Handler) addAddress(c *fiber.Ctx) error {
	payload := new(addressCreateRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	addr, err := h.service.Add(c.UserContext(), web.VisitorFromCtx(c).ID, payload.Label, payload.Address, payload.IsDefault)
	if err != nil {
		return web.Error(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(addr)
}

func (h *Handler) deleteAddress(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid address id"})
	}
	if err := h.service.Delete(c.UserContext(), web.VisitorFromCtx(c).ID, id); err != nil {
		return web.Error(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
