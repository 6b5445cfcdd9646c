package favorite

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/pet-shop-storefront/internal/web"
)

// Handler delegates favorite operations to the favorite service.
type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Get("/api/v1/favorites", h.getFavorites)
	app.Post("/api/v1/favorites", h.addFavorite)
	app.Delete("/api/v1/favorites/:productId<int>", h.removeFavorite)
}

type favoriteRequest struct {
	ProductID int `json:"product_id"`
}

func (h *Handler) addFavorite(c *fiber.Ctx) error {
	payload := new(favoriteRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if payload.ProductID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid product_id"})
	}

	favs, err := h.service.AddFavorite(c.UserContext(), web.VisitorFromCtx(c).ID, payload.ProductID)
	if errors.Is(err, ErrAlreadyFavorite) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": err.Error()})
	}
	if err != nil {
		return web.Error(c, err)
	}
	return c.JSON(favs)
}

func (h *Handler) removeFavorite(c *fiber.Ctx) error {
	productID, err := c.ParamsInt("productId")
	if err != nil || productID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid product id"})
	}

	favs, err := h.service.RemoveFavorite(c.UserContext(), web.VisitorFromCtx(c).ID, productID)
	if errors.Is(err, ErrNotFavorite) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if err != nil {
		return web.Error(c, err)
	}
	return c.JSON(favs)
}

func (h *Handler) getFavorites(c *fiber.Ctx) error {
	favs, err := h.service.GetFavorites(c.UserContext(), web.VisitorFromCtx(c).ID)
	if err != nil {
		return web.Error(c, err)
	}
	if favs == nil {
		favs = []Favorite{}
	}
	return c.JSON(favs)
}
