package user

import (
	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/pet-shop-storefront/internal/web"
)

type Handler struct {
	service  *Service
	visitors *web.Visitors
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

func NewHandler(service *Service, visitors *web.Visitors) *Handler {
	return &Handler{service: service, visitors: visitors}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Post("/api/v1/auth/login", h.login)
	app.Post("/api/v1/auth/register", h.register)
	app.Post("/api/v1/auth/logout", h.logout)
	app.Post("/api/v1/auth/forgot-password", h.forgotPassword)
	app.Post("/api/v1/auth/reset-password", h.resetPassword)
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Get("/api/v1/auth/user", h.getProfile)
	app.Get("/api/v1/profile", h.getProfile)
	// PATCH is accepted as well since the payload is partial anyway
	app.Put("/api/v1/profile", h.updateProfile)
	app.Patch("/api/v1/profile", h.updateProfile)
}

func (h *Handler) login(c *fiber.Ctx) error {
	payload := new(Credentials)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	vis := web.VisitorFromCtx(c)
	u, err := h.service.Login(c.UserContext(), vis.ID, *payload)
	if err != nil {
		return web.Error(c, err)
	}
	return h.signedIn(c, vis, u, fiber.StatusOK)
}

func (h *Handler) register(c *fiber.Ctx) error {
	payload := new(Registration)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	vis := web.VisitorFromCtx(c)
	u, err := h.service.Register(c.UserContext(), vis.ID, *payload)
	if err != nil {
		return web.Error(c, err)
	}
	return h.signedIn(c, vis, u, fiber.StatusCreated)
}

// signedIn binds the user to the visitor cookie.
func (h *Handler) signedIn(c *fiber.Ctx, vis web.Visitor, u User, status int) error {
	vis.UserID = u.ID
	if err := h.visitors.Issue(c, vis); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to issue session"})
	}
	return c.Status(status).JSON(fiber.Map{"message": "Login successful", "user": u})
}

func (h *Handler) logout(c *fiber.Ctx) error {
	vis := web.VisitorFromCtx(c)
	err := h.service.Logout(c.UserContext(), vis.ID)

	vis.UserID = 0
	if ierr := h.visitors.Issue(c, vis); ierr != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to issue session"})
	}
	if err != nil {
		return web.Error(c, err)
	}
	return c.JSON(fiber.Map{"message": "Logged out", "redirect": web.LoginPath})
}

func (h *Handler) forgotPassword(c *fiber.Ctx) error {
	payload := new(forgotPasswordRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if err := h.service.ForgotPassword(c.UserContext(), web.VisitorFromCtx(c).ID, payload.Email); err != nil {
		return web.Error(c, err)
	}
	// same answer whether or not the address is known
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"message": "If the address is registered, a reset link is on its way"})
}

func (h *Handler) resetPassword(c *fiber.Ctx) error {
	payload := new(PasswordReset)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if err := h.service.ResetPassword(c.UserContext(), web.VisitorFromCtx(c).ID, *payload); err != nil {
		return web.Error(c, err)
	}
	return c.JSON(fiber.Map{"message": "Password has been reset", "redirect": web.LoginPath})
}

// getProfile returns the user the visitor is logged in as.
func (h *Handler) getProfile(c *fiber.Ctx) error {
	u, err := h.service.Current(c.UserContext(), web.VisitorFromCtx(c).ID)
	if err != nil {
		return web.Error(c, err)
	}
	return c.JSON(u)
}

func (h *Handler) updateProfile(c *fiber.Ctx) error {
	payload := new(ProfileUpdate)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	u, err := h.service.UpdateProfile(c.UserContext(), web.VisitorFromCtx(c).ID, *payload)
	if err != nil {
		return web.Error(c, err)
	}
	return c.JSON(fiber.Map{"user": u})
}
