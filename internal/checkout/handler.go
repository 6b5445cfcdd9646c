package checkout

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/pet-shop-storefront/internal/apiclient"
	"github.com/wichananm65/pet-shop-storefront/internal/web"
)

type Handler struct {
	controller *Controller
}

func NewHandler(c *Controller) *Handler {
	return &Handler{controller: c}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Get("/api/v1/checkout", h.getState)
	app.Post("/api/v1/checkout/start", h.start)
	app.Post("/api/v1/checkout/resume", h.resume)
	app.Put("/api/v1/checkout/address", h.setAddress)
	app.Get("/api/v1/checkout/shipping-methods", h.shippingMethods)
	app.Put("/api/v1/checkout/shipping-method", h.selectShipping)
	app.Get("/api/v1/checkout/payment-providers", h.paymentProviders)
	app.Put("/api/v1/checkout/payment-provider", h.selectPayment)
	app.Post("/api/v1/checkout/confirm", h.confirm)
}

type shippingRequest struct {
	MethodID int64 `json:"method_id"`
}

type paymentRequest struct {
	ProviderCode string `json:"provider_code"`
}

func (h *Handler) getState(c *fiber.Ctx) error {
	st, err := h.controller.Current(c.UserContext(), web.VisitorFromCtx(c).ID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(SnapshotOf(st))
}

func (h *Handler) start(c *fiber.Ctx) error {
	st, err := h.controller.Start(c.UserContext(), web.VisitorFromCtx(c).ID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(SnapshotOf(st))
}

func (h *Handler) resume(c *fiber.Ctx) error {
	st, err := h.controller.Resume(c.UserContext(), web.VisitorFromCtx(c).ID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(SnapshotOf(st))
}

func (h *Handler) setAddress(c *fiber.Ctx) error {
	payload := new(Addresses)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	st, err := h.controller.SetAddress(c.UserContext(), web.VisitorFromCtx(c).ID, *payload)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(SnapshotOf(st))
}

func (h *Handler) shippingMethods(c *fiber.Ctx) error {
	methods, err := h.controller.ShippingOptions(c.UserContext(), web.VisitorFromCtx(c).ID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(methods)
}

func (h *Handler) selectShipping(c *fiber.Ctx) error {
	payload := new(shippingRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if payload.MethodID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid method_id"})
	}
	st, err := h.controller.SelectShipping(c.UserContext(), web.VisitorFromCtx(c).ID, payload.MethodID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(SnapshotOf(st))
}

func (h *Handler) paymentProviders(c *fiber.Ctx) error {
	providers, err := h.controller.PaymentProviders(c.UserContext(), web.VisitorFromCtx(c).ID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(providers)
}

func (h *Handler) selectPayment(c *fiber.Ctx) error {
	payload := new(paymentRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if payload.ProviderCode == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "provider_code is required"})
	}
	st, err := h.controller.SelectPayment(c.UserContext(), web.VisitorFromCtx(c).ID, payload.ProviderCode)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(SnapshotOf(st))
}

func (h *Handler) confirm(c *fiber.Ctx) error {
	order, err := h.controller.Confirm(c.UserContext(), web.VisitorFromCtx(c).ID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"order_id": order.ID, "state": StateConfirmed})
}

func (h *Handler) fail(c *fiber.Ctx, err error) error {
	var sel *InvalidSelectionError
	switch {
	case errors.Is(err, ErrStepInProgress):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": err.Error(), "code": "STEP_IN_PROGRESS"})
	case errors.Is(err, ErrStepOrder):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": err.Error(), "code": "STEP_ORDER"})
	case errors.Is(err, ErrSessionInvalidated):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": err.Error(), "code": apiclient.CodeCartChanged, "restart": true})
	case errors.As(err, &sel):
		body := fiber.Map{"message": sel.Error(), "code": apiclient.CodeInvalidShipping}
		if sel.PaymentProviders != nil || errors.Is(err, apiclient.ErrInvalidPayment) {
			body["code"] = apiclient.CodeInvalidPayment
			body["options"] = sel.PaymentProviders
		} else {
			body["options"] = sel.ShippingMethods
		}
		return c.Status(fiber.StatusUnprocessableEntity).JSON(body)
	}
	return web.Error(c, err)
}
