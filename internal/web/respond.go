package web

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/pet-shop-storefront/internal/apiclient"
)

// Error writes the response for a failed backend call.
func Error(c *fiber.Ctx, err error) error {
	var apiErr *apiclient.APIError
	if !errors.As(err, &apiErr) {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}

	switch apiErr.Kind {
	case apiclient.KindValidation:
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"message": messageOr(apiErr, "validation failed"),
			"errors":  apiErr.Fields,
		})
	case apiclient.KindUnauthenticated:
		return Unauthenticated(c)
	case apiclient.KindNotFound:
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": messageOr(apiErr, "not found")})
	case apiclient.KindCartChanged, apiclient.KindSessionExpired:
		code := apiErr.Code
		if code == "" {
			code = apiclient.CodeSessionExpired
		}
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": messageOr(apiErr, "checkout must be restarted"),
			"code":    code,
			"restart": true,
		})
	case apiclient.KindInvalidShipping, apiclient.KindInvalidPayment:
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"message": messageOr(apiErr, "selection is no longer available"),
			"code":    apiErr.Code,
		})
	case apiclient.KindTransport, apiclient.KindSecurityTokenMismatch:
		status := fiber.StatusBadGateway
		if errors.Is(err, context.DeadlineExceeded) {
			status = fiber.StatusGatewayTimeout
		}
		return c.Status(status).JSON(fiber.Map{"message": "backend unavailable"})
	}

	if apiErr.Status >= 400 && apiErr.Status < 500 {
		return c.Status(apiErr.Status).JSON(fiber.Map{"message": messageOr(apiErr, "request failed"), "code": apiErr.Code})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": apiErr.Error()})
}

func messageOr(e *apiclient.APIError, fallback string) string {
	if e.Message != "" {
		return e.Message
	}
	return fallback
}
