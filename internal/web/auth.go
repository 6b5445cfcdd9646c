package web

import (
	"context"

	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v2"
)

// LoginPath is where clients are sent when their session is gone.
const LoginPath = "/login"

// SessionChecker reports whether the visitor still has a logged-in user.
type SessionChecker func(ctx context.Context, visitorID string) bool

// RequireUser rejects requests whose visitor cookie carries no user, or whose
// user was logged out server side.
func (v *Visitors) RequireUser(hasUser SessionChecker) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:  v.secret,
		TokenLookup: "cookie:" + VisitorCookie,
		ContextKey:  userLocal,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return Unauthenticated(c)
		},
		SuccessHandler: func(c *fiber.Ctx) error {
			uid, err := UserIDFromCtx(c)
			if err != nil || uid <= 0 {
				return Unauthenticated(c)
			}
			if hasUser != nil && !hasUser(c.UserContext(), VisitorFromCtx(c).ID) {
				return Unauthenticated(c)
			}
			return c.Next()
		},
	})
}

func Unauthenticated(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthenticated", "redirect": LoginPath})
}
