package web

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const (
	VisitorCookie = "sf_visitor"
	visitorLocal  = "visitor"
	userLocal     = "user"
)

// Visitor identifies the browser a request comes from. UserID is set once
// the visitor has logged in.
type Visitor struct {
	ID     string
	UserID int
}

// Visitors issues and reads the signed visitor cookie.
type Visitors struct {
	secret []byte
	secure bool
	ttl    time.Duration
	now    func() time.Time
}

func NewVisitors(secret string, secure bool) *Visitors {
	return &Visitors{secret: []byte(secret), secure: secure, ttl: 30 * 24 * time.Hour, now: time.Now}
}

// Middleware attaches the current Visitor to the request, minting a new one
// when the cookie is missing or cannot be verified.
func (v *Visitors) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		vis, ok := v.parse(c.Cookies(VisitorCookie))
		if !ok {
			vis = Visitor{ID: uuid.NewString()}
			if err := v.Issue(c, vis); err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to issue visitor cookie"})
			}
			return c.Next()
		}
		c.Locals(visitorLocal, vis)
		return c.Next()
	}
}

// Issue signs vis into the visitor cookie and makes it current for this request.
func (v *Visitors) Issue(c *fiber.Ctx, vis Visitor) error {
	exp := v.now().Add(v.ttl)
	claims := jwt.MapClaims{
		"vid": vis.ID,
		"exp": exp.Unix(),
	}
	if vis.UserID > 0 {
		claims["user_id"] = vis.UserID
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return fmt.Errorf("sign visitor cookie: %w", err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     VisitorCookie,
		Value:    signed,
		Path:     "/",
		Expires:  exp,
		HTTPOnly: true,
		Secure:   v.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	c.Locals(visitorLocal, vis)
	return nil
}

func (v *Visitors) parse(raw string) (Visitor, bool) {
	if raw == "" {
		return Visitor{}, false
	}
	tok, err := jwt.Parse(raw, v.keyFunc)
	if err != nil || !tok.Valid {
		return Visitor{}, false
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Visitor{}, false
	}
	id, _ := claims["vid"].(string)
	if id == "" {
		return Visitor{}, false
	}
	uid, _ := userIDFromClaims(claims)
	return Visitor{ID: id, UserID: uid}, true
}

func (v *Visitors) keyFunc(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
	}
	return v.secret, nil
}

// VisitorFromCtx returns the visitor attached by Middleware.
func VisitorFromCtx(c *fiber.Ctx) Visitor {
	vis, _ := c.Locals(visitorLocal).(Visitor)
	return vis
}

// SetVisitor attaches vis to the request without touching the cookie.
func SetVisitor(c *fiber.Ctx, vis Visitor) {
	c.Locals(visitorLocal, vis)
}

// UserIDFromCtx reads the user id from the verified token placed in locals by RequireUser.
func UserIDFromCtx(c *fiber.Ctx) (int, error) {
	tok, ok := c.Locals(userLocal).(*jwt.Token)
	if !ok || tok == nil {
		return 0, fiber.ErrUnauthorized
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return 0, fiber.ErrUnauthorized
	}
	id, ok := userIDFromClaims(claims)
	if !ok {
		return 0, fiber.ErrUnauthorized
	}
	return id, nil
}

func userIDFromClaims(claims jwt.MapClaims) (int, bool) {
	raw, ok := claims["user_id"]
	if !ok {
		return 0, false
	}
	switch v := raw.(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case int64:
		return int(v), true
	case string:
		id, err := strconv.Atoi(v)
		if err != nil {
			return 0, false
		}
		return id, true
	default:
		return 0, false
	}
}
