// Package middleware contains the HTTP middleware applied around the
// booking API: the staff JWT gate and the public-endpoint rate limiter.
package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// StaffOnly returns middleware that admits only requests carrying a valid
// HS256 bearer token with a "role" claim of STAFF.  Tokens are issued by
// the hosted auth collaborator; this service only verifies them.  The
// token subject is stored in the context under "staff_id" for audit
// logging by handlers.
func StaffOnly(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}
			role, _ := claims["role"].(string)
			if !strings.EqualFold(role, "STAFF") {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "staff only"})
			}
			c.Set("staff_id", claims["sub"])
			return next(c)
		}
	}
}
