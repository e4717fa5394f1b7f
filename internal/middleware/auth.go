package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"crm-api/internal/repository"
	"crm-api/internal/token"
)

// errJSON keeps gate responses in the same envelope shape as handlers
// without importing them.
func errJSON(c echo.Context, msg string) error {
	return c.JSON(http.StatusUnauthorized, map[string]any{"success": false, "message": msg})
}

// Authenticate returns the gate every protected route runs through.
// The order matters: a well-formed bearer is required first, then the
// blacklist is consulted before the signature so a logged-out token is
// rejected even while it still verifies, and only then is the token
// verified with expiry distinguished from any other failure. On
// success the decoded claims are attached to the request context.
func Authenticate(svc *token.Service, tokens *repository.TokenRepo) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return errJSON(c, "Unauthorized")
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()

			blacklisted, err := tokens.IsBlacklisted(ctx, raw)
			if err != nil {
				return c.JSON(http.StatusInternalServerError,
					map[string]any{"success": false, "message": "Internal Server Error"})
			}
			if blacklisted {
				return errJSON(c, "Unauthorized Access. Please login again")
			}

			claims, err := svc.VerifyAccess(raw)
			if err != nil {
				if err == token.ErrExpired {
					return errJSON(c, "Access token expired. Please login again.")
				}
				return errJSON(c, "Invalid token")
			}

			c.Set("claims", claims)
			c.Set("user_id", claims.UserID)
			return next(c)
		}
	}
}
