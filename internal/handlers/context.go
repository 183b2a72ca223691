package handlers

import (
	"github.com/labstack/echo/v4"
	"github.com/wavelane/wavelane/backend/internal/models"
)

// getUserIDFromContext extracts the authenticated user id set by the JWT
// middleware; 0 means unauthenticated.
func getUserIDFromContext(c echo.Context) uint {
	claims, ok := c.Get("user").(*models.JwtCustomClaims)
	if !ok {
		return 0
	}
	return claims.UserID
}
