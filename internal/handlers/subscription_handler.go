package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/wavelane/wavelane/backend/internal/repositories"
)

// SubscriptionHandler handles upload-subscription HTTP requests
type SubscriptionHandler struct {
	subscriptionRepository repositories.SubscriptionRepository
}

// NewSubscriptionHandler creates a new SubscriptionHandler
func NewSubscriptionHandler(subRepo repositories.SubscriptionRepository) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptionRepository: subRepo}
}

// RegisterSubscriptionRoutes registers subscription routes
func (h *SubscriptionHandler) RegisterSubscriptionRoutes(g *echo.Group) {
	g.POST("/subscriptions/:userId", h.Subscribe)
	g.DELETE("/subscriptions/:userId", h.Unsubscribe)
	g.GET("/subscriptions/:userId", h.IsSubscribed)
}

// Subscribe subscribes the current user to another user's uploads
func (h *SubscriptionHandler) Subscribe(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	targetID, err := strconv.ParseUint(c.Param("userId"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}
	if uint(targetID) == currentUserID {
		return echo.NewHTTPError(http.StatusBadRequest, "Cannot subscribe to yourself")
	}

	if err := h.subscriptionRepository.Subscribe(currentUserID, uint(targetID)); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"subscribed": true}})
}

// Unsubscribe removes the current user's subscription
func (h *SubscriptionHandler) Unsubscribe(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	targetID, err := strconv.ParseUint(c.Param("userId"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}

	if err := h.subscriptionRepository.Unsubscribe(currentUserID, uint(targetID)); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"subscribed": false}})
}

// IsSubscribed reports whether the current user subscribes to a user
func (h *SubscriptionHandler) IsSubscribed(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	targetID, err := strconv.ParseUint(c.Param("userId"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}

	subscribed, err := h.subscriptionRepository.IsSubscribed(currentUserID, uint(targetID))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"subscribed": subscribed}})
}
