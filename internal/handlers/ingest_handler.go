package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/wavelane/wavelane/backend/internal/models"
	"github.com/wavelane/wavelane/backend/internal/notify"
	"github.com/wavelane/wavelane/backend/internal/repositories"
)

// IngestHandler accepts inbound event batches from the indexing layer and
// hands them to the pipeline.
type IngestHandler struct {
	pipeline               *notify.Pipeline
	notificationRepository repositories.NotificationRepository
}

// NewIngestHandler creates a new IngestHandler
func NewIngestHandler(pipeline *notify.Pipeline, notifRepo repositories.NotificationRepository) *IngestHandler {
	return &IngestHandler{pipeline: pipeline, notificationRepository: notifRepo}
}

// RegisterIngestRoutes registers internal ingest routes
func (h *IngestHandler) RegisterIngestRoutes(g *echo.Group) {
	g.POST("/events", h.IngestEvents)
	g.GET("/checkpoint", h.GetCheckpoint)
}

// IngestBatchRequest is one ordered batch of raw events
type IngestBatchRequest struct {
	Events []models.IngestEvent `json:"events" validate:"required,min=1,dive"`
}

// IngestEvents processes one batch atomically. A store failure returns 503 so
// the indexer retries the batch from its last committed checkpoint.
func (h *IngestHandler) IngestEvents(c echo.Context) error {
	req := new(IngestBatchRequest)
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.pipeline.ProcessBatch(c.Request().Context(), req.Events); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"processed": len(req.Events)}})
}

// GetCheckpoint returns the highest durably committed block/slot, the point
// the indexer resumes from after a failed batch.
func (h *IngestHandler) GetCheckpoint(c echo.Context) error {
	cp, err := h.notificationRepository.GetCheckpoint()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": cp})
}
