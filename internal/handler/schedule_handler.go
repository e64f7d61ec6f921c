package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/doglife-marketplace/service-booking/internal/application"
	"github.com/doglife-marketplace/service-booking/pkg/auth"
	"github.com/doglife-marketplace/service-booking/pkg/middleware"
	"github.com/doglife-marketplace/service-booking/pkg/response"
)

// ScheduleHandler serves the calendar view of a participant's bookings.
type ScheduleHandler struct {
	service *application.ScheduleService
}

// NewScheduleHandler creates a new ScheduleHandler.
func NewScheduleHandler(service *application.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{service: service}
}

// RegisterRoutes registers schedule routes on the given router group.
func (h *ScheduleHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	schedule := r.Group("/api/v1/schedule")
	schedule.Use(authMW)
	{
		schedule.GET("", h.GetSchedule)
	}
}

// GetSchedule handles GET /api/v1/schedule?from=...&to=...
// Defaults to the coming 30 days when no range is given.
func (h *ScheduleHandler) GetSchedule(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	now := time.Now().UTC()
	from := now.Truncate(24 * time.Hour)
	to := from.AddDate(0, 0, 30)

	if v := c.Query("from"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			response.BadRequest(c, "invalid from timestamp")
			return
		}
		from = parsed
	}
	if v := c.Query("to"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			response.BadRequest(c, "invalid to timestamp")
			return
		}
		to = parsed
	}
	if !to.After(from) {
		response.BadRequest(c, "to must be after from")
		return
	}

	result, err := h.service.GetSchedule(c.Request.Context(), userID, from, to)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
