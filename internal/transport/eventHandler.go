package transport

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/venuedesk/backend/internal/service"
	"github.com/venuedesk/backend/internal/transport/middleware"
)

type EventHandler struct {
	eventService service.EventService
}

func NewEventHandler(eventService service.EventService) *EventHandler {
	return &EventHandler{eventService: eventService}
}

func (h *EventHandler) CreateEvent(c *gin.Context) {
	var req service.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: "Invalid request body: " + err.Error()})
		return
	}

	events, err := h.eventService.CreateEvent(c.Request.Context(), middleware.Actor(c), c.Param("company_id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{
		Success: true,
		Message: "Event created successfully",
		Data:    events,
		Meta:    map[string]interface{}{"instances": len(events)},
	})
}

func (h *EventHandler) GetEvent(c *gin.Context) {
	details, err := h.eventService.GetEvent(c.Request.Context(), c.Param("company_id"), c.Param("event_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Event retrieved successfully",
		Data:    details,
	})
}

func (h *EventHandler) GetAllEvents(c *gin.Context) {
	events, err := h.eventService.GetAllEvents(c.Request.Context(), c.Param("company_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Events retrieved successfully",
		Data:    events,
		Meta:    map[string]interface{}{"total": len(events)},
	})
}

func (h *EventHandler) UpdateEvent(c *gin.Context) {
	var req service.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: "Invalid request body: " + err.Error()})
		return
	}

	event, err := h.eventService.UpdateEvent(c.Request.Context(), middleware.Actor(c), c.Param("company_id"), c.Param("event_id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Event updated successfully",
		Data:    event,
	})
}

func (h *EventHandler) DeleteEvent(c *gin.Context) {
	err := h.eventService.DeleteEvent(c.Request.Context(), middleware.Actor(c), c.Param("company_id"), c.Param("event_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Event deleted successfully",
	})
}

func (h *EventHandler) GetActivity(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	activity, err := h.eventService.GetActivity(c.Request.Context(), c.Param("company_id"), c.Param("event_id"), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Activity retrieved successfully",
		Data:    activity,
		Meta:    map[string]interface{}{"limit": limit},
	})
}
