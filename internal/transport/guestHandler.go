package transport

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/venuedesk/backend/internal/entity"
	"github.com/venuedesk/backend/internal/service"
	"github.com/venuedesk/backend/internal/transport/middleware"
)

type GuestHandler struct {
	guestService service.GuestService
}

func NewGuestHandler(guestService service.GuestService) *GuestHandler {
	return &GuestHandler{guestService: guestService}
}

func (h *GuestHandler) scope(c *gin.Context) (companyID, eventID, listID string) {
	return c.Param("company_id"), c.Param("event_id"), c.Param("list_id")
}

func (h *GuestHandler) AddGuest(c *gin.Context) {
	var req service.AddGuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: "Invalid request body: " + err.Error()})
		return
	}

	companyID, eventID, listID := h.scope(c)
	guest, err := h.guestService.AddGuest(c.Request.Context(), middleware.Actor(c), companyID, eventID, listID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{
		Success: true,
		Message: "Guest added successfully",
		Data:    guest,
	})
}

func (h *GuestHandler) AddMultipleGuests(c *gin.Context) {
	var req service.AddMultipleGuestsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: "Invalid request body: " + err.Error()})
		return
	}

	companyID, eventID, listID := h.scope(c)
	result, err := h.guestService.AddMultipleGuests(c.Request.Context(), middleware.Actor(c), companyID, eventID, listID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{
		Success: true,
		Message: "Guests added successfully",
		Data:    result.Guests,
		Meta: map[string]interface{}{
			"added":   len(result.Guests),
			"skipped": result.Skipped,
		},
	})
}

func (h *GuestHandler) UpdateGuest(c *gin.Context) {
	var upd entity.GuestUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: "Invalid request body: " + err.Error()})
		return
	}

	companyID, eventID, listID := h.scope(c)
	guest, changed, err := h.guestService.UpdateGuest(c.Request.Context(), middleware.Actor(c), companyID, eventID, listID, c.Param("guest_id"), &upd)
	if err != nil {
		respondError(c, err)
		return
	}

	message := "Guest updated successfully"
	if len(changed) == 0 {
		message = "No changes detected"
	}
	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: message,
		Data:    guest,
		Meta:    map[string]interface{}{"changed_fields": changed},
	})
}

func (h *GuestHandler) CheckInGuest(c *gin.Context) {
	var req service.CheckInGuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: "Invalid request body: " + err.Error()})
		return
	}

	companyID, eventID, listID := h.scope(c)
	guest, err := h.guestService.CheckInGuest(c.Request.Context(), middleware.Actor(c), companyID, eventID, listID, c.Param("guest_id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Guest checked in successfully",
		Data:    guest,
	})
}

func (h *GuestHandler) DeleteGuests(c *gin.Context) {
	var req service.DeleteGuestsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: "Invalid request body: " + err.Error()})
		return
	}

	companyID, eventID, listID := h.scope(c)
	deleted, err := h.guestService.DeleteGuests(c.Request.Context(), middleware.Actor(c), companyID, eventID, listID, req.GuestIDs)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Guests deleted successfully",
		Meta:    map[string]interface{}{"deleted": deleted},
	})
}

func (h *GuestHandler) GetGuestList(c *gin.Context) {
	companyID, eventID, listID := h.scope(c)
	details, err := h.guestService.GetGuestList(c.Request.Context(), companyID, eventID, listID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Guest list retrieved successfully",
		Data:    details,
		Meta:    map[string]interface{}{"total": len(details.Guests)},
	})
}

func (h *GuestHandler) GetSummary(c *gin.Context) {
	summary, err := h.guestService.GetSummary(c.Request.Context(), c.Param("company_id"), c.Param("event_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Guest summary retrieved successfully",
		Data:    summary,
	})
}

func (h *GuestHandler) GetAuditLog(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit <= 0 {
		limit = 100
	}
	if limit > 500 {
		limit = 500
	}

	log, err := h.guestService.GetAuditLog(c.Request.Context(), c.Param("company_id"), c.Param("event_id"), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Audit log retrieved successfully",
		Data:    log,
		Meta:    map[string]interface{}{"limit": limit},
	})
}
