package transport

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/venuedesk/backend/internal/entity"
	"github.com/venuedesk/backend/internal/service"
	"github.com/venuedesk/backend/internal/transport/middleware"
)

type TicketHandler struct {
	ticketService service.TicketService
}

func NewTicketHandler(ticketService service.TicketService) *TicketHandler {
	return &TicketHandler{ticketService: ticketService}
}

func (h *TicketHandler) CreateTicket(c *gin.Context) {
	var req service.CreateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: "Invalid request body: " + err.Error()})
		return
	}

	ticket, err := h.ticketService.CreateTicket(c.Request.Context(), middleware.Actor(c), c.Param("company_id"), c.Param("event_id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{
		Success: true,
		Message: "Ticket type created successfully",
		Data:    ticket,
	})
}

func (h *TicketHandler) UpdateTicket(c *gin.Context) {
	var upd entity.TicketUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: "Invalid request body: " + err.Error()})
		return
	}

	ticket, err := h.ticketService.UpdateTicket(c.Request.Context(), middleware.Actor(c), c.Param("company_id"), c.Param("event_id"), c.Param("ticket_id"), &upd)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Ticket type updated successfully",
		Data:    ticket,
	})
}

func (h *TicketHandler) RemoveTicket(c *gin.Context) {
	err := h.ticketService.RemoveTicket(c.Request.Context(), middleware.Actor(c), c.Param("company_id"), c.Param("event_id"), c.Param("ticket_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Ticket type removed successfully",
	})
}

func (h *TicketHandler) GetTickets(c *gin.Context) {
	tickets, err := h.ticketService.GetTickets(c.Request.Context(), c.Param("company_id"), c.Param("event_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Tickets retrieved successfully",
		Data:    tickets,
		Meta:    map[string]interface{}{"total": len(tickets)},
	})
}

func (h *TicketHandler) GetSummary(c *gin.Context) {
	summary, err := h.ticketService.GetSummary(c.Request.Context(), c.Param("company_id"), c.Param("event_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Ticket summary retrieved successfully",
		Data:    summary,
	})
}
