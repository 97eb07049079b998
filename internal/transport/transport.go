package transport

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/venuedesk/backend/internal/entity"
	"github.com/venuedesk/backend/internal/transport/middleware"
)

type SuccessResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func InitRoutes(eventHandler *EventHandler, guestHandler *GuestHandler, ticketHandler *TicketHandler, referenceHandler *ReferenceHandler) *gin.Engine {

	router := gin.New()

	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, X-User-ID, X-User-Name")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.Metrics())
	router.Use(middleware.Timeout(30 * time.Second))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	api.Use(middleware.Identity())
	{
		companies := api.Group("/companies/:company_id")
		{
			events := companies.Group("/events")
			{
				events.POST("", eventHandler.CreateEvent)
				events.GET("", eventHandler.GetAllEvents)
				events.GET("/:event_id", eventHandler.GetEvent)
				events.PUT("/:event_id", eventHandler.UpdateEvent)
				events.DELETE("/:event_id", eventHandler.DeleteEvent)
				events.GET("/:event_id/activity", eventHandler.GetActivity)
			}

			guestLists := companies.Group("/events/:event_id/guest-lists")
			{
				guestLists.GET("/summary", guestHandler.GetSummary)
				guestLists.GET("/audit", guestHandler.GetAuditLog)
				guestLists.GET("/:list_id", guestHandler.GetGuestList)
				guestLists.POST("/:list_id/guests", guestHandler.AddGuest)
				guestLists.POST("/:list_id/guests/bulk", guestHandler.AddMultipleGuests)
				guestLists.PUT("/:list_id/guests/:guest_id", guestHandler.UpdateGuest)
				guestLists.POST("/:list_id/guests/:guest_id/check-in", guestHandler.CheckInGuest)
				guestLists.DELETE("/:list_id/guests", guestHandler.DeleteGuests)
			}

			tickets := companies.Group("/events/:event_id/tickets")
			{
				tickets.POST("", ticketHandler.CreateTicket)
				tickets.GET("", ticketHandler.GetTickets)
				tickets.GET("/summary", ticketHandler.GetSummary)
				tickets.PUT("/:ticket_id", ticketHandler.UpdateTicket)
				tickets.DELETE("/:ticket_id", ticketHandler.RemoveTicket)
			}

			layouts := companies.Group("/layouts")
			{
				layouts.POST("", referenceHandler.CreateLayout)
				layouts.GET("/:layout_id", referenceHandler.GetLayout)
				layouts.DELETE("/:layout_id", referenceHandler.DeleteLayout)
			}

			references := companies.Group("/references/:kind")
			{
				references.POST("", referenceHandler.CreateValue)
				references.DELETE("/:id", referenceHandler.DeleteValue)
			}
		}
	}

	return router
}

// respondError maps domain errors onto HTTP statuses. Errors outside the
// domain taxonomy are logged and replaced with a generic message so driver
// and repository detail never reaches the client.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := err.Error()

	var validation *entity.ValidationError
	switch {
	case errors.As(err, &validation):
		status = http.StatusBadRequest
	case entity.IsNotFound(err):
		status = http.StatusNotFound
	case errors.Is(err, entity.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, entity.ErrCheckInLimitExceeded),
		errors.Is(err, entity.ErrHasSoldTickets),
		errors.Is(err, entity.ErrInUse),
		errors.Is(err, entity.ErrNoChanges):
		status = http.StatusConflict
	case errors.Is(err, entity.ErrTransactionConflict):
		status = http.StatusServiceUnavailable
	default:
		logrus.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).WithError(err).Error("request failed")
		message = "internal server error"
	}

	c.JSON(status, ErrorResponse{Success: false, Error: message})
}
