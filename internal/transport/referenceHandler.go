package transport

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/venuedesk/backend/internal/entity"
	"github.com/venuedesk/backend/internal/service"
)

type ReferenceHandler struct {
	referenceService service.ReferenceService
}

func NewReferenceHandler(referenceService service.ReferenceService) *ReferenceHandler {
	return &ReferenceHandler{referenceService: referenceService}
}

// referenceKinds maps route segments onto reference kinds. Layouts have their
// own routes since they carry structured items, not just a name.
var referenceKinds = map[string]entity.ReferenceKind{
	"categories": entity.ReferenceCategory,
	"club-cards": entity.ReferenceClubCard,
	"genres":     entity.ReferenceGenre,
}

func parseKind(c *gin.Context) (entity.ReferenceKind, bool) {
	kind, ok := referenceKinds[c.Param("kind")]
	if !ok {
		respondError(c, entity.NewValidationError("kind", "unknown reference kind: "+c.Param("kind")))
		return "", false
	}
	return kind, true
}

func (h *ReferenceHandler) CreateLayout(c *gin.Context) {
	var req service.CreateLayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: "Invalid request body: " + err.Error()})
		return
	}

	layout, err := h.referenceService.CreateLayout(c.Request.Context(), c.Param("company_id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{
		Success: true,
		Message: "Layout created successfully",
		Data:    layout,
	})
}

func (h *ReferenceHandler) GetLayout(c *gin.Context) {
	layout, err := h.referenceService.GetLayout(c.Request.Context(), c.Param("company_id"), c.Param("layout_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Layout retrieved successfully",
		Data:    layout,
	})
}

func (h *ReferenceHandler) DeleteLayout(c *gin.Context) {
	err := h.referenceService.DeleteLayout(c.Request.Context(), c.Param("company_id"), c.Param("layout_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Layout deleted successfully",
	})
}

func (h *ReferenceHandler) CreateValue(c *gin.Context) {
	kind, ok := parseKind(c)
	if !ok {
		return
	}

	var req service.CreateReferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: "Invalid request body: " + err.Error()})
		return
	}

	ref, err := h.referenceService.CreateValue(c.Request.Context(), c.Param("company_id"), kind, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{
		Success: true,
		Message: "Reference created successfully",
		Data:    ref,
	})
}

func (h *ReferenceHandler) DeleteValue(c *gin.Context) {
	kind, ok := parseKind(c)
	if !ok {
		return
	}

	err := h.referenceService.DeleteValue(c.Request.Context(), c.Param("company_id"), kind, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Reference deleted successfully",
	})
}
