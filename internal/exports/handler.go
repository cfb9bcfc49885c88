package exports

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/resourcebook/backend/internal/access"
	"github.com/resourcebook/backend/internal/middleware"
	"github.com/resourcebook/backend/internal/models"
	"github.com/resourcebook/backend/pkg/response"
)

// Handler handles booking export endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates an exports handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// ExportRequest is the optional body for POST /bookings/exports.
type ExportRequest struct {
	Status string `json:"status"`
}

// Create handles POST /bookings/exports for the caller's organization.
func (h *Handler) Create(c *gin.Context) {
	var body ExportRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			response.BadRequest(c, "invalid request: "+err.Error())
			return
		}
	}
	var status *models.BookingStatus
	if body.Status != "" {
		s, ok := models.ParseBookingStatus(body.Status)
		if !ok {
			response.BadRequest(c, "invalid booking status")
			return
		}
		status = &s
	}
	claims := middleware.Claims(c)
	if err := access.Authorize(claims, access.BookingExport, access.Target{OrganizationID: claims.OrganizationID}); err != nil {
		response.Error(c, err)
		return
	}
	e, err := h.svc.Request(c.Request.Context(), claims.OrganizationID, claims.SubjectID, status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, e)
}

// Get handles GET /bookings/exports/:id.
func (h *Handler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "invalid id")
		return
	}
	e, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := access.Authorize(middleware.Claims(c), access.BookingExport, access.Target{OrganizationID: e.OrganizationID}); err != nil {
		response.Error(c, err)
		return
	}
	v, err := h.svc.View(c.Request.Context(), e)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, v)
}
