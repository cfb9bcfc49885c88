package bookings

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/resourcebook/backend/internal/access"
	"github.com/resourcebook/backend/internal/middleware"
	"github.com/resourcebook/backend/internal/models"
	"github.com/resourcebook/backend/internal/store"
	"github.com/resourcebook/backend/pkg/apperror"
	"github.com/resourcebook/backend/pkg/response"
)

// Handler handles booking HTTP endpoints.
type Handler struct {
	lifecycle *Lifecycle
}

// NewHandler creates a bookings handler.
func NewHandler(lifecycle *Lifecycle) *Handler {
	return &Handler{lifecycle: lifecycle}
}

// CreateBookingRequest is the body for POST /bookings.
type CreateBookingRequest struct {
	UserID         int64     `json:"user_id" binding:"required"`
	ResourceID     int64     `json:"resource_id" binding:"required"`
	OrganizationID int64     `json:"organization_id" binding:"required"`
	StartTime      time.Time `json:"start_time" binding:"required"`
	EndTime        time.Time `json:"end_time" binding:"required"`
}

// ApproveBookingRequest is the body for PUT /bookings/:id/approve. The caller approves when ApprovedBy is omitted.
type ApproveBookingRequest struct {
	ApprovedBy int64 `json:"approved_by_user_id"`
}

// Create handles POST /bookings.
func (h *Handler) Create(c *gin.Context) {
	claims := middleware.Claims(c)
	var body CreateBookingRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if err := access.Authorize(claims, access.BookingCreate, access.Target{OrganizationID: body.OrganizationID, OwnerID: body.UserID}); err != nil {
		response.Error(c, err)
		return
	}
	b, err := h.lifecycle.Create(c.Request.Context(), CreateInput{
		UserID:         body.UserID,
		ResourceID:     body.ResourceID,
		OrganizationID: body.OrganizationID,
		StartTime:      body.StartTime,
		EndTime:        body.EndTime,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, b)
}

// Get handles GET /bookings/:id.
func (h *Handler) Get(c *gin.Context) {
	b, ok := h.load(c, access.BookingRead)
	if !ok {
		return
	}
	response.OK(c, b)
}

// Approve handles PUT /bookings/:id/approve.
func (h *Handler) Approve(c *gin.Context) {
	var body ApproveBookingRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			response.BadRequest(c, "invalid request: "+err.Error())
			return
		}
	}
	b, ok := h.load(c, access.BookingTransition)
	if !ok {
		return
	}
	approver := body.ApprovedBy
	if approver == 0 {
		approver = middleware.Claims(c).SubjectID
	}
	h.reply(c)(h.lifecycle.Approve(c.Request.Context(), b.ID, approver))
}

// Start handles PUT /bookings/:id/start.
func (h *Handler) Start(c *gin.Context) {
	if b, ok := h.load(c, access.BookingTransition); ok {
		h.reply(c)(h.lifecycle.Start(c.Request.Context(), b.ID))
	}
}

// Complete handles PUT /bookings/:id/complete.
func (h *Handler) Complete(c *gin.Context) {
	if b, ok := h.load(c, access.BookingTransition); ok {
		h.reply(c)(h.lifecycle.Complete(c.Request.Context(), b.ID))
	}
}

// Cancel handles PUT /bookings/:id/cancel.
func (h *Handler) Cancel(c *gin.Context) {
	if b, ok := h.load(c, access.BookingCancel); ok {
		h.reply(c)(h.lifecycle.Cancel(c.Request.Context(), b.ID))
	}
}

// Delete handles DELETE /bookings/:id.
func (h *Handler) Delete(c *gin.Context) {
	b, ok := h.load(c, access.BookingDelete)
	if !ok {
		return
	}
	if err := h.lifecycle.Delete(c.Request.Context(), b.ID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// List handles GET /bookings.
func (h *Handler) List(c *gin.Context) {
	h.list(c, store.BookingFilter{})
}

// ListByUser handles GET /bookings/user/:userId.
func (h *Handler) ListByUser(c *gin.Context) {
	userID, ok := paramID(c, "userId")
	if !ok {
		return
	}
	h.list(c, store.BookingFilter{UserID: &userID})
}

// ListPendingByUser handles GET /bookings/user/:userId/pending.
func (h *Handler) ListPendingByUser(c *gin.Context) {
	userID, ok := paramID(c, "userId")
	if !ok {
		return
	}
	pending := models.BookingInitial
	h.list(c, store.BookingFilter{UserID: &userID, Status: &pending})
}

// ListByResource handles GET /bookings/resource/:resourceId.
func (h *Handler) ListByResource(c *gin.Context) {
	resourceID, ok := paramID(c, "resourceId")
	if !ok {
		return
	}
	h.list(c, store.BookingFilter{ResourceID: &resourceID})
}

// ListByStatus handles GET /bookings/status/:status.
func (h *Handler) ListByStatus(c *gin.Context) {
	status, ok := models.ParseBookingStatus(c.Param("status"))
	if !ok {
		response.BadRequest(c, "invalid booking status")
		return
	}
	h.list(c, store.BookingFilter{Status: &status})
}

// ListInProgress handles GET /bookings/in-progress.
func (h *Handler) ListInProgress(c *gin.Context) {
	status := models.BookingInProgress
	h.list(c, store.BookingFilter{Status: &status})
}

// list narrows f to what the caller may see before querying.
func (h *Handler) list(c *gin.Context, f store.BookingFilter) {
	claims := middleware.Claims(c)
	scope, err := access.ListFilter(claims, access.BookingList)
	if err != nil {
		response.Error(c, err)
		return
	}
	if scope.OrganizationID != nil {
		f.OrganizationID = scope.OrganizationID
	}
	if scope.OwnerID != nil {
		if f.UserID != nil && *f.UserID != *scope.OwnerID {
			response.Error(c, apperror.Forbidden("bookings of user %d are not visible to you", *f.UserID))
			return
		}
		f.UserID = scope.OwnerID
	}
	list, err := h.lifecycle.List(c.Request.Context(), f)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// load fetches the booking named by :id and checks op against it. A missing
// booking is reported before any scope check.
func (h *Handler) load(c *gin.Context, op access.Operation) (*models.Booking, bool) {
	id, ok := paramID(c, "id")
	if !ok {
		return nil, false
	}
	b, err := h.lifecycle.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	target := access.Target{OrganizationID: b.OrganizationID, OwnerID: b.UserID}
	if err := access.Authorize(middleware.Claims(c), op, target); err != nil {
		response.Error(c, err)
		return nil, false
	}
	return b, true
}

func (h *Handler) reply(c *gin.Context) func(*models.Booking, error) {
	return func(b *models.Booking, err error) {
		if err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, b)
	}
}

func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}
