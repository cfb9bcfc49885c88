package resources

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/resourcebook/backend/internal/access"
	"github.com/resourcebook/backend/internal/middleware"
	"github.com/resourcebook/backend/internal/models"
	"github.com/resourcebook/backend/pkg/response"
)

// Handler handles resource HTTP endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a resources handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// CreateResourceRequest is the body for POST /resources.
type CreateResourceRequest struct {
	Name           string `json:"name" binding:"required"`
	Description    string `json:"description"`
	OrganizationID int64  `json:"organization_id" binding:"required"`
}

// UpdateResourceRequest is the body for PUT /resources/:id.
type UpdateResourceRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// Create handles POST /resources.
func (h *Handler) Create(c *gin.Context) {
	var body CreateResourceRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if err := access.Authorize(middleware.Claims(c), access.ResourceManage, access.Target{OrganizationID: body.OrganizationID}); err != nil {
		response.Error(c, err)
		return
	}
	r, err := h.svc.Create(c.Request.Context(), body.OrganizationID, Input{Name: body.Name, Description: body.Description})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, r)
}

// Get handles GET /resources/:id.
func (h *Handler) Get(c *gin.Context) {
	if r, ok := h.load(c, access.ResourceRead); ok {
		response.OK(c, r)
	}
}

// GetByName handles GET /resources/name/:name within the caller's organization.
func (h *Handler) GetByName(c *gin.Context) {
	claims := middleware.Claims(c)
	r, err := h.svc.GetByName(c.Request.Context(), claims.OrganizationID, c.Param("name"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, r)
}

// List handles GET /resources for the caller's organization.
func (h *Handler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context(), middleware.Claims(c).OrganizationID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// Update handles PUT /resources/:id.
func (h *Handler) Update(c *gin.Context) {
	var body UpdateResourceRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	r, ok := h.load(c, access.ResourceManage)
	if !ok {
		return
	}
	updated, err := h.svc.Update(c.Request.Context(), r.ID, Input{Name: body.Name, Description: body.Description})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, updated)
}

// ToggleStatus handles PUT /resources/:id/toggle-status.
func (h *Handler) ToggleStatus(c *gin.Context) {
	r, ok := h.load(c, access.ResourceManage)
	if !ok {
		return
	}
	updated, err := h.svc.ToggleStatus(c.Request.Context(), r.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, updated)
}

// Delete handles DELETE /resources/:id.
func (h *Handler) Delete(c *gin.Context) {
	r, ok := h.load(c, access.ResourceManage)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), r.ID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// DeleteAll handles DELETE /resources for the caller's organization.
func (h *Handler) DeleteAll(c *gin.Context) {
	n, err := h.svc.DeleteAll(c.Request.Context(), middleware.Claims(c).OrganizationID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"deleted": n})
}

func (h *Handler) load(c *gin.Context, op access.Operation) (*models.Resource, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "invalid resource id")
		return nil, false
	}
	r, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	if err := access.Authorize(middleware.Claims(c), op, access.Target{OrganizationID: r.OrganizationID}); err != nil {
		response.Error(c, err)
		return nil, false
	}
	return r, true
}
