package users

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/resourcebook/backend/internal/access"
	"github.com/resourcebook/backend/internal/middleware"
	"github.com/resourcebook/backend/internal/models"
	"github.com/resourcebook/backend/pkg/apperror"
	"github.com/resourcebook/backend/pkg/response"
)

// Handler handles user HTTP endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a users handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// CreateUserRequest is the body for POST /users.
type CreateUserRequest struct {
	Name           string `json:"name" binding:"required"`
	Email          string `json:"email" binding:"required,email"`
	Password       string `json:"password" binding:"required"`
	Role           string `json:"role" binding:"required"`
	OrganizationID int64  `json:"organization_id" binding:"required"`
}

// UpdateUserRequest is the body for PUT /users/:id.
type UpdateUserRequest struct {
	Name     string `json:"name"`
	Role     string `json:"role"`
	Password string `json:"password"`
}

// Create handles POST /users.
func (h *Handler) Create(c *gin.Context) {
	var body CreateUserRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if err := access.Authorize(middleware.Claims(c), access.UserManage, access.Target{OrganizationID: body.OrganizationID}); err != nil {
		response.Error(c, err)
		return
	}
	u, err := h.svc.Create(c.Request.Context(), body.OrganizationID, CreateInput{
		Name:     body.Name,
		Email:    body.Email,
		Password: body.Password,
		Role:     body.Role,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, u)
}

// CreateManagerRequest is the body for POST /organizations/:id/managers.
type CreateManagerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// CreateManager handles POST /organizations/:id/managers. It is mounted behind
// the organization.manage operation so administrators can staff a new organization.
func (h *Handler) CreateManager(c *gin.Context) {
	orgID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || orgID <= 0 {
		response.BadRequest(c, "invalid id")
		return
	}
	var body CreateManagerRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	u, err := h.svc.Create(c.Request.Context(), orgID, CreateInput{
		Name:     body.Name,
		Email:    body.Email,
		Password: body.Password,
		Role:     string(models.RoleManager),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, u)
}

// Get handles GET /users/:id.
func (h *Handler) Get(c *gin.Context) {
	if u, ok := h.load(c); ok {
		response.OK(c, u)
	}
}

// GetByEmail handles GET /users/email/:email.
func (h *Handler) GetByEmail(c *gin.Context) {
	u, err := h.svc.GetByEmail(c.Request.Context(), c.Param("email"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := authorizeMember(c, u); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, u)
}

// Me handles GET /auth/me.
func (h *Handler) Me(c *gin.Context) {
	u, err := h.svc.Get(c.Request.Context(), middleware.Claims(c).SubjectID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, u)
}

// List handles GET /users for the caller's organization.
func (h *Handler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context(), middleware.Claims(c).OrganizationID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// Update handles PUT /users/:id.
func (h *Handler) Update(c *gin.Context) {
	var body UpdateUserRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	u, ok := h.load(c)
	if !ok {
		return
	}
	updated, err := h.svc.Update(c.Request.Context(), u.ID, UpdateInput{Name: body.Name, Role: body.Role, Password: body.Password})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, updated)
}

// Delete handles DELETE /users/:id.
func (h *Handler) Delete(c *gin.Context) {
	u, ok := h.load(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), u.ID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) load(c *gin.Context) (*models.User, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "invalid user id")
		return nil, false
	}
	u, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	if err := authorizeMember(c, u); err != nil {
		response.Error(c, err)
		return nil, false
	}
	return u, true
}

// authorizeMember allows user management of u. Administrators are never
// managed through these routes, even when they share the caller's organization.
func authorizeMember(c *gin.Context, u *models.User) error {
	if err := access.Authorize(middleware.Claims(c), access.UserManage, access.Target{OrganizationID: u.OrganizationID}); err != nil {
		return err
	}
	if u.Role == models.RoleAdmin {
		return apperror.Forbidden("user %d is an administrator", u.ID)
	}
	return nil
}
