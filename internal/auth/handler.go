package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/resourcebook/backend/internal/models"
	"github.com/resourcebook/backend/internal/store"
	"github.com/resourcebook/backend/pkg/response"
	"github.com/resourcebook/backend/pkg/utils"
)

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest is the body for POST /auth/register.
type RegisterRequest struct {
	Name           string `json:"name" binding:"required"`
	Email          string `json:"email" binding:"required,email"`
	Password       string `json:"password" binding:"required"`
	OrganizationID int64  `json:"organization_id" binding:"required"`
}

// TokenResponse is the auth response with JWT.
type TokenResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Registrar creates self-registered members. users.Service implements it.
type Registrar interface {
	Register(ctx context.Context, orgID int64, name, email, password string) (*models.User, error)
}

// Handler handles auth HTTP endpoints.
type Handler struct {
	users     store.Users
	registrar Registrar
	jwt       *JWTService
	logger    *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(users store.Users, registrar Registrar, jwt *JWTService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{users: users, registrar: registrar, jwt: jwt, logger: logger}
}

// Register handles POST /auth/register. New accounts are always EMPLOYEE.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	user, err := h.registrar.Register(c.Request.Context(), req.OrganizationID, req.Name, req.Email, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	token, err := h.jwt.Generate(user)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.logger.Info("user registered", zap.Int64("user_id", user.ID), zap.Int64("organization_id", user.OrganizationID))
	response.Created(c, TokenResponse{Token: token, User: user})
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	user, err := h.users.GetUserByEmail(c.Request.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			response.Error(c, err)
			return
		}
		response.Unauthorized(c, "invalid email or password")
		return
	}

	if !utils.CheckPassword(req.Password, user.Password) {
		h.logger.Info("login rejected", zap.Int64("user_id", user.ID))
		response.Unauthorized(c, "invalid email or password")
		return
	}

	token, err := h.jwt.Generate(user)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, TokenResponse{Token: token, User: user})
}
