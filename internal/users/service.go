// Package users manages the members of an organization.
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/resourcebook/backend/internal/models"
	"github.com/resourcebook/backend/internal/store"
	"github.com/resourcebook/backend/pkg/apperror"
	"github.com/resourcebook/backend/pkg/utils"
)

// CreateInput describes a new member.
type CreateInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// UpdateInput changes a member. Empty fields are left as they are.
type UpdateInput struct {
	Name     string
	Role     string
	Password string
}

// Service implements user management.
type Service struct {
	store  store.Store
	logger *zap.Logger
}

// NewService creates a users service.
func NewService(st store.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: st, logger: logger}
}

// Create adds a MANAGER or EMPLOYEE to the organization.
func (s *Service) Create(ctx context.Context, orgID int64, in CreateInput) (*models.User, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperror.Validation("name is required")
	}
	role, err := memberRole(in.Role)
	if err != nil {
		return nil, err
	}
	if err := utils.ValidatePassword(in.Password); err != nil {
		return nil, apperror.Validation("%s", err.Error())
	}
	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &models.User{
		Name:           name,
		Email:          strings.ToLower(strings.TrimSpace(in.Email)),
		Password:       hash,
		Role:           role,
		OrganizationID: orgID,
	}
	err = s.store.WithinTx(ctx, func(tx store.Tx) error {
		if _, err := tx.GetOrganization(ctx, orgID); err != nil {
			return lookupErr(err, "organization", orgID)
		}
		exists, err := tx.EmailExists(ctx, u.Email)
		if err != nil {
			return fmt.Errorf("check email: %w", err)
		}
		if exists {
			return apperror.Conflict("email %s is already registered", u.Email)
		}
		if err := tx.CreateUser(ctx, u); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return apperror.Conflict("email %s is already registered", u.Email)
			}
			return fmt.Errorf("insert user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("user created", zap.Int64("user_id", u.ID), zap.String("role", string(u.Role)))
	return u, nil
}

// Register signs up an EMPLOYEE in an existing organization.
func (s *Service) Register(ctx context.Context, orgID int64, name, email, password string) (*models.User, error) {
	return s.Create(ctx, orgID, CreateInput{Name: name, Email: email, Password: password, Role: string(models.RoleEmployee)})
}

// Get returns a user by id.
func (s *Service) Get(ctx context.Context, id int64) (*models.User, error) {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "user", id)
	}
	return u, nil
}

// GetByEmail returns a user by email.
func (s *Service) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperror.Newf(apperror.KindNotFound, "user %s not found", email)
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// List returns the organization's members.
func (s *Service) List(ctx context.Context, orgID int64) ([]models.User, error) {
	list, err := s.store.ListUsers(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	if list == nil {
		list = []models.User{}
	}
	return list, nil
}

// Update changes a member's name, role or password.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (*models.User, error) {
	var out *models.User
	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		u, err := tx.GetUser(ctx, id)
		if err != nil {
			return lookupErr(err, "user", id)
		}
		if name := strings.TrimSpace(in.Name); name != "" {
			u.Name = name
		}
		if in.Role != "" {
			role, err := memberRole(in.Role)
			if err != nil {
				return err
			}
			u.Role = role
		}
		if in.Password != "" {
			if err := utils.ValidatePassword(in.Password); err != nil {
				return apperror.Validation("%s", err.Error())
			}
			hash, err := utils.HashPassword(in.Password)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}
			u.Password = hash
		}
		if err := tx.UpdateUser(ctx, u); err != nil {
			return fmt.Errorf("update user %d: %w", id, err)
		}
		out = u
		return nil
	})
	return out, err
}

// Delete removes a member that owns no unsettled booking.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.store.WithinTx(ctx, func(tx store.Tx) error {
		if _, err := tx.LockUser(ctx, id); err != nil {
			return lookupErr(err, "user", id)
		}
		active, err := tx.UserHasActiveBooking(ctx, id)
		if err != nil {
			return fmt.Errorf("check user %d bookings: %w", id, err)
		}
		if active {
			return apperror.Conflict("user %d has active bookings", id)
		}
		return lookupErr(tx.DeleteUser(ctx, id), "user", id)
	})
}

func memberRole(s string) (models.Role, error) {
	role, ok := models.ParseRole(strings.ToUpper(strings.TrimSpace(s)))
	if !ok || role == models.RoleAdmin {
		return "", apperror.Validation("role must be MANAGER or EMPLOYEE")
	}
	return role, nil
}

func lookupErr(err error, entity string, id int64) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, store.ErrNotFound) {
		return apperror.NotFound(entity, id)
	}
	return fmt.Errorf("%s %d: %w", entity, id, err)
}
