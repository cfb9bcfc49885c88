// Package organizations manages tenants.
package organizations

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/resourcebook/backend/internal/models"
	"github.com/resourcebook/backend/internal/store"
	"github.com/resourcebook/backend/pkg/apperror"
)

// Service implements organization management.
type Service struct {
	store  store.Store
	logger *zap.Logger
}

// NewService creates an organizations service.
func NewService(st store.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: st, logger: logger}
}

// Create adds an organization with a globally unique name.
func (s *Service) Create(ctx context.Context, name string) (*models.Organization, error) {
	name, err := validName(name)
	if err != nil {
		return nil, err
	}
	o := &models.Organization{Name: name}
	err = s.store.WithinTx(ctx, func(tx store.Tx) error {
		exists, err := tx.OrganizationNameExists(ctx, name, 0)
		if err != nil {
			return fmt.Errorf("check organization name: %w", err)
		}
		if exists {
			return apperror.Conflict("an organization named %q already exists", name)
		}
		return duplicate(tx.CreateOrganization(ctx, o), name)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("organization created", zap.Int64("organization_id", o.ID))
	return o, nil
}

// Get returns an organization by id.
func (s *Service) Get(ctx context.Context, id int64) (*models.Organization, error) {
	o, err := s.store.GetOrganization(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperror.NotFound("organization", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get organization %d: %w", id, err)
	}
	return o, nil
}

// GetByName returns an organization by name.
func (s *Service) GetByName(ctx context.Context, name string) (*models.Organization, error) {
	o, err := s.store.GetOrganizationByName(ctx, strings.TrimSpace(name))
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperror.Newf(apperror.KindNotFound, "organization %q not found", name)
	}
	if err != nil {
		return nil, fmt.Errorf("get organization by name: %w", err)
	}
	return o, nil
}

// List returns every organization.
func (s *Service) List(ctx context.Context) ([]models.Organization, error) {
	list, err := s.store.ListOrganizations(ctx)
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	return list, nil
}

// Rename changes an organization's name.
func (s *Service) Rename(ctx context.Context, id int64, name string) (*models.Organization, error) {
	name, err := validName(name)
	if err != nil {
		return nil, err
	}
	var out *models.Organization
	err = s.store.WithinTx(ctx, func(tx store.Tx) error {
		o, err := tx.GetOrganization(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return apperror.NotFound("organization", id)
		}
		if err != nil {
			return fmt.Errorf("get organization %d: %w", id, err)
		}
		exists, err := tx.OrganizationNameExists(ctx, name, id)
		if err != nil {
			return fmt.Errorf("check organization name: %w", err)
		}
		if exists {
			return apperror.Conflict("an organization named %q already exists", name)
		}
		o.Name = name
		if err := duplicate(tx.UpdateOrganization(ctx, o), name); err != nil {
			return err
		}
		out = o
		return nil
	})
	return out, err
}

// Delete removes an organization that has no users or resources left.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.store.WithinTx(ctx, func(tx store.Tx) error {
		inUse, err := tx.OrganizationInUse(ctx, id)
		if err != nil {
			return fmt.Errorf("check organization %d members: %w", id, err)
		}
		if inUse {
			return apperror.Conflict("organization %d still has users or resources", id)
		}
		err = tx.DeleteOrganization(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return apperror.NotFound("organization", id)
		}
		return err
	})
}

func validName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if len(name) < 1 || len(name) > 255 {
		return "", apperror.Validation("name must be 1-255 characters")
	}
	return name, nil
}

func duplicate(err error, name string) error {
	if errors.Is(err, store.ErrDuplicate) {
		return apperror.Conflict("an organization named %q already exists", name)
	}
	return err
}
