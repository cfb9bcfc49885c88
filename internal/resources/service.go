// Package resources manages the bookable units of an organization.
package resources

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

const maxNameLength = 255

// Input is the writable part of a resource.
type Input struct {
	Name        string
	Description string
}

// Service implements resource management.
type Service struct {
	store  store.Store
	logger *zap.Logger
}

// NewService creates a resources service.
func NewService(st store.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: st, logger: logger}
}

// Create adds an available resource to the organization.
func (s *Service) Create(ctx context.Context, orgID int64, in Input) (*models.Resource, error) {
	in, err := normalize(in)
	if err != nil {
		return nil, err
	}
	r := &models.Resource{Name: in.Name, Description: in.Description, OrganizationID: orgID, Status: models.ResourceEnabled}
	err = s.store.WithinTx(ctx, func(tx store.Tx) error {
		if _, err := tx.GetOrganization(ctx, orgID); err != nil {
			return lookupErr(err, "organization", orgID)
		}
		exists, err := tx.ResourceNameExists(ctx, orgID, in.Name, 0)
		if err != nil {
			return fmt.Errorf("check resource name: %w", err)
		}
		if exists {
			return apperror.Conflict("resource %q already exists", in.Name)
		}
		if err := tx.CreateResource(ctx, r); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return apperror.Conflict("resource %q already exists", in.Name)
			}
			return fmt.Errorf("insert resource: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("resource created", zap.Int64("resource_id", r.ID), zap.Int64("organization_id", orgID))
	return r, nil
}

// Get returns a resource by id.
func (s *Service) Get(ctx context.Context, id int64) (*models.Resource, error) {
	r, err := s.store.GetResource(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "resource", id)
	}
	return r, nil
}

// GetByName returns the organization's resource with the given name.
func (s *Service) GetByName(ctx context.Context, orgID int64, name string) (*models.Resource, error) {
	r, err := s.store.GetResourceByName(ctx, orgID, name)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperror.Newf(apperror.KindNotFound, "resource %q not found", name)
	}
	if err != nil {
		return nil, fmt.Errorf("get resource by name: %w", err)
	}
	return r, nil
}

// List returns the organization's resources.
func (s *Service) List(ctx context.Context, orgID int64) ([]models.Resource, error) {
	list, err := s.store.ListResources(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	if list == nil {
		list = []models.Resource{}
	}
	return list, nil
}

// Update renames or re-describes a resource. Its availability is untouched.
func (s *Service) Update(ctx context.Context, id int64, in Input) (*models.Resource, error) {
	in, err := normalize(in)
	if err != nil {
		return nil, err
	}
	var out *models.Resource
	err = s.store.WithinTx(ctx, func(tx store.Tx) error {
		r, err := tx.GetResource(ctx, id)
		if err != nil {
			return lookupErr(err, "resource", id)
		}
		exists, err := tx.ResourceNameExists(ctx, r.OrganizationID, in.Name, id)
		if err != nil {
			return fmt.Errorf("check resource name: %w", err)
		}
		if exists {
			return apperror.Conflict("resource %q already exists", in.Name)
		}
		r.Name = in.Name
		r.Description = in.Description
		if err := tx.UpdateResource(ctx, r); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return apperror.Conflict("resource %q already exists", in.Name)
			}
			return fmt.Errorf("update resource %d: %w", id, err)
		}
		out = r
		return nil
	})
	return out, err
}

// ToggleStatus flips a resource between ENABLED and DISABLED. A resource held
// by an unsettled booking cannot be toggled.
func (s *Service) ToggleStatus(ctx context.Context, id int64) (*models.Resource, error) {
	var out *models.Resource
	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		r, err := s.unheld(ctx, tx, id)
		if err != nil {
			return err
		}
		next := models.ResourceDisabled
		if r.Status == models.ResourceDisabled {
			next = models.ResourceEnabled
		}
		ok, err := tx.CompareAndSetResourceStatus(ctx, id, r.Status, next)
		if err != nil {
			return fmt.Errorf("toggle resource %d: %w", id, err)
		}
		if !ok {
			return apperror.Conflict("resource %d changed concurrently", id)
		}
		r.Status = next
		out = r
		return nil
	})
	return out, err
}

// Delete removes a resource no unsettled booking holds.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.store.WithinTx(ctx, func(tx store.Tx) error {
		if _, err := s.unheld(ctx, tx, id); err != nil {
			return err
		}
		if err := tx.DeleteResource(ctx, id); err != nil {
			return lookupErr(err, "resource", id)
		}
		return nil
	})
}

// DeleteAll removes every resource of the organization, or none if any is held.
func (s *Service) DeleteAll(ctx context.Context, orgID int64) (int64, error) {
	var n int64
	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		list, err := tx.ListResources(ctx, orgID)
		if err != nil {
			return fmt.Errorf("list resources: %w", err)
		}
		for _, r := range list {
			if _, err := s.unheld(ctx, tx, r.ID); err != nil {
				return err
			}
		}
		n, err = tx.DeleteResourcesByOrganization(ctx, orgID)
		if err != nil {
			return fmt.Errorf("delete resources: %w", err)
		}
		return nil
	})
	return n, err
}

// unheld locks the resource before checking its bookings, so a concurrent
// acquire either commits first and is seen, or waits for this transaction.
func (s *Service) unheld(ctx context.Context, tx store.Tx, id int64) (*models.Resource, error) {
	r, err := tx.LockResource(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "resource", id)
	}
	held, err := tx.HasActiveBooking(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("check resource %d bookings: %w", id, err)
	}
	if held {
		return nil, apperror.Conflict("resource %d is held by an active booking", id)
	}
	return r, nil
}

func normalize(in Input) (Input, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if in.Name == "" || len(in.Name) > maxNameLength {
		return in, apperror.Validation("name must be 1-%d characters", maxNameLength)
	}
	return in, nil
}

func lookupErr(err error, entity string, id int64) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperror.NotFound(entity, id)
	}
	return fmt.Errorf("get %s %d: %w", entity, id, err)
}
