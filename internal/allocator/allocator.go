// Package allocator grants exclusive use of a resource through its availability flag.
package allocator

import (
	"context"
	"errors"
	"fmt"

	"github.com/resourcebook/backend/internal/metrics"
	"github.com/resourcebook/backend/internal/models"
	"github.com/resourcebook/backend/internal/store"
	"github.com/resourcebook/backend/pkg/apperror"
)

// Acquire marks the resource unavailable. It fails with a NotFound error when
// the resource does not exist and a Conflict error when it is already unavailable.
func Acquire(ctx context.Context, tx store.Resources, resourceID int64) error {
	ok, err := tx.CompareAndSetResourceStatus(ctx, resourceID, models.ResourceEnabled, models.ResourceDisabled)
	if err != nil {
		return fmt.Errorf("acquire resource %d: %w", resourceID, err)
	}
	if ok {
		return nil
	}
	if _, err := tx.GetResource(ctx, resourceID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperror.NotFound("resource", resourceID)
		}
		return fmt.Errorf("get resource %d: %w", resourceID, err)
	}
	metrics.IncAcquireConflict()
	return apperror.Conflict("resource %d is not available", resourceID)
}

// Release marks the resource available again. Releasing a missing or
// already available resource is a no-op.
func Release(ctx context.Context, tx store.Resources, resourceID int64) error {
	err := tx.SetResourceStatus(ctx, resourceID, models.ResourceEnabled)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("release resource %d: %w", resourceID, err)
	}
	return nil
}
