// Package bookings implements the booking lifecycle and its HTTP surface.
package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/resourcebook/backend/internal/allocator"
	"github.com/resourcebook/backend/internal/events"
	"github.com/resourcebook/backend/internal/metrics"
	"github.com/resourcebook/backend/internal/models"
	"github.com/resourcebook/backend/internal/store"
	"github.com/resourcebook/backend/pkg/apperror"
)

// CreateInput is a new booking request.
type CreateInput struct {
	UserID         int64
	ResourceID     int64
	OrganizationID int64
	StartTime      time.Time
	EndTime        time.Time
}

// Lifecycle runs booking state changes, each in one transaction together with
// the resource allocation it implies.
type Lifecycle struct {
	store  store.Store
	events events.Publisher
	logger *zap.Logger
	now    func() time.Time
}

// NewLifecycle creates a lifecycle service. A nil publisher discards events.
func NewLifecycle(st store.Store, pub events.Publisher, logger *zap.Logger) *Lifecycle {
	if pub == nil {
		pub = events.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Lifecycle{
		store:  st,
		events: pub,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Create validates in, acquires the resource and inserts the booking in INITIAL.
func (l *Lifecycle) Create(ctx context.Context, in CreateInput) (*models.Booking, error) {
	if in.StartTime.IsZero() || in.EndTime.IsZero() {
		return nil, apperror.Validation("start_time and end_time are required")
	}
	if !in.EndTime.After(in.StartTime) {
		return nil, apperror.Validation("end_time must be after start_time")
	}

	b := &models.Booking{
		UserID:         in.UserID,
		ResourceID:     in.ResourceID,
		OrganizationID: in.OrganizationID,
		StartTime:      in.StartTime.UTC(),
		EndTime:        in.EndTime.UTC(),
		Status:         models.BookingInitial,
	}
	err := l.store.WithinTx(ctx, func(tx store.Tx) error {
		// Pairs with the lock taken by user deletion.
		u, err := tx.LockUser(ctx, in.UserID)
		if err != nil {
			return notFound(err, "user", in.UserID)
		}
		r, err := tx.GetResource(ctx, in.ResourceID)
		if err != nil {
			return notFound(err, "resource", in.ResourceID)
		}
		if u.OrganizationID != in.OrganizationID {
			return apperror.Validation("user %d does not belong to organization %d", u.ID, in.OrganizationID)
		}
		if r.OrganizationID != in.OrganizationID {
			return apperror.Validation("resource %d does not belong to organization %d", r.ID, in.OrganizationID)
		}
		if err := allocator.Acquire(ctx, tx, in.ResourceID); err != nil {
			return err
		}
		if err := tx.CreateBooking(ctx, b); err != nil {
			return fmt.Errorf("insert booking: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	l.committed(ctx, "create", events.BookingCreated, b)
	return b, nil
}

// Approve moves an INITIAL booking to APPROVED on behalf of approverID.
func (l *Lifecycle) Approve(ctx context.Context, id, approverID int64) (*models.Booking, error) {
	return l.apply(ctx, id, ActionApprove, func(tx store.Tx, b *models.Booking, now time.Time) error {
		approver, err := tx.GetUser(ctx, approverID)
		if err != nil {
			return notFound(err, "user", approverID)
		}
		if approver.OrganizationID != b.OrganizationID {
			return apperror.Validation("approver %d does not belong to organization %d", approverID, b.OrganizationID)
		}
		b.ApprovedBy = &approverID
		b.ApprovedAt = &now
		return nil
	})
}

// Start moves an APPROVED booking to IN_PROGRESS.
func (l *Lifecycle) Start(ctx context.Context, id int64) (*models.Booking, error) {
	return l.apply(ctx, id, ActionStart, nil)
}

// Complete moves an IN_PROGRESS booking to COMPLETED and frees its resource.
func (l *Lifecycle) Complete(ctx context.Context, id int64) (*models.Booking, error) {
	return l.apply(ctx, id, ActionComplete, func(_ store.Tx, b *models.Booking, now time.Time) error {
		b.CompletedAt = &now
		return nil
	})
}

// Cancel moves an INITIAL or APPROVED booking to CANCELLED and frees its resource.
func (l *Lifecycle) Cancel(ctx context.Context, id int64) (*models.Booking, error) {
	return l.apply(ctx, id, ActionCancel, func(_ store.Tx, b *models.Booking, now time.Time) error {
		b.CancelledAt = &now
		return nil
	})
}

// Delete removes a booking, freeing its resource first unless the booking already settled.
func (l *Lifecycle) Delete(ctx context.Context, id int64) error {
	var deleted *models.Booking
	err := l.store.WithinTx(ctx, func(tx store.Tx) error {
		b, err := tx.LockBooking(ctx, id)
		if err != nil {
			return notFound(err, "booking", id)
		}
		if !b.Status.Terminal() {
			if err := allocator.Release(ctx, tx, b.ResourceID); err != nil {
				return err
			}
		}
		if err := tx.DeleteBooking(ctx, id); err != nil {
			return notFound(err, "booking", id)
		}
		deleted = b
		return nil
	})
	if err != nil {
		return err
	}
	l.committed(ctx, "delete", events.BookingDeleted, deleted)
	return nil
}

// Get returns a booking by id.
func (l *Lifecycle) Get(ctx context.Context, id int64) (*models.Booking, error) {
	b, err := l.store.GetBooking(ctx, id)
	if err != nil {
		return nil, notFound(err, "booking", id)
	}
	return b, nil
}

// List returns the bookings matching f ordered by id.
func (l *Lifecycle) List(ctx context.Context, f store.BookingFilter) ([]models.Booking, error) {
	list, err := l.store.ListBookings(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	if list == nil {
		list = []models.Booking{}
	}
	return list, nil
}

type mutation func(tx store.Tx, b *models.Booking, now time.Time) error

func (l *Lifecycle) apply(ctx context.Context, id int64, a Action, mutate mutation) (*models.Booking, error) {
	var out *models.Booking
	err := l.store.WithinTx(ctx, func(tx store.Tx) error {
		b, err := tx.LockBooking(ctx, id)
		if err != nil {
			return notFound(err, "booking", id)
		}
		prev := b.Status
		next, err := Next(prev, a)
		if err != nil {
			return err
		}
		b.Status = next
		if mutate != nil {
			if err := mutate(tx, b, l.now()); err != nil {
				return err
			}
		}
		if next.Terminal() {
			if err := allocator.Release(ctx, tx, b.ResourceID); err != nil {
				return err
			}
		}
		if err := tx.UpdateBooking(ctx, b, prev); err != nil {
			if errors.Is(err, store.ErrStale) {
				return apperror.Conflict("booking %d changed concurrently", id)
			}
			return fmt.Errorf("update booking %d: %w", id, err)
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	l.committed(ctx, string(a), transitions[a].event, out)
	return out, nil
}

// committed runs the side effects of a change that already committed. Failures are logged only.
func (l *Lifecycle) committed(ctx context.Context, action string, t events.Type, b *models.Booking) {
	metrics.IncBookingTransition(action)
	if err := l.events.Publish(ctx, events.NewEvent(t, b)); err != nil {
		l.logger.Warn("publish booking event failed",
			zap.Int64("booking_id", b.ID),
			zap.String("type", string(t)),
			zap.Error(err),
		)
	}
}

func notFound(err error, entity string, id int64) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperror.NotFound(entity, id)
	}
	return fmt.Errorf("get %s %d: %w", entity, id, err)
}
