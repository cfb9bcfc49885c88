package memory

import (
	"context"
	"sort"

	"github.com/resourcebook/backend/internal/models"
	"github.com/resourcebook/backend/internal/store"
)

func (v *view) CreateBooking(_ context.Context, b *models.Booking) error {
	defer v.lock()()
	b.ID = v.st.nextID()
	b.CreatedAt = now()
	b.UpdatedAt = b.CreatedAt
	v.st.bookings[b.ID] = *b
	return nil
}

func (v *view) GetBooking(_ context.Context, id int64) (*models.Booking, error) {
	defer v.lock()()
	b, ok := v.st.bookings[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &b, nil
}

// LockBooking is GetBooking: transactions already hold the store exclusively.
func (v *view) LockBooking(ctx context.Context, id int64) (*models.Booking, error) {
	return v.GetBooking(ctx, id)
}

func (v *view) UpdateBooking(_ context.Context, b *models.Booking, expected models.BookingStatus) error {
	defer v.lock()()
	cur, ok := v.st.bookings[b.ID]
	if !ok || cur.Status != expected {
		return store.ErrStale
	}
	b.UpdatedAt = now()
	v.st.bookings[b.ID] = *b
	return nil
}

func (v *view) DeleteBooking(_ context.Context, id int64) error {
	defer v.lock()()
	if _, ok := v.st.bookings[id]; !ok {
		return store.ErrNotFound
	}
	delete(v.st.bookings, id)
	return nil
}

func (v *view) ListBookings(_ context.Context, f store.BookingFilter) ([]models.Booking, error) {
	defer v.lock()()
	var list []models.Booking
	for _, b := range v.st.bookings {
		if f.UserID != nil && b.UserID != *f.UserID {
			continue
		}
		if f.ResourceID != nil && b.ResourceID != *f.ResourceID {
			continue
		}
		if f.OrganizationID != nil && b.OrganizationID != *f.OrganizationID {
			continue
		}
		if f.Status != nil && b.Status != *f.Status {
			continue
		}
		list = append(list, b)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (v *view) HasActiveBooking(_ context.Context, resourceID int64) (bool, error) {
	defer v.lock()()
	for _, b := range v.st.bookings {
		if b.ResourceID == resourceID && !b.Status.Terminal() {
			return true, nil
		}
	}
	return false, nil
}

func (v *view) UserHasActiveBooking(_ context.Context, userID int64) (bool, error) {
	defer v.lock()()
	for _, b := range v.st.bookings {
		if b.UserID == userID && !b.Status.Terminal() {
			return true, nil
		}
	}
	return false, nil
}
