package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resourcebook/backend/internal/models"
	"github.com/resourcebook/backend/internal/store"
)

func seedResource(t *testing.T, s *Store) *models.Resource {
	t.Helper()
	ctx := context.Background()
	org := &models.Organization{Name: "acme"}
	require.NoError(t, s.CreateOrganization(ctx, org))
	r := &models.Resource{Name: "room-1", OrganizationID: org.ID, Status: models.ResourceEnabled}
	require.NoError(t, s.CreateResource(ctx, r))
	return r
}

func TestWithinTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := New()
	r := seedResource(t, s)

	boom := errors.New("boom")
	err := s.WithinTx(ctx, func(tx store.Tx) error {
		ok, err := tx.CompareAndSetResourceStatus(ctx, r.ID, models.ResourceEnabled, models.ResourceDisabled)
		require.NoError(t, err)
		require.True(t, ok)
		require.NoError(t, tx.CreateBooking(ctx, &models.Booking{ResourceID: r.ID, Status: models.BookingInitial}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := s.GetResource(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ResourceEnabled, got.Status)
	list, err := s.ListBookings(ctx, store.BookingFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestWithinTxCommits(t *testing.T) {
	ctx := context.Background()
	s := New()
	r := seedResource(t, s)

	var id int64
	err := s.WithinTx(ctx, func(tx store.Tx) error {
		b := &models.Booking{ResourceID: r.ID, Status: models.BookingInitial, StartTime: time.Now(), EndTime: time.Now().Add(time.Hour)}
		if err := tx.CreateBooking(ctx, b); err != nil {
			return err
		}
		id = b.ID
		return nil
	})
	require.NoError(t, err)

	b, err := s.GetBooking(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.BookingInitial, b.Status)
}

func TestCompareAndSetResourceStatus(t *testing.T) {
	ctx := context.Background()
	s := New()
	r := seedResource(t, s)

	ok, err := s.CompareAndSetResourceStatus(ctx, r.ID, models.ResourceEnabled, models.ResourceDisabled)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.CompareAndSetResourceStatus(ctx, r.ID, models.ResourceEnabled, models.ResourceDisabled)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.CompareAndSetResourceStatus(ctx, 999, models.ResourceEnabled, models.ResourceDisabled)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUpdateBookingIsConditional(t *testing.T) {
	ctx := context.Background()
	s := New()
	b := &models.Booking{Status: models.BookingInitial}
	require.NoError(t, s.CreateBooking(ctx, b))

	b.Status = models.BookingApproved
	require.NoError(t, s.UpdateBooking(ctx, b, models.BookingInitial))

	b.Status = models.BookingCancelled
	assert.ErrorIs(t, s.UpdateBooking(ctx, b, models.BookingInitial), store.ErrStale)
}

func TestUniqueness(t *testing.T) {
	ctx := context.Background()
	s := New()
	r := seedResource(t, s)

	dup := &models.Resource{Name: r.Name, OrganizationID: r.OrganizationID}
	assert.ErrorIs(t, s.CreateResource(ctx, dup), store.ErrDuplicate)

	other := &models.Organization{Name: "globex"}
	require.NoError(t, s.CreateOrganization(ctx, other))
	same := &models.Resource{Name: r.Name, OrganizationID: other.ID}
	assert.NoError(t, s.CreateResource(ctx, same))

	assert.ErrorIs(t, s.CreateOrganization(ctx, &models.Organization{Name: "acme"}), store.ErrDuplicate)

	require.NoError(t, s.CreateUser(ctx, &models.User{Email: "a@x.io", OrganizationID: other.ID}))
	assert.ErrorIs(t, s.CreateUser(ctx, &models.User{Email: "a@x.io", OrganizationID: other.ID}), store.ErrDuplicate)
}

func TestListBookingsFilters(t *testing.T) {
	ctx := context.Background()
	s := New()
	for i, st := range []models.BookingStatus{models.BookingInitial, models.BookingCompleted, models.BookingInitial} {
		require.NoError(t, s.CreateBooking(ctx, &models.Booking{UserID: int64(i % 2), ResourceID: 7, OrganizationID: 1, Status: st}))
	}
	initial := models.BookingInitial
	list, err := s.ListBookings(ctx, store.BookingFilter{Status: &initial})
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Less(t, list[0].ID, list[1].ID)

	user := int64(1)
	list, err = s.ListBookings(ctx, store.BookingFilter{UserID: &user})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.BookingCompleted, list[0].Status)

	active, err := s.HasActiveBooking(ctx, 7)
	require.NoError(t, err)
	assert.True(t, active)
	active, err = s.UserHasActiveBooking(ctx, 1)
	require.NoError(t, err)
	assert.False(t, active)
}
