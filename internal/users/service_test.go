package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resourcebook/backend/internal/models"
	"github.com/resourcebook/backend/internal/store"
	"github.com/resourcebook/backend/internal/store/memory"
	"github.com/resourcebook/backend/pkg/apperror"
	"github.com/resourcebook/backend/pkg/utils"
)

func setup(t *testing.T) (*Service, *memory.Store, int64) {
	t.Helper()
	st := memory.New()
	org := &models.Organization{Name: "acme"}
	require.NoError(t, st.CreateOrganization(context.Background(), org))
	return NewService(st, nil), st, org.ID
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	svc, _, orgID := setup(t)

	u, err := svc.Create(ctx, orgID, CreateInput{Name: "Ann", Email: " Ann@Acme.io ", Password: "Secr3t#", Role: "employee"})
	require.NoError(t, err)
	assert.Equal(t, "ann@acme.io", u.Email)
	assert.Equal(t, models.RoleEmployee, u.Role)
	assert.True(t, utils.CheckPassword("Secr3t#", u.Password))

	_, err = svc.Create(ctx, orgID, CreateInput{Name: "Ann", Email: "ann@acme.io", Password: "Secr3t#", Role: "MANAGER"})
	assert.True(t, apperror.Is(err, apperror.KindConflict))

	_, err = svc.Create(ctx, orgID, CreateInput{Name: "Bob", Email: "bob@acme.io", Password: "Secr3t#", Role: "ADMIN"})
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	_, err = svc.Create(ctx, orgID, CreateInput{Name: "Bob", Email: "bob@acme.io", Password: "weak", Role: "MANAGER"})
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	_, err = svc.Create(ctx, 999, CreateInput{Name: "Bob", Email: "bob@acme.io", Password: "Secr3t#", Role: "MANAGER"})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	svc, _, orgID := setup(t)
	u, err := svc.Create(ctx, orgID, CreateInput{Name: "Ann", Email: "ann@acme.io", Password: "Secr3t#", Role: "EMPLOYEE"})
	require.NoError(t, err)

	u, err = svc.Update(ctx, u.ID, UpdateInput{Role: "MANAGER"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleManager, u.Role)
	assert.Equal(t, "Ann", u.Name)

	_, err = svc.Update(ctx, u.ID, UpdateInput{Role: "ADMIN"})
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	_, err = svc.Update(ctx, 999, UpdateInput{Name: "x"})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestDeleteBlockedByActiveBooking(t *testing.T) {
	ctx := context.Background()
	svc, st, orgID := setup(t)
	u, err := svc.Create(ctx, orgID, CreateInput{Name: "Ann", Email: "ann@acme.io", Password: "Secr3t#", Role: "EMPLOYEE"})
	require.NoError(t, err)

	b := &models.Booking{UserID: u.ID, OrganizationID: orgID, Status: models.BookingInitial}
	require.NoError(t, st.CreateBooking(ctx, b))
	assert.True(t, apperror.Is(svc.Delete(ctx, u.ID), apperror.KindConflict))

	b.Status = models.BookingCancelled
	require.NoError(t, st.UpdateBooking(ctx, b, models.BookingInitial))
	require.NoError(t, svc.Delete(ctx, u.ID))
	assert.True(t, apperror.Is(svc.Delete(ctx, u.ID), apperror.KindNotFound))
}

// bookingOnLock inserts a booking for the user while its row lock is taken,
// as a create committing just before the lock is granted would.
type bookingOnLock struct {
	store.Store
}

type bookingOnLockTx struct {
	store.Tx
}

func (b bookingOnLock) WithinTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return b.Store.WithinTx(ctx, func(tx store.Tx) error {
		return fn(bookingOnLockTx{tx})
	})
}

func (t bookingOnLockTx) LockUser(ctx context.Context, id int64) (*models.User, error) {
	u, err := t.Tx.LockUser(ctx, id)
	if err != nil {
		return nil, err
	}
	b := &models.Booking{UserID: id, ResourceID: 1, OrganizationID: u.OrganizationID, Status: models.BookingApproved}
	return u, t.Tx.CreateBooking(ctx, b)
}

func TestDeleteSeesBookingCommittedBeforeLock(t *testing.T) {
	ctx := context.Background()
	svc, st, orgID := setup(t)
	u, err := svc.Create(ctx, orgID, CreateInput{Name: "Ann", Email: "ann@acme.io", Password: "Secr3t#", Role: "EMPLOYEE"})
	require.NoError(t, err)

	err = NewService(bookingOnLock{st}, nil).Delete(ctx, u.ID)
	assert.True(t, apperror.Is(err, apperror.KindConflict), "got %v", err)
	_, err = st.GetUser(ctx, u.ID)
	assert.NoError(t, err)
}

func TestRegisterCreatesEmployee(t *testing.T) {
	ctx := context.Background()
	svc, _, orgID := setup(t)

	u, err := svc.Register(ctx, orgID, "Bo", "bo@acme.io", "Secr3t#")
	require.NoError(t, err)
	assert.Equal(t, models.RoleEmployee, u.Role)

	_, err = svc.Register(ctx, orgID+50, "Cy", "cy@acme.io", "Secr3t#")
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}
