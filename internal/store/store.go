// Package store defines the persistence port used by the booking core and its
// supporting services. Adapters live in the postgres and memory subpackages.
package store

import (
	"context"
	"errors"

	"github.com/resourcebook/backend/internal/models"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("store: not found")
	// ErrDuplicate is returned when a write violates a uniqueness constraint.
	ErrDuplicate = errors.New("store: duplicate")
	// ErrStale is returned by conditional updates whose expected prior state no longer holds.
	ErrStale = errors.New("store: stale write")
)

// BookingFilter narrows ListBookings. Nil fields do not filter.
type BookingFilter struct {
	UserID         *int64
	ResourceID     *int64
	OrganizationID *int64
	Status         *models.BookingStatus
}

// Bookings persists bookings.
type Bookings interface {
	CreateBooking(ctx context.Context, b *models.Booking) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	// LockBooking reads a booking and holds it until the enclosing transaction ends.
	LockBooking(ctx context.Context, id int64) (*models.Booking, error)
	// UpdateBooking writes b only if the stored status still equals expected.
	UpdateBooking(ctx context.Context, b *models.Booking, expected models.BookingStatus) error
	DeleteBooking(ctx context.Context, id int64) error
	ListBookings(ctx context.Context, f BookingFilter) ([]models.Booking, error)
	// HasActiveBooking reports whether a non-terminal booking references the resource.
	HasActiveBooking(ctx context.Context, resourceID int64) (bool, error)
	// UserHasActiveBooking reports whether the user owns a non-terminal booking.
	UserHasActiveBooking(ctx context.Context, userID int64) (bool, error)
}

// Resources persists resources and their availability flag.
type Resources interface {
	CreateResource(ctx context.Context, r *models.Resource) error
	GetResource(ctx context.Context, id int64) (*models.Resource, error)
	// LockResource reads a resource and holds it until the enclosing transaction ends.
	LockResource(ctx context.Context, id int64) (*models.Resource, error)
	GetResourceByName(ctx context.Context, orgID int64, name string) (*models.Resource, error)
	UpdateResource(ctx context.Context, r *models.Resource) error
	DeleteResource(ctx context.Context, id int64) error
	ListResources(ctx context.Context, orgID int64) ([]models.Resource, error)
	ResourceNameExists(ctx context.Context, orgID int64, name string, excludeID int64) (bool, error)
	// CompareAndSetResourceStatus moves the status from expected to next in a
	// single conditional write and reports whether a row changed.
	CompareAndSetResourceStatus(ctx context.Context, id int64, expected, next models.ResourceStatus) (bool, error)
	SetResourceStatus(ctx context.Context, id int64, status models.ResourceStatus) error
	DeleteResourcesByOrganization(ctx context.Context, orgID int64) (int64, error)
}

// Users persists platform users.
type Users interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id int64) (*models.User, error)
	// LockUser reads a user and holds it until the enclosing transaction ends.
	LockUser(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error
	DeleteUser(ctx context.Context, id int64) error
	ListUsers(ctx context.Context, orgID int64) ([]models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}

// Organizations persists tenants.
type Organizations interface {
	CreateOrganization(ctx context.Context, o *models.Organization) error
	GetOrganization(ctx context.Context, id int64) (*models.Organization, error)
	GetOrganizationByName(ctx context.Context, name string) (*models.Organization, error)
	ListOrganizations(ctx context.Context) ([]models.Organization, error)
	UpdateOrganization(ctx context.Context, o *models.Organization) error
	DeleteOrganization(ctx context.Context, id int64) error
	OrganizationNameExists(ctx context.Context, name string, excludeID int64) (bool, error)
	// OrganizationInUse reports whether any user or resource still belongs to the organization.
	OrganizationInUse(ctx context.Context, id int64) (bool, error)
}

// Exports persists booking export jobs.
type Exports interface {
	CreateExport(ctx context.Context, e *models.BookingExport) error
	GetExport(ctx context.Context, id int64) (*models.BookingExport, error)
	UpdateExport(ctx context.Context, e *models.BookingExport) error
}

// Tx is the set of operations available inside a unit of work.
type Tx interface {
	Bookings
	Resources
	Users
	Organizations
	Exports
}

// Store is a Tx that can also open transactions of its own.
type Store interface {
	Tx
	// WithinTx runs fn in one transaction. A non-nil error from fn rolls back every write it made.
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
	Close()
}
