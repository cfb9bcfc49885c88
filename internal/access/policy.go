// Package access decides which operations a caller may perform on which tenants' data.
package access

import (
	"github.com/resourcebook/backend/internal/models"
	"github.com/resourcebook/backend/pkg/apperror"
)

// Claims is the validated identity of a caller.
type Claims struct {
	SubjectID      int64
	Email          string
	Role           models.Role
	OrganizationID int64
}

// Operation names a guarded capability.
type Operation string

const (
	OrganizationManage Operation = "organization.manage"
	ResourceManage     Operation = "resource.manage"
	ResourceRead       Operation = "resource.read"
	UserManage         Operation = "user.manage"
	BookingRead        Operation = "booking.read"
	BookingList        Operation = "booking.list"
	BookingCreate      Operation = "booking.create"
	BookingTransition  Operation = "booking.transition"
	BookingCancel      Operation = "booking.cancel"
	BookingDelete      Operation = "booking.delete"
	BookingExport      Operation = "booking.export"
	EventsSubscribe    Operation = "events.subscribe"
)

type scope int

const (
	// scopeAny needs only the role.
	scopeAny scope = iota + 1
	// scopeOrganization needs the target to belong to the caller's organization.
	scopeOrganization
	// scopeOwner needs the caller to own the target, whatever its organization.
	scopeOwner
)

// policy maps each operation to the roles allowed to perform it and the scope
// each role is held to. A role missing from a row is denied.
var policy = map[Operation]map[models.Role]scope{
	OrganizationManage: {models.RoleAdmin: scopeAny},
	ResourceManage:     {models.RoleManager: scopeOrganization},
	ResourceRead:       {models.RoleManager: scopeOrganization, models.RoleEmployee: scopeOrganization},
	UserManage:         {models.RoleManager: scopeOrganization},
	BookingRead:        {models.RoleManager: scopeOrganization, models.RoleEmployee: scopeOwner},
	BookingList:        {models.RoleManager: scopeOrganization, models.RoleEmployee: scopeOwner},
	BookingCreate:      {models.RoleEmployee: scopeAny},
	BookingTransition:  {models.RoleManager: scopeOrganization},
	BookingCancel:      {models.RoleManager: scopeOrganization, models.RoleEmployee: scopeOwner},
	BookingDelete:      {models.RoleManager: scopeOrganization, models.RoleEmployee: scopeOwner},
	BookingExport:      {models.RoleManager: scopeOrganization},
	EventsSubscribe:    {models.RoleManager: scopeOrganization},
}

// Target is the entity an operation acts on. OwnerID is zero for entities without an owner.
type Target struct {
	OrganizationID int64
	OwnerID        int64
}

// Allows reports whether the role may perform op on at least some target.
func Allows(role models.Role, op Operation) bool {
	_, ok := policy[op][role]
	return ok
}

// Authorize returns a Forbidden error unless the claims may perform op on t.
func Authorize(c Claims, op Operation, t Target) error {
	sc, ok := policy[op][c.Role]
	if !ok {
		return apperror.Forbidden("role %s may not perform %s", c.Role, op)
	}
	switch sc {
	case scopeAny:
		return nil
	case scopeOrganization:
		if t.OrganizationID == c.OrganizationID {
			return nil
		}
		return apperror.Forbidden("%s is limited to your organization", op)
	case scopeOwner:
		if t.OwnerID == c.SubjectID {
			return nil
		}
		return apperror.Forbidden("%s is limited to your own records", op)
	}
	return apperror.Forbidden("role %s may not perform %s", c.Role, op)
}

// Filter restricts a list query to the rows a caller may see. Nil fields do not restrict.
type Filter struct {
	OrganizationID *int64
	OwnerID        *int64
}

// ListFilter returns the restriction that applies to the claims for op.
func ListFilter(c Claims, op Operation) (Filter, error) {
	sc, ok := policy[op][c.Role]
	if !ok {
		return Filter{}, apperror.Forbidden("role %s may not perform %s", c.Role, op)
	}
	var f Filter
	switch sc {
	case scopeOrganization:
		org := c.OrganizationID
		f.OrganizationID = &org
	case scopeOwner:
		id := c.SubjectID
		f.OwnerID = &id
	}
	return f, nil
}
