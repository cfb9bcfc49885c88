package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resourcebook/backend/internal/models"
	"github.com/resourcebook/backend/pkg/apperror"
)

var (
	admin    = Claims{SubjectID: 1, Role: models.RoleAdmin, OrganizationID: 1}
	manager  = Claims{SubjectID: 2, Role: models.RoleManager, OrganizationID: 10}
	employee = Claims{SubjectID: 3, Role: models.RoleEmployee, OrganizationID: 10}
)

func TestAuthorize(t *testing.T) {
	own := Target{OrganizationID: 10, OwnerID: 3}
	colleague := Target{OrganizationID: 10, OwnerID: 4}
	foreign := Target{OrganizationID: 20, OwnerID: 5}

	tests := []struct {
		name    string
		claims  Claims
		op      Operation
		target  Target
		allowed bool
	}{
		{"admin manages any organization", admin, OrganizationManage, foreign, true},
		{"manager cannot manage organizations", manager, OrganizationManage, Target{OrganizationID: 10}, false},
		{"admin cannot read bookings", admin, BookingRead, own, false},
		{"manager reads own org booking", manager, BookingRead, colleague, true},
		{"manager cannot read foreign booking", manager, BookingRead, foreign, false},
		{"employee reads own booking", employee, BookingRead, own, true},
		{"employee cannot read colleague booking", employee, BookingRead, colleague, false},
		{"employee reads own booking filed under another org", employee, BookingRead, Target{OrganizationID: 20, OwnerID: 3}, true},
		{"employee creates booking", employee, BookingCreate, foreign, true},
		{"manager cannot create booking", manager, BookingCreate, own, false},
		{"manager approves in org", manager, BookingTransition, colleague, true},
		{"employee cannot approve", employee, BookingTransition, own, false},
		{"employee cancels own", employee, BookingCancel, own, true},
		{"employee cannot cancel colleague", employee, BookingCancel, colleague, false},
		{"manager deletes in org", manager, BookingDelete, colleague, true},
		{"manager cannot delete foreign", manager, BookingDelete, foreign, false},
		{"employee reads org resources", employee, ResourceRead, Target{OrganizationID: 10}, true},
		{"employee cannot manage resources", employee, ResourceManage, Target{OrganizationID: 10}, false},
		{"manager cannot manage foreign users", manager, UserManage, Target{OrganizationID: 20}, false},
		{"manager subscribes to own org", manager, EventsSubscribe, Target{OrganizationID: 10}, true},
		{"employee cannot export", employee, BookingExport, Target{OrganizationID: 10}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.claims, tt.op, tt.target)
			if tt.allowed {
				assert.NoError(t, err)
				return
			}
			assert.True(t, apperror.Is(err, apperror.KindForbidden), "got %v", err)
		})
	}
}

func TestAllows(t *testing.T) {
	assert.True(t, Allows(models.RoleEmployee, BookingCreate))
	assert.False(t, Allows(models.RoleAdmin, BookingCreate))
	assert.False(t, Allows(models.Role("GUEST"), BookingRead))
}

func TestListFilter(t *testing.T) {
	f, err := ListFilter(manager, BookingList)
	require.NoError(t, err)
	require.NotNil(t, f.OrganizationID)
	assert.Equal(t, int64(10), *f.OrganizationID)
	assert.Nil(t, f.OwnerID)

	f, err = ListFilter(employee, BookingList)
	require.NoError(t, err)
	require.NotNil(t, f.OwnerID)
	assert.Equal(t, int64(3), *f.OwnerID)
	assert.Nil(t, f.OrganizationID)

	_, err = ListFilter(admin, BookingList)
	assert.True(t, apperror.Is(err, apperror.KindForbidden))
}
