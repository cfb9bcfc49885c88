package bookings

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/resourcebook/backend/internal/events"
	"github.com/resourcebook/backend/internal/models"
	"github.com/resourcebook/backend/internal/store/memory"
)

var (
	start = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	end   = time.Date(2024, 1, 1, 11, 0, 0, 0, time.UTC)
)

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) types() []events.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Type, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	store     *memory.Store
	lifecycle *Lifecycle
	events    *recorder

	org, otherOrg     *models.Organization
	employee, peer    *models.User
	manager, outsider *models.User
	resource          *models.Resource
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	st := memory.New()
	f := &fixture{store: st, events: &recorder{}}
	f.lifecycle = NewLifecycle(st, f.events, nil)

	f.org = &models.Organization{Name: "acme"}
	require.NoError(t, st.CreateOrganization(ctx, f.org))
	f.otherOrg = &models.Organization{Name: "globex"}
	require.NoError(t, st.CreateOrganization(ctx, f.otherOrg))

	f.employee = f.user(t, "emp@acme.io", models.RoleEmployee, f.org.ID)
	f.peer = f.user(t, "peer@acme.io", models.RoleEmployee, f.org.ID)
	f.manager = f.user(t, "mgr@acme.io", models.RoleManager, f.org.ID)
	f.outsider = f.user(t, "mgr@globex.io", models.RoleManager, f.otherOrg.ID)

	f.resource = &models.Resource{Name: "room-10", OrganizationID: f.org.ID, Status: models.ResourceEnabled}
	require.NoError(t, st.CreateResource(ctx, f.resource))
	return f
}

func (f *fixture) user(t *testing.T, email string, role models.Role, orgID int64) *models.User {
	t.Helper()
	u := &models.User{Name: email, Email: email, Role: role, OrganizationID: orgID}
	require.NoError(t, f.store.CreateUser(context.Background(), u))
	return u
}

func (f *fixture) input() CreateInput {
	return CreateInput{
		UserID:         f.employee.ID,
		ResourceID:     f.resource.ID,
		OrganizationID: f.org.ID,
		StartTime:      start,
		EndTime:        end,
	}
}

func (f *fixture) resourceStatus(t *testing.T) models.ResourceStatus {
	t.Helper()
	r, err := f.store.GetResource(context.Background(), f.resource.ID)
	require.NoError(t, err)
	return r.Status
}
