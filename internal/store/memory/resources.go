package memory

import (
	"context"
	"sort"

	"github.com/resourcebook/backend/internal/models"
	"github.com/resourcebook/backend/internal/store"
)

func (v *view) CreateResource(_ context.Context, r *models.Resource) error {
	defer v.lock()()
	for _, cur := range v.st.resources {
		if cur.OrganizationID == r.OrganizationID && cur.Name == r.Name {
			return store.ErrDuplicate
		}
	}
	r.ID = v.st.nextID()
	r.CreatedAt = now()
	r.UpdatedAt = r.CreatedAt
	v.st.resources[r.ID] = *r
	return nil
}

func (v *view) GetResource(_ context.Context, id int64) (*models.Resource, error) {
	defer v.lock()()
	r, ok := v.st.resources[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &r, nil
}

// LockResource is GetResource; transactions are already serialized.
func (v *view) LockResource(ctx context.Context, id int64) (*models.Resource, error) {
	return v.GetResource(ctx, id)
}

func (v *view) GetResourceByName(_ context.Context, orgID int64, name string) (*models.Resource, error) {
	defer v.lock()()
	for _, r := range v.st.resources {
		if r.OrganizationID == orgID && r.Name == name {
			return &r, nil
		}
	}
	return nil, store.ErrNotFound
}

func (v *view) UpdateResource(_ context.Context, r *models.Resource) error {
	defer v.lock()()
	if _, ok := v.st.resources[r.ID]; !ok {
		return store.ErrNotFound
	}
	for id, cur := range v.st.resources {
		if id != r.ID && cur.OrganizationID == r.OrganizationID && cur.Name == r.Name {
			return store.ErrDuplicate
		}
	}
	r.UpdatedAt = now()
	v.st.resources[r.ID] = *r
	return nil
}

func (v *view) DeleteResource(_ context.Context, id int64) error {
	defer v.lock()()
	if _, ok := v.st.resources[id]; !ok {
		return store.ErrNotFound
	}
	delete(v.st.resources, id)
	return nil
}

func (v *view) ListResources(_ context.Context, orgID int64) ([]models.Resource, error) {
	defer v.lock()()
	var list []models.Resource
	for _, r := range v.st.resources {
		if r.OrganizationID == orgID {
			list = append(list, r)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (v *view) ResourceNameExists(_ context.Context, orgID int64, name string, excludeID int64) (bool, error) {
	defer v.lock()()
	for id, r := range v.st.resources {
		if id != excludeID && r.OrganizationID == orgID && r.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (v *view) CompareAndSetResourceStatus(_ context.Context, id int64, expected, next models.ResourceStatus) (bool, error) {
	defer v.lock()()
	r, ok := v.st.resources[id]
	if !ok || r.Status != expected {
		return false, nil
	}
	r.Status = next
	r.UpdatedAt = now()
	v.st.resources[id] = r
	return true, nil
}

func (v *view) SetResourceStatus(_ context.Context, id int64, status models.ResourceStatus) error {
	defer v.lock()()
	r, ok := v.st.resources[id]
	if !ok {
		return store.ErrNotFound
	}
	r.Status = status
	r.UpdatedAt = now()
	v.st.resources[id] = r
	return nil
}

func (v *view) DeleteResourcesByOrganization(_ context.Context, orgID int64) (int64, error) {
	defer v.lock()()
	var n int64
	for id, r := range v.st.resources {
		if r.OrganizationID == orgID {
			delete(v.st.resources, id)
			n++
		}
	}
	return n, nil
}
