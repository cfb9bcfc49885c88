package memory

import (
	"context"
	"sort"

	"github.com/resourcebook/backend/internal/models"
	"github.com/resourcebook/backend/internal/store"
)

func (v *view) CreateOrganization(_ context.Context, o *models.Organization) error {
	defer v.lock()()
	for _, cur := range v.st.organizations {
		if cur.Name == o.Name {
			return store.ErrDuplicate
		}
	}
	o.ID = v.st.nextID()
	o.CreatedAt = now()
	o.UpdatedAt = o.CreatedAt
	v.st.organizations[o.ID] = *o
	return nil
}

func (v *view) GetOrganization(_ context.Context, id int64) (*models.Organization, error) {
	defer v.lock()()
	o, ok := v.st.organizations[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &o, nil
}

func (v *view) GetOrganizationByName(_ context.Context, name string) (*models.Organization, error) {
	defer v.lock()()
	for _, o := range v.st.organizations {
		if o.Name == name {
			return &o, nil
		}
	}
	return nil, store.ErrNotFound
}

func (v *view) ListOrganizations(_ context.Context) ([]models.Organization, error) {
	defer v.lock()()
	list := make([]models.Organization, 0, len(v.st.organizations))
	for _, o := range v.st.organizations {
		list = append(list, o)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (v *view) UpdateOrganization(_ context.Context, o *models.Organization) error {
	defer v.lock()()
	cur, ok := v.st.organizations[o.ID]
	if !ok {
		return store.ErrNotFound
	}
	for id, other := range v.st.organizations {
		if id != o.ID && other.Name == o.Name {
			return store.ErrDuplicate
		}
	}
	cur.Name = o.Name
	cur.UpdatedAt = now()
	v.st.organizations[o.ID] = cur
	*o = cur
	return nil
}

func (v *view) DeleteOrganization(_ context.Context, id int64) error {
	defer v.lock()()
	if _, ok := v.st.organizations[id]; !ok {
		return store.ErrNotFound
	}
	delete(v.st.organizations, id)
	for eid, e := range v.st.exports {
		if e.OrganizationID == id {
			delete(v.st.exports, eid)
		}
	}
	return nil
}

func (v *view) OrganizationNameExists(_ context.Context, name string, excludeID int64) (bool, error) {
	defer v.lock()()
	for id, o := range v.st.organizations {
		if id != excludeID && o.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (v *view) OrganizationInUse(_ context.Context, id int64) (bool, error) {
	defer v.lock()()
	for _, u := range v.st.users {
		if u.OrganizationID == id {
			return true, nil
		}
	}
	for _, r := range v.st.resources {
		if r.OrganizationID == id {
			return true, nil
		}
	}
	return false, nil
}
