package memory

import (
	"context"
	"sort"

	"github.com/resourcebook/backend/internal/models"
	"github.com/resourcebook/backend/internal/store"
)

func (v *view) CreateUser(_ context.Context, u *models.User) error {
	defer v.lock()()
	for _, cur := range v.st.users {
		if cur.Email == u.Email {
			return store.ErrDuplicate
		}
	}
	u.ID = v.st.nextID()
	u.CreatedAt = now()
	u.UpdatedAt = u.CreatedAt
	v.st.users[u.ID] = *u
	return nil
}

func (v *view) GetUser(_ context.Context, id int64) (*models.User, error) {
	defer v.lock()()
	u, ok := v.st.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (v *view) LockUser(ctx context.Context, id int64) (*models.User, error) {
	return v.GetUser(ctx, id)
}

func (v *view) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	defer v.lock()()
	for _, u := range v.st.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (v *view) UpdateUser(_ context.Context, u *models.User) error {
	defer v.lock()()
	cur, ok := v.st.users[u.ID]
	if !ok {
		return store.ErrNotFound
	}
	cur.Name = u.Name
	cur.Role = u.Role
	cur.Password = u.Password
	cur.UpdatedAt = now()
	v.st.users[u.ID] = cur
	u.UpdatedAt = cur.UpdatedAt
	return nil
}

func (v *view) DeleteUser(_ context.Context, id int64) error {
	defer v.lock()()
	if _, ok := v.st.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(v.st.users, id)
	return nil
}

func (v *view) ListUsers(_ context.Context, orgID int64) ([]models.User, error) {
	defer v.lock()()
	var list []models.User
	for _, u := range v.st.users {
		if u.OrganizationID == orgID {
			list = append(list, u)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (v *view) EmailExists(_ context.Context, email string) (bool, error) {
	defer v.lock()()
	for _, u := range v.st.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}
