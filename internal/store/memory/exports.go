package memory

import (
	"context"

	"github.com/resourcebook/backend/internal/models"
	"github.com/resourcebook/backend/internal/store"
)

func (v *view) CreateExport(_ context.Context, e *models.BookingExport) error {
	defer v.lock()()
	e.ID = v.st.nextID()
	e.CreatedAt = now()
	v.st.exports[e.ID] = *e
	return nil
}

func (v *view) GetExport(_ context.Context, id int64) (*models.BookingExport, error) {
	defer v.lock()()
	e, ok := v.st.exports[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &e, nil
}

func (v *view) UpdateExport(_ context.Context, e *models.BookingExport) error {
	defer v.lock()()
	if _, ok := v.st.exports[e.ID]; !ok {
		return store.ErrNotFound
	}
	v.st.exports[e.ID] = *e
	return nil
}
