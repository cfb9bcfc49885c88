package postgres

import (
	"context"

	"github.com/resourcebook/backend/internal/models"
)

func (q *queries) CreateExport(ctx context.Context, e *models.BookingExport) error {
	const sql = `INSERT INTO booking_exports (organization_id, requested_by, status_filter, state)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`
	var filter *string
	if e.Status != nil {
		s := string(*e.Status)
		filter = &s
	}
	return mapErr(q.db.QueryRow(ctx, sql, e.OrganizationID, e.RequestedBy, filter, string(e.State)).Scan(&e.ID, &e.CreatedAt))
}

func (q *queries) GetExport(ctx context.Context, id int64) (*models.BookingExport, error) {
	const sql = `SELECT id, organization_id, requested_by, status_filter, state, object_key, error, created_at, completed_at
		FROM booking_exports WHERE id = $1`
	var e models.BookingExport
	var filter *string
	var state string
	err := q.db.QueryRow(ctx, sql, id).Scan(&e.ID, &e.OrganizationID, &e.RequestedBy, &filter, &state,
		&e.ObjectKey, &e.Error, &e.CreatedAt, &e.CompletedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	if filter != nil {
		st := models.BookingStatus(*filter)
		e.Status = &st
	}
	e.State = models.ExportState(state)
	return &e, nil
}

func (q *queries) UpdateExport(ctx context.Context, e *models.BookingExport) error {
	const sql = `UPDATE booking_exports SET state = $2, object_key = $3, error = $4, completed_at = $5 WHERE id = $1`
	return affected(q.db.Exec(ctx, sql, e.ID, string(e.State), e.ObjectKey, e.Error, e.CompletedAt))
}
