package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/resourcebook/backend/internal/models"
	"github.com/resourcebook/backend/internal/store"
)

const bookingColumns = `id, user_id, resource_id, organization_id, start_time, end_time, status,
	approved_by, approved_at, completed_at, cancelled_at, created_at, updated_at`

func scanBooking(row pgx.Row) (*models.Booking, error) {
	var b models.Booking
	var status string
	err := row.Scan(&b.ID, &b.UserID, &b.ResourceID, &b.OrganizationID, &b.StartTime, &b.EndTime, &status,
		&b.ApprovedBy, &b.ApprovedAt, &b.CompletedAt, &b.CancelledAt, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	b.Status = models.BookingStatus(status)
	return &b, nil
}

func (q *queries) CreateBooking(ctx context.Context, b *models.Booking) error {
	const sql = `INSERT INTO bookings (user_id, resource_id, organization_id, start_time, end_time, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`
	err := q.db.QueryRow(ctx, sql, b.UserID, b.ResourceID, b.OrganizationID, b.StartTime, b.EndTime, string(b.Status)).
		Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	return mapErr(err)
}

func (q *queries) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	return scanBooking(q.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id))
}

func (q *queries) LockBooking(ctx context.Context, id int64) (*models.Booking, error) {
	return scanBooking(q.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE`, id))
}

func (q *queries) UpdateBooking(ctx context.Context, b *models.Booking, expected models.BookingStatus) error {
	const sql = `UPDATE bookings
		SET status = $2, approved_by = $3, approved_at = $4, completed_at = $5, cancelled_at = $6, updated_at = NOW()
		WHERE id = $1 AND status = $7
		RETURNING updated_at`
	err := q.db.QueryRow(ctx, sql, b.ID, string(b.Status), b.ApprovedBy, b.ApprovedAt, b.CompletedAt, b.CancelledAt, string(expected)).
		Scan(&b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrStale
	}
	return mapErr(err)
}

func (q *queries) DeleteBooking(ctx context.Context, id int64) error {
	return affected(q.db.Exec(ctx, `DELETE FROM bookings WHERE id = $1`, id))
}

func (q *queries) ListBookings(ctx context.Context, f store.BookingFilter) ([]models.Booking, error) {
	var where []string
	var args []any
	add := func(col string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if f.UserID != nil {
		add("user_id", *f.UserID)
	}
	if f.ResourceID != nil {
		add("resource_id", *f.ResourceID)
	}
	if f.OrganizationID != nil {
		add("organization_id", *f.OrganizationID)
	}
	if f.Status != nil {
		add("status", string(*f.Status))
	}
	sql := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(where) > 0 {
		sql += ` WHERE ` + strings.Join(where, " AND ")
	}
	sql += ` ORDER BY id`

	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *b)
	}
	return list, rows.Err()
}

func (q *queries) HasActiveBooking(ctx context.Context, resourceID int64) (bool, error) {
	const sql = `SELECT EXISTS(SELECT 1 FROM bookings WHERE resource_id = $1 AND status NOT IN ('COMPLETED', 'CANCELLED'))`
	var ok bool
	err := q.db.QueryRow(ctx, sql, resourceID).Scan(&ok)
	return ok, err
}

func (q *queries) UserHasActiveBooking(ctx context.Context, userID int64) (bool, error) {
	const sql = `SELECT EXISTS(SELECT 1 FROM bookings WHERE user_id = $1 AND status NOT IN ('COMPLETED', 'CANCELLED'))`
	var ok bool
	err := q.db.QueryRow(ctx, sql, userID).Scan(&ok)
	return ok, err
}
