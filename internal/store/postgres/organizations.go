package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/resourcebook/backend/internal/models"
)

func scanOrganization(row pgx.Row) (*models.Organization, error) {
	var o models.Organization
	if err := row.Scan(&o.ID, &o.Name, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, mapErr(err)
	}
	return &o, nil
}

func (q *queries) CreateOrganization(ctx context.Context, o *models.Organization) error {
	const sql = `INSERT INTO organizations (name) VALUES ($1) RETURNING id, created_at, updated_at`
	return mapErr(q.db.QueryRow(ctx, sql, o.Name).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt))
}

func (q *queries) GetOrganization(ctx context.Context, id int64) (*models.Organization, error) {
	return scanOrganization(q.db.QueryRow(ctx, `SELECT id, name, created_at, updated_at FROM organizations WHERE id = $1`, id))
}

func (q *queries) GetOrganizationByName(ctx context.Context, name string) (*models.Organization, error) {
	return scanOrganization(q.db.QueryRow(ctx, `SELECT id, name, created_at, updated_at FROM organizations WHERE name = $1`, name))
}

func (q *queries) ListOrganizations(ctx context.Context) ([]models.Organization, error) {
	rows, err := q.db.Query(ctx, `SELECT id, name, created_at, updated_at FROM organizations ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Organization
	for rows.Next() {
		o, err := scanOrganization(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *o)
	}
	return list, rows.Err()
}

func (q *queries) UpdateOrganization(ctx context.Context, o *models.Organization) error {
	const sql = `UPDATE organizations SET name = $2, updated_at = NOW() WHERE id = $1 RETURNING updated_at`
	return mapErr(q.db.QueryRow(ctx, sql, o.ID, o.Name).Scan(&o.UpdatedAt))
}

func (q *queries) DeleteOrganization(ctx context.Context, id int64) error {
	return affected(q.db.Exec(ctx, `DELETE FROM organizations WHERE id = $1`, id))
}

func (q *queries) OrganizationNameExists(ctx context.Context, name string, excludeID int64) (bool, error) {
	var ok bool
	err := q.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM organizations WHERE name = $1 AND id <> $2)`, name, excludeID).Scan(&ok)
	return ok, err
}

func (q *queries) OrganizationInUse(ctx context.Context, id int64) (bool, error) {
	const sql = `SELECT EXISTS(SELECT 1 FROM users WHERE organization_id = $1)
		OR EXISTS(SELECT 1 FROM resources WHERE organization_id = $1)`
	var ok bool
	err := q.db.QueryRow(ctx, sql, id).Scan(&ok)
	return ok, err
}
