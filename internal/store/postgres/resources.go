package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/resourcebook/backend/internal/models"
)

const resourceColumns = `id, name, description, organization_id, status, created_at, updated_at`

func scanResource(row pgx.Row) (*models.Resource, error) {
	var r models.Resource
	var status string
	if err := row.Scan(&r.ID, &r.Name, &r.Description, &r.OrganizationID, &status, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, mapErr(err)
	}
	r.Status = models.ResourceStatus(status)
	return &r, nil
}

func (q *queries) CreateResource(ctx context.Context, r *models.Resource) error {
	const sql = `INSERT INTO resources (name, description, organization_id, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`
	err := q.db.QueryRow(ctx, sql, r.Name, r.Description, r.OrganizationID, string(r.Status)).
		Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt)
	return mapErr(err)
}

func (q *queries) GetResource(ctx context.Context, id int64) (*models.Resource, error) {
	return scanResource(q.db.QueryRow(ctx, `SELECT `+resourceColumns+` FROM resources WHERE id = $1`, id))
}

func (q *queries) LockResource(ctx context.Context, id int64) (*models.Resource, error) {
	return scanResource(q.db.QueryRow(ctx, `SELECT `+resourceColumns+` FROM resources WHERE id = $1 FOR UPDATE`, id))
}

func (q *queries) GetResourceByName(ctx context.Context, orgID int64, name string) (*models.Resource, error) {
	const sql = `SELECT ` + resourceColumns + ` FROM resources WHERE organization_id = $1 AND name = $2`
	return scanResource(q.db.QueryRow(ctx, sql, orgID, name))
}

func (q *queries) UpdateResource(ctx context.Context, r *models.Resource) error {
	const sql = `UPDATE resources SET name = $2, description = $3, status = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`
	return mapErr(q.db.QueryRow(ctx, sql, r.ID, r.Name, r.Description, string(r.Status)).Scan(&r.UpdatedAt))
}

func (q *queries) DeleteResource(ctx context.Context, id int64) error {
	return affected(q.db.Exec(ctx, `DELETE FROM resources WHERE id = $1`, id))
}

func (q *queries) ListResources(ctx context.Context, orgID int64) ([]models.Resource, error) {
	rows, err := q.db.Query(ctx, `SELECT `+resourceColumns+` FROM resources WHERE organization_id = $1 ORDER BY id`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Resource
	for rows.Next() {
		r, err := scanResource(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *r)
	}
	return list, rows.Err()
}

func (q *queries) ResourceNameExists(ctx context.Context, orgID int64, name string, excludeID int64) (bool, error) {
	const sql = `SELECT EXISTS(SELECT 1 FROM resources WHERE organization_id = $1 AND name = $2 AND id <> $3)`
	var ok bool
	err := q.db.QueryRow(ctx, sql, orgID, name, excludeID).Scan(&ok)
	return ok, err
}

func (q *queries) CompareAndSetResourceStatus(ctx context.Context, id int64, expected, next models.ResourceStatus) (bool, error) {
	const sql = `UPDATE resources SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2`
	tag, err := q.db.Exec(ctx, sql, id, string(expected), string(next))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (q *queries) SetResourceStatus(ctx context.Context, id int64, status models.ResourceStatus) error {
	return affected(q.db.Exec(ctx, `UPDATE resources SET status = $2, updated_at = NOW() WHERE id = $1`, id, string(status)))
}

func (q *queries) DeleteResourcesByOrganization(ctx context.Context, orgID int64) (int64, error) {
	tag, err := q.db.Exec(ctx, `DELETE FROM resources WHERE organization_id = $1`, orgID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
