package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/resourcebook/backend/internal/models"
)

const userColumns = `id, name, email, password_hash, role, organization_id, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	var role string
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &role, &u.OrganizationID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, mapErr(err)
	}
	u.Role = models.Role(role)
	return &u, nil
}

func (q *queries) CreateUser(ctx context.Context, u *models.User) error {
	const sql = `INSERT INTO users (name, email, password_hash, role, organization_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`
	err := q.db.QueryRow(ctx, sql, u.Name, u.Email, u.Password, string(u.Role), u.OrganizationID).
		Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	return mapErr(err)
}

func (q *queries) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return scanUser(q.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (q *queries) LockUser(ctx context.Context, id int64) (*models.User, error) {
	return scanUser(q.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id))
}

func (q *queries) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(q.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (q *queries) UpdateUser(ctx context.Context, u *models.User) error {
	const sql = `UPDATE users SET name = $2, role = $3, password_hash = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`
	return mapErr(q.db.QueryRow(ctx, sql, u.ID, u.Name, string(u.Role), u.Password).Scan(&u.UpdatedAt))
}

func (q *queries) DeleteUser(ctx context.Context, id int64) error {
	return affected(q.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id))
}

func (q *queries) ListUsers(ctx context.Context, orgID int64) ([]models.User, error) {
	rows, err := q.db.Query(ctx, `SELECT `+userColumns+` FROM users WHERE organization_id = $1 ORDER BY id`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *u)
	}
	return list, rows.Err()
}

func (q *queries) EmailExists(ctx context.Context, email string) (bool, error) {
	var ok bool
	err := q.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email).Scan(&ok)
	return ok, err
}
