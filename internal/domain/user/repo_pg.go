package user

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type pgRepo struct{ conn queryable }

func NewPGRepo(pool *pgxpool.Pool) Repository { return &pgRepo{conn: pool} }

const userCols = `id::text, username, email, password_hash, role,
	first_name, last_name, contact_number, active, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role,
		&u.FirstName, &u.LastName, &u.ContactNumber, &u.Active, &u.CreatedAt, &u.UpdatedAt)
	return &u, err
}

func writeErr(op string, u *User, err error) error {
	if constraint, ok := db.UniqueViolation(err); ok {
		if constraint == "users_username_key" {
			return apperr.Conflict("username %s is already in use", u.Username)
		}
		return apperr.Conflict("email %s is already in use", u.Email)
	}
	return fmt.Errorf("%s user: %w", op, err)
}

func (r *pgRepo) List(ctx context.Context, f Filter) ([]*User, error) {
	query := `SELECT ` + userCols + ` FROM users`
	var args []interface{}
	if f.Role != "" {
		query += ` WHERE role = $1`
		args = append(args, f.Role)
	}
	query += ` ORDER BY created_at`

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var items []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		items = append(items, u)
	}
	return items, rows.Err()
}

func (r *pgRepo) getOne(ctx context.Context, where string, arg interface{}, notFound error) (*User, error) {
	u, err := scanUser(r.conn.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE `+where, arg))
	if db.IsNoRows(err) {
		return nil, notFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (r *pgRepo) GetByID(ctx context.Context, id string) (*User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperr.NotFound("User", id)
	}
	return r.getOne(ctx, `id = $1`, id, apperr.NotFound("User", id))
}

func (r *pgRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getOne(ctx, `LOWER(email) = LOWER($1)`, email, apperr.NotFoundf("no user with email %s", email))
}

func (r *pgRepo) GetByUsername(ctx context.Context, username string) (*User, error) {
	return r.getOne(ctx, `LOWER(username) = LOWER($1)`, username, apperr.NotFoundf("no user with username %s", username))
}

func (r *pgRepo) Create(ctx context.Context, u *User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	err := r.conn.QueryRow(ctx, `
		INSERT INTO users (id, username, email, password_hash, role, first_name, last_name, contact_number, active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING created_at, updated_at`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.Role, u.FirstName, u.LastName, u.ContactNumber, u.Active,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return writeErr("insert", u, err)
	}
	return nil
}

func (r *pgRepo) Update(ctx context.Context, u *User) error {
	err := r.conn.QueryRow(ctx, `
		UPDATE users SET username=$2, email=$3, password_hash=$4, role=$5, first_name=$6,
			last_name=$7, contact_number=$8, active=$9, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.Role, u.FirstName, u.LastName, u.ContactNumber, u.Active,
	).Scan(&u.UpdatedAt)
	if db.IsNoRows(err) {
		return apperr.NotFound("User", u.ID)
	}
	if err != nil {
		return writeErr("update", u, err)
	}
	return nil
}

func (r *pgRepo) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperr.NotFound("User", id)
	}
	tag, err := r.conn.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User", id)
	}
	return nil
}
