package doctor

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

const doctorCols = `id::text, user_id::text, specialization, license_number,
	years_of_experience, active, created_at, updated_at`

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(&d.ID, &d.UserID, &d.Specialization, &d.LicenseNumber,
		&d.YearsOfExperience, &d.Active, &d.CreatedAt, &d.UpdatedAt)
	return &d, err
}

// writeErr maps constraint violations onto domain errors.
func writeErr(op string, d *Doctor, err error) error {
	if constraint, ok := db.UniqueViolation(err); ok {
		if constraint == "doctors_user_id_key" {
			return apperr.Conflict("user %s already has a doctor profile", d.UserID)
		}
		return apperr.Conflict("license number %s is already registered", d.LicenseNumber)
	}
	if db.IsForeignKeyViolation(err) {
		return apperr.Invalid("user %s does not exist", d.UserID)
	}
	return fmt.Errorf("%s doctor: %w", op, err)
}

func (r *pgRepo) List(ctx context.Context, f Filter) ([]*Doctor, error) {
	query := `SELECT ` + doctorCols + ` FROM doctors`
	var args []interface{}
	if f.Active != nil {
		query += ` WHERE active = $1`
		args = append(args, *f.Active)
	}
	query += ` ORDER BY created_at`

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	defer rows.Close()

	var items []*Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, fmt.Errorf("scan doctor: %w", err)
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

func (r *pgRepo) getOne(ctx context.Context, where string, arg interface{}, notFound error) (*Doctor, error) {
	d, err := scanDoctor(r.conn.QueryRow(ctx, `SELECT `+doctorCols+` FROM doctors WHERE `+where, arg))
	if db.IsNoRows(err) {
		return nil, notFound
	}
	if err != nil {
		return nil, fmt.Errorf("get doctor: %w", err)
	}
	return d, nil
}

func (r *pgRepo) GetByID(ctx context.Context, id string) (*Doctor, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperr.NotFound("Doctor", id)
	}
	return r.getOne(ctx, `id = $1`, id, apperr.NotFound("Doctor", id))
}

func (r *pgRepo) GetByUserID(ctx context.Context, userID string) (*Doctor, error) {
	notFound := apperr.NotFoundf("no doctor profile for user %s", userID)
	if _, err := uuid.Parse(userID); err != nil {
		return nil, notFound
	}
	return r.getOne(ctx, `user_id = $1`, userID, notFound)
}

func (r *pgRepo) GetByLicense(ctx context.Context, license string) (*Doctor, error) {
	return r.getOne(ctx, `UPPER(license_number) = UPPER($1)`, license,
		apperr.NotFoundf("no doctor with license number %s", license))
}

func (r *pgRepo) Create(ctx context.Context, d *Doctor) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	err := r.conn.QueryRow(ctx, `
		INSERT INTO doctors (id, user_id, specialization, license_number, years_of_experience, active)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at, updated_at`,
		d.ID, d.UserID, d.Specialization, d.LicenseNumber, d.YearsOfExperience, d.Active,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return writeErr("insert", d, err)
	}
	return nil
}

func (r *pgRepo) Update(ctx context.Context, d *Doctor) error {
	err := r.conn.QueryRow(ctx, `
		UPDATE doctors SET specialization=$2, license_number=$3, years_of_experience=$4,
			active=$5, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		d.ID, d.Specialization, d.LicenseNumber, d.YearsOfExperience, d.Active,
	).Scan(&d.UpdatedAt)
	if db.IsNoRows(err) {
		return apperr.NotFound("Doctor", d.ID)
	}
	if err != nil {
		return writeErr("update", d, err)
	}
	return nil
}

func (r *pgRepo) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperr.NotFound("Doctor", id)
	}
	tag, err := r.conn.Exec(ctx, `DELETE FROM doctors WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete doctor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Doctor", id)
	}
	return nil
}
