package appointment

import (
	"context"
	"fmt"
	"strings"

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

const appointmentCols = `id::text, patient_id::text, COALESCE(doctor_id::text, ''), reason,
	to_char(appointment_date, 'YYYY-MM-DD'), to_char(appointment_time, 'HH24:MI'),
	status, notes, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.Reason, &a.Date, &a.Time,
		&a.Status, &a.Notes, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func writeErr(op string, a *Appointment, err error) error {
	if constraint, ok := db.ForeignKeyViolation(err); ok {
		if strings.Contains(constraint, "doctor_id") {
			return apperr.Invalid("doctor %s does not exist", a.DoctorID)
		}
		return apperr.Invalid("patient %s does not exist", a.PatientID)
	}
	if db.IsInvalidText(err) {
		return apperr.Invalid("patient_id and doctor_id must be valid UUIDs")
	}
	if _, ok := db.UniqueViolation(err); ok {
		return apperr.Conflict("appointment %s already exists", a.ID)
	}
	return fmt.Errorf("%s appointment: %w", op, err)
}

func (r *pgRepo) List(ctx context.Context, f Filter) ([]*Appointment, error) {
	var where []string
	var args []interface{}
	add := func(cond, val string) {
		args = append(args, val)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.PatientID != "" {
		add("patient_id::text = $%d", f.PatientID)
	}
	if f.DoctorID != "" {
		add("doctor_id::text = $%d", f.DoctorID)
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if f.Date != "" {
		add("appointment_date = $%d::date", f.Date)
	}

	query := `SELECT ` + appointmentCols + ` FROM appointments`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY appointment_date, appointment_time`

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()

	var items []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

func (r *pgRepo) GetByID(ctx context.Context, id string) (*Appointment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperr.NotFound("Appointment", id)
	}
	a, err := scanAppointment(r.conn.QueryRow(ctx, `SELECT `+appointmentCols+` FROM appointments WHERE id = $1`, id))
	if db.IsNoRows(err) {
		return nil, apperr.NotFound("Appointment", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return a, nil
}

func (r *pgRepo) Create(ctx context.Context, a *Appointment) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	err := r.conn.QueryRow(ctx, `
		INSERT INTO appointments (id, patient_id, doctor_id, reason, appointment_date, appointment_time, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`,
		a.ID, a.PatientID, nullable(a.DoctorID), a.Reason, a.Date, a.Time, a.Status, a.Notes,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return writeErr("insert", a, err)
	}
	return nil
}

func (r *pgRepo) Update(ctx context.Context, a *Appointment) error {
	err := r.conn.QueryRow(ctx, `
		UPDATE appointments SET doctor_id=$2, reason=$3, appointment_date=$4, appointment_time=$5,
			status=$6, notes=$7, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		a.ID, nullable(a.DoctorID), a.Reason, a.Date, a.Time, a.Status, a.Notes,
	).Scan(&a.UpdatedAt)
	if db.IsNoRows(err) {
		return apperr.NotFound("Appointment", a.ID)
	}
	if err != nil {
		return writeErr("update", a, err)
	}
	return nil
}

func (r *pgRepo) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperr.NotFound("Appointment", id)
	}
	tag, err := r.conn.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Appointment", id)
	}
	return nil
}

func (r *pgRepo) DeletePatient(ctx context.Context, patientID string) (int, error) {
	tag, err := r.conn.Exec(ctx, `DELETE FROM appointments WHERE patient_id::text = $1`, patientID)
	if err != nil {
		return 0, fmt.Errorf("delete appointments of patient: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *pgRepo) UnlinkDoctor(ctx context.Context, doctorID string) (int, error) {
	tag, err := r.conn.Exec(ctx,
		`UPDATE appointments SET doctor_id = NULL, updated_at = NOW() WHERE doctor_id::text = $1`, doctorID)
	if err != nil {
		return 0, fmt.Errorf("unlink doctor from appointments: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
