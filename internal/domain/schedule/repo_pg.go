package schedule

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

const scheduleCols = `id::text, COALESCE(doctor_id::text, ''), doctor_name,
	to_char(schedule_date, 'YYYY-MM-DD'), to_char(schedule_time, 'HH24:MI'), created_at, updated_at`

func scanSchedule(row pgx.Row) (*Schedule, error) {
	var s Schedule
	if err := row.Scan(&s.ID, &s.DoctorID, &s.DoctorName, &s.Date, &s.Time, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *pgRepo) List(ctx context.Context, f Filter) ([]*Schedule, error) {
	var where []string
	var args []interface{}
	if f.DoctorName != "" {
		args = append(args, f.DoctorName)
		where = append(where, fmt.Sprintf("LOWER(doctor_name) = LOWER($%d)", len(args)))
	}
	if f.Date != "" {
		args = append(args, f.Date)
		where = append(where, fmt.Sprintf("schedule_date = $%d::date", len(args)))
	}
	query := `SELECT ` + scheduleCols + ` FROM schedules`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY schedule_date, schedule_time`

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	defer rows.Close()

	var items []*Schedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

func (r *pgRepo) GetByID(ctx context.Context, id string) (*Schedule, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperr.NotFound("Schedule", id)
	}
	s, err := scanSchedule(r.conn.QueryRow(ctx, `SELECT `+scheduleCols+` FROM schedules WHERE id = $1`, id))
	if db.IsNoRows(err) {
		return nil, apperr.NotFound("Schedule", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get schedule: %w", err)
	}
	return s, nil
}

func (r *pgRepo) Create(ctx context.Context, s *Schedule) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	var doctorID *string
	if s.DoctorID != "" {
		doctorID = &s.DoctorID
	}
	err := r.conn.QueryRow(ctx, `
		INSERT INTO schedules (id, doctor_id, doctor_name, schedule_date, schedule_time)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`,
		s.ID, doctorID, s.DoctorName, s.Date, s.Time,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	if db.IsForeignKeyViolation(err) {
		return apperr.Invalid("doctor %s does not exist", s.DoctorID)
	}
	if err != nil {
		return fmt.Errorf("insert schedule: %w", err)
	}
	return nil
}

func (r *pgRepo) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperr.NotFound("Schedule", id)
	}
	tag, err := r.conn.Exec(ctx, `DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Schedule", id)
	}
	return nil
}

func (r *pgRepo) UnlinkDoctor(ctx context.Context, doctorID string) (int, error) {
	tag, err := r.conn.Exec(ctx,
		`UPDATE schedules SET doctor_id = NULL, updated_at = NOW() WHERE doctor_id::text = $1`, doctorID)
	if err != nil {
		return 0, fmt.Errorf("unlink doctor from schedules: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
