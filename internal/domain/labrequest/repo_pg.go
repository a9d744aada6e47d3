package labrequest

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

const labRequestCols = `id, patient_id::text, COALESCE(requested_by::text, ''), tests, results, status,
	to_char(date_requested, 'YYYY-MM-DD'), COALESCE(to_char(date_taken, 'YYYY-MM-DD'), ''),
	remarks, created_at, updated_at`

func scanLabRequest(row pgx.Row) (*LabRequest, error) {
	var l LabRequest
	err := row.Scan(&l.ID, &l.PatientID, &l.RequestedBy, &l.Tests, &l.Results, &l.Status,
		&l.DateRequested, &l.DateTaken, &l.Remarks, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if l.Results == nil {
		l.Results = map[string]string{}
	}
	return &l, nil
}

// orEmpty keeps NULL out of the NOT NULL jsonb columns.
func orEmpty(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func writeErr(op string, l *LabRequest, err error) error {
	if _, ok := db.UniqueViolation(err); ok {
		return apperr.Conflict("lab request %s already exists", l.ID)
	}
	if constraint, ok := db.ForeignKeyViolation(err); ok {
		if strings.Contains(constraint, "requested_by") {
			return apperr.Invalid("doctor %s does not exist", l.RequestedBy)
		}
		return apperr.Invalid("patient %s does not exist", l.PatientID)
	}
	if db.IsInvalidText(err) {
		return apperr.Invalid("patient_id and requested_by must be valid UUIDs")
	}
	return fmt.Errorf("%s lab request: %w", op, err)
}

func (r *pgRepo) List(ctx context.Context, f Filter) ([]*LabRequest, error) {
	var where []string
	var args []interface{}
	add := func(cond, val string) {
		args = append(args, val)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.PatientID != "" {
		add("patient_id::text = $%d", f.PatientID)
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if f.DateRequested != "" {
		add("date_requested = $%d::date", f.DateRequested)
	}

	query := `SELECT ` + labRequestCols + ` FROM lab_requests`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at`

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list lab requests: %w", err)
	}
	defer rows.Close()

	var items []*LabRequest
	for rows.Next() {
		l, err := scanLabRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lab request: %w", err)
		}
		items = append(items, l)
	}
	return items, rows.Err()
}

func (r *pgRepo) GetByID(ctx context.Context, id string) (*LabRequest, error) {
	l, err := scanLabRequest(r.conn.QueryRow(ctx, `SELECT `+labRequestCols+` FROM lab_requests WHERE id = $1`, id))
	if db.IsNoRows(err) {
		return nil, apperr.NotFound("Lab request", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get lab request: %w", err)
	}
	return l, nil
}

func (r *pgRepo) Create(ctx context.Context, l *LabRequest) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	err := r.conn.QueryRow(ctx, `
		INSERT INTO lab_requests (id, patient_id, requested_by, tests, results, status,
			date_requested, date_taken, remarks)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`,
		l.ID, l.PatientID, nullable(l.RequestedBy), orEmpty(l.Tests), orEmpty(l.Results), l.Status,
		l.DateRequested, nullable(l.DateTaken), l.Remarks,
	).Scan(&l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return writeErr("insert", l, err)
	}
	return nil
}

func (r *pgRepo) Update(ctx context.Context, l *LabRequest) error {
	err := r.conn.QueryRow(ctx, `
		UPDATE lab_requests SET tests=$2, results=$3, status=$4, date_taken=$5, remarks=$6, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		l.ID, orEmpty(l.Tests), orEmpty(l.Results), l.Status, nullable(l.DateTaken), l.Remarks,
	).Scan(&l.UpdatedAt)
	if db.IsNoRows(err) {
		return apperr.NotFound("Lab request", l.ID)
	}
	if err != nil {
		return writeErr("update", l, err)
	}
	return nil
}

func (r *pgRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.conn.Exec(ctx, `DELETE FROM lab_requests WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete lab request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Lab request", id)
	}
	return nil
}

func (r *pgRepo) DeletePatient(ctx context.Context, patientID string) (int, error) {
	tag, err := r.conn.Exec(ctx, `DELETE FROM lab_requests WHERE patient_id::text = $1`, patientID)
	if err != nil {
		return 0, fmt.Errorf("delete lab requests of patient: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *pgRepo) UnlinkDoctor(ctx context.Context, doctorID string) (int, error) {
	tag, err := r.conn.Exec(ctx,
		`UPDATE lab_requests SET requested_by = NULL, updated_at = NOW() WHERE requested_by::text = $1`, doctorID)
	if err != nil {
		return 0, fmt.Errorf("unlink doctor from lab requests: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
