package patient

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

const patientCols = `id::text, first_name, middle_name, last_name, sex,
	to_char(birth_date, 'YYYY-MM-DD'), civil_status, contact_number, email, occupation,
	guardian_name, guardian_relationship, guardian_contact,
	province_code, city_code, barangay_code, street, created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	var gName, gRel, gContact *string
	var prov, city, brgy, street *string
	err := row.Scan(&p.ID, &p.FirstName, &p.MiddleName, &p.LastName, &p.Sex,
		&p.BirthDate, &p.CivilStatus, &p.ContactNumber, &p.Email, &p.Occupation,
		&gName, &gRel, &gContact,
		&prov, &city, &brgy, &street, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if gName != nil {
		p.Guardian = &Guardian{Name: *gName, Relationship: deref(gRel), ContactNumber: deref(gContact)}
	}
	if prov != nil {
		p.Address = &Address{ProvinceCode: *prov, CityCode: deref(city), BarangayCode: deref(brgy), Street: deref(street)}
	}
	return &p, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// columnArgs flattens the nested guardian and address into nullable columns.
func columnArgs(p *Patient) []interface{} {
	var gName, gRel, gContact *string
	if p.Guardian != nil {
		gName, gRel, gContact = &p.Guardian.Name, &p.Guardian.Relationship, &p.Guardian.ContactNumber
	}
	var prov, city, brgy, street *string
	if p.Address != nil {
		prov, city, brgy, street = &p.Address.ProvinceCode, &p.Address.CityCode, &p.Address.BarangayCode, &p.Address.Street
	}
	return []interface{}{
		p.FirstName, p.MiddleName, p.LastName, p.Sex, p.BirthDate,
		p.CivilStatus, p.ContactNumber, p.Email, p.Occupation,
		gName, gRel, gContact, prov, city, brgy, street,
	}
}

func (r *pgRepo) List(ctx context.Context, f Filter) ([]*Patient, error) {
	query := `SELECT ` + patientCols + ` FROM patients`
	var args []interface{}
	if f.LastName != "" {
		query += ` WHERE LOWER(last_name) = LOWER($1)`
		args = append(args, f.LastName)
	}
	query += ` ORDER BY created_at`

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()

	var items []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan patient: %w", err)
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

func (r *pgRepo) GetByID(ctx context.Context, id string) (*Patient, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperr.NotFound("Patient", id)
	}
	p, err := scanPatient(r.conn.QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE id = $1`, id))
	if db.IsNoRows(err) {
		return nil, apperr.NotFound("Patient", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get patient: %w", err)
	}
	return p, nil
}

func (r *pgRepo) Create(ctx context.Context, p *Patient) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	args := append([]interface{}{p.ID}, columnArgs(p)...)
	err := r.conn.QueryRow(ctx, `
		INSERT INTO patients (id, first_name, middle_name, last_name, sex, birth_date,
			civil_status, contact_number, email, occupation,
			guardian_name, guardian_relationship, guardian_contact,
			province_code, city_code, barangay_code, street)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
		RETURNING created_at, updated_at`, args...).Scan(&p.CreatedAt, &p.UpdatedAt)
	if _, ok := db.UniqueViolation(err); ok {
		return apperr.Conflict("patient %s already exists", p.ID)
	}
	if err != nil {
		return fmt.Errorf("insert patient: %w", err)
	}
	return nil
}

func (r *pgRepo) Update(ctx context.Context, p *Patient) error {
	args := append([]interface{}{p.ID}, columnArgs(p)...)
	err := r.conn.QueryRow(ctx, `
		UPDATE patients SET first_name=$2, middle_name=$3, last_name=$4, sex=$5, birth_date=$6,
			civil_status=$7, contact_number=$8, email=$9, occupation=$10,
			guardian_name=$11, guardian_relationship=$12, guardian_contact=$13,
			province_code=$14, city_code=$15, barangay_code=$16, street=$17, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`, args...).Scan(&p.UpdatedAt)
	if db.IsNoRows(err) {
		return apperr.NotFound("Patient", p.ID)
	}
	if err != nil {
		return fmt.Errorf("update patient: %w", err)
	}
	return nil
}

func (r *pgRepo) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperr.NotFound("Patient", id)
	}
	tag, err := r.conn.Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete patient: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Patient", id)
	}
	return nil
}
