package patient

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ehr/periop/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

// The record sections are JSONB; pgx marshals and unmarshals them with
// encoding/json so the stored shape matches the API shape.
const patientCols = `id, owner_id, demographics, medical_history, airway_exam,
	recommendations, clinician_notes, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO patient (
			id, owner_id, name, demographics, medical_history, airway_exam,
			recommendations, clinician_notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`,
		p.ID, p.OwnerID, p.Demographics.Name,
		p.Demographics, p.MedicalHistory, p.AirwayExam,
		recommendationsOrEmpty(p), p.ClinicianNotes,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*Patient, error) {
	return scanPatient(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patient WHERE id = $1 AND owner_id = $2`, id, ownerID))
}

func (r *repoPG) Update(ctx context.Context, p *Patient) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE patient SET
			name = $3, demographics = $4, medical_history = $5, airway_exam = $6,
			recommendations = $7, clinician_notes = $8, updated_at = NOW()
		WHERE id = $1 AND owner_id = $2
		RETURNING created_at, updated_at`,
		p.ID, p.OwnerID, p.Demographics.Name,
		p.Demographics, p.MedicalHistory, p.AirwayExam,
		recommendationsOrEmpty(p), p.ClinicianNotes,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (r *repoPG) List(ctx context.Context, ownerID uuid.UUID, name string, limit, offset int) ([]*Patient, int, error) {
	where := ` WHERE owner_id = $1`
	args := []interface{}{ownerID}
	if name != "" {
		where += ` AND name ILIKE $2`
		args = append(args, "%"+name+"%")
	}

	q := db.Conn(ctx, r.pool)
	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM patient`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM patient%s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`,
		patientCols, where, len(args)+1, len(args)+2)
	rows, err := q.Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func recommendationsOrEmpty(p *Patient) interface{} {
	if p.Recommendations == nil {
		return []struct{}{}
	}
	return p.Recommendations
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(
		&p.ID, &p.OwnerID, &p.Demographics, &p.MedicalHistory, &p.AirwayExam,
		&p.Recommendations, &p.ClinicianNotes, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
