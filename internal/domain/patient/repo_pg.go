package patient

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinic/rxengine/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

type profileRepoPG struct{ pool *pgxpool.Pool }

func NewProfileRepoPG(pool *pgxpool.Pool) ProfileRepository {
	return &profileRepoPG{pool: pool}
}

func (r *profileRepoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

func (r *profileRepoPG) GetProfile(ctx context.Context, id uuid.UUID) (*Profile, error) {
	q := r.conn(ctx)

	var p Profile
	err := q.QueryRow(ctx, `
		SELECT id, first_name, last_name, date_of_birth, gender
		FROM patient WHERE id = $1`, id).
		Scan(&p.Patient.ID, &p.Patient.FirstName, &p.Patient.LastName, &p.Patient.DateOfBirth, &p.Patient.Gender)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get patient: %w", err)
	}

	if p.Allergies, err = r.allergies(ctx, q, id); err != nil {
		return nil, err
	}
	if p.MedicalHistory, err = r.medicalHistory(ctx, q, id); err != nil {
		return nil, err
	}
	if p.FamilyHistory, err = r.familyHistory(ctx, q, id); err != nil {
		return nil, err
	}
	if p.Lifestyle, err = r.lifestyle(ctx, q, id); err != nil {
		return nil, err
	}
	if p.Vitals, err = r.vitals(ctx, q, id); err != nil {
		return nil, err
	}
	if p.Encounters, err = r.encounters(ctx, q, id); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *profileRepoPG) allergies(ctx context.Context, q queryable, patientID uuid.UUID) ([]Allergy, error) {
	rows, err := q.Query(ctx, `
		SELECT id, allergen, severity, reaction, recorded_at
		FROM patient_allergy WHERE patient_id = $1 ORDER BY recorded_at DESC`, patientID)
	if err != nil {
		return nil, fmt.Errorf("query allergies: %w", err)
	}
	defer rows.Close()
	var out []Allergy
	for rows.Next() {
		var a Allergy
		if err := rows.Scan(&a.ID, &a.Allergen, &a.Severity, &a.Reaction, &a.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan allergy: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *profileRepoPG) medicalHistory(ctx context.Context, q queryable, patientID uuid.UUID) ([]MedicalHistoryEntry, error) {
	rows, err := q.Query(ctx, `
		SELECT id, condition, status, diagnosed_at
		FROM medical_history WHERE patient_id = $1 ORDER BY diagnosed_at DESC NULLS LAST`, patientID)
	if err != nil {
		return nil, fmt.Errorf("query medical history: %w", err)
	}
	defer rows.Close()
	var out []MedicalHistoryEntry
	for rows.Next() {
		var e MedicalHistoryEntry
		if err := rows.Scan(&e.ID, &e.Condition, &e.Status, &e.DiagnosedAt); err != nil {
			return nil, fmt.Errorf("scan medical history: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *profileRepoPG) familyHistory(ctx context.Context, q queryable, patientID uuid.UUID) ([]FamilyHistoryEntry, error) {
	rows, err := q.Query(ctx, `
		SELECT id, relation, condition
		FROM family_history WHERE patient_id = $1 ORDER BY relation`, patientID)
	if err != nil {
		return nil, fmt.Errorf("query family history: %w", err)
	}
	defer rows.Close()
	var out []FamilyHistoryEntry
	for rows.Next() {
		var e FamilyHistoryEntry
		if err := rows.Scan(&e.ID, &e.Relation, &e.Condition); err != nil {
			return nil, fmt.Errorf("scan family history: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *profileRepoPG) lifestyle(ctx context.Context, q queryable, patientID uuid.UUID) ([]LifestyleEntry, error) {
	rows, err := q.Query(ctx, `
		SELECT id, factor, value
		FROM lifestyle WHERE patient_id = $1 ORDER BY factor`, patientID)
	if err != nil {
		return nil, fmt.Errorf("query lifestyle: %w", err)
	}
	defer rows.Close()
	var out []LifestyleEntry
	for rows.Next() {
		var e LifestyleEntry
		if err := rows.Scan(&e.ID, &e.Factor, &e.Value); err != nil {
			return nil, fmt.Errorf("scan lifestyle: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *profileRepoPG) vitals(ctx context.Context, q queryable, patientID uuid.UUID) ([]Vital, error) {
	rows, err := q.Query(ctx, `
		SELECT id, recorded_at, bp_systolic, bp_diastolic, heart_rate, temperature, weight_kg, height_cm
		FROM vital_sign WHERE patient_id = $1 ORDER BY recorded_at DESC LIMIT $2`, patientID, MaxRecentVitals)
	if err != nil {
		return nil, fmt.Errorf("query vitals: %w", err)
	}
	defer rows.Close()
	var out []Vital
	for rows.Next() {
		var v Vital
		if err := rows.Scan(&v.ID, &v.RecordedAt, &v.BPSystolic, &v.BPDiastolic, &v.HeartRate,
			&v.Temperature, &v.WeightKg, &v.HeightCm); err != nil {
			return nil, fmt.Errorf("scan vital: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *profileRepoPG) encounters(ctx context.Context, q queryable, patientID uuid.UUID) ([]Encounter, error) {
	rows, err := q.Query(ctx, `
		SELECT id, date, diagnosis
		FROM encounter WHERE patient_id = $1 ORDER BY date DESC LIMIT $2`, patientID, MaxRecentEncounters)
	if err != nil {
		return nil, fmt.Errorf("query encounters: %w", err)
	}
	var out []Encounter
	var ids []uuid.UUID
	for rows.Next() {
		var e Encounter
		if err := rows.Scan(&e.ID, &e.Date, &e.Diagnosis); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan encounter: %w", err)
		}
		out = append(out, e)
		ids = append(ids, e.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate encounters: %w", err)
	}
	if len(ids) == 0 {
		return out, nil
	}

	prescriptions, err := r.prescriptions(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Prescriptions = prescriptions[out[i].ID]
	}
	return out, nil
}

// prescriptions loads the prescriptions and items of the given encounters,
// keyed by encounter id.
func (r *profileRepoPG) prescriptions(ctx context.Context, q queryable, encounterIDs []uuid.UUID) (map[uuid.UUID][]Prescription, error) {
	rows, err := q.Query(ctx, `
		SELECT p.id, p.encounter_id, i.medicine_name, i.dosage, i.frequency, i.duration_days, i.instructions
		FROM prescription p
		LEFT JOIN prescription_item i ON i.prescription_id = p.id
		WHERE p.encounter_id = ANY($1)
		ORDER BY p.created_at, i.position`, encounterIDs)
	if err != nil {
		return nil, fmt.Errorf("query prescriptions: %w", err)
	}
	defer rows.Close()

	byID := make(map[uuid.UUID]*Prescription)
	var order []uuid.UUID
	for rows.Next() {
		var (
			pid, eid uuid.UUID
			name     *string
			item     PrescriptionItem
		)
		if err := rows.Scan(&pid, &eid, &name, &item.Dosage, &item.Frequency, &item.DurationDays, &item.Instructions); err != nil {
			return nil, fmt.Errorf("scan prescription: %w", err)
		}
		p, ok := byID[pid]
		if !ok {
			p = &Prescription{ID: pid, EncounterID: eid}
			byID[pid] = p
			order = append(order, pid)
		}
		if name != nil {
			item.MedicineName = *name
			p.Items = append(p.Items, item)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate prescriptions: %w", err)
	}

	out := make(map[uuid.UUID][]Prescription)
	for _, pid := range order {
		p := byID[pid]
		out[p.EncounterID] = append(out[p.EncounterID], *p)
	}
	return out, nil
}
