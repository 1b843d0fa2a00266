package patient

import (
	"time"

	"github.com/google/uuid"
)

const (
	// MaxRecentVitals bounds Profile.Vitals.
	MaxRecentVitals = 5
	// MaxRecentEncounters bounds Profile.Encounters.
	MaxRecentEncounters = 10
)

// Patient maps to the patient table.
type Patient struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	FirstName   string     `db:"first_name" json:"first_name"`
	LastName    string     `db:"last_name" json:"last_name"`
	DateOfBirth *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Gender      *string    `db:"gender" json:"gender,omitempty"`
}

// Allergy maps to the patient_allergy table.
type Allergy struct {
	ID         uuid.UUID `db:"id" json:"id"`
	Allergen   string    `db:"allergen" json:"allergen"`
	Severity   *string   `db:"severity" json:"severity,omitempty"`
	Reaction   *string   `db:"reaction" json:"reaction,omitempty"`
	RecordedAt time.Time `db:"recorded_at" json:"recorded_at"`
}

// MedicalHistoryEntry maps to the medical_history table.
type MedicalHistoryEntry struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	Condition   string     `db:"condition" json:"condition"`
	Status      *string    `db:"status" json:"status,omitempty"`
	DiagnosedAt *time.Time `db:"diagnosed_at" json:"diagnosed_at,omitempty"`
}

// FamilyHistoryEntry maps to the family_history table.
type FamilyHistoryEntry struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Relation  string    `db:"relation" json:"relation"`
	Condition string    `db:"condition" json:"condition"`
}

// LifestyleEntry maps to the lifestyle table.
type LifestyleEntry struct {
	ID     uuid.UUID `db:"id" json:"id"`
	Factor string    `db:"factor" json:"factor"`
	Value  string    `db:"value" json:"value"`
}

// Vital maps to the vital_sign table.
type Vital struct {
	ID          uuid.UUID `db:"id" json:"id"`
	RecordedAt  time.Time `db:"recorded_at" json:"recorded_at"`
	BPSystolic  *int      `db:"bp_systolic" json:"bp_systolic,omitempty"`
	BPDiastolic *int      `db:"bp_diastolic" json:"bp_diastolic,omitempty"`
	HeartRate   *int      `db:"heart_rate" json:"heart_rate,omitempty"`
	Temperature *float64  `db:"temperature" json:"temperature,omitempty"`
	WeightKg    *float64  `db:"weight_kg" json:"weight_kg,omitempty"`
	HeightCm    *float64  `db:"height_cm" json:"height_cm,omitempty"`
}

// Encounter maps to the encounter table.
type Encounter struct {
	ID            uuid.UUID      `db:"id" json:"id"`
	Date          time.Time      `db:"date" json:"date"`
	Diagnosis     *string        `db:"diagnosis" json:"diagnosis,omitempty"`
	Prescriptions []Prescription `json:"prescriptions,omitempty"`
}

// Prescription maps to the prescription table. It is also the input shape
// for prescription optimization, where ID and EncounterID may be zero.
type Prescription struct {
	ID          uuid.UUID          `db:"id" json:"id,omitempty"`
	EncounterID uuid.UUID          `db:"encounter_id" json:"encounter_id,omitempty"`
	Items       []PrescriptionItem `json:"items" validate:"required,dive"`
}

// PrescriptionItem maps to the prescription_item table.
type PrescriptionItem struct {
	MedicineName string  `db:"medicine_name" json:"medicine_name" validate:"required,notblank"`
	Dosage       *string `db:"dosage" json:"dosage,omitempty"`
	Frequency    *string `db:"frequency" json:"frequency,omitempty"`
	DurationDays *int    `db:"duration_days" json:"duration_days,omitempty"`
	Instructions *string `db:"instructions" json:"instructions,omitempty"`
}

// Names returns the medicine names of the prescription items in order.
func (p *Prescription) Names() []string {
	names := make([]string, 0, len(p.Items))
	for _, it := range p.Items {
		names = append(names, it.MedicineName)
	}
	return names
}

// Profile is the read-only history snapshot used for clinical checks.
type Profile struct {
	Patient        Patient               `json:"patient"`
	Allergies      []Allergy             `json:"allergies"`
	MedicalHistory []MedicalHistoryEntry `json:"medical_history"`
	FamilyHistory  []FamilyHistoryEntry  `json:"family_history"`
	Lifestyle      []LifestyleEntry      `json:"lifestyle"`
	Vitals         []Vital               `json:"vitals"`
	Encounters     []Encounter           `json:"encounters"`
}

// Age returns the patient's age in whole years at now. ok is false when no
// date of birth is recorded.
func (p *Profile) Age(now time.Time) (age int, ok bool) {
	dob := p.Patient.DateOfBirth
	if dob == nil {
		return 0, false
	}
	age = now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	if age < 0 {
		age = 0
	}
	return age, true
}

// Gender returns the recorded gender or an empty string.
func (p *Profile) Gender() string {
	if p.Patient.Gender == nil {
		return ""
	}
	return *p.Patient.Gender
}

// AllergenNames returns the allergen text of every recorded allergy.
func (p *Profile) AllergenNames() []string {
	out := make([]string, 0, len(p.Allergies))
	for _, a := range p.Allergies {
		out = append(out, a.Allergen)
	}
	return out
}
