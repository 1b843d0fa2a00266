package recommend

import (
	"strings"
)

// SuggestionRequest carries the clinical context for a recommendation.
// Every field is optional.
type SuggestionRequest struct {
	Symptoms            []string `json:"symptoms,omitempty"`
	Diagnosis           string   `json:"diagnosis,omitempty"`
	PatientAge          *int     `json:"patient_age,omitempty" validate:"omitempty,min=0,max=150"`
	PatientGender       string   `json:"patient_gender,omitempty"`
	ExistingMedications []string `json:"existing_medications,omitempty"`
	Allergies           []string `json:"allergies,omitempty"`
	MedicalHistory      string   `json:"medical_history,omitempty"`
	Category            string   `json:"category,omitempty"`
	MedicineName        string   `json:"medicine_name,omitempty"`
}

// hasCriteria reports whether the request names anything to search for.
func (r *SuggestionRequest) hasCriteria() bool {
	if strings.TrimSpace(r.Diagnosis) != "" || strings.TrimSpace(r.Category) != "" {
		return true
	}
	return len(normalizeTerms(r.Symptoms)) > 0
}

// MedicineSuggestion is a scored candidate medicine.
type MedicineSuggestion struct {
	Name              string   `json:"name"`
	GenericName       *string  `json:"generic_name,omitempty"`
	Category          string   `json:"category"`
	Type              string   `json:"type"`
	Strength          *string  `json:"strength,omitempty"`
	Dosage            *string  `json:"dosage,omitempty"`
	Frequency         string   `json:"frequency"`
	Route             string   `json:"route"`
	DurationDays      int      `json:"duration_days"`
	Instructions      string   `json:"instructions"`
	Confidence        float64  `json:"confidence"`
	Reasoning         string   `json:"reasoning"`
	Contraindications []string `json:"contraindications,omitempty"`
	SideEffects       []string `json:"side_effects,omitempty"`
}

// DosageSuggestion is one proposed regimen for a medicine.
type DosageSuggestion struct {
	Dosage       string   `json:"dosage"`
	Frequency    string   `json:"frequency"`
	Route        string   `json:"route"`
	DurationDays int      `json:"duration_days"`
	Instructions string   `json:"instructions"`
	Confidence   float64  `json:"confidence"`
	Reasoning    string   `json:"reasoning"`
	Warnings     []string `json:"warnings,omitempty"`
}

// Severity grades a drug interaction warning.
type Severity string

const (
	SeverityLow             Severity = "LOW"
	SeverityModerate        Severity = "MODERATE"
	SeverityHigh            Severity = "HIGH"
	SeverityContraindicated Severity = "CONTRAINDICATED"
)

// DrugInteractionWarning describes a detected interaction.
type DrugInteractionWarning struct {
	Severity       Severity `json:"severity"`
	Description    string   `json:"description"`
	Recommendation string   `json:"recommendation"`
	Evidence       string   `json:"evidence"`
}

// PrescriptionOptimization is the review of an existing prescription.
type PrescriptionOptimization struct {
	Suggestions          []string             `json:"suggestions"`
	Warnings             []string             `json:"warnings"`
	Improvements         []string             `json:"improvements"`
	AlternativeMedicines []MedicineSuggestion `json:"alternative_medicines,omitempty"`
}

func newOptimization() *PrescriptionOptimization {
	return &PrescriptionOptimization{
		Suggestions:  []string{},
		Warnings:     []string{},
		Improvements: []string{},
	}
}

// reasons accumulates explanation fragments in the order they apply.
type reasons []string

func (r *reasons) add(fragment string) { *r = append(*r, fragment) }

func (r reasons) String() string { return strings.Join(r, " ") }
