package medicine

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Medicine maps to the medicine table (clinic drug catalog).
type Medicine struct {
	ID                uuid.UUID `db:"id" json:"id"`
	Name              string    `db:"name" json:"name"`
	GenericName       *string   `db:"generic_name" json:"generic_name,omitempty"`
	BrandName         *string   `db:"brand_name" json:"brand_name,omitempty"`
	Category          string    `db:"category" json:"category"`
	Type              string    `db:"type" json:"type"`
	DosageForm        *string   `db:"dosage_form" json:"dosage_form,omitempty"`
	Route             *string   `db:"route" json:"route,omitempty"`
	Strength          *string   `db:"strength" json:"strength,omitempty"`
	Description       string    `db:"description" json:"description"`
	Indications       string    `db:"indications" json:"indications"`
	Contraindications string    `db:"contraindications" json:"contraindications"`
	SideEffects       string    `db:"side_effects" json:"side_effects"`
	Interactions      string    `db:"interactions" json:"interactions"`
	Dosage            string    `db:"dosage" json:"dosage"`
	Storage           *string   `db:"storage" json:"storage,omitempty"`
	IsPrescription    bool      `db:"is_prescription" json:"is_prescription"`
	IsControlled      bool      `db:"is_controlled" json:"is_controlled"`
	IsActive          bool      `db:"is_active" json:"is_active"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// GenericNameValue returns the generic name or an empty string.
func (m *Medicine) GenericNameValue() string {
	if m.GenericName == nil {
		return ""
	}
	return *m.GenericName
}

// RouteOr returns the administration route, or def when none is recorded.
func (m *Medicine) RouteOr(def string) string {
	if m.Route == nil || strings.TrimSpace(*m.Route) == "" {
		return def
	}
	return *m.Route
}

// MatchesName reports whether query is a case-insensitive substring of the
// medicine's name or generic name. An empty query never matches.
func (m *Medicine) MatchesName(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return false
	}
	if strings.Contains(strings.ToLower(m.Name), q) {
		return true
	}
	return strings.Contains(strings.ToLower(m.GenericNameValue()), q)
}

// SideEffectList splits the free-text side effects on commas, semicolons
// and newlines.
func (m *Medicine) SideEffectList() []string {
	fields := strings.FieldsFunc(m.SideEffects, func(r rune) bool {
		return r == ',' || r == ';' || r == '\n'
	})
	var out []string
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// FindByName returns the first medicine in meds whose name or generic name
// contains query, or nil.
func FindByName(meds []*Medicine, query string) *Medicine {
	for _, m := range meds {
		if m.MatchesName(query) {
			return m
		}
	}
	return nil
}
