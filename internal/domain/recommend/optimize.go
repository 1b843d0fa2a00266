package recommend

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/clinic/rxengine/internal/domain/medicine"
	"github.com/clinic/rxengine/internal/domain/patient"
)

const maxAlternatives = 3

var expensiveCategories = map[Category]bool{
	CategoryBiologic:  true,
	CategorySpecialty: true,
	CategoryOncology:  true,
}

// OptimizePrescription reviews rx for the given patient. When the patient
// cannot be resolved every list in the result is empty.
func (s *Service) OptimizePrescription(ctx context.Context, rx patient.Prescription, patientID, diagnosis string) (out *PrescriptionOptimization, err error) {
	ctx, span := s.startSpan(ctx, "OptimizePrescription")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(attribute.Int("rx.items", len(rx.Items)))

	meds, profile, err := s.loadCatalogAndProfile(ctx, patientID)
	if err != nil {
		return nil, err
	}
	out = newOptimization()
	if profile == nil {
		return out, nil
	}

	names := rx.Names()

	if dups := duplicateNames(names); len(dups) > 0 {
		out.Warnings = append(out.Warnings, "Duplicate medications detected: "+strings.Join(dups, ", "))
	}

	for _, w := range s.interactions(meds, names, profile) {
		out.Warnings = append(out.Warnings, fmt.Sprintf("%s: %s", w.Severity, w.Description))
	}

	if costly := expensiveItems(meds, names); len(costly) > 0 {
		list := strings.Join(costly, ", ")
		out.Suggestions = append(out.Suggestions, "Consider generic or biosimilar alternatives for high-cost medications: "+list)
		out.Improvements = append(out.Improvements, "Cost optimization: review lower-cost equivalents for "+list)
	}

	age, hasAge := profile.Age(s.now())
	if hasAge {
		if flagged := ageInappropriateItems(meds, names, age); len(flagged) > 0 {
			out.Warnings = append(out.Warnings,
				fmt.Sprintf("Age-inappropriate medications for patient aged %d: %s", age, strings.Join(flagged, ", ")))
		}
	}

	req := SuggestionRequest{
		Diagnosis:           diagnosis,
		PatientGender:       profile.Gender(),
		ExistingMedications: names,
	}
	if hasAge {
		req.PatientAge = &age
	}
	if alts := s.score(meds, req); len(alts) > 0 {
		if len(alts) > maxAlternatives {
			alts = alts[:maxAlternatives]
		}
		out.AlternativeMedicines = alts
	}

	s.logger.Debug().
		Int("warnings", len(out.Warnings)).
		Int("suggestions", len(out.Suggestions)).
		Int("alternatives", len(out.AlternativeMedicines)).
		Msg("prescription optimized")
	return out, nil
}

// duplicateNames returns each name occurring more than once, ordered by its
// second occurrence.
func duplicateNames(names []string) []string {
	counts := make(map[string]int, len(names))
	var dups []string
	for _, n := range names {
		counts[n]++
		if counts[n] == 2 {
			dups = append(dups, n)
		}
	}
	return dups
}

func expensiveItems(meds []*medicine.Medicine, names []string) []string {
	var out []string
	for _, n := range names {
		if m := medicine.FindByName(meds, n); m != nil && expensiveCategories[ParseCategory(m.Category)] {
			out = append(out, n)
		}
	}
	return out
}

func ageInappropriateItems(meds []*medicine.Medicine, names []string, age int) []string {
	var out []string
	for _, n := range names {
		if m := medicine.FindByName(meds, n); m != nil && isAgeInappropriate(m, age) {
			out = append(out, n)
		}
	}
	return out
}

// isAgeInappropriate flags controlled substances for minors. Antihypertensives
// for patients over 65 are not flagged.
func isAgeInappropriate(m *medicine.Medicine, age int) bool {
	return age < 18 && m.IsControlled
}
