package recommend

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/clinic/rxengine/internal/domain/medicine"
	"github.com/clinic/rxengine/internal/domain/patient"
)

// CheckInteractions reports known drug-drug interactions between the named
// medications and, when patientID resolves, allergy and history conflicts.
func (s *Service) CheckInteractions(ctx context.Context, medications []string, patientID string) (out []DrugInteractionWarning, err error) {
	ctx, span := s.startSpan(ctx, "CheckInteractions")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(attribute.Int("rx.medications", len(medications)))

	meds, profile, err := s.loadCatalogAndProfile(ctx, patientID)
	if err != nil {
		return nil, err
	}
	out = s.interactions(meds, medications, profile)
	span.SetAttributes(attribute.Int("rx.warnings", len(out)))
	return out, nil
}

func (s *Service) interactions(meds []*medicine.Medicine, names []string, profile *patient.Profile) []DrugInteractionWarning {
	out := []DrugInteractionWarning{}

	resolved := resolveDistinct(meds, names)
	rules := s.kb.Interactions()
	for i := 0; i < len(resolved); i++ {
		for j := i + 1; j < len(resolved); j++ {
			a, b := resolved[i], resolved[j]
			if !knownInteraction(rules, a.Name, b.Name) {
				continue
			}
			out = append(out, DrugInteractionWarning{
				Severity:       SeverityModerate,
				Description:    fmt.Sprintf("Potential interaction between %s and %s", a.Name, b.Name),
				Recommendation: "Monitor closely and consider alternative medications",
				Evidence:       "Known drug interaction in medical literature.",
			})
		}
	}

	if profile != nil {
		out = append(out, patientConflicts(names, profile)...)
	}
	return out
}

// resolveDistinct maps names to catalog records, skipping unresolved names
// and repeats of an already resolved record.
func resolveDistinct(meds []*medicine.Medicine, names []string) []*medicine.Medicine {
	seen := make(map[*medicine.Medicine]bool)
	var out []*medicine.Medicine
	for _, n := range names {
		m := medicine.FindByName(meds, n)
		if m == nil || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}

// knownInteraction checks both directions of the pair against the rules.
func knownInteraction(rules []InteractionRule, a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	for _, r := range rules {
		drug := strings.ToLower(r.Drug)
		for _, other := range r.InteractsWith {
			o := strings.ToLower(other)
			if strings.Contains(la, drug) && strings.Contains(lb, o) {
				return true
			}
			if strings.Contains(lb, drug) && strings.Contains(la, o) {
				return true
			}
		}
	}
	return false
}

func patientConflicts(names []string, profile *patient.Profile) []DrugInteractionWarning {
	var out []DrugInteractionWarning
	for _, a := range profile.Allergies {
		allergen := strings.ToLower(strings.TrimSpace(a.Allergen))
		if allergen == "" {
			continue
		}
		for _, n := range names {
			if !strings.Contains(strings.ToLower(n), allergen) {
				continue
			}
			out = append(out, DrugInteractionWarning{
				Severity: SeverityHigh,
				Description: fmt.Sprintf("Patient has a recorded allergy to %s (recorded %s) conflicting with %s",
					a.Allergen, a.RecordedAt.Format("2006-01-02"), n),
				Recommendation: "Avoid this medication completely.",
				Evidence:       "Patient allergy record.",
			})
		}
	}

	if !hasCondition(profile, "bleeding disorder") {
		return out
	}
	for _, n := range names {
		if strings.Contains(strings.ToLower(n), "warfarin") {
			out = append(out, DrugInteractionWarning{
				Severity:       SeverityHigh,
				Description:    fmt.Sprintf("%s prescribed for a patient with a history of bleeding disorder", n),
				Recommendation: "Consider an alternative anticoagulant.",
				Evidence:       "Patient medical history.",
			})
		}
	}
	return out
}

func hasCondition(profile *patient.Profile, condition string) bool {
	for _, h := range profile.MedicalHistory {
		if strings.EqualFold(strings.TrimSpace(h.Condition), condition) {
			return true
		}
	}
	return false
}
