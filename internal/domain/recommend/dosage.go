package recommend

import (
	"context"
	"fmt"
	"sort"

	"go.opentelemetry.io/otel/attribute"

	"github.com/clinic/rxengine/internal/domain/medicine"
)

const (
	standardDosageConfidence = 0.8
	adjustedDosageConfidence = 0.7
	altFormConfidence        = 0.6
)

// SuggestDosage proposes regimens for the first catalog medicine matching
// medicineName. An unmatched name yields an empty list.
func (s *Service) SuggestDosage(ctx context.Context, medicineName string, req SuggestionRequest) (out []DosageSuggestion, err error) {
	ctx, span := s.startSpan(ctx, "SuggestDosage")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(attribute.String("rx.medicine", medicineName))

	meds, err := s.loadCatalog(ctx)
	if err != nil {
		return nil, err
	}
	m := medicine.FindByName(meds, medicineName)
	if m == nil {
		s.logger.Warn().Str("medicine", medicineName).Msg("no catalog match for dosage")
		return []DosageSuggestion{}, nil
	}
	return s.dosages(m, req), nil
}

func (s *Service) dosages(m *medicine.Medicine, req SuggestionRequest) []DosageSuggestion {
	reg := parseRegimen(s.regimenText(m))
	age := req.PatientAge

	base := DosageSuggestion{
		Dosage:       reg.Dose,
		Frequency:    reg.Frequency,
		Route:        m.RouteOr(defaultRoute),
		DurationDays: reg.DurationDays,
		Instructions: instructions(m, age),
		Confidence:   standardDosageConfidence,
		Reasoning:    "Standard dosage based on medication category and typical usage.",
		Warnings:     safetyWarnings(m, req.Allergies),
	}
	out := []DosageSuggestion{base}

	if age != nil {
		switch {
		case *age < 18:
			factor := 0.75
			if *age < 12 {
				factor = 0.5
			}
			out = append(out, adjusted(base, factor, "Dosage adjusted for pediatric patient.", "Pediatric dosage - monitor closely."))
		case *age > 65:
			out = append(out, adjusted(base, 0.8, "Dosage adjusted for elderly patient.", "Elderly patient - start with lower dose."))
		}
	}

	if m.Type != "Tablet" {
		form := m.Type
		if form == "" {
			form = "unspecified"
		}
		alt := base
		alt.Warnings = append([]string(nil), base.Warnings...)
		alt.Confidence = altFormConfidence
		alt.Reasoning = fmt.Sprintf("Alternative formulation: %s.", form)
		out = append(out, alt)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })
	return out
}

func adjusted(base DosageSuggestion, factor float64, reasoning, warning string) DosageSuggestion {
	d := base
	d.Dosage = scaleDose(base.Dosage, factor)
	d.Confidence = adjustedDosageConfidence
	d.Reasoning = reasoning
	d.Warnings = append(append([]string(nil), base.Warnings...), warning)
	return d
}
