package recommend

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/clinic/rxengine/internal/domain/medicine"
)

const (
	maxCandidates  = 10
	maxSuggestions = 5
	baseConfidence = 0.5
)

var elderlyPreferred = map[Category]bool{
	CategoryAntihypertensive: true,
	CategoryAntidiabetic:     true,
}

// SuggestMedicines ranks active catalog medicines against the request.
// A request without diagnosis, symptoms or category yields an empty list.
func (s *Service) SuggestMedicines(ctx context.Context, req SuggestionRequest) (out []MedicineSuggestion, err error) {
	ctx, span := s.startSpan(ctx, "SuggestMedicines")
	defer func() { endSpan(span, err) }()

	if !req.hasCriteria() {
		s.logger.Debug().Msg("no diagnosis, symptoms or category given")
		return []MedicineSuggestion{}, nil
	}
	meds, err := s.loadCatalog(ctx)
	if err != nil {
		return nil, err
	}
	out = s.score(meds, req)
	span.SetAttributes(attribute.Int("rx.suggestions", len(out)))
	s.logger.Debug().Int("catalog", len(meds)).Int("suggestions", len(out)).Msg("medicine suggestions")
	return out, nil
}

// score filters the catalog to the first maxCandidates matches and returns
// the best maxSuggestions by confidence, descending.
func (s *Service) score(meds []*medicine.Medicine, req SuggestionRequest) []MedicineSuggestion {
	out := []MedicineSuggestion{}
	if !req.hasCriteria() {
		return out
	}
	diagnosis := strings.ToLower(strings.TrimSpace(req.Diagnosis))
	symptoms := normalizeTerms(req.Symptoms)

	var candidates []*medicine.Medicine
	for _, m := range meds {
		if !m.IsActive {
			continue
		}
		if isCandidate(m, diagnosis, symptoms, req.Category) {
			candidates = append(candidates, m)
			if len(candidates) == maxCandidates {
				break
			}
		}
	}

	for _, m := range candidates {
		out = append(out, s.suggestion(m, req, diagnosis, symptoms))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })
	if len(out) > maxSuggestions {
		out = out[:maxSuggestions]
	}
	return out
}

func isCandidate(m *medicine.Medicine, diagnosis string, symptoms []string, category string) bool {
	text := m.Indications + " " + m.Description
	if diagnosis != "" && containsAny(text, []string{diagnosis}) {
		return true
	}
	if len(symptoms) > 0 && containsAny(text, symptoms) {
		return true
	}
	return category != "" && category == m.Category
}

func (s *Service) suggestion(m *medicine.Medicine, req SuggestionRequest, diagnosis string, symptoms []string) MedicineSuggestion {
	confidence := baseConfidence
	var why reasons

	if diagnosis != "" && containsAny(m.Indications, []string{diagnosis}) {
		confidence += 0.3
		why.add("Matches diagnosis.")
	}
	if containsAny(m.Indications, symptoms) {
		confidence += 0.2
		why.add("Addresses symptoms.")
	}
	if req.Category != "" && req.Category == m.Category {
		why.add(fmt.Sprintf("Common %s medication.", m.Category))
	}

	contra := matchedAllergies(m, req.Allergies)
	confidence -= 0.4 * float64(len(contra))

	age := req.PatientAge
	if age != nil && *age < 18 && m.IsControlled {
		confidence -= 0.2
		why.add("Controlled substance for minor.")
	}
	if age != nil && *age > 65 && elderlyPreferred[ParseCategory(m.Category)] {
		confidence += 0.1
		why.add("Age-appropriate medication.")
	}

	reg := parseRegimen(s.regimenText(m))
	sug := MedicineSuggestion{
		Name:              m.Name,
		GenericName:       m.GenericName,
		Category:          m.Category,
		Type:              m.Type,
		Strength:          m.Strength,
		Frequency:         reg.Frequency,
		Route:             m.RouteOr(defaultRoute),
		DurationDays:      reg.DurationDays,
		Instructions:      instructions(m, age),
		Confidence:        clampConfidence(confidence),
		Reasoning:         why.String(),
		Contraindications: contra,
		SideEffects:       m.SideEffectList(),
	}
	if d := s.dosageText(m); d != "" {
		sug.Dosage = &d
	}
	return sug
}

// dosageText prefers the medicine's own dosage text over the category's.
func (s *Service) dosageText(m *medicine.Medicine) string {
	if d := strings.TrimSpace(m.Dosage); d != "" {
		return d
	}
	if info, ok := s.kb.CategoryInfo(ParseCategory(m.Category)); ok {
		return info.TypicalDosage
	}
	return ""
}
