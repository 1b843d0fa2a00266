package recommend

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/clinic/rxengine/internal/domain/medicine"
)

// Matching throughout the engine is plain case-insensitive substring search.

// normalizeTerms lowercases and trims terms, dropping blanks. A blank term
// would match every text.
func normalizeTerms(terms []string) []string {
	var out []string
	for _, t := range terms {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// containsAny reports whether text contains any of the lowercased terms.
func containsAny(text string, terms []string) bool {
	lt := strings.ToLower(text)
	for _, t := range terms {
		if strings.Contains(lt, t) {
			return true
		}
	}
	return false
}

// matchedAllergies returns the request allergies, as given, whose text
// appears in the medicine's contraindications.
func matchedAllergies(m *medicine.Medicine, allergies []string) []string {
	contra := strings.ToLower(m.Contraindications)
	var out []string
	for _, a := range allergies {
		la := strings.ToLower(strings.TrimSpace(a))
		if la == "" {
			continue
		}
		if strings.Contains(contra, la) {
			out = append(out, a)
		}
	}
	return out
}

func clampConfidence(c float64) float64 {
	c = math.Max(0, math.Min(1, c))
	return math.Round(c*100) / 100
}

func instructions(m *medicine.Medicine, age *int) string {
	var b strings.Builder
	b.WriteString("Take ")
	b.WriteString(m.Name)
	switch {
	case age != nil && *age < 18:
		b.WriteString(" with food. Monitor for side effects.")
	case age != nil && *age > 65:
		b.WriteString(" with plenty of water. Take with or after meals.")
	default:
		b.WriteString(" as directed.")
	}
	if ParseCategory(m.Category) == CategoryAntibiotic {
		b.WriteString(" Complete the full course.")
	}
	return b.String()
}

func safetyWarnings(m *medicine.Medicine, allergies []string) []string {
	var out []string
	if m.IsControlled {
		out = append(out, "Controlled substance - monitor usage.")
	}
	for _, a := range matchedAllergies(m, allergies) {
		out = append(out, "Allergy warning: "+a+".")
	}
	if ParseCategory(m.Category) == CategoryAntibiotic {
		out = append(out, "May cause gastrointestinal upset.")
	}
	return out
}

const (
	defaultDose         = "500mg"
	defaultFrequency    = "TID"
	defaultDurationDays = 7
	defaultRoute        = "Oral"
)

var (
	doseRe     = regexp.MustCompile(`\d+mg`)
	durationRe = regexp.MustCompile(`(\d+)\s*days?`)

	// Checked in this order; the first one present wins.
	frequencies = []string{"TID", "BID", "QID", "Once daily"}
)

type regimen struct {
	Dose         string
	Frequency    string
	DurationDays int
}

func parseRegimen(text string) regimen {
	r := regimen{Dose: defaultDose, Frequency: defaultFrequency, DurationDays: defaultDurationDays}
	if d := doseRe.FindString(text); d != "" {
		r.Dose = d
	}
	for _, f := range frequencies {
		if strings.Contains(text, f) {
			r.Frequency = f
			break
		}
	}
	if m := durationRe.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			r.DurationDays = n
		}
	}
	return r
}

// regimenText is the category's typical dosage, falling back to the
// medicine's own dosage text for unknown categories.
func (s *Service) regimenText(m *medicine.Medicine) string {
	if info, ok := s.kb.CategoryInfo(ParseCategory(m.Category)); ok && info.TypicalDosage != "" {
		return info.TypicalDosage
	}
	return m.Dosage
}

// scaleDose multiplies the numeric part of a "<n>mg" dose.
func scaleDose(dose string, factor float64) string {
	n, err := strconv.ParseFloat(strings.TrimSuffix(dose, "mg"), 64)
	if err != nil {
		return dose
	}
	v := math.Round(n*factor*100) / 100
	return strconv.FormatFloat(v, 'f', -1, 64) + "mg"
}
