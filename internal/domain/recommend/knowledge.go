package recommend

// Category is the closed set of medicine categories the engine has
// knowledge about. Any other catalog value maps to CategoryUnknown.
type Category string

const (
	CategoryUnknown          Category = ""
	CategoryAntibiotic       Category = "Antibiotic"
	CategoryAnalgesic        Category = "Analgesic"
	CategoryAntihypertensive Category = "Antihypertensive"
	CategoryAntidiabetic     Category = "Antidiabetic"
	CategoryAntihistamine    Category = "Antihistamine"
	CategoryAnticoagulant    Category = "Anticoagulant"
	CategoryBiologic         Category = "Biologic"
	CategorySpecialty        Category = "Specialty"
	CategoryOncology         Category = "Oncology"
)

var knownCategories = map[Category]bool{
	CategoryAntibiotic:       true,
	CategoryAnalgesic:        true,
	CategoryAntihypertensive: true,
	CategoryAntidiabetic:     true,
	CategoryAntihistamine:    true,
	CategoryAnticoagulant:    true,
	CategoryBiologic:         true,
	CategorySpecialty:        true,
	CategoryOncology:         true,
}

// ParseCategory maps a catalog category string onto the enumeration.
func ParseCategory(s string) Category {
	c := Category(s)
	if knownCategories[c] {
		return c
	}
	return CategoryUnknown
}

// CategoryInfo is the per-category reference text.
type CategoryInfo struct {
	TypicalDosage     string `json:"typical_dosage"`
	CommonUses        string `json:"common_uses"`
	Contraindications string `json:"contraindications"`
}

// InteractionRule lists the drugs known to interact with Drug.
type InteractionRule struct {
	Drug          string   `json:"drug"`
	InteractsWith []string `json:"interacts_with"`
}

// KnowledgeBase is the static clinical reference data consulted by the
// engine. Implementations must be safe for concurrent use and must not
// change between calls.
type KnowledgeBase interface {
	CategoryInfo(c Category) (CategoryInfo, bool)
	Interactions() []InteractionRule
}

// StaticKnowledgeBase is an immutable in-memory KnowledgeBase.
type StaticKnowledgeBase struct {
	categories   map[Category]CategoryInfo
	interactions []InteractionRule
}

// NewStaticKnowledgeBase copies the given tables.
func NewStaticKnowledgeBase(categories map[Category]CategoryInfo, interactions []InteractionRule) *StaticKnowledgeBase {
	kb := &StaticKnowledgeBase{
		categories:   make(map[Category]CategoryInfo, len(categories)),
		interactions: make([]InteractionRule, 0, len(interactions)),
	}
	for k, v := range categories {
		kb.categories[k] = v
	}
	for _, r := range interactions {
		kb.interactions = append(kb.interactions, InteractionRule{
			Drug:          r.Drug,
			InteractsWith: append([]string(nil), r.InteractsWith...),
		})
	}
	return kb
}

func (kb *StaticKnowledgeBase) CategoryInfo(c Category) (CategoryInfo, bool) {
	info, ok := kb.categories[c]
	return info, ok
}

// Interactions returns a copy of the interaction rules in declaration order.
func (kb *StaticKnowledgeBase) Interactions() []InteractionRule {
	out := make([]InteractionRule, len(kb.interactions))
	for i, r := range kb.interactions {
		out[i] = InteractionRule{Drug: r.Drug, InteractsWith: append([]string(nil), r.InteractsWith...)}
	}
	return out
}

// DefaultKnowledgeBase returns the built-in reference tables.
func DefaultKnowledgeBase() *StaticKnowledgeBase {
	return NewStaticKnowledgeBase(defaultCategories, defaultInteractions)
}

var defaultCategories = map[Category]CategoryInfo{
	CategoryAntibiotic: {
		TypicalDosage:     "500mg TID for 7 days",
		CommonUses:        "Bacterial infections",
		Contraindications: "Known hypersensitivity to the drug class",
	},
	CategoryAnalgesic: {
		TypicalDosage:     "500mg QID for 5 days",
		CommonUses:        "Pain and fever",
		Contraindications: "Severe hepatic impairment",
	},
	CategoryAntihypertensive: {
		TypicalDosage:     "10mg Once daily for 30 days",
		CommonUses:        "Hypertension",
		Contraindications: "Pregnancy, bilateral renal artery stenosis",
	},
	CategoryAntidiabetic: {
		TypicalDosage:     "500mg BID for 30 days",
		CommonUses:        "Type 2 diabetes",
		Contraindications: "Severe renal impairment, ketoacidosis",
	},
	CategoryAntihistamine: {
		TypicalDosage:     "10mg Once daily for 7 days",
		CommonUses:        "Allergic rhinitis, urticaria",
		Contraindications: "Hypersensitivity",
	},
	CategoryAnticoagulant: {
		TypicalDosage:     "5mg Once daily for 30 days",
		CommonUses:        "Thromboembolism prevention",
		Contraindications: "Active bleeding, bleeding disorder",
	},
}

var defaultInteractions = []InteractionRule{
	{Drug: "Warfarin", InteractsWith: []string{"Aspirin", "NSAIDs", "Vitamin K"}},
	{Drug: "Metformin", InteractsWith: []string{"Alcohol", "Contrast dye"}},
	{Drug: "Lisinopril", InteractsWith: []string{"Potassium supplements", "NSAIDs"}},
	{Drug: "Digoxin", InteractsWith: []string{"Amiodarone", "Verapamil"}},
	{Drug: "Simvastatin", InteractsWith: []string{"Clarithromycin", "Grapefruit"}},
}
