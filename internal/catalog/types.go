package catalog

type Category string

const (
	CategoryDirectIncomeSupport Category = "Direct Income Support"
	CategoryIrrigation          Category = "Irrigation"
	CategoryCropInsurance       Category = "Crop Insurance"
	CategoryEnergy              Category = "Energy"
	CategoryCredit              Category = "Credit"
	CategoryOrganicFarming      Category = "Organic Farming"
	CategoryMechanization       Category = "Mechanization"
	CategoryHorticulture        Category = "Horticulture"
	CategoryCropDevelopment     Category = "Crop Development"
)

// Translation is the localized display text of a subsidy.
type Translation struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type Eligibility struct {
	MinLandSize float64     `json:"minLandSize"`
	MaxLandSize *float64    `json:"maxLandSize,omitempty"`
	FarmerType  Restriction `json:"farmerType"`
	Crops       Restriction `json:"crops"`
	District    Restriction `json:"district"`
}

// LandRestricted reports whether the land rule constrains anyone.
func (e Eligibility) LandRestricted() bool {
	return e.MinLandSize > 0 || e.MaxLandSize != nil
}

// Subsidy is read-only reference data owned by a Catalog.
type Subsidy struct {
	ID             string                 `json:"id"`
	Name           string                 `json:"name"`
	Description    string                 `json:"description"`
	Translations   map[string]Translation `json:"translations,omitempty"`
	Category       Category               `json:"category"`
	Amount         float64                `json:"amount"`
	Eligibility    Eligibility            `json:"eligibility"`
	Documents      []string               `json:"documents"`
	ApplicationURL string                 `json:"applicationUrl,omitempty"`
}

func (s *Subsidy) DisplayName(language string) string {
	if t, ok := s.Translations[language]; ok && t.Name != "" {
		return t.Name
	}
	return s.Name
}

func (s *Subsidy) DisplayDescription(language string) string {
	if t, ok := s.Translations[language]; ok && t.Description != "" {
		return t.Description
	}
	return s.Description
}

func (s Subsidy) clone() Subsidy {
	out := s
	if s.Translations != nil {
		out.Translations = make(map[string]Translation, len(s.Translations))
		for k, v := range s.Translations {
			out.Translations[k] = v
		}
	}
	if s.Eligibility.MaxLandSize != nil {
		max := *s.Eligibility.MaxLandSize
		out.Eligibility.MaxLandSize = &max
	}
	out.Documents = append([]string{}, s.Documents...)
	return out
}

// Float returns a pointer to v, for optional fields such as MaxLandSize.
func Float(v float64) *float64 {
	return &v
}
