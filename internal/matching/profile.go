package matching

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/agri-platform/subsidy-matcher/internal/catalog"
)

type FarmerType string

const (
	FarmerTypeSmall    FarmerType = "small"
	FarmerTypeMarginal FarmerType = "marginal"
	FarmerTypeMedium   FarmerType = "medium"
	FarmerTypeLarge    FarmerType = "large"
	FarmerTypeTenant   FarmerType = "tenant"
)

var farmerTypes = map[FarmerType]bool{
	FarmerTypeSmall:    true,
	FarmerTypeMarginal: true,
	FarmerTypeMedium:   true,
	FarmerTypeLarge:    true,
	FarmerTypeTenant:   true,
}

const (
	LanguageEnglish = "en"
	LanguageTamil   = "ta"
)

// FarmerProfile is the matching input. It is treated as immutable.
type FarmerProfile struct {
	LandSizeAcres      float64  `json:"landSizeAcres"`
	FarmerType         string   `json:"farmerType"`
	District           string   `json:"district"`
	Crops              []string `json:"crops"`
	LanguagePreference string   `json:"languagePreference,omitempty"`
}

// UnmarshalJSON accepts landSize as an alias of landSizeAcres. When both
// are present landSizeAcres wins.
func (p *FarmerProfile) UnmarshalJSON(data []byte) error {
	type plain FarmerProfile
	var aux struct {
		plain
		LandSizeAcres *float64 `json:"landSizeAcres"`
		LandSize      *float64 `json:"landSize"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*p = FarmerProfile(aux.plain)
	switch {
	case aux.LandSizeAcres != nil:
		p.LandSizeAcres = *aux.LandSizeAcres
	case aux.LandSize != nil:
		p.LandSizeAcres = *aux.LandSize
	}
	return nil
}

// FieldError describes one invalid profile field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the fields a recommendation cannot be computed
// without. The evaluator itself never rejects a profile.
func (p FarmerProfile) Validate(strictDistricts bool) error {
	var errs []error

	if math.IsNaN(p.LandSizeAcres) || math.IsInf(p.LandSizeAcres, 0) || p.LandSizeAcres < 0 {
		errs = append(errs, FieldError{"landSizeAcres", "must be a finite number of acres, zero or more"})
	}

	switch ft := catalog.Normalize(p.FarmerType); {
	case ft == "":
		errs = append(errs, FieldError{"farmerType", "is required"})
	case !farmerTypes[FarmerType(ft)]:
		errs = append(errs, FieldError{"farmerType", fmt.Sprintf("unknown farmer type %q", p.FarmerType)})
	}

	if strings.TrimSpace(p.District) == "" {
		errs = append(errs, FieldError{"district", "is required"})
	} else if _, ok := catalog.CanonicalDistrict(p.District); strictDistricts && !ok {
		errs = append(errs, FieldError{"district", fmt.Sprintf("unknown district %q", p.District)})
	}

	return errors.Join(errs...)
}

// land treats unusable values as zero acres.
func (p FarmerProfile) land() float64 {
	if math.IsNaN(p.LandSizeAcres) || math.IsInf(p.LandSizeAcres, 0) {
		return 0
	}
	return p.LandSizeAcres
}

// cropSet returns the distinct normalized crops of the profile.
func (p FarmerProfile) cropSet() map[string]struct{} {
	set := make(map[string]struct{}, len(p.Crops))
	for _, c := range p.Crops {
		if key := catalog.Normalize(c); key != "" {
			set[key] = struct{}{}
		}
	}
	return set
}

// Normalized folds the profile into the form matching compares: trimmed
// lower-case farmer type, canonical district, and sorted distinct crops.
func (p FarmerProfile) Normalized() FarmerProfile {
	out := FarmerProfile{
		LandSizeAcres:      p.land(),
		FarmerType:         catalog.Normalize(p.FarmerType),
		District:           catalog.Normalize(p.District),
		LanguagePreference: catalog.Normalize(p.LanguagePreference),
	}
	if canonical, ok := catalog.CanonicalDistrict(p.District); ok {
		out.District = canonical
	}
	crops := make([]string, 0, len(p.Crops))
	for c := range p.cropSet() {
		crops = append(crops, c)
	}
	sort.Strings(crops)
	out.Crops = crops
	return out
}

// ResolveLanguage picks the reason language: the explicit request value,
// then the profile preference, then English.
func ResolveLanguage(requested string, p FarmerProfile) string {
	for _, lang := range []string{requested, p.LanguagePreference} {
		if l := catalog.Normalize(lang); l != "" {
			return l
		}
	}
	return LanguageEnglish
}
