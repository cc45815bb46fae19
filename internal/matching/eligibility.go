package matching

import (
	"github.com/agri-platform/subsidy-matcher/internal/catalog"
)

type Criterion string

const (
	CriterionLandSize   Criterion = "landSize"
	CriterionFarmerType Criterion = "farmerType"
	CriterionCrops      Criterion = "crops"
	CriterionDistrict   Criterion = "district"
)

// Criteria is the fixed evaluation and reporting order.
var Criteria = []Criterion{CriterionLandSize, CriterionFarmerType, CriterionCrops, CriterionDistrict}

type CriterionResult struct {
	Passed     bool `json:"passed"`
	Restricted bool `json:"restricted"`
	// Matched lists the subsidy crops the profile grows.
	Matched []string `json:"matched,omitempty"`
}

type Eligibility struct {
	Eligible     bool                          `json:"eligible"`
	PerCriterion map[Criterion]CriterionResult `json:"perCriterion"`
}

// Evaluate checks every criterion independently; the subsidy is eligible
// when all of them pass.
func Evaluate(profile FarmerProfile, s *catalog.Subsidy) Eligibility {
	rules := s.Eligibility
	per := make(map[Criterion]CriterionResult, len(Criteria))

	land := profile.land()
	per[CriterionLandSize] = CriterionResult{
		Passed:     land >= rules.MinLandSize && (rules.MaxLandSize == nil || land <= *rules.MaxLandSize),
		Restricted: rules.LandRestricted(),
	}

	per[CriterionFarmerType] = CriterionResult{
		Passed:     rules.FarmerType.Allows(profile.FarmerType),
		Restricted: rules.FarmerType.IsRestricted(),
	}

	crops := CriterionResult{Passed: true, Restricted: rules.Crops.IsRestricted()}
	if crops.Restricted {
		crops.Matched = matchedCrops(profile, rules.Crops)
		crops.Passed = len(crops.Matched) > 0
	}
	per[CriterionCrops] = crops

	per[CriterionDistrict] = CriterionResult{
		Passed:     rules.District.Allows(profile.District),
		Restricted: rules.District.IsRestricted(),
	}

	eligible := true
	for _, c := range Criteria {
		eligible = eligible && per[c].Passed
	}

	return Eligibility{Eligible: eligible, PerCriterion: per}
}

func matchedCrops(profile FarmerProfile, allowed catalog.Restriction) []string {
	grown := profile.cropSet()
	var matched []string
	for _, crop := range allowed.Values() {
		if _, ok := grown[catalog.Normalize(crop)]; ok {
			matched = append(matched, crop)
		}
	}
	return matched
}
