package matching

import (
	"strconv"
	"strings"

	"github.com/agri-platform/subsidy-matcher/internal/catalog"
)

// Explain returns one reason per restricted criterion the profile passes,
// in land, farmer type, crops, district order, using the built-in
// messages. Unrestricted and failed criteria produce nothing.
func Explain(profile FarmerProfile, s *catalog.Subsidy, per map[Criterion]CriterionResult, language string) []string {
	return defaultMessages.Explain(profile, s, per, language)
}

// Explain is the package Explain with d as the message source.
func (d Dictionary) Explain(profile FarmerProfile, s *catalog.Subsidy, per map[Criterion]CriterionResult, language string) []string {
	reasons := []string{}
	rules := s.Eligibility

	for _, c := range Criteria {
		res := per[c]
		if !res.Passed || !res.Restricted {
			continue
		}

		switch c {
		case CriterionLandSize:
			vars := map[string]string{
				"land": formatAcres(profile.land()),
				"min":  formatAcres(rules.MinLandSize),
			}
			key := MsgLandMin
			if rules.MaxLandSize != nil {
				vars["max"] = formatAcres(*rules.MaxLandSize)
				key = MsgLandMax
				if rules.MinLandSize > 0 {
					key = MsgLandRange
				}
			}
			reasons = append(reasons, d.format(language, key, vars))

		case CriterionFarmerType:
			ft := catalog.Normalize(profile.FarmerType)
			reasons = append(reasons, d.format(language, MsgFarmerType, map[string]string{
				"farmerType": d.Lookup(language, msgFarmerLabel+ft),
			}))

		case CriterionCrops:
			reasons = append(reasons, d.format(language, MsgCrops, map[string]string{
				"crops": strings.Join(res.Matched, ", "),
			}))

		case CriterionDistrict:
			district := strings.TrimSpace(profile.District)
			if canonical, ok := catalog.CanonicalDistrict(district); ok {
				district = canonical
			}
			reasons = append(reasons, d.format(language, MsgDistrict, map[string]string{
				"district": district,
			}))
		}
	}

	return reasons
}

func formatAcres(v float64) string {
	return strconv.FormatFloat(round2(v), 'f', -1, 64)
}
