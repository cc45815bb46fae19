package matching

import (
	"math"

	"github.com/agri-platform/subsidy-matcher/internal/catalog"
)

// Weights are the relative contribution of each criterion to the match
// percentage. They need not sum to 100.
type Weights struct {
	LandSize   float64 `json:"landSize" mapstructure:"land_size"`
	FarmerType float64 `json:"farmerType" mapstructure:"farmer_type"`
	Crops      float64 `json:"crops" mapstructure:"crops"`
	District   float64 `json:"district" mapstructure:"district"`
}

func DefaultWeights() Weights {
	return Weights{LandSize: 25, FarmerType: 25, Crops: 30, District: 20}
}

func (w Weights) of(c Criterion) float64 {
	switch c {
	case CriterionLandSize:
		return w.LandSize
	case CriterionFarmerType:
		return w.FarmerType
	case CriterionCrops:
		return w.Crops
	case CriterionDistrict:
		return w.District
	}
	return 0
}

func (w Weights) total() float64 {
	return w.LandSize + w.FarmerType + w.Crops + w.District
}

// Valid reports whether w can be used for scoring.
func (w Weights) Valid() bool {
	for _, c := range Criteria {
		v := w.of(c)
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return w.total() > 0
}

// Factor is one criterion's share of the final score.
type Factor struct {
	Passed     bool    `json:"passed"`
	Restricted bool    `json:"restricted"`
	Score      float64 `json:"score"`
	Weight     float64 `json:"weight"`
}

// Scoring is the outcome of scoring one subsidy.
type Scoring struct {
	MatchPercentage float64
	Factors         map[Criterion]Factor
}

// Score computes the weighted match percentage with the default weights.
func Score(profile FarmerProfile, s *catalog.Subsidy, elig Eligibility) float64 {
	return ScoreWith(DefaultWeights(), profile, s, elig).MatchPercentage
}

// ScoreWith computes the weighted match percentage in [0, 100], rounded to
// two decimals. Invalid weights fall back to the defaults.
func ScoreWith(w Weights, profile FarmerProfile, s *catalog.Subsidy, elig Eligibility) Scoring {
	if !w.Valid() {
		w = DefaultWeights()
	}

	factors := make(map[Criterion]Factor, len(Criteria))
	var weighted float64
	for _, c := range Criteria {
		res := elig.PerCriterion[c]
		sub := subScore(c, profile, s, res)
		factors[c] = Factor{
			Passed:     res.Passed,
			Restricted: res.Restricted,
			Score:      round2(sub),
			Weight:     w.of(c),
		}
		weighted += sub * w.of(c)
	}

	return Scoring{
		MatchPercentage: round2(clamp(weighted/w.total(), 0, 100)),
		Factors:         factors,
	}
}

func subScore(c Criterion, profile FarmerProfile, s *catalog.Subsidy, res CriterionResult) float64 {
	switch c {
	case CriterionLandSize:
		return landFit(profile.land(), s.Eligibility)
	case CriterionCrops:
		return cropOverlap(profile, s.Eligibility.Crops)
	default:
		if res.Passed {
			return 100
		}
		return 0
	}
}

// landFit is 100 inside the bound and decays linearly with the distance to
// the violated bound, relative to that bound.
func landFit(land float64, e catalog.Eligibility) float64 {
	var distance, bound float64
	switch {
	case land < e.MinLandSize:
		distance, bound = e.MinLandSize-land, e.MinLandSize
	case e.MaxLandSize != nil && land > *e.MaxLandSize:
		distance, bound = land-*e.MaxLandSize, *e.MaxLandSize
	default:
		return 100
	}
	return math.Max(0, 100*(1-distance/math.Max(bound, 1)))
}

// cropOverlap is the share of the smaller crop set covered by the overlap.
func cropOverlap(profile FarmerProfile, allowed catalog.Restriction) float64 {
	if !allowed.IsRestricted() {
		return 100
	}
	grown := profile.cropSet()
	if len(grown) == 0 || allowed.Len() == 0 {
		return 0
	}

	overlap := 0
	for key := range grown {
		if allowed.Contains(key) {
			overlap++
		}
	}
	return 100 * float64(overlap) / float64(min(len(grown), allowed.Len()))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
