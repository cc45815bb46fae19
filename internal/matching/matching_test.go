package matching

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agri-platform/subsidy-matcher/internal/catalog"
)

func erodeFarmer() FarmerProfile {
	return FarmerProfile{
		LandSizeAcres: 2,
		FarmerType:    "small",
		District:      "Erode",
		Crops:         []string{"paddy"},
	}
}

func paddySubsidy(minLand float64) *catalog.Subsidy {
	return &catalog.Subsidy{
		ID:     "paddy-support",
		Name:   "Paddy Support",
		Amount: 10000,
		Eligibility: catalog.Eligibility{
			MinLandSize: minLand,
			FarmerType:  catalog.RestrictTo("small"),
			Crops:       catalog.RestrictTo("paddy", "millets"),
			District:    catalog.Unrestricted(),
		},
	}
}

func TestScenario_FullMatch(t *testing.T) {
	e := NewEngine()
	res := e.Match(erodeFarmer(), paddySubsidy(1), 0, LanguageEnglish)

	assert.True(t, res.Eligible)
	assert.Equal(t, 100.0, res.MatchPercentage)
	require.Len(t, res.Reasons, 3)
	assert.Contains(t, res.Reasons[0], "minimum land requirement")
	assert.Contains(t, res.Reasons[1], "small")
	assert.Contains(t, res.Reasons[2], "paddy")
	for _, r := range res.Reasons {
		assert.NotContains(t, r, "district")
	}
}

func TestScenario_BelowMinimumLand(t *testing.T) {
	e := NewEngine()
	res := e.Match(erodeFarmer(), paddySubsidy(5), 0, LanguageEnglish)

	assert.False(t, res.Eligible)
	assert.Less(t, res.ContributingFactors[CriterionLandSize].Score, 100.0)
	assert.Equal(t, 40.0, res.ContributingFactors[CriterionLandSize].Score)
	assert.Equal(t, 85.0, res.MatchPercentage)
	require.Len(t, res.Reasons, 2)
	for _, r := range res.Reasons {
		assert.NotContains(t, r, "land")
	}
}

func TestEvaluate_UnrestrictedAlwaysEligible(t *testing.T) {
	s := &catalog.Subsidy{ID: "open", Name: "Open"}
	profiles := []FarmerProfile{
		{},
		{LandSizeAcres: 500, FarmerType: "large", District: "Nowhere"},
		{LandSizeAcres: 0.1, FarmerType: "tenant", Crops: []string{"anything"}},
		{LandSizeAcres: math.NaN()},
	}

	for _, p := range profiles {
		elig := Evaluate(p, s)
		assert.True(t, elig.Eligible)
		for _, c := range Criteria {
			assert.True(t, elig.PerCriterion[c].Passed, c)
			assert.False(t, elig.PerCriterion[c].Restricted, c)
		}
		assert.Equal(t, 100.0, Score(p, s, elig))
		assert.Empty(t, Explain(p, s, elig.PerCriterion, LanguageEnglish))
	}
}

func TestEvaluate_CaseInsensitive(t *testing.T) {
	s := &catalog.Subsidy{
		ID: "x", Name: "x",
		Eligibility: catalog.Eligibility{
			FarmerType: catalog.RestrictTo("Small"),
			Crops:      catalog.RestrictTo("Paddy"),
			District:   catalog.RestrictTo("Thanjavur"),
		},
	}
	p := FarmerProfile{FarmerType: " SMALL ", District: "thanjavur", Crops: []string{"PADDY"}}

	elig := Evaluate(p, s)
	assert.True(t, elig.Eligible)
	assert.Equal(t, []string{"Paddy"}, elig.PerCriterion[CriterionCrops].Matched)
}

func TestEvaluate_LandBounds(t *testing.T) {
	s := &catalog.Subsidy{ID: "x", Name: "x", Eligibility: catalog.Eligibility{MinLandSize: 1, MaxLandSize: catalog.Float(5)}}

	tests := []struct {
		land     float64
		eligible bool
		score    float64
	}{
		{1, true, 100},
		{5, true, 100},
		{3, true, 100},
		{0.5, false, 50},
		{0, false, 0},
		{7.5, false, 50},
		{20, false, 0},
	}

	for _, tt := range tests {
		p := FarmerProfile{LandSizeAcres: tt.land}
		elig := Evaluate(p, s)
		assert.Equal(t, tt.eligible, elig.Eligible, "land %v", tt.land)
		assert.Equal(t, tt.score, landFit(tt.land, s.Eligibility), "land %v", tt.land)
	}
}

func TestLandFit_SmallBoundUsesUnitDivisor(t *testing.T) {
	e := catalog.Eligibility{MinLandSize: 0.5}
	assert.InDelta(t, 80.0, landFit(0.3, e), 1e-9)
}

func TestCropOverlap(t *testing.T) {
	allowed := catalog.RestrictTo("paddy", "millets", "sugarcane")

	assert.Equal(t, 100.0, cropOverlap(FarmerProfile{Crops: []string{"paddy"}}, allowed))
	assert.Equal(t, 50.0, cropOverlap(FarmerProfile{Crops: []string{"paddy", "banana"}}, allowed))
	assert.Equal(t, 0.0, cropOverlap(FarmerProfile{Crops: []string{"banana"}}, allowed))
	assert.Equal(t, 0.0, cropOverlap(FarmerProfile{}, allowed))
	assert.Equal(t, 100.0, cropOverlap(FarmerProfile{}, catalog.Unrestricted()))
	assert.Equal(t, 100.0, cropOverlap(FarmerProfile{Crops: []string{"Paddy", "paddy "}}, allowed))
}

func TestScore_AlwaysInRange(t *testing.T) {
	c := catalog.SeedCatalog()
	profiles := []FarmerProfile{
		{},
		erodeFarmer(),
		{LandSizeAcres: 1000, FarmerType: "large", District: "Chennai", Crops: []string{"banana", "coconut"}},
		{LandSizeAcres: 0.2, FarmerType: "marginal", District: "Thanjavur", Crops: []string{"paddy", "millets", "pulses"}},
	}

	for _, p := range profiles {
		for _, s := range c.All() {
			score := Score(p, s, Evaluate(p, s))
			assert.GreaterOrEqual(t, score, 0.0, s.ID)
			assert.LessOrEqual(t, score, 100.0, s.ID)
			assert.Equal(t, score, round2(score))
		}
	}
}

func TestScoreWith_CustomWeights(t *testing.T) {
	s := paddySubsidy(5)
	p := erodeFarmer()
	elig := Evaluate(p, s)

	onlyLand := ScoreWith(Weights{LandSize: 1}, p, s, elig)
	assert.Equal(t, 40.0, onlyLand.MatchPercentage)

	invalid := ScoreWith(Weights{LandSize: -1, Crops: 2}, p, s, elig)
	assert.Equal(t, 85.0, invalid.MatchPercentage)
	assert.Equal(t, 25.0, invalid.Factors[CriterionLandSize].Weight)
}

func TestReasons_FarmerTypeOnlyWhenMatched(t *testing.T) {
	s := &catalog.Subsidy{ID: "x", Name: "x", Eligibility: catalog.Eligibility{FarmerType: catalog.RestrictTo("small")}}

	small := FarmerProfile{FarmerType: "small"}
	reasons := Explain(small, s, Evaluate(small, s).PerCriterion, LanguageEnglish)
	require.Len(t, reasons, 1)
	assert.Equal(t, "Open to small farmers like you", reasons[0])

	large := FarmerProfile{FarmerType: "large"}
	assert.Empty(t, Explain(large, s, Evaluate(large, s).PerCriterion, LanguageEnglish))
}

func TestReasons_LandVariants(t *testing.T) {
	p := FarmerProfile{LandSizeAcres: 2.5}

	withMax := &catalog.Subsidy{Eligibility: catalog.Eligibility{MaxLandSize: catalog.Float(5)}}
	assert.Equal(t, []string{"Your 2.5 acres are within the maximum limit of 5 acres"},
		Explain(p, withMax, Evaluate(p, withMax).PerCriterion, LanguageEnglish))

	withRange := &catalog.Subsidy{Eligibility: catalog.Eligibility{MinLandSize: 1, MaxLandSize: catalog.Float(5)}}
	assert.Equal(t, []string{"Your 2.5 acres fall within the eligible range of 1 to 5 acres"},
		Explain(p, withRange, Evaluate(p, withRange).PerCriterion, LanguageEnglish))
}

func TestReasons_DistrictUsesCanonicalName(t *testing.T) {
	s := &catalog.Subsidy{Eligibility: catalog.Eligibility{District: catalog.RestrictTo("Thanjavur")}}
	p := FarmerProfile{District: "THANJAVUR"}

	assert.Equal(t, []string{"Available in your district, Thanjavur"},
		Explain(p, s, Evaluate(p, s).PerCriterion, LanguageEnglish))
}

func TestReasons_Tamil(t *testing.T) {
	p := erodeFarmer()
	s := paddySubsidy(1)

	ta := Explain(p, s, Evaluate(p, s).PerCriterion, LanguageTamil)
	require.Len(t, ta, 3)
	assert.Contains(t, ta[1], "சிறு")
	assert.Contains(t, ta[2], "paddy")

	unknown := Explain(p, s, Evaluate(p, s).PerCriterion, "fr")
	assert.Equal(t, Explain(p, s, Evaluate(p, s).PerCriterion, LanguageEnglish), unknown)
}

func TestEngine_MessageOverrides(t *testing.T) {
	e := NewEngine(WithMessages(map[string]map[string]string{
		"EN": {MsgFarmerType: "Made for {farmerType} growers"},
	}))
	s := &catalog.Subsidy{Eligibility: catalog.Eligibility{FarmerType: catalog.RestrictTo("small")}}

	res := e.Match(FarmerProfile{FarmerType: "small"}, s, 0, "en")
	assert.Equal(t, []string{"Made for small growers"}, res.Reasons)

	// the built-in dictionary is untouched
	assert.Equal(t, "Open to {farmerType} farmers like you", DefaultDictionary().Lookup("en", MsgFarmerType))
}

func TestRank_TieBreaks(t *testing.T) {
	a := &catalog.Subsidy{ID: "a", Amount: 100}
	b := &catalog.Subsidy{ID: "b", Amount: 500}
	c := &catalog.Subsidy{ID: "c", Amount: 500}
	d := &catalog.Subsidy{ID: "d", Amount: 1}

	results := []MatchResult{
		{Subsidy: a, MatchPercentage: 80, Position: 0},
		{Subsidy: c, MatchPercentage: 80, Position: 2},
		{Subsidy: b, MatchPercentage: 80, Position: 1},
		{Subsidy: d, MatchPercentage: 95, Position: 3},
	}
	Rank(results)

	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.Subsidy.ID
	}
	assert.Equal(t, []string{"d", "b", "c", "a"}, ids)
}

func TestMatchAll_SortedAndDeterministic(t *testing.T) {
	e := NewEngine()
	c := catalog.SeedCatalog()
	p := FarmerProfile{LandSizeAcres: 3, FarmerType: "small", District: "Thanjavur", Crops: []string{"paddy", "pulses"}}

	first := e.MatchAll(p, c, LanguageEnglish)
	second := e.MatchAll(p, c, LanguageEnglish)

	require.Len(t, first, c.Len())
	assert.Equal(t, first, second)
	for i := 0; i+1 < len(first); i++ {
		assert.GreaterOrEqual(t, first[i].MatchPercentage, first[i+1].MatchPercentage)
	}
}

func TestProfile_Validate(t *testing.T) {
	assert.NoError(t, erodeFarmer().Validate(true))

	tests := []struct {
		name    string
		profile FarmerProfile
		strict  bool
		field   string
	}{
		{"negative land", FarmerProfile{LandSizeAcres: -1, FarmerType: "small", District: "Erode"}, true, "landSizeAcres"},
		{"nan land", FarmerProfile{LandSizeAcres: math.NaN(), FarmerType: "small", District: "Erode"}, true, "landSizeAcres"},
		{"missing type", FarmerProfile{District: "Erode"}, true, "farmerType"},
		{"unknown type", FarmerProfile{FarmerType: "huge", District: "Erode"}, true, "farmerType"},
		{"missing district", FarmerProfile{FarmerType: "small"}, false, "district"},
		{"unknown district", FarmerProfile{FarmerType: "small", District: "Mysuru"}, true, "district"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.profile.Validate(tt.strict)
			require.Error(t, err)
			var fe FieldError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tt.field, fe.Field)
		})
	}

	lax := FarmerProfile{FarmerType: "small", District: "Mysuru"}
	assert.NoError(t, lax.Validate(false))
}

func TestProfile_UnmarshalLandSizeAlias(t *testing.T) {
	var p FarmerProfile
	require.NoError(t, json.Unmarshal([]byte(`{"landSize": 4, "farmerType": "small", "district": "Erode"}`), &p))
	assert.Equal(t, 4.0, p.LandSizeAcres)
	assert.Equal(t, "small", p.FarmerType)

	require.NoError(t, json.Unmarshal([]byte(`{"landSize": 4, "landSizeAcres": 6}`), &p))
	assert.Equal(t, 6.0, p.LandSizeAcres)
}

func TestProfile_Normalized(t *testing.T) {
	p := FarmerProfile{
		LandSizeAcres:      2.5,
		FarmerType:         " Small",
		District:           "  thanjavur ",
		Crops:              []string{"Sugarcane", " paddy", "PADDY", ""},
		LanguagePreference: "TA",
	}

	assert.Equal(t, FarmerProfile{
		LandSizeAcres:      2.5,
		FarmerType:         "small",
		District:           "Thanjavur",
		Crops:              []string{"paddy", "sugarcane"},
		LanguagePreference: "ta",
	}, p.Normalized())

	unknown := FarmerProfile{District: " Atlantis ", LandSizeAcres: math.NaN()}.Normalized()
	assert.Equal(t, "atlantis", unknown.District)
	assert.Zero(t, unknown.LandSizeAcres)
	assert.Empty(t, unknown.Crops)
}

func TestResolveLanguage(t *testing.T) {
	assert.Equal(t, "ta", ResolveLanguage("TA", FarmerProfile{}))
	assert.Equal(t, "ta", ResolveLanguage("", FarmerProfile{LanguagePreference: "ta"}))
	assert.Equal(t, "en", ResolveLanguage("", FarmerProfile{}))
}
