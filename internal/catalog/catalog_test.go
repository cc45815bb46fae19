package catalog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRestriction_ZeroValueIsUnrestricted(t *testing.T) {
	var r Restriction
	assert.False(t, r.IsRestricted())
	assert.True(t, r.Allows("anything"))
	assert.Nil(t, r.Values())
	assert.Equal(t, "all", r.String())
}

func TestRestrictTo_NormalizesAndDedupes(t *testing.T) {
	r := RestrictTo("Paddy", " paddy ", "Millets", "")

	assert.True(t, r.IsRestricted())
	assert.Equal(t, []string{"Paddy", "Millets"}, r.Values())
	assert.True(t, r.Allows("PADDY"))
	assert.True(t, r.Contains("millets"))
	assert.False(t, r.Allows("banana"))
}

func TestRestrictTo_EmptyMatchesNothing(t *testing.T) {
	r := RestrictTo()
	assert.True(t, r.IsRestricted())
	assert.False(t, r.Allows("small"))
}

func TestRestriction_JSON(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		restricted bool
		values     []string
		output     string
	}{
		{"all string", `"all"`, false, nil, `"all"`},
		{"all any case", `"ALL"`, false, nil, `"all"`},
		{"null", `null`, false, nil, `"all"`},
		{"list", `["small","marginal"]`, true, []string{"small", "marginal"}, `["small","marginal"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r Restriction
			require.NoError(t, json.Unmarshal([]byte(tt.input), &r))
			assert.Equal(t, tt.restricted, r.IsRestricted())
			assert.Equal(t, tt.values, r.Values())

			out, err := json.Marshal(r)
			require.NoError(t, err)
			assert.JSONEq(t, tt.output, string(out))
		})
	}
}

func TestRestriction_JSONRejectsOtherStrings(t *testing.T) {
	var r Restriction
	assert.Error(t, json.Unmarshal([]byte(`"small"`), &r))
	assert.Error(t, json.Unmarshal([]byte(`12`), &r))
}

func TestEligibility_MissingFieldsDefaultToUnrestricted(t *testing.T) {
	var e Eligibility
	require.NoError(t, json.Unmarshal([]byte(`{"minLandSize": 1}`), &e))

	assert.False(t, e.FarmerType.IsRestricted())
	assert.False(t, e.Crops.IsRestricted())
	assert.False(t, e.District.IsRestricted())
	assert.Nil(t, e.MaxLandSize)
	assert.True(t, e.LandRestricted())
}

func TestNew_PreservesOrderAndLooksUp(t *testing.T) {
	c, err := New([]Subsidy{
		{ID: "b", Name: "B", Category: CategoryCredit},
		{ID: "a", Name: "A", Category: CategoryEnergy},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, c.Len())
	assert.Equal(t, "b", c.All()[0].ID)
	assert.Equal(t, 1, c.Position("a"))
	assert.Equal(t, -1, c.Position("zzz"))

	s, err := c.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "A", s.Name)

	_, err = c.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNew_CopiesInput(t *testing.T) {
	input := []Subsidy{{ID: "a", Name: "A", Documents: []string{"Aadhaar Card"}}}
	c, err := New(input)
	require.NoError(t, err)

	input[0].Documents[0] = "changed"
	input[0].Name = "changed"

	s, _ := c.Get("a")
	assert.Equal(t, "A", s.Name)
	assert.Equal(t, []string{"Aadhaar Card"}, s.Documents)
}

func TestNew_RejectsInvalidSubsidies(t *testing.T) {
	tests := []struct {
		name    string
		subsidy []Subsidy
	}{
		{"missing id", []Subsidy{{Name: "x"}}},
		{"missing name", []Subsidy{{ID: "x"}}},
		{"negative amount", []Subsidy{{ID: "x", Name: "x", Amount: -1}}},
		{"max below min", []Subsidy{{ID: "x", Name: "x", Eligibility: Eligibility{MinLandSize: 5, MaxLandSize: Float(2)}}}},
		{"empty restriction", []Subsidy{{ID: "x", Name: "x", Eligibility: Eligibility{Crops: RestrictTo()}}}},
		{"duplicate id", []Subsidy{{ID: "x", Name: "x"}, {ID: "x", Name: "y"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.subsidy)
			assert.Error(t, err)
		})
	}
}

func TestSeedCatalog(t *testing.T) {
	c := SeedCatalog()
	assert.Equal(t, len(Seed()), c.Len())

	for _, s := range c.All() {
		assert.NotEmpty(t, s.DisplayName("ta"), s.ID)
		assert.NotEqual(t, s.Name, s.DisplayName("ta"), s.ID)
		for _, d := range s.Eligibility.District.Values() {
			_, ok := CanonicalDistrict(d)
			assert.True(t, ok, "unknown district %q in %s", d, s.ID)
		}
	}

	assert.NotEmpty(t, c.ByCategory(CategoryIrrigation))
	assert.Contains(t, c.Categories(), CategoryDirectIncomeSupport)
}

func TestDisplayName_FallsBackToName(t *testing.T) {
	s := &Subsidy{Name: "PM-KISAN", Description: "Income support"}
	assert.Equal(t, "PM-KISAN", s.DisplayName("ta"))
	assert.Equal(t, "Income support", s.DisplayDescription("fr"))
}

func TestCanonicalDistrict(t *testing.T) {
	d, ok := CanonicalDistrict("  erode ")
	assert.True(t, ok)
	assert.Equal(t, "Erode", d)

	_, ok = CanonicalDistrict("Bengaluru")
	assert.False(t, ok)
	assert.Len(t, Districts(), 38)
}

func TestParse_ValidFile(t *testing.T) {
	data := `[
	  {
	    "id": "drip",
	    "name": "Drip Irrigation",
	    "category": "Irrigation",
	    "amount": 50000,
	    "eligibility": {"minLandSize": 1, "farmerType": ["small"], "crops": "all"},
	    "documents": ["Aadhaar Card"]
	  }
	]`

	c, err := Parse([]byte(data))
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())

	s := c.All()[0]
	assert.True(t, s.Eligibility.FarmerType.IsRestricted())
	assert.False(t, s.Eligibility.Crops.IsRestricted())
	assert.False(t, s.Eligibility.District.IsRestricted())
}

func TestParse_RejectsSchemaViolations(t *testing.T) {
	tests := map[string]string{
		"not an array":      `{"id": "x"}`,
		"missing amount":    `[{"id": "x", "name": "x", "category": "Credit"}]`,
		"empty restriction": `[{"id": "x", "name": "x", "category": "Credit", "amount": 1, "eligibility": {"crops": []}}]`,
		"bad restriction":   `[{"id": "x", "name": "x", "category": "Credit", "amount": 1, "eligibility": {"crops": "paddy"}}]`,
	}

	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(data))
			assert.Error(t, err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	data, err := json.Marshal(Seed())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	c, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, len(Seed()), c.Len())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
