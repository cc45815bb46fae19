package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

const allValues = "all"

// Restriction is either unrestricted or restricted to an explicit set of
// values. The zero value is unrestricted.
type Restriction struct {
	restricted bool
	values     []string
	set        map[string]struct{}
}

func Unrestricted() Restriction {
	return Restriction{}
}

// RestrictTo builds a restricted rule. Comparison is case-insensitive and
// ignores surrounding whitespace; duplicates collapse. Calling it with no
// values yields a rule nothing satisfies, which catalog validation rejects.
func RestrictTo(values ...string) Restriction {
	r := Restriction{
		restricted: true,
		values:     make([]string, 0, len(values)),
		set:        make(map[string]struct{}, len(values)),
	}
	for _, v := range values {
		key := Normalize(v)
		if key == "" {
			continue
		}
		if _, dup := r.set[key]; dup {
			continue
		}
		r.set[key] = struct{}{}
		r.values = append(r.values, strings.TrimSpace(v))
	}
	return r
}

func (r Restriction) IsRestricted() bool {
	return r.restricted
}

// Values returns the allowed values in declaration order, nil when
// unrestricted.
func (r Restriction) Values() []string {
	if !r.restricted {
		return nil
	}
	out := make([]string, len(r.values))
	copy(out, r.values)
	return out
}

func (r Restriction) Len() int {
	return len(r.values)
}

func (r Restriction) Allows(value string) bool {
	if !r.restricted {
		return true
	}
	_, ok := r.set[Normalize(value)]
	return ok
}

// Contains reports membership of an already-normalized key.
func (r Restriction) Contains(key string) bool {
	_, ok := r.set[key]
	return ok
}

func (r Restriction) String() string {
	if !r.restricted {
		return allValues
	}
	return strings.Join(r.values, ", ")
}

func (r Restriction) MarshalJSON() ([]byte, error) {
	if !r.restricted {
		return json.Marshal(allValues)
	}
	return json.Marshal(r.values)
}

func (r *Restriction) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = Unrestricted()
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if Normalize(s) != allValues {
			return fmt.Errorf("restriction must be %q or a list, got %q", allValues, s)
		}
		*r = Unrestricted()
	case '[':
		var values []string
		if err := json.Unmarshal(data, &values); err != nil {
			return err
		}
		*r = RestrictTo(values...)
	default:
		return fmt.Errorf("restriction must be %q or a list of strings", allValues)
	}
	return nil
}

// Normalize is the comparison key used for farmer types, crops and
// districts.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
