// Package catalog holds the subsidy registry. A Catalog is built once at
// startup and never mutated, so it is safe for concurrent readers.
package catalog

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var ErrNotFound = errors.New("subsidy not found")

type Catalog struct {
	subsidies []*Subsidy
	byID      map[string]int
}

// New validates and copies subsidies into an immutable catalog. The input
// order becomes the catalog order used for tie-breaking.
func New(subsidies []Subsidy) (*Catalog, error) {
	c := &Catalog{
		subsidies: make([]*Subsidy, 0, len(subsidies)),
		byID:      make(map[string]int, len(subsidies)),
	}

	var errs []error
	for i, s := range subsidies {
		if err := validate(s); err != nil {
			errs = append(errs, fmt.Errorf("subsidy[%d] %q: %w", i, s.ID, err))
			continue
		}
		if _, dup := c.byID[s.ID]; dup {
			errs = append(errs, fmt.Errorf("subsidy[%d]: duplicate id %q", i, s.ID))
			continue
		}
		copied := s.clone()
		c.byID[s.ID] = len(c.subsidies)
		c.subsidies = append(c.subsidies, &copied)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid catalog: %w", errors.Join(errs...))
	}

	return c, nil
}

// Empty returns a catalog with no subsidies.
func Empty() *Catalog {
	return &Catalog{byID: map[string]int{}}
}

func validate(s Subsidy) error {
	if strings.TrimSpace(s.ID) == "" {
		return errors.New("id is required")
	}
	if strings.TrimSpace(s.Name) == "" {
		return errors.New("name is required")
	}
	if s.Amount < 0 || math.IsNaN(s.Amount) || math.IsInf(s.Amount, 0) {
		return errors.New("amount must be a finite non-negative number")
	}

	e := s.Eligibility
	if e.MinLandSize < 0 || math.IsNaN(e.MinLandSize) {
		return errors.New("minLandSize must be non-negative")
	}
	if e.MaxLandSize != nil && (math.IsNaN(*e.MaxLandSize) || *e.MaxLandSize < e.MinLandSize) {
		return errors.New("maxLandSize must not be below minLandSize")
	}
	rules := []struct {
		name string
		r    Restriction
	}{
		{"farmerType", e.FarmerType},
		{"crops", e.Crops},
		{"district", e.District},
	}
	for _, rule := range rules {
		if rule.r.IsRestricted() && rule.r.Len() == 0 {
			return fmt.Errorf("%s restriction lists no values; use \"all\" for unrestricted", rule.name)
		}
	}
	return nil
}

func (c *Catalog) Len() int {
	return len(c.subsidies)
}

// All returns the subsidies in catalog order. The slice is a copy; the
// subsidies themselves are shared and must be treated as read-only.
func (c *Catalog) All() []*Subsidy {
	out := make([]*Subsidy, len(c.subsidies))
	copy(out, c.subsidies)
	return out
}

func (c *Catalog) Get(id string) (*Subsidy, error) {
	i, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return c.subsidies[i], nil
}

// Position is the catalog insertion index of id, or -1.
func (c *Catalog) Position(id string) int {
	if i, ok := c.byID[id]; ok {
		return i
	}
	return -1
}

func (c *Catalog) ByCategory(category Category) []*Subsidy {
	var out []*Subsidy
	for _, s := range c.subsidies {
		if strings.EqualFold(string(s.Category), string(category)) {
			out = append(out, s)
		}
	}
	return out
}

// Categories lists distinct categories in first-seen order.
func (c *Catalog) Categories() []Category {
	seen := map[Category]bool{}
	var out []Category
	for _, s := range c.subsidies {
		if !seen[s.Category] {
			seen[s.Category] = true
			out = append(out, s.Category)
		}
	}
	return out
}
