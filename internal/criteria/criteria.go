// Package criteria defines the immutable scoring profiles. A profile is
// validated once at load and then passed by reference to every scoring call.
package criteria

import (
	"fmt"
	"time"
)

// Profile is a named bundle of thresholds driving the scorer.
type Profile struct {
	Name string `yaml:"name" json:"name"`

	// Budget bounds in yen/month. Sweet spot must sit inside the budget.
	BudgetMin      int `yaml:"budget_min" json:"budget_min"`
	BudgetMax      int `yaml:"budget_max" json:"budget_max"`
	BudgetSweetMin int `yaml:"budget_sweet_min" json:"budget_sweet_min"`
	BudgetSweetMax int `yaml:"budget_sweet_max" json:"budget_sweet_max"`

	// Ordered by preference.
	PreferredLayouts []string `yaml:"preferred_layouts" json:"preferred_layouts"`

	MaxWalkToStopMin   int `yaml:"max_walk_to_stop_min" json:"max_walk_to_stop_min"`
	IdealWalkToStopMin int `yaml:"ideal_walk_to_stop_min" json:"ideal_walk_to_stop_min"`

	MoveInStart *time.Time `yaml:"move_in_start" json:"move_in_start,omitempty"`
	MoveInEnd   *time.Time `yaml:"move_in_end" json:"move_in_end,omitempty"`

	FamilySize    int  `yaml:"family_size" json:"family_size"`
	ParkingNeeded bool `yaml:"parking_needed" json:"parking_needed"`
}

// Validate checks the profile invariants. Invalid profiles must refuse
// startup.
func (p *Profile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("criteria: profile has no name")
	}
	if p.BudgetMin < 0 || p.BudgetMax < p.BudgetMin {
		return fmt.Errorf("criteria %s: budget bounds out of order (%d, %d)", p.Name, p.BudgetMin, p.BudgetMax)
	}
	if p.BudgetSweetMin < p.BudgetMin || p.BudgetSweetMax < p.BudgetSweetMin || p.BudgetSweetMax > p.BudgetMax {
		return fmt.Errorf("criteria %s: sweet spot (%d, %d) must sit inside budget (%d, %d)",
			p.Name, p.BudgetSweetMin, p.BudgetSweetMax, p.BudgetMin, p.BudgetMax)
	}
	if len(p.PreferredLayouts) == 0 {
		return fmt.Errorf("criteria %s: preferred_layouts is empty", p.Name)
	}
	if p.IdealWalkToStopMin > p.MaxWalkToStopMin {
		return fmt.Errorf("criteria %s: ideal walk %d exceeds max walk %d", p.Name, p.IdealWalkToStopMin, p.MaxWalkToStopMin)
	}
	if p.MoveInStart != nil && p.MoveInEnd != nil && p.MoveInEnd.Before(*p.MoveInStart) {
		return fmt.Errorf("criteria %s: move-in window end precedes start", p.Name)
	}
	return nil
}

// Registry is a small map of named immutable profiles.
type Registry struct {
	profiles map[string]*Profile
}

// NewRegistry validates every profile and rejects the whole set on the first
// invalid one.
func NewRegistry(profiles ...*Profile) (*Registry, error) {
	r := &Registry{profiles: make(map[string]*Profile, len(profiles))}
	for _, p := range profiles {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, dup := r.profiles[p.Name]; dup {
			return nil, fmt.Errorf("criteria: duplicate profile %q", p.Name)
		}
		r.profiles[p.Name] = p
	}
	return r, nil
}

// Get returns the profile with the given name.
func (r *Registry) Get(name string) (*Profile, error) {
	p, ok := r.profiles[name]
	if !ok {
		return nil, fmt.Errorf("criteria: unknown profile %q", name)
	}
	return p, nil
}

// Names lists registered profile names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.profiles))
	for name := range r.profiles {
		names = append(names, name)
	}
	return names
}

// FamilyProfile is the shipped profile for a family of four relocating for
// the 2025/26 school year.
func FamilyProfile() *Profile {
	moveInStart := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	moveInEnd := time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)

	return &Profile{
		Name:               "family",
		BudgetMin:          250000,
		BudgetMax:          350000,
		BudgetSweetMin:     250000,
		BudgetSweetMax:     350000,
		PreferredLayouts:   []string{"3LDK", "2LDK"},
		MaxWalkToStopMin:   15,
		IdealWalkToStopMin: 8,
		MoveInStart:        &moveInStart,
		MoveInEnd:          &moveInEnd,
		FamilySize:         4,
		ParkingNeeded:      true,
	}
}

// DefaultRegistry returns the registry shipped with the binary.
func DefaultRegistry() (*Registry, error) {
	return NewRegistry(FamilyProfile())
}
