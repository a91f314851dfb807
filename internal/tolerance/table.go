package tolerance

import (
	"fmt"
	"math"

	apperrors "asvco2cli/internal/errors"
)

// Breakpoint is one (concentration, limit) pair in ppm.
type Breakpoint struct {
	Concentration float64 `yaml:"concentration"`
	Limit         float64 `yaml:"limit"`
}

// Table is an ordered breakpoint list with strictly increasing concentrations.
type Table struct {
	points []Breakpoint
}

// NewTable validates and copies points.
func NewTable(points []Breakpoint) (Table, error) {
	if len(points) < 2 {
		return Table{}, fmt.Errorf("tolerance table needs at least 2 breakpoints, got %d", len(points))
	}
	for i, p := range points {
		if math.IsNaN(p.Concentration) || math.IsInf(p.Concentration, 0) {
			return Table{}, fmt.Errorf("breakpoint %d has non-finite concentration", i)
		}
		if math.IsNaN(p.Limit) || p.Limit < 0 {
			return Table{}, fmt.Errorf("breakpoint %d has invalid limit %g", i, p.Limit)
		}
		if i > 0 && p.Concentration <= points[i-1].Concentration {
			return Table{}, fmt.Errorf("breakpoint %d concentration %g does not increase from %g",
				i, p.Concentration, points[i-1].Concentration)
		}
	}
	copied := make([]Breakpoint, len(points))
	copy(copied, points)
	return Table{points: copied}, nil
}

func mustTable(points ...Breakpoint) Table {
	t, err := NewTable(points)
	if err != nil {
		panic(err)
	}
	return t
}

// Breakpoints returns a copy of the table's breakpoints.
func (t Table) Breakpoints() []Breakpoint {
	out := make([]Breakpoint, len(t.points))
	copy(out, t.points)
	return out
}

// Domain returns the first and last breakpoint concentrations.
func (t Table) Domain() (float64, float64) {
	return t.points[0].Concentration, t.points[len(t.points)-1].Concentration
}

// Limit linearly interpolates the limit at concentration. A breakpoint
// concentration returns its own limit exactly.
func (t Table) Limit(concentration float64) (float64, error) {
	n := len(t.points)
	lo, hi := t.Domain()
	if math.IsNaN(concentration) || concentration < lo || concentration > hi {
		return 0, apperrors.NewOutOfRangeError(concentration, lo, hi)
	}

	lower := n - 1
	for lower > 0 && concentration < t.points[lower].Concentration {
		lower--
	}
	upper := lower
	for upper < n && concentration > t.points[upper].Concentration {
		upper++
	}
	if upper == lower {
		return t.points[lower].Limit, nil
	}

	p0, p1 := t.points[lower], t.points[upper]
	slope := (p1.Limit - p0.Limit) / (p1.Concentration - p0.Concentration)
	return slope*(concentration-p0.Concentration) + p0.Limit, nil
}

func bp(concentration, limit float64) Breakpoint {
	return Breakpoint{Concentration: concentration, Limit: limit}
}
