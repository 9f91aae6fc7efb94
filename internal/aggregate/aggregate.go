// Package aggregate rolls population estimates up to population units.
package aggregate

import (
	"slices"
	"strings"

	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/floats"

	"github.com/sells-group/grizzly-cli/internal/label"
	"github.com/sells-group/grizzly-cli/internal/table"
	"github.com/sells-group/grizzly-cli/internal/tidy"
)

// DensityScale converts bears per square kilometre to bears per 1000 km².
const DensityScale = 1000

// Options names the columns ByUnit reads.
type Options struct {
	GroupColumn    string  // default "GBPU"
	EstimateColumn string  // default "Estimate"
	AreaColumn     string  // default "Total_Area"
	Scale          float64 // default DensityScale
}

// Unit is the aggregate for one population unit. Density is not finite when
// TotalArea is zero.
type Unit struct {
	GBPU      string
	Estimate  float64
	TotalArea float64
	Density   float64
}

func (o *Options) defaults() {
	if o.GroupColumn == "" {
		o.GroupColumn = "GBPU"
	}
	if o.EstimateColumn == "" {
		o.EstimateColumn = "Estimate"
	}
	if o.AreaColumn == "" {
		o.AreaColumn = "Total_Area"
	}
	if o.Scale == 0 {
		o.Scale = DensityScale
	}
}

// ByUnit groups rows by the normalized group label and sums estimates and
// areas. Values that do not parse count as zero. Units are returned sorted by name.
func ByUnit(t *table.Table, opts Options) ([]Unit, error) {
	opts.defaults()

	groups, err := t.Column(opts.GroupColumn)
	if err != nil {
		return nil, eris.Wrap(err, "aggregate: group column")
	}
	estimates, err := t.Column(opts.EstimateColumn)
	if err != nil {
		return nil, eris.Wrap(err, "aggregate: estimate column")
	}
	areas, err := t.Column(opts.AreaColumn)
	if err != nil {
		return nil, eris.Wrap(err, "aggregate: area column")
	}

	type acc struct {
		estimates []float64
		areas     []float64
	}
	byName := make(map[string]*acc)
	for i, raw := range groups {
		g := label.Normalize(raw)
		a, ok := byName[g]
		if !ok {
			a = &acc{}
			byName[g] = a
		}
		a.estimates = append(a.estimates, tidy.ParseNumber(estimates[i]).OrZero())
		a.areas = append(a.areas, tidy.ParseNumber(areas[i]).OrZero())
	}

	units := make([]Unit, 0, len(byName))
	for name, a := range byName {
		// sorted so the sums do not depend on row order
		slices.Sort(a.estimates)
		slices.Sort(a.areas)
		est := floats.Sum(a.estimates)
		area := floats.Sum(a.areas)
		units = append(units, Unit{
			GBPU:      name,
			Estimate:  est,
			TotalArea: area,
			Density:   est / area * opts.Scale,
		})
	}
	slices.SortFunc(units, func(a, b Unit) int { return strings.Compare(a.GBPU, b.GBPU) })

	return units, nil
}

// Find returns the unit with the given name.
func Find(units []Unit, name string) (Unit, bool) {
	i := slices.IndexFunc(units, func(u Unit) bool { return u.GBPU == name })
	if i < 0 {
		return Unit{}, false
	}
	return units[i], true
}
