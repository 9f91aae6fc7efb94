// Package reconcile aligns population unit names between the aggregated
// estimates and the polygon layer so the two can be joined.
package reconcile

import (
	"slices"

	"github.com/sells-group/grizzly-cli/internal/label"
)

// Normalize puts a label in canonical form. See label.Normalize.
func Normalize(l string) string { return label.Normalize(l) }

// IsMissing reports whether a label counts as absent.
func IsMissing(l string) bool { return label.IsMissing(l) }

// LabelSet is a set of normalized labels.
type LabelSet map[string]struct{}

// NewLabelSet normalizes labels into a set, dropping missing ones.
func NewLabelSet(labels []string) LabelSet {
	s := make(LabelSet, len(labels))
	for _, l := range labels {
		if IsMissing(l) {
			continue
		}
		s[Normalize(l)] = struct{}{}
	}
	return s
}

// Has reports whether label (after normalization) is in the set.
func (s LabelSet) Has(label string) bool {
	_, ok := s[Normalize(label)]
	return ok
}

// Equal reports set equality.
func (s LabelSet) Equal(o LabelSet) bool {
	if len(s) != len(o) {
		return false
	}
	for l := range s {
		if _, ok := o[l]; !ok {
			return false
		}
	}
	return true
}

// Sorted returns the labels in ascending order.
func (s LabelSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for l := range s {
		out = append(out, l)
	}
	slices.Sort(out)
	return out
}

// Diff is the symmetric difference of two label sets.
type Diff struct {
	OnlyAggregate []string // in the estimates, not on the map
	OnlySpatial   []string // on the map, not in the estimates
}

// Empty reports whether the sets were equal.
func (d Diff) Empty() bool {
	return len(d.OnlyAggregate) == 0 && len(d.OnlySpatial) == 0
}

// SymmetricDifference compares aggregate labels against spatial labels.
func SymmetricDifference(aggregate, spatial LabelSet) Diff {
	var d Diff
	for l := range aggregate {
		if _, ok := spatial[l]; !ok {
			d.OnlyAggregate = append(d.OnlyAggregate, l)
		}
	}
	for l := range spatial {
		if _, ok := aggregate[l]; !ok {
			d.OnlySpatial = append(d.OnlySpatial, l)
		}
	}
	slices.Sort(d.OnlyAggregate)
	slices.Sort(d.OnlySpatial)
	return d
}
