package reconcile

import (
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/grizzly-cli/internal/aggregate"
	"github.com/sells-group/grizzly-cli/internal/spatial"
)

// ErrLabelMismatch is returned when the label sets still differ after
// substitution and the policy is PolicyFail.
var ErrLabelMismatch = eris.New("reconcile: label sets differ after substitution")

// Substitution renames an aggregate label.
type Substitution struct {
	From string `yaml:"from" mapstructure:"from"`
	To   string `yaml:"to" mapstructure:"to"`
}

// DefaultSubstitutions are the known differences between the 2012 population
// estimates and the 2012 population unit layer.
func DefaultSubstitutions() []Substitution {
	return []Substitution{
		{From: "Central Purcells", To: "Central-South Purcells"},
		{From: "North Purcell", To: "North Purcells"},
	}
}

// Policy decides what happens when labels still differ after substitution.
type Policy string

const (
	// PolicyFail aborts with ErrLabelMismatch.
	PolicyFail Policy = "fail"
	// PolicyDrop drops aggregates with no polygon and leaves polygons with no
	// aggregate unmatched.
	PolicyDrop Policy = "drop"
)

// ParsePolicy validates a policy name. Empty means PolicyFail.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyFail:
		return PolicyFail, nil
	case PolicyDrop:
		return PolicyDrop, nil
	default:
		return "", eris.Errorf("reconcile: unknown mismatch policy %q (want fail or drop)", s)
	}
}

// Result is the outcome of Reconcile.
type Result struct {
	Units       []aggregate.Unit
	Before      Diff
	After       Diff
	Substituted int
}

// AggregateLabels returns the normalized labels of units.
func AggregateLabels(units []aggregate.Unit) LabelSet {
	labels := make([]string, len(units))
	for i, u := range units {
		labels[i] = u.GBPU
	}
	return NewLabelSet(labels)
}

// SpatialLabels returns the normalized values of field across features.
func SpatialLabels(features []spatial.Feature, field string) LabelSet {
	labels := make([]string, len(features))
	for i, f := range features {
		labels[i] = f.Attr(field)
	}
	return NewLabelSet(labels)
}

// Apply returns a copy of units with labels normalized and substitutions
// applied. It fails if two units end up with the same label, whether through
// normalization or through substitutions onto one target.
func Apply(units []aggregate.Unit, subs []Substitution) ([]aggregate.Unit, int, error) {
	lookup := make(map[string]string, len(subs))
	for _, s := range subs {
		lookup[Normalize(s.From)] = Normalize(s.To)
	}

	out := make([]aggregate.Unit, len(units))
	source := make(map[string]string, len(units))
	used := make(map[string]bool, len(subs))
	var n int
	for i, u := range units {
		raw := u.GBPU
		u.GBPU = Normalize(u.GBPU)
		if to, ok := lookup[u.GBPU]; ok && to != u.GBPU {
			used[u.GBPU] = true
			u.GBPU = to
			n++
		}
		if prev, ok := source[u.GBPU]; ok {
			return nil, 0, eris.Errorf("reconcile: %q collides with %q as %q", raw, prev, u.GBPU)
		}
		source[u.GBPU] = raw
		out[i] = u
	}

	for from := range lookup {
		if !used[from] {
			zap.L().Debug("reconcile: substitution not applied", zap.String("from", from))
		}
	}
	return out, n, nil
}

// Reconcile applies subs to the unit labels and checks that they then match
// the labels of the features' nameField as sets.
func Reconcile(units []aggregate.Unit, features []spatial.Feature, nameField string, subs []Substitution, policy Policy) (*Result, error) {
	mapLabels := SpatialLabels(features, nameField)
	res := &Result{Before: SymmetricDifference(AggregateLabels(units), mapLabels)}

	renamed, n, err := Apply(units, subs)
	if err != nil {
		return nil, err
	}
	res.Substituted = n
	res.After = SymmetricDifference(AggregateLabels(renamed), mapLabels)

	log := zap.L().With(zap.String("component", "reconcile"))
	log.Info("labels compared",
		zap.Int("mismatched_before", len(res.Before.OnlyAggregate)+len(res.Before.OnlySpatial)),
		zap.Int("substituted", n),
		zap.Int("mismatched_after", len(res.After.OnlyAggregate)+len(res.After.OnlySpatial)),
	)

	if res.After.Empty() {
		res.Units = renamed
		return res, nil
	}

	switch policy {
	case PolicyDrop:
		log.Warn("label mismatch, dropping unmatched units",
			zap.Strings("only_aggregate", res.After.OnlyAggregate),
			zap.Strings("only_spatial", res.After.OnlySpatial),
		)
		kept := renamed[:0:0]
		for _, u := range renamed {
			if mapLabels.Has(u.GBPU) {
				kept = append(kept, u)
			}
		}
		res.Units = kept
		return res, nil
	default:
		return res, eris.Wrapf(ErrLabelMismatch, "only in estimates: %s; only on map: %s",
			strings.Join(res.After.OnlyAggregate, ", "),
			strings.Join(res.After.OnlySpatial, ", "),
		)
	}
}
