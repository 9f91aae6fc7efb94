package tidy

import (
	"regexp"
	"slices"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/grizzly-cli/internal/table"
)

// MortalityOptions configures CleanMortality.
type MortalityOptions struct {
	UnusedPattern *regexp.Regexp
	AgeColumn     string // default "AGE_CLASS"
	AgeSeparator  string // default "-"
}

// MortalityRecord is one cleaned mortality row.
type MortalityRecord struct {
	Fields     map[string]string
	MinimumAge Number
	MaximumAge Number
}

// Mortality is the cleaned mortality dataset. Columns lists the text fields
// kept in each record, in source order.
type Mortality struct {
	Columns []string
	Records []MortalityRecord
}

// SplitAgeClass splits an age class such as "5-10" on the first separator
// into minimum and maximum ages. Further separators stay with the maximum
// part. Without a separator the whole string is the minimum and the maximum
// is Missing.
func SplitAgeClass(s, sep string) (minAge, maxAge Number) {
	if sep == "" {
		sep = "-"
	}
	parts := strings.SplitN(s, sep, 2)
	if len(parts) == 1 {
		return ParseNumber(parts[0]), Number{State: Missing}
	}
	return ParseNumber(parts[0]), ParseNumber(parts[1])
}

// CleanMortality prunes unused columns and replaces the age class column with
// parsed minimum and maximum ages.
func CleanMortality(t *table.Table, opts MortalityOptions) (*Mortality, error) {
	if opts.AgeColumn == "" {
		opts.AgeColumn = "AGE_CLASS"
	}

	pruned := DropUnused(t, opts.UnusedPattern)
	ageIdx, err := pruned.MustIndex(opts.AgeColumn)
	if err != nil {
		return nil, eris.Wrap(err, "tidy: mortality")
	}

	out := &Mortality{
		Columns: slices.DeleteFunc(slices.Clone(pruned.Columns), func(c string) bool { return c == opts.AgeColumn }),
		Records: make([]MortalityRecord, 0, pruned.Len()),
	}

	var malformed int
	for r, row := range pruned.Rows {
		minAge, maxAge := SplitAgeClass(row[ageIdx], opts.AgeSeparator)
		if minAge.State == Malformed || maxAge.State == Malformed {
			malformed++
		}
		fields := pruned.Record(r)
		delete(fields, opts.AgeColumn)
		out.Records = append(out.Records, MortalityRecord{
			Fields:     fields,
			MinimumAge: minAge,
			MaximumAge: maxAge,
		})
	}

	if malformed > 0 {
		zap.L().Debug("tidy: age classes without a number",
			zap.String("column", opts.AgeColumn),
			zap.Int("rows", malformed),
		)
	}

	return out, nil
}
