// Package tidy cleans the raw mortality and population tables: unused
// columns are pruned, age classes are split into numeric bounds and the
// population notes are lifted out into a side value.
package tidy

import (
	"regexp"

	"github.com/sells-group/grizzly-cli/internal/table"
)

// DefaultUnusedPattern matches the placeholder names spreadsheet exports give
// to unnamed columns: blank, "X", "X12" and "...12".
const DefaultUnusedPattern = `^(X\d*|\.\.\.\d+)?$`

// DropUnused removes every column whose name matches pattern. Applying it to
// an already pruned table returns an identical table.
func DropUnused(t *table.Table, pattern *regexp.Regexp) *table.Table {
	if pattern == nil {
		pattern = regexp.MustCompile(DefaultUnusedPattern)
	}
	return t.DropMatching(pattern)
}
