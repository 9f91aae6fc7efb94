package tidy

import (
	"regexp"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/grizzly-cli/internal/table"
)

// PopulationOptions configures CleanPopulation.
type PopulationOptions struct {
	UnusedPattern  *regexp.Regexp
	NotesColumn    string // default "Notes"
	NotesRows      int    // default 5
	NotesSeparator string // default "; "
}

// CleanPopulation prunes unused columns and lifts the leading notes values out
// of the table. It returns the table without the notes column and the joined
// notes as a separate value.
func CleanPopulation(t *table.Table, opts PopulationOptions) (*table.Table, string, error) {
	if opts.NotesColumn == "" {
		opts.NotesColumn = "Notes"
	}
	if opts.NotesRows <= 0 {
		opts.NotesRows = 5
	}
	if opts.NotesSeparator == "" {
		opts.NotesSeparator = "; "
	}

	pruned := DropUnused(t, opts.UnusedPattern)
	notes, err := pruned.Column(opts.NotesColumn)
	if err != nil {
		return nil, "", eris.Wrap(err, "tidy: population")
	}

	n := min(opts.NotesRows, len(notes))
	meta := strings.Join(notes[:n], opts.NotesSeparator)

	return pruned.Drop(opts.NotesColumn), meta, nil
}
