package table

import (
	"regexp"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_PadsShortRows(t *testing.T) {
	tbl, err := New([]string{"GBPU", "MU", "Estimate"}, [][]string{{"Valhalla", "4-7"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Valhalla", "4-7", ""}, tbl.Rows[0])
}

func TestNew_RejectsLongRows(t *testing.T) {
	_, err := New([]string{"a"}, [][]string{{"1", "2"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 1")
}

func TestColumn(t *testing.T) {
	tbl, err := New([]string{"GBPU", "Estimate"}, [][]string{{"A", "1"}, {"B", "2"}})
	require.NoError(t, err)

	vals, err := tbl.Column("Estimate")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, vals)

	_, err = tbl.Column("Total_Area")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrColumnNotFound))
}

func TestRecord(t *testing.T) {
	tbl, err := New([]string{"GBPU", "Estimate"}, [][]string{{"A", "1"}})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"GBPU": "A", "Estimate": "1"}, tbl.Record(0))
}

func TestDrop(t *testing.T) {
	tbl, err := New([]string{"GBPU", "Notes", "Estimate"}, [][]string{{"A", "n", "1"}})
	require.NoError(t, err)

	out := tbl.Drop("Notes", "missing")
	assert.Equal(t, []string{"GBPU", "Estimate"}, out.Columns)
	assert.Equal(t, [][]string{{"A", "1"}}, out.Rows)
	// source table untouched
	assert.Len(t, tbl.Columns, 3)
}

func TestDropMatching(t *testing.T) {
	tbl, err := New([]string{"GBPU", "X1", "Estimate", "X2"}, [][]string{{"A", "", "1", ""}})
	require.NoError(t, err)

	out := tbl.DropMatching(regexp.MustCompile(`^X\d+$`))
	assert.Equal(t, []string{"GBPU", "Estimate"}, out.Columns)
	assert.Equal(t, [][]string{{"A", "1"}}, out.Rows)
}
