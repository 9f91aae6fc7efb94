package aggregate

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/grizzly-cli/internal/table"
)

func TestByUnit_SumsAndDensity(t *testing.T) {
	tbl, err := table.New(
		[]string{"GBPU", "Estimate", "Total_Area"},
		[][]string{{"X", "10", "5"}, {"X", "20", "5"}},
	)
	require.NoError(t, err)

	units, err := ByUnit(tbl, Options{})
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Equal(t, Unit{GBPU: "X", Estimate: 30, TotalArea: 10, Density: 3000}, units[0])
}

func TestByUnit_MissingValuesCountAsZero(t *testing.T) {
	tbl, err := table.New(
		[]string{"GBPU", "Estimate", "Total_Area"},
		[][]string{{"Valhalla", "91", "4000"}, {"Valhalla", "", "NA"}, {"Valhalla", "unknown", "1000"}},
	)
	require.NoError(t, err)

	units, err := ByUnit(tbl, Options{})
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Equal(t, 91.0, units[0].Estimate)
	assert.Equal(t, 5000.0, units[0].TotalArea)
	assert.InDelta(t, 18.2, units[0].Density, 1e-9)
}

func TestByUnit_ZeroAreaIsNotFinite(t *testing.T) {
	tbl, err := table.New(
		[]string{"GBPU", "Estimate", "Total_Area"},
		[][]string{{"Empty", "4", "0"}, {"Nothing", "0", "0"}},
	)
	require.NoError(t, err)

	units, err := ByUnit(tbl, Options{})
	require.NoError(t, err)

	empty, ok := Find(units, "Empty")
	require.True(t, ok)
	assert.True(t, math.IsInf(empty.Density, 1))

	nothing, ok := Find(units, "Nothing")
	require.True(t, ok)
	assert.True(t, math.IsNaN(nothing.Density))
}

func TestByUnit_RowOrderDoesNotMatter(t *testing.T) {
	rows := [][]string{
		{"Valhalla", "91", "4000.5"},
		{"Kettle-Granby", "85", "5300.25"},
		{"Valhalla", "12", "600.1"},
		{"North Purcells", "52", "2700"},
		{"Kettle-Granby", "20", "900.3"},
		{"North Purcells", "7", "333.3"},
		{"Valhalla", "3", "0.7"},
	}
	base, err := table.New([]string{"GBPU", "Estimate", "Total_Area"}, rows)
	require.NoError(t, err)
	want, err := ByUnit(base, Options{})
	require.NoError(t, err)

	rng := rand.New(rand.NewPCG(1, 2))
	for range 20 {
		shuffled := make([][]string, len(rows))
		copy(shuffled, rows)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		tbl, err := table.New([]string{"GBPU", "Estimate", "Total_Area"}, shuffled)
		require.NoError(t, err)
		got, err := ByUnit(tbl, Options{})
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestByUnit_CustomColumnsAndScale(t *testing.T) {
	tbl, err := table.New(
		[]string{"unit", "bears", "km2"},
		[][]string{{"A", "5", "10"}},
	)
	require.NoError(t, err)

	units, err := ByUnit(tbl, Options{GroupColumn: "unit", EstimateColumn: "bears", AreaColumn: "km2", Scale: 1})
	require.NoError(t, err)
	assert.Equal(t, 0.5, units[0].Density)
}

func TestByUnit_MissingColumn(t *testing.T) {
	tbl, err := table.New([]string{"GBPU", "Estimate"}, [][]string{{"A", "1"}})
	require.NoError(t, err)

	_, err = ByUnit(tbl, Options{})
	require.Error(t, err)
	assert.True(t, eris.Is(err, table.ErrColumnNotFound))
	assert.Contains(t, err.Error(), "area column")
}

func TestByUnit_SortedByName(t *testing.T) {
	tbl, err := table.New(
		[]string{"GBPU", "Estimate", "Total_Area"},
		[][]string{{"Valhalla", "1", "1"}, {"Alta", "1", "1"}, {"Kettle-Granby", "1", "1"}},
	)
	require.NoError(t, err)

	units, err := ByUnit(tbl, Options{})
	require.NoError(t, err)
	require.Len(t, units, 3)
	assert.Equal(t, "Alta", units[0].GBPU)
	assert.Equal(t, "Kettle-Granby", units[1].GBPU)
	assert.Equal(t, "Valhalla", units[2].GBPU)
}

func TestByUnit_GroupsNormalizedLabels(t *testing.T) {
	tbl, err := table.New(
		[]string{"GBPU", "Estimate", "Total_Area"},
		[][]string{
			{"Valhalla", "10", "5"},
			{"Valhalla ", "20", "5"},
			{"Nass Rivie\u0300re", "1", "1"},
			{"Nass  Rivi\u00e8re", "3", "1"},
		},
	)
	require.NoError(t, err)

	units, err := ByUnit(tbl, Options{})
	require.NoError(t, err)
	require.Len(t, units, 2)

	u, ok := Find(units, "Valhalla")
	require.True(t, ok)
	assert.Equal(t, Unit{GBPU: "Valhalla", Estimate: 30, TotalArea: 10, Density: 3000}, u)

	u, ok = Find(units, "Nass Rivi\u00e8re")
	require.True(t, ok)
	assert.Equal(t, 4.0, u.Estimate)
}
