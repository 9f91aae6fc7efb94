package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/grizzly-cli/internal/pipeline"
)

func TestFetchSources(t *testing.T) {
	srv := sourceServer(t)
	c := testConfig(t, srv.URL, "Valhalla")
	dir := filepath.Join(t.TempDir(), "data")

	var out bytes.Buffer
	require.NoError(t, fetchSources(context.Background(), c, pipeline.NewFetcher(c.Fetch), dir, &out))

	data, err := os.ReadFile(filepath.Join(dir, "mortality.csv"))
	require.NoError(t, err)
	assert.Equal(t, testMortalityCSV, string(data))

	data, err = os.ReadFile(filepath.Join(dir, "population.csv"))
	require.NoError(t, err)
	assert.Equal(t, testPopulationCSV, string(data))

	assert.Contains(t, out.String(), "population.csv")
}

func TestFetchSources_MissingURL(t *testing.T) {
	srv := sourceServer(t)
	c := testConfig(t, srv.URL, "Valhalla")
	c.Sources.PopulationURL = ""

	err := fetchSources(context.Background(), c, pipeline.NewFetcher(c.Fetch), t.TempDir(), &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no url configured for population.csv")
}

func TestFetchSources_HTTPError(t *testing.T) {
	srv := sourceServer(t)
	c := testConfig(t, srv.URL, "Valhalla")
	c.Sources.MortalityURL = srv.URL + "/gone.csv"

	err := fetchSources(context.Background(), c, pipeline.NewFetcher(c.Fetch), t.TempDir(), &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch: mortality.csv")
}
