package source

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/grizzly-cli/internal/fetcher"
)

const populationCSV = "GBPU,MU,Estimate,Total_Area,Notes,X1\n" +
	"Valhalla,4-7,60,2500,Estimates are for 2012,\n" +
	"Valhalla,4-8,43,2100,Area in km2,\n" +
	"Flathead,4-1,\"1,000\",4000\n"

func TestParse(t *testing.T) {
	tbl, err := Parse(context.Background(), strings.NewReader(populationCSV))
	require.NoError(t, err)

	assert.Equal(t, []string{"GBPU", "MU", "Estimate", "Total_Area", "Notes", "X1"}, tbl.Columns)
	require.Equal(t, 3, tbl.Len())
	assert.Equal(t, "60", tbl.Rows[0][2])
	// values stay text; short rows are padded
	assert.Equal(t, []string{"Flathead", "4-1", "1,000", "4000", "", ""}, tbl.Rows[2])
}

func TestParse_ByteOrderMark(t *testing.T) {
	tbl, err := Parse(context.Background(), strings.NewReader("\ufeffAGE_CLASS,UNIT\n0-5,A\n"))
	require.NoError(t, err)
	assert.Equal(t, "AGE_CLASS", tbl.Columns[0])
}

func TestParse_Empty(t *testing.T) {
	_, err := Parse(context.Background(), strings.NewReader(""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing header row")
}

func TestParse_LongRow(t *testing.T) {
	_, err := Parse(context.Background(), strings.NewReader("a,b\n1,2,3\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "build table")
}

func TestParse_Malformed(t *testing.T) {
	_, err := Parse(context.Background(), strings.NewReader("a,b\n\"unterminated,2\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stream csv")
}

func TestLoad(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, populationCSV)
	}))
	defer srv.Close()

	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{})
	tbl, err := Load(context.Background(), f, srv.URL+"/population.csv")
	require.NoError(t, err)
	assert.Equal(t, 3, tbl.Len())
}

func TestLoad_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := Load(context.Background(), fetcher.NewHTTPFetcher(fetcher.HTTPOptions{}), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source: download")
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mortality.csv")
	require.NoError(t, os.WriteFile(path, []byte("AGE_CLASS,UNIT\n0-5,A\n5+,B\n"), 0o644))

	tbl, err := LoadFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{"AGE_CLASS", "UNIT"}, tbl.Columns)
	assert.Equal(t, 2, tbl.Len())
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
}
