package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/grizzly-cli/internal/config"
	"github.com/sells-group/grizzly-cli/internal/reconcile"
	"github.com/sells-group/grizzly-cli/internal/spatial/spatialtest"
)

const (
	testMortalityCSV  = "AGE_CLASS,UNIT\n0-5,A\n5-10,B\n"
	testPopulationCSV = "GBPU,MU,Estimate,Total_Area,Notes\n" +
		"Valhalla,4-7,60,2500,Estimates are for 2012\n" +
		"North Purcell,4-26,90,3000,\n" +
		"Flathead,4-1,120,0,\n"
)

func sourceServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/mortality.csv":
			_, _ = io.WriteString(w, testMortalityCSV)
		case "/population.csv":
			_, _ = io.WriteString(w, testPopulationCSV)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, srvURL string, names ...string) *config.Config {
	t.Helper()
	var units []spatialtest.Unit
	for i, name := range names {
		units = append(units, spatialtest.Unit{
			Name:    name,
			Version: "2012",
			Rings:   [][]shp.Point{spatialtest.Square(float64(i)*10, 0, 10)},
		})
	}
	archive, err := spatialtest.WriteBundle(t.TempDir(), "GBPU_BC_polygon", units)
	require.NoError(t, err)

	c := &config.Config{}
	c.Sources.MortalityURL = srvURL + "/mortality.csv"
	c.Sources.PopulationURL = srvURL + "/population.csv"
	c.Fetch.MaxRetries = 1
	c.Fetch.TimeoutSecs = 5
	c.Spatial.ArchivePath = archive
	c.Spatial.Layer = "GBPU_BC_polygon"
	c.Spatial.NameField = "GBPU_NAME"
	c.Spatial.VersionField = "GBPU_VERS"
	c.Spatial.Version = 2012
	c.Reconcile.Substitutions = reconcile.DefaultSubstitutions()
	c.Reconcile.OnMismatch = "fail"
	c.Render.WidthInches = 3
	c.Render.LegendInches = 0.6
	return c
}
