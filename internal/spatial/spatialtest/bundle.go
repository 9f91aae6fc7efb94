// Package spatialtest writes small zipped shapefile bundles for tests.
package spatialtest

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
)

// Unit describes one polygon record of a test bundle.
type Unit struct {
	Name    string
	Version string
	Rings   [][]shp.Point
}

// Square returns a clockwise ring for the axis-aligned square with the given
// lower-left corner and side.
func Square(x, y, side float64) []shp.Point {
	return []shp.Point{
		{X: x, Y: y},
		{X: x, Y: y + side},
		{X: x + side, Y: y + side},
		{X: x + side, Y: y},
		{X: x, Y: y},
	}
}

// WriteBundle writes <layer>.shp/.shx/.dbf with GBPU_NAME and GBPU_VERS
// attributes into dir and zips them into dir/<layer>.zip. Returns the zip path.
func WriteBundle(dir, layer string, units []Unit) (string, error) {
	shpDir := filepath.Join(dir, "src")
	if err := os.MkdirAll(shpDir, 0o755); err != nil {
		return "", eris.Wrap(err, "spatialtest: create dir")
	}
	base := filepath.Join(shpDir, layer)

	w, err := shp.Create(base+".shp", shp.POLYGON)
	if err != nil {
		return "", eris.Wrap(err, "spatialtest: create shapefile")
	}
	w.SetFields([]shp.Field{
		shp.StringField("GBPU_NAME", 50),
		shp.NumberField("GBPU_VERS", 10),
	})
	for i, u := range units {
		w.Write((*shp.Polygon)(shp.NewPolyLine(u.Rings)))
		w.WriteAttribute(i, 0, u.Name)
		w.WriteAttribute(i, 1, u.Version)
	}
	w.Close()

	zipPath := filepath.Join(dir, layer+".zip")
	out, err := os.Create(zipPath)
	if err != nil {
		return "", eris.Wrap(err, "spatialtest: create zip")
	}
	defer out.Close() //nolint:errcheck

	zw := zip.NewWriter(out)
	for _, ext := range []string{".shp", ".shx", ".dbf"} {
		if err := addFile(zw, base+ext, layer+ext); err != nil {
			return "", err
		}
	}
	if err := zw.Close(); err != nil {
		return "", eris.Wrap(err, "spatialtest: close zip")
	}
	return zipPath, nil
}

func addFile(zw *zip.Writer, src, name string) error {
	in, err := os.Open(src)
	if err != nil {
		return eris.Wrapf(err, "spatialtest: open %s", src)
	}
	defer in.Close() //nolint:errcheck

	fw, err := zw.Create(name)
	if err != nil {
		return eris.Wrap(err, "spatialtest: zip entry")
	}
	if _, err := io.Copy(fw, in); err != nil {
		return eris.Wrapf(err, "spatialtest: copy %s", name)
	}
	return nil
}
