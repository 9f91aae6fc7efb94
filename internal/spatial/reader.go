package spatial

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/grizzly-cli/internal/fetcher"
)

// ExtractBundle unpacks the zipped shapefile bundle next to the archive, into
// a directory named after it (GBPU.zip -> GBPU/). Returns that directory.
func ExtractBundle(archivePath string) (string, error) {
	dir := strings.TrimSuffix(archivePath, filepath.Ext(archivePath))
	if dir == archivePath {
		dir = archivePath + "_extracted"
	}
	files, err := fetcher.ExtractZIP(archivePath, dir)
	if err != nil {
		return "", eris.Wrap(err, "spatial: extract bundle")
	}
	zap.L().Debug("spatial: bundle extracted",
		zap.String("archive", archivePath),
		zap.String("dir", dir),
		zap.Int("files", len(files)),
	)
	return dir, nil
}

// FindLayer returns the path of <layer>.shp below dir, matching the name
// case-insensitively. An empty layer selects the first .shp found.
func FindLayer(dir, layer string) (string, error) {
	var found string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".shp") {
			return nil
		}
		base := strings.TrimSuffix(d.Name(), filepath.Ext(d.Name()))
		if layer == "" || strings.EqualFold(base, layer) {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", eris.Wrapf(err, "spatial: search %s", dir)
	}
	if found == "" {
		if layer == "" {
			return "", eris.Errorf("spatial: no .shp file found in %s", dir)
		}
		return "", eris.Errorf("spatial: layer %q not found in %s", layer, dir)
	}
	return found, nil
}

// ReadLayer reads every polygon record of a shapefile with its attributes.
// Records with empty or non-polygon shapes are skipped.
func ReadLayer(shpPath string) ([]Feature, error) {
	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, eris.Wrapf(err, "spatial: open shapefile %s", shpPath)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = strings.TrimRight(f.String(), "\x00")
	}

	var features []Feature
	var skipped int
	for reader.Next() {
		_, shape := reader.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok {
			skipped++
			continue
		}
		mp := polygonToMultiPolygon(poly)
		if mp == nil {
			skipped++
			continue
		}

		attrs := make(map[string]string, len(names))
		for i, name := range names {
			attrs[name] = strings.TrimSpace(strings.TrimRight(reader.Attribute(i), "\x00"))
		}
		features = append(features, Feature{Geometry: mp, Attributes: attrs})
	}

	if skipped > 0 {
		zap.L().Debug("spatial: skipped shapefile records",
			zap.String("path", shpPath),
			zap.Int("skipped", skipped),
		)
	}

	return features, nil
}

// LoadOptions locates and filters the population unit layer.
type LoadOptions struct {
	ArchivePath  string
	Layer        string
	VersionField string  // default "GBPU_VERS"
	Version      float64 // default 2012
}

// Load extracts the bundle, reads the layer and keeps only features of the
// configured version.
func Load(opts LoadOptions) ([]Feature, error) {
	if opts.VersionField == "" {
		opts.VersionField = "GBPU_VERS"
	}
	if opts.Version == 0 {
		opts.Version = 2012
	}

	dir, err := ExtractBundle(opts.ArchivePath)
	if err != nil {
		return nil, err
	}
	path, err := FindLayer(dir, opts.Layer)
	if err != nil {
		return nil, err
	}
	all, err := ReadLayer(path)
	if err != nil {
		return nil, err
	}

	kept := FilterVersion(all, opts.VersionField, opts.Version)
	zap.L().Info("spatial: layer loaded",
		zap.String("layer", path),
		zap.Int("features", len(all)),
		zap.Int("kept", len(kept)),
		zap.String("version_field", opts.VersionField),
		zap.Float64("version", opts.Version),
	)
	return kept, nil
}
