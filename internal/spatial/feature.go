// Package spatial loads population unit polygons from a zipped shapefile
// bundle.
package spatial

import (
	"strconv"
	"strings"

	"github.com/twpayne/go-geom"
)

// Feature is one polygon record with its attribute row. Attribute values are
// the trimmed DBF text.
type Feature struct {
	Geometry   *geom.MultiPolygon
	Attributes map[string]string
}

// Attr returns the named attribute, or "".
func (f Feature) Attr(name string) string {
	return f.Attributes[name]
}

// FilterVersion keeps the features whose field parses to version. Features
// are returned unchanged and in their original order.
func FilterVersion(features []Feature, field string, version float64) []Feature {
	var kept []Feature
	for _, f := range features {
		v, err := strconv.ParseFloat(strings.TrimSpace(f.Attr(field)), 64)
		if err != nil || v != version {
			continue
		}
		kept = append(kept, f)
	}
	return kept
}
