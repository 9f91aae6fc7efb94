// Package choropleth flattens population unit polygons into vertex tables,
// joins the unit aggregates onto them and renders the density map.
package choropleth

import (
	"fmt"

	"github.com/sells-group/grizzly-cli/internal/aggregate"
	"github.com/sells-group/grizzly-cli/internal/label"
	"github.com/sells-group/grizzly-cli/internal/spatial"
)

// Vertex is one boundary coordinate of a feature ring.
type Vertex struct {
	Long  float64
	Lat   float64
	Order int    // 1-based position within the feature
	Hole  bool   // ring is a hole of its polygon
	Piece int    // 1-based ring number within the feature label
	Group string // unique per ring: "<ID>.<Piece>"
	ID    string // normalized feature label, "" when missing
}

// MapVertex is a vertex with the aggregate of its feature, or nil when the
// feature has none.
type MapVertex struct {
	Vertex
	Unit *aggregate.Unit
}

// Fortify converts features into an ordered vertex sequence. Rings of
// features sharing a label continue the same piece numbering so groups stay
// unique.
func Fortify(features []spatial.Feature, nameField string) []Vertex {
	var out []Vertex
	pieces := make(map[string]int)

	for i, f := range features {
		if f.Geometry == nil {
			continue
		}
		id := ""
		prefix := fmt.Sprintf("#%d", i)
		if name := f.Attr(nameField); !label.IsMissing(name) {
			id = label.Normalize(name)
			prefix = id
		}

		order := 0
		for p := 0; p < f.Geometry.NumPolygons(); p++ {
			poly := f.Geometry.Polygon(p)
			for r := 0; r < poly.NumLinearRings(); r++ {
				pieces[prefix]++
				piece := pieces[prefix]
				group := fmt.Sprintf("%s.%d", prefix, piece)
				flat := poly.LinearRing(r).FlatCoords()
				for k := 0; k+1 < len(flat); k += 2 {
					order++
					out = append(out, Vertex{
						Long:  flat[k],
						Lat:   flat[k+1],
						Order: order,
						Hole:  r > 0,
						Piece: piece,
						Group: group,
						ID:    id,
					})
				}
			}
		}
	}
	return out
}

// Join attaches to every vertex the unit whose label equals the vertex ID.
func Join(vertices []Vertex, units []aggregate.Unit) []MapVertex {
	byLabel := make(map[string]*aggregate.Unit, len(units))
	for i := range units {
		u := units[i]
		byLabel[label.Normalize(u.GBPU)] = &u
	}

	out := make([]MapVertex, len(vertices))
	for i, v := range vertices {
		out[i] = MapVertex{Vertex: v}
		if v.ID == "" {
			continue
		}
		out[i].Unit = byLabel[v.ID]
	}
	return out
}

// Unmatched returns the distinct feature labels that received no unit.
// Features without a label are not listed.
func Unmatched(vertices []MapVertex) []string {
	seen := make(map[string]bool)
	var out []string
	for _, v := range vertices {
		if v.Unit != nil || v.ID == "" || seen[v.ID] {
			continue
		}
		seen[v.ID] = true
		out = append(out, v.ID)
	}
	return out
}
