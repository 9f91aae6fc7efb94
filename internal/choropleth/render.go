package choropleth

import (
	"image"
	"image/color"
	"io"
	"math"
	"slices"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/sells-group/grizzly-cli/internal/aggregate"
)

// Projection maps layer coordinates onto the page.
type Projection string

const (
	// Identity plots coordinates as stored. Use it for layers already in a
	// projected equal-area system such as BC Albers.
	Identity Projection = "identity"
	// Equirectangular scales longitude by the cosine of the central latitude.
	Equirectangular Projection = "equirectangular"
)

// ParseProjection validates a projection name. Empty means Identity.
func ParseProjection(s string) (Projection, error) {
	switch Projection(strings.ToLower(strings.TrimSpace(s))) {
	case "", Identity:
		return Identity, nil
	case Equirectangular:
		return Equirectangular, nil
	default:
		return "", eris.Errorf("choropleth: unknown projection %q", s)
	}
}

// Options controls rendering.
type Options struct {
	Title        string
	LegendLabel  string
	Width        vg.Length // default 8in
	LegendHeight vg.Length // default 0.9in
	Projection   Projection
	Outline      color.Color // default white
	Missing      color.Color // fill for units without a finite density; default grey
	Background   color.Color // default white
	OutlineWidth vg.Length   // default 0.4pt
}

func (o *Options) defaults() {
	if o.Width == 0 {
		o.Width = 8 * vg.Inch
	}
	if o.LegendHeight == 0 {
		o.LegendHeight = 0.9 * vg.Inch
	}
	if o.Projection == "" {
		o.Projection = Identity
	}
	if o.Outline == nil {
		o.Outline = color.White
	}
	if o.Missing == nil {
		o.Missing = color.Gray{Y: 0xa0}
	}
	if o.Background == nil {
		o.Background = color.White
	}
	if o.OutlineWidth == 0 {
		o.OutlineWidth = vg.Points(0.4)
	}
	if o.LegendLabel == "" {
		o.LegendLabel = "Density (bears per 1000 km²)"
	}
}

// Map is a rendered choropleth held in memory.
type Map struct {
	canvas    *vgimg.Canvas
	Groups    int // vertex groups (rings)
	Polygons  int // filled shapes, holes included in their shell
	Unmatched []string
	Min, Max  float64 // colour scale range
}

// Image returns the rendered raster.
func (m *Map) Image() image.Image { return m.canvas.Image() }

// WriteTo encodes the map as PNG.
func (m *Map) WriteTo(w io.Writer) (int64, error) {
	return vgimg.PngCanvas{Canvas: m.canvas}.WriteTo(w)
}

// shape is one polygon: a shell ring followed by its holes.
type shape struct {
	group string
	unit  bool
	value float64
	rings []plotter.XYs
}

// Render draws one filled polygon per shell with its holes cut out, coloured
// by the joined density, with a colour bar underneath.
func Render(vertices []MapVertex, opts Options) (*Map, error) {
	opts.defaults()
	if len(vertices) == 0 {
		return nil, eris.New("choropleth: nothing to render")
	}

	project, err := projector(opts.Projection, vertices)
	if err != nil {
		return nil, err
	}

	shapes, groups := groupPolygons(vertices, project)
	cm, lo, hi := colorMap(shapes)

	p := plot.New()
	p.Title.Text = opts.Title
	p.BackgroundColor = opts.Background
	p.HideAxes()

	xmin, xmax, ymin, ymax := math.Inf(1), math.Inf(-1), math.Inf(1), math.Inf(-1)
	for _, s := range shapes {
		for _, xy := range s.rings[0] {
			xmin, xmax = math.Min(xmin, xy.X), math.Max(xmax, xy.X)
			ymin, ymax = math.Min(ymin, xy.Y), math.Max(ymax, xy.Y)
		}

		rings := make([]plotter.XYer, len(s.rings))
		for i, r := range s.rings {
			rings[i] = r
		}
		poly, err := plotter.NewPolygon(rings...)
		if err != nil {
			return nil, eris.Wrapf(err, "choropleth: polygon %s", s.group)
		}
		poly.Color = fill(s, cm, opts)
		poly.LineStyle.Color = opts.Outline
		poly.LineStyle.Width = opts.OutlineWidth
		p.Add(poly)
	}

	mapHeight := opts.Width
	if w := xmax - xmin; w > 0 {
		aspect := (ymax - ymin) / w
		mapHeight = vg.Length(float64(opts.Width) * math.Max(0.25, math.Min(aspect, 4)))
	}
	height := mapHeight + opts.LegendHeight

	legend := plot.New()
	legend.HideY()
	legend.X.Label.Text = opts.LegendLabel
	legend.Add(&plotter.ColorBar{ColorMap: cm})

	ic := vgimg.New(opts.Width, height)
	dc := draw.New(ic)
	legendc := draw.Crop(dc, 0, 0, 0, opts.LegendHeight-height)
	plotc := draw.Crop(dc, 0, 0, opts.LegendHeight, 0)
	p.Draw(plotc)
	legend.Draw(legendc)

	m := &Map{canvas: ic, Groups: groups, Polygons: len(shapes), Unmatched: Unmatched(vertices), Min: lo, Max: hi}
	zap.L().Info("choropleth: map rendered",
		zap.Int("groups", m.Groups),
		zap.Int("polygons", m.Polygons),
		zap.Int("unmatched", len(m.Unmatched)),
		zap.Float64("density_min", lo),
		zap.Float64("density_max", hi),
		zap.String("projection", string(opts.Projection)),
	)
	return m, nil
}

// groupPolygons collects vertices into rings in first-seen order and attaches
// each hole ring to the shell before it, wound against the shell so the fill
// leaves it open. A hole with no preceding shell of its feature is drawn as a
// shell. The second result is the number of rings.
func groupPolygons(vertices []MapVertex, project func(x, y float64) (float64, float64)) ([]*shape, int) {
	type ring struct {
		group string
		id    string
		hole  bool
		unit  *aggregate.Unit
		xys   plotter.XYs
	}
	var rings []*ring
	for _, v := range vertices {
		if len(rings) == 0 || rings[len(rings)-1].group != v.Group {
			rings = append(rings, &ring{group: v.Group, id: v.ID, hole: v.Hole, unit: v.Unit})
		}
		r := rings[len(rings)-1]
		x, y := project(v.Long, v.Lat)
		r.xys = append(r.xys, plotter.XY{X: x, Y: y})
	}

	var shapes []*shape
	var current *shape
	var currentID string
	for _, r := range rings {
		if r.hole && current != nil && r.id == currentID {
			if (signedArea(r.xys) > 0) == (signedArea(current.rings[0]) > 0) {
				slices.Reverse(r.xys)
			}
			current.rings = append(current.rings, r.xys)
			continue
		}
		current = &shape{group: r.group, value: math.NaN(), rings: []plotter.XYs{r.xys}}
		currentID = r.id
		if r.unit != nil {
			current.unit = true
			current.value = r.unit.Density
		}
		shapes = append(shapes, current)
	}
	return shapes, len(rings)
}

// signedArea is the shoelace area of a ring; positive when counter-clockwise.
func signedArea(xys plotter.XYs) float64 {
	var sum float64
	for i := range xys {
		j := (i + 1) % len(xys)
		sum += xys[i].X*xys[j].Y - xys[j].X*xys[i].Y
	}
	return sum / 2
}

// colorMap spans the finite densities of the shapes.
func colorMap(shapes []*shape) (palette.ColorMap, float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range shapes {
		if !s.unit || math.IsNaN(s.value) || math.IsInf(s.value, 0) {
			continue
		}
		lo, hi = math.Min(lo, s.value), math.Max(hi, s.value)
	}
	if math.IsInf(lo, 1) {
		lo, hi = 0, 1
	}
	if hi <= lo {
		hi = lo + 1
	}
	cm := moreland.SmoothBlueRed()
	cm.SetMin(lo)
	cm.SetMax(hi)
	return cm, lo, hi
}

func fill(s *shape, cm palette.ColorMap, opts Options) color.Color {
	if !s.unit || math.IsNaN(s.value) || math.IsInf(s.value, 0) {
		return opts.Missing
	}
	c, err := cm.At(s.value)
	if err != nil {
		return opts.Missing
	}
	return c
}

func projector(proj Projection, vertices []MapVertex) (func(x, y float64) (float64, float64), error) {
	switch proj {
	case Identity:
		return func(x, y float64) (float64, float64) { return x, y }, nil
	case Equirectangular:
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, v := range vertices {
			lo, hi = math.Min(lo, v.Lat), math.Max(hi, v.Lat)
		}
		k := math.Cos((lo + hi) / 2 * math.Pi / 180)
		return func(x, y float64) (float64, float64) { return x * k, y }, nil
	default:
		return nil, eris.Errorf("choropleth: unknown projection %q", proj)
	}
}
