package spatial

import (
	"github.com/jonas-p/go-shp"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
)

// polygonToMultiPolygon converts a shapefile polygon to a go-geom
// MultiPolygon. Shapefile shells wind clockwise and holes counter-clockwise;
// each hole is attached to the shell that precedes it. When no ring is
// clockwise every ring is taken as its own shell.
func polygonToMultiPolygon(p *shp.Polygon) *geom.MultiPolygon {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	rings := make([][]float64, 0, p.NumParts)
	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}
		if start < 0 || start >= end || end > int32(len(p.Points)) {
			continue
		}
		flat := make([]float64, 0, 2*(end-start))
		for _, pt := range p.Points[start:end] {
			flat = append(flat, pt.X, pt.Y)
		}
		rings = append(rings, flat)
	}

	anyClockwise := false
	for _, r := range rings {
		if signedArea(r) < 0 {
			anyClockwise = true
			break
		}
	}

	mp := geom.NewMultiPolygon(geom.XY)
	var current *geom.Polygon
	flush := func() {
		if current == nil {
			return
		}
		if err := mp.Push(current); err != nil {
			zap.L().Debug("spatial: skipping malformed polygon", zap.Error(err))
		}
		current = nil
	}

	for i, r := range rings {
		ring := geom.NewLinearRingFlat(geom.XY, r)
		shell := !anyClockwise || signedArea(r) < 0 || current == nil
		if shell {
			flush()
			current = geom.NewPolygon(geom.XY)
		}
		if err := current.Push(ring); err != nil {
			zap.L().Debug("spatial: skipping malformed ring", zap.Int("ring", i), zap.Error(err))
		}
	}
	flush()

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}

// signedArea is the shoelace area of a closed flat XY ring; negative when
// the ring winds clockwise.
func signedArea(flat []float64) float64 {
	n := len(flat) / 2
	if n < 3 {
		return 0
	}
	var sum float64
	for i := range n {
		j := (i + 1) % n
		sum += flat[2*i]*flat[2*j+1] - flat[2*j]*flat[2*i+1]
	}
	return sum / 2
}
