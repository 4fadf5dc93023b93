// Package geo provides the small geometric utilities the pipeline needs:
// deriving a bounding-box footprint from the request polygon, estimating the
// polygon area for the precondition guard, and sizing the raster grid.
package geo

import (
	"errors"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

const (
	kmPerDegLat = 110.574
	kmPerDegLon = 111.32

	// Sentinel-2 process API rejects outputs above 2500 px per axis.
	maxAxisPixels = 2500
)

var (
	// ErrPolygonInvalid rejects rings with fewer than three vertices.
	ErrPolygonInvalid = errors.New("invalid polygon: at least 3 vertices required")
	// ErrFootprintDegenerate rejects zero-area bounding boxes.
	ErrFootprintDegenerate = errors.New("degenerate footprint: polygon has no extent")
)

// Footprint is the axis-aligned bounding box of the request polygon, in
// geographic (lon/lat) coordinates.
type Footprint struct {
	MinLon, MinLat, MaxLon, MaxLat float64
}

// RingFromCoords builds a closed orb.Ring from [lon, lat] pairs. The first
// vertex is repeated at the end when the input ring is open.
func RingFromCoords(coords [][]float64) (orb.Ring, error) {
	if len(coords) < 3 {
		return nil, ErrPolygonInvalid
	}
	ring := make(orb.Ring, 0, len(coords)+1)
	for _, c := range coords {
		if len(c) < 2 {
			return nil, ErrPolygonInvalid
		}
		ring = append(ring, orb.Point{c[0], c[1]})
	}
	if ring[0] != ring[len(ring)-1] {
		ring = append(ring, ring[0])
	}
	return ring, nil
}

// FootprintFromCoords derives the bounding box of the polygon ring.
func FootprintFromCoords(coords [][]float64) (Footprint, error) {
	ring, err := RingFromCoords(coords)
	if err != nil {
		return Footprint{}, err
	}
	bound := ring.Bound()
	fp := Footprint{
		MinLon: bound.Min[0],
		MinLat: bound.Min[1],
		MaxLon: bound.Max[0],
		MaxLat: bound.Max[1],
	}
	if fp.MinLon >= fp.MaxLon || fp.MinLat >= fp.MaxLat {
		return Footprint{}, ErrFootprintDegenerate
	}
	return fp, nil
}

// BBox returns the footprint as [minLon, minLat, maxLon, maxLat].
func (f Footprint) BBox() [4]float64 {
	return [4]float64{f.MinLon, f.MinLat, f.MaxLon, f.MaxLat}
}

// PixelSize converts the footprint extent to raster dimensions at the given
// ground resolution in meters, clamped to the provider's allowed range.
func (f Footprint) PixelSize(resolutionMeters float64) (width, height int) {
	width = axisPixels(f.MaxLon-f.MinLon, resolutionMeters)
	height = axisPixels(f.MaxLat-f.MinLat, resolutionMeters)
	return width, height
}

func axisPixels(degrees, resolution float64) int {
	pixels := degrees * (111_000.0 / resolution)
	if pixels < 1 {
		return 1
	}
	if pixels > maxAxisPixels {
		return maxAxisPixels
	}
	return int(pixels)
}

// ApproxAreaSqKm estimates the polygon area in square kilometers using an
// equirectangular projection scaled at the polygon centroid latitude. Good
// enough for the size guard; this is not a geodesic area.
func ApproxAreaSqKm(coords [][]float64) (float64, error) {
	ring, err := RingFromCoords(coords)
	if err != nil {
		return 0, err
	}
	centroid, area := planar.CentroidArea(orb.Polygon{ring})
	if area == 0 {
		return 0, ErrFootprintDegenerate
	}
	latRad := centroid.Y() * math.Pi / 180
	scaleLon := kmPerDegLon * math.Cos(latRad)

	projected := make(orb.Ring, len(ring))
	for i, p := range ring {
		projected[i] = orb.Point{p.X() * scaleLon, p.Y() * kmPerDegLat}
	}
	return math.Abs(planar.Area(orb.Polygon{projected})), nil
}
