// Package output renders the display artifacts handed to the frontend:
// per-interval NDVI overlay PNGs, the trend chart and the series CSV.
package output

import "image/color"

// Fixed normalization range shared by every overlay and the chart, so layers
// from different dates are visually comparable (stress red at -0.2, dense
// healthy vegetation green at 1.0).
const (
	scaleMin = -0.2
	scaleMax = 1.0
)

// colorStops approximates the RdYlGn diverging palette.
var colorStops = []struct {
	pos     float64
	r, g, b uint8
}{
	{0.00, 165, 0, 38},
	{0.25, 244, 109, 67},
	{0.50, 255, 255, 191},
	{0.75, 102, 189, 99},
	{1.00, 0, 104, 55},
}

// ndviColor maps an index value onto the fixed palette.
func ndviColor(v float64) color.RGBA {
	t := (v - scaleMin) / (scaleMax - scaleMin)
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	for i := 1; i < len(colorStops); i++ {
		if t <= colorStops[i].pos {
			lo, hi := colorStops[i-1], colorStops[i]
			f := (t - lo.pos) / (hi.pos - lo.pos)
			return color.RGBA{
				R: lerp(lo.r, hi.r, f),
				G: lerp(lo.g, hi.g, f),
				B: lerp(lo.b, hi.b, f),
				A: 255,
			}
		}
	}
	last := colorStops[len(colorStops)-1]
	return color.RGBA{R: last.r, G: last.g, B: last.b, A: 255}
}

func lerp(a, b uint8, f float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*f)
}
