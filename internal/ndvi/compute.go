package ndvi

import "math"

// BandPair carries the two reflectance bands and the provider's data mask for
// one acquisition, row-major, aligned to the same footprint and resolution.
type BandPair struct {
	Width, Height int
	Red           []float64
	NIR           []float64
	Mask          []bool
}

// IndexGrid is the computed per-pixel index. Values[i] is only meaningful
// where Valid[i] is true; invalid cells are excluded from aggregation and
// rendered as no-data. The validity mask replaces an in-band sentinel value
// so extreme-but-legitimate index values can never collide with "no data".
type IndexGrid struct {
	Width, Height int
	Values        []float64
	Valid         []bool
}

// Compute derives the NDVI grid (nir-red)/(nir+red) from a band pair.
// Division by zero and 0/0 become invalid cells rather than NaN or zero, and
// finite values are clamped to [-1, 1] since reflectance noise can exceed the
// theoretical range. Pure function; it fails only on a shape mismatch.
func Compute(bp BandPair) (*IndexGrid, error) {
	n := bp.Width * bp.Height
	if n <= 0 || len(bp.Red) != n || len(bp.NIR) != n || len(bp.Mask) != n {
		return nil, ErrShapeMismatch
	}

	grid := &IndexGrid{
		Width:  bp.Width,
		Height: bp.Height,
		Values: make([]float64, n),
		Valid:  make([]bool, n),
	}
	for i := 0; i < n; i++ {
		v := (bp.NIR[i] - bp.Red[i]) / (bp.NIR[i] + bp.Red[i])
		if !bp.Mask[i] || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		grid.Values[i] = clamp(v, -1.0, 1.0)
		grid.Valid[i] = true
	}
	return grid, nil
}

// Mean returns the arithmetic mean over valid pixels. ok is false when the
// grid holds no valid pixel at all; callers must record a gap, not a zero.
func (g *IndexGrid) Mean() (mean float64, ok bool) {
	var sum float64
	var count int
	for i, valid := range g.Valid {
		if valid {
			sum += g.Values[i]
			count++
		}
	}
	if count == 0 {
		return 0, false
	}
	return sum / float64(count), true
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
