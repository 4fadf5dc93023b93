package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The Havirov test polygon from the reference dataset, roughly 0.96 x 1.0 km.
var havirov = [][]float64{
	{18.435, 49.792},
	{18.435, 49.801},
	{18.448, 49.801},
	{18.448, 49.792},
}

func TestFootprintFromCoords(t *testing.T) {
	fp, err := FootprintFromCoords(havirov)
	require.NoError(t, err)

	assert.Equal(t, 18.435, fp.MinLon)
	assert.Equal(t, 18.448, fp.MaxLon)
	assert.Equal(t, 49.792, fp.MinLat)
	assert.Equal(t, 49.801, fp.MaxLat)
	assert.Equal(t, [4]float64{18.435, 49.792, 18.448, 49.801}, fp.BBox())
}

func TestFootprintFromCoords_TooFewVertices(t *testing.T) {
	_, err := FootprintFromCoords([][]float64{{18.4, 49.7}, {18.5, 49.8}})
	assert.ErrorIs(t, err, ErrPolygonInvalid)
}

func TestFootprintFromCoords_DegenerateRejected(t *testing.T) {
	_, err := FootprintFromCoords([][]float64{
		{18.4, 49.7}, {18.4, 49.7}, {18.4, 49.7},
	})
	assert.ErrorIs(t, err, ErrFootprintDegenerate)
}

func TestApproxAreaSqKm(t *testing.T) {
	area, err := ApproxAreaSqKm(havirov)
	require.NoError(t, err)

	// ~0.013 deg lon * ~71.8 km/deg and 0.009 deg lat * 110.574 km/deg.
	assert.InDelta(t, 0.93, area, 0.05)
}

func TestApproxAreaSqKm_OrientationIndependent(t *testing.T) {
	reversed := make([][]float64, len(havirov))
	for i := range havirov {
		reversed[i] = havirov[len(havirov)-1-i]
	}
	a1, err := ApproxAreaSqKm(havirov)
	require.NoError(t, err)
	a2, err := ApproxAreaSqKm(reversed)
	require.NoError(t, err)

	assert.InDelta(t, a1, a2, 1e-9)
}

func TestPixelSize(t *testing.T) {
	fp, err := FootprintFromCoords(havirov)
	require.NoError(t, err)

	w, h := fp.PixelSize(10)
	// 0.013 deg * 11100 px/deg ~ 144; 0.009 deg * 11100 ~ 99.
	assert.Equal(t, 144, w)
	assert.Equal(t, 99, h)
}

func TestPixelSize_Clamped(t *testing.T) {
	fp := Footprint{MinLon: 0, MinLat: 0, MaxLon: 5, MaxLat: 0.00001}
	w, h := fp.PixelSize(10)
	assert.Equal(t, maxAxisPixels, w)
	assert.Equal(t, 1, h, "sub-pixel extents round up to one pixel")
}

func TestRingFromCoords_ClosesOpenRing(t *testing.T) {
	ring, err := RingFromCoords(havirov)
	require.NoError(t, err)
	assert.Equal(t, ring[0], ring[len(ring)-1])
	assert.Len(t, ring, len(havirov)+1)
}
