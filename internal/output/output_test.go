package output

import (
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenscope/greenscope-api/internal/ndvi"
)

func testGrid() *ndvi.IndexGrid {
	return &ndvi.IndexGrid{
		Width: 2, Height: 2,
		Values: []float64{0.8, -0.2, 0.1, 0},
		Valid:  []bool{true, true, true, false},
	}
}

func fptr(v float64) *float64 { return &v }

func day(s string) time.Time {
	t, _ := time.Parse(time.DateOnly, s)
	return t
}

func TestNdviColor_EndpointsAndClamping(t *testing.T) {
	low := ndviColor(scaleMin)
	assert.Equal(t, color.RGBA{165, 0, 38, 255}, low)

	high := ndviColor(scaleMax)
	assert.Equal(t, color.RGBA{0, 104, 55, 255}, high)

	// Values outside the fixed scale clamp instead of wrapping.
	assert.Equal(t, low, ndviColor(-1.0))
	assert.Equal(t, high, ndviColor(2.0))
}

func TestNdviColor_MonotoneGreenness(t *testing.T) {
	// Greener (higher G relative to R) as the index rises through vegetation range.
	mid := ndviColor(0.4)
	high := ndviColor(0.9)
	assert.Greater(t, int(mid.R), int(high.R))
}

func TestRenderOverlay_NoDataIsTransparent(t *testing.T) {
	img := RenderOverlay(testGrid())

	_, _, _, alpha := img.At(1, 1).RGBA()
	assert.Zero(t, alpha, "invalid pixel must be fully transparent")

	_, _, _, alpha = img.At(0, 0).RGBA()
	assert.NotZero(t, alpha)
}

func TestRenderLayers_WritesOnePNGPerLayer(t *testing.T) {
	dir := t.TempDir()
	layers := []ndvi.Layer{
		{Date: day("2024-01-15"), Mean: 0.4, Grid: testGrid()},
		{Date: day("2024-02-10"), Mean: 0.5, Grid: testGrid()},
	}

	artifacts, err := RenderLayers(layers, dir, "20240101000000")
	require.NoError(t, err)
	require.Len(t, artifacts, 2)

	for i, a := range artifacts {
		assert.Equal(t, layers[i].Date, a.Date)
		assert.True(t, strings.HasPrefix(a.FileName, "ndvi_map_"), a.FileName)
		info, err := os.Stat(filepath.Join(dir, a.FileName))
		require.NoError(t, err)
		assert.NotZero(t, info.Size())
	}
}

func TestRenderChart_BreaksAtGaps(t *testing.T) {
	dir := t.TempDir()
	series := []ndvi.SeriesPoint{
		{Date: day("2024-01-15"), Value: fptr(0.41)},
		{Date: day("2024-02-01"), Value: nil},
		{Date: day("2024-03-20"), Value: fptr(0.55)},
	}
	path := filepath.Join(dir, "chart.png")
	require.NoError(t, RenderChart(series, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.NotZero(t, info.Size())
}

func TestRenderChart_EmptySeriesRejected(t *testing.T) {
	err := RenderChart(nil, filepath.Join(t.TempDir(), "chart.png"))
	assert.Error(t, err)
}

func TestWriteSeriesCSV_GapsAreEmptyCells(t *testing.T) {
	dir := t.TempDir()
	series := []ndvi.SeriesPoint{
		{Date: day("2024-01-15"), Value: fptr(0.4123)},
		{Date: day("2024-02-01"), Value: nil},
	}
	path := filepath.Join(dir, "series.csv")
	require.NoError(t, WriteSeriesCSV(series, path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 3)

	assert.Equal(t, "date,mean_ndvi", lines[0])
	assert.Equal(t, "2024-01-15,0.4123", lines[1])
	assert.Equal(t, "2024-02-01,", lines[2])
}
