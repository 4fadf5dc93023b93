package delivery

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenscope/greenscope-api/internal/geo"
	"github.com/greenscope/greenscope-api/internal/ndvi"
	"github.com/greenscope/greenscope-api/internal/properties"
)

var smallPolygon = [][]float64{
	{18.435, 49.792},
	{18.435, 49.801},
	{18.448, 49.801},
	{18.448, 49.792},
}

// A degree-sized square, far beyond the 25 km2 guard.
var hugePolygon = [][]float64{
	{18.0, 49.0},
	{18.0, 50.0},
	{19.0, 50.0},
	{19.0, 49.0},
}

type fakeCatalog struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeCatalog) Search(_ context.Context, _ geo.Footprint, iv ndvi.Interval, _ float64, _ int) ([]ndvi.Acquisition, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	// One mid-interval acquisition per bucket, cloudier later in the year.
	capture := iv.Start.AddDate(0, 0, 3)
	return []ndvi.Acquisition{
		{ID: "scene-" + iv.Start.Format(time.DateOnly), CaptureDate: capture, CloudFraction: 0.1 + float64(iv.Start.Month())*0.01},
	}, nil
}

func (f *fakeCatalog) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeFetcher struct{}

func (fakeFetcher) FetchBands(context.Context, geo.Footprint, time.Time) (ndvi.BandPair, error) {
	return ndvi.BandPair{
		Width: 2, Height: 2,
		Red:  []float64{0.2, 0.2, 0.2, 0.2},
		NIR:  []float64{0.6, 0.6, 0.6, 0.6},
		Mask: []bool{true, true, true, true},
	}, nil
}

type fakeExporter struct {
	mu    sync.Mutex
	paths []string
}

func (f *fakeExporter) Export(_ *ndvi.IndexGrid, _ geo.Footprint, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths = append(f.paths, path)
	// Write a placeholder so the artifact exists on disk like the real thing.
	return os.WriteFile(path, []byte("tiff"), 0644)
}

func defaultLimits() properties.LimitsConfig {
	return properties.LimitsConfig{
		MaxPolygonAreaSqKm:   25,
		MaxImagesPerInterval: 30,
		CloudCeiling:         0.8,
		Workers:              2,
	}
}

func newTestService(t *testing.T) (*Service, *fakeCatalog, *fakeExporter) {
	t.Helper()
	catalog := &fakeCatalog{}
	exporter := &fakeExporter{}
	svc := &Service{
		Catalog:   catalog,
		Fetcher:   fakeFetcher{},
		Exporter:  exporter,
		Limits:    defaultLimits(),
		OutputDir: t.TempDir(),
	}
	return svc, catalog, exporter
}

func TestProcessNDVI_HappyPathMonthly(t *testing.T) {
	svc, catalog, exporter := newTestService(t)

	result, err := svc.ProcessNDVI(context.Background(), Request{
		Polygon:   smallPolygon,
		StartDate: "2024-01-01",
		EndDate:   "2024-03-30",
		Frequency: "monthly",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, catalog.callCount())

	require.Len(t, result.GraphData, 3)
	for _, p := range result.GraphData {
		require.NotNil(t, p.Value)
		assert.InDelta(t, 0.5, *p.Value, 1e-12)
	}
	assert.True(t, result.GraphData[0].Date < result.GraphData[1].Date)

	// January has the lowest cloud fraction, so it is the representative.
	assert.Equal(t, "2024-01-04", result.ImageDate)
	require.Len(t, exporter.paths, 1)
	assert.Contains(t, result.FileURL, "ndvi_2024-01-04_")

	require.Len(t, result.ImageLayers, 3)
	for _, layer := range result.ImageLayers {
		assert.Equal(t, [2][2]float64{{49.792, 18.435}, {49.801, 18.448}}, layer.Bounds)
		info, err := os.Stat(filepath.Join(svc.OutputDir, filepath.Base(layer.URL)))
		require.NoError(t, err)
		assert.NotZero(t, info.Size())
	}

	for _, url := range []string{result.ChartURL, result.CSVURL, result.FileURL} {
		_, err := os.Stat(filepath.Join(svc.OutputDir, filepath.Base(url)))
		assert.NoError(t, err, url)
	}
}

func TestProcessNDVI_AreaGuardRejectsBeforeAnyCatalogCall(t *testing.T) {
	svc, catalog, _ := newTestService(t)

	_, err := svc.ProcessNDVI(context.Background(), Request{
		Polygon:   hugePolygon,
		StartDate: "2024-01-01",
		EndDate:   "2024-03-30",
		Frequency: "monthly",
	})
	assert.ErrorIs(t, err, ErrPolygonTooLarge)
	assert.True(t, IsPrecondition(err))
	assert.Zero(t, catalog.callCount(), "oversized polygon must be rejected before catalog traffic")
}

func TestProcessNDVI_PreconditionRejections(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want error
	}{
		{
			name: "missing parameters",
			req:  Request{Polygon: smallPolygon, StartDate: "2024-01-01"},
			want: ErrMissingParameters,
		},
		{
			name: "too few vertices",
			req: Request{
				Polygon:   [][]float64{{18.4, 49.7}, {18.5, 49.8}},
				StartDate: "2024-01-01", EndDate: "2024-02-01", Frequency: "monthly",
			},
			want: geo.ErrPolygonInvalid,
		},
		{
			name: "bad date",
			req: Request{
				Polygon:   smallPolygon,
				StartDate: "01/01/2024", EndDate: "2024-02-01", Frequency: "monthly",
			},
			want: ErrBadDate,
		},
		{
			name: "inverted range",
			req: Request{
				Polygon:   smallPolygon,
				StartDate: "2024-03-01", EndDate: "2024-02-01", Frequency: "monthly",
			},
			want: ErrDateOrder,
		},
		{
			name: "unsupported cadence",
			req: Request{
				Polygon:   smallPolygon,
				StartDate: "2024-01-01", EndDate: "2024-02-01", Frequency: "daily",
			},
			want: ndvi.ErrUnsupportedCadence,
		},
		{
			name: "range too long",
			req: Request{
				Polygon:   smallPolygon,
				StartDate: "2023-01-01", EndDate: "2024-06-01", Frequency: "monthly",
			},
			want: ndvi.ErrRangeTooLong,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc, catalog, _ := newTestService(t)
			_, err := svc.ProcessNDVI(context.Background(), tc.req)
			assert.ErrorIs(t, err, tc.want)
			assert.True(t, IsPrecondition(err), "should be a precondition failure")
			assert.Zero(t, catalog.callCount())
		})
	}
}

type emptyCatalog struct{}

func (emptyCatalog) Search(context.Context, geo.Footprint, ndvi.Interval, float64, int) ([]ndvi.Acquisition, error) {
	return nil, nil
}

func TestProcessNDVI_NoUsableDataIsNotAPrecondition(t *testing.T) {
	svc, _, _ := newTestService(t)
	svc.Catalog = emptyCatalog{}

	_, err := svc.ProcessNDVI(context.Background(), Request{
		Polygon:   smallPolygon,
		StartDate: "2024-01-01",
		EndDate:   "2024-02-15",
		Frequency: "monthly",
	})
	assert.ErrorIs(t, err, ndvi.ErrNoUsableData)
	assert.False(t, IsPrecondition(err))
}
