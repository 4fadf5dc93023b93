// Package delivery orchestrates one NDVI request end to end: precondition
// checks, interval scheduling, series assembly and artifact generation. The
// HTTP layer in http.go is a thin adapter over ProcessNDVI.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/greenscope/greenscope-api/internal/geo"
	"github.com/greenscope/greenscope-api/internal/ndvi"
	"github.com/greenscope/greenscope-api/internal/output"
	"github.com/greenscope/greenscope-api/internal/properties"
)

// Precondition failures reported before any remote call.
var (
	ErrMissingParameters = errors.New("missing polygon, startDate, endDate, or frequency parameters")
	ErrBadDate           = errors.New("dates must be in YYYY-MM-DD format")
	ErrDateOrder         = errors.New("startDate must not be after endDate")
	ErrPolygonTooLarge   = errors.New("polygon exceeds the maximum allowed area")
)

// IsPrecondition reports whether err belongs to the request-rejection class
// (client error) as opposed to a runtime or empty-data outcome.
func IsPrecondition(err error) bool {
	for _, target := range []error{
		ErrMissingParameters, ErrBadDate, ErrDateOrder, ErrPolygonTooLarge,
		geo.ErrPolygonInvalid, geo.ErrFootprintDegenerate,
		ndvi.ErrUnsupportedCadence, ndvi.ErrRangeTooLong, ndvi.ErrTooManyIntervals,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// RasterExporter writes the representative grid as a georeferenced raster.
type RasterExporter interface {
	Export(grid *ndvi.IndexGrid, fp geo.Footprint, path string) error
}

// Request is the inbound NDVI processing request.
type Request struct {
	Polygon   [][]float64 `json:"polygon"`
	StartDate string      `json:"startDate"`
	EndDate   string      `json:"endDate"`
	Frequency string      `json:"frequency"`
}

// GraphPoint is one chart entry; Value is null for a gap.
type GraphPoint struct {
	Date  string   `json:"date"`
	Value *float64 `json:"value"`
}

// ImageLayer describes one map overlay, bounds in [[minLat,minLon],[maxLat,maxLon]]
// order as consumed by the map frontend.
type ImageLayer struct {
	Date     string        `json:"date"`
	URL      string        `json:"url"`
	Bounds   [2][2]float64 `json:"bounds"`
	MeanNDVI float64       `json:"mean_ndvi"`
}

// Result carries both historical output modes: the layered map payload
// (graphData + imageLayers) and the single representative raster (fileUrl).
type Result struct {
	GraphData   []GraphPoint `json:"graphData"`
	ImageLayers []ImageLayer `json:"imageLayers"`
	FileURL     string       `json:"fileUrl"`
	ChartURL    string       `json:"chartUrl"`
	CSVURL      string       `json:"csvUrl"`
	ImageDate   string       `json:"imageDate"`
}

// Service wires the pipeline collaborators. All dependencies are injected;
// construct one per process and share it across requests (it holds no
// per-request state).
type Service struct {
	Catalog   ndvi.Catalog
	Fetcher   ndvi.Fetcher
	Exporter  RasterExporter
	Limits    properties.LimitsConfig
	OutputDir string
	// OnInterval is an optional per-interval progress hook.
	OnInterval func()
}

// ProcessNDVI runs the full pipeline for one request.
func (s *Service) ProcessNDVI(ctx context.Context, req Request) (*Result, error) {
	if len(req.Polygon) == 0 || req.StartDate == "" || req.EndDate == "" || req.Frequency == "" {
		return nil, ErrMissingParameters
	}

	// Area guard comes first: an oversized polygon must be rejected before
	// any catalog traffic.
	area, err := geo.ApproxAreaSqKm(req.Polygon)
	if err != nil {
		return nil, err
	}
	if area > s.Limits.MaxPolygonAreaSqKm {
		return nil, fmt.Errorf("polygon area (%.2f km²) exceeds the maximum allowed size (%.1f km²): %w",
			area, s.Limits.MaxPolygonAreaSqKm, ErrPolygonTooLarge)
	}

	fp, err := geo.FootprintFromCoords(req.Polygon)
	if err != nil {
		return nil, err
	}

	start, err := time.Parse(time.DateOnly, req.StartDate)
	if err != nil {
		return nil, fmt.Errorf("invalid startDate %q: %w", req.StartDate, ErrBadDate)
	}
	end, err := time.Parse(time.DateOnly, req.EndDate)
	if err != nil {
		return nil, fmt.Errorf("invalid endDate %q: %w", req.EndDate, ErrBadDate)
	}
	if start.After(end) {
		return nil, ErrDateOrder
	}

	intervals, err := ndvi.GenerateIntervals(start, end, ndvi.Cadence(req.Frequency))
	if err != nil {
		return nil, err
	}

	log.Printf("processing NDVI: %d %s intervals, footprint %.4f,%.4f..%.4f,%.4f (%.2f km²)",
		len(intervals), req.Frequency, fp.MinLon, fp.MinLat, fp.MaxLon, fp.MaxLat, area)

	assembler := &ndvi.Assembler{
		Catalog:      s.Catalog,
		Fetcher:      s.Fetcher,
		CloudCeiling: s.Limits.CloudCeiling,
		ResultLimit:  s.Limits.MaxImagesPerInterval,
		Workers:      s.Limits.Workers,
		KeepLayers:   true,
		OnInterval:   s.OnInterval,
	}
	run, err := assembler.Run(ctx, fp, intervals)
	if err != nil {
		return nil, err
	}

	return s.writeArtifacts(fp, run)
}

// writeArtifacts produces the overlay PNGs, chart, CSV and representative
// GeoTIFF under a per-request-unique token and assembles the result payload.
func (s *Service) writeArtifacts(fp geo.Footprint, run *ndvi.RunResult) (*Result, error) {
	if err := os.MkdirAll(s.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	token := time.Now().Format("20060102150405.000000")

	layers, err := output.RenderLayers(run.Layers, s.OutputDir, token)
	if err != nil {
		return nil, err
	}

	chartName := fmt.Sprintf("ndvi_chart_%s.png", token)
	if err := output.RenderChart(run.Series, filepath.Join(s.OutputDir, chartName)); err != nil {
		return nil, err
	}

	csvName := fmt.Sprintf("ndvi_series_%s.csv", token)
	if err := output.WriteSeriesCSV(run.Series, filepath.Join(s.OutputDir, csvName)); err != nil {
		return nil, err
	}

	bestDate := run.Best.CaptureDate.Format("2006-01-02")
	tiffName := fmt.Sprintf("ndvi_%s_%s.tif", bestDate, token)
	if err := s.Exporter.Export(run.BestGrid, fp, filepath.Join(s.OutputDir, tiffName)); err != nil {
		return nil, err
	}

	bounds := [2][2]float64{{fp.MinLat, fp.MinLon}, {fp.MaxLat, fp.MaxLon}}
	result := &Result{
		FileURL:   "/output/" + tiffName,
		ChartURL:  "/output/" + chartName,
		CSVURL:    "/output/" + csvName,
		ImageDate: bestDate,
	}
	for _, p := range run.Series {
		result.GraphData = append(result.GraphData, GraphPoint{
			Date:  p.Date.Format("2006-01-02"),
			Value: p.Value,
		})
	}
	for _, l := range layers {
		result.ImageLayers = append(result.ImageLayers, ImageLayer{
			Date:     l.Date.Format("2006-01-02"),
			URL:      "/output/" + l.FileName,
			Bounds:   bounds,
			MeanNDVI: l.Mean,
		})
	}
	return result, nil
}
