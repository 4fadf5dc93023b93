package ndvi

import (
	"context"
	"errors"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/gammazero/workerpool"

	"github.com/greenscope/greenscope-api/internal/geo"
)

// Acquisition describes one candidate catalog scene. Ephemeral: it exists
// only while its interval is being processed.
type Acquisition struct {
	ID            string
	CaptureDate   time.Time
	CloudFraction float64
}

// Catalog searches the remote image catalog for candidate acquisitions
// intersecting the footprint and interval, already filtered server-side to
// cloudFraction <= ceiling and capped at limit results.
type Catalog interface {
	Search(ctx context.Context, fp geo.Footprint, iv Interval, cloudCeiling float64, limit int) ([]Acquisition, error)
}

// Fetcher retrieves the red/NIR band pair for one capture day over the
// footprint.
type Fetcher interface {
	FetchBands(ctx context.Context, fp geo.Footprint, day time.Time) (BandPair, error)
}

// SeriesPoint is one time-series entry. Value is nil when the interval
// produced no usable aggregate (a gap).
type SeriesPoint struct {
	Date  time.Time
	Value *float64
}

// Layer pairs one interval's index grid with its capture date and aggregate,
// for per-interval overlay rendering.
type Layer struct {
	Date time.Time
	Mean float64
	Grid *IndexGrid
}

// RunResult is the outcome of one full assembly.
type RunResult struct {
	Series []SeriesPoint
	// Best is the least-cloudy acquisition across the whole run; BestGrid is
	// its index grid, kept for the full-resolution export.
	Best     *Acquisition
	BestGrid *IndexGrid
	// Layers holds one entry per interval with a present aggregate, sorted by
	// date. Populated only when KeepLayers is set.
	Layers []Layer
}

// Assembler drives the scheduler -> selector -> index pipeline across all
// intervals. Intervals are independent, so they are processed on a bounded
// worker pool; ordering of the returned series is restored by a final sort.
type Assembler struct {
	Catalog      Catalog
	Fetcher      Fetcher
	CloudCeiling float64
	ResultLimit  int
	Workers      int
	KeepLayers   bool
	// OnInterval, when set, is called once per finished interval.
	OnInterval func()
}

// Run processes every interval and assembles the series. Soft failures (no
// candidate, provider error, fully masked image) are recorded as gaps and
// never abort the run; a shape mismatch from Compute does, since it signals a
// wiring bug. When no interval yields an aggregate the run reports
// ErrNoUsableData.
func (a *Assembler) Run(ctx context.Context, fp geo.Footprint, intervals []Interval) (*RunResult, error) {
	workers := a.Workers
	if workers < 1 {
		workers = 1
	}

	var (
		mu      sync.Mutex
		points  = make([]SeriesPoint, len(intervals))
		layers  []Layer
		best    *Acquisition
		bestIdx *IndexGrid
		fatal   error
	)

	wp := workerpool.New(workers)
	for i, iv := range intervals {
		i, iv := i, iv
		wp.Submit(func() {
			point, layer, cand, grid, err := a.processInterval(ctx, fp, iv)

			mu.Lock()
			defer mu.Unlock()
			if err != nil && fatal == nil {
				fatal = err
			}
			points[i] = point
			if layer != nil && a.KeepLayers {
				layers = append(layers, *layer)
			}
			if cand != nil && betterAcquisition(cand, best) {
				best = cand
				bestIdx = grid
			}
			if a.OnInterval != nil {
				a.OnInterval()
			}
		})
	}
	wp.StopWait()

	if fatal != nil {
		return nil, fatal
	}

	present := 0
	for _, p := range points {
		if p.Value != nil {
			present++
		}
	}
	if present == 0 {
		return nil, ErrNoUsableData
	}

	// Selection order is chronological by interval, but acquisition dates can
	// land out of order; ordering is a post-condition, not an artifact of the
	// execution schedule.
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	sort.Slice(layers, func(i, j int) bool { return layers[i].Date.Before(layers[j].Date) })

	return &RunResult{Series: points, Best: best, BestGrid: bestIdx, Layers: layers}, nil
}

// processInterval handles one bucket: select the best candidate, fetch its
// bands, compute the index. A nil-valued point with the interval start date
// marks a gap. Only ErrShapeMismatch is returned as an error.
func (a *Assembler) processInterval(ctx context.Context, fp geo.Footprint, iv Interval) (SeriesPoint, *Layer, *Acquisition, *IndexGrid, error) {
	gap := SeriesPoint{Date: iv.Start}

	cand, err := a.selectBest(ctx, fp, iv)
	if err != nil {
		if !errors.Is(err, ErrNoAcquisition) {
			log.Printf("interval %s: %v; recording gap", iv.Start.Format("2006-01-02"), err)
		}
		return gap, nil, nil, nil, nil
	}

	bands, err := a.Fetcher.FetchBands(ctx, fp, cand.CaptureDate)
	if err != nil {
		log.Printf("interval %s: band fetch for %s failed: %v; recording gap",
			iv.Start.Format("2006-01-02"), cand.ID, err)
		return gap, nil, nil, nil, nil
	}

	grid, err := Compute(bands)
	if err != nil {
		return gap, nil, nil, nil, err
	}

	// The series entry carries the acquisition date, not the interval start:
	// that is the date the pixels were actually captured.
	point := SeriesPoint{Date: cand.CaptureDate}
	mean, ok := grid.Mean()
	if !ok {
		return point, nil, nil, nil, nil
	}
	point.Value = &mean
	layer := &Layer{Date: cand.CaptureDate, Mean: mean, Grid: grid}
	return point, layer, &cand, grid, nil
}

// selectBest queries the catalog for the interval and picks the least-cloudy
// candidate, breaking ties by earliest capture date. Zero candidates map to
// ErrNoAcquisition.
func (a *Assembler) selectBest(ctx context.Context, fp geo.Footprint, iv Interval) (Acquisition, error) {
	candidates, err := a.Catalog.Search(ctx, fp, iv, a.CloudCeiling, a.ResultLimit)
	if err != nil {
		return Acquisition{}, err
	}
	if len(candidates) == 0 {
		return Acquisition{}, ErrNoAcquisition
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if betterAcquisition(&c, &best) {
			best = c
		}
	}
	return best, nil
}

func betterAcquisition(cand, cur *Acquisition) bool {
	if cur == nil {
		return true
	}
	if cand.CloudFraction != cur.CloudFraction {
		return cand.CloudFraction < cur.CloudFraction
	}
	return cand.CaptureDate.Before(cur.CaptureDate)
}
