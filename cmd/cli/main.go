package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/fatih/color"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/schollz/progressbar/v3"

	"github.com/greenscope/greenscope-api/internal/delivery"
	"github.com/greenscope/greenscope-api/internal/ndvi"
	"github.com/greenscope/greenscope-api/internal/properties"
	"github.com/greenscope/greenscope-api/internal/raster"
	"github.com/greenscope/greenscope-api/internal/sentinel"
)

func printBanner() {
	banner := figure.NewFigure("GreenScope", "isometric1", true)
	color.Cyan(banner.String())
	fmt.Println()
}

// polygonFromGeoJSON pulls the first polygon ring out of a GeoJSON file,
// accepting either a Feature/FeatureCollection or a bare geometry.
func polygonFromGeoJSON(path string) ([][]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var geom orb.Geometry
	if fc, err := geojson.UnmarshalFeatureCollection(data); err == nil && len(fc.Features) > 0 {
		geom = fc.Features[0].Geometry
	} else if f, err := geojson.UnmarshalFeature(data); err == nil {
		geom = f.Geometry
	} else if g, err := geojson.UnmarshalGeometry(data); err == nil {
		geom = g.Geometry()
	} else {
		return nil, fmt.Errorf("no polygon found in %s", path)
	}

	var ring orb.Ring
	switch g := geom.(type) {
	case orb.Polygon:
		ring = g[0]
	case orb.MultiPolygon:
		if len(g) == 0 {
			return nil, fmt.Errorf("empty multipolygon in %s", path)
		}
		ring = g[0][0]
	default:
		return nil, fmt.Errorf("geometry in %s is %T, expected a polygon", path, geom)
	}

	coords := make([][]float64, len(ring))
	for i, p := range ring {
		coords[i] = []float64{p.X(), p.Y()}
	}
	return coords, nil
}

func main() {
	geojsonPath := flag.String("geojson", "", "path to a GeoJSON file with the analysis polygon")
	startDate := flag.String("start", "", "start date (YYYY-MM-DD)")
	endDate := flag.String("end", "", "end date (YYYY-MM-DD)")
	cadence := flag.String("cadence", "monthly", `bucket cadence: "weekly" or "monthly"`)
	outDir := flag.String("out", "", "output directory (defaults to OUTPUT_DIR)")
	flag.Parse()

	printBanner()

	if *geojsonPath == "" || *startDate == "" || *endDate == "" {
		color.Red("usage: -geojson <file> -start YYYY-MM-DD -end YYYY-MM-DD [-cadence weekly|monthly]")
		os.Exit(2)
	}

	properties.LoadDotenv(".env", "../.env")
	cfg, err := properties.Load()
	if err != nil {
		color.Red("configuration error: %s", err)
		os.Exit(1)
	}
	if *outDir != "" {
		cfg.Output.Dir = *outDir
	}

	polygon, err := polygonFromGeoJSON(*geojsonPath)
	if err != nil {
		color.Red("failed to read polygon: %s", err)
		os.Exit(1)
	}

	client := sentinel.NewClient(cfg.Copernicus)
	var catalog ndvi.Catalog = client
	if cfg.Output.CacheDir != "" {
		catalog = sentinel.NewCachedCatalog(client, cfg.Output.CacheDir)
	}

	intervals, err := ndvi.GenerateIntervals(mustDate(*startDate), mustDate(*endDate), ndvi.Cadence(*cadence))
	if err != nil {
		color.Red("invalid request: %s", err)
		os.Exit(1)
	}
	bar := progressbar.Default(int64(len(intervals)), "Processing intervals")

	svc := &delivery.Service{
		Catalog:    catalog,
		Fetcher:    client,
		Exporter:   raster.Exporter{},
		Limits:     cfg.Limits,
		OutputDir:  cfg.Output.Dir,
		OnInterval: func() { bar.Add(1) },
	}

	result, err := svc.ProcessNDVI(context.Background(), delivery.Request{
		Polygon:   polygon,
		StartDate: *startDate,
		EndDate:   *endDate,
		Frequency: *cadence,
	})
	if err != nil {
		color.Red("\nprocessing failed: %s", err)
		os.Exit(1)
	}

	color.Green("\nSuccessful analysis!")
	color.Green("Representative image date: %s", result.ImageDate)
	color.Green("GeoTIFF:  %s%s", cfg.Output.Dir, trimURL(result.FileURL))
	color.Green("Chart:    %s%s", cfg.Output.Dir, trimURL(result.ChartURL))
	color.Green("Series:   %s%s", cfg.Output.Dir, trimURL(result.CSVURL))

	fmt.Println("\nSeries:")
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(result.GraphData)
}

// mustDate is only used to size the progress bar; ProcessNDVI re-validates.
func mustDate(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		color.Red("dates must be in YYYY-MM-DD format: %s", s)
		os.Exit(2)
	}
	return t
}

func trimURL(url string) string {
	return strings.TrimPrefix(url, "/output")
}
