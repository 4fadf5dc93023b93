// Package raster writes the representative index grid as a georeferenced
// single-band GeoTIFF.
package raster

import (
	"fmt"

	"github.com/airbusgeo/godal"

	"github.com/greenscope/greenscope-api/internal/geo"
	"github.com/greenscope/greenscope-api/internal/ndvi"
)

// NoDataValue is the declared nodata marker in exported rasters. It exists
// only at this file-format boundary; inside the pipeline validity is a
// separate mask.
const NoDataValue = -999.0

// GeoTransform builds the north-up affine transform mapping pixel row/column
// to geographic coordinates for a grid covering the footprint.
func GeoTransform(fp geo.Footprint, width, height int) [6]float64 {
	return [6]float64{
		fp.MinLon, (fp.MaxLon - fp.MinLon) / float64(width), 0,
		fp.MaxLat, 0, -(fp.MaxLat - fp.MinLat) / float64(height),
	}
}

// Exporter writes GeoTIFF artifacts.
type Exporter struct{}

// Export writes the grid to path as a Float64 GeoTIFF in EPSG:4326 with the
// nodata value declared in the band metadata, so GIS tools render invalid
// cells transparently.
func (Exporter) Export(grid *ndvi.IndexGrid, fp geo.Footprint, path string) error {
	godal.RegisterInternalDrivers()

	ds, err := godal.Create(godal.GTiff, path, 1, godal.Float64, grid.Width, grid.Height)
	if err != nil {
		return fmt.Errorf("failed to create GeoTIFF: %w", err)
	}
	defer ds.Close()

	if err := ds.SetGeoTransform(GeoTransform(fp, grid.Width, grid.Height)); err != nil {
		return fmt.Errorf("failed to set geotransform: %w", err)
	}
	sr, err := godal.NewSpatialRefFromEPSG(4326)
	if err != nil {
		return fmt.Errorf("failed to build spatial reference: %w", err)
	}
	defer sr.Close()
	if err := ds.SetSpatialRef(sr); err != nil {
		return fmt.Errorf("failed to set spatial reference: %w", err)
	}

	band := ds.Bands()[0]
	if err := band.SetNoData(NoDataValue); err != nil {
		return fmt.Errorf("failed to declare nodata value: %w", err)
	}

	buf := make([]float64, grid.Width*grid.Height)
	for i := range buf {
		if grid.Valid[i] {
			buf[i] = grid.Values[i]
		} else {
			buf[i] = NoDataValue
		}
	}
	if err := band.Write(0, 0, buf, grid.Width, grid.Height); err != nil {
		return fmt.Errorf("failed to write raster data: %w", err)
	}
	return nil
}
