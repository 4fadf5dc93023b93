package sentinel

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/airbusgeo/godal"

	"github.com/greenscope/greenscope-api/internal/ndvi"
)

// decodeBandPair reads the process-API TIFF (band 1 = red, band 2 = NIR,
// band 3 = data mask) into row-major slices. The bytes are staged through a
// temp file because GDAL drivers read from paths.
func decodeBandPair(tiff []byte) (ndvi.BandPair, error) {
	godal.RegisterInternalDrivers()

	tmp, err := os.CreateTemp("", "bands-*.tif")
	if err != nil {
		return ndvi.BandPair{}, fmt.Errorf("failed to stage TIFF: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)
	if _, err := tmp.Write(tiff); err != nil {
		tmp.Close()
		return ndvi.BandPair{}, fmt.Errorf("failed to stage TIFF: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return ndvi.BandPair{}, fmt.Errorf("failed to stage TIFF: %w", err)
	}

	ds, err := godal.Open(filepath.Clean(tmpPath), godal.ErrLogger(func(ec godal.ErrorCategory, code int, msg string) error {
		if ec == godal.CE_Warning {
			return nil
		}
		return fmt.Errorf("gdal: %s", msg)
	}))
	if err != nil {
		return ndvi.BandPair{}, fmt.Errorf("failed to open TIFF: %w", err)
	}
	defer ds.Close()

	bands := ds.Bands()
	if len(bands) < 3 {
		return ndvi.BandPair{}, fmt.Errorf("expected 3 bands, got %d", len(bands))
	}

	width := ds.Structure().SizeX
	height := ds.Structure().SizeY

	red, err := readBand(bands[0], width, height)
	if err != nil {
		return ndvi.BandPair{}, fmt.Errorf("failed to read red band: %w", err)
	}
	nir, err := readBand(bands[1], width, height)
	if err != nil {
		return ndvi.BandPair{}, fmt.Errorf("failed to read NIR band: %w", err)
	}
	maskValues, err := readBand(bands[2], width, height)
	if err != nil {
		return ndvi.BandPair{}, fmt.Errorf("failed to read data mask: %w", err)
	}

	mask := make([]bool, len(maskValues))
	for i, v := range maskValues {
		mask[i] = v != 0
	}

	return ndvi.BandPair{Width: width, Height: height, Red: red, NIR: nir, Mask: mask}, nil
}

func readBand(band godal.Band, width, height int) ([]float64, error) {
	data := make([]float64, width*height)
	for y := 0; y < height; y++ {
		if err := band.Read(0, y, data[y*width:(y+1)*width], width, 1); err != nil {
			return nil, err
		}
	}
	return data, nil
}
