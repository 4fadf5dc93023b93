package output

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/greenscope/greenscope-api/internal/ndvi"
)

// LayerArtifact describes one rendered overlay file.
type LayerArtifact struct {
	Date     time.Time
	Mean     float64
	FileName string
}

// RenderOverlay rasterizes an index grid onto an RGBA canvas. No-data cells
// stay fully transparent so the map base layer shows through.
func RenderOverlay(grid *ndvi.IndexGrid) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, grid.Width, grid.Height))
	for y := 0; y < grid.Height; y++ {
		for x := 0; x < grid.Width; x++ {
			i := y*grid.Width + x
			if !grid.Valid[i] {
				img.SetRGBA(x, y, color.RGBA{})
				continue
			}
			img.SetRGBA(x, y, ndviColor(grid.Values[i]))
		}
	}
	return img
}

// RenderLayers writes one overlay PNG per layer into dir, named with the
// capture date and the per-request token. Layers are independent, so they
// render concurrently.
func RenderLayers(layers []ndvi.Layer, dir, token string) ([]LayerArtifact, error) {
	artifacts := make([]LayerArtifact, len(layers))

	var g errgroup.Group
	for i, layer := range layers {
		i, layer := i, layer
		g.Go(func() error {
			name := fmt.Sprintf("ndvi_map_%s_%s.png", layer.Date.Format("2006-01-02"), token)
			if err := savePNG(RenderOverlay(layer.Grid), filepath.Join(dir, name)); err != nil {
				return fmt.Errorf("failed to render layer %s: %w", layer.Date.Format("2006-01-02"), err)
			}
			artifacts[i] = LayerArtifact{Date: layer.Date, Mean: layer.Mean, FileName: name}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return artifacts, nil
}

func savePNG(img image.Image, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}
