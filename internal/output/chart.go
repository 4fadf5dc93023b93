package output

import (
	"fmt"

	"github.com/fogleman/gg"

	"github.com/greenscope/greenscope-api/internal/ndvi"
)

const (
	chartWidth  = 900
	chartHeight = 450
	marginLeft  = 70
	marginRight = 30
	marginTop   = 30
	marginBot   = 60
)

// RenderChart draws the mean-NDVI trend as a PNG. Gaps in the series break
// the line instead of dipping to zero. The series must already be sorted by
// date, which the assembler guarantees.
func RenderChart(series []ndvi.SeriesPoint, path string) error {
	if len(series) == 0 {
		return fmt.Errorf("cannot chart an empty series")
	}

	dc := gg.NewContext(chartWidth, chartHeight)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	plotW := float64(chartWidth - marginLeft - marginRight)
	plotH := float64(chartHeight - marginTop - marginBot)

	first, last := series[0].Date, series[len(series)-1].Date
	span := last.Sub(first).Seconds()

	xAt := func(i int) float64 {
		if span == 0 {
			return marginLeft + plotW/2
		}
		return marginLeft + plotW*series[i].Date.Sub(first).Seconds()/span
	}
	yAt := func(v float64) float64 {
		t := (v - scaleMin) / (scaleMax - scaleMin)
		return marginTop + plotH*(1-t)
	}

	// Horizontal gridlines and y labels every 0.2.
	dc.SetRGB(0.85, 0.85, 0.85)
	dc.SetLineWidth(1)
	for v := scaleMin; v <= scaleMax+1e-9; v += 0.2 {
		y := yAt(v)
		dc.DrawLine(marginLeft, y, float64(chartWidth-marginRight), y)
		dc.Stroke()
		dc.SetRGB(0.3, 0.3, 0.3)
		dc.DrawStringAnchored(fmt.Sprintf("%.1f", v), marginLeft-10, y, 1, 0.4)
		dc.SetRGB(0.85, 0.85, 0.85)
	}

	// Axes.
	dc.SetRGB(0.2, 0.2, 0.2)
	dc.SetLineWidth(1.5)
	dc.DrawLine(marginLeft, marginTop, marginLeft, marginTop+plotH)
	dc.DrawLine(marginLeft, marginTop+plotH, marginLeft+plotW, marginTop+plotH)
	dc.Stroke()

	// Date labels on present points, rotated is overkill for <= 50 points;
	// label first, last and every present point in between sparsely.
	labelEvery := len(series)/8 + 1
	for i, p := range series {
		if i%labelEvery != 0 && i != len(series)-1 {
			continue
		}
		dc.SetRGB(0.3, 0.3, 0.3)
		dc.DrawStringAnchored(p.Date.Format("2006-01-02"), xAt(i), marginTop+plotH+20, 0.5, 0.5)
	}

	// Trend line, broken at gaps.
	dc.SetRGB(0.13, 0.55, 0.13)
	dc.SetLineWidth(2)
	penDown := false
	for i, p := range series {
		if p.Value == nil {
			penDown = false
			continue
		}
		x, y := xAt(i), yAt(*p.Value)
		if penDown {
			dc.LineTo(x, y)
		} else {
			dc.MoveTo(x, y)
			penDown = true
		}
	}
	dc.Stroke()

	// Point markers, colored by value.
	for i, p := range series {
		if p.Value == nil {
			continue
		}
		c := ndviColor(*p.Value)
		dc.SetRGB255(int(c.R), int(c.G), int(c.B))
		dc.DrawCircle(xAt(i), yAt(*p.Value), 4)
		dc.Fill()
	}

	dc.SetRGB(0.1, 0.1, 0.1)
	dc.DrawStringAnchored("Mean NDVI", float64(chartWidth)/2, 15, 0.5, 0.5)

	if err := dc.SavePNG(path); err != nil {
		return fmt.Errorf("failed to save chart: %w", err)
	}
	return nil
}
