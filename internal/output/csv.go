package output

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"

	"github.com/greenscope/greenscope-api/internal/ndvi"
)

type seriesRow struct {
	Date string   `csv:"date"`
	Mean *float64 `csv:"mean_ndvi"`
}

// WriteSeriesCSV exports the series as a two-column CSV. Gaps become empty
// cells, not zeros.
func WriteSeriesCSV(series []ndvi.SeriesPoint, path string) error {
	rows := make([]seriesRow, len(series))
	for i, p := range series {
		rows[i] = seriesRow{Date: p.Date.Format("2006-01-02"), Mean: p.Value}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create series CSV: %w", err)
	}
	defer f.Close()

	if err := gocsv.MarshalFile(&rows, f); err != nil {
		return fmt.Errorf("failed to write series CSV: %w", err)
	}
	return nil
}
