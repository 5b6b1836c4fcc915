package commands

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// readSeriesCSV reads a time series from a CSV file: one observation per
// row, last field per row. A non-numeric first row is treated as a
// header and skipped.
func readSeriesCSV(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open data file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	series := make([]float64, 0, len(records))
	for i, rec := range records {
		if len(rec) == 0 {
			continue
		}
		field := strings.TrimSpace(rec[len(rec)-1])
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			if i == 0 {
				continue // header row
			}
			return nil, fmt.Errorf("bad value %q on line %d of %s", field, i+1, path)
		}
		series = append(series, v)
	}

	if len(series) == 0 {
		return nil, fmt.Errorf("no observations in %s", path)
	}
	return series, nil
}

// writeSeriesCSV writes a time series to a CSV file with a header row.
func writeSeriesCSV(path string, x []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"x"}); err != nil {
		return err
	}
	for _, v := range x {
		if err := w.Write([]string{strconv.FormatFloat(v, 'g', -1, 64)}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
