package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// Dataset is a flattened fee report: a fixed column set and rows keyed by
// column name. Rows only fill the columns of their section (summary, payment
// method, status, student); the remaining cells stay empty so every record
// keeps the full column count.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}

// CSVExporter renders a fee report dataset as CSV for download.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render writes the header row followed by each report row in column order.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("report dataset has no columns")
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(data.Headers); err != nil {
		return nil, fmt.Errorf("write report header: %w", err)
	}

	record := make([]string, len(data.Headers))
	for _, row := range data.Rows {
		for i, column := range data.Headers {
			record[i] = row[column]
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write report row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush report: %w", err)
	}
	return buf.Bytes(), nil
}
