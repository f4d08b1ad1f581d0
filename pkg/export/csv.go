package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
)

var errNoHeaders = errors.New("dataset has no headers")

// CSVExporter writes the header row, one line per record, then each footer as a label,value pair.
type CSVExporter struct {
	// Comma overrides the field separator when non-zero.
	Comma rune
}

func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, errNoHeaders
	}
	records := make([][]string, 0, 1+len(data.Rows)+len(data.Footer))
	records = append(records, data.Headers)
	for _, row := range data.Rows {
		records = append(records, data.record(row))
	}
	for _, line := range data.Footer {
		records = append(records, []string{line[0], line[1]})
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if e.Comma != 0 {
		w.Comma = e.Comma
	}
	if err := w.WriteAll(records); err != nil {
		return nil, fmt.Errorf("render csv %q: %w", data.Title, err)
	}
	return buf.Bytes(), nil
}
