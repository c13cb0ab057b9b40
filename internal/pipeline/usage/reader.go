package usage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// ReadCSV reads an uploaded usage log into a header plus raw records.
// Records are kept as strings; all coercion happens in Normalize.
func ReadCSV(r io.Reader) ([]string, [][]string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	rows := make([][]string, 0)
	for {
		record, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, nil, fmt.Errorf("error reading record: %w", err)
		}
		rows = append(rows, record)
	}

	return header, rows, nil
}
