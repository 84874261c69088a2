package preprocess

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"adOptimizer/domain"
)

// ReadCSV turns a CSV export with a header row into raw records. Values stay
// strings; Process parses them.
func ReadCSV(r io.Reader) ([]domain.RawRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty csv", ErrInvalidInput)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read csv header: %v", ErrInvalidInput, err)
	}
	// exports saved by spreadsheet tools start with a byte order mark
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	var records []domain.RawRecord
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read csv line %d: %v", ErrInvalidInput, line, err)
		}
		if len(row) != len(header) {
			return nil, fmt.Errorf("%w: csv line %d has %d fields, header has %d", ErrInvalidInput, line, len(row), len(header))
		}

		rec := make(domain.RawRecord, len(header))
		for i, name := range header {
			rec[name] = row[i]
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: csv has no records", ErrInvalidInput)
	}
	return records, nil
}
