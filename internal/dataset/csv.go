package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/maintsense/backend/internal/errs"
)

// Table is a parsed tabular upload. Column labels are trimmed and
// lowercased so "Temperature " and "temperature" address the same column.
type Table struct {
	Columns []string
	Rows    []map[string]string
}

func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// ParseCSV reads an uploaded CSV byte stream into a Table. Empty content,
// a header-only file or unparseable rows fail with ErrMalformedInput.
func ParseCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrMalformedInput, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("%w: no data rows", errs.ErrMalformedInput)
	}

	columns := make([]string, len(records[0]))
	for i, label := range records[0] {
		columns[i] = strings.ToLower(strings.TrimSpace(label))
	}

	rows := make([]map[string]string, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(map[string]string, len(columns))
		for i, col := range columns {
			if i < len(record) {
				row[col] = strings.TrimSpace(record[i])
			}
		}
		rows = append(rows, row)
	}

	return &Table{Columns: columns, Rows: rows}, nil
}
