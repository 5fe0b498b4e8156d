// Package dataset loads uploaded CSV files and derives the column context
// used to ground analysis prompts.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ColumnType classifies a column the way the analysis prompts expect.
type ColumnType string

const (
	TypeInt    ColumnType = "int64"
	TypeFloat  ColumnType = "float64"
	TypeObject ColumnType = "object"
)

// Dataset is a parsed CSV file.
type Dataset struct {
	FileName string
	Columns  []string
	Rows     [][]string
	Types    map[string]ColumnType
}

// Load parses the CSV file at path. The first row is the header.
func Load(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	ds, err := Parse(f, filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return ds, nil
}

// Parse reads CSV data from r. fileName is kept for prompt context.
func Parse(r io.Reader, fileName string) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // tolerate ragged rows

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if len(header) == 0 {
		return nil, fmt.Errorf("empty header row")
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		rows = append(rows, record)
	}

	ds := &Dataset{
		FileName: fileName,
		Columns:  header,
		Rows:     rows,
		Types:    make(map[string]ColumnType, len(header)),
	}
	for i, col := range header {
		ds.Types[col] = inferColumnType(rows, i)
	}
	return ds, nil
}

// inferColumnType classifies column i by trying to parse every non-empty
// value. A column with no values at all is an object column.
func inferColumnType(rows [][]string, i int) ColumnType {
	sawValue := false
	sawFloat := false

	for _, row := range rows {
		if i >= len(row) {
			continue
		}
		v := strings.TrimSpace(row[i])
		if v == "" {
			continue
		}
		sawValue = true

		if _, err := strconv.ParseInt(v, 10, 64); err == nil {
			continue
		}
		if _, err := strconv.ParseFloat(v, 64); err == nil {
			sawFloat = true
			continue
		}
		return TypeObject
	}

	if !sawValue {
		return TypeObject
	}
	if sawFloat {
		return TypeFloat
	}
	return TypeInt
}

// NumericalColumns returns columns with int or float types, in header order.
func (d *Dataset) NumericalColumns() []string {
	var cols []string
	for _, c := range d.Columns {
		if t := d.Types[c]; t == TypeInt || t == TypeFloat {
			cols = append(cols, c)
		}
	}
	return cols
}

// CategoricalColumns returns columns that are not numerical, in header order.
func (d *Dataset) CategoricalColumns() []string {
	var cols []string
	for _, c := range d.Columns {
		if d.Types[c] == TypeObject {
			cols = append(cols, c)
		}
	}
	return cols
}

// RowCount returns the number of data rows.
func (d *Dataset) RowCount() int {
	return len(d.Rows)
}
