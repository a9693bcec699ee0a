// Package dataframe holds a minimal columnar table for CSV datasets. Values
// are kept as strings; typed access parses on demand and reports missing
// cells so the profiler and preprocessor can handle them explicitly.
package dataframe

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// missingTokens are the cell values treated as missing.
var missingTokens = map[string]bool{
	"": true, "na": true, "n/a": true, "nan": true, "null": true, "none": true,
}

// IsMissing reports whether a raw cell value counts as missing.
func IsMissing(v string) bool {
	return missingTokens[strings.ToLower(strings.TrimSpace(v))]
}

// DataFrame is an immutable columnar view over CSV records.
type DataFrame struct {
	columns []string
	index   map[string]int
	rows    [][]string
}

// ReadCSV parses a CSV stream with a header row.
func ReadCSV(r io.Reader) (*DataFrame, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 0 // enforce uniform width
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("csv has no header row")
		}
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	df := &DataFrame{
		columns: header,
		index:   make(map[string]int, len(header)),
	}
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("csv header column %d is empty", i+1)
		}
		if _, dup := df.index[name]; dup {
			return nil, fmt.Errorf("duplicate csv header column %q", name)
		}
		df.columns[i] = name
		df.index[name] = i
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv row %d: %w", len(df.rows)+2, err)
		}
		df.rows = append(df.rows, record)
	}
	return df, nil
}

// Columns returns the header names in order.
func (df *DataFrame) Columns() []string { return df.columns }

// NumRows returns the number of data rows.
func (df *DataFrame) NumRows() int { return len(df.rows) }

// NumColumns returns the number of columns.
func (df *DataFrame) NumColumns() int { return len(df.columns) }

// HasColumn reports whether the named column exists.
func (df *DataFrame) HasColumn(name string) bool {
	_, ok := df.index[name]
	return ok
}

// Column returns the raw string values of a column.
func (df *DataFrame) Column(name string) ([]string, error) {
	idx, ok := df.index[name]
	if !ok {
		return nil, fmt.Errorf("column %q not found", name)
	}
	out := make([]string, len(df.rows))
	for i, row := range df.rows {
		out[i] = row[idx]
	}
	return out, nil
}

// NumericColumn parses a column as float64. Missing and unparseable cells
// are reported through the second return value, aligned by row.
func (df *DataFrame) NumericColumn(name string) (values []float64, present []bool, err error) {
	raw, err := df.Column(name)
	if err != nil {
		return nil, nil, err
	}
	values = make([]float64, len(raw))
	present = make([]bool, len(raw))
	for i, cell := range raw {
		if IsMissing(cell) {
			continue
		}
		v, perr := strconv.ParseFloat(strings.TrimSpace(cell), 64)
		if perr != nil {
			continue
		}
		values[i] = v
		present[i] = true
	}
	return values, present, nil
}

// MissingCount returns how many cells of a column are missing.
func (df *DataFrame) MissingCount(name string) (int64, error) {
	raw, err := df.Column(name)
	if err != nil {
		return 0, err
	}
	var n int64
	for _, cell := range raw {
		if IsMissing(cell) {
			n++
		}
	}
	return n, nil
}

// Sample returns up to n leading non-missing values of a column.
func (df *DataFrame) Sample(name string, n int) ([]string, error) {
	raw, err := df.Column(name)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, n)
	for _, cell := range raw {
		if IsMissing(cell) {
			continue
		}
		out = append(out, strings.TrimSpace(cell))
		if len(out) == n {
			break
		}
	}
	return out, nil
}

// ValueCounts tallies non-missing values of a column.
func (df *DataFrame) ValueCounts(name string) (map[string]int64, error) {
	raw, err := df.Column(name)
	if err != nil {
		return nil, err
	}
	counts := map[string]int64{}
	for _, cell := range raw {
		if IsMissing(cell) {
			continue
		}
		counts[strings.TrimSpace(cell)]++
	}
	return counts, nil
}

// DuplicateRows counts rows that repeat an earlier row exactly.
func (df *DataFrame) DuplicateRows() int64 {
	seen := make(map[string]bool, len(df.rows))
	var dups int64
	for _, row := range df.rows {
		key := strings.Join(row, "\x1f")
		if seen[key] {
			dups++
		}
		seen[key] = true
	}
	return dups
}

// MemoryUsageBytes approximates the in-memory footprint of the cell data.
func (df *DataFrame) MemoryUsageBytes() int64 {
	var total int64
	for _, row := range df.rows {
		for _, cell := range row {
			total += int64(len(cell)) + 16
		}
	}
	return total
}
