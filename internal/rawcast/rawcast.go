// Package rawcast casts raw Utf8 bronze columns into typed columns for the
// vendors/tardis and vendors/quant360 parsers, preserving the null mask
// across the cast (a blank CSV cell stays null rather than becoming zero).
package rawcast

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/neomantra/pointline"
)

// Float64 casts a Utf8 column to Float64, row by row.
func Float64(col *pointline.Column, context string) (*pointline.Column, error) {
	n := col.Len()
	out := make([]float64, n)
	var valid []bool
	for i := 0; i < n; i++ {
		if col.IsNull(i) {
			valid = markNull(valid, n, i)
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(col.Str[i]), 64)
		if err != nil {
			return nil, fmt.Errorf("%s: column %q row %d: %w", context, col.Name, i, err)
		}
		out[i] = v
	}
	result := pointline.NewColumn(col.Name, out)
	result.Valid = valid
	return result, nil
}

// Int64 casts a Utf8 column to Int64, row by row.
func Int64(col *pointline.Column, context string) (*pointline.Column, error) {
	n := col.Len()
	out := make([]int64, n)
	var valid []bool
	for i := 0; i < n; i++ {
		if col.IsNull(i) {
			valid = markNull(valid, n, i)
			continue
		}
		v, err := strconv.ParseInt(strings.TrimSpace(col.Str[i]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: column %q row %d: %w", context, col.Name, i, err)
		}
		out[i] = v
	}
	result := pointline.NewColumn(col.Name, out)
	result.Valid = valid
	return result, nil
}

// Lower trims and lowercases every cell of a Utf8 column, preserving nulls.
func Lower(col *pointline.Column) *pointline.Column {
	return mapStrings(col, strings.ToLower)
}

// Trim trims whitespace from every cell of a Utf8 column, preserving nulls.
func Trim(col *pointline.Column) *pointline.Column {
	return mapStrings(col, func(s string) string { return s })
}

func mapStrings(col *pointline.Column, fn func(string) string) *pointline.Column {
	n := col.Len()
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = fn(strings.TrimSpace(col.Str[i]))
	}
	result := pointline.NewColumn(col.Name, out)
	result.Valid = col.Valid
	return result
}

func markNull(valid []bool, n, i int) []bool {
	if valid == nil {
		valid = make([]bool, n)
		for k := range valid {
			valid[k] = true
		}
	}
	valid[i] = false
	return valid
}

// FirstPresentInt64 returns the first candidate column present in frame,
// cast to Int64, or an all-null Int64 column named want if none are present.
func FirstPresentInt64(frame *pointline.Frame, want string, context string, candidates ...string) (*pointline.Column, error) {
	for _, name := range candidates {
		if c := frame.Column(name); c != nil {
			cast, err := Int64(c, context)
			if err != nil {
				return nil, err
			}
			cast.Name = want
			return cast, nil
		}
	}
	n := frame.NumRows()
	col := &pointline.Column{Name: want, Dtype: pointline.Int64, I64: make([]int64, n), Valid: make([]bool, n)}
	return col, nil
}
