// Package dq implements the per-table data-quality profiler and the
// cross-table consistency checks (§4.H): row/null/duplicate counts,
// numeric profiling, freshness, and symbol/manifest/partition
// reconciliation across the whole lake.
package dq

import (
	"fmt"
	"sort"

	"github.com/neomantra/pointline"
)

// tsColumnCandidates names, in priority order, the timestamp column a
// table is expected to carry for min/max/freshness computation. Event
// tables always have ts_event_us; control tables use whichever
// "when this row was produced" column they declare.
var tsColumnCandidates = []string{"ts_event_us", "created_at_ts_us", "logged_at_ts_us", "valid_from_ts_us", "computed_at_ts_us"}

func pickTSColumn(frame *pointline.Frame) (string, bool) {
	for _, name := range tsColumnCandidates {
		if c := frame.Column(name); c != nil && c.Dtype == pointline.Int64 {
			return name, true
		}
	}
	return "", false
}

// keyColumns returns the columns whose nulls and duplication the
// runner checks: business keys and tie-break keys, deduplicated,
// restricted to columns the spec actually declares.
func keyColumns(spec pointline.TableSpec) []string {
	seen := make(map[string]bool)
	var out []string
	for _, group := range [][]string{spec.BusinessKeys, spec.TieBreakKeys} {
		for _, name := range group {
			if seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

// missingColumns reports spec-declared columns absent from frame.
func missingColumns(frame *pointline.Frame, spec pointline.TableSpec) []string {
	var missing []string
	for _, c := range spec.Columns {
		if !frame.Has(c.Name) {
			missing = append(missing, c.Name)
		}
	}
	return missing
}

// nullCounts counts nulls per named column (columns absent from frame
// are skipped — missingColumns already reports those separately).
func nullCounts(frame *pointline.Frame, names []string) map[string]int64 {
	out := make(map[string]int64, len(names))
	for _, name := range names {
		c := frame.Column(name)
		if c == nil {
			continue
		}
		var n int64
		for i := 0; i < c.Len(); i++ {
			if c.IsNull(i) {
				n++
			}
		}
		out[name] = n
	}
	return out
}

// duplicateRows counts rows whose tie-break-key tuple repeats, per
// §4.H ("row_count - unique(tie_break_keys)").
func duplicateRows(frame *pointline.Frame, tieBreakKeys []string) int64 {
	if len(tieBreakKeys) == 0 || frame.NumRows() == 0 {
		return 0
	}
	cols := make([]*pointline.Column, 0, len(tieBreakKeys))
	for _, name := range tieBreakKeys {
		c := frame.Column(name)
		if c == nil {
			return 0
		}
		cols = append(cols, c)
	}
	seen := make(map[string]bool, frame.NumRows())
	var dup int64
	for row := 0; row < frame.NumRows(); row++ {
		key := rowKey(cols, row)
		if seen[key] {
			dup++
			continue
		}
		seen[key] = true
	}
	return dup
}

func rowKey(cols []*pointline.Column, row int) string {
	key := ""
	for _, c := range cols {
		key += cellString(c, row) + "\x1f"
	}
	return key
}

func cellString(c *pointline.Column, row int) string {
	if c.IsNull(row) {
		return "\x00"
	}
	switch c.Dtype {
	case pointline.Int64:
		return fmt.Sprintf("%d", c.I64[row])
	case pointline.Float64:
		return fmt.Sprintf("%g", c.F64[row])
	case pointline.Utf8:
		return c.Str[row]
	case pointline.Bool:
		return fmt.Sprintf("%t", c.Bln[row])
	case pointline.Date, pointline.Int32:
		return fmt.Sprintf("%d", c.D32[row])
	default:
		return ""
	}
}

// profileNumericColumns computes min/max/mean per numeric (Int64 or
// Float64) column, ignoring nulls and scale (raw integer units —
// callers wanting price/qty units divide by the column's declared
// Scale themselves).
func profileNumericColumns(frame *pointline.Frame, spec pointline.TableSpec) map[string]pointline.ColumnProfile {
	out := make(map[string]pointline.ColumnProfile)
	for _, cs := range spec.Columns {
		if cs.Dtype != pointline.Int64 && cs.Dtype != pointline.Float64 {
			continue
		}
		c := frame.Column(cs.Name)
		if c == nil {
			continue
		}
		prof, ok := profileOne(c)
		if ok {
			out[cs.Name] = prof
		}
	}
	return out
}

func profileOne(c *pointline.Column) (pointline.ColumnProfile, bool) {
	var n int
	var sum, min, max float64
	for i := 0; i < c.Len(); i++ {
		if c.IsNull(i) {
			continue
		}
		var v float64
		switch c.Dtype {
		case pointline.Int64:
			v = float64(c.I64[i])
		case pointline.Float64:
			v = c.F64[i]
		default:
			continue
		}
		if n == 0 {
			min, max = v, v
		} else {
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
		sum += v
		n++
	}
	if n == 0 {
		return pointline.ColumnProfile{}, false
	}
	return pointline.ColumnProfile{Min: min, Max: max, Mean: sum / float64(n)}, true
}

// partitionKey formats a partition-values map as dq_summary's
// partition_key string, matching storage's directory-key convention
// (sorted key=value segments) so results from dq line up with the
// files they were computed over.
func partitionKey(values map[string]string) string {
	if len(values) == 0 {
		return ""
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	// deterministic order matches groupByPartition's sorted key scheme
	sort.Strings(keys)
	out := ""
	for i, k := range keys {
		if i > 0 {
			out += "/"
		}
		out += k + "=" + values[k]
	}
	return out
}
