package ingest

import (
	"fmt"
	"sort"

	"github.com/neomantra/pointline"
)

// NormalizeToTableSpec enforces a TableSpec's column closure (§4.A, §8
// scenario S3): every required column must be present, every scaled column must
// already be a pre-scaled Int64 (never cast from a float at this
// layer), missing nullable columns are filled with an all-null column,
// and the result is projected to the spec's declared column order.
func NormalizeToTableSpec(df *pointline.Frame, spec pointline.TableSpec) (*pointline.Frame, error) {
	var missing []string
	for _, col := range spec.RequiredColumns() {
		if !df.Has(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("cannot normalize %q: missing required columns %v", spec.Name, missing)
	}

	out := df
	n := df.NumRows()
	for _, cs := range spec.Columns {
		if !cs.Nullable || out.Has(cs.Name) {
			continue
		}
		out = out.WithColumn(nullColumnFor(cs, n))
	}

	for _, name := range spec.ScaledColumns() {
		col := out.Column(name)
		if col == nil {
			continue
		}
		if col.Dtype != pointline.Int64 {
			cs, _ := spec.Column(name)
			return nil, fmt.Errorf(
				"column %q in %q must be pre-scaled Int64 (scale=%d); got %s. "+
					"Convert before normalize_to_table_spec().",
				name, spec.Name, cs.Scale, col.Dtype,
			)
		}
	}

	return out.Select(spec.ColumnNames()...)
}

func nullColumnFor(cs pointline.ColumnSpec, n int) *pointline.Column {
	col := &pointline.Column{Name: cs.Name, Dtype: cs.Dtype}
	switch cs.Dtype {
	case pointline.Int64:
		col.I64 = make([]int64, n)
	case pointline.Float64:
		col.F64 = make([]float64, n)
	case pointline.Utf8:
		col.Str = make([]string, n)
	case pointline.Bool:
		col.Bln = make([]bool, n)
	case pointline.Date, pointline.Int32:
		col.D32 = make([]int32, n)
	}
	col.Valid = make([]bool, n)
	return col
}
