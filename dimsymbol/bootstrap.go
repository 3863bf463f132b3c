package dimsymbol

import "github.com/neomantra/pointline"

// snapshotAttrColumns are the tracked attributes compared for change
// detection on upsert (§4.C step 1). Order matches dim_symbol's spec.
var snapshotAttrColumns = []string{
	"canonical_symbol", "market_type", "base_asset", "quote_asset",
	"tick_size", "lot_size", "contract_size",
}

// Bootstrap builds the initial dimension from a vendor snapshot (§4.C
// "bootstrap"): assigns symbol_id, opens every row at effectiveTsUs with
// valid_until = VALID_UNTIL_MAX and is_current = true.
func Bootstrap(snapshot *pointline.Frame, effectiveTsUs int64) (*pointline.Frame, error) {
	withIDs, err := AssignSymbolIDs(snapshot)
	if err != nil {
		return nil, err
	}
	n := withIDs.NumRows()
	validFrom := fill(n, effectiveTsUs)
	validUntil := fill(n, pointline.ValidUntilMax)
	isCurrent := fillBool(n, true)
	updatedAt := fill(n, effectiveTsUs)

	dim := withIDs.
		WithColumn(pointline.NewColumn("valid_from_ts_us", validFrom)).
		WithColumn(pointline.NewColumn("valid_until_ts_us", validUntil)).
		WithColumn(pointline.NewColumn("is_current", isCurrent)).
		WithColumn(pointline.NewColumn("updated_at_ts_us", updatedAt))

	return projectToDimSchema(dim)
}

func fill(n int, v int64) []int64 {
	out := make([]int64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func fillBool(n int, v bool) []bool {
	out := make([]bool, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// projectToDimSchema orders/pads the frame to dim_symbol's declared
// column set, inserting null columns for any optional metadata the
// snapshot omitted.
func projectToDimSchema(df *pointline.Frame) (*pointline.Frame, error) {
	spec, err := pointline.GetTableSpec("dim_symbol")
	if err != nil {
		return nil, err
	}
	out := df
	n := df.NumRows()
	for _, cs := range spec.Columns {
		if out.Has(cs.Name) {
			continue
		}
		if !cs.Nullable {
			return nil, pointline.NewMissingColumnsError("dim_symbol", []string{cs.Name})
		}
		out = out.WithColumn(nullColumn(cs, n))
	}
	return out.Select(spec.ColumnNames()...)
}

// nullColumn builds an all-null column of length n and dtype cs.Dtype.
func nullColumn(cs pointline.ColumnSpec, n int) *pointline.Column {
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
	col.Valid = make([]bool, n) // all false => all null
	return col
}
