package pointline

import (
	"fmt"
	"sort"
)

// TableKind distinguishes the three kinds of registered table (§3).
type TableKind int

const (
	KindEvent TableKind = iota
	KindDimension
	KindControl
)

// ColumnSpec declares one column of a TableSpec: its name, dtype,
// nullability, and optional fixed-point scale (§4.A).
type ColumnSpec struct {
	Name     string
	Dtype    Dtype
	Nullable bool
	Scale    int64 // 0 means "not a scaled column"
}

// TableSpec is the declarative contract every ingested/stored frame for
// a table must satisfy (§3, §4.A).
type TableSpec struct {
	Name          string
	Kind          TableKind
	Columns       []ColumnSpec
	PartitionBy   []string
	BusinessKeys  []string
	TieBreakKeys  []string
	SchemaVersion int

	colIndex map[string]int
}

func newTableSpec(name string, kind TableKind, columns []ColumnSpec, partitionBy, businessKeys, tieBreakKeys []string, version int) TableSpec {
	ts := TableSpec{
		Name:          name,
		Kind:          kind,
		Columns:       columns,
		PartitionBy:   partitionBy,
		BusinessKeys:  businessKeys,
		TieBreakKeys:  tieBreakKeys,
		SchemaVersion: version,
	}
	ts.colIndex = make(map[string]int, len(columns))
	for i, c := range columns {
		ts.colIndex[c.Name] = i
	}
	return ts
}

// ColumnNames returns the declared column order.
func (t TableSpec) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Column returns the ColumnSpec for name, or false if undeclared.
func (t TableSpec) Column(name string) (ColumnSpec, bool) {
	i, ok := t.colIndex[name]
	if !ok {
		return ColumnSpec{}, false
	}
	return t.Columns[i], true
}

// RequiredColumns returns the non-nullable columns (§4.A).
func (t TableSpec) RequiredColumns() []string {
	var out []string
	for _, c := range t.Columns {
		if !c.Nullable {
			out = append(out, c.Name)
		}
	}
	return out
}

// ScaledColumns returns the columns with a declared fixed-point scale
// (§4.A).
func (t TableSpec) ScaledColumns() []string {
	var out []string
	for _, c := range t.Columns {
		if c.Scale != 0 {
			out = append(out, c.Name)
		}
	}
	return out
}

// validateClosure checks §8 property 1 (schema closure): partition,
// business, and tie-break keys must reference declared columns, and no
// column name may repeat.
func (t TableSpec) validateClosure() error {
	seen := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		if seen[c.Name] {
			return fmt.Errorf("pointline: table %q declares duplicate column %q", t.Name, c.Name)
		}
		seen[c.Name] = true
	}
	for _, group := range [][]string{t.PartitionBy, t.BusinessKeys, t.TieBreakKeys} {
		for _, name := range group {
			if !seen[name] {
				return fmt.Errorf("pointline: table %q key references undeclared column %q", t.Name, name)
			}
		}
	}
	return nil
}

// commonEventColumns are the columns every event-kind table carries
// (§3): exchange, trading_date, symbol, symbol_id, ts_event_us,
// ts_local_us (optional), file_id, file_seq.
func commonEventColumns() []ColumnSpec {
	return []ColumnSpec{
		{Name: "exchange", Dtype: Utf8, Nullable: false},
		{Name: "trading_date", Dtype: Date, Nullable: false},
		{Name: "symbol", Dtype: Utf8, Nullable: false},
		{Name: "symbol_id", Dtype: Int64, Nullable: false},
		{Name: "ts_event_us", Dtype: Int64, Nullable: false},
		{Name: "ts_local_us", Dtype: Int64, Nullable: true},
		{Name: "file_id", Dtype: Int64, Nullable: false},
		{Name: "file_seq", Dtype: Int64, Nullable: false},
	}
}

func eventTableKeys() (partitionBy, businessKeys, tieBreakKeys []string) {
	partitionBy = []string{"exchange", "trading_date"}
	tieBreakKeys = []string{"exchange", "symbol_id", "ts_event_us", "file_id", "file_seq"}
	businessKeys = []string{"file_id", "file_seq"}
	return
}

func withColumns(base []ColumnSpec, extra ...ColumnSpec) []ColumnSpec {
	out := make([]ColumnSpec, 0, len(base)+len(extra))
	out = append(out, base...)
	out = append(out, extra...)
	return out
}

// registry is the process-wide read-only map of table name -> TableSpec
// (§4.A). Built once at package init from a fixed catalog.
var registry map[string]TableSpec

func init() {
	partitionBy, businessKeys, tieBreakKeys := eventTableKeys()

	trades := newTableSpec("trades", KindEvent, withColumns(commonEventColumns(),
		ColumnSpec{Name: "side", Dtype: Utf8, Nullable: false},
		ColumnSpec{Name: "price", Dtype: Int64, Nullable: false, Scale: PriceScale},
		ColumnSpec{Name: "qty", Dtype: Int64, Nullable: false, Scale: QtyScale},
		ColumnSpec{Name: "is_buyer_maker", Dtype: Bool, Nullable: true},
		ColumnSpec{Name: "trade_id", Dtype: Utf8, Nullable: true},
	), partitionBy, businessKeys, tieBreakKeys, 1)

	quotes := newTableSpec("quotes", KindEvent, withColumns(commonEventColumns(),
		ColumnSpec{Name: "bid_price", Dtype: Int64, Nullable: false, Scale: PriceScale},
		ColumnSpec{Name: "ask_price", Dtype: Int64, Nullable: false, Scale: PriceScale},
		ColumnSpec{Name: "bid_qty", Dtype: Int64, Nullable: false, Scale: QtyScale},
		ColumnSpec{Name: "ask_qty", Dtype: Int64, Nullable: false, Scale: QtyScale},
	), partitionBy, businessKeys, tieBreakKeys, 1)

	orderbook := newTableSpec("orderbook_updates", KindEvent, withColumns(commonEventColumns(),
		ColumnSpec{Name: "side", Dtype: Utf8, Nullable: false},
		ColumnSpec{Name: "price", Dtype: Int64, Nullable: false, Scale: PriceScale},
		ColumnSpec{Name: "qty", Dtype: Int64, Nullable: false, Scale: QtyScale},
		ColumnSpec{Name: "is_snapshot", Dtype: Bool, Nullable: false},
		ColumnSpec{Name: "update_id", Dtype: Int64, Nullable: true},
	), partitionBy, businessKeys, tieBreakKeys, 1)

	derivTicker := newTableSpec("derivative_ticker", KindEvent, withColumns(commonEventColumns(),
		ColumnSpec{Name: "mark_price", Dtype: Int64, Nullable: false, Scale: PriceScale},
		ColumnSpec{Name: "index_price", Dtype: Int64, Nullable: true, Scale: PriceScale},
		ColumnSpec{Name: "funding_rate", Dtype: Float64, Nullable: true},
	), partitionBy, businessKeys, tieBreakKeys, 1)

	liquidations := newTableSpec("liquidations", KindEvent, withColumns(commonEventColumns(),
		ColumnSpec{Name: "side", Dtype: Utf8, Nullable: false},
		ColumnSpec{Name: "price", Dtype: Int64, Nullable: false, Scale: PriceScale},
		ColumnSpec{Name: "qty", Dtype: Int64, Nullable: false, Scale: QtyScale},
	), partitionBy, businessKeys, tieBreakKeys, 1)

	optionsChain := newTableSpec("options_chain", KindEvent, withColumns(commonEventColumns(),
		ColumnSpec{Name: "option_type", Dtype: Utf8, Nullable: false},
		ColumnSpec{Name: "strike", Dtype: Int64, Nullable: false, Scale: PriceScale},
		ColumnSpec{Name: "expiration_ts_us", Dtype: Int64, Nullable: false},
		ColumnSpec{Name: "underlying_symbol", Dtype: Utf8, Nullable: true},
		ColumnSpec{Name: "delta", Dtype: Float64, Nullable: true},
		ColumnSpec{Name: "gamma", Dtype: Float64, Nullable: true},
		ColumnSpec{Name: "theta", Dtype: Float64, Nullable: true},
		ColumnSpec{Name: "vega", Dtype: Float64, Nullable: true},
	), partitionBy, businessKeys, tieBreakKeys, 1)

	cnOrderEvents := newTableSpec("cn_order_events", KindEvent, withColumns(commonEventColumns(),
		ColumnSpec{Name: "order_no", Dtype: Int64, Nullable: false},
		ColumnSpec{Name: "order_price", Dtype: Int64, Nullable: false, Scale: PriceScale},
		ColumnSpec{Name: "order_qty", Dtype: Int64, Nullable: false, Scale: QtyScale},
		ColumnSpec{Name: "order_side", Dtype: Utf8, Nullable: false},
		ColumnSpec{Name: "order_type", Dtype: Utf8, Nullable: false},
		ColumnSpec{Name: "order_action", Dtype: Utf8, Nullable: false},
		ColumnSpec{Name: "biz_index", Dtype: Int64, Nullable: true},
		ColumnSpec{Name: "channel_no", Dtype: Int32, Nullable: true},
	), partitionBy, businessKeys, tieBreakKeys, 1)

	cnTickEvents := newTableSpec("cn_tick_events", KindEvent, withColumns(commonEventColumns(),
		ColumnSpec{Name: "tick_side", Dtype: Utf8, Nullable: false},
		ColumnSpec{Name: "tick_type", Dtype: Utf8, Nullable: false},
		ColumnSpec{Name: "price", Dtype: Int64, Nullable: false, Scale: PriceScale},
		ColumnSpec{Name: "qty", Dtype: Int64, Nullable: false, Scale: QtyScale},
		ColumnSpec{Name: "buy_order_no", Dtype: Int64, Nullable: true},
		ColumnSpec{Name: "sell_order_no", Dtype: Int64, Nullable: true},
		ColumnSpec{Name: "biz_index", Dtype: Int64, Nullable: true},
		ColumnSpec{Name: "channel_no", Dtype: Int32, Nullable: true},
	), partitionBy, businessKeys, tieBreakKeys, 1)

	l2Cols := withColumns(commonEventColumns(),
		ColumnSpec{Name: "trading_phase", Dtype: Utf8, Nullable: false},
	)
	for i := 1; i <= 10; i++ {
		l2Cols = append(l2Cols,
			ColumnSpec{Name: fmt.Sprintf("bid_price_%d", i), Dtype: Int64, Nullable: true, Scale: PriceScale},
			ColumnSpec{Name: fmt.Sprintf("bid_qty_%d", i), Dtype: Int64, Nullable: true, Scale: QtyScale},
			ColumnSpec{Name: fmt.Sprintf("ask_price_%d", i), Dtype: Int64, Nullable: true, Scale: PriceScale},
			ColumnSpec{Name: fmt.Sprintf("ask_qty_%d", i), Dtype: Int64, Nullable: true, Scale: QtyScale},
		)
	}
	l2Cols = append(l2Cols,
		ColumnSpec{Name: "total_bid_qty", Dtype: Int64, Nullable: true, Scale: QtyScale},
		ColumnSpec{Name: "total_ask_qty", Dtype: Int64, Nullable: true, Scale: QtyScale},
	)
	cnL2Snapshots := newTableSpec("cn_l2_snapshots", KindEvent, l2Cols, partitionBy, businessKeys, tieBreakKeys, 1)

	dimSymbol := newTableSpec("dim_symbol", KindDimension, []ColumnSpec{
		{Name: "symbol_id", Dtype: Int64, Nullable: false},
		{Name: "exchange", Dtype: Utf8, Nullable: false},
		{Name: "exchange_symbol", Dtype: Utf8, Nullable: false},
		{Name: "canonical_symbol", Dtype: Utf8, Nullable: false},
		{Name: "market_type", Dtype: Utf8, Nullable: true},
		{Name: "base_asset", Dtype: Utf8, Nullable: true},
		{Name: "quote_asset", Dtype: Utf8, Nullable: true},
		{Name: "tick_size", Dtype: Int64, Nullable: true, Scale: PriceScale},
		{Name: "lot_size", Dtype: Int64, Nullable: true, Scale: QtyScale},
		{Name: "contract_size", Dtype: Int64, Nullable: true, Scale: QtyScale},
		{Name: "valid_from_ts_us", Dtype: Int64, Nullable: false},
		{Name: "valid_until_ts_us", Dtype: Int64, Nullable: false},
		{Name: "is_current", Dtype: Bool, Nullable: false},
		{Name: "updated_at_ts_us", Dtype: Int64, Nullable: false},
	}, nil, []string{"exchange", "exchange_symbol", "valid_from_ts_us"}, []string{"exchange", "exchange_symbol", "valid_from_ts_us"}, 1)

	ingestManifest := newTableSpec("ingest_manifest", KindControl, []ColumnSpec{
		{Name: "file_id", Dtype: Int64, Nullable: false},
		{Name: "vendor", Dtype: Utf8, Nullable: false},
		{Name: "data_type", Dtype: Utf8, Nullable: false},
		{Name: "bronze_path", Dtype: Utf8, Nullable: false},
		{Name: "file_hash", Dtype: Utf8, Nullable: false},
		{Name: "status", Dtype: Utf8, Nullable: false},
		{Name: "rows_total", Dtype: Int64, Nullable: true},
		{Name: "rows_written", Dtype: Int64, Nullable: true},
		{Name: "rows_quarantined", Dtype: Int64, Nullable: true},
		{Name: "trading_date_min", Dtype: Date, Nullable: true},
		{Name: "trading_date_max", Dtype: Date, Nullable: true},
		{Name: "created_at_ts_us", Dtype: Int64, Nullable: false},
		{Name: "processed_at_ts_us", Dtype: Int64, Nullable: true},
		{Name: "status_reason", Dtype: Utf8, Nullable: true},
	}, nil, []string{"vendor", "data_type", "bronze_path", "file_hash"}, []string{"file_id"}, 1)

	validationLog := newTableSpec("validation_log", KindControl, []ColumnSpec{
		{Name: "file_id", Dtype: Int64, Nullable: false},
		{Name: "file_seq", Dtype: Int64, Nullable: true},
		{Name: "rule_name", Dtype: Utf8, Nullable: false},
		{Name: "severity", Dtype: Utf8, Nullable: false},
		{Name: "logged_at_ts_us", Dtype: Int64, Nullable: false},
		{Name: "field_name", Dtype: Utf8, Nullable: true},
		{Name: "field_value", Dtype: Utf8, Nullable: true},
		{Name: "ts_event_us", Dtype: Int64, Nullable: true},
		{Name: "symbol", Dtype: Utf8, Nullable: true},
		{Name: "symbol_id", Dtype: Int64, Nullable: true},
		{Name: "message", Dtype: Utf8, Nullable: true},
	}, nil, nil, []string{"logged_at_ts_us"}, 1)

	dqSummary := newTableSpec("dq_summary", KindControl, []ColumnSpec{
		{Name: "table_name", Dtype: Utf8, Nullable: false},
		{Name: "partition_key", Dtype: Utf8, Nullable: true},
		{Name: "row_count", Dtype: Int64, Nullable: false},
		{Name: "duplicate_rows", Dtype: Int64, Nullable: false},
		{Name: "min_ts_us", Dtype: Int64, Nullable: true},
		{Name: "max_ts_us", Dtype: Int64, Nullable: true},
		{Name: "freshness_lag_sec", Dtype: Int64, Nullable: true},
		{Name: "file_count", Dtype: Int64, Nullable: true},
		{Name: "total_bytes", Dtype: Int64, Nullable: true},
		{Name: "status", Dtype: Utf8, Nullable: false},
		{Name: "issue_counts_json", Dtype: Utf8, Nullable: true},
		{Name: "null_counts_json", Dtype: Utf8, Nullable: true},
		{Name: "profile_stats_json", Dtype: Utf8, Nullable: true},
		{Name: "computed_at_ts_us", Dtype: Int64, Nullable: false},
	}, nil, nil, []string{"table_name", "partition_key"}, 1)

	all := []TableSpec{
		trades, quotes, orderbook, derivTicker, liquidations, optionsChain,
		cnOrderEvents, cnTickEvents, cnL2Snapshots,
		dimSymbol, ingestManifest, validationLog, dqSummary,
	}
	registry = make(map[string]TableSpec, len(all))
	for _, ts := range all {
		if err := ts.validateClosure(); err != nil {
			panic(err)
		}
		registry[ts.Name] = ts
	}
}

// GetTableSpec returns the registered spec for name, or ErrUnknownTable.
func GetTableSpec(name string) (TableSpec, error) {
	ts, ok := registry[name]
	if !ok {
		return TableSpec{}, fmt.Errorf("%w: %q", ErrUnknownTable, name)
	}
	return ts, nil
}

// ListTableSpecs returns every registered table name, sorted.
func ListTableSpecs() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
