// Package query is the thin, partition-pruned read front-end (§4.I): it
// turns a time-range + exchange request into a DuckDB query over exactly
// the Parquet files a table's txnlog says are live, pushing down filters
// in a fixed order rather than scanning the whole table and filtering in
// Go. Built on internal/duckio for the actual SQL execution and on
// storage.EventStore for the live file set it is pruned from.
package query

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/neomantra/pointline"
	"github.com/neomantra/pointline/internal/duckio"
	"github.com/neomantra/pointline/internal/txnlog"
	"github.com/neomantra/pointline/storage"
)

// Params are a scan's request parameters. Exchange, StartTSUs, and
// EndTSUs are mandatory; the rest narrow or project the result.
type Params struct {
	Exchange  string
	Symbols   []string // optional: symbol IN (...)
	StartTSUs int64    // inclusive
	EndTSUs   int64    // exclusive
	TSCol     string   // "ts_event_us" (default) or "ts_local_us"
	Columns   []string // optional projection; nil/empty means all columns
}

// Scan runs table's scan (§4.I): exchange equality,
// symbol set membership (if given), trading_date range (only when table
// is date-partitioned), then ts_col range, each pushed into the DuckDB
// query in that order, with column projection applied last.
func Scan(events *storage.EventStore, table string, p Params) (*pointline.Frame, error) {
	spec, err := pointline.GetTableSpec(table)
	if err != nil {
		return nil, err
	}
	if p.Exchange == "" {
		return nil, fmt.Errorf("query: exchange is required")
	}
	if p.EndTSUs <= p.StartTSUs {
		return nil, fmt.Errorf("query: end_ts_us must be after start_ts_us")
	}
	tsCol := p.TSCol
	if tsCol == "" {
		tsCol = "ts_event_us"
	}
	if tsCol != "ts_event_us" && tsCol != "ts_local_us" {
		return nil, fmt.Errorf("query: ts_col must be ts_event_us or ts_local_us, got %q", tsCol)
	}
	if _, ok := spec.Column(tsCol); !ok {
		return nil, fmt.Errorf("query: table %q has no column %q", table, tsCol)
	}
	for _, name := range p.Columns {
		if _, ok := spec.Column(name); !ok {
			return nil, fmt.Errorf("query: table %q has no column %q", table, name)
		}
	}

	datePartitioned := false
	for _, key := range spec.PartitionBy {
		if key == "trading_date" {
			datePartitioned = true
		}
	}

	loc := resolveLocation(p.Exchange)
	startDate := localDateString(p.StartTSUs, loc)
	endDate := localDateString(p.EndTSUs-1, loc)

	files, err := prunedFiles(events, table, p.Exchange, datePartitioned, startDate, endDate)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return emptyProjection(spec, p.Columns), nil
	}

	db, err := duckio.Open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	where := []string{fmt.Sprintf("exchange = %s", duckio.SQLLiteral(p.Exchange))}
	if len(p.Symbols) > 0 {
		lits := make([]string, len(p.Symbols))
		for i, s := range p.Symbols {
			lits[i] = duckio.SQLLiteral(s)
		}
		where = append(where, fmt.Sprintf("symbol IN (%s)", strings.Join(lits, ", ")))
	}
	if datePartitioned {
		where = append(where, fmt.Sprintf("trading_date BETWEEN DATE %s AND DATE %s",
			duckio.SQLLiteral(startDate), duckio.SQLLiteral(endDate)))
	}
	where = append(where, fmt.Sprintf("%s >= %d AND %s < %d", tsCol, p.StartTSUs, tsCol, p.EndTSUs))

	projection := "*"
	columns := p.Columns
	if len(columns) == 0 {
		columns = spec.ColumnNames()
	} else {
		projection = quoteColumns(columns)
	}

	stmt := fmt.Sprintf("SELECT %s FROM %s WHERE %s",
		projection, duckio.ReadParquetExpr(files), strings.Join(where, " AND "))

	rows, err := db.Query(stmt)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()
	return frameFromRows(rows, spec, columns)
}

// prunedFiles narrows table's live file set down to the exchange
// partition, then (only when the table is date-partitioned) further to
// trading_date directories that fall within [startDate, endDate] — a
// Hive-style "YYYY-MM-DD" string compares lexically in date order.
func prunedFiles(events *storage.EventStore, table, exchange string, datePartitioned bool, startDate, endDate string) ([]string, error) {
	filter := txnlog.PartitionFilter{}
	spec, err := pointline.GetTableSpec(table)
	if err != nil {
		return nil, err
	}
	for _, key := range spec.PartitionBy {
		if key == "exchange" {
			filter["exchange"] = exchange
		}
	}
	entries, err := events.LiveFiles(table, filter)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if datePartitioned {
			d, ok := e.PartitionValues["trading_date"]
			if !ok || d < startDate || d > endDate {
				continue
			}
		}
		out = append(out, e.Path)
	}
	return out, nil
}

// resolveLocation looks up exchange's IANA timezone (§6 frozen exchange
// table), falling back to UTC for an exchange outside it.
func resolveLocation(exchange string) *time.Location {
	if tz, ok := pointline.ExchangeTimezone(exchange); ok {
		if loc, err := time.LoadLocation(tz); err == nil {
			return loc
		}
	}
	return time.UTC
}

// localDateString renders tsUs's calendar date in loc as "YYYY-MM-DD",
// matching the on-disk trading_date partition directory format.
func localDateString(tsUs int64, loc *time.Location) string {
	return time.UnixMicro(tsUs).In(loc).Format("2006-01-02")
}

func quoteColumns(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = `"` + strings.ReplaceAll(n, `"`, `""`) + `"`
	}
	return strings.Join(quoted, ", ")
}

// emptyProjection returns a zero-row frame shaped like columns (or every
// column in spec, if columns is empty) so callers can rely on NumCols().
func emptyProjection(spec pointline.TableSpec, columns []string) *pointline.Frame {
	if len(columns) == 0 {
		columns = spec.ColumnNames()
	}
	cols := make([]*pointline.Column, len(columns))
	for i, name := range columns {
		cs, _ := spec.Column(name)
		cols[i] = pointline.NewColumn(name, emptyTyped(cs.Dtype))
	}
	return pointline.NewFrame(cols...)
}

func emptyTyped(dt pointline.Dtype) any {
	switch dt {
	case pointline.Int64:
		return []int64{}
	case pointline.Float64:
		return []float64{}
	case pointline.Utf8:
		return []string{}
	case pointline.Bool:
		return []bool{}
	case pointline.Date, pointline.Int32:
		return []int32{}
	default:
		return []string{}
	}
}

// frameFromRows materializes a *sql.Rows result into a *pointline.Frame,
// typed per spec's declared column dtypes rather than DuckDB's own
// driver-reported types, so callers get back exactly the lakehouse
// schema regardless of how NULLs or dates round-trip through database/sql.
func frameFromRows(rows *sql.Rows, spec pointline.TableSpec, columns []string) (*pointline.Frame, error) {
	specCols := make([]pointline.ColumnSpec, len(columns))
	for i, name := range columns {
		cs, _ := spec.Column(name)
		specCols[i] = cs
	}

	builders := make([]*colBuilder, len(specCols))
	for i, cs := range specCols {
		builders[i] = newColBuilder(cs)
	}

	scanArgs := make([]any, len(specCols))
	for i := range scanArgs {
		scanArgs[i] = builders[i].scanTarget()
	}

	for rows.Next() {
		if err := rows.Scan(scanArgs...); err != nil {
			return nil, fmt.Errorf("query: scan row: %w", err)
		}
		for _, b := range builders {
			b.append()
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	cols := make([]*pointline.Column, len(builders))
	for i, b := range builders {
		cols[i] = b.column()
	}
	return pointline.NewFrame(cols...), nil
}

// colBuilder accumulates one output column's values row by row from
// database/sql's generic NullXxx scan targets.
type colBuilder struct {
	spec pointline.ColumnSpec

	curI64 sql.NullInt64
	curF64 sql.NullFloat64
	curStr sql.NullString
	curBln sql.NullBool
	curD32 dateScanner

	i64  []int64
	f64  []float64
	str  []string
	bln  []bool
	d32  []int32
	null []bool
}

func newColBuilder(spec pointline.ColumnSpec) *colBuilder {
	return &colBuilder{spec: spec}
}

func (b *colBuilder) scanTarget() any {
	switch b.spec.Dtype {
	case pointline.Int64:
		return &b.curI64
	case pointline.Float64:
		return &b.curF64
	case pointline.Utf8:
		return &b.curStr
	case pointline.Bool:
		return &b.curBln
	case pointline.Date, pointline.Int32:
		return &b.curD32
	default:
		return &b.curStr
	}
}

func (b *colBuilder) append() {
	switch b.spec.Dtype {
	case pointline.Int64:
		b.i64 = append(b.i64, b.curI64.Int64)
		b.null = append(b.null, !b.curI64.Valid)
	case pointline.Float64:
		b.f64 = append(b.f64, b.curF64.Float64)
		b.null = append(b.null, !b.curF64.Valid)
	case pointline.Utf8:
		b.str = append(b.str, b.curStr.String)
		b.null = append(b.null, !b.curStr.Valid)
	case pointline.Bool:
		b.bln = append(b.bln, b.curBln.Bool)
		b.null = append(b.null, !b.curBln.Valid)
	case pointline.Date, pointline.Int32:
		b.d32 = append(b.d32, b.curD32.days)
		b.null = append(b.null, !b.curD32.valid)
	default:
		b.str = append(b.str, b.curStr.String)
		b.null = append(b.null, !b.curStr.Valid)
	}
}

// dateScanner normalizes a DuckDB DATE column into days-since-epoch
// regardless of whether the driver hands back a time.Time, an int32/64
// day count, or a "YYYY-MM-DD" string.
type dateScanner struct {
	days  int32
	valid bool
}

func (d *dateScanner) Scan(src any) error {
	d.days, d.valid = 0, src != nil
	switch v := src.(type) {
	case nil:
	case int64:
		d.days = int32(v)
	case int32:
		d.days = v
	case time.Time:
		d.days = int32(v.UTC().Unix() / 86400)
	case string:
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return fmt.Errorf("query: parse DATE %q: %w", v, err)
		}
		d.days = int32(t.Unix() / 86400)
	default:
		return fmt.Errorf("query: unsupported DATE scan type %T", src)
	}
	return nil
}

func (b *colBuilder) column() *pointline.Column {
	var col *pointline.Column
	switch b.spec.Dtype {
	case pointline.Int64:
		col = pointline.NewColumn(b.spec.Name, b.i64)
	case pointline.Float64:
		col = pointline.NewColumn(b.spec.Name, b.f64)
	case pointline.Utf8:
		col = pointline.NewColumn(b.spec.Name, b.str)
	case pointline.Bool:
		col = pointline.NewColumn(b.spec.Name, b.bln)
	case pointline.Date, pointline.Int32:
		col = pointline.NewColumn(b.spec.Name, b.d32)
	default:
		col = pointline.NewColumn(b.spec.Name, b.str)
	}
	col.EnsureValid()
	for i, isNull := range b.null {
		if isNull {
			col.Valid[i] = false
		}
	}
	return col
}
