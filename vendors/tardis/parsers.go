// Package tardis parses Tardis.dev CSV bronze exports into the canonical
// `trades`/`quotes` event frames. Exchange and symbol are self-contained
// in every row, so a single bronze file may carry multiple instruments
// (a "grouped" export).
package tardis

import (
	"fmt"
	"math"

	"github.com/neomantra/pointline"
	"github.com/neomantra/pointline/internal/rawcast"
)

func requireColumns(df *pointline.Frame, context string, names ...string) error {
	var missing []string
	for _, n := range names {
		if !df.Has(n) {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return pointline.NewMissingColumnsError(context, missing)
	}
	return nil
}

// resolveTSEvent coalesces "timestamp" over "local_timestamp", both
// microsecond Unix epoch integers as Tardis emits them.
func resolveTSEvent(df *pointline.Frame, context string) (*pointline.Column, error) {
	hasTS := df.Has("timestamp")
	hasLocal := df.Has("local_timestamp")
	if !hasTS && !hasLocal {
		return nil, fmt.Errorf("%s: missing required timestamp columns; expected 'timestamp' or 'local_timestamp'", context)
	}
	if !hasTS {
		return rawcast.Int64(df.MustColumn("local_timestamp"), context)
	}
	ts, err := rawcast.Int64(df.MustColumn("timestamp"), context)
	if err != nil {
		return nil, err
	}
	if !hasLocal {
		return ts, nil
	}
	local, err := rawcast.Int64(df.MustColumn("local_timestamp"), context)
	if err != nil {
		return nil, err
	}
	n := ts.Len()
	for i := 0; i < n; i++ {
		if ts.IsNull(i) && !local.IsNull(i) {
			ts.I64[i] = local.I64[i]
			if ts.Valid != nil {
				ts.Valid[i] = true
			}
		}
	}
	return ts, nil
}

func resolveTSLocal(df *pointline.Frame, context string) (*pointline.Column, error) {
	if !df.Has("local_timestamp") {
		n := df.NumRows()
		return &pointline.Column{Name: "ts_local_us", Dtype: pointline.Int64, I64: make([]int64, n), Valid: make([]bool, n)}, nil
	}
	col, err := rawcast.Int64(df.MustColumn("local_timestamp"), context)
	if err != nil {
		return nil, err
	}
	col.Name = "ts_local_us"
	return col, nil
}

func scaledColumn(df *pointline.Frame, name, outName string, scale int64, context string) (*pointline.Column, error) {
	raw, err := rawcast.Float64(df.MustColumn(name), context)
	if err != nil {
		return nil, err
	}
	n := raw.Len()
	out := make([]int64, n)
	for i := 0; i < n; i++ {
		if !raw.IsNull(i) {
			out[i] = scaleRound(raw.F64[i], scale)
		}
	}
	col := pointline.NewColumn(outName, out)
	col.Valid = raw.Valid
	return col, nil
}

func requireNonNullTSEvent(col *pointline.Column, context string) error {
	for i := 0; i < col.Len(); i++ {
		if col.IsNull(i) {
			return fmt.Errorf("%s: ts_event_us cannot be null (row %d)", context, i)
		}
	}
	return nil
}

// ParseTrades parses a Tardis trades bronze frame into canonical `trades`
// columns. Required raw columns: exchange, symbol, side, price, amount.
func ParseTrades(raw *pointline.Frame) (*pointline.Frame, error) {
	const context = "tardis.ParseTrades"
	if err := requireColumns(raw, context, "exchange", "symbol", "side", "price", "amount"); err != nil {
		return nil, err
	}

	tsEvent, err := resolveTSEvent(raw, context)
	if err != nil {
		return nil, err
	}
	tsEvent.Name = "ts_event_us"
	if err := requireNonNullTSEvent(tsEvent, context); err != nil {
		return nil, err
	}
	tsLocal, err := resolveTSLocal(raw, context)
	if err != nil {
		return nil, err
	}
	price, err := scaledColumn(raw, "price", "price", pointline.PriceScale, context)
	if err != nil {
		return nil, err
	}
	qty, err := scaledColumn(raw, "amount", "qty", pointline.QtyScale, context)
	if err != nil {
		return nil, err
	}

	n := raw.NumRows()
	isBuyerMaker := &pointline.Column{Name: "is_buyer_maker", Dtype: pointline.Bool, Bln: make([]bool, n), Valid: make([]bool, n)}
	side := rawcast.Lower(raw.MustColumn("side"))

	out := pointline.NewFrame(
		rawcast.Lower(raw.MustColumn("exchange")),
		rawcast.Trim(raw.MustColumn("symbol")),
		tsEvent,
		tsLocal,
		side,
		price,
		qty,
		isBuyerMaker,
	)
	if raw.Has("id") {
		tradeID := rawcast.Trim(raw.MustColumn("id"))
		tradeID.Name = "trade_id"
		out = out.WithColumn(tradeID)
	}
	return out, nil
}

// ParseQuotes parses a Tardis quotes bronze frame into canonical `quotes`
// columns. Required raw columns: exchange, symbol, bid_price, bid_amount,
// ask_price, ask_amount.
func ParseQuotes(raw *pointline.Frame) (*pointline.Frame, error) {
	const context = "tardis.ParseQuotes"
	if err := requireColumns(raw, context, "exchange", "symbol", "bid_price", "bid_amount", "ask_price", "ask_amount"); err != nil {
		return nil, err
	}

	tsEvent, err := resolveTSEvent(raw, context)
	if err != nil {
		return nil, err
	}
	tsEvent.Name = "ts_event_us"
	if err := requireNonNullTSEvent(tsEvent, context); err != nil {
		return nil, err
	}
	tsLocal, err := resolveTSLocal(raw, context)
	if err != nil {
		return nil, err
	}
	bidPrice, err := scaledColumn(raw, "bid_price", "bid_price", pointline.PriceScale, context)
	if err != nil {
		return nil, err
	}
	bidQty, err := scaledColumn(raw, "bid_amount", "bid_qty", pointline.QtyScale, context)
	if err != nil {
		return nil, err
	}
	askPrice, err := scaledColumn(raw, "ask_price", "ask_price", pointline.PriceScale, context)
	if err != nil {
		return nil, err
	}
	askQty, err := scaledColumn(raw, "ask_amount", "ask_qty", pointline.QtyScale, context)
	if err != nil {
		return nil, err
	}
	seqNum, err := rawcast.FirstPresentInt64(raw, "seq_num", context, "seq_num", "sequence_number", "last_update_id", "update_id")
	if err != nil {
		return nil, err
	}

	return pointline.NewFrame(
		rawcast.Lower(raw.MustColumn("exchange")),
		rawcast.Trim(raw.MustColumn("symbol")),
		tsEvent,
		tsLocal,
		bidPrice,
		bidQty,
		askPrice,
		askQty,
		seqNum,
	), nil
}

func scaleRound(v float64, scale int64) int64 {
	return int64(math.Round(v * float64(scale)))
}
