// Package quant360 casts raw Quant360 CN L3/L2 CSV bronze columns into the
// typed raw frame ingest.CanonicalizeQuant360 expects. Unlike Tardis, a
// Quant360 bronze file carries a single instrument; exchange and symbol
// come from the CLI invocation rather than CSV columns, and ts_event_us
// arrives pre-computed in the feed.
package quant360

import (
	"strconv"

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

func broadcastStr(name, value string, n int) *pointline.Column {
	vals := make([]string, n)
	for i := range vals {
		vals[i] = value
	}
	return pointline.NewColumn(name, vals)
}

func castFloat64(df *pointline.Frame, name, context string) (*pointline.Column, error) {
	return rawcast.Float64(df.MustColumn(name), context)
}

func castInt64(df *pointline.Frame, name, context string) (*pointline.Column, error) {
	return rawcast.Int64(df.MustColumn(name), context)
}

func castOptionalFloat64(df *pointline.Frame, name, context string) (*pointline.Column, bool, error) {
	if !df.Has(name) {
		return nil, false, nil
	}
	col, err := rawcast.Float64(df.MustColumn(name), context)
	return col, true, err
}

// ParseOrderStream casts a raw order-channel CSV frame into the typed raw
// frame canonicalizeOrderEvents expects for cn_order_events.
func ParseOrderStream(raw *pointline.Frame, exchange, symbol string) (*pointline.Frame, error) {
	const context = "quant360.ParseOrderStream"
	if err := requireColumns(raw, context,
		"ts_event_us", "channel_no",
		"side_raw", "ord_type_raw", "order_action_raw",
		"price_raw", "qty_raw", "biz_index_raw", "order_index_raw"); err != nil {
		return nil, err
	}

	n := raw.NumRows()
	tsEvent, err := castInt64(raw, "ts_event_us", context)
	if err != nil {
		return nil, err
	}
	channelNo, err := castInt64(raw, "channel_no", context)
	if err != nil {
		return nil, err
	}
	price, err := castFloat64(raw, "price_raw", context)
	if err != nil {
		return nil, err
	}
	qty, err := castFloat64(raw, "qty_raw", context)
	if err != nil {
		return nil, err
	}
	bizIndex, err := castInt64(raw, "biz_index_raw", context)
	if err != nil {
		return nil, err
	}
	orderIndex, err := castInt64(raw, "order_index_raw", context)
	if err != nil {
		return nil, err
	}

	return pointline.NewFrame(
		broadcastStr("exchange", exchange, n),
		broadcastStr("symbol", symbol, n),
		tsEvent,
		channelNo,
		rawcast.Trim(raw.MustColumn("side_raw")),
		rawcast.Trim(raw.MustColumn("ord_type_raw")),
		rawcast.Trim(raw.MustColumn("order_action_raw")),
		price,
		qty,
		bizIndex,
		orderIndex,
	), nil
}

// ParseTickStream casts a raw trade/tick-channel CSV frame into the typed
// raw frame canonicalizeTickEvents expects for cn_tick_events.
func ParseTickStream(raw *pointline.Frame, exchange, symbol string) (*pointline.Frame, error) {
	const context = "quant360.ParseTickStream"
	if err := requireColumns(raw, context,
		"ts_event_us", "channel_no",
		"bid_appl_seq_num", "offer_appl_seq_num",
		"exec_type_raw", "trade_bs_flag_raw",
		"price_raw", "qty_raw", "biz_index_raw", "trade_index_raw"); err != nil {
		return nil, err
	}

	n := raw.NumRows()
	tsEvent, err := castInt64(raw, "ts_event_us", context)
	if err != nil {
		return nil, err
	}
	channelNo, err := castInt64(raw, "channel_no", context)
	if err != nil {
		return nil, err
	}
	bidRef, err := castInt64(raw, "bid_appl_seq_num", context)
	if err != nil {
		return nil, err
	}
	askRef, err := castInt64(raw, "offer_appl_seq_num", context)
	if err != nil {
		return nil, err
	}
	price, err := castFloat64(raw, "price_raw", context)
	if err != nil {
		return nil, err
	}
	qty, err := castFloat64(raw, "qty_raw", context)
	if err != nil {
		return nil, err
	}
	bizIndex, err := castInt64(raw, "biz_index_raw", context)
	if err != nil {
		return nil, err
	}
	tradeIndex, err := castInt64(raw, "trade_index_raw", context)
	if err != nil {
		return nil, err
	}

	return pointline.NewFrame(
		broadcastStr("exchange", exchange, n),
		broadcastStr("symbol", symbol, n),
		tsEvent,
		channelNo,
		bidRef,
		askRef,
		rawcast.Trim(raw.MustColumn("exec_type_raw")),
		rawcast.Trim(raw.MustColumn("trade_bs_flag_raw")),
		price,
		qty,
		bizIndex,
		tradeIndex,
	), nil
}

// l2Levels is the fixed book depth a Quant360 L2 snapshot row carries.
const l2Levels = 10

// ParseL2SnapshotStream casts a raw L2-snapshot CSV frame into the typed
// raw frame canonicalizeL2Snapshots expects for cn_l2_snapshots. Depth
// level columns (bid_price_N_raw, ...) are optional per exchange/venue
// revision; absent ones are simply not cast, and canonicalizeL2Snapshots
// fills them as all-null.
func ParseL2SnapshotStream(raw *pointline.Frame, exchange, symbol string) (*pointline.Frame, error) {
	const context = "quant360.ParseL2SnapshotStream"
	if err := requireColumns(raw, context, "ts_event_us", "trading_phase_code_raw"); err != nil {
		return nil, err
	}

	n := raw.NumRows()
	tsEvent, err := castInt64(raw, "ts_event_us", context)
	if err != nil {
		return nil, err
	}

	cols := []*pointline.Column{
		broadcastStr("exchange", exchange, n),
		broadcastStr("symbol", symbol, n),
		tsEvent,
		rawcast.Trim(raw.MustColumn("trading_phase_code_raw")),
	}

	for lvl := 1; lvl <= l2Levels; lvl++ {
		for _, prefix := range []string{"bid_price", "bid_qty", "ask_price", "ask_qty"} {
			name := levelColumnName(prefix, lvl)
			col, present, err := castOptionalFloat64(raw, name, context)
			if err != nil {
				return nil, err
			}
			if present {
				cols = append(cols, col)
			}
		}
	}
	for _, name := range []string{"total_bid_qty_raw", "total_ask_qty_raw"} {
		col, present, err := castOptionalFloat64(raw, name, context)
		if err != nil {
			return nil, err
		}
		if present {
			cols = append(cols, col)
		}
	}

	return pointline.NewFrame(cols...), nil
}

func levelColumnName(prefix string, level int) string {
	return prefix + "_" + strconv.Itoa(level) + "_raw"
}
