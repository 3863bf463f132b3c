package ingest

import (
	"fmt"
	"math"
	"strings"

	"github.com/neomantra/pointline"
)

// CanonicalizeQuant360 rewrites a raw quant360-vendor frame's exchange
// code columns and decimal price/qty columns into the canonical
// lowercase enums and fixed-point Int64 columns the CN event tables
// declare. Tables other than the CN L3/L2 family pass through
// unchanged (§C.2).
func CanonicalizeQuant360(df *pointline.Frame, tableName string) (*pointline.Frame, error) {
	switch tableName {
	case "cn_order_events":
		return canonicalizeOrderEvents(df)
	case "cn_tick_events":
		return canonicalizeTickEvents(df)
	case "cn_l2_snapshots":
		return canonicalizeL2Snapshots(df)
	default:
		return df, nil
	}
}

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

func scaleRound(v float64, scale int64) int64 {
	return int64(math.Round(v * float64(scale)))
}

func upper(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }
func lower(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func canonicalizeOrderEvents(df *pointline.Frame) (*pointline.Frame, error) {
	if err := requireColumns(df, "cn_order_events",
		"exchange", "symbol", "ts_event_us", "channel_no",
		"side_raw", "ord_type_raw", "order_action_raw",
		"price_raw", "qty_raw", "biz_index_raw", "order_index_raw"); err != nil {
		return nil, err
	}

	n := df.NumRows()
	exchange := df.MustColumn("exchange")
	side := df.MustColumn("side_raw")
	ordType := df.MustColumn("ord_type_raw")
	orderAction := df.MustColumn("order_action_raw")
	price := df.MustColumn("price_raw")
	qty := df.MustColumn("qty_raw")
	bizIndex := df.MustColumn("biz_index_raw")
	orderIndex := df.MustColumn("order_index_raw")
	channelNo := df.MustColumn("channel_no")

	orderNo := make([]int64, n)
	orderPrice := make([]int64, n)
	orderQty := make([]int64, n)
	orderSide := make([]string, n)
	orderType := make([]string, n)
	orderActionOut := make([]string, n)
	channelID := make([]int32, n)

	for i := 0; i < n; i++ {
		ex := lower(exchange.Str[i])
		orderNo[i] = orderIndex.I64[i]
		orderPrice[i] = scaleRound(price.F64[i], pointline.PriceScale)
		orderQty[i] = scaleRound(qty.F64[i], pointline.QtyScale)
		orderSide[i] = canonicalSide(side.Str[i])
		orderType[i] = canonicalOrderType(ex, ordType.Str[i])
		orderActionOut[i] = canonicalOrderAction(ex, orderAction.Str[i], ordType.Str[i])
		channelID[i] = int32(channelNo.I64[i])
	}

	bizIndexOut := pointline.NewColumn("biz_index", bizIndex.I64)
	bizIndexOut.Valid = bizIndex.Valid
	channelNoOut := pointline.NewColumn("channel_no", channelID)
	channelNoOut.Valid = channelNo.Valid

	out := df.
		WithColumn(pointline.NewColumn("order_no", orderNo)).
		WithColumn(pointline.NewColumn("order_price", orderPrice)).
		WithColumn(pointline.NewColumn("order_qty", orderQty)).
		WithColumn(pointline.NewColumn("order_side", orderSide)).
		WithColumn(pointline.NewColumn("order_type", orderType)).
		WithColumn(pointline.NewColumn("order_action", orderActionOut)).
		WithColumn(bizIndexOut).
		WithColumn(channelNoOut)
	return out, nil
}

func canonicalSide(raw string) string {
	switch upper(raw) {
	case "1", "B":
		return "buy"
	case "2", "S":
		return "sell"
	default:
		return "unknown"
	}
}

// canonicalOrderType maps szse's numeric order type code; sse doesn't
// carry an independent order-type field on the order channel, so every
// sse order event is a limit order.
func canonicalOrderType(exchange, ordTypeRaw string) string {
	if exchange != "szse" {
		return "limit"
	}
	switch upper(ordTypeRaw) {
	case "1":
		return "market"
	case "2":
		return "limit"
	default:
		return "unknown"
	}
}

// canonicalOrderAction maps sse's add/delete action code; szse's order
// channel only ever carries new-order adds.
func canonicalOrderAction(exchange, orderActionRaw, ordTypeRaw string) string {
	if exchange == "szse" {
		return "add"
	}
	code := upper(orderActionRaw)
	if code == "" {
		code = upper(ordTypeRaw)
	}
	switch code {
	case "A":
		return "add"
	case "D":
		return "cancel"
	default:
		return "unknown"
	}
}

func canonicalizeTickEvents(df *pointline.Frame) (*pointline.Frame, error) {
	if err := requireColumns(df, "cn_tick_events",
		"exchange", "symbol", "ts_event_us", "channel_no",
		"bid_appl_seq_num", "offer_appl_seq_num",
		"exec_type_raw", "trade_bs_flag_raw",
		"price_raw", "qty_raw", "biz_index_raw", "trade_index_raw"); err != nil {
		return nil, err
	}

	execType := df.MustColumn("exec_type_raw")
	n := df.NumRows()
	var invalid []string
	seen := map[string]bool{}
	for i := 0; i < n; i++ {
		v := upper(execType.Str[i])
		if v != "F" && v != "4" && !seen[v] {
			seen[v] = true
			invalid = append(invalid, v)
		}
	}
	if len(invalid) > 0 {
		return nil, fmt.Errorf("cn_tick_events: unsupported exec_type_raw values: %v", invalid)
	}

	tradeSide := df.MustColumn("trade_bs_flag_raw")
	price := df.MustColumn("price_raw")
	qty := df.MustColumn("qty_raw")
	bidRef := df.MustColumn("bid_appl_seq_num")
	askRef := df.MustColumn("offer_appl_seq_num")
	bizIndex := df.MustColumn("biz_index_raw")
	channelNo := df.MustColumn("channel_no")

	tickType := make([]string, n)
	tickSide := make([]string, n)
	tickPrice := make([]int64, n)
	tickQty := make([]int64, n)
	channelID := make([]int32, n)

	for i := 0; i < n; i++ {
		switch upper(execType.Str[i]) {
		case "F":
			tickType[i] = "trade"
		case "4":
			tickType[i] = "cancel"
		}
		switch upper(tradeSide.Str[i]) {
		case "B":
			tickSide[i] = "buy"
		case "S":
			tickSide[i] = "sell"
		default:
			tickSide[i] = "unknown"
		}
		tickPrice[i] = scaleRound(price.F64[i], pointline.PriceScale)
		tickQty[i] = scaleRound(qty.F64[i], pointline.QtyScale)
		channelID[i] = int32(channelNo.I64[i])
	}

	buyOrderNo := pointline.NewColumn("buy_order_no", bidRef.I64)
	buyOrderNo.Valid = bidRef.Valid
	sellOrderNo := pointline.NewColumn("sell_order_no", askRef.I64)
	sellOrderNo.Valid = askRef.Valid
	bizIndexOut := pointline.NewColumn("biz_index", bizIndex.I64)
	bizIndexOut.Valid = bizIndex.Valid
	channelNoOut := pointline.NewColumn("channel_no", channelID)
	channelNoOut.Valid = channelNo.Valid

	out := df.
		WithColumn(pointline.NewColumn("tick_type", tickType)).
		WithColumn(pointline.NewColumn("tick_side", tickSide)).
		WithColumn(pointline.NewColumn("price", tickPrice)).
		WithColumn(pointline.NewColumn("qty", tickQty)).
		WithColumn(buyOrderNo).
		WithColumn(sellOrderNo).
		WithColumn(bizIndexOut).
		WithColumn(channelNoOut)
	return out, nil
}

// l2Levels is the fixed book depth the flat cn_l2_snapshots columns
// carry (§D); the vendor parser emits one raw column pair per level
// rather than a nested list, since Frame has no list dtype.
const l2Levels = 10

func canonicalizeL2Snapshots(df *pointline.Frame) (*pointline.Frame, error) {
	if err := requireColumns(df, "cn_l2_snapshots",
		"exchange", "symbol", "ts_event_us", "trading_phase_code_raw"); err != nil {
		return nil, err
	}

	n := df.NumRows()
	phaseRaw := df.MustColumn("trading_phase_code_raw")
	phase := make([]string, n)
	for i := 0; i < n; i++ {
		phase[i] = lower(phaseRaw.Str[i])
	}
	out := df.WithColumn(pointline.NewColumn("trading_phase", phase))

	for lvl := 1; lvl <= l2Levels; lvl++ {
		out = withScaledLevel(out, n, fmt.Sprintf("bid_price_%d", lvl), fmt.Sprintf("bid_price_%d_raw", lvl), pointline.PriceScale)
		out = withScaledLevel(out, n, fmt.Sprintf("bid_qty_%d", lvl), fmt.Sprintf("bid_qty_%d_raw", lvl), pointline.QtyScale)
		out = withScaledLevel(out, n, fmt.Sprintf("ask_price_%d", lvl), fmt.Sprintf("ask_price_%d_raw", lvl), pointline.PriceScale)
		out = withScaledLevel(out, n, fmt.Sprintf("ask_qty_%d", lvl), fmt.Sprintf("ask_qty_%d_raw", lvl), pointline.QtyScale)
	}
	out = withScaledLevel(out, n, "total_bid_qty", "total_bid_qty_raw", pointline.QtyScale)
	out = withScaledLevel(out, n, "total_ask_qty", "total_ask_qty_raw", pointline.QtyScale)
	return out, nil
}

// withScaledLevel scales rawName (a Float64 column) into dstName (a
// nullable Int64 column), or writes an all-null column of the right
// length if the vendor frame never carried that optional level/field.
func withScaledLevel(df *pointline.Frame, n int, dstName, rawName string, scale int64) *pointline.Frame {
	raw := df.Column(rawName)
	vals := make([]int64, n)
	col := pointline.NewColumn(dstName, vals)
	if raw == nil {
		col.Valid = make([]bool, n) // all-false: all null
		return df.WithColumn(col)
	}
	col.EnsureValid()
	for i := 0; i < n; i++ {
		if raw.IsNull(i) {
			col.Valid[i] = false
			continue
		}
		vals[i] = scaleRound(raw.F64[i], scale)
	}
	col.I64 = vals
	return df.WithColumn(col)
}
