package ingest

import "github.com/neomantra/pointline"

// ApplyEventValidations applies the generic per-table semantic rules
// from §4.F: malformed side/price/qty combinations are split out into a
// quarantine frame rather than failing the whole file. Tables with no
// generic rule pass through with an empty quarantine frame.
func ApplyEventValidations(df *pointline.Frame, tableName string) (valid, quarantined *pointline.Frame, reason string, err error) {
	if df.IsEmpty() {
		return df, df, "", nil
	}
	switch tableName {
	case "trades":
		return splitInvalidTrades(df)
	case "quotes":
		return splitInvalidQuotes(df)
	case "orderbook_updates":
		return splitInvalidOrderbookUpdates(df)
	case "derivative_ticker":
		return splitInvalidDerivativeTicker(df)
	case "liquidations":
		return splitInvalidLiquidations(df)
	case "options_chain":
		return splitInvalidOptionsChain(df)
	default:
		return df, emptyLike(df), "", nil
	}
}

func emptyLike(df *pointline.Frame) *pointline.Frame {
	return df.Take(nil)
}

func splitBy(df *pointline.Frame, invalid []bool, reason string) (*pointline.Frame, *pointline.Frame, string, error) {
	valid := make([]bool, len(invalid))
	for i, v := range invalid {
		valid[i] = !v
	}
	quarantinedRows := df.Filter(invalid)
	validRows := df.Filter(valid)
	if quarantinedRows.NumRows() == 0 {
		return validRows, quarantinedRows, "", nil
	}
	return validRows, quarantinedRows, reason, nil
}

func isValidSideIn(raw string, allowed ...string) bool {
	s := lower(raw)
	for _, a := range allowed {
		if s == a {
			return true
		}
	}
	return false
}

func splitInvalidTrades(df *pointline.Frame) (*pointline.Frame, *pointline.Frame, string, error) {
	if err := requireColumns(df, "trades", "side", "price", "qty"); err != nil {
		return nil, nil, "", err
	}
	side := df.MustColumn("side")
	price := df.MustColumn("price")
	qty := df.MustColumn("qty")
	n := df.NumRows()
	invalid := make([]bool, n)
	for i := 0; i < n; i++ {
		invalid[i] = !isValidSideIn(side.Str[i], "buy", "sell", "unknown") ||
			price.I64[i] <= 0 || qty.I64[i] <= 0
	}
	return splitBy(df, invalid, pointline.RuleInvalidTradeSideOrValues)
}

func splitInvalidQuotes(df *pointline.Frame) (*pointline.Frame, *pointline.Frame, string, error) {
	if err := requireColumns(df, "quotes", "bid_price", "bid_qty", "ask_price", "ask_qty"); err != nil {
		return nil, nil, "", err
	}
	bidPrice := df.MustColumn("bid_price")
	askPrice := df.MustColumn("ask_price")
	bidQty := df.MustColumn("bid_qty")
	askQty := df.MustColumn("ask_qty")
	n := df.NumRows()
	invalid := make([]bool, n)
	for i := 0; i < n; i++ {
		invalid[i] = bidPrice.I64[i] <= 0 || askPrice.I64[i] <= 0 ||
			bidQty.IsNull(i) || bidQty.I64[i] < 0 ||
			askQty.IsNull(i) || askQty.I64[i] < 0 ||
			bidPrice.I64[i] > askPrice.I64[i]
	}
	return splitBy(df, invalid, pointline.RuleInvalidQuoteTopOfBook)
}

func splitInvalidOrderbookUpdates(df *pointline.Frame) (*pointline.Frame, *pointline.Frame, string, error) {
	if err := requireColumns(df, "orderbook_updates", "side", "price", "qty", "is_snapshot"); err != nil {
		return nil, nil, "", err
	}
	side := df.MustColumn("side")
	price := df.MustColumn("price")
	qty := df.MustColumn("qty")
	isSnapshot := df.MustColumn("is_snapshot")
	n := df.NumRows()
	invalid := make([]bool, n)
	for i := 0; i < n; i++ {
		invalid[i] = !isValidSideIn(side.Str[i], "bid", "ask") ||
			price.I64[i] <= 0 || qty.IsNull(i) || qty.I64[i] < 0 || isSnapshot.IsNull(i)
	}
	return splitBy(df, invalid, pointline.RuleInvalidOrderbookUpdate)
}

func splitInvalidDerivativeTicker(df *pointline.Frame) (*pointline.Frame, *pointline.Frame, string, error) {
	if err := requireColumns(df, "derivative_ticker", "mark_price"); err != nil {
		return nil, nil, "", err
	}
	markPrice := df.MustColumn("mark_price")
	n := df.NumRows()
	invalid := make([]bool, n)
	for i := 0; i < n; i++ {
		invalid[i] = markPrice.I64[i] <= 0
	}
	return splitBy(df, invalid, pointline.RuleInvalidDerivativeTicker)
}

func splitInvalidLiquidations(df *pointline.Frame) (*pointline.Frame, *pointline.Frame, string, error) {
	if err := requireColumns(df, "liquidations", "side", "price", "qty"); err != nil {
		return nil, nil, "", err
	}
	side := df.MustColumn("side")
	price := df.MustColumn("price")
	qty := df.MustColumn("qty")
	n := df.NumRows()
	invalid := make([]bool, n)
	for i := 0; i < n; i++ {
		invalid[i] = !isValidSideIn(side.Str[i], "buy", "sell") ||
			price.I64[i] <= 0 || qty.I64[i] <= 0
	}
	return splitBy(df, invalid, pointline.RuleInvalidLiquidation)
}

func splitInvalidOptionsChain(df *pointline.Frame) (*pointline.Frame, *pointline.Frame, string, error) {
	if err := requireColumns(df, "options_chain", "option_type", "strike", "expiration_ts_us"); err != nil {
		return nil, nil, "", err
	}
	optionType := df.MustColumn("option_type")
	strike := df.MustColumn("strike")
	expiration := df.MustColumn("expiration_ts_us")
	n := df.NumRows()
	invalid := make([]bool, n)
	for i := 0; i < n; i++ {
		invalid[i] = !isValidSideIn(optionType.Str[i], "call", "put") ||
			strike.I64[i] <= 0 || expiration.I64[i] <= 0
	}
	return splitBy(df, invalid, pointline.RuleInvalidOptionsChain)
}

// ApplyCNExchangeValidations applies CN-venue-specific rules (§C.1): SSE
// order and tick events must carry both sequence-index columns,
// biz_index and channel_no; SSE rows missing either are quarantined.
func ApplyCNExchangeValidations(df *pointline.Frame, tableName string) (valid, quarantined *pointline.Frame, reason string, err error) {
	if df.IsEmpty() || (tableName != "cn_order_events" && tableName != "cn_tick_events") {
		return df, emptyLike(df), "", nil
	}
	if err := requireColumns(df, tableName, "exchange", "biz_index", "channel_no"); err != nil {
		return nil, nil, "", err
	}
	exchange := df.MustColumn("exchange")
	bizIndex := df.MustColumn("biz_index")
	channelNo := df.MustColumn("channel_no")
	n := df.NumRows()
	invalid := make([]bool, n)
	for i := 0; i < n; i++ {
		if lower(exchange.Str[i]) != "sse" {
			continue
		}
		invalid[i] = bizIndex.IsNull(i) || channelNo.IsNull(i)
	}
	return splitBy(df, invalid, pointline.RuleMissingSSETickSequence)
}
