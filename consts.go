package pointline

// PriceScale and QtyScale are the fixed-point denominators for every
// price/quantity column declared with a scale in a TableSpec (§3).
const (
	PriceScale int64 = 1_000_000_000
	QtyScale   int64 = 1_000_000_000
)

// ValidUntilMax is the sentinel valid_until_ts_us for an open (is_current)
// dim_symbol window: 2^63 - 1.
const ValidUntilMax int64 = 1<<63 - 1

// Manifest / ingestion status values (§4.D, §4.E).
const (
	StatusPending     = "pending"
	StatusSuccess     = "success"
	StatusFailed      = "failed"
	StatusQuarantined = "quarantined"
)

// Failure reasons recorded on a failed manifest row (§4.E step 3, 12).
const (
	FailureReasonParserError  = "parser_error"
	FailureReasonEmptyParse   = "empty_parse"
	FailureReasonPipelineError = "pipeline_error"
)

// Quarantine rule names (§4.F, §4.C PIT).
const (
	RuleMissingPITCoverage        = "missing_pit_symbol_coverage"
	RuleInvalidTradeSideOrValues  = "invalid_trade_side_or_values"
	RuleInvalidQuoteTopOfBook     = "invalid_quote_top_of_book"
	RuleInvalidOrderbookUpdate    = "invalid_orderbook_update"
	RuleInvalidDerivativeTicker   = "invalid_derivative_ticker"
	RuleInvalidLiquidation        = "invalid_liquidation"
	RuleInvalidOptionsChain       = "invalid_options_chain"
	RuleMissingSSETickSequence    = "missing_sse_tick_sequence_fields"
)

// Exchange timezone table (frozen for v1, §6). Any exchange not listed
// here fails ingestion with ErrUnknownExchange.
var exchangeTimezones = map[string]string{
	"binance":          "UTC",
	"binance-futures":  "UTC",
	"okx":              "UTC",
	"bybit":            "UTC",
	"coinbase":         "UTC",
	"deribit":          "UTC",
	"kraken":           "UTC",
	"bitmex":           "UTC",
	"huobi":            "UTC",
	"gate":             "UTC",
	"sse":              "Asia/Shanghai",
	"szse":             "Asia/Shanghai",
}

// ExchangeTimezone returns the IANA timezone name for exchange, and false
// if the exchange is not in the frozen v1 table.
func ExchangeTimezone(exchange string) (string, bool) {
	tz, ok := exchangeTimezones[exchange]
	return tz, ok
}
