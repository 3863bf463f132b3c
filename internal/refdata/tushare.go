// Package refdata fetches CN A-share reference data from Tushare's Pro
// HTTP API and maps it onto the dim_symbol vendor-snapshot contract
// dimsymbol.Bootstrap/Upsert expect (§4.C, §C.4). A Go
// HTTP client plus pure mapping functions, with hashicorp/go-retryablehttp
// providing retries against Tushare's frequent rate-limit hiccups.
package refdata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/neomantra/pointline"
)

// CN A-share lot/tick conventions, scaled per pointline.PriceScale /
// pointline.QtyScale — the CN tick-size/lot-size/STAR-Market-lot-size constants.
const (
	CNTickSize        int64 = 10_000_000      // 0.01 CNY
	CNLotSize         int64 = 100_000_000_000 // 100 shares
	STARMarketLotSize int64 = 200_000_000_000 // 200 shares, STAR Market (科创板)

	starMarketName = "科创板"
)

// stockBasicFields are the columns requested from Tushare's stock_basic
// endpoint.
var stockBasicFields = []string{
	"ts_code", "symbol", "name", "market", "exchange",
	"list_date", "delist_date", "list_status",
}

// StockBasicRow is one row of Tushare's stock_basic response, field
// names matching the Tushare API rather than pointline's own schema —
// StockBasicToSnapshot/StockBasicToDelistings do that translation.
type StockBasicRow struct {
	TSCode     string
	Symbol     string
	Name       string
	Market     string
	Exchange   string
	ListDate   string
	DelistDate string
	ListStatus string
}

// TushareClient fetches stock_basic from Tushare's Pro HTTP API.
type TushareClient struct {
	HTTPClient *retryablehttp.Client
	BaseURL    string
	Token      string
}

// NewTushareClient builds a client with retryablehttp's default backoff
// policy; callers needing fewer retries or a custom logger should
// configure TushareClient.HTTPClient directly.
func NewTushareClient(token, baseURL string) *TushareClient {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.Logger = nil
	return &TushareClient{HTTPClient: client, BaseURL: baseURL, Token: token}
}

type tushareRequest struct {
	APIName string            `json:"api_name"`
	Token   string            `json:"token"`
	Params  map[string]string `json:"params"`
	Fields  string            `json:"fields"`
}

type tushareResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		Fields []string `json:"fields"`
		Items  [][]any  `json:"items"`
	} `json:"data"`
}

// FetchStockBasic calls Tushare's stock_basic endpoint. exchange is
// "SSE", "SZSE", or "" for both; listStatus is Tushare's "L"/"P"/"D".
func (c *TushareClient) FetchStockBasic(ctx context.Context, exchange, listStatus string) ([]StockBasicRow, error) {
	params := map[string]string{"list_status": listStatus}
	if exchange != "" {
		params["exchange"] = exchange
	}
	reqBody := tushareRequest{
		APIName: "stock_basic",
		Token:   c.Token,
		Params:  params,
		Fields:  strings.Join(stockBasicFields, ","),
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("refdata: marshal stock_basic request: %w", err)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, "POST", c.BaseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("refdata: build stock_basic request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("refdata: fetch stock_basic: %w", err)
	}
	defer resp.Body.Close()

	var out tushareResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("refdata: decode stock_basic response: %w", err)
	}
	if out.Code != 0 {
		return nil, fmt.Errorf("refdata: tushare stock_basic error %d: %s", out.Code, out.Msg)
	}
	return rowsFromResponse(out.Data.Fields, out.Data.Items), nil
}

func rowsFromResponse(fields []string, items [][]any) []StockBasicRow {
	idx := make(map[string]int, len(fields))
	for i, f := range fields {
		idx[f] = i
	}
	rows := make([]StockBasicRow, 0, len(items))
	for _, item := range items {
		rows = append(rows, StockBasicRow{
			TSCode:     strField(item, idx, "ts_code"),
			Symbol:     strField(item, idx, "symbol"),
			Name:       strField(item, idx, "name"),
			Market:     strField(item, idx, "market"),
			Exchange:   strField(item, idx, "exchange"),
			ListDate:   strField(item, idx, "list_date"),
			DelistDate: strField(item, idx, "delist_date"),
			ListStatus: strField(item, idx, "list_status"),
		})
	}
	return rows
}

func strField(item []any, idx map[string]int, name string) string {
	i, ok := idx[name]
	if !ok || i >= len(item) || item[i] == nil {
		return ""
	}
	if s, ok := item[i].(string); ok {
		return s
	}
	return fmt.Sprintf("%v", item[i])
}

// NormalizeExchange maps Tushare's exchange field to pointline's
// lowercase convention. Any exchange other than SSE/SZSE is reported
// unknown — this vendor is CN-only.
func NormalizeExchange(raw string) (string, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "SZSE":
		return "szse", true
	case "SSE":
		return "sse", true
	default:
		return "", false
	}
}

// parseYYYYMMDDUs parses an 8-digit YYYYMMDD date string to UTC
// midnight microseconds.
func parseYYYYMMDDUs(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	t, err := time.ParseInLocation("20060102", s, time.UTC)
	if err != nil {
		return 0, false
	}
	return t.UnixMicro(), true
}

// StockBasicToSnapshot converts Tushare stock_basic rows to a dim_symbol
// vendor snapshot: listed, paused, and delisted rows are all included
// (delisted rows carry
// historical point-in-time correctness even once closed out), rows
// on an unrecognized exchange are dropped, and the STAR Market's
// 200-share board lot is distinguished from the standard 100-share lot.
func StockBasicToSnapshot(rows []StockBasicRow) *pointline.Frame {
	var exchange, exchangeSymbol, canonical, marketType, baseAsset, quoteAsset []string
	var tickSize, lotSize []int64

	for _, r := range rows {
		if r.ListStatus != "L" && r.ListStatus != "P" && r.ListStatus != "D" {
			continue
		}
		ex, ok := NormalizeExchange(r.Exchange)
		if !ok {
			continue
		}
		base := r.Name
		if base == "" {
			base = r.Symbol
		}
		lot := CNLotSize
		if r.Market == starMarketName {
			lot = STARMarketLotSize
		}

		exchange = append(exchange, ex)
		exchangeSymbol = append(exchangeSymbol, r.Symbol)
		canonical = append(canonical, r.TSCode)
		marketType = append(marketType, r.Market)
		baseAsset = append(baseAsset, base)
		quoteAsset = append(quoteAsset, "CNY")
		tickSize = append(tickSize, CNTickSize)
		lotSize = append(lotSize, lot)
	}

	n := len(exchange)
	contractSize := pointline.NewColumn("contract_size", make([]int64, n))
	contractSize.EnsureValid()
	for i := 0; i < n; i++ {
		contractSize.SetNull(i)
	}

	return pointline.NewFrame(
		pointline.NewColumn("exchange", exchange),
		pointline.NewColumn("exchange_symbol", exchangeSymbol),
		pointline.NewColumn("canonical_symbol", canonical),
		pointline.NewColumn("market_type", marketType),
		pointline.NewColumn("base_asset", baseAsset),
		pointline.NewColumn("quote_asset", quoteAsset),
		pointline.NewColumn("tick_size", tickSize),
		pointline.NewColumn("lot_size", lotSize),
		contractSize,
	)
}

// StockBasicToDelistings extracts (exchange, exchange_symbol,
// delisted_at_ts_us) for SCD2 close logic: rows with list_status "D"
// and a parseable delist_date.
func StockBasicToDelistings(rows []StockBasicRow) *pointline.Frame {
	var exchange, exchangeSymbol []string
	var delistedAt []int64

	for _, r := range rows {
		if r.ListStatus != "D" {
			continue
		}
		ex, ok := NormalizeExchange(r.Exchange)
		if !ok {
			continue
		}
		ts, ok := parseYYYYMMDDUs(r.DelistDate)
		if !ok {
			continue
		}
		exchange = append(exchange, ex)
		exchangeSymbol = append(exchangeSymbol, r.Symbol)
		delistedAt = append(delistedAt, ts)
	}

	return pointline.NewFrame(
		pointline.NewColumn("exchange", exchange),
		pointline.NewColumn("exchange_symbol", exchangeSymbol),
		pointline.NewColumn("delisted_at_ts_us", delistedAt),
	)
}
