package refdata_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/neomantra/pointline/internal/refdata"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("NormalizeExchange", func() {
	It("maps SSE/SZSE case-insensitively and rejects everything else", func() {
		ex, ok := refdata.NormalizeExchange("SSE")
		Expect(ok).To(BeTrue())
		Expect(ex).To(Equal("sse"))

		ex, ok = refdata.NormalizeExchange("szse")
		Expect(ok).To(BeTrue())
		Expect(ex).To(Equal("szse"))

		_, ok = refdata.NormalizeExchange("NASDAQ")
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("StockBasicToSnapshot", func() {
	It("includes listed, paused, and delisted rows and picks the STAR Market lot size", func() {
		rows := []refdata.StockBasicRow{
			{TSCode: "600000.SH", Symbol: "600000", Name: "浦发银行", Market: "主板", Exchange: "SSE", ListStatus: "L"},
			{TSCode: "688001.SH", Symbol: "688001", Name: "华兴源创", Market: "科创板", Exchange: "SSE", ListStatus: "L"},
			{TSCode: "000002.SZ", Symbol: "000002", Name: "万科A", Market: "主板", Exchange: "SZSE", ListStatus: "P"},
			{TSCode: "000003.SZ", Symbol: "000003", Name: "退市股", Market: "主板", Exchange: "SZSE", ListStatus: "D", DelistDate: "20200101"},
			{TSCode: "XYZ", Symbol: "XYZ", Market: "主板", Exchange: "NYSE", ListStatus: "L"},
		}

		snap := refdata.StockBasicToSnapshot(rows)
		Expect(snap.NumRows()).To(Equal(4)) // NYSE row dropped

		exchange := snap.Column("exchange")
		exchangeSymbol := snap.Column("exchange_symbol")
		lotSize := snap.Column("lot_size")
		tickSize := snap.Column("tick_size")
		contractSize := snap.Column("contract_size")

		for i := 0; i < snap.NumRows(); i++ {
			Expect(tickSize.I64[i]).To(Equal(refdata.CNTickSize))
			Expect(contractSize.IsNull(i)).To(BeTrue())
			if exchangeSymbol.Str[i] == "688001" {
				Expect(exchange.Str[i]).To(Equal("sse"))
				Expect(lotSize.I64[i]).To(Equal(refdata.STARMarketLotSize))
			} else {
				Expect(lotSize.I64[i]).To(Equal(refdata.CNLotSize))
			}
		}
	})
})

var _ = Describe("StockBasicToDelistings", func() {
	It("keeps only delisted rows with a parseable delist_date", func() {
		rows := []refdata.StockBasicRow{
			{Symbol: "000003", Exchange: "SZSE", ListStatus: "D", DelistDate: "20200115"},
			{Symbol: "000004", Exchange: "SZSE", ListStatus: "D", DelistDate: ""},
			{Symbol: "000005", Exchange: "SZSE", ListStatus: "L"},
		}

		delistings := refdata.StockBasicToDelistings(rows)
		Expect(delistings.NumRows()).To(Equal(1))
		Expect(delistings.Column("exchange_symbol").Str[0]).To(Equal("000003"))

		wantTS := time.Date(2020, 1, 15, 0, 0, 0, 0, time.UTC).UnixMicro()
		Expect(delistings.Column("delisted_at_ts_us").I64[0]).To(Equal(wantTS))
	})
})

var _ = Describe("TushareClient.FetchStockBasic", func() {
	It("parses a stock_basic response into rows", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"code": 0,
				"msg":  "",
				"data": map[string]any{
					"fields": []string{"ts_code", "symbol", "name", "market", "exchange", "list_date", "delist_date", "list_status"},
					"items": [][]any{
						{"600000.SH", "600000", "浦发银行", "主板", "SSE", "19991110", nil, "L"},
					},
				},
			})
		}))
		defer server.Close()

		client := refdata.NewTushareClient("test-token", server.URL)
		rows, err := client.FetchStockBasic(context.Background(), "SSE", "L")
		Expect(err).To(BeNil())
		Expect(rows).To(HaveLen(1))
		Expect(rows[0].TSCode).To(Equal("600000.SH"))
		Expect(rows[0].ListStatus).To(Equal("L"))
	})

	It("returns an error when Tushare reports a non-zero code", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{"code": 2002, "msg": "invalid token"})
		}))
		defer server.Close()

		client := refdata.NewTushareClient("bad-token", server.URL)
		_, err := client.FetchStockBasic(context.Background(), "SSE", "L")
		Expect(err).ToNot(BeNil())
	})
})
