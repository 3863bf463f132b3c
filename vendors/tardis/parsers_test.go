package tardis_test

import (
	"github.com/neomantra/pointline"
	"github.com/neomantra/pointline/vendors/tardis"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ParseTrades", func() {
	It("scales price/amount and lowercases exchange/side", func() {
		raw := pointline.NewFrame(
			pointline.NewColumn("exchange", []string{"Binance"}),
			pointline.NewColumn("symbol", []string{"BTC-USDT"}),
			pointline.NewColumn("timestamp", []string{"1700000000000000"}),
			pointline.NewColumn("id", []string{"12345"}),
			pointline.NewColumn("side", []string{"Buy"}),
			pointline.NewColumn("price", []string{"100.5"}),
			pointline.NewColumn("amount", []string{"2"}),
		)
		out, err := tardis.ParseTrades(raw)
		Expect(err).To(BeNil())
		Expect(out.Column("exchange").Str[0]).To(Equal("binance"))
		Expect(out.Column("side").Str[0]).To(Equal("buy"))
		Expect(out.Column("price").I64[0]).To(Equal(int64(100_500_000_000)))
		Expect(out.Column("qty").I64[0]).To(Equal(int64(2_000_000_000)))
		Expect(out.Column("trade_id").Str[0]).To(Equal("12345"))
		Expect(out.Column("is_buyer_maker").IsNull(0)).To(BeTrue())
	})

	It("falls back to local_timestamp when timestamp is absent", func() {
		raw := pointline.NewFrame(
			pointline.NewColumn("exchange", []string{"binance"}),
			pointline.NewColumn("symbol", []string{"BTC-USDT"}),
			pointline.NewColumn("local_timestamp", []string{"1700000000000000"}),
			pointline.NewColumn("side", []string{"sell"}),
			pointline.NewColumn("price", []string{"1"}),
			pointline.NewColumn("amount", []string{"1"}),
		)
		out, err := tardis.ParseTrades(raw)
		Expect(err).To(BeNil())
		Expect(out.Column("ts_event_us").I64[0]).To(Equal(int64(1_700_000_000_000_000)))
	})

	It("rejects a frame missing required raw columns", func() {
		raw := pointline.NewFrame(pointline.NewColumn("exchange", []string{"binance"}))
		_, err := tardis.ParseTrades(raw)
		Expect(err).ToNot(BeNil())
	})
})

var _ = Describe("ParseQuotes", func() {
	It("scales both sides of the book", func() {
		raw := pointline.NewFrame(
			pointline.NewColumn("exchange", []string{"binance"}),
			pointline.NewColumn("symbol", []string{"BTC-USDT"}),
			pointline.NewColumn("timestamp", []string{"1700000000000000"}),
			pointline.NewColumn("bid_price", []string{"99.9"}),
			pointline.NewColumn("bid_amount", []string{"1"}),
			pointline.NewColumn("ask_price", []string{"100.1"}),
			pointline.NewColumn("ask_amount", []string{"2"}),
		)
		out, err := tardis.ParseQuotes(raw)
		Expect(err).To(BeNil())
		Expect(out.Column("bid_price").I64[0]).To(Equal(int64(99_900_000_000)))
		Expect(out.Column("ask_qty").I64[0]).To(Equal(int64(2_000_000_000)))
	})
})
