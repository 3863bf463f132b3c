package mcpserver

import (
	"github.com/neomantra/pointline"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("frameToRows", func() {
	It("converts typed columns into row-oriented maps, preserving nulls", func() {
		exchange := pointline.NewColumn("exchange", []string{"XNAS", "XNAS"})
		price := pointline.NewColumn("price", []int64{100, 200})
		price.SetNull(1)

		frame := pointline.NewFrame(exchange, price)
		rows := frameToRows(frame)

		Expect(rows).To(HaveLen(2))
		Expect(rows[0]["exchange"]).To(Equal("XNAS"))
		Expect(rows[0]["price"]).To(Equal(int64(100)))
		Expect(rows[1]["price"]).To(BeNil())
	})

	It("formats Date columns as YYYY-MM-DD", func() {
		tradingDate := pointline.NewColumn("trading_date", []int32{19723})
		frame := pointline.NewFrame(tradingDate)
		rows := frameToRows(frame)
		Expect(rows[0]["trading_date"]).To(Equal("2024-01-01"))
	})
})

var _ = Describe("splitCSV", func() {
	It("trims whitespace and drops empty entries", func() {
		Expect(splitCSV("AAPL, MSFT ,,TSLA")).To(Equal([]string{"AAPL", "MSFT", "TSLA"}))
	})

	It("returns an empty slice for an empty string", func() {
		Expect(splitCSV("")).To(BeEmpty())
	})
})

var _ = Describe("filterByString", func() {
	It("keeps only rows matching the wanted value", func() {
		name := pointline.NewColumn("table_name", []string{"trades", "quotes", "trades"})
		frame := pointline.NewFrame(name)

		filtered, err := filterByString(frame, "table_name", "trades")
		Expect(err).To(BeNil())
		Expect(filtered.NumRows()).To(Equal(2))
	})
})
