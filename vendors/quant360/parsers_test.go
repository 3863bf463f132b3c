package quant360_test

import (
	"github.com/neomantra/pointline"
	"github.com/neomantra/pointline/vendors/quant360"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ParseOrderStream", func() {
	It("broadcasts exchange/symbol and casts raw numeric columns", func() {
		raw := pointline.NewFrame(
			pointline.NewColumn("ts_event_us", []string{"1700000000000000"}),
			pointline.NewColumn("channel_no", []string{"2011"}),
			pointline.NewColumn("side_raw", []string{"1"}),
			pointline.NewColumn("ord_type_raw", []string{"2"}),
			pointline.NewColumn("order_action_raw", []string{"A"}),
			pointline.NewColumn("price_raw", []string{"12.34"}),
			pointline.NewColumn("qty_raw", []string{"500"}),
			pointline.NewColumn("biz_index_raw", []string{"99"}),
			pointline.NewColumn("order_index_raw", []string{"5001"}),
		)
		out, err := quant360.ParseOrderStream(raw, "sse", "600000")
		Expect(err).To(BeNil())
		Expect(out.Column("exchange").Str[0]).To(Equal("sse"))
		Expect(out.Column("symbol").Str[0]).To(Equal("600000"))
		Expect(out.Column("price_raw").F64[0]).To(BeNumerically("~", 12.34, 0.0001))
		Expect(out.Column("order_index_raw").I64[0]).To(Equal(int64(5001)))
	})

	It("rejects a frame missing required raw columns", func() {
		raw := pointline.NewFrame(pointline.NewColumn("ts_event_us", []string{"1"}))
		_, err := quant360.ParseOrderStream(raw, "sse", "600000")
		Expect(err).ToNot(BeNil())
	})
})

var _ = Describe("ParseL2SnapshotStream", func() {
	It("casts whichever depth levels are present and skips the rest", func() {
		raw := pointline.NewFrame(
			pointline.NewColumn("ts_event_us", []string{"1700000000000000"}),
			pointline.NewColumn("trading_phase_code_raw", []string{"O"}),
			pointline.NewColumn("bid_price_1_raw", []string{"10.00"}),
			pointline.NewColumn("bid_qty_1_raw", []string{"100"}),
		)
		out, err := quant360.ParseL2SnapshotStream(raw, "szse", "000001")
		Expect(err).To(BeNil())
		Expect(out.Has("bid_price_1_raw")).To(BeTrue())
		Expect(out.Has("ask_price_1_raw")).To(BeFalse())
		Expect(out.Has("bid_price_2_raw")).To(BeFalse())
	})
})
