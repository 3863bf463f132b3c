package pointline_test

import (
	"github.com/neomantra/pointline"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Schema registry", func() {
	Context("table lookup", func() {
		It("returns every registered table for a known name", func() {
			for _, name := range pointline.ListTableSpecs() {
				spec, err := pointline.GetTableSpec(name)
				Expect(err).To(BeNil())
				Expect(spec.Name).To(Equal(name))
			}
		})
		It("wraps ErrUnknownTable for an unregistered name", func() {
			_, err := pointline.GetTableSpec("not_a_table")
			Expect(err).To(MatchError(pointline.ErrUnknownTable))
		})
	})

	Context("trades schema", func() {
		It("declares price and qty as scaled columns", func() {
			spec, err := pointline.GetTableSpec("trades")
			Expect(err).To(BeNil())
			Expect(spec.ScaledColumns()).To(ConsistOf("price", "qty"))
		})
		It("requires the common event columns", func() {
			spec, _ := pointline.GetTableSpec("trades")
			Expect(spec.RequiredColumns()).To(ContainElements(
				"exchange", "trading_date", "symbol", "symbol_id", "ts_event_us", "file_id", "file_seq", "side", "price", "qty",
			))
		})
	})

	Context("cn_l2_snapshots schema", func() {
		It("declares 10 nullable, scaled price/qty levels per side", func() {
			spec, err := pointline.GetTableSpec("cn_l2_snapshots")
			Expect(err).To(BeNil())
			Expect(spec.ScaledColumns()).To(HaveLen(2 + 4*10))
			cs, ok := spec.Column("bid_price_10")
			Expect(ok).To(BeTrue())
			Expect(cs.Nullable).To(BeTrue())
			Expect(cs.Scale).To(Equal(pointline.PriceScale))
		})
	})

	Context("dim_symbol schema", func() {
		It("is unpartitioned and keyed by exchange/exchange_symbol/valid_from", func() {
			spec, err := pointline.GetTableSpec("dim_symbol")
			Expect(err).To(BeNil())
			Expect(spec.PartitionBy).To(BeEmpty())
			Expect(spec.BusinessKeys).To(ConsistOf("exchange", "exchange_symbol", "valid_from_ts_us"))
		})
	})
})
