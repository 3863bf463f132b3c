package rawcast_test

import (
	"github.com/neomantra/pointline"
	"github.com/neomantra/pointline/internal/rawcast"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Float64", func() {
	It("parses non-null cells and preserves nulls", func() {
		col := pointline.NewColumn("price", []string{"1.5", ""})
		col.Valid = []bool{true, false}
		out, err := rawcast.Float64(col, "test")
		Expect(err).To(BeNil())
		Expect(out.F64[0]).To(Equal(1.5))
		Expect(out.IsNull(1)).To(BeTrue())
	})

	It("errors on an unparseable cell", func() {
		col := pointline.NewColumn("price", []string{"oops"})
		_, err := rawcast.Float64(col, "test")
		Expect(err).ToNot(BeNil())
	})
})

var _ = Describe("Int64", func() {
	It("parses non-null cells", func() {
		col := pointline.NewColumn("qty", []string{"42"})
		out, err := rawcast.Int64(col, "test")
		Expect(err).To(BeNil())
		Expect(out.I64[0]).To(Equal(int64(42)))
	})
})

var _ = Describe("Lower", func() {
	It("trims and lowercases every cell", func() {
		col := pointline.NewColumn("exchange", []string{" Binance "})
		out := rawcast.Lower(col)
		Expect(out.Str[0]).To(Equal("binance"))
	})
})

var _ = Describe("FirstPresentInt64", func() {
	It("returns an all-null column when no candidate is present", func() {
		frame := pointline.NewFrame(pointline.NewColumn("exchange", []string{"binance"}))
		out, err := rawcast.FirstPresentInt64(frame, "seq_num", "test", "seq_num", "update_id")
		Expect(err).To(BeNil())
		Expect(out.Name).To(Equal("seq_num"))
		Expect(out.IsNull(0)).To(BeTrue())
	})

	It("casts the first candidate present", func() {
		frame := pointline.NewFrame(
			pointline.NewColumn("exchange", []string{"binance"}),
			pointline.NewColumn("update_id", []string{"77"}),
		)
		out, err := rawcast.FirstPresentInt64(frame, "seq_num", "test", "seq_num", "update_id")
		Expect(err).To(BeNil())
		Expect(out.I64[0]).To(Equal(int64(77)))
	})
})
