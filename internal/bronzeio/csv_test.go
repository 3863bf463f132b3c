package bronzeio_test

import (
	"strings"

	"github.com/neomantra/pointline/internal/bronzeio"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ReadCSVFrame", func() {
	It("reads a headered CSV into Utf8 columns, marking blank cells null", func() {
		csv := "exchange,symbol,price\nbinance,BTCUSDT,100.5\nbinance,,\n"
		frame, err := bronzeio.ReadCSVFrame(strings.NewReader(csv))
		Expect(err).To(BeNil())
		Expect(frame.NumRows()).To(Equal(2))
		Expect(frame.ColumnNames()).To(Equal([]string{"exchange", "symbol", "price"}))
		Expect(frame.Column("symbol").IsNull(1)).To(BeTrue())
		Expect(frame.Column("price").Str[0]).To(Equal("100.5"))
	})

	It("returns an empty frame for an empty stream", func() {
		frame, err := bronzeio.ReadCSVFrame(strings.NewReader(""))
		Expect(err).To(BeNil())
		Expect(frame.IsEmpty()).To(BeTrue())
	})
})
