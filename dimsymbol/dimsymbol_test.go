package dimsymbol_test

import (
	"github.com/neomantra/pointline"
	"github.com/neomantra/pointline/dimsymbol"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func snapshotFrame(exchanges, symbols, canon []string) *pointline.Frame {
	return pointline.NewFrame(
		pointline.NewColumn("exchange", exchanges),
		pointline.NewColumn("exchange_symbol", symbols),
		pointline.NewColumn("canonical_symbol", canon),
	)
}

var _ = Describe("Bootstrap", func() {
	It("opens every row as current with the sentinel valid_until", func() {
		snap := snapshotFrame(
			[]string{"binance", "binance"},
			[]string{"BTCUSDT", "ETHUSDT"},
			[]string{"BTC-USDT", "ETH-USDT"},
		)
		dim, err := dimsymbol.Bootstrap(snap, 1_000)
		Expect(err).To(BeNil())
		Expect(dim.NumRows()).To(Equal(2))
		Expect(dim.Column("valid_until_ts_us").I64).To(Equal([]int64{pointline.ValidUntilMax, pointline.ValidUntilMax}))
		Expect(dim.Column("is_current").Bln).To(Equal([]bool{true, true}))
		Expect(dimsymbol.Validate(dim)).To(BeNil())
	})

	It("assigns the same symbol_id as SymbolID for each pair", func() {
		snap := snapshotFrame([]string{"okx"}, []string{"BTC-USDT"}, []string{"BTC-USDT"})
		dim, err := dimsymbol.Bootstrap(snap, 1)
		Expect(err).To(BeNil())
		Expect(dim.Column("symbol_id").I64[0]).To(Equal(dimsymbol.SymbolID("okx", "BTC-USDT")))
	})
})

var _ = Describe("Upsert", func() {
	It("closes a changed row and opens a new window with the same symbol_id", func() {
		snap := snapshotFrame([]string{"binance"}, []string{"BTCUSDT"}, []string{"BTC-USDT"})
		dim, err := dimsymbol.Bootstrap(snap, 1000)
		Expect(err).To(BeNil())

		changed := snapshotFrame([]string{"binance"}, []string{"BTCUSDT"}, []string{"BTC-USD"})
		next, err := dimsymbol.Upsert(dim, changed, 2000, nil)
		Expect(err).To(BeNil())
		Expect(next.NumRows()).To(Equal(2))
		Expect(dimsymbol.Validate(next)).To(BeNil())

		ids := map[bool]int{}
		for i := 0; i < next.NumRows(); i++ {
			ids[next.Column("is_current").Bln[i]]++
		}
		Expect(ids[true]).To(Equal(1))
		Expect(ids[false]).To(Equal(1))
	})

	It("implicitly delists a pair absent from a snapshot covering its exchange", func() {
		snap := snapshotFrame(
			[]string{"binance", "binance"},
			[]string{"BTCUSDT", "ETHUSDT"},
			[]string{"BTC-USDT", "ETH-USDT"},
		)
		dim, err := dimsymbol.Bootstrap(snap, 1000)
		Expect(err).To(BeNil())

		onlyBTC := snapshotFrame([]string{"binance"}, []string{"BTCUSDT"}, []string{"BTC-USDT"})
		next, err := dimsymbol.Upsert(dim, onlyBTC, 2000, nil)
		Expect(err).To(BeNil())
		Expect(dimsymbol.Validate(next)).To(BeNil())

		currentCount := 0
		for i := 0; i < next.NumRows(); i++ {
			if next.Column("is_current").Bln[i] {
				currentCount++
			}
		}
		Expect(currentCount).To(Equal(1))
	})

	It("leaves a pair from an untouched exchange alone", func() {
		snap := snapshotFrame([]string{"binance", "okx"}, []string{"BTCUSDT", "ETH-USDT"}, []string{"BTC-USDT", "ETH-USDT"})
		dim, err := dimsymbol.Bootstrap(snap, 1000)
		Expect(err).To(BeNil())

		binanceOnly := snapshotFrame([]string{"binance"}, []string{"BTCUSDT"}, []string{"BTC-USDT"})
		next, err := dimsymbol.Upsert(dim, binanceOnly, 2000, nil)
		Expect(err).To(BeNil())

		currentCount := 0
		for i := 0; i < next.NumRows(); i++ {
			if next.Column("is_current").Bln[i] {
				currentCount++
			}
		}
		Expect(currentCount).To(Equal(2))
	})
})

var _ = Describe("PITResolve", func() {
	It("resolves events whose timestamp falls inside the dimension window", func() {
		snap := snapshotFrame([]string{"binance"}, []string{"BTCUSDT"}, []string{"BTC-USDT"})
		dim, err := dimsymbol.Bootstrap(snap, 1000)
		Expect(err).To(BeNil())

		events := pointline.NewFrame(
			pointline.NewColumn("exchange", []string{"binance", "binance"}),
			pointline.NewColumn("symbol", []string{"BTCUSDT", "BTCUSDT"}),
			pointline.NewColumn("ts_event_us", []int64{999, 5000}),
		)
		valid, quarantined, reason, err := dimsymbol.PITResolve(events, dim)
		Expect(err).To(BeNil())
		Expect(valid.NumRows()).To(Equal(1))
		Expect(quarantined.NumRows()).To(Equal(1))
		Expect(reason).To(Equal(pointline.RuleMissingPITCoverage))
		Expect(valid.Column("symbol_id").I64[0]).To(Equal(dimsymbol.SymbolID("binance", "BTCUSDT")))
	})
})
