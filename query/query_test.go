package query_test

import (
	"os"

	"github.com/neomantra/pointline"
	"github.com/neomantra/pointline/query"
	"github.com/neomantra/pointline/storage"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func tempRoot() string {
	dir, err := os.MkdirTemp("", "pointline-query-*")
	Expect(err).To(BeNil())
	return dir
}

// dayUs returns the ts_event_us for midnight UTC of the given
// days-since-epoch, the same convention dq's tests use.
func dayUs(day int64) int64 { return day * 86400 * 1_000_000 }

func tradeRow(exchange, symbol string, symbolID, tsEventUs, fileID, fileSeq int64, day int32, price int64) *pointline.Frame {
	return pointline.NewFrame(
		pointline.NewColumn("exchange", []string{exchange}),
		pointline.NewColumn("trading_date", []int32{day}),
		pointline.NewColumn("symbol", []string{symbol}),
		pointline.NewColumn("symbol_id", []int64{symbolID}),
		pointline.NewColumn("ts_event_us", []int64{tsEventUs}),
		nullableI64("ts_local_us"),
		pointline.NewColumn("file_id", []int64{fileID}),
		pointline.NewColumn("file_seq", []int64{fileSeq}),
		pointline.NewColumn("side", []string{"buy"}),
		pointline.NewColumn("price", []int64{price}),
		pointline.NewColumn("qty", []int64{1_000_000_000}),
		nullableBool("is_buyer_maker"),
		nullableStr("trade_id"),
	)
}

func nullableI64(name string) *pointline.Column {
	c := pointline.NewColumn(name, []int64{0})
	c.SetNull(0)
	return c
}

func nullableBool(name string) *pointline.Column {
	c := pointline.NewColumn(name, []bool{false})
	c.SetNull(0)
	return c
}

func nullableStr(name string) *pointline.Column {
	c := pointline.NewColumn(name, []string{""})
	c.SetNull(0)
	return c
}

var _ = Describe("Scan", func() {
	It("returns only rows within the requested exchange and ts_event_us range", func() {
		root := tempRoot()
		defer os.RemoveAll(root)
		events := storage.NewEventStore(root)

		Expect(events.Append("trades", tradeRow("binance", "BTCUSDT", 7, dayUs(19723), 1, 0, 19723, 100_000_000_000))).To(Succeed())
		Expect(events.Append("trades", tradeRow("binance", "BTCUSDT", 7, dayUs(19723)+1, 1, 1, 19723, 101_000_000_000))).To(Succeed())
		Expect(events.Append("trades", tradeRow("binance", "BTCUSDT", 7, dayUs(19723)+10_000_000, 1, 2, 19723, 999_000_000_000))).To(Succeed())
		Expect(events.Append("trades", tradeRow("coinbase", "BTCUSDT", 7, dayUs(19723), 2, 0, 19723, 100_000_000_000))).To(Succeed())

		frame, err := query.Scan(events, "trades", query.Params{
			Exchange:  "binance",
			StartTSUs: dayUs(19723),
			EndTSUs:   dayUs(19723) + 2,
		})
		Expect(err).To(BeNil())
		Expect(frame.NumRows()).To(Equal(2))
	})

	It("filters by symbol when Symbols is given", func() {
		root := tempRoot()
		defer os.RemoveAll(root)
		events := storage.NewEventStore(root)

		Expect(events.Append("trades", tradeRow("binance", "BTCUSDT", 7, dayUs(19723), 1, 0, 19723, 100_000_000_000))).To(Succeed())
		Expect(events.Append("trades", tradeRow("binance", "ETHUSDT", 8, dayUs(19723), 1, 1, 19723, 3_000_000_000))).To(Succeed())

		frame, err := query.Scan(events, "trades", query.Params{
			Exchange:  "binance",
			Symbols:   []string{"ETHUSDT"},
			StartTSUs: dayUs(19723),
			EndTSUs:   dayUs(19724),
		})
		Expect(err).To(BeNil())
		Expect(frame.NumRows()).To(Equal(1))
		Expect(frame.Column("symbol").Str[0]).To(Equal("ETHUSDT"))
	})

	It("projects only the requested columns", func() {
		root := tempRoot()
		defer os.RemoveAll(root)
		events := storage.NewEventStore(root)

		Expect(events.Append("trades", tradeRow("binance", "BTCUSDT", 7, dayUs(19723), 1, 0, 19723, 100_000_000_000))).To(Succeed())

		frame, err := query.Scan(events, "trades", query.Params{
			Exchange:  "binance",
			StartTSUs: dayUs(19723),
			EndTSUs:   dayUs(19724),
			Columns:   []string{"ts_event_us", "price"},
		})
		Expect(err).To(BeNil())
		Expect(frame.NumCols()).To(Equal(2))
		Expect(frame.ColumnNames()).To(Equal([]string{"ts_event_us", "price"}))
		Expect(frame.Column("price").I64[0]).To(Equal(int64(100_000_000_000)))
	})

	It("returns an empty frame when no files match the exchange", func() {
		root := tempRoot()
		defer os.RemoveAll(root)
		events := storage.NewEventStore(root)

		Expect(events.Append("trades", tradeRow("binance", "BTCUSDT", 7, dayUs(19723), 1, 0, 19723, 100_000_000_000))).To(Succeed())

		frame, err := query.Scan(events, "trades", query.Params{
			Exchange:  "okx",
			StartTSUs: dayUs(19723),
			EndTSUs:   dayUs(19724),
		})
		Expect(err).To(BeNil())
		Expect(frame.NumRows()).To(Equal(0))
	})

	It("rejects a missing exchange", func() {
		root := tempRoot()
		defer os.RemoveAll(root)
		events := storage.NewEventStore(root)

		_, err := query.Scan(events, "trades", query.Params{
			StartTSUs: dayUs(19723),
			EndTSUs:   dayUs(19724),
		})
		Expect(err).ToNot(BeNil())
	})

	It("rejects an unsupported ts_col", func() {
		root := tempRoot()
		defer os.RemoveAll(root)
		events := storage.NewEventStore(root)

		_, err := query.Scan(events, "trades", query.Params{
			Exchange:  "binance",
			StartTSUs: dayUs(19723),
			EndTSUs:   dayUs(19724),
			TSCol:     "ts_bogus_us",
		})
		Expect(err).ToNot(BeNil())
	})
})
