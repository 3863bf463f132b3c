package dq_test

import (
	"os"

	"github.com/neomantra/pointline"
	"github.com/neomantra/pointline/dq"
	"github.com/neomantra/pointline/storage"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func tempRoot() string {
	dir, err := os.MkdirTemp("", "pointline-dq-*")
	Expect(err).To(BeNil())
	return dir
}

func tradeRow(exchange string, symbolID, tsEventUs, fileID, fileSeq int64, day int32) *pointline.Frame {
	return pointline.NewFrame(
		pointline.NewColumn("exchange", []string{exchange}),
		pointline.NewColumn("trading_date", []int32{day}),
		pointline.NewColumn("symbol", []string{"BTCUSDT"}),
		pointline.NewColumn("symbol_id", []int64{symbolID}),
		pointline.NewColumn("ts_event_us", []int64{tsEventUs}),
		nullableI64("ts_local_us"),
		pointline.NewColumn("file_id", []int64{fileID}),
		pointline.NewColumn("file_seq", []int64{fileSeq}),
		pointline.NewColumn("side", []string{"buy"}),
		pointline.NewColumn("price", []int64{100_000_000_000}),
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

func dimSnapshotRow(symbolID int64) *pointline.Frame {
	return pointline.NewFrame(
		pointline.NewColumn("symbol_id", []int64{symbolID}),
		pointline.NewColumn("exchange", []string{"binance"}),
		pointline.NewColumn("exchange_symbol", []string{"BTCUSDT"}),
		pointline.NewColumn("canonical_symbol", []string{"BTC-USDT"}),
		nullableStr("market_type"),
		nullableStr("base_asset"),
		nullableStr("quote_asset"),
		nullableI64("tick_size"),
		nullableI64("lot_size"),
		nullableI64("contract_size"),
		pointline.NewColumn("valid_from_ts_us", []int64{0}),
		pointline.NewColumn("valid_until_ts_us", []int64{pointline.ValidUntilMax}),
		pointline.NewColumn("is_current", []bool{true}),
		pointline.NewColumn("updated_at_ts_us", []int64{0}),
	)
}

var _ = Describe("RunTable", func() {
	It("reports a passing profile for distinct rows and persists a dq_summary row", func() {
		root := tempRoot()
		defer os.RemoveAll(root)
		events := storage.NewEventStore(root)

		Expect(events.Append("trades", tradeRow("binance", 7, 19723*86400*1_000_000, 1, 0, 19723))).To(Succeed())
		Expect(events.Append("trades", tradeRow("binance", 7, 19723*86400*1_000_000+1, 1, 1, 19723))).To(Succeed())

		results, err := dq.RunTable(events, "trades", []map[string]string{{"exchange": "binance", "trading_date": "2024-01-01"}})
		Expect(err).To(BeNil())
		Expect(results).To(HaveLen(1))
		Expect(results[0].RowCount).To(Equal(int64(2)))
		Expect(results[0].DuplicateRows).To(Equal(int64(0)))
		Expect(results[0].Status).To(Equal("passed"))

		summary, err := events.Scan("dq_summary", nil)
		Expect(err).To(BeNil())
		Expect(summary.NumRows()).To(Equal(1))
	})

	It("flags duplicate tie-break tuples as failed", func() {
		root := tempRoot()
		defer os.RemoveAll(root)
		events := storage.NewEventStore(root)

		row := tradeRow("binance", 7, 19723*86400*1_000_000, 1, 0, 19723)
		Expect(events.Append("trades", row)).To(Succeed())
		Expect(events.Append("trades", row)).To(Succeed())

		results, err := dq.RunTable(events, "trades", []map[string]string{{"exchange": "binance", "trading_date": "2024-01-01"}})
		Expect(err).To(BeNil())
		Expect(results[0].DuplicateRows).To(Equal(int64(1)))
		Expect(results[0].Status).To(Equal("failed"))
		Expect(results[0].IssueCounts).To(HaveKey("duplicate_rows"))
	})
})

var _ = Describe("RunCrossTable", func() {
	It("counts event rows whose symbol_id has no current dim_symbol entry", func() {
		root := tempRoot()
		defer os.RemoveAll(root)
		events := storage.NewEventStore(root)
		dims, err := storage.NewDimensionStore(root)
		Expect(err).To(BeNil())

		_, err = dims.Save(dimSnapshotRow(7), int64Ptr(0))
		Expect(err).To(BeNil())

		Expect(events.Append("trades", tradeRow("binance", 7, 19723*86400*1_000_000, 1, 0, 19723))).To(Succeed())
		Expect(events.Append("trades", tradeRow("binance", 99, 19723*86400*1_000_000, 1, 1, 19723))).To(Succeed())

		result, err := dq.RunCrossTable(events, dims)
		Expect(err).To(BeNil())
		Expect(result.MissingDimSymbolRows).To(Equal(int64(1)))
	})

	It("flags a manifest row-count that disagrees with the actual silver row count", func() {
		root := tempRoot()
		defer os.RemoveAll(root)
		events := storage.NewEventStore(root)
		dims, err := storage.NewDimensionStore(root)
		Expect(err).To(BeNil())
		manifest, err := storage.NewManifestStore(root)
		Expect(err).To(BeNil())
		defer manifest.Close()

		Expect(events.Append("trades", tradeRow("binance", 7, 19723*86400*1_000_000, 1, 0, 19723))).To(Succeed())

		meta := pointline.BronzeFileMetadata{Vendor: "genericvendor", DataType: "trades", BronzeFilePath: "f.csv.gz", SHA256: "abc"}
		fileID, err := manifest.ResolveFileID(meta)
		Expect(err).To(BeNil())
		Expect(fileID).To(Equal(int64(1)))
		Expect(manifest.UpdateStatus(fileID, pointline.StatusSuccess, meta, &pointline.IngestionResult{
			RowCount: 1, RowsWritten: 5, // deliberately wrong: only 1 row was actually appended above
		})).To(Succeed())

		result, err := dq.RunCrossTable(events, dims)
		Expect(err).To(BeNil())
		Expect(result.ManifestSilverMismatches).To(HaveLen(1))
		Expect(result.ManifestSilverMismatches[0].ManifestRows).To(Equal(int64(5)))
		Expect(result.ManifestSilverMismatches[0].SilverRows).To(Equal(int64(1)))
	})
})

func int64Ptr(v int64) *int64 { return &v }
