package storage_test

import (
	"os"

	"github.com/neomantra/pointline"
	"github.com/neomantra/pointline/storage"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func tempRoot() string {
	dir, err := os.MkdirTemp("", "pointline-storage-*")
	Expect(err).To(BeNil())
	return dir
}

func tradesFrame(exchange, date string, n int, day int32) *pointline.Frame {
	exch := make([]string, n)
	trading := make([]int32, n)
	symbol := make([]string, n)
	symbolID := make([]int64, n)
	tsEvent := make([]int64, n)
	fileID := make([]int64, n)
	fileSeq := make([]int64, n)
	side := make([]string, n)
	price := make([]int64, n)
	qty := make([]int64, n)
	for i := 0; i < n; i++ {
		exch[i] = exchange
		trading[i] = day
		symbol[i] = "BTCUSDT"
		symbolID[i] = 7
		tsEvent[i] = int64(i)
		fileID[i] = 1
		fileSeq[i] = int64(i)
		side[i] = "buy"
		price[i] = 100_000_000_000
		qty[i] = 1_000_000_000
	}
	return pointline.NewFrame(
		pointline.NewColumn("exchange", exch),
		pointline.NewColumn("trading_date", trading),
		pointline.NewColumn("symbol", symbol),
		pointline.NewColumn("symbol_id", symbolID),
		pointline.NewColumn("ts_event_us", tsEvent),
		nullableTSLocal(n),
		pointline.NewColumn("file_id", fileID),
		pointline.NewColumn("file_seq", fileSeq),
		pointline.NewColumn("side", side),
		pointline.NewColumn("price", price),
		pointline.NewColumn("qty", qty),
		nullableBool(n),
		nullableTradeID(n),
	)
}

func nullableTSLocal(n int) *pointline.Column {
	c := pointline.NewColumn("ts_local_us", make([]int64, n))
	c.EnsureValid()
	for i := range c.Valid {
		c.Valid[i] = false
	}
	return c
}

func nullableBool(n int) *pointline.Column {
	c := pointline.NewColumn("is_buyer_maker", make([]bool, n))
	c.EnsureValid()
	for i := range c.Valid {
		c.Valid[i] = false
	}
	return c
}

func nullableTradeID(n int) *pointline.Column {
	c := pointline.NewColumn("trade_id", make([]string, n))
	c.EnsureValid()
	for i := range c.Valid {
		c.Valid[i] = false
	}
	return c
}

var _ = Describe("EventStore", func() {
	It("writes and scans back a partition's rows", func() {
		root := tempRoot()
		defer os.RemoveAll(root)

		store := storage.NewEventStore(root)
		df := tradesFrame("binance", "2024-01-01", 3, 19723)
		Expect(store.Append("trades", df)).To(Succeed())

		out, err := store.Scan("trades", nil)
		Expect(err).To(BeNil())
		Expect(out.NumRows()).To(Equal(3))
	})

	It("rejects a frame with an unexpected column", func() {
		root := tempRoot()
		defer os.RemoveAll(root)
		store := storage.NewEventStore(root)

		df := tradesFrame("binance", "2024-01-01", 1, 19723).
			WithColumn(pointline.NewColumn("bogus", []int64{1}))
		err := store.Append("trades", df)
		Expect(err).To(MatchError(pointline.ErrSchemaMismatch))
	})

	It("rejects a frame whose column dtype doesn't match the declared spec", func() {
		root := tempRoot()
		defer os.RemoveAll(root)
		store := storage.NewEventStore(root)

		df := tradesFrame("binance", "2024-01-01", 1, 19723).
			WithColumn(pointline.NewColumn("price", []float64{100.5}))
		err := store.Append("trades", df)
		Expect(err).To(MatchError(pointline.ErrSchemaMismatch))
		var mismatch *pointline.SchemaMismatchError
		Expect(err).To(BeAssignableToTypeOf(mismatch))
		Expect(err.(*pointline.SchemaMismatchError).DtypeErrs).ToNot(BeEmpty())
	})
})

var _ = Describe("ManifestStore", func() {
	It("mints increasing file_ids and reflects success in FilterPending", func() {
		root := tempRoot()
		defer os.RemoveAll(root)

		m, err := storage.NewManifestStore(root)
		Expect(err).To(BeNil())
		defer m.Close()

		meta := pointline.BronzeFileMetadata{Vendor: "genericvendor", DataType: "trades", BronzeFilePath: "f.csv.gz", SHA256: "abc"}

		pending, err := m.FilterPending([]pointline.BronzeFileMetadata{meta})
		Expect(err).To(BeNil())
		Expect(pending).To(HaveLen(1))

		id, err := m.ResolveFileID(meta)
		Expect(err).To(BeNil())
		Expect(id).To(Equal(int64(1)))

		Expect(m.UpdateStatus(id, pointline.StatusSuccess, meta, &pointline.IngestionResult{
			RowCount: 1, RowsWritten: 1,
		})).To(Succeed())

		stillPending, err := m.FilterPending([]pointline.BronzeFileMetadata{meta})
		Expect(err).To(BeNil())
		Expect(stillPending).To(BeEmpty())

		id2, err := m.ResolveFileID(pointline.BronzeFileMetadata{Vendor: "genericvendor", DataType: "trades", BronzeFilePath: "g.csv.gz", SHA256: "def"})
		Expect(err).To(BeNil())
		Expect(id2).To(Equal(int64(2)))
	})

	It("leaves a failed file pending for the next run", func() {
		root := tempRoot()
		defer os.RemoveAll(root)
		m, err := storage.NewManifestStore(root)
		Expect(err).To(BeNil())
		defer m.Close()

		meta := pointline.BronzeFileMetadata{Vendor: "genericvendor", DataType: "trades", BronzeFilePath: "f.csv.gz", SHA256: "abc"}
		id, err := m.ResolveFileID(meta)
		Expect(err).To(BeNil())
		Expect(m.UpdateStatus(id, pointline.StatusFailed, meta, &pointline.IngestionResult{
			FailureReason: pointline.FailureReasonParserError,
		})).To(Succeed())

		pending, err := m.FilterPending([]pointline.BronzeFileMetadata{meta})
		Expect(err).To(BeNil())
		Expect(pending).To(HaveLen(1))
	})
})

var _ = Describe("DimensionStore", func() {
	It("round-trips a snapshot and rejects a stale expected_version", func() {
		root := tempRoot()
		defer os.RemoveAll(root)

		ds, err := storage.NewDimensionStore(root)
		Expect(err).To(BeNil())

		dim, version, err := ds.Load()
		Expect(err).To(BeNil())
		Expect(dim.IsEmpty()).To(BeTrue())
		Expect(version).To(Equal(int64(0)))

		snap := pointline.NewFrame(
			pointline.NewColumn("symbol_id", []int64{7}),
			pointline.NewColumn("exchange", []string{"binance"}),
			pointline.NewColumn("exchange_symbol", []string{"BTCUSDT"}),
			pointline.NewColumn("canonical_symbol", []string{"BTC-USDT"}),
			nullableOptStr("market_type"),
			nullableOptStr("base_asset"),
			nullableOptStr("quote_asset"),
			nullableOptI64("tick_size"),
			nullableOptI64("lot_size"),
			nullableOptI64("contract_size"),
			pointline.NewColumn("valid_from_ts_us", []int64{0}),
			pointline.NewColumn("valid_until_ts_us", []int64{pointline.ValidUntilMax}),
			pointline.NewColumn("is_current", []bool{true}),
			pointline.NewColumn("updated_at_ts_us", []int64{0}),
		)

		newVersion, err := ds.Save(snap, &version)
		Expect(err).To(BeNil())
		Expect(newVersion).To(Equal(int64(1)))

		reloaded, version2, err := ds.Load()
		Expect(err).To(BeNil())
		Expect(reloaded.NumRows()).To(Equal(1))
		Expect(version2).To(Equal(int64(1)))

		_, err = ds.Save(snap, &version) // stale: version is now 1, not 0
		Expect(err).To(MatchError(pointline.ErrVersionMismatch))
	})
})

func nullableOptStr(name string) *pointline.Column {
	c := pointline.NewColumn(name, []string{""})
	c.SetNull(0)
	return c
}

func nullableOptI64(name string) *pointline.Column {
	c := pointline.NewColumn(name, []int64{0})
	c.SetNull(0)
	return c
}

var _ = Describe("CompactPartitions/VacuumTable", func() {
	It("skips below the small-file threshold, then compacts and vacuums once enough files exist", func() {
		root := tempRoot()
		defer os.RemoveAll(root)
		store := storage.NewEventStore(root)

		for i := 0; i < 3; i++ {
			Expect(store.Append("trades", tradesFrame("binance", "2024-01-01", 1, 19723))).To(Succeed())
		}

		partitions := []map[string]string{{"exchange": "binance", "trading_date": "2024-01-01"}}
		report, err := storage.CompactPartitions(store, "trades", partitions, 8, false, true)
		Expect(err).To(BeNil())
		Expect(report.Skipped).To(Equal(1))

		report2, err := storage.CompactPartitions(store, "trades", partitions, 2, false, true)
		Expect(err).To(BeNil())
		Expect(report2.Succeeded).To(Equal(1))

		out, err := store.Scan("trades", nil)
		Expect(err).To(BeNil())
		Expect(out.NumRows()).To(Equal(3))

		report3, err := storage.CompactPartitions(store, "trades", partitions, 2, false, true)
		Expect(err).To(BeNil())
		Expect(report3.Skipped).To(Equal(1))
		Expect(report3.Succeeded).To(Equal(0))

		vreport, err := storage.VacuumTable(store, "trades", nil, false, true, false)
		Expect(err).To(BeNil())
		Expect(vreport.DeletedCount).To(BeNumerically(">=", 0))

		vreport2, err := storage.VacuumTable(store, "trades", nil, false, true, false)
		Expect(err).To(BeNil())
		Expect(vreport2.DeletedCount).To(Equal(0))
	})
})
