package ingest_test

import (
	"fmt"

	"github.com/neomantra/pointline"
	"github.com/neomantra/pointline/dimsymbol"
	"github.com/neomantra/pointline/ingest"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("NormalizeToTableSpec", func() {
	It("rejects a scaled column that isn't already Int64", func() {
		spec, _ := pointline.GetTableSpec("trades")
		df := pointline.NewFrame(
			pointline.NewColumn("exchange", []string{"binance"}),
			pointline.NewColumn("trading_date", []int32{0}),
			pointline.NewColumn("symbol", []string{"BTCUSDT"}),
			pointline.NewColumn("symbol_id", []int64{1}),
			pointline.NewColumn("ts_event_us", []int64{1}),
			pointline.NewColumn("file_id", []int64{1}),
			pointline.NewColumn("file_seq", []int64{0}),
			pointline.NewColumn("side", []string{"buy"}),
			pointline.NewColumn("price", []float64{100.5}),
			pointline.NewColumn("qty", []int64{1_000_000_000}),
		)
		_, err := ingest.NormalizeToTableSpec(df, spec)
		Expect(err).ToNot(BeNil())
		Expect(err.Error()).To(ContainSubstring("pre-scaled Int64"))
	})

	It("fills missing nullable columns and projects to declared order", func() {
		spec, _ := pointline.GetTableSpec("trades")
		df := pointline.NewFrame(
			pointline.NewColumn("exchange", []string{"binance"}),
			pointline.NewColumn("trading_date", []int32{0}),
			pointline.NewColumn("symbol", []string{"BTCUSDT"}),
			pointline.NewColumn("symbol_id", []int64{1}),
			pointline.NewColumn("ts_event_us", []int64{1}),
			pointline.NewColumn("file_id", []int64{1}),
			pointline.NewColumn("file_seq", []int64{0}),
			pointline.NewColumn("side", []string{"buy"}),
			pointline.NewColumn("price", []int64{100_000_000_000}),
			pointline.NewColumn("qty", []int64{1_000_000_000}),
		)
		out, err := ingest.NormalizeToTableSpec(df, spec)
		Expect(err).To(BeNil())
		Expect(out.ColumnNames()).To(Equal(spec.ColumnNames()))
		Expect(out.Column("trade_id").IsNull(0)).To(BeTrue())
	})
})

var _ = Describe("ApplyEventValidations", func() {
	It("quarantines trades with a non-positive price", func() {
		df := pointline.NewFrame(
			pointline.NewColumn("side", []string{"buy", "sell"}),
			pointline.NewColumn("price", []int64{100, -5}),
			pointline.NewColumn("qty", []int64{1, 1}),
		)
		valid, quarantined, reason, err := ingest.ApplyEventValidations(df, "trades")
		Expect(err).To(BeNil())
		Expect(valid.NumRows()).To(Equal(1))
		Expect(quarantined.NumRows()).To(Equal(1))
		Expect(reason).To(Equal(pointline.RuleInvalidTradeSideOrValues))
	})

	It("quarantines a quote with a null bid_qty or ask_qty", func() {
		bidQty := pointline.NewColumn("bid_qty", []int64{100, 0})
		bidQty.SetNull(0)
		askQty := pointline.NewColumn("ask_qty", []int64{0, 100})
		askQty.SetNull(1)
		df := pointline.NewFrame(
			pointline.NewColumn("bid_price", []int64{100, 100}),
			pointline.NewColumn("ask_price", []int64{200, 200}),
			bidQty,
			askQty,
		)
		valid, quarantined, reason, err := ingest.ApplyEventValidations(df, "quotes")
		Expect(err).To(BeNil())
		Expect(valid.NumRows()).To(Equal(0))
		Expect(quarantined.NumRows()).To(Equal(2))
		Expect(reason).To(Equal(pointline.RuleInvalidQuoteTopOfBook))
	})

	It("quarantines an orderbook update with a null qty", func() {
		qty := pointline.NewColumn("qty", []int64{0, 100})
		qty.SetNull(0)
		isSnapshot := pointline.NewColumn("is_snapshot", []bool{true, true})
		df := pointline.NewFrame(
			pointline.NewColumn("side", []string{"bid", "ask"}),
			pointline.NewColumn("price", []int64{100, 100}),
			qty,
			isSnapshot,
		)
		valid, quarantined, reason, err := ingest.ApplyEventValidations(df, "orderbook_updates")
		Expect(err).To(BeNil())
		Expect(valid.NumRows()).To(Equal(1))
		Expect(quarantined.NumRows()).To(Equal(1))
		Expect(reason).To(Equal(pointline.RuleInvalidOrderbookUpdate))
	})
})

var _ = Describe("DeriveTradingDate", func() {
	It("buckets ts_event_us into the exchange's calendar day", func() {
		df := pointline.NewFrame(
			pointline.NewColumn("exchange", []string{"binance"}),
			pointline.NewColumn("ts_event_us", []int64{1_700_000_000_000_000}),
		)
		out, err := ingest.DeriveTradingDate(df)
		Expect(err).To(BeNil())
		Expect(out.Has("trading_date")).To(BeTrue())
	})

	It("errors for an exchange with no v1 timezone mapping", func() {
		df := pointline.NewFrame(
			pointline.NewColumn("exchange", []string{"nasdaq"}),
			pointline.NewColumn("ts_event_us", []int64{1}),
		)
		_, err := ingest.DeriveTradingDate(df)
		Expect(err).To(MatchError(pointline.ErrUnknownExchange))
	})
})

type fakeManifest struct {
	nextID  int64
	pending bool
	updates []string
}

func (m *fakeManifest) FilterPending(candidates []pointline.BronzeFileMetadata) ([]pointline.BronzeFileMetadata, error) {
	if m.pending {
		return candidates, nil
	}
	return nil, nil
}

func (m *fakeManifest) ResolveFileID(meta pointline.BronzeFileMetadata) (int64, error) {
	m.nextID++
	return m.nextID, nil
}

func (m *fakeManifest) UpdateStatus(fileID int64, status string, meta pointline.BronzeFileMetadata, result *pointline.IngestionResult) error {
	m.updates = append(m.updates, fmt.Sprintf("%d:%s", fileID, status))
	return nil
}

type fakeEventStore struct {
	written map[string]*pointline.Frame
}

func (s *fakeEventStore) Append(tableName string, rows *pointline.Frame) error {
	if s.written == nil {
		s.written = map[string]*pointline.Frame{}
	}
	s.written[tableName] = rows
	return nil
}

type fakeQuarantineStore struct {
	batches int
}

func (s *fakeQuarantineStore) Append(tableName string, rows *pointline.Frame, reason string, fileID int64) error {
	s.batches++
	return nil
}

var _ = Describe("Pipeline.IngestFile", func() {
	dimFor := func() *pointline.Frame {
		snap := pointline.NewFrame(
			pointline.NewColumn("exchange", []string{"binance"}),
			pointline.NewColumn("exchange_symbol", []string{"BTCUSDT"}),
			pointline.NewColumn("canonical_symbol", []string{"BTC-USDT"}),
		)
		dim, err := dimsymbol.Bootstrap(snap, 0)
		Expect(err).To(BeNil())
		return dim
	}

	It("writes normalized rows and marks the manifest success on a clean file", func() {
		manifest := &fakeManifest{pending: true}
		writer := &fakeEventStore{}
		quarantine := &fakeQuarantineStore{}

		p := &ingest.Pipeline{
			Parser: func(meta pointline.BronzeFileMetadata) (*pointline.Frame, error) {
				return pointline.NewFrame(
					pointline.NewColumn("exchange", []string{"binance"}),
					pointline.NewColumn("symbol", []string{"BTCUSDT"}),
					pointline.NewColumn("ts_event_us", []int64{1_700_000_000_000_000}),
					pointline.NewColumn("side", []string{"buy"}),
					pointline.NewColumn("price", []int64{100_000_000_000}),
					pointline.NewColumn("qty", []int64{1_000_000_000}),
				), nil
			},
			Manifest:   manifest,
			Writer:     writer,
			Quarantine: quarantine,
			DimSymbol:  dimFor(),
		}

		result := p.IngestFile(pointline.BronzeFileMetadata{Vendor: "genericvendor", DataType: "trades"})
		Expect(result.Status).To(Equal(pointline.StatusSuccess))
		Expect(result.RowsWritten).To(Equal(int64(1)))
		Expect(writer.written["trades"]).ToNot(BeNil())
		Expect(manifest.updates).To(ContainElement("1:success"))
	})

	It("reports a failed/empty_parse result without touching the writer", func() {
		manifest := &fakeManifest{pending: true}
		writer := &fakeEventStore{}
		p := &ingest.Pipeline{
			Parser: func(meta pointline.BronzeFileMetadata) (*pointline.Frame, error) {
				return pointline.EmptyFrame(), nil
			},
			Manifest:  manifest,
			Writer:    writer,
			DimSymbol: dimFor(),
		}
		result := p.IngestFile(pointline.BronzeFileMetadata{Vendor: "genericvendor", DataType: "trades"})
		Expect(result.Status).To(Equal(pointline.StatusFailed))
		Expect(result.FailureReason).To(Equal(pointline.FailureReasonEmptyParse))
		Expect(writer.written).To(BeNil())
	})

	It("skips a file the manifest already has recorded, unless force is set", func() {
		manifest := &fakeManifest{pending: false}
		p := &ingest.Pipeline{
			Parser: func(meta pointline.BronzeFileMetadata) (*pointline.Frame, error) {
				return pointline.EmptyFrame(), nil
			},
			Manifest:  manifest,
			Writer:    &fakeEventStore{},
			DimSymbol: dimFor(),
		}
		result := p.IngestFile(pointline.BronzeFileMetadata{Vendor: "genericvendor", DataType: "trades"})
		Expect(result.Status).To(Equal(pointline.StatusSuccess))
		Expect(result.Skipped).To(BeTrue())
	})

	It("quarantines a file whose rows fail PIT coverage", func() {
		manifest := &fakeManifest{pending: true}
		quarantine := &fakeQuarantineStore{}
		p := &ingest.Pipeline{
			Parser: func(meta pointline.BronzeFileMetadata) (*pointline.Frame, error) {
				return pointline.NewFrame(
					pointline.NewColumn("exchange", []string{"binance"}),
					pointline.NewColumn("symbol", []string{"UNKNOWNPAIR"}),
					pointline.NewColumn("ts_event_us", []int64{1}),
					pointline.NewColumn("side", []string{"buy"}),
					pointline.NewColumn("price", []int64{1_000_000_000}),
					pointline.NewColumn("qty", []int64{1_000_000_000}),
				), nil
			},
			Manifest:   manifest,
			Writer:     &fakeEventStore{},
			Quarantine: quarantine,
			DimSymbol:  dimFor(),
		}
		result := p.IngestFile(pointline.BronzeFileMetadata{Vendor: "genericvendor", DataType: "trades"})
		Expect(result.Status).To(Equal(pointline.StatusQuarantined))
		Expect(result.FailureReason).To(Equal(pointline.RuleMissingPITCoverage))
		Expect(quarantine.batches).To(BeNumerically(">", 0))
	})
})
