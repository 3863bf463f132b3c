package dq

import (
	"time"

	"github.com/neomantra/pointline"
	"github.com/neomantra/pointline/storage"
)

// eventTableNames are the tables a cross-table pass walks looking for
// symbol/manifest/partition issues. Kept separate from
// pointline.ListTableSpecs() so dimension/control tables never get
// treated as event rows.
var eventTableNames = []string{
	"trades", "quotes", "orderbook_updates", "derivative_ticker",
	"liquidations", "options_chain",
	"cn_order_events", "cn_tick_events", "cn_l2_snapshots",
}

// temporalAlignmentTolerance bounds how far apart two tables' row
// ranges for the same exchange may drift before being flagged, per
// §4.H's "temporal alignment within a tolerance".
const temporalAlignmentTolerance = 60 * time.Second

// RunCrossTable checks whole-lake consistency that no single table's
// profile can see (§4.H, §C.3): every event row's
// symbol_id resolves to a current dim_symbol entry, manifest
// rows_written matches the silver tables' actual row count per
// file_id, trades/quotes/book coverage stays temporally aligned per
// exchange, and each event row's trading_date matches its
// ts_event_us's local calendar date in the exchange's timezone.
func RunCrossTable(events *storage.EventStore, dims *storage.DimensionStore) (*pointline.CrossTableResult, error) {
	currentSymbolIDs, err := currentDimSymbolIDs(dims)
	if err != nil {
		return nil, err
	}

	manifest, err := events.Scan("ingest_manifest", nil)
	if err != nil {
		return nil, err
	}
	silverRowsByFile := map[int64]int64{}
	rangesByTable := map[string]map[string]tsRange{}
	locations := map[string]*time.Location{}

	var missingDimRows int64
	var partitionMismatches int64

	for _, table := range eventTableNames {
		frame, err := events.Scan(table, nil)
		if err != nil {
			return nil, err
		}
		if frame.IsEmpty() {
			continue
		}
		symbolIDs := frame.Column("symbol_id")
		fileIDs := frame.Column("file_id")
		exchanges := frame.Column("exchange")
		tradingDates := frame.Column("trading_date")
		tsEvent := frame.Column("ts_event_us")
		byExchange := map[string]tsRange{}

		for row := 0; row < frame.NumRows(); row++ {
			if !symbolIDs.IsNull(row) && !currentSymbolIDs[symbolIDs.I64[row]] {
				missingDimRows++
			}
			if !fileIDs.IsNull(row) {
				silverRowsByFile[fileIDs.I64[row]]++
			}
			if !exchanges.IsNull(row) && !tsEvent.IsNull(row) {
				key := exchanges.Str[row]
				r := byExchange[key]
				ts := tsEvent.I64[row]
				if !r.found || ts < r.min {
					r.min = ts
				}
				if !r.found || ts > r.max {
					r.max = ts
				}
				r.found = true
				byExchange[key] = r
			}
			if !tradingDates.IsNull(row) && !tsEvent.IsNull(row) && !exchanges.IsNull(row) {
				wantDate := localDateDays(tsEvent.I64[row], locationFor(exchanges.Str[row], locations))
				if tradingDates.D32[row] != wantDate {
					partitionMismatches++
				}
			}
		}
		rangesByTable[table] = byExchange
	}

	mismatches := manifestSilverMismatches(manifest, silverRowsByFile)
	temporalIssues := temporalAlignmentIssues(rangesByTable)

	return &pointline.CrossTableResult{
		MissingDimSymbolRows:     missingDimRows,
		ManifestSilverMismatches: mismatches,
		TemporalAlignmentIssues:  temporalIssues,
		PartitionDateMismatches:  partitionMismatches,
	}, nil
}

func currentDimSymbolIDs(dims *storage.DimensionStore) (map[int64]bool, error) {
	frame, _, err := dims.Load()
	if err != nil {
		return nil, err
	}
	out := map[int64]bool{}
	if frame.IsEmpty() {
		return out, nil
	}
	ids := frame.Column("symbol_id")
	current := frame.Column("is_current")
	for row := 0; row < frame.NumRows(); row++ {
		if !current.IsNull(row) && current.Bln[row] {
			out[ids.I64[row]] = true
		}
	}
	return out, nil
}

func manifestSilverMismatches(manifest *pointline.Frame, silverRowsByFile map[int64]int64) []pointline.ManifestSilverMismatch {
	if manifest.IsEmpty() {
		return nil
	}
	fileIDs := manifest.Column("file_id")
	statuses := manifest.Column("status")
	rowsWritten := manifest.Column("rows_written")

	var out []pointline.ManifestSilverMismatch
	for row := 0; row < manifest.NumRows(); row++ {
		if statuses.IsNull(row) || statuses.Str[row] != pointline.StatusSuccess {
			continue
		}
		if rowsWritten.IsNull(row) {
			continue
		}
		fileID := fileIDs.I64[row]
		want := rowsWritten.I64[row]
		got := silverRowsByFile[fileID]
		if want != got {
			out = append(out, pointline.ManifestSilverMismatch{
				FileID:       fileID,
				ManifestRows: want,
				SilverRows:   got,
			})
		}
	}
	return out
}

// locationFor resolves exchange's IANA timezone (§6 frozen exchange
// table), caching the *time.Location lookup, and falling back to UTC
// for an exchange outside the frozen table rather than erroring a
// whole-lake scan over one bad row.
func locationFor(exchange string, cache map[string]*time.Location) *time.Location {
	if loc, ok := cache[exchange]; ok {
		return loc
	}
	loc := time.UTC
	if tz, ok := pointline.ExchangeTimezone(exchange); ok {
		if l, err := time.LoadLocation(tz); err == nil {
			loc = l
		}
	}
	cache[exchange] = loc
	return loc
}

// localDateDays returns tsUs's calendar date in loc, encoded as days
// since the Unix epoch (the Date dtype's on-disk representation).
func localDateDays(tsUs int64, loc *time.Location) int32 {
	local := time.UnixMicro(tsUs).In(loc)
	y, m, d := local.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return int32(midnight.Unix() / 86400)
}

type tsRange struct {
	min, max int64
	found    bool
}

func (r tsRange) overlapsWithin(o tsRange, tolerance int64) bool {
	// Two ranges are "aligned" if they overlap at all, or if the gap
	// between them is within tolerance.
	if r.max >= o.min && o.max >= r.min {
		return true
	}
	var gap int64
	if r.max < o.min {
		gap = o.min - r.max
	} else {
		gap = r.min - o.max
	}
	return gap <= tolerance
}

// temporalAlignmentIssues counts (exchange, table-pair) combinations
// whose observed ts_event_us ranges drift apart by more than
// temporalAlignmentTolerance — e.g. trades rows for an exchange end
// at 10:00 while quotes rows for the same exchange only begin at
// 14:00. Ranges that overlap at all are never flagged.
func temporalAlignmentIssues(rangesByTable map[string]map[string]tsRange) int64 {
	toleranceUs := temporalAlignmentTolerance.Microseconds()
	tables := make([]string, 0, len(rangesByTable))
	for t := range rangesByTable {
		tables = append(tables, t)
	}
	var issues int64
	for i := 0; i < len(tables); i++ {
		for j := i + 1; j < len(tables); j++ {
			a, b := rangesByTable[tables[i]], rangesByTable[tables[j]]
			for exchange, ra := range a {
				rb, ok := b[exchange]
				if !ok {
					continue
				}
				if !ra.overlapsWithin(rb, toleranceUs) {
					issues++
				}
			}
		}
	}
	return issues
}
