package dimsymbol

import "github.com/neomantra/pointline"

// Upsert merges a new vendor snapshot into the existing dimension,
// scoped to the exchanges present in the snapshot (§4.C "upsert").
// delistings may be nil, selecting the implicit-delist path.
func Upsert(dim *pointline.Frame, snapshot *pointline.Frame, effectiveTsUs int64, delistings *pointline.Frame) (*pointline.Frame, error) {
	dimRows := frameToDimRows(dim)
	snapRows := frameToSnapshotRows(snapshot)

	snapshotExchanges := make(map[string]bool)
	snapshotPairs := make(map[pairKey]snapshotRow, len(snapRows))
	for _, s := range snapRows {
		snapshotExchanges[s.Exchange] = true
		snapshotPairs[key(s.Exchange, s.ExchangeSymbol)] = s
	}

	currentByPair := make(map[pairKey]int, len(dimRows))
	lastIDByPair := make(map[pairKey]int64, len(dimRows))
	for i, r := range dimRows {
		k := key(r.Exchange, r.ExchangeSymbol)
		lastIDByPair[k] = r.SymbolID
		if r.IsCurrent {
			currentByPair[k] = i
		}
	}

	closeAt := make(map[pairKey]int64) // pair -> timestamp to close at
	var toOpen []dimRow

	// Step 1: open-or-close-and-reopen for every pair in the snapshot.
	for _, s := range snapRows {
		k := key(s.Exchange, s.ExchangeSymbol)
		if idx, exists := currentByPair[k]; exists {
			cur := dimRows[idx]
			if attrsDiffer(cur, s) {
				closeAt[k] = effectiveTsUs
				toOpen = append(toOpen, newRowFromSnapshot(s, cur.SymbolID, effectiveTsUs))
			}
			continue
		}
		id, known := lastIDByPair[k]
		if !known {
			id = SymbolID(s.Exchange, s.ExchangeSymbol)
		}
		toOpen = append(toOpen, newRowFromSnapshot(s, id, effectiveTsUs))
	}

	// Steps 2/3: explicit delistings, or implicit delist of absent pairs
	// within exchanges the snapshot touches.
	if delistings != nil && delistings.NumRows() > 0 {
		exCol := delistings.MustColumn("exchange")
		symCol := delistings.MustColumn("exchange_symbol")
		atCol := delistings.MustColumn("delisted_at_ts_us")
		for i := 0; i < delistings.NumRows(); i++ {
			k := key(exCol.Str[i], symCol.Str[i])
			if _, exists := currentByPair[k]; exists {
				closeAt[k] = atCol.I64[i]
			}
		}
	} else {
		for k, idx := range currentByPair {
			if !snapshotExchanges[k.Exchange] {
				continue // exchange not represented in snapshot: untouched
			}
			if _, inSnapshot := snapshotPairs[k]; inSnapshot {
				continue
			}
			_ = idx
			closeAt[k] = effectiveTsUs
		}
	}

	closed := closeWindows(dimRows, closeAt)
	merged := openWindows(closed, toOpen)
	return dimRowsToFrame(merged)
}

// closeWindows closes each current row whose pair appears in closeAt,
// setting valid_until_ts_us and is_current=false (§9 design note).
func closeWindows(rows []dimRow, closeAt map[pairKey]int64) []dimRow {
	out := make([]dimRow, len(rows))
	copy(out, rows)
	for i, r := range out {
		if !r.IsCurrent {
			continue
		}
		if ts, ok := closeAt[key(r.Exchange, r.ExchangeSymbol)]; ok {
			out[i].ValidUntilTSUs = ts
			out[i].IsCurrent = false
		}
	}
	return out
}

// openWindows appends newly opened rows to the dimension (§9 design
// note).
func openWindows(rows []dimRow, newRows []dimRow) []dimRow {
	out := make([]dimRow, 0, len(rows)+len(newRows))
	out = append(out, rows...)
	out = append(out, newRows...)
	return out
}

func newRowFromSnapshot(s snapshotRow, id int64, fromTs int64) dimRow {
	return dimRow{
		SymbolID:        id,
		Exchange:        s.Exchange,
		ExchangeSymbol:  s.ExchangeSymbol,
		CanonicalSymbol: s.CanonicalSymbol,
		MarketType:      s.MarketType,
		BaseAsset:       s.BaseAsset,
		QuoteAsset:      s.QuoteAsset,
		TickSize:        s.TickSize,
		LotSize:         s.LotSize,
		ContractSize:    s.ContractSize,
		ValidFromTSUs:   fromTs,
		ValidUntilTSUs:  pointline.ValidUntilMax,
		IsCurrent:       true,
		UpdatedAtTSUs:   fromTs,
	}
}
