package dimsymbol

import (
	"sort"

	"github.com/neomantra/pointline"
)

type pitWindow struct {
	ValidFrom  int64
	ValidUntil int64
	SymbolID   int64
}

// PITResolve joins event rows against dim using the point-in-time
// predicate (§4.C): exchange and exchange_symbol match, and
// valid_from_ts_us <= ts_event_us < valid_until_ts_us. Non-matching rows
// are returned in the quarantined frame (without a resolved symbol_id);
// matching rows gain a symbol_id column. Ties are broken by the smallest
// valid_from_ts_us.
func PITResolve(events *pointline.Frame, dim *pointline.Frame) (valid, quarantined *pointline.Frame, reason string, err error) {
	exchangeCol := events.Column("exchange")
	symbolCol := events.Column("symbol")
	tsCol := events.Column("ts_event_us")
	if exchangeCol == nil || symbolCol == nil || tsCol == nil {
		return nil, nil, "", pointline.NewMissingColumnsError("pit_resolve", []string{"exchange", "symbol", "ts_event_us"})
	}

	if events.IsEmpty() {
		return events, pointline.EmptyFrame(), "", nil
	}

	index := buildPITIndex(dim)

	n := events.NumRows()
	validIdx := make([]int, 0, n)
	validIDs := make([]int64, 0, n)
	quarantinedIdx := make([]int, 0)

	for i := 0; i < n; i++ {
		pk := key(exchangeCol.Str[i], symbolCol.Str[i])
		ts := tsCol.I64[i]
		windows := index[pk]
		id, found := coveringSymbolID(windows, ts)
		if !found {
			quarantinedIdx = append(quarantinedIdx, i)
			continue
		}
		validIdx = append(validIdx, i)
		validIDs = append(validIDs, id)
	}

	validFrame := events.Take(validIdx).WithColumn(pointline.NewColumn("symbol_id", validIDs))
	quarantinedFrame := events.Take(quarantinedIdx)

	if len(quarantinedIdx) > 0 {
		reason = pointline.RuleMissingPITCoverage
	}
	return validFrame, quarantinedFrame, reason, nil
}

func buildPITIndex(dim *pointline.Frame) map[pairKey][]pitWindow {
	index := make(map[pairKey][]pitWindow)
	if dim == nil || dim.IsEmpty() {
		return index
	}
	exchange := dim.MustColumn("exchange")
	exchangeSymbol := dim.MustColumn("exchange_symbol")
	symbolID := dim.MustColumn("symbol_id")
	validFrom := dim.MustColumn("valid_from_ts_us")
	validUntil := dim.MustColumn("valid_until_ts_us")

	for i := 0; i < dim.NumRows(); i++ {
		k := key(exchange.Str[i], exchangeSymbol.Str[i])
		index[k] = append(index[k], pitWindow{
			ValidFrom:  validFrom.I64[i],
			ValidUntil: validUntil.I64[i],
			SymbolID:   symbolID.I64[i],
		})
	}
	for _, windows := range index {
		sort.Slice(windows, func(i, j int) bool { return windows[i].ValidFrom < windows[j].ValidFrom })
	}
	return index
}

func coveringSymbolID(windows []pitWindow, ts int64) (int64, bool) {
	for _, w := range windows {
		if ts >= w.ValidFrom && ts < w.ValidUntil {
			return w.SymbolID, true
		}
	}
	return 0, false
}
