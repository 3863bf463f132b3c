package dimsymbol

import (
	"fmt"
	"sort"

	"github.com/neomantra/pointline"
)

// Validate checks every SCD2 invariant (§3/§8.3): valid_from
// < valid_until, non-overlapping windows per pair, at most one current
// row per pair (with valid_until = VALID_UNTIL_MAX), and globally unique
// symbol_id.
func Validate(dim *pointline.Frame) error {
	rows := frameToDimRows(dim)

	for _, r := range rows {
		if r.ValidFromTSUs >= r.ValidUntilTSUs {
			return &pointline.InvariantViolationError{
				Name:   "valid_from_before_valid_until",
				Detail: fmt.Sprintf("%s/%s: valid_from=%d >= valid_until=%d", r.Exchange, r.ExchangeSymbol, r.ValidFromTSUs, r.ValidUntilTSUs),
			}
		}
	}

	byPair := make(map[pairKey][]dimRow)
	for _, r := range rows {
		k := key(r.Exchange, r.ExchangeSymbol)
		byPair[k] = append(byPair[k], r)
	}

	seenIDs := make(map[int64]pairKey)
	for _, r := range rows {
		k := key(r.Exchange, r.ExchangeSymbol)
		if prior, ok := seenIDs[r.SymbolID]; ok && prior != k {
			return &pointline.InvariantViolationError{
				Name:   "duplicate_symbol_id",
				Detail: fmt.Sprintf("symbol_id %d shared by %v and %v", r.SymbolID, prior, k),
			}
		}
		seenIDs[r.SymbolID] = k
	}

	for pair, windows := range byPair {
		sort.Slice(windows, func(i, j int) bool { return windows[i].ValidFromTSUs < windows[j].ValidFromTSUs })

		currentCount := 0
		for i, w := range windows {
			if w.IsCurrent {
				currentCount++
				if w.ValidUntilTSUs != pointline.ValidUntilMax {
					return &pointline.InvariantViolationError{
						Name:   "current_without_max_valid_until",
						Detail: fmt.Sprintf("%v: is_current row has valid_until=%d, want %d", pair, w.ValidUntilTSUs, pointline.ValidUntilMax),
					}
				}
			}
			if i > 0 && windows[i-1].ValidUntilTSUs > w.ValidFromTSUs {
				return &pointline.InvariantViolationError{
					Name:   "overlapping_validity_windows",
					Detail: fmt.Sprintf("%v: window [%d,%d) overlaps [%d,%d)", pair, windows[i-1].ValidFromTSUs, windows[i-1].ValidUntilTSUs, w.ValidFromTSUs, w.ValidUntilTSUs),
				}
			}
		}
		if currentCount > 1 {
			return &pointline.InvariantViolationError{
				Name:   "multiple_current_rows",
				Detail: fmt.Sprintf("%v: %d current rows, want at most 1", pair, currentCount),
			}
		}

		// Unique symbol_id across the pair's own windows (stability
		// already checked globally above, but a pair's windows must all
		// carry the same id too).
		ids := make(map[int64]bool)
		for _, w := range windows {
			ids[w.SymbolID] = true
		}
		if len(ids) > 1 {
			return &pointline.InvariantViolationError{
				Name:   "unstable_symbol_id",
				Detail: fmt.Sprintf("%v: symbol_id changed across windows: %v", pair, ids),
			}
		}
	}
	return nil
}
