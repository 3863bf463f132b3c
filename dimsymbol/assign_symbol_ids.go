// Package dimsymbol implements the symbol dimension core (
// §4.C): pure functions over frames, no I/O. Deterministic id
// assignment, SCD2 bootstrap/upsert/validate, and point-in-time lookup.
package dimsymbol

import (
	"github.com/cespare/xxhash/v2"

	"github.com/neomantra/pointline"
)

// AssignSymbolIDs produces a stable, non-negative Int64 id for each row's
// (exchange, exchange_symbol) pair (§4.C). The id is a 63-bit xxhash of
// "exchange\x00exchange_symbol" with the top bit cleared; hash/maphash is
// deliberately not used here since its per-process seed randomization
// breaks the determinism contract this function exists to provide.
func AssignSymbolIDs(df *pointline.Frame) (*pointline.Frame, error) {
	exchange := df.Column("exchange")
	exchangeSymbol := df.Column("exchange_symbol")
	if exchange == nil || exchangeSymbol == nil {
		return nil, pointline.NewMissingColumnsError("assign_symbol_ids", []string{"exchange", "exchange_symbol"})
	}
	ids := make([]int64, df.NumRows())
	for i := 0; i < df.NumRows(); i++ {
		ids[i] = SymbolID(exchange.Str[i], exchangeSymbol.Str[i])
	}
	return df.WithColumn(pointline.NewColumn("symbol_id", ids)), nil
}

// SymbolID computes the deterministic symbol_id for one (exchange,
// exchange_symbol) pair (§4.C, §8.4).
func SymbolID(exchange, exchangeSymbol string) int64 {
	h := xxhash.Sum64String(exchange + "\x00" + exchangeSymbol)
	return int64(h &^ (1 << 63))
}
