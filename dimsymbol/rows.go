package dimsymbol

import "github.com/neomantra/pointline"

// dimRow and snapshotRow are row-wise views used internally by upsert's
// SCD2 bookkeeping; the Frame columnar type remains the external
// contract (§9 design note allows either representation so long as the
// column-set contract at the boundary holds).
type dimRow struct {
	SymbolID        int64
	Exchange        string
	ExchangeSymbol  string
	CanonicalSymbol string
	MarketType      optStr
	BaseAsset       optStr
	QuoteAsset      optStr
	TickSize        optI64
	LotSize         optI64
	ContractSize    optI64
	ValidFromTSUs   int64
	ValidUntilTSUs  int64
	IsCurrent       bool
	UpdatedAtTSUs   int64
}

type snapshotRow struct {
	Exchange        string
	ExchangeSymbol  string
	CanonicalSymbol string
	MarketType      optStr
	BaseAsset       optStr
	QuoteAsset      optStr
	TickSize        optI64
	LotSize         optI64
	ContractSize    optI64
}

type optStr struct {
	Valid bool
	Value string
}

type optI64 struct {
	Valid bool
	Value int64
}

type pairKey struct {
	Exchange       string
	ExchangeSymbol string
}

func frameToDimRows(df *pointline.Frame) []dimRow {
	n := df.NumRows()
	rows := make([]dimRow, n)
	symbolID := df.MustColumn("symbol_id")
	exchange := df.MustColumn("exchange")
	exchangeSymbol := df.MustColumn("exchange_symbol")
	canonicalSymbol := df.MustColumn("canonical_symbol")
	marketType := df.MustColumn("market_type")
	baseAsset := df.MustColumn("base_asset")
	quoteAsset := df.MustColumn("quote_asset")
	tickSize := df.MustColumn("tick_size")
	lotSize := df.MustColumn("lot_size")
	contractSize := df.MustColumn("contract_size")
	validFrom := df.MustColumn("valid_from_ts_us")
	validUntil := df.MustColumn("valid_until_ts_us")
	isCurrent := df.MustColumn("is_current")
	updatedAt := df.MustColumn("updated_at_ts_us")

	for i := 0; i < n; i++ {
		rows[i] = dimRow{
			SymbolID:        symbolID.I64[i],
			Exchange:        exchange.Str[i],
			ExchangeSymbol:  exchangeSymbol.Str[i],
			CanonicalSymbol: canonicalSymbol.Str[i],
			MarketType:      strAt(marketType, i),
			BaseAsset:       strAt(baseAsset, i),
			QuoteAsset:      strAt(quoteAsset, i),
			TickSize:        i64At(tickSize, i),
			LotSize:         i64At(lotSize, i),
			ContractSize:    i64At(contractSize, i),
			ValidFromTSUs:   validFrom.I64[i],
			ValidUntilTSUs:  validUntil.I64[i],
			IsCurrent:       isCurrent.Bln[i],
			UpdatedAtTSUs:   updatedAt.I64[i],
		}
	}
	return rows
}

func frameToSnapshotRows(df *pointline.Frame) []snapshotRow {
	n := df.NumRows()
	rows := make([]snapshotRow, n)
	exchange := df.MustColumn("exchange")
	exchangeSymbol := df.MustColumn("exchange_symbol")
	canonicalSymbol := df.MustColumn("canonical_symbol")
	marketType := df.Column("market_type")
	baseAsset := df.Column("base_asset")
	quoteAsset := df.Column("quote_asset")
	tickSize := df.Column("tick_size")
	lotSize := df.Column("lot_size")
	contractSize := df.Column("contract_size")

	for i := 0; i < n; i++ {
		rows[i] = snapshotRow{
			Exchange:        exchange.Str[i],
			ExchangeSymbol:  exchangeSymbol.Str[i],
			CanonicalSymbol: canonicalSymbol.Str[i],
			MarketType:      strAtOptional(marketType, i),
			BaseAsset:       strAtOptional(baseAsset, i),
			QuoteAsset:      strAtOptional(quoteAsset, i),
			TickSize:        i64AtOptional(tickSize, i),
			LotSize:         i64AtOptional(lotSize, i),
			ContractSize:    i64AtOptional(contractSize, i),
		}
	}
	return rows
}

func strAt(c *pointline.Column, i int) optStr {
	if c.IsNull(i) {
		return optStr{}
	}
	return optStr{Valid: true, Value: c.Str[i]}
}

func strAtOptional(c *pointline.Column, i int) optStr {
	if c == nil || c.IsNull(i) {
		return optStr{}
	}
	return optStr{Valid: true, Value: c.Str[i]}
}

func i64At(c *pointline.Column, i int) optI64 {
	if c.IsNull(i) {
		return optI64{}
	}
	return optI64{Valid: true, Value: c.I64[i]}
}

func i64AtOptional(c *pointline.Column, i int) optI64 {
	if c == nil || c.IsNull(i) {
		return optI64{}
	}
	return optI64{Valid: true, Value: c.I64[i]}
}

// dimRowsToFrame rebuilds the dim_symbol Frame from row-wise state,
// projected to the registered schema's column order.
func dimRowsToFrame(rows []dimRow) (*pointline.Frame, error) {
	n := len(rows)
	symbolID := make([]int64, n)
	exchange := make([]string, n)
	exchangeSymbol := make([]string, n)
	canonicalSymbol := make([]string, n)
	marketType := make([]string, n)
	baseAsset := make([]string, n)
	quoteAsset := make([]string, n)
	tickSize := make([]int64, n)
	lotSize := make([]int64, n)
	contractSize := make([]int64, n)
	validFrom := make([]int64, n)
	validUntil := make([]int64, n)
	isCurrent := make([]bool, n)
	updatedAt := make([]int64, n)

	marketTypeValid := make([]bool, n)
	baseAssetValid := make([]bool, n)
	quoteAssetValid := make([]bool, n)
	tickSizeValid := make([]bool, n)
	lotSizeValid := make([]bool, n)
	contractSizeValid := make([]bool, n)

	for i, r := range rows {
		symbolID[i] = r.SymbolID
		exchange[i] = r.Exchange
		exchangeSymbol[i] = r.ExchangeSymbol
		canonicalSymbol[i] = r.CanonicalSymbol
		validFrom[i] = r.ValidFromTSUs
		validUntil[i] = r.ValidUntilTSUs
		isCurrent[i] = r.IsCurrent
		updatedAt[i] = r.UpdatedAtTSUs

		if r.MarketType.Valid {
			marketType[i] = r.MarketType.Value
			marketTypeValid[i] = true
		}
		if r.BaseAsset.Valid {
			baseAsset[i] = r.BaseAsset.Value
			baseAssetValid[i] = true
		}
		if r.QuoteAsset.Valid {
			quoteAsset[i] = r.QuoteAsset.Value
			quoteAssetValid[i] = true
		}
		if r.TickSize.Valid {
			tickSize[i] = r.TickSize.Value
			tickSizeValid[i] = true
		}
		if r.LotSize.Valid {
			lotSize[i] = r.LotSize.Value
			lotSizeValid[i] = true
		}
		if r.ContractSize.Valid {
			contractSize[i] = r.ContractSize.Value
			contractSizeValid[i] = true
		}
	}

	mt := pointline.NewColumn("market_type", marketType)
	mt.Valid = marketTypeValid
	ba := pointline.NewColumn("base_asset", baseAsset)
	ba.Valid = baseAssetValid
	qa := pointline.NewColumn("quote_asset", quoteAsset)
	qa.Valid = quoteAssetValid
	ts := pointline.NewColumn("tick_size", tickSize)
	ts.Valid = tickSizeValid
	ls := pointline.NewColumn("lot_size", lotSize)
	ls.Valid = lotSizeValid
	cs := pointline.NewColumn("contract_size", contractSize)
	cs.Valid = contractSizeValid

	df := pointline.NewFrame(
		pointline.NewColumn("symbol_id", symbolID),
		pointline.NewColumn("exchange", exchange),
		pointline.NewColumn("exchange_symbol", exchangeSymbol),
		pointline.NewColumn("canonical_symbol", canonicalSymbol),
		mt, ba, qa, ts, ls, cs,
		pointline.NewColumn("valid_from_ts_us", validFrom),
		pointline.NewColumn("valid_until_ts_us", validUntil),
		pointline.NewColumn("is_current", isCurrent),
		pointline.NewColumn("updated_at_ts_us", updatedAt),
	)
	spec, err := pointline.GetTableSpec("dim_symbol")
	if err != nil {
		return nil, err
	}
	return df.Select(spec.ColumnNames()...)
}

func key(exchange, exchangeSymbol string) pairKey {
	return pairKey{Exchange: exchange, ExchangeSymbol: exchangeSymbol}
}

func attrsDiffer(a dimRow, b snapshotRow) bool {
	if a.CanonicalSymbol != b.CanonicalSymbol {
		return true
	}
	if a.MarketType != b.MarketType {
		return true
	}
	if a.BaseAsset != b.BaseAsset {
		return true
	}
	if a.QuoteAsset != b.QuoteAsset {
		return true
	}
	if a.TickSize != b.TickSize {
		return true
	}
	if a.LotSize != b.LotSize {
		return true
	}
	if a.ContractSize != b.ContractSize {
		return true
	}
	return false
}
