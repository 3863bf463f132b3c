package quant360

import (
	"fmt"
	"sort"

	"github.com/neomantra/pointline"
)

// Parser parses a raw Quant360 bronze frame for one symbol's feed into a
// raw frame ready for ingest.CanonicalizeQuant360.
type Parser func(raw *pointline.Frame, exchange, symbol string) (*pointline.Frame, error)

// parserByDataType maps the three Quant360 stream shapes to their data_type
// aliases: Quant360 ships the same three stream shapes under several
// historical data_type spellings.
var parserByDataType = map[string]Parser{
	"cn_order_events": ParseOrderStream,
	"order_new":       ParseOrderStream,
	"l3_orders":       ParseOrderStream,
	"cn_tick_events":  ParseTickStream,
	"tick_new":        ParseTickStream,
	"l3_ticks":        ParseTickStream,
	"cn_l2_snapshots": ParseL2SnapshotStream,
	"l2_new":          ParseL2SnapshotStream,
	"L2_new":          ParseL2SnapshotStream,
}

// GetParser resolves a Quant360 stream data_type to its Parser.
func GetParser(dataType string) (Parser, error) {
	if p, ok := parserByDataType[dataType]; ok {
		return p, nil
	}
	supported := make([]string, 0, len(parserByDataType))
	for k := range parserByDataType {
		supported = append(supported, k)
	}
	sort.Strings(supported)
	return nil, fmt.Errorf("unsupported Quant360 data_type %q; supported: %v", dataType, supported)
}
