package tardis

import (
	"fmt"
	"sort"

	"github.com/neomantra/pointline"
)

// Parser parses a raw Tardis bronze frame into a canonical event frame.
type Parser func(raw *pointline.Frame) (*pointline.Frame, error)

var parserByDataType = map[string]Parser{
	"trades": ParseTrades,
	"quotes": ParseQuotes,
}

// GetParser resolves a Tardis stream data_type to its Parser.
func GetParser(dataType string) (Parser, error) {
	if p, ok := parserByDataType[dataType]; ok {
		return p, nil
	}
	supported := make([]string, 0, len(parserByDataType))
	for k := range parserByDataType {
		supported = append(supported, k)
	}
	sort.Strings(supported)
	return nil, fmt.Errorf("unsupported Tardis data_type %q; supported: %v", dataType, supported)
}
