// Copyright (c) 2025 Neomantra Corp

package mcpserver

import (
	"time"

	"github.com/neomantra/pointline"
)

// frameToRows converts a Frame into row-oriented maps suitable for
// JSON tool results returned to MCP clients.
func frameToRows(frame *pointline.Frame) []map[string]any {
	names := frame.ColumnNames()
	cols := make([]*pointline.Column, len(names))
	for i, name := range names {
		cols[i] = frame.Column(name)
	}

	rows := make([]map[string]any, frame.NumRows())
	for r := 0; r < frame.NumRows(); r++ {
		row := make(map[string]any, len(names))
		for i, col := range cols {
			if col.IsNull(r) {
				row[names[i]] = nil
				continue
			}
			row[names[i]] = columnValue(col, r)
		}
		rows[r] = row
	}
	return rows
}

func columnValue(col *pointline.Column, i int) any {
	switch col.Dtype {
	case pointline.Int64:
		return col.I64[i]
	case pointline.Float64:
		return col.F64[i]
	case pointline.Utf8:
		return col.Str[i]
	case pointline.Bool:
		return col.Bln[i]
	case pointline.Date:
		return time.Unix(int64(col.D32[i])*86400, 0).UTC().Format("2006-01-02")
	case pointline.Int32:
		return col.D32[i]
	default:
		return nil
	}
}
