// Copyright (c) 2025 Neomantra Corp

package main

import (
	"fmt"
	"os"

	"github.com/relvacode/iso8601"
	"github.com/spf13/cobra"

	"github.com/neomantra/pointline"
	"github.com/neomantra/pointline/query"
	"github.com/neomantra/pointline/storage"
)

///////////////////////////////////////////////////////////////////////////////

var (
	scanTableName string
	scanExchange  string
	scanSymbols   []string
	scanStart     string
	scanEnd       string
	scanTSCol     string
	scanColumns   []string
	scanJSON      bool
)

var scanCmd = &cobra.Command{
	Use:     "scan",
	Aliases: []string{"query"},
	Short:   "Reads rows from a table within an exchange + timestamp range (§4.I)",
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		startTime, err := iso8601.ParseString(scanStart)
		requireNoError(err)
		endTime, err := iso8601.ParseString(scanEnd)
		requireNoError(err)

		events := storage.NewEventStore(requireSilverRoot())
		frame, err := query.Scan(events, scanTableName, query.Params{
			Exchange:  scanExchange,
			Symbols:   scanSymbols,
			StartTSUs: startTime.UnixMicro(),
			EndTSUs:   endTime.UnixMicro(),
			TSCol:     scanTSCol,
			Columns:   scanColumns,
		})
		requireNoError(err)

		if scanJSON {
			printJSON(frameRows(frame))
			return
		}
		printFrameCSV(frame)
	},
}

// frameRows projects a Frame into row-oriented maps for JSON output.
func frameRows(frame *pointline.Frame) []map[string]any {
	names := frame.ColumnNames()
	rows := make([]map[string]any, frame.NumRows())
	for r := 0; r < frame.NumRows(); r++ {
		row := make(map[string]any, len(names))
		for _, name := range names {
			col := frame.Column(name)
			if col.IsNull(r) {
				row[name] = nil
				continue
			}
			switch col.Dtype {
			case pointline.Int64:
				row[name] = col.I64[r]
			case pointline.Float64:
				row[name] = col.F64[r]
			case pointline.Utf8:
				row[name] = col.Str[r]
			case pointline.Bool:
				row[name] = col.Bln[r]
			case pointline.Date, pointline.Int32:
				row[name] = col.D32[r]
			}
		}
		rows[r] = row
	}
	return rows
}

func printFrameCSV(frame *pointline.Frame) {
	names := frame.ColumnNames()
	for i, name := range names {
		if i > 0 {
			fmt.Fprint(os.Stdout, ",")
		}
		fmt.Fprint(os.Stdout, name)
	}
	fmt.Fprintln(os.Stdout)

	for r := 0; r < frame.NumRows(); r++ {
		for i, name := range names {
			if i > 0 {
				fmt.Fprint(os.Stdout, ",")
			}
			col := frame.Column(name)
			if col.IsNull(r) {
				continue
			}
			switch col.Dtype {
			case pointline.Int64:
				fmt.Fprintf(os.Stdout, "%d", col.I64[r])
			case pointline.Float64:
				fmt.Fprintf(os.Stdout, "%g", col.F64[r])
			case pointline.Utf8:
				fmt.Fprint(os.Stdout, col.Str[r])
			case pointline.Bool:
				fmt.Fprintf(os.Stdout, "%t", col.Bln[r])
			case pointline.Date, pointline.Int32:
				fmt.Fprintf(os.Stdout, "%d", col.D32[r])
			}
		}
		fmt.Fprintln(os.Stdout)
	}
}
