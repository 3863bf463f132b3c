// Copyright (c) 2025 Neomantra Corp

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/neomantra/pointline"
	"github.com/neomantra/pointline/dimsymbol"
	"github.com/neomantra/pointline/internal/refdata"
	"github.com/neomantra/pointline/storage"
)

///////////////////////////////////////////////////////////////////////////////

// defaultTushareBaseURL is Tushare Pro's public HTTP endpoint.
const defaultTushareBaseURL = "https://api.tushare.pro"

var (
	dimSymbolToken    string
	dimSymbolBaseURL  string
	dimSymbolExchange string
)

var dimSymbolCmd = &cobra.Command{
	Use:   "dim-symbol",
	Short: "Syncs SSE/SZSE listings from Tushare into dim_symbol via SCD2 bootstrap/upsert (§C.4)",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		token := dimSymbolToken
		if token == "" {
			token = os.Getenv("TUSHARE_TOKEN")
		}
		if token == "" {
			fmt.Fprintln(os.Stderr, "error: missing Tushare token, use --token or set TUSHARE_TOKEN envvar")
			os.Exit(1)
		}

		baseURL := dimSymbolBaseURL
		if baseURL == "" {
			baseURL = defaultTushareBaseURL
		}
		client := refdata.NewTushareClient(token, baseURL)
		ctx := context.Background()

		listed, err := client.FetchStockBasic(ctx, dimSymbolExchange, "L")
		requireNoError(err)
		delisted, err := client.FetchStockBasic(ctx, dimSymbolExchange, "D")
		requireNoError(err)

		all := make([]refdata.StockBasicRow, 0, len(listed)+len(delisted))
		all = append(all, listed...)
		all = append(all, delisted...)

		snapshot := refdata.StockBasicToSnapshot(all)
		delistings := refdata.StockBasicToDelistings(delisted)

		dims, err := storage.NewDimensionStore(requireSilverRoot())
		requireNoError(err)
		dim, version, err := dims.Load()
		requireNoError(err)

		effectiveTsUs := time.Now().UnixMicro()

		var result *pointline.Frame
		if dim.IsEmpty() {
			result, err = dimsymbol.Bootstrap(snapshot, effectiveTsUs)
		} else {
			result, err = dimsymbol.Upsert(dim, snapshot, effectiveTsUs, delistings)
		}
		requireNoError(err)

		newVersion, err := dims.Save(result, &version)
		requireNoError(err)

		printJSON(map[string]any{
			"rows_listed":   len(listed),
			"rows_delisted": len(delisted),
			"rows_total":    result.NumRows(),
			"prev_version":  version,
			"new_version":   newVersion,
		})
	},
}
