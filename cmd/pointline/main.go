// Copyright (c) 2025 Neomantra Corp

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/segmentio/encoding/json"
	"github.com/spf13/cobra"
)

///////////////////////////////////////////////////////////////////////////////

var silverRoot string

func main() {
	rootCmd.PersistentFlags().StringVarP(&silverRoot, "silver-root", "s", "", "Silver lakehouse root directory (or set 'POINTLINE_SILVER_ROOT' envvar)")

	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().StringVarP(&ingestVendor, "vendor", "", "", "Vendor name stamped onto ingest_manifest")
	ingestCmd.Flags().StringVarP(&ingestDataType, "data-type", "d", "", "Bronze data_type, e.g. trades, quotes, cn_order_events")
	ingestCmd.Flags().StringVarP(&ingestBronzeFile, "bronze-file", "f", "", "Path to the bronze CSV(.gz/.zst) file to ingest")
	ingestCmd.Flags().StringVarP(&ingestExchange, "exchange", "e", "", "Exchange code (required for quant360, ignored for tardis — self-contained in its rows)")
	ingestCmd.Flags().StringVarP(&ingestSymbol, "symbol", "", "", "Symbol (required for quant360, ignored for tardis — self-contained in its rows)")
	ingestCmd.Flags().BoolVarP(&ingestForce, "force", "", false, "Re-ingest even if this file's hash is already recorded")
	ingestCmd.Flags().BoolVarP(&ingestDryRun, "dry-run", "", false, "Parse and validate without writing silver rows")
	ingestCmd.MarkFlagRequired("data-type")
	ingestCmd.MarkFlagRequired("bronze-file")

	rootCmd.AddCommand(compactCmd)
	compactCmd.Flags().StringVarP(&compactTable, "table", "t", "", "Table to compact")
	compactCmd.Flags().StringSliceVarP(&compactPartitionPairs, "partition", "p", nil, "Partition key=value pair (repeatable), e.g. --partition exchange=XNAS --partition trading_date=2024-01-15")
	compactCmd.Flags().IntVarP(&compactMinSmallFiles, "min-small-files", "", 4, "Minimum live files in a partition before it's compacted")
	compactCmd.Flags().BoolVarP(&compactDryRun, "dry-run", "", false, "Report what would be compacted without writing")
	compactCmd.Flags().BoolVarP(&compactContinueOnError, "continue-on-error", "", false, "Keep compacting remaining partitions after one fails")
	compactCmd.MarkFlagRequired("table")

	rootCmd.AddCommand(vacuumCmd)
	vacuumCmd.Flags().StringVarP(&vacuumTable, "table", "t", "", "Table to vacuum")
	vacuumCmd.Flags().Int64VarP(&vacuumRetentionHours, "retention-hours", "", -1, "Only delete stale files older than this many hours (<0 uses the table's default)")
	vacuumCmd.Flags().StringVarP(&vacuumBeforeYMD, "before", "", "", "Only delete stale files created before this YYYYMMDD date (alternative to --retention-hours)")
	vacuumCmd.Flags().BoolVarP(&vacuumNoEnforceRetention, "no-enforce-retention", "", false, "Delete every tombstoned file regardless of age, bypassing the retention gate")
	vacuumCmd.Flags().BoolVarP(&vacuumFull, "full", "", false, "Full vacuum: delete every tombstoned file regardless of retention (implies --no-enforce-retention)")
	vacuumCmd.Flags().BoolVarP(&vacuumDryRun, "dry-run", "", false, "Report what would be deleted without deleting")
	vacuumCmd.Flags().BoolVarP(&vacuumYes, "yes", "y", false, "Skip the confirmation prompt (for non-interactive/live runs)")
	vacuumCmd.MarkFlagRequired("table")

	rootCmd.AddCommand(dqCmd)
	dqCmd.Flags().StringVarP(&dqTable, "table", "t", "", "Table to profile (default: every registered table)")
	dqCmd.Flags().StringSliceVarP(&dqPartitionPairs, "partition", "p", nil, "Partition key=value pair (repeatable); if omitted, profiles the whole table")

	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().StringVarP(&scanTableName, "table", "t", "", "Table to scan")
	scanCmd.Flags().StringVarP(&scanExchange, "exchange", "e", "", "Exchange to scan")
	scanCmd.Flags().StringSliceVarP(&scanSymbols, "symbol", "", nil, "Exchange symbol (the table's symbol column) to filter to (repeatable); default is every symbol")
	scanCmd.Flags().StringVarP(&scanStart, "start", "", "", "Start of range (inclusive), ISO 8601")
	scanCmd.Flags().StringVarP(&scanEnd, "end", "", "", "End of range (exclusive), ISO 8601")
	scanCmd.Flags().StringVarP(&scanTSCol, "ts-col", "", "ts_event_us", "Timestamp column to filter on: ts_event_us or ts_local_us")
	scanCmd.Flags().StringSliceVarP(&scanColumns, "column", "c", nil, "Column to project (repeatable); default is every column")
	scanCmd.Flags().BoolVarP(&scanJSON, "json", "j", false, "Emit JSON instead of CSV")
	scanCmd.MarkFlagRequired("table")
	scanCmd.MarkFlagRequired("exchange")
	scanCmd.MarkFlagRequired("start")
	scanCmd.MarkFlagRequired("end")

	rootCmd.AddCommand(dimSymbolCmd)
	dimSymbolCmd.Flags().StringVarP(&dimSymbolToken, "token", "", "", "Tushare API token (or set 'TUSHARE_TOKEN' envvar)")
	dimSymbolCmd.Flags().StringVarP(&dimSymbolBaseURL, "base-url", "", "", "Tushare API base URL (default: the vendor's production endpoint)")
	dimSymbolCmd.Flags().StringVarP(&dimSymbolExchange, "exchange", "e", "", "Limit the sync to one exchange: SSE or SZSE (default: both)")

	err := rootCmd.Execute()
	requireNoError(err)
}

///////////////////////////////////////////////////////////////////////////////

var rootCmd = &cobra.Command{
	Use:   "pointline",
	Short: "pointline manages a market-data lakehouse: ingest, compact, vacuum, dq, scan, dim-symbol.",
	Long:  "pointline manages a market-data lakehouse: ingest, compact, vacuum, dq, scan, dim-symbol.",
}

///////////////////////////////////////////////////////////////////////////////

func requireSilverRoot() string {
	if silverRoot == "" {
		silverRoot = os.Getenv("POINTLINE_SILVER_ROOT")
		if silverRoot == "" {
			fmt.Fprint(os.Stderr, "missing silver root, use --silver-root or set POINTLINE_SILVER_ROOT envvar\n")
			os.Exit(1)
		}
	}
	return silverRoot
}

func requireNoError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err.Error())
		os.Exit(1)
	}
}

func printJSON(v any) {
	jbytes, err := json.MarshalIndent(v, "", "  ")
	requireNoError(err)
	fmt.Fprintf(os.Stdout, "%s\n", jbytes)
}

// requireHumanConfirmation gates a destructive operation behind an
// explicit interactive choice.
func requireHumanConfirmation(promptTitle string, verbName string) {
	doVerb := false
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Affirmative(fmt.Sprintf("Yes, %s", verbName)).
				Negative("No, Cancel").
				Title(promptTitle).
				Value(&doVerb),
		))
	err := form.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "confirmation error: %s\n", err.Error())
		os.Exit(1)
	}
	if !doVerb {
		os.Exit(0)
	}
}

// parsePartitionPairs turns ["exchange=XNAS", "trading_date=2024-01-15"]
// into {"exchange": "XNAS", "trading_date": "2024-01-15"}.
func parsePartitionPairs(pairs []string) (map[string]string, error) {
	values := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --partition %q, expected key=value", pair)
		}
		values[key] = value
	}
	return values, nil
}
