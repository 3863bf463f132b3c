// Copyright (c) 2025 Neomantra Corp

package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/neomantra/pointline/storage"
)

///////////////////////////////////////////////////////////////////////////////

var (
	compactTable           string
	compactPartitionPairs  []string
	compactMinSmallFiles   int
	compactDryRun          bool
	compactContinueOnError bool
)

var compactCmd = &cobra.Command{
	Use:   "compact",
	Short: "Rewrites a partition's small files into fewer, larger ones (§4.G compact_partitions)",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		values, err := parsePartitionPairs(compactPartitionPairs)
		requireNoError(err)

		events := storage.NewEventStore(requireSilverRoot())
		report, err := storage.CompactPartitions(events, compactTable, []map[string]string{values}, compactMinSmallFiles, compactDryRun, compactContinueOnError)
		requireNoError(err)

		fmt.Fprintf(os.Stderr, "%s: %s planned, %s succeeded, %s skipped, %s failed\n",
			report.TableName, humanize.Comma(int64(report.Planned)), humanize.Comma(int64(report.Succeeded)),
			humanize.Comma(int64(report.Skipped)), humanize.Comma(int64(report.Failed)))
		printJSON(report)
	},
}
