// Copyright (c) 2025 Neomantra Corp

package main

import (
	"github.com/spf13/cobra"

	"github.com/neomantra/pointline"
	"github.com/neomantra/pointline/dq"
	"github.com/neomantra/pointline/storage"
)

///////////////////////////////////////////////////////////////////////////////

var (
	dqTable          string
	dqPartitionPairs []string
)

var dqCmd = &cobra.Command{
	Use:   "dq",
	Short: "Profiles a table (or every table) and the cross-table dq_summary/dim_symbol checks (§4.H)",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		root := requireSilverRoot()
		events := storage.NewEventStore(root)

		var partitions []map[string]string
		if len(dqPartitionPairs) > 0 {
			values, err := parsePartitionPairs(dqPartitionPairs)
			requireNoError(err)
			partitions = []map[string]string{values}
		}

		tables := []string{dqTable}
		if dqTable == "" {
			tables = pointline.ListTableSpecs()
		}

		results := map[string][]*pointline.DQTableResult{}
		for _, table := range tables {
			r, err := dq.RunTable(events, table, partitions)
			requireNoError(err)
			results[table] = r
		}

		dims, err := storage.NewDimensionStore(root)
		requireNoError(err)
		crossResult, err := dq.RunCrossTable(events, dims)
		requireNoError(err)

		printJSON(map[string]any{
			"tables":      results,
			"cross_table": crossResult,
		})
	},
}
