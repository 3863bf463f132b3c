// Copyright (c) 2025 Neomantra Corp

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/neomantra/ymdflag"
	"github.com/spf13/cobra"

	"github.com/neomantra/pointline/storage"
)

///////////////////////////////////////////////////////////////////////////////

var (
	vacuumTable              string
	vacuumRetentionHours     int64
	vacuumBeforeYMD          string
	vacuumDryRun             bool
	vacuumYes                bool
	vacuumNoEnforceRetention bool
	vacuumFull               bool
)

// resolveRetentionHours turns a YYYYMMDD cutoff date into the retention
// window vacuum_table expects (hours between that date, at UTC midnight,
// and now); --retention-hours wins if both are given. cutoffYMD is 0
// unless --before supplied the cutoff.
func resolveRetentionHours() (retentionHours *int64, cutoffYMD uint32, err error) {
	if vacuumRetentionHours >= 0 {
		return &vacuumRetentionHours, 0, nil
	}
	if vacuumBeforeYMD == "" {
		return nil, 0, nil
	}
	cutoff, err := time.ParseInLocation("20060102", vacuumBeforeYMD, time.UTC)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid --before %q, expected YYYYMMDD: %w", vacuumBeforeYMD, err)
	}
	hours := int64(time.Since(cutoff).Hours())
	if hours < 0 {
		hours = 0
	}
	return &hours, ymdflag.TimeToYMD(cutoff), nil
}

var vacuumCmd = &cobra.Command{
	Use:   "vacuum",
	Short: "Permanently deletes stale parquet files no longer covered by the live file set (§4.G vacuum_table)",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if !vacuumDryRun && !vacuumYes {
			requireHumanConfirmation(
				fmt.Sprintf("This permanently deletes stale files from %q. Continue?", vacuumTable),
				"vacuum")
		}

		retentionHours, cutoffYMD, err := resolveRetentionHours()
		requireNoError(err)
		if cutoffYMD != 0 {
			fmt.Fprintf(os.Stderr, "vacuuming %s: files before %d, %s retention hours\n",
				vacuumTable, cutoffYMD, humanize.Comma(*retentionHours))
		}

		events := storage.NewEventStore(requireSilverRoot())
		enforceRetention := !vacuumNoEnforceRetention
		report, err := storage.VacuumTable(events, vacuumTable, retentionHours, vacuumDryRun, enforceRetention, vacuumFull)
		requireNoError(err)

		fmt.Fprintf(os.Stderr, "%s: deleted %s files\n", report.TableName, humanize.Comma(int64(report.DeletedCount)))
		printJSON(report)
	},
}
