package storage

import (
	"fmt"
	"time"

	"github.com/neomantra/pointline"
	"github.com/neomantra/pointline/internal/pqio"
	"github.com/neomantra/pointline/internal/txnlog"
)

// CompactPartitions rewrites each requested partition's small files into
// fewer, larger ones (§4.G compact_partitions). Idempotent: re-running
// immediately after a successful compaction finds fewer than
// minSmallFiles live files and skips every partition.
func CompactPartitions(
	events *EventStore, tableName string, partitions []map[string]string,
	minSmallFiles int, dryRun bool, continueOnError bool,
) (*pointline.CompactionReport, error) {
	spec, err := pointline.GetTableSpec(tableName)
	if err != nil {
		return nil, err
	}
	log, err := events.Log(tableName)
	if err != nil {
		return nil, err
	}

	report := &pointline.CompactionReport{
		TableName:     tableName,
		PartitionKeys: spec.PartitionBy,
		Planned:       len(partitions),
	}

	for _, p := range partitions {
		if err := checkPartitionKeys(spec, p); err != nil {
			return nil, err
		}
		filter := txnlog.PartitionFilter(p)
		result := pointline.PartitionCompactionResult{Partition: p}

		files, err := log.LiveFiles(filter)
		if err != nil {
			return nil, err
		}
		result.FilesBefore = len(files)

		switch {
		case dryRun:
			result.Skipped = true
			result.SkippedReason = "dry_run"
			result.FilesAfter = len(files)
			report.Skipped++
		case len(files) < minSmallFiles:
			result.Skipped = true
			result.SkippedReason = "below_min_small_files"
			result.FilesAfter = len(files)
			report.Skipped++
		default:
			report.Attempted++
			if err := compactOnePartition(events, log, spec, filter, files, &result); err != nil {
				result.Failed = true
				result.ErrorMessage = err.Error()
				report.Failed++
				if !continueOnError {
					report.Partitions = append(report.Partitions, result)
					return report, err
				}
			} else {
				report.Succeeded++
			}
		}
		report.Partitions = append(report.Partitions, result)
	}
	return report, nil
}

func checkPartitionKeys(spec pointline.TableSpec, p map[string]string) error {
	if len(p) != len(spec.PartitionBy) {
		return fmt.Errorf("storage: partition keys %v do not match table %q partition_by %v", keysOf(p), spec.Name, spec.PartitionBy)
	}
	for _, k := range spec.PartitionBy {
		if _, ok := p[k]; !ok {
			return fmt.Errorf("storage: partition missing key %q for table %q", k, spec.Name)
		}
	}
	return nil
}

func keysOf(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func compactOnePartition(events *EventStore, log *txnlog.Log, spec pointline.TableSpec, filter txnlog.PartitionFilter, files []txnlog.FileEntry, result *pointline.PartitionCompactionResult) error {
	frames := make([]*pointline.Frame, 0, len(files))
	for _, fe := range files {
		f, err := pqio.ReadFrame(fe.Path, spec)
		if err != nil {
			return err
		}
		frames = append(frames, f)
	}
	merged, err := pointline.Concat(frames...)
	if err != nil {
		return err
	}
	merged, err = merged.SortBy(spec.TieBreakKeys...)
	if err != nil {
		return err
	}

	entry, err := writePartitionFile(events.Root, spec, merged, filter)
	if err != nil {
		return err
	}
	removed, added, err := log.Compact(filter, []txnlog.FileEntry{entry}, time.Now().UnixMicro())
	if err != nil {
		return err
	}
	result.FilesRewritten = removed
	result.FilesAdded = added
	result.FilesAfter = result.FilesBefore - removed + added
	return nil
}

// VacuumTable permanently deletes tombstoned files past retention (§4.G
// vacuum_table). A second call immediately after a live vacuum deletes
// zero files. enforceRetentionDuration=false or full=true both bypass the
// age gate, deleting every tombstoned file regardless of retention.
func VacuumTable(events *EventStore, tableName string, retentionHours *int64, dryRun bool, enforceRetentionDuration bool, full bool) (*pointline.VacuumReport, error) {
	log, err := events.Log(tableName)
	if err != nil {
		return nil, err
	}
	hours := int64(168)
	if retentionHours != nil {
		hours = *retentionHours
	}
	retention := time.Duration(hours) * time.Hour

	deleted, err := log.Vacuum(retention, time.Now().UnixMicro(), dryRun, enforceRetentionDuration, full)
	if err != nil {
		return nil, err
	}
	return &pointline.VacuumReport{
		TableName:                tableName,
		DryRun:                   dryRun,
		RetentionHours:           retentionHours,
		EnforceRetentionDuration: enforceRetentionDuration,
		Full:                     full,
		DeletedCount:             len(deleted),
		DeletedFiles:             deleted,
	}, nil
}
