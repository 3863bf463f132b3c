package dq

import (
	"fmt"
	"time"

	"github.com/neomantra/pointline"
	"github.com/neomantra/pointline/internal/txnlog"
	"github.com/neomantra/pointline/storage"
	"github.com/segmentio/encoding/json"
)

// RunTable computes one dq_summary record per requested partition (an
// empty partitions slice means "whole table", for un-partitioned
// control/dimension tables), plus, when more than one partition record
// was computed, a trailing rollup record (PartitionKey="") aggregating
// row_count, duplicate_rows, and the sum of every partition's
// issue_counts/null_counts (§4.H). A single-partition run gets no
// rollup. Every computed record, including any rollup, is appended to
// dq_summary.
func RunTable(events *storage.EventStore, tableName string, partitions []map[string]string) ([]*pointline.DQTableResult, error) {
	spec, err := pointline.GetTableSpec(tableName)
	if err != nil {
		return nil, err
	}
	if len(partitions) == 0 {
		partitions = []map[string]string{{}}
	}

	results := make([]*pointline.DQTableResult, 0, len(partitions)+1)
	for _, p := range partitions {
		r, err := runOnePartition(events, tableName, spec, p)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	if len(results) > 1 {
		results = append(results, rollup(tableName, results))
	}

	if err := persist(events, results); err != nil {
		return nil, err
	}
	return results, nil
}

func runOnePartition(events *storage.EventStore, tableName string, spec pointline.TableSpec, values map[string]string) (*pointline.DQTableResult, error) {
	filter := txnlog.PartitionFilter(values)
	frame, err := events.Scan(tableName, filter)
	if err != nil {
		return nil, fmt.Errorf("dq: scan %s: %w", tableName, err)
	}
	files, err := events.LiveFiles(tableName, filter)
	if err != nil {
		return nil, fmt.Errorf("dq: live_files %s: %w", tableName, err)
	}
	var totalBytes int64
	for _, f := range files {
		totalBytes += f.SizeBytes
	}

	missing := missingColumns(frame, spec)
	keys := keyColumns(spec)
	nulls := nullCounts(frame, keys)
	var nullKeyCount int64
	for _, n := range nulls {
		nullKeyCount += n
	}
	dupRows := duplicateRows(frame, spec.TieBreakKeys)

	var minTS, maxTS *int64
	var freshness *int64
	if tsName, ok := pickTSColumn(frame); ok {
		minV, maxV, found := tsMinMax(frame.Column(tsName))
		if found {
			minTS, maxTS = &minV, &maxV
			lag := time.Now().UnixMicro()/1_000_000 - maxV/1_000_000
			if lag < 0 {
				lag = 0
			}
			freshness = &lag
		}
	}

	issues := map[string]int64{}
	if len(missing) > 0 {
		issues["missing_column"] = int64(len(missing))
	}
	if frame.NumRows() == 0 {
		issues["empty_table"] = 1
	}
	if nullKeyCount > 0 {
		issues["null_in_key_columns"] = nullKeyCount
	}
	if dupRows > 0 {
		issues["duplicate_rows"] = dupRows
	}
	status := "passed"
	if len(issues) > 0 {
		status = "failed"
	}

	return &pointline.DQTableResult{
		TableName:       tableName,
		PartitionKey:    partitionKey(values),
		RowCount:        int64(frame.NumRows()),
		DuplicateRows:   dupRows,
		NullCounts:      nulls,
		MinTSUs:         minTS,
		MaxTSUs:         maxTS,
		FreshnessLagSec: freshness,
		FileCount:       int64(len(files)),
		TotalBytes:      totalBytes,
		ProfileStats:    profileNumericColumns(frame, spec),
		Status:          status,
		IssueCounts:     issues,
		ComputedAtTSUs:  time.Now().UnixMicro(),
	}, nil
}

func tsMinMax(c *pointline.Column) (int64, int64, bool) {
	var min, max int64
	found := false
	for i := 0; i < c.Len(); i++ {
		if c.IsNull(i) {
			continue
		}
		v := c.I64[i]
		if !found {
			min, max = v, v
			found = true
			continue
		}
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max, found
}

// rollup aggregates row_count, duplicate_rows, and the per-partition
// issue_counts/null_counts across every partition result (§4.H).
func rollup(tableName string, parts []*pointline.DQTableResult) *pointline.DQTableResult {
	out := &pointline.DQTableResult{
		TableName:      tableName,
		PartitionKey:   "",
		NullCounts:     map[string]int64{},
		IssueCounts:    map[string]int64{},
		Status:         "passed",
		ComputedAtTSUs: time.Now().UnixMicro(),
	}
	for _, p := range parts {
		out.RowCount += p.RowCount
		out.DuplicateRows += p.DuplicateRows
		out.FileCount += p.FileCount
		out.TotalBytes += p.TotalBytes
		for k, v := range p.NullCounts {
			out.NullCounts[k] += v
		}
		for k, v := range p.IssueCounts {
			out.IssueCounts[k] += v
		}
		if p.Status == "failed" {
			out.Status = "failed"
		}
		if p.MinTSUs != nil && (out.MinTSUs == nil || *p.MinTSUs < *out.MinTSUs) {
			v := *p.MinTSUs
			out.MinTSUs = &v
		}
		if p.MaxTSUs != nil && (out.MaxTSUs == nil || *p.MaxTSUs > *out.MaxTSUs) {
			v := *p.MaxTSUs
			out.MaxTSUs = &v
		}
	}
	return out
}

// persist writes each result as one dq_summary row, JSON-encoding the
// map-valued columns via segmentio/encoding/json (§B).
func persist(events *storage.EventStore, results []*pointline.DQTableResult) error {
	n := len(results)
	tableNames := make([]string, n)
	rowCounts := make([]int64, n)
	dupCounts := make([]int64, n)
	minTS := pointline.NewColumn("min_ts_us", make([]int64, n))
	maxTS := pointline.NewColumn("max_ts_us", make([]int64, n))
	freshness := pointline.NewColumn("freshness_lag_sec", make([]int64, n))
	fileCounts := pointline.NewColumn("file_count", make([]int64, n))
	totalBytes := pointline.NewColumn("total_bytes", make([]int64, n))
	statuses := make([]string, n)
	issueJSON := pointline.NewColumn("issue_counts_json", make([]string, n))
	nullJSON := pointline.NewColumn("null_counts_json", make([]string, n))
	profileJSON := pointline.NewColumn("profile_stats_json", make([]string, n))
	computedAt := make([]int64, n)
	partitionKeyCol := pointline.NewColumn("partition_key", make([]string, n))
	minTS.EnsureValid()
	maxTS.EnsureValid()
	freshness.EnsureValid()
	fileCounts.EnsureValid()
	totalBytes.EnsureValid()
	partitionKeyCol.EnsureValid()

	for i, r := range results {
		tableNames[i] = r.TableName
		partitionKeyCol.Str[i] = r.PartitionKey
		if r.PartitionKey == "" {
			partitionKeyCol.Valid[i] = false
		}
		rowCounts[i] = r.RowCount
		dupCounts[i] = r.DuplicateRows
		if r.MinTSUs != nil {
			minTS.I64[i] = *r.MinTSUs
		} else {
			minTS.Valid[i] = false
		}
		if r.MaxTSUs != nil {
			maxTS.I64[i] = *r.MaxTSUs
		} else {
			maxTS.Valid[i] = false
		}
		if r.FreshnessLagSec != nil {
			freshness.I64[i] = *r.FreshnessLagSec
		} else {
			freshness.Valid[i] = false
		}
		fileCounts.I64[i] = r.FileCount
		totalBytes.I64[i] = r.TotalBytes
		statuses[i] = r.Status
		issueJSON.Str[i] = mustJSON(r.IssueCounts)
		nullJSON.Str[i] = mustJSON(r.NullCounts)
		profileJSON.Str[i] = mustJSON(r.ProfileStats)
		computedAt[i] = r.ComputedAtTSUs
	}

	row := pointline.NewFrame(
		pointline.NewColumn("table_name", tableNames),
		partitionKeyCol,
		pointline.NewColumn("row_count", rowCounts),
		pointline.NewColumn("duplicate_rows", dupCounts),
		minTS,
		maxTS,
		freshness,
		fileCounts,
		totalBytes,
		pointline.NewColumn("status", statuses),
		issueJSON,
		nullJSON,
		profileJSON,
		pointline.NewColumn("computed_at_ts_us", computedAt),
	)
	return events.Append("dq_summary", row)
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}
