package pointline

import "time"

// IngestionResult is ingest_file's return value (§4.E, §6).
type IngestionResult struct {
	Status          string // success | failed | quarantined
	FileID          *int64
	RowCount        int64 // after canonicalize
	RowsWritten     int64
	RowsQuarantined int64
	Skipped         bool
	FailureReason   string
	ErrorMessage    string
	TradingDateMin  *time.Time
	TradingDateMax  *time.Time
}

// PartitionCompactionResult records the outcome for one partition passed
// to compact_partitions (§4.G).
type PartitionCompactionResult struct {
	Partition     map[string]string
	Skipped       bool
	SkippedReason string
	Failed        bool
	ErrorMessage  string
	FilesBefore   int
	FilesAfter    int
	FilesRewritten int
	FilesAdded    int
}

// CompactionReport is compact_partitions's return value (§4.G, §6).
type CompactionReport struct {
	TableName    string
	PartitionKeys []string
	Planned      int
	Attempted    int
	Succeeded    int
	Skipped      int
	Failed       int
	Partitions   []PartitionCompactionResult
}

// VacuumReport is vacuum_table's return value (§4.G, §6).
type VacuumReport struct {
	TableName              string
	DryRun                 bool
	RetentionHours         *int64
	EnforceRetentionDuration bool
	Full                   bool
	DeletedCount           int
	DeletedFiles           []string // sorted
}

// DQTableResult is one dq_summary row (§4.H).
type DQTableResult struct {
	TableName        string
	PartitionKey      string // empty string means whole-table rollup
	RowCount          int64
	DuplicateRows     int64
	NullCounts        map[string]int64
	MinTSUs           *int64
	MaxTSUs           *int64
	FreshnessLagSec   *int64
	FileCount         int64
	TotalBytes        int64
	ProfileStats      map[string]ColumnProfile
	Status            string // passed | failed
	IssueCounts       map[string]int64
	ComputedAtTSUs    int64
}

// ColumnProfile is the numeric-column min/max/mean summary in a
// DQTableResult's ProfileStats (§4.H).
type ColumnProfile struct {
	Min  float64
	Max  float64
	Mean float64
}

// CrossTableResult is the output of dq.RunCrossTable (§C.3).
type CrossTableResult struct {
	MissingDimSymbolRows      int64
	ManifestSilverMismatches  []ManifestSilverMismatch
	TemporalAlignmentIssues   int64
	PartitionDateMismatches   int64
}

// ManifestSilverMismatch names a file_id whose manifest row_count
// disagrees with the silver table's actual row count for that file.
type ManifestSilverMismatch struct {
	FileID         int64
	ManifestRows   int64
	SilverRows     int64
}
