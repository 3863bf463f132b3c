// Package ingest implements the file-based ingestion pipeline (§4.E):
// parse, canonicalize, validate, resolve point-in-time symbol identity,
// stamp lineage, normalize to the registered TableSpec, and write.
package ingest

import "github.com/neomantra/pointline"

// Parser turns one bronze file into a raw, vendor-shaped frame. Errors
// are caught by Pipeline.IngestFile and recorded as a failed/parser_error
// manifest row (§4.E step 3).
type Parser func(meta pointline.BronzeFileMetadata) (*pointline.Frame, error)

// ManifestStore is the idempotency gate and state ledger (§4.D, §6).
type ManifestStore interface {
	// FilterPending returns the subset of candidates that still need
	// processing (an efficient batch anti-join against file_hash).
	FilterPending(candidates []pointline.BronzeFileMetadata) ([]pointline.BronzeFileMetadata, error)

	// ResolveFileID returns the existing file_id for meta, or mints a new
	// one and appends a pending manifest row.
	ResolveFileID(meta pointline.BronzeFileMetadata) (int64, error)

	// UpdateStatus records a terminal (or skipped) outcome against fileID.
	UpdateStatus(fileID int64, status string, meta pointline.BronzeFileMetadata, result *pointline.IngestionResult) error
}

// EventStore appends normalized rows to a silver event table (§4.B).
type EventStore interface {
	Append(tableName string, rows *pointline.Frame) error
}

// QuarantineStore appends rejected rows alongside the rule that rejected
// them (§4.F).
type QuarantineStore interface {
	Append(tableName string, rows *pointline.Frame, reason string, fileID int64) error
}
