package storage

import (
	"database/sql"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/neomantra/pointline"
	"github.com/neomantra/pointline/internal/duckio"
	"github.com/neomantra/pointline/internal/pqio"
	"github.com/neomantra/pointline/internal/txnlog"
)

// ManifestStore is the append-only ingest_manifest ledger (§3, §4.D):
// one row per UpdateStatus/ResolveFileID call, tracked as a txnlog file
// set and queried through an in-memory DuckDB connection. Never mutates
// or deletes a row; "most recent row by file_id wins" is the
// reconciliation rule (§9 design note), so a crash between
// ResolveFileID and the final UpdateStatus simply leaves a trailing
// pending row that a later run will find and treat as not-yet-success.
type ManifestStore struct {
	log *txnlog.Log
	db  *sql.DB

	mu      sync.Mutex
	created map[int64]int64 // file_id -> created_at_ts_us, best-effort cache
}

// NewManifestStore opens (or creates) the manifest ledger at root/ingest_manifest.
func NewManifestStore(root string) (*ManifestStore, error) {
	log, err := txnlog.Open(root + "/ingest_manifest")
	if err != nil {
		return nil, err
	}
	db, err := duckio.Open()
	if err != nil {
		return nil, err
	}
	return &ManifestStore{log: log, db: db, created: map[int64]int64{}}, nil
}

// Close releases the DuckDB connection.
func (m *ManifestStore) Close() error { return m.db.Close() }

func (m *ManifestStore) livePaths() ([]string, error) {
	return m.log.FileURIs(txnlog.PartitionFilter{})
}

// FilterPending returns the subset of candidates whose identity tuple has
// no `success` row in the ledger (§4.D filter_pending). Satisfies
// ingest.ManifestStore.
func (m *ManifestStore) FilterPending(candidates []pointline.BronzeFileMetadata) ([]pointline.BronzeFileMetadata, error) {
	paths, err := m.livePaths()
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return candidates, nil
	}
	query := fmt.Sprintf(
		"SELECT DISTINCT vendor, data_type, bronze_path, file_hash FROM %s WHERE status = %s",
		duckio.ReadParquetExpr(paths), duckio.SQLLiteral(pointline.StatusSuccess),
	)
	rows, err := m.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("storage: filter_pending query: %w", err)
	}
	defer rows.Close()

	done := make(map[[4]string]bool)
	for rows.Next() {
		var vendor, dataType, bronzePath, fileHash string
		if err := rows.Scan(&vendor, &dataType, &bronzePath, &fileHash); err != nil {
			return nil, err
		}
		done[[4]string{vendor, dataType, bronzePath, fileHash}] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var out []pointline.BronzeFileMetadata
	for _, c := range candidates {
		v, d, b, h := c.Identity()
		if !done[[4]string{v, d, b, h}] {
			out = append(out, c)
		}
	}
	return out, nil
}

// ResolveFileID mints the next monotonic file_id and durably records a
// `pending` row for it before returning, so a crash before the pipeline's
// final UpdateStatus still leaves a trace in the ledger (§4.E step 2).
// Satisfies ingest.ManifestStore.
func (m *ManifestStore) ResolveFileID(meta pointline.BronzeFileMetadata) (int64, error) {
	paths, err := m.livePaths()
	if err != nil {
		return 0, err
	}
	var maxID int64
	if len(paths) > 0 {
		query := fmt.Sprintf("SELECT coalesce(max(file_id), 0) FROM %s", duckio.ReadParquetExpr(paths))
		if err := m.db.QueryRow(query).Scan(&maxID); err != nil {
			return 0, fmt.Errorf("storage: resolve_file_id query: %w", err)
		}
	}
	fileID := maxID + 1
	nowUs := time.Now().UnixMicro()

	vendor, dataType, bronzePath, fileHash := meta.Identity()
	if err := m.appendRow(fileID, vendor, dataType, bronzePath, fileHash, pointline.StatusPending,
		nil, nil, nil, nil, nil, nowUs, nil, ""); err != nil {
		return 0, err
	}

	m.mu.Lock()
	m.created[fileID] = nowUs
	m.mu.Unlock()
	return fileID, nil
}

// UpdateStatus appends the terminal manifest row for fileID (§4.D
// update_status). Satisfies ingest.ManifestStore.
func (m *ManifestStore) UpdateStatus(fileID int64, status string, meta pointline.BronzeFileMetadata, result *pointline.IngestionResult) error {
	createdAt, err := m.createdAtFor(fileID)
	if err != nil {
		return err
	}
	processedAt := time.Now().UnixMicro()

	var rowsTotal, rowsWritten, rowsQuarantined *int64
	var dateMin, dateMax *int32
	reason := ""
	if result != nil {
		rc := result.RowCount
		rowsTotal = &rc
		rw := result.RowsWritten
		rowsWritten = &rw
		rq := result.RowsQuarantined
		rowsQuarantined = &rq
		dateMin = daysSinceEpoch(result.TradingDateMin)
		dateMax = daysSinceEpoch(result.TradingDateMax)
		if result.FailureReason != "" {
			reason = result.FailureReason
		}
	}

	vendor, dataType, bronzePath, fileHash := meta.Identity()
	return m.appendRow(fileID, vendor, dataType, bronzePath, fileHash, status,
		rowsTotal, rowsWritten, rowsQuarantined, dateMin, dateMax, createdAt, &processedAt, reason)
}

func (m *ManifestStore) createdAtFor(fileID int64) (int64, error) {
	m.mu.Lock()
	if v, ok := m.created[fileID]; ok {
		m.mu.Unlock()
		return v, nil
	}
	m.mu.Unlock()

	paths, err := m.livePaths()
	if err != nil {
		return 0, err
	}
	if len(paths) == 0 {
		return time.Now().UnixMicro(), nil
	}
	query := fmt.Sprintf("SELECT min(created_at_ts_us) FROM %s WHERE file_id = %d", duckio.ReadParquetExpr(paths), fileID)
	var createdAt sql.NullInt64
	if err := m.db.QueryRow(query).Scan(&createdAt); err != nil {
		return 0, fmt.Errorf("storage: created_at lookup: %w", err)
	}
	if !createdAt.Valid {
		return time.Now().UnixMicro(), nil
	}
	return createdAt.Int64, nil
}

func daysSinceEpoch(t *time.Time) *int32 {
	if t == nil {
		return nil
	}
	d := int32(t.UTC().Unix() / 86400)
	return &d
}

func (m *ManifestStore) appendRow(
	fileID int64, vendor, dataType, bronzePath, fileHash, status string,
	rowsTotal, rowsWritten, rowsQuarantined *int64,
	tradingDateMin, tradingDateMax *int32,
	createdAtUs int64, processedAtUs *int64, reason string,
) error {
	spec, err := pointline.GetTableSpec("ingest_manifest")
	if err != nil {
		return err
	}
	row := pointline.NewFrame(
		pointline.NewColumn("file_id", []int64{fileID}),
		pointline.NewColumn("vendor", []string{vendor}),
		pointline.NewColumn("data_type", []string{dataType}),
		pointline.NewColumn("bronze_path", []string{bronzePath}),
		pointline.NewColumn("file_hash", []string{fileHash}),
		pointline.NewColumn("status", []string{status}),
		nullableInt64Column("rows_total", rowsTotal),
		nullableInt64Column("rows_written", rowsWritten),
		nullableInt64Column("rows_quarantined", rowsQuarantined),
		nullableDateColumn("trading_date_min", tradingDateMin),
		nullableDateColumn("trading_date_max", tradingDateMax),
		pointline.NewColumn("created_at_ts_us", []int64{createdAtUs}),
		nullableInt64Column("processed_at_ts_us", processedAtUs),
		nullableStringColumn("status_reason", reason),
	)

	path := fmt.Sprintf("%s/manifest-%d-%d.parquet", m.log.Dir(), fileID, time.Now().UnixNano())
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("storage: create %s: %w", path, err)
	}
	if err := pqio.WriteFrame(f, spec, row); err != nil {
		f.Close()
		return fmt.Errorf("storage: write manifest row: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	_, err = m.log.Append([]txnlog.FileEntry{{Path: path, SizeBytes: info.Size()}})
	return err
}

func nullableInt64Column(name string, v *int64) *pointline.Column {
	c := pointline.NewColumn(name, []int64{0})
	if v == nil {
		c.SetNull(0)
		return c
	}
	c.I64[0] = *v
	return c
}

func nullableDateColumn(name string, v *int32) *pointline.Column {
	c := pointline.NewColumn(name, []int32{0})
	if v == nil {
		c.SetNull(0)
		return c
	}
	c.D32[0] = *v
	return c
}

func nullableStringColumn(name, v string) *pointline.Column {
	c := pointline.NewColumn(name, []string{v})
	if v == "" {
		c.SetNull(0)
	}
	return c
}
