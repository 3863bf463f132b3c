package storage

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/neomantra/pointline"
	"github.com/neomantra/pointline/internal/pqio"
	"github.com/neomantra/pointline/internal/txnlog"
)

// EventStore persists event-kind and dimension/control tables as
// partitioned (or flat) Parquet file sets under root, one txnlog.Log per
// table directory tracking the live file set (§4.B TableRepository,
// §4.B AppendableTableRepository).
type EventStore struct {
	Root string

	mu   sync.Mutex
	logs map[string]*txnlog.Log
}

// NewEventStore returns a store rooted at root (the silver_root of §6).
func NewEventStore(root string) *EventStore {
	return &EventStore{Root: root, logs: map[string]*txnlog.Log{}}
}

func (s *EventStore) logFor(tableName string) (*txnlog.Log, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.logs[tableName]; ok {
		return l, nil
	}
	l, err := txnlog.Open(s.Root + "/" + tableName)
	if err != nil {
		return nil, err
	}
	s.logs[tableName] = l
	return l, nil
}

// Append schema-validates rows against tableName's registered spec, splits
// it by partition key, and atomically commits one new Parquet file per
// partition to the table's txnlog (§4.B, §4.E step 12). Satisfies
// ingest.EventStore.
func (s *EventStore) Append(tableName string, rows *pointline.Frame) error {
	spec, err := pointline.GetTableSpec(tableName)
	if err != nil {
		return err
	}
	if err := validateAgainstSpec(rows, spec); err != nil {
		return err
	}
	if rows.NumRows() == 0 {
		return nil
	}
	log, err := s.logFor(tableName)
	if err != nil {
		return err
	}

	groups, err := groupByPartition(rows, spec)
	if err != nil {
		return err
	}

	var entries []txnlog.FileEntry
	for _, g := range groups {
		part := rows.Take(g.rows)
		entry, err := writePartitionFile(s.Root, spec, part, g.values)
		if err != nil {
			return err
		}
		entries = append(entries, entry)
	}
	_, err = log.Append(entries)
	return err
}

// validateAgainstSpec checks the frame carries exactly spec's declared
// columns at their declared dtypes, erroring with SchemaMismatchError
// otherwise (§4.B contract: EventStore.Append rejects anything not
// already normalize_to_table_spec'd).
func validateAgainstSpec(df *pointline.Frame, spec pointline.TableSpec) error {
	declared := make(map[string]bool, len(spec.Columns))
	for _, c := range spec.Columns {
		declared[c.Name] = true
	}
	var missing, unexpect, dtypeErrs []string
	for _, c := range spec.Columns {
		if !df.Has(c.Name) {
			missing = append(missing, c.Name)
			continue
		}
		if got := df.MustColumn(c.Name).Dtype; got != c.Dtype {
			dtypeErrs = append(dtypeErrs, fmt.Sprintf("%s: expected %s got %s", c.Name, c.Dtype, got))
		}
	}
	for _, n := range df.ColumnNames() {
		if !declared[n] {
			unexpect = append(unexpect, n)
		}
	}
	if err := unexpectedColumnsErrorFor(spec.Name, missing, unexpect, dtypeErrs); err != nil {
		return err
	}
	return nil
}

func unexpectedColumnsErrorFor(table string, missing, unexpect, dtypeErrs []string) error {
	if len(missing) == 0 && len(unexpect) == 0 && len(dtypeErrs) == 0 {
		return nil
	}
	return &pointline.SchemaMismatchError{Table: table, Missing: missing, Unexpect: unexpect, DtypeErrs: dtypeErrs}
}

func writePartitionFile(root string, spec pointline.TableSpec, part *pointline.Frame, values map[string]string) (txnlog.FileEntry, error) {
	dir := partitionDir(root, spec, values)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return txnlog.FileEntry{}, fmt.Errorf("storage: mkdir %s: %w", dir, err)
	}
	path := fmt.Sprintf("%s/part-%d.parquet", dir, time.Now().UnixNano())
	f, err := os.Create(path)
	if err != nil {
		return txnlog.FileEntry{}, fmt.Errorf("storage: create %s: %w", path, err)
	}
	if err := pqio.WriteFrame(f, spec, part); err != nil {
		f.Close()
		return txnlog.FileEntry{}, fmt.Errorf("storage: write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return txnlog.FileEntry{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return txnlog.FileEntry{}, err
	}
	return txnlog.FileEntry{Path: path, PartitionValues: values, SizeBytes: info.Size()}, nil
}

// Scan returns every live (non-tombstoned) row for tableName matching an
// exact-equality partition filter, reading and concatenating all matching
// Parquet files. Used by dq and the TUI; compaction reads its partition
// files through pqio directly, and query reads through DuckDB.
func (s *EventStore) Scan(tableName string, filter txnlog.PartitionFilter) (*pointline.Frame, error) {
	spec, err := pointline.GetTableSpec(tableName)
	if err != nil {
		return nil, err
	}
	log, err := s.logFor(tableName)
	if err != nil {
		return nil, err
	}
	paths, err := log.FileURIs(filter)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return pointline.EmptyFrame(), nil
	}
	frames := make([]*pointline.Frame, 0, len(paths))
	for _, p := range paths {
		f, err := pqio.ReadFrame(p, spec)
		if err != nil {
			return nil, err
		}
		frames = append(frames, f)
	}
	return pointline.Concat(frames...)
}

// LiveFiles exposes the table's tracked file set, used by the dq runner
// for file_count/total_bytes and by CompactPartitions/VacuumTable.
func (s *EventStore) LiveFiles(tableName string, filter txnlog.PartitionFilter) ([]txnlog.FileEntry, error) {
	log, err := s.logFor(tableName)
	if err != nil {
		return nil, err
	}
	return log.LiveFiles(filter)
}

// Log exposes the underlying txnlog.Log for a table, used by
// CompactPartitions/VacuumTable to perform their own commits.
func (s *EventStore) Log(tableName string) (*txnlog.Log, error) {
	return s.logFor(tableName)
}
