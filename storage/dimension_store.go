package storage

import (
	"fmt"
	"os"
	"time"

	"github.com/neomantra/pointline"
	"github.com/neomantra/pointline/dimsymbol"
	"github.com/neomantra/pointline/internal/pqio"
	"github.com/neomantra/pointline/internal/txnlog"
)

// DimensionStore persists the dim_symbol SCD2 table as a single-file
// snapshot under root/dim_symbol, replaced wholesale on every Save under
// optimistic concurrency (§4.B, §4.C, §8.10). dim_symbol has no
// PartitionBy, so there is exactly one live file at any time.
type DimensionStore struct {
	log *txnlog.Log
}

// NewDimensionStore opens (or creates) the dimension store at root/dim_symbol.
func NewDimensionStore(root string) (*DimensionStore, error) {
	log, err := txnlog.Open(root + "/dim_symbol")
	if err != nil {
		return nil, err
	}
	return &DimensionStore{log: log}, nil
}

// Load returns the current dim_symbol frame and the store's version (for
// a subsequent Save's optimistic-concurrency check). An empty store
// returns an empty frame and version 0.
func (d *DimensionStore) Load() (*pointline.Frame, int64, error) {
	version, err := d.log.Version()
	if err != nil {
		return nil, 0, err
	}
	paths, err := d.log.FileURIs(txnlog.PartitionFilter{})
	if err != nil {
		return nil, 0, err
	}
	if len(paths) == 0 {
		return pointline.EmptyFrame(), version, nil
	}
	spec, err := pointline.GetTableSpec("dim_symbol")
	if err != nil {
		return nil, 0, err
	}
	frames := make([]*pointline.Frame, 0, len(paths))
	for _, p := range paths {
		f, err := pqio.ReadFrame(p, spec)
		if err != nil {
			return nil, 0, err
		}
		frames = append(frames, f)
	}
	merged, err := pointline.Concat(frames...)
	if err != nil {
		return nil, 0, err
	}
	return merged, version, nil
}

// Save validates dim against every SCD2 invariant and replaces the
// store's live file set, guarded by expectedVersion (nil skips the
// check). Returns the new version, or a *pointline.VersionMismatchError
// on a concurrent writer (§4.B, §8.10).
func (d *DimensionStore) Save(dim *pointline.Frame, expectedVersion *int64) (int64, error) {
	if err := dimsymbol.Validate(dim); err != nil {
		return 0, err
	}
	spec, err := pointline.GetTableSpec("dim_symbol")
	if err != nil {
		return 0, err
	}

	dir := d.log.Dir()
	path := fmt.Sprintf("%s/dim_symbol-%d.parquet", dir, time.Now().UnixNano())
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("storage: create %s: %w", path, err)
	}
	if err := pqio.WriteFrame(f, spec, dim); err != nil {
		f.Close()
		return 0, fmt.Errorf("storage: write dim_symbol snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		return 0, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}

	version, err := d.log.Overwrite([]txnlog.FileEntry{{Path: path, SizeBytes: info.Size()}}, expectedVersion)
	if err != nil {
		var conflict *txnlog.VersionConflictError
		if ok := asVersionConflict(err, &conflict); ok {
			return 0, &pointline.VersionMismatchError{Expected: expectedVersion, Current: &conflict.Current}
		}
		return 0, err
	}
	return version, nil
}

func asVersionConflict(err error, out **txnlog.VersionConflictError) bool {
	if c, ok := err.(*txnlog.VersionConflictError); ok {
		*out = c
		return true
	}
	return false
}
