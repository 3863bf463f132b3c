// Package storage implements the TableRepository/ManifestRepository
// adapters (§4.B, §4.D) on top of internal/txnlog for commit bookkeeping
// and internal/pqio + internal/duckio for the actual Parquet I/O. Event
// tables are partitioned on disk by spec.PartitionBy; dimension and
// control tables live flat under their own directory.
package storage

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/neomantra/pointline"
)

// partitionValue formats one row's value for a partition-key column as a
// directory-safe string: the raw string for Utf8 (e.g. "binance";
// partitionDir adds the Hive-style "exchange=" prefix), calendar dates as
// YYYY-MM-DD for Date.
func partitionValue(col *pointline.Column, row int) string {
	switch col.Dtype {
	case pointline.Utf8:
		return col.Str[row]
	case pointline.Int64:
		return strconv.FormatInt(col.I64[row], 10)
	case pointline.Date, pointline.Int32:
		return time.Unix(int64(col.D32[row])*86400, 0).UTC().Format("2006-01-02")
	default:
		return fmt.Sprintf("%v", row)
	}
}

// partitionGroup is one distinct partition-key tuple and the row indices
// in the source frame that belong to it, in first-seen order.
type partitionGroup struct {
	values map[string]string
	rows   []int
}

// groupByPartition splits df into one group per distinct combination of
// spec.PartitionBy column values. A spec with no PartitionBy yields a
// single group covering the whole frame.
func groupByPartition(df *pointline.Frame, spec pointline.TableSpec) ([]partitionGroup, error) {
	if len(spec.PartitionBy) == 0 {
		rows := make([]int, df.NumRows())
		for i := range rows {
			rows[i] = i
		}
		return []partitionGroup{{values: map[string]string{}, rows: rows}}, nil
	}
	cols := make([]*pointline.Column, len(spec.PartitionBy))
	for i, name := range spec.PartitionBy {
		c := df.Column(name)
		if c == nil {
			return nil, fmt.Errorf("%w: partition column %q not present for table %q", pointline.ErrSchemaMismatch, name, spec.Name)
		}
		cols[i] = c
	}

	order := make([]string, 0)
	groups := make(map[string]*partitionGroup)
	for row := 0; row < df.NumRows(); row++ {
		values := make(map[string]string, len(cols))
		key := ""
		for i, c := range cols {
			v := partitionValue(c, row)
			values[spec.PartitionBy[i]] = v
			key += spec.PartitionBy[i] + "=" + v + "/"
		}
		g, ok := groups[key]
		if !ok {
			g = &partitionGroup{values: values}
			groups[key] = g
			order = append(order, key)
		}
		g.rows = append(g.rows, row)
	}
	sort.Strings(order)
	out := make([]partitionGroup, 0, len(order))
	for _, k := range order {
		out = append(out, *groups[k])
	}
	return out, nil
}

// partitionDir builds the on-disk directory for a partition's values,
// in spec.PartitionBy declared order (Hive-style key=value segments).
func partitionDir(root string, spec pointline.TableSpec, values map[string]string) string {
	dir := root + "/" + spec.Name
	for _, key := range spec.PartitionBy {
		dir += "/" + key + "=" + values[key]
	}
	return dir
}
