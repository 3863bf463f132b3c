package pqio

import (
	"fmt"

	"github.com/apache/arrow-go/v18/parquet"
	pqfile "github.com/apache/arrow-go/v18/parquet/file"

	"github.com/neomantra/pointline"
)

type parquetByteArray = parquet.ByteArray

// ReadFrame reads a single-row-group Parquet file written by WriteFrame
// back into a Frame shaped by spec. Used by storage's compaction pass to
// rewrite a partition's small files into one, and by EventStore.Scan and
// DimensionStore.Load to read committed data (dq reads through
// EventStore.Scan; query reads through DuckDB instead). Multi-row-group
// files are read and concatenated.
func ReadFrame(path string, spec pointline.TableSpec) (*pointline.Frame, error) {
	pr, err := pqfile.OpenParquetFile(path, false)
	if err != nil {
		return nil, fmt.Errorf("pqio: open %s: %w", path, err)
	}
	defer pr.Close()

	var groups []*pointline.Frame
	for g := 0; g < pr.NumRowGroups(); g++ {
		rgr := pr.RowGroup(g)
		nRows := int(rgr.NumRows())
		cols := make([]*pointline.Column, len(spec.Columns))
		for i, cs := range spec.Columns {
			cr, err := rgr.Column(i)
			if err != nil {
				return nil, fmt.Errorf("pqio: column reader %d (%s) in %s: %w", i, cs.Name, path, err)
			}
			col, err := readColumn(cr, cs, nRows)
			if err != nil {
				return nil, fmt.Errorf("pqio: reading column %q in %s: %w", cs.Name, path, err)
			}
			cols[i] = col
		}
		if nRows == 0 {
			continue
		}
		groups = append(groups, pointline.NewFrame(cols...))
	}
	if len(groups) == 0 {
		return emptyFrameForSpec(spec), nil
	}
	return pointline.Concat(groups...)
}

func emptyFrameForSpec(spec pointline.TableSpec) *pointline.Frame {
	cols := make([]*pointline.Column, len(spec.Columns))
	for i, cs := range spec.Columns {
		cols[i] = zeroColumn(cs.Name, cs.Dtype, 0)
	}
	return pointline.NewFrame(cols...)
}

func zeroColumn(name string, dtype pointline.Dtype, n int) *pointline.Column {
	switch dtype {
	case pointline.Int64:
		return pointline.NewColumn(name, make([]int64, n))
	case pointline.Float64:
		return pointline.NewColumn(name, make([]float64, n))
	case pointline.Utf8:
		return pointline.NewColumn(name, make([]string, n))
	case pointline.Bool:
		return pointline.NewColumn(name, make([]bool, n))
	case pointline.Date, pointline.Int32:
		return pointline.NewColumn(name, make([]int32, n))
	default:
		return pointline.NewColumn(name, make([]int64, n))
	}
}

// readColumn reads nRows worth of one Parquet column chunk, reconstructing
// the Valid null mask from definition levels for optional (nullable) nodes.
func readColumn(cr pqfile.ColumnChunkReader, cs pointline.ColumnSpec, nRows int) (*pointline.Column, error) {
	defLvls := make([]int16, nRows)
	col := zeroColumn(cs.Name, cs.Dtype, nRows)

	switch cs.Dtype {
	case pointline.Int64:
		typed := cr.(*pqfile.Int64ColumnChunkReader)
		values := make([]int64, nRows)
		total, read, err := typed.ReadBatch(int64(nRows), values, defLvls, nil)
		if err != nil {
			return nil, err
		}
		scatterInt64(col, values, defLvls, cs.Nullable, int(total), read)
	case pointline.Int32, pointline.Date:
		typed := cr.(*pqfile.Int32ColumnChunkReader)
		values := make([]int32, nRows)
		total, read, err := typed.ReadBatch(int64(nRows), values, defLvls, nil)
		if err != nil {
			return nil, err
		}
		scatterInt32(col, values, defLvls, cs.Nullable, int(total), read)
	case pointline.Float64:
		typed := cr.(*pqfile.Float64ColumnChunkReader)
		values := make([]float64, nRows)
		total, read, err := typed.ReadBatch(int64(nRows), values, defLvls, nil)
		if err != nil {
			return nil, err
		}
		scatterFloat64(col, values, defLvls, cs.Nullable, int(total), read)
	case pointline.Bool:
		typed := cr.(*pqfile.BooleanColumnChunkReader)
		values := make([]bool, nRows)
		total, read, err := typed.ReadBatch(int64(nRows), values, defLvls, nil)
		if err != nil {
			return nil, err
		}
		scatterBool(col, values, defLvls, cs.Nullable, int(total), read)
	case pointline.Utf8:
		typed := cr.(*pqfile.ByteArrayColumnChunkReader)
		values := make([]parquetByteArray, nRows)
		total, read, err := typed.ReadBatch(int64(nRows), values, defLvls, nil)
		if err != nil {
			return nil, err
		}
		scatterUtf8(col, values, defLvls, cs.Nullable, int(total), read)
	default:
		return nil, fmt.Errorf("unsupported dtype %s", cs.Dtype)
	}
	return col, nil
}

// scatter* place the compactly-read "defined" values back into their row
// positions, filling nulls where the definition level was 0 (only emitted
// for nullable columns; required columns read one value per row).

func scatterInt64(col *pointline.Column, values []int64, defLvls []int16, nullable bool, total, read int) {
	if !nullable {
		copy(col.I64, values[:read])
		return
	}
	col.EnsureValid()
	vi := 0
	for i := 0; i < total; i++ {
		if defLvls[i] == 1 {
			col.I64[i] = values[vi]
			vi++
		} else {
			col.Valid[i] = false
		}
	}
}

func scatterInt32(col *pointline.Column, values []int32, defLvls []int16, nullable bool, total, read int) {
	if !nullable {
		copy(col.D32, values[:read])
		return
	}
	col.EnsureValid()
	vi := 0
	for i := 0; i < total; i++ {
		if defLvls[i] == 1 {
			col.D32[i] = values[vi]
			vi++
		} else {
			col.Valid[i] = false
		}
	}
}

func scatterFloat64(col *pointline.Column, values []float64, defLvls []int16, nullable bool, total, read int) {
	if !nullable {
		copy(col.F64, values[:read])
		return
	}
	col.EnsureValid()
	vi := 0
	for i := 0; i < total; i++ {
		if defLvls[i] == 1 {
			col.F64[i] = values[vi]
			vi++
		} else {
			col.Valid[i] = false
		}
	}
}

func scatterBool(col *pointline.Column, values []bool, defLvls []int16, nullable bool, total, read int) {
	if !nullable {
		copy(col.Bln, values[:read])
		return
	}
	col.EnsureValid()
	vi := 0
	for i := 0; i < total; i++ {
		if defLvls[i] == 1 {
			col.Bln[i] = values[vi]
			vi++
		} else {
			col.Valid[i] = false
		}
	}
}

func scatterUtf8(col *pointline.Column, values []parquetByteArray, defLvls []int16, nullable bool, total, read int) {
	if !nullable {
		for i := 0; i < read; i++ {
			col.Str[i] = string(values[i])
		}
		return
	}
	col.EnsureValid()
	vi := 0
	for i := 0; i < total; i++ {
		if defLvls[i] == 1 {
			col.Str[i] = string(values[vi])
			vi++
		} else {
			col.Valid[i] = false
		}
	}
}
