// Package pqio writes pointline.Frame values to Parquet using the
// low-level column-chunk writer API, one ColumnChunkWriter per declared
// column and one WriteBatch call per column (not per row).
package pqio

import (
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	pqfile "github.com/apache/arrow-go/v18/parquet/file"
	pqschema "github.com/apache/arrow-go/v18/parquet/schema"

	"github.com/neomantra/pointline"
)

// GroupNodeForSpec builds the Parquet schema GroupNode for a TableSpec,
// mapping pointline.Dtype to a primitive Parquet node the way the
// teacher's ParquetGroupNode_* functions do for DBN message structs.
func GroupNodeForSpec(spec pointline.TableSpec) (*pqschema.GroupNode, error) {
	fields := make(pqschema.FieldList, 0, len(spec.Columns))
	for _, col := range spec.Columns {
		rep := parquet.Repetitions.Required
		if col.Nullable {
			rep = parquet.Repetitions.Optional
		}
		node, err := primitiveNode(col.Name, col.Dtype, rep)
		if err != nil {
			return nil, fmt.Errorf("pqio: table %q: %w", spec.Name, err)
		}
		fields = append(fields, node)
	}
	return pqschema.MustGroup(pqschema.NewGroupNode(spec.Name, parquet.Repetitions.Required, fields, -1)), nil
}

func primitiveNode(name string, dtype pointline.Dtype, rep parquet.Repetition) (pqschema.Node, error) {
	switch dtype {
	case pointline.Int64:
		return pqschema.MustPrimitive(pqschema.NewPrimitiveNodeLogical(name, rep, pqschema.NewIntLogicalType(64, true), parquet.Types.Int64, 0, -1)), nil
	case pointline.Int32:
		return pqschema.MustPrimitive(pqschema.NewPrimitiveNodeLogical(name, rep, pqschema.NewIntLogicalType(32, true), parquet.Types.Int32, 0, -1)), nil
	case pointline.Float64:
		return pqschema.NewFloat64Node(name, rep, -1), nil
	case pointline.Bool:
		return pqschema.NewBooleanNode(name, rep, -1), nil
	case pointline.Utf8:
		return pqschema.MustPrimitive(pqschema.NewPrimitiveNodeConverted(name, rep, parquet.Types.ByteArray, pqschema.ConvertedTypes.UTF8, 0, 0, 0, -1)), nil
	case pointline.Date:
		return pqschema.MustPrimitive(pqschema.NewPrimitiveNodeConverted(name, rep, parquet.Types.Int32, pqschema.ConvertedTypes.Date, 0, 0, 0, -1)), nil
	default:
		return nil, fmt.Errorf("unsupported dtype %s for column %q", dtype, name)
	}
}

// WriteFrame writes frame (already schema-normalized against spec: same
// column order, same dtypes, no extras) to w as a single row group.
func WriteFrame(w io.Writer, spec pointline.TableSpec, frame *pointline.Frame) error {
	groupNode, err := GroupNodeForSpec(spec)
	if err != nil {
		return err
	}
	props := parquet.NewWriterProperties(
		parquet.WithVersion(parquet.V2_LATEST),
		parquet.WithCompression(compress.Codecs.Snappy))

	pw := pqfile.NewParquetWriter(w, groupNode, pqfile.WithWriterProps(props))
	defer pw.Close()

	rgw := pw.AppendBufferedRowGroup()
	for i, col := range spec.Columns {
		c := frame.Column(col.Name)
		if c == nil {
			return fmt.Errorf("pqio: frame missing column %q for table %q", col.Name, spec.Name)
		}
		cw, err := rgw.Column(i)
		if err != nil {
			return fmt.Errorf("pqio: column writer %d (%s): %w", i, col.Name, err)
		}
		if err := writeColumn(cw, col.Dtype, c); err != nil {
			return fmt.Errorf("pqio: writing column %q: %w", col.Name, err)
		}
	}
	if err := rgw.Close(); err != nil {
		return err
	}
	return pw.FlushWithFooter()
}

// defLevels builds the def-level slice for a nullable column: 1 where
// valid, 0 where null. Returns nil (meaning "all defined") when the
// column carries no null mask.
func defLevels(c *pointline.Column) []int16 {
	if c.Valid == nil {
		return nil
	}
	lv := make([]int16, len(c.Valid))
	for i, ok := range c.Valid {
		if ok {
			lv[i] = 1
		}
	}
	return lv
}

func writeColumn(cw pqfile.ColumnChunkWriter, dtype pointline.Dtype, c *pointline.Column) error {
	lv := defLevels(c)
	switch dtype {
	case pointline.Int64:
		values := compactInt64(c, lv)
		_, err := cw.(*pqfile.Int64ColumnChunkWriter).WriteBatch(values, lv, nil)
		return err
	case pointline.Int32, pointline.Date:
		values := compactInt32(c, lv)
		_, err := cw.(*pqfile.Int32ColumnChunkWriter).WriteBatch(values, lv, nil)
		return err
	case pointline.Float64:
		values := compactFloat64(c, lv)
		_, err := cw.(*pqfile.Float64ColumnChunkWriter).WriteBatch(values, lv, nil)
		return err
	case pointline.Bool:
		values := compactBool(c, lv)
		_, err := cw.(*pqfile.BooleanColumnChunkWriter).WriteBatch(values, lv, nil)
		return err
	case pointline.Utf8:
		values := compactUtf8(c, lv)
		_, err := cw.(*pqfile.ByteArrayColumnChunkWriter).WriteBatch(values, lv, nil)
		return err
	default:
		return fmt.Errorf("unsupported dtype %s", dtype)
	}
}

func compactInt64(c *pointline.Column, lv []int16) []int64 {
	if lv == nil {
		return c.I64
	}
	out := make([]int64, 0, len(c.I64))
	for i, ok := range c.Valid {
		if ok {
			out = append(out, c.I64[i])
		}
	}
	return out
}

func compactInt32(c *pointline.Column, lv []int16) []int32 {
	if lv == nil {
		return c.D32
	}
	out := make([]int32, 0, len(c.D32))
	for i, ok := range c.Valid {
		if ok {
			out = append(out, c.D32[i])
		}
	}
	return out
}

func compactFloat64(c *pointline.Column, lv []int16) []float64 {
	if lv == nil {
		return c.F64
	}
	out := make([]float64, 0, len(c.F64))
	for i, ok := range c.Valid {
		if ok {
			out = append(out, c.F64[i])
		}
	}
	return out
}

func compactBool(c *pointline.Column, lv []int16) []bool {
	if lv == nil {
		return c.Bln
	}
	out := make([]bool, 0, len(c.Bln))
	for i, ok := range c.Valid {
		if ok {
			out = append(out, c.Bln[i])
		}
	}
	return out
}

func compactUtf8(c *pointline.Column, lv []int16) []parquet.ByteArray {
	n := len(c.Str)
	if lv != nil {
		n = 0
		for _, ok := range c.Valid {
			if ok {
				n++
			}
		}
	}
	out := make([]parquet.ByteArray, 0, n)
	for i, s := range c.Str {
		if lv != nil && !c.Valid[i] {
			continue
		}
		out = append(out, parquet.ByteArray(s))
	}
	return out
}
