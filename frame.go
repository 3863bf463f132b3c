package pointline

import (
	"fmt"
	"sort"
)

// Column is a single typed, nullable vector. Exactly one of the typed
// slices is populated, selected by Dtype; Valid is a parallel null mask
// (true = non-null). Valid may be nil, meaning "no nulls".
type Column struct {
	Name   string
	Dtype  Dtype
	I64    []int64
	F64    []float64
	Str    []string
	Bln    []bool
	D32    []int32 // Date, days since Unix epoch
	Valid  []bool
}

// NewColumn builds a Column from a typed slice, inferring Dtype.
func NewColumn(name string, data any) *Column {
	switch v := data.(type) {
	case []int64:
		return &Column{Name: name, Dtype: Int64, I64: v}
	case []float64:
		return &Column{Name: name, Dtype: Float64, F64: v}
	case []string:
		return &Column{Name: name, Dtype: Utf8, Str: v}
	case []bool:
		return &Column{Name: name, Dtype: Bool, Bln: v}
	case []int32:
		return &Column{Name: name, Dtype: Date, D32: v}
	default:
		panic(fmt.Sprintf("pointline: unsupported column data type for %q: %T", name, data))
	}
}

// Len returns the column's row count.
func (c *Column) Len() int {
	switch c.Dtype {
	case Int64:
		return len(c.I64)
	case Float64:
		return len(c.F64)
	case Utf8:
		return len(c.Str)
	case Bool:
		return len(c.Bln)
	case Date, Int32:
		return len(c.D32)
	default:
		return 0
	}
}

// IsNull reports whether row i is null. A nil Valid mask means no nulls.
func (c *Column) IsNull(i int) bool {
	if c.Valid == nil {
		return false
	}
	return !c.Valid[i]
}

// EnsureValid lazily allocates an all-valid mask so callers can flip
// individual entries to null.
func (c *Column) EnsureValid() {
	if c.Valid != nil {
		return
	}
	n := c.Len()
	c.Valid = make([]bool, n)
	for i := range c.Valid {
		c.Valid[i] = true
	}
}

// SetNull marks row i null, growing the Valid mask if needed.
func (c *Column) SetNull(i int) {
	c.EnsureValid()
	c.Valid[i] = false
}

func (c *Column) take(idx []int) *Column {
	out := &Column{Name: c.Name, Dtype: c.Dtype}
	if c.Valid != nil {
		out.Valid = make([]bool, len(idx))
	}
	switch c.Dtype {
	case Int64:
		out.I64 = make([]int64, len(idx))
		for k, i := range idx {
			out.I64[k] = c.I64[i]
			if c.Valid != nil {
				out.Valid[k] = c.Valid[i]
			}
		}
	case Float64:
		out.F64 = make([]float64, len(idx))
		for k, i := range idx {
			out.F64[k] = c.F64[i]
			if c.Valid != nil {
				out.Valid[k] = c.Valid[i]
			}
		}
	case Utf8:
		out.Str = make([]string, len(idx))
		for k, i := range idx {
			out.Str[k] = c.Str[i]
			if c.Valid != nil {
				out.Valid[k] = c.Valid[i]
			}
		}
	case Bool:
		out.Bln = make([]bool, len(idx))
		for k, i := range idx {
			out.Bln[k] = c.Bln[i]
			if c.Valid != nil {
				out.Valid[k] = c.Valid[i]
			}
		}
	case Date, Int32:
		out.D32 = make([]int32, len(idx))
		for k, i := range idx {
			out.D32[k] = c.D32[i]
			if c.Valid != nil {
				out.Valid[k] = c.Valid[i]
			}
		}
	}
	return out
}

// clone deep-copies the column.
func (c *Column) clone() *Column {
	all := make([]int, c.Len())
	for i := range all {
		all[i] = i
	}
	return c.take(all)
}

// Frame is an ordered set of equal-length Columns: the runtime
// representation of every table spec's row-set (§9 design note).
type Frame struct {
	cols  []*Column
	index map[string]int
	nRows int
}

// NewFrame builds a Frame from columns, which must all share the same
// row count.
func NewFrame(cols ...*Column) *Frame {
	f := &Frame{cols: cols, index: make(map[string]int, len(cols))}
	for i, c := range cols {
		f.index[c.Name] = i
		if i == 0 {
			f.nRows = c.Len()
		} else if c.Len() != f.nRows {
			panic(fmt.Sprintf("pointline: column %q has %d rows, frame has %d", c.Name, c.Len(), f.nRows))
		}
	}
	return f
}

// EmptyFrame returns a zero-row frame with no columns, used as a
// "nothing matched" sentinel.
func EmptyFrame() *Frame { return &Frame{index: map[string]int{}} }

func (f *Frame) NumRows() int    { return f.nRows }
func (f *Frame) NumCols() int    { return len(f.cols) }
func (f *Frame) IsEmpty() bool   { return f.nRows == 0 }

// ColumnNames returns column names in declared order.
func (f *Frame) ColumnNames() []string {
	names := make([]string, len(f.cols))
	for i, c := range f.cols {
		names[i] = c.Name
	}
	return names
}

// Has reports whether the frame declares a column named name.
func (f *Frame) Has(name string) bool {
	_, ok := f.index[name]
	return ok
}

// Column returns the named column, or nil if absent.
func (f *Frame) Column(name string) *Column {
	i, ok := f.index[name]
	if !ok {
		return nil
	}
	return f.cols[i]
}

// MustColumn panics if the column is absent; used where the caller has
// already validated schema conformance.
func (f *Frame) MustColumn(name string) *Column {
	c := f.Column(name)
	if c == nil {
		panic(fmt.Sprintf("pointline: frame has no column %q", name))
	}
	return c
}

// Select projects the frame down to the named columns, in the given
// order. Errors if any name is absent.
func (f *Frame) Select(names ...string) (*Frame, error) {
	cols := make([]*Column, 0, len(names))
	for _, n := range names {
		c := f.Column(n)
		if c == nil {
			return nil, fmt.Errorf("%w: column %q not present", ErrSchemaMismatch, n)
		}
		cols = append(cols, c)
	}
	return NewFrame(cols...), nil
}

// WithColumn returns a new frame with col appended or replacing an
// existing column of the same name.
func (f *Frame) WithColumn(col *Column) *Frame {
	cols := make([]*Column, 0, len(f.cols)+1)
	replaced := false
	for _, c := range f.cols {
		if c.Name == col.Name {
			cols = append(cols, col)
			replaced = true
		} else {
			cols = append(cols, c)
		}
	}
	if !replaced {
		cols = append(cols, col)
	}
	return NewFrame(cols...)
}

// Filter returns the rows where mask[i] is true, preserving column order.
func (f *Frame) Filter(mask []bool) *Frame {
	idx := make([]int, 0, len(mask))
	for i, keep := range mask {
		if keep {
			idx = append(idx, i)
		}
	}
	return f.Take(idx)
}

// Take returns the rows named by idx, in idx's order (used for joins,
// sorts and PIT selection).
func (f *Frame) Take(idx []int) *Frame {
	cols := make([]*Column, len(f.cols))
	for i, c := range f.cols {
		cols[i] = c.take(idx)
	}
	out := &Frame{cols: cols, index: f.index, nRows: len(idx)}
	return out
}

// Clone deep-copies the frame.
func (f *Frame) Clone() *Frame {
	cols := make([]*Column, len(f.cols))
	for i, c := range f.cols {
		cols[i] = c.clone()
	}
	return NewFrame(cols...)
}

// Concat stacks frames vertically. All frames must share the same
// column set (order-independent); the result takes the first frame's
// column order.
func Concat(frames ...*Frame) (*Frame, error) {
	frames = nonEmpty(frames)
	if len(frames) == 0 {
		return EmptyFrame(), nil
	}
	first := frames[0]
	names := first.ColumnNames()
	for _, fr := range frames[1:] {
		if len(fr.cols) != len(names) {
			return nil, fmt.Errorf("%w: concat column count mismatch", ErrSchemaMismatch)
		}
		for _, n := range names {
			if !fr.Has(n) {
				return nil, fmt.Errorf("%w: concat missing column %q", ErrSchemaMismatch, n)
			}
		}
	}
	outCols := make([]*Column, len(names))
	for ci, name := range names {
		dtype := first.Column(name).Dtype
		anyNull := false
		for _, fr := range frames {
			if fr.Column(name).Valid != nil {
				anyNull = true
			}
		}
		merged := &Column{Name: name, Dtype: dtype}
		if anyNull {
			merged.Valid = []bool{}
		}
		for _, fr := range frames {
			c := fr.Column(name)
			if anyNull {
				c = c.clone()
				c.EnsureValid()
			}
			appendColumn(merged, c)
		}
		outCols[ci] = merged
	}
	return NewFrame(outCols...), nil
}

func nonEmpty(frames []*Frame) []*Frame {
	out := make([]*Frame, 0, len(frames))
	for _, f := range frames {
		if f != nil && len(f.cols) > 0 {
			out = append(out, f)
		}
	}
	return out
}

func appendColumn(dst, src *Column) {
	switch dst.Dtype {
	case Int64:
		dst.I64 = append(dst.I64, src.I64...)
	case Float64:
		dst.F64 = append(dst.F64, src.F64...)
	case Utf8:
		dst.Str = append(dst.Str, src.Str...)
	case Bool:
		dst.Bln = append(dst.Bln, src.Bln...)
	case Date, Int32:
		dst.D32 = append(dst.D32, src.D32...)
	}
	if dst.Valid != nil {
		if src.Valid == nil {
			n := src.Len()
			for i := 0; i < n; i++ {
				dst.Valid = append(dst.Valid, true)
			}
		} else {
			dst.Valid = append(dst.Valid, src.Valid...)
		}
	}
}

// SortBy returns a new frame sorted by the named columns ascending,
// stable (ties preserve relative input order) — used for tie_break_keys
// ordering (§3, §5, §8.7).
func (f *Frame) SortBy(names ...string) (*Frame, error) {
	cols := make([]*Column, len(names))
	for i, n := range names {
		c := f.Column(n)
		if c == nil {
			return nil, fmt.Errorf("%w: sort column %q not present", ErrSchemaMismatch, n)
		}
		cols[i] = c
	}
	idx := make([]int, f.nRows)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ia, ib := idx[a], idx[b]
		for _, c := range cols {
			cmp := compareAt(c, ia, ib)
			if cmp != 0 {
				return cmp < 0
			}
		}
		return false
	})
	return f.Take(idx), nil
}

func compareAt(c *Column, i, j int) int {
	switch c.Dtype {
	case Int64:
		return cmpInt64(c.I64[i], c.I64[j])
	case Float64:
		return cmpFloat64(c.F64[i], c.F64[j])
	case Utf8:
		return cmpString(c.Str[i], c.Str[j])
	case Bool:
		return cmpBool(c.Bln[i], c.Bln[j])
	case Date, Int32:
		return cmpInt32(c.D32[i], c.D32[j])
	}
	return 0
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
func cmpInt32(a, b int32) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
func cmpFloat64(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
func cmpString(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
func cmpBool(a, b bool) int {
	if a == b {
		return 0
	}
	if !a && b {
		return -1
	}
	return 1
}
