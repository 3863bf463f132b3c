// Package pointline implements the canonical schema registry, fixed-point
// encoding contract, and shared result/error types for the Pointline
// market-data lakehouse. Subpackages (dimsymbol, ingest, storage, dq,
// query) build on top of the types declared here.
package pointline

import "fmt"

// Sentinel errors for programmer/config-level failures (§7: surfaced to
// the caller, never recovered into a result type).
var (
	ErrUnknownTable       = fmt.Errorf("unknown table")
	ErrUnknownExchange    = fmt.Errorf("unknown exchange")
	ErrUnsupportedType    = fmt.Errorf("unsupported data_type")
	ErrSchemaMismatch     = fmt.Errorf("schema mismatch")
	ErrInvariantViolation = fmt.Errorf("dim_symbol invariant violation")
	ErrVersionMismatch    = fmt.Errorf("dim_symbol version mismatch")
)

// SchemaMismatchError reports why a frame was rejected by EventStore.Append
// or the normalize step: missing columns, unexpected columns, or a dtype
// that doesn't match the registered TableSpec.
type SchemaMismatchError struct {
	Table     string
	Missing   []string
	Unexpect  []string
	DtypeErrs []string
}

func (e *SchemaMismatchError) Error() string {
	msg := fmt.Sprintf("%s: schema mismatch for table %q", ErrSchemaMismatch, e.Table)
	if len(e.Missing) > 0 {
		msg += fmt.Sprintf("; missing=%v", e.Missing)
	}
	if len(e.Unexpect) > 0 {
		msg += fmt.Sprintf("; unexpected=%v", e.Unexpect)
	}
	if len(e.DtypeErrs) > 0 {
		msg += fmt.Sprintf("; dtype=%v", e.DtypeErrs)
	}
	return msg
}

func (e *SchemaMismatchError) Unwrap() error { return ErrSchemaMismatch }

// InvariantViolationError names the specific SCD2 invariant (§3, §4.C,
// §8.3) that a dim_symbol frame failed.
type InvariantViolationError struct {
	Name   string
	Detail string
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInvariantViolation, e.Name, e.Detail)
}

func (e *InvariantViolationError) Unwrap() error { return ErrInvariantViolation }

// VersionMismatchError is raised by DimensionStore.Save when the caller's
// expected_version doesn't match the store's current_version (§4.B, §5).
type VersionMismatchError struct {
	Expected *int64
	Current  *int64
}

func (e *VersionMismatchError) Error() string {
	return fmt.Sprintf("%s: expected %s, current %s", ErrVersionMismatch, formatVersion(e.Expected), formatVersion(e.Current))
}

func (e *VersionMismatchError) Unwrap() error { return ErrVersionMismatch }

func formatVersion(v *int64) string {
	if v == nil {
		return "<none>"
	}
	return fmt.Sprintf("%d", *v)
}

// NewMissingColumnsError reports that op requires the named columns and
// the input frame lacks them.
func NewMissingColumnsError(op string, missing []string) error {
	return &SchemaMismatchError{Table: op, Missing: missing}
}

