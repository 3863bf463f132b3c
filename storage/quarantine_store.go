package storage

import (
	"time"

	"github.com/neomantra/pointline"
)

// QuarantineStore writes one validation_log row per quarantined input
// row (§4.F, §3 "Validation log"), backed by the same EventStore used
// for event tables since validation_log is itself a flat, unpartitioned
// control table.
type QuarantineStore struct {
	Events *EventStore
}

// NewQuarantineStore returns a store sharing events' table directory root.
func NewQuarantineStore(events *EventStore) *QuarantineStore {
	return &QuarantineStore{Events: events}
}

// Append writes len(rows) validation_log rows, one per input row, with
// logged_at_ts_us = base + row_index to preserve ordering (§4.B
// QuarantineStore.append). Ignores empty frames. Satisfies
// ingest.QuarantineStore.
func (q *QuarantineStore) Append(tableName string, rows *pointline.Frame, reason string, fileID int64) error {
	n := rows.NumRows()
	if n == 0 {
		return nil
	}
	base := time.Now().UnixMicro()

	fileIDs := make([]int64, n)
	ruleNames := make([]string, n)
	severities := make([]string, n)
	loggedAt := make([]int64, n)
	for i := 0; i < n; i++ {
		fileIDs[i] = fileID
		ruleNames[i] = reason
		severities[i] = "error"
		loggedAt[i] = base + int64(i)
	}

	log := pointline.NewFrame(
		pointline.NewColumn("file_id", fileIDs),
		nullableInt64FromColumn("file_seq", rows.Column("file_seq"), n),
		pointline.NewColumn("rule_name", ruleNames),
		pointline.NewColumn("severity", severities),
		pointline.NewColumn("logged_at_ts_us", loggedAt),
		stringAllNull("field_name", n),
		stringAllNull("field_value", n),
		nullableInt64FromColumn("ts_event_us", rows.Column("ts_event_us"), n),
		nullableStringFromColumn("symbol", rows.Column("symbol"), n),
		nullableInt64FromColumn("symbol_id", rows.Column("symbol_id"), n),
		stringColumnOrNull("message", tableName+": "+reason, n),
	)
	return q.Events.Append("validation_log", log)
}

func nullableInt64FromColumn(name string, src *pointline.Column, n int) *pointline.Column {
	c := pointline.NewColumn(name, make([]int64, n))
	c.EnsureValid()
	if src == nil || src.Dtype != pointline.Int64 {
		for i := 0; i < n; i++ {
			c.Valid[i] = false
		}
		return c
	}
	for i := 0; i < n; i++ {
		if src.IsNull(i) {
			c.Valid[i] = false
			continue
		}
		c.I64[i] = src.I64[i]
	}
	return c
}

func nullableStringFromColumn(name string, src *pointline.Column, n int) *pointline.Column {
	c := pointline.NewColumn(name, make([]string, n))
	c.EnsureValid()
	if src == nil || src.Dtype != pointline.Utf8 {
		for i := 0; i < n; i++ {
			c.Valid[i] = false
		}
		return c
	}
	for i := 0; i < n; i++ {
		if src.IsNull(i) {
			c.Valid[i] = false
			continue
		}
		c.Str[i] = src.Str[i]
	}
	return c
}

func stringAllNull(name string, n int) *pointline.Column {
	c := pointline.NewColumn(name, make([]string, n))
	c.EnsureValid()
	for i := 0; i < n; i++ {
		c.Valid[i] = false
	}
	return c
}

func stringColumnOrNull(name, value string, n int) *pointline.Column {
	vals := make([]string, n)
	for i := range vals {
		vals[i] = value
	}
	return pointline.NewColumn(name, vals)
}
