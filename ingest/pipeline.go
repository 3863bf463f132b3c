package ingest

import (
	"fmt"
	"sort"
	"time"

	"github.com/neomantra/pointline"
	"github.com/neomantra/pointline/dimsymbol"
)

// tableAliases maps a bronze file's data_type to its registered table
// name. Several vendors use their own data_type spelling for the same
// canonical table (§4.E step 1).
var tableAliases = map[string]string{
	"trades":             "trades",
	"quotes":              "quotes",
	"orderbook_updates":   "orderbook_updates",
	"incremental_book_L2": "orderbook_updates",
	"incremental_book_l2": "orderbook_updates",
	"derivative_ticker":   "derivative_ticker",
	"liquidations":        "liquidations",
	"options_chain":       "options_chain",
	"cn_order_events":     "cn_order_events",
	"order_new":           "cn_order_events",
	"l3_orders":           "cn_order_events",
	"cn_tick_events":      "cn_tick_events",
	"tick_new":            "cn_tick_events",
	"l3_ticks":            "cn_tick_events",
	"cn_l2_snapshots":     "cn_l2_snapshots",
	"L2_new":              "cn_l2_snapshots",
	"l2_new":              "cn_l2_snapshots",
}

func resolveTableName(dataType string) (string, error) {
	name, ok := tableAliases[dataType]
	if !ok {
		supported := make([]string, 0, len(tableAliases))
		for k := range tableAliases {
			supported = append(supported, k)
		}
		sort.Strings(supported)
		return "", fmt.Errorf("%w: %q. Supported: %v", pointline.ErrUnsupportedType, dataType, supported)
	}
	return name, nil
}

// Pipeline wires together the collaborators ingest_file needs: a vendor
// parser, the manifest ledger, the silver/quarantine writers, and the
// current dim_symbol snapshot used for PIT resolution (§4.E).
type Pipeline struct {
	Parser          Parser
	Manifest        ManifestStore
	Writer          EventStore
	Quarantine      QuarantineStore
	DimSymbol       *pointline.Frame
	Force           bool
	DryRun          bool
}

type quarantineBatch struct {
	rows   *pointline.Frame
	reason string
}

// IngestFile runs one bronze file through the full ingestion path:
// idempotency check, parse, vendor canonicalization, trading-date
// derivation, generic + CN-venue validation, point-in-time symbol
// resolution, lineage stamping, schema normalization, and write. Errors
// are returned as a failed IngestionResult rather than propagated: a
// parser error is recorded as a failed/parser_error manifest row, an
// empty parse as failed/empty_parse, and an error in any later stage as
// failed/pipeline_error. Errors raised before a file_id is minted
// (unknown data_type, manifest lookup) produce a failed/pipeline_error
// result without a manifest row (§4.E, §7).
func (p *Pipeline) IngestFile(meta pointline.BronzeFileMetadata) *pointline.IngestionResult {
	tableName, err := resolveTableName(meta.DataType)
	if err != nil {
		return &pointline.IngestionResult{Status: pointline.StatusFailed, FailureReason: pointline.FailureReasonPipelineError, ErrorMessage: err.Error()}
	}
	spec, err := pointline.GetTableSpec(tableName)
	if err != nil {
		return &pointline.IngestionResult{Status: pointline.StatusFailed, FailureReason: pointline.FailureReasonPipelineError, ErrorMessage: err.Error()}
	}

	if !p.Force {
		pending, err := p.Manifest.FilterPending([]pointline.BronzeFileMetadata{meta})
		if err != nil {
			return &pointline.IngestionResult{Status: pointline.StatusFailed, FailureReason: pointline.FailureReasonPipelineError, ErrorMessage: err.Error()}
		}
		if len(pending) == 0 {
			return &pointline.IngestionResult{Status: pointline.StatusSuccess, Skipped: true}
		}
	}

	var fileID int64
	if !p.DryRun {
		fileID, err = p.Manifest.ResolveFileID(meta)
		if err != nil {
			return &pointline.IngestionResult{Status: pointline.StatusFailed, FailureReason: pointline.FailureReasonPipelineError, ErrorMessage: err.Error()}
		}
	}
	fileIDPtr := &fileID

	parsed, err := p.Parser(meta)
	if err != nil {
		return p.finish(fileIDPtr, meta, &pointline.IngestionResult{
			Status: pointline.StatusFailed, FileID: fileIDPtr,
			FailureReason: pointline.FailureReasonParserError, ErrorMessage: err.Error(),
		})
	}
	if parsed.IsEmpty() {
		return p.finish(fileIDPtr, meta, &pointline.IngestionResult{
			Status: pointline.StatusFailed, FileID: fileIDPtr,
			FailureReason: pointline.FailureReasonEmptyParse, ErrorMessage: "parser returned no rows",
		})
	}

	result, err := p.process(meta, tableName, spec, fileIDPtr, parsed)
	if err != nil {
		return p.finish(fileIDPtr, meta, &pointline.IngestionResult{
			Status: pointline.StatusFailed, FileID: fileIDPtr, RowCount: int64(parsed.NumRows()),
			FailureReason: pointline.FailureReasonPipelineError, ErrorMessage: err.Error(),
		})
	}
	return p.finish(fileIDPtr, meta, result)
}

func (p *Pipeline) process(meta pointline.BronzeFileMetadata, tableName string, spec pointline.TableSpec, fileID *int64, parsed *pointline.Frame) (*pointline.IngestionResult, error) {
	canonicalized := parsed
	if meta.Vendor == "quant360" {
		var err error
		canonicalized, err = CanonicalizeQuant360(parsed, tableName)
		if err != nil {
			return nil, err
		}
	}
	withTradingDate, err := DeriveTradingDate(canonicalized)
	if err != nil {
		return nil, err
	}

	genericValid, genericQuarantined, genericReason, err := ApplyEventValidations(withTradingDate, tableName)
	if err != nil {
		return nil, err
	}
	validatedRows, cnQuarantined, cnReason, err := ApplyCNExchangeValidations(genericValid, tableName)
	if err != nil {
		return nil, err
	}
	ruleBatches := []quarantineBatch{{genericQuarantined, genericReason}, {cnQuarantined, cnReason}}
	ruleQuarantinedCount := genericQuarantined.NumRows() + cnQuarantined.NumRows()
	ruleReason := combineReasons(genericReason, cnReason)

	if validatedRows.IsEmpty() {
		p.appendQuarantineBatches(fileID, tableName, ruleBatches)
		return &pointline.IngestionResult{
			Status: pointline.StatusQuarantined, FileID: fileID,
			RowCount: int64(withTradingDate.NumRows()), RowsQuarantined: int64(ruleQuarantinedCount),
			FailureReason: ruleReason, ErrorMessage: "all rows quarantined by validation rules",
		}, nil
	}

	validRows, pitQuarantined, pitReason, err := dimsymbol.PITResolve(validatedRows, p.DimSymbol)
	if err != nil {
		return nil, err
	}
	totalQuarantined := ruleQuarantinedCount + pitQuarantined.NumRows()
	reason := combineReasons(ruleReason, pitReason)

	if validRows.IsEmpty() {
		p.appendQuarantineBatches(fileID, tableName, append(ruleBatches, quarantineBatch{pitQuarantined, pitReason}))
		return &pointline.IngestionResult{
			Status: pointline.StatusQuarantined, FileID: fileID,
			RowCount: int64(withTradingDate.NumRows()), RowsQuarantined: int64(totalQuarantined),
			FailureReason: reason, ErrorMessage: "all rows quarantined by validation/PIT coverage",
		}, nil
	}

	withLineage := AssignLineage(validRows, *fileID)
	normalized, err := NormalizeToTableSpec(withLineage, spec)
	if err != nil {
		return nil, err
	}

	p.appendQuarantineBatches(fileID, tableName, append(ruleBatches, quarantineBatch{pitQuarantined, pitReason}))

	if !p.DryRun {
		if err := p.Writer.Append(tableName, normalized); err != nil {
			return nil, err
		}
	}

	tradingDateMin, tradingDateMax := tradingDateRange(normalized)
	return &pointline.IngestionResult{
		Status: pointline.StatusSuccess, FileID: fileID,
		RowCount: int64(withTradingDate.NumRows()), RowsWritten: int64(normalized.NumRows()),
		RowsQuarantined: int64(totalQuarantined),
		TradingDateMin:  tradingDateMin, TradingDateMax: tradingDateMax,
	}, nil
}

func (p *Pipeline) appendQuarantineBatches(fileID *int64, tableName string, batches []quarantineBatch) {
	if p.DryRun || p.Quarantine == nil {
		return
	}
	for _, b := range batches {
		if b.rows == nil || b.rows.NumRows() == 0 {
			continue
		}
		reason := b.reason
		if reason == "" {
			reason = "quarantined"
		}
		_ = p.Quarantine.Append(tableName, b.rows, reason, *fileID)
	}
}

func (p *Pipeline) finish(fileID *int64, meta pointline.BronzeFileMetadata, result *pointline.IngestionResult) *pointline.IngestionResult {
	if !p.DryRun && fileID != nil {
		_ = p.Manifest.UpdateStatus(*fileID, result.Status, meta, result)
	}
	return result
}

func combineReasons(reasons ...string) string {
	seen := map[string]bool{}
	var ordered []string
	for _, r := range reasons {
		if r == "" || seen[r] {
			continue
		}
		seen[r] = true
		ordered = append(ordered, r)
	}
	out := ""
	for i, r := range ordered {
		if i > 0 {
			out += "+"
		}
		out += r
	}
	return out
}

func tradingDateRange(df *pointline.Frame) (min, max *time.Time) {
	col := df.Column("trading_date")
	if col == nil || col.Len() == 0 {
		return nil, nil
	}
	lo, hi := col.D32[0], col.D32[0]
	for _, v := range col.D32[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	loT := time.Unix(int64(lo)*86400, 0).UTC()
	hiT := time.Unix(int64(hi)*86400, 0).UTC()
	return &loT, &hiT
}
