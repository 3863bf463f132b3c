// Copyright (c) 2025 Neomantra Corp

package mcpserver

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/relvacode/iso8601"
	"github.com/segmentio/encoding/json"

	"github.com/neomantra/pointline"
	"github.com/neomantra/pointline/query"
)

///////////////////////////////////////////////////////////////////////////////

func (s *Server) scanHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tableName, err := request.RequireString("table")
	if err != nil {
		return mcp.NewToolResultError("table must be set"), nil
	}
	exchange, err := request.RequireString("exchange")
	if err != nil {
		return mcp.NewToolResultError("exchange must be set"), nil
	}
	startStr, err := request.RequireString("start")
	if err != nil {
		return mcp.NewToolResultError("start must be set"), nil
	}
	endStr, err := request.RequireString("end")
	if err != nil {
		return mcp.NewToolResultError("end must be set"), nil
	}

	startTime, err := iso8601.ParseString(startStr)
	if err != nil {
		return mcp.NewToolResultErrorf("invalid start: %s", err), nil
	}
	endTime, err := iso8601.ParseString(endStr)
	if err != nil {
		return mcp.NewToolResultErrorf("invalid end: %s", err), nil
	}

	params := query.Params{
		Exchange:  exchange,
		StartTSUs: startTime.UnixMicro(),
		EndTSUs:   endTime.UnixMicro(),
	}
	if symbolsStr, err := request.RequireString("symbols"); err == nil && symbolsStr != "" {
		params.Symbols = splitCSV(symbolsStr)
	}
	if tsCol, err := request.RequireString("ts_col"); err == nil && tsCol != "" {
		params.TSCol = tsCol
	}
	if columnsStr, err := request.RequireString("columns"); err == nil && columnsStr != "" {
		params.Columns = splitCSV(columnsStr)
	}

	frame, err := query.Scan(s.Events, tableName, params)
	if err != nil {
		return mcp.NewToolResultErrorf("scan failed: %s", err), nil
	}

	jbytes, err := json.Marshal(map[string]any{
		"row_count": frame.NumRows(),
		"columns":   frame.ColumnNames(),
		"rows":      frameToRows(frame),
	})
	if err != nil {
		return mcp.NewToolResultErrorf("failed to marshal result: %s", err), nil
	}

	s.Logger.Info("scan", "table", tableName, "exchange", exchange, "rows", frame.NumRows())
	return mcp.NewToolResultText(string(jbytes)), nil
}

func (s *Server) dqSummaryHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	frame, err := s.Events.Scan("dq_summary", nil)
	if err != nil {
		return mcp.NewToolResultErrorf("dq_summary scan failed: %s", err), nil
	}

	if tableName, err := request.RequireString("table"); err == nil && tableName != "" {
		frame, err = filterByString(frame, "table_name", tableName)
		if err != nil {
			return mcp.NewToolResultErrorf("failed to filter dq_summary: %s", err), nil
		}
	}

	jbytes, err := json.Marshal(map[string]any{
		"row_count": frame.NumRows(),
		"rows":      frameToRows(frame),
	})
	if err != nil {
		return mcp.NewToolResultErrorf("failed to marshal result: %s", err), nil
	}

	s.Logger.Info("dq_summary", "rows", frame.NumRows())
	return mcp.NewToolResultText(string(jbytes)), nil
}

func (s *Server) manifestHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	frame, err := s.Events.Scan("ingest_manifest", nil)
	if err != nil {
		return mcp.NewToolResultErrorf("ingest_manifest scan failed: %s", err), nil
	}

	if vendor, err := request.RequireString("vendor"); err == nil && vendor != "" {
		frame, err = filterByString(frame, "vendor", vendor)
		if err != nil {
			return mcp.NewToolResultErrorf("failed to filter ingest_manifest: %s", err), nil
		}
	}

	jbytes, err := json.Marshal(map[string]any{
		"row_count": frame.NumRows(),
		"rows":      frameToRows(frame),
	})
	if err != nil {
		return mcp.NewToolResultErrorf("failed to marshal result: %s", err), nil
	}

	s.Logger.Info("manifest", "rows", frame.NumRows())
	return mcp.NewToolResultText(string(jbytes)), nil
}

func (s *Server) listTablesHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jbytes, err := json.Marshal(pointline.ListTableSpecs())
	if err != nil {
		return mcp.NewToolResultErrorf("failed to marshal result: %s", err), nil
	}
	return mcp.NewToolResultText(string(jbytes)), nil
}

///////////////////////////////////////////////////////////////////////////////

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// filterByString keeps only rows where column `name` equals `want`.
func filterByString(frame *pointline.Frame, name, want string) (*pointline.Frame, error) {
	col := frame.Column(name)
	if col == nil {
		return frame, nil
	}
	mask := make([]bool, frame.NumRows())
	for i := range mask {
		mask[i] = !col.IsNull(i) && col.Str[i] == want
	}
	return frame.Filter(mask), nil
}
