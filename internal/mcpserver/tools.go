// Copyright (c) 2025 Neomantra Corp

package mcpserver

import (
	"github.com/mark3labs/mcp-go/mcp"
	mcp_server "github.com/mark3labs/mcp-go/server"
)

// RegisterTools registers pointline's MCP tools (scan, dq_summary,
// manifest, list_tables) on mcpServer.
func (s *Server) RegisterTools(mcpServer *mcp_server.MCPServer) {
	mcpServer.AddTool(
		mcp.NewTool("scan",
			mcp.WithDescription("Reads rows from a lakehouse table (trades, quotes, orderbook_updates, ...) within a timestamp range, pruned to the live parquet files covering that range. Returns rows as JSON. This does not incur any billing."),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithDestructiveHintAnnotation(false),
			mcp.WithIdempotentHintAnnotation(true),
			mcp.WithString("table",
				mcp.Required(),
				mcp.Description("Table name, e.g. trades, quotes, orderbook_updates"),
			),
			mcp.WithString("exchange",
				mcp.Required(),
				mcp.Description("Lowercase exchange code to scan, e.g. binance, sse, szse"),
			),
			mcp.WithString("start",
				mcp.Required(),
				mcp.Description("Start of range (inclusive), as ISO 8601 datetime"),
			),
			mcp.WithString("end",
				mcp.Required(),
				mcp.Description("End of range (exclusive), as ISO 8601 datetime"),
			),
			mcp.WithString("symbols",
				mcp.Description("Comma-separated exchange symbols (the table's symbol column) to filter to. If omitted, all symbols for the exchange are returned."),
			),
			mcp.WithString("ts_col",
				mcp.Description("Which timestamp column to filter/order on: ts_event_us (default) or ts_local_us"),
				mcp.Enum("ts_event_us", "ts_local_us"),
			),
			mcp.WithString("columns",
				mcp.Description("Comma-separated column names to project. If omitted, all columns are returned."),
			),
		),
		s.scanHandler,
	)

	mcpServer.AddTool(
		mcp.NewTool("dq_summary",
			mcp.WithDescription("Lists data-quality profiling results (row counts, duplicate counts, freshness lag, status) per table and partition. Use this to check whether a table's data is trustworthy before scanning it. This does not incur any billing."),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithDestructiveHintAnnotation(false),
			mcp.WithIdempotentHintAnnotation(true),
			mcp.WithString("table",
				mcp.Description("Optional table name to filter to. If omitted, every table's summary rows are returned."),
			),
		),
		s.dqSummaryHandler,
	)

	mcpServer.AddTool(
		mcp.NewTool("manifest",
			mcp.WithDescription("Lists the ingest manifest: one row per ingested source file, its vendor, data type, ingest status, and row counts. Use this to check whether a source file was ingested cleanly or quarantined. This does not incur any billing."),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithDestructiveHintAnnotation(false),
			mcp.WithIdempotentHintAnnotation(true),
			mcp.WithString("vendor",
				mcp.Description("Optional vendor name to filter to. If omitted, every vendor's manifest rows are returned."),
			),
		),
		s.manifestHandler,
	)

	mcpServer.AddTool(
		mcp.NewTool("list_tables",
			mcp.WithDescription("Lists every registered table name in the lakehouse's schema registry. This does not incur any billing."),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithDestructiveHintAnnotation(false),
			mcp.WithIdempotentHintAnnotation(true),
		),
		s.listTablesHandler,
	)
}
