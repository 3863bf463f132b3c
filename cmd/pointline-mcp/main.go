// Copyright (c) 2025 Neomantra Corp
//
// This is a Model Context Protocol (MCP) server exposing pointline's
// partition-pruned scan and its data-quality/manifest control tables
// as tools for agentic research access.

package main

import (
	"fmt"
	"log/slog"
	"os"

	mcp_server "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/pflag"

	"github.com/neomantra/pointline/internal/mcpserver"
)

///////////////////////////////////////////////////////////////////////////////

const (
	mcpServerVersion = "0.0.1"

	defaultSSEHostPort = ":8890"

	serverInstructions = `pointline-mcp provides read access to a market-data lakehouse with no billing implications whatsoever — every tool here is free.

Recommended workflow:
1. Use list_tables to discover available tables.
2. Use dq_summary to check whether a table's data is trustworthy (row counts, duplicates, freshness) before scanning it.
3. Use manifest to check whether a source file ingested cleanly or was quarantined.
4. Use scan to read rows from a table within an exchange + timestamp range, with optional symbol and column filters.`
)

type Config struct {
	SilverRoot string

	LogJSON bool

	UseSSE      bool
	SSEHostPort string

	Verbose bool
}

var config Config
var logger *slog.Logger

func main() {
	var showHelp bool
	var logFilename string

	pflag.StringVarP(&config.SilverRoot, "silver-root", "s", "", "Silver lakehouse root directory (or set 'POINTLINE_SILVER_ROOT' envvar)")
	pflag.StringVarP(&logFilename, "log-file", "l", "", "Log file destination (or MCP_LOG_FILE envvar). Default is stderr")
	pflag.BoolVarP(&config.LogJSON, "log-json", "j", false, "Log in JSON (default is plaintext)")
	pflag.StringVarP(&config.SSEHostPort, "port", "p", "", "host:port to listen to SSE connections")
	pflag.BoolVarP(&config.UseSSE, "sse", "", false, "Use SSE Transport (default is STDIO transport)")
	pflag.BoolVarP(&config.Verbose, "verbose", "v", false, "Verbose logging")
	pflag.BoolVarP(&showHelp, "help", "h", false, "Show help")
	pflag.Parse()

	if showHelp {
		fmt.Fprintf(os.Stdout, "usage: %s -s <silver_root> [opts]\n\n", os.Args[0])
		pflag.PrintDefaults()
		os.Exit(0)
	}

	if config.SilverRoot == "" {
		config.SilverRoot = os.Getenv("POINTLINE_SILVER_ROOT")
		if config.SilverRoot == "" {
			fmt.Fprintf(os.Stderr, "missing silver root, use --silver-root or set POINTLINE_SILVER_ROOT envvar\n")
			os.Exit(1)
		}
	}
	if config.SSEHostPort == "" {
		config.SSEHostPort = defaultSSEHostPort
	}

	logWriter := os.Stderr
	if logFilename == "" {
		logFilename = os.Getenv("MCP_LOG_FILE")
	}
	if logFilename != "" {
		logFile, err := os.OpenFile(logFilename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open log file: %s\n", err.Error())
			os.Exit(1)
		}
		logWriter = logFile
		defer logFile.Close()
	}

	logLevel := slog.LevelInfo
	if config.Verbose {
		logLevel = slog.LevelDebug
	}
	if config.LogJSON {
		logger = slog.New(slog.NewJSONHandler(logWriter, &slog.HandlerOptions{Level: logLevel}))
	} else {
		logger = slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{Level: logLevel}))
	}

	if err := run(); err != nil {
		logger.Error("run loop error", "error", err.Error())
		os.Exit(1)
	}
}

func run() error {
	mcpServer := mcp_server.NewMCPServer("pointline-mcp", mcpServerVersion,
		mcp_server.WithRecovery(),
		mcp_server.WithInstructions(serverInstructions),
	)

	srv := mcpserver.NewServer(config.SilverRoot, logger)
	srv.RegisterTools(mcpServer)

	if config.UseSSE {
		sseServer := mcp_server.NewSSEServer(mcpServer)
		logger.Info("MCP SSE server started", "hostPort", config.SSEHostPort)
		if err := sseServer.Start(config.SSEHostPort); err != nil {
			return fmt.Errorf("MCP SSE server error: %w", err)
		}
	} else {
		logger.Info("MCP STDIO server started")
		if err := mcp_server.ServeStdio(mcpServer); err != nil {
			return fmt.Errorf("MCP STDIO server error: %w", err)
		}
	}

	return nil
}
