// Copyright (c) 2025 Neomantra Corp

// Package mcpserver exposes the lakehouse's query front-end (§4.I) and
// its dq_summary/ingest_manifest control tables as Model Context
// Protocol tools for agentic research access, via a Server/
// RegisterTools split.
package mcpserver

import (
	"log/slog"

	"github.com/neomantra/pointline/storage"
)

// Server holds shared state for pointline's MCP tool handlers.
type Server struct {
	Events *storage.EventStore
	Logger *slog.Logger
}

// NewServer builds a Server reading from the silver lakehouse rooted at
// silverRoot.
func NewServer(silverRoot string, logger *slog.Logger) *Server {
	return &Server{
		Events: storage.NewEventStore(silverRoot),
		Logger: logger,
	}
}
