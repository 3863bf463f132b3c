// Copyright (c) 2025 Neomantra Corp

package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/neomantra/pointline/storage"
)

// ManifestPageModel browses the ingest_manifest ledger (§4.D).
type ManifestPageModel struct {
	events    *storage.EventStore
	lastError error

	table  table.Model
	width  int
	height int
}

func NewManifestPage(events *storage.EventStore) ManifestPageModel {
	tbl := table.New(table.WithColumns([]table.Column{
		{Title: "File ID", Width: 8},
		{Title: "Vendor", Width: 14},
		{Title: "Data Type", Width: 18},
		{Title: "Status", Width: 10},
		{Title: "Rows Written", Width: 14},
		{Title: "Quarantined", Width: 12},
		{Title: "Reason", Width: 24},
	}), table.WithStyles(nimbleTableStyles),
		table.WithFocused(true))

	return ManifestPageModel{
		events: events,
		table:  tbl,
		width:  20,
		height: 10,
	}
}

// Init handles the initialization of a ManifestPageModel
func (m ManifestPageModel) Init() tea.Cmd {
	return loadManifest(m.events)
}

// Update handles BubbleTea messages for the ManifestPageModel
func (m ManifestPageModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetWidth(msg.Width - 2)
		m.table.SetHeight(msg.Height - 4)

	case ManifestMsg:
		m.lastError = msg.Error
		var rows []table.Row
		for _, r := range msg.Rows {
			rows = append(rows, table.Row{
				niceInt(r.FileID), r.Vendor, r.DataType, r.Status,
				niceInt(r.RowsWritten), niceInt(r.RowsQuarantined), r.StatusReason,
			})
		}
		m.table.SetRows(rows)

	case refreshRequestMsg:
		return m, loadManifest(m.events)

	default:
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the ManifestPageModel's view.
func (m ManifestPageModel) View() string {
	var pane string
	if m.lastError == nil {
		pane = m.table.View()
	} else {
		pane = lipgloss.NewStyle().Width(m.table.Width()).Render(
			fmt.Sprintf("Error: %s", m.lastError.Error()))
	}
	return nimbleBorderStyle.Render(pane)
}

//////////////////////////////////////////////////////////////////////////////

// manifestRow is one ingest_manifest record, projected for display.
type manifestRow struct {
	FileID          int64
	Vendor          string
	DataType        string
	Status          string
	RowsWritten     int64
	RowsQuarantined int64
	StatusReason    string
}

type ManifestMsg struct {
	Rows  []manifestRow
	Error error
}

// refreshRequestMsg asks a page to reload its data from storage; sent
// by VacuumPage after a run so Manifest/DQ pages reflect it without a
// full TUI restart.
type refreshRequestMsg struct{}

func loadManifest(events *storage.EventStore) tea.Cmd {
	return func() tea.Msg {
		frame, err := events.Scan("ingest_manifest", nil)
		if err != nil {
			return ManifestMsg{Error: err}
		}
		fileID := frame.Column("file_id")
		vendor := frame.Column("vendor")
		dataType := frame.Column("data_type")
		status := frame.Column("status")
		rowsWritten := frame.Column("rows_written")
		rowsQuarantined := frame.Column("rows_quarantined")
		statusReason := frame.Column("status_reason")

		rows := make([]manifestRow, frame.NumRows())
		for i := 0; i < frame.NumRows(); i++ {
			r := manifestRow{
				FileID:   fileID.I64[i],
				Vendor:   vendor.Str[i],
				DataType: dataType.Str[i],
				Status:   status.Str[i],
			}
			if !rowsWritten.IsNull(i) {
				r.RowsWritten = rowsWritten.I64[i]
			}
			if !rowsQuarantined.IsNull(i) {
				r.RowsQuarantined = rowsQuarantined.I64[i]
			}
			if !statusReason.IsNull(i) {
				r.StatusReason = statusReason.Str[i]
			}
			rows[i] = r
		}
		return ManifestMsg{Rows: rows}
	}
}
