// Copyright (c) 2025 Neomantra Corp

package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/valyala/fastjson"

	"github.com/neomantra/pointline/storage"
)

// DQPageModel browses the dq_summary ledger (§4.H).
type DQPageModel struct {
	events    *storage.EventStore
	lastError error

	table  table.Model
	width  int
	height int
}

func NewDQPage(events *storage.EventStore) DQPageModel {
	tbl := table.New(table.WithColumns([]table.Column{
		{Title: "Table", Width: 20},
		{Title: "Partition", Width: 24},
		{Title: "Rows", Width: 10},
		{Title: "Dupes", Width: 8},
		{Title: "Issues", Width: 8},
		{Title: "Status", Width: 8},
		{Title: "Freshness (s)", Width: 14},
	}), table.WithStyles(nimbleTableStyles),
		table.WithFocused(true))

	return DQPageModel{
		events: events,
		table:  tbl,
		width:  20,
		height: 10,
	}
}

// Init handles the initialization of a DQPageModel
func (m DQPageModel) Init() tea.Cmd {
	return loadDQSummary(m.events)
}

// Update handles BubbleTea messages for the DQPageModel
func (m DQPageModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetWidth(msg.Width - 2)
		m.table.SetHeight(msg.Height - 4)

	case DQSummaryMsg:
		m.lastError = msg.Error
		var rows []table.Row
		for _, r := range msg.Rows {
			status := r.Status
			if status == "failed" {
				status = lipgloss.NewStyle().Foreground(colorRed).Render(status)
			} else {
				status = lipgloss.NewStyle().Foreground(colorGreen).Render(status)
			}
			partition := r.PartitionKey
			if partition == "" {
				partition = "(rollup)"
			}
			rows = append(rows, table.Row{
				r.TableName, partition, niceInt(r.RowCount), niceInt(r.DuplicateRows),
				niceInt(r.IssueCount), status, niceInt(r.FreshnessLagSec),
			})
		}
		m.table.SetRows(rows)

	case refreshRequestMsg:
		return m, loadDQSummary(m.events)

	default:
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the DQPageModel's view.
func (m DQPageModel) View() string {
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

type dqSummaryRow struct {
	TableName       string
	PartitionKey    string
	RowCount        int64
	DuplicateRows   int64
	IssueCount      int64
	Status          string
	FreshnessLagSec int64
}

// sumIssueCounts totals issue_counts_json's integer values with a
// scan-only parse, skipping the allocation-heavy round trip through
// encoding/json into a map[string]int64 — this column is only ever
// summed for display, never read back field-by-field.
func sumIssueCounts(raw string) int64 {
	if raw == "" {
		return 0
	}
	v, err := fastjson.Parse(raw)
	if err != nil {
		return 0
	}
	obj, err := v.Object()
	if err != nil {
		return 0
	}
	var total int64
	obj.Visit(func(_ []byte, v *fastjson.Value) {
		total += v.GetInt64()
	})
	return total
}

type DQSummaryMsg struct {
	Rows  []dqSummaryRow
	Error error
}

func loadDQSummary(events *storage.EventStore) tea.Cmd {
	return func() tea.Msg {
		frame, err := events.Scan("dq_summary", nil)
		if err != nil {
			return DQSummaryMsg{Error: err}
		}
		tableName := frame.Column("table_name")
		partitionKey := frame.Column("partition_key")
		rowCount := frame.Column("row_count")
		dupRows := frame.Column("duplicate_rows")
		status := frame.Column("status")
		freshness := frame.Column("freshness_lag_sec")
		issueJSON := frame.Column("issue_counts_json")

		rows := make([]dqSummaryRow, frame.NumRows())
		for i := 0; i < frame.NumRows(); i++ {
			r := dqSummaryRow{
				TableName:     tableName.Str[i],
				RowCount:      rowCount.I64[i],
				DuplicateRows: dupRows.I64[i],
				Status:        status.Str[i],
			}
			if !partitionKey.IsNull(i) {
				r.PartitionKey = partitionKey.Str[i]
			}
			if !freshness.IsNull(i) {
				r.FreshnessLagSec = freshness.I64[i]
			}
			if issueJSON != nil && !issueJSON.IsNull(i) {
				r.IssueCount = sumIssueCounts(issueJSON.Str[i])
			}
			rows[i] = r
		}
		return DQSummaryMsg{Rows: rows}
	}
}
