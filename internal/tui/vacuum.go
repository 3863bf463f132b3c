// Copyright (c) 2025 Neomantra Corp

package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/neomantra/pointline"
	"github.com/neomantra/pointline/storage"
)

// VacuumPageModel drives vacuum_table (§4.G) behind a confirmation gate,
// a human-in-the-loop pattern for a destructive, hard-to-reverse operation.
type VacuumPageModel struct {
	events *storage.EventStore

	form       *huh.Form
	tableName  string
	full       bool
	confirmed  bool
	running    bool
	lastReport *pointline.VacuumReport
	lastError  error
}

func NewVacuumPage(events *storage.EventStore) VacuumPageModel {
	m := VacuumPageModel{events: events}
	m.form = m.newForm()
	return m
}

func (m *VacuumPageModel) newForm() *huh.Form {
	m.tableName = ""
	m.full = false
	m.confirmed = false
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Table to vacuum").
				Options(huh.NewOptions(pointline.ListTableSpecs()...)...).
				Value(&m.tableName),
			huh.NewConfirm().
				Affirmative("Full (ignore retention)").
				Negative("Retention-gated").
				Title("Vacuum every tombstoned file regardless of age?").
				Value(&m.full),
			huh.NewConfirm().
				Affirmative("Yes, vacuum").
				Negative("No, cancel").
				Title("This permanently deletes stale parquet files. Continue?").
				Value(&m.confirmed),
		),
	)
}

// Init handles the initialization of a VacuumPageModel
func (m VacuumPageModel) Init() tea.Cmd {
	return m.form.Init()
}

// Update handles BubbleTea messages for the VacuumPageModel
func (m VacuumPageModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m, nil

	case vacuumDoneMsg:
		m.running = false
		m.lastReport = msg.Report
		m.lastError = msg.Error
		m.form = m.newForm()
		return m, tea.Batch(m.form.Init(), func() tea.Msg { return refreshRequestMsg{} })
	}

	if m.running {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		if !m.confirmed {
			m.form = m.newForm()
			return m, m.form.Init()
		}
		m.running = true
		tableName, full := m.tableName, m.full
		return m, vacuumCmd(m.events, tableName, full)
	}
	return m, cmd
}

// View renders the VacuumPageModel's view.
func (m VacuumPageModel) View() string {
	var pane string
	switch {
	case m.running:
		pane = "Vacuuming..."
	case m.lastError != nil:
		pane = lipgloss.NewStyle().Foreground(colorRed).Render(
			fmt.Sprintf("Error: %s", m.lastError.Error()))
	case m.lastReport != nil:
		pane = lipgloss.NewStyle().Foreground(colorGreen).Render(
			fmt.Sprintf("Vacuumed %s: deleted %d file(s)",
				m.lastReport.TableName, m.lastReport.DeletedCount)) + "\n\n" + m.form.View()
	default:
		pane = m.form.View()
	}
	return nimbleBorderStyle.Render(pane)
}

//////////////////////////////////////////////////////////////////////////////

type vacuumDoneMsg struct {
	Report *pointline.VacuumReport
	Error  error
}

func vacuumCmd(events *storage.EventStore, tableName string, full bool) tea.Cmd {
	return func() tea.Msg {
		report, err := storage.VacuumTable(events, tableName, nil, false, !full, full)
		return vacuumDoneMsg{Report: report, Error: err}
	}
}
