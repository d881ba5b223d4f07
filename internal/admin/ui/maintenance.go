package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/karhula/forumdb/internal/admin/app"
)

type maintenanceModel struct {
	app *app.App

	width  int
	height int

	Done bool

	list   list.Model
	form   *huh.Form
	err    error
	status string

	pending string
	confirm bool
}

type maintItem struct {
	title string
	desc  string
	kind  string
}

func (i maintItem) Title() string       { return i.title }
func (i maintItem) Description() string { return i.desc }
func (i maintItem) FilterValue() string { return i.title }

func newMaintenanceModel(a *app.App) *maintenanceModel {
	m := &maintenanceModel{app: a}
	m.reload()
	return m
}

func (m *maintenanceModel) SetSize(w, h int) {
	m.width, m.height = w, h
	m.list.SetSize(w, h-4)
}

func (m *maintenanceModel) reload() {
	items := []list.Item{
		maintItem{title: "Seed sample data", desc: "Insert the built-in sample users and messages", kind: "seed"},
		maintItem{title: "Purge all records", desc: "Delete every message and user, keep the schema", kind: "purge"},
		maintItem{title: "Back", desc: "Return to the main menu", kind: "back"},
	}
	m.list = list.New(items, list.NewDefaultDelegate(), m.width, m.height-4)
	m.list.SetShowStatusBar(false)
	m.list.SetFilteringEnabled(false)
	m.list.SetShowHelp(true)
	m.list.Title = "Maintenance"
}

func (m *maintenanceModel) Update(msg tea.Msg) tea.Cmd {
	if m.err != nil {
		switch msg := msg.(type) {
		case tea.KeyMsg:
			if msg.String() == "esc" || msg.String() == "q" || msg.String() == "enter" {
				m.err = nil
				m.form = nil
				m.reload()
			}
		}
		return nil
	}

	if m.form != nil {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc":
			m.Done = true
			return nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "enter" {
			it, ok := m.list.SelectedItem().(maintItem)
			if !ok {
				return cmd
			}
			switch it.kind {
			case "back":
				m.Done = true
			case "seed", "purge":
				m.pending = it.kind
				m.confirm = false
				title := "Seed the database with sample data?"
				if it.kind == "purge" {
					title = "Purge ALL messages and users?"
				}
				m.form = huh.NewForm(
					huh.NewGroup(
						huh.NewConfirm().Title(title).Value(&m.confirm),
					),
				)
			}
			return nil
		}
	}

	return cmd
}

func (m *maintenanceModel) updateForm(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "esc" {
			m.form = nil
			return nil
		}
	}

	var cmd tea.Cmd
	updated, cmd := m.form.Update(msg)
	f, ok := updated.(*huh.Form)
	if !ok {
		m.err = fmt.Errorf("internal error: unexpected form model type")
		return nil
	}
	m.form = f
	if m.form.State != huh.StateCompleted {
		return cmd
	}

	if m.confirm {
		var err error
		switch m.pending {
		case "seed":
			err = m.app.Store.Seed()
			m.status = "Sample data seeded."
		case "purge":
			err = m.app.Store.PurgeAll()
			m.status = "All records purged."
		}
		if err != nil {
			m.err = err
			m.status = ""
			return nil
		}
	}
	m.form = nil
	return nil
}

func (m *maintenanceModel) View() string {
	if m.err != nil {
		return fmt.Sprintf("Maintenance error: %v\n\nPress Enter/Esc to go back.", m.err)
	}
	if m.form != nil {
		return m.form.View() + "\n\n(esc to cancel)"
	}

	fk := "unknown"
	if on, err := m.app.Store.ForeignKeysEnabled(); err == nil {
		if on {
			fk = "ON"
		} else {
			fk = "OFF"
		}
	}

	header := fmt.Sprintf("Database: %s\nForeign keys: %s\n", m.app.DBPath, fk)
	if m.status != "" {
		header += m.status + "\n"
	}
	return header + "\n" + m.list.View() + "\n(q to go back)"
}
