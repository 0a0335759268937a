package entrylist

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/hourlog/internal/models"
	"github.com/julianstephens/hourlog/internal/report"
)

type AddEntryMsg struct{}

type EditEntryMsg struct {
	Entry models.Entry
}

type DeleteEntryMsg struct {
	ID int64
}

var footerStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("241")).
	PaddingTop(1)

type KeyMap struct {
	Add    key.Binding
	Edit   key.Binding
	Delete key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e", "enter"),
			key.WithHelp("e", "edit"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
	}
}

type Model struct {
	table   table.Model
	keys    KeyMap
	entries []models.Entry
}

func columns(width int) []table.Column {
	desc := width - 6 - 12 - 20 - 7 - 10
	if desc < 20 {
		desc = 20
	}
	return []table.Column{
		{Title: "ID", Width: 6},
		{Title: "Date", Width: 12},
		{Title: "Customer", Width: 20},
		{Title: "Hours", Width: 7},
		{Title: "Description", Width: desc},
	}
}

func New(entries []models.Entry, width, height int) Model {
	// "d" belongs to delete; keep half-page scrolling on ctrl+d only.
	km := table.DefaultKeyMap()
	km.HalfPageDown = key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "½ page down"))

	t := table.New(
		table.WithColumns(columns(width)),
		table.WithFocused(true),
		table.WithKeyMap(km),
	)
	if height > 0 {
		t.SetHeight(height)
	}

	m := Model{table: t, keys: DefaultKeyMap()}
	m.SetEntries(entries)
	return m
}

// SetEntries replaces the rows. Entries are shown in the order given.
func (m *Model) SetEntries(entries []models.Entry) {
	m.entries = entries
	rows := make([]table.Row, len(entries))
	for i, e := range entries {
		rows[i] = table.Row{
			strconv.FormatInt(e.ID, 10),
			e.Date,
			e.Customer,
			report.FormatHours(e.Hours),
			e.Description,
		}
	}
	m.table.SetRows(rows)
	if c := m.table.Cursor(); c >= len(rows) && len(rows) > 0 {
		m.table.SetCursor(len(rows) - 1)
	}
}

// Selected returns the entry under the cursor.
func (m Model) Selected() (models.Entry, bool) {
	c := m.table.Cursor()
	if c < 0 || c >= len(m.entries) {
		return models.Entry{}, false
	}
	return m.entries[c], true
}

func (m Model) Keys() KeyMap {
	return m.keys
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Add):
			return m, func() tea.Msg { return AddEntryMsg{} }
		case key.Matches(msg, m.keys.Edit):
			if e, ok := m.Selected(); ok {
				return m, func() tea.Msg { return EditEntryMsg{Entry: e} }
			}
			return m, nil
		case key.Matches(msg, m.keys.Delete):
			if e, ok := m.Selected(); ok {
				return m, func() tea.Msg { return DeleteEntryMsg{ID: e.ID} }
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if len(m.entries) == 0 {
		return "\n  No entries found.\n  Press 'a' to add one."
	}
	footer := footerStyle.Render(fmt.Sprintf("%d entries   Total: %sh", len(m.entries), report.FormatHours(report.TotalHours(m.entries))))
	return lipgloss.JoinVertical(lipgloss.Left, m.table.View(), footer)
}

func (m *Model) SetSize(width, height int) {
	m.table.SetColumns(columns(width))
	m.table.SetWidth(width)
	m.table.SetHeight(height)
}
