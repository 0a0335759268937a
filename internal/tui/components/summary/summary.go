package summary

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/hourlog/internal/models"
	"github.com/julianstephens/hourlog/internal/report"
)

// MonthSelectedMsg asks the parent to load totals for Key.
type MonthSelectedMsg struct {
	Key string
}

var (
	monthStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	totalStyle = lipgloss.NewStyle().
			Bold(true).
			PaddingTop(1)
)

type KeyMap struct {
	Prev key.Binding
	Next key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Prev: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "newer month"),
		),
		Next: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "older month"),
		),
	}
}

type Model struct {
	table  table.Model
	keys   KeyMap
	months []models.Month
	idx    int
	totals []models.CustomerTotal
}

func New(width, height int) Model {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Customer", Width: 30},
			{Title: "Hours", Width: 10},
		}),
	)
	if height > 0 {
		t.SetHeight(height)
	}
	return Model{table: t, keys: DefaultKeyMap()}
}

// SetMonths replaces the month list, keeping the selected month when it is
// still present.
func (m *Model) SetMonths(months []models.Month) {
	current := m.MonthKey()
	m.months = months
	m.idx = 0
	for i, mo := range months {
		if mo.Key == current {
			m.idx = i
			break
		}
	}
}

// MonthKey is the selected month, or "" when there are no months.
func (m Model) MonthKey() string {
	if m.idx < 0 || m.idx >= len(m.months) {
		return ""
	}
	return m.months[m.idx].Key
}

func (m *Model) SetTotals(totals []models.CustomerTotal) {
	m.totals = totals
	rows := make([]table.Row, len(totals))
	for i, t := range totals {
		rows[i] = table.Row{t.Customer, report.FormatHours(t.Hours)}
	}
	m.table.SetRows(rows)
}

func (m Model) Keys() KeyMap {
	return m.keys
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && len(m.months) > 0 {
		switch {
		case key.Matches(msg, m.keys.Prev):
			if m.idx > 0 {
				m.idx--
				k := m.MonthKey()
				return m, func() tea.Msg { return MonthSelectedMsg{Key: k} }
			}
			return m, nil
		case key.Matches(msg, m.keys.Next):
			if m.idx < len(m.months)-1 {
				m.idx++
				k := m.MonthKey()
				return m, func() tea.Msg { return MonthSelectedMsg{Key: k} }
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if len(m.months) == 0 {
		return "\n  No entries yet."
	}

	header := fmt.Sprintf("%s  %s",
		monthStyle.Render(m.months[m.idx].Label),
		hintStyle.Render(fmt.Sprintf("(%d of %d)", m.idx+1, len(m.months))),
	)
	total := totalStyle.Render(fmt.Sprintf("Total: %sh", report.FormatHours(report.SumTotals(m.totals))))
	return lipgloss.JoinVertical(lipgloss.Left, header, "", m.table.View(), total)
}

func (m *Model) SetSize(width, height int) {
	m.table.SetWidth(width)
	m.table.SetHeight(height)
}
