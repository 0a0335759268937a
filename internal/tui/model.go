package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/hourlog/internal/constants"
	"github.com/julianstephens/hourlog/internal/models"
	"github.com/julianstephens/hourlog/internal/storage"
	"github.com/julianstephens/hourlog/internal/tui/components/entrylist"
	"github.com/julianstephens/hourlog/internal/tui/components/summary"
	"github.com/julianstephens/hourlog/internal/tui/forms"
)

type Tab int

const (
	TabLog Tab = iota
	TabSummary
)

var tabTitles = []string{"Log", "Summary"}

type SessionState int

const (
	StateBrowse SessionState = iota
	StateEditing
	StateConfirmDelete
	StateFilter
)

type Model struct {
	store     storage.Provider
	keys      KeyMap
	help      help.Model
	tab       Tab
	state     SessionState
	entryList entrylist.Model
	summary   summary.Model
	filter    textinput.Model
	customer  string // applied customer filter

	form        *huh.Form
	entryForm   *forms.EntryFields
	editingID   int64 // 0 while adding
	deleteID    int64
	status      string
	statusIsErr bool

	quitting bool
	width    int
	height   int
	now      func() time.Time
}

func NewModel(store storage.Provider) Model {
	ti := textinput.New()
	ti.Placeholder = "customer (blank clears)"
	ti.Prompt = "/ "
	ti.ShowSuggestions = true
	ti.CharLimit = 120

	m := Model{
		store:     store,
		keys:      DefaultKeyMap(),
		help:      help.New(),
		entryList: entrylist.New(nil, 0, 0),
		summary:   summary.New(0, 0),
		filter:    ti,
		now:       time.Now,
	}
	m.reload()
	return m
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) today() string {
	return m.now().Format(constants.DateFormat)
}

// reload refreshes both tabs from the store.
func (m *Model) reload() {
	entries, err := m.store.GetEntries(models.EntryFilter{Customer: m.customer})
	if err != nil {
		m.setError(err.Error())
		return
	}
	m.entryList.SetEntries(entries)

	if customers, err := m.store.GetDistinctCustomers(); err == nil {
		m.filter.SetSuggestions(customers)
	}

	months, err := m.store.GetMonths()
	if err != nil {
		m.setError(err.Error())
		return
	}
	m.summary.SetMonths(months)
	m.loadSummary(m.summary.MonthKey())
}

func (m *Model) loadSummary(monthKey string) {
	if monthKey == "" {
		m.summary.SetTotals(nil)
		return
	}
	totals, err := m.store.GetMonthlySummary(monthKey)
	if err != nil {
		m.setError(err.Error())
		return
	}
	m.summary.SetTotals(totals)
}

func (m *Model) setStatus(msg string) {
	m.status = msg
	m.statusIsErr = false
}

func (m *Model) setError(msg string) {
	m.status = msg
	m.statusIsErr = true
}

func (m Model) ShortHelp() []key.Binding {
	keys := []key.Binding{m.keys.Tab, m.keys.Quit, m.keys.Help}
	switch m.tab {
	case TabLog:
		keys = append(keys, m.keys.Add, m.keys.Edit, m.keys.Delete, m.keys.Filter)
	case TabSummary:
		keys = append(keys, m.keys.Prev, m.keys.Next)
	}
	return keys
}

func (m Model) FullHelp() [][]key.Binding {
	global := []key.Binding{m.keys.Tab, m.keys.ShiftTab, m.keys.Reload, m.keys.Quit, m.keys.Help}
	navigation := []key.Binding{m.keys.Up, m.keys.Down, m.keys.Prev, m.keys.Next}

	var actions []key.Binding
	if m.tab == TabLog {
		actions = []key.Binding{m.keys.Add, m.keys.Edit, m.keys.Delete, m.keys.Filter}
	}
	return [][]key.Binding{global, navigation, actions}
}
