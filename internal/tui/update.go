package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/hourlog/internal/logger"
	"github.com/julianstephens/hourlog/internal/storage"
	"github.com/julianstephens/hourlog/internal/tui/components/entrylist"
	"github.com/julianstephens/hourlog/internal/tui/components/summary"
	"github.com/julianstephens/hourlog/internal/tui/forms"
	"github.com/julianstephens/hourlog/internal/validation"
)

// chrome is the number of lines taken by tabs, status and help.
const chrome = 6

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		h := msg.Height - chrome
		if h < 3 {
			h = 3
		}
		m.entryList.SetSize(msg.Width-4, h)
		m.summary.SetSize(msg.Width-4, h-4)
		return m, nil
	}

	switch m.state {
	case StateEditing:
		return m.updateEditing(msg)
	case StateConfirmDelete:
		return m.updateConfirmDelete(msg)
	case StateFilter:
		return m.updateFilter(msg)
	}

	switch msg := msg.(type) {
	case entrylist.AddEntryMsg:
		return m, m.startForm(0, forms.EntryFields{Date: m.today()})

	case entrylist.EditEntryMsg:
		return m, m.startForm(msg.Entry.ID, forms.FromEntry(msg.Entry))

	case entrylist.DeleteEntryMsg:
		m.deleteID = msg.ID
		m.state = StateConfirmDelete
		return m, nil

	case summary.MonthSelectedMsg:
		m.loadSummary(msg.Key)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Tab):
			m.tab = (m.tab + 1) % Tab(len(tabTitles))
			return m, nil
		case key.Matches(msg, m.keys.ShiftTab):
			m.tab = (m.tab - 1 + Tab(len(tabTitles))) % Tab(len(tabTitles))
			return m, nil
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, m.keys.Reload):
			m.reload()
			m.setStatus("Reloaded.")
			return m, nil
		case key.Matches(msg, m.keys.Filter) && m.tab == TabLog:
			m.state = StateFilter
			m.filter.SetValue(m.customer)
			m.filter.CursorEnd()
			return m, tea.Batch(m.filter.Focus(), textinput.Blink)
		}
	}

	var cmd tea.Cmd
	switch m.tab {
	case TabLog:
		m.entryList, cmd = m.entryList.Update(msg)
	case TabSummary:
		m.summary, cmd = m.summary.Update(msg)
	}
	return m, cmd
}

func (m *Model) startForm(id int64, fields forms.EntryFields) tea.Cmd {
	customers, err := m.store.GetDistinctCustomers()
	if err != nil {
		logger.Warn("Failed to load customers for form", "error", err)
	}

	title := "New entry"
	if id != 0 {
		title = fmt.Sprintf("Edit entry %d", id)
	}

	m.editingID = id
	m.entryForm = &fields
	m.form = forms.NewEntryForm(title, m.entryForm, customers)
	m.state = StateEditing
	m.status = ""
	return m.form.Init()
}

func (m Model) updateEditing(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.Type == tea.KeyEsc {
		m.state = StateBrowse
		m.setStatus("Cancelled.")
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.saveForm()
		m.state = StateBrowse
	case huh.StateAborted:
		m.state = StateBrowse
	}
	return m, cmd
}

// saveForm re-validates the form fields and persists them.
func (m *Model) saveForm() {
	res := validation.ValidateEntry(m.entryForm.Candidate())
	if !res.Valid() {
		m.setError(strings.Join(res.Messages(), " "))
		return
	}
	e := res.Entry
	e.Date = validation.DefaultDate(e.Date, m.now())

	if m.editingID == 0 {
		id, err := m.store.AddEntry(e.Date, e.Customer, e.Hours, e.Description)
		if err != nil {
			m.setError(err.Error())
			return
		}
		m.setStatus(fmt.Sprintf("Added entry %d.", id))
	} else {
		err := m.store.UpdateEntry(m.editingID, e.Date, e.Customer, e.Hours, e.Description)
		if errors.Is(err, storage.ErrNotFound) {
			m.setError(fmt.Sprintf("entry %d not found", m.editingID))
			return
		}
		if err != nil {
			m.setError(err.Error())
			return
		}
		m.setStatus(fmt.Sprintf("Updated entry %d.", m.editingID))
	}
	m.reload()
}

func (m Model) updateConfirmDelete(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Confirm):
		if err := m.store.DeleteEntry(m.deleteID); err != nil {
			m.setError(err.Error())
		} else {
			m.setStatus(fmt.Sprintf("Deleted entry %d.", m.deleteID))
			m.reload()
		}
		m.state = StateBrowse
	case key.Matches(keyMsg, m.keys.Cancel):
		m.state = StateBrowse
	}
	return m, nil
}

func (m Model) updateFilter(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.Type {
		case tea.KeyEnter:
			m.customer = strings.TrimSpace(m.filter.Value())
			m.filter.Blur()
			m.state = StateBrowse
			m.reload()
			if m.customer == "" {
				m.setStatus("Filter cleared.")
			} else {
				m.setStatus(fmt.Sprintf("Showing %s.", m.customer))
			}
			return m, nil
		case tea.KeyEsc:
			m.filter.Blur()
			m.state = StateBrowse
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	return m, cmd
}
