package web

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/julianstephens/hourlog/internal/constants"
	"github.com/julianstephens/hourlog/internal/logger"
	"github.com/julianstephens/hourlog/internal/models"
	"github.com/julianstephens/hourlog/internal/report"
	"github.com/julianstephens/hourlog/internal/storage"
	"github.com/julianstephens/hourlog/internal/storage/sqlstore"
	"github.com/julianstephens/hourlog/internal/transfer"
	"github.com/julianstephens/hourlog/internal/validation"
)

const maxUploadBytes = 10 << 20

type importResult struct {
	Imported  int
	Skipped   int
	RowErrors []string
}

// pageData is the view model shared by every template.
type pageData struct {
	Title   string
	Active  string
	Flashes []Flash
	Errors  []string

	Today      string
	Customers  []string
	Form       models.Candidate
	FormAction string
	EntryID    int64

	ExtractText string

	Filter  models.EntryFilter
	Entries []models.Entry
	Total   float64

	Months     []models.Month
	Month      string
	MonthLabel string
	Totals     []models.CustomerTotal

	Managed []models.Customer
	Import  *importResult
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, page string, data *pageData) {
	data.Flashes = popFlashes(w, r)
	if data.Today == "" {
		data.Today = s.now().Format(constants.DateFormat)
	}

	var buf bytes.Buffer
	if err := s.templates[page].ExecuteTemplate(&buf, "base", data); err != nil {
		s.serverError(w, r, fmt.Errorf("failed to render %s: %w", page, err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	logger.Error("Request failed", "request_id", RequestID(r.Context()), "path", r.URL.Path, "error", err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

func redirect(w http.ResponseWriter, r *http.Request, target string) {
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func candidateFromForm(r *http.Request) models.Candidate {
	return models.Candidate{
		Date:        r.PostFormValue("date"),
		Customer:    r.PostFormValue("customer"),
		Hours:       r.PostFormValue("hours"),
		Description: r.PostFormValue("description"),
	}
}

// customerOptions lists managed customers first, then every other name seen
// on entries.
func (s *Server) customerOptions() ([]string, error) {
	managed, err := s.store.GetManagedCustomers()
	if err != nil {
		return nil, err
	}
	distinct, err := s.store.GetDistinctCustomers()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(managed))
	names := make([]string, 0, len(managed)+len(distinct))
	for _, c := range managed {
		seen[c.Name] = true
		names = append(names, c.Name)
	}
	for _, name := range distinct {
		if !seen[name] {
			names = append(names, name)
		}
	}
	return names, nil
}

func (s *Server) renderEntryForm(w http.ResponseWriter, r *http.Request, status int, data *pageData) {
	customers, err := s.customerOptions()
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	data.Customers = customers
	if data.EntryID != 0 {
		data.Title, data.Active = "Edit entry", "log"
		data.FormAction = fmt.Sprintf("/entry/%d/edit", data.EntryID)
		s.render(w, r, status, "edit", data)
		return
	}
	data.Title, data.Active = "Add entry", "add"
	data.FormAction = "/add"
	s.render(w, r, status, "add", data)
}

func (s *Server) handleAddForm(w http.ResponseWriter, r *http.Request) {
	s.renderEntryForm(w, r, http.StatusOK, &pageData{})
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	cand := candidateFromForm(r)
	res := validation.ValidateEntry(cand)
	if !res.Valid() {
		s.renderEntryForm(w, r, http.StatusUnprocessableEntity, &pageData{Form: cand, Errors: res.Messages()})
		return
	}

	e := res.Entry
	e.Date = validation.DefaultDate(e.Date, s.now())
	id, err := s.store.AddEntry(e.Date, e.Customer, e.Hours, e.Description)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	logger.Debug("Entry added", "id", id, "request_id", RequestID(r.Context()))

	addFlash(w, r, "success", "Entry added.")
	redirect(w, r, "/add")
}

// handleExtract pre-fills the add form from free text. Nothing is stored.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	text := strings.TrimSpace(r.PostFormValue("text"))
	data := &pageData{ExtractText: text}
	if text == "" {
		data.Errors = []string{"Describe the work to extract an entry."}
		s.renderEntryForm(w, r, http.StatusUnprocessableEntity, data)
		return
	}
	if s.extract == nil {
		data.Errors = []string{"Extraction is not configured."}
		s.renderEntryForm(w, r, http.StatusServiceUnavailable, data)
		return
	}

	customers, err := storage.ManagedNames(s.store)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	cand, err := s.extract(r.Context(), text, customers, s.now())
	if err != nil {
		logger.Warn("Extraction failed", "request_id", RequestID(r.Context()), "error", err)
		data.Errors = []string{err.Error()}
		s.renderEntryForm(w, r, http.StatusUnprocessableEntity, data)
		return
	}

	cand.Date = validation.DefaultDate(cand.Date, s.now())
	data.Form = cand
	s.renderEntryForm(w, r, http.StatusOK, data)
}

func (s *Server) handleLog(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.EntryFilter{
		From:     strings.TrimSpace(q.Get("date_from")),
		To:       strings.TrimSpace(q.Get("date_to")),
		Customer: strings.TrimSpace(q.Get("customer")),
	}

	data := &pageData{Title: "Log", Active: "log", Filter: filter}
	for _, d := range []string{filter.From, filter.To} {
		if d != "" && !validation.IsDate(d) {
			data.Errors = append(data.Errors, validation.MsgDateBadFormat)
		}
	}
	if len(data.Errors) > 0 {
		data.Filter.From, data.Filter.To = "", ""
		filter = data.Filter
	}

	entries, err := s.store.GetEntries(filter)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	customers, err := s.store.GetDistinctCustomers()
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	data.Entries = entries
	data.Total = report.TotalHours(entries)
	data.Customers = customers
	s.render(w, r, http.StatusOK, "log", data)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	month := strings.TrimSpace(r.URL.Query().Get("month"))
	data := &pageData{Title: "Summary", Active: "summary"}
	if month != "" && !validation.IsMonth(month) {
		data.Errors = []string{"Month must be in YYYY-MM format."}
		month = ""
	}
	if month == "" {
		month = s.now().Format(constants.MonthFormat)
	}

	months, err := s.store.GetMonths()
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	totals, err := s.store.GetMonthlySummary(month)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	data.Months = months
	data.Month = month
	data.MonthLabel = sqlstore.MonthLabel(month)
	data.Totals = totals
	data.Total = report.SumTotals(totals)
	s.render(w, r, http.StatusOK, "summary", data)
}

func (s *Server) handleExportForm(w http.ResponseWriter, r *http.Request) {
	customers, err := s.store.GetDistinctCustomers()
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "export", &pageData{Title: "Export", Active: "export", Customers: customers})
}

// exportFilename appends .csv when missing and falls back to the default
// name. Quotes and path separators are dropped so the header stays valid.
func exportFilename(raw string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '"', '/', '\\', '\r', '\n':
			return -1
		}
		return r
	}, strings.TrimSpace(raw))
	if name == "" {
		name = constants.DefaultExportName
	}
	if !strings.HasSuffix(name, ".csv") {
		name += ".csv"
	}
	return name
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	filter := models.EntryFilter{
		From:     strings.TrimSpace(r.PostFormValue("date_from")),
		To:       strings.TrimSpace(r.PostFormValue("date_to")),
		Customer: strings.TrimSpace(r.PostFormValue("customer")),
	}
	entries, err := s.store.GetEntries(filter)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	body, err := transfer.Serialize(entries)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename="+exportFilename(r.PostFormValue("filename")))
	_, _ = io.WriteString(w, body)
}

func (s *Server) handleImportForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "import", &pageData{Title: "Import", Active: "import"})
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	data := &pageData{Title: "Import", Active: "import"}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, _, err := r.FormFile("file")
	if err != nil {
		data.Errors = []string{"Choose a CSV file to import."}
		s.render(w, r, http.StatusUnprocessableEntity, "import", data)
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		data.Errors = []string{"Could not read the uploaded file."}
		s.render(w, r, http.StatusUnprocessableEntity, "import", data)
		return
	}

	rows, rowErrors := transfer.Parse(transfer.StripBOM(raw))
	result := &importResult{RowErrors: rowErrors}
	if len(rows) > 0 {
		result.Imported, result.Skipped, err = s.store.ImportEntries(rows)
		if err != nil {
			s.serverError(w, r, err)
			return
		}
	}
	logger.Info("Imported entries", "request_id", RequestID(r.Context()),
		"imported", result.Imported, "skipped", result.Skipped, "rejected", len(rowErrors))

	data.Import = result
	s.render(w, r, http.StatusOK, "import", data)
}

func (s *Server) handleCustomers(w http.ResponseWriter, r *http.Request) {
	managed, err := s.store.GetManagedCustomers()
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "customers", &pageData{Title: "Customers", Active: "customers", Managed: managed})
}

func (s *Server) handleAddCustomer(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.PostFormValue("name"))
	if name == "" {
		addFlash(w, r, "error", "Customer name cannot be empty.")
		redirect(w, r, "/customers")
		return
	}
	if err := s.store.AddCustomer(name); err != nil {
		s.serverError(w, r, err)
		return
	}
	addFlash(w, r, "success", fmt.Sprintf("Customer %q added.", name))
	redirect(w, r, "/customers")
}

func (s *Server) handleRemoveCustomer(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if err := s.store.RemoveCustomer(name); err != nil {
		s.serverError(w, r, err)
		return
	}
	addFlash(w, r, "success", fmt.Sprintf("Customer %q removed from preselection.", name))
	redirect(w, r, "/customers")
}

func entryID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

func (s *Server) handleEditForm(w http.ResponseWriter, r *http.Request) {
	id, ok := entryID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	e, err := s.store.GetEntry(id)
	if errors.Is(err, storage.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	form := models.Candidate{
		Date:        e.Date,
		Customer:    e.Customer,
		Hours:       strconv.FormatFloat(e.Hours, 'f', -1, 64),
		Description: e.Description,
	}
	s.renderEntryForm(w, r, http.StatusOK, &pageData{EntryID: id, Form: form})
}

func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := entryID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	cand := candidateFromForm(r)
	res := validation.ValidateEntry(cand)
	if !res.Valid() {
		s.renderEntryForm(w, r, http.StatusUnprocessableEntity, &pageData{EntryID: id, Form: cand, Errors: res.Messages()})
		return
	}

	e := res.Entry
	e.Date = validation.DefaultDate(e.Date, s.now())
	err := s.store.UpdateEntry(id, e.Date, e.Customer, e.Hours, e.Description)
	if errors.Is(err, storage.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	addFlash(w, r, "success", "Entry updated.")
	redirect(w, r, "/log")
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := entryID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := s.store.DeleteEntry(id); err != nil {
		s.serverError(w, r, err)
		return
	}

	addFlash(w, r, "success", "Entry deleted.")
	redirect(w, r, backTo(r, "/log"))
}

// backTo returns the same-host referrer path, preserving its query, or
// fallback.
func backTo(r *http.Request, fallback string) string {
	ref, err := url.Parse(r.Referer())
	if err != nil || ref.Path == "" || (ref.Host != "" && ref.Host != r.Host) {
		return fallback
	}
	if ref.RawQuery != "" {
		return ref.Path + "?" + ref.RawQuery
	}
	return ref.Path
}
