// Package web serves the browser UI: entry forms, the filtered log, monthly
// summaries, CSV transfer and the managed customer list.
package web

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"

	"github.com/julianstephens/hourlog/internal/models"
	"github.com/julianstephens/hourlog/internal/report"
	"github.com/julianstephens/hourlog/internal/storage"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static/*
var staticFS embed.FS

var pages = []string{"add", "edit", "log", "summary", "export", "import", "customers"}

// ExtractFunc turns free text into a candidate entry.
type ExtractFunc func(ctx context.Context, message string, customers []string, today time.Time) (models.Candidate, error)

type Options struct {
	Addr    string
	Store   storage.Provider
	Extract ExtractFunc
	// Logger receives the request log. Nil disables it.
	Logger *log.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

type Server struct {
	http.Server
	store     storage.Provider
	extract   ExtractFunc
	log       *log.Logger
	now       func() time.Time
	templates map[string]*template.Template
}

var funcs = template.FuncMap{
	"hours":      report.FormatHours,
	"pathEscape": url.PathEscape,
}

func parseTemplates() (map[string]*template.Template, error) {
	set := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		t, err := template.New(page).Funcs(funcs).ParseFS(templatesFS,
			"templates/base.html", "templates/entryform.html", "templates/"+page+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", page, err)
		}
		set[page] = t
	}
	return set, nil
}

// New builds a server with every route registered. It does not listen.
func New(opts Options) (*Server, error) {
	templates, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	s := &Server{
		store:     opts.Store,
		extract:   opts.Extract,
		log:       opts.Logger,
		now:       now,
		templates: templates,
	}

	mux := http.NewServeMux()

	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("failed to mount static assets: %w", err)
	}
	files := http.StripPrefix("/static/", http.FileServer(http.FS(static)))
	mux.Handle("GET /static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		files.ServeHTTP(w, r)
	}))

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/add", http.StatusFound)
	})
	mux.HandleFunc("GET /add", s.handleAddForm)
	mux.HandleFunc("POST /add", s.handleAdd)
	mux.HandleFunc("POST /extract", s.handleExtract)
	mux.HandleFunc("GET /log", s.handleLog)
	mux.HandleFunc("GET /summary", s.handleSummary)
	mux.HandleFunc("GET /export", s.handleExportForm)
	mux.HandleFunc("POST /export", s.handleExport)
	mux.HandleFunc("GET /import", s.handleImportForm)
	mux.HandleFunc("POST /import", s.handleImport)
	mux.HandleFunc("GET /customers", s.handleCustomers)
	mux.HandleFunc("POST /customers", s.handleAddCustomer)
	mux.HandleFunc("POST /customers/{name}/delete", s.handleRemoveCustomer)
	mux.HandleFunc("GET /entry/{id}/edit", s.handleEditForm)
	mux.HandleFunc("POST /entry/{id}/edit", s.handleEdit)
	mux.HandleFunc("POST /entry/{id}/delete", s.handleDelete)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           s.withMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      90 * time.Second, // extraction may wait on the model
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}
	return s, nil
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
