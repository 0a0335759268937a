package transfers

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/hourlog/internal/cli"
	"github.com/julianstephens/hourlog/internal/models"
	"github.com/julianstephens/hourlog/internal/storage/sqlite"
)

func setupTestContext(t *testing.T) (*cli.Context, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	return &cli.Context{
		Store:  store,
		Stdout: out,
		Stderr: errOut,
		Now:    func() time.Time { return time.Date(2024, 3, 20, 12, 0, 0, 0, time.Local) },
	}, out, errOut
}

func TestExportCmd_ToFile(t *testing.T) {
	ctx, out, _ := setupTestContext(t)
	ctx.Store.AddEntry("2024-03-01", "Acme", 2, "Planning, phase 1")
	ctx.Store.AddEntry("2024-03-02", "Globex", 1.5, "Call")

	path := filepath.Join(t.TempDir(), "out.csv")
	if err := (&ExportCmd{Output: path}).Run(ctx); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if out.String() != "Exported 2 entries to "+path+"\n" {
		t.Errorf("output = %q", out.String())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read export: %v", err)
	}
	got := string(data)
	if !strings.HasPrefix(got, "date,customer,hours,description,created_at\n") {
		t.Errorf("unexpected header:\n%s", got)
	}
	if !strings.Contains(got, `2024-03-01,Acme,2,"Planning, phase 1",`) {
		t.Errorf("description with a comma should be quoted:\n%s", got)
	}
}

func TestExportCmd_Stdout(t *testing.T) {
	ctx, out, _ := setupTestContext(t)
	ctx.Store.AddEntry("2024-03-01", "Acme", 2, "Planning")
	ctx.Store.AddEntry("2024-03-02", "Globex", 1.5, "Call")

	if err := (&ExportCmd{Output: "-", Customer: "Globex"}).Run(ctx); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[1], "2024-03-02,Globex,1.5,Call,") {
		t.Errorf("unexpected export:\n%s", out.String())
	}
}

func TestExportCmd_Empty(t *testing.T) {
	ctx, out, _ := setupTestContext(t)
	path := filepath.Join(t.TempDir(), "out.csv")

	if err := (&ExportCmd{Output: path}).Run(ctx); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if out.String() != "No entries to export.\n" {
		t.Errorf("output = %q", out.String())
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("no file should be written when there is nothing to export")
	}
}

func TestExportCmd_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cmd     ExportCmd
		wantErr bool
	}{
		{"no range", ExportCmd{}, false},
		{"valid range", ExportCmd{From: "2024-01-01", To: "2024-01-31"}, false},
		{"bad from", ExportCmd{From: "01/01/2024"}, true},
		{"bad to", ExportCmd{To: "2024-02-30"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cmd.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestImportCmd(t *testing.T) {
	ctx, out, errOut := setupTestContext(t)
	ctx.Store.AddEntry("2024-03-01", "Acme", 2, "Planning")

	csv := "\xEF\xBB\xBFDate,Customer,Hours,Description\n" +
		"2024-03-01,Acme,2,Planning\n" +
		"2024-03-02,Globex,1.5,Call\n" +
		"2024-03-03,,1,Missing customer\n"
	path := filepath.Join(t.TempDir(), "in.csv")
	if err := os.WriteFile(path, []byte(csv), 0644); err != nil {
		t.Fatalf("failed to write import file: %v", err)
	}

	if err := (&ImportCmd{File: path}).Run(ctx); err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if out.String() != "Imported 1 entries, skipped 1 duplicates.\n" {
		t.Errorf("output = %q", out.String())
	}
	if !strings.Contains(errOut.String(), "Row 4") {
		t.Errorf("row error should be reported on stderr, got %q", errOut.String())
	}

	entries, _ := ctx.Store.GetEntries(models.EntryFilter{})
	if len(entries) != 2 {
		t.Errorf("expected 2 stored entries, got %d", len(entries))
	}
}

func TestImportCmd_Empty(t *testing.T) {
	ctx, out, errOut := setupTestContext(t)
	path := filepath.Join(t.TempDir(), "in.csv")
	os.WriteFile(path, []byte("\n"), 0644)

	if err := (&ImportCmd{File: path}).Run(ctx); err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("nothing should be printed to stdout, got %q", out.String())
	}
	if !strings.Contains(errOut.String(), "The file appears to be empty.") {
		t.Errorf("stderr = %q", errOut.String())
	}
}
