package system

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/julianstephens/hourlog/internal/backup"
	"github.com/julianstephens/hourlog/internal/cli"
	"github.com/julianstephens/hourlog/internal/models"
	"github.com/julianstephens/hourlog/internal/validation"
)

type DoctorCmd struct{}

type check struct {
	name string
	// needsDB checks are skipped when the database is not reachable.
	needsDB bool
	// warnOnly failures are reported but do not fail the run.
	warnOnly bool
	run      func(ctx *cli.Context) error
}

var checks = []check{
	{name: "Schema version", needsDB: true, run: checkSchemaVersion},
	{name: "Migrations complete", needsDB: true, run: checkMigrationsComplete},
	{name: "Backups present", warnOnly: true, run: checkBackupsPresent},
	{name: "Entry data", needsDB: true, run: checkEntryData},
	{name: "Clock/timezone", run: checkClockTimezone},
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	ctx.Println("Running diagnostics...")
	ctx.Println()

	hasError := false
	dbReachable := false

	if err := checkDBReachable(ctx); err != nil {
		ctx.Printf("❌ Database reachable: FAIL\n")
		ctx.Printf("   Error: %v\n", err)
		hasError = true
	} else {
		ctx.Printf("✓ Database reachable: OK\n")
		dbReachable = true
	}

	for _, c := range checks {
		if c.needsDB && !dbReachable {
			ctx.Printf("⊘ %s: SKIPPED (database not reachable)\n", c.name)
			continue
		}
		err := c.run(ctx)
		switch {
		case err == nil:
			ctx.Printf("✓ %s: OK\n", c.name)
		case c.warnOnly:
			ctx.Printf("⚠ %s: WARNING\n", c.name)
			ctx.Printf("   %v\n", err)
		default:
			ctx.Printf("❌ %s: FAIL\n", c.name)
			ctx.Printf("   Error: %v\n", err)
			hasError = true
		}
	}

	ctx.Println()
	if hasError {
		ctx.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}

	ctx.Println("All diagnostics passed!")
	return nil
}

func checkDBReachable(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return fmt.Errorf("failed to load database: %w", err)
	}
	if err := ctx.Store.Ping(); err != nil {
		return fmt.Errorf("failed to query database: %w", err)
	}
	return nil
}

func versions(ctx *cli.Context) (current, latest int, err error) {
	runner, err := ctx.Store.Runner()
	if err != nil {
		return 0, 0, err
	}
	if current, err = runner.GetCurrentVersion(); err != nil {
		return 0, 0, fmt.Errorf("failed to get current schema version: %w", err)
	}
	if latest, err = runner.GetLatestVersion(); err != nil {
		return 0, 0, fmt.Errorf("failed to get latest schema version: %w", err)
	}
	return current, latest, nil
}

func checkSchemaVersion(ctx *cli.Context) error {
	current, latest, err := versions(ctx)
	if err != nil {
		return err
	}
	if current > latest {
		return fmt.Errorf("database schema version (%d) is newer than supported version (%d)", current, latest)
	}
	return nil
}

func checkMigrationsComplete(ctx *cli.Context) error {
	runner, err := ctx.Store.Runner()
	if err != nil {
		return err
	}
	pending, err := runner.Pending()
	if err != nil {
		return fmt.Errorf("failed to read pending migrations: %w", err)
	}
	if len(pending) > 0 {
		return fmt.Errorf("%d migration(s) pending, starting with %03d_%s - run 'hourlog migrate'", len(pending), pending[0].Version, pending[0].Name)
	}
	return nil
}

func checkBackupsPresent(ctx *cli.Context) error {
	s, ok := ctx.SQLiteStore()
	if !ok {
		return fmt.Errorf("remote storage is not backed up by hourlog - use your database server's backup tooling")
	}
	backups, err := backup.NewManager(s.GetConfigPath()).ListBackups()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		return fmt.Errorf("no backups found - consider creating one with 'hourlog backup create'")
	}
	return nil
}

// checkEntryData reports stored rows that would fail validation today.
func checkEntryData(ctx *cli.Context) error {
	entries, err := ctx.Store.GetEntries(models.EntryFilter{})
	if err != nil {
		return fmt.Errorf("failed to read entries: %w", err)
	}

	var problems []string
	for _, e := range entries {
		switch {
		case !validation.IsDate(e.Date):
			problems = append(problems, fmt.Sprintf("entry %d has a malformed date %q", e.ID, e.Date))
		case math.IsNaN(e.Hours) || math.IsInf(e.Hours, 0) || e.Hours <= 0:
			problems = append(problems, fmt.Sprintf("entry %d has non-positive hours %v", e.ID, e.Hours))
		case strings.TrimSpace(e.Customer) == "":
			problems = append(problems, fmt.Sprintf("entry %d has a blank customer", e.ID))
		case strings.TrimSpace(e.Description) == "":
			problems = append(problems, fmt.Sprintf("entry %d has a blank description", e.ID))
		}
	}

	if len(problems) == 0 {
		return nil
	}
	if len(problems) > 5 {
		problems = append(problems[:5], fmt.Sprintf("... and %d more", len(problems)-5))
	}
	return errors.New(strings.Join(problems, "\n   "))
}

func checkClockTimezone(ctx *cli.Context) error {
	now := ctx.Clock()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	return nil
}
