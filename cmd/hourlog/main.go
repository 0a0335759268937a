package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/hourlog/internal/cli"
	"github.com/julianstephens/hourlog/internal/cli/backups"
	"github.com/julianstephens/hourlog/internal/cli/customers"
	"github.com/julianstephens/hourlog/internal/cli/entries"
	"github.com/julianstephens/hourlog/internal/cli/reports"
	"github.com/julianstephens/hourlog/internal/cli/system"
	"github.com/julianstephens/hourlog/internal/cli/transfers"
	"github.com/julianstephens/hourlog/internal/config"
	"github.com/julianstephens/hourlog/internal/constants"
	"github.com/julianstephens/hourlog/internal/errors"
	"github.com/julianstephens/hourlog/internal/logger"
	"github.com/julianstephens/hourlog/internal/storage"
)

var CLI struct {
	Version       kong.VersionFlag
	Config        string        `help:"sqlite path, postgres:// URL, mysql:// DSN, or 'keyring'. Passwords are only accepted from the keyring." env:"HOURLOG_DB" default:"${config_path}"`
	Verbose       bool          `help:"Log debug output to stderr." name:"debug" env:"HOURLOG_DEBUG"`
	OllamaURL     string        `help:"Ollama base URL." name:"ollama-url" env:"HOURLOG_OLLAMA_URL" default:"${ollama_url}"`
	OllamaModel   string        `help:"Ollama model used for extraction." name:"ollama-model" env:"HOURLOG_OLLAMA_MODEL" default:"${ollama_model}"`
	OllamaTimeout time.Duration `help:"Timeout for one extraction request." name:"ollama-timeout" env:"HOURLOG_OLLAMA_TIMEOUT" default:"${ollama_timeout}"`

	Init    system.InitCmd    `cmd:"" help:"Initialize hourlog storage."`
	Migrate system.MigrateCmd `cmd:"" help:"Run database migrations."`
	Doctor  system.DoctorCmd  `cmd:"" help:"Run health checks and diagnostics."`

	Add    entries.AddCmd    `cmd:"" help:"Add a work entry."`
	Log    entries.LogCmd    `cmd:"" help:"Extract an entry from a free-text description."`
	List   entries.ListCmd   `cmd:"" help:"List entries grouped by date."`
	Edit   entries.EditCmd   `cmd:"" help:"Edit an entry."`
	Delete entries.DeleteCmd `cmd:"" help:"Delete an entry."`

	Months  reports.MonthsCmd  `cmd:"" help:"List months that have entries."`
	Summary reports.SummaryCmd `cmd:"" help:"Show per-customer totals for a month."`

	Export transfers.ExportCmd `cmd:"" help:"Export entries to CSV."`
	Import transfers.ImportCmd `cmd:"" help:"Import entries from CSV."`

	Customers struct {
		List   customers.ListCmd   `cmd:"" help:"List preselected customers." default:"1"`
		Add    customers.AddCmd    `cmd:"" help:"Add a preselected customer."`
		Remove customers.RemoveCmd `cmd:"" help:"Remove a preselected customer."`
	} `cmd:"" help:"Manage preselected customers."`

	Backup struct {
		Create  backups.BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
		List    backups.BackupListCmd    `cmd:"" help:"List available backups."`
		Restore backups.BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
	} `cmd:"" help:"Manage database backups."`

	Keyring struct {
		Set    system.KeyringSetCmd    `cmd:"" help:"Store a database connection string in the OS keyring."`
		Get    system.KeyringGetCmd    `cmd:"" help:"Show the stored connection string with the password masked."`
		Delete system.KeyringDeleteCmd `cmd:"" help:"Delete the stored connection string."`
		Status system.KeyringStatusCmd `cmd:"" help:"Check OS keyring availability."`
	} `cmd:"" help:"Manage the database connection string in the OS keyring."`

	Tui   system.TuiCmd   `cmd:"" help:"Launch the interactive log browser."`
	Ui    system.UiCmd    `cmd:"" help:"Start the web UI."`
	Debug system.DebugCmd `cmd:"" help:"Debug commands for troubleshooting."`
}

// Commands that open and load the store themselves, or never touch it.
var (
	skipOpen = map[string]bool{"keyring": true}
	skipLoad = map[string]bool{"init": true, "migrate": true, "doctor": true, "keyring": true}
)

func main() {
	config.LoadEnv()

	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Personal work-hour logger"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version":        constants.Version,
			"config_path":    constants.DefaultConfigPath,
			"ollama_url":     constants.DefaultOllamaURL,
			"ollama_model":   constants.DefaultOllamaModel,
			"ollama_timeout": constants.DefaultOllamaTimeout.String(),
			"export_file":    constants.DefaultExportFile,
			"port":           strconv.Itoa(constants.DefaultPort),
		},
	)

	cfg := &config.Config{
		Store:         CLI.Config,
		Debug:         CLI.Verbose,
		OllamaURL:     CLI.OllamaURL,
		OllamaModel:   CLI.OllamaModel,
		OllamaTimeout: CLI.OllamaTimeout,
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, errors.Format(err))
		os.Exit(1)
	}

	if err := logger.Init(logger.Config{Debug: cfg.Debug, ConfigDir: cfg.DataDir()}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}

	appCtx := &cli.Context{Config: cfg}
	command := topLevel(ctx)

	if !skipOpen[command] {
		store, err := storage.Open(cfg.Store)
		if err != nil {
			errors.Fatal(err)
		}
		appCtx.Store = store
		// init --force swaps the store, so close whatever is current.
		defer func() { appCtx.Store.Close() }()

		if !skipLoad[command] {
			if err := store.Load(); err != nil {
				errors.Fatal(err)
			}
		}
	}

	logger.Debug("Running command", "command", ctx.Command())
	if err := ctx.Run(appCtx); err != nil {
		if appCtx.Store != nil {
			appCtx.Store.Close()
		}
		errors.Fatal(err)
	}
}

// topLevel returns the first word of the selected command, e.g. "keyring"
// for "keyring set <connection-string>".
func topLevel(ctx *kong.Context) string {
	fields := strings.Fields(ctx.Command())
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
