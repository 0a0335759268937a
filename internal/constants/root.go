package constants

import "time"

const (
	AppName            = "hourlog"
	DefaultKeyringUser = "database-connection"
	DefaultConfigDir   = "~/.config/hourlog"
	DefaultConfigPath  = "~/.config/hourlog/hourlog.db"
	Version            = "v0.3.0"

	// KeyringConfigValue selects the connection string stored in the OS keyring.
	KeyringConfigValue = "keyring"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// MonthFormat is the key format of a calendar month (YYYY-MM)
	MonthFormat = "2006-01"

	// MonthLabelFormat renders a month key for humans, e.g. "March 2024"
	MonthLabelFormat = "January 2006"

	// TimestampFormat is used for created_at values (seconds precision, local time)
	TimestampFormat = "2006-01-02T15:04:05"

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "hourlog-"
	BackupFileSuffix = ".db"

	// Log constants
	LogDirName        = "logs"
	LogFileName       = "hourlog.log"
	ServerLogFileName = "hourlog-server.log"

	// Extraction service defaults
	DefaultOllamaURL     = "http://localhost:11434"
	DefaultOllamaModel   = "llama3.2"
	DefaultOllamaTimeout = 30 * time.Second

	// Web UI constants
	DefaultPort          = 5000
	ServerLockfileName   = "hourlog-server.lock"
	BrowserOpenDelay     = 1500 * time.Millisecond
	ServerShutdownWindow = 5 * time.Second

	// Export defaults
	DefaultExportFile = "export.csv"
	DefaultExportName = "export"

	// RecentCustomerHint is how many known customers are suggested when prompting
	RecentCustomerHint = 5
)
