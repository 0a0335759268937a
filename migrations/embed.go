// Package migrations embeds the schema migrations for every supported
// database driver. Each subdirectory holds NNN_name.sql files applied in
// version order by the migration runner.
package migrations

import "embed"

//go:embed sqlite postgres mysql
var FS embed.FS
