package db

import "embed"

// MigrationFS embeds the progress schema migrations.
//
//go:embed migrations/*.sql
var MigrationFS embed.FS
