package db

import "embed"

// MigrationsFS embeds the SQL migrations so the migrator binary and test
// helpers run the same schema regardless of working directory.
//
//go:embed migrations/*.sql
var MigrationsFS embed.FS
