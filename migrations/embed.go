// Package migrations embeds the SQLite schema so the single-binary local
// setup can migrate without the source tree. PostgreSQL migrations are read
// from POSTGRES_MIGRATIONS_PATH.
package migrations

import "embed"

//go:embed sqlite/*.sql
var SQLite embed.FS
