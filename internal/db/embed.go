package db

import "embed"

// migrationFS embeds the SQL migrations for every supported dialect. Each
// dialect has its own directory holding the same versions, so no migration
// file needs to exist on disk at runtime.
//
//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationFS embed.FS
