package creddef

import (
	"embed"
	"io/fs"
)

// migrationsFS contains the credential definition schema for postgres, with
// the sqlite alternative under data/sql/migrations/sqlite.
//
//go:embed data/sql/migrations/*.sql data/sql/migrations/sqlite/*.sql
var migrationsFS embed.FS

// GetMigrationsFS returns the full embedded migration tree.
func GetMigrationsFS() fs.FS {
	return migrationsFS
}
