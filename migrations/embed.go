// Package migrations embeds SQL migration files into the binary, so
// doorgate can create its schema without shipping loose .sql files.
package migrations

import (
	"embed"

	"github.com/oakfield-labs/doorgate/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "." // files sit at the root of the embedded FS
}
