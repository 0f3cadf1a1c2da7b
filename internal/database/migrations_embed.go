package database

import (
	"embed"
	"io/fs"
	"path"
)

//go:embed migrations
var migrations embed.FS

// MigrationsFS returns the compiled-in migration tree.
func MigrationsFS() fs.FS {
	return migrations
}

// MigrationsDir is the directory inside MigrationsFS holding a dialect's files.
func MigrationsDir(d Dialect) string {
	return path.Join("migrations", string(d))
}
