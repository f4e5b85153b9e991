package assets

import (
	"embed"
	"io/fs"
)

//go:embed catalog.yaml sql/*.sql
var FS embed.FS

// Catalog returns the built-in lesson catalog.
func Catalog() ([]byte, error) {
	return FS.ReadFile("catalog.yaml")
}

// Migrations returns the SQL migration files rooted at "sql".
func Migrations() (fs.FS, error) {
	return fs.Sub(FS, "sql")
}
