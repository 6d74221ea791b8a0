// Package migrations embeds the PostgreSQL schema migrations for the therapy catalog.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
