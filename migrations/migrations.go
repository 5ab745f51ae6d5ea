// Package migrations embeds the SQL schema so the binary migrates without a
// migrations directory next to it.
package migrations

import "embed"

// FS holds the numbered up and down migration files.
//
//go:embed *.sql
var FS embed.FS
