// Package migrations embeds the postgres schema migrations so that the
// binaries can apply them without a checkout.
package migrations

import "embed"

// FS holds the NNNNNN_name.{up,down}.sql files
//
//go:embed *.sql
var FS embed.FS
