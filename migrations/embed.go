// Package migrations embeds the SQL schema migrations so binaries do not
// depend on a migrations directory at runtime.
package migrations

import "embed"

// FS holds the *.up.sql and *.down.sql files
//
//go:embed *.sql
var FS embed.FS
