// Package migrations embeds the SQL schema applied at startup.
package migrations

import "embed"

// FS holds the numbered *.up.sql and *.down.sql files. Only the up files are
// applied automatically.
//
//go:embed *.sql
var FS embed.FS
