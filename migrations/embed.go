package migrations

import "embed"

// FS holds the ordered *.sql schema files applied at startup.
//
//go:embed *.sql
var FS embed.FS
