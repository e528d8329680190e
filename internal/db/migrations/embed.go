package migrations

import "embed"

// FS holds the goose SQL migrations so the server binary carries its schema
//
//go:embed *.sql
var FS embed.FS
