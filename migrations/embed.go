// Package migrations embeds the SQL schema for the server, the CLI and integration tests.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
