// Package migrations embeds the goose SQL migrations applied at startup and by the admin CLI.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
