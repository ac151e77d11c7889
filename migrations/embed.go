// Package migrations bundles the schema migrations applied by the migrate
// command and, optionally, at server startup.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
