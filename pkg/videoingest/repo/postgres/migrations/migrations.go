// Package migrations embeds the goose SQL migrations for the relational
// schema: finalized assets, their telemetry traces, the road reference
// tables, and user accounts.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
