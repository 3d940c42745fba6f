// Package migrations contains embedded SQL migrations for the rules store.
package migrations

import "embed"

//go:embed rules/*.sql
var RulesFS embed.FS
