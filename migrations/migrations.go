// Package migrations embeds the versioned schema migrations so the
// migrate CLI and tests apply the exact same schema.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
