package migrations

import "embed"

// FS contains embedded migrations, one directory per driver.
//
//go:embed postgres/*.sql sqlite/*.sql
var FS embed.FS
