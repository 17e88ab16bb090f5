// Package migrations holds the versioned schema of the AzureBridge database.
package migrations

import "embed"

// FS contains the .up.sql and .down.sql files.
//
//go:embed *.sql
var FS embed.FS
