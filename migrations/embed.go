// Package migrations embeds the clinic schema SQL files.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
