// Package migrations embeds the Waveform Core schema into the binary.
package migrations

import (
	"embed"
	"io/fs"
)

//go:embed *.sql
var files embed.FS

// FS returns the embedded migration files, rooted at the directory.
func FS() fs.FS {
	return files
}
