// Package resources bundles the default changelogs into the binary.
package resources

import "embed"

// FS holds the bundled changelogs, looked up after any configured directory.
//
//go:embed *.sql
var FS embed.FS
