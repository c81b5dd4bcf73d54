// Package migrations встраивает SQL схемы в бинарник.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
