// Package migrations embeds the schema so tests and tooling apply the same SQL.
package migrations

import (
	"embed"
	"strings"
)

//go:embed *.sql
var FS embed.FS

// Up returns the contents of every up migration, ordered by file name.
func Up() ([]string, error) {
	entries, err := FS.ReadDir(".")
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if !strings.HasSuffix(e.Name(), ".up.sql") {
			continue
		}
		b, err := FS.ReadFile(e.Name())
		if err != nil {
			return nil, err
		}
		out = append(out, string(b))
	}
	return out, nil
}
