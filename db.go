// db.go
//
// Archive wiring for the serve command.
// An empty path keeps finished games in memory only (archive.Nop); otherwise
// the SQLite file is opened and the embedded migrations are applied.

package main

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/undercover/assets"
	"github.com/robalobadob/undercover/internal/archive"
)

func openArchive(path string) (archive.Archive, func() error, error) {
	if path == "" {
		log.Info().Msg("archive disabled")
		return archive.Nop{}, func() error { return nil }, nil
	}

	migrations, err := assets.Migrations()
	if err != nil {
		return nil, nil, fmt.Errorf("load migrations: %w", err)
	}
	st, err := archive.Open(path, migrations)
	if err != nil {
		return nil, nil, fmt.Errorf("open archive %s: %w", path, err)
	}
	log.Info().Str("path", path).Msg("archive ready")
	return st, st.Close, nil
}
