package migrations

import (
	"io/fs"

	registration "github.com/goliatone/go-registration"
)

func init() {
	coreFS, err := fs.Sub(registration.GetMigrationsFS(), "data/sql/migrations")
	if err != nil {
		return
	}
	Register(coreFS)
}
