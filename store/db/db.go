package db

import (
	"github.com/pkg/errors"

	"github.com/scribehq/recap/internal/profile"
	"github.com/scribehq/recap/store"
	"github.com/scribehq/recap/store/db/postgres"
	"github.com/scribehq/recap/store/db/sqlite"
)

// NewDBDriver creates a new database driver based on the profile.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	switch profile.Driver {
	case "sqlite":
		return sqlite.NewDB(profile)
	case "postgres":
		return postgres.NewDB(profile)
	default:
		return nil, errors.Errorf("unsupported database driver: %s", profile.Driver)
	}
}
