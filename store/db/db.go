package db

import (
	"github.com/pkg/errors"

	"github.com/misciohq/miscio/internal/profile"
	"github.com/misciohq/miscio/store"
	"github.com/misciohq/miscio/store/db/postgres"
	"github.com/misciohq/miscio/store/db/sqlite"
)

// NewDBDriver creates new db driver based on profile.
//
// PostgreSQL is the reference driver for production; SQLite covers development
// and small single-node deployments. Both implement the full Driver surface,
// including the interaction text index.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	var driver store.Driver
	var err error

	switch profile.Driver {
	case "sqlite":
		driver, err = sqlite.NewDB(profile)
	case "postgres":
		driver, err = postgres.NewDB(profile)
	default:
		return nil, errors.New("unknown db driver: only 'postgres' and 'sqlite' are supported")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to create db driver")
	}
	return driver, nil
}
