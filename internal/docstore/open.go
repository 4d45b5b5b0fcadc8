// AngelaMos | 2026
// open.go

package docstore

import (
	"context"
	"fmt"

	"github.com/carterperez-dev/mahuru-activation/internal/config"
	"github.com/carterperez-dev/mahuru-activation/internal/core"
)

// Backend is an opened store. Database is set only for the postgres driver.
type Backend struct {
	Driver   string
	Store    Store
	Database *core.Database
}

// Open connects the driver named by cfg.Store.Driver.
func Open(ctx context.Context, cfg *config.Config) (*Backend, error) {
	switch cfg.Store.Driver {
	case config.StoreFirestore:
		client, err := core.NewFirestore(ctx, cfg.Firebase)
		if err != nil {
			return nil, err
		}
		return &Backend{Driver: cfg.Store.Driver, Store: NewFirestore(client)}, nil

	case config.StorePostgres:
		db, err := core.NewDatabase(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		if err := Migrate(ctx, db.DB); err != nil {
			_ = db.Close() //nolint:errcheck // cleanup on migration failure
			return nil, err
		}
		return &Backend{
			Driver:   cfg.Store.Driver,
			Store:    NewPostgres(db.DB),
			Database: db,
		}, nil

	case config.StoreMemory, "":
		return &Backend{Driver: config.StoreMemory, Store: NewMemory()}, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func (b *Backend) Close() error {
	return b.Store.Close()
}
