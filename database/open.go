package database

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"github.com/sahilchouksey/campus-api/config"
)

// Open connects the backend selected by STORE_DRIVER. The firebase app is
// only used by the firestore driver and may be nil otherwise.
func Open(ctx context.Context, cfg *config.Config, app *firebase.App) (Storage, error) {
	switch cfg.StoreDriver {
	case config.DriverGORM:
		return StartGORM(cfg)
	case config.DriverPostgres:
		return Start(cfg)
	case config.DriverFirestore:
		if app == nil {
			var err error
			if app, err = NewFirebaseApp(ctx, cfg); err != nil {
				return nil, err
			}
		}
		return StartFirestore(ctx, app, cfg)
	case config.DriverMongo:
		return StartMongo(ctx, cfg)
	case config.DriverMemory:
		return NewMemoryStore(cfg.StoreMaxBatch), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
