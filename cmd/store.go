package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/dawa-cli/internal/config"
	"github.com/sells-group/dawa-cli/internal/dawa"
	"github.com/sells-group/dawa-cli/internal/fetcher"
	"github.com/sells-group/dawa-cli/internal/store"
)

// openStore validates the store settings and connects to the configured backend.
func openStore(ctx context.Context, c *config.Config) (store.Store, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	dsn, err := c.Store.DSN()
	if err != nil {
		return nil, err
	}

	switch c.Store.Driver {
	case "sqlite":
		st, err := store.NewSQLite(dsn)
		if err != nil {
			return nil, err
		}
		return st, nil
	case "postgres":
		st, err := store.NewPostgres(ctx, dsn, &store.PoolConfig{MaxConns: c.Store.MaxConns})
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, eris.Errorf("unsupported store driver: %s", c.Store.Driver)
	}
}

// newDAWAClient builds the API client from the dawa.* settings.
func newDAWAClient(c *config.Config) *dawa.Client {
	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent: c.DAWA.UserAgent,
		Timeout:   time.Duration(c.DAWA.TimeoutSecs) * time.Second,
	})
	return dawa.NewClient(f, c.DAWA.URL)
}
