package store

import (
	"context"
	"fmt"
	"io"

	"github.com/felixgeelhaar/genie/internal/config"
	"github.com/felixgeelhaar/genie/internal/knowledge"
	"github.com/felixgeelhaar/genie/internal/observe"
)

// Backend is a persistence layer that holds resources.
type Backend interface {
	knowledge.Persistence
	io.Closer
}

// Watchable is a backend that can report changes made by other processes.
type Watchable interface {
	Watch(onChange func(), onError func(error)) (*Watcher, error)
}

// Open returns the backend selected by cfg, wrapped with instrumentation.
func Open(ctx context.Context, cfg config.StoreConfig, o *observe.Observer) (knowledge.Persistence, io.Closer, error) {
	var b Backend
	switch cfg.Driver {
	case config.DriverJSON:
		b = NewJSONFile(cfg.Path)
	case config.DriverSQLite:
		s, err := NewSQLiteStore(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		b = s
	case config.DriverRedis:
		s, err := NewRedisStore(ctx, cfg.Redis.URL, cfg.Redis.Password, cfg.Redis.Key)
		if err != nil {
			return nil, nil, err
		}
		b = s
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
	o.Log().Info().Str("driver", cfg.Driver).Str("path", cfg.Path).Msg("knowledge base backend ready")
	return Instrument(b, cfg.Driver, o), b, nil
}
