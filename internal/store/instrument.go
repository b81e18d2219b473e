package store

import (
	"context"

	"github.com/felixgeelhaar/genie/internal/knowledge"
	"github.com/felixgeelhaar/genie/internal/metrics"
	"github.com/felixgeelhaar/genie/internal/observe"
)

// Instrumented times and logs every load and save of the wrapped backend.
type Instrumented struct {
	next    knowledge.Persistence
	driver  string
	observe *observe.Observer
}

func Instrument(next knowledge.Persistence, driver string, o *observe.Observer) *Instrumented {
	return &Instrumented{next: next, driver: driver, observe: o}
}

func (i *Instrumented) Load(ctx context.Context) ([]knowledge.Entity, error) {
	ctx, span := i.observe.StartSpan(ctx, "store.Load")
	defer span.End()

	done := metrics.TimeStoreOp("load")
	entities, err := i.next.Load(ctx)
	done(err == nil)
	if err != nil {
		i.observe.Log().Error().Str("driver", i.driver).Err(err).Msg("failed to load knowledge base")
		return nil, err
	}
	i.observe.Log().Debug().Str("driver", i.driver).Int("entities", len(entities)).Msg("knowledge base loaded")
	return entities, nil
}

func (i *Instrumented) Save(ctx context.Context, entities []knowledge.Entity) error {
	ctx, span := i.observe.StartSpan(ctx, "store.Save")
	defer span.End()

	done := metrics.TimeStoreOp("save")
	err := i.next.Save(ctx, entities)
	done(err == nil)
	if err != nil {
		i.observe.Log().Error().Str("driver", i.driver).Err(err).Msg("failed to save knowledge base")
		return err
	}
	i.observe.Log().Debug().Str("driver", i.driver).Int("entities", len(entities)).Msg("knowledge base saved")
	return nil
}
