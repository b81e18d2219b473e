package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/felixgeelhaar/genie/internal/config"
	"github.com/felixgeelhaar/genie/internal/knowledge"
	"github.com/felixgeelhaar/genie/internal/observe"
	"github.com/felixgeelhaar/genie/internal/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// flagKeys maps config keys to the flags that override them.
var flagKeys = map[string]string{
	"log.verbose":          "verbose",
	"log.json":             "json",
	"store.driver":         "driver",
	"store.path":           "store",
	"store.watch":          "watch",
	"metrics.addr":         "metrics-addr",
	"policy.max_questions": "max-questions",
	"policy.min_questions": "min-questions",
	"policy.confidence":    "confidence",
	"policy.on_collision":  "on-collision",
}

// loadConfig layers the flags cmd actually received over file and env.
func loadConfig(cmd *cobra.Command) (*viper.Viper, *config.Config, error) {
	v, err := config.New(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	for key, name := range flagKeys {
		f := cmd.Flags().Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return nil, nil, fmt.Errorf("failed to bind flag --%s: %w", name, err)
		}
	}
	cfg, err := config.Load(v)
	if err != nil {
		return nil, nil, err
	}
	return v, cfg, nil
}

func newObserver(cfg *config.Config, out io.Writer) *observe.Observer {
	if cfg.Log.JSON {
		return observe.NewJSON(out, cfg.Log.Verbose)
	}
	return observe.New(out, cfg.Log.Verbose)
}

// openKnowledge opens the configured backend and loads the knowledge base.
// The returned closer releases the backend.
func openKnowledge(ctx context.Context, cfg *config.Config, obs *observe.Observer) (*knowledge.Base, io.Closer, error) {
	p, closer, err := store.Open(ctx, cfg.Store, obs)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open store: %w", err)
	}
	kb, err := knowledge.Open(ctx, p)
	if err != nil {
		closer.Close()
		return nil, nil, err
	}
	return kb, closer, nil
}

// withKnowledge runs fn against the configured knowledge base.
func withKnowledge(cmd *cobra.Command, fn func(ctx context.Context, kb *knowledge.Base) error) error {
	_, cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	obs := newObserver(cfg, cmd.ErrOrStderr())
	defer obs.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	kb, closer, err := openKnowledge(ctx, cfg, obs)
	if err != nil {
		return err
	}
	defer closer.Close()
	return fn(ctx, kb)
}
