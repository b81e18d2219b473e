package cli

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/felixgeelhaar/genie/internal/config"
	"github.com/felixgeelhaar/genie/internal/game"
	"github.com/felixgeelhaar/genie/internal/metrics"
	"github.com/felixgeelhaar/genie/internal/observe"
	"github.com/felixgeelhaar/genie/internal/policy"
	"github.com/felixgeelhaar/genie/internal/store"
	"github.com/felixgeelhaar/genie/internal/ui"
	"github.com/felixgeelhaar/genie/internal/ui/tui"
)

type Runner struct {
	Observer *observe.Observer
	Config   *config.Config
	In       io.Reader
	Out      io.Writer
	Plain    bool
}

func NewRunner(obs *observe.Observer, cfg *config.Config, in io.Reader, out io.Writer, plain bool) *Runner {
	return &Runner{
		Observer: obs,
		Config:   cfg,
		In:       in,
		Out:      out,
		Plain:    plain,
	}
}

// Run plays games until the player quits.
func (r *Runner) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	r.Observer.Log().Info().Str("driver", r.Config.Store.Driver).Msg("genie starting")

	p, err := r.Config.Policy.Policy()
	if err != nil {
		return err
	}
	if err := metrics.Enable(r.Config.Metrics.Addr); err != nil {
		return err
	}

	kb, closer, err := openKnowledge(ctx, r.Config, r.Observer)
	if err != nil {
		return err
	}
	defer closer.Close()

	g := game.New(kb, policy.New(p), r.Observer)

	var u ui.UI
	var program *tea.Program
	var console *ui.Console
	if r.Plain {
		console = ui.NewConsole(r.In, r.Out)
		u = console
	} else {
		program = tea.NewProgram(tui.NewModel(ctx, g), tea.WithInput(r.In), tea.WithOutput(r.Out), tea.WithAltScreen())
		u = tui.NewTUI(program)
	}

	if r.Config.Store.Watch {
		w, err := r.watch(closer, g, u)
		if err != nil {
			return err
		}
		if w != nil {
			defer w.Close()
		}
	}

	if r.Plain {
		return console.Play(ctx, g)
	}
	_, err = program.Run()
	return err
}

func (r *Runner) watch(backend io.Closer, g *game.Game, u ui.UI) (*store.Watcher, error) {
	wb, ok := backend.(store.Watchable)
	if !ok {
		r.Observer.Log().Warn().Str("driver", r.Config.Store.Driver).Msg("store.watch has no effect with this driver")
		return nil, nil
	}
	return wb.Watch(
		func() {
			g.RequestReload()
			u.Log("knowledge base changed on disk; it will reload with the next game")
		},
		func(err error) {
			r.Observer.Log().Warn().Err(err).Msg("watcher error")
		})
}
