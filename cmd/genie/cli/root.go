package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/felixgeelhaar/genie/internal/config"
	"github.com/felixgeelhaar/genie/internal/observe"
	"github.com/spf13/cobra"
)

var (
	cfgFile      string
	verbose      bool
	jsonLogs     bool
	plain        bool
	watch        bool
	driver       string
	storePath    string
	metricsAddr  string
	maxQuestions int
	minQuestions int
	confidence   float64
	onCollision  string
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "genie",
	Short: "Think of a character and let the genie read your mind",
	Long: `Genie asks yes/no style questions about traits, guesses the character
you are thinking of, and learns a new one every time it gets it wrong.`,
	SilenceUsage: true,
}

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play a game",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		var obs *observe.Observer
		if plain {
			obs = newObserver(cfg, cmd.ErrOrStderr())
		} else {
			// The TUI owns the terminal, so logs go to a file.
			obs, err = observe.NewFile(filepath.Join(config.Dir(), "genie.log"), cfg.Log.Verbose)
			if err != nil {
				return err
			}
		}
		defer obs.Close()

		r := NewRunner(obs, cfg, cmd.InOrStdin(), cmd.OutOrStdout(), plain)
		return r.Run(cmd.Context())
	},
}

func Execute() {
	if err := RootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	RootCmd.AddCommand(playCmd)
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default $GENIE_HOME/config.yaml or ~/.genie/config.yaml)")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	RootCmd.PersistentFlags().BoolVar(&jsonLogs, "json", false, "Log as JSON")
	RootCmd.PersistentFlags().StringVar(&driver, "driver", "", "Store driver (json, sqlite, redis)")
	RootCmd.PersistentFlags().StringVar(&storePath, "store", "", "Knowledge base file for the json and sqlite drivers")

	playCmd.Flags().BoolVar(&plain, "plain", false, "Line-mode game on stdin/stdout instead of the TUI")
	playCmd.Flags().BoolVar(&watch, "watch", false, "Reload the knowledge base between games when its file changes")
	playCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")
	playCmd.Flags().IntVar(&maxQuestions, "max-questions", 0, "Always guess after this many questions")
	playCmd.Flags().IntVar(&minQuestions, "min-questions", 0, "Earliest question count for a confident guess")
	playCmd.Flags().Float64Var(&confidence, "confidence", 0, "Average agreement required for an early guess")
	playCmd.Flags().StringVar(&onCollision, "on-collision", "", "What learning does with a known name (overwrite, reject)")
}
