package cli

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/genie/internal/knowledge"
	"github.com/felixgeelhaar/genie/internal/teach"
	"github.com/felixgeelhaar/genie/internal/ui"
	"github.com/spf13/cobra"
)

var leaderboardSize int

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Show the most often guessed characters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withKnowledge(cmd, func(ctx context.Context, kb *knowledge.Base) error {
			out, err := ui.RenderLeaderboard(kb.TopN(leaderboardSize))
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		})
	},
}

var kbCmd = &cobra.Command{
	Use:   "kb",
	Short: "Inspect and edit the knowledge base",
}

var kbListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every known character",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withKnowledge(cmd, func(ctx context.Context, kb *knowledge.Base) error {
			out, err := ui.RenderEntities(kb.Entities())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		})
	},
}

var kbImportCmd = &cobra.Command{
	Use:   "import [file|glob]...",
	Short: "Merge characters from JSON or YAML seed files",
	Long: `Merge characters from JSON or YAML seed files into the knowledge base.
Characters are matched by name; imported ones replace existing ones.
Arguments may be globs such as "seeds/**/*.yaml".`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var entities []knowledge.Entity
		for _, pattern := range args {
			loaded, err := teach.LoadSeeds(pattern)
			if err != nil {
				return err
			}
			entities = append(entities, loaded...)
		}
		return withKnowledge(cmd, func(ctx context.Context, kb *knowledge.Base) error {
			if err := kb.Merge(ctx, entities); err != nil {
				return fmt.Errorf("failed to import: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d characters (%d known)\n", len(entities), kb.Len())
			return nil
		})
	},
}

var kbExportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write the knowledge base to a JSON or YAML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withKnowledge(cmd, func(ctx context.Context, kb *knowledge.Base) error {
			if err := teach.WriteSeed(args[0], kb.Entities()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d characters to %s\n", kb.Len(), args[0])
			return nil
		})
	},
}

func init() {
	RootCmd.AddCommand(leaderboardCmd)
	RootCmd.AddCommand(kbCmd)
	kbCmd.AddCommand(kbListCmd)
	kbCmd.AddCommand(kbImportCmd)
	kbCmd.AddCommand(kbExportCmd)

	leaderboardCmd.Flags().IntVarP(&leaderboardSize, "top", "n", 5, "Number of characters to show")
}
