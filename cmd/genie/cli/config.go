package cli

import (
	"fmt"

	"github.com/felixgeelhaar/genie/internal/config"
	"github.com/felixgeelhaar/genie/internal/ui"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Set(cfgFile, args[0], args[1]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Set %s\n", args[0])
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := config.New(cfgFile)
		if err != nil {
			return err
		}
		val, err := config.Get(v, args[0])
		if err != nil {
			return err
		}
		if val == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "(not set)")
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), val)
		}
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every configuration key with its effective value",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := config.New(cfgFile)
		if err != nil {
			return err
		}
		var settings []ui.Setting
		for _, key := range config.Keys() {
			val, _ := config.Get(v, key)
			settings = append(settings, ui.Setting{Key: key, Value: val, Source: config.Source(v, key)})
		}
		out, err := ui.RenderSettings(settings)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configListCmd)
}
