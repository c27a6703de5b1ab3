package commands

import (
	"encoding/json"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/teranos/buildamp/config"
	"github.com/teranos/buildamp/errors"
)

// ConfigCmd groups configuration commands.
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or create buildamp configuration",
	Long: `Show the merged configuration or write a starter buildamp.toml.

Configuration sources (later overrides earlier):
  1. Built-in defaults
  2. /etc/buildamp/config.toml
  3. ~/.buildamp/config.toml
  4. buildamp.toml (searched upward from the working directory)
  5. BUILDAMP_* environment variables (.env is read when present)`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the merged configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter buildamp.toml",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configFormat string

func init() {
	configShowCmd.Flags().StringVar(&configFormat, "format", "toml", "Output format: toml, json, yaml")

	ConfigCmd.AddCommand(configShowCmd)
	ConfigCmd.AddCommand(configInitCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	loaded, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, f := range loaded.Files {
		fmt.Fprintf(out, "# from %s\n", f)
	}

	switch configFormat {
	case "json":
		data, err := json.MarshalIndent(loaded.Config, "", "  ")
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to JSON")
		}
		fmt.Fprintln(out, string(data))
	case "yaml":
		data, err := yaml.Marshal(loaded.Config)
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to YAML")
		}
		fmt.Fprint(out, string(data))
	case "toml":
		data, err := config.Marshal(loaded.Config)
		if err != nil {
			return err
		}
		fmt.Fprint(out, string(data))
	default:
		return errors.Newf("unsupported format: %s (supported: toml, json, yaml)", configFormat)
	}
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	dir, err := projectDir(cmd)
	if err != nil {
		return err
	}
	path, err := config.WriteDefault(dir)
	if err != nil {
		return err
	}
	pterm.Success.Printf("Wrote %s\n", path)
	return nil
}
