// Package configcmder provides the config command for managing persistent
// adam configuration stored in the .adam/ directory.
package configcmder

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/adam/pkg/cliui"
	"github.com/papercomputeco/adam/pkg/config"
)

const configLongDesc string = `Manage persistent adam configuration.

Configuration is stored as config.toml in the .adam/ directory and provides
default values for command flags. CLI flags and ADAM_* environment variables
always take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  agent.base_url, agent.app_name, agent.user_id, agent.timeout,
  dashboard.listen, dashboard.workers, dashboard.queue_size, dashboard.target,
  storage.provider, storage.sqlite_path, storage.postgres_dsn,
  eventstream.provider, eventstream.brokers, eventstream.topic

Use subcommands to get, set, or list configuration values:
  adam config set <key> <value>    Set a configuration value
  adam config get <key>            Get a configuration value
  adam config list                 List all configuration values

Examples:
  adam config set agent.base_url http://agent:8000
  adam config set storage.provider sqlite
  adam config get agent.app_name
  adam config list`

const configShortDesc string = "Manage persistent adam configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func validateKey(key string) error {
	if !config.IsValidConfigKey(key) {
		return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
			key, strings.Join(config.ValidConfigKeys(), ", "))
	}
	return nil
}

func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func printTarget(out io.Writer, cfger *config.Configer) {
	target := cfger.GetTarget()
	if target != "" {
		fmt.Fprintf(out, "\n  %s %s\n\n",
			cliui.KeyStyle.Render("Config file:"),
			cliui.DimStyle.Render(target),
		)
	} else {
		fmt.Fprintf(out, "\n  %s\n\n", cliui.DimStyle.Render("No config file found. Using defaults."))
	}
}
