// Package healthcmder provides the health command for checking that the
// agent service is reachable and hosts the configured app.
package healthcmder

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/adam/cmd/adam/agentopts"
	"github.com/papercomputeco/adam/pkg/cliui"
)

var errAppNotFound = errors.New("app not found on agent service")

type healthCommander struct {
	agentopts.Options

	jsonOutput bool
}

const healthLongDesc string = `Check the agent service.

Lists the apps hosted by the agent service and reports whether the configured
app is among them. Exits non-zero when the service is unreachable or the app
is missing.

Examples:
  adam health
  adam health --base-url http://agent:8000 --json`

const healthShortDesc string = "Check the agent service"

func NewHealthCmd() *cobra.Command {
	cmder := &healthCommander{}

	cmd := &cobra.Command{
		Use:   "health",
		Short: healthShortDesc,
		Long:  healthLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.Resolve(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd)
		},
	}

	cmder.Register(cmd)
	cmd.Flags().BoolVar(&cmder.jsonOutput, "json", false, "Print the health report as JSON")

	return cmd
}

func (c *healthCommander) run(cmd *cobra.Command) error {
	client := c.Client(nil)
	out := cmd.OutOrStdout()

	report, err := client.Health(cmd.Context())

	if c.jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(report); encErr != nil {
			return fmt.Errorf("encoding report: %w", encErr)
		}
	} else {
		fmt.Fprintf(out, "\n  %s %s %s\n",
			cliui.Mark(err),
			cliui.KeyStyle.Render("Agent:"),
			cliui.ValueStyle.Render(client.BaseURL()),
		)
		if err == nil {
			fmt.Fprintf(out, "  %s %s %s\n",
				cliui.DimStyle.Render(" "),
				cliui.KeyStyle.Render("Apps: "),
				cliui.ValueStyle.Render(strings.Join(report.Apps, ", ")),
			)
			var appErr error
			if !report.AppFound {
				appErr = errAppNotFound
			}
			fmt.Fprintf(out, "  %s %s %s\n",
				cliui.Mark(appErr),
				cliui.KeyStyle.Render("App:  "),
				cliui.NameStyle.Render(report.AppName),
			)
		}
		fmt.Fprintln(out)
	}

	if err != nil {
		return fmt.Errorf("agent service unreachable: %w", err)
	}
	if !report.AppFound {
		return fmt.Errorf("%w: %s", errAppNotFound, report.AppName)
	}
	return nil
}
