// Package boardcmder provides the board command for working with the widget
// board of a running dashboard server.
package boardcmder

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/adam/api"
	"github.com/papercomputeco/adam/pkg/cliui"
	"github.com/papercomputeco/adam/pkg/config"
	"github.com/papercomputeco/adam/pkg/widget"
)

const boardLongDesc string = `Work with the widget board of a running dashboard ("adam serve").

Subcommands:
  adam board list           Show every widget, oldest first
  adam board show <id>      Show one widget
  adam board add <message>  Ask the agent and add the reply to the board
  adam board rm <id>        Remove a widget
  adam board clear          Remove every widget

The dashboard address comes from --dashboard-target, ADAM_DASHBOARD_TARGET
or dashboard.target in config.toml.`

const boardShortDesc string = "Work with the dashboard widget board"

type boardCommander struct {
	target     string
	jsonOutput bool

	client *api.Client
}

func NewBoardCmd() *cobra.Command {
	cmder := &boardCommander{}

	cmd := &cobra.Command{
		Use:   "board",
		Short: boardShortDesc,
		Long:  boardLongDesc,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, config.BoardFlags, []string{config.FlagDashboardTarget})
			cmder.client = api.NewClient(config.Resolve(v).Dashboard.Target, nil)
			return nil
		},
	}

	def := config.BoardFlags[config.FlagDashboardTarget]
	cmd.PersistentFlags().StringVarP(&cmder.target, def.Name, def.Shorthand, config.NewDefaultConfig().Dashboard.Target, def.Description)
	cmd.PersistentFlags().BoolVar(&cmder.jsonOutput, "json", false, "Print widgets as JSON")

	cmd.AddCommand(cmder.newListCmd())
	cmd.AddCommand(cmder.newShowCmd())
	cmd.AddCommand(cmder.newAddCmd())
	cmd.AddCommand(cmder.newRmCmd())
	cmd.AddCommand(cmder.newClearCmd())

	return cmd
}

func (c *boardCommander) newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show every widget, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			widgets, err := c.client.ListWidgets(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing widgets: %w", err)
			}

			out := cmd.OutOrStdout()
			if c.jsonOutput {
				return writeJSON(out, widgets)
			}

			if len(widgets) == 0 {
				fmt.Fprintf(out, "  %s The board is empty.\n", cliui.DimStyle.Render("●"))
				return nil
			}

			opts := renderOptions(out)
			for _, w := range widgets {
				fmt.Fprintln(out, cliui.RenderWidget(w, opts))
			}
			return nil
		},
	}
}

func (c *boardCommander) newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one widget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := c.client.GetWidget(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("getting widget: %w", err)
			}
			return c.print(cmd.OutOrStdout(), w)
		},
	}
}

func (c *boardCommander) newAddCmd() *cobra.Command {
	var (
		wait     bool
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "add <message>",
		Short: "Ask the agent and add the reply to the board",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			w, err := c.client.CreateWidget(ctx, strings.Join(args, " "))
			if err != nil {
				return fmt.Errorf("adding widget: %w", err)
			}

			if wait {
				w, err = c.client.WaitWidget(ctx, w.ID, interval)
				if err != nil {
					return fmt.Errorf("waiting for widget: %w", err)
				}
			}

			return c.print(cmd.OutOrStdout(), w)
		},
	}

	cmd.Flags().BoolVarP(&wait, "wait", "w", true, "Wait for the agent to answer")
	cmd.Flags().DurationVar(&interval, "poll-interval", 500*time.Millisecond, "How often to check a pending widget")

	return cmd
}

func (c *boardCommander) newRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>...",
		Short: "Remove widgets",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, id := range args {
				if err := c.client.DeleteWidget(cmd.Context(), id); err != nil {
					return fmt.Errorf("removing widget %s: %w", id, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "  %s Removed %s\n", cliui.SuccessMark, id)
			}
			return nil
		},
	}
}

func (c *boardCommander) newClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every widget",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := c.client.ClearWidgets(cmd.Context())
			if err != nil {
				return fmt.Errorf("clearing board: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "  %s Removed %d widgets\n", cliui.SuccessMark, n)
			return nil
		},
	}
}

func (c *boardCommander) print(out io.Writer, w *widget.Widget) error {
	if c.jsonOutput {
		return writeJSON(out, w)
	}
	fmt.Fprint(out, cliui.RenderWidget(w, renderOptions(out)))
	return nil
}

func renderOptions(out io.Writer) cliui.RenderOptions {
	return cliui.RenderOptions{
		Markdown: cliui.IsTerminal(out),
		Width:    cliui.Width(out),
	}
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}
	return nil
}
