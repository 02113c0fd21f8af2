// Package sessioncmder provides the session command for managing the agent
// session saved in the .adam directory.
package sessioncmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/adam/cmd/adam/agentopts"
	"github.com/papercomputeco/adam/pkg/cliui"
	"github.com/papercomputeco/adam/pkg/dotdir"
)

const sessionLongDesc string = `Manage the saved agent session.

"adam ask" and "adam chat" resume the session stored in .adam/session.json.
Use these subcommands to inspect it, replace it, or forget it:
  adam session show     Show the saved session
  adam session new      Create a new session on the agent service
  adam session clear    Forget the saved session`

const sessionShortDesc string = "Manage the saved agent session"

func NewSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: sessionShortDesc,
		Long:  sessionLongDesc,
	}

	cmd.AddCommand(newShowCmd())
	cmd.AddCommand(newNewCmd())
	cmd.AddCommand(newClearCmd())

	return cmd
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")

			state, err := dotdir.NewManager().LoadSessionState(configDir)
			if err != nil {
				return fmt.Errorf("loading session: %w", err)
			}

			out := cmd.OutOrStdout()
			if state == nil {
				fmt.Fprintf(out, "  %s No saved session. The next message will start a new one.\n", cliui.DimStyle.Render("●"))
				return nil
			}

			printState(out, state)
			return nil
		},
	}
}

func newNewCmd() *cobra.Command {
	opts := &agentopts.Options{}

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create a new agent session",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.Resolve(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			state, err := opts.Resolver(opts.Client(nil)).Renew(cmd.Context())
			if err != nil {
				return fmt.Errorf("creating session: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "  %s Created session\n", cliui.SuccessMark)
			printState(out, state)
			return nil
		},
	}

	opts.Register(cmd)

	return cmd
}

func newClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Forget the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")

			if err := dotdir.NewManager().ClearSession(configDir); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "  %s Cleared saved session\n", cliui.SuccessMark)
			return nil
		},
	}
}

func printState(out io.Writer, state *dotdir.SessionState) {
	rows := [][2]string{
		{"Agent:     ", state.BaseURL},
		{"App:       ", state.AppName},
		{"User:      ", state.UserID},
		{"Session:   ", state.SessionID},
		{"Created at:", state.CreatedAt.Local().Format("2006-01-02 15:04:05")},
	}

	fmt.Fprintln(out)
	for _, row := range rows {
		fmt.Fprintf(out, "  %s  %s\n", cliui.KeyStyle.Render(row[0]), cliui.ValueStyle.Render(row[1]))
	}
	fmt.Fprintln(out)
}
