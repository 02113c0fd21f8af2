// Package adamcmder is the root of the adam command tree.
package adamcmder

import (
	"github.com/spf13/cobra"

	askcmder "github.com/papercomputeco/adam/cmd/adam/ask"
	boardcmder "github.com/papercomputeco/adam/cmd/adam/board"
	chatcmder "github.com/papercomputeco/adam/cmd/adam/chat"
	configcmder "github.com/papercomputeco/adam/cmd/adam/config"
	healthcmder "github.com/papercomputeco/adam/cmd/adam/health"
	initcmder "github.com/papercomputeco/adam/cmd/adam/init"
	servecmder "github.com/papercomputeco/adam/cmd/adam/serve"
	sessioncmder "github.com/papercomputeco/adam/cmd/adam/session"
	versioncmder "github.com/papercomputeco/adam/cmd/version"
)

const adamLongDesc string = `adam is a dashboard client for ADK agents.

Messages are sent to the agent's /run_sse endpoint and the streamed reply
is reconciled into one answer, with reasoning and planning parts removed.
Answers are rendered as text, table, image or error widgets.

Talk to the agent directly:
  adam ask <message>    Send one message
  adam chat             Interactive conversation
  adam session          Manage the saved agent session
  adam health           Check the agent service

Run the dashboard:
  adam serve            Run the dashboard server
  adam board            Work with the board of a running dashboard`

const adamShortDesc string = "adam - agent dashboard"

func NewAdamCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "adam",
		Short:         adamShortDesc,
		Long:          adamLongDesc,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to the .adam/ config directory")

	// Add subcommands
	cmd.AddCommand(askcmder.NewAskCmd())
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(sessioncmder.NewSessionCmd())
	cmd.AddCommand(healthcmder.NewHealthCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(boardcmder.NewBoardCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
