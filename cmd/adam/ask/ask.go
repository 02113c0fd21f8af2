// Package askcmder provides the ask command: send one message to the agent
// and render the reconciled reply as a widget.
package askcmder

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/adam/cmd/adam/agentopts"
	"github.com/papercomputeco/adam/pkg/adk"
	"github.com/papercomputeco/adam/pkg/cliui"
	"github.com/papercomputeco/adam/pkg/widget"
)

type askCommander struct {
	agentopts.Options

	jsonOutput bool
	raw        bool
	transcript string
}

const askLongDesc string = `Send one message to the agent and print the reply.

The reply stream is reconciled into a single answer: reasoning and planning
parts are dropped and the final text parts are joined in arrival order. The
answer is then shown as a widget: JSON answers carrying "data" render as a
table, "image"/"chart" answers as an image link, "error" answers as an error,
and anything else as markdown text.

The agent session saved in the .adam directory is reused. A new one is created
when none exists or it belongs to a different agent.

Examples:
  adam ask "what is the price of AAPL?"
  adam ask --json "show my portfolio"
  adam ask --base-url http://agent:8000 --app-name tradingadvisor "hello"`

const askShortDesc string = "Send one message to the agent"

func NewAskCmd() *cobra.Command {
	cmder := &askCommander{}

	cmd := &cobra.Command{
		Use:   "ask <message>",
		Short: askShortDesc,
		Long:  askLongDesc,
		Args:  cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.Resolve(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd, strings.Join(args, " "))
		},
	}

	cmder.Register(cmd)
	cmd.Flags().BoolVar(&cmder.jsonOutput, "json", false, "Print the widget as JSON")
	cmd.Flags().BoolVar(&cmder.raw, "raw", false, "Print only the reconciled answer text")
	cmd.Flags().StringVar(&cmder.transcript, "transcript", "", "Write the raw response stream to this file")

	return cmd
}

func (c *askCommander) run(cmd *cobra.Command, message string) error {
	message = strings.TrimSpace(message)
	if message == "" {
		return fmt.Errorf("message is empty")
	}

	var transcript io.Writer
	if c.transcript != "" {
		f, err := os.Create(c.transcript)
		if err != nil {
			return fmt.Errorf("creating transcript: %w", err)
		}
		defer f.Close()
		transcript = f
	}

	ctx := cmd.Context()
	client := c.Client(transcript)

	state, created, err := c.Resolver(client).Ensure(ctx)
	if err != nil {
		return fmt.Errorf("starting agent session: %w", err)
	}
	if created {
		c.Logger.Debug("created agent session",
			"user_id", state.UserID,
			"session_id", state.SessionID,
		)
	}

	var reply *adk.Reply
	send := func() error {
		var err error
		reply, err = client.SendMessage(ctx, state.UserID, state.SessionID, message)
		return err
	}

	var sendErr error
	if spin := cmd.ErrOrStderr(); cliui.IsTerminal(spin) && !c.jsonOutput && !c.raw {
		sendErr = cliui.Step(spin, "Waiting for "+client.AppName(), send)
	} else {
		sendErr = send()
	}

	w := widget.FromReply(message, reply, sendErr)
	w.SessionID = state.SessionID

	out := cmd.OutOrStdout()
	switch {
	case c.jsonOutput:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(w); err != nil {
			return fmt.Errorf("encoding widget: %w", err)
		}
	case c.raw:
		if sendErr == nil {
			fmt.Fprintln(out, reply.Message)
		}
	default:
		fmt.Fprint(out, cliui.RenderWidget(w, cliui.RenderOptions{
			Markdown: cliui.IsTerminal(out),
			Width:    cliui.Width(out),
		}))
	}

	if sendErr != nil {
		return fmt.Errorf("sending message: %w", sendErr)
	}
	return nil
}
