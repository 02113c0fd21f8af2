// Package chatcmder provides the chat command for an interactive
// conversation with the agent.
package chatcmder

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/adam/cmd/adam/agentopts"
	"github.com/papercomputeco/adam/pkg/adk"
	"github.com/papercomputeco/adam/pkg/cliui"
	"github.com/papercomputeco/adam/pkg/dotdir"
	"github.com/papercomputeco/adam/pkg/session"
	"github.com/papercomputeco/adam/pkg/utils"
	"github.com/papercomputeco/adam/pkg/widget"
)

var (
	userPrompt      = cliui.PromptStyle.Render("you> ")
	assistantPrompt = cliui.DimStyle.Render("agent> ")
)

type chatCommander struct {
	agentopts.Options

	in  io.Reader
	out io.Writer
}

const chatLongDesc string = `Start an interactive conversation with the agent.

Every message is sent in the saved agent session, so the agent keeps the
context of earlier turns, including those from "adam ask". Replies are
rendered as widgets the same way "adam ask" renders them.

Commands:
  /new     start a new agent session
  /exit    quit (Ctrl+D works too)

Examples:
  adam chat
  adam chat --app-name tradingadvisor --base-url http://localhost:8000`

const chatShortDesc string = "Interactive conversation with the agent"

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.Resolve(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.in = cmd.InOrStdin()
			cmder.out = cmd.OutOrStdout()
			return cmder.run(cmd.Context())
		},
	}

	cmder.Register(cmd)

	return cmd
}

func (c *chatCommander) run(ctx context.Context) error {
	client := c.Client(nil)
	resolver := c.Resolver(client)

	state, created, err := resolver.Ensure(ctx)
	if err != nil {
		return fmt.Errorf("starting agent session: %w", err)
	}

	fmt.Fprintln(c.out)
	c.printSession(state, created)
	fmt.Fprintf(c.out, "  %s %s\n\n",
		cliui.KeyStyle.Render("App:"),
		cliui.NameStyle.Render(client.AppName()),
	)
	fmt.Fprintf(c.out, "  %s\n\n", cliui.DimStyle.Render("Type your message and press Enter. /new for a new session, /exit or Ctrl+D to quit."))

	opts := cliui.RenderOptions{
		Markdown: cliui.IsTerminal(c.out),
		Width:    cliui.Width(c.out),
	}

	scanner := bufio.NewScanner(c.in)
	for {
		fmt.Fprint(c.out, userPrompt)
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		switch input {
		case "":
			continue
		case "/exit":
			fmt.Fprintln(c.out)
			return nil
		case "/new":
			renewed, err := c.renew(ctx, resolver)
			if err != nil {
				fmt.Fprintf(c.out, "  %s %v\n\n", cliui.FailMark, err)
				continue
			}
			state = renewed
			continue
		}

		w := c.send(ctx, client, state, input)
		fmt.Fprint(c.out, assistantPrompt)
		fmt.Fprint(c.out, cliui.RenderWidgetBody(w, opts))
		fmt.Fprintln(c.out)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	fmt.Fprintln(c.out)
	return nil
}

func (c *chatCommander) send(ctx context.Context, client *adk.Client, state *dotdir.SessionState, text string) *widget.Widget {
	reply, err := client.SendMessage(ctx, state.UserID, state.SessionID, text)
	if err != nil {
		c.Logger.Debug("message failed", "session_id", state.SessionID, "error", err)
	}

	w := widget.FromReply(text, reply, err)
	w.SessionID = state.SessionID
	return w
}

func (c *chatCommander) renew(ctx context.Context, resolver *session.Resolver) (*dotdir.SessionState, error) {
	state, err := resolver.Renew(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	fmt.Fprintln(c.out)
	c.printSession(state, true)
	fmt.Fprintln(c.out)
	return state, nil
}

func (c *chatCommander) printSession(state *dotdir.SessionState, created bool) {
	label := "Resuming session"
	if created {
		label = "New session"
	}

	fmt.Fprintf(c.out, "  %s %s %s\n",
		cliui.SuccessMark,
		label,
		cliui.NameStyle.Render(utils.Truncate(state.SessionID, 16)),
	)
}
