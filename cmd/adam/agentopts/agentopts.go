// Package agentopts wires the agent flags shared by the commands that talk to
// the agent service: it resolves them through viper and builds the client and
// session resolver from the result.
package agentopts

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/adam/pkg/adk"
	"github.com/papercomputeco/adam/pkg/config"
	"github.com/papercomputeco/adam/pkg/dotdir"
	"github.com/papercomputeco/adam/pkg/logger"
	"github.com/papercomputeco/adam/pkg/session"
)

var flagKeys = []string{
	config.FlagBaseURL,
	config.FlagAppName,
	config.FlagUserID,
	config.FlagTimeout,
}

// Options holds the agent flag values of one command.
type Options struct {
	BaseURL string
	AppName string
	UserID  string
	Timeout string

	ConfigDir string
	Debug     bool

	// Config is the resolved configuration, set by Resolve.
	Config *config.Config
	Logger *slog.Logger
}

// Register adds the agent flags to cmd.
func (o *Options) Register(cmd *cobra.Command) {
	config.AddStringFlag(cmd, config.AgentFlags, config.FlagBaseURL, &o.BaseURL)
	config.AddStringFlag(cmd, config.AgentFlags, config.FlagAppName, &o.AppName)
	config.AddStringFlag(cmd, config.AgentFlags, config.FlagUserID, &o.UserID)
	config.AddStringFlag(cmd, config.AgentFlags, config.FlagTimeout, &o.Timeout)
}

// Resolve loads configuration for cmd with flag > env > file > default
// precedence and builds the command logger. Call it from PreRunE.
func (o *Options) Resolve(cmd *cobra.Command, extra ...config.FlagSet) error {
	o.ConfigDir, _ = cmd.Flags().GetString("config-dir")
	o.Debug, _ = cmd.Flags().GetBool("debug")

	v, err := config.InitViper(o.ConfigDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	config.BindRegisteredFlags(v, cmd, config.AgentFlags, flagKeys)
	for _, fs := range extra {
		keys := make([]string, 0, len(fs))
		for k := range fs {
			keys = append(keys, k)
		}
		config.BindRegisteredFlags(v, cmd, fs, keys)
	}

	o.Config = config.Resolve(v)
	o.Logger = NewLogger(cmd.ErrOrStderr(), o.Debug)
	return nil
}

// Client builds the agent client from the resolved configuration.
func (o *Options) Client(transcript io.Writer) *adk.Client {
	return adk.NewClient(adk.Config{
		BaseURL:        o.Config.Agent.BaseURL,
		AppName:        o.Config.Agent.AppName,
		RequestTimeout: o.Config.Agent.TimeoutDuration(),
		Transcript:     transcript,
		Logger:         o.Logger,
	})
}

// Resolver returns the session resolver for client.
func (o *Options) Resolver(client *adk.Client) *session.Resolver {
	return &session.Resolver{
		Agent:     client,
		Store:     dotdir.NewManager(),
		ConfigDir: o.ConfigDir,
		UserID:    o.Config.Agent.UserID,
	}
}

// NewLogger is the logger every CLI command writes diagnostics with.
func NewLogger(w io.Writer, debug bool) *slog.Logger {
	return logger.New(
		logger.WithDebug(debug),
		logger.WithPretty(true),
		logger.WithWriter(w),
	)
}
