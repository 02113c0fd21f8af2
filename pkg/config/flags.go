package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline. This prevents flag drift
// when the same logical flag appears on multiple commands (e.g., --base-url
// on "adam ask", "adam chat" and "adam serve").
type Flag struct {
	// Name is the long flag name (e.g. "base-url").
	Name string

	// Shorthand is the one-letter short flag (e.g. "u"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "agent.base_url").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling AddStringFlag, AddUintFlag,
// and BindRegisteredFlags to avoid typos or drift from one command to another.
const (
	FlagBaseURL          = "base-url"
	FlagAppName          = "app-name"
	FlagUserID           = "user-id"
	FlagTimeout          = "timeout"
	FlagListen           = "listen"
	FlagWorkers          = "workers"
	FlagQueueSize        = "queue-size"
	FlagDashboardTarget  = "dashboard-target"
	FlagStorage          = "storage"
	FlagSQLite           = "sqlite"
	FlagPostgres         = "postgres"
	FlagEventStream      = "eventstream"
	FlagKafkaBrokers     = "kafka-brokers"
	FlagEventStreamTopic = "eventstream-topic"
)

// AgentFlags are the flags every command that talks to the agent service shares.
var AgentFlags = FlagSet{
	FlagBaseURL: {
		Name:        "base-url",
		Shorthand:   "u",
		ViperKey:    "agent.base_url",
		Description: "Agent service base URL",
	},
	FlagAppName: {
		Name:        "app-name",
		Shorthand:   "a",
		ViperKey:    "agent.app_name",
		Description: "Agent app to send messages to",
	},
	FlagUserID: {
		Name:        "user-id",
		ViperKey:    "agent.user_id",
		Description: "Agent service user id (generated when empty)",
	},
	FlagTimeout: {
		Name:        "timeout",
		ViperKey:    "agent.timeout",
		Description: "Timeout for one message exchange (e.g. 60s)",
	},
}

// ServeFlags are the dashboard server flags for "adam serve".
var ServeFlags = FlagSet{
	FlagListen: {
		Name:        "listen",
		Shorthand:   "l",
		ViperKey:    "dashboard.listen",
		Description: "Address for the dashboard server to listen on",
	},
	FlagWorkers: {
		Name:        "workers",
		ViperKey:    "dashboard.workers",
		Description: "Number of workers answering widgets",
	},
	FlagQueueSize: {
		Name:        "queue-size",
		ViperKey:    "dashboard.queue_size",
		Description: "Maximum number of queued widget jobs",
	},
	FlagStorage: {
		Name:        "storage",
		ViperKey:    "storage.provider",
		Description: "Widget storage provider (memory, sqlite, postgres)",
	},
	FlagSQLite: {
		Name:        "sqlite",
		Shorthand:   "s",
		ViperKey:    "storage.sqlite_path",
		Description: "Path to the SQLite widget database",
	},
	FlagPostgres: {
		Name:        "postgres",
		ViperKey:    "storage.postgres_dsn",
		Description: "PostgreSQL connection string for widget storage",
	},
	FlagEventStream: {
		Name:        "eventstream",
		ViperKey:    "eventstream.provider",
		Description: "Widget event publisher (nop, kafka)",
	},
	FlagKafkaBrokers: {
		Name:        "kafka-brokers",
		ViperKey:    "eventstream.brokers",
		Description: "Comma separated Kafka broker addresses",
	},
	FlagEventStreamTopic: {
		Name:        "eventstream-topic",
		ViperKey:    "eventstream.topic",
		Description: "Topic widget events are published to",
	},
}

// BoardFlags are the flags for commands that talk to a running dashboard.
var BoardFlags = FlagSet{
	FlagDashboardTarget: {
		Name:        "dashboard-target",
		Shorthand:   "t",
		ViperKey:    "dashboard.target",
		Description: "URL of the running dashboard server",
	},
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddUintFlag registers a uint flag on cmd from the given FlagSet.
func AddUintFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *uint) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultUint(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().UintVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().UintVar(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

// defaultString returns the default string value for a viper key from NewDefaultConfig.
func defaultString(viperKey string) string {
	v := viper.New()
	setViperDefaults(v)
	return v.GetString(viperKey)
}

// defaultUint returns the default uint value for a viper key from NewDefaultConfig.
func defaultUint(viperKey string) uint {
	v := viper.New()
	setViperDefaults(v)
	return v.GetUint(viperKey)
}
