package config

import (
	"fmt"
	"strconv"
	"time"
)

// Config represents the persistent adam configuration stored as config.toml
// in the .adam/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	Agent       AgentConfig       `toml:"agent"`
	Dashboard   DashboardConfig   `toml:"dashboard"`
	Storage     StorageConfig     `toml:"storage"`
	EventStream EventStreamConfig `toml:"eventstream"`
}

// AgentConfig holds settings for the remote agent service.
type AgentConfig struct {
	// BaseURL is the agent service root (scheme + host + port).
	BaseURL string `toml:"base_url,omitempty"`

	// AppName is the agent app messages are routed to.
	AppName string `toml:"app_name,omitempty"`

	// UserID pins the agent service user. Empty generates one per session.
	UserID string `toml:"user_id,omitempty"`

	// Timeout bounds one message exchange, e.g. "60s".
	Timeout string `toml:"timeout,omitempty"`
}

// DashboardConfig holds dashboard server settings.
type DashboardConfig struct {
	Listen    string `toml:"listen,omitempty"`
	Workers   uint   `toml:"workers,omitempty"`
	QueueSize uint   `toml:"queue_size,omitempty"`

	// Target is the dashboard URL used by CLI commands such as adam board.
	Target string `toml:"target,omitempty"`
}

// StorageConfig selects where the dashboard keeps its widget board.
type StorageConfig struct {
	// Provider is one of "memory", "sqlite" or "postgres".
	Provider    string `toml:"provider,omitempty"`
	SQLitePath  string `toml:"sqlite_path,omitempty"`
	PostgresDSN string `toml:"postgres_dsn,omitempty"`
}

// EventStreamConfig selects where widget completion events are published.
type EventStreamConfig struct {
	// Provider is one of "nop" or "kafka".
	Provider string `toml:"provider,omitempty"`

	// Brokers is a comma separated list of Kafka broker addresses.
	Brokers string `toml:"brokers,omitempty"`
	Topic   string `toml:"topic,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func uintKey(name string, field func(c *Config) *uint) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if *field(c) == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(*field(c)), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = uint(n)
			return nil
		},
	}
}

func oneOfKey(name string, field func(c *Config) *string, allowed ...string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error {
			for _, a := range allowed {
				if v == a {
					*field(c) = v
					return nil
				}
			}
			return fmt.Errorf("invalid value for %s: %q (expected one of %v)", name, v, allowed)
		},
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"agent.base_url": {
		get: func(c *Config) string { return c.Agent.BaseURL },
		set: func(c *Config, v string) error { c.Agent.BaseURL = v; return nil },
	},
	"agent.app_name": {
		get: func(c *Config) string { return c.Agent.AppName },
		set: func(c *Config, v string) error { c.Agent.AppName = v; return nil },
	},
	"agent.user_id": {
		get: func(c *Config) string { return c.Agent.UserID },
		set: func(c *Config, v string) error { c.Agent.UserID = v; return nil },
	},
	"agent.timeout": {
		get: func(c *Config) string { return c.Agent.Timeout },
		set: func(c *Config, v string) error {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid value for agent.timeout: %w", err)
			}
			if d <= 0 {
				return fmt.Errorf("invalid value for agent.timeout: must be positive")
			}
			c.Agent.Timeout = v
			return nil
		},
	},
	"dashboard.listen": {
		get: func(c *Config) string { return c.Dashboard.Listen },
		set: func(c *Config, v string) error { c.Dashboard.Listen = v; return nil },
	},
	"dashboard.workers":    uintKey("dashboard.workers", func(c *Config) *uint { return &c.Dashboard.Workers }),
	"dashboard.queue_size": uintKey("dashboard.queue_size", func(c *Config) *uint { return &c.Dashboard.QueueSize }),
	"dashboard.target": {
		get: func(c *Config) string { return c.Dashboard.Target },
		set: func(c *Config, v string) error { c.Dashboard.Target = v; return nil },
	},
	"storage.provider": oneOfKey("storage.provider", func(c *Config) *string { return &c.Storage.Provider },
		StorageMemory, StorageSQLite, StoragePostgres),
	"storage.sqlite_path": {
		get: func(c *Config) string { return c.Storage.SQLitePath },
		set: func(c *Config, v string) error { c.Storage.SQLitePath = v; return nil },
	},
	"storage.postgres_dsn": {
		get: func(c *Config) string { return c.Storage.PostgresDSN },
		set: func(c *Config, v string) error { c.Storage.PostgresDSN = v; return nil },
	},
	"eventstream.provider": oneOfKey("eventstream.provider", func(c *Config) *string { return &c.EventStream.Provider },
		EventStreamNop, EventStreamKafka),
	"eventstream.brokers": {
		get: func(c *Config) string { return c.EventStream.Brokers },
		set: func(c *Config, v string) error { c.EventStream.Brokers = v; return nil },
	},
	"eventstream.topic": {
		get: func(c *Config) string { return c.EventStream.Topic },
		set: func(c *Config, v string) error { c.EventStream.Topic = v; return nil },
	},
}
