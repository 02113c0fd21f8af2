package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/papercomputeco/adam/pkg/dotdir"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the ADAM_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (ADAM_AGENT_BASE_URL, ADAM_DASHBOARD_LISTEN, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	// 1. Register all defaults from NewDefaultConfig().
	setViperDefaults(v)

	// 2. Config file discovery via dotdir resolution.
	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// 3. Environment variables: ADAM_AGENT_BASE_URL, ADAM_STORAGE_SQLITE_PATH, etc.
	v.SetEnvPrefix("ADAM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Agent
	v.SetDefault("agent.base_url", d.Agent.BaseURL)
	v.SetDefault("agent.app_name", d.Agent.AppName)
	v.SetDefault("agent.user_id", d.Agent.UserID)
	v.SetDefault("agent.timeout", d.Agent.Timeout)

	// Dashboard
	v.SetDefault("dashboard.listen", d.Dashboard.Listen)
	v.SetDefault("dashboard.workers", d.Dashboard.Workers)
	v.SetDefault("dashboard.queue_size", d.Dashboard.QueueSize)
	v.SetDefault("dashboard.target", d.Dashboard.Target)

	// Storage
	v.SetDefault("storage.provider", d.Storage.Provider)
	v.SetDefault("storage.sqlite_path", d.Storage.SQLitePath)
	v.SetDefault("storage.postgres_dsn", d.Storage.PostgresDSN)

	// Event stream
	v.SetDefault("eventstream.provider", d.EventStream.Provider)
	v.SetDefault("eventstream.brokers", d.EventStream.Brokers)
	v.SetDefault("eventstream.topic", d.EventStream.Topic)
}

// Resolve reads the effective configuration out of v after flags, env and
// the config file have been layered.
func Resolve(v *viper.Viper) *Config {
	return &Config{
		Version: v.GetInt("version"),
		Agent: AgentConfig{
			BaseURL: v.GetString("agent.base_url"),
			AppName: v.GetString("agent.app_name"),
			UserID:  v.GetString("agent.user_id"),
			Timeout: v.GetString("agent.timeout"),
		},
		Dashboard: DashboardConfig{
			Listen:    v.GetString("dashboard.listen"),
			Workers:   v.GetUint("dashboard.workers"),
			QueueSize: v.GetUint("dashboard.queue_size"),
			Target:    v.GetString("dashboard.target"),
		},
		Storage: StorageConfig{
			Provider:    v.GetString("storage.provider"),
			SQLitePath:  v.GetString("storage.sqlite_path"),
			PostgresDSN: v.GetString("storage.postgres_dsn"),
		},
		EventStream: EventStreamConfig{
			Provider: v.GetString("eventstream.provider"),
			Brokers:  v.GetString("eventstream.brokers"),
			Topic:    v.GetString("eventstream.topic"),
		},
	}
}

// TimeoutDuration parses Timeout, falling back to the default on empty or
// invalid values.
func (a AgentConfig) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(a.Timeout)
	if err != nil || d <= 0 {
		d, _ = time.ParseDuration(defaultAgentTimeout)
	}
	return d
}

// BrokerList splits Brokers into trimmed, non-empty addresses.
func (e EventStreamConfig) BrokerList() []string {
	var brokers []string
	for _, b := range strings.Split(e.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
