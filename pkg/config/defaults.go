package config

// Storage and event stream provider names.
const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"

	EventStreamNop   = "nop"
	EventStreamKafka = "kafka"
)

const (
	defaultAgentBaseURL = "http://localhost:8000"
	defaultAgentAppName = "tradingadvisor"
	defaultAgentTimeout = "60s"

	defaultDashboardListen    = ":8501"
	defaultDashboardWorkers   = 3
	defaultDashboardQueueSize = 256
	defaultDashboardTarget    = "http://localhost:8501"

	defaultEventStreamTopic = "adam.widgets"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Agent: AgentConfig{
			BaseURL: defaultAgentBaseURL,
			AppName: defaultAgentAppName,
			Timeout: defaultAgentTimeout,
		},
		Dashboard: DashboardConfig{
			Listen:    defaultDashboardListen,
			Workers:   defaultDashboardWorkers,
			QueueSize: defaultDashboardQueueSize,
			Target:    defaultDashboardTarget,
		},
		Storage: StorageConfig{
			Provider: StorageMemory,
		},
		EventStream: EventStreamConfig{
			Provider: EventStreamNop,
			Topic:    defaultEventStreamTopic,
		},
	}
}
