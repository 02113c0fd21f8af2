// Package servecmder provides the serve command that runs the dashboard
// server: the widget board API backed by a worker pool answering widgets
// against the agent service.
package servecmder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/adam/api"
	"github.com/papercomputeco/adam/cmd/adam/agentopts"
	"github.com/papercomputeco/adam/pkg/config"
	"github.com/papercomputeco/adam/pkg/eventstream"
	"github.com/papercomputeco/adam/pkg/eventstream/kafka"
	"github.com/papercomputeco/adam/pkg/eventstream/nop"
	"github.com/papercomputeco/adam/pkg/logger"
	"github.com/papercomputeco/adam/pkg/storage"
	"github.com/papercomputeco/adam/pkg/storage/inmemory"
	"github.com/papercomputeco/adam/pkg/storage/postgres"
	"github.com/papercomputeco/adam/pkg/storage/sqlite"
	"github.com/papercomputeco/adam/pkg/worker"
)

type ServeCommander struct {
	agentopts.Options

	listen      string
	workers     uint
	queueSize   uint
	storage     string
	sqlitePath  string
	postgresDSN string
	eventStream string
	brokers     string
	topic       string

	logFile  string
	jsonLogs bool
	mcp      bool

	logger *slog.Logger
}

const serveLongDesc string = `Run the adam dashboard server.

The dashboard keeps a board of widgets. POST /api/widgets accepts a prompt
and returns a pending widget immediately; a worker sends the prompt to the
agent, reconciles the streamed reply, classifies it as a text, table, image
or error widget and stores it on the board.

Widgets are stored in memory by default. Use --storage sqlite or
--storage postgres to keep the board across restarts. Completed widgets can be
published to Kafka with --eventstream kafka. MCP clients can ask the agent
and read the board through the tools served at /mcp.

Examples:
  adam serve
  adam serve --listen :9000 --storage sqlite --sqlite ./adam.db
  adam serve --eventstream kafka --kafka-brokers localhost:9092`

const serveShortDesc string = "Run the adam dashboard server"

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.Resolve(cmd, config.ServeFlags)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.Context(), cmd.ErrOrStderr())
		},
	}

	cmder.Register(cmd)
	config.AddStringFlag(cmd, config.ServeFlags, config.FlagListen, &cmder.listen)
	config.AddUintFlag(cmd, config.ServeFlags, config.FlagWorkers, &cmder.workers)
	config.AddUintFlag(cmd, config.ServeFlags, config.FlagQueueSize, &cmder.queueSize)
	config.AddStringFlag(cmd, config.ServeFlags, config.FlagStorage, &cmder.storage)
	config.AddStringFlag(cmd, config.ServeFlags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, config.ServeFlags, config.FlagPostgres, &cmder.postgresDSN)
	config.AddStringFlag(cmd, config.ServeFlags, config.FlagEventStream, &cmder.eventStream)
	config.AddStringFlag(cmd, config.ServeFlags, config.FlagKafkaBrokers, &cmder.brokers)
	config.AddStringFlag(cmd, config.ServeFlags, config.FlagEventStreamTopic, &cmder.topic)
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also write JSON logs to this file")
	cmd.Flags().BoolVar(&cmder.jsonLogs, "json-logs", false, "Write JSON logs instead of pretty output")
	cmd.Flags().BoolVar(&cmder.mcp, "mcp", true, "Serve the board MCP tools at /mcp")

	return cmd
}

func (c *ServeCommander) run(ctx context.Context, stderr io.Writer) error {
	var err error
	c.logger, err = c.buildLogger(stderr)
	if err != nil {
		return err
	}
	c.Logger = c.logger

	cfg := c.Config

	driver, err := NewDriver(ctx, cfg.Storage, c.logger)
	if err != nil {
		return err
	}
	defer driver.Close()

	publisher, err := NewPublisher(cfg.EventStream, c.logger)
	if err != nil {
		return err
	}
	defer publisher.Close()

	client := c.Client(nil)

	pool, err := worker.NewPool(&worker.Config{
		Driver:     driver,
		Sender:     client,
		Publisher:  publisher,
		AppName:    client.AppName(),
		NumWorkers: cfg.Dashboard.Workers,
		QueueSize:  cfg.Dashboard.QueueSize,
		Logger:     c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating worker pool: %w", err)
	}
	defer pool.Close()

	server := api.NewServer(api.Config{
		ListenAddr: cfg.Dashboard.Listen,
		UserID:     cfg.Agent.UserID,
	}, driver, client, pool, c.logger)

	if c.mcp {
		if err := server.EnableMCP(client); err != nil {
			return err
		}
	}

	c.logger.Info("agent service",
		"base_url", client.BaseURL(),
		"app_name", client.AppName(),
		"workers", cfg.Dashboard.Workers,
	)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("dashboard server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", "signal", sig.String())
	case <-ctx.Done():
		c.logger.Info("context done, shutting down")
	}

	if err := server.Shutdown(); err != nil {
		c.logger.Warn("dashboard server shutdown", "error", err)
	}
	return nil
}

func (c *ServeCommander) buildLogger(stderr io.Writer) (*slog.Logger, error) {
	console := logger.New(
		logger.WithDebug(c.Debug),
		logger.WithPretty(!c.jsonLogs),
		logger.WithJSON(c.jsonLogs),
		logger.WithWriter(stderr),
	)
	if c.logFile == "" {
		return console, nil
	}

	f, err := os.OpenFile(c.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	file := logger.New(
		logger.WithDebug(c.Debug),
		logger.WithJSON(true),
		logger.WithWriter(f),
	)
	return logger.Multi(console, file), nil
}

// NewDriver opens the widget storage selected by cfg.
func NewDriver(ctx context.Context, cfg config.StorageConfig, log *slog.Logger) (storage.Driver, error) {
	switch cfg.Provider {
	case "", config.StorageMemory:
		log.Info("using in-memory storage")
		return inmemory.NewDriver(), nil

	case config.StorageSQLite:
		if cfg.SQLitePath == "" {
			return nil, fmt.Errorf("sqlite storage requires --sqlite or storage.sqlite_path")
		}
		drv, err := sqlite.NewDriver(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite driver: %w", err)
		}
		log.Info("using SQLite storage", "path", cfg.SQLitePath)
		return drv, nil

	case config.StoragePostgres:
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("postgres storage requires --postgres or storage.postgres_dsn")
		}
		drv, err := postgres.NewDriver(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to create PostgreSQL driver: %w", err)
		}
		log.Info("using PostgreSQL storage")
		return drv, nil

	default:
		return nil, fmt.Errorf("unknown storage provider: %q", cfg.Provider)
	}
}

// NewPublisher builds the widget event publisher selected by cfg.
func NewPublisher(cfg config.EventStreamConfig, log *slog.Logger) (eventstream.Publisher, error) {
	switch cfg.Provider {
	case "", config.EventStreamNop:
		return nop.NewPublisher(), nil

	case config.EventStreamKafka:
		pub, err := kafka.NewPublisher(kafka.Config{
			Brokers: cfg.BrokerList(),
			Topic:   cfg.Topic,
			Logger:  log,
		})
		if err != nil {
			return nil, fmt.Errorf("creating kafka publisher: %w", err)
		}
		log.Info("publishing widget events to kafka",
			"brokers", cfg.Brokers,
			"topic", cfg.Topic,
		)
		return pub, nil

	default:
		return nil, fmt.Errorf("unknown eventstream provider: %q", cfg.Provider)
	}
}
