package servecmder_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	servecmder "github.com/papercomputeco/adam/cmd/adam/serve"
	"github.com/papercomputeco/adam/pkg/config"
	"github.com/papercomputeco/adam/pkg/eventstream/kafka"
	"github.com/papercomputeco/adam/pkg/eventstream/nop"
	"github.com/papercomputeco/adam/pkg/logger"
	"github.com/papercomputeco/adam/pkg/storage/inmemory"
	"github.com/papercomputeco/adam/pkg/storage/sqlite"
)

var _ = Describe("NewServeCmd", func() {
	It("registers the agent and dashboard flags", func() {
		cmd := servecmder.NewServeCmd()
		for _, name := range []string{
			"base-url", "app-name", "listen", "workers", "queue-size",
			"storage", "sqlite", "postgres", "eventstream", "kafka-brokers",
			"eventstream-topic", "log-file", "json-logs", "mcp",
		} {
			Expect(cmd.Flags().Lookup(name)).NotTo(BeNil(), name)
		}
	})

	It("defaults the listen address from the config defaults", func() {
		cmd := servecmder.NewServeCmd()
		Expect(cmd.Flags().Lookup("listen").DefValue).To(Equal(":8501"))
		Expect(cmd.Flags().Lookup("workers").DefValue).To(Equal("3"))
	})
})

var _ = Describe("NewDriver", func() {
	ctx := context.Background()

	It("uses in-memory storage by default", func() {
		drv, err := servecmder.NewDriver(ctx, config.StorageConfig{}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		Expect(drv).To(BeAssignableToTypeOf(&inmemory.Driver{}))
	})

	It("opens a SQLite database", func() {
		dir, err := os.MkdirTemp("", "adam-serve-test-*")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(os.RemoveAll, dir)

		path := filepath.Join(dir, "board.db")
		drv, err := servecmder.NewDriver(ctx, config.StorageConfig{Provider: config.StorageSQLite, SQLitePath: path}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		defer drv.Close()

		Expect(drv).To(BeAssignableToTypeOf(&sqlite.Driver{}))
		Expect(path).To(BeAnExistingFile())
	})

	It("requires a path for SQLite", func() {
		_, err := servecmder.NewDriver(ctx, config.StorageConfig{Provider: config.StorageSQLite}, logger.Nop())
		Expect(err).To(MatchError(ContainSubstring("requires --sqlite")))
	})

	It("requires a DSN for PostgreSQL", func() {
		_, err := servecmder.NewDriver(ctx, config.StorageConfig{Provider: config.StoragePostgres}, logger.Nop())
		Expect(err).To(MatchError(ContainSubstring("requires --postgres")))
	})

	It("rejects unknown providers", func() {
		_, err := servecmder.NewDriver(ctx, config.StorageConfig{Provider: "mongo"}, logger.Nop())
		Expect(err).To(MatchError(ContainSubstring("unknown storage provider")))
	})
})

var _ = Describe("NewPublisher", func() {
	It("uses the nop publisher by default", func() {
		pub, err := servecmder.NewPublisher(config.EventStreamConfig{}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		Expect(pub).To(BeAssignableToTypeOf(&nop.Publisher{}))
	})

	It("builds a kafka publisher", func() {
		pub, err := servecmder.NewPublisher(config.EventStreamConfig{
			Provider: config.EventStreamKafka,
			Brokers:  "localhost:9092, localhost:9093",
			Topic:    "adam.widgets",
		}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		Expect(pub).To(BeAssignableToTypeOf(&kafka.Publisher{}))
		Expect(pub.Close()).To(Succeed())
	})

	It("requires brokers for kafka", func() {
		_, err := servecmder.NewPublisher(config.EventStreamConfig{Provider: config.EventStreamKafka, Topic: "t"}, logger.Nop())
		Expect(err).To(MatchError(ContainSubstring("at least one broker")))
	})

	It("rejects unknown providers", func() {
		_, err := servecmder.NewPublisher(config.EventStreamConfig{Provider: "nats"}, logger.Nop())
		Expect(err).To(HaveOccurred())
	})
})
