package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/adam/pkg/config"
)

var _ = Describe("InitViper", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "viper-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("returns viper with defaults when no config file exists", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		Expect(config.Resolve(v)).To(Equal(config.NewDefaultConfig()))
	})

	It("reads config file values over defaults", func() {
		data := `[agent]
base_url = "http://agents:9000"
`
		err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)
		Expect(err).NotTo(HaveOccurred())

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		Expect(v.GetString("agent.base_url")).To(Equal("http://agents:9000"))
		// Unset fields should still get defaults
		Expect(v.GetString("agent.app_name")).To(Equal("tradingadvisor"))
	})

	It("respects environment variables with ADAM_ prefix", func() {
		GinkgoT().Setenv("ADAM_AGENT_APP_NAME", "weather_agent")

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		Expect(config.Resolve(v).Agent.AppName).To(Equal("weather_agent"))
	})

	It("env vars take precedence over config file values", func() {
		data := `[dashboard]
workers = 2
`
		err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)
		Expect(err).NotTo(HaveOccurred())

		GinkgoT().Setenv("ADAM_DASHBOARD_WORKERS", "9")

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		Expect(config.Resolve(v).Dashboard.Workers).To(Equal(uint(9)))
	})
})

var _ = Describe("BindFlags", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "bindflag-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("binds cobra flags to viper keys via registry", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		var listen string
		config.AddStringFlag(cmd, config.ServeFlags, config.FlagListen, &listen)

		// Simulate flag being set by user
		Expect(cmd.Flags().Set("listen", ":7777")).To(Succeed())

		config.BindRegisteredFlags(v, cmd, config.ServeFlags, []string{config.FlagListen})

		Expect(v.GetString("dashboard.listen")).To(Equal(":7777"))
	})

	It("falls through to config when flag not set", func() {
		data := `[dashboard]
listen = ":5555"
`
		err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)
		Expect(err).NotTo(HaveOccurred())

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		var listen string
		config.AddStringFlag(cmd, config.ServeFlags, config.FlagListen, &listen)

		// Do NOT set the flag -- should fall through to config file value
		config.BindRegisteredFlags(v, cmd, config.ServeFlags, []string{config.FlagListen})

		Expect(v.GetString("dashboard.listen")).To(Equal(":5555"))
	})

	It("skips bindings for nonexistent registry keys", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}

		// "nonexistent" is not in the FlagSet -- should be safely skipped
		config.BindRegisteredFlags(v, cmd, config.FlagSet{}, []string{"nonexistent"})

		Expect(v.GetString("dashboard.listen")).To(Equal(":8501"))
	})

	It("AddStringFlag pulls name, shorthand, and description from FlagSet", func() {
		cmd := &cobra.Command{Use: "test"}
		var target string
		config.AddStringFlag(cmd, config.AgentFlags, config.FlagBaseURL, &target)

		f := cmd.Flags().Lookup("base-url")
		Expect(f).NotTo(BeNil())
		Expect(f.Shorthand).To(Equal("u"))
		Expect(f.Usage).To(Equal("Agent service base URL"))
		Expect(f.DefValue).To(Equal("http://localhost:8000"))
	})

	It("AddUintFlag works for workers", func() {
		cmd := &cobra.Command{Use: "test"}
		var workers uint
		config.AddUintFlag(cmd, config.ServeFlags, config.FlagWorkers, &workers)

		f := cmd.Flags().Lookup("workers")
		Expect(f).NotTo(BeNil())
		Expect(f.DefValue).To(Equal("3"))
	})
})
