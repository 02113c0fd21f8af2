package initcmder_test

import (
	"bytes"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	initcmder "github.com/papercomputeco/adam/cmd/adam/init"
)

var _ = Describe("init command", func() {
	var (
		tmpDir  string
		origDir string
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "adam-init-test-*")
		Expect(err).NotTo(HaveOccurred())

		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		Expect(os.Chdir(tmpDir)).To(Succeed())
	})

	AfterEach(func() {
		Expect(os.Chdir(origDir)).To(Succeed())
		os.RemoveAll(tmpDir)
	})

	It("creates .adam with a default config", func() {
		var out bytes.Buffer
		cmd := initcmder.NewInitCmd()
		cmd.SetOut(&out)
		cmd.SetArgs([]string{})
		Expect(cmd.Execute()).To(Succeed())

		Expect(out.String()).To(ContainSubstring("Initialized .adam directory"))

		data, err := os.ReadFile(filepath.Join(tmpDir, ".adam", "config.toml"))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring("[agent]"))
		Expect(string(data)).To(ContainSubstring(`app_name = "tradingadvisor"`))
	})

	It("is a no-op when already initialized", func() {
		Expect(os.Mkdir(filepath.Join(tmpDir, ".adam"), 0o755)).To(Succeed())

		var out bytes.Buffer
		cmd := initcmder.NewInitCmd()
		cmd.SetOut(&out)
		cmd.SetArgs([]string{})
		Expect(cmd.Execute()).To(Succeed())
		Expect(out.String()).To(ContainSubstring("Already initialized"))
	})
})
