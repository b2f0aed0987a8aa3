package config_test

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/black-desk/dirwatch/pkg/dirwatch/config"
	"github.com/black-desk/dirwatch/pkg/types"
	. "github.com/black-desk/lib/go/ginkgo-helper"
	. "github.com/black-desk/lib/go/gomega-helper"
	"github.com/go-playground/validator/v10"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gopkg.in/yaml.v3"
)

var _ = Describe("Configuration", func() {
	Context("loaded from valid content", func() {
		content := []byte(`
version: 1
method: Stat
nfs-method: stat
poll-interval: 100
watches:
  - path: /tmp
    recursive: true
    files: true
  - path: /etc/hostname
    file: true
`)

		var (
			cfg *config.Config
			err error
		)

		BeforeEach(func() {
			cfg, err = config.Load(content, nil)
		})

		It("should success", func() {
			Expect(err).To(BeNil())
		})

		It("should normalize the method casing", func() {
			Expect(cfg.PreferredMethod()).To(Equal(types.MethodStat))
		})

		It("should carry the watch list", func() {
			Expect(cfg.Watches).To(HaveLen(2))
			Expect(cfg.Watches[0].Recursive).To(BeTrue())
			Expect(cfg.Watches[1].File).To(BeTrue())
		})

		It("should report the configured poll interval", func() {
			Expect(cfg.LocalInterval()).To(Equal(100 * time.Millisecond))
		})
	})

	ContextTable("loaded from invalid content (%s)",
		ContextTableEntry(
			"a type mismatch", "version: [1]",
			new(yaml.TypeError), "yaml.TypeError",
		).WithFmt("a type mismatch"),
		ContextTableEntry(
			"a missing version", "method: stat",
			validator.ValidationErrors{}, "validator.ValidationErrors",
		).WithFmt("a missing version"),
		ContextTableEntry(
			"an unknown method", "version: 1\nmethod: kqueue",
			validator.ValidationErrors{}, "validator.ValidationErrors",
		).WithFmt("an unknown method"),
		ContextTableEntry(
			"a too small poll interval", "version: 1\npoll-interval: 1",
			validator.ValidationErrors{}, "validator.ValidationErrors",
		).WithFmt("a too small poll interval"),
		ContextTableEntry(
			"a file watch with directory flags",
			"version: 1\nwatches:\n  - path: /tmp\n    file: true\n    recursive: true",
			validator.ValidationErrors{}, "validator.ValidationErrors",
		).WithFmt("a file watch with directory flags"),
		func(name string, content string, expectErr error, errString string) {
			var err error

			BeforeEach(func() {
				_, err = config.Load([]byte(content), nil)
			})

			It(fmt.Sprintf("should fail with error: %s", errString), func() {
				Expect(err).To(MatchErr(expectErr))
			})
		})

	Context("built from the environment", func() {
		AfterEach(func() {
			os.Unsetenv(config.EnvMethod)
			os.Unsetenv(config.EnvPollInterval)
		})

		It("should pick up the method and interval", func() {
			os.Setenv(config.EnvMethod, "stat")
			os.Setenv(config.EnvPollInterval, "250")

			cfg := config.FromEnv(nil)
			Expect(cfg.PreferredMethod()).To(Equal(types.MethodStat))
			Expect(cfg.LocalInterval()).To(Equal(250 * time.Millisecond))
		})

		It("should ignore nonsense values", func() {
			os.Setenv(config.EnvMethod, "kqueue")
			os.Setenv(config.EnvPollInterval, "1")

			cfg := config.FromEnv(nil)
			Expect(cfg.PreferredMethod()).To(Equal(types.MethodINotify))
			Expect(cfg.LocalInterval()).To(Equal(config.DefaultPollInterval))
		})
	})

	Context("with empty overrides", func() {
		It("should fall back to the defaults", func() {
			cfg := &config.Config{Version: 1}

			Expect(cfg.PreferredMethod()).To(Equal(types.MethodINotify))
			Expect(cfg.NFSPreferredMethod()).To(Equal(types.MethodStat))
			Expect(cfg.LocalInterval()).To(Equal(config.DefaultPollInterval))
			Expect(cfg.NetworkInterval()).To(Equal(config.DefaultNFSPollInterval))
		})
	})
})

func TestConfig(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Configuration Suite")
}
