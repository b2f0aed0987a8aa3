package cmd

import (
	"fmt"
	"os"

	"github.com/black-desk/dirwatch/pkg/dirwatch/config"
	. "github.com/black-desk/lib/go/errwrap"
	"github.com/black-desk/lib/go/logger"
	"github.com/spf13/cobra"
)

// checkConfigCmd represents the config command
var checkConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Check configuration",
	Long:  `Validate configuration and report the effective watch method.`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		defer func() {
			if err == nil {
				return
			}

			err = fmt.Errorf("\n%w\n"+CheckDocumentString, err)

			return
		}()

		err = checkConfigCmdRun()
		return
	},
}

func checkConfigCmdRun() (err error) {
	defer Wrap(&err)

	log := logger.Get("dirwatch")

	var cfg *config.Config

	content, readErr := os.ReadFile(flags.CfgPath)
	if readErr != nil {
		log.Debugw("Configuration file unreadable, "+
			"checking environment configuration instead.",
			"file", flags.CfgPath,
			"error", readErr,
		)

		cfg = config.FromEnv(log)
	} else {
		cfg, err = config.Load(content, log)
		if err != nil {
			return
		}
	}

	fmt.Println("method =", cfg.PreferredMethod())
	fmt.Println("nfs method =", cfg.NFSPreferredMethod())
	fmt.Println("poll interval =", cfg.LocalInterval())
	fmt.Println("nfs poll interval =", cfg.NetworkInterval())
	fmt.Println("watches =", len(cfg.Watches))

	return
}

func init() {
	checkCmd.AddCommand(checkConfigCmd)
}
