package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	. "github.com/black-desk/lib/go/errwrap"
	"github.com/spf13/cobra"
)

// Watch setups below this are likely to run into ENOSPC on any
// non-trivial tree.
const minUserWatches = 8192

// checkINotifyCmd represents the inotify command
var checkINotifyCmd = &cobra.Command{
	Use:   "inotify",
	Short: "Check kernel inotify limits",
	Long:  `Report fs.inotify sysctl limits and warn about low values.`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		defer func() {
			if err == nil {
				return
			}

			err = fmt.Errorf("\n\n%w\n"+CheckDocumentString, err)

			return
		}()

		err = checkINotifyCmdRun()
		return
	},
}

func checkINotifyCmdRun() (err error) {
	defer Wrap(&err, "Failed to check inotify limits.")

	maxUserWatches, err := readSysctl("/proc/sys/fs/inotify/max_user_watches")
	if err != nil {
		return
	}
	maxQueuedEvents, err := readSysctl("/proc/sys/fs/inotify/max_queued_events")
	if err != nil {
		return
	}
	maxUserInstances, err := readSysctl("/proc/sys/fs/inotify/max_user_instances")
	if err != nil {
		return
	}

	fmt.Println("fs.inotify.max_user_watches =", maxUserWatches)
	fmt.Println("fs.inotify.max_queued_events =", maxQueuedEvents)
	fmt.Println("fs.inotify.max_user_instances =", maxUserInstances)

	if maxUserWatches < minUserWatches {
		err = fmt.Errorf(
			"fs.inotify.max_user_watches is very low (%d), "+
				"watching large trees will fall back to polling.",
			maxUserWatches,
		)
		return
	}

	return
}

func readSysctl(path string) (value int, err error) {
	defer Wrap(&err, "read %s", path)

	content, err := os.ReadFile(path)
	if err != nil {
		return
	}

	value, err = strconv.Atoi(strings.TrimSpace(string(content)))
	return
}

func init() {
	checkCmd.AddCommand(checkINotifyCmd)
}
