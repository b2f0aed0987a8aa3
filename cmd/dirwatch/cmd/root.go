package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/black-desk/dirwatch/pkg/dirwatch"
	"github.com/black-desk/dirwatch/pkg/dirwatch/config"
	"github.com/black-desk/lib/go/logger"
	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var flags struct {
	CfgPath   string
	Recursive bool
	Files     bool
}

var rootCmd = &cobra.Command{
	Use:   "dirwatch [path...]",
	Short: "Watch files and directories for changes",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		defer func() {
			if err == nil {
				return
			}

			err = fmt.Errorf(
				"\n\n%w\n"+CheckDocumentString,
				err,
			)

			return
		}()
		err = rootCmdRun(args)
		return
	},
}

func rootCmdRun(args []string) (err error) {
	log := logger.Get("dirwatch")

	cfg, err := loadConfig(log)
	if err != nil {
		return
	}

	eng, err := provideEngine(cfg, log)
	if err != nil {
		return
	}
	defer eng.Close()

	w, err := provideWatcher(eng, log)
	if err != nil {
		return
	}
	defer w.Close()

	err = addWatches(w, cfg, args)
	if err != nil {
		return
	}

	p := pool.New().
		WithContext(context.Background()).
		WithCancelOnError()

	p.Go(waitSig(log))
	p.Go(printEvents(w))

	err = p.Wait()
	if err == nil {
		return
	}

	var cancelBySignal *ErrCancelBySignal
	if errors.As(err, &cancelBySignal) {
		log.Infow("Signal received, exiting...",
			"signal", cancelBySignal.Signal,
		)
		err = nil
		return
	}

	return
}

func addWatches(w *dirwatch.Watcher, cfg *config.Config, args []string) (err error) {
	for _, path := range args {
		st, statErr := os.Stat(path)
		if statErr == nil && !st.IsDir() {
			w.AddFile(path)
			continue
		}

		w.AddDir(path, argModes(flags.Recursive, flags.Files)...)
	}

	for _, watch := range cfg.Watches {
		if watch.File {
			w.AddFile(watch.Path)
			continue
		}

		w.AddDir(watch.Path, argModes(watch.Recursive, watch.Files)...)
	}

	if len(args) == 0 && len(cfg.Watches) == 0 {
		err = ErrNothingToWatch
		return
	}

	return
}

func argModes(recursive, files bool) []dirwatch.WatchModes {
	var modes []dirwatch.WatchModes
	if recursive {
		modes = append(modes, dirwatch.WatchSubDirs)
	}
	if files {
		modes = append(modes, dirwatch.WatchFiles)
	}
	return modes
}

func waitSig(log *zap.SugaredLogger) func(context.Context) error {
	return func(ctx context.Context) (err error) {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

		var sig os.Signal
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sig = <-sigChan:
			log.Debugw(
				"Receive signal.",
				"signal", sig,
			)
			return &ErrCancelBySignal{sig}
		}
	}
}

func printEvents(w *dirwatch.Watcher) func(context.Context) error {
	return func(ctx context.Context) error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case path := <-w.Created():
				fmt.Println("created", path)
			case path := <-w.Changed():
				fmt.Println("changed", path)
			case path := <-w.Deleted():
				fmt.Println("deleted", path)
			}
		}
	}
}

func loadConfig(log *zap.SugaredLogger) (cfg *config.Config, err error) {
	content, err := os.ReadFile(flags.CfgPath)
	if errors.Is(err, os.ErrNotExist) && flags.CfgPath == DirWatchCfgPath {
		log.Debugw("Configuration file missing, " +
			"fallback to environment configuration.")

		cfg = config.FromEnv(log)
		err = nil
		return
	} else if err != nil {
		log.Errorw("Failed to read configuration from file.",
			"file", flags.CfgPath,
			"error", err)

		return
	}

	cfg, err = config.Load(content, log)
	return
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cfgPath := os.Getenv("CONFIGURATION_DIRECTORY")
	if cfgPath == "" {
		cfgPath = DirWatchCfgPath
	} else {
		cfgPath += "/config.yaml"
	}

	rootCmd.PersistentFlags().StringVarP(
		&flags.CfgPath,
		"config", "c", cfgPath,
		"the configure file to use",
	)
	rootCmd.Flags().BoolVarP(
		&flags.Recursive,
		"recursive", "r", false,
		"also watch subdirectories of the given directories",
	)
	rootCmd.Flags().BoolVarP(
		&flags.Files,
		"files", "f", false,
		"also watch files inside the given directories",
	)
}
