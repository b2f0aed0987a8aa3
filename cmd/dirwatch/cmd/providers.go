package cmd

import (
	"github.com/black-desk/dirwatch/internal/engine"
	"github.com/black-desk/dirwatch/pkg/dirwatch"
	"github.com/black-desk/dirwatch/pkg/dirwatch/config"
	"github.com/google/wire"
	"go.uber.org/zap"
)

func provideEngine(
	cfg *config.Config,
	logger *zap.SugaredLogger,
) (
	ret *engine.Engine,
	err error,
) {
	var e *engine.Engine
	e, err = engine.New(
		engine.WithConfig(cfg),
		engine.WithLogger(logger),
	)

	if err != nil {
		return
	}

	ret = e
	return
}

func provideWatcher(
	eng *engine.Engine,
	logger *zap.SugaredLogger,
) (
	ret *dirwatch.Watcher,
	err error,
) {
	var w *dirwatch.Watcher
	w, err = dirwatch.New(
		dirwatch.WithEngine(eng),
		dirwatch.WithLogger(logger),
	)

	if err != nil {
		return
	}

	ret = w
	return
}

var set = wire.NewSet(
	provideEngine,
	provideWatcher,
)
