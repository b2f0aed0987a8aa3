//go:build wireinject
// +build wireinject

package cmd

import (
	"github.com/black-desk/dirwatch/pkg/dirwatch"
	"github.com/black-desk/dirwatch/pkg/dirwatch/config"
	"github.com/google/wire"
	"go.uber.org/zap"
)

func injectedWatcher(
	*config.Config, *zap.SugaredLogger,
) (
	*dirwatch.Watcher, error,
) {
	panic(wire.Build(set))
}
