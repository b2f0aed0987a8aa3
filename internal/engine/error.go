package engine

import (
	"errors"
)

var (
	ErrConfigMissing = errors.New("Configuration is missing")
	ErrLoggerMissing = errors.New("Logger is missing")
)
