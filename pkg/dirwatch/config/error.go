package config

import (
	"errors"
)

var (
	ErrUnknownMethod = errors.New("unknown watch method")
)
