package config

import (
	"strings"
	"time"

	"github.com/black-desk/dirwatch/pkg/types"
)

const (
	DefaultPollInterval    = 500 * time.Millisecond
	DefaultNFSPollInterval = 5000 * time.Millisecond
)

// ParseMethod maps a configuration string to a backend method.
func ParseMethod(s string) (ret types.Method, err error) {
	switch strings.ToLower(s) {
	case "inotify":
		ret = types.MethodINotify
	case "generic":
		ret = types.MethodGeneric
	case "stat":
		ret = types.MethodStat
	default:
		err = ErrUnknownMethod
	}
	return
}

// LocalInterval is the stat poll period for local paths.
func (c *Config) LocalInterval() time.Duration {
	if c.PollInterval <= 0 {
		return DefaultPollInterval
	}
	return time.Duration(c.PollInterval) * time.Millisecond
}

// NetworkInterval is the stat poll period for network-mounted paths.
func (c *Config) NetworkInterval() time.Duration {
	if c.NFSPollInterval <= 0 {
		return DefaultNFSPollInterval
	}
	return time.Duration(c.NFSPollInterval) * time.Millisecond
}

// PreferredMethod is the backend to try first for local paths.
func (c *Config) PreferredMethod() types.Method {
	m, err := ParseMethod(c.Method)
	if err != nil {
		return types.MethodINotify
	}
	return m
}

// NFSPreferredMethod is the backend to try first for network-mounted
// paths. INotify cannot see changes made by other machines, so polling
// is the default there.
func (c *Config) NFSPreferredMethod() types.Method {
	m, err := ParseMethod(c.NFSMethod)
	if err != nil {
		return types.MethodStat
	}
	return m
}
