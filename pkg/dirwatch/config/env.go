package config

import (
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Environment variables recognized by FromEnv.
const (
	EnvPollInterval    = "DIRWATCH_POLLINTERVAL"
	EnvNFSPollInterval = "DIRWATCH_NFSPOLLINTERVAL"
	EnvMethod          = "DIRWATCH_METHOD"
	EnvNFSMethod       = "DIRWATCH_NFSMETHOD"
)

// FromEnv builds a configuration from process environment variables,
// falling back to the defaults for anything unset or unparsable.
func FromEnv(log *zap.SugaredLogger) (ret *Config) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	cfg := &Config{Version: 1, log: log}

	cfg.PollInterval = intervalFromEnv(EnvPollInterval, log)
	cfg.NFSPollInterval = intervalFromEnv(EnvNFSPollInterval, log)

	cfg.Method = methodFromEnv(EnvMethod, log)
	cfg.NFSMethod = methodFromEnv(EnvNFSMethod, log)

	ret = cfg
	return
}

func intervalFromEnv(name string, log *zap.SugaredLogger) int {
	value := os.Getenv(name)
	if value == "" {
		return 0
	}

	ms, err := strconv.Atoi(value)
	if err != nil || ms < 10 {
		log.Warnw("Ignore invalid poll interval from environment.",
			"variable", name,
			"value", value,
		)
		return 0
	}
	return ms
}

func methodFromEnv(name string, log *zap.SugaredLogger) string {
	value := os.Getenv(name)
	if value == "" {
		return ""
	}

	_, err := ParseMethod(value)
	if err != nil {
		log.Warnw("Ignore unknown watch method from environment.",
			"variable", name,
			"value", value,
		)
		return ""
	}
	return strings.ToLower(value)
}
