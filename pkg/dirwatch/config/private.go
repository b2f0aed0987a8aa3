package config

import (
	"strings"

	. "github.com/black-desk/lib/go/errwrap"
	"github.com/go-playground/validator/v10"
)

func (c *Config) check() (err error) {
	defer Wrap(&err, "check configuration")

	c.Method = strings.ToLower(c.Method)
	c.NFSMethod = strings.ToLower(c.NFSMethod)

	validate := validator.New()
	err = validate.Struct(c)
	if err != nil {
		return
	}

	c.log.Debugw("Configuration checked.",
		"watches", len(c.Watches),
	)

	return
}
