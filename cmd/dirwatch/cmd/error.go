// SPDX-FileCopyrightText: 2025 Chen Linxuan <me@black-desk.cn>
//
// SPDX-License-Identifier: MIT

package cmd

import (
	"errors"
	"fmt"
	"os"
)

var ErrNothingToWatch = errors.New(
	"No paths given and the configuration has no watch list.")

type ErrCancelBySignal struct {
	os.Signal
}

func (e *ErrCancelBySignal) Error() string {
	return fmt.Sprintf("Cancelled by signal (%v).", e.Signal)
}
