// SPDX-FileCopyrightText: 2025 Chen Linxuan <me@black-desk.cn>
//
// SPDX-License-Identifier: MIT

package config

import "go.uber.org/zap"

type Config struct {
	Version int `yaml:"version" validate:"required,eq=1"`

	// Method and NFSMethod override the preferred backend for local
	// and network-mounted paths. Recognized values are "inotify",
	// "generic" and "stat", case-insensitive.
	Method    string `yaml:"method" validate:"omitempty,oneof=inotify generic stat"`
	NFSMethod string `yaml:"nfs-method" validate:"omitempty,oneof=inotify generic stat"`

	// Poll intervals for the stat backend, in milliseconds.
	PollInterval    int `yaml:"poll-interval" validate:"omitempty,min=10"`
	NFSPollInterval int `yaml:"nfs-poll-interval" validate:"omitempty,min=10"`

	Watches []Watch `yaml:"watches" validate:"dive"`

	log *zap.SugaredLogger `yaml:"-"`
}

// Watch is one path to monitor from the command line configuration.
type Watch struct {
	Path string `yaml:"path" validate:"required"`
	// File marks the path as a plain file watch.
	// Recursive and Files only make sense for directories.
	File      bool `yaml:"file" validate:"excluded_with=Recursive Files"`
	Recursive bool `yaml:"recursive"`
	Files     bool `yaml:"files"`
}
