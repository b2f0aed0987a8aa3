// SPDX-FileCopyrightText: 2025 Chen Linxuan <me@black-desk.cn>
//
// SPDX-License-Identifier: MIT

// Package engine implements the process-wide path watch engine behind
// the dirwatch facade. One engine serves any number of watcher
// instances; all of its state is owned by a single run goroutine, and
// every public operation posts onto that goroutine.
package engine

import (
	"sync"
	"time"

	"github.com/black-desk/dirwatch/pkg/dirwatch/config"
	"github.com/black-desk/dirwatch/pkg/types"
	. "github.com/black-desk/lib/go/errwrap"
	"github.com/rjeczalik/notify"
	"go.uber.org/zap"
)

// freq never rises above this; it doubles as the initial value before
// any stat entry exists.
const maxFreq = time.Hour

type Engine struct {
	log *zap.SugaredLogger
	cfg *config.Config

	pollInterval    time.Duration
	nfsPollInterval time.Duration
	preferred       types.Method
	nfsPreferred    types.Method

	cmds      chan func()
	closing   chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	entries     map[string]*entry
	subscribers map[Subscriber]struct{}

	removeSet   map[*entry]struct{}
	delayRemove bool

	// Stat backend pacing. freq is the smallest active per-entry
	// frequency; the ticker runs only while stat entries exist.
	freq        time.Duration
	statEntries int
	statTicker  *time.Ticker
	statC       <-chan time.Time

	rescanTimer  *time.Timer
	rescanActive bool

	ino       *inotifyStream
	inoEvents chan []rawEvent

	genericEvents chan notify.EventInfo

	queue []dispatch
}

func New(opts ...Opt) (ret *Engine, err error) {
	defer Wrap(&err, "create watch engine")

	e := &Engine{}
	for i := range opts {
		e, err = opts[i](e)
		if err != nil {
			return
		}
	}

	if e.log == nil {
		e.log = zap.NewNop().Sugar()
	}
	if e.cfg == nil {
		err = ErrConfigMissing
		return
	}

	e.pollInterval = e.cfg.LocalInterval()
	e.nfsPollInterval = e.cfg.NetworkInterval()
	e.preferred = e.cfg.PreferredMethod()
	e.nfsPreferred = e.cfg.NFSPreferredMethod()

	e.cmds = make(chan func())
	e.closing = make(chan struct{})
	e.done = make(chan struct{})

	e.entries = make(map[string]*entry)
	e.subscribers = make(map[Subscriber]struct{})
	e.removeSet = make(map[*entry]struct{})

	e.freq = maxFreq

	e.inoEvents = make(chan []rawEvent, 16)
	e.genericEvents = make(chan notify.EventInfo, 64)

	e.rescanTimer = time.NewTimer(maxFreq)
	if !e.rescanTimer.Stop() {
		<-e.rescanTimer.C
	}

	e.ino = newINotifyStream(e.log)
	if e.ino.supported {
		go e.ino.read(e.inoEvents, e.closing)
	}

	go e.run()

	ret = e

	e.log.Debugw("Create a path watch engine.",
		"preferred", e.preferred,
		"nfs preferred", e.nfsPreferred,
		"poll interval", e.pollInterval,
	)

	return
}

type Opt func(e *Engine) (ret *Engine, err error)

func WithLogger(log *zap.SugaredLogger) Opt {
	return func(e *Engine) (ret *Engine, err error) {
		if log == nil {
			err = ErrLoggerMissing
			return
		}

		e.log = log
		ret = e
		return
	}
}

func WithConfig(cfg *config.Config) Opt {
	return func(e *Engine) (ret *Engine, err error) {
		if cfg == nil {
			err = ErrConfigMissing
			return
		}

		e.cfg = cfg
		ret = e
		return
	}
}

var (
	defaultMu     sync.Mutex
	defaultEngine *Engine
)

// Default returns the shared engine, creating it on first use from the
// process environment.
func Default() (ret *Engine, err error) {
	defer Wrap(&err, "get default watch engine")

	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultEngine != nil {
		ret = defaultEngine
		return
	}

	e, err := New(WithConfig(config.FromEnv(nil)))
	if err != nil {
		return
	}

	defaultEngine = e
	ret = e
	return
}
