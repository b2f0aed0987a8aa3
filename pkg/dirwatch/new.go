// SPDX-FileCopyrightText: 2025 Chen Linxuan <me@black-desk.cn>
//
// SPDX-License-Identifier: MIT

// Package dirwatch reports creation, change and deletion of files and
// directories. Watcher instances share one process-wide engine that
// picks the cheapest available detection method per path.
package dirwatch

import (
	"fmt"
	"sync/atomic"

	"github.com/black-desk/dirwatch/internal/engine"
	. "github.com/black-desk/lib/go/errwrap"
	"go.uber.org/zap"
)

// Delivery channels are buffered; events past the buffer are dropped
// with a warning rather than blocking the engine.
const chanBufSize = 64

var instanceCount atomic.Uint64

type Watcher struct {
	name string
	log  *zap.SugaredLogger
	eng  *engine.Engine

	created chan string
	changed chan string
	deleted chan string

	sub *subscriber

	stopped  atomic.Bool
	detached atomic.Bool
}

func New(opts ...Opt) (ret *Watcher, err error) {
	defer Wrap(&err, "create watcher")

	w := &Watcher{}

	w.created = make(chan string, chanBufSize)
	w.changed = make(chan string, chanBufSize)
	w.deleted = make(chan string, chanBufSize)

	for i := range opts {
		w, err = opts[i](w)
		if err != nil {
			return
		}
	}

	if w.log == nil {
		w.log = zap.NewNop().Sugar()
	}
	if w.name == "" {
		w.name = fmt.Sprintf("dirwatch-%d", instanceCount.Add(1))
	}
	if w.eng == nil {
		w.eng, err = engine.Default()
		if err != nil {
			return
		}
	}

	w.sub = &subscriber{w: w}

	ret = w

	w.log.Debugw("Create a watcher.",
		"name", w.name,
	)

	return
}

type Opt func(w *Watcher) (ret *Watcher, err error)

func WithLogger(log *zap.SugaredLogger) Opt {
	return func(w *Watcher) (ret *Watcher, err error) {
		if log == nil {
			err = ErrLoggerMissing
			return
		}

		w.log = log
		ret = w
		return
	}
}

func WithEngine(eng *engine.Engine) Opt {
	return func(w *Watcher) (ret *Watcher, err error) {
		if eng == nil {
			err = ErrEngineMissing
			return
		}

		w.eng = eng
		ret = w
		return
	}
}

func WithName(name string) Opt {
	return func(w *Watcher) (ret *Watcher, err error) {
		if name == "" {
			err = ErrNameMissing
			return
		}

		w.name = name
		ret = w
		return
	}
}
