package engine

import (
	"path/filepath"

	"github.com/black-desk/dirwatch/pkg/types"
)

// Subscriber is the delivery side of a watcher instance. Calls arrive
// on the engine's run goroutine and must not block.
type Subscriber interface {
	Name() string
	PathCreated(path string)
	PathChanged(path string)
	PathDeleted(path string)
}

type dispatch struct {
	sub   Subscriber
	event types.Event
	path  string
}

// emitEvent queues event for every interested client of e. fileName, if
// not empty, names the affected path: absolute paths are taken as-is,
// anything else is a child of e.
//
// Delivery is deferred to the end of the current pass so that handlers
// adding or removing paths never mutate the entry table mid-iteration.
func (eng *Engine) emitEvent(e *entry, event types.Event, fileName string) {
	path := e.path
	if fileName != "" {
		if filepath.IsAbs(fileName) {
			path = fileName
		} else {
			path = e.path + "/" + fileName
		}
	}

	for _, c := range e.clients {
		if c.instance == nil || c.count == 0 {
			continue
		}
		if c.stopped {
			// Not accumulated either: a restart must not
			// deliver what happened while stopped.
			continue
		}

		ev := event
		if ev == types.NoChange || ev == types.Changed {
			ev |= c.pending
		}
		c.pending = types.NoChange
		if ev == types.NoChange {
			continue
		}

		eng.queue = append(eng.queue, dispatch{
			sub:   c.instance,
			event: ev,
			path:  path,
		})
	}
}

// flushDispatch delivers everything queued during the pass that just
// ended. Dispatches to subscribers that vanished in the meantime are
// dropped here.
func (eng *Engine) flushDispatch() {
	if len(eng.queue) == 0 {
		return
	}

	queue := eng.queue
	eng.queue = nil

	for _, d := range queue {
		if _, ok := eng.subscribers[d.sub]; !ok {
			continue
		}

		if d.event&types.Deleted != 0 {
			d.sub.PathDeleted(d.path)
		}
		if d.event&types.Created != 0 {
			d.sub.PathCreated(d.path)
		}
		if d.event&types.Changed != 0 {
			d.sub.PathChanged(d.path)
		}
	}
}
