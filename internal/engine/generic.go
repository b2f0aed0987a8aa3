package engine

import (
	"path/filepath"
	"slices"

	"github.com/black-desk/dirwatch/pkg/types"
	"github.com/rjeczalik/notify"
)

// useGeneric attaches the generic backend, a coarse path-watch
// primitive that only reports "something changed here". Classification
// happens in scanEntry when the event arrives.
func (eng *Engine) useGeneric(e *entry) bool {
	e.mode = types.MethodGeneric
	e.dirty = false

	if e.status == statusNonExistent {
		if e.isRoot() {
			return false
		}

		eng.addEntry(nil, e.parentDirectory(), e, true, types.WatchDirOnly)
		return true
	}

	return eng.attachGeneric(e)
}

func (eng *Engine) attachGeneric(e *entry) bool {
	// FIXME:
	// github.com/rjeczalik/notify drop events if receiver is too slow.
	// https://github.com/rjeczalik/notify/issues/85
	// https://github.com/rjeczalik/notify/issues/98
	ch := make(chan notify.EventInfo, 20)

	err := notify.Watch(e.path, ch, notify.All)
	if err != nil {
		eng.log.Debugw("Generic watch failed.",
			"path", e.path,
			"error", err,
		)
		close(ch)
		return false
	}

	e.genericCh = ch
	go eng.forwardGeneric(ch)

	eng.log.Debugw("Generic watch attached.",
		"path", e.path,
	)
	return true
}

func (eng *Engine) forwardGeneric(ch chan notify.EventInfo) {
	for ei := range ch {
		select {
		case eng.genericEvents <- ei:
		case <-eng.closing:
			return
		}
	}
}

func (eng *Engine) detachGeneric(e *entry) {
	if e.genericCh == nil {
		return
	}

	notify.Stop(e.genericCh)
	close(e.genericCh)
	e.genericCh = nil
}

// handleGenericEvent routes a wakeup from the generic primitive. The
// primitive reports child paths of a watched directory as well; those
// are folded onto the directory entry.
func (eng *Engine) handleGenericEvent(path string) {
	if eng.lookup(path) == nil {
		path = filepath.Dir(path)
	}

	eng.genericScan(path)
}

func (eng *Engine) genericScan(path string) {
	e := eng.lookup(path)
	if e == nil {
		return
	}

	eng.log.Debugw("Generic event.",
		"path", path,
	)

	e.dirty = true
	ev := eng.scanEntry(e)
	if ev != types.NoChange {
		eng.emitEvent(e, ev, "")
	}

	switch {
	case ev == types.Deleted:
		if !e.isRoot() {
			eng.addEntry(nil, e.parentDirectory(), e, true, types.WatchDirOnly)
		}
	case ev == types.Created:
		// We were waiting for it to appear; now watch it.
		eng.addWatch(e)
	case e.isDir:
		// A child we were waiting for may have appeared.
		for _, sub := range slices.Clone(e.subEntries) {
			eng.genericScan(sub.path)
		}
	case e.mode == types.MethodGeneric:
		// The primitive silently drops its watch when the path is
		// deleted, even if it was immediately recreated and only a
		// change was reported. Re-request the watch on every wake
		// so the underlying monitor is never lost.
		eng.detachGeneric(e)
		eng.attachGeneric(e)
	}
}
