package engine

import (
	"strings"

	"github.com/black-desk/dirwatch/pkg/types"
	"golang.org/x/sys/unix"
)

// lookup finds the entry watching path, tolerating a trailing slash.
func (eng *Engine) lookup(path string) *entry {
	if path == "" {
		return nil
	}
	if len(path) > 1 && strings.HasSuffix(path, "/") {
		path = strings.TrimSuffix(path, "/")
	}
	return eng.entries[path]
}

func (eng *Engine) removeEntry(sub Subscriber, path string, subEntry *entry) {
	e := eng.lookup(path)
	if e == nil {
		return
	}
	eng.removeEntryRef(sub, e, subEntry)
}

// removeEntryRef drops one reference from e: a sub-entry registration or
// one client count. The entry itself is torn down only when nothing is
// left holding it; during a rescan teardown is parked in removeSet
// instead.
func (eng *Engine) removeEntryRef(sub Subscriber, e *entry, subEntry *entry) {
	delete(eng.removeSet, e)

	if subEntry != nil {
		e.removeSubEntry(subEntry)
	} else {
		e.removeClient(sub)
	}

	if e.isValid() {
		return
	}

	if eng.delayRemove {
		eng.removeSet[e] = struct{}{}
		return
	}

	if e.status == statusNormal {
		eng.removeWatch(e)
	} else if !e.isRoot() {
		// A non-existent entry holds a waiter registration in its
		// parent instead of a watch.
		eng.removeEntry(nil, e.parentDirectory(), e)
	}

	if e.mode == types.MethodStat {
		eng.statEntries--
		if eng.statEntries == 0 {
			eng.stopStatTimer()
			eng.log.Debugw("Stopped polling timer.")
		}
	}

	eng.log.Debugw("Remove entry.",
		"path", e.path,
	)

	delete(eng.entries, e.path)
}

func (eng *Engine) removeWatch(e *entry) {
	switch e.mode {
	case types.MethodINotify:
		if e.wd >= 0 {
			delete(eng.ino.wdToEntry, e.wd)
			_, _ = unix.InotifyRmWatch(eng.ino.fd, uint32(e.wd))
			e.wd = -1
		}
	case types.MethodGeneric:
		eng.detachGeneric(e)
	}
}

// removeSubscriber detaches sub from every entry it is a client of and
// raises the global poll period back to the shortest period among the
// remaining stat entries.
func (eng *Engine) removeSubscriber(sub Subscriber) {
	paths := make([]string, 0, len(eng.entries))
	for p, e := range eng.entries {
		if c := e.findClient(sub); c != nil {
			// One call must be enough regardless of how many
			// times the client registered.
			c.count = 1
			paths = append(paths, p)
		}
	}

	for _, p := range paths {
		eng.removeEntry(sub, p, nil)
	}

	minFreq := maxFreq
	for _, e := range eng.entries {
		if e.mode == types.MethodStat && e.pollFreq < minFreq {
			minFreq = e.pollFreq
		}
	}

	if minFreq > eng.freq {
		eng.freq = minFreq
		eng.resetStatTimer()
		eng.log.Debugw("Global poll frequency raised.",
			"freq", eng.freq,
		)
	}

	delete(eng.subscribers, sub)
}
