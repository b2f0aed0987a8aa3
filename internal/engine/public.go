// SPDX-FileCopyrightText: 2025 black-desk <me@black-desk.cn>
//
// SPDX-License-Identifier: MIT

package engine

import (
	"time"

	"github.com/black-desk/dirwatch/pkg/types"
)

// AddEntry registers sub's interest in path. A directory entry watches
// its children according to modes; a file entry always uses
// WatchDirOnly semantics.
func (eng *Engine) AddEntry(sub Subscriber, path string, isDir bool, modes types.WatchModes) {
	eng.do(func() {
		if sub != nil {
			eng.subscribers[sub] = struct{}{}
		}
		eng.addEntry(sub, path, nil, isDir, modes)
	})
}

// RemoveEntry drops one registration of sub on path.
func (eng *Engine) RemoveEntry(sub Subscriber, path string) {
	eng.do(func() {
		eng.removeEntry(sub, path, nil)
	})
}

// RemoveSubscriber detaches sub from every path at once.
func (eng *Engine) RemoveSubscriber(sub Subscriber) {
	eng.do(func() {
		eng.removeSubscriber(sub)
	})
}

// StopEntryScan suspends delivery to sub for path. It reports whether
// the path was being watched at all.
func (eng *Engine) StopEntryScan(sub Subscriber, path string) bool {
	var ok bool
	eng.do(func() {
		e := eng.lookup(path)
		if e == nil {
			return
		}
		ok = eng.stopEntryScan(sub, e)
	})
	return ok
}

// RestartEntryScan resumes delivery to sub for path. Events dropped
// while stopped are not replayed. When no other client kept watching,
// doNotify set rescans the entry and reports only a creation that no
// earlier scan has seen; without doNotify the entry state is silently
// refreshed first and nothing is reported.
func (eng *Engine) RestartEntryScan(sub Subscriber, path string, doNotify bool) bool {
	var ok bool
	eng.do(func() {
		e := eng.lookup(path)
		if e == nil {
			return
		}
		ok = eng.restartEntryScan(sub, e, doNotify)
	})
	return ok
}

// StopScan suspends delivery to sub on every watched path.
func (eng *Engine) StopScan(sub Subscriber) {
	eng.do(func() {
		eng.stopScan(sub)
	})
}

// StartScan resumes delivery to sub on every watched path. skippedToo
// additionally clears events pending for clients that stay stopped.
func (eng *Engine) StartScan(sub Subscriber, doNotify, skippedToo bool) {
	eng.do(func() {
		eng.startScan(sub, doNotify, skippedToo)
	})
}

// Contains reports whether sub currently watches path.
func (eng *Engine) Contains(sub Subscriber, path string) bool {
	var ok bool
	eng.do(func() {
		e := eng.lookup(path)
		if e == nil {
			return
		}
		ok = e.findClient(sub) != nil
	})
	return ok
}

// CTime returns the last observed change time of path, or the zero time
// when the path is not watched or does not exist.
func (eng *Engine) CTime(path string) time.Time {
	var t time.Time
	eng.do(func() {
		if e := eng.lookup(path); e != nil {
			t = e.ctime
		}
	})
	return t
}

// Method returns the backend watching path, or the engine's preferred
// method when the path is not watched.
func (eng *Engine) Method(path string) types.Method {
	m := eng.preferred
	eng.do(func() {
		if e := eng.lookup(path); e != nil {
			m = e.mode
		}
	})
	return m
}

// Preferred returns the backend the engine tries first.
func (eng *Engine) Preferred() types.Method {
	return eng.preferred
}

// Dump writes the entry table to the debug log.
func (eng *Engine) Dump() {
	eng.do(func() {
		eng.dump()
	})
}
