package engine

import (
	"time"

	"github.com/black-desk/dirwatch/pkg/types"
	"golang.org/x/sys/unix"
)

// scanEntry classifies what happened to e since the last observation.
//
// Inotify entries are only stat'ed when their dirty bit is set, stat
// entries only when their per-entry countdown expires; generic entries
// are stat'ed on every call.
func (eng *Engine) scanEntry(e *entry) types.Event {
	if e.mode == types.MethodUnknown {
		return types.NoChange
	}

	if e.mode == types.MethodINotify {
		if !e.dirty {
			return types.NoChange
		}
		e.dirty = false
	}

	if e.mode == types.MethodStat {
		// With a 500ms global timer an entry with a 5s frequency
		// is only stat'ed every tenth tick.
		e.msLeft -= eng.freq
		if e.msLeft > 0 {
			return types.NoChange
		}
		e.msLeft += e.pollFreq
	}

	var st unix.Stat_t
	exists := unix.Stat(e.path, &st) == nil

	if exists {
		if e.status == statusNonExistent {
			e.ctime = maxTimespec(st.Ctim, st.Mtim)
			e.status = statusNormal
			e.ino = st.Ino
			e.nlink = uint64(st.Nlink)

			eng.log.Debugw("Path came into existence.",
				"path", e.path,
			)

			// Make sure the entry is no longer listed as a
			// waiter in its parent.
			eng.removeEntry(nil, e.parentDirectory(), e)

			return types.Created
		}

		newCtime := maxTimespec(st.Ctim, st.Mtim)
		if !e.ctime.IsZero() &&
			(!newCtime.Equal(e.ctime) ||
				st.Ino != e.ino ||
				uint64(st.Nlink) != e.nlink) {
			e.ctime = newCtime
			e.nlink = uint64(st.Nlink)

			if e.ino != st.Ino {
				// Deleted and recreated in between
				// observations; watch the new inode.
				eng.removeWatch(e)
				eng.addWatch(e)
				e.ino = st.Ino
				return types.Deleted | types.Created
			}

			return types.Changed
		}

		return types.NoChange
	}

	// Path no longer exists.

	e.nlink = 0
	e.ino = 0
	e.status = statusNonExistent

	if e.mode == types.MethodGeneric {
		eng.detachGeneric(e)
	}

	if e.ctime.IsZero() {
		return types.NoChange
	}

	e.ctime = time.Time{}
	return types.Deleted
}

// rescan walks every entry: classify, emit, and fix up backend linkage
// for entries that crossed an existence boundary. Entry destruction is
// deferred for the duration of the pass.
func (eng *Engine) rescan() {
	eng.delayRemove = true

	// Inotify entries only get stat'ed when dirty, so the dirty bit
	// must first reach possibly materialized sub-entries.
	for _, e := range eng.entries {
		if (e.mode == types.MethodINotify || e.mode == types.MethodGeneric) && e.dirty {
			e.propagateDirty()
		}
	}

	paths := make([]string, 0, len(eng.entries))
	for p := range eng.entries {
		paths = append(paths, p)
	}

	// Entries promoted to Normal whose placeholder registration in
	// the parent must be dropped after the walk.
	var promoted []*entry

	for _, p := range paths {
		e, ok := eng.entries[p]
		if !ok {
			// Torn down by an earlier iteration.
			continue
		}
		if !e.isValid() {
			continue
		}

		ev := eng.scanEntry(e)

		switch e.mode {
		case types.MethodINotify:
			if ev == types.Deleted {
				if !e.isRoot() {
					eng.addEntry(nil, e.parentDirectory(), e, true, types.WatchDirOnly)
				}
			} else if ev == types.Created && e.wd < 0 {
				promoted = append(promoted, e)
				eng.addWatch(e)
			}
		case types.MethodGeneric:
			if ev == types.Created {
				eng.addWatch(e)
			}
		}

		if e.isDir && len(e.pendingChildChanges) > 0 {
			// Flush coalesced child changes, deduplicated by
			// name within this pass.
			seen := make(map[string]struct{}, len(e.pendingChildChanges))
			for _, name := range e.pendingChildChanges {
				if _, dup := seen[name]; dup {
					continue
				}
				seen[name] = struct{}{}
				eng.emitEvent(e, types.Changed, name)
			}
			e.pendingChildChanges = nil
		}

		if ev != types.NoChange {
			eng.emitEvent(e, ev, "")
		}
	}

	for _, e := range promoted {
		eng.removeEntry(nil, e.parentDirectory(), e)
	}
}

// stopEntryScan suspends delivery to sub's client of e. A nil sub
// suspends every client.
func (eng *Engine) stopEntryScan(sub Subscriber, e *entry) bool {
	stillWatching := 0
	for _, c := range e.clients {
		if sub == nil || sub == c.instance {
			c.stopped = true
		} else if !c.stopped {
			stillWatching += c.count
		}
	}

	eng.log.Debugw("Stopped scanning.",
		"path", e.path,
		"watchers", stillWatching,
	)

	if stillWatching == 0 {
		// Nobody is interested; changes that happen while not
		// watching are not reported.
		e.ctime = time.Time{}
	}

	return true
}

// restartEntryScan resumes delivery. When doNotify is false the entry's
// identity is refreshed first, so nothing that happened while stopped
// is reported.
func (eng *Engine) restartEntryScan(sub Subscriber, e *entry, doNotify bool) bool {
	wasWatching := 0
	newWatching := 0
	for _, c := range e.clients {
		if !c.stopped {
			wasWatching += c.count
		} else if sub == nil || sub == c.instance {
			c.stopped = false
			newWatching += c.count
		}
	}
	if newWatching == 0 {
		return false
	}

	eng.log.Debugw("Restarted scanning.",
		"path", e.path,
		"watchers", wasWatching+newWatching,
	)

	ev := types.NoChange
	if wasWatching == 0 {
		if !doNotify {
			var st unix.Stat_t
			if unix.Stat(e.path, &st) == nil {
				e.ctime = maxTimespec(st.Ctim, st.Mtim)
				e.status = statusNormal
				e.nlink = uint64(st.Nlink)
				e.ino = st.Ino

				// Same as in scanEntry: no waiter
				// registration may remain in the parent.
				eng.removeEntry(nil, e.parentDirectory(), e)
			} else {
				e.ctime = time.Time{}
				e.status = statusNonExistent
				e.nlink = 0
			}
		}
		e.msLeft = 0
		ev = eng.scanEntry(e)

		if doNotify && e.status == statusNormal && e.ctime.IsZero() {
			// stopEntryScan cleared the identity; record the
			// current one so later changes are detected again.
			var st unix.Stat_t
			if unix.Stat(e.path, &st) == nil {
				e.ctime = maxTimespec(st.Ctim, st.Mtim)
				e.nlink = uint64(st.Nlink)
				e.ino = st.Ino
			}
		}
	}
	eng.emitEvent(e, ev, "")

	return true
}

// stopScan suspends delivery to sub on every entry.
func (eng *Engine) stopScan(sub Subscriber) {
	for _, e := range eng.entries {
		eng.stopEntryScan(sub, e)
	}
}

// startScan resumes delivery to sub on every entry. When doNotify is
// false, pending bits are cleared first; skippedToo extends that to
// clients that remain stopped.
func (eng *Engine) startScan(sub Subscriber, doNotify, skippedToo bool) {
	if !doNotify {
		eng.resetList(skippedToo)
	}

	paths := make([]string, 0, len(eng.entries))
	for p := range eng.entries {
		paths = append(paths, p)
	}

	for _, p := range paths {
		e, ok := eng.entries[p]
		if !ok {
			continue
		}
		eng.restartEntryScan(sub, e, doNotify)
	}
}

// resetList clears pending event bits, also for stopped clients when
// skippedToo is set.
func (eng *Engine) resetList(skippedToo bool) {
	for _, e := range eng.entries {
		for _, c := range e.clients {
			if !c.stopped || skippedToo {
				c.pending = types.NoChange
			}
		}
	}
}
