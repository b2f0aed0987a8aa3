package engine

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/black-desk/dirwatch/pkg/types"
	"github.com/rjeczalik/notify"
)

type status uint8

const (
	statusNormal status = iota
	statusNonExistent
)

// entry is the canonical record for one watched path.
type entry struct {
	path   string
	isDir  bool
	status status
	mode   types.Method

	// inotify watch descriptor, -1 while not attached.
	wd int32
	// generic backend delivery channel, nil while not attached.
	genericCh chan notify.EventInfo

	// Latest of ctime and mtime observed. Zero while non-existent.
	ctime time.Time
	ino   uint64
	nlink uint64

	clients []*client

	// Non-existent children for which this path is the nearest
	// existing ancestor, waiting to be promoted once they appear.
	subEntries []*entry

	dirty bool

	// Child paths with coalesced Changed events, flushed and
	// deduplicated on the next rescan pass.
	pendingChildChanges []string

	pollFreq time.Duration
	msLeft   time.Duration
}

// client records one subscriber's interest in an entry.
type client struct {
	instance Subscriber
	count    int
	modes    types.WatchModes
	stopped  bool
	pending  types.Event
}

func (e *entry) findClient(sub Subscriber) *client {
	for _, c := range e.clients {
		if c.instance == sub {
			return c
		}
	}
	return nil
}

func (e *entry) addClient(sub Subscriber, modes types.WatchModes) {
	if sub == nil {
		return
	}

	if c := e.findClient(sub); c != nil {
		c.count++
		c.modes = modes
		return
	}

	e.clients = append(e.clients, &client{
		instance: sub,
		count:    1,
		modes:    modes,
	})
}

func (e *entry) removeClient(sub Subscriber) {
	for i, c := range e.clients {
		if c.instance != sub {
			continue
		}

		c.count--
		if c.count == 0 {
			e.clients = append(e.clients[:i], e.clients[i+1:]...)
		}
		return
	}
}

func (e *entry) clientCount() int {
	count := 0
	for _, c := range e.clients {
		count += c.count
	}
	return count
}

// clientsForChild returns the clients interested in events for a child
// of this directory, given whether the child is itself a directory.
func (e *entry) clientsForChild(childIsDir bool) []*client {
	flag := types.WatchFiles
	if childIsDir {
		flag = types.WatchSubDirs
	}

	var ret []*client
	for _, c := range e.clients {
		if c.modes.Has(flag) {
			ret = append(ret, c)
		}
	}
	return ret
}

func (e *entry) findSubEntry(path string) *entry {
	for _, sub := range e.subEntries {
		if sub.path == path {
			return sub
		}
	}
	return nil
}

func (e *entry) removeSubEntry(sub *entry) {
	for i, s := range e.subEntries {
		if s == sub {
			e.subEntries = append(e.subEntries[:i], e.subEntries[i+1:]...)
			return
		}
	}
}

// isValid reports whether anyone still cares about this entry. Entries
// parked for delayed removal fail this check.
func (e *entry) isValid() bool {
	return len(e.clients) > 0 || len(e.subEntries) > 0
}

// propagateDirty marks all waiting sub-entries dirty so the next rescan
// also considers paths that may just have come into existence.
func (e *entry) propagateDirty() {
	for _, sub := range e.subEntries {
		if !sub.dirty {
			sub.dirty = true
			sub.propagateDirty()
		}
	}
}

func (e *entry) parentDirectory() string {
	return filepath.Dir(e.path)
}

func (e *entry) isRoot() bool {
	return e.path == "/"
}

// isNoisyFile filters child names that are known churn generators, such
// as session error logs and font caches.
func isNoisyFile(name string) bool {
	if !strings.HasPrefix(name, ".") {
		return false
	}

	return strings.HasPrefix(name, ".X.err") ||
		strings.HasPrefix(name, ".xsession-errors") ||
		strings.HasPrefix(name, ".fonts.cache")
}
