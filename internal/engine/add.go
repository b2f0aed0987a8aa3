package engine

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/black-desk/dirwatch/internal/fstype"
	"github.com/black-desk/dirwatch/pkg/types"
	"golang.org/x/sys/unix"
)

// addEntry registers interest in path. When sub is not nil it becomes a
// client of the entry; when subEntry is not nil, path is watched as the
// placeholder ancestor of that non-existent entry instead.
func (eng *Engine) addEntry(
	sub Subscriber,
	path string,
	subEntry *entry,
	isDir bool,
	modes types.WatchModes,
) {
	if strings.HasPrefix(path, ":/") {
		eng.log.Warnw("Refuse to watch pseudo resource path.",
			"path", path,
		)
		return
	}
	if path == "" || path == "/dev" ||
		(strings.HasPrefix(path, "/dev/") &&
			!strings.HasPrefix(path, "/dev/.") &&
			!strings.HasPrefix(path, "/dev/shm")) {
		return
	}

	if len(path) > 1 && strings.HasSuffix(path, "/") {
		path = strings.TrimSuffix(path, "/")
	}

	if e, ok := eng.entries[path]; ok {
		if subEntry != nil {
			e.subEntries = append(e.subEntries, subEntry)
			eng.log.Debugw("Attach sub entry to already watched path.",
				"path", path,
				"sub entry", subEntry.path,
			)
		} else {
			e.addClient(sub, modes)
		}
		return
	}

	var st unix.Stat_t
	exists := unix.Stat(path, &st) == nil

	e := &entry{path: path, wd: -1}
	eng.entries[path] = e

	if exists {
		e.isDir = st.Mode&unix.S_IFMT == unix.S_IFDIR

		if e.isDir && !isDir {
			// A symlink to a directory is watched as a file,
			// it is never followed.
			var lst unix.Stat_t
			if unix.Lstat(path, &lst) == nil &&
				lst.Mode&unix.S_IFMT == unix.S_IFLNK {
				e.isDir = false
			}
		}

		if e.isDir && !isDir {
			eng.log.Warnw("Path is a directory, registered as a file.",
				"path", path,
			)
		} else if !e.isDir && isDir {
			eng.log.Warnw("Path is a file, registered as a directory.",
				"path", path,
			)
		}

		if !e.isDir && modes != types.WatchDirOnly {
			eng.log.Warnw("Recursive and file watch modes only apply to directories.",
				"path", path,
			)
			modes = types.WatchDirOnly
		}

		e.ctime = maxTimespec(st.Ctim, st.Mtim)
		e.status = statusNormal
		e.nlink = uint64(st.Nlink)
		e.ino = st.Ino
	} else {
		e.isDir = isDir
		e.status = statusNonExistent
	}

	if subEntry != nil {
		e.subEntries = append(e.subEntries, subEntry)
	} else {
		e.addClient(sub, modes)
	}

	eng.log.Debugw("Add entry.",
		"path", path,
		"dir", e.isDir,
		"exists", exists,
	)

	e.mode = types.MethodUnknown
	e.msLeft = 0

	if isNoisyFile(filepath.Base(path)) {
		return
	}

	if exists && e.isDir && modes != types.WatchDirOnly {
		eng.addChildEntries(sub, e, modes)
	}

	eng.addWatch(e)
}

// addChildEntries registers the existing children of a directory that
// the watch modes ask for.
func (eng *Engine) addChildEntries(sub Subscriber, e *entry, modes types.WatchModes) {
	watchDirs := modes.Has(types.WatchSubDirs)
	watchFiles := modes.Has(types.WatchFiles)

	if eng.preferred == types.MethodINotify {
		// Child file events already arrive through the directory
		// watch; a watch per file would be redundant.
		watchFiles = false
	}

	children, err := os.ReadDir(e.path)
	if err != nil {
		eng.log.Debugw("Cannot list directory children.",
			"path", e.path,
			"error", err,
		)
		return
	}

	for _, child := range children {
		// DirEntry reports a symlink to a directory as not a
		// directory, which is what we want.
		childIsDir := child.IsDir()
		if childIsDir && !watchDirs {
			continue
		}
		if !childIsDir && !watchFiles {
			continue
		}

		childModes := types.WatchDirOnly
		if childIsDir {
			childModes = modes
		}

		eng.addEntry(sub, filepath.Join(e.path, child.Name()), nil, childIsDir, childModes)
	}
}

// addWatch picks a backend for e. The preferred method is tried first,
// then the rest in the order INotify, Generic, Stat. The generic
// primitive rides on the same kernel interface as the native backend,
// so a failed inotify setup is not retried through it.
func (eng *Engine) addWatch(e *entry) {
	preferred := eng.preferred
	if eng.nfsPreferred != eng.preferred &&
		fstype.Probe(e.path) == fstype.Network {
		preferred = eng.nfsPreferred
	}

	inotifyFailed := false
	attached := false
	switch preferred {
	case types.MethodINotify:
		attached = eng.useINotify(e)
		inotifyFailed = !attached
	case types.MethodGeneric:
		attached = eng.useGeneric(e)
	case types.MethodStat:
		attached = eng.useStat(e)
	}
	if attached {
		return
	}

	if preferred != types.MethodINotify && eng.useINotify(e) {
		return
	}
	if preferred != types.MethodGeneric && !inotifyFailed && eng.useGeneric(e) {
		return
	}
	if preferred != types.MethodStat {
		eng.useStat(e)
	}
}

// useFreq records the poll frequency of a stat entry and lowers the
// global timer pace when needed.
func (eng *Engine) useFreq(e *entry, newFreq time.Duration) {
	e.pollFreq = newFreq

	if e.pollFreq < eng.freq {
		eng.freq = e.pollFreq
		eng.resetStatTimer()
		eng.log.Debugw("Global poll frequency lowered.",
			"freq", eng.freq,
		)
	}
}

func (eng *Engine) useStat(e *entry) bool {
	if fstype.Probe(e.path) == fstype.Network {
		eng.useFreq(e, eng.nfsPollInterval)
	} else {
		eng.useFreq(e, eng.pollInterval)
	}

	if e.mode != types.MethodStat {
		e.mode = types.MethodStat
		eng.statEntries++

		if eng.statEntries == 1 {
			eng.startStatTimer()
			eng.log.Debugw("Started polling timer.",
				"freq", eng.freq,
			)
		}
	}

	eng.log.Debugw("Stat polling set up.",
		"path", e.path,
		"freq", e.pollFreq,
	)

	return true
}

func maxTimespec(a, b unix.Timespec) time.Time {
	at := time.Unix(a.Unix())
	bt := time.Unix(b.Unix())
	if bt.After(at) {
		return bt
	}
	return at
}
