package engine

import (
	"bytes"
	"time"
	"unsafe"

	"github.com/black-desk/dirwatch/pkg/types"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

const inotifyBufSize = 8192

const inotifyMask = unix.IN_DELETE | unix.IN_DELETE_SELF | unix.IN_CREATE |
	unix.IN_MOVE | unix.IN_MOVE_SELF | unix.IN_DONT_FOLLOW |
	unix.IN_MOVED_FROM | unix.IN_MODIFY | unix.IN_ATTRIB

// rawEvent is one decoded kernel record.
type rawEvent struct {
	wd     int32
	mask   uint32
	cookie uint32
	name   string
}

// inotifyStream owns the kernel event stream: the inotify descriptor,
// the reader goroutine and the descriptor-to-entry reverse map. The
// wake pipe unblocks the reader on shutdown.
type inotifyStream struct {
	supported bool
	fd        int

	pipeR, pipeW int
	readerDone   chan struct{}

	wdToEntry map[int32]*entry

	limitWarned bool
}

func newINotifyStream(log *zap.SugaredLogger) *inotifyStream {
	s := &inotifyStream{
		fd:         -1,
		pipeR:      -1,
		pipeW:      -1,
		readerDone: make(chan struct{}),
		wdToEntry:  make(map[int32]*entry),
	}

	fd, err := unix.InotifyInit1(unix.IN_CLOEXEC | unix.IN_NONBLOCK)
	if err != nil {
		log.Warnw("inotify unavailable.",
			"error", err,
		)
		close(s.readerDone)
		return s
	}

	var p [2]int
	err = unix.Pipe2(p[:], unix.O_CLOEXEC|unix.O_NONBLOCK)
	if err != nil {
		log.Warnw("inotify wake pipe setup failed.",
			"error", err,
		)
		_ = unix.Close(fd)
		close(s.readerDone)
		return s
	}

	s.fd = fd
	s.pipeR, s.pipeW = p[0], p[1]
	s.supported = true
	return s
}

// read drains the kernel stream and forwards decoded batches to out.
// A record split across two reads keeps its prefix at the front of the
// buffer until the rest arrives.
func (s *inotifyStream) read(out chan<- []rawEvent, closing <-chan struct{}) {
	defer close(s.readerDone)

	buf := make([]byte, inotifyBufSize)
	start := 0

	fds := []unix.PollFd{
		{Fd: int32(s.fd), Events: unix.POLLIN},
		{Fd: int32(s.pipeR), Events: unix.POLLIN},
	}

	for {
		fds[0].Revents = 0
		fds[1].Revents = 0

		_, err := unix.Poll(fds, -1)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return
		}
		if fds[1].Revents != 0 {
			return
		}
		if fds[0].Revents == 0 {
			continue
		}

		n, err := unix.Read(s.fd, buf[start:])
		if err == unix.EAGAIN || err == unix.EINTR {
			continue
		}
		if err != nil || n <= 0 {
			return
		}
		n += start
		start = 0

		batch, rest := parseINotifyBuf(buf, n)
		if rest > 0 {
			copy(buf, buf[n-rest:n])
			start = rest
		}

		if len(batch) == 0 {
			continue
		}

		select {
		case out <- batch:
		case <-closing:
			return
		}
	}
}

func parseINotifyBuf(buf []byte, n int) (events []rawEvent, rest int) {
	off := 0
	for off+unix.SizeofInotifyEvent <= n {
		sys := (*unix.InotifyEvent)(unsafe.Pointer(&buf[off]))

		size := unix.SizeofInotifyEvent + int(sys.Len)
		if off+size > n {
			break
		}

		name := ""
		if sys.Len > 0 {
			name = string(bytes.TrimRight(
				buf[off+unix.SizeofInotifyEvent:off+size], "\x00"))
		}

		events = append(events, rawEvent{
			wd:     sys.Wd,
			mask:   sys.Mask,
			cookie: sys.Cookie,
			name:   name,
		})

		off += size
	}

	rest = n - off
	return
}

func (s *inotifyStream) close() {
	if !s.supported {
		return
	}

	_, _ = unix.Write(s.pipeW, []byte{0})
	<-s.readerDone

	_ = unix.Close(s.pipeR)
	_ = unix.Close(s.pipeW)
	_ = unix.Close(s.fd)

	s.supported = false
	s.fd = -1
}

func (s *inotifyStream) warnWatchLimit(log *zap.SugaredLogger, path string) {
	if s.limitWarned {
		return
	}
	s.limitWarned = true

	log.Warnw("inotify watch limit reached; "+
		"raise fs.inotify.max_user_watches to watch more paths.",
		"path", path,
	)
}

// useINotify attaches the native backend to e. For a non-existent path
// the nearest existing ancestor gets watched instead, with e recorded
// as its sub-entry.
func (eng *Engine) useINotify(e *entry) bool {
	e.wd = -1
	e.dirty = false

	if !eng.ino.supported {
		return false
	}

	e.mode = types.MethodINotify

	if e.status == statusNonExistent {
		// Never walk up beyond the filesystem root.
		if e.isRoot() {
			return false
		}

		eng.addEntry(nil, e.parentDirectory(), e, true, types.WatchDirOnly)
		return true
	}

	wd, err := unix.InotifyAddWatch(eng.ino.fd, e.path, inotifyMask)
	if err == nil {
		e.wd = int32(wd)
		eng.ino.wdToEntry[e.wd] = e
		eng.log.Debugw("inotify watch attached.",
			"path", e.path,
			"wd", wd,
		)
		return true
	}

	if err == unix.ENOSPC {
		eng.ino.warnWatchLimit(eng.log, e.path)
	} else {
		eng.log.Debugw("inotify watch failed.",
			"path", e.path,
			"error", err,
		)
	}
	return false
}

func (eng *Engine) handleINotifyBatch(batch []rawEvent) {
	for _, raw := range batch {
		if raw.mask&unix.IN_Q_OVERFLOW != 0 {
			eng.log.Warnw("inotify event queue overflowed; " +
				"raise fs.inotify.max_queued_events. " +
				"Some changes were lost.")
			return
		}

		eng.processINotifyEvent(raw)
	}
}

func (eng *Engine) processINotifyEvent(raw rawEvent) {
	name := raw.name
	if name != "" && isNoisyFile(name) {
		return
	}

	isDir := raw.mask&unix.IN_ISDIR != 0

	e := eng.ino.wdToEntry[raw.wd]
	if e == nil {
		return
	}

	wasDirty := e.dirty
	e.dirty = true

	tpath := e.path
	if name != "" {
		tpath = e.path + "/" + name
	}

	eng.log.Debugw("inotify event.",
		"entry", e.path,
		"name", name,
		"mask", raw.mask,
		"dir", isDir,
	)

	if raw.mask&unix.IN_DELETE_SELF != 0 {
		e.status = statusNonExistent
		delete(eng.ino.wdToEntry, e.wd)
		e.wd = -1
		e.ctime = time.Time{}
		eng.emitEvent(e, types.Deleted, "")

		if !e.isRoot() {
			// If the parent is already watched, let it notice.
			if parent := eng.lookup(e.parentDirectory()); parent != nil {
				parent.dirty = true
			}
			// Watch the parent to notice a recreation.
			eng.addEntry(nil, e.parentDirectory(), e, true, types.WatchDirOnly)
		}
	}

	if raw.mask&(unix.IN_CREATE|unix.IN_MOVED_TO) != 0 {
		sub := e.findSubEntry(tpath)

		if sub != nil {
			// The path we were waiting for appeared; promote
			// it as soon as possible so it gets its own watch.
			sub.dirty = true
			eng.scheduleRescanNow()
		} else if e.isDir && len(e.clients) > 0 {
			clients := e.clientsForChild(isDir)
			if isDir {
				for _, c := range clients {
					eng.addEntry(c.instance, tpath, nil, true, c.modes)
				}
			}
			if len(clients) > 0 {
				eng.emitEvent(e, types.Created, tpath)
				eng.log.Debugw("Monitoring new child.",
					"path", tpath,
					"clients", len(clients),
				)
			}

			e.pendingChildChanges = append(e.pendingChildChanges, e.path)
			eng.scheduleRescan(eng.pollInterval)
		}
	}

	if raw.mask&(unix.IN_DELETE|unix.IN_MOVED_FROM) != 0 {
		if e.isDir && len(e.clients) > 0 {
			// The child had no entry of its own, so no
			// bookkeeping is needed, only the event.
			if len(e.clientsForChild(isDir)) > 0 {
				eng.emitEvent(e, types.Deleted, tpath)
			}
		}
	}

	if raw.mask&(unix.IN_MODIFY|unix.IN_ATTRIB) != 0 {
		if e.isDir && len(e.clients) > 0 {
			e.pendingChildChanges = append(e.pendingChildChanges, tpath)
			// Skip stat'ing the directory itself when only a
			// child changed.
			e.dirty = wasDirty ||
				(name == "" && raw.mask&unix.IN_ATTRIB != 0)
		}
	}

	eng.scheduleRescan(eng.pollInterval)
}
