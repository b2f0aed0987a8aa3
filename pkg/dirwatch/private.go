package dirwatch

import (
	"path/filepath"
)

// subscriber is the delivery adapter registered with the engine. Its
// methods run on the engine goroutine and must not block, so sends past
// the channel buffer are dropped.
type subscriber struct {
	w *Watcher
}

func (s *subscriber) Name() string {
	return s.w.name
}

func (s *subscriber) PathCreated(path string) {
	s.w.deliver(s.w.created, path, "created")
}

func (s *subscriber) PathChanged(path string) {
	s.w.deliver(s.w.changed, path, "changed")
}

func (s *subscriber) PathDeleted(path string) {
	s.w.deliver(s.w.deleted, path, "deleted")
}

func (w *Watcher) deliver(ch chan string, path string, kind string) {
	select {
	case ch <- path:
	default:
		w.log.Warnw("Event dropped, receiver is too slow.",
			"name", w.name,
			"event", kind,
			"path", path,
		)
	}
}

func (w *Watcher) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}
