// SPDX-FileCopyrightText: 2025 Chen Linxuan <me@black-desk.cn>
//
// SPDX-License-Identifier: MIT

package dirwatch

import (
	"time"

	"github.com/black-desk/dirwatch/pkg/types"
)

// WatchModes selects which children of a watched directory are
// reported.
type WatchModes = types.WatchModes

// Watch modes for AddDir. WatchDirOnly only reports the directory
// itself; WatchFiles and WatchSubDirs extend interest to its children.
const (
	WatchDirOnly = types.WatchDirOnly
	WatchFiles   = types.WatchFiles
	WatchSubDirs = types.WatchSubDirs
)

// Created delivers paths that came into existence.
func (w *Watcher) Created() <-chan string {
	return w.created
}

// Changed delivers paths whose content or attributes changed.
func (w *Watcher) Changed() <-chan string {
	return w.changed
}

// Deleted delivers paths that went away.
func (w *Watcher) Deleted() <-chan string {
	return w.deleted
}

// Name returns the instance name used in logs.
func (w *Watcher) Name() string {
	return w.name
}

// AddDir watches the directory at path. Relative paths resolve against
// the current working directory. Watching the same path again from the
// same instance only bumps a reference count.
func (w *Watcher) AddDir(path string, modes ...types.WatchModes) {
	if w.detached.Load() {
		return
	}

	combined := types.WatchDirOnly
	for _, m := range modes {
		combined |= m
	}

	w.eng.AddEntry(w.sub, w.resolve(path), true, combined)
}

// AddFile watches the file at path.
func (w *Watcher) AddFile(path string) {
	if w.detached.Load() {
		return
	}

	w.eng.AddEntry(w.sub, w.resolve(path), false, types.WatchDirOnly)
}

// RemoveDir drops one AddDir registration of path.
func (w *Watcher) RemoveDir(path string) {
	if w.detached.Load() {
		return
	}

	w.eng.RemoveEntry(w.sub, w.resolve(path))
}

// RemoveFile drops one AddFile registration of path.
func (w *Watcher) RemoveFile(path string) {
	if w.detached.Load() {
		return
	}

	w.eng.RemoveEntry(w.sub, w.resolve(path))
}

// StopDirScan pauses delivery for path until RestartDirScan. It reports
// whether the path is watched.
func (w *Watcher) StopDirScan(path string) bool {
	if w.detached.Load() {
		return false
	}

	return w.eng.StopEntryScan(w.sub, w.resolve(path))
}

// RestartDirScan resumes delivery for path. Changes that happened while
// paused are not reported.
func (w *Watcher) RestartDirScan(path string) bool {
	if w.detached.Load() {
		return false
	}

	return w.eng.RestartEntryScan(w.sub, w.resolve(path), false)
}

// StopScan pauses delivery on every path this instance watches.
func (w *Watcher) StopScan() {
	if w.detached.Load() {
		return
	}

	w.stopped.Store(true)
	w.eng.StopScan(w.sub)
}

// StartScan resumes delivery on every path this instance watches.
// Events dropped while stopped are not replayed; with doNotify set, a
// path whose creation no scan has seen yet is reported as created on
// resume. skippedToo additionally clears events held for paths that
// stay individually paused.
func (w *Watcher) StartScan(doNotify, skippedToo bool) {
	if w.detached.Load() {
		return
	}

	w.stopped.Store(false)
	w.eng.StartScan(w.sub, doNotify, skippedToo)
}

// IsStopped reports whether StopScan is in effect.
func (w *Watcher) IsStopped() bool {
	return w.stopped.Load()
}

// Contains reports whether this instance watches path.
func (w *Watcher) Contains(path string) bool {
	if w.detached.Load() {
		return false
	}

	return w.eng.Contains(w.sub, w.resolve(path))
}

// CTime returns the last observed change time of path, or the zero time
// when the path is not watched or does not exist.
func (w *Watcher) CTime(path string) time.Time {
	if w.detached.Load() {
		return time.Time{}
	}

	return w.eng.CTime(w.resolve(path))
}

// InternalMethod returns the detection method watching path, or the
// engine's preferred method when the path is not watched.
func (w *Watcher) InternalMethod(path string) types.Method {
	if w.detached.Load() {
		return types.MethodUnknown
	}

	return w.eng.Method(w.resolve(path))
}

// Close detaches the instance from the engine and closes the delivery
// channels. Every later call on the watcher is a no-op.
func (w *Watcher) Close() {
	if w.detached.Swap(true) {
		return
	}

	w.eng.RemoveSubscriber(w.sub)

	close(w.created)
	close(w.changed)
	close(w.deleted)

	w.log.Debugw("Watcher closed.",
		"name", w.name,
	)
}
