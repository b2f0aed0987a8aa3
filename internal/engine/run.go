package engine

import (
	"time"

	"github.com/rjeczalik/notify"
)

func (e *Engine) run() {
	defer close(e.done)

	for {
		select {
		case <-e.closing:
			return
		case fn := <-e.cmds:
			fn()
		case batch := <-e.inoEvents:
			e.handleINotifyBatch(batch)
		case ei := <-e.genericEvents:
			e.handleGenericEvent(ei.Path())
		case <-e.statC:
			e.rescan()
		case <-e.rescanTimer.C:
			e.rescanActive = false
			e.rescan()
		}

		e.flushDispatch()
		e.sweepRemoved()
	}
}

// do posts fn onto the run goroutine and waits for it to finish. After
// Close it is a no-op.
func (e *Engine) do(fn func()) {
	donec := make(chan struct{})

	select {
	case e.cmds <- func() {
		fn()
		close(donec)
	}:
	case <-e.closing:
		return
	}

	select {
	case <-donec:
	case <-e.done:
	}
}

// scheduleRescan arms the single-shot rescan timer unless it is already
// pending.
func (e *Engine) scheduleRescan(d time.Duration) {
	if e.rescanActive {
		return
	}
	e.resetRescanTimer(d)
}

// scheduleRescanNow rearms the rescan timer to fire immediately, even
// if a later rescan is already pending.
func (e *Engine) scheduleRescanNow() {
	e.resetRescanTimer(0)
}

func (e *Engine) resetRescanTimer(d time.Duration) {
	if e.rescanActive && !e.rescanTimer.Stop() {
		<-e.rescanTimer.C
	}
	e.rescanTimer.Reset(d)
	e.rescanActive = true
}

func (e *Engine) startStatTimer() {
	e.statTicker = time.NewTicker(e.freq)
	e.statC = e.statTicker.C
}

func (e *Engine) stopStatTimer() {
	if e.statTicker == nil {
		return
	}
	e.statTicker.Stop()
	e.statTicker = nil
	e.statC = nil
}

func (e *Engine) resetStatTimer() {
	if e.statTicker == nil {
		return
	}
	e.statTicker.Reset(e.freq)
}

// sweepRemoved destroys entries parked during the last dispatch pass.
// Removing one entry can remove its parent placeholder, which may drop
// further entries from the set, hence the drain loop.
func (e *Engine) sweepRemoved() {
	e.delayRemove = false

	for len(e.removeSet) > 0 {
		for en := range e.removeSet {
			e.removeEntryRef(nil, en, nil)
			break
		}
	}
}

// Close shuts the engine down: the run goroutine exits, timers stop,
// the kernel event stream is closed and every generic watch released.
// Pending facade calls return without effect.
func (e *Engine) Close() {
	e.closeOnce.Do(e.close)
}

func (e *Engine) close() {
	close(e.closing)
	<-e.done

	e.stopStatTimer()
	if e.rescanActive && !e.rescanTimer.Stop() {
		<-e.rescanTimer.C
	}

	e.ino.close()

	for _, en := range e.entries {
		if en.genericCh != nil {
			notify.Stop(en.genericCh)
			close(en.genericCh)
			en.genericCh = nil
		}
	}

	e.sweepRemoved()

	e.entries = make(map[string]*entry)
	e.subscribers = make(map[Subscriber]struct{})
	e.queue = nil

	e.log.Debugw("Watch engine closed.")
}
