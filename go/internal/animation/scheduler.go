package animation

import (
	"github.com/jonboulle/clockwork"
)

// startLoop begins a new tick loop, replacing whatever frame was pending. A
// pending tick of the old loop that already fired and is waiting on the lock
// sees a different loop id and returns without drawing.
func (e *Engine) startLoop() {
	e.loop++
	e.scheduleLocked(e.loop)
}

// scheduleLocked arms a one-shot timer for the next frame of loop
func (e *Engine) scheduleLocked(loop uint64) {
	if e.timer != nil {
		stopTimer(e.timer)
	}
	e.timer = e.clock.AfterFunc(e.config.Delay, func() {
		e.tick(loop)
	})
}

// stopTimer stops a pending frame. A timer that already fired cannot be
// recalled; its tick is discarded by the loop id check instead.
func stopTimer(timer clockwork.Timer) {
	timer.Stop()
}
