package audio

import (
	"sync"
	"time"
)

type armed struct {
	gen   uint64
	timer *time.Timer
}

// autoPauses keeps at most one armed auto-pause per session. A fire that
// lost a race with cancel sees a newer generation and does nothing.
type autoPauses struct {
	mtx    sync.Mutex
	gen    uint64
	timers map[string]armed
}

func newAutoPauses() *autoPauses {
	return &autoPauses{timers: map[string]armed{}}
}

// arm schedules fire after d, replacing the session's previous timer. valid
// is checked again when the timer fires; a superseded arming does nothing.
func (a *autoPauses) arm(code string, d time.Duration, valid func() bool, fire func()) bool {
	if !valid() {
		return false
	}

	a.mtx.Lock()
	defer a.mtx.Unlock()

	if prev, ok := a.timers[code]; ok {
		prev.timer.Stop()
	}

	a.gen++
	gen := a.gen
	a.timers[code] = armed{
		gen: gen,
		timer: time.AfterFunc(d, func() {
			a.mtx.Lock()
			cur, ok := a.timers[code]
			if !ok || cur.gen != gen {
				a.mtx.Unlock()
				return
			}
			delete(a.timers, code)
			a.mtx.Unlock()

			if valid() {
				fire()
			}
		}),
	}
	return true
}

func (a *autoPauses) cancel(code string) bool {
	a.mtx.Lock()
	defer a.mtx.Unlock()

	prev, ok := a.timers[code]
	if !ok {
		return false
	}
	prev.timer.Stop()
	delete(a.timers, code)
	return true
}

func (a *autoPauses) isArmed(code string) bool {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	_, ok := a.timers[code]
	return ok
}
