package fasttransport

import "time"

// MonotonicTicks abstracts original_source's rdtsc()-based clock so
// tests can substitute a virtual clock instead of wall time.
type MonotonicTicks interface {
	Now() uint64
}

// realClock reports nanoseconds since an arbitrary epoch, monotonic
// within a process.
type realClock struct{ start time.Time }

func newRealClock() *realClock { return &realClock{start: time.Now()} }

func (c *realClock) Now() uint64 { return uint64(time.Since(c.start)) }

// virtualClock is a MonotonicTicks a test can advance by hand, so
// timeout-driven behavior (retransmits, keepalive ACKs, session
// expiry) is reproducible without sleeping.
type virtualClock struct{ ticks uint64 }

func newVirtualClock() *virtualClock { return &virtualClock{} }

func (c *virtualClock) Now() uint64 { return c.ticks }

// Advance moves the virtual clock forward by d nanoseconds worth of
// ticks.
func (c *virtualClock) Advance(d time.Duration) { c.ticks += uint64(d) }

// timerFunc is invoked when a Timer's deadline elapses; now is the
// clock reading fireTimers observed.
type timerFunc func(now uint64)

// Timer is a single pending deadline. when == 0 means not scheduled.
type Timer struct {
	when uint64
	fire timerFunc

	inList bool
}

// timerList is the flat, linearly-scanned list of pending timers
// spec §4.1/§4.6 calls for: no ordering is imposed, each poll() tick
// scans the whole list once.
type timerList struct {
	timers []*Timer
}

// add schedules timer to fire at or after when, rescheduling it in
// place if already pending.
func (l *timerList) add(timer *Timer, when uint64) {
	timer.when = when
	if !timer.inList {
		timer.inList = true
		l.timers = append(l.timers, timer)
	}
}

// remove cancels a pending timer. Safe to call on a timer that is not
// scheduled.
func (l *timerList) remove(timer *Timer) {
	if !timer.inList {
		return
	}
	for i, t := range l.timers {
		if t == timer {
			l.timers = append(l.timers[:i], l.timers[i+1:]...)
			break
		}
	}
	timer.inList = false
	timer.when = 0
}

// fireDue removes and invokes every timer whose deadline has elapsed.
// Timers that want to fire again must reschedule themselves from
// within fire, matching original_source's fireTimers contract.
func (l *timerList) fireDue(now uint64) {
	var due, rest []*Timer
	for _, t := range l.timers {
		if t.when != 0 && t.when <= now {
			due = append(due, t)
		} else {
			rest = append(rest, t)
		}
	}
	l.timers = rest
	for _, t := range due {
		t.inList = false
		t.when = 0
		t.fire(now)
	}
}
