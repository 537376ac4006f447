package fasttransport

import "testing"

func TestTimerListFiresDueOnly(t *testing.T) {
	var l timerList
	var fired []string

	t1 := &Timer{}
	t1.fire = func(now uint64) { fired = append(fired, "t1") }
	t2 := &Timer{}
	t2.fire = func(now uint64) { fired = append(fired, "t2") }

	l.add(t1, 100)
	l.add(t2, 200)

	l.fireDue(150)
	if len(fired) != 1 || fired[0] != "t1" {
		t.Fatalf("expected only t1 to fire, got %v", fired)
	}

	l.fireDue(200)
	if len(fired) != 2 || fired[1] != "t2" {
		t.Fatalf("expected t2 to fire next, got %v", fired)
	}
}

func TestTimerListReschedule(t *testing.T) {
	var l timerList
	timer := &Timer{}
	l.add(timer, 100)
	l.add(timer, 50)

	if len(l.timers) != 1 {
		t.Fatalf("expected a single entry after reschedule, got %d", len(l.timers))
	}
	if timer.when != 50 {
		t.Errorf("expected when=50, got %d", timer.when)
	}
}

func TestTimerListRemove(t *testing.T) {
	var l timerList
	timer := &Timer{}
	l.add(timer, 100)
	l.remove(timer)

	if len(l.timers) != 0 {
		t.Errorf("expected timer removed")
	}
	if timer.inList {
		t.Errorf("expected inList false after remove")
	}
}

func TestVirtualClockAdvance(t *testing.T) {
	c := newVirtualClock()
	if c.Now() != 0 {
		t.Fatalf("expected fresh clock at 0")
	}
	c.Advance(10)
	if c.Now() != 10 {
		t.Errorf("expected 10, got %d", c.Now())
	}
}
