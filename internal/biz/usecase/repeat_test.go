package usecase

import (
	"fmt"
	"math/rand"
	"testing"
)

// newTestDetector returns a detector whose echo draw always succeeds
// (zero source) and whose gate can be rigged via d.gate.bag.
func newTestDetector() *RepeatDetector {
	return NewRepeatDetector(rand.New(zeroSource{}), NewRandomGate(rand.New(rand.NewSource(1))))
}

func TestRepeatDistinctSenders(t *testing.T) {
	d := newTestDetector()

	if got := d.Observe("spam", "u1", false); got != RepeatNoAction {
		t.Errorf("first sender: got %v, want no action", got)
	}
	// Second distinct sender reaches the threshold; the zero source makes
	// the echo draw succeed immediately.
	if got := d.Observe("spam", "u2", false); got != RepeatEcho {
		t.Errorf("second sender: got %v, want echo", got)
	}
	// Third distinct sender: entry already echoed; admin skips the gate.
	if got := d.Observe("spam", "u3", true); got != RepeatNoAction {
		t.Errorf("third sender: got %v, want no action", got)
	}

	if n := len(d.queue[0].senders); n != 3 {
		t.Errorf("expected 3 distinct senders, got %d", n)
	}
	if !d.queue[0].repeated {
		t.Error("entry not marked repeated after echo")
	}
}

func TestRepeatEchoFiresAtMostOnce(t *testing.T) {
	d := newTestDetector()
	d.Observe("spam", "u1", false)
	if got := d.Observe("spam", "u2", false); got != RepeatEcho {
		t.Fatalf("setup: got %v, want echo", got)
	}

	// Force the gate closed so later observes return cleanly.
	d.gate.bag = []bool{false, false, false, false, false, false, false, false}
	for i := 3; i < 10; i++ {
		if got := d.Observe("spam", fmt.Sprintf("u%d", i), false); got == RepeatEcho {
			t.Fatalf("echo fired a second time for sender u%d", i)
		}
	}
}

func TestRepeatBanSuggestion(t *testing.T) {
	d := newTestDetector()
	d.Observe("spam", "u1", false)
	d.Observe("spam", "u2", false) // echo fires here

	d.gate.bag = []bool{true}
	if got := d.Observe("spam", "u3", false); got != RepeatBanSuggested {
		t.Errorf("open gate: got %v, want ban suggestion", got)
	}

	d.gate.bag = []bool{false}
	if got := d.Observe("spam", "u4", false); got != RepeatNoAction {
		t.Errorf("closed gate: got %v, want no action", got)
	}

	// Administrators never draw the gate at all.
	d.gate.bag = []bool{true}
	if got := d.Observe("spam", "admin", true); got != RepeatNoAction {
		t.Errorf("admin: got %v, want no action", got)
	}
	if len(d.gate.bag) != 1 {
		t.Error("gate token consumed for an administrator")
	}
}

func TestRepeatSameSenderCountsOnce(t *testing.T) {
	d := newTestDetector()
	d.Observe("hello", "u1", false)
	if got := d.Observe("hello", "u1", false); got != RepeatNoAction {
		t.Errorf("got %v, want no action below the sender threshold", got)
	}
	if n := len(d.queue[0].senders); n != 1 {
		t.Errorf("same sender counted twice: %d", n)
	}
}

func TestRepeatWindowEviction(t *testing.T) {
	d := newTestDetector()
	for i := 0; i < RepeatQueueSize+1; i++ {
		d.Observe(fmt.Sprintf("text-%d", i), "u1", false)
	}

	if d.Len() != RepeatQueueSize {
		t.Fatalf("window size %d, want %d", d.Len(), RepeatQueueSize)
	}
	if d.take("text-0") != nil {
		t.Error("least-recently-touched entry not evicted")
	}
	if d.take("text-1") == nil {
		t.Error("second-oldest entry wrongly evicted")
	}
}

func TestRepeatTouchMovesToFront(t *testing.T) {
	d := newTestDetector()
	d.Observe("a", "u1", false)
	d.Observe("b", "u1", false)
	d.Observe("a", "u2", false) // touch "a", may echo; order is what matters

	if d.queue[0].text != "a" {
		t.Errorf("touched entry not at the front, got %q", d.queue[0].text)
	}

	// Fill the window; "b" (now oldest) falls out first, "a" survives.
	for i := 0; i < RepeatQueueSize-1; i++ {
		d.Observe(fmt.Sprintf("filler-%d", i), "u1", false)
	}
	if d.take("b") != nil {
		t.Error("expected b to be evicted")
	}
	if d.take("a") == nil {
		t.Error("expected a to survive after being touched")
	}
}
