package usecase

import (
	"testing"
	"time"
)

func TestLedgerFirstSeenIsZero(t *testing.T) {
	l := NewBanLedger()
	now := time.Now()

	rec := l.Get("u1", now)
	if rec.Count != 0 {
		t.Errorf("expected zero count for first-seen user, got %d", rec.Count)
	}
}

func TestLedgerRecordOffense(t *testing.T) {
	l := NewBanLedger()
	now := time.Now()

	if got := l.RecordOffense("u1", now); got != 1 {
		t.Errorf("expected count 1, got %d", got)
	}
	if got := l.RecordOffense("u1", now.Add(time.Minute)); got != 2 {
		t.Errorf("expected count 2, got %d", got)
	}
	if rec := l.Get("u1", now.Add(2*time.Minute)); rec.Count != 2 {
		t.Errorf("count decreased without decay: %d", rec.Count)
	}
}

func TestLedgerDecayIsStrict(t *testing.T) {
	l := NewBanLedger()
	t0 := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	l.RecordOffense("u1", t0)

	// Exactly at the window boundary the record survives.
	if rec := l.Get("u1", t0.Add(DecayWindow)); rec.Count != 1 {
		t.Errorf("record decayed at exactly the window boundary, count=%d", rec.Count)
	}
	// Strictly past it the record resets.
	if rec := l.Get("u1", t0.Add(DecayWindow+time.Second)); rec.Count != 0 {
		t.Errorf("record not decayed past the window, count=%d", rec.Count)
	}
}

func TestNextDuration(t *testing.T) {
	cases := []struct {
		base, count, want int
	}{
		{10, 0, 10},
		{10, 1, 20},
		{10, 3, 80},
		{1, 0, 1},
		{1, 2, 4},
		{0, 5, 1}, // floor
	}
	for _, c := range cases {
		if got := NextDuration(c.base, c.count); got != c.want {
			t.Errorf("NextDuration(%d, %d) = %d, want %d", c.base, c.count, got, c.want)
		}
	}

	// Monotonically non-decreasing in count, always >= 1.
	prev := 0
	for count := 0; count < 100; count++ {
		d := NextDuration(1, count)
		if d < 1 {
			t.Fatalf("duration below one minute at count %d", count)
		}
		if d < prev {
			t.Fatalf("duration decreased at count %d: %d -> %d", count, prev, d)
		}
		prev = d
	}
}

func TestLedgerTopN(t *testing.T) {
	l := NewBanLedger()
	t0 := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		l.RecordOffense("A", t0.Add(time.Duration(i)*time.Minute))
	}
	for i := 0; i < 3; i++ {
		l.RecordOffense("B", t0.Add(time.Duration(i)*time.Minute))
	}
	for i := 0; i < 5; i++ {
		l.RecordOffense("C", t0.Add(time.Duration(i+1)*time.Minute))
	}

	top := l.TopN(2, t0.Add(10*time.Minute))
	if len(top) != 2 {
		t.Fatalf("expected 2 records, got %d", len(top))
	}
	// A and C are tied at 5; C acted more recently and ranks first.
	if top[0].UserID != "C" || top[1].UserID != "A" {
		t.Errorf("expected [C A], got [%s %s]", top[0].UserID, top[1].UserID)
	}
}

func TestLedgerTopNForcesDecay(t *testing.T) {
	l := NewBanLedger()
	t0 := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 9; i++ {
		l.RecordOffense("stale", t0)
	}
	l.RecordOffense("fresh", t0.Add(DecayWindow))

	top := l.TopN(2, t0.Add(DecayWindow+time.Hour))
	if top[0].UserID != "fresh" || top[0].Count != 1 {
		t.Errorf("expected fresh on top, got %s (count %d)", top[0].UserID, top[0].Count)
	}
	if top[1].Count != 0 {
		t.Errorf("stale record not force-decayed before ranking, count=%d", top[1].Count)
	}
}

func TestLedgerSnapshotRestore(t *testing.T) {
	l := NewBanLedger()
	now := time.Now()
	l.RecordOffense("u1", now)
	l.RecordOffense("u1", now)
	l.RecordOffense("u2", now)

	snap := l.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("expected 2 records in snapshot, got %d", len(snap))
	}

	restored := NewBanLedger()
	restored.Restore(snap)
	if rec := restored.Get("u1", now); rec.Count != 2 {
		t.Errorf("expected restored count 2, got %d", rec.Count)
	}
	if rec := restored.Get("u2", now); rec.Count != 1 {
		t.Errorf("expected restored count 1, got %d", rec.Count)
	}
}
