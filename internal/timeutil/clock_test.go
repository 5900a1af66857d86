package timeutil

import (
	"testing"
	"time"
)

func TestRealClock_Now(t *testing.T) {
	clock := RealClock{}
	before := time.Now()
	now := clock.Now()
	after := time.Now()

	if now.Before(before) || now.After(after) {
		t.Errorf("Now() = %v, expected between %v and %v", now, before, after)
	}
}

func TestRealClock_Since(t *testing.T) {
	clock := RealClock{}
	past := time.Now().Add(-time.Second)

	if d := clock.Since(past); d < time.Second {
		t.Errorf("Since() returned %v, expected >= 1s", d)
	}
}

func TestMockClock(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := NewMockClock(start)

	if got := clock.Now(); !got.Equal(start) {
		t.Errorf("Now() = %v, want %v", got, start)
	}
	clock.Advance(5 * time.Second)
	if got := clock.Since(start); got != 5*time.Second {
		t.Errorf("Since() = %v, want 5s", got)
	}

	clock.Set(start)
	clock.SetTick(time.Millisecond)
	first, second := clock.Now(), clock.Now()
	if d := second.Sub(first); d != time.Millisecond {
		t.Errorf("consecutive Now() differ by %v, want 1ms", d)
	}
	if got := clock.Since(first); got != 2*time.Millisecond {
		t.Errorf("Since() = %v, want 2ms", got)
	}
}
