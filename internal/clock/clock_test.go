package clock

import (
	"testing"
	"time"
)

func TestFakeAdvance(t *testing.T) {
	f := NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	before := f.Now()
	f.Advance(90 * 24 * time.Hour)
	after := f.Now()
	if !after.After(before) {
		t.Fatalf("Advance did not move the clock forward: before=%v after=%v", before, after)
	}
}

func TestCounterMonotone(t *testing.T) {
	c := NewCounter(10)
	ids := make(map[int64]bool)
	var prev int64 = 10
	for i := 0; i < 100; i++ {
		id := c.NextID()
		if id <= prev {
			t.Fatalf("NextID not monotone: got %d after %d", id, prev)
		}
		if ids[id] {
			t.Fatalf("NextID produced duplicate %d", id)
		}
		ids[id] = true
		prev = id
	}
}
