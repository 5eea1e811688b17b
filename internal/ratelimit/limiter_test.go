package ratelimit

import (
	"testing"
	"time"
)

func TestWindowExhaustion(t *testing.T) {
	l := New(10*time.Second, 5)
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	wantRemaining := []int{4, 3, 2, 1, 0}
	for i, want := range wantRemaining {
		res := l.Check("k", now)
		if !res.Allowed {
			t.Fatalf("call %d: Allowed = false, want true", i+1)
		}
		if res.Remaining != want {
			t.Fatalf("call %d: Remaining = %d, want %d", i+1, res.Remaining, want)
		}
	}

	res := l.Check("k", now)
	if res.Allowed {
		t.Fatalf("6th call: Allowed = true, want false")
	}
	if res.Remaining != 0 {
		t.Fatalf("6th call: Remaining = %d, want 0", res.Remaining)
	}
	if res.ResetAt != now.UnixMilli()+10_000 {
		t.Fatalf("6th call: ResetAt = %d, want %d", res.ResetAt, now.UnixMilli()+10_000)
	}
}

func TestWindowResets(t *testing.T) {
	l := New(10*time.Second, 5)
	now := time.Now()

	for i := 0; i < 6; i++ {
		l.Check("k", now)
	}

	later := now.Add(11 * time.Second)
	res := l.Check("k", later)
	if !res.Allowed {
		t.Fatalf("post-reset: Allowed = false, want true")
	}
	if res.Remaining != 4 {
		t.Fatalf("post-reset: Remaining = %d, want 4", res.Remaining)
	}
	if res.ResetAt != later.UnixMilli()+10_000 {
		t.Fatalf("post-reset: ResetAt = %d, want %d", res.ResetAt, later.UnixMilli()+10_000)
	}
}

func TestKeysAreIndependent(t *testing.T) {
	l := New(10*time.Second, 1)
	now := time.Now()

	if res := l.Check("a", now); !res.Allowed {
		t.Fatalf("first key denied")
	}
	if res := l.Check("a", now); res.Allowed {
		t.Fatalf("first key not exhausted")
	}
	if res := l.Check("b", now); !res.Allowed {
		t.Fatalf("second key denied by first key's window")
	}
	if got := l.Size(); got != 2 {
		t.Fatalf("Size = %d, want 2", got)
	}
}
