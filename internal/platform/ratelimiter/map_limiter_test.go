package ratelimiter

import (
	"testing"
	"time"
)

func TestAllowEnforcesBurstPerKey(t *testing.T) {
	l := New(1, 2, time.Minute)
	now := time.Unix(1_700_000_000, 0)
	if !l.Allow("198.51.100.1", now) || !l.Allow("198.51.100.1", now) {
		t.Fatal("burst of two should be allowed")
	}
	if l.Allow("198.51.100.1", now) {
		t.Fatal("third request in the same instant should be limited")
	}
	if !l.Allow("198.51.100.2", now) {
		t.Fatal("other clients have their own bucket")
	}
	if !l.Allow("198.51.100.1", now.Add(time.Second)) {
		t.Fatal("token should refill after one second")
	}
}

func TestNilAndBlankKeyAllow(t *testing.T) {
	if l := New(0, 1, 0); l != nil {
		t.Fatal("invalid rate should produce nil limiter")
	}
	var l *MapLimiter
	if !l.Allow("x", time.Now()) {
		t.Fatal("nil limiter must allow")
	}
	if l.Len() != 0 {
		t.Fatal("nil limiter has no keys")
	}
	limited := New(1, 1, time.Minute)
	now := time.Now()
	for i := 0; i < 3; i++ {
		if !limited.Allow("  ", now) {
			t.Fatal("blank key is never limited")
		}
	}
	if limited.Len() != 0 {
		t.Fatalf("blank key should not be tracked, got %d", limited.Len())
	}
}

func TestSweepEvictsIdleKeys(t *testing.T) {
	l := New(5, 5, time.Minute)
	start := time.Unix(1_700_000_000, 0)
	l.Allow("old", start)
	l.Allow("fresh", start.Add(90*time.Second))
	l.Sweep(start.Add(2 * time.Minute))
	if got := l.Len(); got != 1 {
		t.Fatalf("unexpected tracked keys: got=%d want=1", got)
	}
}
