package ratelimiter

import (
	"fmt"
	"testing"
	"time"
)

func TestMapLimiterPerKeyBurst(t *testing.T) {
	l := New(1, 2, time.Minute)
	now := time.Unix(1000, 0)

	if !l.Allow("a", now) || !l.Allow("a", now) {
		t.Fatal("burst of 2 should be allowed")
	}
	if l.Allow("a", now) {
		t.Fatal("third request in the same instant should be limited")
	}
	if !l.Allow("b", now) {
		t.Fatal("keys must not share buckets")
	}
	if !l.Allow("a", now.Add(time.Second)) {
		t.Fatal("bucket should refill after one second")
	}
}

func TestMapLimiterNilAllows(t *testing.T) {
	var l *MapLimiter
	if !l.Allow("x", time.Now()) {
		t.Fatal("nil limiter must allow")
	}
	if New(0, 1, 0) != nil {
		t.Fatal("invalid rps should yield nil limiter")
	}
}

func TestMapLimiterEvictsIdle(t *testing.T) {
	l := New(10, 10, time.Second)
	start := time.Unix(1000, 0)
	l.Allow("stale", start)

	later := start.Add(time.Hour)
	for i := 0; i < 300; i++ {
		l.Allow(fmt.Sprintf("k%d", i%3), later)
	}
	if l.Len() != 3 {
		t.Fatalf("expected idle key evicted, have %d keys", l.Len())
	}
}
