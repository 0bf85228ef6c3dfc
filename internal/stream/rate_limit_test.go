package stream

import (
	"fmt"
	"testing"
)

func TestStreamLimiterPerIP(t *testing.T) {
	l := newStreamLimiter(2)

	if !l.acquire("10.0.0.1") || !l.acquire("10.0.0.1") {
		t.Fatal("first two acquires should succeed")
	}
	if l.acquire("10.0.0.1") {
		t.Error("third acquire for the same IP should fail")
	}
	// A different IP has its own budget.
	if !l.acquire("10.0.0.2") {
		t.Error("other IP should not be affected")
	}

	l.release("10.0.0.1")
	if !l.acquire("10.0.0.1") {
		t.Error("acquire after release should succeed")
	}

	if got := l.count("10.0.0.1"); got != 2 {
		t.Errorf("count = %d, want 2", got)
	}
}

func TestStreamLimiterGlobalCap(t *testing.T) {
	l := newStreamLimiter(5)
	l.totalCap = 10

	for i := 0; i < 10; i++ {
		ip := fmt.Sprintf("10.0.0.%d", i)
		if !l.acquire(ip) {
			t.Fatalf("acquire %d should succeed", i)
		}
	}
	if l.acquire("10.0.0.200") {
		t.Error("acquire past the global cap should fail")
	}

	l.release("10.0.0.0")
	if !l.acquire("10.0.0.200") {
		t.Error("acquire after a release should succeed")
	}
}

func TestStreamLimiterCleansUpEmptyEntries(t *testing.T) {
	l := newStreamLimiter(3)
	l.acquire("10.0.0.1")
	l.release("10.0.0.1")

	l.mu.Lock()
	_, present := l.perIP["10.0.0.1"]
	l.mu.Unlock()
	if present {
		t.Error("released IP should be removed from the map")
	}
}
