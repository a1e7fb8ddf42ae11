package backoff

import (
	"testing"
	"time"
)

func TestBackoff_Doubles(t *testing.T) {
	b := New(time.Second, time.Minute)

	want := []time.Duration{
		time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
	}
	for i, w := range want {
		if got := b.Next(); got != w {
			t.Errorf("attempt %d: delay = %s, want %s", i, got, w)
		}
	}
}

func TestBackoff_CapsAtMax(t *testing.T) {
	b := New(time.Second, 5*time.Second)

	var last time.Duration
	for i := 0; i < 10; i++ {
		last = b.Next()
	}
	if last != 5*time.Second {
		t.Errorf("capped delay = %s, want 5s", last)
	}
}

func TestBackoff_Reset(t *testing.T) {
	b := New(time.Second, time.Minute)
	b.Next()
	b.Next()
	b.Reset()

	if got := b.Next(); got != time.Second {
		t.Errorf("delay after reset = %s, want 1s", got)
	}
}
