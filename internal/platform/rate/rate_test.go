package rate

import (
	"context"
	"testing"
	"time"
)

func TestAllowBurst(t *testing.T) {
	l := New(1, 3)

	for i := 0; i < 3; i++ {
		if !l.Allow() {
			t.Fatalf("burst token %d denied", i+1)
		}
	}
	if l.Allow() {
		t.Error("token granted past the burst")
	}
}

func TestIntervalPacing(t *testing.T) {
	l := NewInterval(30 * time.Millisecond)

	if !l.Allow() {
		t.Fatal("first token must be immediate")
	}
	if l.Allow() {
		t.Error("second token granted without waiting")
	}

	time.Sleep(40 * time.Millisecond)
	if !l.Allow() {
		t.Error("token not refilled after the interval")
	}
}

func TestWaitBlocksUntilToken(t *testing.T) {
	l := NewInterval(20 * time.Millisecond)
	ctx := context.Background()

	if err := l.Wait(ctx); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	start := time.Now()
	if err := l.Wait(ctx); err != nil {
		t.Fatalf("second wait: %v", err)
	}
	if time.Since(start) < 10*time.Millisecond {
		t.Error("second wait returned before the interval elapsed")
	}
}

func TestWaitHonorsCancellation(t *testing.T) {
	l := NewInterval(time.Hour)
	if !l.Allow() {
		t.Fatal("first token")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := l.Wait(ctx); err == nil {
		t.Error("wait must fail when the context expires")
	}
}

func TestSetRate(t *testing.T) {
	l := New(1, 1)
	if !l.Allow() {
		t.Fatal("initial token")
	}

	l.SetRate(1000)
	time.Sleep(5 * time.Millisecond)
	if !l.Allow() {
		t.Error("raised rate must refill quickly")
	}
}
