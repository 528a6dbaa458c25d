package utils

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		"WARN":    LevelWarn,
		"warning": LevelWarn,
		"error":   LevelError,
		"":        LevelInfo,
		"bogus":   LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestRetryWithBackoff_SucceedsFirstTry(t *testing.T) {
	calls := 0
	err := RetryWithBackoff(context.Background(), 3, func() error {
		calls++
		return nil
	}, NewNopLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestRetryWithBackoff_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	boom := errors.New("boom")
	calls := 0
	err := RetryWithBackoff(ctx, 5, func() error {
		calls++
		return boom
	}, NewNopLogger())
	if err == nil {
		t.Fatal("expected an error")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected a single attempt before cancellation, got %d", calls)
	}
}

func TestKeyTracker(t *testing.T) {
	tr := NewKeyTracker()
	if !tr.Add("SYD-MEL|2025-01-01|120") {
		t.Error("first add should report a new key")
	}
	if tr.Add("SYD-MEL|2025-01-01|120") {
		t.Error("second add should report a duplicate")
	}
	tr.Add("SYD-BNE|2025-01-01|95")
	if tr.Count() != 2 {
		t.Errorf("expected 2 keys, got %d", tr.Count())
	}
}

func TestRateLimiter_RespectsContext(t *testing.T) {
	rl := NewRateLimiter(10_000)
	if err := rl.Wait(context.Background()); err != nil {
		t.Fatalf("first wait should not block: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := rl.Wait(ctx); err == nil {
		t.Error("expected the second wait to be cut short by the context")
	}
}
