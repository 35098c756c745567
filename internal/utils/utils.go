package utils

import (
	"context"
	"math/rand/v2"
	"strings"
	"time"
)

var sleep = time.Sleep

// randInt63n is replaced in tests for deterministic jitter.
var randInt63n = rand.Int64N

func WaitFor(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	wait := sleep
	done := make(chan struct{})
	go func() {
		defer close(done)
		wait(d)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// Jitter returns base shifted by a random amount within [-spread, +spread].
// The result is never negative.
func Jitter(base, spread time.Duration) time.Duration {
	if spread <= 0 {
		return max(base, 0)
	}

	d := base - spread + time.Duration(randInt63n(int64(2*spread)+1))

	return max(d, 0)
}

// TruncateForLog trims s and cuts it to limit runes, marking the cut with an ellipsis.
func TruncateForLog(s string, limit int) string {
	if limit <= 0 {
		return ""
	}

	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}

	return string(runes[:limit]) + "..."
}
