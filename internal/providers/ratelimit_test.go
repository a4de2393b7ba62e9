package providers

import (
	"context"
	"testing"
	"time"
)

func TestRateLimiter_TryConsume(t *testing.T) {
	rl := NewRateLimiter(60)

	// Bucket starts full
	consumed := 0
	for i := 0; i < 60; i++ {
		if rl.TryConsume() {
			consumed++
		}
	}
	if consumed != 60 {
		t.Errorf("expected 60 tokens consumed, got %d", consumed)
	}

	// Bucket drained
	if rl.TryConsume() {
		t.Error("expected no tokens after drain")
	}
}

func TestRateLimiter_Wait(t *testing.T) {
	t.Run("returns immediately with tokens available", func(t *testing.T) {
		rl := NewRateLimiter(60)

		start := time.Now()
		if err := rl.Wait(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
			t.Errorf("expected immediate return, took %v", elapsed)
		}
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		rl := NewRateLimiter(1)
		// Drain the single token
		if !rl.TryConsume() {
			t.Fatal("expected initial token")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		if err := rl.Wait(ctx); err == nil {
			t.Error("expected context deadline error")
		}
	})
}

func TestRateLimiter_Record429(t *testing.T) {
	rl := NewRateLimiter(60)

	rl.Record429(time.Second)

	if rl.TryConsume() {
		t.Error("expected tokens drained after 429 with retry-after")
	}

	status := rl.Status()
	if status.Last429Time.IsZero() {
		t.Error("expected last 429 time to be recorded")
	}
}

func TestRateLimiter_Status(t *testing.T) {
	rl := NewRateLimiter(100)

	status := rl.Status()
	if status.TokensLimit != 100 {
		t.Errorf("unexpected token limit: %d", status.TokensLimit)
	}
	if status.TokensAvailable == 0 {
		t.Error("expected tokens available for a fresh limiter")
	}

	rl.TryConsume()
	status = rl.Status()
	if status.TotalConsumed != 1 {
		t.Errorf("expected 1 consumed, got %d", status.TotalConsumed)
	}
}

func TestNewRateLimiterRPS(t *testing.T) {
	rl := NewRateLimiterRPS(2.0)
	status := rl.Status()
	if status.TokensLimit != 120 {
		t.Errorf("expected 120 tokens per minute, got %d", status.TokensLimit)
	}

	// Zero falls back to default
	rl = NewRateLimiterRPS(0)
	if rl.Status().TokensLimit != 150 {
		t.Errorf("expected default 150, got %d", rl.Status().TokensLimit)
	}
}
