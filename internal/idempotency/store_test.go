package idempotency

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

func TestHashRequest(t *testing.T) {
	type body struct {
		Address string `json:"address"`
		Clear   bool   `json:"clear_cart"`
	}

	a, err := HashRequest(body{Address: "1 Main St", Clear: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, _ := HashRequest(body{Address: "1 Main St", Clear: true})
	c, _ := HashRequest(body{Address: "1 Main St", Clear: false})

	if len(a) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(a))
	}
	if a != b {
		t.Error("expected equal payloads to hash equally")
	}
	if a == c {
		t.Error("expected different payloads to hash differently")
	}
}

func TestHashRequest_Unmarshalable(t *testing.T) {
	if _, err := HashRequest(make(chan int)); err == nil {
		t.Error("expected error for unmarshalable request")
	}
}

func TestRecordExpired(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	if (&Record{ExpiresAt: now.Add(time.Minute)}).Expired(now) {
		t.Error("expected future record to be live")
	}
	if !(&Record{ExpiresAt: now}).Expired(now) {
		t.Error("expected record expiring now to be expired")
	}
}

type countingDeleter struct {
	calls atomic.Int32
	err   error
}

func (d *countingDeleter) DeleteExpired(context.Context) (int64, error) {
	d.calls.Add(1)
	return 3, d.err
}

func TestSweeper_Run(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("sweeps on every tick until cancelled", func(t *testing.T) {
		deleter := &countingDeleter{}
		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan struct{})
		go func() {
			NewSweeper(deleter, 5*time.Millisecond, logger).Run(ctx)
			close(done)
		}()

		deadline := time.After(2 * time.Second)
		for deleter.calls.Load() < 2 {
			select {
			case <-deadline:
				t.Fatal("sweeper did not tick")
			case <-time.After(5 * time.Millisecond):
			}
		}

		cancel()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("sweeper did not stop after cancel")
		}
	})

	t.Run("keeps running after a failed sweep", func(t *testing.T) {
		deleter := &countingDeleter{err: errors.New("connection refused")}
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		go NewSweeper(deleter, 5*time.Millisecond, logger).Run(ctx)

		deadline := time.After(2 * time.Second)
		for deleter.calls.Load() < 2 {
			select {
			case <-deadline:
				t.Fatal("sweeper stopped after error")
			case <-time.After(5 * time.Millisecond):
			}
		}
	})
}
