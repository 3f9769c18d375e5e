package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
)

func TestReconnectorBackoff(t *testing.T) {
	r := NewReconnector(time.Second, 5, clock.NewMock())

	want := []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second}
	for i, w := range want {
		got, ok := r.Next()
		if !ok || got != w {
			t.Fatalf("attempt %d: Next() = %v, %v; want %v", i+1, got, ok, w)
		}
	}
	if _, ok := r.Next(); ok {
		t.Fatal("sixth attempt should be refused")
	}

	r.Reset()
	if got, ok := r.Next(); !ok || got != time.Second {
		t.Fatalf("after Reset: %v, %v", got, ok)
	}
}

func TestReconnectorDefaults(t *testing.T) {
	r := NewReconnector(0, 0, nil)
	if r.base != DefaultBaseDelay || r.maxAttempts != DefaultMaxAttempts {
		t.Fatalf("defaults not applied: %+v", r)
	}
}

func TestReconnectorWait(t *testing.T) {
	mock := clock.NewMock()
	r := NewReconnector(time.Second, 1, mock)

	done := make(chan error, 1)
	go func() { done <- r.Wait(context.Background()) }()

	deadline := time.Now().Add(2 * time.Second)
	for {
		mock.Add(time.Second)
		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("Wait() = %v", err)
			}
			if err := r.Wait(context.Background()); !errors.Is(err, ErrMaxAttempts) {
				t.Fatalf("expected ErrMaxAttempts, got %v", err)
			}
			return
		case <-time.After(10 * time.Millisecond):
		}
		if time.Now().After(deadline) {
			t.Fatal("Wait never returned")
		}
	}
}

func TestReconnectorWaitCancelled(t *testing.T) {
	r := NewReconnector(time.Hour, 1, clock.NewMock())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := r.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
