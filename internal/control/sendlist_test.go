package control

import (
	"errors"
	"slices"
	"sync"
	"testing"
)

func TestSendListToggle(t *testing.T) {
	s := NewSendList()

	if err := s.Start("r1"); err != nil {
		t.Fatal(err)
	}
	if err := s.Start("r1"); !errors.Is(err, ErrAlreadySending) {
		t.Fatalf("expected ErrAlreadySending, got %v", err)
	}
	if err := s.Start("r2"); err != nil {
		t.Fatal(err)
	}
	if got := s.List(); !slices.Equal(got, []string{"r1", "r2"}) {
		t.Fatalf("List() = %v", got)
	}

	if err := s.Stop("r1"); err != nil {
		t.Fatal(err)
	}
	if err := s.Stop("r1"); !errors.Is(err, ErrNotSending) {
		t.Fatalf("expected ErrNotSending, got %v", err)
	}
	if got := s.List(); !slices.Equal(got, []string{"r2"}) {
		t.Fatalf("List() = %v", got)
	}
}

func TestSendListConcurrentStart(t *testing.T) {
	s := NewSendList()

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		won int
	)
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.Start("r1") == nil {
				mu.Lock()
				won++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if won != 1 {
		t.Fatalf("%d goroutines started the same id", won)
	}
}
