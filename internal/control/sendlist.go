// Package control tracks which rooms have outbound audio sending switched on.
package control

import (
	"errors"
	"slices"
	"sync"
)

var (
	// ErrAlreadySending is returned when Start is called for an id already in the list.
	ErrAlreadySending = errors.New("already streaming")
	// ErrNotSending is returned when Stop is called for an id not in the list.
	ErrNotSending = errors.New("not streaming")
)

// SendList is a goroutine-safe set of ids, kept in insertion order.
type SendList struct {
	mu  sync.Mutex
	ids []string
}

// NewSendList returns an empty list.
func NewSendList() *SendList {
	return &SendList{}
}

// Start adds id, or returns ErrAlreadySending.
func (s *SendList) Start(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if slices.Contains(s.ids, id) {
		return ErrAlreadySending
	}
	s.ids = append(s.ids, id)
	return nil
}

// Stop removes id, or returns ErrNotSending.
func (s *SendList) Stop(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := slices.Index(s.ids, id)
	if i < 0 {
		return ErrNotSending
	}
	s.ids = slices.Delete(s.ids, i, i+1)
	return nil
}

// List returns a copy of the ids currently sending.
func (s *SendList) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string{}, s.ids...)
}
