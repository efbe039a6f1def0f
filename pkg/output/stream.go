// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package output

import "sync"

// OutputSubscriber renders output events (diagnostics on stderr, warnings, ...).
type OutputSubscriber interface {
	// Handle is called synchronously from Emit.
	Handle(event OutputEvent)

	// Name identifies the subscriber in logs and tests.
	Name() string

	// ShouldHandle filters events before Handle is called.
	ShouldHandle(event OutputEvent) bool
}

// OutputEventStream fans events out to subscribers in registration order.
// Dispatch is synchronous so stderr ordering matches call order.
type OutputEventStream struct {
	mu          sync.RWMutex
	subscribers []OutputSubscriber
}

// NewOutputEventStream creates a stream with no subscribers.
func NewOutputEventStream() *OutputEventStream {
	return &OutputEventStream{subscribers: make([]OutputSubscriber, 0, 2)}
}

// Subscribe registers sub.
func (s *OutputEventStream) Subscribe(sub OutputSubscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, sub)
}

// Emit dispatches event to every subscriber that wants it.
func (s *OutputEventStream) Emit(event OutputEvent) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sub := range s.subscribers {
		if sub.ShouldHandle(event) {
			sub.Handle(event)
		}
	}
}

// SubscriberCount returns the number of registered subscribers.
func (s *OutputEventStream) SubscriberCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subscribers)
}
