//
// Copyright 2021 Rackspace
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS-IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

package utils

import (
	"sync"
)

type Event interface {
	Type() string
	Target() interface{}
}

type EventConsumer interface {
	HandleEvent(evt Event) error
}

type EventSource interface {
	RegisterEventConsumer(consumer EventConsumer)
	DeregisterEventConsumer(consumer EventConsumer)
}

// EventConsumerRegistry fans events out to registered consumers. It is safe for concurrent use since
// every monitored mount point emits from its own refresh goroutine.
type EventConsumerRegistry struct {
	mu        sync.RWMutex
	consumers []EventConsumer
}

func (r *EventConsumerRegistry) RegisterEventConsumer(consumer EventConsumer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.contains(consumer) {
		return
	}

	r.consumers = append(r.consumers, consumer)
}

func (r *EventConsumerRegistry) DeregisterEventConsumer(consumer EventConsumer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.contains(consumer) {
		return
	}

	// copy rather than filter in place, an Emit may still be ranging over the old slice
	trimmed := make([]EventConsumer, 0, len(r.consumers)-1)
	for _, c := range r.consumers {
		if c != consumer {
			trimmed = append(trimmed, c)
		}
	}

	r.consumers = trimmed
}

func (r *EventConsumerRegistry) contains(consumer EventConsumer) bool {
	for _, c := range r.consumers {
		if c == consumer {
			return true
		}
	}
	return false
}

// Emit delivers evt to every consumer, even when an earlier one fails, and returns the first error seen.
func (r *EventConsumerRegistry) Emit(evt Event) error {
	r.mu.RLock()
	consumers := r.consumers
	r.mu.RUnlock()

	var firstErr error
	for _, c := range consumers {
		if err := c.HandleEvent(evt); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

type BasicEvent struct {
	eventType string
	target    interface{}
}

func (evt *BasicEvent) Type() string {
	return evt.eventType
}

func (evt *BasicEvent) Target() interface{} {
	return evt.target
}

func NewEvent(eventType string, target interface{}) Event {
	return &BasicEvent{
		eventType: eventType,
		target:    target,
	}
}
