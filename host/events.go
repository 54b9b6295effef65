// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package host

import (
	"github.com/google/uuid"
	"github.com/wavetermdev/undertow/util"
	"golang.org/x/net/html"
)

type Event struct {
	Type          string
	Target        *html.Node // origin of the event
	CurrentTarget *html.Node // node whose listener is running
	Data          map[string]any
	stopped       bool
}

func (e *Event) StopPropagation() {
	e.stopped = true
}

type EventHandler func(*Event)

type listenerEntry struct {
	id        string
	eventType string
	fn        EventHandler
}

// AddEventListener registers fn on node and returns an id for removal.
func (s *Surface) AddEventListener(node *html.Node, eventType string, fn EventHandler) string {
	entry := &listenerEntry{id: uuid.New().String(), eventType: eventType, fn: fn}
	s.listeners[node] = append(s.listeners[node], entry)
	return entry.id
}

func (s *Surface) RemoveEventListener(node *html.Node, id string) bool {
	entries := s.listeners[node]
	for i, entry := range entries {
		if entry.id == id {
			entries = append(entries[:i], entries[i+1:]...)
			if len(entries) == 0 {
				delete(s.listeners, node)
			} else {
				s.listeners[node] = entries
			}
			return true
		}
	}
	return false
}

func (s *Surface) ListenerCount(node *html.Node) int {
	return len(s.listeners[node])
}

// Dispatch delivers an event at target and bubbles it up to the document.
// Handler panics are logged and do not stop propagation.
func (s *Surface) Dispatch(target *html.Node, eventType string, data map[string]any) *Event {
	event := &Event{Type: eventType, Target: target, Data: data}
	for cur := target; cur != nil; cur = cur.Parent {
		entries := s.listeners[cur]
		if len(entries) == 0 {
			continue
		}
		event.CurrentTarget = cur
		// copied, handlers may add or remove listeners
		for _, entry := range append([]*listenerEntry(nil), entries...) {
			if entry.eventType != eventType {
				continue
			}
			s.callHandler(entry, event)
		}
		if event.stopped {
			break
		}
	}
	event.CurrentTarget = nil
	return event
}

func (s *Surface) callHandler(entry *listenerEntry, event *Event) {
	defer func() {
		util.PanicHandler("event handler - event:"+event.Type, recover())
	}()
	entry.fn(event)
}
