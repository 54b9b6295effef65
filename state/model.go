// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// Package state holds the observable values components render from.
package state

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/wavetermdev/undertow/util"
)

type Observer func(hint any)

// Observable is the contract a component needs from a state source.
// Observers are removed by the id returned from AddObserver.
type Observable interface {
	AddObserver(fn Observer) string
	RemoveObserver(id string)
	Notify(hint any)
}

type Model[T any] struct {
	lock      *sync.Mutex
	val       T
	observers util.IdList[Observer]
}

func MakeModel[T any](initialVal T) *Model[T] {
	return &Model[T]{
		lock: &sync.Mutex{},
		val:  initialVal,
	}
}

func (m *Model[T]) Get() T {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.val
}

// Set stores val and notifies observers synchronously (hint is the new value).
func (m *Model[T]) Set(val T) {
	m.lock.Lock()
	m.val = val
	m.lock.Unlock()
	m.Notify(val)
}

func (m *Model[T]) Update(fn func(T) T) {
	m.lock.Lock()
	m.val = fn(m.val)
	val := m.val
	m.lock.Unlock()
	m.Notify(val)
}

// SetAny adapts val to T (directly or through a JSON round trip) and sets it.
func (m *Model[T]) SetAny(val any) error {
	if val == nil {
		var zero T
		m.Set(zero)
		return nil
	}
	if typed, ok := val.(T); ok {
		m.Set(typed)
		return nil
	}
	jsonBytes, err := json.Marshal(val)
	if err != nil {
		var result T
		return fmt.Errorf("failed to adapt type from %T => %T, input type failed to marshal: %w", val, result, err)
	}
	var result T
	if err := json.Unmarshal(jsonBytes, &result); err != nil {
		return fmt.Errorf("failed to adapt type from %T => %T: %w", val, result, err)
	}
	m.Set(result)
	return nil
}

func (m *Model[T]) AddObserver(fn Observer) string {
	return m.observers.Register(fn)
}

func (m *Model[T]) RemoveObserver(id string) {
	m.observers.Unregister(id)
}

func (m *Model[T]) NumObservers() int {
	return m.observers.Len()
}

// Notify calls every observer in registration order on the calling goroutine.
func (m *Model[T]) Notify(hint any) {
	for _, fn := range m.observers.GetList() {
		fn(hint)
	}
}
