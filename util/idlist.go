// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package util

import (
	"sync"

	"github.com/google/uuid"
)

type idListEntry[T any] struct {
	id  string
	val T
}

// IdList is an ordered registration list. Entries are removed by the id
// handed out at registration, so it can hold values that are not comparable
// (callbacks).
type IdList[T any] struct {
	lock    sync.Mutex
	entries []idListEntry[T]
}

func (il *IdList[T]) Register(val T) string {
	il.lock.Lock()
	defer il.lock.Unlock()

	id := uuid.New().String()
	il.entries = append(il.entries, idListEntry[T]{id: id, val: val})
	return id
}

// Unregister returns false if id was not registered.
func (il *IdList[T]) Unregister(id string) bool {
	il.lock.Lock()
	defer il.lock.Unlock()

	for i, entry := range il.entries {
		if entry.id == id {
			il.entries = append(il.entries[:i], il.entries[i+1:]...)
			return true
		}
	}
	return false
}

func (il *IdList[T]) Len() int {
	il.lock.Lock()
	defer il.lock.Unlock()
	return len(il.entries)
}

// GetList returns a copy, safe to iterate while callbacks register or unregister.
func (il *IdList[T]) GetList() []T {
	il.lock.Lock()
	defer il.lock.Unlock()

	result := make([]T, len(il.entries))
	for i, entry := range il.entries {
		result[i] = entry.val
	}
	return result
}
