// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package util

import (
	"fmt"
	"log"
	"runtime/debug"
)

// PanicError is a panic recovered from user code: a render function, an event
// handler, or a preview web handler.
type PanicError struct {
	Where string
	Value any
	Stack string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in %s: %v", e.Where, e.Value)
}

// Unwrap exposes the panic value when it was an error.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// PanicHandler turns a recover() value into a *PanicError and logs it with its
// stack. It returns nil when there was no panic, so it can be called directly:
//
//	defer func() {
//	    rtnErr = util.PanicHandler("render", recover())
//	}()
func PanicHandler(where string, recoverVal any) error {
	if recoverVal == nil {
		return nil
	}
	stack := string(debug.Stack())
	log.Printf("[panic] in %s: %v\n%s", where, recoverVal, stack)
	return &PanicError{Where: where, Value: recoverVal, Stack: stack}
}

// AddElemToSliceUniq appends elem unless it is already present.
func AddElemToSliceUniq[T comparable](slice []T, elem T) []T {
	for _, existing := range slice {
		if existing == elem {
			return slice
		}
	}
	return append(slice, elem)
}
