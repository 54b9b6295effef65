// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"sync"

	"github.com/outrigdev/goid"
)

// is set ONLY while a component's render function runs, on the goroutine
// running it. nested renders (a child started from a parent's render) save and
// restore the outer context.
var globalComp *Component
var globalRenderGoId uint64
var globalCtxMutex sync.Mutex

func setGlobalContext(c *Component, gid uint64) (*Component, uint64) {
	globalCtxMutex.Lock()
	defer globalCtxMutex.Unlock()
	prevComp, prevGid := globalComp, globalRenderGoId
	globalComp = c
	globalRenderGoId = gid
	return prevComp, prevGid
}

func withGlobalCtx[T any](c *Component, fn func() T) T {
	prevComp, prevGid := setGlobalContext(c, goid.Get())
	defer setGlobalContext(prevComp, prevGid)
	return fn()
}

// CurrentComponent returns the component whose render function is running on
// the calling goroutine, nil outside of a render.
func CurrentComponent() *Component {
	globalCtxMutex.Lock()
	defer globalCtxMutex.Unlock()
	if globalComp == nil || goid.Get() != globalRenderGoId {
		return nil
	}
	return globalComp
}
