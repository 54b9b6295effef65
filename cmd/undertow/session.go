// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"log"
	"os"

	"github.com/wavetermdev/undertow/config"
	"github.com/wavetermdev/undertow/engine"
	"github.com/wavetermdev/undertow/host"
	"github.com/wavetermdev/undertow/state"
)

const DefaultSurfaceMarkup = `<div id="app"></div>`
const DefaultTargetId = "app"

// templateSession renders a markup file into a surface, re-rendering whenever
// the file contents are reloaded.
type templateSession struct {
	fileName string
	targetId string
	surface  *host.Surface
	source   *state.Model[string]
	comp     *engine.Component
	onRender func(engine.RenderStats)
	onError  func(error) // errors from reload-driven renders, logged when nil
}

func makeTemplateSession(fileName string, surfaceMarkup string, targetId string, settings *config.Settings, onRender func(engine.RenderStats)) (*templateSession, error) {
	surface, err := host.ParseSurface(surfaceMarkup)
	if err != nil {
		return nil, err
	}
	if surface.GetElementById(targetId) == nil {
		return nil, fmt.Errorf("surface has no element with id %q", targetId)
	}
	barr, err := os.ReadFile(fileName)
	if err != nil {
		return nil, err
	}
	ts := &templateSession{
		fileName: fileName,
		targetId: targetId,
		surface:  surface,
		source:   state.MakeModel(string(barr)),
		onRender: onRender,
	}
	ts.comp, err = ts.makeComponent(settings)
	if err != nil {
		return nil, err
	}
	return ts, nil
}

func (ts *templateSession) makeComponent(settings *config.Settings) (*engine.Component, error) {
	return engine.NewComponent(engine.ComponentOpts{
		TargetId: ts.targetId,
		Surface:  ts.surface,
		Settings: settings,
		Models:   []any{ts.source},
		Render:   func() any { return ts.source.Get() },
		OnRender: ts.onRender,
		OnError:  ts.reportError,
	})
}

func (ts *templateSession) reportError(err error) {
	if ts.onError != nil {
		ts.onError(err)
		return
	}
	log.Printf("[undertow] %s: %v\n", ts.fileName, err)
}

// restart swaps in a component built with new settings. Its first render
// replaces whatever the old component left in the target.
func (ts *templateSession) restart(settings *config.Settings) error {
	comp, err := ts.makeComponent(settings)
	if err != nil {
		return err
	}
	ts.comp.Stop()
	ts.comp = comp
	return ts.comp.Start()
}

// reload re-reads the file; the model change triggers the render.
func (ts *templateSession) reload() {
	barr, err := os.ReadFile(ts.fileName)
	if err != nil {
		log.Printf("[undertow] cannot read %s: %v\n", ts.fileName, err)
		return
	}
	if string(barr) == ts.source.Get() {
		return
	}
	ts.source.Set(string(barr))
}

func logRenderStats(stats engine.RenderStats) {
	log.Printf("[undertow] rendered %s first:%v patches:%d mutations:%d\n", stats.TargetId, stats.First, len(stats.Patches), stats.Mutations)
	for _, p := range stats.Patches {
		log.Printf("[undertow]   %s\n", p.String())
	}
}
