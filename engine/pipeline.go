// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"github.com/wavetermdev/undertow/vdom"
	"golang.org/x/net/html"
)

const (
	StageSaveChildren    = "save-children"
	StageRender          = "render"
	StageTag             = "tag"
	StageDiff            = "diff"
	StagePatchLive       = "patch-live"
	StagePatchSnapshot   = "patch-snapshot"
	StageRestoreChildren = "restore-children"
	StageBindListeners   = "bind-listeners"
	StageSyncChildren    = "sync-children"
)

// renderCycle carries the state of one render call between stages
type renderCycle struct {
	first     bool
	saved     map[string]*html.Node // child target id -> child's live root
	out       *vdom.Node
	prev      *vdom.Node // diff base: snapshot, or the target stand-in on first render
	patches   []Patch
	wire      []WirePatch
	mutBefore int
}

type stage struct {
	name string
	run  func(c *Component, rc *renderCycle) error
}

// stages run strictly in this order, each relying on the previous one.
// assigned in init: stages reach Render through child starts.
var renderPipeline []stage

func init() {
	renderPipeline = []stage{
		{StageSaveChildren, func(c *Component, rc *renderCycle) error {
			c.saveChildren(rc)
			return nil
		}},
		{StageRender, (*Component).runRenderFn},
		{StageTag, func(c *Component, rc *renderCycle) error {
			if rc.first {
				c.tagger.Tag(rc.out)
			}
			return nil
		}},
		{StageDiff, func(c *Component, rc *renderCycle) error {
			differ := &Differ{Tagger: c.tagger, Policy: c.policy}
			if rc.first {
				differ.Policy = func(a *vdom.Node, b *vdom.Node) PolicyResult { return PolicyReplace }
			}
			rc.patches = differ.Diff(rc.prev, rc.out)
			return nil
		}},
		{StagePatchLive, func(c *Component, rc *renderCycle) error {
			applier := &LiveApplier{
				Surface:  c.surface,
				Ids:      c.ids,
				Tagger:   c.tagger,
				Settings: c.settings,
				Retag:    !rc.first,
			}
			return applier.Apply(rc.patches)
		}},
		{StagePatchSnapshot, func(c *Component, rc *renderCycle) error {
			va := &VirtualApplier{Tagger: c.tagger}
			if c.opts.OnRender != nil {
				va.OnPatch = func(p Patch) {
					rc.wire = append(rc.wire, MakeWirePatch(p, c.tagger))
				}
			}
			root, err := va.Apply(rc.prev, rc.patches)
			if err != nil {
				return err
			}
			c.snapshot = root
			return nil
		}},
		{StageRestoreChildren, func(c *Component, rc *renderCycle) error {
			c.restoreChildren(rc)
			return nil
		}},
		{StageBindListeners, func(c *Component, rc *renderCycle) error {
			c.bindListeners()
			return nil
		}},
		{StageSyncChildren, func(c *Component, rc *renderCycle) error {
			c.syncChildren()
			return nil
		}},
	}
}

// RenderStages lists the render pipeline stages in execution order.
func RenderStages() []string {
	rtn := make([]string, len(renderPipeline))
	for i, st := range renderPipeline {
		rtn[i] = st.name
	}
	return rtn
}
