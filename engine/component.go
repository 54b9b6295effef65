// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"fmt"
	"log"
	"reflect"

	"github.com/google/uuid"
	"github.com/wavetermdev/undertow/config"
	"github.com/wavetermdev/undertow/host"
	"github.com/wavetermdev/undertow/state"
	"github.com/wavetermdev/undertow/util"
	"github.com/wavetermdev/undertow/vdom"
	"golang.org/x/net/html"
)

// RenderFunc returns the component's output: a *vdom.Node, a vdom.Node,
// a []*vdom.Node, or markup (string / []byte). It must yield one root element.
type RenderFunc func() any

type RenderStats struct {
	TargetId  string
	First     bool
	Patches   []Patch
	Wire      []WirePatch
	Mutations int // host tree mutations performed by this render
}

type ComponentOpts struct {
	TargetId    string
	Render      RenderFunc
	Models      []any // each must implement state.Observable
	Surface     *host.Surface
	Registry    *Registry
	Settings    *config.Settings
	CreateChild CreateChildFn
	OnRender    func(RenderStats)
	OnStage     func(stage string)
	// OnError receives errors from renders triggered by model changes, which
	// have no caller to return to. They are logged when nil.
	OnError func(error)
}

// Component owns one render target on a surface. All methods must be called
// from a single goroutine (renders are synchronous and run to completion).
type Component struct {
	Id        string
	opts      ComponentOpts
	targetId  string
	surface   *host.Surface
	registry  *Registry
	settings  *config.Settings
	models    []state.Observable
	observers []string

	started   bool
	rendering bool

	tagger   *Tagger
	ids      *IdentityMap
	snapshot *vdom.Node

	listeners []*listenerEntry
	bound     []boundListener
	children  *childSet
	parent    *Component
}

func NewComponent(opts ComponentOpts) (*Component, error) {
	if opts.TargetId == "" {
		return nil, configErrorf("", "component requires a target id")
	}
	if opts.Render == nil {
		return nil, configErrorf(opts.TargetId, "render function required")
	}
	if opts.Surface == nil {
		return nil, configErrorf(opts.TargetId, "surface required")
	}
	if opts.Settings == nil {
		opts.Settings = config.DefaultSettings()
	}
	if err := opts.Settings.Validate(); err != nil {
		return nil, codedError(ErrCode_Config, opts.TargetId, err)
	}
	if opts.Registry == nil {
		opts.Registry = MakeRegistry()
	}
	var models []state.Observable
	for idx, m := range opts.Models {
		obs, ok := m.(state.Observable)
		if !ok {
			return nil, codedError(ErrCode_InvalidModel, opts.TargetId, &InvalidModelTypeError{Index: idx, Type: fmt.Sprintf("%T", m)})
		}
		if isNilValue(m) {
			return nil, codedError(ErrCode_InvalidModel, opts.TargetId, &InvalidModelTypeError{Index: idx, Type: fmt.Sprintf("%T", m), Nil: true})
		}
		models = append(models, obs)
	}
	tagger := MakeTagger(opts.Settings.TagAttr, opts.Settings.TextMarker)
	return &Component{
		Id:       uuid.New().String(),
		opts:     opts,
		targetId: opts.TargetId,
		surface:  opts.Surface,
		registry: opts.Registry,
		settings: opts.Settings,
		models:   models,
		tagger:   tagger,
		ids:      MakeIdentityMap(tagger, opts.Surface),
		children: makeChildSet(),
	}, nil
}

// isNilValue catches typed nils, which satisfy an interface but are not == nil.
func isNilValue(v any) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func (c *Component) TargetId() string {
	return c.targetId
}

func (c *Component) IsStarted() bool {
	return c.started
}

func (c *Component) Parent() *Component {
	return c.parent
}

// Snapshot is the virtual tree the next render is diffed against.
func (c *Component) Snapshot() *vdom.Node {
	return c.snapshot
}

// SetTargetId moves the component to another render target. The render state
// is reset, the next render is a first render.
func (c *Component) SetTargetId(targetId string) {
	if targetId == c.targetId {
		return
	}
	c.unbindListeners()
	c.resetRenderState()
	c.targetId = targetId
}

func (c *Component) resetRenderState() {
	c.snapshot = nil
	c.tagger.Reset()
	c.ids.Reset()
}

func (c *Component) debugf(format string, args ...any) {
	if c.settings.Debug {
		log.Printf("[undertow] %s: %s\n", c.targetId, fmt.Sprintf(format, args...))
	}
}

// Start resets render state, subscribes to the models, renders once and then
// starts the children. Starting a started component is a no-op.
func (c *Component) Start() error {
	if c.started {
		return nil
	}
	c.resetRenderState()
	c.started = true
	for _, m := range c.models {
		c.observers = append(c.observers, m.AddObserver(c.onModelChange))
	}
	if err := c.Render(); err != nil {
		return err
	}
	for _, child := range c.Children() {
		if err := child.Start(); err != nil {
			return err
		}
	}
	return nil
}

// Stop stops the children, unsubscribes and drops all render state. The live
// tree is left as it is.
func (c *Component) Stop() {
	for _, child := range c.Children() {
		child.Stop()
	}
	if !c.started {
		return
	}
	c.started = false
	for idx, id := range c.observers {
		c.models[idx].RemoveObserver(id)
	}
	c.observers = nil
	c.unbindListeners()
	c.resetRenderState()
}

func (c *Component) onModelChange(hint any) {
	err := c.Render()
	if err == nil {
		return
	}
	if c.opts.OnError != nil {
		c.opts.OnError(err)
		return
	}
	log.Printf("[undertow] %s: render error: %v\n", c.targetId, err)
}

// liveRoot is the live element currently holding the component's output (the
// empty render target before the first render).
func (c *Component) liveRoot() *html.Node {
	if c.snapshot != nil {
		if real := c.ids.Lookup(c.snapshot); real != nil && c.surface.Contains(real) {
			return real
		}
	}
	return c.surface.GetElementById(c.targetId)
}

// Render runs one render cycle. Rendering a stopped component, a component
// whose target is not in the host tree, or re-entering a running render is a
// silent no-op. Errors are *RenderError values carrying the failed stage;
// renders started by a model change report them through OnError instead.
func (c *Component) Render() error {
	if !c.started || c.rendering {
		return nil
	}
	root := c.liveRoot()
	if root == nil {
		c.debugf("render target not present, skipping render")
		return nil
	}
	c.rendering = true
	defer func() {
		c.rendering = false
	}()
	rc := &renderCycle{
		first:     c.snapshot == nil,
		prev:      c.snapshot,
		mutBefore: c.surface.Mutations(),
	}
	if rc.first {
		// stand-in for the empty target element, resolved by its native id
		rc.prev = &vdom.Node{Type: vdom.ElementNode, Tag: root.Data, Attrs: map[string]string{vdom.IdAttr: c.targetId}}
	}
	for _, st := range renderPipeline {
		if c.opts.OnStage != nil {
			c.opts.OnStage(st.name)
		}
		if err := st.run(c, rc); err != nil {
			if st.name == StagePatchLive || st.name == StagePatchSnapshot {
				// live tree and snapshot may have diverged
				c.resetRenderState()
			}
			return stageError(st.name, c.targetId, err)
		}
	}
	stats := RenderStats{
		TargetId:  c.targetId,
		First:     rc.first,
		Patches:   rc.patches,
		Wire:      rc.wire,
		Mutations: c.surface.Mutations() - rc.mutBefore,
	}
	c.debugf("rendered first=%v patches=%d mutations=%d", stats.First, len(stats.Patches), stats.Mutations)
	if c.opts.OnRender != nil {
		c.opts.OnRender(stats)
	}
	return nil
}

// runRenderFn calls the render function and normalizes its output to a
// single root element.
func (c *Component) runRenderFn(rc *renderCycle) (rtnErr error) {
	var output any
	func() {
		defer func() {
			panicErr := util.PanicHandler(fmt.Sprintf("render %q", c.targetId), recover())
			if panicErr != nil {
				rtnErr = codedError(ErrCode_RenderPanic, c.targetId, panicErr)
			}
		}()
		output = withGlobalCtx(c, func() any {
			return c.opts.Render()
		})
	}()
	if rtnErr != nil {
		return rtnErr
	}
	nodes, err := vdom.ToNodes(output)
	if err != nil {
		return err
	}
	if len(nodes) != 1 {
		return codedError(ErrCode_MultiRoot, c.targetId, &MultiRootRenderError{TargetId: c.targetId, Count: len(nodes)})
	}
	out := nodes[0]
	if !out.IsElement() {
		return codedError(ErrCode_MultiRoot, c.targetId, &MultiRootRenderError{TargetId: c.targetId, Count: 1, NonElem: true})
	}
	switch output.(type) {
	case string, []byte:
	default:
		// render functions may hand back trees they keep around
		out = out.Clone()
	}
	// the output root is the render target from now on, it has to keep the
	// target id for liveRoot to find it after a restart
	if out.Id() != c.targetId {
		if out.Id() != "" {
			c.debugf("output root id %q replaced by the target id", out.Id())
		}
		out.SetAttr(vdom.IdAttr, c.targetId)
	}
	rc.out = out
	return nil
}

func (c *Component) policy(a *vdom.Node, b *vdom.Node) PolicyResult {
	if c.isChildSlot(a) {
		if b.IsElement() && b.Id() == a.Id() {
			return PolicySkip
		}
		return PolicyReplace
	}
	if c.tagger.IsBareMarker(a) {
		return PolicySkip
	}
	return PolicyDiff
}

// saveChildren records each child's live root and points the snapshot's
// slot entry at it (the child replaced the marker element when it rendered).
func (c *Component) saveChildren(rc *renderCycle) {
	rc.saved = make(map[string]*html.Node)
	for _, id := range c.children.ids() {
		real := c.surface.GetElementById(id)
		if real == nil {
			continue
		}
		rc.saved[id] = real
		if c.snapshot == nil {
			continue
		}
		if slot := c.snapshot.FindById(id); slot != nil {
			c.ids.Set(slot, real)
		}
	}
}

// restoreChildren puts a saved child root back into its slot when patching
// left a different node there (e.g. an ancestor of the slot was replaced).
func (c *Component) restoreChildren(rc *renderCycle) {
	for id, saved := range rc.saved {
		slot := c.snapshot.FindById(id)
		if slot == nil {
			continue
		}
		cur, err := c.ids.Resolve(slot)
		if err != nil || cur == saved {
			continue
		}
		if cur.Parent == nil {
			continue
		}
		c.debugf("restoring child %q", id)
		c.surface.ReplaceChild(cur.Parent, saved, cur)
		c.ids.Set(slot, saved)
	}
}
