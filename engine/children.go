// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"fmt"
	"log"
	"sync"

	"github.com/emirpasic/gods/maps/linkedhashmap"
	"github.com/wavetermdev/undertow/vdom"
	"golang.org/x/net/html"
)

// Factory builds a child component. opts arrives with TargetId, Surface,
// Registry and Settings filled in from the parent; the factory supplies the
// render function and models.
type Factory func(opts ComponentOpts) (*Component, error)

// CreateChildFn overrides how markers become components. hostElem is the live
// element currently carrying the marker's id. Returning a nil component skips
// the marker.
type CreateChildFn func(marker *vdom.Node, hostElem *html.Node, targetId string) (*Component, error)

// Registry maps marker names (tag names or component attribute values) to
// factories.
type Registry struct {
	lock      *sync.Mutex
	factories map[string]Factory
}

func MakeRegistry() *Registry {
	return &Registry{lock: &sync.Mutex{}, factories: make(map[string]Factory)}
}

func (r *Registry) Register(name string, factory Factory) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.factories[name] = factory
}

func (r *Registry) Get(name string) Factory {
	if r == nil {
		return nil
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.factories[name]
}

func (r *Registry) Has(name string) bool {
	return r.Get(name) != nil
}

type childEntry struct {
	comp   *Component
	marker string
}

// childSet keeps children in attach order, keyed by target id
type childSet struct {
	m *linkedhashmap.Map
}

func makeChildSet() *childSet {
	return &childSet{m: linkedhashmap.New()}
}

func (cs *childSet) get(targetId string) *childEntry {
	val, found := cs.m.Get(targetId)
	if !found {
		return nil
	}
	return val.(*childEntry)
}

func (cs *childSet) put(targetId string, entry *childEntry) {
	cs.m.Put(targetId, entry)
}

func (cs *childSet) remove(targetId string) {
	cs.m.Remove(targetId)
}

func (cs *childSet) ids() []string {
	rtn := make([]string, 0, cs.m.Size())
	for _, key := range cs.m.Keys() {
		rtn = append(rtn, key.(string))
	}
	return rtn
}

// markerName is the registry name for a marker element, "" when n is not one.
func (c *Component) markerName(n *vdom.Node) string {
	if !n.IsElement() {
		return ""
	}
	if name := n.Attr(c.settings.ComponentAttr); name != "" {
		return name
	}
	if c.settings.IsComponentTag(n.Tag) || c.registry.Has(n.Tag) {
		return n.Tag
	}
	return ""
}

func (c *Component) defaultCreateChild(marker *vdom.Node, hostElem *html.Node, targetId string) (*Component, error) {
	name := c.markerName(marker)
	factory := c.registry.Get(name)
	if factory == nil {
		return nil, fmt.Errorf("no factory registered for component %q", name)
	}
	return factory(ComponentOpts{
		TargetId: targetId,
		Surface:  c.surface,
		Registry: c.registry,
		Settings: c.settings,
	})
}

func (c *Component) createChild(marker *vdom.Node, targetId string) (*Component, error) {
	hostElem := c.surface.GetElementById(targetId)
	if c.opts.CreateChild != nil {
		return c.opts.CreateChild(marker, hostElem, targetId)
	}
	return c.defaultCreateChild(marker, hostElem, targetId)
}

// AttachChild registers child under targetId, starting it when c is started
// and stopping it otherwise. An existing child for the same id is detached.
func (c *Component) AttachChild(targetId string, child *Component, marker string) error {
	if prev := c.children.get(targetId); prev != nil && prev.comp != child {
		c.DetachChild(targetId)
	}
	child.parent = c
	c.children.put(targetId, &childEntry{comp: child, marker: marker})
	if c.started {
		return child.Start()
	}
	child.Stop()
	return nil
}

// DetachChild stops and forgets the child rendering into targetId. Unknown
// ids are ignored.
func (c *Component) DetachChild(targetId string) {
	entry := c.children.get(targetId)
	if entry == nil {
		return
	}
	c.children.remove(targetId)
	entry.comp.Stop()
	entry.comp.parent = nil
}

func (c *Component) Child(targetId string) *Component {
	if entry := c.children.get(targetId); entry != nil {
		return entry.comp
	}
	return nil
}

// Children returns the attached children in attach order.
func (c *Component) Children() []*Component {
	var rtn []*Component
	for _, id := range c.children.ids() {
		rtn = append(rtn, c.children.get(id).comp)
	}
	return rtn
}

func (c *Component) isChildSlot(n *vdom.Node) bool {
	if !n.IsElement() {
		return false
	}
	id := n.Id()
	return id != "" && c.children.get(id) != nil
}

// scanMarkers collects child markers in the snapshot, in document order.
// Markers are opaque: their descendants belong to the child.
func (c *Component) scanMarkers() []*vdom.Node {
	var rtn []*vdom.Node
	c.snapshot.Walk(func(n *vdom.Node) bool {
		if n == c.snapshot {
			return true
		}
		if c.markerName(n) == "" {
			return true
		}
		if n.Id() == "" {
			log.Printf("[undertow] %s: component marker <%s> has no id, skipping\n", c.targetId, n.Tag)
			return false
		}
		rtn = append(rtn, n)
		return false
	})
	return rtn
}

// syncChildren reaps children whose marker or live element is gone, then
// instantiates children for new markers.
func (c *Component) syncChildren() {
	markers := c.scanMarkers()
	present := make(map[string]*vdom.Node)
	for _, marker := range markers {
		present[marker.Id()] = marker
	}
	root := c.liveRoot()
	for _, id := range c.children.ids() {
		live := c.surface.GetElementById(id)
		if present[id] == nil || live == nil || !isInside(live, root) {
			c.debugf("reaping child %q", id)
			c.DetachChild(id)
		}
	}
	for _, marker := range markers {
		targetId := marker.Id()
		if c.children.get(targetId) != nil {
			continue
		}
		child, err := c.createChild(marker, targetId)
		if err != nil {
			log.Printf("[undertow] %s: cannot create child %q: %v\n", c.targetId, targetId, err)
			continue
		}
		if child == nil {
			continue
		}
		if err := c.AttachChild(targetId, child, c.markerName(marker)); err != nil {
			log.Printf("[undertow] %s: error starting child %q: %v\n", c.targetId, targetId, err)
		}
	}
}

func isInside(n *html.Node, root *html.Node) bool {
	if root == nil {
		return false
	}
	for cur := n; cur != nil; cur = cur.Parent {
		if cur == root {
			return true
		}
	}
	return false
}
