// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"fmt"
	"sort"

	"github.com/wavetermdev/undertow/config"
	"github.com/wavetermdev/undertow/host"
	"github.com/wavetermdev/undertow/vdom"
	"golang.org/x/net/html"
)

// VirtualApplier replays patches against the previous virtual tree. Nodes
// from the new tree are moved into the old one, never cloned.
type VirtualApplier struct {
	Tagger  *Tagger
	OnPatch func(Patch) // called before each patch is applied
}

// Apply returns the (possibly replaced) root.
func (va *VirtualApplier) Apply(root *vdom.Node, patches []Patch) (*vdom.Node, error) {
	for _, p := range patches {
		if va.OnPatch != nil {
			va.OnPatch(p)
		}
		var err error
		root, err = va.applyPatch(root, p)
		if err != nil {
			return root, err
		}
	}
	return root, nil
}

func (va *VirtualApplier) applyPatch(root *vdom.Node, p Patch) (*vdom.Node, error) {
	switch p.Mode {
	case PatchReplace:
		parent := p.Target.Parent()
		if parent == nil {
			if p.Target != root {
				return root, fmt.Errorf("replace: detached target %s", describeNode(p.Target))
			}
			if p.Node.Parent() != nil {
				p.Node.Parent().RemoveChild(p.Node)
			}
			return p.Node, nil
		}
		parent.ReplaceChild(p.Node, p.Target)
	case PatchAttributes:
		tagAttr := va.Tagger.TagAttr
		for k, v := range p.Node.Attrs {
			if k != tagAttr {
				p.Target.SetAttr(k, v)
			}
		}
		for k := range p.Target.Attrs {
			if _, ok := p.Node.Attrs[k]; !ok && k != tagAttr {
				p.Target.RemoveAttr(k)
			}
		}
	case PatchNodeValue:
		payload := va.Tagger.Payload(p.Node)
		if id, _, ok := ParseTextMarker(va.Tagger.TextMarker, p.Target.Text); ok {
			p.Target.Text = FormatTextMarker(va.Tagger.TextMarker, id, payload)
		} else {
			p.Target.Text = payload
		}
	case PatchRemove:
		parent := p.Target.Parent()
		if parent == nil {
			return root, fmt.Errorf("remove: detached target %s", describeNode(p.Target))
		}
		parent.RemoveChild(p.Target)
	case PatchAppend:
		p.Target.AppendChild(p.Node)
	case PatchInsert:
		p.Target.InsertChildAt(p.Index, p.Node)
	case PatchSwap:
		if p.Target.Parent() == nil || p.Node.Parent() == nil {
			return root, fmt.Errorf("swap: detached node %s / %s", describeNode(p.Target), describeNode(p.Node))
		}
		placeholder := vdom.CommentElem("")
		p.Target.Parent().InsertBefore(placeholder, p.Target)
		p.Node.Parent().InsertBefore(p.Target, p.Node)
		placeholder.Parent().InsertBefore(p.Node, placeholder)
		placeholder.Parent().RemoveChild(placeholder)
	default:
		return root, fmt.Errorf("unknown patch mode %q", p.Mode)
	}
	return root, nil
}

// LiveApplier applies patches to the host surface, resolving virtual
// references through the identity map. Inserted nodes are built from the new
// tree (which stays intact for the snapshot replay) and indexed before they
// are attached.
type LiveApplier struct {
	Surface  *host.Surface
	Ids      *IdentityMap
	Tagger   *Tagger
	Settings *config.Settings
	Retag    bool // tag inserted subtrees (every render after the first)
}

func (la *LiveApplier) Apply(patches []Patch) error {
	for _, p := range patches {
		if err := la.applyPatch(p); err != nil {
			return fmt.Errorf("%s: %w", p.Mode, err)
		}
	}
	return nil
}

func (la *LiveApplier) resolveWithParent(v *vdom.Node) (*html.Node, error) {
	real, err := la.Ids.Resolve(v)
	if err != nil {
		return nil, err
	}
	if real.Parent == nil {
		return nil, unresolvedError("%s is detached from the host tree", describeNode(v))
	}
	return real, nil
}

func (la *LiveApplier) applyPatch(p Patch) error {
	switch p.Mode {
	case PatchReplace:
		real, err := la.resolveWithParent(p.Target)
		if err != nil {
			return err
		}
		newReal := la.materialize(p.Node)
		la.Surface.ReplaceChild(real.Parent, newReal, real)
		la.Ids.Forget(p.Target)
	case PatchAttributes:
		real, err := la.Ids.Resolve(p.Target)
		if err != nil {
			return err
		}
		la.applyAttrs(real, p.Node)
	case PatchNodeValue:
		real, err := la.Ids.Resolve(p.Target)
		if err != nil {
			return err
		}
		la.Surface.SetText(real, la.Tagger.Payload(p.Node))
	case PatchRemove:
		real, err := la.resolveWithParent(p.Target)
		if err != nil {
			return err
		}
		la.Surface.RemoveChild(real.Parent, real)
		la.Ids.Forget(p.Target)
	case PatchAppend:
		parent, err := la.Ids.Resolve(p.Target)
		if err != nil {
			return err
		}
		la.Surface.AppendChild(parent, la.materialize(p.Node))
	case PatchInsert:
		parent, err := la.Ids.Resolve(p.Target)
		if err != nil {
			return err
		}
		ref := host.ChildAt(parent, p.Index)
		la.Surface.InsertBefore(parent, la.materialize(p.Node), ref)
	case PatchSwap:
		ra, err := la.resolveWithParent(p.Target)
		if err != nil {
			return err
		}
		rb, err := la.resolveWithParent(p.Node)
		if err != nil {
			return err
		}
		la.swap(ra, rb)
	default:
		return fmt.Errorf("unknown patch mode %q", p.Mode)
	}
	return nil
}

// host trees have no swap primitive: park a placeholder where a was, move a
// before b, move b to the placeholder, drop the placeholder
func (la *LiveApplier) swap(a *html.Node, b *html.Node) {
	s := la.Surface
	placeholder := s.CreateComment("")
	s.InsertBefore(a.Parent, placeholder, a)
	s.InsertBefore(b.Parent, a, b)
	s.InsertBefore(placeholder.Parent, b, placeholder)
	s.RemoveChild(placeholder.Parent, placeholder)
}

func (la *LiveApplier) applyAttrs(real *html.Node, src *vdom.Node) {
	s := la.Surface
	tagAttr := la.Tagger.TagAttr
	for _, k := range sortedKeys(src.Attrs) {
		if k == tagAttr {
			continue
		}
		v := src.Attrs[k]
		if cur, ok := host.LookupAttr(real, k); !ok || cur != v {
			s.SetAttr(real, k, v)
		}
		if !la.Settings.IsLiveProp(k) {
			continue
		}
		switch k {
		case "value":
			if s.Value(real) != v {
				s.SetValue(real, v)
			}
		case "checked":
			if !s.Checked(real) {
				s.SetChecked(real, true)
			}
		}
	}
	var toRemove []string
	for _, attr := range real.Attr {
		if attr.Namespace != "" || attr.Key == tagAttr {
			continue
		}
		if _, ok := src.Attrs[attr.Key]; !ok {
			toRemove = append(toRemove, attr.Key)
		}
	}
	for _, k := range toRemove {
		s.RemoveAttr(real, k)
		if k == "checked" && la.Settings.IsLiveProp(k) && s.Checked(real) {
			s.SetChecked(real, false)
		}
	}
}

func (la *LiveApplier) materialize(v *vdom.Node) *html.Node {
	if la.Retag {
		la.Tagger.Tag(v)
	}
	real := la.buildHostNode(v)
	la.Ids.Index(real)
	return real
}

func (la *LiveApplier) buildHostNode(v *vdom.Node) *html.Node {
	s := la.Surface
	switch v.Type {
	case vdom.TextNode:
		return s.CreateText(v.Text)
	case vdom.CommentNode:
		return s.CreateComment(v.Text)
	}
	real := s.CreateElement(v.Tag)
	for _, k := range sortedKeys(v.Attrs) {
		s.SetInitialAttr(real, k, v.Attrs[k])
	}
	for _, child := range v.Children {
		real.AppendChild(la.buildHostNode(child))
	}
	return real
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
