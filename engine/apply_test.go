// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/wavetermdev/undertow/config"
	"github.com/wavetermdev/undertow/host"
	"github.com/wavetermdev/undertow/vdom"
)

func keysOf(n *vdom.Node) []string {
	var rtn []string
	for _, child := range n.Children {
		rtn = append(rtn, child.Key)
	}
	return rtn
}

func TestApplyVirtualReorder(t *testing.T) {
	for _, tc := range []struct {
		from []string
		to   []string
	}{
		{[]string{"1", "2", "3"}, []string{"3", "1", "2"}},
		{[]string{"1", "2", "3", "4"}, []string{"4", "3", "2", "1"}},
		{[]string{"1", "2"}, []string{"2", "9", "1"}},
		{[]string{"1", "2"}, []string{"3", "4"}},
		{[]string{"1", "2", "3"}, []string{"2"}},
		{[]string{}, []string{"5", "6"}},
	} {
		a := keyedList(tc.from...)
		b := keyedList(tc.to...)
		patches := Diff(a, b, nil)
		va := &VirtualApplier{Tagger: MakeTagger(DefaultTagAttr, DefaultTextMarker)}
		root, err := va.Apply(a, patches)
		if err != nil {
			t.Fatalf("%v -> %v: %v", tc.from, tc.to, err)
		}
		if root != a {
			t.Fatalf("root must not change")
		}
		if diff := cmp.Diff(tc.to, keysOf(root)); diff != "" {
			t.Fatalf("%v -> %v (-want +got):\n%s", tc.from, tc.to, diff)
		}
		for _, child := range root.Children {
			if child.Parent() != root {
				t.Fatalf("stale parent link on %s", child.Key)
			}
		}
	}
}

func TestAttributeRoundTrip(t *testing.T) {
	tagger := MakeTagger(DefaultTagAttr, DefaultTextMarker)
	t1 := vdom.MustParse(`<div class="a" title="t" data-x="1"></div>`)
	tagger.Tag(t1)
	t2 := vdom.MustParse(`<div class="b" data-y="2" title="t"></div>`)
	patches := Diff(t1, t2, nil)
	checkPatches(t, patches, "attributes div")

	target := t1.Clone()
	patches[0].Target = target
	va := &VirtualApplier{Tagger: tagger}
	if _, err := va.Apply(target, patches); err != nil {
		t.Fatalf("apply: %v", err)
	}
	got := make(map[string]string)
	for k, v := range target.Attrs {
		if k != DefaultTagAttr {
			got[k] = v
		}
	}
	if diff := cmp.Diff(t2.Attrs, got); diff != "" {
		t.Fatalf("attributes (-want +got):\n%s", diff)
	}
	if target.Attr(DefaultTagAttr) != "1" {
		t.Fatalf("tag attribute must survive attribute patches")
	}
}

func TestApplyVirtualNodeValue(t *testing.T) {
	tagger := MakeTagger(DefaultTagAttr, DefaultTextMarker)
	a := vdom.MustParse(`<p>old</p>`)
	tagger.Tag(a)
	b := vdom.MustParse(`<p>new</p>`)
	va := &VirtualApplier{Tagger: tagger}
	if _, err := va.Apply(a, Diff(a, b, nil)); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if a.Children[0].Text != "vtag:1#new" {
		t.Fatalf("marker not preserved: %q", a.Children[0].Text)
	}
}

func TestApplyVirtualRootReplace(t *testing.T) {
	a := vdom.MustParse(`<p>x</p>`)
	b := vdom.MustParse(`<section>y</section>`)
	var seen []PatchMode
	va := &VirtualApplier{
		Tagger:  MakeTagger(DefaultTagAttr, DefaultTextMarker),
		OnPatch: func(p Patch) { seen = append(seen, p.Mode) },
	}
	root, err := va.Apply(a, Diff(a, b, nil))
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if root != b {
		t.Fatalf("expected the replacement to become the root")
	}
	if diff := cmp.Diff([]PatchMode{PatchReplace}, seen); diff != "" {
		t.Fatalf("OnPatch (-want +got):\n%s", diff)
	}
}

func TestLiveApplierAttributes(t *testing.T) {
	s, err := host.ParseSurface(`<div id="app"><input id="in" value="a" class="c"/><input id="cb" type="checkbox" checked/></div>`)
	if err != nil {
		t.Fatalf("surface: %v", err)
	}
	tagger := MakeTagger(DefaultTagAttr, DefaultTextMarker)
	la := &LiveApplier{Surface: s, Ids: MakeIdentityMap(tagger, s), Tagger: tagger, Settings: config.DefaultSettings()}
	in := s.GetElementById("in")
	cb := s.GetElementById("cb")
	s.SetValue(in, "typed")

	patches := []Patch{
		{Mode: PatchAttributes, Target: vdom.H("input", map[string]string{"id": "in"}), Node: vdom.H("input", map[string]string{"id": "in", "value": "b", DefaultTagAttr: "7"})},
		{Mode: PatchAttributes, Target: vdom.H("input", map[string]string{"id": "cb"}), Node: vdom.H("input", map[string]string{"id": "cb", "type": "checkbox"})},
	}
	if err := la.Apply(patches); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if s.Value(in) != "b" || host.GetAttr(in, "value") != "b" {
		t.Fatalf("value not written through: live=%q attr=%q", s.Value(in), host.GetAttr(in, "value"))
	}
	if _, ok := host.LookupAttr(in, "class"); ok {
		t.Fatalf("class should have been removed")
	}
	if _, ok := host.LookupAttr(in, DefaultTagAttr); ok {
		t.Fatalf("tag attribute must never reach the host tree")
	}
	if s.Checked(cb) {
		t.Fatalf("checked state not cleared")
	}
}

func TestLiveApplierSwap(t *testing.T) {
	s, _ := host.ParseSurface(`<ul id="app"><li id="a">a</li><li id="b">b</li><li id="c">c</li></ul>`)
	tagger := MakeTagger(DefaultTagAttr, DefaultTextMarker)
	la := &LiveApplier{Surface: s, Ids: MakeIdentityMap(tagger, s), Tagger: tagger, Settings: config.DefaultSettings()}
	a := s.GetElementById("a")
	before := s.Mutations()
	err := la.Apply([]Patch{{Mode: PatchSwap, Target: vdom.H("li", map[string]string{"id": "a"}), Node: vdom.H("li", map[string]string{"id": "c"})}})
	if err != nil {
		t.Fatalf("swap: %v", err)
	}
	if got := s.Render(s.GetElementById("app")); got != `<ul id="app"><li id="c">c</li><li id="b">b</li><li id="a">a</li></ul>` {
		t.Fatalf("swap result: %s", got)
	}
	if s.GetElementById("a") != a {
		t.Fatalf("swap must move nodes, not copy them")
	}
	if s.Mutations()-before != 4 {
		t.Fatalf("expected 4 mutations, got %d", s.Mutations()-before)
	}
}

func TestLiveApplierUnresolved(t *testing.T) {
	s, _ := host.ParseSurface(`<div id="app"></div>`)
	tagger := MakeTagger(DefaultTagAttr, DefaultTextMarker)
	la := &LiveApplier{Surface: s, Ids: MakeIdentityMap(tagger, s), Tagger: tagger, Settings: config.DefaultSettings()}
	err := la.Apply([]Patch{{Mode: PatchRemove, Target: vdom.H("p", nil)}})
	if err == nil {
		t.Fatalf("expected an unresolved node error")
	}
}
