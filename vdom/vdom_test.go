// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package vdom

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseMarkup(t *testing.T) {
	nodes, err := ParseMarkup(`
<div id="app" class="list">
    <h1>hello world</h1>
    <ul>
        <li key="1">one</li>
        <li key="2">two</li>
    </ul>
    <input value="x">
    <br/>
</div>
`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(nodes) != 1 {
		t.Fatalf("expected 1 root, got %d", len(nodes))
	}
	root := nodes[0]
	if root.Tag != "div" || root.Id() != "app" || root.Attr("class") != "list" {
		t.Fatalf("bad root: %#v", root)
	}
	if root.Parent() != nil {
		t.Fatalf("root should be detached")
	}
	if len(root.Children) != 4 {
		t.Fatalf("expected 4 children, got %d (%s)", len(root.Children), Render(root, nil))
	}
	ul := root.Children[1]
	if ul.Children[0].Key != "1" || ul.Children[1].Key != "2" {
		t.Fatalf("keys not parsed: %q %q", ul.Children[0].Key, ul.Children[1].Key)
	}
	if ul.Children[0].HasAttr(KeyAttr) {
		t.Fatalf("key must not be an attribute")
	}
	if ul.Children[1].Parent() != ul {
		t.Fatalf("parent pointer not set")
	}
	if root.Children[2].Tag != "input" || len(root.Children[2].Children) != 0 {
		t.Fatalf("void element should not take children")
	}
	want := `<div class="list" id="app"><h1>hello world</h1><ul><li>one</li><li>two</li></ul><input value="x"/><br/></div>`
	if diff := cmp.Diff(want, Render(root, nil)); diff != "" {
		t.Fatalf("render mismatch (-want +got):\n%s", diff)
	}
}

func TestParseMarkupMultiRoot(t *testing.T) {
	nodes, err := ParseMarkup(`<p>a</p><p>b</p>`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("expected 2 roots, got %d", len(nodes))
	}
}

func TestParseMarkupErrors(t *testing.T) {
	for _, markup := range []string{`<div></span>`, `</div>`, `<div><p>x</p>`} {
		_, err := ParseMarkup(markup)
		if err == nil {
			t.Fatalf("expected error for %q", markup)
		}
		if !errors.Is(err, ErrInvalidMarkup) {
			t.Fatalf("expected ErrInvalidMarkup for %q, got %v", markup, err)
		}
	}
}

func TestParseComment(t *testing.T) {
	root := MustParse(`<div><!--note--><span>x</span></div>`)
	if root.Children[0].Type != CommentNode || root.Children[0].Text != "note" {
		t.Fatalf("comment not kept: %#v", root.Children[0])
	}
}

func TestH(t *testing.T) {
	items := []string{"a", "b"}
	elem := H("ul", map[string]string{"id": "list"},
		ForEach(items, func(item string, idx int) any {
			return H("li", map[string]string{"key": item}, item)
		}),
		If(false, H("li", nil, "hidden")),
		nil,
	)
	if len(elem.Children) != 2 {
		t.Fatalf("expected 2 children, got %d", len(elem.Children))
	}
	if elem.Children[1].Key != "b" || elem.Children[1].Children[0].Text != "b" {
		t.Fatalf("bad child: %s", Render(elem.Children[1], &RenderOpts{WithKeys: true}))
	}
	if Classes("a", nil, "", "b") != "a b" {
		t.Fatalf("Classes mismatch")
	}
	alt := IfElse(len(items) == 0, "empty", TextElem("full").WithKey("k"))
	if n, ok := alt.(*Node); !ok || n.Text != "full" || n.Key != "k" {
		t.Fatalf("IfElse picked the wrong branch: %#v", alt)
	}
}

func TestTreePrimitives(t *testing.T) {
	root := MustParse(`<ul><li>a</li><li>b</li><li>c</li></ul>`)
	a, b, c := root.Children[0], root.Children[1], root.Children[2]
	root.InsertChildAt(0, c)
	if diff := cmp.Diff([]string{"c", "a", "b"}, childTexts(root)); diff != "" {
		t.Fatalf("insert mismatch:\n%s", diff)
	}
	if c.Path() != "0" || b.Path() != "2" {
		t.Fatalf("bad paths %q %q", c.Path(), b.Path())
	}
	x := TextElem("x")
	root.ReplaceChild(x, a)
	if a.Parent() != nil || x.Parent() != root {
		t.Fatalf("replace did not fix parents")
	}
	root.RemoveChild(b)
	root.AppendChild(b)
	if diff := cmp.Diff([]string{"c", "", "b"}, childTexts(root)); diff != "" {
		t.Fatalf("mismatch:\n%s", diff)
	}
	clone := root.Clone()
	if clone.Parent() != nil || clone.Children[0].Parent() != clone || clone.Children[0] == root.Children[0] {
		t.Fatalf("clone must be deep with its own parents")
	}
}

func TestToNodes(t *testing.T) {
	nodes, err := ToNodes(`<div>x</div>`)
	if err != nil || len(nodes) != 1 {
		t.Fatalf("markup output: %v %d", err, len(nodes))
	}
	nodes, _ = ToNodes(H("div", nil))
	if len(nodes) != 1 {
		t.Fatalf("node output")
	}
	if _, err := ToNodes(42); err == nil {
		t.Fatalf("expected error for int output")
	}
}

func childTexts(n *Node) []string {
	var rtn []string
	for _, child := range n.Children {
		if len(child.Children) > 0 {
			rtn = append(rtn, child.Children[0].Text)
		} else {
			rtn = append(rtn, "")
		}
	}
	return rtn
}
