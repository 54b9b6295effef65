// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package vdom

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

func TextElem(text string) *Node {
	return &Node{Type: TextNode, Text: text}
}

func CommentElem(text string) *Node {
	return &Node{Type: CommentNode, Text: text}
}

func (n *Node) WithKey(key string) *Node {
	if n == nil {
		return nil
	}
	n.Key = key
	return n
}

func Classes(classes ...any) string {
	var parts []string
	for _, class := range classes {
		switch c := class.(type) {
		case nil:
			continue
		case string:
			if c != "" {
				parts = append(parts, c)
			}
		}
		// Ignore any other types
	}
	return strings.Join(parts, " ")
}

// H builds an element. A "key" entry in attrs becomes the node key.
// children may be strings, nodes, slices of either, or nil (skipped).
func H(tag string, attrs map[string]string, children ...any) *Node {
	rtn := &Node{Type: ElementNode, Tag: tag}
	for k, v := range attrs {
		if k == KeyAttr {
			rtn.Key = v
			continue
		}
		rtn.SetAttr(k, v)
	}
	for _, part := range children {
		for _, child := range PartToNodes(part) {
			rtn.AppendChild(child)
		}
	}
	return rtn
}

func If(cond bool, part any) any {
	if cond {
		return part
	}
	return nil
}

func IfElse(cond bool, part any, elsePart any) any {
	if cond {
		return part
	}
	return elsePart
}

func ForEach[T any](items []T, fn func(T, int) any) []any {
	elems := make([]any, 0, len(items))
	for idx, item := range items {
		elems = append(elems, fn(item, idx))
	}
	return elems
}

// PartToNodes converts a child part to nodes. Strings are text here (use
// ToNodes for render output, where strings are markup).
func PartToNodes(part any) []*Node {
	if part == nil {
		return nil
	}
	switch partTyped := part.(type) {
	case string:
		return []*Node{TextElem(partTyped)}
	case bool:
		if partTyped {
			return []*Node{TextElem("true")}
		}
		return nil
	case Node:
		return []*Node{partTyped.Clone()}
	case *Node:
		if partTyped == nil {
			return nil
		}
		if partTyped.parent != nil {
			return []*Node{partTyped.Clone()}
		}
		return []*Node{partTyped}
	case []*Node:
		return partTyped
	default:
		partVal := reflect.ValueOf(part)
		if partVal.Kind() == reflect.Slice {
			var rtn []*Node
			for i := 0; i < partVal.Len(); i++ {
				rtn = append(rtn, PartToNodes(partVal.Index(i).Interface())...)
			}
			return rtn
		}
		return []*Node{TextElem(fmt.Sprint(part))}
	}
}

// ToNodes normalizes the output of a render function: a node, a node slice,
// raw markup, or nil.
func ToNodes(output any) ([]*Node, error) {
	switch out := output.(type) {
	case nil:
		return nil, nil
	case string:
		return ParseMarkup(out)
	case []byte:
		return ParseMarkup(string(out))
	case *Node:
		if out == nil {
			return nil, nil
		}
		return []*Node{out}, nil
	case Node:
		return []*Node{out.Clone()}, nil
	case []*Node:
		return out, nil
	}
	return nil, fmt.Errorf("invalid render output type %T", output)
}

// tree primitives

func (n *Node) AppendChild(child *Node) {
	child.detach()
	child.parent = n
	n.Children = append(n.Children, child)
}

// InsertChildAt inserts before position idx; idx >= len(Children) appends.
func (n *Node) InsertChildAt(idx int, child *Node) {
	child.detach()
	if idx < 0 {
		idx = 0
	}
	if idx >= len(n.Children) {
		n.AppendChild(child)
		return
	}
	child.parent = n
	n.Children = append(n.Children, nil)
	copy(n.Children[idx+1:], n.Children[idx:])
	n.Children[idx] = child
}

// InsertBefore inserts child before ref (ref must be a child of n).
func (n *Node) InsertBefore(child *Node, ref *Node) {
	child.detach()
	idx := n.ChildIndex(ref)
	if idx < 0 {
		n.AppendChild(child)
		return
	}
	n.InsertChildAt(idx, child)
}

func (n *Node) RemoveChild(child *Node) bool {
	idx := n.ChildIndex(child)
	if idx < 0 {
		return false
	}
	n.Children = append(n.Children[:idx], n.Children[idx+1:]...)
	child.parent = nil
	return true
}

func (n *Node) ReplaceChild(newChild *Node, oldChild *Node) bool {
	idx := n.ChildIndex(oldChild)
	if idx < 0 {
		return false
	}
	newChild.detach()
	// detaching may have shifted oldChild if both shared this parent
	idx = n.ChildIndex(oldChild)
	n.Children[idx] = newChild
	newChild.parent = n
	oldChild.parent = nil
	return true
}

func (n *Node) ChildIndex(child *Node) int {
	for idx, c := range n.Children {
		if c == child {
			return idx
		}
	}
	return -1
}

func (n *Node) detach() {
	if n.parent != nil {
		n.parent.RemoveChild(n)
	}
}

// Clone deep-copies the subtree; the copy has no parent.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	rtn := &Node{Type: n.Type, Tag: n.Tag, Text: n.Text, Key: n.Key}
	if n.Attrs != nil {
		rtn.Attrs = make(map[string]string, len(n.Attrs))
		for k, v := range n.Attrs {
			rtn.Attrs[k] = v
		}
	}
	for _, child := range n.Children {
		c := child.Clone()
		c.parent = rtn
		rtn.Children = append(rtn.Children, c)
	}
	return rtn
}

// Walk visits the subtree depth first, pre-order. Returning false from fn
// skips the node's descendants.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, child := range n.Children {
		child.Walk(fn)
	}
}

// Path returns the child positions from the tree root, formatted "0/2/1" ("" for the root).
func (n *Node) Path() string {
	var parts []string
	for cur := n; cur.parent != nil; cur = cur.parent {
		parts = append(parts, strconv.Itoa(cur.parent.ChildIndex(cur)))
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "/")
}

// FindById returns the first element in the subtree with the given id attribute.
func (n *Node) FindById(id string) *Node {
	var rtn *Node
	n.Walk(func(cur *Node) bool {
		if rtn != nil {
			return false
		}
		if cur.IsElement() && cur.Attr(IdAttr) == id {
			rtn = cur
			return false
		}
		return true
	})
	return rtn
}
