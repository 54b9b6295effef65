// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package vdom

type NodeType int

const (
	ElementNode NodeType = iota + 1
	TextNode
	CommentNode
)

func (t NodeType) String() string {
	switch t {
	case ElementNode:
		return "element"
	case TextNode:
		return "text"
	case CommentNode:
		return "comment"
	}
	return "unknown"
}

// markup attribute holding the sibling reconciliation key, never copied to the host tree
const KeyAttr = "key"

const IdAttr = "id"

// Node is a virtual tree node. Trees are rebuilt on every render; the parent
// pointer is only ever set by the tree primitives in this package.
type Node struct {
	Type     NodeType          `json:"type"`
	Tag      string            `json:"tag,omitempty"`
	Text     string            `json:"text,omitempty"`
	Key      string            `json:"key,omitempty"`
	Attrs    map[string]string `json:"attrs,omitempty"`
	Children []*Node           `json:"children,omitempty"`

	parent *Node
}

func (n *Node) IsElement() bool {
	return n != nil && n.Type == ElementNode
}

func (n *Node) Parent() *Node {
	return n.parent
}

func (n *Node) Attr(name string) string {
	if n == nil || n.Attrs == nil {
		return ""
	}
	return n.Attrs[name]
}

func (n *Node) HasAttr(name string) bool {
	if n == nil || n.Attrs == nil {
		return false
	}
	_, ok := n.Attrs[name]
	return ok
}

func (n *Node) SetAttr(name string, val string) {
	if n.Attrs == nil {
		n.Attrs = make(map[string]string)
	}
	n.Attrs[name] = val
}

func (n *Node) RemoveAttr(name string) {
	delete(n.Attrs, name)
}

func (n *Node) Id() string {
	return n.Attr(IdAttr)
}
