// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"fmt"

	"github.com/wavetermdev/undertow/vdom"
)

type PatchMode string

const (
	PatchReplace    PatchMode = "replace-subtree"
	PatchAttributes PatchMode = "attributes"
	PatchNodeValue  PatchMode = "node-value"
	PatchRemove     PatchMode = "remove-node"
	PatchAppend     PatchMode = "append-child"
	PatchInsert     PatchMode = "insert-node"
	PatchSwap       PatchMode = "swap-nodes"
)

// Patch is one edit. Target is always a node of the old tree; for append and
// insert it is the old-side parent. Node is the new-side node (replacement,
// attribute/value source, inserted node), or for swaps the other old-side
// node. Index is the insert-before position in the parent's child list at the
// time the patch is applied.
type Patch struct {
	Mode   PatchMode
	Target *vdom.Node
	Node   *vdom.Node
	Index  int
}

func (p Patch) String() string {
	switch p.Mode {
	case PatchInsert:
		return fmt.Sprintf("%s %s@%d", p.Mode, describeNode(p.Node), p.Index)
	case PatchAppend:
		return fmt.Sprintf("%s %s", p.Mode, describeNode(p.Node))
	case PatchSwap:
		return fmt.Sprintf("%s %s<->%s", p.Mode, describeNode(p.Target), describeNode(p.Node))
	case PatchRemove:
		return fmt.Sprintf("%s %s", p.Mode, describeNode(p.Target))
	}
	return fmt.Sprintf("%s %s", p.Mode, describeNode(p.Target))
}

func describeNode(n *vdom.Node) string {
	if n == nil {
		return "<nil>"
	}
	switch n.Type {
	case vdom.TextNode:
		return fmt.Sprintf("#text(%q)", n.Text)
	case vdom.CommentNode:
		return fmt.Sprintf("#comment(%q)", n.Text)
	}
	if n.Key != "" {
		return fmt.Sprintf("<%s key=%s>", n.Tag, n.Key)
	}
	if id := n.Id(); id != "" {
		return fmt.Sprintf("<%s #%s>", n.Tag, id)
	}
	return "<" + n.Tag + ">"
}

// WirePatch is the serializable form of a Patch.
type WirePatch struct {
	Mode       PatchMode `json:"mode"`
	TargetPath string    `json:"targetpath" jsonschema:"description=child positions from the old root (0/2/1)"`
	TargetTag  string    `json:"targettag,omitempty"`
	OtherPath  string    `json:"otherpath,omitempty" jsonschema:"description=for swap-nodes: path of the second node"`
	Markup     string    `json:"markup,omitempty" jsonschema:"description=new-side node markup (replace/insert/append/attributes/node-value)"`
	Index      int       `json:"index,omitempty"`
}

// MakeWirePatch serializes p. Paths are positions in the old tree as it
// stands when p is applied, so a consumer can replay wire patches in order.
func MakeWirePatch(p Patch, tagger *Tagger) WirePatch {
	opts := &vdom.RenderOpts{WithKeys: true}
	if tagger != nil {
		opts.OmitAttrs = []string{tagger.TagAttr}
		opts.TextFn = func(s string) string {
			_, payload, _ := ParseTextMarker(tagger.TextMarker, s)
			return payload
		}
	}
	wp := WirePatch{Mode: p.Mode, TargetPath: p.Target.Path(), Index: p.Index}
	if tagger != nil {
		wp.TargetTag = p.Target.Attr(tagger.TagAttr)
	}
	switch p.Mode {
	case PatchSwap:
		wp.OtherPath = p.Node.Path()
	case PatchRemove:
	default:
		wp.Markup = vdom.Render(p.Node, opts)
	}
	return wp
}
