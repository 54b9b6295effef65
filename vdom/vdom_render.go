// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package vdom

import (
	"html"
	"sort"
	"strings"
)

type RenderOpts struct {
	OmitAttrs []string            // bookkeeping attributes to leave out
	TextFn    func(string) string // applied to text and comment values before escaping
	WithKeys  bool                // emit key="..." on keyed elements
}

// Render serializes the subtree as markup. Attributes are written in sorted
// order so output is stable.
func Render(n *Node, opts *RenderOpts) string {
	if opts == nil {
		opts = &RenderOpts{}
	}
	var buf strings.Builder
	renderNode(&buf, n, opts)
	return buf.String()
}

func (o *RenderOpts) omit(name string) bool {
	for _, a := range o.OmitAttrs {
		if a == name {
			return true
		}
	}
	return false
}

func (o *RenderOpts) text(s string) string {
	if o.TextFn == nil {
		return s
	}
	return o.TextFn(s)
}

func renderNode(buf *strings.Builder, n *Node, opts *RenderOpts) {
	if n == nil {
		return
	}
	switch n.Type {
	case TextNode:
		buf.WriteString(html.EscapeString(opts.text(n.Text)))
		return
	case CommentNode:
		buf.WriteString("<!--")
		buf.WriteString(opts.text(n.Text))
		buf.WriteString("-->")
		return
	}
	buf.WriteByte('<')
	buf.WriteString(n.Tag)
	if opts.WithKeys && n.Key != "" {
		buf.WriteString(` key="`)
		buf.WriteString(html.EscapeString(n.Key))
		buf.WriteByte('"')
	}
	keys := make([]string, 0, len(n.Attrs))
	for k := range n.Attrs {
		if opts.omit(k) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		buf.WriteByte(' ')
		buf.WriteString(k)
		buf.WriteString(`="`)
		buf.WriteString(html.EscapeString(n.Attrs[k]))
		buf.WriteByte('"')
	}
	if IsVoidTag(n.Tag) && len(n.Children) == 0 {
		buf.WriteString("/>")
		return
	}
	buf.WriteByte('>')
	for _, child := range n.Children {
		renderNode(buf, child, opts)
	}
	buf.WriteString("</")
	buf.WriteString(n.Tag)
	buf.WriteByte('>')
}
