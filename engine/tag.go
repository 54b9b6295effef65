// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"strconv"
	"strings"

	"github.com/wavetermdev/undertow/config"
	"github.com/wavetermdev/undertow/vdom"
)

const (
	DefaultTagAttr    = config.DefaultTagAttr
	DefaultTextMarker = config.DefaultTextMarker
)

// Tagger stamps virtual nodes with ids so they can later be resolved to the
// live nodes they produced. Elements get an attribute; text and comment nodes
// get a "<marker>:<id>#" prefix on their value. Ids come from two counters
// (elements, text/comment), assigned depth first, pre-order.
type Tagger struct {
	TagAttr    string
	TextMarker string
	nextElem   int
	nextText   int
}

func MakeTagger(tagAttr string, textMarker string) *Tagger {
	return &Tagger{TagAttr: tagAttr, TextMarker: textMarker}
}

func (t *Tagger) Reset() {
	t.nextElem = 0
	t.nextText = 0
}

// Tag stamps every node of tree that does not already carry an id.
func (t *Tagger) Tag(tree *vdom.Node) {
	tree.Walk(func(n *vdom.Node) bool {
		switch n.Type {
		case vdom.ElementNode:
			if !n.HasAttr(t.TagAttr) {
				t.nextElem++
				n.SetAttr(t.TagAttr, strconv.Itoa(t.nextElem))
			}
		case vdom.TextNode, vdom.CommentNode:
			if _, _, ok := ParseTextMarker(t.TextMarker, n.Text); !ok {
				t.nextText++
				n.Text = FormatTextMarker(t.TextMarker, t.nextText, n.Text)
			}
		}
		return true
	})
}

// ElemId returns the generated id of a tagged element.
func (t *Tagger) ElemId(n *vdom.Node) (int, bool) {
	if !n.IsElement() || !n.HasAttr(t.TagAttr) {
		return 0, false
	}
	id, err := strconv.Atoi(n.Attr(t.TagAttr))
	if err != nil {
		return 0, false
	}
	return id, true
}

// TextId returns the generated id of a tagged text or comment node.
func (t *Tagger) TextId(n *vdom.Node) (int, bool) {
	if n.IsElement() {
		return 0, false
	}
	id, _, ok := ParseTextMarker(t.TextMarker, n.Text)
	return id, ok
}

// Payload is the text value without its marker.
func (t *Tagger) Payload(n *vdom.Node) string {
	if _, payload, ok := ParseTextMarker(t.TextMarker, n.Text); ok {
		return payload
	}
	return n.Text
}

// IsBareMarker reports a comment that carries only a marker (no payload).
func (t *Tagger) IsBareMarker(n *vdom.Node) bool {
	if n.Type != vdom.CommentNode {
		return false
	}
	_, payload, ok := ParseTextMarker(t.TextMarker, n.Text)
	return ok && payload == ""
}

func FormatTextMarker(marker string, id int, text string) string {
	return marker + ":" + strconv.Itoa(id) + "#" + text
}

// ParseTextMarker splits "<marker>:<id>#<text>".
func ParseTextMarker(marker string, s string) (int, string, bool) {
	if !strings.HasPrefix(s, marker+":") {
		return 0, s, false
	}
	rest := s[len(marker)+1:]
	idStr, payload, found := strings.Cut(rest, "#")
	if !found || idStr == "" {
		return 0, s, false
	}
	id, err := strconv.Atoi(idStr)
	if err != nil || id <= 0 {
		return 0, s, false
	}
	return id, payload, true
}
