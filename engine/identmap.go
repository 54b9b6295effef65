// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"strconv"

	"github.com/wavetermdev/undertow/host"
	"github.com/wavetermdev/undertow/vdom"
	"golang.org/x/net/html"
)

// IdentityMap is the side table from generated ids to live nodes. Element and
// text/comment ids are separate arenas, matching the Tagger's two counters.
type IdentityMap struct {
	tagger  *Tagger
	surface *host.Surface
	elems   map[int]*html.Node
	texts   map[int]*html.Node
}

func MakeIdentityMap(tagger *Tagger, surface *host.Surface) *IdentityMap {
	return &IdentityMap{
		tagger:  tagger,
		surface: surface,
		elems:   make(map[int]*html.Node),
		texts:   make(map[int]*html.Node),
	}
}

func (m *IdentityMap) Reset() {
	m.elems = make(map[int]*html.Node)
	m.texts = make(map[int]*html.Node)
}

func (m *IdentityMap) Len() int {
	return len(m.elems) + len(m.texts)
}

// Index records every tagged node of a live subtree and consumes the tags:
// the id attribute is removed and the text marker stripped. Call it on
// nodes that are not yet attached.
func (m *IdentityMap) Index(real *html.Node) {
	if real.Type == html.ElementNode {
		for i, attr := range real.Attr {
			if attr.Namespace != "" || attr.Key != m.tagger.TagAttr {
				continue
			}
			if id, err := strconv.Atoi(attr.Val); err == nil {
				m.elems[id] = real
			}
			real.Attr = append(real.Attr[:i], real.Attr[i+1:]...)
			break
		}
	} else if real.Type == html.TextNode || real.Type == html.CommentNode {
		if id, payload, ok := ParseTextMarker(m.tagger.TextMarker, real.Data); ok {
			m.texts[id] = real
			real.Data = payload
		}
	}
	for c := real.FirstChild; c != nil; c = c.NextSibling {
		m.Index(c)
	}
}

// Set points the entry for v at real (v must be tagged).
func (m *IdentityMap) Set(v *vdom.Node, real *html.Node) bool {
	if id, ok := m.tagger.ElemId(v); ok {
		m.elems[id] = real
		return true
	}
	if id, ok := m.tagger.TextId(v); ok {
		m.texts[id] = real
		return true
	}
	return false
}

// Lookup resolves v without the native id fallback.
func (m *IdentityMap) Lookup(v *vdom.Node) *html.Node {
	if id, ok := m.tagger.ElemId(v); ok {
		return m.elems[id]
	}
	if id, ok := m.tagger.TextId(v); ok {
		return m.texts[id]
	}
	return nil
}

// Resolve maps a virtual node to its live node: by generated id, then by the
// element's native id attribute. Failure is an ErrUnresolvedNode.
func (m *IdentityMap) Resolve(v *vdom.Node) (*html.Node, error) {
	if real := m.Lookup(v); real != nil {
		return real, nil
	}
	if v.IsElement() && v.Id() != "" {
		if real := m.surface.GetElementById(v.Id()); real != nil {
			return real, nil
		}
	}
	if v.IsElement() {
		return nil, unresolvedError("<%s> tag=%q id=%q", v.Tag, v.Attr(m.tagger.TagAttr), v.Id())
	}
	return nil, unresolvedError("%s node %q", v.Type, v.Text)
}

// Forget drops the entries of a virtual subtree.
func (m *IdentityMap) Forget(v *vdom.Node) {
	v.Walk(func(n *vdom.Node) bool {
		if id, ok := m.tagger.ElemId(n); ok {
			delete(m.elems, id)
		} else if id, ok := m.tagger.TextId(n); ok {
			delete(m.texts, id)
		}
		return true
	})
}
