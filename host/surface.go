// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// Package host is the live rendering surface: a document tree the engine
// patches in place. All tree mutations go through Surface methods so the
// surface can count them.
package host

import (
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// live form-control state, decoupled from the static attributes
type liveProps struct {
	value      string
	hasValue   bool
	checked    bool
	hasChecked bool
}

type Surface struct {
	Doc       *html.Node
	props     map[*html.Node]*liveProps
	listeners map[*html.Node][]*listenerEntry
	mutations int
}

func NewSurface() *Surface {
	surface, err := ParseSurface("")
	if err != nil {
		// parsing the empty document cannot fail
		panic(err)
	}
	return surface
}

// ParseSurface builds a surface from host page markup, e.g. `<div id="app"></div>`.
func ParseSurface(markup string) (*Surface, error) {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("cannot parse surface markup: %w", err)
	}
	s := &Surface{
		Doc:       doc,
		props:     make(map[*html.Node]*liveProps),
		listeners: make(map[*html.Node][]*listenerEntry),
	}
	walk(doc, func(n *html.Node) bool {
		s.initProps(n)
		return true
	})
	return s, nil
}

func walk(n *html.Node, fn func(*html.Node) bool) bool {
	if !fn(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, fn) {
			return false
		}
	}
	return true
}

func (s *Surface) Body() *html.Node {
	var body *html.Node
	walk(s.Doc, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.DataAtom == atom.Body {
			body = n
			return false
		}
		return true
	})
	return body
}

func (s *Surface) GetElementById(id string) *html.Node {
	if id == "" {
		return nil
	}
	var rtn *html.Node
	walk(s.Doc, func(n *html.Node) bool {
		if n.Type == html.ElementNode && GetAttr(n, "id") == id {
			rtn = n
			return false
		}
		return true
	})
	return rtn
}

// Contains reports whether n is attached to the document.
func (s *Surface) Contains(n *html.Node) bool {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur == s.Doc {
			return true
		}
	}
	return false
}

func (s *Surface) QuerySelector(root *html.Node, selector string) (*html.Node, error) {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, err
	}
	var rtn *html.Node
	walk(root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && sel.Match(n) {
			rtn = n
			return false
		}
		return true
	})
	return rtn, nil
}

func (s *Surface) QuerySelectorAll(root *html.Node, selector string) ([]*html.Node, error) {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, err
	}
	var rtn []*html.Node
	walk(root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && sel.Match(n) {
			rtn = append(rtn, n)
		}
		return true
	})
	return rtn, nil
}

// Render serializes n (the whole document when n is nil).
func (s *Surface) Render(n *html.Node) string {
	if n == nil {
		n = s.Doc
	}
	var buf strings.Builder
	html.Render(&buf, n)
	return buf.String()
}

// Mutations is the number of tree mutations performed through this surface.
func (s *Surface) Mutations() int {
	return s.mutations
}

// node construction (not a mutation until the node is attached)

func (s *Surface) CreateElement(tag string) *html.Node {
	return &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
}

func (s *Surface) CreateText(text string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: text}
}

func (s *Surface) CreateComment(text string) *html.Node {
	return &html.Node{Type: html.CommentNode, Data: text}
}

// SetInitialAttr sets an attribute on a detached node, seeding live state for form controls.
func (s *Surface) SetInitialAttr(n *html.Node, name string, val string) {
	setAttr(n, name, val)
	s.initProps(n)
}

// tree mutations

func (s *Surface) AppendChild(parent *html.Node, child *html.Node) {
	detach(child)
	parent.AppendChild(child)
	s.mutations++
}

// InsertBefore inserts child before ref; a nil ref appends.
func (s *Surface) InsertBefore(parent *html.Node, child *html.Node, ref *html.Node) {
	detach(child)
	parent.InsertBefore(child, ref)
	s.mutations++
}

func (s *Surface) RemoveChild(parent *html.Node, child *html.Node) {
	parent.RemoveChild(child)
	s.mutations++
}

func (s *Surface) ReplaceChild(parent *html.Node, newChild *html.Node, oldChild *html.Node) {
	detach(newChild)
	parent.InsertBefore(newChild, oldChild)
	parent.RemoveChild(oldChild)
	s.mutations++
}

func (s *Surface) SetAttr(n *html.Node, name string, val string) {
	setAttr(n, name, val)
	s.mutations++
}

func (s *Surface) RemoveAttr(n *html.Node, name string) {
	for i, attr := range n.Attr {
		if attr.Namespace == "" && attr.Key == name {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			s.mutations++
			return
		}
	}
}

func (s *Surface) SetText(n *html.Node, text string) {
	n.Data = text
	s.mutations++
}

// live properties

func (s *Surface) lp(n *html.Node) *liveProps {
	p := s.props[n]
	if p == nil {
		p = &liveProps{}
		s.props[n] = p
	}
	return p
}

func (s *Surface) initProps(n *html.Node) {
	if n.Type != html.ElementNode {
		return
	}
	if val, ok := LookupAttr(n, "value"); ok {
		p := s.lp(n)
		p.value, p.hasValue = val, true
	}
	if _, ok := LookupAttr(n, "checked"); ok {
		p := s.lp(n)
		p.checked, p.hasChecked = true, true
	}
}

// SetValue writes the live value of a form control (not the value attribute).
func (s *Surface) SetValue(n *html.Node, val string) {
	p := s.lp(n)
	p.value, p.hasValue = val, true
	s.mutations++
}

// Value returns the live value, defaulting to the value attribute.
func (s *Surface) Value(n *html.Node) string {
	if p := s.props[n]; p != nil && p.hasValue {
		return p.value
	}
	return GetAttr(n, "value")
}

func (s *Surface) SetChecked(n *html.Node, checked bool) {
	p := s.lp(n)
	p.checked, p.hasChecked = checked, true
	s.mutations++
}

func (s *Surface) Checked(n *html.Node) bool {
	if p := s.props[n]; p != nil && p.hasChecked {
		return p.checked
	}
	_, ok := LookupAttr(n, "checked")
	return ok
}

// attribute helpers

func LookupAttr(n *html.Node, name string) (string, bool) {
	for _, attr := range n.Attr {
		if attr.Namespace == "" && attr.Key == name {
			return attr.Val, true
		}
	}
	return "", false
}

func GetAttr(n *html.Node, name string) string {
	val, _ := LookupAttr(n, name)
	return val
}

func setAttr(n *html.Node, name string, val string) {
	for i, attr := range n.Attr {
		if attr.Namespace == "" && attr.Key == name {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: val})
}

func detach(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// ChildAt returns the idx'th child of parent (any node type), nil when out of range.
func ChildAt(parent *html.Node, idx int) *html.Node {
	i := 0
	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		if i == idx {
			return c
		}
		i++
	}
	return nil
}
