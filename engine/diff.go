// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"github.com/wavetermdev/undertow/vdom"
)

type PolicyResult int

const (
	PolicyDiff PolicyResult = iota
	PolicySkip
	PolicyReplace
)

// Policy is consulted before a node pair is compared structurally.
type Policy func(a *vdom.Node, b *vdom.Node) PolicyResult

// Differ computes patch lists. It never modifies either tree.
type Differ struct {
	Tagger *Tagger // tag attribute and text markers are ignored in comparisons
	Policy Policy
}

// Diff compares a (old) against b (new) with the default tagger settings.
func Diff(a *vdom.Node, b *vdom.Node, policy Policy) []Patch {
	d := &Differ{Tagger: MakeTagger(DefaultTagAttr, DefaultTextMarker), Policy: policy}
	return d.Diff(a, b)
}

func (d *Differ) Diff(a *vdom.Node, b *vdom.Node) []Patch {
	var patches []Patch
	d.diff(a, b, &patches)
	return patches
}

func (d *Differ) diff(a *vdom.Node, b *vdom.Node, patches *[]Patch) {
	if d.Policy != nil {
		switch d.Policy(a, b) {
		case PolicySkip:
			return
		case PolicyReplace:
			*patches = append(*patches, Patch{Mode: PatchReplace, Target: a, Node: b})
			return
		}
	}
	if a.Type != b.Type || a.Tag != b.Tag {
		*patches = append(*patches, Patch{Mode: PatchReplace, Target: a, Node: b})
		return
	}
	if a.IsElement() {
		d.diffChildren(a, b, patches)
	} else if d.Tagger.Payload(a) != d.Tagger.Payload(b) {
		*patches = append(*patches, Patch{Mode: PatchNodeValue, Target: a, Node: b})
	}
	if a.IsElement() && !d.attrsEqual(a, b) {
		*patches = append(*patches, Patch{Mode: PatchAttributes, Target: a, Node: b})
	}
}

func (d *Differ) attrsEqual(a *vdom.Node, b *vdom.Node) bool {
	count := 0
	for k, av := range a.Attrs {
		if k == d.Tagger.TagAttr {
			continue
		}
		bv, ok := b.Attrs[k]
		if !ok || bv != av {
			return false
		}
		count++
	}
	for k := range b.Attrs {
		if k != d.Tagger.TagAttr {
			count--
		}
	}
	return count == 0
}

// first position of every keyed element child
func keyTable(children []*vdom.Node) map[string]int {
	rtn := make(map[string]int)
	for idx, child := range children {
		if !child.IsElement() || child.Key == "" {
			continue
		}
		if _, found := rtn[child.Key]; !found {
			rtn[child.Key] = idx
		}
	}
	return rtn
}

// lookup treats entries behind the cursor as unknown, so siblings that were
// already reconciled are never revisited
func keyAhead(table map[string]int, key string, cursor int) (int, bool) {
	if key == "" {
		return 0, false
	}
	pos, ok := table[key]
	if !ok || pos < cursor {
		return 0, false
	}
	return pos, true
}

// diffChildren is a greedy single pass over both child lists. Swaps are
// mirrored in a local copy of a's children so later comparisons see the
// order the applied patches will produce.
func (d *Differ) diffChildren(a *vdom.Node, b *vdom.Node, patches *[]Patch) {
	oldKids := append([]*vdom.Node(nil), a.Children...)
	newKids := b.Children
	oldKeys := keyTable(oldKids)
	newKeys := keyTable(newKids)
	i, j := 0, 0
	offset := 0 // insertions minus removals so far
	for i < len(oldKids) && j < len(newKids) {
		ca, cb := oldKids[i], newKids[j]
		if !ca.IsElement() || !cb.IsElement() {
			switch {
			case !ca.IsElement() && !cb.IsElement():
				d.diff(ca, cb, patches)
				i++
				j++
			case !ca.IsElement():
				*patches = append(*patches, Patch{Mode: PatchRemove, Target: ca})
				offset--
				i++
			default:
				*patches = append(*patches, Patch{Mode: PatchInsert, Target: a, Node: cb, Index: i + offset})
				offset++
				j++
			}
			continue
		}
		if ca.Key == cb.Key {
			d.diff(ca, cb, patches)
			i++
			j++
			continue
		}
		posB, bKnownInA := keyAhead(oldKeys, cb.Key, i)
		_, aKnownInB := keyAhead(newKeys, ca.Key, j)
		if bKnownInA && aKnownInB {
			other := oldKids[posB]
			*patches = append(*patches, Patch{Mode: PatchSwap, Target: ca, Node: other})
			oldKids[i], oldKids[posB] = other, ca
			oldKeys[cb.Key] = i
			oldKeys[ca.Key] = posB
			continue
		}
		if !bKnownInA {
			*patches = append(*patches, Patch{Mode: PatchInsert, Target: a, Node: cb, Index: i + offset})
			offset++
			j++
		}
		if !aKnownInB {
			*patches = append(*patches, Patch{Mode: PatchRemove, Target: ca})
			offset--
			i++
		}
	}
	for ; i < len(oldKids); i++ {
		*patches = append(*patches, Patch{Mode: PatchRemove, Target: oldKids[i]})
	}
	for ; j < len(newKids); j++ {
		*patches = append(*patches, Patch{Mode: PatchAppend, Target: a, Node: newKids[j]})
	}
}
