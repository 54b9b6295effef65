// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"fmt"

	"github.com/andybalholm/cascadia"
	"github.com/wavetermdev/undertow/host"
	"golang.org/x/net/html"
)

// ListenerFunc receives the event and the element that matched the
// listener's selector (the closest match at or above the event target).
type ListenerFunc func(event *host.Event, match *html.Node)

type listenerEntry struct {
	eventType string
	selector  string
	sel       cascadia.Sel
	fn        ListenerFunc
}

type boundListener struct {
	node *html.Node
	id   string
}

// AddListener declares a delegated listener. Listeners are bound to the
// render-target root and survive any patching below it.
func (c *Component) AddListener(eventType string, selector string, fn ListenerFunc) error {
	sel, err := cascadia.Parse(selector)
	if err != nil {
		return fmt.Errorf("invalid selector %q: %w", selector, err)
	}
	c.listeners = append(c.listeners, &listenerEntry{eventType: eventType, selector: selector, sel: sel, fn: fn})
	if c.started && !c.rendering && c.snapshot != nil {
		c.bindListeners()
	}
	return nil
}

func (c *Component) unbindListeners() {
	for _, bound := range c.bound {
		c.surface.RemoveEventListener(bound.node, bound.id)
	}
	c.bound = nil
}

// bindListeners attaches one dispatcher per event type to the live root.
func (c *Component) bindListeners() {
	c.unbindListeners()
	root := c.liveRoot()
	if root == nil {
		return
	}
	var eventTypes []string
	seen := make(map[string]bool)
	for _, lsn := range c.listeners {
		if !seen[lsn.eventType] {
			seen[lsn.eventType] = true
			eventTypes = append(eventTypes, lsn.eventType)
		}
	}
	for _, eventType := range eventTypes {
		eventType := eventType
		id := c.surface.AddEventListener(root, eventType, func(event *host.Event) {
			c.dispatch(root, eventType, event)
		})
		c.bound = append(c.bound, boundListener{node: root, id: id})
	}
}

func (c *Component) dispatch(root *html.Node, eventType string, event *host.Event) {
	for _, lsn := range c.listeners {
		if lsn.eventType != eventType {
			continue
		}
		if match := closestMatch(event.Target, root, lsn.sel); match != nil {
			lsn.fn(event, match)
		}
	}
}

func closestMatch(target *html.Node, root *html.Node, sel cascadia.Sel) *html.Node {
	for cur := target; cur != nil; cur = cur.Parent {
		if cur.Type == html.ElementNode && sel.Match(cur) {
			return cur
		}
		if cur == root {
			break
		}
	}
	return nil
}
