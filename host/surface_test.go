// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package host

import (
	"strings"
	"testing"
)

func TestSurfaceLookup(t *testing.T) {
	s, err := ParseSurface(`<div id="app"><ul><li class="item">a</li><li class="item sel">b</li></ul></div>`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	app := s.GetElementById("app")
	if app == nil || app.Data != "div" {
		t.Fatalf("app not found")
	}
	if s.GetElementById("missing") != nil {
		t.Fatalf("unexpected element")
	}
	sel, err := s.QuerySelector(app, "li.sel")
	if err != nil || sel == nil || sel.FirstChild.Data != "b" {
		t.Fatalf("QuerySelector: %v", err)
	}
	all, _ := s.QuerySelectorAll(app, ".item")
	if len(all) != 2 {
		t.Fatalf("expected 2 items, got %d", len(all))
	}
	if s.Mutations() != 0 {
		t.Fatalf("lookups must not count as mutations")
	}
}

func TestSurfaceMutations(t *testing.T) {
	s, _ := ParseSurface(`<div id="app"></div>`)
	app := s.GetElementById("app")
	p := s.CreateElement("p")
	s.AppendChild(app, p)
	s.InsertBefore(app, s.CreateText("x"), p)
	s.SetAttr(p, "class", "c")
	s.RemoveAttr(p, "class")
	s.RemoveAttr(p, "class") // absent, not counted
	span := s.CreateElement("span")
	s.ReplaceChild(app, span, p)
	if s.Mutations() != 5 {
		t.Fatalf("expected 5 mutations, got %d", s.Mutations())
	}
	if !s.Contains(span) || s.Contains(p) {
		t.Fatalf("Contains mismatch")
	}
	if got := s.Render(app); got != `<div id="app">x<span></span></div>` {
		t.Fatalf("render: %s", got)
	}
}

func TestLiveProps(t *testing.T) {
	s, _ := ParseSurface(`<input id="name" value="a"/><input id="cb" type="checkbox" checked/>`)
	name := s.GetElementById("name")
	if s.Value(name) != "a" {
		t.Fatalf("initial value %q", s.Value(name))
	}
	s.SetValue(name, "typed")
	if s.Value(name) != "typed" || GetAttr(name, "value") != "a" {
		t.Fatalf("live value should be decoupled from the attribute")
	}
	cb := s.GetElementById("cb")
	if !s.Checked(cb) {
		t.Fatalf("checked attr should seed live state")
	}
	s.SetChecked(cb, false)
	if s.Checked(cb) {
		t.Fatalf("live checked not written")
	}
}

func TestDispatchBubbles(t *testing.T) {
	s, _ := ParseSurface(`<div id="app"><p id="p"><b id="b">x</b></p></div>`)
	app, p, b := s.GetElementById("app"), s.GetElementById("p"), s.GetElementById("b")
	var log []string
	s.AddEventListener(app, "click", func(e *Event) { log = append(log, "app:"+e.Target.Data) })
	pid := s.AddEventListener(p, "click", func(e *Event) { log = append(log, "p") })
	s.AddEventListener(p, "input", func(e *Event) { log = append(log, "wrong") })
	s.Dispatch(b, "click", nil)
	if strings.Join(log, ",") != "p,app:b" {
		t.Fatalf("bubble order: %v", log)
	}
	log = nil
	if !s.RemoveEventListener(p, pid) {
		t.Fatalf("remove failed")
	}
	s.AddEventListener(b, "click", func(e *Event) {
		log = append(log, "b")
		e.StopPropagation()
	})
	s.Dispatch(b, "click", nil)
	if strings.Join(log, ",") != "b" {
		t.Fatalf("stopPropagation: %v", log)
	}
}

func TestDispatchRecoversPanic(t *testing.T) {
	s, _ := ParseSurface(`<div id="app"></div>`)
	app := s.GetElementById("app")
	called := false
	s.AddEventListener(app, "click", func(e *Event) { panic("boom") })
	s.AddEventListener(app, "click", func(e *Event) { called = true })
	s.Dispatch(app, "click", nil)
	if !called {
		t.Fatalf("second handler should still run")
	}
}

func TestNewSurface(t *testing.T) {
	s := NewSurface()
	body := s.Body()
	if body == nil || body.Data != "body" {
		t.Fatalf("expected an empty document with a body")
	}
	div := s.CreateElement("div")
	s.SetInitialAttr(div, "id", "app")
	s.AppendChild(body, div)
	if s.GetElementById("app") != div || !s.Contains(div) {
		t.Fatalf("appended element not found")
	}
	if got := s.Render(body); !strings.Contains(got, `<div id="app"></div>`) {
		t.Fatalf("render: %s", got)
	}
}
