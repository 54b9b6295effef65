// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package state

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestModelNotify(t *testing.T) {
	m := MakeModel(1)
	var seen []any
	id := m.AddObserver(func(hint any) { seen = append(seen, hint) })
	m.Set(2)
	m.Update(func(v int) int { return v * 10 })
	m.Notify("manual")
	if diff := cmp.Diff([]any{2, 20, "manual"}, seen); diff != "" {
		t.Fatalf("notifications (-want +got):\n%s", diff)
	}
	m.RemoveObserver(id)
	m.Set(3)
	if len(seen) != 3 || m.NumObservers() != 0 {
		t.Fatalf("observer not removed")
	}
	if m.Get() != 3 {
		t.Fatalf("value %d", m.Get())
	}
}

type todo struct {
	Title string `json:"title"`
	Done  bool   `json:"done"`
}

func TestModelSetAny(t *testing.T) {
	m := MakeModel([]todo{})
	err := m.SetAny([]any{map[string]any{"title": "a", "done": true}})
	if err != nil {
		t.Fatalf("SetAny: %v", err)
	}
	if diff := cmp.Diff([]todo{{Title: "a", Done: true}}, m.Get()); diff != "" {
		t.Fatalf("mismatch:\n%s", diff)
	}
	if err := m.SetAny("nope"); err == nil {
		t.Fatalf("expected adapt error")
	}
}

func TestModelIsObservable(t *testing.T) {
	var _ Observable = MakeModel("x")
}
