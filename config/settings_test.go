// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDecodeSettings(t *testing.T) {
	settings, err := DecodeSettings(map[string]any{
		"componenttags": []any{"todo-item", "todo-item", "todo-footer"},
		"debug":         true,
	})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if settings.TagAttr != DefaultTagAttr || settings.TextMarker != DefaultTextMarker {
		t.Fatalf("defaults lost: %#v", settings)
	}
	if diff := cmp.Diff([]string{"todo-item", "todo-footer"}, settings.ComponentTags); diff != "" {
		t.Fatalf("component tags (-want +got):\n%s", diff)
	}
	if !settings.Debug || !settings.IsComponentTag("todo-footer") || !settings.IsLiveProp("checked") {
		t.Fatalf("bad settings %#v", settings)
	}
}

func TestDecodeSettingsInvalid(t *testing.T) {
	if _, err := DecodeSettings(map[string]any{"tagattr": "id"}); err == nil {
		t.Fatalf("expected reserved attribute error")
	}
	if _, err := DecodeSettings(map[string]any{"debug": "notabool"}); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestReadSettings(t *testing.T) {
	fileName := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(fileName, []byte(`{"tagattr": "data-uid", "liveprops": ["value"]}`), 0644); err != nil {
		t.Fatal(err)
	}
	settings, err := ReadSettings(fileName)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if settings.TagAttr != "data-uid" || settings.IsLiveProp("checked") {
		t.Fatalf("file values not applied: %#v", settings)
	}
	defaults, err := ReadSettings("")
	if err != nil || defaults.TagAttr != DefaultTagAttr {
		t.Fatalf("defaults: %v", err)
	}
}

func TestDecodeSettingsStringList(t *testing.T) {
	settings, err := DecodeSettings(map[string]any{"componenttags": "todo-item, todo-footer,,todo-item"})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff([]string{"todo-item", "todo-footer"}, settings.ComponentTags); diff != "" {
		t.Fatalf("component tags (-want +got):\n%s", diff)
	}
	if _, err := DecodeSettings(map[string]any{"tagattribute": "data-x"}); err == nil {
		t.Fatalf("expected an error for an unknown key")
	}
}

func TestExpandSettingsPath(t *testing.T) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	got, err := expandSettingsPath("~/undertow/settings.json")
	if err != nil || got != filepath.Join(homeDir, "undertow", "settings.json") {
		t.Fatalf("expand: %q %v", got, err)
	}
	if got, _ := expandSettingsPath("a/../b.json"); got != "b.json" {
		t.Fatalf("relative path: %q", got)
	}
}
