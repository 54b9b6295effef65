// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/wavetermdev/undertow/util"
)

const DefaultTagAttr = "data-vtag"
const DefaultTextMarker = "vtag"
const DefaultComponentAttr = "data-component"

type Settings struct {
	// attribute carrying an element's generated tag id in virtual trees
	TagAttr string `json:"tagattr,omitempty" jsonschema:"description=attribute holding the generated element id"`
	// prefix of the "<marker>:<id>#" stamp on text and comment values
	TextMarker string `json:"textmarker,omitempty"`
	// attribute naming a child component class on a marker element
	ComponentAttr string `json:"componentattr,omitempty"`
	// tag names that are always child component markers
	ComponentTags []string `json:"componenttags,omitempty"`
	// attributes written through the live form-control property
	LiveProps []string `json:"liveprops,omitempty"`
	Debug     bool     `json:"debug,omitempty"`
}

func DefaultSettings() *Settings {
	return &Settings{
		TagAttr:       DefaultTagAttr,
		TextMarker:    DefaultTextMarker,
		ComponentAttr: DefaultComponentAttr,
		LiveProps:     []string{"value", "checked"},
	}
}

func (s *Settings) IsComponentTag(tag string) bool {
	for _, t := range s.ComponentTags {
		if t == tag {
			return true
		}
	}
	return false
}

func (s *Settings) IsLiveProp(name string) bool {
	for _, p := range s.LiveProps {
		if p == name {
			return true
		}
	}
	return false
}

func (s *Settings) Validate() error {
	if s.TagAttr == "" {
		return fmt.Errorf("tagattr cannot be empty")
	}
	if s.TextMarker == "" {
		return fmt.Errorf("textmarker cannot be empty")
	}
	if s.TagAttr == "id" || s.TagAttr == "key" {
		return fmt.Errorf("tagattr %q collides with a reserved attribute", s.TagAttr)
	}
	return nil
}

// decodeSettingsMap decodes a generic settings map onto settings using the
// json field names. List settings also accept a comma separated string
// ("componenttags": "todo-item,todo-footer").
func decodeSettingsMap(settings *Settings, m map[string]any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           settings,
		TagName:          "json",
		WeaklyTypedInput: true,
		ZeroFields:       true,
		ErrorUnused:      true,
		DecodeHook:       mapstructure.StringToSliceHookFunc(","),
	})
	if err != nil {
		return err
	}
	return decoder.Decode(m)
}

// DecodeSettings applies a generic settings map (decoded JSON) over the defaults.
// Unknown keys are an error.
func DecodeSettings(m map[string]any) (*Settings, error) {
	settings := DefaultSettings()
	if err := decodeSettingsMap(settings, m); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	var tags []string
	for _, tag := range settings.ComponentTags {
		tag = strings.TrimSpace(tag)
		if tag != "" {
			tags = util.AddElemToSliceUniq(tags, tag)
		}
	}
	settings.ComponentTags = tags
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// expandSettingsPath resolves a leading "~/" against the user's home directory.
func expandSettingsPath(fileName string) (string, error) {
	if fileName != "~" && !strings.HasPrefix(fileName, "~/") {
		return filepath.Clean(fileName), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot expand %s: %w", fileName, err)
	}
	return filepath.Join(homeDir, strings.TrimPrefix(fileName, "~")), nil
}

// ReadSettings loads a JSON settings file; an empty path yields the defaults.
func ReadSettings(fileName string) (*Settings, error) {
	if fileName == "" {
		return DefaultSettings(), nil
	}
	fileName, err := expandSettingsPath(fileName)
	if err != nil {
		return nil, err
	}
	barr, err := os.ReadFile(fileName)
	if err != nil {
		return nil, fmt.Errorf("cannot read settings file: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(barr, &m); err != nil {
		return nil, fmt.Errorf("cannot parse settings file %s: %w", fileName, err)
	}
	return DecodeSettings(m)
}
