// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/wavetermdev/undertow/engine"
	"github.com/wavetermdev/undertow/vdom"
)

var diffJsonArg bool

var diffCmd = &cobra.Command{
	Use:   "diff OLD NEW",
	Short: "Print the patches that turn one markup file into another",
	Args:  cobra.ExactArgs(2),
	RunE:  diffRun,
}

func init() {
	diffCmd.Flags().BoolVar(&diffJsonArg, "json", false, "print wire patches as JSON")
	rootCmd.AddCommand(diffCmd)
}

func readRoot(fileName string) (*vdom.Node, error) {
	barr, err := os.ReadFile(fileName)
	if err != nil {
		return nil, err
	}
	nodes, err := vdom.ParseMarkup(string(barr))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fileName, err)
	}
	if len(nodes) != 1 {
		return nil, fmt.Errorf("%s: expected exactly one root node, got %d", fileName, len(nodes))
	}
	return nodes[0], nil
}

func diffRun(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	oldRoot, err := readRoot(args[0])
	if err != nil {
		return err
	}
	newRoot, err := readRoot(args[1])
	if err != nil {
		return err
	}
	tagger := engine.MakeTagger(settings.TagAttr, settings.TextMarker)
	differ := &engine.Differ{Tagger: tagger}
	patches := differ.Diff(oldRoot, newRoot)
	if !diffJsonArg {
		for _, p := range patches {
			fmt.Println(p.String())
		}
		return nil
	}
	// wire paths are only meaningful in application order
	var wire []engine.WirePatch
	va := &engine.VirtualApplier{
		Tagger:  tagger,
		OnPatch: func(p engine.Patch) { wire = append(wire, engine.MakeWirePatch(p, tagger)) },
	}
	if _, err := va.Apply(oldRoot, patches); err != nil {
		return err
	}
	if wire == nil {
		wire = []engine.WirePatch{}
	}
	// node markup stays readable, no \u003c escapes
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	return encoder.Encode(wire)
}
