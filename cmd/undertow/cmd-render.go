// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/wavetermdev/undertow/engine"
)

var surfaceArg string
var targetArg string

var renderCmd = &cobra.Command{
	Use:   "render FILE [FILE...]",
	Short: "Render markup files in sequence into one component and print the patches",
	Long: `Render each markup file as the next output of the same component. The first
file is a full render, every following file is patched in place. The final
host markup is printed at the end.`,
	Args: cobra.MinimumNArgs(1),
	RunE: renderRun,
}

func init() {
	renderCmd.Flags().StringVar(&surfaceArg, "surface", DefaultSurfaceMarkup, "host page markup")
	renderCmd.Flags().StringVar(&targetArg, "target", DefaultTargetId, "render target element id")
	rootCmd.AddCommand(renderCmd)
}

func renderRun(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	step := 0
	printStats := func(stats engine.RenderStats) {
		step++
		fmt.Printf("# %d %s: %d patches, %d mutations\n", step, args[step-1], len(stats.Patches), stats.Mutations)
		for _, p := range stats.Patches {
			fmt.Printf("  %s\n", p.String())
		}
	}
	ts, err := makeTemplateSession(args[0], surfaceArg, targetArg, settings, printStats)
	if err != nil {
		return err
	}
	if err := ts.comp.Start(); err != nil {
		return err
	}
	var renderErr error
	ts.onError = func(err error) { renderErr = err }
	for _, fileName := range args[1:] {
		barr, err := os.ReadFile(fileName)
		if err != nil {
			return err
		}
		ts.source.Set(string(barr))
		if renderErr != nil {
			return fmt.Errorf("%s: %w", fileName, renderErr)
		}
	}
	fmt.Println(ts.surface.Render(ts.surface.Body()))
	return nil
}
