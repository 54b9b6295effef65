// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"
	"github.com/wavetermdev/undertow/config"
	"github.com/wavetermdev/undertow/engine"
)

const SchemaSettingsFileName = "settings.json"
const SchemaWirePatchFileName = "wirepatch.json"

var schemaOutDirArg string

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Generate JSON schemas for the settings file and the wire patch format",
	Args:  cobra.NoArgs,
	RunE:  schemaRun,
}

func init() {
	schemaCmd.Flags().StringVar(&schemaOutDirArg, "out", "schema", "output directory")
	rootCmd.AddCommand(schemaCmd)
}

func writeSchema(fileName string, v any) error {
	schema := jsonschema.Reflect(v)
	jsonSchema, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal schema: %v", err)
	}
	// leave unchanged schemas alone so their mtimes do not churn
	if oldSchema, err := os.ReadFile(fileName); err == nil && bytes.Equal(oldSchema, jsonSchema) {
		fmt.Fprintf(os.Stderr, "no changes to %s\n", fileName)
		return nil
	}
	if err := os.WriteFile(fileName, jsonSchema, 0644); err != nil {
		return fmt.Errorf("failed to write schema: %v", err)
	}
	return nil
}

func schemaRun(cmd *cobra.Command, args []string) error {
	if err := os.MkdirAll(schemaOutDirArg, 0755); err != nil {
		return err
	}
	if err := writeSchema(filepath.Join(schemaOutDirArg, SchemaSettingsFileName), &config.Settings{}); err != nil {
		return err
	}
	return writeSchema(filepath.Join(schemaOutDirArg, SchemaWirePatchFileName), &engine.WirePatch{})
}
