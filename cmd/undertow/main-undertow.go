// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/wavetermdev/undertow/config"
)

// these are set at build time
var UndertowVersion = "0.0.0"
var BuildTime = "0"

var configFileArg string

var rootCmd = &cobra.Command{
	Use:          "undertow",
	Short:        "Undertow - a VDOM reconciliation engine",
	Long:         `Undertow renders markup templates into a host tree and patches it in place on every change.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print Undertow version",
	Long:  `Print Undertow version`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("v%s (%s)\n", UndertowVersion, BuildTime)
	},
}

func loadSettings() (*config.Settings, error) {
	return config.ReadSettings(configFileArg)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFileArg, "config", "", "engine settings file (JSON)")
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
