// Copyright Mesh Language Contributors
//
// SPDX-License-Identifier: Apache-2.0
package main

import (
	"fmt"
	"os"
	"runtime/debug"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Version is filled when building with make, but *not* when installing via
// "go install".
var Version string

var rootCmd = &cobra.Command{
	Use:   "mesh",
	Short: "The Mesh language compiler and toolchain.",
	Long:  "A compiler, runtime, and language server for the Mesh programming language.",
	Run: func(cmd *cobra.Command, args []string) {
		if GetFlag(cmd, "version") {
			fmt.Print("mesh ")

			if Version != "" {
				fmt.Printf("%s", Version)
			} else if info, ok := debug.ReadBuildInfo(); ok {
				fmt.Printf("%s", info.Main.Version)
			} else {
				fmt.Printf("(unknown version)")
			}

			fmt.Println()
			return
		}

		cmd.Help() //nolint:errcheck
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Called by main.main(), once.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(2)
	}
}

func init() {
	rootCmd.Flags().Bool("version", false, "report version of this executable")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "increase logging verbosity")

	log.SetFormatter(&log.TextFormatter{DisableTimestamp: true})
}
