// Copyright Mesh Language Contributors
//
// SPDX-License-Identifier: Apache-2.0
package main

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-lang/mesh/pkg/lsp"
)

var lspCmd = &cobra.Command{
	Use:   "lsp",
	Short: "Run the Mesh language server over stdio (C9).",
	Long:  `Serve textDocument/completion, signatureHelp, hover, definition, documentSymbol, and publishDiagnostics over JSON-RPC on stdin/stdout, for editor integration.`,
	Run: func(cmd *cobra.Command, args []string) {
		logger := zap.NewNop()

		if GetFlag(cmd, "verbose") {
			var err error

			logger, err = zap.NewDevelopment()
			if err != nil {
				logger = zap.NewNop()
			}
		}

		server := lsp.NewServer(logger)

		if err := server.Run(context.Background(), stdio{}); err != nil && err != io.EOF {
			logger.Error("lsp server exited", zap.Error(err))
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(lspCmd)
}

// stdio adapts os.Stdin/os.Stdout to the io.ReadWriteCloser jsonrpc2.NewStream
// expects for a stdio-transport language server.
type stdio struct{}

func (stdio) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdio) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
func (stdio) Close() error                { return nil }
