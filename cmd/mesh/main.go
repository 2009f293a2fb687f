// Copyright Mesh Language Contributors
//
// SPDX-License-Identifier: Apache-2.0

// Command mesh is the Mesh compiler/toolchain entry point: "mesh build"
// drives the C1-C6 pipeline (lex/parse/module-graph/typecheck/MIR/codegen)
// to a native binary, and "mesh lsp" serves the C9 language server over
// stdio. Grounded on the teacher's two-file cmd/main.go + pkg/cmd/root.go
// split.
package main

func main() {
	Execute()
}
