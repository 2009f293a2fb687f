// Copyright Mesh Language Contributors
//
// SPDX-License-Identifier: Apache-2.0
package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mesh-lang/mesh/pkg/codegen"
	"github.com/mesh-lang/mesh/pkg/diag"
	"github.com/mesh-lang/mesh/pkg/mir"
	"github.com/mesh-lang/mesh/pkg/module"
	"github.com/mesh-lang/mesh/pkg/parser"
	"github.com/mesh-lang/mesh/pkg/source"
	"github.com/mesh-lang/mesh/pkg/types"
)

var buildCmd = &cobra.Command{
	Use:   "build [flags] project_dir",
	Short: "Compile a Mesh project into a native binary.",
	Long: `Discover every module under project_dir, build the module graph, typecheck
and lower each module to MIR in topological order, and emit a native binary
at the entry module's canonical name (spec.md §6).`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if GetFlag(cmd, "verbose") {
			log.SetLevel(log.DebugLevel)
		}

		runBuild(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)
	buildCmd.Flags().StringP("output", "o", "", "output binary path (default: <project_dir>/<entry-module-name>)")
	buildCmd.Flags().Bool("emit-mir", false, "print the lowered MIR instead of compiling to a binary")
	buildCmd.Flags().Bool("emit-llvm", false, "write textual LLVM IR to <output>.ll instead of linking a binary")
	buildCmd.Flags().String("cc", "cc", "C compiler/linker invoked to turn the emitted object file into a binary")
}

func runBuild(cmd *cobra.Command, projectDir string) {
	fsys := os.DirFS(projectDir)

	files, err := module.Discover(fsys)
	if err != nil {
		fmt.Printf("error discovering modules: %s\n", err)
		os.Exit(2)
	}

	if len(files) == 0 {
		fmt.Println("no .snow/.mpl source files found")
		os.Exit(2)
	}

	graph, err := module.NewGraph(files)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	order, err := graph.TopologicalSort()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	bag := diag.NewBag()

	reg := types.NewRegistry()
	merged := &mir.Module{}

	moduleExports := map[string]*types.ExportedSymbols{}
	moduleCheckers := map[string]*types.Checker{}

	var entryName string

	for _, id := range order {
		// module.NewGraph assigns Modules[i].ID = ID(i) in file-slice order,
		// so the graph ID doubles as the index into the discovery slice.
		info := files[id]

		log.WithFields(log.Fields{"module": graph.Modules[id].Name, "path": info.Path}).Debug("compiling module")

		src, err := os.ReadFile(filepath.Join(projectDir, info.Path))
		if err != nil {
			fmt.Printf("error reading %s: %s\n", info.Path, err)
			os.Exit(2)
		}

		file := source.NewFile(info.Path, src)

		root, lexErrs, parseDiags := parser.Parse(src)

		for _, e := range lexErrs {
			bag.Add(diag.FromLexError(file, e))
		}

		for _, d := range parseDiags {
			bag.Add(diag.FromParseDiagnostic(file, d))
		}

		// Modules are visited leaf-first (module.Graph's toposort), so every
		// dependency this module could `from M import n` has already run
		// and is present in moduleExports/moduleCheckers by the time we
		// get here (spec §4.4 "Import resolution").
		checker := types.NewChecker(src, reg)
		checker.Check(root, moduleExports, moduleCheckers)

		moduleExports[graph.Modules[id].Name] = types.CollectExports(src, root)
		moduleCheckers[graph.Modules[id].Name] = checker

		for _, err := range checker.Diagnostics() {
			bag.Add(diag.FromCheckError(file, err))
		}

		if bag.HasErrors() {
			continue
		}

		lowered := mir.NewLowerer(src, reg).LowerModule(root)
		merged.Functions = append(merged.Functions, lowered.Functions...)
		merged.Structs = append(merged.Structs, lowered.Structs...)
		merged.SumTypes = append(merged.SumTypes, lowered.SumTypes...)

		if graph.Modules[id].IsEntry {
			entryName = graph.Modules[id].Name
		}
	}

	if bag.HasErrors() {
		bag.Render(os.Stderr)
		os.Exit(1)
	}

	if GetFlag(cmd, "emit-mir") {
		printMIR(merged)
		return
	}

	gen := codegen.NewGenerator(entryName)
	defer gen.Dispose()

	if err := gen.Emit(merged, "main"); err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	output := GetString(cmd, "output")
	if output == "" {
		output = filepath.Join(projectDir, entryName)
	}

	if GetFlag(cmd, "emit-llvm") {
		if err := os.WriteFile(output+".ll", []byte(gen.Module().String()), 0o644); err != nil {
			fmt.Println(err)
			os.Exit(2)
		}

		return
	}

	linkBinary(cmd, gen, output)
}

func printMIR(mod *mir.Module) {
	for _, fn := range codegen.SortedFunctionNames(mod) {
		fmt.Printf("fn %s\n", fn)
	}

	for _, s := range mod.Structs {
		fmt.Printf("struct %s { %d fields }\n", s.Name, len(s.Fields))
	}

	for _, st := range mod.SumTypes {
		fmt.Printf("sum %s { %d variants }\n", st.Name, len(st.Variants))
	}
}

// linkBinary writes the generator's module to a temporary object file and
// invokes the configured C linker to produce the final executable. The
// runtime-ABI symbols the object references (mesh_string_concat,
// mesh_panic, ...) are expected to come from a C-callable runtime support
// archive supplied on the linker command line; this repository's C7/C8
// runtime is hosted Go (pkg/runtime/actor, pkg/runtime/net) rather than a
// linkable C archive, so producing that archive is out of scope here (see
// DESIGN.md).
func linkBinary(cmd *cobra.Command, gen *codegen.Generator, output string) {
	obj := output + ".o"

	if err := gen.WriteObjectFile(obj); err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	defer os.Remove(obj)

	cc := GetString(cmd, "cc")

	link := exec.Command(cc, obj, "-o", output)
	link.Stdout = os.Stdout
	link.Stderr = os.Stderr

	if err := link.Run(); err != nil {
		fmt.Printf("link failed: %s\n", err)
		os.Exit(2)
	}
}
