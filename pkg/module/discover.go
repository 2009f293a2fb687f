// Copyright Mesh Language Contributors
//
// SPDX-License-Identifier: Apache-2.0
package module

import (
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/mesh-lang/mesh/pkg/cst"
	"github.com/mesh-lang/mesh/pkg/lexer"
	"github.com/mesh-lang/mesh/pkg/parser"
)

// DiscoveredFile is one discovered source file, named and with its imports
// already extracted, ready to be registered into a Graph.
type DiscoveredFile struct {
	Path       string // project-relative path, forward-slash separated
	ModuleName string
	IsRootMain bool
	Imports    [][]string // each entry is a dotted import's segments
}

// Discover walks root (an fs.FS, so callers can pass os.DirFS or an
// in-memory fstest.MapFS in tests), skipping dot-directories, and returns
// every ".snow"/".mpl" file with its module name and extracted imports.
// Paths are returned/sorted lexicographically for determinism (spec §4.3
// step 1), independent of the underlying filesystem's enumeration order.
func Discover(fsys fs.FS) ([]DiscoveredFile, error) {
	var paths []string

	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if p != "." && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}

			return nil
		}

		if strings.HasSuffix(p, ".snow") || strings.HasSuffix(p, ".mpl") {
			paths = append(paths, p)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(paths)

	files := make([]DiscoveredFile, len(paths))

	for i, p := range paths {
		contents, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, err
		}

		files[i] = DiscoveredFile{
			Path:       p,
			ModuleName: nameOf(p),
			IsRootMain: p == "main.snow" || p == "main.mpl",
			Imports:    extractImports(contents),
		}
	}

	return files, nil
}

// nameOf computes the PascalCase dotted module name for a project-relative
// path (spec §4.3 step 2 / §6). "math/linear_algebra.snow" -> "Math.LinearAlgebra".
func nameOf(p string) string {
	dir, file := path.Split(p)
	stem := strings.TrimSuffix(strings.TrimSuffix(file, ".snow"), ".mpl")

	var segments []string

	dir = strings.Trim(dir, "/")
	if dir != "" {
		for _, d := range strings.Split(dir, "/") {
			segments = append(segments, pascalCase(d))
		}
	}

	segments = append(segments, pascalCase(stem))

	return strings.Join(segments, ".")
}

// pascalCase re-cases a snake_case segment: split on '_', titlecase each
// part, and rejoin with no separator.
func pascalCase(seg string) string {
	parts := strings.Split(seg, "_")

	var b strings.Builder

	for _, part := range parts {
		if part == "" {
			continue
		}

		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}

	return b.String()
}

// extractImports parses contents and walks its top-level items, collecting
// every ImportDecl/FromImportDecl module path as a slice of segments (spec
// §4.3 step 4). Parse errors are tolerated: best-effort extraction over
// whatever parsed successfully, matching the checker's "best-effort even
// with parse errors" policy (spec §7).
func extractImports(contents []byte) [][]string {
	root, _, _ := parser.Parse(contents)
	if root == nil {
		return nil
	}

	var imports [][]string

	for _, c := range root.Children {
		if c.IsToken() {
			continue
		}

		switch c.Node.Kind {
		case cst.ImportDecl:
			if decl, ok := cst.AsImportDecl(c.Node); ok {
				imports = append(imports, segmentsOf(contents, decl.ModulePath()))
			}
		case cst.FromImportDecl:
			if decl, ok := cst.AsFromImportDecl(c.Node); ok {
				imports = append(imports, segmentsOf(contents, decl.ModulePath()))
			}
		}
	}

	return imports
}

func segmentsOf(contents []byte, toks []lexer.Token) []string {
	segs := make([]string, len(toks))
	for i, t := range toks {
		segs[i] = string(contents[t.Span.Start():t.Span.End()])
	}

	return segs
}
