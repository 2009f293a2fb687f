// Copyright Mesh Language Contributors
//
// SPDX-License-Identifier: Apache-2.0
package module

import "testing"

func namesInOrder(g *Graph, order []ID) []string {
	names := make([]string, len(order))
	for i, id := range order {
		names[i] = g.Modules[id].Name
	}

	return names
}

// TestTopologicalSortDeterministic reproduces spec §8 scenario 4: for
// {A depends on B,C; B depends on D; C depends on D; D has no deps}, the
// sort always yields [D, B, C, A] regardless of registration order.
func TestTopologicalSortDeterministic(t *testing.T) {
	build := func(order []string) *Graph {
		byName := map[string][]string{
			"A": {"B", "C"},
			"B": {"D"},
			"C": {"D"},
			"D": {},
		}

		files := make([]DiscoveredFile, len(order))
		for i, name := range order {
			var imports [][]string
			for _, dep := range byName[name] {
				imports = append(imports, []string{dep})
			}

			files[i] = DiscoveredFile{Path: name + ".snow", ModuleName: name, Imports: imports}
		}

		g, err := NewGraph(files)
		if err != nil {
			t.Fatalf("NewGraph: %v", err)
		}

		return g
	}

	orders := [][]string{
		{"A", "B", "C", "D"},
		{"D", "C", "B", "A"},
		{"C", "A", "D", "B"},
	}

	for _, reg := range orders {
		g := build(reg)

		sorted, err := g.TopologicalSort()
		if err != nil {
			t.Fatalf("TopologicalSort: %v", err)
		}

		got := namesInOrder(g, sorted)
		want := []string{"D", "B", "C", "A"}

		if len(got) != len(want) {
			t.Fatalf("registration order %v: got %v want %v", reg, got, want)
		}

		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("registration order %v: got %v want %v", reg, got, want)
			}
		}
	}
}

func TestCycleDetection(t *testing.T) {
	files := []DiscoveredFile{
		{Path: "a.snow", ModuleName: "A", Imports: [][]string{{"B"}}},
		{Path: "b.snow", ModuleName: "B", Imports: [][]string{{"A"}}},
	}

	g, err := NewGraph(files)
	if err != nil {
		t.Fatalf("NewGraph: %v", err)
	}

	_, err = g.TopologicalSort()
	if err == nil {
		t.Fatalf("expected a CycleError")
	}

	if _, ok := err.(*CycleError); !ok {
		t.Fatalf("expected *CycleError, got %T", err)
	}
}

func TestSelfImportIsDistinctFromCycle(t *testing.T) {
	files := []DiscoveredFile{
		{Path: "a.snow", ModuleName: "A", Imports: [][]string{{"A"}}},
	}

	_, err := NewGraph(files)
	if _, ok := err.(*SelfImportError); !ok {
		t.Fatalf("expected *SelfImportError, got %T (%v)", err, err)
	}
}

func TestModuleNaming(t *testing.T) {
	cases := map[string]string{
		"math/linear_algebra.snow": "Math.LinearAlgebra",
		"util.snow":                "Util",
		"main.snow":                "Main",
	}

	for path, want := range cases {
		if got := nameOf(path); got != want {
			t.Fatalf("nameOf(%q) = %q, want %q", path, got, want)
		}
	}
}
