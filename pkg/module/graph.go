// Copyright Mesh Language Contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package module implements the module graph builder from spec §4.3:
// recursive file discovery, snake_case→PascalCase naming, import-edge
// extraction, and a deterministic Kahn's-algorithm topological sort with
// cycle detection. Grounded on the resolution walk in the teacher's
// pkg/corset/compiler/resolver.go, generalized from single-compilation-unit
// resolution to an explicit multi-file dependency graph.
package module

import (
	"fmt"
	"sort"
	"strings"
)

// ID is a dense index into a Graph's Modules slice.
type ID uint32

// Info describes one discovered module.
type Info struct {
	ID           ID
	Name         string
	Path         string // project-relative file path
	Dependencies []ID
	IsEntry      bool
}

// Graph is the full set of modules in a project plus a name→ID index.
type Graph struct {
	Modules  []Info
	nameToID map[string]ID
}

// ByName looks up a module by its canonical dotted name.
func (g *Graph) ByName(name string) (ID, bool) {
	id, ok := g.nameToID[name]
	return id, ok
}

// SelfImportError is returned when a module directly imports its own name.
type SelfImportError struct {
	Module string
}

func (e *SelfImportError) Error() string {
	return fmt.Sprintf("module %q imports itself", e.Module)
}

// CycleError reports a cycle found during topological sort, with the path
// that traces back to its origin (spec §4.3 step 6).
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("import cycle: %s", strings.Join(e.Path, " -> "))
}

// NewGraph registers every discovered (path, importPaths) pair as a module
// and builds dependency edges. Registration is two-phase (spec §4.3 step 3):
// every module gets an ID before any import is resolved, so forward
// references just work.
func NewGraph(files []DiscoveredFile) (*Graph, error) {
	g := &Graph{nameToID: make(map[string]ID, len(files))}

	for i, f := range files {
		name := f.ModuleName
		isEntry := f.IsRootMain

		if isEntry {
			name = "Main"
		}

		g.Modules = append(g.Modules, Info{ID: ID(i), Name: name, Path: f.Path, IsEntry: isEntry})
		g.nameToID[name] = ID(i)
	}

	for i, f := range files {
		for _, importPath := range f.Imports {
			joined := strings.Join(importPath, ".")

			if joined == g.Modules[i].Name {
				return nil, &SelfImportError{Module: joined}
			}

			depID, ok := g.nameToID[joined]
			if !ok {
				// Unresolved import: may be a stdlib module, silently
				// skipped per spec §4.3 step 4. The type checker's
				// import resolution skips it too, so no error is
				// reported for an unknown module.
				continue
			}

			if !containsID(g.Modules[i].Dependencies, depID) {
				g.Modules[i].Dependencies = append(g.Modules[i].Dependencies, depID)
			}
		}
	}

	return g, nil
}

func containsID(ids []ID, target ID) bool {
	for _, id := range ids {
		if id == target {
			return true
		}
	}

	return false
}

// TopologicalSort orders modules leaf-first using Kahn's algorithm with
// alphabetical tie-breaking at every step, so the result is a pure function
// of the graph's structure and independent of filesystem enumeration order
// (spec §4.3 step 6 / §8 invariant).
func (g *Graph) TopologicalSort() ([]ID, error) {
	inDegree := make(map[ID]int, len(g.Modules))
	dependents := make(map[ID][]ID, len(g.Modules))

	for _, m := range g.Modules {
		inDegree[m.ID] = len(m.Dependencies)

		for _, dep := range m.Dependencies {
			dependents[dep] = append(dependents[dep], m.ID)
		}
	}

	ready := make([]ID, 0, len(g.Modules))
	for _, m := range g.Modules {
		if inDegree[m.ID] == 0 {
			ready = append(ready, m.ID)
		}
	}

	sortByName(g, ready)

	var order []ID

	for len(ready) > 0 {
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)

		var newlyReady []ID

		for _, dependent := range dependents[next] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				newlyReady = append(newlyReady, dependent)
			}
		}

		sortByName(g, newlyReady)
		ready = mergeSortedByName(g, ready, newlyReady)
	}

	if len(order) < len(g.Modules) {
		return nil, g.extractCycle(inDegree)
	}

	return order, nil
}

func sortByName(g *Graph, ids []ID) {
	sort.Slice(ids, func(i, j int) bool {
		return g.Modules[ids[i]].Name < g.Modules[ids[j]].Name
	})
}

// mergeSortedByName merges two already-name-sorted ID slices, preserving
// sort order (both queues are small; a simple merge keeps determinism
// explicit rather than relying on re-sorting the whole queue each step).
func mergeSortedByName(g *Graph, a, b []ID) []ID {
	if len(b) == 0 {
		return a
	}

	out := make([]ID, 0, len(a)+len(b))
	i, j := 0, 0

	for i < len(a) && j < len(b) {
		if g.Modules[a[i]].Name <= g.Modules[b[j]].Name {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}

	out = append(out, a[i:]...)
	out = append(out, b[j:]...)

	return out
}

// extractCycle walks from any still-pending module along a still-pending
// outgoing edge until a module is revisited, per spec §4.3 step 6.
func (g *Graph) extractCycle(inDegree map[ID]int) error {
	var start ID

	for _, m := range g.Modules {
		if inDegree[m.ID] > 0 {
			start = m.ID
			break
		}
	}

	visited := map[ID]int{start: 0}
	path := []ID{start}
	current := start

	for {
		var next ID
		found := false

		for _, dep := range g.Modules[current].Dependencies {
			if inDegree[dep] > 0 {
				next = dep
				found = true
				break
			}
		}

		if !found {
			break
		}

		if idx, seen := visited[next]; seen {
			names := make([]string, 0, len(path)-idx+1)
			for _, id := range path[idx:] {
				names = append(names, g.Modules[id].Name)
			}

			names = append(names, g.Modules[next].Name)

			return &CycleError{Path: names}
		}

		visited[next] = len(path)
		path = append(path, next)
		current = next
	}

	return &CycleError{Path: []string{g.Modules[start].Name}}
}
