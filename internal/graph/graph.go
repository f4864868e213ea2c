// Package graph tracks which source files extend classes declared in other
// files, and which files are mid-analysis so recursive resolution can detect
// cycles.
package graph

import (
	"sort"

	"github.com/phobologic/logtranslator/internal/model"
)

type edgeKey struct{ src, tgt string }

// Ancestry is a directed graph from a file to the files declaring its superclasses.
type Ancestry struct {
	edges  map[edgeKey]struct{}
	out    map[string]map[string]struct{}
	active map[string]struct{}
	stack  []string
}

// New returns an empty ancestry graph.
func New() *Ancestry {
	return &Ancestry{
		edges:  make(map[edgeKey]struct{}),
		out:    make(map[string]map[string]struct{}),
		active: make(map[string]struct{}),
	}
}

// Link records that src extends a class declared in tgt. It reports false
// when the edge already exists or would be a self-edge.
func (a *Ancestry) Link(src, tgt string) bool {
	if src == tgt {
		return false // no self-edges
	}
	key := edgeKey{src, tgt}
	if _, dup := a.edges[key]; dup {
		return false
	}
	a.edges[key] = struct{}{}
	if a.out[src] == nil {
		a.out[src] = make(map[string]struct{})
	}
	a.out[src][tgt] = struct{}{}
	return true
}

// Enter marks path as being analyzed. It reports false if path is already
// on the analysis stack, which means resolving it again would recurse forever.
func (a *Ancestry) Enter(path string) bool {
	if _, busy := a.active[path]; busy {
		return false
	}
	a.active[path] = struct{}{}
	a.stack = append(a.stack, path)
	return true
}

// Leave pops path from the analysis stack.
func (a *Ancestry) Leave(path string) {
	delete(a.active, path)
	for i := len(a.stack) - 1; i >= 0; i-- {
		if a.stack[i] == path {
			a.stack = append(a.stack[:i], a.stack[i+1:]...)
			break
		}
	}
}

// Active reports whether path is currently being analyzed.
func (a *Ancestry) Active(path string) bool {
	_, ok := a.active[path]
	return ok
}

// Cycle returns the analysis stack from path's first occurrence to the top,
// followed by path again. It is empty if path is not active.
func (a *Ancestry) Cycle(path string) []string {
	for i, p := range a.stack {
		if p == path {
			cycle := append([]string(nil), a.stack[i:]...)
			return append(cycle, path)
		}
	}
	return nil
}

// Ancestors returns every file reachable from path, nearest first.
// Files at the same distance are sorted by path.
func (a *Ancestry) Ancestors(path string) []string {
	seen := map[string]struct{}{path: {}}
	var result []string
	frontier := []string{path}
	for len(frontier) > 0 {
		var next []string
		for _, node := range frontier {
			for _, tgt := range sortedKeys(a.out[node]) {
				if _, ok := seen[tgt]; ok {
					continue
				}
				seen[tgt] = struct{}{}
				result = append(result, tgt)
				next = append(next, tgt)
			}
		}
		frontier = next
	}
	return result
}

// Edges returns all ancestry edges sorted by source then target.
func (a *Ancestry) Edges() []model.Dependency {
	deps := make([]model.Dependency, 0, len(a.edges))
	for key := range a.edges {
		deps = append(deps, model.Dependency{Source: key.src, Target: key.tgt})
	}

	// Sort for deterministic output
	sort.Slice(deps, func(i, j int) bool {
		if deps[i].Source != deps[j].Source {
			return deps[i].Source < deps[j].Source
		}
		return deps[i].Target < deps[j].Target
	})

	return deps
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
