package symtab

import (
	"path/filepath"
	"strings"

	"github.com/phobologic/logtranslator/internal/graph"
	"github.com/phobologic/logtranslator/internal/model"
)

// Registry owns every File seen in a run and the counters shared by nested
// analyses. It is not safe for concurrent use.
type Registry struct {
	Root  string
	Stats model.Stats
	Graph *graph.Ancestry

	files      map[string]*File
	order      []*File
	discovered []string
}

// NewRegistry returns a registry over the discovered relative paths.
func NewRegistry(root string, discovered []string) *Registry {
	paths := make([]string, len(discovered))
	for i, p := range discovered {
		paths[i] = filepath.ToSlash(p)
	}
	return &Registry{
		Root:       root,
		Graph:      graph.New(),
		files:      make(map[string]*File),
		discovered: paths,
	}
}

// Get returns the registered file for path, or nil.
func (r *Registry) Get(path string) *File {
	return r.files[filepath.ToSlash(path)]
}

// Register adds f, keyed by its path. An existing entry for the same path is returned instead.
func (r *Registry) Register(f *File) *File {
	key := filepath.ToSlash(f.Path)
	if existing, ok := r.files[key]; ok {
		return existing
	}
	f.Path = key
	r.files[key] = f
	r.order = append(r.order, f)
	return f
}

// Promote returns a primary context for path. A file registered earlier only
// as someone's ancestor is replaced by a fresh primary context; files that
// already linked the old one keep it.
func (r *Registry) Promote(path string) *File {
	key := filepath.ToSlash(path)
	existing, ok := r.files[key]
	if ok && existing.Primary {
		return existing
	}
	f := NewFile(key, true)
	r.files[key] = f
	if ok {
		for i, o := range r.order {
			if o == existing {
				r.order[i] = f
			}
		}
		return f
	}
	r.order = append(r.order, f)
	return f
}

// Files returns registered files in registration order.
func (r *Registry) Files() []*File {
	return r.order
}

// FindDiscovered returns the discovered path that ends with suffix on a path
// segment boundary, e.g. "com/acme/Base.java" matches
// "src/main/java/com/acme/Base.java" but not "com/acme/MyBase.java".
func (r *Registry) FindDiscovered(suffix string) (string, bool) {
	suffix = strings.TrimPrefix(filepath.ToSlash(suffix), "/")
	for _, p := range r.discovered {
		if p == suffix || strings.HasSuffix(p, "/"+suffix) {
			return p, true
		}
	}
	return "", false
}
