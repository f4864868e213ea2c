// Package resolve locates the source file declaring a class's superclass,
// analyzes it on demand, and links its declarations into the subclass's
// file context.
package resolve

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/ternarybob/arbor"

	"github.com/phobologic/logtranslator/internal/symtab"
)

// Analyzer runs a full traversal over one file. Resolver calls it recursively
// for ancestors that have not been analyzed yet.
type Analyzer interface {
	Analyze(ctx context.Context, f *symtab.File) error
}

// Resolver resolves supertype references against a registry.
type Resolver struct {
	reg      *symtab.Registry
	analyzer Analyzer
	prefix   string
	logger   arbor.ILogger
}

// New returns a Resolver. prefix is the application namespace prefix that
// marks project-owned qualified types; it may be empty.
func New(reg *symtab.Registry, analyzer Analyzer, prefix string, logger arbor.ILogger) *Resolver {
	return &Resolver{
		reg:      reg,
		analyzer: analyzer,
		prefix:   prefix,
		logger:   logger,
	}
}

// Resolve finds the file declaring superType, as referenced from cur, and
// links it as an ancestor of cur. It returns nil when the type is external
// or its file is not part of the run.
func (r *Resolver) Resolve(ctx context.Context, superType string, cur *symtab.File) (*symtab.File, error) {
	qualified := r.Qualify(superType, cur)
	if qualified == "" {
		r.logger.Debug().Str("file", cur.Path).Str("type", superType).Msg("supertype is external")
		return nil, nil
	}

	suffix := strings.ReplaceAll(qualified, ".", "/") + ".java"
	path, ok := r.reg.FindDiscovered(suffix)
	if !ok {
		r.logger.Debug().Str("file", cur.Path).Str("type", qualified).Msg("supertype source not found")
		return nil, nil
	}

	ancestor := r.reg.Get(path)
	switch {
	case ancestor == nil:
		ancestor = r.reg.Register(symtab.NewFile(path, false))
		r.reg.Stats.AncestorOnlyFiles++
		r.logger.Debug().Str("file", cur.Path).Str("ancestor", path).Msg("analyzing ancestor")
		if err := r.analyzer.Analyze(ctx, ancestor); err != nil {
			return nil, fmt.Errorf("analyzing ancestor %s: %w", path, err)
		}
	case ancestor.Finished():
		// reuse
	case r.reg.Graph.Active(path):
		r.logger.Warn().
			Str("file", cur.Path).
			Str("ancestor", path).
			Strs("cycle", r.reg.Graph.Cycle(path)).
			Msg("ancestor cycle detected, linking without analysis")
	default:
		if err := r.analyzer.Analyze(ctx, ancestor); err != nil {
			return nil, fmt.Errorf("analyzing ancestor %s: %w", path, err)
		}
	}

	// A file re-analyzed as primary is a fresh context, so it links even
	// when the graph already holds the edge.
	r.reg.Graph.Link(cur.Path, ancestor.Path)
	cur.Link(ancestor)
	return ancestor, nil
}

// Qualify turns a supertype reference into a qualified class name, or ""
// when the reference is outside the project.
func (r *Resolver) Qualify(superType string, cur *symtab.File) string {
	name := StripGenerics(superType)
	if name == "" {
		return ""
	}

	if !strings.Contains(name, ".") {
		if imp := cur.ImportFor(name); imp != "" {
			return imp
		}
		return samePackage(cur.Package, name)
	}

	if r.prefix != "" && strings.HasPrefix(name, r.prefix+".") {
		return name
	}

	// Outer.Inner: resolve the outer class, which owns the source file.
	first := name[:strings.Index(name, ".")]
	if startsUpper(first) {
		if imp := cur.ImportFor(first); imp != "" {
			return imp
		}
		return samePackage(cur.Package, first)
	}
	return r.owned(name)
}

// owned returns qualified unless a namespace prefix is configured and the
// name falls outside it.
func (r *Resolver) owned(qualified string) string {
	if r.prefix != "" && !strings.HasPrefix(qualified, r.prefix+".") {
		return ""
	}
	return qualified
}

func samePackage(pkg, name string) string {
	if pkg == "" {
		return name
	}
	return pkg + "." + name
}

// StripGenerics removes type arguments: "Base<K, List<V>>" becomes "Base".
func StripGenerics(ref string) string {
	var b strings.Builder
	depth := 0
	for _, r := range ref {
		switch {
		case r == '<':
			depth++
		case r == '>':
			if depth > 0 {
				depth--
			}
		case depth == 0 && !unicode.IsSpace(r):
			b.WriteRune(r)
		}
	}
	return b.String()
}

func startsUpper(s string) bool {
	for _, r := range s {
		return unicode.IsUpper(r)
	}
	return false
}
