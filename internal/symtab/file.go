package symtab

import (
	"strings"

	"github.com/phobologic/logtranslator/internal/model"
)

// File is the translation context of one source file.
type File struct {
	Path    string // relative to the run root
	Primary bool   // false when visited only to harvest an ancestor's symbols

	Package        string
	Imports        []string // qualified names of plain imports
	StaticImports  []string // qualified names of static imports, wildcards end in ".*"
	NamespaceClass string
	Source         []byte

	Symbols *Table
	Methods []model.Method
	Logs    []*model.Log
	Guards  int

	Output  []byte
	Changed bool
	Status  model.FileStatus

	ancestors []*File
	finished  bool
}

// NewFile returns an empty context for path.
func NewFile(path string, primary bool) *File {
	return &File{
		Path:    path,
		Primary: primary,
		Symbols: NewTable(),
	}
}

// Declare records a declaration in the file's own table.
func (f *File) Declare(v *model.Variable) *model.Variable {
	return f.Symbols.Declare(v)
}

// Lookup resolves name at pos in this file, then among field declarations of
// linked ancestors (transitively, nearest first).
func (f *File) Lookup(name string, pos model.Position) *model.Variable {
	if v := f.Symbols.Lookup(name, pos); v != nil {
		return v
	}
	var found *model.Variable
	f.walkAncestors(func(a *File) bool {
		found = a.Symbols.Field(name)
		return found != nil
	})
	return found
}

// LookupAncestors searches every linked ancestor for any declaration of name.
func (f *File) LookupAncestors(name string) *model.Variable {
	var found *model.Variable
	f.walkAncestors(func(a *File) bool {
		found = a.Symbols.Any(name)
		return found != nil
	})
	return found
}

// FindMethod returns the method declared in this file or an ancestor that
// a call to name with arguments of argTypes selects. A declaration whose
// parameter types equal argTypes wins; otherwise the first one with a
// compatible parameter count is returned. Varargs methods accept any count
// from their fixed parameters upward.
func (f *File) FindMethod(name string, argTypes []string) *model.Method {
	if m := f.searchMethods(func(m *model.Method) bool {
		return m.Name == name && sameTypes(m.Params, argTypes)
	}); m != nil {
		return m
	}
	return f.searchMethods(func(m *model.Method) bool {
		return m.Name == name && acceptsArity(m.Params, len(argTypes))
	})
}

// searchMethods returns the first method matching fn, looking in this file
// and then in its ancestors, nearest first.
func (f *File) searchMethods(fn func(*model.Method) bool) *model.Method {
	if m := firstMethod(f.Methods, fn); m != nil {
		return m
	}
	var found *model.Method
	f.walkAncestors(func(a *File) bool {
		found = firstMethod(a.Methods, fn)
		return found != nil
	})
	return found
}

func firstMethod(methods []model.Method, fn func(*model.Method) bool) *model.Method {
	for i := range methods {
		if fn(&methods[i]) {
			return &methods[i]
		}
	}
	return nil
}

func acceptsArity(params []string, arity int) bool {
	n := len(params)
	if n == arity {
		return true
	}
	return n > 0 && strings.HasSuffix(params[n-1], "...") && arity >= n-1
}

func sameTypes(params, args []string) bool {
	if len(params) != len(args) {
		return false
	}
	for i := range params {
		if simpleType(params[i]) != simpleType(args[i]) {
			return false
		}
	}
	return true
}

// simpleType reduces a declared type to its unqualified, non-generic name.
func simpleType(t string) string {
	t = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(t), "final "))
	if i := strings.IndexByte(t, '<'); i >= 0 {
		t = t[:i]
	}
	if i := strings.LastIndexByte(t, '.'); i >= 0 && !strings.HasSuffix(t, "...") {
		t = t[i+1:]
	}
	return t
}

// walkAncestors visits linked ancestors breadth-first, each once, until fn returns true.
func (f *File) walkAncestors(fn func(*File) bool) {
	seen := map[*File]struct{}{f: {}}
	queue := append([]*File(nil), f.ancestors...)
	for len(queue) > 0 {
		a := queue[0]
		queue = queue[1:]
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		if fn(a) {
			return
		}
		queue = append(queue, a.ancestors...)
	}
}

// Link adds ancestor to the file's ancestor set. It reports false if the
// ancestor was already linked or is the file itself.
func (f *File) Link(ancestor *File) bool {
	if ancestor == nil || ancestor == f {
		return false
	}
	for _, a := range f.ancestors {
		if a == ancestor {
			return false
		}
	}
	f.ancestors = append(f.ancestors, ancestor)
	return true
}

// Ancestors returns the directly linked ancestors in link order.
func (f *File) Ancestors() []*File {
	return f.ancestors
}

// AddImport records an import declaration's qualified name.
func (f *File) AddImport(qualified string, static bool) {
	if static {
		f.StaticImports = append(f.StaticImports, qualified)
		return
	}
	f.Imports = append(f.Imports, qualified)
}

// ImportFor returns the plain import whose simple name is simple, or "".
func (f *File) ImportFor(simple string) string {
	for _, imp := range f.Imports {
		if strings.HasSuffix(imp, "."+simple) || imp == simple {
			return imp
		}
	}
	return ""
}

// HasStaticImport reports whether the file has a wildcard static import.
func (f *File) HasStaticImport() bool {
	for _, imp := range f.StaticImports {
		if strings.HasSuffix(imp, ".*") {
			return true
		}
	}
	return false
}

// MarkFinished records that the file's traversal completed.
func (f *File) MarkFinished() {
	f.finished = true
}

// Finished reports whether the file's traversal completed.
func (f *File) Finished() bool {
	return f.finished
}

// Reset discards everything a previous traversal recorded, so a file whose
// analysis failed can be traversed again from scratch.
func (f *File) Reset() {
	f.Package = ""
	f.Imports = nil
	f.StaticImports = nil
	f.NamespaceClass = ""
	f.Symbols = NewTable()
	f.Methods = nil
	f.Logs = nil
	f.Guards = 0
	f.Output = nil
	f.Changed = false
	f.Status = ""
	f.ancestors = nil
	f.finished = false
}
