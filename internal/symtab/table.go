// Package symtab holds per-file symbol tables, the file contexts that own
// them, and the process-wide registry of files seen during a run.
package symtab

import (
	"sort"

	"github.com/phobologic/logtranslator/internal/model"
)

// Table maps names to every declaration made under them, in insertion order.
// Entries are never removed or overwritten.
type Table struct {
	entries map[string][]*model.Variable
	count   int
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{entries: make(map[string][]*model.Variable)}
}

// Declare appends v under its name and returns it.
func (t *Table) Declare(v *model.Variable) *model.Variable {
	t.entries[v.Name] = append(t.entries[v.Name], v)
	t.count++
	return v
}

// Lookup returns the declaration of name visible at pos: among entries whose
// scope contains pos, the one declared on the closest preceding line (later
// insertions win ties). When nothing precedes pos the most recently appended
// visible entry is returned. Lookup returns nil if name is unknown.
func (t *Table) Lookup(name string, pos model.Position) *model.Variable {
	var best, last *model.Variable
	for _, v := range t.entries[name] {
		if !v.Scope.Contains(pos.StartByte) {
			continue
		}
		last = v
		if v.Synthesized || v.Pos.Line > pos.Line {
			continue
		}
		if best == nil || v.Pos.Line >= best.Pos.Line {
			best = v
		}
	}
	if best != nil {
		return best
	}
	return last
}

// Field returns the most recent field-level declaration of name.
func (t *Table) Field(name string) *model.Variable {
	list := t.entries[name]
	for i := len(list) - 1; i >= 0; i-- {
		if list[i].Field {
			return list[i]
		}
	}
	return nil
}

// Any returns the most recent declaration of name regardless of scope.
func (t *Table) Any(name string) *model.Variable {
	list := t.entries[name]
	if len(list) == 0 {
		return nil
	}
	return list[len(list)-1]
}

// All returns every declaration of name in insertion order.
func (t *Table) All(name string) []*model.Variable {
	return t.entries[name]
}

// Names returns the declared names, sorted.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.entries))
	for n := range t.entries {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of declarations in the table.
func (t *Table) Len() int {
	return t.count
}
