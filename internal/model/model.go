// Package model defines core data structures for logtranslator.
package model

// Marker is the placeholder style a log call's message text uses to embed variables.
type Marker string

const (
	NoMarker      Marker = ""
	PercentMarker Marker = "%"
	BraceMarker   Marker = "{}"
	IndexMarker   Marker = "{0}"
)

// Tags attached to synthesized variables and logs.
const (
	TagMethodCall     = "method-call"
	TagTernary        = "ternary"
	TagMathExpression = "math-expression"
	TagBooleanValue   = "boolean-value"
	TagException      = "exception"
	TagLiteral        = "literal"
	TagEmptyStatement = "empty-statement"
)

// Position locates a node in a source file. Line is 1-based, columns are 0-based.
type Position struct {
	Line      int
	Column    int
	EndColumn int
	StartByte int
	EndByte   int
}

// Scope is the byte range in which a declaration is visible.
// The zero Scope means visible anywhere in the file.
type Scope struct {
	Start int
	End   int
}

// Contains reports whether offset lies within the scope.
func (s Scope) Contains(offset int) bool {
	if s.Start == 0 && s.End == 0 {
		return true
	}
	return offset >= s.Start && offset < s.End
}

// Variable is a declaration or a synthesized pseudo-declaration.
type Variable struct {
	Name  string
	Type  string
	Field bool
	Pos   Position
	Scope Scope

	// Tag categorizes a non-literal derivation, e.g. TagMethodCall.
	Tag string
	// Substitution is emitted instead of Name in the replacement call.
	Substitution string
	// Alias is used instead of Name when composing generated method names.
	Alias string
	// Synthesized marks entries created by the classifier rather than a declaration.
	Synthesized bool
}

// DisplayName returns the alias if set, otherwise the raw name.
func (v *Variable) DisplayName() string {
	if v.Alias != "" {
		return v.Alias
	}
	return v.Name
}

// EmitName returns the text written into a replacement call.
func (v *Variable) EmitName() string {
	if v.Substitution != "" {
		return v.Substitution
	}
	return v.Name
}

// Ternary records the branches of a conditional expression found in a log call.
type Ternary struct {
	Condition string
	True      string
	False     string
	// Bool is the boolean sub-expression extracted from a null-check condition, if any.
	Bool string
}

// Log is one recognized log-emission call.
type Log struct {
	Variables []*Variable
	Comments  []string
	Formatted []*Variable
	Marker    Marker
	Ternary   *Ternary
	Level     string
	Tags      []string

	MethodName  string
	Replacement string
	Original    string
	Pos         Position
}

// IsFormatted reports whether v must be substituted into the message format.
func (l *Log) IsFormatted(v *Variable) bool {
	for _, f := range l.Formatted {
		if f == v {
			return true
		}
	}
	return false
}

// HasTag reports whether the log carries tag.
func (l *Log) HasTag(tag string) bool {
	for _, t := range l.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Method is a method declaration harvested from a source file.
type Method struct {
	Name       string
	ReturnType string
	Params     []string
	Line       int
}

// Dependency represents an ancestry edge: Source extends a class declared in Target.
type Dependency struct {
	Source string
	Target string
}

// Stats holds process-wide counters shared by nested runs.
type Stats struct {
	FilesProcessed     int
	CallSitesRewritten int
	AncestorOnlyFiles  int
	GuardsRewritten    int
	FailedFiles        int
}

// FileStatus is the outcome of translating one primary file.
type FileStatus string

const (
	StatusRewritten FileStatus = "rewritten"
	StatusUnchanged FileStatus = "unchanged"
	StatusFailed    FileStatus = "failed"
)

// FileReport summarizes one primary file for the run report.
type FileReport struct {
	Path   string
	Logs   int
	Guards int
	Status FileStatus
}

// Event is one synthesized log call as listed in the run report.
type Event struct {
	File      string
	Line      int
	Method    string
	Level     string
	Variables []string
}

// Report is the complete run outcome, ready for serialization.
type Report struct {
	Root      string
	Stats     Stats
	Files     []FileReport
	Events    []Event
	Ancestors []Dependency
}
