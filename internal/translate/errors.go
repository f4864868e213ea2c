package translate

import "fmt"

// UnimplementedGuardTranslationError reports an if-condition that calls the
// logger in a shape the guard rewrite does not handle. The statement is left
// unmodified.
type UnimplementedGuardTranslationError struct {
	File      string
	Line      int
	Condition string
}

func (e *UnimplementedGuardTranslationError) Error() string {
	return fmt.Sprintf("%s:%d: %s: guard translation not implemented", e.File, e.Line, e.Condition)
}

// MultipleDeclaratorsError reports a logger declared alongside other
// variables in one declaration. The declaration is left unmodified.
type MultipleDeclaratorsError struct {
	File string
	Line int
	Decl string
}

func (e *MultipleDeclaratorsError) Error() string {
	return fmt.Sprintf("%s:%d: %s: multiple declarators on one logger declaration", e.File, e.Line, e.Decl)
}
