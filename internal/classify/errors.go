package classify

import "fmt"

// UnresolvedVariableError reports a log argument no rule could resolve.
type UnresolvedVariableError struct {
	File string
	Line int
	Expr string
}

func (e *UnresolvedVariableError) Error() string {
	return fmt.Sprintf("%s:%d: %s: unable to resolve variable", e.File, e.Line, e.Expr)
}

// UnsupportedExpressionShapeError reports a log argument whose syntax is
// outside the shapes the classifier understands.
type UnsupportedExpressionShapeError struct {
	File string
	Line int
	Expr string
	Kind string
}

func (e *UnsupportedExpressionShapeError) Error() string {
	return fmt.Sprintf("%s:%d: %s: unsupported expression shape %s", e.File, e.Line, e.Expr, e.Kind)
}
