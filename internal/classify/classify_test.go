package classify

import (
	"context"
	"errors"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/logtranslator/internal/config"
	"github.com/phobologic/logtranslator/internal/lang"
	"github.com/phobologic/logtranslator/internal/logging"
	"github.com/phobologic/logtranslator/internal/model"
	"github.com/phobologic/logtranslator/internal/parse"
	"github.com/phobologic/logtranslator/internal/symtab"
	"github.com/phobologic/logtranslator/internal/synth"
)

func findCall(n *sitter.Node, src []byte, name string) *sitter.Node {
	if n.Type() == "method_invocation" {
		if nm := n.ChildByFieldName("name"); nm != nil && lang.NodeText(nm, src) == name {
			return n
		}
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if found := findCall(n.NamedChild(i), src, name); found != nil {
			return found
		}
	}
	return nil
}

// classifyArgs wraps expr in a LOG.debug call on line 3 of a small class and
// classifies its arguments right to left into a fresh log.
func classifyArgs(t *testing.T, file *symtab.File, expr string) (*model.Log, error) {
	t.Helper()

	src := []byte("class Foo {\n  void run() {\n    LOG.debug(" + expr + ");\n  }\n}\n")
	file.Source = src

	tree, err := parse.File(context.Background(), lang.Java().NewParser(), src)
	require.NoError(t, err)
	t.Cleanup(tree.Close)

	call := findCall(tree.RootNode(), src, "debug")
	require.NotNil(t, call)
	args := parse.NamedChildren(call.ChildByFieldName("arguments"))

	c := New(file, "Foo", &config.Default().Translate, logging.Discard())
	log := &model.Log{}
	for i := len(args) - 1; i >= 0; i-- {
		if err := c.Classify(log, args[i], false); err != nil {
			return log, err
		}
	}
	return log, nil
}

func declare(f *symtab.File, name, typ string) *model.Variable {
	return f.Declare(&model.Variable{Name: name, Type: typ, Pos: model.Position{Line: 2}})
}

func TestConcatenationSplitsCommentsAndVariables(t *testing.T) {
	t.Parallel()

	f := symtab.NewFile("Foo.java", true)
	count := declare(f, "count", "int")

	log, err := classifyArgs(t, f, `"Got " + count + " items"`)
	require.NoError(t, err)
	assert.Equal(t, []string{"got", "items"}, log.Comments)
	require.Len(t, log.Variables, 1)
	assert.Same(t, count, log.Variables[0])
	assert.Empty(t, log.Formatted)
}

func TestArgumentsKeepTextualOrder(t *testing.T) {
	t.Parallel()

	f := symtab.NewFile("Foo.java", true)
	a := declare(f, "a", "int")
	b := declare(f, "b", "String")

	log, err := classifyArgs(t, f, `"first", a, "second", b`)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, log.Comments)
	assert.Equal(t, []*model.Variable{a, b}, log.Variables)
}

func TestQualifiedExpression(t *testing.T) {
	t.Parallel()

	f := symtab.NewFile("Foo.java", true)
	log, err := classifyArgs(t, f, `conf.get(KEY)`)
	require.NoError(t, err)
	require.Len(t, log.Variables, 1)

	v := log.Variables[0]
	assert.Equal(t, "confGet_KEY", v.Alias)
	assert.Equal(t, "String", v.Type)
	assert.Equal(t, "String.valueOf(conf.get(KEY))", v.Substitution)
	assert.Equal(t, model.TagMethodCall, v.Tag)
	assert.True(t, v.Synthesized)
}

func TestKnownExpressionIsReused(t *testing.T) {
	t.Parallel()

	f := symtab.NewFile("Foo.java", true)
	first, err := classifyArgs(t, f, `conf.get(KEY)`)
	require.NoError(t, err)
	second, err := classifyArgs(t, f, `conf.get(KEY)`)
	require.NoError(t, err)

	assert.Same(t, first.Variables[0], second.Variables[0])
	assert.Len(t, f.Symbols.All("conf.get(KEY)"), 1)
}

func TestToStringCall(t *testing.T) {
	t.Parallel()

	f := symtab.NewFile("Foo.java", true)
	log, err := classifyArgs(t, f, `request.toString()`)
	require.NoError(t, err)
	assert.Equal(t, "requestMethodCall", log.Variables[0].Alias)
	assert.Equal(t, "request.toString()", log.Variables[0].EmitName())
}

func TestThisFieldAccess(t *testing.T) {
	t.Parallel()

	f := symtab.NewFile("Foo.java", true)
	limit := f.Declare(&model.Variable{Name: "limit", Type: "int", Field: true, Pos: model.Position{Line: 1}})

	log, err := classifyArgs(t, f, `this.limit`)
	require.NoError(t, err)
	assert.Same(t, limit, log.Variables[0])
}

func TestIdioms(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		`Joiner.on(",").join(parts)`:   "parts",
		`StringUtils.join(parts)`:      "join",
		`new Path(dir, "x")`:           "newPath",
		`System.getenv("HOME")`:        "HOME",
		`Param.toSortedString(",", p)`: "parameters",
	}
	for expr, alias := range cases {
		t.Run(expr, func(t *testing.T) {
			t.Parallel()
			f := symtab.NewFile("Foo.java", true)
			log, err := classifyArgs(t, f, expr)
			require.NoError(t, err)
			require.Len(t, log.Variables, 1)
			assert.Equal(t, alias, log.Variables[0].Alias)
			assert.Equal(t, "String", log.Variables[0].Type)
		})
	}
}

func TestObjectCreation(t *testing.T) {
	t.Parallel()

	f := symtab.NewFile("Foo.java", true)
	log, err := classifyArgs(t, f, `new IOException("boom")`)
	require.NoError(t, err)
	assert.Equal(t, "exception", log.Variables[0].Alias)
	assert.Equal(t, `String.valueOf(new IOException("boom"))`, log.Variables[0].Substitution)

	log, err = classifyArgs(t, f, `new StringBuilder(name)`)
	require.NoError(t, err)
	assert.Equal(t, "new StringBuilder(name)", log.Variables[0].Name)
	assert.Equal(t, "name", log.Variables[0].Alias)
	assert.Equal(t, "StringBuilder", log.Variables[0].Type)
	assert.Nil(t, f.Symbols.Any("name"), "constructor argument must not be declared on its own")

	log, err = classifyArgs(t, f, `new Object()`)
	require.NoError(t, err)
	assert.Equal(t, "object", log.Variables[0].Alias)
}

func TestArrayLiteral(t *testing.T) {
	t.Parallel()

	f := symtab.NewFile("Foo.java", true)
	id := declare(f, "id", "long")

	log, err := classifyArgs(t, f, `new Object[]{"request", id, other}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"request"}, log.Comments)
	require.Len(t, log.Variables, 2)
	assert.Same(t, id, log.Variables[0])
	assert.Equal(t, "Object", log.Variables[1].Type)
	assert.Equal(t, "other", log.Variables[1].Alias)
}

func TestArrayAccess(t *testing.T) {
	t.Parallel()

	f := symtab.NewFile("Foo.java", true)
	declare(f, "names", "String[]")
	declare(f, "items", "Object...")

	log, err := classifyArgs(t, f, `names[0]`)
	require.NoError(t, err)
	assert.Equal(t, "String", log.Variables[0].Type)
	assert.Empty(t, log.Variables[0].Substitution)
	assert.Equal(t, "names", log.Variables[0].Alias)

	log, err = classifyArgs(t, f, `items[i]`)
	require.NoError(t, err)
	assert.Equal(t, "String", log.Variables[0].Type)
	assert.Equal(t, "String.valueOf(items[i])", log.Variables[0].Substitution)
}

func TestInstanceof(t *testing.T) {
	t.Parallel()

	f := symtab.NewFile("Foo.java", true)
	declare(f, "o", "Object")

	log, err := classifyArgs(t, f, `o instanceof java.util.List<?>`)
	require.NoError(t, err)
	assert.Equal(t, "boolean", log.Variables[0].Type)
	assert.Equal(t, "isInstanceOfList", log.Variables[0].Alias)
}

func TestTernary(t *testing.T) {
	t.Parallel()

	f := symtab.NewFile("Foo.java", true)
	declare(f, "ok", "boolean")

	log, err := classifyArgs(t, f, `ok && ready ? "yes" : "no"`)
	require.NoError(t, err)
	require.NotNil(t, log.Ternary)
	assert.Equal(t, "ok && ready", log.Ternary.Condition)
	assert.Equal(t, `"yes"`, log.Ternary.True)
	assert.Equal(t, `"no"`, log.Ternary.False)
	assert.True(t, log.HasTag(model.TagTernary))

	v := log.Variables[0]
	assert.Equal(t, "isOk", v.Alias)
	assert.Equal(t, "String", v.Type)
	assert.Equal(t, model.TagTernary, v.Tag)
	assert.Equal(t, `String.valueOf(ok && ready ? "yes" : "no")`, v.Substitution)
}

func TestTernaryNullCheck(t *testing.T) {
	t.Parallel()

	f := symtab.NewFile("Foo.java", true)
	log, err := classifyArgs(t, f, `user == null ? "none" : user.getName()`)
	require.NoError(t, err)
	require.NotNil(t, log.Ternary)
	assert.Equal(t, "user", log.Ternary.Bool)
	assert.Equal(t, "user", log.Variables[0].Alias)
}

func TestFormatCall(t *testing.T) {
	t.Parallel()

	f := symtab.NewFile("Foo.java", true)
	name := declare(f, "name", "String")

	log, err := classifyArgs(t, f, `String.format("%s of %d", name, total)`)
	require.NoError(t, err)
	assert.Equal(t, []string{"of"}, log.Comments)
	require.Len(t, log.Variables, 2)
	assert.Same(t, name, log.Variables[0])
	assert.Equal(t, "total", log.Variables[1].Name)
	assert.Equal(t, "String.valueOf(total)", log.Variables[1].Substitution)
	assert.True(t, log.IsFormatted(log.Variables[0]))
	assert.True(t, log.IsFormatted(log.Variables[1]))
}

func TestArithmetic(t *testing.T) {
	t.Parallel()

	f := symtab.NewFile("Foo.java", true)
	declare(f, "a", "int")

	log, err := classifyArgs(t, f, `a * 2`)
	require.NoError(t, err)
	v := log.Variables[0]
	assert.Equal(t, "double", v.Type)
	assert.Equal(t, "mathExpression", v.Alias)
	assert.Equal(t, model.TagMathExpression, v.Tag)
}

func TestLocalMethodCall(t *testing.T) {
	t.Parallel()

	f := symtab.NewFile("Foo.java", true)
	f.Methods = []model.Method{
		{Name: "size", ReturnType: "int"},
		{Name: "reset", ReturnType: "void"},
	}

	log, err := classifyArgs(t, f, `size()`)
	require.NoError(t, err)
	assert.Equal(t, "int", log.Variables[0].Type)
	assert.Equal(t, "size", log.Variables[0].Alias)

	log, err = classifyArgs(t, f, `reset()`)
	require.NoError(t, err)
	assert.Equal(t, "String", log.Variables[0].Type)

	log, err = classifyArgs(t, f, `compute(1)`)
	require.NoError(t, err)
	assert.Equal(t, "String", log.Variables[0].Type)
	assert.Equal(t, "computeMethodCall", log.Variables[0].Alias)
	assert.Equal(t, model.TagMethodCall, log.Variables[0].Tag)
}

func TestLocalMethodCallOverloads(t *testing.T) {
	t.Parallel()

	f := symtab.NewFile("Foo.java", true)
	f.Methods = []model.Method{
		{Name: "describe", ReturnType: "int", Params: []string{"int"}},
		{Name: "describe", ReturnType: "List", Params: []string{"String"}},
	}
	declare(f, "name", "String")

	log, err := classifyArgs(t, f, `describe(name)`)
	require.NoError(t, err)
	assert.Equal(t, "List", log.Variables[0].Type)
	assert.Equal(t, "describe(name).toString()", synth.Argument(log.Variables[0], &config.Default().Translate))

	log, err = classifyArgs(t, f, `describe("x")`)
	require.NoError(t, err)
	assert.Equal(t, "List", log.Variables[0].Type)

	log, err = classifyArgs(t, f, `describe(7)`)
	require.NoError(t, err)
	assert.Equal(t, "int", log.Variables[0].Type)
}

func TestSimpleShapes(t *testing.T) {
	t.Parallel()

	f := symtab.NewFile("Foo.java", true)

	log, err := classifyArgs(t, f, `this`)
	require.NoError(t, err)
	assert.Equal(t, "foo", log.Variables[0].Alias)
	assert.Equal(t, "this.toString()", log.Variables[0].EmitName())

	log, err = classifyArgs(t, f, `null`)
	require.NoError(t, err)
	assert.Equal(t, "null", log.Variables[0].Name)
	assert.Equal(t, "String", log.Variables[0].Type)

	log, err = classifyArgs(t, f, `true`)
	require.NoError(t, err)
	assert.Equal(t, "boolean", log.Variables[0].Type)
	assert.Equal(t, "booleanValue", log.Variables[0].Alias)
	assert.Equal(t, model.TagBooleanValue, log.Variables[0].Tag)

	log, err = classifyArgs(t, f, `42`)
	require.NoError(t, err)
	assert.Equal(t, "int", log.Variables[0].Type)
	assert.Equal(t, model.TagLiteral, log.Variables[0].Tag)

	log, err = classifyArgs(t, f, `3L`)
	require.NoError(t, err)
	assert.Equal(t, "long", log.Variables[0].Type)

	log, err = classifyArgs(t, f, `'x'`)
	require.NoError(t, err)
	assert.Equal(t, "char", log.Variables[0].Type)
	assert.Empty(t, log.Comments)
}

func TestCastAndNegation(t *testing.T) {
	t.Parallel()

	f := symtab.NewFile("Foo.java", true)
	done := declare(f, "done", "boolean")

	log, err := classifyArgs(t, f, `(Long) value`)
	require.NoError(t, err)
	assert.Equal(t, "value", log.Variables[0].Name)
	assert.Equal(t, "Long", log.Variables[0].Type)
	assert.Equal(t, "String.valueOf(value)", log.Variables[0].Substitution)

	log, err = classifyArgs(t, f, `!done`)
	require.NoError(t, err)
	assert.Same(t, done, log.Variables[0])
}

func TestStaticImportConstant(t *testing.T) {
	t.Parallel()

	f := symtab.NewFile("Foo.java", true)
	_, err := classifyArgs(t, f, `MAX_SIZE`)
	var unresolved *UnresolvedVariableError
	require.ErrorAs(t, err, &unresolved)

	f.AddImport("com.acme.Limits.*", true)
	log, err := classifyArgs(t, f, `MAX_SIZE`)
	require.NoError(t, err)
	assert.Equal(t, "String", log.Variables[0].Type)
}

func TestAncestorDeclaration(t *testing.T) {
	t.Parallel()

	parent := symtab.NewFile("Base.java", false)
	parent.Declare(&model.Variable{Name: "buffer", Type: "byte[]", Pos: model.Position{Line: 9}, Scope: model.Scope{Start: 10, End: 20}})

	f := symtab.NewFile("Foo.java", true)
	require.True(t, f.Link(parent))

	log, err := classifyArgs(t, f, `buffer`)
	require.NoError(t, err)
	v := log.Variables[0]
	assert.Equal(t, "byte[]", v.Type)
	assert.True(t, v.Synthesized)
	assert.Equal(t, model.Scope{}, v.Scope)
	assert.Same(t, v, f.Symbols.Any("buffer"))
}

func TestUnresolvedLeavesLogUntouched(t *testing.T) {
	t.Parallel()

	f := symtab.NewFile("Foo.java", true)
	log, err := classifyArgs(t, f, `"value " + missing`)

	var unresolved *UnresolvedVariableError
	require.True(t, errors.As(err, &unresolved))
	assert.Equal(t, 3, unresolved.Line)
	assert.Equal(t, "missing", unresolved.Expr)
	assert.Empty(t, log.Comments)
	assert.Empty(t, log.Variables)
}

func TestUnsupportedShape(t *testing.T) {
	t.Parallel()

	f := symtab.NewFile("Foo.java", true)
	_, err := classifyArgs(t, f, `() -> 1`)

	var unsupported *UnsupportedExpressionShapeError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "lambda_expression", unsupported.Kind)
}
