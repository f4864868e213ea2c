package resolve

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/logtranslator/internal/logging"
	"github.com/phobologic/logtranslator/internal/model"
	"github.com/phobologic/logtranslator/internal/symtab"
)

// fakeAnalyzer declares a field named after each analyzed file and records
// the analysis order. hook, if set, runs mid-analysis.
type fakeAnalyzer struct {
	reg   *symtab.Registry
	calls []string
	hook  func(f *symtab.File) error
	fail  error
}

func (a *fakeAnalyzer) Analyze(_ context.Context, f *symtab.File) error {
	a.calls = append(a.calls, f.Path)
	if a.fail != nil {
		return a.fail
	}
	a.reg.Graph.Enter(f.Path)
	defer a.reg.Graph.Leave(f.Path)
	f.Declare(&model.Variable{Name: "from_" + f.Path, Type: "String", Field: true})
	if a.hook != nil {
		if err := a.hook(f); err != nil {
			return err
		}
	}
	f.MarkFinished()
	return nil
}

func setup(discovered ...string) (*symtab.Registry, *fakeAnalyzer, *Resolver) {
	reg := symtab.NewRegistry("/repo", discovered)
	an := &fakeAnalyzer{reg: reg}
	return reg, an, New(reg, an, "com.acme", logging.Discard())
}

func TestResolveSamePackage(t *testing.T) {
	t.Parallel()

	reg, an, r := setup("src/com/acme/Base.java", "src/com/acme/Child.java")
	child := reg.Register(symtab.NewFile("src/com/acme/Child.java", true))
	child.Package = "com.acme"

	anc, err := r.Resolve(context.Background(), "Base", child)
	require.NoError(t, err)
	require.NotNil(t, anc)
	assert.Equal(t, "src/com/acme/Base.java", anc.Path)
	assert.False(t, anc.Primary)
	assert.Equal(t, []string{"src/com/acme/Base.java"}, an.calls)
	assert.Equal(t, 1, reg.Stats.AncestorOnlyFiles)
	assert.NotNil(t, child.Lookup("from_src/com/acme/Base.java", model.Position{}))

	// Second resolution reuses the finished file and does not link twice.
	again, err := r.Resolve(context.Background(), "Base<String>", child)
	require.NoError(t, err)
	assert.Same(t, anc, again)
	assert.Len(t, an.calls, 1)
	assert.Len(t, child.Ancestors(), 1)
	assert.Equal(t, 1, reg.Stats.AncestorOnlyFiles)
}

func TestResolveViaImport(t *testing.T) {
	t.Parallel()

	reg, _, r := setup("src/com/acme/base/AbstractService.java")
	cur := reg.Register(symtab.NewFile("src/com/acme/svc/Impl.java", true))
	cur.Package = "com.acme.svc"
	cur.AddImport("com.acme.base.AbstractService", false)

	anc, err := r.Resolve(context.Background(), "AbstractService<Request>", cur)
	require.NoError(t, err)
	require.NotNil(t, anc)
	assert.Equal(t, "src/com/acme/base/AbstractService.java", anc.Path)
	assert.Equal(t, []model.Dependency{{
		Source: "src/com/acme/svc/Impl.java",
		Target: "src/com/acme/base/AbstractService.java",
	}}, reg.Graph.Edges())
}

func TestResolveExternal(t *testing.T) {
	t.Parallel()

	reg, an, r := setup("src/com/acme/Foo.java")
	cur := reg.Register(symtab.NewFile("src/com/acme/Foo.java", true))
	cur.Package = "com.acme"

	cases := []string{"java.util.AbstractList<String>", "Thread"}
	for _, ref := range cases {
		anc, err := r.Resolve(context.Background(), ref, cur)
		require.NoError(t, err)
		assert.Nil(t, anc, ref)
	}
	assert.Empty(t, an.calls)
}

func TestResolveCycle(t *testing.T) {
	t.Parallel()

	reg, an, r := setup("src/com/acme/A.java", "src/com/acme/B.java")
	a := reg.Register(symtab.NewFile("src/com/acme/A.java", true))
	a.Package = "com.acme"

	an.hook = func(f *symtab.File) error {
		f.Package = "com.acme"
		// B extends A while A is still being analyzed.
		_, err := r.Resolve(context.Background(), "A", f)
		return err
	}

	reg.Graph.Enter(a.Path)
	b, err := r.Resolve(context.Background(), "B", a)
	reg.Graph.Leave(a.Path)

	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, []string{"src/com/acme/B.java"}, an.calls, "A is not re-analyzed")
	assert.Len(t, reg.Graph.Edges(), 2)
}

func TestResolveAnalyzeError(t *testing.T) {
	t.Parallel()

	reg, an, r := setup("src/com/acme/Base.java")
	an.fail = errors.New("boom")
	cur := reg.Register(symtab.NewFile("src/com/acme/Child.java", true))
	cur.Package = "com.acme"

	_, err := r.Resolve(context.Background(), "Base", cur)
	assert.ErrorIs(t, err, an.fail)
}

func TestQualify(t *testing.T) {
	t.Parallel()

	_, _, r := setup()
	cur := symtab.NewFile("Foo.java", true)
	cur.Package = "com.acme.web"
	cur.AddImport("com.acme.core.Handler", false)

	cases := map[string]string{
		"Base":                      "com.acme.web.Base",
		"Handler":                   "com.acme.core.Handler",
		"Handler.Inner":             "com.acme.core.Handler",
		"Outer.Inner<T>":            "com.acme.web.Outer",
		"com.acme.core.Abstract":    "com.acme.core.Abstract",
		"org.apache.hadoop.Service": "",
	}
	for ref, want := range cases {
		assert.Equal(t, want, r.Qualify(ref, cur), ref)
	}
}

func TestStripGenerics(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Base", StripGenerics("Base<K, List<V>>"))
	assert.Equal(t, "a.b.C", StripGenerics(" a.b.C "))
	assert.Equal(t, "Map.Entry", StripGenerics("Map.Entry<K, V>"))
}
