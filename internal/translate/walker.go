package translate

import (
	"context"
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/logtranslator/internal/classify"
	"github.com/phobologic/logtranslator/internal/framework"
	"github.com/phobologic/logtranslator/internal/lang"
	"github.com/phobologic/logtranslator/internal/model"
	"github.com/phobologic/logtranslator/internal/parse"
	"github.com/phobologic/logtranslator/internal/rewrite"
	"github.com/phobologic/logtranslator/internal/symtab"
	"github.com/phobologic/logtranslator/internal/synth"
)

// walker holds the state of one file's traversal. The framework profile and
// logger name are detected during the walk and never outlive it.
type walker struct {
	t     *Translator
	file  *symtab.File
	src   []byte
	edits rewrite.Accumulator

	rewriteDecls bool // imports and logger fields
	rewriteCalls bool // guards and log calls

	profile    *framework.Profile
	loggerName string
	loggerRe   *regexp.Regexp
}

func newWalker(t *Translator, f *symtab.File) *walker {
	f.NamespaceClass = namespaceClass("", f.Path)
	return &walker{
		t:            t,
		file:         f,
		src:          f.Source,
		rewriteDecls: f.Primary,
		rewriteCalls: f.Primary && !t.cfg.Translate.IgnoreLogStatements,
	}
}

func (w *walker) walk(ctx context.Context, n *sitter.Node) error {
	descend, err := w.visit(ctx, n)
	if err != nil || !descend {
		return err
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if err := w.walk(ctx, n.NamedChild(i)); err != nil {
			return err
		}
	}
	return nil
}

// visit handles one node and reports whether its children should be walked.
// Rewritten nodes are not descended into so nested edits cannot overlap.
func (w *walker) visit(ctx context.Context, n *sitter.Node) (bool, error) {
	switch n.Type() {
	case "package_declaration":
		w.packageDecl(n)
		return false, nil
	case "import_declaration":
		return false, w.importDecl(n)
	case "class_declaration":
		return true, w.classDecl(ctx, n)
	case "field_declaration", "constant_declaration":
		return w.fieldDecl(n)
	case "local_variable_declaration":
		w.localDecl(n)
	case "formal_parameter":
		w.parameter(n)
	case "spread_parameter":
		w.spreadParameter(n)
	case "catch_formal_parameter":
		w.catchParameter(n)
	case "enhanced_for_statement":
		w.loopVariable(n)
	case "resource":
		w.resource(n)
	case "if_statement":
		return true, w.guard(n)
	case "expression_statement":
		return w.statement(n)
	}
	return true, nil
}

func (w *walker) packageDecl(n *sitter.Node) {
	for _, c := range parse.NamedChildren(n) {
		if c.Type() == "scoped_identifier" || c.Type() == "identifier" {
			w.file.Package = compact(lang.NodeText(c, w.src))
		}
	}
	w.file.NamespaceClass = namespaceClass(w.file.Package, w.file.Path)
}

func (w *walker) importDecl(n *sitter.Node) error {
	text := lang.NodeText(n, w.src)
	qualified := framework.ImportName(text)
	static := strings.HasPrefix(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(text), "import")), "static")
	w.file.AddImport(qualified, static)
	if static {
		return nil
	}

	if w.profile == nil {
		w.profile = w.t.catalogue.Match(qualified)
		if w.profile != nil {
			w.t.logger.Debug().Str("file", w.file.Path).Str("framework", w.profile.Name).Msg("logging framework detected")
		}
	}
	if w.profile == nil || !w.rewriteDecls {
		return nil
	}

	target := w.t.cfg.Target
	switch {
	case w.profile.IsLoggerImport(qualified):
		return w.replace(n, w.loggerImports())
	case w.profile.IsFactoryImport(qualified):
		return w.replace(n, "import "+target.LoggerFactory+";")
	}
	return nil
}

// loggerImports renders the namespace, SimpleLogger and LogGlobal imports
// that replace a legacy logger import. Profiles whose logger type is also
// its factory get the LoggerFactory import here as well.
func (w *walker) loggerImports() string {
	target := w.t.cfg.Target
	ns := target.NamespaceImportPrefix
	if w.file.Package != "" {
		ns += "." + w.file.Package
	}
	lines := []string{
		"import " + ns + "." + w.file.NamespaceClass + ";",
		"import " + target.SimpleLogger + ";",
		"import " + target.LogGlobal + ";",
	}
	if len(w.profile.FactoryImports) == 0 {
		lines = append(lines, "import "+target.LoggerFactory+";")
	}
	return strings.Join(lines, "\n")
}

func (w *walker) classDecl(ctx context.Context, n *sitter.Node) error {
	super := n.ChildByFieldName("superclass")
	if super == nil {
		return nil
	}
	children := parse.NamedChildren(super)
	if len(children) == 0 {
		return nil
	}
	_, err := w.t.resolver.Resolve(ctx, lang.NodeText(children[0], w.src), w.file)
	return err
}

func (w *walker) fieldDecl(n *sitter.Node) (bool, error) {
	typ := w.fieldText(n, "type")
	decls := declarators(n)
	if len(decls) == 0 {
		return true, nil
	}

	for _, d := range decls {
		w.declare(d, typ, true, "", model.Scope{})
	}

	if !w.isLoggerDecl(typ, decls) {
		return true, nil
	}

	name := lang.NodeText(decls[0].ChildByFieldName("name"), w.src)
	if len(decls) > 1 {
		err := &MultipleDeclaratorsError{
			File: w.file.Path,
			Line: parse.Position(n).Line,
			Decl: lang.Text(n, w.src),
		}
		w.t.logger.Error().Err(err).Msg("logger declaration left unchanged")
		return true, nil
	}

	w.setLogger(name)
	if !w.rewriteDecls {
		return false, nil
	}
	return false, w.replace(n, w.loggerField(n, name))
}

func (w *walker) isLoggerDecl(typ string, decls []*sitter.Node) bool {
	if w.profile == nil {
		return false
	}
	for _, d := range decls {
		if value := d.ChildByFieldName("value"); value != nil && w.profile.IsFactoryCall(lang.Text(value, w.src)) {
			return true
		}
		name := lang.NodeText(d.ChildByFieldName("name"), w.src)
		if w.profile.IsLoggerType(typ) && strings.Contains(strings.ToLower(name), "log") {
			return true
		}
	}
	return false
}

// loggerField renders the replacement of a logger field declaration. The
// declarator name and modifiers are kept.
func (w *walker) loggerField(n *sitter.Node, name string) string {
	var mods string
	for _, c := range parse.NamedChildren(n) {
		if c.Type() == "modifiers" {
			mods = lang.Text(c, w.src) + " "
		}
	}
	ns := w.file.NamespaceClass
	target := w.t.cfg.Target
	return fmt.Sprintf("%s\n%s%s%s %s = %s.getLogger(%s.class, new %s());",
		commentOut(lang.NodeText(n, w.src)),
		indent(n),
		mods, ns, name,
		lang.SimpleName(target.LoggerFactory), ns, lang.SimpleName(target.SimpleLogger))
}

func (w *walker) setLogger(name string) {
	if w.loggerName != "" {
		return
	}
	w.loggerName = name
	w.loggerRe = regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\s*\.`)
}

func (w *walker) localDecl(n *sitter.Node) {
	typ := w.fieldText(n, "type")
	scope := localScope(n)
	for _, d := range declarators(n) {
		w.declare(d, typ, false, "", scope)
	}
}

func (w *walker) parameter(n *sitter.Node) {
	name := n.ChildByFieldName("name")
	if name == nil {
		return
	}
	typ := w.fieldText(n, "type")
	if dims := n.ChildByFieldName("dimensions"); dims != nil {
		typ += lang.NodeText(dims, w.src)
	}
	w.declareName(name, typ, false, "", localScope(n))
}

func (w *walker) spreadParameter(n *sitter.Node) {
	typeNode := parse.SpreadType(n)
	if typeNode == nil {
		return
	}
	for _, c := range parse.NamedChildren(n) {
		if c.Type() == "variable_declarator" {
			if name := c.ChildByFieldName("name"); name != nil {
				w.declareName(name, lang.Text(typeNode, w.src)+"...", false, "", localScope(n))
			}
		}
	}
}

// catchParameter declares the caught exception. A multi-catch is typed
// Exception since no single alternative can be preferred.
func (w *walker) catchParameter(n *sitter.Node) {
	name := n.ChildByFieldName("name")
	if name == nil {
		return
	}
	typ := "Exception"
	for _, c := range parse.NamedChildren(n) {
		if c.Type() == "catch_type" {
			if alts := parse.NamedChildren(c); len(alts) == 1 {
				typ = lang.Text(alts[0], w.src)
			}
		}
	}
	w.declareName(name, typ, false, model.TagException, localScope(n))
}

func (w *walker) loopVariable(n *sitter.Node) {
	name := n.ChildByFieldName("name")
	if name == nil {
		return
	}
	w.declareName(name, w.fieldText(n, "type"), false, "", nodeScope(n))
}

func (w *walker) resource(n *sitter.Node) {
	name := n.ChildByFieldName("name")
	if name == nil || n.ChildByFieldName("type") == nil {
		return
	}
	w.declareName(name, w.fieldText(n, "type"), false, "", localScope(n))
}

func (w *walker) declare(declarator *sitter.Node, typ string, field bool, tag string, scope model.Scope) {
	name := declarator.ChildByFieldName("name")
	if name == nil {
		return
	}
	if dims := declarator.ChildByFieldName("dimensions"); dims != nil {
		typ += lang.NodeText(dims, w.src)
	}
	w.declareName(name, typ, field, tag, scope)
}

func (w *walker) declareName(name *sitter.Node, typ string, field bool, tag string, scope model.Scope) {
	w.file.Declare(&model.Variable{
		Name:  lang.NodeText(name, w.src),
		Type:  typ,
		Field: field,
		Pos:   parse.Position(name),
		Scope: scope,
		Tag:   tag,
	})
}

// guard rewrites the logger receiver of level checks in an if condition to
// LogGlobal. Conditions combining checks with !, && and || are supported;
// any other use of the logger leaves the statement unchanged.
func (w *walker) guard(n *sitter.Node) error {
	if !w.rewriteCalls || w.profile == nil || w.loggerName == "" {
		return nil
	}
	cond := n.ChildByFieldName("condition")
	if cond == nil || !w.loggerRe.MatchString(lang.NodeText(cond, w.src)) {
		return nil
	}

	calls, ok := w.guardCalls(cond)
	for _, c := range calls {
		if !w.profile.IsChecker(w.fieldText(c, "name")) {
			ok = false
		}
	}
	if !ok || len(calls) == 0 {
		err := &UnimplementedGuardTranslationError{
			File:      w.file.Path,
			Line:      parse.Position(cond).Line,
			Condition: lang.Text(cond, w.src),
		}
		w.t.logger.Error().Err(err).Msg("guard left unchanged")
		return nil
	}

	global := lang.SimpleName(w.t.cfg.Target.LogGlobal)
	for _, c := range calls {
		if err := w.replace(c.ChildByFieldName("object"), global); err != nil {
			return err
		}
	}
	w.file.Guards++
	w.t.reg.Stats.GuardsRewritten++
	return nil
}

// guardCalls collects the logger method calls of a condition. ok is false
// when the logger appears in a shape other than a negated or
// boolean-composed call.
func (w *walker) guardCalls(n *sitter.Node) (calls []*sitter.Node, ok bool) {
	switch n.Type() {
	case "parenthesized_expression":
		if inner := parse.NamedChildren(n); len(inner) == 1 {
			return w.guardCalls(inner[0])
		}
	case "method_invocation":
		if obj := n.ChildByFieldName("object"); obj != nil && lang.Text(obj, w.src) == w.loggerName {
			return []*sitter.Node{n}, true
		}
	case "unary_expression":
		if operand := n.ChildByFieldName("operand"); operand != nil && operator(n) == "!" {
			return w.guardCalls(operand)
		}
	case "binary_expression":
		if op := operator(n); op == "&&" || op == "||" {
			left, lok := w.guardCalls(n.ChildByFieldName("left"))
			right, rok := w.guardCalls(n.ChildByFieldName("right"))
			return append(left, right...), lok && rok
		}
	}
	return nil, !w.loggerRe.MatchString(lang.NodeText(n, w.src))
}

func (w *walker) statement(n *sitter.Node) (bool, error) {
	if !w.rewriteCalls || w.profile == nil {
		return true, nil
	}
	inner := parse.NamedChildren(n)
	if len(inner) == 0 || inner[0].Type() != "method_invocation" {
		return true, nil
	}
	call := inner[0]
	obj := call.ChildByFieldName("object")
	method := w.fieldText(call, "name")
	if obj == nil || !w.isLogger(obj) || !w.profile.IsEmitting(method) {
		return true, nil
	}
	return false, w.logCall(call, lang.Text(obj, w.src), method)
}

// isLogger reports whether obj is the file's logger: the field detected in
// this file or, failing that, an inherited variable of the logger type.
func (w *walker) isLogger(obj *sitter.Node) bool {
	text := lang.Text(obj, w.src)
	if w.loggerName != "" {
		return text == w.loggerName
	}
	if obj.Type() != "identifier" {
		return false
	}
	v := w.file.Lookup(text, parse.Position(obj))
	return v != nil && w.profile.IsLoggerType(v.Type)
}

func (w *walker) logCall(call *sitter.Node, loggerVar, method string) error {
	var args []*sitter.Node
	if list := call.ChildByFieldName("arguments"); list != nil {
		args = parse.NamedChildren(list)
	}
	texts := make([]string, len(args))
	for i, a := range args {
		texts[i] = lang.Text(a, w.src)
	}

	pos := parse.Position(call)
	log := &model.Log{
		Original: lang.NodeText(call, w.src),
		Pos:      pos,
		Level:    w.profile.Level(method),
		Marker:   synth.DetectMarker(texts),
	}

	cfg := &w.t.cfg.Translate
	c := classify.New(w.file, lang.EnclosingClassName(call, w.src), cfg, w.t.logger)
	for i := len(args) - 1; i >= 0; i-- {
		err := c.Classify(log, args[i], synth.FormattedArgument(log.Marker, i, texts[i]))
		var unresolved *classify.UnresolvedVariableError
		switch {
		case err == nil:
		case errors.As(err, &unresolved) && cfg.IgnoreParsingErrors:
			w.t.logger.Warn().
				Str("file", w.file.Path).
				Int("line", unresolved.Line).
				Str("expr", unresolved.Expr).
				Msg("dropping unresolved argument")
		default:
			return err
		}
	}
	if len(args) == 0 {
		log.Tags = append(log.Tags, model.TagEmptyStatement)
	}

	synth.Synthesize(log, loggerVar, cfg, w.t.lang.IsKeyword)
	w.file.Logs = append(w.file.Logs, log)

	if err := w.replace(call, commentOut(log.Original)+"\n"+indent(call)+log.Replacement); err != nil {
		return err
	}
	w.t.reg.Stats.CallSitesRewritten++
	w.t.logger.Debug().
		Str("file", w.file.Path).
		Int("line", pos.Line).
		Str("replacement", log.Replacement).
		Msg("rewrote log call")
	return nil
}

func (w *walker) replace(n *sitter.Node, text string) error {
	if err := w.edits.Replace(int(n.StartByte()), int(n.EndByte()), text); err != nil {
		return fmt.Errorf("%s:%d: %w", w.file.Path, parse.Position(n).Line, err)
	}
	return nil
}

func (w *walker) fieldText(n *sitter.Node, field string) string {
	if c := n.ChildByFieldName(field); c != nil {
		return lang.Text(c, w.src)
	}
	return ""
}

func declarators(n *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for _, c := range parse.NamedChildren(n) {
		if c.Type() == "variable_declarator" {
			out = append(out, c)
		}
	}
	return out
}

func operator(n *sitter.Node) string {
	if op := n.ChildByFieldName("operator"); op != nil {
		return op.Type()
	}
	return ""
}

// localScope bounds a local declaration by its enclosing block.
func localScope(n *sitter.Node) model.Scope {
	if s := lang.EnclosingScope(n); s != nil {
		return nodeScope(s)
	}
	return model.Scope{}
}

func nodeScope(n *sitter.Node) model.Scope {
	return model.Scope{Start: int(n.StartByte()), End: int(n.EndByte())}
}

// namespaceClass names the generated event class of a file after the last
// package segment, or after the file itself in the default package.
func namespaceClass(pkg, file string) string {
	base := pkg
	if i := strings.LastIndex(pkg, "."); i >= 0 {
		base = pkg[i+1:]
	}
	if base == "" {
		base = strings.TrimSuffix(path.Base(file), ".java")
	}
	return synth.UpperFirst(base) + "Namespace"
}

func commentOut(text string) string {
	return "/* " + strings.ReplaceAll(text, "*/", `*\/`) + " */"
}

func indent(n *sitter.Node) string {
	return strings.Repeat(" ", int(n.StartPoint().Column))
}

func compact(s string) string {
	return strings.Join(strings.Fields(s), "")
}
