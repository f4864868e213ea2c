// Package classify decomposes the arguments of a log call into literal
// commentary and resolved or synthesized variables.
//
// Each argument is matched against an ordered list of rules; the first rule
// that applies wins, so the order of the checks in resolve is significant.
package classify

import (
	"errors"
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/ternarybob/arbor"

	"github.com/phobologic/logtranslator/internal/config"
	"github.com/phobologic/logtranslator/internal/lang"
	"github.com/phobologic/logtranslator/internal/model"
	"github.com/phobologic/logtranslator/internal/parse"
	"github.com/phobologic/logtranslator/internal/synth"
	"github.com/phobologic/logtranslator/internal/symtab"
)

var (
	upperIdentRe = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)
	quotedRe     = regexp.MustCompile(`"([^"]*)"`)
)

var supported = map[string]struct{}{
	"string_literal": {}, "text_block": {}, "character_literal": {},
	"decimal_integer_literal": {}, "hex_integer_literal": {}, "octal_integer_literal": {},
	"binary_integer_literal": {}, "decimal_floating_point_literal": {}, "hex_floating_point_literal": {},
	"identifier": {}, "field_access": {}, "method_invocation": {}, "class_literal": {},
	"object_creation_expression": {}, "array_creation_expression": {}, "array_access": {},
	"instanceof_expression": {}, "ternary_expression": {}, "binary_expression": {},
	"unary_expression": {}, "cast_expression": {}, "parenthesized_expression": {},
	"this": {}, "null_literal": {}, "true": {}, "false": {},
}

var mathOperators = map[string]struct{}{"+": {}, "-": {}, "*": {}, "/": {}, "%": {}}

var booleanOperators = map[string]struct{}{
	"&&": {}, "||": {}, "==": {}, "!=": {}, "<": {}, ">": {}, "<=": {}, ">=": {},
}

var formatOwners = map[string]struct{}{
	"String": {}, "MessageFormat": {}, "MessageFormatter": {}, "Formatter": {},
}

// Classifier resolves log call arguments against one file's symbols.
type Classifier struct {
	file      *symtab.File
	src       []byte
	className string
	cfg       *config.TranslateConfig
	logger    arbor.ILogger
}

// New returns a Classifier for arguments found inside className in file.
func New(file *symtab.File, className string, cfg *config.TranslateConfig, logger arbor.ILogger) *Classifier {
	return &Classifier{
		file:      file,
		src:       file.Source,
		className: className,
		cfg:       cfg,
		logger:    logger,
	}
}

// Classify interprets one top-level call argument and prepends what it finds
// to log. Callers visit arguments right to left so the log ends up in
// textual order. On error log is left untouched.
func (c *Classifier) Classify(log *model.Log, node *sitter.Node, formatted bool) error {
	part := &model.Log{}
	if err := c.operand(part, node, formatted); err != nil {
		return err
	}
	merge(log, part)
	return nil
}

// operand splits string concatenations and classifies each piece right to left.
func (c *Classifier) operand(log *model.Log, node *sitter.Node, formatted bool) error {
	node = unwrap(node)
	if isConcat(node) {
		ops := flatten(node)
		for i := len(ops) - 1; i >= 0; i-- {
			if err := c.operand(log, ops[i], formatted); err != nil {
				return err
			}
		}
		return nil
	}

	kind := node.Type()
	text := lang.Text(node, c.src)
	pos := parse.Position(node)

	if _, ok := supported[kind]; !ok {
		return &UnsupportedExpressionShapeError{File: c.file.Path, Line: pos.Line, Expr: text, Kind: kind}
	}

	switch kind {
	case "string_literal", "text_block":
		prependComment(log, synth.Culture(text))
		return nil
	}

	v, err := c.resolve(log, node, formatted)
	if err != nil {
		return err
	}
	if v != nil {
		prependVariable(log, v, formatted)
	}
	return nil
}

// resolve applies the variable rules in priority order. It returns nil
// without error when a rule wrote its results into log directly.
func (c *Classifier) resolve(log *model.Log, node *sitter.Node, formatted bool) (*model.Variable, error) {
	kind := node.Type()
	text := lang.Text(node, c.src)
	pos := parse.Position(node)

	if typ := literalType(kind, text); typ != "" {
		return c.synthesize(pos, &model.Variable{Name: text, Type: typ, Tag: model.TagLiteral}), nil
	}

	// known declaration
	if v := c.lookup(node, text, pos); v != nil {
		return v, nil
	}

	// utility idioms
	if v := c.idiom(node, text, pos); v != nil {
		return v, nil
	}

	switch {
	case kind == "object_creation_expression":
		return c.instantiation(node, text, pos), nil

	case kind == "array_creation_expression" && node.ChildByFieldName("value") != nil:
		return nil, c.arrayLiteral(log, node.ChildByFieldName("value"), formatted)

	case kind == "array_access":
		return c.arrayAccess(node, text, pos, formatted)

	case kind == "instanceof_expression":
		typ := "Object"
		if right := node.ChildByFieldName("right"); right != nil {
			typ = lang.SimpleName(stripGenerics(lang.Text(right, c.src)))
		}
		return c.synthesize(pos, &model.Variable{
			Name:  text,
			Type:  "boolean",
			Alias: "isInstanceOf" + typ,
		}), nil

	case kind == "ternary_expression":
		return c.ternary(log, node, text, pos), nil

	case isFormatCall(node, c.src):
		return nil, c.formatCall(log, node)

	case isArithmetic(node):
		return c.synthesize(pos, &model.Variable{
			Name:  text,
			Type:  "double",
			Alias: "mathExpression",
			Tag:   model.TagMathExpression,
		}), nil

	case kind == "method_invocation" && node.ChildByFieldName("object") == nil:
		return c.localCall(node, text, pos), nil

	case strings.Contains(text, "."):
		return c.qualified(text, pos), nil

	case kind == "this":
		return c.synthesize(pos, &model.Variable{
			Name:         "this",
			Type:         "String",
			Alias:        synth.LowerFirst(c.className),
			Substitution: "this.toString()",
		}), nil

	case kind == "unary_expression" && operator(node) == "!":
		return c.negation(node, text, pos, formatted)

	case kind == "identifier" && upperIdentRe.MatchString(text) && c.file.HasStaticImport():
		c.logger.Debug().Str("file", c.file.Path).Str("expr", text).Msg("assuming constant from static import")
		return c.synthesize(pos, &model.Variable{Name: text, Type: "String"}), nil

	case kind == "null_literal":
		return c.synthesize(pos, &model.Variable{Name: "null", Type: "String", Alias: "null"}), nil

	case kind == "true" || kind == "false":
		return c.synthesize(pos, &model.Variable{
			Name:  text,
			Type:  "boolean",
			Alias: "booleanValue",
			Tag:   model.TagBooleanValue,
		}), nil

	case isComparison(node):
		left := lang.Text(unwrap(node.ChildByFieldName("left")), c.src)
		return c.synthesize(pos, &model.Variable{
			Name:  text,
			Type:  "boolean",
			Alias: "is" + synth.UpperFirst(synth.DisplayName(compact(left))),
			Tag:   model.TagBooleanValue,
		}), nil

	case kind == "cast_expression":
		return c.cast(node, pos), nil
	}

	if found := c.file.LookupAncestors(text); found != nil {
		dup := *found
		dup.Scope = model.Scope{}
		return c.synthesize(pos, &dup), nil
	}

	return nil, &UnresolvedVariableError{File: c.file.Path, Line: pos.Line, Expr: text}
}

func (c *Classifier) lookup(node *sitter.Node, text string, pos model.Position) *model.Variable {
	if v := c.file.Lookup(text, pos); v != nil {
		return v
	}
	if node.Type() == "field_access" {
		obj := node.ChildByFieldName("object")
		field := node.ChildByFieldName("field")
		if obj != nil && field != nil && obj.Type() == "this" {
			if v := c.file.Lookup(lang.NodeText(field, c.src), pos); v != nil && v.Field {
				return v
			}
		}
	}
	return nil
}

func (c *Classifier) idiom(node *sitter.Node, text string, pos model.Position) *model.Variable {
	v := &model.Variable{Name: text, Type: "String", Tag: model.TagMethodCall}

	switch {
	case strings.HasPrefix(text, "Joiner."):
		v.Alias = "joined"
		if args := arguments(node); len(args) > 0 {
			v.Alias = synth.DisplayName(lang.Text(args[0], c.src))
		}

	case strings.HasPrefix(text, "StringUtils."):
		v.Alias = "stringUtils"
		if name := node.ChildByFieldName("name"); name != nil && node.Type() == "method_invocation" {
			v.Alias = lang.NodeText(name, c.src)
		}

	case node.Type() == "object_creation_expression" && strings.Contains(c.fieldText(node, "type"), "Path"):
		v.Alias = "newPath"
		v.Substitution = synth.StringCast(text)

	case strings.HasPrefix(text, "System.getenv("):
		v.Alias = "env"
		if m := quotedRe.FindStringSubmatch(text); m != nil {
			v.Alias = m[1]
		}

	case strings.HasPrefix(text, "Param.toSortedString("):
		v.Alias = "parameters"

	case strings.HasPrefix(text, "$(") && strings.HasSuffix(text, ")"):
		v.Alias = text[2 : len(text)-1]

	default:
		return nil
	}
	return c.synthesize(pos, v)
}

func (c *Classifier) instantiation(node *sitter.Node, text string, pos model.Position) *model.Variable {
	typ := c.fieldText(node, "type")
	v := &model.Variable{
		Name:         text,
		Type:         "String",
		Tag:          model.TagMethodCall,
		Substitution: synth.StringCast(text),
	}
	switch {
	case strings.Contains(typ, "Exception"):
		v.Alias = "exception"
	case strings.Contains(typ, "Throwable"):
		v.Alias = "throwable"
	default:
		// The entry stays keyed by the whole creation expression; the first
		// constructor argument only names it.
		v.Type = typ
		v.Alias = synth.LowerFirst(lang.SimpleName(stripGenerics(typ)))
		if args := arguments(node); len(args) > 0 {
			v.Alias = synth.DisplayName(lang.Text(args[0], c.src))
		}
	}
	return c.synthesize(pos, v)
}

func (c *Classifier) arrayLiteral(log *model.Log, init *sitter.Node, formatted bool) error {
	elems := parse.NamedChildren(init)
	for i := len(elems) - 1; i >= 0; i-- {
		el := unwrap(elems[i])
		switch el.Type() {
		case "string_literal", "text_block":
			prependComment(log, synth.Culture(lang.Text(el, c.src)))
			continue
		}
		text := lang.Text(el, c.src)
		pos := parse.Position(el)
		v := c.lookup(el, text, pos)
		if v == nil {
			v = c.synthesize(pos, &model.Variable{
				Name:  text,
				Type:  "Object",
				Alias: synth.DisplayName(text),
			})
		}
		prependVariable(log, v, formatted)
	}
	return nil
}

func (c *Classifier) arrayAccess(node *sitter.Node, text string, pos model.Position, formatted bool) (*model.Variable, error) {
	array := node.ChildByFieldName("array")
	if array == nil {
		return nil, &UnresolvedVariableError{File: c.file.Path, Line: pos.Line, Expr: text}
	}
	base, err := c.resolve(&model.Log{}, unwrap(array), formatted)
	if err != nil {
		return nil, err
	}
	if base == nil {
		return nil, &UnresolvedVariableError{File: c.file.Path, Line: pos.Line, Expr: text}
	}

	elem := strings.TrimSpace(base.Type)
	elem = strings.TrimSuffix(elem, "...")
	elem = strings.TrimSpace(strings.TrimSuffix(elem, "[]"))

	v := &model.Variable{
		Name:  text,
		Type:  elem,
		Alias: synth.DisplayName(lang.Text(array, c.src)),
	}
	if !c.cfg.IsAllowedType(elem) {
		v.Type = "String"
		v.Substitution = synth.StringCast(text)
	}
	return c.synthesize(pos, v), nil
}

func (c *Classifier) ternary(log *model.Log, node *sitter.Node, text string, pos model.Position) *model.Variable {
	cond := unwrap(node.ChildByFieldName("condition"))
	t := &model.Ternary{
		Condition: lang.Text(cond, c.src),
		True:      c.fieldText(node, "consequence"),
		False:     c.fieldText(node, "alternative"),
	}
	if cond.Type() == "binary_expression" && (operator(cond) == "==" || operator(cond) == "!=") {
		left, right := unwrap(cond.ChildByFieldName("left")), unwrap(cond.ChildByFieldName("right"))
		switch {
		case left.Type() == "null_literal":
			t.Bool = lang.Text(right, c.src)
		case right.Type() == "null_literal":
			t.Bool = lang.Text(left, c.src)
		}
	}
	log.Ternary = t
	addTag(log, model.TagTernary)

	alias := "is" + synth.UpperFirst(synth.DisplayName(stripBooleanSuffix(compact(t.Condition))))
	if t.Bool != "" {
		alias = synth.DisplayName(compact(t.Bool))
	}
	return c.synthesize(pos, &model.Variable{
		Name:         text,
		Type:         "String",
		Alias:        alias,
		Tag:          model.TagTernary,
		Substitution: synth.StringCast(text),
	})
}

func (c *Classifier) formatCall(log *model.Log, node *sitter.Node) error {
	args := arguments(node)
	for i := len(args) - 1; i >= 0; i-- {
		err := c.operand(log, args[i], true)
		var unresolved *UnresolvedVariableError
		if errors.As(err, &unresolved) {
			text := lang.Text(args[i], c.src)
			prependVariable(log, c.synthesize(parse.Position(args[i]), &model.Variable{
				Name:         text,
				Type:         "String",
				Alias:        synth.DisplayName(text),
				Substitution: synth.StringCast(text),
			}), true)
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *Classifier) localCall(node *sitter.Node, text string, pos model.Position) *model.Variable {
	name := c.fieldText(node, "name")
	args := arguments(node)

	v := &model.Variable{Name: text, Tag: model.TagMethodCall}
	if m := c.file.FindMethod(name, c.argumentTypes(args)); m != nil {
		v.Type = m.ReturnType
		v.Alias = name
		if v.Type == "void" {
			v.Type = "String"
		}
	} else {
		c.logger.Debug().
			Str("file", c.file.Path).
			Int("line", pos.Line).
			Str("method", name).
			Int("arity", len(args)).
			Msg("method declaration not found")
		v.Type = "String"
		v.Alias = synth.DisplayName(name) + "MethodCall"
	}
	return c.synthesize(pos, v)
}

// argumentTypes infers the type of each call argument from what it resolves
// to without synthesizing anything. Unknown arguments are typed Object.
func (c *Classifier) argumentTypes(args []*sitter.Node) []string {
	types := make([]string, len(args))
	for i, arg := range args {
		arg = unwrap(arg)
		text := lang.Text(arg, c.src)
		kind := arg.Type()
		switch lit := literalType(kind, text); {
		case kind == "string_literal" || kind == "text_block":
			types[i] = "String"
		case lit != "":
			types[i] = lit
		default:
			types[i] = "Object"
			if v := c.lookup(arg, text, parse.Position(arg)); v != nil && v.Type != "" {
				types[i] = v.Type
			} else {
				c.logger.Debug().Str("file", c.file.Path).Str("expr", text).Msg("unable to determine argument type")
			}
		}
	}
	return types
}

func (c *Classifier) qualified(text string, pos model.Position) *model.Variable {
	alias := synth.DisplayName(text)
	if stripped, ok := strings.CutSuffix(text, ".toString()"); ok {
		stripped = strings.TrimSuffix(stripped, "()")
		alias = synth.DisplayName(stripped) + "MethodCall"
	}
	return c.synthesize(pos, &model.Variable{
		Name:         text,
		Type:         "String",
		Alias:        alias,
		Tag:          model.TagMethodCall,
		Substitution: synth.StringCast(text),
	})
}

func (c *Classifier) negation(node *sitter.Node, text string, pos model.Position, formatted bool) (*model.Variable, error) {
	operand := node.ChildByFieldName("operand")
	if operand == nil {
		return nil, &UnresolvedVariableError{File: c.file.Path, Line: pos.Line, Expr: text}
	}
	v, err := c.resolve(&model.Log{}, unwrap(operand), formatted)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, &UnresolvedVariableError{File: c.file.Path, Line: pos.Line, Expr: text}
	}
	return v, nil
}

func (c *Classifier) cast(node *sitter.Node, pos model.Position) *model.Variable {
	value := c.fieldText(node, "value")
	return c.synthesize(pos, &model.Variable{
		Name:         value,
		Type:         c.fieldText(node, "type"),
		Substitution: synth.StringCast(value),
	})
}

// synthesize records a pseudo-declaration visible file-wide so later
// references to the same expression reuse it.
func (c *Classifier) synthesize(pos model.Position, v *model.Variable) *model.Variable {
	v.Pos = pos
	v.Synthesized = true
	c.logger.Debug().
		Str("file", c.file.Path).
		Int("line", pos.Line).
		Str("name", v.Name).
		Str("type", v.Type).
		Str("alias", v.Alias).
		Msg("synthesized variable")
	return c.file.Declare(v)
}

func (c *Classifier) fieldText(node *sitter.Node, field string) string {
	if n := node.ChildByFieldName(field); n != nil {
		return lang.Text(n, c.src)
	}
	return ""
}

func literalType(kind, text string) string {
	switch kind {
	case "decimal_integer_literal", "hex_integer_literal", "octal_integer_literal", "binary_integer_literal":
		if strings.HasSuffix(text, "L") || strings.HasSuffix(text, "l") {
			return "long"
		}
		return "int"
	case "decimal_floating_point_literal", "hex_floating_point_literal":
		if strings.HasSuffix(text, "f") || strings.HasSuffix(text, "F") {
			return "float"
		}
		return "double"
	case "character_literal":
		return "char"
	}
	return ""
}

func unwrap(node *sitter.Node) *sitter.Node {
	for node != nil && node.Type() == "parenthesized_expression" {
		inner := parse.NamedChildren(node)
		if len(inner) == 0 {
			break
		}
		node = inner[0]
	}
	return node
}

func operator(node *sitter.Node) string {
	if op := node.ChildByFieldName("operator"); op != nil {
		return op.Type()
	}
	return ""
}

func arguments(node *sitter.Node) []*sitter.Node {
	args := node.ChildByFieldName("arguments")
	if args == nil {
		return nil
	}
	return parse.NamedChildren(args)
}

// isConcat reports whether node is a "+" chain with at least one string literal operand.
func isConcat(node *sitter.Node) bool {
	return node.Type() == "binary_expression" && operator(node) == "+" && hasStringOperand(node)
}

func hasStringOperand(node *sitter.Node) bool {
	node = unwrap(node)
	switch node.Type() {
	case "string_literal", "text_block":
		return true
	case "binary_expression":
		if operator(node) == "+" {
			return hasStringOperand(node.ChildByFieldName("left")) || hasStringOperand(node.ChildByFieldName("right"))
		}
	}
	return false
}

func flatten(node *sitter.Node) []*sitter.Node {
	node = unwrap(node)
	if isConcat(node) {
		return append(flatten(node.ChildByFieldName("left")), flatten(node.ChildByFieldName("right"))...)
	}
	return []*sitter.Node{node}
}

func isArithmetic(node *sitter.Node) bool {
	switch node.Type() {
	case "binary_expression":
		_, ok := mathOperators[operator(node)]
		return ok
	case "unary_expression":
		op := operator(node)
		return op == "-" || op == "+"
	}
	return false
}

func isComparison(node *sitter.Node) bool {
	if node.Type() != "binary_expression" {
		return false
	}
	_, ok := booleanOperators[operator(node)]
	return ok
}

func isFormatCall(node *sitter.Node, src []byte) bool {
	if node.Type() != "method_invocation" {
		return false
	}
	obj := node.ChildByFieldName("object")
	name := node.ChildByFieldName("name")
	if obj == nil || name == nil || lang.NodeText(name, src) != "format" {
		return false
	}
	_, ok := formatOwners[lang.SimpleName(lang.Text(obj, src))]
	return ok
}

func stripBooleanSuffix(cond string) string {
	cut := len(cond)
	for op := range booleanOperators {
		if i := strings.Index(cond, op); i >= 0 && i < cut {
			cut = i
		}
	}
	return strings.TrimPrefix(cond[:cut], "!")
}

func stripGenerics(s string) string {
	if i := strings.Index(s, "<"); i >= 0 {
		return s[:i]
	}
	return s
}

func compact(s string) string {
	return strings.Join(strings.Fields(s), "")
}

func prependComment(log *model.Log, comment string) {
	if comment == "" {
		return
	}
	log.Comments = append([]string{comment}, log.Comments...)
}

func prependVariable(log *model.Log, v *model.Variable, formatted bool) {
	log.Variables = append([]*model.Variable{v}, log.Variables...)
	if formatted && !log.IsFormatted(v) {
		log.Formatted = append(log.Formatted, v)
	}
}

func addTag(log *model.Log, tag string) {
	if !log.HasTag(tag) {
		log.Tags = append(log.Tags, tag)
	}
}

func merge(dst, part *model.Log) {
	dst.Variables = append(part.Variables, dst.Variables...)
	dst.Comments = append(part.Comments, dst.Comments...)
	for _, v := range part.Formatted {
		if !dst.IsFormatted(v) {
			dst.Formatted = append(dst.Formatted, v)
		}
	}
	if part.Ternary != nil {
		dst.Ternary = part.Ternary
	}
	for _, t := range part.Tags {
		addTag(dst, t)
	}
}
