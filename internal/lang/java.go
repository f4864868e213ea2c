package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"
)

func init() {
	Languages["java"] = &Language{
		Name:       "java",
		Extensions: []string{".java"},
		lang:       java.GetLanguage(),
		Keywords:   javaKeywords,
	}
}

var javaKeywords = map[string]struct{}{
	"abstract": {}, "assert": {}, "boolean": {}, "break": {}, "byte": {},
	"case": {}, "catch": {}, "char": {}, "class": {}, "const": {},
	"continue": {}, "default": {}, "do": {}, "double": {}, "else": {},
	"enum": {}, "extends": {}, "final": {}, "finally": {}, "float": {},
	"for": {}, "goto": {}, "if": {}, "implements": {}, "import": {},
	"instanceof": {}, "int": {}, "interface": {}, "long": {}, "native": {},
	"new": {}, "package": {}, "private": {}, "protected": {}, "public": {},
	"return": {}, "short": {}, "static": {}, "strictfp": {}, "super": {},
	"switch": {}, "synchronized": {}, "this": {}, "throw": {}, "throws": {},
	"transient": {}, "try": {}, "void": {}, "volatile": {}, "while": {},
	"true": {}, "false": {}, "null": {}, "var": {}, "record": {},
}

// Java returns the registered Java language.
func Java() *Language {
	return Languages["java"]
}

// EnclosingClassName walks up from node to the nearest class, interface or
// enum declaration and returns its name, or "" at top level.
func EnclosingClassName(node *sitter.Node, source []byte) string {
	for cur := node.Parent(); cur != nil; cur = cur.Parent() {
		switch cur.Type() {
		case "class_declaration", "interface_declaration", "enum_declaration", "record_declaration":
			if name := cur.ChildByFieldName("name"); name != nil {
				return NodeText(name, source)
			}
			return ""
		}
	}
	return ""
}

// EnclosingScope returns the node whose byte range bounds the visibility of a
// local declaration made at node: the nearest block, method body, lambda,
// catch clause or loop statement.
func EnclosingScope(node *sitter.Node) *sitter.Node {
	for cur := node.Parent(); cur != nil; cur = cur.Parent() {
		switch cur.Type() {
		case "block", "constructor_body", "switch_block_statement_group",
			"lambda_expression", "catch_clause", "for_statement",
			"enhanced_for_statement", "try_with_resources_statement":
			return cur
		case "method_declaration", "constructor_declaration":
			return cur
		}
	}
	return nil
}
