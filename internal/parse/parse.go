// Package parse turns Java source into tree-sitter syntax trees and harvests
// method declarations from them.
package parse

import (
	"context"
	"errors"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/logtranslator/internal/lang"
	"github.com/phobologic/logtranslator/internal/model"
)

// ErrEmptySource is returned when asked to parse an empty file.
var ErrEmptySource = errors.New("empty source")

// File parses source with parser. The caller owns the returned tree and must Close it.
func File(ctx context.Context, parser *sitter.Parser, source []byte) (*sitter.Tree, error) {
	if len(source) == 0 {
		return nil, ErrEmptySource
	}
	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parsing: %w", err)
	}
	return tree, nil
}

// Methods returns every method declaration matched by query under root,
// in source order.
func Methods(query *sitter.Query, root *sitter.Node, source []byte) []model.Method {
	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(query, root)

	var methods []model.Method

	for {
		match, ok := qc.NextMatch()
		if !ok {
			break
		}
		match = qc.FilterPredicates(match, source)

		var nameNode, typeNode, paramsNode *sitter.Node
		for _, c := range match.Captures {
			switch query.CaptureNameForId(c.Index) {
			case "name":
				nameNode = c.Node
			case "type":
				typeNode = c.Node
			case "params":
				paramsNode = c.Node
			}
		}
		if nameNode == nil {
			continue
		}

		m := model.Method{
			Name: lang.NodeText(nameNode, source),
			Line: int(nameNode.StartPoint().Row) + 1,
		}
		if typeNode != nil {
			m.ReturnType = lang.Text(typeNode, source)
		}
		if paramsNode != nil {
			m.Params = ParamTypes(paramsNode, source)
		}
		methods = append(methods, m)
	}

	return methods
}

// ParamTypes returns the declared types of a formal_parameters node.
// Varargs parameters are reported with a trailing "...".
func ParamTypes(params *sitter.Node, source []byte) []string {
	var types []string
	for i := 0; i < int(params.NamedChildCount()); i++ {
		p := params.NamedChild(i)
		switch p.Type() {
		case "formal_parameter":
			if t := p.ChildByFieldName("type"); t != nil {
				types = append(types, lang.Text(t, source))
			}
		case "spread_parameter":
			if t := SpreadType(p); t != nil {
				types = append(types, lang.Text(t, source)+"...")
			}
		}
	}
	return types
}

// SpreadType returns the element type node of a varargs parameter.
func SpreadType(p *sitter.Node) *sitter.Node {
	for i := 0; i < int(p.NamedChildCount()); i++ {
		c := p.NamedChild(i)
		switch c.Type() {
		case "modifiers", "annotation", "marker_annotation", "variable_declarator":
			continue
		}
		return c
	}
	return nil
}

// Position returns the location of node.
func Position(node *sitter.Node) model.Position {
	start, end := node.StartPoint(), node.EndPoint()
	return model.Position{
		Line:      int(start.Row) + 1,
		Column:    int(start.Column),
		EndColumn: int(end.Column),
		StartByte: int(node.StartByte()),
		EndByte:   int(node.EndByte()),
	}
}

// NamedChildren returns node's named children, skipping comments.
func NamedChildren(node *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for i := 0; i < int(node.NamedChildCount()); i++ {
		c := node.NamedChild(i)
		if c.Type() == "line_comment" || c.Type() == "block_comment" || c.Type() == "comment" {
			continue
		}
		out = append(out, c)
	}
	return out
}
