//go:build cgo

package pyparse

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"pysemver/internal/apigraph"
	"pysemver/internal/errors"
)

// Parser wraps a tree-sitter parser configured for Python.
// A Parser is not safe for concurrent use; create one per goroutine.
type Parser struct {
	parser *sitter.Parser
}

// NewParser creates a new Python parser.
func NewParser() *Parser {
	p := sitter.NewParser()
	p.SetLanguage(python.GetLanguage())
	return &Parser{parser: p}
}

// IsAvailable reports whether source parsing is compiled in.
func IsAvailable() bool {
	return true
}

// Parse builds the structural tree of one file. Syntax the grammar cannot recognise is
// reported as a PARSE_ERROR carrying the location of the first error node.
func (p *Parser) Parse(ctx context.Context, path string, src []byte) (*Module, error) {
	tree, err := p.parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, errors.New(errors.ParseFailed, fmt.Sprintf("parse %s", path), err, nil).WithFile(path)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, syntaxError(path, root, src)
	}

	w := &walker{src: src}
	mod := &Module{
		Path: path,
		Stub: strings.HasSuffix(path, ".pyi"),
	}
	mod.Docstring = w.docstring(root)
	w.module = mod
	mod.Definitions = w.block(root, true)
	return mod, nil
}

// syntaxError locates the first ERROR or MISSING node in document order.
func syntaxError(path string, root *sitter.Node, src []byte) error {
	n := firstErrorNode(root)
	if n == nil {
		n = root
	}
	msg := "invalid syntax"
	if n.IsMissing() {
		msg = fmt.Sprintf("missing %q", n.Type())
	} else if n != root {
		text := normalizeSpace(n.Content(src))
		if len(text) > 40 {
			text = text[:40] + "..."
		}
		if text != "" {
			msg = fmt.Sprintf("invalid syntax near %q", text)
		}
	}
	pt := n.StartPoint()
	return errors.NewParseError(path, int(pt.Row)+1, int(pt.Column), msg)
}

func firstErrorNode(n *sitter.Node) *sitter.Node {
	if n.IsError() || n.IsMissing() {
		return n
	}
	if !n.HasError() {
		return nil
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if found := firstErrorNode(n.Child(i)); found != nil {
			return found
		}
	}
	return nil
}

type walker struct {
	src    []byte
	module *Module
}

func (w *walker) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(w.src)
}

func position(n *sitter.Node) (int, int) {
	pt := n.StartPoint()
	return int(pt.Row) + 1, int(pt.Column)
}

// docstring returns the leading string literal of a module or block.
func (w *walker) docstring(block *sitter.Node) string {
	if block == nil || block.NamedChildCount() == 0 {
		return ""
	}
	first := block.NamedChild(0)
	if first.Type() != "expression_statement" || first.NamedChildCount() == 0 {
		return ""
	}
	s := first.NamedChild(0)
	if s.Type() != "string" {
		return ""
	}
	return cleanDocstring(unquote(w.text(s)))
}

// block collects declarations from a module or class body. Compound statements (if, try,
// with) are descended into since their branches declare names at the same scope.
func (w *walker) block(n *sitter.Node, moduleLevel bool) []*Definition {
	var defs []*Definition
	for i := 0; i < int(n.NamedChildCount()); i++ {
		defs = append(defs, w.statement(n.NamedChild(i), moduleLevel)...)
	}
	return defs
}

func (w *walker) statement(n *sitter.Node, moduleLevel bool) []*Definition {
	switch n.Type() {
	case "function_definition":
		return []*Definition{w.function(n, nil)}
	case "class_definition":
		return []*Definition{w.class(n, nil)}
	case "decorated_definition":
		if d := w.decorated(n); d != nil {
			return []*Definition{d}
		}
	case "expression_statement":
		return w.expressionStatement(n, moduleLevel)
	case "import_statement", "import_from_statement":
		if moduleLevel {
			w.imports(n)
		}
	case "if_statement", "try_statement", "with_statement",
		"elif_clause", "else_clause", "except_clause", "except_group_clause", "finally_clause":
		var defs []*Definition
		for i := 0; i < int(n.NamedChildCount()); i++ {
			c := n.NamedChild(i)
			switch c.Type() {
			case "block":
				defs = append(defs, w.block(c, moduleLevel)...)
			case "elif_clause", "else_clause", "except_clause", "except_group_clause", "finally_clause":
				defs = append(defs, w.statement(c, moduleLevel)...)
			}
		}
		return defs
	}
	return nil
}

func (w *walker) decorated(n *sitter.Node) *Definition {
	var decorators []string
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() == "decorator" {
			decorators = append(decorators, normalizeSpace(strings.TrimPrefix(w.text(c), "@")))
		}
	}
	def := n.ChildByFieldName("definition")
	if def == nil {
		return nil
	}
	switch def.Type() {
	case "function_definition":
		return w.function(def, decorators)
	case "class_definition":
		return w.class(def, decorators)
	}
	return nil
}

func (w *walker) class(n *sitter.Node, decorators []string) *Definition {
	line, col := position(n)
	d := &Definition{
		Kind:       DefClass,
		Name:       w.text(n.ChildByFieldName("name")),
		Line:       line,
		Column:     col,
		Decorators: decorators,
	}
	if args := n.ChildByFieldName("superclasses"); args != nil {
		for i := 0; i < int(args.NamedChildCount()); i++ {
			a := args.NamedChild(i)
			switch a.Type() {
			case "keyword_argument", "list_splat", "dictionary_splat", "comment":
				// metaclass= and friends do not name bases
			default:
				d.Bases = append(d.Bases, normalizeAnnotation(w.text(a)))
			}
		}
	}
	if body := n.ChildByFieldName("body"); body != nil {
		d.Docstring = w.docstring(body)
		d.Members = w.block(body, false)
	}
	return d
}

func (w *walker) function(n *sitter.Node, decorators []string) *Definition {
	line, col := position(n)
	d := &Definition{
		Kind:       DefFunction,
		Name:       w.text(n.ChildByFieldName("name")),
		Line:       line,
		Column:     col,
		Decorators: decorators,
	}
	if first := n.Child(0); first != nil && first.Type() == "async" {
		d.Async = true
	}
	if params := n.ChildByFieldName("parameters"); params != nil {
		d.Parameters = w.parameters(params)
	}
	if ret := n.ChildByFieldName("return_type"); ret != nil {
		d.Returns = normalizeAnnotation(w.text(ret))
	}
	if body := n.ChildByFieldName("body"); body != nil {
		d.Docstring = w.docstring(body)
		if d.Name == "__init__" && len(d.Parameters) > 0 {
			d.InstanceAttributes = w.instanceAttributes(body, d.Parameters[0].Name)
		}
	}
	return d
}

// parameters reads a parameter list. Everything before "/" is positional-only and
// everything after "*" or "*args" is keyword-only.
func (w *walker) parameters(n *sitter.Node) []apigraph.Parameter {
	var params []apigraph.Parameter
	keywordOnly := false
	kind := func() apigraph.ParamKind {
		if keywordOnly {
			return apigraph.KeywordOnly
		}
		return apigraph.PositionalOrKeyword
	}

	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch c.Type() {
		case "identifier":
			params = append(params, apigraph.Parameter{Name: w.text(c), Kind: kind()})
		case "default_parameter":
			params = append(params, apigraph.Parameter{
				Name:       w.text(c.ChildByFieldName("name")),
				Kind:       kind(),
				HasDefault: true,
				Default:    normalizeSpace(w.text(c.ChildByFieldName("value"))),
			})
		case "typed_default_parameter":
			params = append(params, apigraph.Parameter{
				Name:       w.text(c.ChildByFieldName("name")),
				Kind:       kind(),
				HasDefault: true,
				Default:    normalizeSpace(w.text(c.ChildByFieldName("value"))),
				Annotation: normalizeAnnotation(w.text(c.ChildByFieldName("type"))),
			})
		case "typed_parameter":
			p := apigraph.Parameter{Kind: kind(), Annotation: normalizeAnnotation(w.text(c.ChildByFieldName("type")))}
			inner := c.NamedChild(0)
			switch inner.Type() {
			case "list_splat_pattern":
				p.Kind = apigraph.VarPositional
				p.Name = w.text(inner.NamedChild(0))
				keywordOnly = true
			case "dictionary_splat_pattern":
				p.Kind = apigraph.VarKeyword
				p.Name = w.text(inner.NamedChild(0))
			default:
				p.Name = w.text(inner)
			}
			params = append(params, p)
		case "list_splat_pattern":
			params = append(params, apigraph.Parameter{Name: w.text(c.NamedChild(0)), Kind: apigraph.VarPositional})
			keywordOnly = true
		case "dictionary_splat_pattern":
			params = append(params, apigraph.Parameter{Name: w.text(c.NamedChild(0)), Kind: apigraph.VarKeyword})
		case "keyword_separator":
			keywordOnly = true
		case "positional_separator":
			for j := range params {
				if params[j].Kind == apigraph.PositionalOrKeyword {
					params[j].Kind = apigraph.PositionalOnly
				}
			}
		}
	}
	return params
}

// instanceAttributes finds receiver.x assignments in an __init__ body, skipping nested scopes.
func (w *walker) instanceAttributes(body *sitter.Node, receiver string) []*Definition {
	var attrs []*Definition
	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		switch n.Type() {
		case "function_definition", "class_definition", "lambda":
			return
		case "assignment":
			attrs = append(attrs, w.assignmentTargets(n, receiver)...)
			return
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			visit(n.NamedChild(i))
		}
	}
	visit(body)
	return attrs
}

func (w *walker) expressionStatement(n *sitter.Node, moduleLevel bool) []*Definition {
	if n.NamedChildCount() == 0 {
		return nil
	}
	expr := n.NamedChild(0)
	switch expr.Type() {
	case "assignment":
		if moduleLevel && w.exportAssignment(expr) {
			return nil
		}
		return w.assignmentTargets(expr, "")
	case "augmented_assignment":
		if moduleLevel {
			w.exportAugmented(expr)
		}
	case "call":
		if moduleLevel {
			w.exportCall(expr)
		}
	}
	return nil
}

// assignmentTargets turns an assignment into attribute declarations. With a receiver, only
// receiver.x targets count; without one, only bare names do.
func (w *walker) assignmentTargets(n *sitter.Node, receiver string) []*Definition {
	annotation := normalizeAnnotation(w.text(n.ChildByFieldName("type")))

	// a = b = v chains nest assignments on the right.
	targets := []*sitter.Node{n.ChildByFieldName("left")}
	right := n.ChildByFieldName("right")
	for right != nil && right.Type() == "assignment" {
		targets = append(targets, right.ChildByFieldName("left"))
		right = right.ChildByFieldName("right")
	}
	value := normalizeSpace(w.text(right))

	var defs []*Definition
	for _, t := range targets {
		if t == nil {
			continue
		}
		switch t.Type() {
		case "identifier":
			if receiver != "" {
				continue
			}
			line, col := position(t)
			defs = append(defs, &Definition{
				Kind: DefAttribute, Name: w.text(t), Line: line, Column: col,
				Annotation: annotation, Value: value,
			})
		case "attribute":
			if receiver == "" || w.text(t.ChildByFieldName("object")) != receiver {
				continue
			}
			line, col := position(t)
			defs = append(defs, &Definition{
				Kind: DefAttribute, Name: w.text(t.ChildByFieldName("attribute")), Line: line, Column: col,
				Annotation: annotation, Value: value,
			})
		case "pattern_list", "tuple_pattern", "list_pattern":
			if receiver != "" {
				continue
			}
			// a, b = ... declares names without a per-name value
			for i := 0; i < int(t.NamedChildCount()); i++ {
				c := t.NamedChild(i)
				if c.Type() == "identifier" {
					line, col := position(c)
					defs = append(defs, &Definition{Kind: DefAttribute, Name: w.text(c), Line: line, Column: col})
				}
			}
		}
	}
	return defs
}

func (w *walker) exports() *ExportList {
	if w.module.Exports == nil {
		w.module.Exports = &ExportList{}
	}
	return w.module.Exports
}

func (w *walker) isAllName(n *sitter.Node) bool {
	return n != nil && n.Type() == "identifier" && w.text(n) == "__all__"
}

// exportAssignment handles `__all__ = [...]`. It reports whether n targeted __all__.
func (w *walker) exportAssignment(n *sitter.Node) bool {
	if !w.isAllName(n.ChildByFieldName("left")) {
		return false
	}
	line, _ := position(n)
	names, ok := w.exportExpr(n.ChildByFieldName("right"), w.module.Exports)
	list := &ExportList{Line: line, Dynamic: !ok}
	list.add(names...)
	w.module.Exports = list
	return true
}

// exportAugmented handles `__all__ += [...]`.
func (w *walker) exportAugmented(n *sitter.Node) {
	if !w.isAllName(n.ChildByFieldName("left")) {
		return
	}
	list := w.exports()
	names, ok := w.exportExpr(n.ChildByFieldName("right"), list)
	list.add(names...)
	if !ok {
		list.Dynamic = true
	}
}

// exportCall handles `__all__.extend([...])` and `__all__.append("x")`.
func (w *walker) exportCall(n *sitter.Node) {
	fn := n.ChildByFieldName("function")
	if fn == nil || fn.Type() != "attribute" || !w.isAllName(fn.ChildByFieldName("object")) {
		return
	}
	method := w.text(fn.ChildByFieldName("attribute"))
	args := n.ChildByFieldName("arguments")
	list := w.exports()
	if args == nil || args.NamedChildCount() != 1 {
		list.Dynamic = true
		return
	}
	arg := args.NamedChild(0)
	switch method {
	case "append":
		if s, ok := w.stringLiteral(arg); ok {
			list.add(s)
			return
		}
	case "extend":
		if names, ok := w.exportExpr(arg, list); ok {
			list.add(names...)
			return
		}
	case "remove":
		if s, ok := w.stringLiteral(arg); ok {
			out := list.Names[:0]
			for _, name := range list.Names {
				if name != s {
					out = append(out, name)
				}
			}
			list.Names = out
			return
		}
	}
	list.Dynamic = true
}

// exportExpr evaluates the literal parts of an __all__ expression. A reference to __all__
// itself contributes the names collected so far.
func (w *walker) exportExpr(n *sitter.Node, prev *ExportList) ([]string, bool) {
	if n == nil {
		return nil, false
	}
	switch n.Type() {
	case "list", "tuple", "set":
		var names []string
		ok := true
		for i := 0; i < int(n.NamedChildCount()); i++ {
			c := n.NamedChild(i)
			if c.Type() == "comment" {
				continue
			}
			s, isStr := w.stringLiteral(c)
			if !isStr {
				ok = false
				continue
			}
			names = append(names, s)
		}
		return names, ok
	case "parenthesized_expression":
		if n.NamedChildCount() == 1 {
			return w.exportExpr(n.NamedChild(0), prev)
		}
	case "binary_operator":
		left, lok := w.exportExpr(n.ChildByFieldName("left"), prev)
		right, rok := w.exportExpr(n.ChildByFieldName("right"), prev)
		return append(left, right...), lok && rok
	case "identifier":
		if w.text(n) == "__all__" && prev != nil {
			return append([]string(nil), prev.Names...), !prev.Dynamic
		}
	}
	return nil, false
}

func (w *walker) stringLiteral(n *sitter.Node) (string, bool) {
	if n.Type() != "string" {
		return "", false
	}
	raw := w.text(n)
	if i := strings.IndexAny(raw, `"'`); i < 0 || strings.ContainsAny(raw[:i], "fF") {
		return "", false
	}
	return unquote(raw), true
}

func (w *walker) imports(n *sitter.Node) {
	line, _ := position(n)
	if n.Type() == "import_statement" {
		for i := 0; i < int(n.NamedChildCount()); i++ {
			c := n.NamedChild(i)
			switch c.Type() {
			case "dotted_name":
				w.module.Imports = append(w.module.Imports, Import{Module: w.text(c), Line: line})
			case "aliased_import":
				w.module.Imports = append(w.module.Imports, Import{
					Module: w.text(c.ChildByFieldName("name")),
					Alias:  w.text(c.ChildByFieldName("alias")),
					Line:   line,
				})
			}
		}
		return
	}

	base := Import{From: true, Line: line}
	mod := n.ChildByFieldName("module_name")
	if mod != nil {
		if mod.Type() == "relative_import" {
			for i := 0; i < int(mod.NamedChildCount()); i++ {
				c := mod.NamedChild(i)
				switch c.Type() {
				case "import_prefix":
					base.Level = len(strings.TrimSpace(w.text(c)))
				case "dotted_name":
					base.Module = w.text(c)
				}
			}
		} else {
			base.Module = w.text(mod)
		}
	}

	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if mod != nil && c.StartByte() == mod.StartByte() {
			continue
		}
		imp := base
		switch c.Type() {
		case "wildcard_import":
			imp.Wildcard = true
		case "dotted_name":
			imp.Name = w.text(c)
		case "aliased_import":
			imp.Name = w.text(c.ChildByFieldName("name"))
			imp.Alias = w.text(c.ChildByFieldName("alias"))
		default:
			continue
		}
		w.module.Imports = append(w.module.Imports, imp)
	}
}
