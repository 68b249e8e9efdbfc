// Package python implements the Python language parsing strategy using
// tree-sitter. It extracts module-level functions, classes and methods
// (including async variants), dedented docstrings, bare-name signatures,
// and intra-file call edges.
package python

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/codeindex-go/codeindex/internal/model"
	"github.com/codeindex-go/codeindex/internal/strategy"
)

// Strategy parses Python source files.
type Strategy struct {
	MaxFileSize int64
}

// New returns a Python strategy with the default file-size guard.
func New() *Strategy {
	return &Strategy{MaxFileSize: strategy.DefaultMaxFileSize}
}

func (s *Strategy) Language() string     { return "python" }
func (s *Strategy) Extensions() []string { return []string{".py"} }

type funcDecl struct {
	id   string
	node *sitter.Node
}

func (s *Strategy) ParseFile(ctx context.Context, relPath string, content []byte) (map[string]*model.SymbolInfo, *model.FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	maxSize := s.MaxFileSize
	if maxSize <= 0 {
		maxSize = strategy.DefaultMaxFileSize
	}
	if err := strategy.ValidateUTF8Size(content, maxSize); err != nil {
		return nil, nil, err
	}

	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())
	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, nil, fmt.Errorf("python: tree-sitter parse failed: %w", err)
	}
	defer tree.Close()
	root := tree.RootNode()

	symbols := make(map[string]*model.SymbolInfo)
	var imports []string
	var functions, classes []string
	var decls []funcDecl

	var walkClass func(n *sitter.Node, classPath string)
	var walkModule func(n *sitter.Node)

	extractBody := func(n *sitter.Node) *sitter.Node {
		return childByType(n, "block")
	}

	walkClass = func(n *sitter.Node, classPath string) {
		body := extractBody(n)
		if body == nil {
			return
		}
		for i := 0; i < int(body.ChildCount()); i++ {
			member := unwrapDecorated(body.Child(i))
			switch member.Type() {
			case "function_definition":
				name := childText(member, content, "identifier")
				if name == "" {
					continue
				}
				qualified := classPath + "." + name
				if name == "__init__" {
					qualified = classPath + "." + "__init__"
				}
				kind := model.KindMethod
				if name == "__init__" {
					kind = model.KindConstructor
				}
				id := strategy.SymbolID(relPath, qualified)
				symbols[id] = &model.SymbolInfo{
					Kind:      kind,
					File:      relPath,
					Line:      line(member),
					Signature: ptr(bareSignature(member, content)),
					Docstring: dedentedDocstring(extractBody(member), content),
					CalledBy:  []string{},
				}
				decls = append(decls, funcDecl{id: id, node: member})
			case "class_definition":
				innerName := childText(member, content, "identifier")
				if innerName == "" {
					continue
				}
				innerPath := classPath + "." + innerName
				id := strategy.SymbolID(relPath, innerPath)
				symbols[id] = &model.SymbolInfo{
					Kind:      model.KindClass,
					File:      relPath,
					Line:      line(member),
					Signature: ptr(strategy.TrimSignature(firstLine(member, content))),
					Docstring: dedentedDocstring(extractBody(member), content),
					CalledBy:  []string{},
				}
				walkClass(member, innerPath)
			}
		}
	}

	walkModule = func(n *sitter.Node) {
		for i := 0; i < int(n.ChildCount()); i++ {
			child := unwrapDecorated(n.Child(i))
			switch child.Type() {
			case "import_statement", "import_from_statement":
				imports = append(imports, extractImportNames(child, content)...)
			case "function_definition":
				name := childText(child, content, "identifier")
				if name == "" {
					continue
				}
				id := strategy.SymbolID(relPath, name)
				symbols[id] = &model.SymbolInfo{
					Kind:      model.KindFunction,
					File:      relPath,
					Line:      line(child),
					Signature: ptr(bareSignature(child, content)),
					Docstring: dedentedDocstring(extractBody(child), content),
					CalledBy:  []string{},
				}
				functions = append(functions, name)
				decls = append(decls, funcDecl{id: id, node: child})
			case "class_definition":
				name := childText(child, content, "identifier")
				if name == "" {
					continue
				}
				id := strategy.SymbolID(relPath, name)
				symbols[id] = &model.SymbolInfo{
					Kind:      model.KindClass,
					File:      relPath,
					Line:      line(child),
					Signature: ptr(strategy.TrimSignature(firstLine(child, content))),
					Docstring: dedentedDocstring(extractBody(child), content),
					CalledBy:  []string{},
				}
				classes = append(classes, name)
				walkClass(child, name)
			}
		}
	}
	walkModule(root)

	localByName := make(map[string][]string)
	for id := range symbols {
		simple := id[strings.LastIndex(id, "::")+2:]
		if dot := strings.LastIndex(simple, "."); dot >= 0 {
			simple = simple[dot+1:]
		}
		localByName[simple] = append(localByName[simple], id)
	}

	var pending []model.PendingCall
	for _, d := range decls {
		body := extractBody(d.node)
		if body == nil {
			continue
		}
		for _, callName := range collectCalls(body, content, line(d.node)) {
			candidates := localByName[callName]
			if len(candidates) == 0 {
				pending = append(pending, model.PendingCall{CallerID: d.id, Callee: callName})
				continue
			}
			for _, targetID := range candidates {
				if targetID == d.id {
					continue
				}
				symbols[targetID].AddCaller(d.id)
			}
		}
	}

	fi := &model.FileInfo{
		Language:  "python",
		LineCount: strings.Count(string(content), "\n") + 1,
		Imports:   strategy.DedupPreserveOrder(imports),
		Symbols: model.SymbolSummary{
			Functions: functions,
			Classes:   classes,
		},
		PendingCalls: pending,
	}
	return symbols, fi, nil
}

// unwrapDecorated returns the decorated definition itself when n wraps a
// function_definition or class_definition behind one or more decorators.
func unwrapDecorated(n *sitter.Node) *sitter.Node {
	if n.Type() != "decorated_definition" {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c.Type() == "function_definition" || c.Type() == "class_definition" {
			return c
		}
	}
	return n
}

// bareSignature renders a function/method header with default values and
// type annotations stripped, so parameters reduce to bare names.
func bareSignature(fn *sitter.Node, content []byte) string {
	name := childText(fn, content, "identifier")
	params := childByType(fn, "parameters")
	isAsync := false
	for i := 0; i < int(fn.ChildCount()); i++ {
		if text := nodeText(fn.Child(i), content); text == "async" {
			isAsync = true
		}
	}
	var names []string
	if params != nil {
		for i := 0; i < int(params.ChildCount()); i++ {
			p := params.Child(i)
			switch p.Type() {
			case "identifier":
				names = append(names, nodeText(p, content))
			case "typed_parameter", "default_parameter", "typed_default_parameter":
				if id := childByType(p, "identifier"); id != nil {
					names = append(names, nodeText(id, content))
				}
			case "list_splat_pattern", "dictionary_splat_pattern":
				names = append(names, nodeText(p, content))
			}
		}
	}
	prefix := "def"
	if isAsync {
		prefix = "async def"
	}
	return fmt.Sprintf("%s %s(%s):", prefix, name, strings.Join(names, ", "))
}

// dedentedDocstring returns the first string-literal statement in body,
// dedented, or nil if body has none.
func dedentedDocstring(body *sitter.Node, content []byte) *string {
	if body == nil || body.ChildCount() == 0 {
		return nil
	}
	first := body.Child(0)
	if first.Type() != "expression_statement" || first.ChildCount() == 0 {
		return nil
	}
	strNode := first.Child(0)
	if strNode.Type() != "string" {
		return nil
	}
	raw := nodeText(strNode, content)
	raw = strings.TrimPrefix(raw, `"""`)
	raw = strings.TrimSuffix(raw, `"""`)
	raw = strings.TrimPrefix(raw, `'''`)
	raw = strings.TrimSuffix(raw, `'''`)
	raw = strings.Trim(raw, `"'`)
	doc := dedent(raw)
	if doc == "" {
		return nil
	}
	return &doc
}

// dedent strips the common leading whitespace from every non-blank line
// after the first, and trims surrounding blank lines — the usual Python
// docstring convention (see inspect.cleandoc).
func dedent(raw string) string {
	lines := strings.Split(raw, "\n")
	if len(lines) <= 1 {
		return strings.TrimSpace(raw)
	}
	minIndent := -1
	for _, l := range lines[1:] {
		trimmed := strings.TrimLeft(l, " \t")
		if trimmed == "" {
			continue
		}
		indent := len(l) - len(trimmed)
		if minIndent == -1 || indent < minIndent {
			minIndent = indent
		}
	}
	out := make([]string, len(lines))
	out[0] = strings.TrimSpace(lines[0])
	for i := 1; i < len(lines); i++ {
		l := lines[i]
		if minIndent > 0 && len(l) >= minIndent {
			l = l[minIndent:]
		}
		out[i] = strings.TrimRight(l, " \t")
	}
	return strings.Trim(strings.Join(out, "\n"), "\n \t")
}

func extractImportNames(n *sitter.Node, content []byte) []string {
	var out []string
	switch n.Type() {
	case "import_statement":
		for i := 0; i < int(n.ChildCount()); i++ {
			c := n.Child(i)
			if c.Type() == "dotted_name" || c.Type() == "aliased_import" {
				out = append(out, nodeText(c, content))
			}
		}
	case "import_from_statement":
		if mod := childByType(n, "dotted_name"); mod != nil {
			out = append(out, nodeText(mod, content))
		} else if mod := childByType(n, "relative_import"); mod != nil {
			out = append(out, nodeText(mod, content))
		}
	}
	return out
}

// collectCalls returns the simple callee names of every call in body,
// skipping calls on declLine (the header itself).
func collectCalls(body *sitter.Node, content []byte, declLine int) []string {
	var out []string
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n.Type() == "call" {
			if int(n.StartPoint().Row+1) != declLine {
				if fn := n.Child(0); fn != nil {
					out = append(out, calleeSimpleName(fn, content))
				}
			}
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(body)
	return out
}

func calleeSimpleName(n *sitter.Node, content []byte) string {
	switch n.Type() {
	case "identifier":
		return nodeText(n, content)
	case "attribute":
		if attr := childByType(n, "identifier"); attr != nil {
			// The last identifier child of an attribute node is the
			// member name (obj.name) per tree-sitter-python's grammar.
			var last *sitter.Node
			for i := 0; i < int(n.ChildCount()); i++ {
				if c := n.Child(i); c.Type() == "identifier" {
					last = c
				}
			}
			if last != nil {
				return nodeText(last, content)
			}
			return nodeText(attr, content)
		}
	}
	return ""
}

func childByType(n *sitter.Node, t string) *sitter.Node {
	for i := 0; i < int(n.ChildCount()); i++ {
		if c := n.Child(i); c.Type() == t {
			return c
		}
	}
	return nil
}

func childText(n *sitter.Node, content []byte, t string) string {
	if c := childByType(n, t); c != nil {
		return nodeText(c, content)
	}
	return ""
}

func nodeText(n *sitter.Node, content []byte) string {
	return string(content[n.StartByte():n.EndByte()])
}

func line(n *sitter.Node) int { return int(n.StartPoint().Row) + 1 }

func firstLine(n *sitter.Node, content []byte) string {
	text := nodeText(n, content)
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		return text[:idx]
	}
	return text
}

func ptr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

var _ strategy.Strategy = (*Strategy)(nil)
