// Package golang implements the Go language parsing strategy using
// tree-sitter. It recognizes package/import declarations, functions,
// methods, struct and interface types, and top-level var/const blocks, and
// resolves intra-file call edges by walking function and method bodies.
package golang

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"

	"github.com/codeindex-go/codeindex/internal/model"
	"github.com/codeindex-go/codeindex/internal/strategy"
)

// Strategy parses Go source files.
type Strategy struct {
	MaxFileSize int64
}

// New returns a Go strategy with the default file-size guard.
func New() *Strategy {
	return &Strategy{MaxFileSize: strategy.DefaultMaxFileSize}
}

func (s *Strategy) Language() string     { return "go" }
func (s *Strategy) Extensions() []string { return []string{".go"} }

// declInfo tracks a single top-level declaration discovered in the first
// pass, so the second pass can walk its body for call expressions without
// re-scanning the tree for declaration boundaries.
type declInfo struct {
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
	parser.SetLanguage(golang.GetLanguage())
	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, nil, fmt.Errorf("golang: tree-sitter parse failed: %w", err)
	}
	defer tree.Close()
	root := tree.RootNode()

	symbols := make(map[string]*model.SymbolInfo)
	var pkgName *string
	var imports []string
	var functions, classes []string
	var pending []model.PendingCall
	var decls []declInfo

	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(i)
		switch child.Type() {
		case "package_clause":
			for j := 0; j < int(child.ChildCount()); j++ {
				if gc := child.Child(j); gc.Type() == "package_identifier" {
					name := nodeText(gc, content)
					pkgName = &name
				}
			}
		case "import_declaration":
			imports = append(imports, extractImports(child, content)...)
		case "function_declaration":
			name := childText(child, content, "identifier")
			if name == "" {
				continue
			}
			id := strategy.SymbolID(relPath, name)
			symbols[id] = &model.SymbolInfo{
				Kind:      model.KindFunction,
				File:      relPath,
				Line:      line(child),
				Signature: ptr(buildFuncSignature("func", name, child, content)),
				Docstring: precedingDoc(root, child, content),
				CalledBy:  []string{},
			}
			functions = append(functions, name)
			decls = append(decls, declInfo{id: id, node: child})
		case "method_declaration":
			recv := receiverTypeName(child, content)
			name := childText(child, content, "field_identifier")
			if name == "" || recv == "" {
				continue
			}
			qualified := recv + "." + name
			id := strategy.SymbolID(relPath, qualified)
			symbols[id] = &model.SymbolInfo{
				Kind:      model.KindMethod,
				File:      relPath,
				Line:      line(child),
				Signature: ptr(buildFuncSignature("func", qualified, child, content)),
				Docstring: precedingDoc(root, child, content),
				CalledBy:  []string{},
			}
			decls = append(decls, declInfo{id: id, node: child})
		case "type_declaration":
			for j := 0; j < int(child.ChildCount()); j++ {
				spec := child.Child(j)
				if spec.Type() != "type_spec" {
					continue
				}
				name := childText(spec, content, "type_identifier")
				if name == "" {
					continue
				}
				kind := model.KindStruct
				for k := 0; k < int(spec.ChildCount()); k++ {
					switch spec.Child(k).Type() {
					case "interface_type":
						kind = model.KindInterface
					}
				}
				id := strategy.SymbolID(relPath, name)
				symbols[id] = &model.SymbolInfo{
					Kind:      kind,
					File:      relPath,
					Line:      line(spec),
					Signature: ptr(strategy.TrimSignature(firstLine(spec, content))),
					Docstring: precedingDoc(root, child, content),
					CalledBy:  []string{},
				}
				classes = append(classes, name)
			}
		case "var_declaration", "const_declaration":
			kind := model.KindVariable
			if child.Type() == "const_declaration" {
				kind = model.KindConstant
			}
			for _, name := range specNames(child, content) {
				id := strategy.SymbolID(relPath, name)
				symbols[id] = &model.SymbolInfo{
					Kind:      kind,
					File:      relPath,
					Line:      line(child),
					Signature: ptr(strategy.TrimSignature(firstLine(child, content))),
					Docstring: precedingDoc(root, child, content),
					CalledBy:  []string{},
				}
			}
		}
	}

	// Second pass: walk each function/method body for call expressions,
	// resolving against the file-local symbol lookup built above.
	localByName := make(map[string][]string) // simple name -> candidate IDs
	for id := range symbols {
		simple := id[strings.LastIndex(id, "::")+2:]
		if dot := strings.LastIndex(simple, "."); dot >= 0 {
			simple = simple[dot+1:]
		}
		localByName[simple] = append(localByName[simple], id)
	}

	for _, d := range decls {
		body := childByType(d.node, "block")
		if body == nil {
			continue
		}
		for _, callName := range collectCalls(body, content, line(d.node)) {
			if callName == "" {
				continue
			}
			candidates := localByName[callName]
			switch len(candidates) {
			case 0:
				pending = append(pending, model.PendingCall{CallerID: d.id, Callee: callName})
			default:
				for _, targetID := range candidates {
					if targetID == d.id {
						continue
					}
					symbols[targetID].AddCaller(d.id)
				}
			}
		}
	}

	fi := &model.FileInfo{
		Language:  "go",
		LineCount: strings.Count(string(content), "\n") + 1,
		Package:   pkgName,
		Imports:   strategy.DedupPreserveOrder(imports),
		Symbols: model.SymbolSummary{
			Functions: functions,
			Classes:   classes,
		},
		PendingCalls: pending,
	}
	return symbols, fi, nil
}

func receiverTypeName(method *sitter.Node, content []byte) string {
	params := childByType(method, "parameter_list")
	if params == nil || params.ChildCount() == 0 {
		return ""
	}
	param := params.Child(0)
	for i := 0; i < int(param.ChildCount()); i++ {
		c := param.Child(i)
		switch c.Type() {
		case "type_identifier":
			return nodeText(c, content)
		case "pointer_type":
			return childText(c, content, "type_identifier")
		}
	}
	return ""
}

func buildFuncSignature(kw, name string, node *sitter.Node, content []byte) string {
	var paramsText, returnsText string
	if params := node.ChildByFieldName("parameters"); params != nil {
		paramsText = nodeText(params, content)
	}
	if result := node.ChildByFieldName("result"); result != nil {
		returnsText = nodeText(result, content)
	}
	sig := fmt.Sprintf("%s %s%s", kw, name, paramsText)
	if returnsText != "" {
		sig += " " + returnsText
	}
	return strings.TrimSpace(sig)
}

// collectCalls walks a function/method body and returns the simple callee
// name of every call expression, skipping the declaration header line
// (declLine) so a recursive self-reference on the signature line itself is
// never recorded.
func collectCalls(body *sitter.Node, content []byte, declLine int) []string {
	var out []string
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n.Type() == "call_expression" {
			if int(n.StartPoint().Row+1) != declLine {
				fn := n.Child(0)
				if fn != nil {
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
	case "selector_expression":
		field := childByType(n, "field_identifier")
		if field != nil {
			return nodeText(field, content)
		}
	}
	return ""
}

func extractImports(decl *sitter.Node, content []byte) []string {
	var out []string
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n.Type() == "import_spec" {
			if p := childByType(n, "interpreted_string_literal"); p != nil {
				out = append(out, strings.Trim(nodeText(p, content), `"`))
			}
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(decl)
	return out
}

func specNames(decl *sitter.Node, content []byte) []string {
	var out []string
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n.Type() == "var_spec" || n.Type() == "const_spec" {
			for i := 0; i < int(n.ChildCount()); i++ {
				if c := n.Child(i); c.Type() == "identifier" {
					out = append(out, nodeText(c, content))
				}
			}
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(decl)
	return out
}

// precedingDoc returns the contiguous //-comment block (or a single /* */
// block comment) immediately preceding node with no blank-line gap, or nil
// if none exists.
func precedingDoc(root, node *sitter.Node, content []byte) *string {
	var comments []*sitter.Node
	for i := 0; i < int(root.ChildCount()); i++ {
		c := root.Child(i)
		if c.Type() == "comment" {
			comments = append(comments, c)
		}
	}
	targetLine := int(node.StartPoint().Row)
	// Find comments ending on the line directly above the target, then
	// walk upward collecting a contiguous (no blank-line gap) run.
	var run []*sitter.Node
	expectEnd := targetLine - 1
	for i := len(comments) - 1; i >= 0; i-- {
		c := comments[i]
		cEnd := int(c.EndPoint().Row)
		if cEnd == expectEnd {
			run = append([]*sitter.Node{c}, run...)
			expectEnd = int(c.StartPoint().Row) - 1
			continue
		}
		if cEnd < expectEnd {
			break
		}
	}
	if len(run) == 0 {
		return nil
	}
	lines := make([]string, 0, len(run))
	for _, c := range run {
		text := nodeText(c, content)
		text = strings.TrimPrefix(text, "/*")
		text = strings.TrimSuffix(text, "*/")
		text = strings.TrimPrefix(text, "//")
		lines = append(lines, strings.TrimSpace(text))
	}
	doc := strings.TrimSpace(strings.Join(lines, " "))
	if doc == "" {
		return nil
	}
	return &doc
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

func line(n *sitter.Node) int {
	return int(n.StartPoint().Row) + 1
}

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
