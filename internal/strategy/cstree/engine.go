// Package cstree implements the shared extraction engine (a declaration
// walk followed by a call-resolution pass) used by the concrete-syntax-tree based strategies (TypeScript, JavaScript,
// Kotlin, C#). Each of those grammars differs in exact node-type names but
// shares the same shape: class-like containers, function/method members,
// and call expressions resolved against an in-file name lookup. Rather than
// duplicate the traversal four times, the shape is factored into Config and
// the walk lives here once.
package cstree

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/codeindex-go/codeindex/internal/model"
	"github.com/codeindex-go/codeindex/internal/strategy"
)

// Config describes one grammar's node vocabulary for the shared traversal.
type Config struct {
	// ClassKinds maps a class-like node type to the SymbolKind it produces
	// (class, struct, interface, enum).
	ClassKinds map[string]model.SymbolKind

	// FunctionNodeTypes lists node types that declare a function or method.
	FunctionNodeTypes map[string]struct{}

	// ConstructorNodeTypes lists node types that declare a constructor
	// distinctly from a regular method (C#'s constructor_declaration).
	// May be empty if the grammar has no separate constructor node
	// (constructors are then just a method named like the class).
	ConstructorNodeTypes map[string]struct{}

	// BodyFieldNames lists the field names, tried in order, that hold a
	// class/function's body block.
	BodyFieldNames []string

	// CallNodeType is the node type for a function/method call expression.
	CallNodeType string

	// CallCalleeField is the field name on a call node holding the callee
	// expression (identifier or member access).
	CallCalleeField string

	// MemberAccessNodeTypes lists node types representing `obj.member`
	// style access, whose rightmost name should be used as the call's
	// simple name.
	MemberAccessNodeTypes map[string]struct{}
}

// Decl is one extracted function or method declaration, recorded so the
// second pass can walk its body for calls without re-walking the tree.
type Decl struct {
	ID   string
	Node *sitter.Node
}

// Result is the generic traversal's output before it's wrapped into the
// model.FileInfo the Strategy.ParseFile contract returns.
type Result struct {
	Symbols   map[string]*model.SymbolInfo
	Functions []string
	Classes   []string
	Decls     []Decl
}

// Walk performs a depth-first descent carrying the enclosing class path,
// producing class/function/method symbols as it goes. It does not track the
// enclosing function and does not look at call sites; calls are attributed
// afterwards by ResolveCalls, which walks each recorded Decl's body.
func Walk(cfg Config, root *sitter.Node, relPath string, content []byte) *Result {
	res := &Result{Symbols: make(map[string]*model.SymbolInfo)}

	var walk func(n *sitter.Node, classPath string)
	walk = func(n *sitter.Node, classPath string) {
		if kind, ok := cfg.ClassKinds[n.Type()]; ok {
			name := fieldText(n, content, "name")
			if name != "" {
				qualified := name
				if classPath != "" {
					qualified = classPath + "." + name
				}
				id := strategy.SymbolID(relPath, qualified)
				res.Symbols[id] = &model.SymbolInfo{
					Kind:      kind,
					File:      relPath,
					Line:      line(n),
					Signature: ptr(strategy.TrimSignature(firstLine(n, content))),
					Docstring: precedingDoc(n, content),
					CalledBy:  []string{},
				}
				res.Classes = append(res.Classes, qualified)
				body := firstBody(n, cfg.BodyFieldNames)
				if body != nil {
					for i := 0; i < int(body.ChildCount()); i++ {
						walk(body.Child(i), qualified)
					}
				}
				return
			}
		}

		if _, ok := cfg.FunctionNodeTypes[n.Type()]; ok {
			name := fieldText(n, content, "name")
			if name != "" {
				kind := model.KindFunction
				qualified := name
				if classPath != "" {
					kind = model.KindMethod
					qualified = classPath + "." + name
					if _, isCtor := cfg.ConstructorNodeTypes[n.Type()]; isCtor {
						kind = model.KindConstructor
					}
				}
				id := strategy.SymbolID(relPath, qualified)
				res.Symbols[id] = &model.SymbolInfo{
					Kind:      kind,
					File:      relPath,
					Line:      line(n),
					Signature: ptr(strategy.TrimSignature(firstLine(n, content))),
					Docstring: precedingDoc(n, content),
					CalledBy:  []string{},
				}
				if classPath == "" {
					res.Functions = append(res.Functions, name)
				}
				res.Decls = append(res.Decls, Decl{ID: id, Node: n})
			}
			// Functions/methods don't introduce a new class scope: nested
			// classes and functions inside them are still extracted, with
			// the same enclosing class path as the function itself.
			for i := 0; i < int(n.ChildCount()); i++ {
				walk(n.Child(i), classPath)
			}
			return
		}

		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i), classPath)
		}
	}
	walk(root, "")
	return res
}

// ResolveCalls runs the second pass: for each declared function/method,
// walk its body for call expressions and resolve each callee against the
// file-local name lookup, recording resolved edges on the callee's
// CalledBy and returning unresolved (caller, simpleName) pairs.
func ResolveCalls(cfg Config, res *Result, content []byte) []model.PendingCall {
	localByName := make(map[string][]string)
	for id := range res.Symbols {
		simple := id[strings.LastIndex(id, "::")+2:]
		if dot := strings.LastIndex(simple, "."); dot >= 0 {
			simple = simple[dot+1:]
		}
		localByName[simple] = append(localByName[simple], id)
	}

	var pending []model.PendingCall
	for _, d := range res.Decls {
		body := firstBody(d.Node, cfg.BodyFieldNames)
		if body == nil {
			continue
		}
		declLine := line(d.Node)
		var walk func(n *sitter.Node)
		walk = func(n *sitter.Node) {
			if n.Type() == cfg.CallNodeType && int(n.StartPoint().Row+1) != declLine {
				callee := n.ChildByFieldName(cfg.CallCalleeField)
				if callee != nil {
					name := calleeSimpleName(cfg, callee, content)
					if name != "" {
						candidates := localByName[name]
						if len(candidates) == 0 {
							pending = append(pending, model.PendingCall{CallerID: d.ID, Callee: name})
						} else {
							for _, targetID := range candidates {
								if targetID == d.ID {
									continue
								}
								res.Symbols[targetID].AddCaller(d.ID)
							}
						}
					}
				}
			}
			for i := 0; i < int(n.ChildCount()); i++ {
				walk(n.Child(i))
			}
		}
		walk(body)
	}
	return pending
}

func calleeSimpleName(cfg Config, n *sitter.Node, content []byte) string {
	if _, ok := cfg.MemberAccessNodeTypes[n.Type()]; ok {
		if prop := n.ChildByFieldName("property"); prop != nil {
			return nodeText(prop, content)
		}
		if name := n.ChildByFieldName("name"); name != nil {
			return nodeText(name, content)
		}
		// Fall back to the last identifier-like child.
		var last *sitter.Node
		for i := 0; i < int(n.ChildCount()); i++ {
			c := n.Child(i)
			if strings.Contains(c.Type(), "identifier") {
				last = c
			}
		}
		if last != nil {
			return nodeText(last, content)
		}
		return ""
	}
	if strings.Contains(n.Type(), "identifier") {
		return nodeText(n, content)
	}
	return ""
}

func firstBody(n *sitter.Node, fields []string) *sitter.Node {
	for _, f := range fields {
		if b := n.ChildByFieldName(f); b != nil {
			return b
		}
	}
	return nil
}

func fieldText(n *sitter.Node, content []byte, field string) string {
	c := n.ChildByFieldName(field)
	if c == nil {
		return ""
	}
	return nodeText(c, content)
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

// precedingDoc returns the contiguous comment block (// or /* */)
// immediately preceding n with no blank-line gap among n's previous
// siblings, matching the same convention used by the Go strategy.
func precedingDoc(n *sitter.Node, content []byte) *string {
	parent := n.Parent()
	if parent == nil {
		return nil
	}
	var idx int = -1
	for i := 0; i < int(parent.ChildCount()); i++ {
		if parent.Child(i) == n {
			idx = i
			break
		}
	}
	if idx <= 0 {
		return nil
	}
	var comments []*sitter.Node
	expectEnd := int(n.StartPoint().Row) - 1
	for i := idx - 1; i >= 0; i-- {
		sib := parent.Child(i)
		if !strings.Contains(sib.Type(), "comment") {
			break
		}
		if int(sib.EndPoint().Row) != expectEnd {
			break
		}
		comments = append([]*sitter.Node{sib}, comments...)
		expectEnd = int(sib.StartPoint().Row) - 1
	}
	if len(comments) == 0 {
		return nil
	}
	var lines []string
	for _, c := range comments {
		text := nodeText(c, content)
		text = strings.TrimPrefix(text, "/**")
		text = strings.TrimPrefix(text, "/*")
		text = strings.TrimSuffix(text, "*/")
		text = strings.TrimPrefix(text, "///")
		text = strings.TrimPrefix(text, "//")
		text = strings.TrimPrefix(text, "*")
		lines = append(lines, strings.TrimSpace(text))
	}
	doc := strings.TrimSpace(strings.Join(lines, " "))
	if doc == "" {
		return nil
	}
	return &doc
}

func ptr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
