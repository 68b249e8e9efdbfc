// Package csharp implements the C# parsing strategy on top of the shared
// cstree extraction engine. Constructors are resolved to
// "Namespace.Class.#ctor" per the spec's C# symbol-ID convention.
package csharp

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/csharp"

	"github.com/codeindex-go/codeindex/internal/model"
	"github.com/codeindex-go/codeindex/internal/strategy"
	"github.com/codeindex-go/codeindex/internal/strategy/cstree"
)

var cfg = cstree.Config{
	ClassKinds: map[string]model.SymbolKind{
		"class_declaration":     model.KindClass,
		"struct_declaration":    model.KindStruct,
		"interface_declaration": model.KindInterface,
		"enum_declaration":      model.KindEnum,
	},
	FunctionNodeTypes: map[string]struct{}{
		"method_declaration":      {},
		"constructor_declaration": {},
	},
	ConstructorNodeTypes: map[string]struct{}{
		"constructor_declaration": {},
	},
	BodyFieldNames: []string{"body"},
	CallNodeType:   "invocation_expression",
	CallCalleeField: "function",
	MemberAccessNodeTypes: map[string]struct{}{
		"member_access_expression": {},
	},
}

// Strategy parses C# source files.
type Strategy struct {
	MaxFileSize int64
}

// New returns a C# strategy with the default file-size guard.
func New() *Strategy {
	return &Strategy{MaxFileSize: strategy.DefaultMaxFileSize}
}

func (s *Strategy) Language() string     { return "csharp" }
func (s *Strategy) Extensions() []string { return []string{".cs"} }

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
	parser.SetLanguage(csharp.GetLanguage())
	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, nil, fmt.Errorf("csharp: tree-sitter parse failed: %w", err)
	}
	defer tree.Close()
	root := tree.RootNode()

	res := cstree.Walk(cfg, root, relPath, content)
	renameConstructors(res, relPath)
	namespace := extractNamespace(root, content)
	if namespace != nil {
		prefixQualifiedNames(res, relPath, *namespace)
	}
	pending := cstree.ResolveCalls(cfg, res, content)

	fi := &model.FileInfo{
		Language:  "csharp",
		LineCount: strings.Count(string(content), "\n") + 1,
		Package:   namespace,
		Imports:   strategy.DedupPreserveOrder(extractUsings(root, content)),
		Symbols: model.SymbolSummary{
			Functions: res.Functions,
			Classes:   res.Classes,
		},
		PendingCalls: pending,
	}
	return res.Symbols, fi, nil
}

// renameConstructors moves constructor symbols from their generic
// "Class.Class" qualified name (the generic walk uses the constructor
// node's own name field, which for C# is the class name repeated) to the
// "Class.#ctor" convention spec.md §3 shows.
func renameConstructors(res *cstree.Result, relPath string) {
	prefix := relPath + "::"
	for id, sym := range res.Symbols {
		if sym.Kind != model.KindConstructor {
			continue
		}
		qualified := strings.TrimPrefix(id, prefix)
		lastDot := strings.LastIndex(qualified, ".")
		if lastDot < 0 {
			continue
		}
		newQualified := qualified[:lastDot] + ".#ctor"
		newID := prefix + newQualified
		if newID == id {
			continue
		}
		res.Symbols[newID] = sym
		delete(res.Symbols, id)
		for i := range res.Decls {
			if res.Decls[i].ID == id {
				res.Decls[i].ID = newID
			}
		}
	}
}

// prefixQualifiedNames prepends the enclosing namespace as the outermost
// dot segment of every symbol ID, matching spec.md §3's
// "Namespace.Class.#ctor" convention for C#.
func prefixQualifiedNames(res *cstree.Result, relPath, namespace string) {
	prefix := relPath + "::"
	rename := make(map[string]string, len(res.Symbols))
	for id := range res.Symbols {
		qualified := strings.TrimPrefix(id, prefix)
		rename[id] = prefix + namespace + "." + qualified
	}
	newSymbols := make(map[string]*model.SymbolInfo, len(res.Symbols))
	for id, sym := range res.Symbols {
		newSymbols[rename[id]] = sym
	}
	res.Symbols = newSymbols
	for i := range res.Decls {
		if newID, ok := rename[res.Decls[i].ID]; ok {
			res.Decls[i].ID = newID
		}
	}
}

func extractNamespace(root *sitter.Node, content []byte) *string {
	var found *string
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if found != nil {
			return
		}
		if n.Type() == "namespace_declaration" || n.Type() == "file_scoped_namespace_declaration" {
			if name := n.ChildByFieldName("name"); name != nil {
				text := nodeText(name, content)
				found = &text
				return
			}
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(root)
	return found
}

func extractUsings(root *sitter.Node, content []byte) []string {
	var out []string
	for i := 0; i < int(root.ChildCount()); i++ {
		c := root.Child(i)
		if c.Type() == "using_directive" {
			if name := c.ChildByFieldName("name"); name != nil {
				out = append(out, nodeText(name, content))
			}
		}
	}
	return out
}

func nodeText(n *sitter.Node, content []byte) string {
	return string(content[n.StartByte():n.EndByte()])
}

var _ strategy.Strategy = (*Strategy)(nil)
