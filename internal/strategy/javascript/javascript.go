// Package javascript implements the TypeScript and JavaScript parsing
// strategies. Both share the cstree extraction engine; they
// differ only in the tree-sitter grammar injected at construction time,
// since TypeScript's grammar is a superset of JavaScript's for the node
// types this package cares about (class, function, method, call, member
// access).
package javascript

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/codeindex-go/codeindex/internal/model"
	"github.com/codeindex-go/codeindex/internal/strategy"
	"github.com/codeindex-go/codeindex/internal/strategy/cstree"
)

var cfg = cstree.Config{
	ClassKinds: map[string]model.SymbolKind{
		"class_declaration":     model.KindClass,
		"interface_declaration": model.KindInterface,
		"enum_declaration":      model.KindEnum,
	},
	FunctionNodeTypes: map[string]struct{}{
		"function_declaration": {},
		"method_definition":    {},
	},
	BodyFieldNames: []string{"body"},
	CallNodeType:   "call_expression",
	CallCalleeField: "function",
	MemberAccessNodeTypes: map[string]struct{}{
		"member_expression": {},
	},
}

// Strategy parses TypeScript or JavaScript source, selected by the
// tree-sitter language injected at construction.
type Strategy struct {
	langName    string
	extensions  []string
	grammar     func() *sitter.Language
	MaxFileSize int64
}

// NewTypeScript returns a strategy for .ts/.tsx files.
func NewTypeScript() *Strategy {
	return &Strategy{
		langName:    "typescript",
		extensions:  []string{".ts", ".tsx"},
		grammar:     typescript.GetLanguage,
		MaxFileSize: strategy.DefaultMaxFileSize,
	}
}

// NewJavaScript returns a strategy for .js/.jsx/.mjs/.cjs files.
func NewJavaScript() *Strategy {
	return &Strategy{
		langName:    "javascript",
		extensions:  []string{".js", ".jsx", ".mjs", ".cjs"},
		grammar:     javascript.GetLanguage,
		MaxFileSize: strategy.DefaultMaxFileSize,
	}
}

func (s *Strategy) Language() string     { return s.langName }
func (s *Strategy) Extensions() []string { return s.extensions }

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
	parser.SetLanguage(s.grammar())
	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: tree-sitter parse failed: %w", s.langName, err)
	}
	defer tree.Close()
	root := tree.RootNode()

	res := cstree.Walk(cfg, root, relPath, content)
	pending := cstree.ResolveCalls(cfg, res, content)

	fi := &model.FileInfo{
		Language:  s.langName,
		LineCount: strings.Count(string(content), "\n") + 1,
		Imports:   strategy.DedupPreserveOrder(extractImports(root, content)),
		Symbols: model.SymbolSummary{
			Functions: res.Functions,
			Classes:   res.Classes,
		},
		PendingCalls: pending,
	}
	return res.Symbols, fi, nil
}

func extractImports(root *sitter.Node, content []byte) []string {
	var out []string
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n.Type() == "import_statement" {
			if src := n.ChildByFieldName("source"); src != nil {
				out = append(out, strings.Trim(nodeText(src, content), `"'`))
			}
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(root)
	return out
}

func nodeText(n *sitter.Node, content []byte) string {
	return string(content[n.StartByte():n.EndByte()])
}

var _ strategy.Strategy = (*Strategy)(nil)
