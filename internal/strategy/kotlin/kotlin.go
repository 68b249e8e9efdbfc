// Package kotlin implements the Kotlin parsing strategy on top of the
// shared cstree extraction engine.
//
// Kotlin's grammar represents classes and interfaces with the same
// "class_declaration" node type distinguished only by a leading keyword
// token, so this strategy runs the generic class walk and then reclassifies
// declarations whose header starts with "interface". Objects have their own
// "object_declaration" node type and are recorded with the struct kind.
package kotlin

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/kotlin"

	"github.com/codeindex-go/codeindex/internal/model"
	"github.com/codeindex-go/codeindex/internal/strategy"
	"github.com/codeindex-go/codeindex/internal/strategy/cstree"
)

var cfg = cstree.Config{
	ClassKinds: map[string]model.SymbolKind{
		"class_declaration":  model.KindClass,
		"object_declaration": model.KindStruct,
	},
	FunctionNodeTypes: map[string]struct{}{
		"function_declaration": {},
	},
	BodyFieldNames: []string{"body"},
	CallNodeType:   "call_expression",
	CallCalleeField: "function",
	MemberAccessNodeTypes: map[string]struct{}{
		"navigation_expression": {},
	},
}

// Strategy parses Kotlin source files.
type Strategy struct {
	MaxFileSize int64
}

// New returns a Kotlin strategy with the default file-size guard.
func New() *Strategy {
	return &Strategy{MaxFileSize: strategy.DefaultMaxFileSize}
}

func (s *Strategy) Language() string     { return "kotlin" }
func (s *Strategy) Extensions() []string { return []string{".kt", ".kts"} }

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
	parser.SetLanguage(kotlin.GetLanguage())
	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, nil, fmt.Errorf("kotlin: tree-sitter parse failed: %w", err)
	}
	defer tree.Close()
	root := tree.RootNode()

	res := cstree.Walk(cfg, root, relPath, content)
	reclassifyInterfaces(res)
	pending := cstree.ResolveCalls(cfg, res, content)

	fi := &model.FileInfo{
		Language:  "kotlin",
		LineCount: strings.Count(string(content), "\n") + 1,
		Package:   extractPackage(root, content),
		Imports:   strategy.DedupPreserveOrder(extractImports(root, content)),
		Symbols: model.SymbolSummary{
			Functions: res.Functions,
			Classes:   res.Classes,
		},
		PendingCalls: pending,
	}
	return res.Symbols, fi, nil
}

// reclassifyInterfaces fixes up class_declaration nodes whose header opens
// with "interface" — tree-sitter-kotlin does not give interfaces a
// distinct node type.
func reclassifyInterfaces(res *cstree.Result) {
	for _, sym := range res.Symbols {
		if sym.Kind != model.KindClass || sym.Signature == nil {
			continue
		}
		header := strings.TrimSpace(*sym.Signature)
		if strings.HasPrefix(header, "interface ") {
			sym.Kind = model.KindInterface
		}
	}
}

func extractPackage(root *sitter.Node, content []byte) *string {
	for i := 0; i < int(root.ChildCount()); i++ {
		c := root.Child(i)
		if c.Type() == "package_header" {
			name := strings.TrimSpace(strings.TrimPrefix(nodeText(c, content), "package"))
			if name != "" {
				return &name
			}
		}
	}
	return nil
}

func extractImports(root *sitter.Node, content []byte) []string {
	var out []string
	for i := 0; i < int(root.ChildCount()); i++ {
		c := root.Child(i)
		if c.Type() == "import_header" {
			name := strings.TrimSpace(strings.TrimPrefix(nodeText(c, content), "import"))
			if name != "" {
				out = append(out, name)
			}
		}
	}
	return out
}

func nodeText(n *sitter.Node, content []byte) string {
	return string(content[n.StartByte():n.EndByte()])
}

var _ strategy.Strategy = (*Strategy)(nil)
