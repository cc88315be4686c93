// Package parser provides tree-sitter based structural parsing of source
// files into a language-neutral node tree with line spans.
package parser

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Language represents a supported programming language.
type Language string

const (
	LanguageJava   Language = "java"
	LanguagePython Language = "python"
)

// NodeKind classifies a node in the neutral tree. Downstream components
// operate on these kinds only and never see tree-sitter node types.
type NodeKind string

const (
	KindBlock         NodeKind = "block"
	KindErrorHandling NodeKind = "error_handling"
	KindCatch         NodeKind = "catch"
	KindLoop          NodeKind = "loop"
	KindBranch        NodeKind = "branch"
	KindLogicalOr     NodeKind = "logical_or"
	KindCall          NodeKind = "call"
)

// Node is a language-neutral syntax node with a line span.
type Node struct {
	Kind      NodeKind
	Name      string // call target for KindCall, empty otherwise
	StartLine int
	EndLine   int
	Text      string
	Children  []*Node
}

// Unit is a top-level callable unit (method, constructor, or function).
type Unit struct {
	Name      string
	OwnerType string // enclosing class, empty for free functions
	Signature string
	StartLine int
	EndLine   int
	Text      string
	Body      *Node
}

// File is the result of parsing one source file.
type File struct {
	Path      string
	Language  Language
	Namespace string
	Units     []Unit
	Warnings  []string
}

// ParseError reports a parse failure with a diagnostic position.
type ParseError struct {
	Path string
	Line int
	Col  int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s:%d:%d: %s", e.Path, e.Line, e.Col, e.Msg)
}

// Parser turns one source file into a File of units with neutral node
// trees. Implementations are language-specific; everything downstream is
// not.
type Parser interface {
	ParseFile(path string, source []byte) (*File, error)
}

// langSpec holds the per-language hooks used by the shared tree walk.
type langSpec struct {
	classify  func(n *sitter.Node, src []byte) (NodeKind, bool)
	callName  func(n *sitter.Node, src []byte) string
	namespace func(root *sitter.Node, src []byte, path string) string
	units     func(root *sitter.Node, src []byte) []unitNode
}

// unitNode pairs a callable unit's tree-sitter node with its ownership.
type unitNode struct {
	node      *sitter.Node
	ownerType string
}

// treeParser is the tree-sitter backed Parser.
type treeParser struct {
	language Language
	parser   *sitter.Parser
	spec     langSpec
}

// New creates a parser for the given language.
func New(lang Language) (Parser, error) {
	var spec langSpec
	var l *sitter.Language

	switch lang {
	case LanguageJava:
		l, spec = javaSpec()
	case LanguagePython:
		l, spec = pythonSpec()
	default:
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}

	p := sitter.NewParser()
	p.SetLanguage(l)

	return &treeParser{language: lang, parser: p, spec: spec}, nil
}

// DetectLanguage determines language from file extension.
func DetectLanguage(path string) (Language, bool) {
	switch filepath.Ext(path) {
	case ".java":
		return LanguageJava, true
	case ".py":
		return LanguagePython, true
	default:
		return "", false
	}
}

// ParseFile parses source and extracts callable units. A unit whose
// subtree contains a syntax error is skipped with a warning; the rest of
// the file survives.
func (p *treeParser) ParseFile(path string, source []byte) (*File, error) {
	tree, err := p.parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, &ParseError{Path: path, Line: 1, Col: 1, Msg: err.Error()}
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil, &ParseError{Path: path, Line: 1, Col: 1, Msg: "empty syntax tree"}
	}

	f := &File{
		Path:      path,
		Language:  p.language,
		Namespace: p.spec.namespace(root, source, path),
	}

	for _, un := range p.spec.units(root, source) {
		if un.node.HasError() {
			f.Warnings = append(f.Warnings, fmt.Sprintf(
				"%s:%d: skipping malformed unit", path, startLine(un.node)))
			continue
		}
		unit := p.buildUnit(un, source)
		if unit.Name == "" {
			f.Warnings = append(f.Warnings, fmt.Sprintf(
				"%s:%d: skipping unnamed unit", path, startLine(un.node)))
			continue
		}
		f.Units = append(f.Units, unit)
	}

	return f, nil
}

func (p *treeParser) buildUnit(un unitNode, source []byte) Unit {
	node := un.node

	name := ""
	if n := node.ChildByFieldName("name"); n != nil {
		name = n.Content(source)
	}

	sig := name
	if params := node.ChildByFieldName("parameters"); params != nil {
		sig += params.Content(source)
	} else {
		sig += "()"
	}

	return Unit{
		Name:      name,
		OwnerType: un.ownerType,
		Signature: sig,
		StartLine: startLine(node),
		EndLine:   endLine(node),
		Text:      node.Content(source),
		Body:      p.buildBody(node, source),
	}
}

// buildBody converts a unit's subtree into the neutral tree. Nodes the
// language spec does not classify are transparent: their classified
// descendants attach to the nearest classified ancestor.
func (p *treeParser) buildBody(node *sitter.Node, source []byte) *Node {
	root := &Node{
		Kind:      KindBlock,
		StartLine: startLine(node),
		EndLine:   endLine(node),
		Text:      node.Content(source),
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		root.Children = append(root.Children, p.convert(node.Child(i), source)...)
	}
	return root
}

func (p *treeParser) convert(node *sitter.Node, source []byte) []*Node {
	kind, ok := p.spec.classify(node, source)
	if !ok {
		var out []*Node
		for i := 0; i < int(node.ChildCount()); i++ {
			out = append(out, p.convert(node.Child(i), source)...)
		}
		return out
	}

	n := &Node{
		Kind:      kind,
		StartLine: startLine(node),
		EndLine:   endLine(node),
		Text:      node.Content(source),
	}
	if kind == KindCall {
		n.Name = p.spec.callName(node, source)
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		n.Children = append(n.Children, p.convert(node.Child(i), source)...)
	}
	return []*Node{n}
}

// Walk visits n and every descendant in document order.
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

func startLine(n *sitter.Node) int { return int(n.StartPoint().Row) + 1 }
func endLine(n *sitter.Node) int   { return int(n.EndPoint().Row) + 1 }

// namespaceFromPath derives a dotted namespace from a file path, used
// for languages without an in-source package declaration.
func namespaceFromPath(path string) string {
	dir := filepath.ToSlash(filepath.Dir(path))
	if dir == "." || dir == "/" {
		return ""
	}
	dir = strings.TrimPrefix(dir, "/")
	return strings.ReplaceAll(dir, "/", ".")
}
