package parser

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"
)

func javaSpec() (*sitter.Language, langSpec) {
	return java.GetLanguage(), langSpec{
		classify:  classifyJava,
		callName:  javaCallName,
		namespace: javaNamespace,
		units:     javaUnits,
	}
}

func classifyJava(n *sitter.Node, src []byte) (NodeKind, bool) {
	switch n.Type() {
	case "try_statement", "try_with_resources_statement":
		return KindErrorHandling, true
	case "catch_clause":
		return KindCatch, true
	case "if_statement", "ternary_expression", "switch_expression":
		return KindBranch, true
	case "for_statement", "enhanced_for_statement", "while_statement", "do_statement":
		return KindLoop, true
	case "binary_expression":
		if op := n.ChildByFieldName("operator"); op != nil && op.Content(src) == "||" {
			return KindLogicalOr, true
		}
		return "", false
	case "method_invocation":
		return KindCall, true
	default:
		return "", false
	}
}

func javaCallName(n *sitter.Node, src []byte) string {
	if name := n.ChildByFieldName("name"); name != nil {
		return name.Content(src)
	}
	return ""
}

func javaNamespace(root *sitter.Node, src []byte, _ string) string {
	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(i)
		if child.Type() != "package_declaration" {
			continue
		}
		for j := 0; j < int(child.ChildCount()); j++ {
			c := child.Child(j)
			if c.Type() == "scoped_identifier" || c.Type() == "identifier" {
				return c.Content(src)
			}
		}
	}
	return ""
}

// javaUnits enumerates methods and constructors of every class,
// interface, and enum declaration, nested ones included.
func javaUnits(root *sitter.Node, src []byte) []unitNode {
	var units []unitNode
	collectJavaUnits(root, src, &units)
	return units
}

func collectJavaUnits(n *sitter.Node, src []byte, units *[]unitNode) {
	switch n.Type() {
	case "class_declaration", "interface_declaration", "enum_declaration":
		owner := ""
		if name := n.ChildByFieldName("name"); name != nil {
			owner = name.Content(src)
		}
		if body := n.ChildByFieldName("body"); body != nil {
			for i := 0; i < int(body.ChildCount()); i++ {
				child := body.Child(i)
				switch child.Type() {
				case "method_declaration", "constructor_declaration":
					*units = append(*units, unitNode{node: child, ownerType: owner})
				default:
					collectJavaUnits(child, src, units)
				}
			}
		}
		return
	}

	for i := 0; i < int(n.ChildCount()); i++ {
		collectJavaUnits(n.Child(i), src, units)
	}
}
