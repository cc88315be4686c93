package parser

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

func pythonSpec() (*sitter.Language, langSpec) {
	return python.GetLanguage(), langSpec{
		classify:  classifyPython,
		callName:  pythonCallName,
		namespace: pythonNamespace,
		units:     pythonUnits,
	}
}

func classifyPython(n *sitter.Node, src []byte) (NodeKind, bool) {
	switch n.Type() {
	case "try_statement":
		return KindErrorHandling, true
	case "except_clause":
		return KindCatch, true
	case "if_statement", "conditional_expression":
		return KindBranch, true
	case "for_statement", "while_statement":
		return KindLoop, true
	case "boolean_operator":
		if op := n.ChildByFieldName("operator"); op != nil && op.Content(src) == "or" {
			return KindLogicalOr, true
		}
		return "", false
	case "call":
		return KindCall, true
	default:
		return "", false
	}
}

func pythonCallName(n *sitter.Node, src []byte) string {
	fn := n.ChildByFieldName("function")
	if fn == nil {
		return ""
	}
	switch fn.Type() {
	case "identifier":
		return fn.Content(src)
	case "attribute":
		if attr := fn.ChildByFieldName("attribute"); attr != nil {
			return attr.Content(src)
		}
	}
	return ""
}

// Python has no package declaration; the namespace is derived from the
// file path, e.g. booking/service/orders.py -> booking.service.
func pythonNamespace(_ *sitter.Node, _ []byte, path string) string {
	return namespaceFromPath(path)
}

// pythonUnits enumerates module-level functions and class methods.
// Nested functions stay part of their parent unit's body.
func pythonUnits(root *sitter.Node, src []byte) []unitNode {
	var units []unitNode

	for i := 0; i < int(root.ChildCount()); i++ {
		child := unwrapDecorated(root.Child(i))
		switch child.Type() {
		case "function_definition":
			units = append(units, unitNode{node: child})
		case "class_definition":
			owner := ""
			if name := child.ChildByFieldName("name"); name != nil {
				owner = name.Content(src)
			}
			if body := child.ChildByFieldName("body"); body != nil {
				for j := 0; j < int(body.ChildCount()); j++ {
					method := unwrapDecorated(body.Child(j))
					if method.Type() == "function_definition" {
						units = append(units, unitNode{node: method, ownerType: owner})
					}
				}
			}
		}
	}

	return units
}

func unwrapDecorated(n *sitter.Node) *sitter.Node {
	if n.Type() != "decorated_definition" {
		return n
	}
	if def := n.ChildByFieldName("definition"); def != nil {
		return def
	}
	return n
}
