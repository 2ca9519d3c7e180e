package s2_compliance

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// inspection captures what the strategy entry file actually declares,
// gathered in one pass over its syntax tree.
type inspection struct {
	parseFailed bool

	importsStrategyInterface bool
	importsSignal            bool
	inheritsBaseStrategy     bool

	hasGenerateSignal     bool
	generateSignalParams  []string
	returnsSignal         bool
	callsRegisterStrategy bool

	usesSignal    bool
	constructorOK bool
}

var constructorPattern = regexp.MustCompile(`(?s)def\s+__init__\s*\(\s*self\s*,.*?config\s*:\s*[Dd]ict.*?,.*?exchange`)

// inspectStrategy parses the strategy entry file and records the
// interface facts the compliance checks assert on.
func inspectStrategy(ctx context.Context, content []byte) (*inspection, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse strategy file: %w", err)
	}
	defer tree.Close()

	ins := &inspection{}
	if tree.RootNode().HasError() {
		ins.parseFailed = true
		return ins, nil
	}

	text := string(content)
	ins.usesSignal = strings.Contains(text, "Signal(") || strings.Contains(text, "return Signal")
	ins.constructorOK = constructorPattern.MatchString(text)

	walkTree(tree.RootNode(), 0, func(node *sitter.Node) {
		switch node.Type() {
		case "import_from_statement":
			ins.recordImport(node, content)
		case "class_definition":
			ins.recordClass(node, content)
		case "function_definition":
			ins.recordFunction(node, content)
		case "call":
			if fn := node.ChildByFieldName("function"); fn != nil &&
				fn.Type() == "identifier" && nodeText(fn, content) == "register_strategy" {
				ins.callsRegisterStrategy = true
			}
		}
	})
	return ins, nil
}

const maxDepth = 1000

func walkTree(node *sitter.Node, depth int, visit func(*sitter.Node)) {
	if depth > maxDepth {
		return
	}
	visit(node)
	for i := 0; i < int(node.ChildCount()); i++ {
		walkTree(node.Child(i), depth+1, visit)
	}
}

func nodeText(node *sitter.Node, content []byte) string {
	return string(content[node.StartByte():node.EndByte()])
}

func (ins *inspection) recordImport(node *sitter.Node, content []byte) {
	mod := node.ChildByFieldName("module_name")
	if mod == nil || nodeText(mod, content) != "strategy_interface" {
		return
	}
	ins.importsStrategyInterface = true

	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.StartByte() == mod.StartByte() {
			continue
		}
		name := nodeText(child, content)
		if child.Type() == "aliased_import" {
			if orig := child.ChildByFieldName("name"); orig != nil {
				name = nodeText(orig, content)
			}
		}
		if name == "Signal" {
			ins.importsSignal = true
		}
	}
}

func (ins *inspection) recordClass(node *sitter.Node, content []byte) {
	supers := node.ChildByFieldName("superclasses")
	if supers == nil {
		return
	}
	for i := 0; i < int(supers.NamedChildCount()); i++ {
		base := nodeText(supers.NamedChild(i), content)
		if base == "BaseStrategy" || strings.HasSuffix(base, ".BaseStrategy") {
			ins.inheritsBaseStrategy = true
		}
	}
}

func (ins *inspection) recordFunction(node *sitter.Node, content []byte) {
	name := node.ChildByFieldName("name")
	if name == nil || nodeText(name, content) != "generate_signal" {
		return
	}
	ins.hasGenerateSignal = true

	if params := node.ChildByFieldName("parameters"); params != nil {
		for i := 0; i < int(params.NamedChildCount()); i++ {
			ins.generateSignalParams = append(ins.generateSignalParams, paramName(params.NamedChild(i), content))
		}
	}
	if ret := node.ChildByFieldName("return_type"); ret != nil {
		ins.returnsSignal = strings.Contains(nodeText(ret, content), "Signal")
	}
}

// paramName strips type annotations and defaults down to the bare
// parameter identifier.
func paramName(node *sitter.Node, content []byte) string {
	switch node.Type() {
	case "identifier":
		return nodeText(node, content)
	case "typed_parameter", "default_parameter", "typed_default_parameter":
		if name := node.ChildByFieldName("name"); name != nil {
			return nodeText(name, content)
		}
		if node.NamedChildCount() > 0 {
			return paramName(node.NamedChild(0), content)
		}
	}
	return strings.TrimLeft(nodeText(node, content), "*")
}

// signalSignatureOK reports whether generate_signal takes exactly
// (self, market, portfolio).
func (ins *inspection) signalSignatureOK() bool {
	want := []string{"self", "market", "portfolio"}
	if len(ins.generateSignalParams) != len(want) {
		return false
	}
	for i, p := range want {
		if ins.generateSignalParams[i] != p {
			return false
		}
	}
	return true
}
