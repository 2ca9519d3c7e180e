// Package analyzer performs structural analysis of submitted Python
// sources with tree-sitter: import allow-list enforcement, dangerous
// call detection and environment access checks. Pattern scanning
// catches text-level hits; this package catches what regexes miss,
// plus constructs that need argument inspection.
package analyzer

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/msolomos/contest-arbiter/internal/catalog"
	"github.com/msolomos/contest-arbiter/internal/contracts"
)

// guards against pathological inputs
const (
	maxDepth  = 1000
	maxIssues = 50
)

// Analyzer parses Python sources and walks their syntax trees.
type Analyzer struct{}

// New creates an Analyzer.
func New() *Analyzer {
	return &Analyzer{}
}

// AnalyzeSource inspects one Python file. A file that fails to parse
// yields a single HIGH syntax-error issue and no further structural
// findings; it never aborts the scan of sibling files.
func (a *Analyzer) AnalyzeSource(ctx context.Context, content []byte, filePath string) ([]contracts.Issue, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filePath, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return []contracts.Issue{syntaxErrorIssue(root, filePath)}, nil
	}

	w := &walker{
		content:  content,
		lines:    strings.Split(string(content), "\n"),
		filePath: filePath,
	}
	w.walk(root, 0)
	return w.issues, nil
}

// syntaxErrorIssue locates the first ERROR or MISSING node and
// reports it as a single finding for the whole file.
func syntaxErrorIssue(root *sitter.Node, filePath string) contracts.Issue {
	line := int(root.StartPoint().Row) + 1
	if n := firstErrorNode(root, 0); n != nil {
		line = int(n.StartPoint().Row) + 1
	}
	return contracts.Issue{
		Severity:       contracts.SeverityHigh,
		Category:       catalog.CategorySyntaxError,
		Description:    "Python syntax error",
		FilePath:       filePath,
		LineNumber:     line,
		Recommendation: "Fix the syntax errors",
	}
}

func firstErrorNode(node *sitter.Node, depth int) *sitter.Node {
	if depth > maxDepth {
		return nil
	}
	if node.IsError() || node.IsMissing() {
		return node
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		if found := firstErrorNode(node.Child(i), depth+1); found != nil {
			return found
		}
	}
	return nil
}

type walker struct {
	content  []byte
	lines    []string
	filePath string
	issues   []contracts.Issue
}

func (w *walker) walk(node *sitter.Node, depth int) {
	if depth > maxDepth || len(w.issues) >= maxIssues {
		return
	}

	switch node.Type() {
	case "import_statement", "import_from_statement":
		w.checkImport(node)
	case "call":
		w.checkCall(node)
	case "attribute":
		w.checkAttribute(node)
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		w.walk(node.Child(i), depth+1)
	}
}

func (w *walker) text(node *sitter.Node) string {
	return string(w.content[node.StartByte():node.EndByte()])
}

func (w *walker) line(node *sitter.Node) (int, string) {
	row := int(node.StartPoint().Row)
	snippet := ""
	if row < len(w.lines) {
		snippet = strings.TrimSpace(w.lines[row])
	}
	return row + 1, snippet
}

func (w *walker) add(sev contracts.Severity, category, description, recommendation string, node *sitter.Node) {
	line, snippet := w.line(node)
	w.issues = append(w.issues, contracts.Issue{
		Severity:       sev,
		Category:       category,
		Description:    description,
		FilePath:       w.filePath,
		LineNumber:     line,
		CodeSnippet:    snippet,
		Recommendation: recommendation,
	})
}

// checkImport enforces the import allow-list. Contest-common local
// modules pass; strategy-collection names are flagged harder than
// ordinary unknown modules.
func (w *walker) checkImport(node *sitter.Node) {
	for _, module := range w.importedModules(node) {
		if catalog.ImportAllowed(module) {
			continue
		}
		if catalog.IsStrategyImport(module) {
			w.add(contracts.SeverityMedium, catalog.CategoryStrategyImport,
				fmt.Sprintf("Import of strategy module: %s (potential strategy collection)", module),
				"Contest submissions should contain one strategy, not collections", node)
		} else {
			w.add(contracts.SeverityLow, catalog.CategoryUnapprovedImport,
				fmt.Sprintf("Import of non-whitelisted module: %s", module),
				"Remove or explicitly document the need for this module", node)
		}
	}
}

// importedModules returns the top-level module names referenced by an
// import node. Relative imports resolve inside the submission and are
// skipped.
func (w *walker) importedModules(node *sitter.Node) []string {
	var modules []string

	topLevel := func(dotted string) string {
		if i := strings.Index(dotted, "."); i >= 0 {
			return dotted[:i]
		}
		return dotted
	}

	if node.Type() == "import_from_statement" {
		if mod := node.ChildByFieldName("module_name"); mod != nil {
			name := w.text(mod)
			if !strings.HasPrefix(name, ".") {
				modules = append(modules, topLevel(name))
			}
		}
		return modules
	}

	// import a.b, c as d
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "dotted_name":
			modules = append(modules, topLevel(w.text(child)))
		case "aliased_import":
			if name := child.ChildByFieldName("name"); name != nil {
				modules = append(modules, topLevel(w.text(name)))
			}
		}
	}
	return modules
}

func (w *walker) checkCall(node *sitter.Node) {
	fn := node.ChildByFieldName("function")
	if fn == nil {
		return
	}

	switch fn.Type() {
	case "identifier":
		switch name := w.text(fn); name {
		case "exec", "eval", "compile", "__import__":
			w.add(contracts.SeverityCritical, catalog.CategoryCodeInjection,
				fmt.Sprintf("Dangerous code execution function: %s", name),
				"Remove dynamic code execution", node)
		case "open":
			w.checkOpenCall(node)
		}
	case "attribute":
		obj := fn.ChildByFieldName("object")
		if obj != nil && obj.Type() == "identifier" && w.text(obj) == "subprocess" {
			w.checkSubprocessCall(node)
		}
	}
}

// checkSubprocessCall flags subprocess usage, with one contest
// exception: a pip install whose final token is exactly yfinance.
func (w *walker) checkSubprocessCall(node *sitter.Node) {
	if w.isYfinanceInstall(node) {
		w.add(contracts.SeverityLow, catalog.CategoryDependencyMgmt,
			"Runtime pip install for yfinance (contest acceptable)",
			"Pre-install dependencies where possible; acceptable for yfinance", node)
		return
	}
	w.add(contracts.SeverityCritical, catalog.CategorySystemAccess,
		"Subprocess call detected - potential system access",
		"Remove subprocess calls unless strictly necessary", node)
}

func (w *walker) isYfinanceInstall(node *sitter.Node) bool {
	args := node.ChildByFieldName("arguments")
	if args == nil {
		return false
	}

	for i := 0; i < int(args.NamedChildCount()); i++ {
		arg := args.NamedChild(i)
		if arg.Type() != "list" {
			continue
		}

		var tokens []string
		for j := 0; j < int(arg.NamedChildCount()); j++ {
			item := arg.NamedChild(j)
			if item.Type() == "string" {
				tokens = append(tokens, stringLiteral(w.text(item)))
			}
		}

		command := strings.Join(tokens, " ")
		fields := strings.Fields(command)
		if strings.Contains(command, "pip") && strings.Contains(command, "install") &&
			strings.Contains(command, "yfinance") &&
			len(fields) > 0 && fields[len(fields)-1] == "yfinance" {
			return true
		}
	}
	return false
}

// reportFileTokens soften write-mode severity: artifacts a backtest
// legitimately produces.
var reportFileTokens = []string{".md", ".txt", ".log", ".csv", ".json", "report", "backtest"}

// checkOpenCall flags open() in a write mode. Writes to report-style
// artifacts are MEDIUM; anything else is HIGH.
func (w *walker) checkOpenCall(node *sitter.Node) {
	args := node.ChildByFieldName("arguments")
	if args == nil {
		return
	}

	var positional []*sitter.Node
	for i := 0; i < int(args.NamedChildCount()); i++ {
		arg := args.NamedChild(i)
		if arg.Type() == "keyword_argument" {
			continue
		}
		positional = append(positional, arg)
	}

	if len(positional) < 2 || positional[1].Type() != "string" {
		return
	}
	mode := stringLiteral(w.text(positional[1]))
	if !strings.ContainsAny(mode, "wax") {
		return
	}

	isReportFile := false
	if positional[0].Type() == "string" {
		filename := strings.ToLower(stringLiteral(w.text(positional[0])))
		for _, token := range reportFileTokens {
			if strings.Contains(filename, token) {
				isReportFile = true
				break
			}
		}
	}

	severity := contracts.SeverityHigh
	description := fmt.Sprintf("File write operation detected: mode=%s", mode)
	recommendation := "Remove file writes unless strictly necessary"
	if isReportFile {
		severity = contracts.SeverityMedium
		description += " (report file)"
		recommendation = "Report file write - acceptable for backtest results"
	}
	w.add(severity, catalog.CategoryFileWrite, description, recommendation, node)
}

// checkAttribute flags environment variable access.
func (w *walker) checkAttribute(node *sitter.Node) {
	obj := node.ChildByFieldName("object")
	attr := node.ChildByFieldName("attribute")
	if obj == nil || attr == nil {
		return
	}
	if obj.Type() != "identifier" || w.text(obj) != "os" {
		return
	}
	if name := w.text(attr); name == "environ" || name == "getenv" {
		w.add(contracts.SeverityMedium, catalog.CategoryEnvAccess,
			"Access to environment variables detected",
			"Remove environment variable access unless strictly necessary", node)
	}
}

// stringLiteral strips quotes and common prefixes from a Python
// string literal's source text.
func stringLiteral(raw string) string {
	s := strings.TrimLeft(raw, "rbfuRBFU")
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if strings.HasPrefix(s, q) && strings.HasSuffix(s, q) && len(s) >= 2*len(q) {
			return s[len(q) : len(s)-len(q)]
		}
	}
	return s
}
