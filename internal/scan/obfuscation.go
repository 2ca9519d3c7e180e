package scan

import (
	"regexp"
	"strings"

	"github.com/msolomos/contest-arbiter/internal/catalog"
	"github.com/msolomos/contest-arbiter/internal/contracts"
)

// base64-alphabet string literal of 100+ chars
var longEncodedLiteral = regexp.MustCompile(`["'][A-Za-z0-9+/]{100,}={0,2}["']`)

const (
	// context window, in lines, around an encoded literal
	obfuscationWindow = 3
	// density threshold for the standalone encoding warning
	encodedCharThreshold = 200
)

// Obfuscation flags long encoded literals. A literal whose surrounding
// window contains both a decode token and an exec token is CRITICAL;
// otherwise a very dense base64-alphabet line is HIGH.
func Obfuscation(content, filePath string) []contracts.Issue {
	var issues []contracts.Issue
	lines := strings.Split(content, "\n")

	for idx, line := range lines {
		if !longEncodedLiteral.MatchString(line) {
			continue
		}

		// two lines either side of the literal
		lo := idx - obfuscationWindow + 1
		if lo < 0 {
			lo = 0
		}
		hi := idx + obfuscationWindow
		if hi > len(lines) {
			hi = len(lines)
		}
		context := strings.Join(lines[lo:hi], "\n")

		if strings.Contains(context, "base64") &&
			(strings.Contains(context, "exec") || strings.Contains(context, "eval")) {
			issues = append(issues, contracts.Issue{
				Severity:       contracts.SeverityCritical,
				Category:       catalog.CategoryObfuscation,
				Description:    "Potential obfuscated code execution detected",
				FilePath:       filePath,
				LineNumber:     idx + 1,
				CodeSnippet:    snippet(line),
				Recommendation: "Remove obfuscated code; all submitted code must be readable",
			})
		} else if countBase64Chars(line) > encodedCharThreshold {
			issues = append(issues, contracts.Issue{
				Severity:       contracts.SeverityHigh,
				Category:       catalog.CategoryEncoding,
				Description:    "Very long encoded string detected",
				FilePath:       filePath,
				LineNumber:     idx + 1,
				CodeSnippet:    snippet(line),
				Recommendation: "Explain the need for this encoded string",
			})
		}
	}

	return issues
}

func countBase64Chars(line string) int {
	n := 0
	for _, c := range line {
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '+', c == '/':
			n++
		}
	}
	return n
}

func snippet(line string) string {
	s := strings.TrimSpace(line)
	if len(s) > 100 {
		return s[:100] + "..."
	}
	return s
}
