package catalog

import (
	"strings"

	"github.com/msolomos/contest-arbiter/internal/contracts"
)

// Security categories reported by the audit stage.
const (
	CategoryCodeInjection   = "Code Injection"
	CategorySystemAccess    = "System Access"
	CategoryFileWrite       = "File System Write"
	CategoryNetworkAccess   = "Network Access"
	CategoryReflection      = "Reflection/Dynamic Access"
	CategoryObfuscation     = "Code Obfuscation"
	CategoryEncoding        = "Suspicious Encoding"
	CategoryEnvAccess       = "Environment Access"
	CategoryUnapprovedImport = "Unapproved Imports"
	CategoryStrategyImport  = "Strategy Import Collection"
	CategoryDependencyMgmt  = "Dependency Management"
	CategorySyntaxError     = "Syntax Error"
	CategoryReadError       = "File Read Error"
	CategoryExecutable      = "Executable Artifact"
	CategoryLargeFile       = "Suspicious Large File"
	CategorySuspiciousFile  = "Suspicious File Type"
)

// Security returns the dangerous-code pattern catalog applied line by
// line to every submitted Python source file.
func Security() *Catalog {
	var rules []Rule
	rules = append(rules, mustRules(contracts.SeverityCritical, CategoryCodeInjection,
		"Remove dynamic code execution",
		`\bexec\s*\(`,
		`\beval\s*\(`,
		`\bcompile\s*\(`,
		`__import__\s*\(`,
	)...)
	rules = append(rules, mustRules(contracts.SeverityCritical, CategorySystemAccess,
		"Remove system calls unless strictly necessary",
		`\bos\.system\s*\(`,
		`\bos\.popen\s*\(`,
		`\bos\.spawn\w*\s*\(`,
		`\bcommands\.`,
	)...)
	rules = append(rules, mustRules(contracts.SeverityMedium, CategoryFileWrite,
		"Remove file writes unless strictly necessary",
		`open\s*\([^)]*["'][wa]["']`,
	)...)
	rules = append(rules, mustRules(contracts.SeverityHigh, CategoryNetworkAccess,
		"Remove or document the need for network access",
		`\brequests\.`,
		`\burllib\.`,
		`\bsocket\.`,
		`\bhttp\.`,
		`\bsmtplib\.`,
		`\bftplib\.`,
	)...)
	rules = append(rules, mustRules(contracts.SeverityLow, CategoryReflection,
		"Remove or document the need for dynamic access",
		`\bgetattr\s*\(`,
		`\bsetattr\s*\(`,
		`\bhasattr\s*\(`,
		`\bdelattr\s*\(`,
		`\bglobals\s*\(\)`,
		`\blocals\s*\(\)`,
		`\bvars\s*\(`,
	)...)
	return &Catalog{Name: "security", Rules: rules}
}

// safeImports is the allow-list of module prefixes permitted in
// submissions: stdlib, numerics, market data, TA, plotting, the base
// template interfaces, monitored encodings and test tooling.
var safeImports = []string{
	"os", "sys", "datetime", "time", "math", "statistics",
	"collections", "typing", "dataclasses", "pathlib",
	"json", "csv", "logging", "argparse", "warnings",

	"queue", "heapq", "bisect", "array", "copy",
	"pickle", "shelve", "gzip", "zipfile",

	"numpy", "pandas", "scipy", "sklearn", "statsmodels",

	"yfinance", "ccxt", "alpha_vantage", "quandl", "bloomberg",
	"investpy", "fredapi", "pandas_datareader",

	"talib", "ta", "finta", "tulip", "tulipy",

	"matplotlib", "seaborn", "plotly", "bokeh",

	"strategy_interface", "exchange_interface", "universal_bot",

	"base64", "hashlib", "hmac", "uuid",

	"unittest", "pytest", "mock",

	"__future__", "abc", "enum", "functools", "itertools",
	"operator", "random", "secrets", "string", "re",
}

// contestCommonModules are local modules every submission carries.
var contestCommonModules = map[string]bool{
	"your_strategy":   true,
	"startup":         true,
	"backtest_runner": true,
	"optimizer":       true,
}

// strategyImportKeywords mark imports that look like collected
// strategy modules rather than a single entry.
var strategyImportKeywords = []string{
	"strategy", "champion", "winner", "ultimate", "final", "victory",
	"hybrid", "aggressive", "rapid", "smart", "breakout", "momentum",
}

// ImportAllowed reports whether a top-level module is on the
// allow-list or is a contest-common local module.
func ImportAllowed(module string) bool {
	if contestCommonModules[module] {
		return true
	}
	for _, safe := range safeImports {
		if strings.HasPrefix(module, safe) {
			return true
		}
	}
	return false
}

// IsStrategyImport reports whether a module name matches the strategy
// collection keyword list.
func IsStrategyImport(module string) bool {
	lower := strings.ToLower(module)
	for _, kw := range strategyImportKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Artifact extension sets for the non-Python file sweep.
var (
	executableExtensions = map[string]bool{
		".sh": true, ".bat": true, ".ps1": true, ".cmd": true, ".exe": true,
		".dll": true, ".so": true, ".pyd": true, ".jar": true, ".class": true,
	}
	suspiciousExtensions = map[string]bool{
		".bin": true, ".dat": true, ".tmp": true, ".log": true,
	}
)

// IsExecutableExtension reports whether ext (lowercase, with dot) is a
// forbidden executable type.
func IsExecutableExtension(ext string) bool { return executableExtensions[ext] }

// IsSuspiciousExtension reports whether ext is a suspicious data type.
func IsSuspiciousExtension(ext string) bool { return suspiciousExtensions[ext] }

// TemplateDirName is the shared bot template directory excluded from
// every scan.
const TemplateDirName = "base-bot-template"
