package analysis

import (
	"path/filepath"
	"strings"
)

// Language identifiers used for analyzer gating. Detection is purely
// extension-based; files the map does not know are reported as "unknown"
// and still receive the language-agnostic line rules.
const (
	LangGo         = "go"
	LangPython     = "python"
	LangJavaScript = "javascript"
	LangTypeScript = "typescript"
	LangJava       = "java"
	LangRuby       = "ruby"
	LangRust       = "rust"
	LangC          = "c"
	LangCPP        = "cpp"
	LangCSharp     = "csharp"
	LangPHP        = "php"
	LangShell      = "shell"
	LangYAML       = "yaml"
	LangJSON       = "json"
	LangMarkdown   = "markdown"
	LangUnknown    = "unknown"
)

var extensionToLanguage = map[string]string{
	".go":       LangGo,
	".py":       LangPython,
	".pyw":      LangPython,
	".pyi":      LangPython,
	".js":       LangJavaScript,
	".jsx":      LangJavaScript,
	".mjs":      LangJavaScript,
	".cjs":      LangJavaScript,
	".ts":       LangTypeScript,
	".tsx":      LangTypeScript,
	".java":     LangJava,
	".rb":       LangRuby,
	".rake":     LangRuby,
	".rs":       LangRust,
	".c":        LangC,
	".h":        LangC,
	".cpp":      LangCPP,
	".cc":       LangCPP,
	".cxx":      LangCPP,
	".hpp":      LangCPP,
	".cs":       LangCSharp,
	".php":      LangPHP,
	".sh":       LangShell,
	".bash":     LangShell,
	".zsh":      LangShell,
	".yaml":     LangYAML,
	".yml":      LangYAML,
	".json":     LangJSON,
	".md":       LangMarkdown,
	".markdown": LangMarkdown,
}

// DetectLanguage maps a file path to a language identifier by extension
func DetectLanguage(filePath string) string {
	ext := strings.ToLower(filepath.Ext(filePath))
	if language, exists := extensionToLanguage[ext]; exists {
		return language
	}
	return LangUnknown
}

// SourceExtensions returns the set of extensions recognized as source code
func SourceExtensions() []string {
	extensions := make([]string, 0, len(extensionToLanguage))
	for ext := range extensionToLanguage {
		extensions = append(extensions, ext)
	}
	return extensions
}
