// Package language classifies files into language hints.
//
// Classification is a pure function of the file name: extension first, then
// a small table of well-known extensionless file names. Anything else is
// types.LangUnknown.
package language

import (
	"path"
	"strings"

	"github.com/dshills/codefactory/pkg/types"
)

var byExtension = map[string]types.LanguageHint{
	".go":       types.LangGo,
	".py":       types.LangPython,
	".pyi":      types.LangPython,
	".js":       types.LangJavaScript,
	".jsx":      types.LangJavaScript,
	".mjs":      types.LangJavaScript,
	".cjs":      types.LangJavaScript,
	".ts":       types.LangTypeScript,
	".tsx":      types.LangTypeScript,
	".java":     types.LangJava,
	".kt":       types.LangKotlin,
	".kts":      types.LangKotlin,
	".scala":    types.LangScala,
	".c":        types.LangC,
	".h":        types.LangC,
	".cc":       types.LangCPP,
	".cpp":      types.LangCPP,
	".cxx":      types.LangCPP,
	".hpp":      types.LangCPP,
	".hh":       types.LangCPP,
	".cs":       types.LangCSharp,
	".rs":       types.LangRust,
	".swift":    types.LangSwift,
	".php":      types.LangPHP,
	".rb":       types.LangRuby,
	".sh":       types.LangShell,
	".bash":     types.LangShell,
	".zsh":      types.LangShell,
	".md":       types.LangMarkdown,
	".markdown": types.LangMarkdown,
	".yaml":     types.LangYAML,
	".yml":      types.LangYAML,
	".json":     types.LangJSON,
	".toml":     types.LangTOML,
	".xml":      types.LangXML,
	".html":     types.LangHTML,
	".htm":      types.LangHTML,
	".css":      types.LangCSS,
	".scss":     types.LangCSS,
	".sql":      types.LangSQL,
	".txt":      types.LangText,
	".rst":      types.LangText,
}

var byName = map[string]types.LanguageHint{
	"makefile":    types.LangShell,
	"dockerfile":  types.LangShell,
	"gemfile":     types.LangRuby,
	"rakefile":    types.LangRuby,
	"readme":      types.LangText,
	"license":     types.LangText,
	"jenkinsfile": types.LangText,
}

// Classify returns the language hint for a slash-separated path
func Classify(p string) types.LanguageHint {
	base := path.Base(p)
	if hint, ok := byExtension[strings.ToLower(path.Ext(base))]; ok {
		return hint
	}
	if hint, ok := byName[strings.ToLower(base)]; ok {
		return hint
	}
	return types.LangUnknown
}

// Extensions returns the extensions mapped to hint
func Extensions(hint types.LanguageHint) []string {
	var exts []string
	for ext, h := range byExtension {
		if h == hint {
			exts = append(exts, ext)
		}
	}
	return exts
}
