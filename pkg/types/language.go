package types

import "slices"

// LanguageHint is the closed set of languages the analyzer can recognize.
type LanguageHint string

const (
	LangGo         LanguageHint = "go"
	LangPython     LanguageHint = "python"
	LangJavaScript LanguageHint = "javascript"
	LangTypeScript LanguageHint = "typescript"
	LangJava       LanguageHint = "java"
	LangKotlin     LanguageHint = "kotlin"
	LangScala      LanguageHint = "scala"
	LangC          LanguageHint = "c"
	LangCPP        LanguageHint = "cpp"
	LangCSharp     LanguageHint = "csharp"
	LangRust       LanguageHint = "rust"
	LangSwift      LanguageHint = "swift"
	LangPHP        LanguageHint = "php"
	LangRuby       LanguageHint = "ruby"
	LangShell      LanguageHint = "shell"
	LangMarkdown   LanguageHint = "markdown"
	LangYAML       LanguageHint = "yaml"
	LangJSON       LanguageHint = "json"
	LangTOML       LanguageHint = "toml"
	LangXML        LanguageHint = "xml"
	LangHTML       LanguageHint = "html"
	LangCSS        LanguageHint = "css"
	LangSQL        LanguageHint = "sql"
	LangText       LanguageHint = "text"
	LangUnknown    LanguageHint = "unknown"
)

// BlockStyle describes how top-level blocks are delimited in a language
type BlockStyle int

const (
	// BlockNone means no usable block structure; chunk by lines
	BlockNone BlockStyle = iota
	// BlockBrace covers C-family languages with { } delimited blocks
	BlockBrace
	// BlockIndent covers indentation-scoped languages (Python)
	BlockIndent
	// BlockHeading covers documents sectioned by headings (Markdown)
	BlockHeading
)

// String returns the block style name
func (b BlockStyle) String() string {
	switch b {
	case BlockBrace:
		return "brace"
	case BlockIndent:
		return "indent"
	case BlockHeading:
		return "heading"
	default:
		return "none"
	}
}

// BlockStyle returns the block delimiting style for the language
func (l LanguageHint) BlockStyle() BlockStyle {
	switch l {
	case LangGo, LangJavaScript, LangTypeScript, LangJava, LangKotlin, LangScala,
		LangC, LangCPP, LangCSharp, LangRust, LangSwift, LangPHP, LangCSS:
		return BlockBrace
	case LangPython:
		return BlockIndent
	case LangMarkdown:
		return BlockHeading
	default:
		return BlockNone
	}
}

// AllLanguages lists every known hint
var AllLanguages = []LanguageHint{
	LangGo, LangPython, LangJavaScript, LangTypeScript, LangJava, LangKotlin,
	LangScala, LangC, LangCPP, LangCSharp, LangRust, LangSwift, LangPHP, LangRuby,
	LangShell, LangMarkdown, LangYAML, LangJSON, LangTOML, LangXML, LangHTML,
	LangCSS, LangSQL, LangText, LangUnknown,
}

// Valid reports whether l is one of the known hints
func (l LanguageHint) Valid() bool {
	return slices.Contains(AllLanguages, l)
}
