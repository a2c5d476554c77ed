package types

// ExclusionReason records why a path did not take part in analysis
type ExclusionReason string

const (
	ReasonNone       ExclusionReason = ""
	ReasonDenylisted ExclusionReason = "denylisted"
	ReasonExtension  ExclusionReason = "extension"
	ReasonBinary     ExclusionReason = "binary"
	ReasonOversized  ExclusionReason = "oversized"
	ReasonIgnored    ExclusionReason = "ignored"
	ReasonSymlink    ExclusionReason = "symlink"
	ReasonIrregular  ExclusionReason = "irregular"
	ReasonUnreadable ExclusionReason = "unreadable"
)

// FileEntry is a file discovered by the repository walker.
// Entries are never modified after the walker yields them.
type FileEntry struct {
	AbsolutePath string          `json:"absolute_path"`
	RelativePath string          `json:"relative_path"` // slash separated, relative to the root
	SizeBytes    int64           `json:"size_bytes"`
	Language     LanguageHint    `json:"language"`
	Eligible     bool            `json:"eligible"`
	Reason       ExclusionReason `json:"reason,omitempty"`
}
