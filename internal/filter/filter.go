package filter

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/dshills/codefactory/internal/config"
	"github.com/dshills/codefactory/pkg/types"
)

// ErrInvalidPattern is returned for ignore globs doublestar cannot parse
var ErrInvalidPattern = errors.New("invalid ignore pattern")

// Decision is the outcome of a filter check
type Decision struct {
	Eligible bool
	Reason   types.ExclusionReason
}

var eligible = Decision{Eligible: true}

func excluded(reason types.ExclusionReason) Decision {
	return Decision{Reason: reason}
}

// rule is a normalized ignore glob
type rule struct {
	pattern string
	dirOnly bool
}

// Filter decides which directories and files take part in analysis.
// A Filter is immutable and safe for concurrent use.
type Filter struct {
	denyDirs    map[string]struct{}
	include     map[string]struct{}
	binary      map[string]struct{}
	rules       []rule
	maxFileSize int64
}

// New compiles the filter configuration
func New(cfg config.Filter) (*Filter, error) {
	f := &Filter{
		denyDirs:    toSet(cfg.DenyDirs, false),
		include:     toSet(cfg.IncludeExtensions, true),
		binary:      toSet(cfg.BinaryExtensions, true),
		maxFileSize: cfg.MaxFileSize,
	}

	for _, raw := range cfg.IgnoreGlobs {
		r, ok, err := compile(raw)
		if err != nil {
			return nil, err
		}
		if ok {
			f.rules = append(f.rules, r)
		}
	}

	return f, nil
}

// WithIgnores returns a copy of f with additional ignore globs
func (f *Filter) WithIgnores(patterns []string) (*Filter, error) {
	clone := *f
	clone.rules = append([]rule(nil), f.rules...)
	for _, raw := range patterns {
		r, ok, err := compile(raw)
		if err != nil {
			return nil, err
		}
		if ok {
			clone.rules = append(clone.rules, r)
		}
	}
	return &clone, nil
}

// Dir decides whether the directory at rel (slash separated, relative to the
// root) is traversed. An excluded directory is pruned with all its contents.
func (f *Filter) Dir(rel, name string) Decision {
	// Rule 1: denylisted names
	if _, ok := f.denyDirs[name]; ok {
		return excluded(types.ReasonDenylisted)
	}

	// Rule 3: ignore globs
	if f.matchDir(rel) {
		return excluded(types.ReasonIgnored)
	}

	return eligible
}

// File decides whether the file at rel with the given size is analyzed
func (f *Filter) File(rel string, size int64) Decision {
	// Files below a denylisted directory are never eligible, even when the
	// caller did not prune
	if dir := path.Dir(rel); dir != "." {
		for _, part := range strings.Split(dir, "/") {
			if _, ok := f.denyDirs[part]; ok {
				return excluded(types.ReasonDenylisted)
			}
		}
	}

	// Rule 2: extension allow-set, binary extensions and the size ceiling
	ext := strings.ToLower(path.Ext(rel))
	if len(f.include) > 0 {
		if _, ok := f.include[ext]; !ok {
			return excluded(types.ReasonExtension)
		}
	}
	if _, ok := f.binary[ext]; ok {
		return excluded(types.ReasonBinary)
	}
	if f.maxFileSize > 0 && size > f.maxFileSize {
		return excluded(types.ReasonOversized)
	}

	// Rule 3: ignore globs
	if f.matchFile(rel) {
		return excluded(types.ReasonIgnored)
	}

	return eligible
}

func (f *Filter) matchDir(rel string) bool {
	for _, r := range f.rules {
		if match(r.pattern, rel) {
			return true
		}
	}
	return false
}

func (f *Filter) matchFile(rel string) bool {
	for _, r := range f.rules {
		if !r.dirOnly && match(r.pattern, rel) {
			return true
		}
		if match(r.pattern+"/**", rel) {
			return true
		}
	}
	return false
}

func match(pattern, name string) bool {
	ok, err := doublestar.Match(pattern, name)
	return err == nil && ok
}

// compile normalizes a gitignore-style line into a doublestar pattern.
// Blank lines and comments report ok=false.
func compile(raw string) (rule, bool, error) {
	p := strings.TrimSpace(raw)
	if p == "" || strings.HasPrefix(p, "#") {
		return rule{}, false, nil
	}
	if strings.HasPrefix(p, "!") {
		return rule{}, false, fmt.Errorf("%w: negation is not supported: %q", ErrInvalidPattern, raw)
	}

	r := rule{}
	if strings.HasSuffix(p, "/") {
		r.dirOnly = true
		p = strings.TrimRight(p, "/")
	}

	anchored := strings.HasPrefix(p, "/")
	p = strings.TrimLeft(p, "/")
	if p == "" {
		return rule{}, false, fmt.Errorf("%w: %q", ErrInvalidPattern, raw)
	}
	if !anchored && !strings.Contains(p, "/") {
		p = "**/" + p
	}

	if !doublestar.ValidatePattern(p) {
		return rule{}, false, fmt.Errorf("%w: %q", ErrInvalidPattern, raw)
	}
	r.pattern = p
	return r, true, nil
}

// ReadIgnoreFile loads ignore globs from a gitignore-style file.
// A missing file yields no patterns and no error.
func ReadIgnoreFile(filename string) ([]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open ignore file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var patterns []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ignore file: %w", err)
	}
	return patterns, nil
}

// LooksBinary reports whether head, the first bytes of a file, contains a
// NUL byte
func LooksBinary(head []byte) bool {
	return bytes.IndexByte(head, 0) >= 0
}

func toSet(values []string, extensions bool) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if extensions {
			v = strings.ToLower(v)
			if !strings.HasPrefix(v, ".") {
				v = "." + v
			}
		}
		set[v] = struct{}{}
	}
	return set
}
