// Package walker traverses a repository and yields file entries in
// lexicographic order of their relative paths.
package walker

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/dshills/codefactory/internal/filter"
	"github.com/dshills/codefactory/internal/language"
	"github.com/dshills/codefactory/pkg/types"
)

// DefaultSniffBytes is how much of each eligible file is inspected for NUL bytes
const DefaultSniffBytes = 8000

// Walker produces the FileEntry sequence of one repository
type Walker struct {
	root       string
	filter     *filter.Filter
	logger     *zap.Logger
	sniffBytes int
	onPrune    func(rel string, reason types.ExclusionReason)
	onWarning  func(rel string, err error)
}

// Option configures a Walker
type Option func(*Walker)

// WithSniffBytes sets the binary sniff window; 0 disables sniffing
func WithSniffBytes(n int) Option {
	return func(w *Walker) {
		if n >= 0 {
			w.sniffBytes = n
		}
	}
}

// WithPruneHook registers fn to be called for every pruned directory
func WithPruneHook(fn func(rel string, reason types.ExclusionReason)) Option {
	return func(w *Walker) { w.onPrune = fn }
}

// WithWarningHook registers fn to be called for every skipped unreadable path
func WithWarningHook(fn func(rel string, err error)) Option {
	return func(w *Walker) { w.onWarning = fn }
}

// New creates a Walker rooted at root. It fails with
// types.ErrRepositoryNotFound when root does not exist or is not a directory.
func New(root string, f *filter.Filter, logger *zap.Logger, opts ...Option) (*Walker, error) {
	if f == nil {
		return nil, errors.New("walker: filter is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrRepositoryNotFound, root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrRepositoryNotFound, root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", types.ErrRepositoryNotFound, root)
	}

	w := &Walker{
		root:       abs,
		filter:     f,
		logger:     logger,
		sniffBytes: DefaultSniffBytes,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Root returns the absolute repository root
func (w *Walker) Root() string {
	return w.root
}

// Entries returns a lazy sequence of every file the walk reaches, eligible
// or not. Pruned directories contribute nothing. Each call restarts the walk.
func (w *Walker) Entries() iter.Seq[types.FileEntry] {
	return func(yield func(types.FileEntry) bool) {
		w.walk(w.root, "", yield)
	}
}

// Eligible returns the sub-sequence of eligible entries
func (w *Walker) Eligible() iter.Seq[types.FileEntry] {
	return func(yield func(types.FileEntry) bool) {
		for entry := range w.Entries() {
			if entry.Eligible && !yield(entry) {
				return
			}
		}
	}
}

// walk visits one directory depth-first. It returns false once the
// consumer stops iterating.
func (w *Walker) walk(dirAbs, dirRel string, yield func(types.FileEntry) bool) bool {
	entries, err := os.ReadDir(dirAbs)
	if err != nil {
		w.warn(dirRel, err)
		return true
	}

	// Directories sort as "name/" so the flattened output is ordered by
	// relative path
	slices.SortFunc(entries, func(a, b fs.DirEntry) int {
		return strings.Compare(sortKey(a), sortKey(b))
	})

	for _, e := range entries {
		name := e.Name()
		rel := name
		if dirRel != "" {
			rel = path.Join(dirRel, name)
		}
		abs := filepath.Join(dirAbs, name)
		mode := e.Type()

		switch {
		case mode&fs.ModeSymlink != 0:
			// Never followed
			if !yield(w.skipped(abs, rel, types.ReasonSymlink)) {
				return false
			}

		case e.IsDir():
			if d := w.filter.Dir(rel, name); !d.Eligible {
				w.logger.Debug("pruned directory", zap.String("path", rel), zap.String("reason", string(d.Reason)))
				if w.onPrune != nil {
					w.onPrune(rel, d.Reason)
				}
				continue
			}
			if !w.walk(abs, rel, yield) {
				return false
			}

		case mode.IsRegular():
			if !yield(w.file(e, abs, rel)) {
				return false
			}

		default:
			if !yield(w.skipped(abs, rel, types.ReasonIrregular)) {
				return false
			}
		}
	}
	return true
}

func (w *Walker) file(e fs.DirEntry, abs, rel string) types.FileEntry {
	entry := types.FileEntry{
		AbsolutePath: abs,
		RelativePath: rel,
		Language:     language.Classify(rel),
	}

	info, err := e.Info()
	if err != nil {
		w.warn(rel, err)
		entry.Reason = types.ReasonUnreadable
		return entry
	}
	entry.SizeBytes = info.Size()

	d := w.filter.File(rel, entry.SizeBytes)
	if !d.Eligible {
		entry.Reason = d.Reason
		return entry
	}

	if w.sniffBytes > 0 {
		binary, err := sniff(abs, w.sniffBytes)
		if err != nil {
			w.warn(rel, err)
			entry.Reason = types.ReasonUnreadable
			return entry
		}
		if binary {
			entry.Reason = types.ReasonBinary
			return entry
		}
	}

	entry.Eligible = true
	return entry
}

func (w *Walker) skipped(abs, rel string, reason types.ExclusionReason) types.FileEntry {
	return types.FileEntry{
		AbsolutePath: abs,
		RelativePath: rel,
		Language:     language.Classify(rel),
		Reason:       reason,
	}
}

func (w *Walker) warn(rel string, err error) {
	if rel == "" {
		rel = "."
	}
	w.logger.Warn("skipping unreadable path", zap.String("path", rel), zap.Error(err))
	if w.onWarning != nil {
		w.onWarning(rel, err)
	}
}

func sortKey(e fs.DirEntry) string {
	if e.IsDir() {
		return e.Name() + "/"
	}
	return e.Name()
}

// sniff reports whether the first n bytes of the file contain a NUL byte
func sniff(filename string, n int) (bool, error) {
	file, err := os.Open(filename)
	if err != nil {
		return false, err
	}
	defer func() { _ = file.Close() }()

	head := make([]byte, n)
	read, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return false, err
	}
	return filter.LooksBinary(head[:read]), nil
}
