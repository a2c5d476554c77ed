package skeleton

import (
	"cmp"
	"iter"
	"path"
	"slices"
	"strconv"
	"strings"

	"github.com/dshills/codefactory/pkg/types"
)

const indentUnit = "  "

// dir is a directory of the full, unbounded tree
type dir struct {
	name      string
	path      string // relative, "" for the root
	depth     int
	dirs      []*dir
	files     []string
	fileCount int // files in the whole subtree
	index     map[string]*dir
}

// Tree is the complete directory tree of the eligible files
type Tree struct {
	rootName string
	root     *dir
}

// Stats describes one rendering
type Stats struct {
	Budget        int
	Bytes         int
	Dirs          int
	Files         int
	TruncatedDirs int
	OmittedFiles  int
}

// Truncated reports whether any directory was collapsed
func (s Stats) Truncated() bool {
	return s.TruncatedDirs > 0
}

// Rendering is a budgeted view of the tree
type Rendering struct {
	Root  *types.SkeletonNode
	Text  string
	Stats Stats
}

// Build constructs the full tree from the eligible entries. Ineligible
// entries are ignored so the skeleton observes the same eligibility
// decisions as the chunker.
func Build(rootName string, entries iter.Seq[types.FileEntry]) *Tree {
	if rootName == "" {
		rootName = "."
	}
	t := &Tree{
		rootName: rootName,
		root:     &dir{name: rootName, index: map[string]*dir{}},
	}

	for entry := range entries {
		if !entry.Eligible {
			continue
		}
		t.add(entry.RelativePath)
	}

	t.root.sort()
	return t
}

func (t *Tree) add(rel string) {
	parts := strings.Split(rel, "/")
	current := t.root
	current.fileCount++

	for _, name := range parts[:len(parts)-1] {
		child, ok := current.index[name]
		if !ok {
			child = &dir{
				name:  name,
				path:  path.Join(current.path, name),
				depth: current.depth + 1,
				index: map[string]*dir{},
			}
			current.index[name] = child
			current.dirs = append(current.dirs, child)
		}
		child.fileCount++
		current = child
	}

	current.files = append(current.files, parts[len(parts)-1])
}

func (d *dir) sort() {
	slices.SortFunc(d.dirs, func(a, b *dir) int { return strings.Compare(a.name, b.name) })
	slices.Sort(d.files)
	for _, sub := range d.dirs {
		sub.sort()
	}
}

// FileCount returns the number of files in the tree
func (t *Tree) FileCount() int {
	return t.root.fileCount
}

// Render lays the tree out within budget bytes of text. budget <= 0 means
// unlimited; maxDepth > 0 keeps directories at that depth and below
// collapsed.
//
// Every directory is first accounted for in its collapsed form,
// "name/ (+N more files)". Directories are then expanded breadth-first,
// level by level. Within a level, siblings are considered in ascending
// order of subtree file count (ties by path), and a directory is expanded
// only when the additional bytes of its full listing fit the remaining
// budget. The first sibling that does not fit ends the level: every later
// sibling is at least as large and stays collapsed, so a directory is never
// truncated while a larger sibling is listed in full.
func (t *Tree) Render(budget, maxDepth int) Rendering {
	expanded := make(map[*dir]bool)
	used := len(collapsedLine(t.root, t.rootName))

	if budget > 0 && used > budget {
		root := &types.SkeletonNode{
			Path:      ".",
			Kind:      types.NodeDir,
			Children:  []*types.SkeletonNode{},
			Truncated: true,
			Omitted:   t.root.fileCount,
		}
		return Rendering{
			Root: root,
			Stats: Stats{
				Budget:        budget,
				Dirs:          1,
				TruncatedDirs: 1,
				OmittedFiles:  t.root.fileCount,
			},
		}
	}

	level := []*dir{t.root}
	for len(level) > 0 {
		slices.SortFunc(level, func(a, b *dir) int {
			if c := cmp.Compare(a.fileCount, b.fileCount); c != 0 {
				return c
			}
			return strings.Compare(a.path, b.path)
		})

		var next []*dir
		for _, d := range level {
			if maxDepth > 0 && d.depth >= maxDepth {
				continue
			}
			delta := t.expansionCost(d)
			if budget > 0 && used+delta > budget {
				break
			}
			used += delta
			expanded[d] = true
			next = append(next, d.dirs...)
		}
		level = next
	}

	r := &renderer{tree: t, expanded: expanded}
	root := r.node(t.root)
	r.text.Grow(used)
	r.write(t.root)

	r.stats.Budget = budget
	r.stats.Bytes = r.text.Len()
	return Rendering{Root: root, Text: r.text.String(), Stats: r.stats}
}

// expansionCost is the byte difference between the full listing of d, with
// its subdirectories collapsed, and its collapsed line
func (t *Tree) expansionCost(d *dir) int {
	name := t.displayName(d)
	cost := len(headerLine(d, name)) - len(collapsedLine(d, name))
	for _, f := range d.files {
		cost += len(fileLine(d.depth+1, f))
	}
	for _, sub := range d.dirs {
		cost += len(collapsedLine(sub, sub.name))
	}
	return cost
}

func (t *Tree) displayName(d *dir) string {
	if d == t.root {
		return t.rootName
	}
	return d.name
}

type renderer struct {
	tree     *Tree
	expanded map[*dir]bool
	text     strings.Builder
	stats    Stats
}

func (r *renderer) node(d *dir) *types.SkeletonNode {
	r.stats.Dirs++
	n := &types.SkeletonNode{
		Path:     d.path,
		Kind:     types.NodeDir,
		Children: []*types.SkeletonNode{},
	}
	if d == r.tree.root {
		n.Path = "."
	}

	if !r.expanded[d] {
		n.Truncated = true
		n.Omitted = d.fileCount
		r.stats.TruncatedDirs++
		r.stats.OmittedFiles += d.fileCount
		return n
	}

	for _, sub := range d.dirs {
		n.Children = append(n.Children, r.node(sub))
	}
	for _, f := range d.files {
		r.stats.Files++
		n.Children = append(n.Children, &types.SkeletonNode{
			Path:     path.Join(d.path, f),
			Kind:     types.NodeFile,
			Children: []*types.SkeletonNode{},
		})
	}
	return n
}

func (r *renderer) write(d *dir) {
	name := r.tree.displayName(d)
	if !r.expanded[d] {
		r.text.WriteString(collapsedLine(d, name))
		return
	}

	r.text.WriteString(headerLine(d, name))
	for _, sub := range d.dirs {
		r.write(sub)
	}
	for _, f := range d.files {
		r.text.WriteString(fileLine(d.depth+1, f))
	}
}

func headerLine(d *dir, name string) string {
	return strings.Repeat(indentUnit, d.depth) + name + "/\n"
}

func collapsedLine(d *dir, name string) string {
	return strings.Repeat(indentUnit, d.depth) + name + "/ (+" + strconv.Itoa(d.fileCount) + " more files)\n"
}

func fileLine(depth int, name string) string {
	return strings.Repeat(indentUnit, depth) + name + "\n"
}
