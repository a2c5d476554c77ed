package types

// NodeKind distinguishes directories from files in the skeleton
type NodeKind string

const (
	NodeDir  NodeKind = "dir"
	NodeFile NodeKind = "file"
)

// SkeletonNode is one node of the rendered project skeleton
type SkeletonNode struct {
	Path      string          `json:"path"`
	Kind      NodeKind        `json:"kind"`
	Children  []*SkeletonNode `json:"children"`
	Truncated bool            `json:"truncated"`
	Omitted   int             `json:"omitted,omitempty"` // files hidden by truncation
}

// Walk visits n and its descendants depth-first, stopping when fn returns false
func (n *SkeletonNode) Walk(fn func(*SkeletonNode) bool) bool {
	if n == nil {
		return true
	}
	if !fn(n) {
		return false
	}
	for _, child := range n.Children {
		if !child.Walk(fn) {
			return false
		}
	}
	return true
}
