// Package sidebar builds the two-level navigation tree (category → notebook)
// from the flat notebook listing.
package sidebar

import (
	"slices"

	"github.com/starford/nbshell/internal/models"
)

// Leaf is a notebook entry in the tree.
type Leaf struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CategoryNode groups the notebooks of one category.
type CategoryNode struct {
	Name     string `json:"name"`
	IsRoot   bool   `json:"isRoot"`
	Expanded bool   `json:"expanded"`
	Children []Leaf `json:"children"`
}

// Tree is the ordered list of category nodes.
type Tree []CategoryNode

// Rebuild folds records into prev and returns the new tree. prev is not
// modified. Nodes of prev keep their position and UI state; categories seen
// for the first time are appended in the order they first appear in
// records. Records missing an ID or a category are skipped.
func Rebuild(records []models.NotebookRecord, prev Tree) Tree {
	var order []string
	groups := make(map[string][]Leaf)
	for _, r := range records {
		if r.ID == "" || r.CategoryName == "" {
			continue
		}
		if _, ok := groups[r.CategoryName]; !ok {
			order = append(order, r.CategoryName)
		}
		groups[r.CategoryName] = append(groups[r.CategoryName], Leaf{ID: r.ID, Name: r.DisplayName})
	}

	out := make(Tree, 0, len(prev)+len(order))
	pos := make(map[string]int, len(prev)+len(order))
	for _, n := range prev {
		if _, dup := pos[n.Name]; dup {
			continue
		}
		n.Children = slices.Clone(n.Children)
		pos[n.Name] = len(out)
		out = append(out, n)
	}

	for _, name := range order {
		i, ok := pos[name]
		if !ok {
			i = len(out)
			pos[name] = i
			out = append(out, CategoryNode{Name: name})
		}
		node := &out[i]
		node.IsRoot = true
		merged := make([]Leaf, 0, len(node.Children)+len(groups[name]))
		merged = append(merged, node.Children...)
		merged = append(merged, groups[name]...)
		node.Children = Dedupe(merged)
	}
	return out
}

// Dedupe keeps the first occurrence of every leaf ID and preserves the
// relative order of those first occurrences.
func Dedupe(leaves []Leaf) []Leaf {
	seen := make(map[string]struct{}, len(leaves))
	out := make([]Leaf, 0, len(leaves))
	for _, l := range leaves {
		if _, ok := seen[l.ID]; ok {
			continue
		}
		seen[l.ID] = struct{}{}
		out = append(out, l)
	}
	return out
}

// DefaultLandingID returns the ID of the first leaf of the first category.
func DefaultLandingID(t Tree) (string, bool) {
	if len(t) == 0 {
		return "", false
	}
	leaf, ok := FirstLeaf(t[0])
	return leaf.ID, ok
}

// FirstLeaf returns the first notebook of a category, the destination when
// a category itself is selected.
func FirstLeaf(n CategoryNode) (Leaf, bool) {
	if len(n.Children) == 0 {
		return Leaf{}, false
	}
	return n.Children[0], true
}

// IsRouteActive reports whether the node is the current route: a category is
// active when one of its notebooks is open.
func IsRouteActive(n CategoryNode, noteID string) bool {
	if noteID == "" {
		return false
	}
	return slices.ContainsFunc(n.Children, func(l Leaf) bool { return l.ID == noteID })
}

// Equal reports whether two trees have the same nodes in the same order.
func Equal(a, b Tree) bool {
	return slices.EqualFunc(a, b, func(x, y CategoryNode) bool {
		return x.Name == y.Name && x.IsRoot == y.IsRoot && x.Expanded == y.Expanded &&
			slices.Equal(x.Children, y.Children)
	})
}

// Clone returns a deep copy of t.
func (t Tree) Clone() Tree {
	if t == nil {
		return nil
	}
	out := make(Tree, len(t))
	for i, n := range t {
		n.Children = slices.Clone(n.Children)
		out[i] = n
	}
	return out
}
