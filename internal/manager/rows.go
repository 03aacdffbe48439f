package manager

// The local pseudo-catalog groups plugins that no remote catalog
// accounts for.
const (
	LocalCatalogID    = "local"
	LocalCatalogTitle = "[Locally Installed]"
)

// Values shown in the compatibility and version columns when nothing
// better is known.
const (
	CompatYes = "Yes"
	CompatNo  = "No"

	VersionUnknown = "Unknown"
)

// RowType distinguishes the three levels of the display tree.
type RowType int

const (
	RowCatalog RowType = iota
	RowRepository
	RowPlugin
)

func (t RowType) String() string {
	switch t {
	case RowCatalog:
		return "catalog"
	case RowRepository:
		return "repository"
	case RowPlugin:
		return "plugin"
	}
	return "unknown"
}

// Row is one line of the display tree. Installed is meaningful only when
// InstalledValid is set; catalog and repository rows carry no install
// state of their own. VisibleEnabled and VisibleInstalled say whether
// the two toggles are drawn at all, and SensitiveInstalled says whether
// the install toggle accepts input.
type Row struct {
	ID                 string
	Type               RowType
	Title              string
	Installed          bool
	InstalledValid     bool
	Enabled            bool
	Compatibility      string
	Version            string
	VisibleEnabled     bool
	VisibleInstalled   bool
	SensitiveInstalled bool
}

// RootID is the parent index used for top-level rows.
const RootID = -1

type node struct {
	row      Row
	parent   int
	children []int
	dead     bool
}

// Tree is an index-addressed row tree. Indices are stable: removing a
// subtree tombstones its nodes instead of shifting later entries, so an
// index held across a removal never points at a different row.
type Tree struct {
	nodes []node
	roots []int
}

func NewTree() *Tree {
	return &Tree{}
}

// Append adds a row under parent (RootID for the top level) and returns
// its index.
func (t *Tree) Append(parent int, row Row) int {
	idx := len(t.nodes)
	t.nodes = append(t.nodes, node{row: row, parent: parent})
	if parent == RootID {
		t.roots = append(t.roots, idx)
	} else {
		t.nodes[parent].children = append(t.nodes[parent].children, idx)
	}
	return idx
}

// Row returns the row at idx for reading or in-place update.
func (t *Tree) Row(idx int) *Row {
	return &t.nodes[idx].row
}

// Valid reports whether idx names a live row.
func (t *Tree) Valid(idx int) bool {
	return idx >= 0 && idx < len(t.nodes) && !t.nodes[idx].dead
}

// Parent returns the parent index of idx, or RootID for top-level rows.
func (t *Tree) Parent(idx int) int {
	return t.nodes[idx].parent
}

// Children returns the live child indices of parent in insertion order.
// Pass RootID for the top level.
func (t *Tree) Children(parent int) []int {
	src := t.roots
	if parent != RootID {
		src = t.nodes[parent].children
	}
	var live []int
	for _, idx := range src {
		if !t.nodes[idx].dead {
			live = append(live, idx)
		}
	}
	return live
}

// Remove deletes the subtree rooted at idx. Sibling order is preserved.
func (t *Tree) Remove(idx int) {
	if !t.Valid(idx) {
		return
	}
	parent := t.nodes[idx].parent
	if parent == RootID {
		t.roots = removeIndex(t.roots, idx)
	} else {
		t.nodes[parent].children = removeIndex(t.nodes[parent].children, idx)
	}
	t.kill(idx)
}

func (t *Tree) kill(idx int) {
	t.nodes[idx].dead = true
	for _, child := range t.nodes[idx].children {
		t.kill(child)
	}
	t.nodes[idx].children = nil
}

// Len counts the live rows.
func (t *Tree) Len() int {
	n := 0
	for i := range t.nodes {
		if !t.nodes[i].dead {
			n++
		}
	}
	return n
}

// Walk visits every live row depth-first in sibling order. Returning
// false from fn stops the walk.
func (t *Tree) Walk(fn func(idx int, row *Row) bool) {
	t.walk(t.roots, fn)
}

func (t *Tree) walk(ids []int, fn func(idx int, row *Row) bool) bool {
	for _, idx := range ids {
		n := &t.nodes[idx]
		if n.dead {
			continue
		}
		if !fn(idx, &n.row) {
			return false
		}
		if !t.walk(n.children, fn) {
			return false
		}
	}
	return true
}

// Find returns the index of the first row, depth-first, satisfying fn,
// or -1.
func (t *Tree) Find(fn func(row *Row) bool) int {
	found := -1
	t.Walk(func(idx int, row *Row) bool {
		if fn(row) {
			found = idx
			return false
		}
		return true
	})
	return found
}

// PluginParents returns the repository and catalog row indices above a
// plugin row. Under the local catalog, which has no repository level,
// both indices name the local row itself.
func (t *Tree) PluginParents(idx int) (repoIdx, catalogIdx int) {
	parent := t.nodes[idx].parent
	if parent == RootID {
		return RootID, RootID
	}
	if t.nodes[parent].row.Type == RowCatalog {
		return parent, parent
	}
	return parent, t.nodes[parent].parent
}

func removeIndex(s []int, v int) []int {
	for i, x := range s {
		if x == v {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}
