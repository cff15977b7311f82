package taxonomy

import "sort"

// Node is satisfied by both CanonicalNode and ShopNode.
type Node[T any] interface {
	NodeID() string
	NodeGUID() string
	NodeChildren() []T
}

// Index holds id and guid lookups over one forest snapshot.
// It is rebuilt from scratch on every tree refresh and never patched.
type Index[T Node[T]] struct {
	ByID   map[string]T
	ByGUID map[string]string

	parent map[string]string
	depth  map[string]int
	order  []string
}

type CanonicalIndex = Index[CanonicalNode]
type ShopIndex = Index[ShopNode]

// Build indexes forest with a full pre-order traversal. Nodes with a blank id
// are not indexed but their children are. The first occurrence of a duplicate id or guid wins.
func Build[T Node[T]](forest []T) *Index[T] {
	ix := &Index[T]{
		ByID:   make(map[string]T),
		ByGUID: make(map[string]string),
		parent: make(map[string]string),
		depth:  make(map[string]int),
	}
	ix.walk(forest, "", 0)
	return ix
}

func BuildCanonical(forest []CanonicalNode) *CanonicalIndex { return Build(forest) }

func BuildShop(forest []ShopNode) *ShopIndex { return Build(forest) }

func (ix *Index[T]) walk(nodes []T, parentID string, depth int) {
	for _, n := range nodes {
		id := n.NodeID()
		if id == "" {
			ix.walk(n.NodeChildren(), parentID, depth)
			continue
		}
		if _, seen := ix.ByID[id]; !seen {
			ix.ByID[id] = n
			ix.parent[id] = parentID
			ix.depth[id] = depth
			ix.order = append(ix.order, id)
		}
		if guid := n.NodeGUID(); guid != "" {
			if _, seen := ix.ByGUID[guid]; !seen {
				ix.ByGUID[guid] = id
			}
		}
		ix.walk(n.NodeChildren(), id, depth+1)
	}
}

func (ix *Index[T]) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.ByID)
}

func (ix *Index[T]) Has(id string) bool {
	if ix == nil || id == "" {
		return false
	}
	_, ok := ix.ByID[id]
	return ok
}

func (ix *Index[T]) Lookup(id string) (T, bool) {
	var zero T
	if ix == nil {
		return zero, false
	}
	n, ok := ix.ByID[id]
	return n, ok
}

// ResolveGUID maps an external guid to a node id.
func (ix *Index[T]) ResolveGUID(guid string) (string, bool) {
	if ix == nil || guid == "" {
		return "", false
	}
	id, ok := ix.ByGUID[guid]
	return id, ok
}

// Resolve accepts either a node id or a guid.
func (ix *Index[T]) Resolve(ref string) (string, bool) {
	if ix.Has(ref) {
		return ref, true
	}
	return ix.ResolveGUID(ref)
}

func (ix *Index[T]) Parent(id string) (string, bool) {
	if ix == nil {
		return "", false
	}
	p, ok := ix.parent[id]
	if !ok || p == "" {
		return "", false
	}
	return p, true
}

// Ancestors lists the ancestors of id, nearest first.
func (ix *Index[T]) Ancestors(id string) []string {
	var out []string
	for {
		p, ok := ix.Parent(id)
		if !ok {
			return out
		}
		out = append(out, p)
		id = p
	}
}

// IsDescendant reports whether id lies strictly below ancestor.
func (ix *Index[T]) IsDescendant(id, ancestor string) bool {
	if id == ancestor || !ix.Has(id) || !ix.Has(ancestor) {
		return false
	}
	for _, a := range ix.Ancestors(id) {
		if a == ancestor {
			return true
		}
	}
	return false
}

func (ix *Index[T]) Depth(id string) int {
	if ix == nil {
		return -1
	}
	d, ok := ix.depth[id]
	if !ok {
		return -1
	}
	return d
}

func (ix *Index[T]) IsLeaf(id string) bool {
	n, ok := ix.Lookup(id)
	return ok && len(n.NodeChildren()) == 0
}

// IDs returns node ids in pre-order.
func (ix *Index[T]) IDs() []string {
	if ix == nil {
		return nil
	}
	out := make([]string, len(ix.order))
	copy(out, ix.order)
	return out
}

// Deepest picks the node with the greatest depth among ids; ties break on the smaller id.
func (ix *Index[T]) Deepest(ids []string) (string, bool) {
	best, bestDepth := "", -1
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	for _, id := range sorted {
		d := ix.Depth(id)
		if d > bestDepth {
			best, bestDepth = id, d
		}
	}
	return best, bestDepth >= 0
}
