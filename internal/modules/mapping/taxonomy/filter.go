package taxonomy

type filterable[T any] interface {
	Node[T]
	WithChildren([]T) T
}

// Filter returns a new forest holding every node that matches keep, together
// with the ancestors needed to reach it. The input forest is not modified.
func Filter[T filterable[T]](forest []T, keep func(T) bool) []T {
	if keep == nil {
		return forest
	}
	out := make([]T, 0, len(forest))
	for _, n := range forest {
		children := Filter(n.NodeChildren(), keep)
		if keep(n) || len(children) > 0 {
			out = append(out, n.WithChildren(children))
		}
	}
	return out
}

// AttachMappings returns a copy of forest where every node carries the mapping
// stored for its id, or nil when none is stored.
func AttachMappings(forest []CanonicalNode, mappings map[string]Mapping) []CanonicalNode {
	out := make([]CanonicalNode, 0, len(forest))
	for _, n := range forest {
		var m *Mapping
		if stored, ok := mappings[n.ID]; ok {
			m = &stored
		}
		n = n.WithMapping(m)
		n.Children = AttachMappings(n.Children, mappings)
		out = append(out, n)
	}
	return out
}

// ExtractMappings collects mappings carried by canonical nodes.
func ExtractMappings(forest []CanonicalNode) map[string]Mapping {
	out := make(map[string]Mapping)
	var walk func([]CanonicalNode)
	walk = func(nodes []CanonicalNode) {
		for _, n := range nodes {
			if n.ID != "" && n.Mapping != nil {
				out[n.ID] = n.Mapping.Clone()
			}
			walk(n.Children)
		}
	}
	walk(forest)
	return out
}
