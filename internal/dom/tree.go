package dom

// Tree is a read-only id index over a capture's elements. It answers child
// lookups for masked verification and is never modified after BuildTree.
type Tree struct {
	elements []Element
	byID     map[string]int
	children map[string][]int
}

// BuildTree indexes elements by id and collects each id's immediate
// children in a single pass. Children come from two sources, merged and
// deduplicated in element order:
//   - elements whose parent_id names the parent
//   - the parent's own children list, for ids that resolve to an element
//
// The second result is false when no element carries an id or a parent
// link, in which case no tree is built.
func BuildTree(elements []Element) (*Tree, bool) {
	linked := false
	for _, e := range elements {
		if e.ID != "" || e.ParentID != "" {
			linked = true
			break
		}
	}
	if !linked {
		return nil, false
	}

	t := &Tree{
		elements: elements,
		byID:     make(map[string]int, len(elements)),
		children: make(map[string][]int),
	}
	for i, e := range elements {
		if e.ID != "" {
			if _, dup := t.byID[e.ID]; !dup {
				t.byID[e.ID] = i
			}
		}
	}

	seen := make(map[string]map[int]bool)
	add := func(parent string, child int) {
		if parent == "" {
			return
		}
		if elements[child].ID != "" && elements[child].ID == parent {
			return
		}
		if seen[parent] == nil {
			seen[parent] = make(map[int]bool)
		}
		if seen[parent][child] {
			return
		}
		seen[parent][child] = true
		t.children[parent] = append(t.children[parent], child)
	}

	for i, e := range elements {
		add(e.ParentID, i)
		for _, cid := range e.Children {
			if j, ok := t.byID[cid]; ok && e.ID != "" {
				add(e.ID, j)
			}
		}
	}
	return t, true
}

// Element returns the element with the given id.
func (t *Tree) Element(id string) (Element, bool) {
	if t == nil {
		return Element{}, false
	}
	i, ok := t.byID[id]
	if !ok {
		return Element{}, false
	}
	return t.elements[i], true
}

// Children returns the immediate children of id in capture order.
func (t *Tree) Children(id string) []Element {
	if t == nil || id == "" {
		return nil
	}
	idx := t.children[id]
	if len(idx) == 0 {
		return nil
	}
	out := make([]Element, len(idx))
	for k, i := range idx {
		out[k] = t.elements[i]
	}
	return out
}

// HasChildren reports whether id has at least one immediate child.
func (t *Tree) HasChildren(id string) bool {
	if t == nil || id == "" {
		return false
	}
	return len(t.children[id]) > 0
}

// Len returns the number of indexed ids.
func (t *Tree) Len() int {
	if t == nil {
		return 0
	}
	return len(t.byID)
}
