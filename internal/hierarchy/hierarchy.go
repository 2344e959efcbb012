// Package hierarchy implements the tree operations behind the performance
// indicator hierarchy: descendant enumeration for cycle prevention and
// arbitrary-depth tree assembly. All traversals are iterative so pathological
// trees cannot blow the stack.
package hierarchy

import (
	"sort"
)

// Entry is one node of the hierarchy as the traversals see it
type Entry struct {
	ID       uint
	ParentID *uint
	Name     string
}

// Tree is an assembled subtree rooted at one entry
type Tree struct {
	Entry
	Children []*Tree
}

// ChildIndex builds the parent -> children adjacency map. Children of the
// zero key are the roots.
func ChildIndex(entries []Entry) map[uint][]Entry {
	index := make(map[uint][]Entry, len(entries))
	for _, e := range entries {
		var parent uint
		if e.ParentID != nil {
			parent = *e.ParentID
		}
		index[parent] = append(index[parent], e)
	}
	for parent := range index {
		children := index[parent]
		sort.Slice(children, func(i, j int) bool { return children[i].Name < children[j].Name })
	}
	return index
}

// Descendants returns the full descendant id set of the given node, walked
// breadth-first over the adjacency map.
func Descendants(index map[uint][]Entry, rootID uint) map[uint]struct{} {
	result := make(map[uint]struct{})
	queue := []uint{rootID}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, child := range index[current] {
			if _, seen := result[child.ID]; seen {
				continue
			}
			result[child.ID] = struct{}{}
			queue = append(queue, child.ID)
		}
	}
	return result
}

// WouldCycle reports whether reparenting the node onto newParent would create
// a cycle: either self-parenting or a parent drawn from the node's own
// descendant set.
func WouldCycle(entries []Entry, nodeID, newParentID uint) bool {
	if nodeID == newParentID {
		return true
	}
	descendants := Descendants(ChildIndex(entries), nodeID)
	_, isDescendant := descendants[newParentID]
	return isDescendant
}

// Build assembles the forest of root trees. Siblings come back sorted by
// name. maxDepth caps how many levels are expanded; zero or negative means
// unlimited.
func Build(entries []Entry, maxDepth int) []*Tree {
	index := ChildIndex(entries)
	roots := make([]*Tree, 0, len(index[0]))
	for _, rootEntry := range index[0] {
		roots = append(roots, buildSubtree(index, rootEntry, maxDepth))
	}
	return roots
}

func buildSubtree(index map[uint][]Entry, root Entry, maxDepth int) *Tree {
	tree := &Tree{Entry: root}

	type frame struct {
		node  *Tree
		depth int
	}
	stack := []frame{{node: tree, depth: 1}}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if maxDepth > 0 && current.depth >= maxDepth {
			continue
		}
		for _, childEntry := range index[current.node.ID] {
			child := &Tree{Entry: childEntry}
			current.node.Children = append(current.node.Children, child)
			stack = append(stack, frame{node: child, depth: current.depth + 1})
		}
	}
	return tree
}
