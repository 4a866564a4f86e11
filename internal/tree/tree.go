// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tree assembles flat CherryTree records into a forest of nodes.
//
// Assembly is a two-phase build. Records are indexed by id first; the
// finished types.Node values are only created once every link and image has
// been checked, so no caller ever sees a partially assembled node.
package tree

import (
	"fmt"
	"sort"

	"github.com/pdiddy/ctb2md/internal/apperr"
	"github.com/pdiddy/ctb2md/pkg/types"
)

// builder holds the per-node state gathered during the first phase.
type builder struct {
	record   types.NodeRecord
	images   []types.ImageRecord
	children []types.LinkRecord
	linked   bool
}

// Assemble builds the forest described by nodes, images, and links.
//
// Children are ordered by ascending sequence, ties keeping table order;
// roots (parent id 0) likewise. Images attach to their owning node in table
// order, but only when the node's has-image flag is set. A node that no link
// mentions is reported in Forest.Unreachable.
//
// Duplicate node ids, links or images naming unknown nodes, nodes linked
// more than once, and parent cycles are rejected with apperr.ErrStructure.
func Assemble(nodes []types.NodeRecord, images []types.ImageRecord, links []types.LinkRecord) (*types.Forest, error) {
	byID := make(map[int64]*builder, len(nodes))
	order := make([]int64, 0, len(nodes))
	for _, n := range nodes {
		if _, dup := byID[n.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate node id %d", apperr.ErrStructure, n.ID)
		}
		byID[n.ID] = &builder{record: n}
		order = append(order, n.ID)
	}

	for _, img := range images {
		b, ok := byID[img.NodeID]
		if !ok {
			return nil, fmt.Errorf("%w: image %s references unknown node %d",
				apperr.ErrStructure, img.Filename, img.NodeID)
		}
		if !b.record.HasImage {
			continue
		}
		b.images = append(b.images, img)
	}

	var roots []types.LinkRecord
	for _, l := range links {
		child, ok := byID[l.NodeID]
		if !ok {
			return nil, fmt.Errorf("%w: link references unknown node %d", apperr.ErrStructure, l.NodeID)
		}
		if child.linked {
			return nil, fmt.Errorf("%w: node %d is linked more than once", apperr.ErrStructure, l.NodeID)
		}
		child.linked = true

		if l.IsRoot() {
			roots = append(roots, l)
			continue
		}
		if l.ParentID == l.NodeID {
			return nil, fmt.Errorf("%w: node %d is its own parent", apperr.ErrStructure, l.NodeID)
		}
		parent, ok := byID[l.ParentID]
		if !ok {
			return nil, fmt.Errorf("%w: node %d references unknown parent %d",
				apperr.ErrStructure, l.NodeID, l.ParentID)
		}
		parent.children = append(parent.children, l)
	}

	forest := &types.Forest{}
	for _, id := range order {
		if !byID[id].linked {
			forest.Unreachable = append(forest.Unreachable, id)
		}
	}

	// Second phase: create every linked node, then wire children in
	// sequence order.
	built := make(map[int64]*types.Node, len(byID))
	for _, id := range order {
		if b := byID[id]; b.linked {
			built[id] = &types.Node{Record: b.record, Images: b.images}
		}
	}
	for _, id := range order {
		b := byID[id]
		if !b.linked {
			continue
		}
		sortBySequence(b.children)
		n := built[id]
		for _, l := range b.children {
			n.Children = append(n.Children, built[l.NodeID])
		}
	}

	sortBySequence(roots)
	for _, l := range roots {
		forest.Roots = append(forest.Roots, built[l.NodeID])
	}

	// Each node has at most one parent, so a linked node that no root
	// reaches sits on a parent cycle.
	reached := make(map[*types.Node]bool, len(built))
	stack := append([]*types.Node(nil), forest.Roots...)
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		reached[top] = true
		stack = append(stack, top.Children...)
	}
	var cycle []int64
	for _, id := range order {
		if n, ok := built[id]; ok && !reached[n] {
			cycle = append(cycle, id)
		}
	}
	if len(cycle) > 0 {
		sort.Slice(cycle, func(i, j int) bool { return cycle[i] < cycle[j] })
		return nil, fmt.Errorf("%w: nodes %v form a parent cycle", apperr.ErrStructure, cycle)
	}
	sort.Slice(forest.Unreachable, func(i, j int) bool {
		return forest.Unreachable[i] < forest.Unreachable[j]
	})

	return forest, nil
}

func sortBySequence(links []types.LinkRecord) {
	sort.SliceStable(links, func(i, j int) bool {
		return links[i].Sequence < links[j].Sequence
	})
}
