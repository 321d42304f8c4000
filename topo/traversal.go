package topo

import "context"

// TraversalOptions mirrors the teacher's BFSOptions/DFSOptions hook shape,
// adapted to walk Node child records filtered by a StructureType instead
// of core.Graph adjacency.
type TraversalOptions struct {
	// Ctx allows cancellation; nil means context.Background().
	Ctx context.Context

	// OnVisit(n, depth) runs when n is first visited. A returned error
	// aborts the walk (n is already in Order).
	OnVisit func(n *Node, depth int) error
}

// TraversalResult holds one getAllNodesInStructure-style walk outcome.
type TraversalResult struct {
	Order   []*Node
	Depth   map[NodeID]int
	Parent  map[NodeID]NodeID
	Visited map[NodeID]bool
}

// queueItem pairs a node ID with its BFS depth within one structure walk.
type queueItem struct {
	id    NodeID
	depth int
}

// GetAllNodesInStructure performs a breadth-first walk of every node
// reachable from head by following only child records tagged with t,
// grounded on the teacher's algorithms.BFS (same queue/visit/enqueue
// shape, same Order/Depth/Parent/Visited result shape) but walking
// typed child records instead of core.Graph adjacency (spec §4.7).
//
// Complexity: O(V_t + E_t) over the subgraph restricted to type t.
func GetAllNodesInStructure(s *Store, head *Node, t StructureType, opts *TraversalOptions) (*TraversalResult, error) {
	ctx := context.Background()
	if opts != nil && opts.Ctx != nil {
		ctx = opts.Ctx
	}

	res := &TraversalResult{
		Order:   make([]*Node, 0),
		Depth:   make(map[NodeID]int),
		Parent:  make(map[NodeID]NodeID),
		Visited: make(map[NodeID]bool),
	}

	if head == nil {
		return res, nil
	}

	queue := []queueItem{{id: head.id, depth: 0}}
	res.Visited[head.id] = true
	res.Depth[head.id] = 0

	for len(queue) > 0 {
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		default:
		}

		item := queue[0]
		queue = queue[1:]

		n, ok := s.Get(item.id)
		if !ok {
			continue
		}
		res.Order = append(res.Order, n)
		if opts != nil && opts.OnVisit != nil {
			if err := opts.OnVisit(n, item.depth); err != nil {
				return res, err
			}
		}

		for _, rec := range n.ChildrenOfType(t) {
			if res.Visited[rec.ChildID] {
				continue
			}
			res.Visited[rec.ChildID] = true
			res.Parent[rec.ChildID] = item.id
			d := item.depth + 1
			res.Depth[rec.ChildID] = d
			queue = append(queue, queueItem{id: rec.ChildID, depth: d})
		}
	}

	return res, nil
}

// CanAcceptMoreChildren reports whether head still has capacity to take
// on another direct child under structure type t, given maxChildren (a
// strategy-specific fan-out bound; <= 0 means unbounded).
func CanAcceptMoreChildren(head *Node, t StructureType, maxChildren int) bool {
	if maxChildren <= 0 {
		return true
	}

	return len(head.ChildrenOfType(t)) < maxChildren
}

// IsTerminal reports whether node has no children under structure type t,
// i.e. it is a leaf of that structure (used by the tree strategies to pick
// removal victims, by Line to find its free endpoint, and by Star's
// validation).
func IsTerminal(node *Node, t StructureType) bool {
	return len(node.ChildrenOfType(t)) == 0
}

// Depth walks from head to target following only type-t child records and
// returns the hop count, or (0, false) if target is unreachable from head
// under t.
func Depth(s *Store, head *Node, target NodeID, t StructureType) (int, bool) {
	res, err := GetAllNodesInStructure(s, head, t, nil)
	if err != nil {
		return 0, false
	}
	d, ok := res.Depth[target]

	return d, ok
}
