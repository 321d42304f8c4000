package topo

// Children returns a snapshot of this node's child records, in the order
// they were added (insertion order is the planning order a strategy used,
// which matters for deterministic replanning — spec §5).
func (n *Node) Children() []*ChildRecord {
	n.mu.RLock()
	defer n.mu.RUnlock()

	out := make([]*ChildRecord, len(n.children))
	copy(out, n.children)

	return out
}

// ChildrenOfType returns only the child records tagged with t.
func (n *Node) ChildrenOfType(t StructureType) []*ChildRecord {
	n.mu.RLock()
	defer n.mu.RUnlock()

	out := make([]*ChildRecord, 0, len(n.children))
	for _, r := range n.children {
		if r.HasType(t) {
			out = append(out, r)
		}
	}

	return out
}

// FindChildRecordByID returns the child record for childID, if one exists
// on this node under any type.
func (n *Node) FindChildRecordByID(childID NodeID) (*ChildRecord, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	idx, ok := n.childIndex[childID]
	if !ok {
		return nil, false
	}

	return n.children[idx], true
}

// AddChild records child as a child of n under structure type t, with
// headID as the head of that structure. If a record for child already
// exists (the child is being grafted into an additional structure — spec
// §4.2.3), t and headID are merged into the existing record instead of
// creating a duplicate.
//
// When setParent is true, child's own parent pointer is set to n — only
// tree-shaped strategies (Tree, BalancedTree, DepthLimitTree, Line, Ring,
// Star) pass true; mesh-shaped strategies (FullyConnected, NConnected)
// pass false and rely purely on child records (spec §4.7).
func (n *Node) AddChild(child *Node, t StructureType, headID NodeID, setParent bool) {
	n.mu.Lock()
	if idx, ok := n.childIndex[child.id]; ok {
		r := n.children[idx]
		r.Types[t] = struct{}{}
		r.HeadIDs[t] = headID
	} else {
		r := &ChildRecord{
			ChildID: child.id,
			Types:   map[StructureType]struct{}{t: {}},
			HeadIDs: map[StructureType]NodeID{t: headID},
		}
		n.childIndex[child.id] = len(n.children)
		n.children = append(n.children, r)
	}
	n.mu.Unlock()

	if setParent {
		child.setParent(n.id)
	}
}

// RemoveChild drops structure type t from child's record on n. If that
// was the record's last type, the record is removed entirely. Reports
// whether the child's record still exists afterward under any type.
func (n *Node) RemoveChild(childID NodeID, t StructureType) (remains bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	idx, ok := n.childIndex[childID]
	if !ok {
		return false
	}
	r := n.children[idx]
	delete(r.Types, t)
	delete(r.HeadIDs, t)

	if len(r.Types) > 0 {
		return true
	}

	// Last type removed: splice the record out, keeping order stable for
	// the remaining children and re-indexing.
	n.children = append(n.children[:idx], n.children[idx+1:]...)
	delete(n.childIndex, childID)
	for i := idx; i < len(n.children); i++ {
		n.childIndex[n.children[i].ChildID] = i
	}

	return false
}

// UpdateChildRecordMergeStructureHead rewrites the head pointer recorded
// for structure type t, on every existing child record that already
// carries t, to newHead, without touching membership. No strategy in this
// module calls it.
func (n *Node) UpdateChildRecordMergeStructureHead(t StructureType, newHead NodeID) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, r := range n.children {
		if r.HasType(t) {
			r.HeadIDs[t] = newHead
		}
	}
}

// UpdateChildRecordRemoveStructureHead strips structure type t (and its
// head pointer) from every child record on n, removing records left with
// no remaining type. Used when a whole structure is torn down (spec
// §4.2.3 sever) and every grafted membership under it must be cleared in
// one pass.
func (n *Node) UpdateChildRecordRemoveStructureHead(t StructureType) {
	n.mu.Lock()
	defer n.mu.Unlock()

	kept := n.children[:0]
	newIndex := make(map[NodeID]int, len(n.children))
	for _, r := range n.children {
		delete(r.Types, t)
		delete(r.HeadIDs, t)
		if len(r.Types) == 0 {
			continue
		}
		newIndex[r.ChildID] = len(kept)
		kept = append(kept, r)
	}
	n.children = kept
	n.childIndex = newIndex
}
