package substructure

import (
	"fmt"

	"github.com/arcveil/meshtopo/topo"
)

// compositeType is the structure type a composite tags onto every node
// it grafts, distinct from the grafted child's own native type. It is the
// composite's own hooks.StructureKind() (topo.Snowflake for Snowflake).
func (b *Base) compositeType() topo.StructureType {
	return b.hooks.StructureKind()
}

// ConnectToStructureNodes grafts child's substructure onto host (spec
// §4.2.3). On the first graft into an empty composite (b.currentRoot ==
// nil), the composite identifies with child's root: it adopts
// child.CurrentRoot() as its own root, unions node-type sets, and does
// not require a pre-existing host. On every subsequent graft, host must
// already be a node this composite manages.
func (b *Base) ConnectToStructureNodes(host *topo.Node, child *Base) error {
	childRoot := child.CurrentRoot()
	if childRoot == nil {
		return fmt.Errorf("substructure: ConnectToStructureNodes: child has no root: %w", ErrTypeIncompatibility)
	}

	composite := b.compositeType()

	if b.currentRoot == nil {
		return b.identifyFirstGraft(childRoot, child, composite)
	}

	if _, owned := b.structureNodes[host.ID()]; !owned {
		return fmt.Errorf("substructure: ConnectToStructureNodes: host %d not owned by composite: %w", host.ID(), ErrTypeIncompatibility)
	}

	host.AddNodeType(composite)
	host.AddChild(childRoot, composite, b.currentRoot.ID(), false)
	b.absorbSubtree(child, childRoot, composite)

	return nil
}

// identifyFirstGraft handles the "first graft is identification" design
// note (spec §9): the composite has no root of its own yet, so it simply
// becomes child's root rather than attaching as an ordinary child.
func (b *Base) identifyFirstGraft(childRoot *topo.Node, child *Base, composite topo.StructureType) error {
	childRoot.AddNodeType(composite)
	childRoot.SetHead(composite, true)
	b.currentRoot = childRoot
	b.absorbSubtree(child, childRoot, composite)

	return nil
}

// absorbSubtree walks every node in child's managed set, tags it with
// composite, and registers it into this composite's structureNodes and
// owner map (pointing ownership at child, the nested substructure — I6).
func (b *Base) absorbSubtree(child *Base, childRoot *topo.Node, composite topo.StructureType) {
	for _, id := range child.StructureNodeIDs() {
		node, ok := b.store.Get(id)
		if !ok {
			continue
		}
		node.AddNodeType(composite)
		b.structureNodes[id] = struct{}{}
		b.owner[id] = child
	}
}

// DisconnectFromStructureNodes severs child back out of the composite
// (spec §4.2.3). host must be child.CurrentRoot(). Returns the now-
// standalone child root. Nodes still participating in another nested
// substructure of this composite are kept in structureNodes; nodes with
// no remaining membership are dropped. Severing the child whose root is
// the composite's own root (the identifying first graft) leaves the
// composite without a root, so the next graft identifies again.
func (b *Base) DisconnectFromStructureNodes(host *topo.Node, child *Base) (*topo.Node, error) {
	childRoot := child.CurrentRoot()
	if host == nil || childRoot == nil || host.ID() != childRoot.ID() {
		return nil, fmt.Errorf("substructure: DisconnectFromStructureNodes: host must be child's root: %w", ErrTypeIncompatibility)
	}

	composite := b.compositeType()

	for _, id := range child.StructureNodeIDs() {
		node, ok := b.store.Get(id)
		if !ok {
			continue
		}
		node.RemoveNodeType(composite)
		node.UpdateChildRecordRemoveStructureHead(composite)

		if owner, ok := b.owner[id]; ok && owner == child {
			delete(b.owner, id)
			delete(b.structureNodes, id)
		}
	}

	childRoot.SetHead(composite, false)
	if b.currentRoot != nil && b.currentRoot.ID() == childRoot.ID() {
		b.currentRoot = nil
	}

	return childRoot, nil
}
