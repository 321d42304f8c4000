package substructure

import (
	"fmt"

	"github.com/arcveil/meshtopo/action"
	"github.com/arcveil/meshtopo/meshnet"
	"github.com/arcveil/meshtopo/topo"
)

// snapshotOwned copies a Base's current structureNodes so it can be
// threaded through to BuildAndUpdateLinks after adoptRoot (or an in-place
// delete) has gone on to mutate or replace the live map.
func snapshotOwned(m map[topo.NodeID]struct{}) map[topo.NodeID]struct{} {
	out := make(map[topo.NodeID]struct{}, len(m))
	for id := range m {
		out[id] = struct{}{}
	}

	return out
}

// InitNetwork builds this strategy's structure for totalMirrors mirrors
// drawn from the network's cursor and reconciles links (spec §4.2
// initNetwork). Fails with ErrInfeasibleSize if totalMirrors cannot
// satisfy the strategy's minimum.
func (b *Base) InitNetwork(totalMirrors int, at int64) ([]*meshnet.Link, error) {
	prevOwned := snapshotOwned(b.structureNodes)

	root, err := b.hooks.BuildStructure(totalMirrors)
	if err != nil {
		return nil, fmt.Errorf("substructure: InitNetwork: %w", err)
	}
	if err := b.adoptRoot(root, b.hooks.StructureKind()); err != nil {
		return nil, fmt.Errorf("substructure: InitNetwork: %w", err)
	}
	if !b.hooks.ValidateTopology() {
		return nil, fmt.Errorf("substructure: InitNetwork: %w", ErrStructureInvariantViolation)
	}

	return BuildAndUpdateLinks(b.net, b.store, b.currentRoot, b.hooks.StructureKind(), prevOwned, at)
}

// RestartNetwork forgets the current plan and rebuilds from scratch at
// the same mirror count, shutting down anything no longer referenced
// (spec §4.2 restartNetwork).
func (b *Base) RestartNetwork(at int64) ([]*meshnet.Link, error) {
	total := b.StructureNodeCount()

	return b.InitNetwork(total, at)
}

// HandleAddNewMirrors allocates k new mirrors via the network's cursor,
// integrates them via the strategy's AddNodesToStructure, and reconciles
// links (spec §4.2 handleAddNewMirrors). Fails with ErrMirrorExhausted if
// the cursor cannot supply k mirrors.
func (b *Base) HandleAddNewMirrors(k int, at int64) ([]*meshnet.Link, error) {
	if k <= 0 {
		return nil, nil
	}

	prevOwned := snapshotOwned(b.structureNodes)

	cursor := b.net.GetMirrorCursor()
	newMirrors := cursor.CreateMirrors(k)
	if len(newMirrors) < k {
		return nil, fmt.Errorf("substructure: HandleAddNewMirrors: %w", ErrMirrorExhausted)
	}

	added, err := b.hooks.AddNodesToStructure(newMirrors)
	if err != nil {
		return nil, fmt.Errorf("substructure: HandleAddNewMirrors: %w", err)
	}
	if added > 0 {
		if err := b.adoptRoot(b.currentRoot, b.hooks.StructureKind()); err != nil {
			return nil, fmt.Errorf("substructure: HandleAddNewMirrors: %w", err)
		}
	}
	if !b.hooks.ValidateTopology() {
		return nil, fmt.Errorf("substructure: HandleAddNewMirrors: %w", ErrStructureInvariantViolation)
	}

	return BuildAndUpdateLinks(b.net, b.store, b.currentRoot, b.hooks.StructureKind(), prevOwned, at)
}

// HandleRemoveMirrors selects k victims via the strategy's
// RemoveNodesFromStructure, reconciles links, and shuts down detached
// mirrors (spec §4.2 handleRemoveMirrors). Fails with ErrInfeasibleSize
// if removal would drop the structure below its minimum size.
func (b *Base) HandleRemoveMirrors(k int, at int64) ([]*meshnet.Link, error) {
	if k <= 0 {
		return nil, nil
	}

	prevOwned := snapshotOwned(b.structureNodes)

	removed, err := b.hooks.RemoveNodesFromStructure(k)
	if err != nil {
		return nil, fmt.Errorf("substructure: HandleRemoveMirrors: %w", err)
	}
	for _, node := range removed {
		delete(b.structureNodes, node.ID())
		delete(b.owner, node.ID())
		if mirrorID, ok := node.MirrorID(); ok {
			if m, ok := b.net.GetMirrorByID(mirrorID); ok {
				b.net.ShutdownMirror(m, at)
			}
		}
	}
	if !b.hooks.ValidateTopology() {
		return nil, fmt.Errorf("substructure: HandleRemoveMirrors: %w", ErrStructureInvariantViolation)
	}

	return BuildAndUpdateLinks(b.net, b.store, b.currentRoot, b.hooks.StructureKind(), prevOwned, at)
}

// GetNumTargetLinks returns the expected link count for this structure's
// current mirror count (spec §4.2 getNumTargetLinks).
func (b *Base) GetNumTargetLinks() int {
	return b.hooks.GetNumTargetLinks(b.StructureNodeCount())
}

// GetPredictedNumTargetLinks prices a hypothetical action without
// mutation (spec §4.2 getPredictedNumTargetLinks). An action.Action
// variant the strategy cannot specifically price falls back to the
// current GetNumTargetLinks rather than failing (spec §7 UnknownAction).
func (b *Base) GetPredictedNumTargetLinks(a action.Action) int {
	switch a.(type) {
	case action.MirrorChange, action.TargetLinkChange, action.TopologyChange:
		return b.hooks.GetPredictedNumTargetLinks(a, b.StructureNodeCount(), b.net.GetNumTargetLinksPerMirror())
	default:
		b.log.Warnf("GetPredictedNumTargetLinks: %v, falling back to GetNumTargetLinks", ErrUnknownAction)

		return b.GetNumTargetLinks()
	}
}
