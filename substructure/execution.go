package substructure

import (
	"fmt"

	"github.com/arcveil/meshtopo/meshnet"
	"github.com/arcveil/meshtopo/topo"
)

// BuildAndUpdateLinks is the execution plane (spec §4.2.2): it diffs the
// planned adjacency reachable from root under structureType against the
// mirrors' actual link set and applies the minimal set of create/shutdown
// operations to close the gap. It is a symmetric-difference algorithm:
// idempotent, and order-independent up to new link ids.
//
// prevOwned is the calling instance's own structureNodes set as it stood
// before this call's planning step — the candidate set for step 5's
// orphan sweep. It must never be store.AllIDs(): several instances of the
// same StructureType can share one store (a Snowflake's externals are all
// e.g. Star), and sweeping the whole arena would strip the type tag off
// another instance's live nodes the moment this one reconciles.
//
// Complexity: O(|N|^2) in the reachable node count, one ordered pair at a
// time, matching the spec's "for each ordered pair (a, b) in N" step.
func BuildAndUpdateLinks(net *meshnet.Network, store *topo.Store, root *topo.Node, structureType topo.StructureType, prevOwned map[topo.NodeID]struct{}, at int64) ([]*meshnet.Link, error) {
	if root == nil {
		return nil, fmt.Errorf("substructure: BuildAndUpdateLinks: %w", ErrTypeIncompatibility)
	}
	if !root.HasType(structureType) {
		return nil, fmt.Errorf("substructure: BuildAndUpdateLinks: root lacks %s: %w", structureType, ErrTypeIncompatibility)
	}

	res, err := topo.GetAllNodesInStructure(store, root, structureType, nil)
	if err != nil {
		return nil, fmt.Errorf("substructure: BuildAndUpdateLinks: %w", err)
	}
	n := res.Order

	touched := make([]*meshnet.Link, 0, len(n))

	for i := range n {
		for j := range n {
			if i == j {
				continue
			}
			a, b := n[i], n[j]

			if _, err := touchPair(net, a, b, structureType, at, &touched); err != nil {
				return touched, err
			}
		}
	}

	// Step 5: mirrors bound to nodes this instance previously managed but
	// that fell out of N are detached — shut down unless the node still
	// carries some other structure-type tag keeping it alive elsewhere.
	// Scoped to prevOwned, not the whole store: other instances of the
	// same StructureType may share this store and must be left alone.
	visited := res.Visited
	for id := range prevOwned {
		if visited[id] {
			continue
		}
		node, ok := store.Get(id)
		if !ok {
			continue
		}
		if !node.HasType(structureType) {
			continue
		}
		node.RemoveNodeType(structureType)
		if len(node.NodeTypes()) > 0 {
			continue
		}
		if mirrorID, hasMirror := node.MirrorID(); hasMirror {
			if m, ok := net.GetMirrorByID(mirrorID); ok {
				net.ShutdownMirror(m, at)
			}
		}
	}

	return touched, nil
}

// touchPair resolves the planned/linked state of one ordered pair and
// applies whatever create/shutdown the symmetric-difference calls for.
func touchPair(net *meshnet.Network, a, b *topo.Node, t topo.StructureType, at int64, touched *[]*meshnet.Link) (bool, error) {
	aMirrorID, aHasMirror := a.MirrorID()
	bMirrorID, bHasMirror := b.MirrorID()
	if !aHasMirror || !bHasMirror {
		return false, nil
	}
	aMirror, ok := net.GetMirrorByID(aMirrorID)
	if !ok {
		return false, nil
	}
	bMirror, ok := net.GetMirrorByID(bMirrorID)
	if !ok {
		return false, nil
	}

	aPlanned := hasChildTagged(a, b.ID(), t)
	bPlanned := hasChildTagged(b, a.ID(), t)

	aLinked := aMirror.IsAlreadyConnected(bMirror)
	bLinked := bMirror.IsAlreadyConnected(aMirror)
	if aLinked != bLinked {
		return false, fmt.Errorf("substructure: mirrors %d/%d: %w", aMirrorID, bMirrorID, ErrAsymmetricLink)
	}

	switch {
	case !aLinked && (aPlanned || bPlanned):
		l, err := net.CreateLink(aMirror, bMirror, at, nil)
		if err != nil {
			return false, fmt.Errorf("substructure: create link %d-%d: %w", aMirrorID, bMirrorID, err)
		}
		*touched = append(*touched, l)

		return true, nil
	case aLinked && !aPlanned && !bPlanned:
		for _, l := range aMirror.GetLinksTo(bMirror) {
			net.ShutdownLink(l, at)
			*touched = append(*touched, l)
		}

		return false, nil
	default:
		return aLinked, nil
	}
}

// hasChildTagged reports whether parent has a child record for childID
// tagged with t — i.e. whether parent.children "contains" childID under t.
func hasChildTagged(parent *topo.Node, childID topo.NodeID, t topo.StructureType) bool {
	rec, ok := parent.FindChildRecordByID(childID)

	return ok && rec.HasType(t)
}
