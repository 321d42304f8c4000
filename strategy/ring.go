// Package strategy implements the eight leaf topology strategies (spec
// §4.3), each a thin Hooks implementation over substructure.Base. Plan
// shapes are grounded on the teacher's builder.Cycle/Path/Star/Complete/
// RandomRegular constructors, translated from core.Graph edges into
// topo.Node child records.
package strategy

import (
	"fmt"

	"github.com/arcveil/meshtopo/action"
	"github.com/arcveil/meshtopo/meshcfg"
	"github.com/arcveil/meshtopo/meshlog"
	"github.com/arcveil/meshtopo/meshnet"
	"github.com/arcveil/meshtopo/substructure"
	"github.com/arcveil/meshtopo/topo"
)

// Ring plans a simple cycle: every mirror connects to exactly its two
// ring-neighbors (spec §4.3, grounded on builder.Cycle/impl_cycle.go).
type Ring struct {
	*substructure.Base

	store *topo.Store
	net   *meshnet.Network
	cfg   meshcfg.Properties
}

// NewRing constructs a Ring strategy over net/store using cfg.MinRingSize
// as its feasibility floor.
func NewRing(net *meshnet.Network, store *topo.Store, cfg meshcfg.Properties, log *meshlog.Logger) *Ring {
	r := &Ring{store: store, net: net, cfg: cfg}
	r.Base = substructure.NewBase(net, store, cfg, log, r)

	return r
}

// StrategyName satisfies meshnet.TopologyStrategy.
func (r *Ring) StrategyName() string { return "Ring" }

// StructureKind satisfies substructure.Hooks.
func (r *Ring) StructureKind() topo.StructureType { return topo.Ring }

// BuildStructure plans a ring of total fresh nodes, closing the cycle
// back to the head last. total < cfg.MinRingSize is ErrInfeasibleSize
// (I7).
func (r *Ring) BuildStructure(total int) (*topo.Node, error) {
	if total < r.cfg.MinRingSize {
		return nil, fmt.Errorf("strategy: Ring.BuildStructure: n=%d < min=%d: %w", total, r.cfg.MinRingSize, substructure.ErrInfeasibleSize)
	}

	mirrors := r.net.GetMirrorCursor().CreateMirrors(total)
	nodes := make([]*topo.Node, 0, total)
	for _, m := range mirrors {
		nodes = append(nodes, r.CreateMirrorNodeForMirror(m))
	}

	head := nodes[0]
	head.SetHead(topo.Ring, true)
	for i := 0; i < len(nodes)-1; i++ {
		nodes[i].AddChild(nodes[i+1], topo.Ring, head.ID(), true)
	}
	nodes[len(nodes)-1].AddChild(head, topo.Ring, head.ID(), true)

	return head, nil
}

// CreateMirrorNodeForMirror satisfies substructure.Hooks.
func (r *Ring) CreateMirrorNodeForMirror(m *meshnet.Mirror) *topo.Node {
	n := r.store.NewNode(topo.Ring)
	n.BindMirror(m.ID())

	return n
}

// AddNodesToStructure inserts each new mirror between the head and its
// current ring-successor, growing the ring one link at a time (spec
// §4.3 "insert between an existing neighbor pair").
func (r *Ring) AddNodesToStructure(newMirrors []*meshnet.Mirror) (int, error) {
	head := r.CurrentRoot()
	succRecs := head.ChildrenOfType(topo.Ring)
	if len(succRecs) == 0 {
		return 0, fmt.Errorf("strategy: Ring.AddNodesToStructure: head has no successor: %w", substructure.ErrStructureInvariantViolation)
	}
	succID := succRecs[0].ChildID
	succ, ok := r.store.Get(succID)
	if !ok {
		return 0, fmt.Errorf("strategy: Ring.AddNodesToStructure: successor %d missing: %w", succID, substructure.ErrStructureInvariantViolation)
	}

	head.RemoveChild(succID, topo.Ring)
	prev := head
	for _, m := range newMirrors {
		n := r.CreateMirrorNodeForMirror(m)
		prev.AddChild(n, topo.Ring, head.ID(), true)
		prev = n
	}
	prev.AddChild(succ, topo.Ring, head.ID(), true)

	return len(newMirrors), nil
}

// RemoveNodesFromStructure removes up to k non-head nodes, reconnecting
// each victim's neighbors directly (spec §4.3 "remove a non-head node;
// reconnect its neighbors"). Fails with ErrInfeasibleSize if removal
// would drop below cfg.MinRingSize.
func (r *Ring) RemoveNodesFromStructure(k int) ([]*topo.Node, error) {
	head := r.CurrentRoot()
	if r.StructureNodeCount()-k < r.cfg.MinRingSize {
		return nil, fmt.Errorf("strategy: Ring.RemoveNodesFromStructure: would drop below min=%d: %w", r.cfg.MinRingSize, substructure.ErrInfeasibleSize)
	}

	res, err := topo.GetAllNodesInStructure(r.store, head, topo.Ring, nil)
	if err != nil {
		return nil, fmt.Errorf("strategy: Ring.RemoveNodesFromStructure: %w", err)
	}

	removed := make([]*topo.Node, 0, k)
	for i := len(res.Order) - 1; i >= 0 && len(removed) < k; i-- {
		v := res.Order[i]
		if v.ID() == head.ID() {
			continue
		}
		removed = append(removed, v)
	}

	for _, v := range removed {
		predID, hasPred := v.Parent()
		succRecs := v.ChildrenOfType(topo.Ring)
		if !hasPred || len(succRecs) == 0 {
			continue
		}
		pred, ok := r.store.Get(predID)
		if !ok {
			continue
		}
		succ, ok := r.store.Get(succRecs[0].ChildID)
		if !ok {
			continue
		}
		pred.RemoveChild(v.ID(), topo.Ring)
		v.RemoveChild(succ.ID(), topo.Ring)
		pred.AddChild(succ, topo.Ring, head.ID(), true)
		r.store.Delete(v.ID())
	}

	return removed, nil
}

// ValidateTopology checks the ring is still at least cfg.MinRingSize and
// every owned node has exactly one Ring-tagged child (I5/I7).
func (r *Ring) ValidateTopology() bool {
	head := r.CurrentRoot()
	if head == nil {
		return false
	}
	if r.StructureNodeCount() < r.cfg.MinRingSize {
		return false
	}
	for _, id := range r.StructureNodeIDs() {
		n, ok := r.store.Get(id)
		if !ok || len(n.ChildrenOfType(topo.Ring)) != 1 {
			return false
		}
	}

	return true
}

// GetNumTargetLinks implements the Ring formula: n if n >= 3, else 0 (P3).
func (r *Ring) GetNumTargetLinks(numMirrors int) int {
	if numMirrors < r.cfg.MinRingSize {
		return 0
	}

	return numMirrors
}

// GetPredictedNumTargetLinks prices the three action variants by formula,
// without mutating any state (spec §4.3/§4.6).
func (r *Ring) GetPredictedNumTargetLinks(a action.Action, currentMirrors, _ int) int {
	switch v := a.(type) {
	case action.MirrorChange:
		return r.GetNumTargetLinks(v.NewMirrorCount)
	case action.TargetLinkChange:
		return r.GetNumTargetLinks(currentMirrors)
	case action.TopologyChange:
		return r.GetNumTargetLinks(currentMirrors)
	default:
		return r.GetNumTargetLinks(currentMirrors)
	}
}
