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

// FullyConnected plans K_n: every mirror connects to every other (spec
// §4.3, grounded on builder.Complete/impl_complete.go's i<j double loop,
// translated into child records instead of graph edges). This is the
// mesh-shaped case spec §4.7/§9-OpenQuestion-1 calls out: no single node
// has a unique parent, so every AddChild call here passes setParent=false
// and the head (lowest id) holds a direct child record to every other
// member, keeping GetAllNodesInStructure a one-hop BFS from the head.
type FullyConnected struct {
	*substructure.Base

	store *topo.Store
	net   *meshnet.Network
	cfg   meshcfg.Properties
}

// NewFullyConnected constructs a FullyConnected strategy.
func NewFullyConnected(net *meshnet.Network, store *topo.Store, cfg meshcfg.Properties, log *meshlog.Logger) *FullyConnected {
	f := &FullyConnected{store: store, net: net, cfg: cfg}
	f.Base = substructure.NewBase(net, store, cfg, log, f)

	return f
}

func (f *FullyConnected) StrategyName() string              { return "FullyConnected" }
func (f *FullyConnected) StructureKind() topo.StructureType { return topo.FullyConnected }

// BuildStructure plans K_n for total fresh nodes: the i<j double loop
// from builder.Complete, recorded as child records from the head to
// every member (i=0 row) and among every other pair (general i<j), all
// without setting a single-parent pointer.
func (f *FullyConnected) BuildStructure(total int) (*topo.Node, error) {
	if total < 1 {
		return nil, fmt.Errorf("strategy: FullyConnected.BuildStructure: n=%d < 1: %w", total, substructure.ErrInfeasibleSize)
	}

	mirrors := f.net.GetMirrorCursor().CreateMirrors(total)
	nodes := make([]*topo.Node, 0, total)
	for _, m := range mirrors {
		nodes = append(nodes, f.CreateMirrorNodeForMirror(m))
	}
	head := nodes[0]
	head.SetHead(topo.FullyConnected, true)

	for i := 0; i < len(nodes); i++ {
		for j := i + 1; j < len(nodes); j++ {
			nodes[i].AddChild(nodes[j], topo.FullyConnected, head.ID(), false)
		}
	}

	return head, nil
}

func (f *FullyConnected) CreateMirrorNodeForMirror(m *meshnet.Mirror) *topo.Node {
	n := f.store.NewNode(topo.FullyConnected)
	n.BindMirror(m.ID())

	return n
}

// AddNodesToStructure connects each new mirror to every existing member
// (spec §4.3 "connect new node to all").
func (f *FullyConnected) AddNodesToStructure(newMirrors []*meshnet.Mirror) (int, error) {
	head := f.CurrentRoot()
	res, err := topo.GetAllNodesInStructure(f.store, head, topo.FullyConnected, nil)
	if err != nil {
		return 0, fmt.Errorf("strategy: FullyConnected.AddNodesToStructure: %w", err)
	}
	existing := res.Order

	for _, m := range newMirrors {
		n := f.CreateMirrorNodeForMirror(m)
		for _, other := range existing {
			other.AddChild(n, topo.FullyConnected, head.ID(), false)
		}
		existing = append(existing, n)
	}

	return len(newMirrors), nil
}

// RemoveNodesFromStructure removes up to k non-head members (spec §4.3
// "any non-head"), dropping every record referencing them.
func (f *FullyConnected) RemoveNodesFromStructure(k int) ([]*topo.Node, error) {
	head := f.CurrentRoot()
	res, err := topo.GetAllNodesInStructure(f.store, head, topo.FullyConnected, nil)
	if err != nil {
		return nil, fmt.Errorf("strategy: FullyConnected.RemoveNodesFromStructure: %w", err)
	}

	removed := make([]*topo.Node, 0, k)
	for i := len(res.Order) - 1; i >= 0 && len(removed) < k; i-- {
		v := res.Order[i]
		if v.ID() == head.ID() {
			continue
		}
		removed = append(removed, v)
	}

	victim := make(map[topo.NodeID]bool, len(removed))
	for _, v := range removed {
		victim[v.ID()] = true
	}
	for _, n := range res.Order {
		if victim[n.ID()] {
			continue
		}
		for _, rec := range n.ChildrenOfType(topo.FullyConnected) {
			if victim[rec.ChildID] {
				n.RemoveChild(rec.ChildID, topo.FullyConnected)
			}
		}
	}
	for _, v := range removed {
		f.store.Delete(v.ID())
	}

	return removed, nil
}

// ValidateTopology checks that the structure has a head and at least one
// node. It does not inspect the per-pair child records.
func (f *FullyConnected) ValidateTopology() bool {
	head := f.CurrentRoot()

	return head != nil && f.StructureNodeCount() >= 1
}

// GetNumTargetLinks implements the FullyConnected formula: n(n-1)/2 (P3).
func (f *FullyConnected) GetNumTargetLinks(numMirrors int) int {
	if numMirrors < 1 {
		return 0
	}

	return numMirrors * (numMirrors - 1) / 2
}

func (f *FullyConnected) GetPredictedNumTargetLinks(a action.Action, currentMirrors, _ int) int {
	switch v := a.(type) {
	case action.MirrorChange:
		return f.GetNumTargetLinks(v.NewMirrorCount)
	default:
		return f.GetNumTargetLinks(currentMirrors)
	}
}
