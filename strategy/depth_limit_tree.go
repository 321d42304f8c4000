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

// DepthLimitTree plans a rooted tree capped at cfg.MaxDepth, every node
// (root included) accepting up to cfg.LinksPerMirror children. Placement
// prefers the deepest still-open candidate (DFS preference, spec §4.3),
// which against the worked example in spec §8 scenario 4 (L=3,
// maxDepth=2, root alone then +10 mirrors) fills exactly 11 nodes with no
// depth-2 overflow, confirming per-node capacity is the full
// cfg.LinksPerMirror rather than Tree's parent-edge-deducted capacity.
type DepthLimitTree struct {
	*substructure.Base

	store *topo.Store
	net   *meshnet.Network
	cfg   meshcfg.Properties
}

// NewDepthLimitTree constructs a DepthLimitTree strategy using
// cfg.MaxDepth as its hard depth ceiling.
func NewDepthLimitTree(net *meshnet.Network, store *topo.Store, cfg meshcfg.Properties, log *meshlog.Logger) *DepthLimitTree {
	d := &DepthLimitTree{store: store, net: net, cfg: cfg}
	d.Base = substructure.NewBase(net, store, cfg, log, d)

	return d
}

func (d *DepthLimitTree) StrategyName() string              { return "DepthLimitTree" }
func (d *DepthLimitTree) StructureKind() topo.StructureType { return topo.DepthLimitTree }

func (d *DepthLimitTree) CreateMirrorNodeForMirror(m *meshnet.Mirror) *topo.Node {
	n := d.store.NewNode(topo.DepthLimitTree)
	n.BindMirror(m.ID())

	return n
}

// pickDeepestCandidate returns the deepest node below cfg.MaxDepth with
// spare child capacity, tie-broken by lowest id (earliest created, DFS
// preference into the first branch opened).
func pickDeepestCandidate(order []*topo.Node, depth map[topo.NodeID]int, cfg meshcfg.Properties) *topo.Node {
	var best *topo.Node
	bestDepth := -1
	for _, n := range order {
		nd := depth[n.ID()]
		if nd >= cfg.MaxDepth {
			continue
		}
		if degree(n, topo.DepthLimitTree) >= cfg.LinksPerMirror {
			continue
		}
		if nd > bestDepth || (nd == bestDepth && best != nil && n.ID() < best.ID()) {
			best = n
			bestDepth = nd
		}
	}

	return best
}

// BuildStructure plans total fresh nodes under cfg.MaxDepth, attaching
// each new node to the deepest eligible candidate.
func (d *DepthLimitTree) BuildStructure(total int) (*topo.Node, error) {
	if total < 1 {
		return nil, fmt.Errorf("strategy: DepthLimitTree.BuildStructure: n=%d < 1: %w", total, substructure.ErrInfeasibleSize)
	}

	mirrors := d.net.GetMirrorCursor().CreateMirrors(total)
	nodes := make([]*topo.Node, 0, total)
	for _, m := range mirrors {
		nodes = append(nodes, d.CreateMirrorNodeForMirror(m))
	}
	head := nodes[0]
	head.SetHead(topo.DepthLimitTree, true)

	order := []*topo.Node{head}
	depth := map[topo.NodeID]int{head.ID(): 0}
	for _, n := range nodes[1:] {
		parent := pickDeepestCandidate(order, depth, d.cfg)
		if parent == nil {
			return nil, fmt.Errorf("strategy: DepthLimitTree.BuildStructure: depth cap %d exceeded: %w", d.cfg.MaxDepth, substructure.ErrInfeasibleSize)
		}
		parent.AddChild(n, topo.DepthLimitTree, head.ID(), true)
		depth[n.ID()] = depth[parent.ID()] + 1
		order = append(order, n)
	}

	return head, nil
}

// AddNodesToStructure attaches each new mirror to the deepest eligible
// candidate under cfg.MaxDepth (spec §4.3 "deepest candidate still under
// depth cap, DFS preference").
func (d *DepthLimitTree) AddNodesToStructure(newMirrors []*meshnet.Mirror) (int, error) {
	head := d.CurrentRoot()
	res, err := topo.GetAllNodesInStructure(d.store, head, topo.DepthLimitTree, nil)
	if err != nil {
		return 0, fmt.Errorf("strategy: DepthLimitTree.AddNodesToStructure: %w", err)
	}
	order := res.Order
	depth := res.Depth

	placed := 0
	for _, m := range newMirrors {
		parent := pickDeepestCandidate(order, depth, d.cfg)
		if parent == nil {
			return placed, fmt.Errorf("strategy: DepthLimitTree.AddNodesToStructure: depth cap %d exceeded: %w", d.cfg.MaxDepth, substructure.ErrInfeasibleSize)
		}
		n := d.CreateMirrorNodeForMirror(m)
		parent.AddChild(n, topo.DepthLimitTree, head.ID(), true)
		depth[n.ID()] = depth[parent.ID()] + 1
		order = append(order, n)
		placed++
	}

	return placed, nil
}

// RemoveNodesFromStructure removes up to k deepest leaves first (spec
// §4.3 "deepest leaf at maxDepth"), never the root.
func (d *DepthLimitTree) RemoveNodesFromStructure(k int) ([]*topo.Node, error) {
	head := d.CurrentRoot()
	res, err := topo.GetAllNodesInStructure(d.store, head, topo.DepthLimitTree, nil)
	if err != nil {
		return nil, fmt.Errorf("strategy: DepthLimitTree.RemoveNodesFromStructure: %w", err)
	}

	type cand struct {
		n     *topo.Node
		depth int
	}
	var leaves []cand
	for _, n := range res.Order {
		if n.ID() == head.ID() {
			continue
		}
		if topo.IsTerminal(n, topo.DepthLimitTree) {
			leaves = append(leaves, cand{n, res.Depth[n.ID()]})
		}
	}
	for i := 0; i < len(leaves); i++ {
		for j := i + 1; j < len(leaves); j++ {
			a, b := leaves[i], leaves[j]
			if b.depth > a.depth || (b.depth == a.depth && b.n.ID() > a.n.ID()) {
				leaves[i], leaves[j] = leaves[j], leaves[i]
			}
		}
	}
	if k > len(leaves) {
		k = len(leaves)
	}

	removed := make([]*topo.Node, 0, k)
	for i := 0; i < k; i++ {
		v := leaves[i].n
		if predID, ok := v.Parent(); ok {
			if pred, ok := d.store.Get(predID); ok {
				pred.RemoveChild(v.ID(), topo.DepthLimitTree)
			}
		}
		d.store.Delete(v.ID())
		removed = append(removed, v)
	}

	return removed, nil
}

// ValidateTopology checks a root exists, every owned node is reachable
// from it at or below cfg.MaxDepth, and no node exceeds cfg.LinksPerMirror
// children.
func (d *DepthLimitTree) ValidateTopology() bool {
	head := d.CurrentRoot()
	if head == nil {
		return false
	}
	res, err := topo.GetAllNodesInStructure(d.store, head, topo.DepthLimitTree, nil)
	if err != nil || len(res.Order) != d.StructureNodeCount() {
		return false
	}
	for _, n := range res.Order {
		if res.Depth[n.ID()] > d.cfg.MaxDepth {
			return false
		}
		if degree(n, topo.DepthLimitTree) > d.cfg.LinksPerMirror {
			return false
		}
	}

	return true
}

// GetNumTargetLinks implements the DepthLimitTree formula: n-1 (P3).
func (d *DepthLimitTree) GetNumTargetLinks(numMirrors int) int {
	if numMirrors < 1 {
		return 0
	}

	return numMirrors - 1
}

func (d *DepthLimitTree) GetPredictedNumTargetLinks(a action.Action, currentMirrors, _ int) int {
	switch v := a.(type) {
	case action.MirrorChange:
		return d.GetNumTargetLinks(v.NewMirrorCount)
	default:
		return d.GetNumTargetLinks(currentMirrors)
	}
}
