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

// Tree plans a rooted, unbalanced tree: max degree is cfg.LinksPerMirror
// for the root (no parent edge to spend) and cfg.LinksPerMirror-1 for
// every other node (one edge already spent on its parent). Grounded on
// the same level-fill idiom as Ring/Line/Star (a monotonic queue walked
// in insertion order), since the teacher's builder package has no
// dedicated tree constructor to translate directly.
type Tree struct {
	*substructure.Base

	store *topo.Store
	net   *meshnet.Network
	cfg   meshcfg.Properties
}

// NewTree constructs a Tree strategy.
func NewTree(net *meshnet.Network, store *topo.Store, cfg meshcfg.Properties, log *meshlog.Logger) *Tree {
	t := &Tree{store: store, net: net, cfg: cfg}
	t.Base = substructure.NewBase(net, store, cfg, log, t)

	return t
}

func (t *Tree) StrategyName() string              { return "Tree" }
func (t *Tree) StructureKind() topo.StructureType { return topo.Tree }

func (t *Tree) CreateMirrorNodeForMirror(m *meshnet.Mirror) *topo.Node {
	n := t.store.NewNode(topo.Tree)
	n.BindMirror(m.ID())

	return n
}

// treeCapacity returns how many more children a node may take under this
// strategy's degree rule.
func treeCapacity(cfg meshcfg.Properties, isRoot bool) int {
	if isRoot {
		return cfg.LinksPerMirror
	}
	c := cfg.LinksPerMirror - 1
	if c < 0 {
		c = 0
	}

	return c
}

// BuildStructure plans total fresh nodes as a tree: nodes are handed out
// to the shallowest still-open parent in insertion order, a monotonic
// queue walk identical in shape to a level-order heap fill.
func (t *Tree) BuildStructure(total int) (*topo.Node, error) {
	if total < 1 {
		return nil, fmt.Errorf("strategy: Tree.BuildStructure: n=%d < 1: %w", total, substructure.ErrInfeasibleSize)
	}

	mirrors := t.net.GetMirrorCursor().CreateMirrors(total)
	nodes := make([]*topo.Node, 0, total)
	for _, m := range mirrors {
		nodes = append(nodes, t.CreateMirrorNodeForMirror(m))
	}
	head := nodes[0]
	head.SetHead(topo.Tree, true)

	queue := []*topo.Node{head}
	qi := 0
	for _, n := range nodes[1:] {
		for qi < len(queue) && degree(queue[qi], topo.Tree) >= treeCapacity(t.cfg, queue[qi].ID() == head.ID()) {
			qi++
		}
		if qi >= len(queue) {
			return nil, fmt.Errorf("strategy: Tree.BuildStructure: no parent has spare capacity: %w", substructure.ErrInfeasibleSize)
		}
		parent := queue[qi]
		parent.AddChild(n, topo.Tree, head.ID(), true)
		queue = append(queue, n)
	}

	return head, nil
}

// AddNodesToStructure attaches each new mirror to the shallowest parent
// with spare capacity (spec §4.3 "shallowest parent with capacity").
func (t *Tree) AddNodesToStructure(newMirrors []*meshnet.Mirror) (int, error) {
	head := t.CurrentRoot()
	res, err := topo.GetAllNodesInStructure(t.store, head, topo.Tree, nil)
	if err != nil {
		return 0, fmt.Errorf("strategy: Tree.AddNodesToStructure: %w", err)
	}
	order := res.Order

	qi := 0
	placed := 0
	for _, m := range newMirrors {
		n := t.CreateMirrorNodeForMirror(m)
		for qi < len(order) && degree(order[qi], topo.Tree) >= treeCapacity(t.cfg, order[qi].ID() == head.ID()) {
			qi++
		}
		if qi >= len(order) {
			return placed, fmt.Errorf("strategy: Tree.AddNodesToStructure: no parent has spare capacity: %w", substructure.ErrInfeasibleSize)
		}
		order[qi].AddChild(n, topo.Tree, head.ID(), true)
		order = append(order, n)
		placed++
	}

	return placed, nil
}

// RemoveNodesFromStructure removes up to k deepest leaves, never the root
// (spec §4.3 "deepest leaf, not root").
func (t *Tree) RemoveNodesFromStructure(k int) ([]*topo.Node, error) {
	head := t.CurrentRoot()
	res, err := topo.GetAllNodesInStructure(t.store, head, topo.Tree, nil)
	if err != nil {
		return nil, fmt.Errorf("strategy: Tree.RemoveNodesFromStructure: %w", err)
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
		if topo.IsTerminal(n, topo.Tree) {
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
			if pred, ok := t.store.Get(predID); ok {
				pred.RemoveChild(v.ID(), topo.Tree)
			}
		}
		t.store.Delete(v.ID())
		removed = append(removed, v)
	}

	return removed, nil
}

// ValidateTopology checks a root exists, every owned node is reachable
// from it, and no node exceeds its degree capacity.
func (t *Tree) ValidateTopology() bool {
	head := t.CurrentRoot()
	if head == nil {
		return false
	}
	res, err := topo.GetAllNodesInStructure(t.store, head, topo.Tree, nil)
	if err != nil || len(res.Order) != t.StructureNodeCount() {
		return false
	}
	for _, n := range res.Order {
		if degree(n, topo.Tree) > treeCapacity(t.cfg, n.ID() == head.ID()) {
			return false
		}
	}

	return true
}

// GetNumTargetLinks implements the Tree formula: n-1 (P3).
func (t *Tree) GetNumTargetLinks(numMirrors int) int {
	if numMirrors < 1 {
		return 0
	}

	return numMirrors - 1
}

func (t *Tree) GetPredictedNumTargetLinks(a action.Action, currentMirrors, _ int) int {
	switch v := a.(type) {
	case action.MirrorChange:
		return t.GetNumTargetLinks(v.NewMirrorCount)
	default:
		return t.GetNumTargetLinks(currentMirrors)
	}
}
