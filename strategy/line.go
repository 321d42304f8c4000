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

// Line plans a simple path: one endpoint is head, the other is the free
// end that growth extends (spec §4.3, grounded on builder.Path/
// impl_path.go).
type Line struct {
	*substructure.Base

	store *topo.Store
	net   *meshnet.Network
	cfg   meshcfg.Properties
}

// NewLine constructs a Line strategy using cfg.MinLineSize as its
// feasibility floor.
func NewLine(net *meshnet.Network, store *topo.Store, cfg meshcfg.Properties, log *meshlog.Logger) *Line {
	l := &Line{store: store, net: net, cfg: cfg}
	l.Base = substructure.NewBase(net, store, cfg, log, l)

	return l
}

func (l *Line) StrategyName() string           { return "Line" }
func (l *Line) StructureKind() topo.StructureType { return topo.Line }

// BuildStructure plans a path of total fresh nodes. total < cfg.MinLineSize
// is ErrInfeasibleSize (I7).
func (l *Line) BuildStructure(total int) (*topo.Node, error) {
	if total < l.cfg.MinLineSize {
		return nil, fmt.Errorf("strategy: Line.BuildStructure: n=%d < min=%d: %w", total, l.cfg.MinLineSize, substructure.ErrInfeasibleSize)
	}

	mirrors := l.net.GetMirrorCursor().CreateMirrors(total)
	nodes := make([]*topo.Node, 0, total)
	for _, m := range mirrors {
		nodes = append(nodes, l.CreateMirrorNodeForMirror(m))
	}

	head := nodes[0]
	head.SetHead(topo.Line, true)
	for i := 0; i < len(nodes)-1; i++ {
		nodes[i].AddChild(nodes[i+1], topo.Line, head.ID(), true)
	}

	return head, nil
}

func (l *Line) CreateMirrorNodeForMirror(m *meshnet.Mirror) *topo.Node {
	n := l.store.NewNode(topo.Line)
	n.BindMirror(m.ID())

	return n
}

// AddNodesToStructure extends the free endpoint (spec §4.3 "extend an
// endpoint").
func (l *Line) AddNodesToStructure(newMirrors []*meshnet.Mirror) (int, error) {
	head := l.CurrentRoot()
	res, err := topo.GetAllNodesInStructure(l.store, head, topo.Line, nil)
	if err != nil {
		return 0, fmt.Errorf("strategy: Line.AddNodesToStructure: %w", err)
	}

	var tail *topo.Node
	for _, n := range res.Order {
		if topo.IsTerminal(n, topo.Line) {
			tail = n

			break
		}
	}
	if tail == nil {
		return 0, fmt.Errorf("strategy: Line.AddNodesToStructure: no free endpoint: %w", substructure.ErrStructureInvariantViolation)
	}

	for _, m := range newMirrors {
		n := l.CreateMirrorNodeForMirror(m)
		tail.AddChild(n, topo.Line, head.ID(), true)
		tail = n
	}

	return len(newMirrors), nil
}

// RemoveNodesFromStructure removes up to k nodes from the non-head
// endpoint, shortening the line (spec §4.3 "remove endpoint that is not
// head"). Fails with ErrInfeasibleSize below cfg.MinLineSize.
func (l *Line) RemoveNodesFromStructure(k int) ([]*topo.Node, error) {
	head := l.CurrentRoot()
	if l.StructureNodeCount()-k < l.cfg.MinLineSize {
		return nil, fmt.Errorf("strategy: Line.RemoveNodesFromStructure: would drop below min=%d: %w", l.cfg.MinLineSize, substructure.ErrInfeasibleSize)
	}

	res, err := topo.GetAllNodesInStructure(l.store, head, topo.Line, nil)
	if err != nil {
		return nil, fmt.Errorf("strategy: Line.RemoveNodesFromStructure: %w", err)
	}

	removed := make([]*topo.Node, 0, k)
	for i := len(res.Order) - 1; i >= 0 && len(removed) < k; i-- {
		v := res.Order[i]
		if v.ID() == head.ID() {
			break
		}
		removed = append(removed, v)
	}

	for _, v := range removed {
		if predID, ok := v.Parent(); ok {
			if pred, ok := l.store.Get(predID); ok {
				pred.RemoveChild(v.ID(), topo.Line)
			}
		}
		l.store.Delete(v.ID())
	}

	return removed, nil
}

// ValidateTopology checks the line is at least cfg.MinLineSize, has a
// head, and exactly one free endpoint.
func (l *Line) ValidateTopology() bool {
	head := l.CurrentRoot()
	if head == nil || l.StructureNodeCount() < l.cfg.MinLineSize {
		return false
	}
	terminals := 0
	for _, id := range l.StructureNodeIDs() {
		n, ok := l.store.Get(id)
		if !ok {
			return false
		}
		if topo.IsTerminal(n, topo.Line) {
			terminals++
		}
	}

	return terminals == 1
}

// GetNumTargetLinks implements the Line formula: n-1 if n >= 2, else 0 (P3).
func (l *Line) GetNumTargetLinks(numMirrors int) int {
	if numMirrors < l.cfg.MinLineSize {
		return 0
	}

	return numMirrors - 1
}

func (l *Line) GetPredictedNumTargetLinks(a action.Action, currentMirrors, _ int) int {
	switch v := a.(type) {
	case action.MirrorChange:
		return l.GetNumTargetLinks(v.NewMirrorCount)
	default:
		return l.GetNumTargetLinks(currentMirrors)
	}
}
