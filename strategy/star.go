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

// Star plans one center with every other mirror as a direct leaf (spec
// §4.3, grounded on builder.Star/impl_star.go).
type Star struct {
	*substructure.Base

	store *topo.Store
	net   *meshnet.Network
	cfg   meshcfg.Properties
}

// NewStar constructs a Star strategy; a center alone (n=1) is a valid
// degenerate star.
func NewStar(net *meshnet.Network, store *topo.Store, cfg meshcfg.Properties, log *meshlog.Logger) *Star {
	s := &Star{store: store, net: net, cfg: cfg}
	s.Base = substructure.NewBase(net, store, cfg, log, s)

	return s
}

func (s *Star) StrategyName() string              { return "Star" }
func (s *Star) StructureKind() topo.StructureType { return topo.Star }

// BuildStructure plans a star of total fresh nodes: the first becomes
// center, every other is a direct leaf.
func (s *Star) BuildStructure(total int) (*topo.Node, error) {
	if total < 1 {
		return nil, fmt.Errorf("strategy: Star.BuildStructure: n=%d < 1: %w", total, substructure.ErrInfeasibleSize)
	}

	mirrors := s.net.GetMirrorCursor().CreateMirrors(total)
	center := s.CreateMirrorNodeForMirror(mirrors[0])
	center.SetHead(topo.Star, true)
	for _, m := range mirrors[1:] {
		leaf := s.CreateMirrorNodeForMirror(m)
		center.AddChild(leaf, topo.Star, center.ID(), true)
	}

	return center, nil
}

func (s *Star) CreateMirrorNodeForMirror(m *meshnet.Mirror) *topo.Node {
	n := s.store.NewNode(topo.Star)
	n.BindMirror(m.ID())

	return n
}

// AddNodesToStructure attaches every new mirror directly to the center
// (spec §4.3 "add leaf to center").
func (s *Star) AddNodesToStructure(newMirrors []*meshnet.Mirror) (int, error) {
	center := s.CurrentRoot()
	for _, m := range newMirrors {
		leaf := s.CreateMirrorNodeForMirror(m)
		center.AddChild(leaf, topo.Star, center.ID(), true)
	}

	return len(newMirrors), nil
}

// RemoveNodesFromStructure removes up to k leaves (spec §4.3 "remove any
// leaf").
func (s *Star) RemoveNodesFromStructure(k int) ([]*topo.Node, error) {
	center := s.CurrentRoot()
	leaves := center.ChildrenOfType(topo.Star)
	if k > len(leaves) {
		k = len(leaves)
	}

	removed := make([]*topo.Node, 0, k)
	for i := 0; i < k; i++ {
		rec := leaves[i]
		leaf, ok := s.store.Get(rec.ChildID)
		if !ok {
			continue
		}
		center.RemoveChild(leaf.ID(), topo.Star)
		s.store.Delete(leaf.ID())
		removed = append(removed, leaf)
	}

	return removed, nil
}

// ValidateTopology checks every owned non-center node is a direct,
// terminal child of the center.
func (s *Star) ValidateTopology() bool {
	center := s.CurrentRoot()
	if center == nil {
		return false
	}
	for _, id := range s.StructureNodeIDs() {
		if id == center.ID() {
			continue
		}
		n, ok := s.store.Get(id)
		if !ok {
			return false
		}
		parentID, hasParent := n.Parent()
		if !hasParent || parentID != center.ID() || !topo.IsTerminal(n, topo.Star) {
			return false
		}
	}

	return true
}

// GetNumTargetLinks implements the Star formula: n-1 (P3).
func (s *Star) GetNumTargetLinks(numMirrors int) int {
	if numMirrors < 1 {
		return 0
	}

	return numMirrors - 1
}

func (s *Star) GetPredictedNumTargetLinks(a action.Action, currentMirrors, _ int) int {
	switch v := a.(type) {
	case action.MirrorChange:
		return s.GetNumTargetLinks(v.NewMirrorCount)
	default:
		return s.GetNumTargetLinks(currentMirrors)
	}
}
