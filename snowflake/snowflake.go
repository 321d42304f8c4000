// Package snowflake implements the composite Snowflake topology (spec
// §4.4): a central ring with external substructures grafted at every
// cfg.RingBridgeGap-th ring position, cycling through cfg.Rotation.
//
// Unlike the leaf strategies in package strategy, Snowflake does not
// drive its lifecycle through substructure.Base's generic
// InitNetwork/HandleAddNewMirrors/HandleRemoveMirrors dispatch — those
// assume a single BuildStructure/AddNodesToStructure/RemoveNodesFromStructure
// triple reconciled by one substructure.BuildAndUpdateLinks call per
// structure type. A composite instead owns several independently-built
// nested strategies (the ring, plus one per external attachment) and
// must build/resize/graft/sever each in turn, so Snowflake defines its
// own InitNetwork/RestartNetwork/HandleAddNewMirrors/HandleRemoveMirrors
// that shadow the embedded *substructure.Base's promoted methods, per
// spec §4.2 point 4 ("for composite strategies, step 2 recurses:
// substructures are detached, updated, and re-grafted").
package snowflake

import (
	"fmt"

	"github.com/arcveil/meshtopo/action"
	"github.com/arcveil/meshtopo/meshcfg"
	"github.com/arcveil/meshtopo/meshlog"
	"github.com/arcveil/meshtopo/meshnet"
	"github.com/arcveil/meshtopo/strategy"
	"github.com/arcveil/meshtopo/substructure"
	"github.com/arcveil/meshtopo/topo"
)

// externalSlot remembers which ring node hosts an external substructure,
// which rotation kind it was built as, and its live planner.
type externalSlot struct {
	hostID topo.NodeID
	kind   topo.StructureType
	sub    *substructure.Base
}

// Snowflake composes a central ring with external leaf substructures.
type Snowflake struct {
	*substructure.Base

	store *topo.Store
	net   *meshnet.Network
	cfg   meshcfg.Properties
	log   *meshlog.Logger

	ring      *substructure.Base
	externals []*externalSlot
}

// New constructs a Snowflake strategy.
func New(net *meshnet.Network, store *topo.Store, cfg meshcfg.Properties, log *meshlog.Logger) *Snowflake {
	s := &Snowflake{store: store, net: net, cfg: cfg, log: log}
	s.Base = substructure.NewBase(net, store, cfg, log, s)

	return s
}

func (s *Snowflake) StrategyName() string              { return "Snowflake" }
func (s *Snowflake) StructureKind() topo.StructureType { return topo.Snowflake }

// CreateMirrorNodeForMirror exists only to satisfy substructure.Hooks;
// Snowflake's own lifecycle methods never call it directly, since mirror
// creation is delegated to whichever nested leaf strategy owns a node.
func (s *Snowflake) CreateMirrorNodeForMirror(m *meshnet.Mirror) *topo.Node {
	n := s.store.NewNode(topo.Snowflake)
	n.BindMirror(m.ID())

	return n
}

// newLeaf instantiates the nested strategy for one of the eight leaf
// structure kinds a rotation entry may name.
func newLeaf(kind topo.StructureType, net *meshnet.Network, store *topo.Store, cfg meshcfg.Properties, log *meshlog.Logger) (*substructure.Base, error) {
	switch kind {
	case topo.Ring:
		return strategy.NewRing(net, store, cfg, log).Base, nil
	case topo.Line:
		return strategy.NewLine(net, store, cfg, log).Base, nil
	case topo.Star:
		return strategy.NewStar(net, store, cfg, log).Base, nil
	case topo.FullyConnected:
		return strategy.NewFullyConnected(net, store, cfg, log).Base, nil
	case topo.NConnected:
		return strategy.NewNConnected(net, store, cfg, log).Base, nil
	case topo.Tree:
		return strategy.NewTree(net, store, cfg, log).Base, nil
	case topo.BalancedTree:
		return strategy.NewBalancedTree(net, store, cfg, log).Base, nil
	case topo.DepthLimitTree:
		return strategy.NewDepthLimitTree(net, store, cfg, log).Base, nil
	default:
		return nil, fmt.Errorf("snowflake: unsupported rotation kind %s: %w", kind, substructure.ErrTypeIncompatibility)
	}
}

// ensureBridgeLink materializes the single link a graft plans between
// host and child's mirrors, if one doesn't already exist. Unlike
// substructure.BuildAndUpdateLinks, this never sweeps the whole store for
// orphans: a composite's bridges are local (host, external-root) pairs,
// not one globally-reachable structure under a single type (spec §9).
func ensureBridgeLink(net *meshnet.Network, host, child *topo.Node, at int64) (*meshnet.Link, error) {
	hostMirrorID, ok := host.MirrorID()
	if !ok {
		return nil, nil
	}
	childMirrorID, ok := child.MirrorID()
	if !ok {
		return nil, nil
	}
	hostMirror, ok := net.GetMirrorByID(hostMirrorID)
	if !ok {
		return nil, nil
	}
	childMirror, ok := net.GetMirrorByID(childMirrorID)
	if !ok {
		return nil, nil
	}
	if hostMirror.IsAlreadyConnected(childMirror) {
		return nil, nil
	}

	return net.CreateLink(hostMirror, childMirror, at, nil)
}

// teardownBridgeLink shuts down any live link between host and child's
// mirrors, the inverse of ensureBridgeLink.
func teardownBridgeLink(net *meshnet.Network, host, child *topo.Node, at int64) {
	if host == nil || child == nil {
		return
	}
	hostMirrorID, ok := host.MirrorID()
	if !ok {
		return
	}
	childMirrorID, ok := child.MirrorID()
	if !ok {
		return
	}
	hostMirror, ok := net.GetMirrorByID(hostMirrorID)
	if !ok {
		return
	}
	childMirror, ok := net.GetMirrorByID(childMirrorID)
	if !ok {
		return
	}
	for _, l := range hostMirror.GetLinksTo(childMirror) {
		net.ShutdownLink(l, at)
	}
}

// buildFresh plans and grafts a brand-new ring plus its external
// attachments for total mirrors (spec §4.4 build protocol, steps 1-4).
func (s *Snowflake) buildFresh(total int, at int64) error {
	dist := computeDistribution(total, s.cfg)
	if dist.ringMirrors < s.cfg.MinRingSize {
		return fmt.Errorf("snowflake: buildFresh: ring size %d < min %d: %w", dist.ringMirrors, s.cfg.MinRingSize, substructure.ErrInfeasibleSize)
	}

	ring := strategy.NewRing(s.net, s.store, s.cfg, s.log)
	if _, err := ring.InitNetwork(dist.ringMirrors, at); err != nil {
		return fmt.Errorf("snowflake: buildFresh: ring: %w", err)
	}
	s.ring = ring.Base

	if err := s.ConnectToStructureNodes(ring.CurrentRoot(), ring.Base); err != nil {
		return fmt.Errorf("snowflake: buildFresh: graft ring: %w", err)
	}

	ringOrder, err := topo.GetAllNodesInStructure(s.store, ring.CurrentRoot(), topo.Ring, nil)
	if err != nil {
		return fmt.Errorf("snowflake: buildFresh: walk ring: %w", err)
	}

	s.externals = nil
	rotationIdx := 0
	for idx, node := range ringOrder.Order {
		n := 0
		if idx < len(dist.perPosition) {
			n = dist.perPosition[idx]
		}
		if n <= 0 || len(s.cfg.Rotation) == 0 {
			continue
		}
		kind := topo.StructureType(int(s.cfg.Rotation[rotationIdx%len(s.cfg.Rotation)]))
		rotationIdx++

		leaf, err := newLeaf(kind, s.net, s.store, s.cfg, s.log)
		if err != nil {
			return err
		}
		if _, err := leaf.InitNetwork(n, at); err != nil {
			return fmt.Errorf("snowflake: buildFresh: external[%d] kind=%s: %w", idx, kind, err)
		}
		if err := s.ConnectToStructureNodes(node, leaf); err != nil {
			return fmt.Errorf("snowflake: buildFresh: graft external[%d]: %w", idx, err)
		}
		s.externals = append(s.externals, &externalSlot{hostID: node.ID(), kind: kind, sub: leaf})
	}

	return nil
}

// reconcileBridges creates the live link for every current external
// attachment that doesn't already have one.
func (s *Snowflake) reconcileBridges(at int64) ([]*meshnet.Link, error) {
	var touched []*meshnet.Link
	for _, ext := range s.externals {
		host, ok := s.store.Get(ext.hostID)
		if !ok {
			continue
		}
		l, err := ensureBridgeLink(s.net, host, ext.sub.CurrentRoot(), at)
		if err != nil {
			return touched, fmt.Errorf("snowflake: reconcileBridges: host %d: %w", ext.hostID, err)
		}
		if l != nil {
			touched = append(touched, l)
		}
	}

	return touched, nil
}

// currentTotalMirrors sums the ring's and every external's current node
// count — the inverse of computeDistribution, used to recompute a target
// total for growth/shrink deltas.
func (s *Snowflake) currentTotalMirrors() int {
	total := 0
	if s.ring != nil {
		total += s.ring.StructureNodeCount()
	}
	for _, e := range s.externals {
		total += e.sub.StructureNodeCount()
	}

	return total
}

// resizeTo implements spec §4.4's grow/shrink protocol: detach every
// external, detach the ring, recompute the distribution for the new
// total, resize and re-graft the ring, then re-pair resized (or newly
// built) externals at the new gap positions, retiring anything left over.
func (s *Snowflake) resizeTo(total int, at int64) ([]*meshnet.Link, error) {
	old := s.externals
	for _, ext := range old {
		host, ok := s.store.Get(ext.hostID)
		if !ok {
			continue
		}
		if _, err := s.DisconnectFromStructureNodes(ext.sub.CurrentRoot(), ext.sub); err != nil {
			return nil, fmt.Errorf("snowflake: resizeTo: detach external %d: %w", ext.hostID, err)
		}
		teardownBridgeLink(s.net, host, ext.sub.CurrentRoot(), at)
	}

	ringRoot := s.ring.CurrentRoot()
	if ringRoot != nil {
		if _, err := s.DisconnectFromStructureNodes(ringRoot, s.ring); err != nil {
			return nil, fmt.Errorf("snowflake: resizeTo: detach ring: %w", err)
		}
	}

	dist := computeDistribution(total, s.cfg)
	if dist.ringMirrors < s.cfg.MinRingSize {
		return nil, fmt.Errorf("snowflake: resizeTo: ring size %d < min %d: %w", dist.ringMirrors, s.cfg.MinRingSize, substructure.ErrInfeasibleSize)
	}

	curRing := s.ring.StructureNodeCount()
	var ringLinks []*meshnet.Link
	var err error
	switch {
	case dist.ringMirrors > curRing:
		ringLinks, err = s.ring.HandleAddNewMirrors(dist.ringMirrors-curRing, at)
	case dist.ringMirrors < curRing:
		ringLinks, err = s.ring.HandleRemoveMirrors(curRing-dist.ringMirrors, at)
	}
	if err != nil {
		return nil, fmt.Errorf("snowflake: resizeTo: resize ring: %w", err)
	}

	if err := s.ConnectToStructureNodes(s.ring.CurrentRoot(), s.ring); err != nil {
		return nil, fmt.Errorf("snowflake: resizeTo: re-graft ring: %w", err)
	}

	ringOrder, err := topo.GetAllNodesInStructure(s.store, s.ring.CurrentRoot(), topo.Ring, nil)
	if err != nil {
		return nil, fmt.Errorf("snowflake: resizeTo: walk ring: %w", err)
	}

	touched := append([]*meshnet.Link{}, ringLinks...)
	s.externals = nil
	nextReuse := 0
	rotationIdx := 0

	for idx, node := range ringOrder.Order {
		n := 0
		if idx < len(dist.perPosition) {
			n = dist.perPosition[idx]
		}
		if n <= 0 {
			continue
		}

		var leaf *substructure.Base
		var kind topo.StructureType
		if nextReuse < len(old) {
			cand := old[nextReuse]
			nextReuse++
			kind = cand.kind
			leaf = cand.sub
			cur := leaf.StructureNodeCount()
			var rerr error
			switch {
			case n > cur:
				_, rerr = leaf.HandleAddNewMirrors(n-cur, at)
			case n < cur:
				_, rerr = leaf.HandleRemoveMirrors(cur-n, at)
			}
			if rerr != nil {
				return nil, fmt.Errorf("snowflake: resizeTo: resize external: %w", rerr)
			}
		} else {
			if len(s.cfg.Rotation) == 0 {
				continue
			}
			kind = topo.StructureType(int(s.cfg.Rotation[rotationIdx%len(s.cfg.Rotation)]))
			rotationIdx++
			var nerr error
			leaf, nerr = newLeaf(kind, s.net, s.store, s.cfg, s.log)
			if nerr != nil {
				return nil, nerr
			}
			if _, nerr = leaf.InitNetwork(n, at); nerr != nil {
				return nil, fmt.Errorf("snowflake: resizeTo: new external kind=%s: %w", kind, nerr)
			}
		}

		if err := s.ConnectToStructureNodes(node, leaf); err != nil {
			return nil, fmt.Errorf("snowflake: resizeTo: graft external[%d]: %w", idx, err)
		}
		s.externals = append(s.externals, &externalSlot{hostID: node.ID(), kind: kind, sub: leaf})
	}

	for _, cand := range old[nextReuse:] {
		for _, id := range cand.sub.StructureNodeIDs() {
			n, ok := s.store.Get(id)
			if !ok {
				continue
			}
			if mid, has := n.MirrorID(); has {
				if m, ok := s.net.GetMirrorByID(mid); ok {
					s.net.ShutdownMirror(m, at)
				}
			}
		}
	}

	bridges, err := s.reconcileBridges(at)
	if err != nil {
		return nil, err
	}

	return append(touched, bridges...), nil
}

// InitNetwork builds a fresh snowflake of total mirrors (spec §4.4) and
// returns every link the build created: ring, external and bridge links.
func (s *Snowflake) InitNetwork(total int, at int64) ([]*meshnet.Link, error) {
	existing := make(map[*meshnet.Link]struct{})
	for _, l := range s.net.GetLinks() {
		existing[l] = struct{}{}
	}
	if err := s.buildFresh(total, at); err != nil {
		return nil, err
	}
	if _, err := s.reconcileBridges(at); err != nil {
		return nil, err
	}
	var created []*meshnet.Link
	for _, l := range s.net.GetLinks() {
		if _, ok := existing[l]; !ok {
			created = append(created, l)
		}
	}

	return created, nil
}

// RestartNetwork rebuilds from the current mirror count.
func (s *Snowflake) RestartNetwork(at int64) ([]*meshnet.Link, error) {
	return s.InitNetwork(s.currentTotalMirrors(), at)
}

// HandleAddNewMirrors grows the snowflake by k mirrors via detach-replan-
// reattach (spec §4.4).
func (s *Snowflake) HandleAddNewMirrors(k int, at int64) ([]*meshnet.Link, error) {
	if k <= 0 {
		return nil, nil
	}

	return s.resizeTo(s.currentTotalMirrors()+k, at)
}

// HandleRemoveMirrors shrinks the snowflake by k mirrors via detach-
// replan-reattach (spec §4.4).
func (s *Snowflake) HandleRemoveMirrors(k int, at int64) ([]*meshnet.Link, error) {
	if k <= 0 {
		return nil, nil
	}
	total := s.currentTotalMirrors() - k
	if total < 0 {
		total = 0
	}

	return s.resizeTo(total, at)
}

// BuildStructure satisfies substructure.Hooks for composite
// infrastructure (e.g. a future Snowflake-of-Snowflakes); Snowflake's own
// InitNetwork/HandleAddNewMirrors/HandleRemoveMirrors never call it.
func (s *Snowflake) BuildStructure(total int) (*topo.Node, error) {
	if err := s.buildFresh(total, 0); err != nil {
		return nil, err
	}

	return s.CurrentRoot(), nil
}

// AddNodesToStructure satisfies substructure.Hooks; not used by
// Snowflake's own lifecycle, which resizes nested sub-planners directly.
func (s *Snowflake) AddNodesToStructure(newMirrors []*meshnet.Mirror) (int, error) {
	return len(newMirrors), nil
}

// RemoveNodesFromStructure satisfies substructure.Hooks; not used by
// Snowflake's own lifecycle.
func (s *Snowflake) RemoveNodesFromStructure(k int) ([]*topo.Node, error) {
	return nil, nil
}

// ValidateTopology checks the ring and every external attachment still
// have a root.
func (s *Snowflake) ValidateTopology() bool {
	if s.ring == nil || s.ring.CurrentRoot() == nil {
		return false
	}
	for _, e := range s.externals {
		if e.sub.CurrentRoot() == nil {
			return false
		}
	}

	return true
}

// GetNumTargetLinks sums the ring's formula, every external attachment's
// formula, and one bridge link per attachment (spec §4.4
// "getNumTargetLinks... summing over sub-planners").
func (s *Snowflake) GetNumTargetLinks(numMirrors int) int {
	return numTargetLinksForTotal(numMirrors, s.cfg)
}

// GetPredictedNumTargetLinks recomputes the distribution and sub-planner
// formulas for the action's implied mirror count (and, for
// TargetLinkChange, degree), without mutating live state.
func (s *Snowflake) GetPredictedNumTargetLinks(a action.Action, currentMirrors, currentLinksPerMirror int) int {
	switch v := a.(type) {
	case action.MirrorChange:
		return s.GetNumTargetLinks(v.NewMirrorCount)
	case action.TargetLinkChange:
		cfg := s.cfg
		cfg.TargetLinksPerNode = v.NewLinksPerMirror

		return numTargetLinksForTotal(currentMirrors, cfg)
	default:
		return s.GetNumTargetLinks(currentMirrors)
	}
}
