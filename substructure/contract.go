// Package substructure implements the abstract planner machinery every
// topology strategy shares (spec §4.2): the typed planning plane, the
// link-reconciliation execution plane, and the graft/sever protocol
// composites use to assemble substructures into a larger one.
//
// Hooks is the seam between this shared machinery and a concrete leaf
// strategy (Ring, Line, Tree, ...): a leaf strategy embeds *Base and
// implements Hooks on itself, then hands its own value to NewBase so
// Base can call back into strategy-specific planning while owning the
// parts that are identical across every strategy (execution-plane
// reconciliation, graft/sever, the top-level lifecycle dispatch).
package substructure

import (
	"github.com/arcveil/meshtopo/action"
	"github.com/arcveil/meshtopo/meshcfg"
	"github.com/arcveil/meshtopo/meshlog"
	"github.com/arcveil/meshtopo/meshnet"
	"github.com/arcveil/meshtopo/topo"
)

// Hooks are the pure-virtual operations spec §4.2 assigns to each leaf
// strategy. Base never implements these itself; it only calls them.
type Hooks interface {
	// BuildStructure plans totalNodes fresh nodes on the node graph only
	// (no links) and returns the new root.
	BuildStructure(totalNodes int) (*topo.Node, error)

	// AddNodesToStructure wires newMirrors into the existing plan using
	// the strategy's attachment rule and returns the count integrated.
	AddNodesToStructure(newMirrors []*meshnet.Mirror) (int, error)

	// RemoveNodesFromStructure selects k victims by the strategy's
	// removal rule, detaches them from the plan, and returns them.
	RemoveNodesFromStructure(k int) ([]*topo.Node, error)

	// ValidateTopology reports whether the current plan still satisfies
	// the strategy's shape invariant (I5/I7).
	ValidateTopology() bool

	// CreateMirrorNodeForMirror is the factory for the node bound to a
	// freshly allocated mirror, tagged with this strategy's type.
	CreateMirrorNodeForMirror(m *meshnet.Mirror) *topo.Node

	// GetNumTargetLinks returns the expected link count for numMirrors
	// mirrors under this strategy's formula (spec §4.3/P3).
	GetNumTargetLinks(numMirrors int) int

	// GetPredictedNumTargetLinks returns the expected link count after a
	// hypothetical action, computed by formula with no mutation. currentMirrors
	// and currentLinksPerMirror describe the state the prediction is made from.
	GetPredictedNumTargetLinks(a action.Action, currentMirrors, currentLinksPerMirror int) int

	// StructureKind reports the StructureType this strategy plans under.
	StructureKind() topo.StructureType
}

// Base is the shared substructure machinery embedded by every leaf
// strategy and by Snowflake. It owns the planning-plane bookkeeping
// (current root, the set of nodes this instance manages) and the
// execution-plane reconciliation algorithm; strategy-specific planning
// is dispatched through Hooks.
type Base struct {
	net   *meshnet.Network
	store *topo.Store
	cfg   meshcfg.Properties
	log   *meshlog.Logger
	hooks Hooks

	currentRoot *topo.Node

	// structureNodes is the set of nodes this instance currently manages
	// (spec §3's Substructure.structureNodes).
	structureNodes map[topo.NodeID]struct{}

	// owner records, for every node in structureNodes, which Base is
	// authoritative for it (self, or a nested child in a composite) — I6.
	owner map[topo.NodeID]*Base
}

// NewBase constructs the shared machinery for one substructure instance.
// hooks must be the leaf strategy embedding this Base (self-reference),
// supplied after the leaf's own zero value exists so BuildStructure etc.
// can be dispatched back to it.
func NewBase(net *meshnet.Network, store *topo.Store, cfg meshcfg.Properties, log *meshlog.Logger, hooks Hooks) *Base {
	if log == nil {
		log = meshlog.Discard()
	}

	return &Base{
		net:            net,
		store:          store,
		cfg:            cfg,
		log:            log,
		hooks:          hooks,
		structureNodes: make(map[topo.NodeID]struct{}),
		owner:          make(map[topo.NodeID]*Base),
	}
}

// Network returns the network this instance plans against.
func (b *Base) Network() *meshnet.Network { return b.net }

// Store returns the node arena this instance plans against.
func (b *Base) Store() *topo.Store { return b.store }

// Config returns the configuration properties this instance was built with.
func (b *Base) Config() meshcfg.Properties { return b.cfg }

// Log returns this instance's logger.
func (b *Base) Log() *meshlog.Logger { return b.log }

// CurrentRoot returns the structure's current root node, or nil before
// the first BuildStructure.
func (b *Base) CurrentRoot() *topo.Node { return b.currentRoot }

// StructureNodeCount returns how many nodes this instance currently manages.
func (b *Base) StructureNodeCount() int { return len(b.structureNodes) }

// StructureNodeIDs returns a snapshot of the managed node set, in
// ascending order for deterministic enumeration.
func (b *Base) StructureNodeIDs() []topo.NodeID {
	out := make([]topo.NodeID, 0, len(b.structureNodes))
	for id := range b.structureNodes {
		out = append(out, id)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}

	return out
}

// adoptRoot records root and every node BuildStructure just planned as
// owned by this instance.
func (b *Base) adoptRoot(root *topo.Node, t topo.StructureType) error {
	res, err := topo.GetAllNodesInStructure(b.store, root, t, nil)
	if err != nil {
		return err
	}
	// Preserve ownership recorded by a prior graft (absorbSubtree may have
	// already pointed some of these nodes at a nested sub-Base); only
	// default to self-ownership for nodes seen for the first time.
	prevOwner := b.owner
	b.currentRoot = root
	b.structureNodes = make(map[topo.NodeID]struct{}, len(res.Order))
	b.owner = make(map[topo.NodeID]*Base, len(res.Order))
	for _, n := range res.Order {
		b.structureNodes[n.ID()] = struct{}{}
		if owner, ok := prevOwner[n.ID()]; ok {
			b.owner[n.ID()] = owner
		} else {
			b.owner[n.ID()] = b
		}
	}

	return nil
}
