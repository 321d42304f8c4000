package meshnet

import (
	"sort"
	"sync"

	"github.com/arcveil/meshtopo/meshid"
)

// TopologyStrategy is the minimal marker Network needs to hold a handle
// on "the active top-level strategy" (spec §3) without meshnet importing
// the substructure/strategy packages (which import meshnet). Concrete
// strategies implement it trivially; callers that need strategy-specific
// behavior type-assert the value returned by GetTopologyStrategy.
type TopologyStrategy interface {
	// StrategyName reports a human-readable tag for logs and diagnostics.
	StrategyName() string
}

// Network is a mutable bag of mirrors and links: the shared graph every
// substructure plans and reconciles against. Adapted from core.Graph's
// two-lock split (vertices/edges here become mirrors/links).
type Network struct {
	muMirrors sync.RWMutex
	muLinks   sync.RWMutex

	mirrorIDs *meshid.Generator
	linkIDs   *meshid.Generator

	mirrors map[int64]*Mirror
	links   map[int64]*Link

	linksPerMirror int
	strategy       TopologyStrategy
	cursor         *MirrorCursor
}

// NewNetwork returns an empty Network configured with the given
// per-mirror link budget. The network owns its own mirror cursor from
// construction, per spec §4.5 ("the cursor is the only authorized
// source of mirrors for planners").
func NewNetwork(linksPerMirror int) *Network {
	n := &Network{
		mirrorIDs:      meshid.NewGenerator(),
		linkIDs:        meshid.NewGenerator(),
		mirrors:        make(map[int64]*Mirror),
		links:          make(map[int64]*Link),
		linksPerMirror: linksPerMirror,
	}
	n.cursor = &MirrorCursor{net: n}

	return n
}

// GetMirrors returns every mirror currently in the network, in ascending
// ID order.
func (n *Network) GetMirrors() []*Mirror {
	n.muMirrors.RLock()
	defer n.muMirrors.RUnlock()

	return sortedMirrors(n.mirrors)
}

// GetLinks returns every live link currently in the network, in
// ascending ID order.
func (n *Network) GetLinks() []*Link {
	n.muLinks.RLock()
	defer n.muLinks.RUnlock()

	out := make([]*Link, 0, len(n.links))
	for _, l := range n.links {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })

	return out
}

// GetMirrorByID returns the mirror registered under id, if any. Used by
// the execution plane to resolve a topo.Node's bound mirror handle back
// into a concrete *Mirror for link reconciliation.
func (n *Network) GetMirrorByID(id int64) (*Mirror, bool) {
	n.muMirrors.RLock()
	defer n.muMirrors.RUnlock()

	m, ok := n.mirrors[id]

	return m, ok
}

// GetNumMirrors returns the current mirror count (usable or not).
func (n *Network) GetNumMirrors() int {
	n.muMirrors.RLock()
	defer n.muMirrors.RUnlock()

	return len(n.mirrors)
}

// GetNumTargetLinksPerMirror returns the configured per-mirror link
// budget (spec §6 "linksPerMirror").
func (n *Network) GetNumTargetLinksPerMirror() int {
	return n.linksPerMirror
}

// SetNumTargetLinksPerMirror updates the per-mirror link budget; this is
// how a TargetLinkChange action (spec §4.6) takes effect on the network.
func (n *Network) SetNumTargetLinksPerMirror(k int) {
	n.linksPerMirror = k
}

// GetMirrorCursor returns the network's single deterministic mirror
// allocator.
func (n *Network) GetMirrorCursor() *MirrorCursor {
	return n.cursor
}

// GetTopologyStrategy returns the network's active top-level strategy
// handle, or nil if none has been assigned yet.
func (n *Network) GetTopologyStrategy() TopologyStrategy {
	return n.strategy
}

// SetTopologyStrategy assigns the network's active top-level strategy
// handle. This is how a TopologyChange action (spec §4.6) takes effect.
func (n *Network) SetTopologyStrategy(s TopologyStrategy) {
	n.strategy = s
}

// addMirror registers a fresh, usable mirror into the network and
// returns it. It is unexported and called through
// MirrorCursor.CreateMirrors, so allocation stays deterministic and
// single-producer (spec §4.5).
func (n *Network) addMirror() *Mirror {
	n.muMirrors.Lock()
	defer n.muMirrors.Unlock()

	m := &Mirror{id: n.mirrorIDs.Next(), usable: true, links: make(map[int64]*Link)}
	n.mirrors[m.id] = m

	return m
}

// CreateLink materializes a new Link between source and target at
// simulated time at, with caller-supplied props, and registers it with
// both endpoints (invariant I1). Rejects self-loops (invariant I2).
//
// Its callers, the execution plane (substructure.BuildAndUpdateLinks) and
// Snowflake's bridge-link helper, check IsAlreadyConnected first to
// preserve invariant I3. CreateLink itself does not
// deduplicate — a caller that wants "at most one channel" must check
// first, exactly as the reconciliation algorithm in spec §4.2.2 does.
func (n *Network) CreateLink(source, target *Mirror, at int64, props map[string]any) (*Link, error) {
	if source == nil || target == nil {
		return nil, ErrEmptyMirror
	}
	if source.id == target.id {
		return nil, ErrSelfLoop
	}

	n.muLinks.Lock()
	l := &Link{
		id:        n.linkIDs.Next(),
		source:    source,
		target:    target,
		createdAt: at,
		props:     props,
		live:      true,
	}
	n.links[l.id] = l
	n.muLinks.Unlock()

	source.addLink(l)
	target.addLink(l)

	return l, nil
}

// ShutdownLink tears down l and removes it from the network's catalog.
func (n *Network) ShutdownLink(l *Link, at int64) {
	if l == nil {
		return
	}
	l.Shutdown(at)

	n.muLinks.Lock()
	delete(n.links, l.id)
	n.muLinks.Unlock()
}

// ShutdownMirror shuts m down (tearing down its links) and removes it
// from the network's mirror catalog, mirroring ShutdownLink's bookkeeping.
func (n *Network) ShutdownMirror(m *Mirror, at int64) {
	if m == nil {
		return
	}
	m.Shutdown(at)

	n.muMirrors.Lock()
	delete(n.mirrors, m.id)
	n.muMirrors.Unlock()

	n.muLinks.Lock()
	for id, l := range n.links {
		if !l.IsLive() {
			delete(n.links, id)
		}
	}
	n.muLinks.Unlock()
}

func sortedMirrors(m map[int64]*Mirror) []*Mirror {
	out := make([]*Mirror, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })

	return out
}
