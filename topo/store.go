package topo

import (
	"sort"
	"sync"

	"github.com/arcveil/meshtopo/meshid"
)

// Store is the arena owning every Node allocated for one planning session.
// It is the sole authority handing out NodeIDs, mirroring how
// meshnet.Network owns meshid.Generator for mirror/link IDs.
type Store struct {
	mu    sync.RWMutex
	ids   *meshid.Generator
	nodes map[NodeID]*Node
}

// NewStore returns an empty arena.
func NewStore() *Store {
	return &Store{
		ids:   meshid.NewGenerator(),
		nodes: make(map[NodeID]*Node),
	}
}

// NewNode allocates and registers a fresh Node, tagged with primary type t.
func (s *Store) NewNode(t StructureType) *Node {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := NodeID(s.ids.Next())
	n := newNode(id)
	n.primaryType = t
	n.types[t] = struct{}{}
	s.nodes[id] = n

	return n
}

// Get returns the node for id, or (nil, false) if it does not exist or
// has been deleted.
func (s *Store) Get(id NodeID) (*Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.nodes[id]

	return n, ok
}

// MustGet returns the node for id, panicking if it is absent. Reserved
// for internal call sites that have already validated id came from this
// same Store (e.g. resolving a ChildRecord's ChildID immediately after
// reading it under the parent's lock) — never call this with an
// externally supplied id.
func (s *Store) MustGet(id NodeID) *Node {
	n, ok := s.Get(id)
	if !ok {
		panic("topo: node not found in store")
	}

	return n
}

// Delete removes a node from the arena. It does not unlink it from any
// parent's child records; callers must sever those first.
func (s *Store) Delete(id NodeID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.nodes, id)
}

// AllIDs returns every live node ID in ascending order, for deterministic
// enumeration (spec §5).
func (s *Store) AllIDs() []NodeID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]NodeID, 0, len(s.nodes))
	for id := range s.nodes {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}

// Len returns the number of live nodes.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.nodes)
}
